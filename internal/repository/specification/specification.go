package specification

import "gorm.io/gorm"

// Specification is a composable query predicate. Repositories apply any
// number of them onto the base query, so callers combine filters without
// repository methods multiplying per filter combination.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}
