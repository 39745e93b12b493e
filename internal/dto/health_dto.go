package dto

type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse reports per-dependency checks. Status is "ready" only
// when every check passes, otherwise "degraded".
type ReadinessResponse struct {
	Status string          `json:"status"`
	Checks map[string]bool `json:"checks"`
}
