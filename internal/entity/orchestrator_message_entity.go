package entity

import (
	"time"

	"github.com/google/uuid"
)

type OrchestratorMessage struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	Role      string
	Content   string
	Type      string
	Metadata  map[string]interface{}
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
