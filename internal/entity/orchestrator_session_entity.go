package entity

import (
	"time"

	"github.com/google/uuid"
)

type OrchestratorSession struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	CanvasId  *uuid.UUID
	Metadata  map[string]interface{}
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
