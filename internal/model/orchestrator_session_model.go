package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrchestratorSession struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID      `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	CanvasId  *uuid.UUID     `gorm:"type:uuid;index"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"`
	IsActive  bool           `gorm:"not null;default:true;index"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (OrchestratorSession) TableName() string {
	return "orchestrator_sessions"
}
