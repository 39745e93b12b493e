package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrchestratorMessage struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Role      string         `gorm:"type:varchar(50);not null"`
	Content   string         `gorm:"type:text;not null"`
	Type      string         `gorm:"type:varchar(50);not null;default:'message'"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (OrchestratorMessage) TableName() string {
	return "orchestrator_messages"
}
