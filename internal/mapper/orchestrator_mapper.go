package mapper

import (
	"encoding/json"
	"time"

	"publo-orchestrator/internal/entity"
	"publo-orchestrator/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrchestratorMapper struct{}

func NewOrchestratorMapper() *OrchestratorMapper {
	return &OrchestratorMapper{}
}

// Session Mappers

func (m *OrchestratorMapper) SessionToEntity(s *model.OrchestratorSession) *entity.OrchestratorSession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.OrchestratorSession{
		Id:        s.Id,
		UserId:    s.UserId,
		CanvasId:  s.CanvasId,
		Metadata:  metadataToMap(s.Metadata),
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: s.DeletedAt.Valid,
	}
}

func (m *OrchestratorMapper) SessionToModel(s *entity.OrchestratorSession) *model.OrchestratorSession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.OrchestratorSession{
		Id:        s.Id,
		UserId:    s.UserId,
		CanvasId:  s.CanvasId,
		Metadata:  metadataToJSON(s.Metadata),
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
}

// Message Mappers

func (m *OrchestratorMapper) MessageToEntity(msg *model.OrchestratorMessage) *entity.OrchestratorMessage {
	if msg == nil {
		return nil
	}

	var deletedAt *time.Time
	if msg.DeletedAt.Valid {
		t := msg.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !msg.UpdatedAt.IsZero() {
		t := msg.UpdatedAt
		updatedAt = &t
	}

	return &entity.OrchestratorMessage{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		Role:      msg.Role,
		Content:   msg.Content,
		Type:      msg.Type,
		Metadata:  metadataToMap(msg.Metadata),
		CreatedAt: msg.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: msg.DeletedAt.Valid,
	}
}

func (m *OrchestratorMapper) MessageToModel(msg *entity.OrchestratorMessage) *model.OrchestratorMessage {
	if msg == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if msg.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *msg.DeletedAt, Valid: true}
	} else if msg.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if msg.UpdatedAt != nil {
		updatedAt = *msg.UpdatedAt
	}

	return &model.OrchestratorMessage{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		Role:      msg.Role,
		Content:   msg.Content,
		Type:      msg.Type,
		Metadata:  metadataToJSON(msg.Metadata),
		CreatedAt: msg.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
}

// Metadata helpers. jsonb columns round-trip through map[string]interface{}
// on the entity side so services never touch raw bytes.

func metadataToMap(data datatypes.JSON) map[string]interface{} {
	if len(data) == 0 {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func metadataToJSON(meta map[string]interface{}) datatypes.JSON {
	if len(meta) == 0 {
		return nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
