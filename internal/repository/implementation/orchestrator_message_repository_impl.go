package implementation

import (
	"context"

	"publo-orchestrator/internal/entity"
	"publo-orchestrator/internal/mapper"
	"publo-orchestrator/internal/model"
	"publo-orchestrator/internal/repository/contract"
	"publo-orchestrator/internal/repository/specification"

	"gorm.io/gorm"
)

type OrchestratorMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.OrchestratorMapper
}

func NewOrchestratorMessageRepository(db *gorm.DB) contract.OrchestratorMessageRepository {
	return &OrchestratorMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewOrchestratorMapper(),
	}
}

func (r *OrchestratorMessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *OrchestratorMessageRepositoryImpl) Create(ctx context.Context, message *entity.OrchestratorMessage) error {
	m := r.mapper.MessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.MessageToEntity(m)
	return nil
}

func (r *OrchestratorMessageRepositoryImpl) CreateBatch(ctx context.Context, messages []*entity.OrchestratorMessage) error {
	if len(messages) == 0 {
		return nil
	}
	models := make([]*model.OrchestratorMessage, len(messages))
	for i, msg := range messages {
		models[i] = r.mapper.MessageToModel(msg)
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*messages[i] = *r.mapper.MessageToEntity(m)
	}
	return nil
}

func (r *OrchestratorMessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.OrchestratorMessage, error) {
	var models []*model.OrchestratorMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.OrchestratorMessage, len(models))
	for i, m := range models {
		entities[i] = r.mapper.MessageToEntity(m)
	}
	return entities, nil
}

func (r *OrchestratorMessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.OrchestratorMessage{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
