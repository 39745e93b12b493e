package implementation

import (
	"context"
	"errors"

	"publo-orchestrator/internal/entity"
	"publo-orchestrator/internal/mapper"
	"publo-orchestrator/internal/model"
	"publo-orchestrator/internal/repository/contract"
	"publo-orchestrator/internal/repository/specification"

	"gorm.io/gorm"
)

type OrchestratorSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.OrchestratorMapper
}

func NewOrchestratorSessionRepository(db *gorm.DB) contract.OrchestratorSessionRepository {
	return &OrchestratorSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewOrchestratorMapper(),
	}
}

func (r *OrchestratorSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *OrchestratorSessionRepositoryImpl) Create(ctx context.Context, session *entity.OrchestratorSession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *OrchestratorSessionRepositoryImpl) Update(ctx context.Context, session *entity.OrchestratorSession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *OrchestratorSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.OrchestratorSession, error) {
	var m model.OrchestratorSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m), nil
}

func (r *OrchestratorSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.OrchestratorSession, error) {
	var models []*model.OrchestratorSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.OrchestratorSession, len(models))
	for i, m := range models {
		entities[i] = r.mapper.SessionToEntity(m)
	}
	return entities, nil
}

func (r *OrchestratorSessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.OrchestratorSession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
