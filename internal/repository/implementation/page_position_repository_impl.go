package implementation

import (
	"context"
	"errors"

	"ai-ereader-be/internal/entity"
	"ai-ereader-be/internal/mapper"
	"ai-ereader-be/internal/model"
	"ai-ereader-be/internal/repository/contract"
	"ai-ereader-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PagePositionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PagePositionMapper
}

func NewPagePositionRepository(db *gorm.DB) contract.PagePositionRepository {
	return &PagePositionRepositoryImpl{
		db:     db,
		mapper: mapper.NewPagePositionMapper(),
	}
}

func (r *PagePositionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PagePositionRepositoryImpl) Upsert(ctx context.Context, position *entity.PagePosition) error {
	m := r.mapper.ToModel(position)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "title_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"page_number", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}

	*position = *r.mapper.ToEntity(m)
	return nil
}

func (r *PagePositionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PagePosition, error) {
	var m model.PagePosition
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
