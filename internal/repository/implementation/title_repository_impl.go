package implementation

import (
	"context"
	"errors"

	"ai-ereader-be/internal/entity"
	"ai-ereader-be/internal/mapper"
	"ai-ereader-be/internal/model"
	"ai-ereader-be/internal/repository/contract"
	"ai-ereader-be/internal/repository/specification"

	"gorm.io/gorm"
)

type TitleRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TitleMapper
}

func NewTitleRepository(db *gorm.DB) contract.TitleRepository {
	return &TitleRepositoryImpl{
		db:     db,
		mapper: mapper.NewTitleMapper(),
	}
}

func (r *TitleRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TitleRepositoryImpl) Create(ctx context.Context, title *entity.Title) error {
	m := r.mapper.ToModel(title)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*title = *r.mapper.ToEntity(m)
	return nil
}

func (r *TitleRepositoryImpl) Update(ctx context.Context, title *entity.Title) error {
	m := r.mapper.ToModel(title)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*title = *r.mapper.ToEntity(m)
	return nil
}

func (r *TitleRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Title, error) {
	var m model.Title
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TitleRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Title, error) {
	var models []*model.Title
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
