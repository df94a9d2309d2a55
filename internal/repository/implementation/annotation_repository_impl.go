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
)

type AnnotationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AnnotationMapper
}

func NewAnnotationRepository(db *gorm.DB) contract.AnnotationRepository {
	return &AnnotationRepositoryImpl{
		db:     db,
		mapper: mapper.NewAnnotationMapper(),
	}
}

func (r *AnnotationRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AnnotationRepositoryImpl) Upsert(ctx context.Context, entry *entity.AnnotationEntry) error {
	var existing model.AnnotationEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_title = ? AND page_num = ? AND text = ?",
			entry.UserId, entry.BookTitle, entry.PageNum, entry.Text).
		First(&existing).Error

	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		m := r.mapper.ToModel(entry)
		if m.Id == uuid.Nil {
			m.Id = uuid.New()
		}
		if createErr := r.db.WithContext(ctx).Create(m).Error; createErr != nil {
			if errors.Is(createErr, gorm.ErrDuplicatedKey) {
				return contract.ErrConditionalCheckFailed
			}
			return createErr
		}
		*entry = *r.mapper.ToEntity(m)
		return nil
	}

	// Version check: a concurrent save since our read loses the race.
	res := r.db.WithContext(ctx).Model(&model.AnnotationEntry{}).
		Where("id = ? AND version = ?", existing.Id, existing.Version).
		Updates(map[string]interface{}{
			"annotation": entry.Annotation,
			"comment":    entry.Comment,
			"version":    existing.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contract.ErrConditionalCheckFailed
	}

	var saved model.AnnotationEntry
	if err := r.db.WithContext(ctx).First(&saved, "id = ?", existing.Id).Error; err != nil {
		return err
	}
	*entry = *r.mapper.ToEntity(&saved)
	return nil
}

func (r *AnnotationRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.AnnotationEntry{}, id).Error
}

func (r *AnnotationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AnnotationEntry, error) {
	var m model.AnnotationEntry
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *AnnotationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AnnotationEntry, error) {
	var models []*model.AnnotationEntry
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *AnnotationRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.AnnotationEntry{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
