package mapper

import (
	"time"

	"ai-ereader-be/internal/entity"
	"ai-ereader-be/internal/model"
)

type AnnotationMapper struct{}

func NewAnnotationMapper() *AnnotationMapper {
	return &AnnotationMapper{}
}

func (m *AnnotationMapper) ToEntity(a *model.AnnotationEntry) *entity.AnnotationEntry {
	if a == nil {
		return nil
	}

	var updatedAt *time.Time
	if !a.UpdatedAt.IsZero() {
		t := a.UpdatedAt
		updatedAt = &t
	}

	return &entity.AnnotationEntry{
		Id:         a.Id,
		UserId:     a.UserId,
		BookTitle:  a.BookTitle,
		PageNum:    a.PageNum,
		Text:       a.Text,
		Annotation: a.Annotation,
		Comment:    a.Comment,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *AnnotationMapper) ToModel(a *entity.AnnotationEntry) *model.AnnotationEntry {
	if a == nil {
		return nil
	}

	var updatedAt time.Time
	if a.UpdatedAt != nil {
		updatedAt = *a.UpdatedAt
	}

	return &model.AnnotationEntry{
		Id:         a.Id,
		UserId:     a.UserId,
		BookTitle:  a.BookTitle,
		PageNum:    a.PageNum,
		Text:       a.Text,
		Annotation: a.Annotation,
		Comment:    a.Comment,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *AnnotationMapper) ToEntities(entries []*model.AnnotationEntry) []*entity.AnnotationEntry {
	entities := make([]*entity.AnnotationEntry, len(entries))
	for i, a := range entries {
		entities[i] = m.ToEntity(a)
	}
	return entities
}

func (m *AnnotationMapper) ToModels(entries []*entity.AnnotationEntry) []*model.AnnotationEntry {
	models := make([]*model.AnnotationEntry, len(entries))
	for i, a := range entries {
		models[i] = m.ToModel(a)
	}
	return models
}
