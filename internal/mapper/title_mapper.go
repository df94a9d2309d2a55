package mapper

import (
	"time"

	"ai-ereader-be/internal/entity"
	"ai-ereader-be/internal/model"
)

type TitleMapper struct{}

func NewTitleMapper() *TitleMapper {
	return &TitleMapper{}
}

func (m *TitleMapper) ToEntity(t *model.Title) *entity.Title {
	if t == nil {
		return nil
	}

	var updatedAt *time.Time
	if !t.UpdatedAt.IsZero() {
		u := t.UpdatedAt
		updatedAt = &u
	}

	return &entity.Title{
		Id:           t.Id,
		UserId:       t.UserId,
		Name:         t.Name,
		Author:       t.Author,
		IsProcessing: t.IsProcessing,
		DocumentURL:  t.DocumentURL,
		CoverURL:     t.CoverURL,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *TitleMapper) ToModel(t *entity.Title) *model.Title {
	if t == nil {
		return nil
	}

	var updatedAt time.Time
	if t.UpdatedAt != nil {
		updatedAt = *t.UpdatedAt
	}

	return &model.Title{
		Id:           t.Id,
		UserId:       t.UserId,
		Name:         t.Name,
		Author:       t.Author,
		IsProcessing: t.IsProcessing,
		DocumentURL:  t.DocumentURL,
		CoverURL:     t.CoverURL,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *TitleMapper) ToEntities(titles []*model.Title) []*entity.Title {
	entities := make([]*entity.Title, len(titles))
	for i, t := range titles {
		entities[i] = m.ToEntity(t)
	}
	return entities
}
