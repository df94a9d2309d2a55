package mapper

import (
	"time"

	"ai-ereader-be/internal/entity"
	"ai-ereader-be/internal/model"
)

type PagePositionMapper struct{}

func NewPagePositionMapper() *PagePositionMapper {
	return &PagePositionMapper{}
}

func (m *PagePositionMapper) ToEntity(p *model.PagePosition) *entity.PagePosition {
	if p == nil {
		return nil
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	return &entity.PagePosition{
		Id:         p.Id,
		UserId:     p.UserId,
		TitleId:    p.TitleId,
		PageNumber: p.PageNumber,
		UpdatedAt:  updatedAt,
	}
}

func (m *PagePositionMapper) ToModel(p *entity.PagePosition) *model.PagePosition {
	if p == nil {
		return nil
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	return &model.PagePosition{
		Id:         p.Id,
		UserId:     p.UserId,
		TitleId:    p.TitleId,
		PageNumber: p.PageNumber,
		UpdatedAt:  updatedAt,
	}
}
