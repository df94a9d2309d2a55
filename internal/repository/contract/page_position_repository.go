package contract

import (
	"context"

	"ai-ereader-be/internal/entity"
	"ai-ereader-be/internal/repository/specification"
)

type PagePositionRepository interface {
	// Upsert overwrites the single (user, title) row.
	Upsert(ctx context.Context, position *entity.PagePosition) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PagePosition, error)
}
