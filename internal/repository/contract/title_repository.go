package contract

import (
	"context"

	"ai-ereader-be/internal/entity"
	"ai-ereader-be/internal/repository/specification"
)

type TitleRepository interface {
	Create(ctx context.Context, title *entity.Title) error
	Update(ctx context.Context, title *entity.Title) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Title, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Title, error)
}
