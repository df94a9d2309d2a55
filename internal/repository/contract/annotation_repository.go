package contract

import (
	"context"
	"errors"

	"ai-ereader-be/internal/entity"
	"ai-ereader-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ErrConditionalCheckFailed reports a save that lost a version race; the
// caller should refresh and retry.
var ErrConditionalCheckFailed = errors.New("conditional check failed")

type AnnotationRepository interface {
	// Upsert creates or replaces the entry keyed by
	// (user, book_title, page_num, text). Returns ErrConditionalCheckFailed
	// when a concurrent write bumped the row version first.
	Upsert(ctx context.Context, entry *entity.AnnotationEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AnnotationEntry, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AnnotationEntry, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
