package unitofwork

import (
	"context"

	"ai-ereader-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	AnnotationRepository() contract.AnnotationRepository
	TitleRepository() contract.TitleRepository
	PagePositionRepository() contract.PagePositionRepository
}
