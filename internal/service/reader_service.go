package service

import (
	"context"

	"ai-ereader-be/internal/dto"
	"ai-ereader-be/internal/entity"
	"ai-ereader-be/internal/repository/specification"
	"ai-ereader-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IReaderService interface {
	GetPageNumber(ctx context.Context, userId, titleId uuid.UUID) (*dto.GetPageNumberResponse, error)
	SavePageNumber(ctx context.Context, userId uuid.UUID, req *dto.SavePageNumberRequest) error
}

type readerService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewReaderService(uowFactory unitofwork.RepositoryFactory) IReaderService {
	return &readerService{
		uowFactory: uowFactory,
	}
}

// GetPageNumber returns the saved reading position, 0 when none exists. The
// client treats 0 as "start from the beginning".
func (c *readerService) GetPageNumber(ctx context.Context, userId, titleId uuid.UUID) (*dto.GetPageNumberResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	position, err := uow.PagePositionRepository().FindOne(ctx,
		specification.OwnedByUser{UserID: userId},
		specification.ByTitleID{TitleID: titleId},
	)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return &dto.GetPageNumberResponse{PageNumber: 0}, nil
	}
	return &dto.GetPageNumberResponse{PageNumber: position.PageNumber}, nil
}

func (c *readerService) SavePageNumber(ctx context.Context, userId uuid.UUID, req *dto.SavePageNumberRequest) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	position := entity.PagePosition{
		UserId:     userId,
		TitleId:    req.TitleId,
		PageNumber: req.PageNumber,
	}
	return uow.PagePositionRepository().Upsert(ctx, &position)
}
