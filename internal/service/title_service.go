package service

import (
	"context"
	"fmt"
	"log"

	"ai-ereader-be/internal/dto"
	"ai-ereader-be/internal/repository/specification"
	"ai-ereader-be/internal/repository/unitofwork"
	"ai-ereader-be/pkg/events"
	pktNats "ai-ereader-be/pkg/nats"

	"github.com/google/uuid"
)

type ITitleService interface {
	Show(ctx context.Context, userId, id uuid.UUID) (*dto.ShowTitleResponse, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, success bool) error
}

type titleService struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher *pktNats.Publisher
}

func NewTitleService(uowFactory unitofwork.RepositoryFactory, eventPublisher *pktNats.Publisher) ITitleService {
	return &titleService{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
	}
}

func (c *titleService) Show(ctx context.Context, userId, id uuid.UUID) (*dto.ShowTitleResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	title, err := uow.TitleRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if title == nil {
		return nil, nil // Not found
	}

	return &dto.ShowTitleResponse{
		Id:           title.Id,
		Name:         title.Name,
		Author:       title.Author,
		IsProcessing: title.IsProcessing,
		DocumentURL:  title.DocumentURL,
		CoverURL:     title.CoverURL,
		CreatedAt:    title.CreatedAt,
		UpdatedAt:    title.UpdatedAt,
	}, nil
}

// MarkProcessed is the callback from the parsing job. Success flips the
// processing flag; either outcome is announced on the event bus so connected
// readers get a `library` frame.
func (c *titleService) MarkProcessed(ctx context.Context, id uuid.UUID, success bool) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	title, err := uow.TitleRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if title == nil {
		return fmt.Errorf("title %s not found", id)
	}

	if success {
		title.IsProcessing = false
		if err := uow.TitleRepository().Update(ctx, title); err != nil {
			return err
		}
	}

	if c.eventPublisher != nil {
		evt := events.NewTitleProcessedEvent(title.Id.String(), title.UserId.String(), success)
		if err := c.eventPublisher.Publish(ctx, evt); err != nil {
			// Notification is auxiliary; the state change already landed.
			log.Printf("[WARN] Failed to publish %s event: %v", evt.EventType(), err)
		}
	}

	return nil
}
