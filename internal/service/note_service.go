package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"ai-ereader-be/internal/dto"
	"ai-ereader-be/internal/entity"
	"ai-ereader-be/internal/repository/contract"
	"ai-ereader-be/internal/repository/specification"
	"ai-ereader-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

var (
	// ErrSaveInFlight rejects a save while the user's previous one is still
	// being written.
	ErrSaveInFlight = errors.New("note save already in progress")
	// ErrSaveConflict reports a save that lost a concurrent-write race.
	ErrSaveConflict = errors.New("note save conflict")
)

type INoteService interface {
	List(ctx context.Context, userId uuid.UUID, bookTitle string, refresh bool) (*dto.ListNotesResponse, error)
	Save(ctx context.Context, userId uuid.UUID, req *dto.SaveNoteRequest) (*dto.SaveNoteResponse, error)
}

type noteService struct {
	uowFactory unitofwork.RepositoryFactory
	listCache  *cache.Cache

	mu       sync.Mutex
	inflight map[uuid.UUID]bool
}

func NewNoteService(uowFactory unitofwork.RepositoryFactory) INoteService {
	return &noteService{
		uowFactory: uowFactory,
		listCache:  cache.New(5*time.Minute, 10*time.Minute),
		inflight:   make(map[uuid.UUID]bool),
	}
}

func listCacheKey(userId uuid.UUID, bookTitle string) string {
	return userId.String() + "|" + bookTitle
}

// List returns the user's notes for one book, ordered by page so anchoring
// walks pages in order. A store failure degrades to an empty list; the
// reader keeps working without notes.
func (c *noteService) List(ctx context.Context, userId uuid.UUID, bookTitle string, refresh bool) (*dto.ListNotesResponse, error) {
	key := listCacheKey(userId, bookTitle)
	if !refresh {
		if cached, found := c.listCache.Get(key); found {
			return cached.(*dto.ListNotesResponse), nil
		}
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	entries, err := uow.AnnotationRepository().FindAll(ctx,
		specification.OwnedByUser{UserID: userId},
		specification.ByBookTitle{BookTitle: bookTitle},
		specification.OrderBy{Field: "page_num"},
	)
	if err != nil {
		log.Printf("[WARN] Failed to list notes for %s: %v", bookTitle, err)
		return &dto.ListNotesResponse{Notes: []*dto.NoteItem{}}, nil
	}

	res := &dto.ListNotesResponse{Notes: make([]*dto.NoteItem, 0, len(entries))}
	for _, e := range entries {
		res.Notes = append(res.Notes, toNoteItem(e))
	}

	c.listCache.Set(key, res, cache.DefaultExpiration)
	return res, nil
}

// Save upserts a highlight entry. One save per user at a time; concurrent
// server-side write races surface as ErrSaveConflict so the client can show
// the retry message.
func (c *noteService) Save(ctx context.Context, userId uuid.UUID, req *dto.SaveNoteRequest) (*dto.SaveNoteResponse, error) {
	c.mu.Lock()
	if c.inflight[userId] {
		c.mu.Unlock()
		return nil, ErrSaveInFlight
	}
	c.inflight[userId] = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inflight, userId)
		c.mu.Unlock()
	}()

	entry := entity.AnnotationEntry{
		Id:         uuid.New(),
		UserId:     userId,
		BookTitle:  req.BookTitle,
		PageNum:    req.PageNum,
		Text:       req.Text,
		Annotation: req.Annotation,
		CreatedAt:  time.Now(),
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.AnnotationRepository().Upsert(ctx, &entry); err != nil {
		if errors.Is(err, contract.ErrConditionalCheckFailed) {
			return nil, ErrSaveConflict
		}
		return nil, err
	}

	c.listCache.Delete(listCacheKey(userId, req.BookTitle))

	return &dto.SaveNoteResponse{
		Id: entry.Id,
	}, nil
}

func toNoteItem(e *entity.AnnotationEntry) *dto.NoteItem {
	return &dto.NoteItem{
		Id:         e.Id,
		BookTitle:  e.BookTitle,
		PageNum:    e.PageNum,
		Text:       e.Text,
		Annotation: e.Annotation,
		Comment:    e.Comment,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}
