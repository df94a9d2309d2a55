package dto

import (
	"time"

	"github.com/google/uuid"
)

type NoteItem struct {
	Id         uuid.UUID  `json:"id"`
	BookTitle  string     `json:"book_title"`
	PageNum    int        `json:"page_num"`
	Text       string     `json:"text,omitempty"`
	Annotation string     `json:"annotation,omitempty"`
	Comment    string     `json:"comment,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

type ListNotesResponse struct {
	Notes []*NoteItem `json:"notes"`
}

type SaveNoteRequest struct {
	BookTitle  string `json:"book_title" validate:"required"`
	PageNum    int    `json:"page_num" validate:"required,min=1"`
	Text       string `json:"text" validate:"required"`
	Annotation string `json:"annotation"`
}

type SaveNoteResponse struct {
	Id uuid.UUID `json:"id"`
}
