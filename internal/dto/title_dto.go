package dto

import (
	"time"

	"github.com/google/uuid"
)

type ShowTitleResponse struct {
	Id           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Author       string     `json:"author,omitempty"`
	IsProcessing bool       `json:"is_processing"`
	DocumentURL  string     `json:"document_url,omitempty"`
	CoverURL     string     `json:"cover_url,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// TitleProcessedRequest is the internal callback posted by the parsing job
// when a document finishes processing.
type TitleProcessedRequest struct {
	Success bool `json:"success"`
}
