package entity

import (
	"time"

	"github.com/google/uuid"
)

// Title is a document in the user's library. The parsed content and its
// assets live in external object storage; the URLs here are issued by the
// upload pipeline and stored as-is.
type Title struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Name         string
	Author       string
	IsProcessing bool
	DocumentURL  string
	CoverURL     string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
