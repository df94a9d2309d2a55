package entity

import (
	"time"

	"github.com/google/uuid"
)

// PagePosition is the last page a user was reading in a title. One row per
// (user, title); saving overwrites.
type PagePosition struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	TitleId    uuid.UUID
	PageNumber int
	UpdatedAt  *time.Time
}
