package model

import (
	"time"

	"github.com/google/uuid"
)

type AnnotationEntry struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId     uuid.UUID `gorm:"type:uuid;not null;index:idx_annotations_user_book"`
	BookTitle  string    `gorm:"type:varchar(512);not null;index:idx_annotations_user_book"`
	PageNum    int       `gorm:"not null"`
	Text       string    `gorm:"type:text"`
	Annotation string    `gorm:"type:text"`
	Comment    string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
	// Bumped on every write; a stale-version save loses.
	Version int64 `gorm:"not null;default:0"`
}

func (AnnotationEntry) TableName() string {
	return "annotation_entries"
}
