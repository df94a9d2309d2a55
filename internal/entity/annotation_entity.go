package entity

import (
	"time"

	"github.com/google/uuid"
)

// AnnotationEntry is one saved highlight with an optional note attached.
// Legacy rows carry only Comment; the effective accessors fall back to it.
type AnnotationEntry struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	BookTitle  string
	PageNum    int
	Text       string
	Annotation string
	Comment    string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// EffectiveHighlight is the passage this entry anchors to.
func (e *AnnotationEntry) EffectiveHighlight() string {
	if e.Text != "" {
		return e.Text
	}
	return e.Comment
}

// EffectiveComment is the user's note shown with the highlight.
func (e *AnnotationEntry) EffectiveComment() string {
	if e.Annotation != "" {
		return e.Annotation
	}
	return e.Comment
}
