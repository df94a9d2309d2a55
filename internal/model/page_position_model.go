package model

import (
	"time"

	"github.com/google/uuid"
)

type PagePosition struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_page_positions_user_title"`
	TitleId    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_page_positions_user_title"`
	PageNumber int       `gorm:"not null;default:0"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (PagePosition) TableName() string {
	return "page_positions"
}
