package model

import (
	"time"

	"github.com/google/uuid"
)

type Title struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID `gorm:"type:uuid;not null;index"`
	Name         string    `gorm:"type:varchar(512);not null"`
	Author       string    `gorm:"type:varchar(255)"`
	IsProcessing bool      `gorm:"not null;default:true"`
	DocumentURL  string    `gorm:"type:text"`
	CoverURL     string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (Title) TableName() string {
	return "titles"
}
