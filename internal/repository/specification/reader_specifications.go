package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OwnedByUser struct {
	UserID uuid.UUID
}

func (s OwnedByUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type ByBookTitle struct {
	BookTitle string
}

func (s ByBookTitle) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("book_title = ?", s.BookTitle)
}

type ByTitleID struct {
	TitleID uuid.UUID
}

func (s ByTitleID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("title_id = ?", s.TitleID)
}

type ByPageNum struct {
	PageNum int
}

func (s ByPageNum) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("page_num = ?", s.PageNum)
}

type ByText struct {
	Text string
}

func (s ByText) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("text = ?", s.Text)
}
