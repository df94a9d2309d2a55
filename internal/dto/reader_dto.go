package dto

import "github.com/google/uuid"

type GetPageNumberResponse struct {
	PageNumber int `json:"pageNumber"`
}

type SavePageNumberRequest struct {
	TitleId    uuid.UUID `json:"title_id" validate:"required"`
	PageNumber int       `json:"page_number" validate:"min=0"`
}
