package models

import "time"

// Review отзыв работодателя о технике.
type Review struct {
	ID               int64     `json:"id"`
	TechnicianID     int64     `json:"technician_id"`
	ReviewerID       int64     `json:"reviewer_id"`
	ReviewerUsername string    `json:"reviewer_username,omitempty"`
	Rating           int       `json:"rating"`
	Comment          string    `json:"comment"`
	CreatedAt        time.Time `json:"created_at"`
}

// DummyReview тело запроса на создание отзыва.
type DummyReview struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}
