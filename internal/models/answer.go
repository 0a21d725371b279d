package models

import (
	"time"
)

// UserAnswer is an append-only record of one attempt at a question
type UserAnswer struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	UserID           string    `json:"user_id" gorm:"not null;index;size:255"`
	QuestionID       uint      `json:"question_id" gorm:"not null;index"`
	SelectedOptionID uint      `json:"selected_option_id" gorm:"not null"`
	IsCorrect        bool      `json:"is_correct" gorm:"not null"`
	TimeSpentSeconds *int      `json:"time_spent_seconds"`
	AnsweredAt       time.Time `json:"answered_at" gorm:"not null;index"`
}
