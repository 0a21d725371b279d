package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionStatus string

const (
	QuestionDraft     QuestionStatus = "draft"
	QuestionPublished QuestionStatus = "published"
	// QuestionArchived is reserved; nothing transitions into it yet.
	QuestionArchived QuestionStatus = "archived"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

// Difficulties lists the difficulty levels in reporting order
var Difficulties = []DifficultyLevel{DifficultyEasy, DifficultyMedium, DifficultyHard}

func (d DifficultyLevel) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

func (s QuestionStatus) Valid() bool {
	switch s {
	case QuestionDraft, QuestionPublished, QuestionArchived:
		return true
	}
	return false
}

// Certo/Errado option labels
const (
	OptionCerto  = "Certo"
	OptionErrado = "Errado"
)

type Question struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	UserID  string `json:"user_id" gorm:"not null;index;size:255"`
	BancaID string `json:"banca_id" gorm:"not null;index;size:50"`

	Title       string          `json:"title" gorm:"type:text;not null"`
	Description *string         `json:"description" gorm:"type:text"`
	Difficulty  DifficultyLevel `json:"difficulty" gorm:"not null;size:10;index"`
	Status      QuestionStatus  `json:"status" gorm:"not null;size:20;index"`

	Tags datatypes.JSONSlice[string] `json:"tags"`

	// Generation metadata, written once
	GeneratedFromSourceIDs datatypes.JSONSlice[uint] `json:"generated_from_source_ids"`
	AIPrompt               *string                   `json:"-" gorm:"type:text"`
	AIModel                *string                   `json:"ai_model" gorm:"size:100"`
	AITokensUsed           *int                      `json:"ai_tokens_used"`

	Explanation *string `json:"explanation" gorm:"type:text"`

	// Running statistics across all answers
	TimesAnswered     int `json:"times_answered" gorm:"not null;default:0"`
	CorrectAnswerRate int `json:"correct_answer_rate" gorm:"not null;default:0"` // 0-100

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	Options []QuestionOption `json:"options" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

// CorrectOption returns the option flagged correct, if loaded
func (q *Question) CorrectOption() *QuestionOption {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}

type QuestionOption struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	QuestionID   uint      `json:"question_id" gorm:"not null;index"`
	Label        string    `json:"label" gorm:"not null;size:50"`
	IsCorrect    bool      `json:"is_correct" gorm:"not null"`
	DisplayOrder int       `json:"display_order" gorm:"not null;default:0;index"`
	CreatedAt    time.Time `json:"created_at"`
}

// CertoErradoOptions builds the two options for a binary question
func CertoErradoOptions(correctLabel string) []QuestionOption {
	return []QuestionOption{
		{Label: OptionCerto, IsCorrect: correctLabel == OptionCerto, DisplayOrder: 1},
		{Label: OptionErrado, IsCorrect: correctLabel == OptionErrado, DisplayOrder: 2},
	}
}
