package models

import "time"

// Aggregate rows scanned from statistics queries

type AnswerStats struct {
	QuestionID        uint  `json:"-"`
	TotalAttempts     int64 `json:"total_attempts"`
	CorrectAttempts   int64 `json:"correct_attempts"`
	IncorrectAttempts int64 `json:"incorrect_attempts"`
}

type AnswerSummary struct {
	Total          int64
	Correct        int64
	AvgTimeSeconds *float64
	AnswersToday   int64
}

type DifficultyPerformanceRow struct {
	Difficulty DifficultyLevel
	Total      int64
	Correct    int64
}

// AnswerLogRow is one answer joined with its question, used for exports
type AnswerLogRow struct {
	AnswerID         uint
	QuestionID       uint
	QuestionTitle    string
	Difficulty       DifficultyLevel
	SelectedLabel    string
	IsCorrect        bool
	TimeSpentSeconds *int
	AnsweredAt       time.Time
}
