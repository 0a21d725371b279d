// Package events publishes domain events about questions and answers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "inedit-service"
	EventVersion = "1.0"
)

type EventType string

const (
	QuestionsDraftsCreated EventType = "questions.drafts_created"
	QuestionsPublished     EventType = "questions.published"
	QuestionsDiscarded     EventType = "questions.discarded"
	QuestionDeleted        EventType = "questions.deleted"
	AnswerRecorded         EventType = "answers.recorded"
)

// Event is the envelope written to the broker
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	UserID    string      `json:"user_id"`
	Data      interface{} `json:"data"`
}

// NewEvent stamps a new envelope
func NewEvent(eventType EventType, userID string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Data:      data,
	}
}

// EventPublisher delivers events. Callers publish after commit and treat failures as non-fatal.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// ===== PAYLOADS =====

type DraftsCreatedData struct {
	BancaID     string `json:"banca_id"`
	QuestionIDs []uint `json:"question_ids"`
	Count       int    `json:"count"`
	SourceIDs   []uint `json:"source_ids"`
	Model       string `json:"model,omitempty"`
	TokensUsed  int    `json:"tokens_used,omitempty"`
}

type QuestionsPublishedData struct {
	BancaID     string `json:"banca_id"`
	QuestionIDs []uint `json:"question_ids"`
	Count       int    `json:"count"`
}

type QuestionsDiscardedData struct {
	BancaID     string `json:"banca_id"`
	QuestionIDs []uint `json:"question_ids"`
	Count       int64  `json:"count"`
}

type QuestionDeletedData struct {
	QuestionID uint `json:"question_id"`
}

type AnswerRecordedData struct {
	AnswerID         uint   `json:"answer_id"`
	QuestionID       uint   `json:"question_id"`
	BancaID          string `json:"banca_id"`
	IsCorrect        bool   `json:"is_correct"`
	TimeSpentSeconds *int   `json:"time_spent_seconds,omitempty"`
}
