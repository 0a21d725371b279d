package repositories

import (
	"context"
	"time"

	"github.com/inedit/inedit-service/internal/models"
	"gorm.io/gorm"
)

// QuestionRepository interface for question lifecycle operations.
// Every read and write is scoped by owner; rows owned by someone else look missing.
type QuestionRepository interface {
	// CreateDrafts inserts questions together with their options
	CreateDrafts(ctx context.Context, tx *gorm.DB, questions []*models.Question) error

	GetByIDForUser(ctx context.Context, tx *gorm.DB, id uint, userID string) (*models.Question, error)
	GetByIDsForUser(ctx context.Context, tx *gorm.DB, ids []uint, userID string) ([]*models.Question, error)
	List(ctx context.Context, tx *gorm.DB, userID, bancaID string, filters QuestionFilters) ([]*models.Question, int64, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Question, error)
	ListTags(ctx context.Context, tx *gorm.DB, userID string, bancaID *string) ([]string, error)

	// PublishDrafts moves matching drafts to published and returns the ids it changed
	PublishDrafts(ctx context.Context, tx *gorm.DB, userID, bancaID string, ids []uint) ([]uint, error)

	// DeleteOwned removes matching questions with their options and answers.
	// bancaID narrows the match when non-nil. No status filter is applied.
	DeleteOwned(ctx context.Context, tx *gorm.DB, userID string, bancaID *string, ids []uint) (int64, error)

	GetOption(ctx context.Context, tx *gorm.DB, questionID, optionID uint) (*models.QuestionOption, error)

	// ApplyAnswer bumps times_answered and folds the answer into correct_answer_rate
	ApplyAnswer(ctx context.Context, tx *gorm.DB, questionID uint, correct bool) error
}

// AnswerRepository interface for the append-only answer log
type AnswerRepository interface {
	Create(ctx context.Context, tx *gorm.DB, answer *models.UserAnswer) error
	ListByUserQuestion(ctx context.Context, tx *gorm.DB, userID string, questionID uint) ([]*models.UserAnswer, error)

	// Per-question aggregates for one user
	StatsByQuestions(ctx context.Context, tx *gorm.DB, userID string, questionIDs []uint) (map[uint]*models.AnswerStats, error)
	LatestByQuestions(ctx context.Context, tx *gorm.DB, userID string, questionIDs []uint) (map[uint]*models.UserAnswer, error)

	// Banca aggregates for one user
	Summary(ctx context.Context, tx *gorm.DB, userID, bancaID string, since time.Time) (*models.AnswerSummary, error)
	DifficultyBreakdown(ctx context.Context, tx *gorm.DB, userID, bancaID string) ([]models.DifficultyPerformanceRow, error)
	AnswerLog(ctx context.Context, tx *gorm.DB, userID, bancaID string) ([]models.AnswerLogRow, error)
}
