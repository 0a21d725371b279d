package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/inedit/inedit-service/internal/models"
	"github.com/inedit/inedit-service/internal/repositories"
)

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

// Create appends an answer. Timestamps are stored in UTC so range filters
// compare correctly on every driver.
func (a *AnswerPostgreSQL) Create(ctx context.Context, tx *gorm.DB, answer *models.UserAnswer) error {
	if answer.AnsweredAt.IsZero() {
		answer.AnsweredAt = time.Now()
	}
	answer.AnsweredAt = answer.AnsweredAt.UTC()

	db := a.getDB(tx)
	if err := db.WithContext(ctx).Create(answer).Error; err != nil {
		return fmt.Errorf("failed to create answer: %w", err)
	}
	return nil
}

func (a *AnswerPostgreSQL) ListByUserQuestion(ctx context.Context, tx *gorm.DB, userID string, questionID uint) ([]*models.UserAnswer, error) {
	db := a.getDB(tx)
	var answers []*models.UserAnswer
	if err := db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Order("answered_at ASC, id ASC").
		Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, nil
}

// ===== PER QUESTION AGGREGATES =====

func (a *AnswerPostgreSQL) StatsByQuestions(ctx context.Context, tx *gorm.DB, userID string, questionIDs []uint) (map[uint]*models.AnswerStats, error) {
	result := make(map[uint]*models.AnswerStats, len(questionIDs))
	if len(questionIDs) == 0 {
		return result, nil
	}

	db := a.getDB(tx)
	var rows []models.AnswerStats
	if err := db.WithContext(ctx).Model(&models.UserAnswer{}).
		Select("question_id, COUNT(*) AS total_attempts, "+correctSum("is_correct")+" AS correct_attempts").
		Where("user_id = ? AND question_id IN ?", userID, questionIDs).
		Group("question_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate answers: %w", err)
	}

	for i := range rows {
		row := rows[i]
		row.IncorrectAttempts = row.TotalAttempts - row.CorrectAttempts
		result[row.QuestionID] = &row
	}
	return result, nil
}

// LatestByQuestions returns the most recent answer per question by (answered_at, id)
func (a *AnswerPostgreSQL) LatestByQuestions(ctx context.Context, tx *gorm.DB, userID string, questionIDs []uint) (map[uint]*models.UserAnswer, error) {
	result := make(map[uint]*models.UserAnswer, len(questionIDs))
	if len(questionIDs) == 0 {
		return result, nil
	}

	db := a.getDB(tx)
	var answers []*models.UserAnswer
	if err := db.WithContext(ctx).
		Where("user_id = ? AND question_id IN ?", userID, questionIDs).
		Order("answered_at ASC, id ASC").
		Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("failed to get latest answers: %w", err)
	}

	// ascending order: the last write per question wins
	for _, answer := range answers {
		result[answer.QuestionID] = answer
	}
	return result, nil
}

// ===== BANCA AGGREGATES =====

func (a *AnswerPostgreSQL) Summary(ctx context.Context, tx *gorm.DB, userID, bancaID string, since time.Time) (*models.AnswerSummary, error) {
	db := a.getDB(tx)
	var summary models.AnswerSummary
	if err := db.WithContext(ctx).
		Table("user_answers AS ua").
		Joins("JOIN questions q ON q.id = ua.question_id").
		Select("COUNT(*) AS total, "+
			correctSum("ua.is_correct")+" AS correct, "+
			"AVG(ua.time_spent_seconds) AS avg_time_seconds, "+
			"COALESCE(SUM(CASE WHEN ua.answered_at >= ? THEN 1 ELSE 0 END), 0) AS answers_today", since.UTC()).
		Where("ua.user_id = ? AND q.banca_id = ?", userID, bancaID).
		Scan(&summary).Error; err != nil {
		return nil, fmt.Errorf("failed to summarise answers: %w", err)
	}
	return &summary, nil
}

func (a *AnswerPostgreSQL) DifficultyBreakdown(ctx context.Context, tx *gorm.DB, userID, bancaID string) ([]models.DifficultyPerformanceRow, error) {
	db := a.getDB(tx)
	var rows []models.DifficultyPerformanceRow
	if err := db.WithContext(ctx).
		Table("user_answers AS ua").
		Joins("JOIN questions q ON q.id = ua.question_id").
		Select("q.difficulty AS difficulty, COUNT(*) AS total, "+correctSum("ua.is_correct")+" AS correct").
		Where("ua.user_id = ? AND q.banca_id = ?", userID, bancaID).
		Group("q.difficulty").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate answers by difficulty: %w", err)
	}
	return rows, nil
}

// AnswerLog lists every answer in a banca joined with its question, newest first
func (a *AnswerPostgreSQL) AnswerLog(ctx context.Context, tx *gorm.DB, userID, bancaID string) ([]models.AnswerLogRow, error) {
	db := a.getDB(tx)
	var rows []models.AnswerLogRow
	if err := db.WithContext(ctx).
		Table("user_answers AS ua").
		Joins("JOIN questions q ON q.id = ua.question_id").
		Joins("LEFT JOIN question_options o ON o.id = ua.selected_option_id").
		Select("ua.id AS answer_id, ua.question_id AS question_id, q.title AS question_title, " +
			"q.difficulty AS difficulty, COALESCE(o.label, '') AS selected_label, ua.is_correct AS is_correct, " +
			"ua.time_spent_seconds AS time_spent_seconds, ua.answered_at AS answered_at").
		Where("ua.user_id = ? AND q.banca_id = ?", userID, bancaID).
		Order("ua.answered_at DESC, ua.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load answer log: %w", err)
	}
	return rows, nil
}

func (a *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}
