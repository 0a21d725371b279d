package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inedit/inedit-service/internal/models"
	"github.com/inedit/inedit-service/internal/repositories"
)

// rolling rate, rounded half up with integer arithmetic:
// round((rate*n + x) / (n+1)) == (2*(rate*n + x) + (n+1)) / (2*(n+1))
const correctAnswerRateExpr = "(2 * (correct_answer_rate * times_answered + ?) + (times_answered + 1)) / (2 * (times_answered + 1))"

type QuestionPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(),
	}
}

// ===== CREATE =====

// CreateDrafts inserts the questions and, through the association, their options
func (q *QuestionPostgreSQL) CreateDrafts(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(questions).Error; err != nil {
		return fmt.Errorf("failed to create draft questions: %w", err)
	}
	return nil
}

// ===== READS =====

func (q *QuestionPostgreSQL) GetByIDForUser(ctx context.Context, tx *gorm.DB, id uint, userID string) (*models.Question, error) {
	db := q.getDB(tx)
	var question models.Question
	if err := db.WithContext(ctx).
		Preload("Options", q.helpers.OrderedOptions).
		Where("id = ? AND user_id = ?", id, userID).
		First(&question).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("question", id)
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) GetByIDsForUser(ctx context.Context, tx *gorm.DB, ids []uint, userID string) ([]*models.Question, error) {
	if len(ids) == 0 {
		return []*models.Question{}, nil
	}

	db := q.getDB(tx)
	var questions []*models.Question
	if err := db.WithContext(ctx).
		Preload("Options", q.helpers.OrderedOptions).
		Where("id IN ? AND user_id = ?", ids, userID).
		Order("created_at DESC, id DESC").
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get questions by IDs: %w", err)
	}
	return questions, nil
}

// List returns a page of the caller's questions in one banca, newest first
func (q *QuestionPostgreSQL) List(ctx context.Context, tx *gorm.DB, userID, bancaID string, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	db := q.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Question{}).
		Where("user_id = ? AND banca_id = ?", userID, bancaID)
	query = q.helpers.ApplyQuestionFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	query = q.helpers.ApplyPagination(query.Order("created_at DESC, id DESC"), filters.Limit, filters.Offset)

	var questions []*models.Question
	if err := query.Preload("Options", q.helpers.OrderedOptions).Find(&questions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}

	return questions, total, nil
}

// ListByUser returns every question of the caller across bancas
func (q *QuestionPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Question, error) {
	db := q.getDB(tx)
	var questions []*models.Question
	if err := db.WithContext(ctx).
		Preload("Options", q.helpers.OrderedOptions).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to list user questions: %w", err)
	}
	return questions, nil
}

// ListTags returns the distinct tags of the caller's published questions, sorted
func (q *QuestionPostgreSQL) ListTags(ctx context.Context, tx *gorm.DB, userID string, bancaID *string) ([]string, error) {
	db := q.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Question{}).
		Select("tags").
		Where("user_id = ? AND status = ?", userID, models.QuestionPublished)
	if bancaID != nil {
		query = query.Where("banca_id = ?", *bancaID)
	}

	var rows []models.Question
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, row := range rows {
		for _, tag := range row.Tags {
			if tag == "" {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)

	return tags, nil
}

// ===== LIFECYCLE =====

// PublishDrafts flips the matching drafts in one UPDATE and reports the rows that
// UPDATE returned. A row published concurrently fails the status filter and is
// left out.
func (q *QuestionPostgreSQL) PublishDrafts(ctx context.Context, tx *gorm.DB, userID, bancaID string, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return []uint{}, nil
	}

	var rows []models.Question
	result := q.getDB(tx).WithContext(ctx).
		Model(&rows).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
		Where("id IN ? AND user_id = ? AND banca_id = ? AND status = ?", ids, userID, bancaID, models.QuestionDraft).
		Updates(map[string]interface{}{
			"status":     models.QuestionPublished,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to publish drafts: %w", result.Error)
	}

	published := make([]uint, 0, len(rows))
	for _, row := range rows {
		published = append(published, row.ID)
	}
	sort.Slice(published, func(i, j int) bool { return published[i] < published[j] })

	return published, nil
}

// DeleteOwned removes answers, options and questions in that order within one transaction
func (q *QuestionPostgreSQL) DeleteOwned(ctx context.Context, tx *gorm.DB, userID string, bancaID *string, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted int64
	err := q.getDB(tx).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.Question{}).Where("id IN ? AND user_id = ?", ids, userID)
		if bancaID != nil {
			query = query.Where("banca_id = ?", *bancaID)
		}

		var matched []uint
		if err := query.Pluck("id", &matched).Error; err != nil {
			return fmt.Errorf("failed to resolve questions: %w", err)
		}
		if len(matched) == 0 {
			return nil
		}

		if err := tx.Where("question_id IN ?", matched).Delete(&models.UserAnswer{}).Error; err != nil {
			return fmt.Errorf("failed to delete answers: %w", err)
		}
		if err := tx.Where("question_id IN ?", matched).Delete(&models.QuestionOption{}).Error; err != nil {
			return fmt.Errorf("failed to delete options: %w", err)
		}
		result := tx.Where("id IN ?", matched).Delete(&models.Question{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete questions: %w", result.Error)
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}

// ===== ANSWERS =====

func (q *QuestionPostgreSQL) GetOption(ctx context.Context, tx *gorm.DB, questionID, optionID uint) (*models.QuestionOption, error) {
	db := q.getDB(tx)
	var option models.QuestionOption
	if err := db.WithContext(ctx).
		Where("id = ? AND question_id = ?", optionID, questionID).
		First(&option).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("option", optionID)
		}
		return nil, fmt.Errorf("failed to get option: %w", err)
	}
	return &option, nil
}

// ApplyAnswer updates the running statistics in a single statement so concurrent
// answers never read a stale counter
func (q *QuestionPostgreSQL) ApplyAnswer(ctx context.Context, tx *gorm.DB, questionID uint, correct bool) error {
	score := 0
	if correct {
		score = 100
	}

	db := q.getDB(tx)
	result := db.WithContext(ctx).Model(&models.Question{}).
		Where("id = ?", questionID).
		Updates(map[string]interface{}{
			"correct_answer_rate": gorm.Expr(correctAnswerRateExpr, score),
			"times_answered":      gorm.Expr("times_answered + 1"),
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update question statistics: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("question", questionID)
	}
	return nil
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}
