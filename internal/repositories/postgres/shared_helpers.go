package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/inedit/inedit-service/internal/repositories"
)

// SharedHelpers contains query fragments used by several repositories
type SharedHelpers struct{}

func NewSharedHelpers() *SharedHelpers {
	return &SharedHelpers{}
}

// ApplyQuestionFilters applies optional status and difficulty filters
func (h *SharedHelpers) ApplyQuestionFilters(query *gorm.DB, filters repositories.QuestionFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Difficulty != nil {
		query = query.Where("difficulty = ?", *filters.Difficulty)
	}
	return query
}

// ApplyPagination applies limit and offset when positive
func (h *SharedHelpers) ApplyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

// OrderedOptions is a Preload scope returning options in display order
func (h *SharedHelpers) OrderedOptions(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC, id ASC")
}

// correctSum counts true values of a boolean column in both Postgres and SQLite
func correctSum(column string) string {
	return fmt.Sprintf("COALESCE(SUM(CASE WHEN %s THEN 1 ELSE 0 END), 0)", column)
}

func notFound(entity string, id interface{}) error {
	return fmt.Errorf("%s %v: %w", entity, id, repositories.ErrNotFound)
}
