package repositories

import (
	"github.com/inedit/inedit-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type QuestionFilters struct {
	Status     *models.QuestionStatus  `json:"status"`
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
}

type UserFilters struct {
	Query  string // matches name or email
	Role   *models.UserRole
	Limit  int
	Offset int
}

// ===== PAGINATION DEFAULTS =====

const (
	DefaultQuestionLimit = 20
	MaxQuestionLimit     = 100
	DefaultUserLimit     = 50
	MaxUserLimit         = 200
)

// NormalizePage clamps limit and offset into a usable window
func NormalizePage(limit, offset, def, maxLimit int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
