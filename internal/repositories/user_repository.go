package repositories

import (
	"context"

	"github.com/inedit/inedit-service/internal/credits"
	"github.com/inedit/inedit-service/internal/models"
	"gorm.io/gorm"
)

// UserRepository manages local accounts: role and generation counters
type UserRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)

	// EnsureFromIdentity returns the account for identity, creating it on first sight.
	// Profile fields are refreshed; role and counters are never touched for existing rows.
	EnsureFromIdentity(ctx context.Context, tx *gorm.DB, identity *models.Identity) (*models.User, error)

	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)
	UpdateRole(ctx context.Context, tx *gorm.DB, id string, role models.UserRole) error
	UpdateCreditGrant(ctx context.Context, tx *gorm.DB, id string, granted *int, resetUsage bool) error
	UpdateGenerationCounters(ctx context.Context, tx *gorm.DB, id string, counters credits.Counters) error
}

// IdentityRepository reads principals from the identity provider
type IdentityRepository interface {
	ParseToken(ctx context.Context, token string) (*models.Identity, error)
	GetByID(ctx context.Context, id string) (*models.Identity, error)
}
