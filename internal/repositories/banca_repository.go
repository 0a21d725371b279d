package repositories

import (
	"context"

	"github.com/inedit/inedit-service/internal/models"
	"gorm.io/gorm"
)

// BancaRepository interface for exam board categories
type BancaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, banca *models.Banca) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Banca, error)
	Update(ctx context.Context, tx *gorm.DB, banca *models.Banca) error
	List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*models.Banca, error)
	ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error)
}

// SourceRepository interface for user study material
type SourceRepository interface {
	Create(ctx context.Context, tx *gorm.DB, source *models.Source) error
	GetByIDForUser(ctx context.Context, tx *gorm.DB, id uint, userID string) (*models.Source, error)
	ListByBanca(ctx context.Context, tx *gorm.DB, userID, bancaID string) ([]*models.Source, error)

	// GetByIDs returns the subset of ids owned by userID within bancaID
	GetByIDs(ctx context.Context, tx *gorm.DB, userID, bancaID string, ids []uint) ([]*models.Source, error)

	Delete(ctx context.Context, tx *gorm.DB, id uint, userID string) error
}
