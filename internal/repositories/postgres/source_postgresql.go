package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/inedit/inedit-service/internal/models"
	"github.com/inedit/inedit-service/internal/repositories"
)

type SourcePostgreSQL struct {
	db *gorm.DB
}

func NewSourcePostgreSQL(db *gorm.DB) repositories.SourceRepository {
	return &SourcePostgreSQL{db: db}
}

func (s *SourcePostgreSQL) Create(ctx context.Context, tx *gorm.DB, source *models.Source) error {
	db := s.getDB(tx)
	if err := db.WithContext(ctx).Create(source).Error; err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}
	return nil
}

func (s *SourcePostgreSQL) GetByIDForUser(ctx context.Context, tx *gorm.DB, id uint, userID string) (*models.Source, error) {
	db := s.getDB(tx)
	var source models.Source
	if err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&source).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("source", id)
		}
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return &source, nil
}

func (s *SourcePostgreSQL) ListByBanca(ctx context.Context, tx *gorm.DB, userID, bancaID string) ([]*models.Source, error) {
	db := s.getDB(tx)
	var sources []*models.Source
	if err := db.WithContext(ctx).
		Where("user_id = ? AND banca_id = ?", userID, bancaID).
		Order("created_at DESC, id DESC").
		Find(&sources).Error; err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	return sources, nil
}

func (s *SourcePostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, userID, bancaID string, ids []uint) ([]*models.Source, error) {
	if len(ids) == 0 {
		return []*models.Source{}, nil
	}

	db := s.getDB(tx)
	var sources []*models.Source
	if err := db.WithContext(ctx).
		Where("id IN ? AND user_id = ? AND banca_id = ?", ids, userID, bancaID).
		Order("id ASC").
		Find(&sources).Error; err != nil {
		return nil, fmt.Errorf("failed to get sources by IDs: %w", err)
	}
	return sources, nil
}

func (s *SourcePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint, userID string) error {
	db := s.getDB(tx)
	result := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Source{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete source: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("source", id)
	}
	return nil
}

func (s *SourcePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}
