package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/inedit/inedit-service/internal/cache"
	"github.com/inedit/inedit-service/internal/models"
	"github.com/inedit/inedit-service/internal/repositories"
)

type BancaPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewBancaPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.BancaRepository {
	if cacheManager == nil {
		cacheManager = cache.NewCacheManager(nil)
	}
	return &BancaPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (b *BancaPostgreSQL) Create(ctx context.Context, tx *gorm.DB, banca *models.Banca) error {
	db := b.getDB(tx)
	if err := db.WithContext(ctx).Create(banca).Error; err != nil {
		return fmt.Errorf("failed to create banca: %w", err)
	}

	cache.InvalidateBancaCache(ctx, b.cacheManager, banca.ID)
	return nil
}

// GetByID retrieves a banca by ID with caching
func (b *BancaPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Banca, error) {
	db := b.getDB(tx)
	var banca models.Banca

	err := b.cacheManager.Banca.CacheOrExecute(ctx, fmt.Sprintf("id:%s", id), &banca, cache.BancaCacheConfig.TTL, func() (interface{}, error) {
		var dbBanca models.Banca
		if err := db.WithContext(ctx).Where("id = ?", id).First(&dbBanca).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, notFound("banca", id)
			}
			return nil, fmt.Errorf("failed to get banca: %w", err)
		}
		return &dbBanca, nil
	})
	if err != nil {
		return nil, err
	}

	return &banca, nil
}

func (b *BancaPostgreSQL) Update(ctx context.Context, tx *gorm.DB, banca *models.Banca) error {
	db := b.getDB(tx)
	result := db.WithContext(ctx).Model(&models.Banca{}).Where("id = ?", banca.ID).Updates(map[string]interface{}{
		"name":        banca.Name,
		"description": banca.Description,
		"logo_url":    banca.LogoURL,
		"is_active":   banca.IsActive,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update banca: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("banca", banca.ID)
	}

	cache.InvalidateBancaCache(ctx, b.cacheManager, banca.ID)
	return nil
}

// List returns bancas ordered by name, optionally only active ones
func (b *BancaPostgreSQL) List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*models.Banca, error) {
	db := b.getDB(tx)
	var bancas []*models.Banca

	err := b.cacheManager.Banca.CacheOrExecute(ctx, cache.BancaListKey(activeOnly), &bancas, cache.BancaCacheConfig.TTL, func() (interface{}, error) {
		query := db.WithContext(ctx).Model(&models.Banca{})
		if activeOnly {
			query = query.Where("is_active = ?", true)
		}

		var rows []*models.Banca
		if err := query.Order("name ASC").Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to list bancas: %w", err)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}

	return bancas, nil
}

func (b *BancaPostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	db := b.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).Model(&models.Banca{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check banca existence: %w", err)
	}
	return count > 0, nil
}

func (b *BancaPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return b.db
}
