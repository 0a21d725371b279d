package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inedit/inedit-service/internal/credits"
	"github.com/inedit/inedit-service/internal/models"
	"github.com/inedit/inedit-service/internal/repositories"
)

type UserPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(),
	}
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	db := u.getDB(tx)
	var user models.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// EnsureFromIdentity creates the local account on first sight. Concurrent first
// requests race on the primary key; the loser re-reads the winner's row.
func (u *UserPostgreSQL) EnsureFromIdentity(ctx context.Context, tx *gorm.DB, identity *models.Identity) (*models.User, error) {
	if identity == nil || identity.ID == "" {
		return nil, fmt.Errorf("identity without id")
	}

	db := u.getDB(tx).WithContext(ctx)
	name := identity.DisplayName
	if name == "" {
		name = identity.Name
	}
	var avatar *string
	if identity.AvatarURL != "" {
		avatar = &identity.AvatarURL
	}

	existing, err := u.GetByID(ctx, tx, identity.ID)
	switch {
	case err == nil:
		if existing.Name != name || existing.Email != identity.Email || !sameString(existing.AvatarURL, avatar) {
			if err := db.Model(&models.User{}).Where("id = ?", existing.ID).Updates(map[string]interface{}{
				"name":       name,
				"email":      identity.Email,
				"avatar_url": avatar,
			}).Error; err != nil {
				return nil, fmt.Errorf("failed to refresh user profile: %w", err)
			}
			existing.Name, existing.Email, existing.AvatarURL = name, identity.Email, avatar
		}
		return existing, nil
	case !repositories.IsNotFoundError(err):
		return nil, err
	}

	role := models.RoleFree
	if identity.IsAdmin {
		role = models.RoleAdmin
	}

	user := &models.User{
		ID:        identity.ID,
		Name:      name,
		Email:     identity.Email,
		AvatarURL: avatar,
		Role:      role,
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u.GetByID(ctx, tx, identity.ID)
}

func (u *UserPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	db := u.getDB(tx)
	query := db.WithContext(ctx).Model(&models.User{})

	if q := strings.TrimSpace(filters.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	limit, offset := repositories.NormalizePage(filters.Limit, filters.Offset, repositories.DefaultUserLimit, repositories.MaxUserLimit)
	query = u.helpers.ApplyPagination(query.Order("created_at DESC, id ASC"), limit, offset)

	var users []*models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}

func (u *UserPostgreSQL) UpdateRole(ctx context.Context, tx *gorm.DB, id string, role models.UserRole) error {
	return u.update(ctx, tx, id, map[string]interface{}{"role": role})
}

// UpdateCreditGrant sets or clears credits_granted; resetUsage also zeroes both usage counters
func (u *UserPostgreSQL) UpdateCreditGrant(ctx context.Context, tx *gorm.DB, id string, granted *int, resetUsage bool) error {
	updates := map[string]interface{}{"credits_granted": granted}
	if resetUsage {
		updates["credits_used"] = 0
		updates["daily_generation_count"] = 0
		updates["last_generation_date"] = nil
	}
	return u.update(ctx, tx, id, updates)
}

func (u *UserPostgreSQL) UpdateGenerationCounters(ctx context.Context, tx *gorm.DB, id string, counters credits.Counters) error {
	return u.update(ctx, tx, id, map[string]interface{}{
		"credits_used":           counters.CreditsUsed,
		"daily_generation_count": counters.DailyGenerationCount,
		"last_generation_date":   counters.LastGenerationDate,
	})
}

func (u *UserPostgreSQL) update(ctx context.Context, tx *gorm.DB, id string, updates map[string]interface{}) error {
	db := u.getDB(tx)
	result := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("user", id)
	}
	return nil
}

func (u *UserPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return u.db
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
