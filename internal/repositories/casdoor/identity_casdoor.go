package casdoor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/inedit/inedit-service/internal/cache"
	"github.com/inedit/inedit-service/internal/models"
	"github.com/inedit/inedit-service/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// ErrInvalidToken is returned when a bearer token cannot be verified
var ErrInvalidToken = errors.New("invalid token")

// casdoorClient is the subset of the SDK client this repository calls
type casdoorClient interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
	GetUserByUserId(userId string) (*casdoorsdk.User, error)
}

type IdentityCasdoor struct {
	client casdoorClient
	cache  *cache.CacheHelper
}

func NewIdentityCasdoor(config CasdoorConfig, cacheManager *cache.CacheManager) repositories.IdentityRepository {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)

	return newIdentityCasdoor(client, cacheManager)
}

func newIdentityCasdoor(client casdoorClient, cacheManager *cache.CacheManager) *IdentityCasdoor {
	if cacheManager == nil {
		cacheManager = cache.NewCacheManager(nil)
	}
	return &IdentityCasdoor{
		client: client,
		cache:  cacheManager.Identity,
	}
}

// ===== CONVERSION =====

func toIdentity(user *casdoorsdk.User) *models.Identity {
	if user == nil || user.Id == "" {
		return nil
	}

	return &models.Identity{
		ID:          user.Id,
		Name:        user.Name,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		AvatarURL:   user.Avatar,
		IsAdmin:     user.IsAdmin,
	}
}

// ===== READ OPERATIONS =====

// ParseToken verifies a JWT against the configured certificate and returns its principal
func (i *IdentityCasdoor) ParseToken(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := i.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	identity := toIdentity(&claims.User)
	if identity == nil {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}

	if err := i.cache.Set(ctx, fmt.Sprintf("id:%s", identity.ID), identity, cache.IdentityCacheConfig.TTL); err != nil {
		slog.WarnContext(ctx, "Failed to cache identity", "error", err, "user_id", identity.ID)
	}

	return identity, nil
}

// GetByID retrieves a principal by ID with caching
func (i *IdentityCasdoor) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	var identity models.Identity
	err := i.cache.CacheOrExecute(ctx, fmt.Sprintf("id:%s", id), &identity, cache.IdentityCacheConfig.TTL, func() (interface{}, error) {
		user, err := i.client.GetUserByUserId(id)
		if err != nil {
			return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
		}

		converted := toIdentity(user)
		if converted == nil {
			return nil, fmt.Errorf("identity %s: %w", id, repositories.ErrNotFound)
		}
		return converted, nil
	})
	if err != nil {
		return nil, err
	}

	return &identity, nil
}
