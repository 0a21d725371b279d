package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inedit/inedit-service/internal/credits"
	"github.com/inedit/inedit-service/internal/models"
	"github.com/inedit/inedit-service/internal/repositories"
	"github.com/inedit/inedit-service/internal/validator"
)

type accountService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	policy    credits.Policy
	now       Clock
}

func NewAccountService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, policy credits.Policy, now Clock) AccountService {
	return &accountService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		policy:    policy,
		now:       now,
	}
}

func (s *accountService) EnsureAccount(ctx context.Context, identity *models.Identity) (*models.User, error) {
	user, err := s.repo.User().EnsureFromIdentity(ctx, nil, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure account: %w", err)
	}
	return user, nil
}

// GetGenerationStatus reports the caller's remaining generation credits under the configured policy
func (s *accountService) GetGenerationStatus(ctx context.Context, userID string) (*credits.Status, error) {
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}

	status := s.policy.Status(user, s.now())
	return &status, nil
}

// ===== ADMIN =====

func (s *accountService) ListUsers(ctx context.Context, query *UserListQuery) (*UserListResponse, error) {
	if errors := s.validator.GetBusinessValidator().Validate(query); len(errors) > 0 {
		return nil, errors
	}

	limit, offset := repositories.NormalizePage(query.Limit, query.Offset, repositories.DefaultUserLimit, repositories.MaxUserLimit)
	users, total, err := s.repo.User().List(ctx, nil, repositories.UserFilters{
		Query:  query.Query,
		Role:   query.Role,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}

	return &UserListResponse{Users: users, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *accountService) UpdateRole(ctx context.Context, adminID, userID string, req *UpdateRoleRequest) (*models.User, error) {
	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	if adminID == userID && req.Role != models.RoleAdmin {
		return nil, ErrCannotDemoteSelf
	}

	if err := s.provision(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.User().UpdateRole(ctx, nil, userID, req.Role); err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}

	s.logger.Info("User role updated", "admin_id", adminID, "user_id", userID, "role", req.Role)

	return s.getUser(ctx, userID)
}

// UpdateCredits sets or clears the credit override; ResetUsage zeroes both usage counters
func (s *accountService) UpdateCredits(ctx context.Context, userID string, req *UpdateCreditsRequest) (*models.User, error) {
	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	if err := s.provision(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.User().UpdateCreditGrant(ctx, nil, userID, req.CreditsGranted, req.ResetUsage); err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}

	s.logger.Info("User credits updated", "user_id", userID, "credits_granted", req.CreditsGranted, "reset_usage", req.ResetUsage)

	return s.getUser(ctx, userID)
}

func (s *accountService) getUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	return user, nil
}

// provision creates the local account of a user known to the identity provider
// who has not signed in yet, so admins can grant roles and credits ahead of time.
func (s *accountService) provision(ctx context.Context, userID string) error {
	_, err := s.repo.User().GetByID(ctx, nil, userID)
	if err == nil {
		return nil
	}
	if !repositories.IsNotFoundError(err) {
		return err
	}

	identity, err := s.repo.Identity().GetByID(ctx, userID)
	if err != nil {
		return notFoundAs(err, ErrUserNotFound)
	}
	if _, err := s.repo.User().EnsureFromIdentity(ctx, nil, identity); err != nil {
		return fmt.Errorf("failed to provision account: %w", err)
	}

	s.logger.Info("Provisioned account from identity provider", "user_id", userID)
	return nil
}
