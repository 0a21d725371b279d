package services

import (
	"context"
	"log/slog"

	"github.com/inedit/inedit-service/internal/models"
	"github.com/inedit/inedit-service/internal/repositories"
	"github.com/inedit/inedit-service/internal/validator"
)

type bancaService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewBancaService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) BancaService {
	return &bancaService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

func (s *bancaService) List(ctx context.Context, includeInactive bool) ([]*models.Banca, error) {
	bancas, err := s.repo.Banca().List(ctx, nil, !includeInactive)
	if err != nil {
		return nil, err
	}
	if bancas == nil {
		bancas = []*models.Banca{}
	}
	return bancas, nil
}

// Get hides inactive bancas unless includeInactive is set
func (s *bancaService) Get(ctx context.Context, id string, includeInactive bool) (*models.Banca, error) {
	banca, err := s.repo.Banca().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFoundAs(err, ErrBancaNotFound)
	}
	if !banca.IsActive && !includeInactive {
		return nil, ErrBancaNotFound
	}
	return banca, nil
}

func (s *bancaService) Create(ctx context.Context, req *BancaCreateRequest) (*models.Banca, error) {
	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	exists, err := s.repo.Banca().ExistsByID(ctx, nil, req.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrBancaExists
	}

	banca := &models.Banca{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		LogoURL:     req.LogoURL,
		IsActive:    true,
	}
	if req.IsActive != nil {
		banca.IsActive = *req.IsActive
	}

	if err := s.repo.Banca().Create(ctx, nil, banca); err != nil {
		return nil, err
	}

	s.logger.Info("Banca created", "banca_id", banca.ID, "is_active", banca.IsActive)
	return banca, nil
}

// Update applies only the fields present in req
func (s *bancaService) Update(ctx context.Context, id string, req *BancaUpdateRequest) (*models.Banca, error) {
	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	banca, err := s.repo.Banca().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFoundAs(err, ErrBancaNotFound)
	}

	if req.Name != nil {
		banca.Name = *req.Name
	}
	if req.Description != nil {
		banca.Description = req.Description
	}
	if req.LogoURL != nil {
		banca.LogoURL = req.LogoURL
	}
	if req.IsActive != nil {
		banca.IsActive = *req.IsActive
	}

	if err := s.repo.Banca().Update(ctx, nil, banca); err != nil {
		return nil, notFoundAs(err, ErrBancaNotFound)
	}

	s.logger.Info("Banca updated", "banca_id", banca.ID, "is_active", banca.IsActive)
	return banca, nil
}
