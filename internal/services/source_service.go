package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/inedit/inedit-service/internal/models"
	"github.com/inedit/inedit-service/internal/repositories"
	"github.com/inedit/inedit-service/internal/storage"
	"github.com/inedit/inedit-service/internal/validator"
)

type sourceService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	blobs     storage.BlobStore
}

// NewSourceService builds the source service. blobs may be nil, in which case uploads are refused.
func NewSourceService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, blobs storage.BlobStore) SourceService {
	return &sourceService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		blobs:     blobs,
	}
}

func (s *sourceService) List(ctx context.Context, userID, bancaID string) ([]*models.Source, error) {
	sources, err := s.repo.Source().ListByBanca(ctx, nil, userID, bancaID)
	if err != nil {
		return nil, err
	}
	if sources == nil {
		sources = []*models.Source{}
	}
	return sources, nil
}

func (s *sourceService) Create(ctx context.Context, userID, bancaID string, req *SourceCreateRequest) (*models.Source, error) {
	if errors := s.validator.GetBusinessValidator().ValidateSourceCreate(req); len(errors) > 0 {
		return nil, errors
	}

	if err := s.requireActiveBanca(ctx, bancaID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	source := &models.Source{
		UserID:           userID,
		BancaID:          bancaID,
		Type:             req.Type,
		Title:            strings.TrimSpace(req.Title),
		ProcessingStatus: models.ProcessingCompleted,
		ProcessedAt:      &now,
	}
	switch req.Type {
	case models.SourceText:
		source.Content = req.Content
	case models.SourceURL:
		url := strings.TrimSpace(*req.URL)
		source.URL = &url
	}

	if err := s.repo.Source().Create(ctx, nil, source); err != nil {
		return nil, err
	}

	s.logger.Info("Source created", "user_id", userID, "banca_id", bancaID, "source_id", source.ID, "type", source.Type)
	return source, nil
}

// Upload stores the file in the blob store and records a file source pointing at it
func (s *sourceService) Upload(ctx context.Context, userID, bancaID string, upload *FileUpload) (*models.Source, error) {
	if s.blobs == nil {
		return nil, ErrStorageNotConfigured
	}

	req := &validator.FileSourceRequest{
		Title:    upload.Title,
		FileName: upload.FileName,
		FileSize: upload.Size,
		MimeType: upload.MimeType,
	}
	if errors := s.validator.GetBusinessValidator().ValidateFileSource(req); len(errors) > 0 {
		return nil, errors
	}

	if err := s.requireActiveBanca(ctx, bancaID); err != nil {
		return nil, err
	}

	contentType := upload.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := storage.ObjectKey(userID, bancaID, upload.FileName)
	url, err := s.blobs.Put(ctx, key, upload.Reader, upload.Size, contentType)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	fileName := upload.FileName
	size := upload.Size
	source := &models.Source{
		UserID:           userID,
		BancaID:          bancaID,
		Type:             models.SourceFile,
		Title:            strings.TrimSpace(upload.Title),
		BlobURL:          &url,
		BlobKey:          &key,
		FileName:         &fileName,
		FileSize:         &size,
		MimeType:         &contentType,
		ProcessingStatus: models.ProcessingCompleted,
		ProcessedAt:      &now,
	}

	if err := s.repo.Source().Create(ctx, nil, source); err != nil {
		s.removeBlob(ctx, key)
		return nil, err
	}

	s.logger.Info("File source uploaded", "user_id", userID, "banca_id", bancaID, "source_id", source.ID, "size", size)
	return source, nil
}

func (s *sourceService) Delete(ctx context.Context, userID, bancaID string, sourceID uint) error {
	source, err := s.repo.Source().GetByIDForUser(ctx, nil, sourceID, userID)
	if err != nil {
		return notFoundAs(err, ErrSourceNotFound)
	}
	if source.BancaID != bancaID {
		return ErrSourceNotFound
	}

	if err := s.repo.Source().Delete(ctx, nil, sourceID, userID); err != nil {
		return notFoundAs(err, ErrSourceNotFound)
	}

	if source.BlobKey != nil {
		s.removeBlob(ctx, *source.BlobKey)
	}

	s.logger.Info("Source deleted", "user_id", userID, "banca_id", bancaID, "source_id", sourceID)
	return nil
}

func (s *sourceService) requireActiveBanca(ctx context.Context, bancaID string) error {
	banca, err := s.repo.Banca().GetByID(ctx, nil, bancaID)
	if err != nil {
		return notFoundAs(err, ErrBancaNotFound)
	}
	if !banca.IsActive {
		return ErrBancaNotFound
	}
	return nil
}

// removeBlob is best effort; an orphaned object is only logged
func (s *sourceService) removeBlob(ctx context.Context, key string) {
	if s.blobs == nil {
		return
	}
	if err := s.blobs.Remove(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Warn("Failed to remove stored file", "key", key, "error", err)
	}
}
