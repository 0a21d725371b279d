package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/inedit/inedit-service/internal/credits"
	"github.com/inedit/inedit-service/internal/events"
	"github.com/inedit/inedit-service/internal/generator"
	"github.com/inedit/inedit-service/internal/models"
	"github.com/inedit/inedit-service/internal/repositories"
	"github.com/inedit/inedit-service/internal/validator"
)

type generationService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	policy    credits.Policy
	generator generator.Generator
	events    events.EventPublisher
	now       Clock
}

func NewGenerationService(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *validator.Validator,
	policy credits.Policy,
	gen generator.Generator,
	publisher events.EventPublisher,
	now Clock,
) GenerationService {
	return &generationService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		policy:    policy,
		generator: gen,
		events:    publisher,
		now:       now,
	}
}

// CreateDraftQuestions generates a batch of drafts from the caller's sources.
// One call consumes one credit no matter how many questions come back.
func (s *generationService) CreateDraftQuestions(ctx context.Context, userID, bancaID string, req *GenerateQuestionsRequest) (*GenerateQuestionsResponse, error) {
	if errors := s.validator.GetBusinessValidator().ValidateGenerateQuestions(req); len(errors) > 0 {
		return nil, errors
	}

	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}

	if req.Difficulty != nil && !credits.IsProOrAbove(user.Role) {
		return nil, NewBusinessRuleError("difficulty_selection", "choosing a difficulty requires a pro plan", map[string]interface{}{
			"role":       user.Role,
			"difficulty": *req.Difficulty,
		})
	}

	now := s.now()
	status := s.policy.Status(user, now)
	if status.Remaining <= 0 {
		s.logger.Info("Generation refused, no credits left", "user_id", userID, "policy", s.policy.Name(), "used", status.Used, "limit", status.Limit)
		return nil, ErrCreditsExhausted
	}

	banca, err := s.repo.Banca().GetByID(ctx, nil, bancaID)
	if err != nil {
		return nil, notFoundAs(err, ErrBancaNotFound)
	}
	if !banca.IsActive {
		return nil, ErrBancaNotFound
	}

	sources, err := s.repo.Source().GetByIDs(ctx, nil, userID, bancaID, req.SourceIDs)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, ErrSourcesNotFound
	}

	count := req.RequestedCount()
	result, err := s.generator.Generate(ctx, generator.Request{
		Count:        count,
		Difficulty:   req.Difficulty,
		Tags:         req.Tags,
		SystemPrompt: req.SystemPrompt,
		Sources:      sources,
	})
	if err != nil {
		s.logger.Error("Question generation failed", "user_id", userID, "banca_id", bancaID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}

	sourceIDs := make([]uint, len(sources))
	for i, src := range sources {
		sourceIDs[i] = src.ID
	}

	payloads := result.Questions
	if len(payloads) > count {
		s.logger.Warn("Generator returned more questions than requested, truncating",
			"user_id", userID, "requested", count, "returned", len(payloads))
		payloads = payloads[:count]
	}

	questions := make([]*models.Question, 0, len(payloads))
	for i, generated := range payloads {
		question, err := buildDraft(userID, bancaID, generated, req, sourceIDs, result)
		if err != nil {
			s.logger.Error("Generated question rejected", "user_id", userID, "index", i, "error", err)
			return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
		}
		questions = append(questions, question)
	}

	counters := s.policy.Consume(user, now)
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Question().CreateDrafts(ctx, nil, questions); err != nil {
			return err
		}
		return tx.User().UpdateGenerationCounters(ctx, nil, userID, counters)
	})
	if err != nil {
		return nil, err
	}

	user.CreditsUsed = counters.CreditsUsed
	user.DailyGenerationCount = counters.DailyGenerationCount
	user.LastGenerationDate = counters.LastGenerationDate

	s.logger.Info("Draft questions created",
		"user_id", userID,
		"banca_id", bancaID,
		"count", len(questions),
		"model", result.Model,
		"tokens_used", result.TokensUsed)

	publishEvent(ctx, s.events, s.logger, events.NewEvent(events.QuestionsDraftsCreated, userID, events.DraftsCreatedData{
		BancaID:     bancaID,
		QuestionIDs: questionIDs(questions),
		Count:       len(questions),
		SourceIDs:   sourceIDs,
		Model:       result.Model,
		TokensUsed:  result.TokensUsed,
	}))

	return &GenerateQuestionsResponse{
		Questions:        questions,
		Count:            len(questions),
		TokensUsed:       result.TokensUsed,
		GenerationStatus: s.policy.Status(user, now),
	}, nil
}

// buildDraft normalises one generated payload into a draft with its two options
func buildDraft(userID, bancaID string, generated generator.GeneratedQuestion, req *GenerateQuestionsRequest, sourceIDs []uint, result *generator.Result) (*models.Question, error) {
	title := strings.TrimSpace(generated.Title)
	if title == "" {
		return nil, fmt.Errorf("question without title")
	}

	label, ok := normalizeLabel(generated.CorrectAnswer)
	if !ok {
		return nil, fmt.Errorf("unknown correct answer %q", generated.CorrectAnswer)
	}

	difficulty := models.DifficultyLevel(strings.ToLower(strings.TrimSpace(generated.Difficulty)))
	if !difficulty.Valid() {
		difficulty = models.DifficultyMedium
		if req.Difficulty != nil {
			difficulty = *req.Difficulty
		}
	}

	tags := generated.Tags
	if len(tags) == 0 {
		tags = req.Tags
	}

	question := &models.Question{
		UserID:                 userID,
		BancaID:                bancaID,
		Title:                  title,
		Difficulty:             difficulty,
		Status:                 models.QuestionDraft,
		Tags:                   append([]string{}, tags...),
		GeneratedFromSourceIDs: append([]uint{}, sourceIDs...),
		Options:                models.CertoErradoOptions(label),
	}
	if desc := strings.TrimSpace(generated.Description); desc != "" {
		question.Description = &desc
	}
	if expl := strings.TrimSpace(generated.Explanation); expl != "" {
		question.Explanation = &expl
	}
	if result.Prompt != "" {
		prompt := result.Prompt
		question.AIPrompt = &prompt
	}
	if result.Model != "" {
		model := result.Model
		question.AIModel = &model
	}
	tokens := result.TokensUsed
	question.AITokensUsed = &tokens

	return question, nil
}

func normalizeLabel(label string) (string, bool) {
	switch {
	case strings.EqualFold(strings.TrimSpace(label), models.OptionCerto):
		return models.OptionCerto, true
	case strings.EqualFold(strings.TrimSpace(label), models.OptionErrado):
		return models.OptionErrado, true
	}
	return "", false
}

// unavailableGenerationService answers every call when no generator is configured
type unavailableGenerationService struct{}

func (unavailableGenerationService) CreateDraftQuestions(ctx context.Context, userID, bancaID string, req *GenerateQuestionsRequest) (*GenerateQuestionsResponse, error) {
	return nil, ErrGenerationUnavailable
}
