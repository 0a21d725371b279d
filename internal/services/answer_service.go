package services

import (
	"context"
	"log/slog"

	"github.com/inedit/inedit-service/internal/cache"
	"github.com/inedit/inedit-service/internal/events"
	"github.com/inedit/inedit-service/internal/models"
	"github.com/inedit/inedit-service/internal/repositories"
	"github.com/inedit/inedit-service/internal/validator"
)

type answerService struct {
	repo         repositories.Repository
	logger       *slog.Logger
	validator    *validator.Validator
	cacheManager *cache.CacheManager
	events       events.EventPublisher
	now          Clock
}

func NewAnswerService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, cacheManager *cache.CacheManager, publisher events.EventPublisher, now Clock) AnswerService {
	return &answerService{
		repo:         repo,
		logger:       logger,
		validator:    validator,
		cacheManager: cacheManager,
		events:       publisher,
		now:          now,
	}
}

// Submit records one attempt and folds it into the question's running statistics.
// The correct option is always revealed.
func (s *answerService) Submit(ctx context.Context, userID string, questionID uint, req *SubmitAnswerRequest) (*SubmitAnswerResponse, error) {
	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	question, err := s.repo.Question().GetByIDForUser(ctx, nil, questionID, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrQuestionNotFound)
	}

	option, err := s.repo.Question().GetOption(ctx, nil, questionID, req.SelectedOptionID)
	if err != nil {
		return nil, notFoundAs(err, ErrOptionMismatch)
	}

	answer := &models.UserAnswer{
		UserID:           userID,
		QuestionID:       questionID,
		SelectedOptionID: option.ID,
		IsCorrect:        option.IsCorrect,
		TimeSpentSeconds: req.TimeSpentSeconds,
		AnsweredAt:       s.now().UTC(),
	}

	var updated *models.Question
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Answer().Create(ctx, nil, answer); err != nil {
			return err
		}
		if err := tx.Question().ApplyAnswer(ctx, nil, questionID, answer.IsCorrect); err != nil {
			return err
		}
		updated, err = tx.Question().GetByIDForUser(ctx, nil, questionID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateBancaStatsCache(ctx, s.cacheManager, userID, question.BancaID)

	s.logger.Info("Answer recorded",
		"user_id", userID,
		"question_id", questionID,
		"is_correct", answer.IsCorrect,
		"correct_answer_rate", updated.CorrectAnswerRate)

	publishEvent(ctx, s.events, s.logger, events.NewEvent(events.AnswerRecorded, userID, events.AnswerRecordedData{
		AnswerID:         answer.ID,
		QuestionID:       questionID,
		BancaID:          question.BancaID,
		IsCorrect:        answer.IsCorrect,
		TimeSpentSeconds: answer.TimeSpentSeconds,
	}))

	return &SubmitAnswerResponse{
		Answer:            answer,
		IsCorrect:         answer.IsCorrect,
		CorrectOption:     updated.CorrectOption(),
		Explanation:       updated.Explanation,
		TimesAnswered:     updated.TimesAnswered,
		CorrectAnswerRate: updated.CorrectAnswerRate,
	}, nil
}

func (s *answerService) History(ctx context.Context, userID string, questionID uint) (*AnswerHistoryResponse, error) {
	if _, err := s.repo.Question().GetByIDForUser(ctx, nil, questionID, userID); err != nil {
		return nil, notFoundAs(err, ErrQuestionNotFound)
	}

	answers, err := s.repo.Answer().ListByUserQuestion(ctx, nil, userID, questionID)
	if err != nil {
		return nil, err
	}
	if answers == nil {
		answers = []*models.UserAnswer{}
	}

	resp := &AnswerHistoryResponse{
		QuestionID:    questionID,
		TotalAttempts: len(answers),
		AllAnswers:    answers,
	}
	for _, a := range answers {
		if a.IsCorrect {
			resp.CorrectAttempts++
		}
	}
	resp.IncorrectAttempts = resp.TotalAttempts - resp.CorrectAttempts
	if len(answers) > 0 {
		resp.LatestAnswer = answers[len(answers)-1]
	}

	return resp, nil
}
