package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/inedit/inedit-service/internal/cache"
	"github.com/inedit/inedit-service/internal/events"
	"github.com/inedit/inedit-service/internal/models"
	"github.com/inedit/inedit-service/internal/repositories"
	"github.com/inedit/inedit-service/internal/validator"
)

type questionService struct {
	repo         repositories.Repository
	logger       *slog.Logger
	validator    *validator.Validator
	cacheManager *cache.CacheManager
	events       events.EventPublisher
}

func NewQuestionService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, cacheManager *cache.CacheManager, publisher events.EventPublisher) QuestionService {
	return &questionService{
		repo:         repo,
		logger:       logger,
		validator:    validator,
		cacheManager: cacheManager,
		events:       publisher,
	}
}

// List returns a page of the caller's questions in one banca. Status defaults to published.
func (s *questionService) List(ctx context.Context, userID, bancaID string, query *QuestionListQuery) (*QuestionListResponse, error) {
	if query == nil {
		query = &QuestionListQuery{}
	}
	if errors := s.validator.GetBusinessValidator().ValidateQuestionFilters(query); len(errors) > 0 {
		return nil, errors
	}

	status := models.QuestionPublished
	if query.Status != nil {
		status = *query.Status
	}
	limit, offset := repositories.NormalizePage(query.Limit, query.Offset, repositories.DefaultQuestionLimit, repositories.MaxQuestionLimit)

	questions, total, err := s.repo.Question().List(ctx, nil, userID, bancaID, repositories.QuestionFilters{
		Status:     &status,
		Difficulty: query.Difficulty,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, err
	}

	items, err := s.withAnswerData(ctx, userID, questions)
	if err != nil {
		return nil, err
	}

	return &QuestionListResponse{
		Questions: items,
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	}, nil
}

func (s *questionService) Get(ctx context.Context, userID string, questionID uint) (*QuestionResponse, error) {
	question, err := s.repo.Question().GetByIDForUser(ctx, nil, questionID, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrQuestionNotFound)
	}

	items, err := s.withAnswerData(ctx, userID, []*models.Question{question})
	if err != nil {
		return nil, err
	}
	return items[0], nil
}

// ListMine groups every question of the caller by banca, groups sorted by banca name
func (s *questionService) ListMine(ctx context.Context, userID string) ([]*BancaQuestionGroup, error) {
	questions, err := s.repo.Question().ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}

	bancas, err := s.repo.Banca().List(ctx, nil, false)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Banca, len(bancas))
	for _, b := range bancas {
		byID[b.ID] = b
	}

	groups := make(map[string]*BancaQuestionGroup)
	for _, q := range questions {
		group, ok := groups[q.BancaID]
		if !ok {
			banca := byID[q.BancaID]
			if banca == nil {
				banca = &models.Banca{ID: q.BancaID, Name: q.BancaID}
			}
			group = &BancaQuestionGroup{Banca: banca, Questions: []*models.Question{}}
			groups[q.BancaID] = group
		}
		group.Questions = append(group.Questions, q)
	}

	result := make([]*BancaQuestionGroup, 0, len(groups))
	for _, group := range groups {
		result = append(result, group)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Banca.Name == result[j].Banca.Name {
			return result[i].Banca.ID < result[j].Banca.ID
		}
		return result[i].Banca.Name < result[j].Banca.Name
	})

	return result, nil
}

func (s *questionService) ListTags(ctx context.Context, userID string, bancaID *string) ([]string, error) {
	return s.repo.Question().ListTags(ctx, nil, userID, bancaID)
}

// ===== LIFECYCLE =====

func (s *questionService) PublishDrafts(ctx context.Context, userID, bancaID string, req *QuestionIDsRequest) (*PublishResponse, error) {
	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	ids, err := s.repo.Question().PublishDrafts(ctx, nil, userID, bancaID, req.QuestionIDs)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNoDraftsFound
	}

	questions, err := s.repo.Question().GetByIDsForUser(ctx, nil, ids, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Draft questions published", "user_id", userID, "banca_id", bancaID, "count", len(ids))

	publishEvent(ctx, s.events, s.logger, events.NewEvent(events.QuestionsPublished, userID, events.QuestionsPublishedData{
		BancaID:     bancaID,
		QuestionIDs: ids,
		Count:       len(ids),
	}))

	return &PublishResponse{Questions: questions, Count: len(ids)}, nil
}

// DiscardDrafts deletes the matching questions with their answers and options.
// Ownership and banca are enforced; status is not.
func (s *questionService) DiscardDrafts(ctx context.Context, userID, bancaID string, req *QuestionIDsRequest) (*DiscardResponse, error) {
	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	var matched []uint
	var deleted int64
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		questions, err := tx.Question().GetByIDsForUser(ctx, nil, req.QuestionIDs, userID)
		if err != nil {
			return err
		}
		for _, q := range questions {
			if q.BancaID == bancaID {
				matched = append(matched, q.ID)
			}
		}
		if len(matched) == 0 {
			return ErrQuestionNotFound
		}

		deleted, err = tx.Question().DeleteOwned(ctx, nil, userID, &bancaID, matched)
		return err
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateBancaStatsCache(ctx, s.cacheManager, userID, bancaID)

	s.logger.Info("Questions discarded", "user_id", userID, "banca_id", bancaID, "deleted", deleted)

	publishEvent(ctx, s.events, s.logger, events.NewEvent(events.QuestionsDiscarded, userID, events.QuestionsDiscardedData{
		BancaID:     bancaID,
		QuestionIDs: matched,
		Count:       deleted,
	}))

	return &DiscardResponse{Deleted: deleted}, nil
}

// Delete removes one owned question in any status
func (s *questionService) Delete(ctx context.Context, userID string, questionID uint) error {
	question, err := s.repo.Question().GetByIDForUser(ctx, nil, questionID, userID)
	if err != nil {
		return notFoundAs(err, ErrQuestionNotFound)
	}

	deleted, err := s.repo.Question().DeleteOwned(ctx, nil, userID, nil, []uint{questionID})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrQuestionNotFound
	}

	cache.InvalidateBancaStatsCache(ctx, s.cacheManager, userID, question.BancaID)

	s.logger.Info("Question deleted", "user_id", userID, "question_id", questionID)

	publishEvent(ctx, s.events, s.logger, events.NewEvent(events.QuestionDeleted, userID, events.QuestionDeletedData{
		QuestionID: questionID,
	}))

	return nil
}

// withAnswerData attaches the caller's answer aggregates and latest answer to each question
func (s *questionService) withAnswerData(ctx context.Context, userID string, questions []*models.Question) ([]*QuestionResponse, error) {
	items := make([]*QuestionResponse, 0, len(questions))
	if len(questions) == 0 {
		return items, nil
	}

	ids := questionIDs(questions)
	stats, err := s.repo.Answer().StatsByQuestions(ctx, nil, userID, ids)
	if err != nil {
		return nil, err
	}
	latest, err := s.repo.Answer().LatestByQuestions(ctx, nil, userID, ids)
	if err != nil {
		return nil, err
	}

	for _, q := range questions {
		item := &QuestionResponse{Question: q, UserAnswer: latest[q.ID]}
		if st, ok := stats[q.ID]; ok {
			item.AnswerStats = *st
		}
		items = append(items, item)
	}
	return items, nil
}
