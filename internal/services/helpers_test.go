package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/inedit/inedit-service/internal/cache"
	"github.com/inedit/inedit-service/internal/credits"
	"github.com/inedit/inedit-service/internal/events"
	"github.com/inedit/inedit-service/internal/generator"
	"github.com/inedit/inedit-service/internal/models"
	"github.com/inedit/inedit-service/internal/repositories"
	"github.com/inedit/inedit-service/internal/repositories/postgres"
	"github.com/inedit/inedit-service/internal/validator"
	"github.com/inedit/inedit-service/pkg"
)

// stubIdentity knows the principals in its map and nobody else
type stubIdentity struct {
	known map[string]*models.Identity
}

func (stubIdentity) ParseToken(ctx context.Context, token string) (*models.Identity, error) {
	return nil, repositories.ErrNotFound
}

func (s stubIdentity) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	if identity, ok := s.known[id]; ok {
		return identity, nil
	}
	return nil, repositories.ErrNotFound
}

// fakeGenerator returns a canned result and records what it was asked
type fakeGenerator struct {
	mu       sync.Mutex
	result   *generator.Result
	err      error
	requests []generator.Request
}

func (g *fakeGenerator) Generate(ctx context.Context, req generator.Request) (*generator.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

// fakeBlobStore keeps objects in memory
type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (b *fakeBlobStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	if b.putErr != nil {
		return "", b.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return "http://blobs.test/" + key, nil
}

func (b *fakeBlobStore) Remove(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[key]; !ok {
		return errors.New("no such object")
	}
	delete(b.objects, key)
	return nil
}

func (b *fakeBlobStore) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

// testEnv wires every service over an in-memory database
type testEnv struct {
	repo      repositories.Repository
	events    *events.MockEventPublisher
	generator *fakeGenerator
	blobs     *fakeBlobStore
	identity  stubIdentity
	now       time.Time

	accounts   AccountService
	bancas     BancaService
	sources    SourceService
	generation GenerationService
	questions  QuestionService
	answers    AnswerService
	stats      StatsService
}

var testNow = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

func newTestEnv(t *testing.T, policy credits.Policy) *testEnv {
	t.Helper()

	db, err := pkg.OpenSQLite(":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := pkg.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if err := pkg.SeedBancas(context.Background(), db); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if policy == nil {
		policy = credits.LifetimePolicy{}
	}

	identity := stubIdentity{known: map[string]*models.Identity{}}
	env := &testEnv{
		repo:      postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db, Identity: identity}),
		identity:  identity,
		events:    events.NewMockEventPublisher(slog.Default()),
		generator: &fakeGenerator{},
		blobs:     newFakeBlobStore(),
		now:       testNow,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := validator.New()
	cm := cache.NewCacheManager(nil)
	clock := func() time.Time { return env.now }

	env.accounts = NewAccountService(env.repo, logger, v, policy, clock)
	env.bancas = NewBancaService(env.repo, logger, v)
	env.sources = NewSourceService(env.repo, logger, v, env.blobs)
	env.generation = NewGenerationService(env.repo, logger, v, policy, env.generator, env.events, clock)
	env.questions = NewQuestionService(env.repo, logger, v, cm, env.events)
	env.answers = NewAnswerService(env.repo, logger, v, cm, env.events, clock)
	env.stats = NewStatsService(env.repo, logger, cm, time.Minute, time.UTC, clock)

	return env
}

func (e *testEnv) user(t *testing.T, id string, role models.UserRole) *models.User {
	t.Helper()
	ctx := context.Background()

	user, err := e.accounts.EnsureAccount(ctx, &models.Identity{ID: id, Name: id, Email: id + "@example.com"})
	if err != nil {
		t.Fatalf("EnsureAccount() error = %v", err)
	}
	if role != user.Role {
		if err := e.repo.User().UpdateRole(ctx, nil, id, role); err != nil {
			t.Fatalf("UpdateRole() error = %v", err)
		}
		user.Role = role
	}
	return user
}

func (e *testEnv) textSource(t *testing.T, userID, bancaID string) *models.Source {
	t.Helper()
	content := "Lei 8.112/90, regime jurídico dos servidores públicos civis da União."
	source, err := e.sources.Create(context.Background(), userID, bancaID, &SourceCreateRequest{
		Type:    models.SourceText,
		Title:   "Lei 8.112",
		Content: &content,
	})
	if err != nil {
		t.Fatalf("Create source error = %v", err)
	}
	return source
}

// generated builds n Certo/Errado payloads alternating the correct label
func generated(n int, difficulty string) *generator.Result {
	questions := make([]generator.GeneratedQuestion, n)
	for i := range questions {
		label := models.OptionCerto
		if i%2 == 1 {
			label = models.OptionErrado
		}
		questions[i] = generator.GeneratedQuestion{
			Title:         "Afirmativa " + string(rune('A'+i)),
			CorrectAnswer: label,
			Explanation:   "Conforme o art. 5",
			Tags:          []string{"direito"},
			Difficulty:    difficulty,
		}
	}
	return &generator.Result{Questions: questions, Prompt: "prompt", Model: "gpt-test", TokensUsed: 321}
}

// publishedQuestions generates and publishes n questions for userID in cebraspe
func (e *testEnv) publishedQuestions(t *testing.T, userID string, n int) []*models.Question {
	t.Helper()
	ctx := context.Background()

	source := e.textSource(t, userID, "cebraspe")
	e.generator.result = generated(n, "medium")

	count := n
	resp, err := e.generation.CreateDraftQuestions(ctx, userID, "cebraspe", &GenerateQuestionsRequest{
		SourceIDs: []uint{source.ID},
		Count:     &count,
	})
	if err != nil {
		t.Fatalf("CreateDraftQuestions() error = %v", err)
	}

	published, err := e.questions.PublishDrafts(ctx, userID, "cebraspe", &QuestionIDsRequest{QuestionIDs: questionIDs(resp.Questions)})
	if err != nil {
		t.Fatalf("PublishDrafts() error = %v", err)
	}
	return published.Questions
}

func optionByLabel(t *testing.T, q *models.Question, label string) *models.QuestionOption {
	t.Helper()
	for i := range q.Options {
		if q.Options[i].Label == label {
			return &q.Options[i]
		}
	}
	t.Fatalf("question %d has no %s option", q.ID, label)
	return nil
}

func eventTypes(publisher *events.MockEventPublisher) []events.EventType {
	var types []events.EventType
	for _, e := range publisher.GetPublishedEvents() {
		types = append(types, e.Type)
	}
	return types
}

func intPtr(v int) *int { return &v }
