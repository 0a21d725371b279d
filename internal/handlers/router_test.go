package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/inedit/inedit-service/internal/events"
	"github.com/inedit/inedit-service/internal/generator"
	"github.com/inedit/inedit-service/internal/models"
	"github.com/inedit/inedit-service/internal/repositories"
	"github.com/inedit/inedit-service/internal/repositories/postgres"
	"github.com/inedit/inedit-service/internal/services"
	"github.com/inedit/inedit-service/internal/utils"
	"github.com/inedit/inedit-service/pkg"
)

// fakeIdentity maps bearer tokens to identities
type fakeIdentity struct {
	tokens map[string]*models.Identity
}

func (f *fakeIdentity) ParseToken(ctx context.Context, token string) (*models.Identity, error) {
	identity, ok := f.tokens[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return identity, nil
}

func (f *fakeIdentity) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	for _, identity := range f.tokens {
		if identity.ID == id {
			return identity, nil
		}
	}
	return nil, repositories.ErrNotFound
}

type fakeGenerator struct {
	mu     sync.Mutex
	result *generator.Result
	err    error
}

func (g *fakeGenerator) Generate(ctx context.Context, req generator.Request) (*generator.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

type memoryBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *memoryBlobStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return "http://blobs.test/" + key, nil
}

func (b *memoryBlobStore) Remove(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

type testServer struct {
	router    *gin.Engine
	generator *fakeGenerator
	events    *events.MockEventPublisher
	blobs     *memoryBlobStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	identity := &fakeIdentity{tokens: map[string]*models.Identity{
		"alice-token": {ID: "alice", Name: "alice", Email: "alice@example.com"},
		"bob-token":   {ID: "bob", Name: "bob", Email: "bob@example.com"},
		"admin-token": {ID: "root", Name: "root", Email: "root@example.com", IsAdmin: true},
	}}

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := &testServer{
		generator: &fakeGenerator{},
		events:    events.NewMockEventPublisher(slogger),
		blobs:     &memoryBlobStore{objects: make(map[string][]byte)},
	}

	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db, Identity: identity})
	sm := services.NewDefaultServiceManager(services.Dependencies{
		DB:        db,
		Repo:      repo,
		Logger:    slogger,
		Generator: srv.generator,
		BlobStore: srv.blobs,
		Events:    srv.events,
	})
	if err := sm.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	logger := utils.NewSlogLogger(slogger)
	srv.router = gin.New()
	SetupMiddleware(srv.router, logger, []string{"*"})
	NewHandlerManager(sm, identity, logger).SetupRoutes(srv.router)

	return srv
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func (s *testServer) createSource(t *testing.T, token string) uint {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/bancas/cebraspe/sources", token, map[string]any{
		"type":    "text",
		"title":   "Lei 8.112",
		"content": "Regime jurídico dos servidores públicos civis da União.",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create source status = %d, body = %s", w.Code, w.Body.String())
	}
	return decode[models.Source](t, w).ID
}

func (s *testServer) generateDrafts(t *testing.T, token string, n int) []*models.Question {
	t.Helper()
	sourceID := s.createSource(t, token)

	questions := make([]generator.GeneratedQuestion, n)
	for i := range questions {
		questions[i] = generator.GeneratedQuestion{
			Title:         "Afirmativa " + string(rune('A'+i)),
			CorrectAnswer: models.OptionCerto,
			Explanation:   "Art. 41",
			Tags:          []string{"servidores"},
			Difficulty:    "medium",
		}
	}
	s.generator.result = &generator.Result{Questions: questions, Model: "gpt-test", TokensUsed: 100}

	w := s.do(t, http.MethodPost, "/api/v1/bancas/cebraspe/questions", token, map[string]any{
		"source_ids": []uint{sourceID},
		"count":      n,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("generate status = %d, body = %s", w.Code, w.Body.String())
	}
	return decode[services.GenerateQuestionsResponse](t, w).Questions
}

func ids(questions []*models.Question) []uint {
	out := make([]uint, len(questions))
	for i, q := range questions {
		out[i] = q.ID
	}
	return out
}

func TestAuthentication(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic alice-token", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer alice-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me/generation-status", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	srv := newTestServer(t)

	if w := srv.do(t, http.MethodGet, "/api/v1/admin/users", "alice-token", nil); w.Code != http.StatusForbidden {
		t.Errorf("non-admin status = %d, want 403", w.Code)
	}

	w := srv.do(t, http.MethodGet, "/api/v1/admin/users", "admin-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode[services.UserListResponse](t, w)
	if resp.Total < 1 {
		t.Errorf("total = %d, want at least the admin", resp.Total)
	}
}

func TestAdminUserManagement(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodGet, "/api/v1/me/generation-status", "alice-token", nil)

	w := srv.do(t, http.MethodPatch, "/api/v1/admin/users/alice/role", "admin-token", map[string]any{"role": "pro"})
	if w.Code != http.StatusOK {
		t.Fatalf("update role status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[models.User](t, w).Role; got != models.RolePro {
		t.Errorf("role = %s, want pro", got)
	}

	w = srv.do(t, http.MethodPatch, "/api/v1/admin/users/root/role", "admin-token", map[string]any{"role": "free"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("self demotion status = %d, want 422", w.Code)
	}

	w = srv.do(t, http.MethodPatch, "/api/v1/admin/users/ghost/credits", "admin-token", map[string]any{"credits_granted": 5})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown user status = %d, want 404", w.Code)
	}

	// bob has never called the API but is known to the identity provider
	w = srv.do(t, http.MethodPatch, "/api/v1/admin/users/bob/role", "admin-token", map[string]any{"role": "pro"})
	if w.Code != http.StatusOK {
		t.Fatalf("provision role status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[models.User](t, w); got.Role != models.RolePro || got.Email != "bob@example.com" {
		t.Errorf("provisioned user = %+v, want pro bob@example.com", got)
	}

	w = srv.do(t, http.MethodPatch, "/api/v1/admin/users/alice/credits", "admin-token", map[string]any{"credits_granted": 0})
	if w.Code != http.StatusOK {
		t.Fatalf("update credits status = %d, body = %s", w.Code, w.Body.String())
	}

	w = srv.do(t, http.MethodGet, "/api/v1/me/generation-status", "alice-token", nil)
	if got := decode[map[string]any](t, w)["remaining"]; got != float64(0) {
		t.Errorf("remaining = %v, want 0", got)
	}
}

func TestBancaRoutes(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/api/v1/admin/bancas", "admin-token", map[string]any{
		"id":        "fgv-extra",
		"name":      "FGV Extra",
		"is_active": false,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	w = srv.do(t, http.MethodPost, "/api/v1/admin/bancas", "admin-token", map[string]any{"id": "fgv-extra", "name": "Dup"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", w.Code)
	}

	if w := srv.do(t, http.MethodGet, "/api/v1/bancas/fgv-extra", "alice-token", nil); w.Code != http.StatusNotFound {
		t.Errorf("inactive banca for user status = %d, want 404", w.Code)
	}
	if w := srv.do(t, http.MethodGet, "/api/v1/bancas/fgv-extra", "admin-token", nil); w.Code != http.StatusOK {
		t.Errorf("inactive banca for admin status = %d, want 200", w.Code)
	}

	userList := decode[[]models.Banca](t, srv.do(t, http.MethodGet, "/api/v1/bancas", "alice-token", nil))
	adminList := decode[[]models.Banca](t, srv.do(t, http.MethodGet, "/api/v1/bancas", "admin-token", nil))
	// fgv is seeded inactive
	if len(adminList) != len(userList)+2 {
		t.Errorf("admin sees %d bancas, user %d; want two more", len(adminList), len(userList))
	}

	w = srv.do(t, http.MethodPatch, "/api/v1/admin/bancas/fgv-extra", "admin-token", map[string]any{"is_active": true})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}
	if w := srv.do(t, http.MethodGet, "/api/v1/bancas/fgv-extra", "alice-token", nil); w.Code != http.StatusOK {
		t.Errorf("reactivated banca status = %d, want 200", w.Code)
	}
}

func TestSourceRoutes(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/api/v1/bancas/cebraspe/sources", "alice-token", map[string]any{"type": "text"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing title status = %d, want 400", w.Code)
	}

	w = srv.do(t, http.MethodPost, "/api/v1/bancas/nope/sources", "alice-token", map[string]any{
		"type": "text", "title": "t", "content": "c",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown banca status = %d, want 404", w.Code)
	}

	sourceID := srv.createSource(t, "alice-token")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte("Art. 5 da Constituição"))
	_ = mw.WriteField("title", "Notes")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bancas/cebraspe/sources/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer alice-token")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(srv.blobs.objects) != 1 {
		t.Errorf("stored %d blobs, want 1", len(srv.blobs.objects))
	}

	list := decode[[]models.Source](t, srv.do(t, http.MethodGet, "/api/v1/bancas/cebraspe/sources", "alice-token", nil))
	if len(list) != 2 {
		t.Errorf("alice has %d sources, want 2", len(list))
	}
	if others := decode[[]models.Source](t, srv.do(t, http.MethodGet, "/api/v1/bancas/cebraspe/sources", "bob-token", nil)); len(others) != 0 {
		t.Errorf("bob sees %d sources, want 0", len(others))
	}

	path := "/api/v1/bancas/cebraspe/sources/" + uintString(sourceID)
	if w := srv.do(t, http.MethodDelete, path, "bob-token", nil); w.Code != http.StatusNotFound {
		t.Errorf("foreign delete status = %d, want 404", w.Code)
	}
	if w := srv.do(t, http.MethodDelete, path, "alice-token", nil); w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", w.Code)
	}
	if w := srv.do(t, http.MethodDelete, "/api/v1/bancas/cebraspe/sources/abc", "alice-token", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", w.Code)
	}
}

func TestQuestionLifecycle(t *testing.T) {
	srv := newTestServer(t)

	drafts := srv.generateDrafts(t, "alice-token", 3)
	if len(drafts) != 3 {
		t.Fatalf("got %d drafts, want 3", len(drafts))
	}

	published := decode[services.QuestionListResponse](t, srv.do(t, http.MethodGet, "/api/v1/bancas/cebraspe/questions", "alice-token", nil))
	if published.Total != 0 {
		t.Errorf("published total = %d before publishing, want 0", published.Total)
	}
	draftList := decode[services.QuestionListResponse](t, srv.do(t, http.MethodGet, "/api/v1/bancas/cebraspe/questions?status=draft", "alice-token", nil))
	if draftList.Total != 3 {
		t.Errorf("draft total = %d, want 3", draftList.Total)
	}

	w := srv.do(t, http.MethodPost, "/api/v1/bancas/cebraspe/questions/drafts/publish", "bob-token", map[string]any{"question_ids": ids(drafts[:2])})
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign publish status = %d, want 404", w.Code)
	}

	w = srv.do(t, http.MethodPost, "/api/v1/bancas/cebraspe/questions/drafts/publish", "alice-token", map[string]any{"question_ids": ids(drafts[:2])})
	if w.Code != http.StatusOK {
		t.Fatalf("publish status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[services.PublishResponse](t, w).Count; got != 2 {
		t.Errorf("published %d, want 2", got)
	}

	w = srv.do(t, http.MethodPost, "/api/v1/bancas/cebraspe/questions/drafts/discard", "alice-token", map[string]any{"question_ids": ids(drafts[2:])})
	if w.Code != http.StatusOK {
		t.Fatalf("discard status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[services.DiscardResponse](t, w).Deleted; got != 1 {
		t.Errorf("discarded %d, want 1", got)
	}

	questionPath := "/api/v1/bancas/cebraspe/questions/" + uintString(drafts[0].ID)
	if w := srv.do(t, http.MethodGet, questionPath, "bob-token", nil); w.Code != http.StatusNotFound {
		t.Errorf("foreign get status = %d, want 404", w.Code)
	}
	w = srv.do(t, http.MethodGet, questionPath, "alice-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", w.Code, w.Body.String())
	}
	question := decode[services.QuestionResponse](t, w)
	if question.Status != models.QuestionPublished {
		t.Errorf("status = %s, want published", question.Status)
	}

	groups := decode[[]services.BancaQuestionGroup](t, srv.do(t, http.MethodGet, "/api/v1/me/questions", "alice-token", nil))
	if len(groups) != 1 || len(groups[0].Questions) != 2 {
		t.Errorf("groups = %+v, want one banca with 2 questions", groups)
	}

	tags := decode[[]string](t, srv.do(t, http.MethodGet, "/api/v1/bancas/cebraspe/tags", "alice-token", nil))
	if len(tags) != 1 || tags[0] != "servidores" {
		t.Errorf("tags = %v, want [servidores]", tags)
	}
	if empty := decode[[]string](t, srv.do(t, http.MethodGet, "/api/v1/me/tags", "bob-token", nil)); len(empty) != 0 {
		t.Errorf("bob tags = %v, want empty", empty)
	}

	if w := srv.do(t, http.MethodDelete, questionPath, "alice-token", nil); w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", w.Code)
	}
	if w := srv.do(t, http.MethodDelete, questionPath, "alice-token", nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}

	want := []events.EventType{
		events.QuestionsDraftsCreated,
		events.QuestionsPublished,
		events.QuestionsDiscarded,
		events.QuestionDeleted,
	}
	emitted := srv.events.GetPublishedEvents()
	if len(emitted) != len(want) {
		t.Fatalf("published %d events, want %d", len(emitted), len(want))
	}
	for i, e := range emitted {
		if e.Type != want[i] {
			t.Errorf("event %d = %s, want %s", i, e.Type, want[i])
		}
	}
}

func TestGenerationErrors(t *testing.T) {
	srv := newTestServer(t)
	sourceID := srv.createSource(t, "alice-token")

	tests := []struct {
		name   string
		body   map[string]any
		genErr error
		result *generator.Result
		want   int
	}{
		{
			name: "no sources",
			body: map[string]any{"source_ids": []uint{}},
			want: http.StatusBadRequest,
		},
		{
			name: "difficulty on free plan",
			body: map[string]any{"source_ids": []uint{sourceID}, "difficulty": "hard"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown source",
			body: map[string]any{"source_ids": []uint{9999}},
			want: http.StatusNotFound,
		},
		{
			name:   "generator failure",
			body:   map[string]any{"source_ids": []uint{sourceID}},
			genErr: errors.New("rate limited"),
			want:   http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv.generator.err = tt.genErr
			srv.generator.result = tt.result

			w := srv.do(t, http.MethodPost, "/api/v1/bancas/cebraspe/questions", "alice-token", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestCreditsExhausted(t *testing.T) {
	srv := newTestServer(t)

	srv.generateDrafts(t, "alice-token", 1)
	srv.generateDrafts(t, "alice-token", 1)

	sourceID := srv.createSource(t, "alice-token")
	w := srv.do(t, http.MethodPost, "/api/v1/bancas/cebraspe/questions", "alice-token", map[string]any{"source_ids": []uint{sourceID}})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 (body %s)", w.Code, w.Body.String())
	}
	resp := decode[ErrorResponse](t, w)
	if !strings.Contains(resp.Message, "exhausted") {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestAnswersAndStats(t *testing.T) {
	srv := newTestServer(t)

	drafts := srv.generateDrafts(t, "alice-token", 1)
	w := srv.do(t, http.MethodPost, "/api/v1/bancas/cebraspe/questions/drafts/publish", "alice-token", map[string]any{"question_ids": ids(drafts)})
	if w.Code != http.StatusOK {
		t.Fatalf("publish status = %d, body = %s", w.Code, w.Body.String())
	}
	question := decode[services.PublishResponse](t, w).Questions[0]
	var certo, errado uint
	for _, opt := range question.Options {
		switch opt.Label {
		case models.OptionCerto:
			certo = opt.ID
		case models.OptionErrado:
			errado = opt.ID
		}
	}

	answersPath := "/api/v1/bancas/cebraspe/questions/" + uintString(question.ID) + "/answers"

	rates := []struct {
		option uint
		rate   int
	}{
		{certo, 100},
		{errado, 50},
		{certo, 67},
	}
	for i, step := range rates {
		w := srv.do(t, http.MethodPost, answersPath, "alice-token", map[string]any{
			"selected_option_id": step.option,
			"time_spent_seconds": 10,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("answer %d status = %d, body = %s", i, w.Code, w.Body.String())
		}
		resp := decode[services.SubmitAnswerResponse](t, w)
		if resp.CorrectAnswerRate != step.rate {
			t.Errorf("answer %d rate = %d, want %d", i, resp.CorrectAnswerRate, step.rate)
		}
		if resp.CorrectOption == nil || resp.CorrectOption.ID != certo {
			t.Errorf("answer %d correct option = %+v", i, resp.CorrectOption)
		}
	}

	w = srv.do(t, http.MethodPost, answersPath, "alice-token", map[string]any{"selected_option_id": 9999})
	if w.Code != http.StatusBadRequest {
		t.Errorf("foreign option status = %d, want 400", w.Code)
	}
	if w := srv.do(t, http.MethodPost, answersPath, "bob-token", map[string]any{"selected_option_id": certo}); w.Code != http.StatusNotFound {
		t.Errorf("foreign question status = %d, want 404", w.Code)
	}

	history := decode[services.AnswerHistoryResponse](t, srv.do(t, http.MethodGet, answersPath, "alice-token", nil))
	if history.TotalAttempts != 3 || history.CorrectAttempts != 2 {
		t.Errorf("history = %d/%d, want 3 total 2 correct", history.TotalAttempts, history.CorrectAttempts)
	}

	w = srv.do(t, http.MethodGet, "/api/v1/bancas/cebraspe/stats", "alice-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d, body = %s", w.Code, w.Body.String())
	}
	stats := decode[services.BancaStatsResponse](t, w)
	if stats.TotalAnswered != 3 || stats.CorrectAnswers != 2 || stats.AccuracyPercentage != 66.67 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.AverageTimeSeconds != 10 {
		t.Errorf("average time = %d, want 10", stats.AverageTimeSeconds)
	}

	if w := srv.do(t, http.MethodGet, "/api/v1/bancas/nope/stats", "alice-token", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown banca stats status = %d, want 404", w.Code)
	}

	w = srv.do(t, http.MethodGet, "/api/v1/bancas/cebraspe/stats/export", "alice-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d, body = %s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "inedit-cebraspe-") || !strings.Contains(cd, ".xlsx") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("export body is not a zip container")
	}
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
