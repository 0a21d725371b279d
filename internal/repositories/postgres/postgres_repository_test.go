package postgres

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/inedit/inedit-service/internal/credits"
	"github.com/inedit/inedit-service/internal/models"
	"github.com/inedit/inedit-service/internal/repositories"
	"github.com/inedit/inedit-service/pkg"
)

type stubIdentity struct{}

func (stubIdentity) ParseToken(ctx context.Context, token string) (*models.Identity, error) {
	return nil, repositories.ErrNotFound
}

func (stubIdentity) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	return nil, repositories.ErrNotFound
}

func newTestRepository(t *testing.T) repositories.Repository {
	t.Helper()
	return NewPostgreSQLRepository(RepositoryConfig{DB: newTestDB(t), Identity: stubIdentity{}})
}

func newTestDB(t *testing.T) *gorm.DB {
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

	return db
}

func draft(userID, bancaID, title string, difficulty models.DifficultyLevel, correct string, tags ...string) *models.Question {
	return &models.Question{
		UserID:     userID,
		BancaID:    bancaID,
		Title:      title,
		Difficulty: difficulty,
		Status:     models.QuestionDraft,
		Tags:       tags,
		Options:    models.CertoErradoOptions(correct),
	}
}

func createDrafts(t *testing.T, repo repositories.Repository, questions ...*models.Question) []uint {
	t.Helper()
	if err := repo.Question().CreateDrafts(context.Background(), nil, questions); err != nil {
		t.Fatalf("CreateDrafts() error = %v", err)
	}
	ids := make([]uint, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids
}

func TestQuestionLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	qr := repo.Question()

	ids := createDrafts(t, repo,
		draft("u1", "cebraspe", "Q1", models.DifficultyEasy, models.OptionCerto, "direito"),
		draft("u1", "cebraspe", "Q2", models.DifficultyHard, models.OptionErrado, "direito", "penal"),
	)
	foreign := createDrafts(t, repo, draft("u2", "cebraspe", "Q3", models.DifficultyMedium, models.OptionCerto))

	q1, err := qr.GetByIDForUser(ctx, nil, ids[0], "u1")
	if err != nil {
		t.Fatalf("GetByIDForUser() error = %v", err)
	}
	if len(q1.Options) != 2 || q1.Options[0].Label != models.OptionCerto || !q1.Options[0].IsCorrect || q1.Options[1].IsCorrect {
		t.Fatalf("options = %+v, want Certo(correct) then Errado", q1.Options)
	}

	if _, err := qr.GetByIDForUser(ctx, nil, foreign[0], "u1"); !repositories.IsNotFoundError(err) {
		t.Errorf("foreign question error = %v, want not found", err)
	}

	draftStatus := models.QuestionDraft
	list, total, err := qr.List(ctx, nil, "u1", "cebraspe", repositories.QuestionFilters{Status: &draftStatus, Limit: 10})
	if err != nil || total != 2 || len(list) != 2 {
		t.Fatalf("List(draft) = %d items total %d err %v", len(list), total, err)
	}
	if list[0].ID != ids[1] {
		t.Errorf("List() not newest first: first id %d", list[0].ID)
	}

	published, err := qr.PublishDrafts(ctx, nil, "u1", "cebraspe", append([]uint{foreign[0]}, ids[0]))
	if err != nil {
		t.Fatalf("PublishDrafts() error = %v", err)
	}
	if len(published) != 1 || published[0] != ids[0] {
		t.Errorf("PublishDrafts() = %v, want [%d]", published, ids[0])
	}

	again, err := qr.PublishDrafts(ctx, nil, "u1", "cebraspe", []uint{ids[0]})
	if err != nil || len(again) != 0 {
		t.Errorf("second PublishDrafts() = %v, %v; want nothing published", again, err)
	}

	wrongBanca, _ := qr.PublishDrafts(ctx, nil, "u1", "fgv", []uint{ids[1]})
	if len(wrongBanca) != 0 {
		t.Errorf("PublishDrafts() crossed bancas: %v", wrongBanca)
	}

	tags, err := qr.ListTags(ctx, nil, "u1", nil)
	if err != nil || len(tags) != 1 || tags[0] != "direito" {
		t.Errorf("ListTags() = %v, %v; want [direito] from the published question only", tags, err)
	}

	// Discard has no status filter: the published question goes too
	fgv := "fgv"
	if n, _ := qr.DeleteOwned(ctx, nil, "u1", &fgv, ids); n != 0 {
		t.Errorf("DeleteOwned() in wrong banca removed %d", n)
	}
	cebraspe := "cebraspe"
	n, err := qr.DeleteOwned(ctx, nil, "u1", &cebraspe, append(ids, foreign[0]))
	if err != nil || n != 2 {
		t.Fatalf("DeleteOwned() = %d, %v; want 2", n, err)
	}
	if _, err := qr.GetByIDForUser(ctx, nil, foreign[0], "u2"); err != nil {
		t.Errorf("foreign question was removed: %v", err)
	}
	if _, err := qr.GetOption(ctx, nil, ids[0], q1.Options[0].ID); !repositories.IsNotFoundError(err) {
		t.Errorf("options survived delete: %v", err)
	}
}

func TestApplyAnswerRollingRate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	ids := createDrafts(t, repo, draft("u1", "cebraspe", "Q", models.DifficultyMedium, models.OptionCerto))

	steps := []struct {
		correct bool
		want    int
	}{
		{correct: true, want: 100},
		{correct: false, want: 50},
		{correct: true, want: 67},
		{correct: false, want: 50},
	}

	for i, step := range steps {
		if err := repo.Question().ApplyAnswer(ctx, nil, ids[0], step.correct); err != nil {
			t.Fatalf("ApplyAnswer() step %d error = %v", i, err)
		}
		q, err := repo.Question().GetByIDForUser(ctx, nil, ids[0], "u1")
		if err != nil {
			t.Fatalf("GetByIDForUser() error = %v", err)
		}
		if q.TimesAnswered != i+1 || q.CorrectAnswerRate != step.want {
			t.Errorf("step %d: times=%d rate=%d, want times=%d rate=%d", i, q.TimesAnswered, q.CorrectAnswerRate, i+1, step.want)
		}
	}

	if err := repo.Question().ApplyAnswer(ctx, nil, 9999, true); !repositories.IsNotFoundError(err) {
		t.Errorf("ApplyAnswer() on missing question = %v, want not found", err)
	}
}

func TestAnswerAggregates(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	questions := []*models.Question{
		draft("u1", "cebraspe", "easy", models.DifficultyEasy, models.OptionCerto),
		draft("u1", "cebraspe", "hard", models.DifficultyHard, models.OptionErrado),
		draft("u1", "fgv", "other banca", models.DifficultyEasy, models.OptionCerto),
	}
	ids := createDrafts(t, repo, questions...)

	now := time.Now()
	yesterday := now.Add(-36 * time.Hour)
	ten, twenty := 10, 20

	answers := []*models.UserAnswer{
		{UserID: "u1", QuestionID: ids[0], SelectedOptionID: questions[0].Options[0].ID, IsCorrect: true, TimeSpentSeconds: &ten, AnsweredAt: yesterday},
		{UserID: "u1", QuestionID: ids[0], SelectedOptionID: questions[0].Options[1].ID, IsCorrect: false, TimeSpentSeconds: &twenty, AnsweredAt: now},
		{UserID: "u1", QuestionID: ids[1], SelectedOptionID: questions[1].Options[1].ID, IsCorrect: true, AnsweredAt: now},
		{UserID: "u1", QuestionID: ids[2], SelectedOptionID: questions[2].Options[0].ID, IsCorrect: true, AnsweredAt: now},
		{UserID: "u2", QuestionID: ids[0], SelectedOptionID: questions[0].Options[0].ID, IsCorrect: true, AnsweredAt: now},
	}
	for _, a := range answers {
		if err := repo.Answer().Create(ctx, nil, a); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	t.Run("summary", func(t *testing.T) {
		summary, err := repo.Answer().Summary(ctx, nil, "u1", "cebraspe", credits.StartOfDay(now, time.Local))
		if err != nil {
			t.Fatalf("Summary() error = %v", err)
		}
		if summary.Total != 3 || summary.Correct != 2 || summary.AnswersToday != 2 {
			t.Errorf("Summary() = %+v, want total 3 correct 2 today 2", summary)
		}
		if summary.AvgTimeSeconds == nil || *summary.AvgTimeSeconds != 15 {
			t.Errorf("AvgTimeSeconds = %v, want 15", summary.AvgTimeSeconds)
		}
	})

	t.Run("empty summary", func(t *testing.T) {
		summary, err := repo.Answer().Summary(ctx, nil, "nobody", "cebraspe", now)
		if err != nil {
			t.Fatalf("Summary() error = %v", err)
		}
		if summary.Total != 0 || summary.Correct != 0 || summary.AvgTimeSeconds != nil {
			t.Errorf("empty Summary() = %+v", summary)
		}
	})

	t.Run("difficulty breakdown", func(t *testing.T) {
		rows, err := repo.Answer().DifficultyBreakdown(ctx, nil, "u1", "cebraspe")
		if err != nil {
			t.Fatalf("DifficultyBreakdown() error = %v", err)
		}
		got := map[models.DifficultyLevel]models.DifficultyPerformanceRow{}
		for _, r := range rows {
			got[r.Difficulty] = r
		}
		if got[models.DifficultyEasy].Total != 2 || got[models.DifficultyEasy].Correct != 1 {
			t.Errorf("easy = %+v", got[models.DifficultyEasy])
		}
		if got[models.DifficultyHard].Total != 1 || got[models.DifficultyHard].Correct != 1 {
			t.Errorf("hard = %+v", got[models.DifficultyHard])
		}
	})

	t.Run("per question", func(t *testing.T) {
		stats, err := repo.Answer().StatsByQuestions(ctx, nil, "u1", ids)
		if err != nil {
			t.Fatalf("StatsByQuestions() error = %v", err)
		}
		if s := stats[ids[0]]; s == nil || s.TotalAttempts != 2 || s.CorrectAttempts != 1 || s.IncorrectAttempts != 1 {
			t.Errorf("stats[q0] = %+v", s)
		}

		latest, err := repo.Answer().LatestByQuestions(ctx, nil, "u1", ids)
		if err != nil {
			t.Fatalf("LatestByQuestions() error = %v", err)
		}
		if latest[ids[0]] == nil || latest[ids[0]].IsCorrect {
			t.Errorf("latest[q0] = %+v, want the incorrect answer from today", latest[ids[0]])
		}

		history, err := repo.Answer().ListByUserQuestion(ctx, nil, "u1", ids[0])
		if err != nil || len(history) != 2 || !history[0].IsCorrect {
			t.Errorf("ListByUserQuestion() = %d answers, err %v", len(history), err)
		}
	})

	t.Run("answer log", func(t *testing.T) {
		rows, err := repo.Answer().AnswerLog(ctx, nil, "u1", "cebraspe")
		if err != nil {
			t.Fatalf("AnswerLog() error = %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("AnswerLog() = %d rows, want 3", len(rows))
		}
		last := rows[len(rows)-1]
		if last.QuestionTitle != "easy" || last.SelectedLabel != models.OptionCerto {
			t.Errorf("oldest row = %+v", last)
		}
	})
}

func TestUserAccounts(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	users := repo.User()

	free, err := users.EnsureFromIdentity(ctx, nil, &models.Identity{ID: "u1", Name: "ana", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("EnsureFromIdentity() error = %v", err)
	}
	if free.Role != models.RoleFree || free.Name != "ana" {
		t.Errorf("new user = %+v, want free", free)
	}

	admin, err := users.EnsureFromIdentity(ctx, nil, &models.Identity{ID: "a1", DisplayName: "Root", IsAdmin: true})
	if err != nil || admin.Role != models.RoleAdmin {
		t.Fatalf("admin = %+v, %v", admin, err)
	}

	if err := users.UpdateRole(ctx, nil, "u1", models.RolePro); err != nil {
		t.Fatalf("UpdateRole() error = %v", err)
	}
	again, err := users.EnsureFromIdentity(ctx, nil, &models.Identity{ID: "u1", DisplayName: "Ana Maria", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("EnsureFromIdentity() error = %v", err)
	}
	if again.Role != models.RolePro || again.Name != "Ana Maria" {
		t.Errorf("refreshed user = %+v, want pro with new name", again)
	}

	today := time.Now()
	if err := users.UpdateGenerationCounters(ctx, nil, "u1", credits.Counters{CreditsUsed: 3, DailyGenerationCount: 1, LastGenerationDate: &today}); err != nil {
		t.Fatalf("UpdateGenerationCounters() error = %v", err)
	}
	grant := 20
	if err := users.UpdateCreditGrant(ctx, nil, "u1", &grant, true); err != nil {
		t.Fatalf("UpdateCreditGrant() error = %v", err)
	}
	u, _ := users.GetByID(ctx, nil, "u1")
	if u.CreditsGranted == nil || *u.CreditsGranted != 20 || u.CreditsUsed != 0 || u.DailyGenerationCount != 0 || u.LastGenerationDate != nil {
		t.Errorf("after grant = %+v", u)
	}

	list, total, err := users.List(ctx, nil, repositories.UserFilters{Query: "ANA"})
	if err != nil || total != 1 || len(list) != 1 || list[0].ID != "u1" {
		t.Errorf("List(ana) = %v total %d err %v", list, total, err)
	}

	if err := users.UpdateRole(ctx, nil, "ghost", models.RolePro); !repositories.IsNotFoundError(err) {
		t.Errorf("UpdateRole(ghost) = %v, want not found", err)
	}
}

func TestBancasAndSources(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	active, err := repo.Banca().List(ctx, nil, true)
	if err != nil || len(active) != 1 || active[0].ID != "cebraspe" {
		t.Fatalf("List(active) = %v, %v", active, err)
	}
	all, _ := repo.Banca().List(ctx, nil, false)
	if len(all) != 2 {
		t.Errorf("List(all) = %d, want 2", len(all))
	}

	fgv, err := repo.Banca().GetByID(ctx, nil, "fgv")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	fgv.IsActive = true
	if err := repo.Banca().Update(ctx, nil, fgv); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if _, err := repo.Banca().GetByID(ctx, nil, "vunesp"); !repositories.IsNotFoundError(err) {
		t.Errorf("GetByID(vunesp) = %v, want not found", err)
	}

	content := "Art. 5 da Constituição"
	src := &models.Source{UserID: "u1", BancaID: "cebraspe", Type: models.SourceText, Title: "CF", Content: &content, ProcessingStatus: models.ProcessingCompleted}
	if err := repo.Source().Create(ctx, nil, src); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := repo.Source().GetByIDs(ctx, nil, "u1", "cebraspe", []uint{src.ID, 999})
	if err != nil || len(found) != 1 || found[0].Text() != content {
		t.Errorf("GetByIDs() = %v, %v", found, err)
	}
	if other, _ := repo.Source().GetByIDs(ctx, nil, "u2", "cebraspe", []uint{src.ID}); len(other) != 0 {
		t.Error("GetByIDs() leaked another user's source")
	}

	if err := repo.Source().Delete(ctx, nil, src.ID, "u2"); !repositories.IsNotFoundError(err) {
		t.Errorf("Delete() by non-owner = %v, want not found", err)
	}
	if err := repo.Source().Delete(ctx, nil, src.ID, "u1"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestWithTransactionRollsBack(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	errBoom := repositories.ErrNotFound
	err := repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Question().CreateDrafts(ctx, nil, []*models.Question{
			draft("u1", "cebraspe", "rolled back", models.DifficultyEasy, models.OptionCerto),
		}); err != nil {
			return err
		}
		return errBoom
	})
	if err != errBoom {
		t.Fatalf("WithTransaction() error = %v", err)
	}

	list, total, _ := repo.Question().List(ctx, nil, "u1", "cebraspe", repositories.QuestionFilters{})
	if total != 0 || len(list) != 0 {
		t.Errorf("questions after rollback = %d", total)
	}
}

func TestPublishDraftsReportsOnlyRowsItChanged(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgreSQLRepository(RepositoryConfig{DB: db, Identity: stubIdentity{}})
	ctx := context.Background()

	ids := createDrafts(t, repo,
		draft("u1", "cebraspe", "Q1", models.DifficultyEasy, models.OptionCerto),
		draft("u1", "cebraspe", "Q2", models.DifficultyEasy, models.OptionErrado),
	)

	// Another request publishes Q1 right before our UPDATE runs
	fired := false
	err := db.Callback().Update().Before("gorm:update").Register("test:concurrent_publish", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "questions" {
			return
		}
		fired = true
		if err := tx.Session(&gorm.Session{NewDB: true}).
			Table("questions").
			Where("id = ?", ids[0]).
			Update("status", models.QuestionPublished).Error; err != nil {
			t.Errorf("concurrent publish failed: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	published, err := repo.Question().PublishDrafts(ctx, nil, "u1", "cebraspe", ids)
	if err != nil {
		t.Fatalf("PublishDrafts() error = %v", err)
	}
	if !fired {
		t.Fatal("concurrent publish never ran")
	}
	if len(published) != 1 || published[0] != ids[1] {
		t.Errorf("published = %v, want [%d]", published, ids[1])
	}

	again, err := repo.Question().PublishDrafts(ctx, nil, "u1", "cebraspe", ids)
	if err != nil {
		t.Fatalf("second PublishDrafts() error = %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second publish = %v, want none", again)
	}
}
