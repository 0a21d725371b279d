package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/inedit/inedit-service/internal/cache"
	"github.com/inedit/inedit-service/internal/credits"
	"github.com/inedit/inedit-service/internal/models"
	"github.com/inedit/inedit-service/internal/repositories"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	summarySheet = "Summary"
	answersSheet = "Answers"
)

type statsService struct {
	repo         repositories.Repository
	logger       *slog.Logger
	cacheManager *cache.CacheManager
	ttl          time.Duration
	location     *time.Location
	now          Clock
}

func NewStatsService(repo repositories.Repository, logger *slog.Logger, cacheManager *cache.CacheManager, ttl time.Duration, location *time.Location, now Clock) StatsService {
	if ttl <= 0 {
		ttl = cache.StatsCacheConfig.TTL
	}
	if location == nil {
		location = time.Local
	}
	return &statsService{
		repo:         repo,
		logger:       logger,
		cacheManager: cacheManager,
		ttl:          ttl,
		location:     location,
		now:          now,
	}
}

// BancaStats summarises the caller's answers within one banca, cached per user and banca
func (s *statsService) BancaStats(ctx context.Context, userID, bancaID string) (*BancaStatsResponse, error) {
	if err := s.requireBanca(ctx, bancaID); err != nil {
		return nil, err
	}

	var stats BancaStatsResponse
	err := s.cacheManager.Stats.CacheOrExecute(ctx, cache.BancaStatsKey(userID, bancaID), &stats, s.ttl, func() (interface{}, error) {
		return s.computeStats(ctx, userID, bancaID)
	})
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func (s *statsService) computeStats(ctx context.Context, userID, bancaID string) (*BancaStatsResponse, error) {
	since := credits.StartOfDay(s.now(), s.location).UTC()

	summary, err := s.repo.Answer().Summary(ctx, nil, userID, bancaID, since)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.Answer().DifficultyBreakdown(ctx, nil, userID, bancaID)
	if err != nil {
		return nil, err
	}
	byDifficulty := make(map[models.DifficultyLevel]models.DifficultyPerformanceRow, len(rows))
	for _, row := range rows {
		byDifficulty[row.Difficulty] = row
	}

	performance := make([]DifficultyPerformance, 0, len(models.Difficulties))
	for _, d := range models.Difficulties {
		row := byDifficulty[d]
		performance = append(performance, DifficultyPerformance{
			Difficulty: d,
			Total:      row.Total,
			Correct:    row.Correct,
			Percentage: percentage(row.Correct, row.Total),
		})
	}

	var avg int64
	if summary.AvgTimeSeconds != nil {
		avg = int64(math.Round(*summary.AvgTimeSeconds))
	}

	return &BancaStatsResponse{
		BancaID:                 bancaID,
		TotalAnswered:           summary.Total,
		CorrectAnswers:          summary.Correct,
		AccuracyPercentage:      percentage(summary.Correct, summary.Total),
		AverageTimeSeconds:      avg,
		AnswersToday:            summary.AnswersToday,
		PerformanceByDifficulty: performance,
	}, nil
}

// ExportBancaReport renders the banca stats and the full answer log as an XLSX workbook
func (s *statsService) ExportBancaReport(ctx context.Context, userID, bancaID string) (*ExportFile, error) {
	stats, err := s.BancaStats(ctx, userID, bancaID)
	if err != nil {
		return nil, err
	}

	log, err := s.repo.Answer().AnswerLog(ctx, nil, userID, bancaID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to prepare workbook: %w", err)
	}
	if err := writeSummarySheet(f, stats); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(answersSheet); err != nil {
		return nil, fmt.Errorf("failed to prepare workbook: %w", err)
	}
	if err := writeAnswersSheet(f, log, s.location); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("Banca report exported", "user_id", userID, "banca_id", bancaID, "answers", len(log))

	return &ExportFile{
		FileName:    fmt.Sprintf("inedit-%s-%s.xlsx", bancaID, s.now().In(s.location).Format("20060102")),
		ContentType: xlsxContentType,
		Data:        buf.Bytes(),
	}, nil
}

func (s *statsService) requireBanca(ctx context.Context, bancaID string) error {
	exists, err := s.repo.Banca().ExistsByID(ctx, nil, bancaID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrBancaNotFound
	}
	return nil
}

func writeSummarySheet(f *excelize.File, stats *BancaStatsResponse) error {
	rows := [][]interface{}{
		{"Banca", stats.BancaID},
		{"Total answered", stats.TotalAnswered},
		{"Correct answers", stats.CorrectAnswers},
		{"Accuracy (%)", stats.AccuracyPercentage},
		{"Average time (s)", stats.AverageTimeSeconds},
		{"Answers today", stats.AnswersToday},
		{},
		{"Difficulty", "Total", "Correct", "Accuracy (%)"},
	}
	for _, p := range stats.PerformanceByDifficulty {
		rows = append(rows, []interface{}{string(p.Difficulty), p.Total, p.Correct, p.Percentage})
	}

	return writeRows(f, summarySheet, rows)
}

func writeAnswersSheet(f *excelize.File, log []models.AnswerLogRow, loc *time.Location) error {
	rows := [][]interface{}{
		{"Answered at", "Question ID", "Question", "Difficulty", "Selected", "Correct", "Time (s)"},
	}
	for _, entry := range log {
		var spent interface{}
		if entry.TimeSpentSeconds != nil {
			spent = *entry.TimeSpentSeconds
		}
		rows = append(rows, []interface{}{
			entry.AnsweredAt.In(loc).Format("2006-01-02 15:04:05"),
			entry.QuestionID,
			entry.QuestionTitle,
			string(entry.Difficulty),
			entry.SelectedLabel,
			entry.IsCorrect,
			spent,
		})
	}

	return writeRows(f, answersSheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s sheet: %w", sheet, err)
		}
	}
	return nil
}
