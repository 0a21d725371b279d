package services

import (
	"context"
	"io"
	"time"

	"github.com/inedit/inedit-service/internal/credits"
	"github.com/inedit/inedit-service/internal/models"
	"github.com/inedit/inedit-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type GenerateQuestionsRequest = validator.GenerateQuestionsRequest
type QuestionIDsRequest = validator.QuestionIDsRequest
type QuestionListQuery = validator.QuestionListQuery
type SubmitAnswerRequest = validator.SubmitAnswerRequest
type SourceCreateRequest = validator.SourceCreateRequest
type BancaCreateRequest = validator.BancaCreateRequest
type BancaUpdateRequest = validator.BancaUpdateRequest
type UpdateRoleRequest = validator.UpdateRoleRequest
type UpdateCreditsRequest = validator.UpdateCreditsRequest
type UserListQuery = validator.UserListQuery

// QuestionResponse is a question as seen by its owner, with the owner's own answer record
type QuestionResponse struct {
	*models.Question
	AnswerStats models.AnswerStats `json:"answer_stats"`
	UserAnswer  *models.UserAnswer `json:"user_answer"`
}

type QuestionListResponse struct {
	Questions []*QuestionResponse `json:"questions"`
	Total     int64               `json:"total"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
}

type GenerateQuestionsResponse struct {
	Questions        []*models.Question `json:"questions"`
	Count            int                `json:"count"`
	TokensUsed       int                `json:"tokens_used"`
	GenerationStatus credits.Status     `json:"generation_status"`
}

type PublishResponse struct {
	Questions []*models.Question `json:"questions"`
	Count     int                `json:"count"`
}

type DiscardResponse struct {
	Deleted int64 `json:"deleted"`
}

type BancaQuestionGroup struct {
	Banca     *models.Banca      `json:"banca"`
	Questions []*models.Question `json:"questions"`
}

type SubmitAnswerResponse struct {
	Answer            *models.UserAnswer     `json:"answer"`
	IsCorrect         bool                   `json:"is_correct"`
	CorrectOption     *models.QuestionOption `json:"correct_option"`
	Explanation       *string                `json:"explanation"`
	TimesAnswered     int                    `json:"times_answered"`
	CorrectAnswerRate int                    `json:"correct_answer_rate"`
}

type AnswerHistoryResponse struct {
	QuestionID        uint                 `json:"question_id"`
	TotalAttempts     int                  `json:"total_attempts"`
	CorrectAttempts   int                  `json:"correct_attempts"`
	IncorrectAttempts int                  `json:"incorrect_attempts"`
	LatestAnswer      *models.UserAnswer   `json:"latest_answer"`
	AllAnswers        []*models.UserAnswer `json:"all_answers"`
}

type DifficultyPerformance struct {
	Difficulty models.DifficultyLevel `json:"difficulty"`
	Total      int64                  `json:"total"`
	Correct    int64                  `json:"correct"`
	Percentage float64                `json:"percentage"`
}

type BancaStatsResponse struct {
	BancaID                 string                  `json:"banca_id"`
	TotalAnswered           int64                   `json:"total_answered"`
	CorrectAnswers          int64                   `json:"correct_answers"`
	AccuracyPercentage      float64                 `json:"accuracy_percentage"`
	AverageTimeSeconds      int64                   `json:"average_time_seconds"`
	AnswersToday            int64                   `json:"answers_today"`
	PerformanceByDifficulty []DifficultyPerformance `json:"performance_by_difficulty"`
}

// ExportFile is a rendered download
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// FileUpload is a multipart file handed over by the HTTP layer
type FileUpload struct {
	Title    string
	FileName string
	Size     int64
	MimeType string
	Reader   io.Reader
}

type UserListResponse struct {
	Users  []*models.User `json:"users"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ===== SERVICE INTERFACES =====

// AccountService owns local accounts and their generation allowance
type AccountService interface {
	EnsureAccount(ctx context.Context, identity *models.Identity) (*models.User, error)
	GetGenerationStatus(ctx context.Context, userID string) (*credits.Status, error)

	// Admin
	ListUsers(ctx context.Context, query *UserListQuery) (*UserListResponse, error)
	UpdateRole(ctx context.Context, adminID, userID string, req *UpdateRoleRequest) (*models.User, error)
	UpdateCredits(ctx context.Context, userID string, req *UpdateCreditsRequest) (*models.User, error)
}

type BancaService interface {
	List(ctx context.Context, includeInactive bool) ([]*models.Banca, error)
	Get(ctx context.Context, id string, includeInactive bool) (*models.Banca, error)
	Create(ctx context.Context, req *BancaCreateRequest) (*models.Banca, error)
	Update(ctx context.Context, id string, req *BancaUpdateRequest) (*models.Banca, error)
}

type SourceService interface {
	List(ctx context.Context, userID, bancaID string) ([]*models.Source, error)
	Create(ctx context.Context, userID, bancaID string, req *SourceCreateRequest) (*models.Source, error)
	Upload(ctx context.Context, userID, bancaID string, upload *FileUpload) (*models.Source, error)
	Delete(ctx context.Context, userID, bancaID string, sourceID uint) error
}

// GenerationService turns sources into draft questions, one credit per call
type GenerationService interface {
	CreateDraftQuestions(ctx context.Context, userID, bancaID string, req *GenerateQuestionsRequest) (*GenerateQuestionsResponse, error)
}

// QuestionService covers the draft/publish lifecycle and owner reads
type QuestionService interface {
	List(ctx context.Context, userID, bancaID string, query *QuestionListQuery) (*QuestionListResponse, error)
	Get(ctx context.Context, userID string, questionID uint) (*QuestionResponse, error)
	ListMine(ctx context.Context, userID string) ([]*BancaQuestionGroup, error)
	ListTags(ctx context.Context, userID string, bancaID *string) ([]string, error)

	PublishDrafts(ctx context.Context, userID, bancaID string, req *QuestionIDsRequest) (*PublishResponse, error)
	DiscardDrafts(ctx context.Context, userID, bancaID string, req *QuestionIDsRequest) (*DiscardResponse, error)
	Delete(ctx context.Context, userID string, questionID uint) error
}

type AnswerService interface {
	Submit(ctx context.Context, userID string, questionID uint, req *SubmitAnswerRequest) (*SubmitAnswerResponse, error)
	History(ctx context.Context, userID string, questionID uint) (*AnswerHistoryResponse, error)
}

type StatsService interface {
	BancaStats(ctx context.Context, userID, bancaID string) (*BancaStatsResponse, error)
	ExportBancaReport(ctx context.Context, userID, bancaID string) (*ExportFile, error)
}

// Clock lets tests pin "now"
type Clock func() time.Time

// ServiceManager interface for managing all services
type ServiceManager interface {
	Account() AccountService
	Banca() BancaService
	Source() SourceService
	Generation() GenerationService
	Question() QuestionService
	Answer() AnswerService
	Stats() StatsService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
