package validator

import (
	"github.com/inedit/inedit-service/internal/models"
)

// GenerateQuestionsRequest asks for a batch of draft questions
type GenerateQuestionsRequest struct {
	SourceIDs    []uint                  `json:"source_ids" validate:"required,min=1,max=20,dive,gt=0"`
	Count        *int                    `json:"count" validate:"omitnil,question_count"`
	Difficulty   *models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Tags         []string                `json:"tags" validate:"omitempty,max=10,dive,max=50"`
	SystemPrompt *string                 `json:"system_prompt" validate:"omitempty,max=4000"`
}

// RequestedCount applies the default batch size
func (r *GenerateQuestionsRequest) RequestedCount() int {
	if r.Count == nil {
		return DefaultQuestionCount
	}
	return *r.Count
}

// QuestionIDsRequest names the questions a publish or discard applies to
type QuestionIDsRequest struct {
	QuestionIDs []uint `json:"question_ids" validate:"required,min=1,max=100,dive,gt=0"`
}

type QuestionListQuery struct {
	Status     *models.QuestionStatus  `form:"status" validate:"omitempty,question_status"`
	Difficulty *models.DifficultyLevel `form:"difficulty" validate:"omitempty,difficulty_level"`
	Limit      int                     `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset     int                     `form:"offset" validate:"omitempty,min=0"`
}

type SubmitAnswerRequest struct {
	SelectedOptionID uint `json:"selected_option_id" validate:"required"`
	TimeSpentSeconds *int `json:"time_spent_seconds" validate:"omitempty,min=0,max=86400"`
}

// SourceCreateRequest creates a text or url source
type SourceCreateRequest struct {
	Type    models.SourceType `json:"type" validate:"required,source_type"`
	Title   string            `json:"title" validate:"required,source_title"`
	Content *string           `json:"content" validate:"omitempty,max=200000"`
	URL     *string           `json:"url" validate:"omitempty,url,max=2000"`
}

// FileSourceRequest describes an uploaded file
type FileSourceRequest struct {
	Title    string `validate:"required,source_title"`
	FileName string `validate:"required,max=500"`
	FileSize int64  `validate:"gt=0"`
	MimeType string `validate:"max=100"`
}

type BancaCreateRequest struct {
	ID          string  `json:"id" validate:"required,banca_id"`
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	LogoURL     *string `json:"logo_url" validate:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active"`
}

type BancaUpdateRequest struct {
	Name        *string `json:"name" validate:"omitnil,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	LogoURL     *string `json:"logo_url" validate:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active"`
}

type UpdateRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,user_role"`
}

// UpdateCreditsRequest sets or clears the credit override. A nil grant restores the role default.
type UpdateCreditsRequest struct {
	CreditsGranted *int `json:"credits_granted" validate:"omitempty,min=0,max=100000"`
	ResetUsage     bool `json:"reset_usage"`
}

type UserListQuery struct {
	Query  string           `form:"q" validate:"omitempty,max=255"`
	Role   *models.UserRole `form:"role" validate:"omitempty,user_role"`
	Limit  int              `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset int              `form:"offset" validate:"omitempty,min=0"`
}
