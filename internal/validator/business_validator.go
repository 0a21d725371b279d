package validator

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/inedit/inedit-service/internal/models"
)

const (
	MinQuestionCount     = 1
	MaxQuestionCount     = 20
	DefaultQuestionCount = 5
	MaxUploadBytes       = 20 << 20
)

var bancaIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,49}$`)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateGenerateQuestions checks a generation request
func (bv *BusinessValidator) ValidateGenerateQuestions(req *GenerateQuestionsRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	errors = append(errors, validateTags(req.Tags)...)

	return errors
}

// ValidateSourceCreate checks a JSON source. File sources go through ValidateFileSource.
func (bv *BusinessValidator) ValidateSourceCreate(req *SourceCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	switch req.Type {
	case models.SourceURL:
		if req.URL == nil || strings.TrimSpace(*req.URL) == "" {
			errors = append(errors, ValidationError{
				Field:   "url",
				Message: "is required for url sources",
				Rule:    "business_logic",
			})
		}
	case models.SourceText:
		if req.Content == nil || strings.TrimSpace(*req.Content) == "" {
			errors = append(errors, ValidationError{
				Field:   "content",
				Message: "is required for text sources",
				Rule:    "business_logic",
			})
		}
	}

	return errors
}

// ValidateFileSource checks an upload before it is sent to the blob store
func (bv *BusinessValidator) ValidateFileSource(req *FileSourceRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.FileSize > MaxUploadBytes {
		errors = append(errors, ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("must not exceed %d bytes", MaxUploadBytes),
			Value:   req.FileSize,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateQuestionFilters checks list query parameters
func (bv *BusinessValidator) ValidateQuestionFilters(req *QuestionListQuery) ValidationErrors {
	return bv.Validate(req)
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Questions per generation call (1-20)
	bv.validate.RegisterValidation("question_count", func(fl validator.FieldLevel) bool {
		count := fl.Field().Int()
		return count >= MinQuestionCount && count <= MaxQuestionCount
	})

	bv.validate.RegisterValidation("difficulty_level", func(fl validator.FieldLevel) bool {
		return models.DifficultyLevel(fl.Field().String()).Valid()
	})

	bv.validate.RegisterValidation("question_status", func(fl validator.FieldLevel) bool {
		return models.QuestionStatus(fl.Field().String()).Valid()
	})

	// JSON sources only; files arrive through the upload endpoint
	bv.validate.RegisterValidation("source_type", func(fl validator.FieldLevel) bool {
		switch models.SourceType(fl.Field().String()) {
		case models.SourceText, models.SourceURL:
			return true
		}
		return false
	})

	bv.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})

	bv.validate.RegisterValidation("banca_id", func(fl validator.FieldLevel) bool {
		return bancaIDPattern.MatchString(fl.Field().String())
	})

	bv.validate.RegisterValidation("source_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		n := utf8.RuneCountInString(title)
		return n >= 1 && n <= 500
	})
}

func validateTags(tags []string) ValidationErrors {
	var errors ValidationErrors
	for i, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("tags[%d]", i),
				Message: "tag cannot be empty",
				Value:   tag,
				Rule:    "business_logic",
			})
		}
	}
	return errors
}
