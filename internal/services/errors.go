package services

import (
	"errors"
	"fmt"

	"github.com/inedit/inedit-service/internal/validator"
)

var (
	ErrQuestionNotFound      = errors.New("question not found")
	ErrBancaNotFound         = errors.New("banca not found")
	ErrSourceNotFound        = errors.New("source not found")
	ErrSourcesNotFound       = errors.New("no valid sources found")
	ErrNoDraftsFound         = errors.New("no matching draft questions found")
	ErrOptionMismatch        = errors.New("selected option does not belong to this question")
	ErrCreditsExhausted      = errors.New("generation credits exhausted")
	ErrUpstreamFailure       = errors.New("question generation failed, try again")
	ErrUserNotFound          = errors.New("user not found")
	ErrCannotDemoteSelf      = errors.New("admins cannot change their own role")
	ErrStorageNotConfigured  = errors.New("file storage is not configured")
	ErrBancaExists           = errors.New("banca already exists")
	ErrGenerationUnavailable = errors.New("question generation is not configured")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ValidationErrors is returned for malformed input
type ValidationErrors = validator.ValidationErrors

// BusinessRuleError is returned when valid input breaks a product rule
type BusinessRuleError struct {
	Rule    string
	Message string
	Context map[string]interface{}
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message, Context: context}
}

// PermissionError is returned when the caller's role does not allow the action
type PermissionError struct {
	UserID   string
	Resource string
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
}

func NewPermissionError(userID, resource, action, reason string) *PermissionError {
	return &PermissionError{UserID: userID, Resource: resource, Action: action, Reason: reason}
}
