package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/inedit/inedit-service/internal/services"
	"github.com/inedit/inedit-service/internal/utils"
	"github.com/inedit/inedit-service/internal/validator"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries what every handler shares
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, message string, args ...any) {
	utils.FromGinContext(c, h.logger).Debug(message, append(args, "path", c.FullPath())...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, message string) {
	utils.FromGinContext(c, h.logger).Error(message,
		"error", err,
		"method", c.Request.Method,
		"path", c.Request.URL.Path)
}

// currentUserID reads the authenticated user or answers 401
func (h *BaseHandler) currentUserID(c *gin.Context) (string, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return "", false
	}
	return userID, true
}

// uintParam parses a numeric path parameter or answers 400
func (h *BaseHandler) uintParam(c *gin.Context, name, label string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + label,
		})
		return 0, false
	}
	return uint(id), true
}

func (h *BaseHandler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Message: "Invalid request payload",
		Details: err.Error(),
	})
}

// handleServiceError maps service errors to HTTP status codes
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	var ruleErr *services.BusinessRuleError
	var permErr *services.PermissionError

	switch {
	case errors.As(err, &validationErrs):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrs,
		})
	case errors.Is(err, services.ErrOptionMismatch):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Selected option does not belong to this question",
		})
	case errors.As(err, &ruleErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: ruleErr.Message,
			Details: gin.H{"rule": ruleErr.Rule, "context": ruleErr.Context},
		})
	case errors.Is(err, services.ErrCannotDemoteSelf):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Admins cannot change their own role",
		})
	case errors.As(err, &permErr):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: gin.H{"resource": permErr.Resource, "action": permErr.Action, "reason": permErr.Reason},
		})
	case errors.Is(err, services.ErrCreditsExhausted):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Generation credits exhausted",
			Details: gin.H{"can_upgrade": true},
		})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Forbidden",
		})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Unauthorized",
		})
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Question not found"})
	case errors.Is(err, services.ErrBancaNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Banca not found"})
	case errors.Is(err, services.ErrSourceNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Source not found"})
	case errors.Is(err, services.ErrSourcesNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "No valid sources found"})
	case errors.Is(err, services.ErrNoDraftsFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "No matching draft questions found"})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "User not found"})
	case errors.Is(err, services.ErrBancaExists):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Banca already exists"})
	case errors.Is(err, services.ErrUpstreamFailure):
		h.LogError(c, err, "Question generation failed")
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: "Question generation failed, try again",
		})
	case errors.Is(err, services.ErrStorageNotConfigured), errors.Is(err, services.ErrGenerationUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Message: err.Error(),
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
