package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inedit/inedit-service/internal/services"
	"github.com/inedit/inedit-service/internal/utils"
)

type AccountHandler struct {
	BaseHandler
	service services.AccountService
}

func NewAccountHandler(service services.AccountService, logger utils.Logger) *AccountHandler {
	return &AccountHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetGenerationStatus returns the caller's remaining generation credits
// @Summary Get generation status
// @Tags me
// @Produce json
// @Success 200 {object} credits.Status
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /me/generation-status [get]
func (h *AccountHandler) GetGenerationStatus(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	status, err := h.service.GetGenerationStatus(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// ===== ADMIN =====

// ListUsers lists local accounts
// @Summary List users
// @Tags admin
// @Produce json
// @Param q query string false "Search query (name or email)"
// @Param role query string false "Filter by role (free, pro, admin)"
// @Param limit query int false "Page size (default: 50, max: 200)"
// @Param offset query int false "Offset"
// @Success 200 {object} services.UserListResponse
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /admin/users [get]
func (h *AccountHandler) ListUsers(c *gin.Context) {
	h.LogRequest(c, "Listing users")

	var query services.UserListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.badRequest(c, err)
		return
	}

	resp, err := h.service.ListUsers(c.Request.Context(), &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateRole changes a user's plan
// @Summary Update user role
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body services.UpdateRoleRequest true "New role"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 404 {object} ErrorResponse "Not found"
// @Failure 422 {object} ErrorResponse "Admins cannot demote themselves"
// @Router /admin/users/{id}/role [patch]
func (h *AccountHandler) UpdateRole(c *gin.Context) {
	adminID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	user, err := h.service.UpdateRole(c.Request.Context(), adminID, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateCredits sets or clears a user's credit override
// @Summary Update user credits
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body services.UpdateCreditsRequest true "Credit override"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /admin/users/{id}/credits [patch]
func (h *AccountHandler) UpdateCredits(c *gin.Context) {
	var req services.UpdateCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	user, err := h.service.UpdateCredits(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
