package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inedit/inedit-service/internal/services"
	"github.com/inedit/inedit-service/internal/utils"
)

type BancaHandler struct {
	BaseHandler
	service services.BancaService
}

func NewBancaHandler(service services.BancaService, logger utils.Logger) *BancaHandler {
	return &BancaHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ListBancas lists bancas. Admins also see inactive ones.
// @Summary List bancas
// @Tags bancas
// @Produce json
// @Success 200 {array} models.Banca
// @Router /bancas [get]
func (h *BancaHandler) ListBancas(c *gin.Context) {
	bancas, err := h.service.List(c.Request.Context(), isAdmin(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bancas)
}

// GetBanca returns one banca
// @Summary Get a banca
// @Tags bancas
// @Produce json
// @Param id path string true "Banca ID"
// @Success 200 {object} models.Banca
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /bancas/{id} [get]
func (h *BancaHandler) GetBanca(c *gin.Context) {
	banca, err := h.service.Get(c.Request.Context(), c.Param("id"), isAdmin(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, banca)
}

// CreateBanca adds a banca
// @Summary Create a banca
// @Tags admin
// @Accept json
// @Produce json
// @Param request body services.BancaCreateRequest true "Banca"
// @Success 201 {object} models.Banca
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 409 {object} ErrorResponse "Conflict - banca already exists"
// @Router /admin/bancas [post]
func (h *BancaHandler) CreateBanca(c *gin.Context) {
	var req services.BancaCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	banca, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, banca)
}

// UpdateBanca edits a banca
// @Summary Update a banca
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Banca ID"
// @Param request body services.BancaUpdateRequest true "Fields to change"
// @Success 200 {object} models.Banca
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /admin/bancas/{id} [patch]
func (h *BancaHandler) UpdateBanca(c *gin.Context) {
	var req services.BancaUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	banca, err := h.service.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, banca)
}
