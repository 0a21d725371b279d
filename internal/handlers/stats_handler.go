package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inedit/inedit-service/internal/services"
	"github.com/inedit/inedit-service/internal/utils"
)

type StatsHandler struct {
	BaseHandler
	service services.StatsService
}

func NewStatsHandler(service services.StatsService, logger utils.Logger) *StatsHandler {
	return &StatsHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetBancaStats returns the caller's performance in a banca
// @Summary Banca statistics
// @Tags stats
// @Produce json
// @Param id path string true "Banca ID"
// @Success 200 {object} services.BancaStatsResponse
// @Failure 404 {object} ErrorResponse "Banca not found"
// @Router /bancas/{id}/stats [get]
func (h *StatsHandler) GetBancaStats(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.service.BancaStats(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportBancaStats downloads the banca report as a spreadsheet
// @Summary Export banca statistics
// @Tags stats
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Banca ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse "Banca not found"
// @Router /bancas/{id}/stats/export [get]
func (h *StatsHandler) ExportBancaStats(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	file, err := h.service.ExportBancaReport(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
