package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/student-records-service/internal/services"
	"github.com/SAP-F-2025/student-records-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	BaseHandler
	statsService services.StatsService
}

func NewStatsHandler(statsService services.StatsService, logger utils.Logger) *StatsHandler {
	return &StatsHandler{
		BaseHandler:  NewBaseHandler(logger),
		statsService: statsService,
	}
}

// GetStats returns record statistics shaped by the caller's role
// @Summary Statistics
// @Description Staff gets global aggregates; a student gets their own grade summary
// @Tags stats
// @Produce json
// @Success 200 {object} services.GlobalStats
// @Failure 401 {object} ErrorResponse
// @Router /stats [get]
func (h *StatsHandler) GetStats(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	stats, err := h.statsService.GetStats(c.Request.Context(), caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
