package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JsterDevers/Presentryx/internal/middleware"
	"github.com/JsterDevers/Presentryx/internal/service"
	"github.com/JsterDevers/Presentryx/pkg/response"
)

// DashboardHandler exposes the aggregated class-day summary.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Summary returns Present/Late/Absent counts for a class day. The date query
// parameter defaults to today.
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, cached, err := h.service.Summary(c.Request.Context(), c.Param("classId"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}
