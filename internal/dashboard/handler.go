package dashboard

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the analytics dashboard
type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers dashboard routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	dashboard := router.Group("/dashboard")
	{
		dashboard.GET("/summary", h.getSummary)
		dashboard.GET("/activity", h.getActivity)
	}
}

// getSummary handles GET /api/v1/dashboard/summary
func (h *Handler) getSummary(c *gin.Context) {
	summary, err := h.service.GetSummary(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to build dashboard summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build dashboard summary"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// getActivity handles GET /api/v1/dashboard/activity?limit=20
func (h *Handler) getActivity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	items, err := h.service.RecentActivity(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to fetch recent activity", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch recent activity"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": items})
}
