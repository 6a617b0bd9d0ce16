package retirements

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for retirement certificates
type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers retirement routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	retirements := router.Group("/retirements")
	{
		retirements.GET("", h.listCertificates)
		retirements.POST("", h.createCertificate)
		retirements.GET("/:certificateId/certificate", h.downloadCertificate)
	}
}

// listCertificates handles GET /api/v1/retirements
func (h *Handler) listCertificates(c *gin.Context) {
	filter := Filter{
		OwnerAddress:  c.Query("ownerAddress"),
		MPTIssuanceID: c.Query("mptIssuanceId"),
	}
	certificates, err := h.service.ListCertificates(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list retirement certificates", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch retirement certificates"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"certificates": certificates})
}

// createCertificate handles POST /api/v1/retirements
func (h *Handler) createCertificate(c *gin.Context) {
	var payload RetirementCertificate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cert, err := h.service.CreateCertificate(c.Request.Context(), &payload)
	switch {
	case errors.Is(err, ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields: certificateId, mptIssuanceId, and txHash are required"})
	case errors.Is(err, ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "certificate with this ID already exists"})
	case err != nil:
		h.logger.Error("failed to save retirement certificate", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save retirement certificate"})
	default:
		c.JSON(http.StatusCreated, gin.H{"message": "retirement certificate saved successfully", "certificate": cert})
	}
}

// downloadCertificate handles GET /api/v1/retirements/:certificateId/certificate
func (h *Handler) downloadCertificate(c *gin.Context) {
	url, err := h.service.CertificateURL(c.Request.Context(), c.Param("certificateId"))
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "certificate not found"})
	case err != nil:
		h.logger.Error("failed to produce certificate download", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to produce certificate download"})
	default:
		c.JSON(http.StatusOK, gin.H{"url": url})
	}
}
