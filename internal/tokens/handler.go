package tokens

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carbon-exchange/marketplace-backend/internal/auth"
	"carbon-exchange/marketplace-backend/pkg/storage"
)

// Handler handles HTTP requests for marketplace tokens
type Handler struct {
	service *Service
	ipfs    storage.IPFSClient
	logger  *zap.Logger
}

func NewHandler(service *Service, ipfs storage.IPFSClient, logger *zap.Logger) *Handler {
	return &Handler{service: service, ipfs: ipfs, logger: logger}
}

// RegisterRoutes registers token routes. Reads stay public; minting,
// delisting and document uploads require an issuer session.
func (h *Handler) RegisterRoutes(router, protected *gin.RouterGroup) {
	tokens := router.Group("/tokens")
	{
		tokens.GET("", h.listTokens)
		tokens.GET("/archive", h.listArchive)
		tokens.GET("/:issuanceId", h.getToken)
	}

	managed := protected.Group("/tokens")
	managed.Use(auth.RequireRole(auth.RoleIssuer))
	{
		managed.POST("", h.createToken)
		managed.DELETE("", h.removeToken)
		managed.POST("/documents", h.pinDocument)
	}
}

// listTokens handles GET /api/v1/tokens
func (h *Handler) listTokens(c *gin.Context) {
	list, err := h.service.ListMarketplace(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list marketplace tokens", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch tokens"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": list})
}

// listArchive handles GET /api/v1/tokens/archive
func (h *Handler) listArchive(c *gin.Context) {
	list, err := h.service.ListArchive(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list token archive", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch token archive"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": list})
}

// getToken handles GET /api/v1/tokens/:issuanceId
func (h *Handler) getToken(c *gin.Context) {
	token, err := h.service.GetToken(c.Request.Context(), c.Param("issuanceId"))
	if err != nil {
		h.logger.Error("failed to fetch token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch token"})
		return
	}
	if token == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "token not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// createToken handles POST /api/v1/tokens
func (h *Handler) createToken(c *gin.Context) {
	var payload MintedToken
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// The listing belongs to the authenticated issuer, whatever the body says.
	payload.Address = auth.AddressFromContext(c)

	token, err := h.service.CreateToken(c.Request.Context(), &payload)
	switch {
	case errors.Is(err, ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields: issuanceId and address are required"})
	case errors.Is(err, ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "token with this issuanceId already exists"})
	case err != nil:
		h.logger.Error("failed to save token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save token"})
	default:
		c.JSON(http.StatusCreated, gin.H{"message": "token saved successfully", "token": token})
	}
}

// pinDocument handles POST /api/v1/tokens/documents. Issuers upload the
// project document before minting; the returned CID goes into the issuance
// metadata on-ledger.
func (h *Handler) pinDocument(c *gin.Context) {
	if h.ipfs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document storage is not configured"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}
	defer file.Close()

	cid, err := h.ipfs.PinFile(c.Request.Context(), header.Filename, file)
	if err != nil {
		h.logger.Error("failed to pin document", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to pin document"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ipfsHash": cid})
}

// removeToken handles DELETE /api/v1/tokens?issuanceId=... Only the issuing
// wallet may delist its own token.
func (h *Handler) removeToken(c *gin.Context) {
	issuanceID := c.Query("issuanceId")
	if issuanceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing issuanceId parameter"})
		return
	}

	token, err := h.service.GetToken(c.Request.Context(), issuanceID)
	if err != nil {
		h.logger.Error("failed to fetch token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch token"})
		return
	}
	if token == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "token not found"})
		return
	}
	if token.Address != auth.AddressFromContext(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "token belongs to a different issuer"})
		return
	}

	err = h.service.RemoveFromMarketplace(c.Request.Context(), issuanceID)
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "token not found"})
	case err != nil:
		h.logger.Error("failed to remove token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove token"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "token removed from marketplace"})
	}
}
