package escrow

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carbon-exchange/marketplace-backend/internal/auth"
)

// Handler handles HTTP requests for the purchase-escrow handshake
type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers purchase-request routes. The group is expected to
// carry the auth middleware already.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/purchase-requests")
	{
		requests.POST("", auth.RequireRole(auth.RoleBuyer), h.createRequest)
		requests.GET("", h.listRequests)
		requests.GET("/:id", h.getRequest)
		requests.GET("/:id/fulfillment", auth.RequireRole(auth.RoleIssuer), h.getFulfillment)
		requests.POST("/:id/approve", auth.RequireRole(auth.RoleIssuer), h.approve)
		requests.POST("/:id/escrow", auth.RequireRole(auth.RoleBuyer), h.markEscrowCreated)
		requests.POST("/:id/paid", auth.RequireRole(auth.RoleBuyer), h.markPaid)
		requests.POST("/:id/complete", auth.RequireRole(auth.RoleIssuer), h.complete)
		requests.POST("/:id/cancel", h.cancel)
	}
}

type transitionRequest struct {
	Version        int64  `json:"version" binding:"required"`
	EscrowSequence uint32 `json:"escrowSequence"`
	TxHash         string `json:"txHash"`
}

// createRequest handles POST /api/v1/purchase-requests
func (h *Handler) createRequest(c *gin.Context) {
	var params CreateParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// The request belongs to the authenticated wallet, whatever the body says.
	params.BuyerAddress = auth.AddressFromContext(c)

	req, err := h.service.CreateRequest(c.Request.Context(), params)
	if errors.Is(err, ErrMissingFields) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("failed to create purchase request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create purchase request"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": req})
}

// listRequests handles GET /api/v1/purchase-requests?issuer=...|buyer=...
func (h *Handler) listRequests(c *gin.Context) {
	issuer := c.Query("issuer")
	buyer := c.Query("buyer")

	var (
		requests []PurchaseRequest
		err      error
	)
	switch {
	case issuer != "":
		requests, err = h.service.PendingForIssuer(c.Request.Context(), issuer)
	case buyer != "":
		requests, err = h.service.ForBuyer(c.Request.Context(), buyer)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing issuer or buyer parameter"})
		return
	}
	if err != nil {
		h.logger.Error("failed to list purchase requests", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch purchase requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// getRequest handles GET /api/v1/purchase-requests/:id
func (h *Handler) getRequest(c *gin.Context) {
	req, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "purchase request not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to fetch purchase request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch purchase request"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req})
}

// getFulfillment handles GET /api/v1/purchase-requests/:id/fulfillment.
// Issuer-only: disclosing the fulfillment is what releases the escrow.
func (h *Handler) getFulfillment(c *gin.Context) {
	req, ok := h.ownedRequest(c, auth.AddressFromContext(c))
	if !ok {
		return
	}

	condition, fulfillment, err := h.service.Fulfillment(c.Request.Context(), req.ID)
	if errors.Is(err, ErrInvalidTransition) {
		c.JSON(http.StatusConflict, gin.H{"error": "request has not been approved yet"})
		return
	}
	if err != nil {
		h.logger.Error("failed to fetch fulfillment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch fulfillment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"fulfillment": fulfillment, "condition": condition})
}

// approve handles POST /api/v1/purchase-requests/:id/approve
func (h *Handler) approve(c *gin.Context) {
	req, ok := h.ownedRequest(c, auth.AddressFromContext(c))
	if !ok {
		return
	}
	var body transitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, fulfillment, err := h.service.Approve(c.Request.Context(), req.ID, body.Version)
	if h.handleTransitionError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"request":     updated,
		"fulfillment": fulfillment,
	})
}

// markEscrowCreated handles POST /api/v1/purchase-requests/:id/escrow
func (h *Handler) markEscrowCreated(c *gin.Context) {
	req, ok := h.buyerOwnedRequest(c, auth.AddressFromContext(c))
	if !ok {
		return
	}
	var body transitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.MarkEscrowCreated(c.Request.Context(), req.ID, body.Version, body.EscrowSequence, body.TxHash)
	if h.handleTransitionError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": updated})
}

// markPaid handles POST /api/v1/purchase-requests/:id/paid
func (h *Handler) markPaid(c *gin.Context) {
	req, ok := h.buyerOwnedRequest(c, auth.AddressFromContext(c))
	if !ok {
		return
	}
	var body transitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.MarkPaid(c.Request.Context(), req.ID, body.Version, body.TxHash)
	if h.handleTransitionError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": updated})
}

// complete handles POST /api/v1/purchase-requests/:id/complete
func (h *Handler) complete(c *gin.Context) {
	req, ok := h.ownedRequest(c, auth.AddressFromContext(c))
	if !ok {
		return
	}
	var body transitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.Complete(c.Request.Context(), req.ID, body.Version, body.TxHash)
	if h.handleTransitionError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": updated})
}

// cancel handles POST /api/v1/purchase-requests/:id/cancel. Either side may
// abort, nobody else.
func (h *Handler) cancel(c *gin.Context) {
	req, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "purchase request not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to fetch purchase request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch purchase request"})
		return
	}
	caller := auth.AddressFromContext(c)
	if caller != req.BuyerAddress && caller != req.IssuerAddress {
		c.JSON(http.StatusForbidden, gin.H{"error": "request belongs to a different wallet"})
		return
	}

	var body transitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.Cancel(c.Request.Context(), req.ID, body.Version)
	if h.handleTransitionError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": updated})
}

// ownedRequest loads the request and verifies the caller is its issuer
func (h *Handler) ownedRequest(c *gin.Context, issuerAddress string) (*PurchaseRequest, bool) {
	req, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "purchase request not found"})
		return nil, false
	}
	if err != nil {
		h.logger.Error("failed to fetch purchase request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch purchase request"})
		return nil, false
	}
	if req.IssuerAddress != issuerAddress {
		c.JSON(http.StatusForbidden, gin.H{"error": "request belongs to a different issuer"})
		return nil, false
	}
	return req, true
}

// buyerOwnedRequest loads the request and verifies the caller is its buyer
func (h *Handler) buyerOwnedRequest(c *gin.Context, buyerAddress string) (*PurchaseRequest, bool) {
	req, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "purchase request not found"})
		return nil, false
	}
	if err != nil {
		h.logger.Error("failed to fetch purchase request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch purchase request"})
		return nil, false
	}
	if req.BuyerAddress != buyerAddress {
		c.JSON(http.StatusForbidden, gin.H{"error": "request belongs to a different buyer"})
		return nil, false
	}
	return req, true
}

func (h *Handler) handleTransitionError(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "purchase request not found"})
	case errors.Is(err, ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "purchase request was modified concurrently, refetch and retry"})
	case errors.Is(err, ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("purchase request transition failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "purchase request transition failed"})
	}
	return true
}
