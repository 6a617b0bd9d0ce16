package ledger

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler exposes read access to the ledger and relays signed transactions.
// Keys never touch the server: clients sign locally and post the blob.
type Handler struct {
	client Client
	logger *zap.Logger
}

func NewHandler(client Client, logger *zap.Logger) *Handler {
	return &Handler{client: client, logger: logger}
}

// RegisterRoutes registers ledger routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	ledger := router.Group("/ledger")
	{
		ledger.GET("/server", h.getServerState)
		ledger.GET("/accounts/:address", h.getAccount)
		ledger.GET("/accounts/:address/escrows", h.getEscrows)
		ledger.GET("/transactions/:hash", h.getTransaction)
		ledger.POST("/submit", h.submit)
	}
}

// getServerState handles GET /api/v1/ledger/server
func (h *Handler) getServerState(c *gin.Context) {
	state, err := h.client.ServerState(c.Request.Context())
	if err != nil {
		h.logger.Error("server state lookup failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to query the ledger"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"server": state})
}

// getAccount handles GET /api/v1/ledger/accounts/:address
func (h *Handler) getAccount(c *gin.Context) {
	info, err := h.client.AccountInfo(c.Request.Context(), c.Param("address"))
	if err != nil {
		h.logger.Error("account lookup failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to query the ledger"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": info})
}

// getEscrows handles GET /api/v1/ledger/accounts/:address/escrows
func (h *Handler) getEscrows(c *gin.Context) {
	escrows, err := h.client.AccountEscrows(c.Request.Context(), c.Param("address"))
	if err != nil {
		h.logger.Error("escrow lookup failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to query the ledger"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"escrows": escrows})
}

// getTransaction handles GET /api/v1/ledger/transactions/:hash
func (h *Handler) getTransaction(c *gin.Context) {
	tx, err := h.client.Tx(c.Request.Context(), c.Param("hash"))
	if err != nil {
		h.logger.Error("transaction lookup failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to query the ledger"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

type submitRequest struct {
	TxBlob string `json:"txBlob" binding:"required"`
}

// submit handles POST /api/v1/ledger/submit. Engine rejections come back as
// 422 with a classified failure kind instead of a raw node string.
func (h *Handler) submit(c *gin.Context) {
	var payload submitRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.client.Submit(c.Request.Context(), payload.TxBlob)
	var submitErr *SubmitError
	if errors.As(err, &submitErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      submitErr.Error(),
			"kind":       submitErr.Kind,
			"resultCode": submitErr.ResultCode,
		})
		return
	}
	if err != nil {
		h.logger.Error("transaction submission failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to submit to the ledger"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}
