package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers auth routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/auth/login", h.login)
}

type loginRequest struct {
	Address string `json:"address" binding:"required"`
	Role    string `json:"role" binding:"required"`
}

// login handles POST /api/v1/auth/login
func (h *Handler) login(c *gin.Context) {
	var payload loginRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.service.IssueToken(payload.Address, payload.Role)
	if errors.Is(err, ErrInvalidRole) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be issuer or buyer"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"address": payload.Address,
		"role":    payload.Role,
	})
}
