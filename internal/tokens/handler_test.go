package tokens

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carbon-exchange/marketplace-backend/internal/auth"
)

func setupTokensRouter(t *testing.T, repo Repository, address, role string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	protected := api.Group("")
	protected.Use(func(c *gin.Context) {
		c.Set(auth.ContextAddress, address)
		c.Set(auth.ContextRole, role)
		c.Next()
	})
	service := NewService(repo, zap.NewNop())
	NewHandler(service, nil, zap.NewNop()).RegisterRoutes(api, protected)
	return router
}

func postTokenJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateTokenEndpointStampsIssuer(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "tokens.json"))
	router := setupTokensRouter(t, repo, "rIssuer", auth.RoleIssuer)

	w := postTokenJSON(router, "/api/v1/tokens", gin.H{
		"issuanceId": "MPT-1",
		// Spoofed issuer; the session address must win
		"address": "rSomeoneElse",
		"amount":  250,
		"metadata": gin.H{
			"projectName": "Reforestation",
			"creditType":  "forestry",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	stored, err := repo.GetByIssuanceID(context.Background(), "MPT-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "rIssuer", stored.IssuerAddress)
}

func TestCreateTokenEndpointRejectsBuyerRole(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "tokens.json"))
	router := setupTokensRouter(t, repo, "rBuyer", auth.RoleBuyer)

	w := postTokenJSON(router, "/api/v1/tokens", gin.H{
		"issuanceId": "MPT-1",
		"amount":     250,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRemoveTokenEndpointRejectsForeignIssuer(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRepository(filepath.Join(t.TempDir(), "tokens.json"))
	require.NoError(t, repo.Create(ctx, sampleRecord("MPT-1", time.Now())))

	other := setupTokensRouter(t, repo, "rOtherIssuer", auth.RoleIssuer)
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/tokens?issuanceId=MPT-1", nil)
	w := httptest.NewRecorder()
	other.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	stored, err := repo.GetByIssuanceID(ctx, "MPT-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.IsAvailable)

	owner := setupTokensRouter(t, repo, "rIssuer", auth.RoleIssuer)
	w = httptest.NewRecorder()
	owner.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	stored, err = repo.GetByIssuanceID(ctx, "MPT-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.IsAvailable)
}

func TestRemoveTokenEndpointUnknownIssuance(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "tokens.json"))
	router := setupTokensRouter(t, repo, "rIssuer", auth.RoleIssuer)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/tokens?issuanceId=MPT-missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTokensEndpointIsPublic(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRepository(filepath.Join(t.TempDir(), "tokens.json"))
	require.NoError(t, repo.Create(ctx, sampleRecord("MPT-1", time.Now())))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	// No session middleware on the protected group; reads must still work
	protected := api.Group("")
	NewHandler(NewService(repo, zap.NewNop()), nil, zap.NewNop()).RegisterRoutes(api, protected)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tokens", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Tokens []MintedToken `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Tokens, 1)
	assert.Equal(t, "MPT-1", resp.Tokens[0].IssuanceID)
}
