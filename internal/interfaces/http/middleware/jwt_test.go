package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/infrastructure/auth"
	"github.com/erp/posledger/internal/infrastructure/config"
	"github.com/erp/posledger/internal/infrastructure/logger"
	"github.com/erp/posledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret: "test-secret-key-at-least-32-chars",
		Issuer: "test-issuer",
	})
}

func newTestToken(t *testing.T, jwtService *auth.JWTService, permissions ...string) (string, auth.IssueInput) {
	t.Helper()
	input := auth.IssueInput{
		TenantID:    uuid.New(),
		StoreID:     uuid.New(),
		UserID:      uuid.New(),
		Username:    "cashier",
		Permissions: permissions,
	}
	token, err := jwtService.Issue(input)
	require.NoError(t, err)
	return token, input
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return *resp.Error
}

func TestJWTAuthMiddleware_ValidTokenResolvesActor(t *testing.T) {
	jwtService := newTestJWTService()
	token, input := newTestToken(t, jwtService, string(shared.CapSaleCreate))

	var (
		actor shared.Actor
		found bool
		scope logger.Scope
	)
	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService))
	router.GET("/test", func(c *gin.Context) {
		actor, found = GetActor(c)
		scope = logger.ScopeFrom(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, found)
	assert.Equal(t, input.TenantID, actor.TenantID)
	assert.Equal(t, input.StoreID, actor.StoreID)
	assert.Equal(t, input.UserID, actor.UserID)
	assert.True(t, actor.Capabilities.Has(shared.CapSaleCreate))
	assert.False(t, actor.Capabilities.Has(shared.CapSaleVoid))
	assert.Equal(t, input.TenantID.String(), scope.TenantID)
	assert.Equal(t, input.StoreID.String(), scope.StoreID)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	jwtService := newTestJWTService()
	expired, err := jwtService.Issue(auth.IssueInput{
		TenantID: uuid.New(),
		UserID:   uuid.New(),
		TTL:      -time.Hour,
	})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", dto.ErrCodeUnauthorized},
		{"wrong scheme", "Basic abc", dto.ErrCodeUnauthorized},
		{"empty token", "Bearer ", dto.ErrCodeUnauthorized},
		{"garbage token", "Bearer not-a-jwt", dto.ErrCodeTokenInvalid},
		{"expired token", "Bearer " + expired, dto.ErrCodeTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(JWTAuthMiddleware(jwtService))
			router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	router := gin.New()
	router.Use(JWTAuthMiddleware(newTestJWTService()))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthMiddleware_CustomOnError(t *testing.T) {
	cfg := DefaultJWTConfig(newTestJWTService())
	cfg.OnError = func(c *gin.Context, err error) {
		c.AbortWithStatus(http.StatusTeapot)
	}

	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRequireCapability(t *testing.T) {
	jwtService := newTestJWTService()

	newRouter := func() *gin.Engine {
		router := gin.New()
		router.Use(JWTAuthMiddleware(jwtService))
		router.POST("/returns", RequireCapability(shared.CapReturnCreate), func(c *gin.Context) {
			c.Status(http.StatusCreated)
		})
		return router
	}

	t.Run("granted", func(t *testing.T) {
		token, _ := newTestToken(t, jwtService, "returns:*")
		req := httptest.NewRequest(http.MethodPost, "/returns", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		newRouter().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("missing capability", func(t *testing.T) {
		token, _ := newTestToken(t, jwtService, string(shared.CapSaleCreate))
		req := httptest.NewRequest(http.MethodPost, "/returns", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		newRouter().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, dto.ErrCodeForbidden, decodeError(t, rec).Code)
	})

	t.Run("no actor", func(t *testing.T) {
		router := gin.New()
		router.GET("/x", RequireCapability(shared.CapReportView), func(c *gin.Context) { c.Status(http.StatusOK) })
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGetJWTClaims_NotFound(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, GetJWTClaims(c))
	_, ok := GetActor(c)
	assert.False(t, ok)
}
