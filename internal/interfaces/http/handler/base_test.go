package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/infrastructure/logger"
	"github.com/erp/posledger/internal/interfaces/http/dto"
	"github.com/erp/posledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func testActor() shared.Actor {
	return shared.NewActor(uuid.New(), uuid.New(), uuid.New(), []string{"*"})
}

// newTestRouter returns an engine that authenticates every request as actor
func newTestRouter(actor shared.Actor) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(logger.RequestIDKey, "req-test")
		c.Set(middleware.ActorKey, actor)
		c.Next()
	})
	return router
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func dataMap(t *testing.T, resp dto.Response) map[string]any {
	t.Helper()
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return data
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.NewDomainError(shared.CodeNotFound, "Sale not found"), http.StatusNotFound, dto.ErrCodeNotFound},
		{"over return", shared.NewDomainError(shared.CodeOverReturn, "too many"), http.StatusUnprocessableEntity, dto.ErrCodeOverReturn},
		{"session conflict", shared.NewDomainError(shared.CodeSessionConflict, "open"), http.StatusConflict, dto.ErrCodeSessionConflict},
		{"forbidden", shared.NewDomainError(shared.CodeForbidden, "no"), http.StatusForbidden, dto.ErrCodeForbidden},
		{"wrapped domain error", errors.Join(errors.New("ctx"), shared.NewDomainError(shared.CodeInvalidQuantity, "bad")), http.StatusBadRequest, dto.ErrCodeInvalidQuantity},
		{"plain error", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/", func(c *gin.Context) {
				c.Set(logger.RequestIDKey, "req-1")
				h := &BaseHandler{}
				h.HandleError(c, tt.err)
			})

			w := doJSON(router, http.MethodGet, "/", nil)
			assert.Equal(t, tt.wantStatus, w.Code)

			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_InternalErrorHidesDetails(t *testing.T) {
	router := gin.New()
	router.GET("/", func(c *gin.Context) {
		(&BaseHandler{}).HandleError(c, errors.New("pq: password authentication failed"))
	})

	w := doJSON(router, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestBaseHandler_ActorRequired(t *testing.T) {
	router := gin.New()
	router.GET("/", func(c *gin.Context) {
		h := &BaseHandler{}
		if _, ok := h.actor(c); !ok {
			return
		}
		c.Status(http.StatusOK)
	})

	w := doJSON(router, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, decodeResponse(t, w).Error.Code)
}

func TestParseTime(t *testing.T) {
	ts, err := parseTime("2026-03-01T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 10, ts.Hour())

	day, err := parseTime("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, day.Day())
	assert.Equal(t, 0, day.Hour())

	_, err = parseTime("March 1st")
	assert.Error(t, err)
}
