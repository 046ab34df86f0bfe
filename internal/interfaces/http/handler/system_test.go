package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping() error { return p.err }

func TestSystemHandler_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		router := gin.New()
		router.GET("/health", NewSystemHandler(stubPinger{}, "test").Health)

		w := doJSON(router, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	})

	t.Run("database down", func(t *testing.T) {
		router := gin.New()
		router.GET("/health", NewSystemHandler(stubPinger{err: errors.New("refused")}, "test").Health)

		w := doJSON(router, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"error"`)
	})
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler(stubPinger{}, "1.2.3")
	assert.False(t, h.startTime.IsZero())

	router := gin.New()
	router.GET("/system/info", h.GetSystemInfo)

	w := doJSON(router, http.MethodGet, "/system/info", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := dataMap(t, decodeResponse(t, w))
	assert.Equal(t, "POS Ledger API", data["name"])
	assert.Equal(t, "1.2.3", data["version"])
	assert.NotEmpty(t, data["go_version"])
}
