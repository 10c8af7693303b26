package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deepchat/internal/config"
)

func TestNewRouterServesHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.Model.APIKey = "sk-test"

	router, st, err := newRouter(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer st.Close()

	for path, want := range map[string]string{
		"/":       `{"message": "DeepChat API is running"}`,
		"/health": `{"status": "healthy"}`,
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, want, rec.Body.String(), path)
	}
}

func TestNewRouterRejectsUnknownStore(t *testing.T) {
	cfg := config.Default()
	cfg.BasicConfig.Store = "etcd"

	_, _, err := newRouter(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "etcd")
}

func TestNewRouterRejectsUnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Provider = "nope"

	_, _, err := newRouter(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid provider")
}
