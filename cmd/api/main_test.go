package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportsequip/internal/app"
	"sportsequip/internal/config"
	"sportsequip/internal/database/dbtest"
)

func TestNewServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		AppEnv:       "test",
		JWTSecret:    "test_secret_key_32_characters_min",
		JWTExpiresIn: time.Hour,
		OTPTTL:       5 * time.Minute,
		Upload:       config.UploadConfig{Path: t.TempDir(), MaxFileSize: 1 << 20, MaxFiles: 5},
		RateLimit:    config.RateLimitConfig{Window: time.Minute, Max: 100, OTPMax: 10},

		DefaultAdminPassword: "admin123",
	}
	a, err := app.New(context.Background(), app.Deps{Config: cfg, DB: dbtest.Open(t)})
	require.NoError(t, err)
	t.Cleanup(a.Close)

	srv := newServer("5000", a.Router)
	assert.Equal(t, ":5000", srv.Addr)
	assert.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)
	assert.Equal(t, 120*time.Second, srv.IdleTimeout)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
