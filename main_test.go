package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"ruangpena/internal/config"
	"ruangpena/internal/database"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		DatabaseDriver: "sqlite",
		DatabaseDSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()),
		JWTSecret:      "test_jwt_secret",
		TokenTTL:       time.Hour,
		BcryptCost:     bcrypt.MinCost,
		ResetCodeTTL:   time.Minute,
		AuthRateLimit:  3,
		CORSOrigins:    "*",
	}
}

func setupApp(t *testing.T) *application {
	t.Helper()
	cfg := testConfig()
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	require.NoError(t, err)

	a, err := newApp(cfg, db, nil, nil)
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a
}

func TestHealth(t *testing.T) {
	a := setupApp(t)

	resp, err := a.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "disabled", body["checks"].(map[string]interface{})["rabbitmq"])
}

func TestJournalRequiresToken(t *testing.T) {
	a := setupApp(t)

	resp, err := a.app.Test(httptest.NewRequest(http.MethodGet, "/api/journal", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestMetricsEndpoint(t *testing.T) {
	a := setupApp(t)

	_, err := a.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)

	resp, err := a.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "ruangpena_http_requests_total")
}

func TestPanicsAreRecoveredAndCounted(t *testing.T) {
	a := setupApp(t)
	a.app.Get("/explode", func(c *fiber.Ctx) error { panic("kaboom") })

	for i := 0; i < 3; i++ {
		resp, err := a.app.Test(httptest.NewRequest(http.MethodGet, "/explode", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, false, body["success"])
		resp.Body.Close()
	}

	resp, err := a.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(raw), `ruangpena_http_requests_total{method="GET",path="/explode",status="500"} 3`)
	// Only the scrape itself is in flight.
	assert.Contains(t, string(raw), "ruangpena_http_inflight_requests 1")
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	a := setupApp(t)

	var last int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@b.co","password":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := a.app.Test(req, -1)
		require.NoError(t, err)
		last = resp.StatusCode
		resp.Body.Close()
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestNewAppRequiresSecret(t *testing.T) {
	cfg := testConfig()
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	require.NoError(t, err)

	cfg.JWTSecret = ""
	_, err = newApp(cfg, db, nil, nil)
	assert.Error(t, err)
}
