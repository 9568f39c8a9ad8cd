package router

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-route-planner/config"
	"github.com/FACorreiaa/go-route-planner/internal/api/auth"
	"github.com/FACorreiaa/go-route-planner/internal/container"
	"github.com/FACorreiaa/go-route-planner/internal/types"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT = config.JWTConfig{
		SecretKey:      "router-test-secret",
		Issuer:         "go-route-planner",
		Audience:       "go-route-planner-users",
		AccessTokenTTL: time.Hour,
	}
	cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	return cfg
}

func setupRouterTest(t *testing.T, generateLimit int) (http.Handler, pgxmock.PgxPoolIface, *config.Config) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	cfg := testConfig()
	c := container.Wire(cfg, mockPool, slog.New(slog.DiscardHandler))
	r := SetupRouter(&Config{
		AuthHandler:            c.AuthHandler,
		PlacesHandler:          c.PlacesHandler,
		WeatherHandler:         c.WeatherHandler,
		DirectionsHandler:      c.DirectionsHandler,
		RouteHandler:           c.RouteHandler,
		AuthenticateMiddleware: c.Authenticate,
		AllowedOrigins:         cfg.Server.AllowedOrigins,
		GenerateRateLimit:      generateLimit,
	})
	return r, mockPool, cfg
}

func TestPing(t *testing.T) {
	r, _, _ := setupRouterTest(t, 0)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pong", rr.Body.String())
}

func TestSavedRoutesRequireToken(t *testing.T) {
	r, mockPool, cfg := setupRouterTest(t, 0)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/routes/saved", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	userID := uuid.New()
	token, _, err := auth.IssueAccessToken(cfg.JWT, types.User{ID: userID, Email: "a@b.co"}, time.Now())
	require.NoError(t, err)
	mockPool.ExpectQuery("FROM routes WHERE user_id").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "name", "route_type", "total_budget", "total_duration",
			"transportation_mode", "city", "steps", "is_favorite", "created_at", "updated_at"}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/routes/saved", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestUserLookupsRequireToken(t *testing.T) {
	r, mockPool, cfg := setupRouterTest(t, 0)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/users/check?email=a@b.co", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	token, _, err := auth.IssueAccessToken(cfg.JWT, types.User{ID: uuid.New(), Email: "a@b.co"}, time.Now())
	require.NoError(t, err)
	now := time.Now()
	mockPool.ExpectQuery("FROM users WHERE email").
		WithArgs("a@b.co").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at", "updated_at"}).
			AddRow(uuid.New(), "ana", "a@b.co", "hash", now, now))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/check?email=a@b.co", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"email":"a@b.co","exists":true}`, rr.Body.String())
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestGenerateIsRateLimited(t *testing.T) {
	r, _, _ := setupRouterTest(t, 2)

	codes := make([]int, 0, 3)
	for range 3 {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/routes/generate", bytes.NewBufferString(`{}`)))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)
}

func TestCORSPreflight(t *testing.T) {
	r, _, _ := setupRouterTest(t, 0)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/routes/generate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/routes/generate", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
