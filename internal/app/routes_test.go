package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/villastay/backend/config"
	"github.com/villastay/backend/internal/auth"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/metrics"
)

func testApp() *App {
	gin.SetMode(gin.TestMode)
	return &App{
		Config:  &config.Config{Server: config.ServerConfig{CORSAllowedOrigins: "*"}},
		Logger:  zap.NewNop(),
		Metrics: metrics.New(),
		JWT:     auth.NewJWTService("test-secret", 1),
	}
}

func serve(t *testing.T, router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouterPublicEndpoints(t *testing.T) {
	router := testApp().Router()

	w := serve(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(t, router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "villastay_http_request_duration_seconds")
}

func TestRouterAdminGuard(t *testing.T) {
	a := testApp()
	router := a.Router()

	w := serve(t, router, http.MethodGet, "/admin/reservations", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	guest, err := a.JWT.Generate(&models.User{ID: uuid.New(), Email: "guest@example.com", Role: models.RoleGuest})
	require.NoError(t, err)
	w = serve(t, router, http.MethodGet, "/admin/reservations", guest)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(t, router, http.MethodGet, "/reservations/mine", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
