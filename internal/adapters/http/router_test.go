package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Desk/internal/adapters/signal"
	"github.com/dkeye/Desk/internal/app"
	"github.com/dkeye/Desk/internal/app/orch"
	"github.com/dkeye/Desk/internal/config"
	"github.com/dkeye/Desk/internal/domain"
	"github.com/dkeye/Desk/internal/metrics"
)

func newRouter(t *testing.T) (*gin.Engine, *orch.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	o := orch.New(app.SimplePolicy{}, m)
	cfg := &config.Config{Mode: "test", Secret: "test-secret", SendBuffer: 8}
	ctrl := signal.NewSignalWSController(o, cfg, m)
	return SetupRouter(context.Background(), cfg, o, ctrl, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})), o
}

func TestHealth(t *testing.T) {
	req := require.New(t)
	r, _ := newRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	req.Equal(http.StatusOK, w.Code)
	var body struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
		Rooms    int    `json:"rooms"`
	}
	req.NoError(sonic.Unmarshal(w.Body.Bytes(), &body))
	req.Equal("ok", body.Status)
	req.Equal(1, body.Sessions)
	req.Equal(1, body.Rooms)
}

func TestListings(t *testing.T) {
	req := require.New(t)
	r, o := newRouter(t)
	_, err := o.Register("c1", nil, "alice", domain.DefaultCursor(), "u1")
	req.NoError(err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), `"id":"global"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/global/members", nil))
	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), `"username":"alice"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/stc-missing/members", nil))
	req.Equal(http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))
	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), `"id":"lobby"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms/lobby/members", nil))
	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), `"username":"alice"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms/room-missing/members", nil))
	req.Equal(http.StatusNotFound, w.Code)
}

func TestIssueIdentity_IsStable(t *testing.T) {
	req := require.New(t)
	r, _ := newRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/identity", strings.NewReader(`{"username":"alice"}`)))
	req.Equal(http.StatusOK, w.Code)
	var first IdentityResponse
	req.NoError(sonic.Unmarshal(w.Body.Bytes(), &first))
	req.NotEmpty(first.UserID)
	cookies := w.Result().Cookies()
	req.NotEmpty(cookies)

	// Replaying the session cookie returns the same participant id
	again := httptest.NewRequest(http.MethodPost, "/api/identity", strings.NewReader(`{"username":"alice"}`))
	for _, c := range cookies {
		again.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, again)
	var second IdentityResponse
	req.NoError(sonic.Unmarshal(w.Body.Bytes(), &second))
	req.Equal(first.UserID, second.UserID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/identity", strings.NewReader(`{}`)))
	req.Equal(http.StatusBadRequest, w.Code)
}

func TestIdentityMiddleware_PlainCookie(t *testing.T) {
	req := require.New(t)
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(sessionsForTest())
	r.Use(IdentityMiddleware())
	r.GET("/who", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(signal.IdentityKey)) })

	httpReq := httptest.NewRequest(http.MethodGet, "/who", nil)
	httpReq.AddCookie(&http.Cookie{Name: "user_id", Value: "u42"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httpReq)
	req.Equal("u42", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/who", nil))
	req.Empty(w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	req := require.New(t)
	r, o := newRouter(t)
	_, err := o.Register("c1", nil, "alice", domain.DefaultCursor(), "u1")
	req.NoError(err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), "desk_connections_active 1")
}
