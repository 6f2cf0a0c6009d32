package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveWith(mw gin.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	engine := gin.New()
	engine.Use(mw)
	engine.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequestIDGenerated(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	w := serveWith(RequestID(), req)

	id := w.Header().Get("X-Request-ID")
	require.NotEmpty(t, id)
	assert.Len(t, id, 36) // uuid format
}

func TestRequestIDPreservesClientHeader(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "upstream-77")
	w := serveWith(RequestID(), req)

	assert.Equal(t, "upstream-77", w.Header().Get("X-Request-ID"))
}

func TestRequestIDStoredInContext(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())

	var seen string
	engine.GET("/ping", func(c *gin.Context) {
		seen = c.GetString("request_id")
		c.Status(http.StatusOK)
	})

	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	engine.ServeHTTP(httptest.NewRecorder(), req)

	assert.NotEmpty(t, seen)
}

func corsRequest(origin string) *http.Request {
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestCORSEmptyWhitelistSetsNoHeaders(t *testing.T) {
	w := serveWith(CORS(), corsRequest("https://evil.example"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAllowsListedOrigin(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://app.example", "https://admin.example"}

	for _, origin := range cfg.AllowOrigins {
		w := serveWith(CORSWithConfig(cfg), corsRequest(origin))
		assert.Equal(t, origin, w.Header().Get("Access-Control-Allow-Origin"), origin)
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"), origin)
	}
}

func TestCORSRejectsUnlistedOrigin(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://app.example"}

	w := serveWith(CORSWithConfig(cfg), corsRequest("https://other.example"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcard(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"*"}

	w := serveWith(CORSWithConfig(cfg), corsRequest("https://anywhere.example"))

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	// credentials must not accompany a wildcard origin
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSPreflight(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://app.example"}
	cfg.MaxAge = time.Hour

	engine := gin.New()
	engine.Use(CORSWithConfig(cfg))

	req, _ := http.NewRequest(http.MethodOptions, "/anything", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORSPreflightUnknownOriginStill204(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://app.example"}

	engine := gin.New()
	engine.Use(CORSWithConfig(cfg))

	req, _ := http.NewRequest(http.MethodOptions, "/anything", nil)
	req.Header.Set("Origin", "https://other.example")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecureDefaultHeaders(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	w := serveWith(Secure(), req)

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.Contains(t, w.Header().Get("Permissions-Policy"), "camera=()")
	// HSTS requires HTTPS, so the default leaves it off
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestSecureHSTS(t *testing.T) {
	cfg := DefaultSecurityConfig()
	cfg.HSTSEnabled = true
	cfg.HSTSPreload = true

	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	w := serveWith(SecureWithConfig(cfg), req)

	hsts := w.Header().Get("Strict-Transport-Security")
	assert.Equal(t, "max-age=31536000; includeSubDomains; preload", hsts)
}

func TestSecureDisabledSections(t *testing.T) {
	cfg := DefaultSecurityConfig()
	cfg.CSPEnabled = false
	cfg.PermissionsPolicyEnabled = false

	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	w := serveWith(SecureWithConfig(cfg), req)

	assert.Empty(t, w.Header().Get("Content-Security-Policy"))
	assert.Empty(t, w.Header().Get("Permissions-Policy"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
