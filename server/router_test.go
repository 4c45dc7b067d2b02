package server_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tiktok-autoposter/server"
)

type stubOAuthHandler struct {
	authorizeCalls int
	callbackCalls  int
}

func (s *stubOAuthHandler) Authorize(c *gin.Context) {
	s.authorizeCalls++
	c.Redirect(http.StatusFound, "https://www.tiktok.com/v2/auth/authorize/?state=x")
}

func (s *stubOAuthHandler) Callback(c *gin.Context) {
	s.callbackCalls++
	c.JSON(http.StatusOK, gin.H{"access_token": "at", "refresh_token": "rt"})
}

type stubHealthHandler struct{}

func (s *stubHealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func TestRouter_ServesLandingPageAndOAuthRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	landingDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(landingDir, "index.html"), []byte("<html>landing</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(landingDir, "style.css"), []byte("body{}"), 0o644))

	oauth := &stubOAuthHandler{}
	router := server.InitiateRouter(oauth, &stubHealthHandler{}, landingDir)

	// Landing page at /
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "landing")

	// Static asset by path
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/style.css", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "body{}")

	// OAuth routes take precedence over the static fallback
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/oauth/tiktok", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, 1, oauth.authorizeCalls)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/oauth/tiktok/callback", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, oauth.callbackCalls)

	// Health endpoint
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
