package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"tiktok-autoposter/domain/model"
	"tiktok-autoposter/infrastructure/accountstore"
	"tiktok-autoposter/infrastructure/configuration"
)

// Mock implementations
type MockTikTok struct {
	mock.Mock
}

func (m *MockTikTok) RefreshAccessToken(ctx context.Context, account, refreshToken string) (string, error) {
	args := m.Called(ctx, account, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *MockTikTok) ExchangeCode(ctx context.Context, code string) (string, string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockTikTok) GetUsername(ctx context.Context, accessToken string) (string, error) {
	args := m.Called(ctx, accessToken)
	return args.String(0), args.Error(1)
}

func (m *MockTikTok) UploadVideo(ctx context.Context, videoPath, description, accessToken string) error {
	args := m.Called(ctx, videoPath, description, accessToken)
	return args.Error(0)
}

type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) List() ([]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAccountStore) SelectRandom() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockAccountStore) Get(name string) (*model.Account, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountStore) Save(name string, account *model.Account) error {
	args := m.Called(name, account)
	return args.Error(0)
}

func (m *MockAccountStore) UpdateRefreshToken(name, refreshToken string) error {
	args := m.Called(name, refreshToken)
	return args.Error(0)
}

var testConf = configuration.OAuthClient{
	ClientKey:    "test-key",
	ClientSecret: "test-secret",
	RedirectURI:  "https://example.com/oauth/tiktok/callback/",
}

func newCallbackRequest(state, cookie string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/oauth/tiktok/callback?code=the-code&state="+url.QueryEscape(state), nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: stateCookie, Value: cookie})
	}
	return req
}

func setupRouter(h ITikTokOAuthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/oauth/tiktok", h.Authorize)
	router.GET("/oauth/tiktok/callback", h.Callback)
	return router
}

// seedState registers a known state as if the browser had just been redirected.
func seedState(h ITikTokOAuthHandler, state string) {
	impl := h.(*tiktokOAuthHandler)
	impl.stateMu.Lock()
	impl.states[state] = time.Now().Add(stateTTL)
	impl.stateMu.Unlock()
}

func TestAuthorize_RedirectsWithState(t *testing.T) {
	handler := NewTikTokOAuthHandler(testConf, new(MockTikTok), new(MockAccountStore))
	router := setupRouter(handler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/oauth/tiktok", nil))

	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "www.tiktok.com", location.Host)
	assert.Equal(t, "/v2/auth/authorize/", location.Path)

	q := location.Query()
	assert.Equal(t, "test-key", q.Get("client_key"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "user.info.basic,user.info.profile,video.publish,video.upload", q.Get("scope"))
	assert.Equal(t, testConf.RedirectURI, q.Get("redirect_uri"))
	assert.Len(t, q.Get("state"), stateLength)

	// The state cookie mirrors the redirect's state parameter
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	var found bool
	for _, c := range cookies {
		if c.Name == stateCookie {
			assert.Equal(t, q.Get("state"), c.Value)
			found = true
		}
	}
	assert.True(t, found, "oauth_state cookie should be set")
}

func TestCallback_StateMismatch(t *testing.T) {
	tikTok := new(MockTikTok)
	handler := NewTikTokOAuthHandler(testConf, tikTok, new(MockAccountStore))
	router := setupRouter(handler)
	seedState(handler, "expectedstate001")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newCallbackRequest("forgedstate00001", "expectedstate001"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "State mismatch. Possible CSRF attack.")
	// The token exchange must never run on a CSRF failure
	tikTok.AssertNotCalled(t, "ExchangeCode", mock.Anything, mock.Anything)
}

func TestCallback_MissingCookie(t *testing.T) {
	tikTok := new(MockTikTok)
	handler := NewTikTokOAuthHandler(testConf, tikTok, new(MockAccountStore))
	router := setupRouter(handler)
	seedState(handler, "expectedstate001")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newCallbackRequest("expectedstate001", ""))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	tikTok.AssertNotCalled(t, "ExchangeCode", mock.Anything, mock.Anything)
}

func TestCallback_Success(t *testing.T) {
	tikTok := new(MockTikTok)
	tikTok.On("ExchangeCode", mock.Anything, "the-code").Return("at-1", "rt-1", nil).Once()
	tikTok.On("GetUsername", mock.Anything, "at-1").Return("alice", nil).Once()

	accounts := new(MockAccountStore)
	accounts.On("UpdateRefreshToken", "alice", "rt-1").Return(nil).Once()

	handler := NewTikTokOAuthHandler(testConf, tikTok, accounts)
	router := setupRouter(handler)
	seedState(handler, "expectedstate001")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newCallbackRequest("expectedstate001", "expectedstate001"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"access_token":"at-1","refresh_token":"rt-1"}`, w.Body.String())

	tikTok.AssertExpectations(t)
	accounts.AssertExpectations(t)
}

func TestCallback_StateNotReusable(t *testing.T) {
	tikTok := new(MockTikTok)
	tikTok.On("ExchangeCode", mock.Anything, "the-code").Return("at-1", "rt-1", nil).Once()
	tikTok.On("GetUsername", mock.Anything, "at-1").Return("alice", nil).Once()

	accounts := new(MockAccountStore)
	accounts.On("UpdateRefreshToken", "alice", "rt-1").Return(nil).Once()

	handler := NewTikTokOAuthHandler(testConf, tikTok, accounts)
	router := setupRouter(handler)
	seedState(handler, "expectedstate001")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newCallbackRequest("expectedstate001", "expectedstate001"))
	require.Equal(t, http.StatusOK, w.Code)

	// Replaying the same callback must fail: the state was consumed
	w = httptest.NewRecorder()
	router.ServeHTTP(w, newCallbackRequest("expectedstate001", "expectedstate001"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallback_ExchangeFails(t *testing.T) {
	tikTok := new(MockTikTok)
	tikTok.On("ExchangeCode", mock.Anything, "the-code").
		Return("", "", fmt.Errorf("token endpoint returned status 400: Authorization code expired")).Once()

	handler := NewTikTokOAuthHandler(testConf, tikTok, new(MockAccountStore))
	router := setupRouter(handler)
	seedState(handler, "expectedstate001")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newCallbackRequest("expectedstate001", "expectedstate001"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to get access token")
}

func TestCallback_AccountFileNotFound(t *testing.T) {
	tikTok := new(MockTikTok)
	tikTok.On("ExchangeCode", mock.Anything, "the-code").Return("at-1", "rt-1", nil).Once()
	tikTok.On("GetUsername", mock.Anything, "at-1").Return("mallory", nil).Once()

	accounts := new(MockAccountStore)
	accounts.On("UpdateRefreshToken", "mallory", "rt-1").
		Return(fmt.Errorf("%w: /mnt/accounts/mallory.json", accountstore.ErrAccountNotFound)).Once()

	handler := NewTikTokOAuthHandler(testConf, tikTok, accounts)
	router := setupRouter(handler)
	seedState(handler, "expectedstate001")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newCallbackRequest("expectedstate001", "expectedstate001"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Account file not found")
}

func TestCallback_UsernameLookupFails(t *testing.T) {
	tikTok := new(MockTikTok)
	tikTok.On("ExchangeCode", mock.Anything, "the-code").Return("at-1", "rt-1", nil).Once()
	tikTok.On("GetUsername", mock.Anything, "at-1").Return("", fmt.Errorf("user info request failed")).Once()

	handler := NewTikTokOAuthHandler(testConf, tikTok, new(MockAccountStore))
	router := setupRouter(handler)
	seedState(handler, "expectedstate001")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newCallbackRequest("expectedstate001", "expectedstate001"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to retrieve TikTok username")
}
