package http

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"tiktok-autoposter/domain/dto"
	"tiktok-autoposter/domain/repository"
	"tiktok-autoposter/infrastructure/accountstore"
	"tiktok-autoposter/infrastructure/configuration"
	"tiktok-autoposter/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/go-querystring/query"
)

const (
	authorizeURL = "https://www.tiktok.com/v2/auth/authorize/"
	oauthScopes  = "user.info.basic,user.info.profile,video.publish,video.upload"

	stateLength = 16
	stateTTL    = 10 * time.Minute
	stateCookie = "oauth_state"
)

const stateCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type ITikTokOAuthHandler interface {
	Authorize(ctx *gin.Context)
	Callback(ctx *gin.Context)
}

// tiktokOAuthHandler completes the authorization-code redirect flow and
// persists the resulting refresh token into the account store.
type tiktokOAuthHandler struct {
	conf     configuration.OAuthClient
	tiktok   repository.ITikTok
	accounts repository.IAccountStore

	stateMu sync.Mutex
	states  map[string]time.Time // state -> expiry
}

func NewTikTokOAuthHandler(conf configuration.OAuthClient, tiktok repository.ITikTok, accounts repository.IAccountStore) ITikTokOAuthHandler {
	return &tiktokOAuthHandler{
		conf:     conf,
		tiktok:   tiktok,
		accounts: accounts,
		states:   map[string]time.Time{},
	}
}

// randomState returns a 16-character alphanumeric CSRF token.
func randomState() string {
	b := make([]byte, stateLength)
	for i := range b {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(stateCharset))))
		b[i] = stateCharset[n.Int64()]
	}
	return string(b)
}

// Authorize handles GET /oauth/tiktok: remember a fresh state token and
// redirect the browser to TikTok's authorization page.
func (h *tiktokOAuthHandler) Authorize(c *gin.Context) {
	if h.conf.ClientKey == "" || h.conf.RedirectURI == "" {
		c.String(http.StatusInternalServerError, "TikTok OAuth is not configured")
		return
	}
	state := randomState()
	h.stateMu.Lock()
	h.states[state] = time.Now().Add(stateTTL)
	h.stateMu.Unlock()
	c.SetCookie(stateCookie, state, int(stateTTL.Seconds()), "/", "", false, true)

	params, err := query.Values(dto.AuthorizeParams{
		ClientKey:    h.conf.ClientKey,
		Scope:        oauthScopes,
		ResponseType: "code",
		RedirectURI:  h.conf.RedirectURI,
		State:        state,
	})
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to build authorization URL")
		return
	}
	c.Redirect(http.StatusFound, authorizeURL+"?"+params.Encode())
}

// Callback handles GET /oauth/tiktok/callback: validate the CSRF state,
// exchange the code for tokens, resolve the username and persist the refresh
// token into that account's file.
func (h *tiktokOAuthHandler) Callback(c *gin.Context) {
	lg := logger.GetLogger()
	code := c.Query("code")
	state := c.Query("state")

	if !h.consumeState(c, state) {
		lg.WithField("state", state).Error("State mismatch. Possible CSRF attack.")
		c.String(http.StatusBadRequest, "State mismatch. Possible CSRF attack.")
		return
	}
	lg.Info("State parameter validated successfully")

	accessToken, refreshToken, err := h.tiktok.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		lg.WithField("error", err).Error("Failed to exchange authorization code")
		c.String(http.StatusBadRequest, fmt.Sprintf("Failed to get access token: %v", err))
		return
	}

	username, err := h.tiktok.GetUsername(c.Request.Context(), accessToken)
	if err != nil {
		lg.WithField("error", err).Error("Failed to retrieve TikTok username")
		c.String(http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve TikTok username: %v", err))
		return
	}
	lg.WithField("username", username).Info("Retrieved TikTok username")

	if err := h.accounts.UpdateRefreshToken(username, refreshToken); err != nil {
		if errors.Is(err, accountstore.ErrAccountNotFound) {
			lg.WithField("account", username).Error("Account file not found")
			c.String(http.StatusInternalServerError, fmt.Sprintf("Account file not found: %s", username))
			return
		}
		lg.WithField("error", err).Error("Failed to update account JSON file")
		c.String(http.StatusInternalServerError, fmt.Sprintf("Failed to update account JSON file: %v", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

// consumeState checks the query state against the browser's cookie and the
// server-side map, expiring and deleting it either way. Both must agree.
func (h *tiktokOAuthHandler) consumeState(c *gin.Context, state string) bool {
	if state == "" {
		return false
	}
	cookie, err := c.Cookie(stateCookie)
	if err != nil || cookie != state {
		return false
	}
	h.stateMu.Lock()
	exp, ok := h.states[state]
	if ok && time.Now().After(exp) {
		ok = false
	}
	delete(h.states, state)
	h.stateMu.Unlock()
	return ok
}
