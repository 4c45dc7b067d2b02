package tiktok

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"tiktok-autoposter/domain/dto"
	"tiktok-autoposter/domain/repository"
	"tiktok-autoposter/infrastructure/logger"

	"github.com/google/go-querystring/query"
)

// DefaultBaseURL is TikTok's open API host.
const DefaultBaseURL = "https://open.tiktokapis.com"

var (
	// ErrTokenRefresh is returned when the token endpoint rejects a refresh.
	ErrTokenRefresh = errors.New("failed to refresh token")
	// ErrUsernameNotFound is returned when a 200 user-info response lacks the
	// username field.
	ErrUsernameNotFound = errors.New("username not found in the response")
	// ErrUserInfoRequest is returned on a non-200 user-info response.
	ErrUserInfoRequest = errors.New("user info request failed")
)

// Config holds the OAuth client credentials and API host.
type Config struct {
	ClientKey    string
	ClientSecret string
	RedirectURI  string
	BaseURL      string
}

// Client talks to TikTok's open API: token refresh, user lookup and the
// chunked upload protocol. Rotated refresh tokens are persisted through the
// account store.
type Client struct {
	cfg        Config
	accounts   repository.IAccountStore
	httpClient *http.Client
}

func NewClient(cfg Config, accounts repository.IAccountStore) repository.ITikTok {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		cfg:        cfg,
		accounts:   accounts,
		httpClient: &http.Client{},
	}
}

// RefreshAccessToken exchanges the refresh token for a new access token.
// Refresh tokens are single-use and rotating: when the response carries a
// different refresh token, the owning account's record is updated so the next
// run does not present a dead token.
func (c *Client) RefreshAccessToken(ctx context.Context, account, refreshToken string) (string, error) {
	form := url.Values{}
	form.Set("client_key", c.cfg.ClientKey)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	tokenData, err := c.exchangeToken(ctx, form)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenRefresh, err)
	}

	if tokenData.RefreshToken != "" && tokenData.RefreshToken != refreshToken {
		if err := c.persistRotatedToken(ctx, account, tokenData); err != nil {
			return "", err
		}
	}
	return tokenData.AccessToken, nil
}

// ExchangeCode trades an authorization code for tokens (OAuth redirect flow).
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, string, error) {
	form := url.Values{}
	form.Set("client_key", c.cfg.ClientKey)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", c.cfg.RedirectURI)

	tokenData, err := c.exchangeToken(ctx, form)
	if err != nil {
		return "", "", err
	}
	return tokenData.AccessToken, tokenData.RefreshToken, nil
}

func (c *Client) exchangeToken(ctx context.Context, form url.Values) (*dto.TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v2/oauth/token/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}
	var tokenData dto.TokenResponse
	if err := json.Unmarshal(body, &tokenData); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		desc := tokenData.ErrorDescription
		if desc == "" {
			desc = string(body)
		}
		return nil, fmt.Errorf("token endpoint returned status %d: %s", res.StatusCode, desc)
	}
	return &tokenData, nil
}

// persistRotatedToken resolves the owner of the new access token and writes
// the rotated refresh token into that account's file. The owner is re-derived
// from the token rather than trusted from the caller; a mismatch is logged
// loudly because it means the provider handed us a token for another account.
func (c *Client) persistRotatedToken(ctx context.Context, account string, tokenData *dto.TokenResponse) error {
	username, err := c.GetUsername(ctx, tokenData.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to resolve owner of rotated refresh token: %w", err)
	}
	if account != "" && username != account {
		logger.GetLogger().WithFields(map[string]interface{}{
			"expected": account,
			"resolved": username,
		}).Warn("Rotated refresh token resolved to a different account than requested")
	}
	if err := c.accounts.UpdateRefreshToken(username, tokenData.RefreshToken); err != nil {
		return err
	}
	logger.GetLogger().WithField("account", username).Info("Rotated refresh token persisted")
	return nil
}

// GetUsername retrieves the username owning the access token.
func (c *Client) GetUsername(ctx context.Context, accessToken string) (string, error) {
	params, err := query.Values(dto.UserInfoParams{Fields: "username"})
	if err != nil {
		return "", fmt.Errorf("failed to encode user info params: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v2/user/info/?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("user info request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read user info response: %w", err)
	}
	var info dto.UserInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("failed to decode user info response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		msg := info.Error.Message
		if msg == "" {
			msg = "No error description provided"
		}
		return "", fmt.Errorf("%w: status %d: %s", ErrUserInfoRequest, res.StatusCode, msg)
	}
	if info.Data.User.Username == "" {
		return "", ErrUsernameNotFound
	}
	return info.Data.User.Username, nil
}
