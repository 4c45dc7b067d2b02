package repository

import "context"

// ITikTok wraps the TikTok open API: token exchange and refresh, user lookup
// and the chunked video upload protocol.
type ITikTok interface {
	// RefreshAccessToken exchanges the refresh token for an access token.
	// When TikTok rotates the refresh token, the new value is persisted into
	// the owning account's record as a side effect.
	RefreshAccessToken(ctx context.Context, account, refreshToken string) (string, error)
	// ExchangeCode trades an authorization code for an access/refresh token
	// pair (OAuth redirect flow).
	ExchangeCode(ctx context.Context, code string) (accessToken, refreshToken string, err error)
	GetUsername(ctx context.Context, accessToken string) (string, error)
	UploadVideo(ctx context.Context, videoPath, description, accessToken string) error
}
