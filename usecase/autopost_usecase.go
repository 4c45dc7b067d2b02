package usecase

import (
	"context"
	"fmt"

	"tiktok-autoposter/domain/repository"
	"tiktok-autoposter/infrastructure/logger"
)

// IAutoPostUsecase runs one full posting pipeline: pick an account, generate
// a video, refresh the account's token and upload.
type IAutoPostUsecase interface {
	RunOnce(ctx context.Context) error
}

type AutoPostUsecase struct {
	accounts  repository.IAccountStore
	generator repository.IVideoGenerator
	tiktok    repository.ITikTok
}

func NewAutoPostUsecase(
	accounts repository.IAccountStore,
	generator repository.IVideoGenerator,
	tiktok repository.ITikTok,
) IAutoPostUsecase {
	return &AutoPostUsecase{
		accounts:  accounts,
		generator: generator,
		tiktok:    tiktok,
	}
}

// RunOnce executes one posting run end to end. Every stage error is returned
// to the caller; the scheduler loop decides what to do with it.
func (u *AutoPostUsecase) RunOnce(ctx context.Context) error {
	username, err := u.accounts.SelectRandom()
	if err != nil {
		return fmt.Errorf("failed to select account: %w", err)
	}
	logger.GetLogger().WithField("account", username).Info("Selected a random user account")

	account, err := u.accounts.Get(username)
	if err != nil {
		return fmt.Errorf("failed to load account %s: %w", username, err)
	}

	logger.GetLogger().WithField("account", username).Info("Generating video")
	video, err := u.generator.GenerateForAccount(ctx, account)
	if err != nil {
		return fmt.Errorf("failed to generate video for %s: %w", username, err)
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"taskId":    video.TaskID,
		"videoPath": video.Path,
	}).Info("Video generated")

	// Re-read the record: generation takes long enough that the OAuth
	// callback may have rotated the token in the meantime.
	account, err = u.accounts.Get(username)
	if err != nil {
		return fmt.Errorf("failed to reload account %s: %w", username, err)
	}

	logger.GetLogger().Info("Getting access token")
	accessToken, err := u.tiktok.RefreshAccessToken(ctx, username, account.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to refresh token for %s: %w", username, err)
	}

	logger.GetLogger().Info("Uploading video to TikTok")
	if err := u.tiktok.UploadVideo(ctx, video.Path, video.Description, accessToken); err != nil {
		return fmt.Errorf("failed to upload video for %s: %w", username, err)
	}
	return nil
}
