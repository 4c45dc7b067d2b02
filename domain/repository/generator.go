package repository

import (
	"context"

	"tiktok-autoposter/domain/dto"
	"tiktok-autoposter/domain/model"
)

// IVideoGenerator drives the generation backend's multi-step job:
// script, search terms, render, then poll until the task completes.
type IVideoGenerator interface {
	GenerateScript(ctx context.Context, subject, language string) (string, error)
	GenerateTerms(ctx context.Context, subject, script string) ([]string, error)
	RequestVideo(ctx context.Context, subject, script string, terms []string, account *model.Account) (string, error)
	WaitForTask(ctx context.Context, taskID string) error

	// GenerateForAccount runs the whole job for one account, drawing the
	// subject at random from the account's configured candidates.
	GenerateForAccount(ctx context.Context, account *model.Account) (*dto.GeneratedVideo, error)
}
