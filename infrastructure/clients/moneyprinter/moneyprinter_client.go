package moneyprinter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"tiktok-autoposter/domain/dto"
	"tiktok-autoposter/domain/model"
	"tiktok-autoposter/domain/repository"
	"tiktok-autoposter/infrastructure/logger"
)

// ErrGenerationTimeout is returned when a render task does not complete
// within the configured wall-clock timeout.
var ErrGenerationTimeout = errors.New("timeout reached while waiting for video generation")

// taskStateComplete is the generation backend's terminal success state.
const taskStateComplete = 1

// RequestError carries a non-success response from the generation backend.
type RequestError struct {
	Operation string
	Status    int
	Body      string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("generation request %s failed with status %d: %s", e.Operation, e.Status, e.Body)
}

// Config holds the generation backend location and polling cadence.
type Config struct {
	Host         string
	StorageDir   string
	PollInterval time.Duration
	Timeout      time.Duration
}

// Client drives the generation backend's script/terms/render/poll sequence.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) repository.IVideoGenerator {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Minute
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

// GenerateScript requests a script body for the subject.
func (c *Client) GenerateScript(ctx context.Context, subject, language string) (string, error) {
	req := dto.ScriptRequest{
		VideoSubject:    subject,
		VideoLanguage:   language,
		ParagraphNumber: 1,
	}
	var res dto.ScriptResponse
	if err := c.postJSON(ctx, "scripts", req, &res); err != nil {
		return "", err
	}
	logger.GetLogger().WithField("subject", subject).Info("Script generated successfully")
	return res.Data.VideoScript, nil
}

// GenerateTerms requests stock-footage search terms for the script.
func (c *Client) GenerateTerms(ctx context.Context, subject, script string) ([]string, error) {
	req := dto.TermsRequest{
		VideoSubject: subject,
		VideoScript:  script,
		Amount:       7,
	}
	var res dto.TermsResponse
	if err := c.postJSON(ctx, "terms", req, &res); err != nil {
		return nil, err
	}
	logger.GetLogger().WithField("terms", len(res.Data.VideoTerms)).Info("Terms generated successfully")
	return res.Data.VideoTerms, nil
}

// RequestVideo submits the render job and returns its task id.
func (c *Client) RequestVideo(ctx context.Context, subject, script string, terms []string, account *model.Account) (string, error) {
	req := dto.VideoRequest{
		VideoSubject:        subject,
		VideoScript:         script,
		VideoTerms:          strings.Join(terms, ", "),
		VideoAspect:         account.VideoAspect,
		VideoConcatMode:     account.VideoConcatMode,
		VideoClipDuration:   account.VideoClipDuration,
		VideoCount:          account.VideoCount,
		VideoSource:         account.VideoSource,
		VideoMaterials:      account.VideoMaterials,
		VideoLanguage:       account.VideoLanguage,
		VoiceName:           account.VoiceName,
		VoiceVolume:         account.VoiceVolume,
		VoiceRate:           account.VoiceRate,
		BgmType:             account.BgmType,
		BgmFile:             account.BgmFile,
		BgmVolume:           account.BgmVolume,
		SubtitleEnabled:     account.SubtitleEnabled,
		SubtitlePosition:    account.SubtitlePosition,
		CustomPosition:      account.CustomPosition,
		FontName:            account.FontName,
		TextForeColor:       account.TextForeColor,
		TextBackgroundColor: account.TextBackgroundColor,
		FontSize:            account.FontSize,
		StrokeColor:         account.StrokeColor,
		StrokeWidth:         account.StrokeWidth,
		NThreads:            account.NThreads,
		ParagraphNumber:     account.ParagraphNumber,
	}
	var res dto.VideoResponse
	if err := c.postJSON(ctx, "videos", req, &res); err != nil {
		return "", err
	}
	logger.GetLogger().WithField("taskId", res.Data.TaskID).Info("Video generation request successful")
	return res.Data.TaskID, nil
}

// WaitForTask polls the task status until it completes or the timeout
// elapses. Only the status check is retried, never the render request.
func (c *Client) WaitForTask(ctx context.Context, taskID string) error {
	deadline := time.Now().Add(c.cfg.Timeout)
	for {
		var res dto.TaskResponse
		if err := c.getJSON(ctx, "tasks/"+taskID, &res); err != nil {
			return err
		}
		if res.Data.State == taskStateComplete {
			logger.GetLogger().WithField("taskId", taskID).Info("Video generation complete")
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: task %s", ErrGenerationTimeout, taskID)
		}
		logger.GetLogger().WithFields(map[string]interface{}{
			"taskId": taskID,
			"state":  res.Data.State,
		}).Info("Video generation in progress, waiting before next check")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
	}
}

// GenerateForAccount runs the full generation job for one account and returns
// the expected output path and a human-readable description.
func (c *Client) GenerateForAccount(ctx context.Context, account *model.Account) (*dto.GeneratedVideo, error) {
	if len(account.VideoSubjects) == 0 {
		return nil, errors.New("account has no video subjects configured")
	}
	subject := account.VideoSubjects[rand.Intn(len(account.VideoSubjects))]
	logger.GetLogger().WithFields(map[string]interface{}{
		"subject":  subject,
		"language": account.VideoLanguage,
	}).Info("Selected video subject")

	script, err := c.GenerateScript(ctx, subject, account.VideoLanguage)
	if err != nil {
		return nil, err
	}
	terms, err := c.GenerateTerms(ctx, subject, script)
	if err != nil {
		return nil, err
	}
	taskID, err := c.RequestVideo(ctx, subject, script, terms, account)
	if err != nil {
		return nil, err
	}
	if err := c.WaitForTask(ctx, taskID); err != nil {
		return nil, err
	}

	// The backend writes its render output to a well-known location per task.
	return &dto.GeneratedVideo{
		TaskID:      taskID,
		Path:        filepath.Join(c.cfg.StorageDir, "tasks", taskID, "final-1.mp4"),
		Description: fmt.Sprintf("%s - A short video created using AI tools.", subject),
	}, nil
}

func (c *Client) postJSON(ctx context.Context, operation string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", operation, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(operation), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, operation, out)
}

func (c *Client) getJSON(ctx context.Context, operation string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(operation), nil)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", operation, err)
	}
	return c.do(req, operation, out)
}

func (c *Client) do(req *http.Request, operation string, out interface{}) error {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("generation request %s failed: %w", operation, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", operation, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &RequestError{Operation: operation, Status: res.StatusCode, Body: string(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) endpoint(operation string) string {
	return fmt.Sprintf("%s/api/v1/%s", strings.TrimSuffix(c.cfg.Host, "/"), operation)
}
