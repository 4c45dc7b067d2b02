package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"tiktok-autoposter/domain/dto"
	"tiktok-autoposter/infrastructure/logger"
)

// defaultChunkSize is the starting chunk size for uploads, 10 MiB.
const defaultChunkSize int64 = 10 * 1024 * 1024

var (
	// ErrUploadInit is returned when the upload init call is rejected.
	ErrUploadInit = errors.New("failed to initialize upload")
	// ErrChunkUpload is returned when any chunk PUT falls outside 2xx.
	ErrChunkUpload = errors.New("failed to upload chunk")
)

// uploadSession holds the state of one chunked upload: the declared layout
// and the URL the init call handed back. The protocol requires an exact chunk
// count up front, so the chunk size is chosen to divide the file evenly.
type uploadSession struct {
	client          *Client
	videoPath       string
	videoSize       int64
	chunkSize       int64
	totalChunkCount int64
	uploadURL       string
}

// UploadVideo uploads the file at videoPath as a self-only post titled with
// the trimmed description. Steps run strictly in sequence: init, then one PUT
// per chunk. A failed chunk fails the whole upload; there is no resumption.
func (c *Client) UploadVideo(ctx context.Context, videoPath, description, accessToken string) error {
	session, err := c.newUploadSession(videoPath)
	if err != nil {
		return err
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"videoPath":       videoPath,
		"videoSize":       session.videoSize,
		"chunkSize":       session.chunkSize,
		"totalChunkCount": session.totalChunkCount,
	}).Info("Starting video upload process")

	if err := session.initialize(ctx, description, accessToken); err != nil {
		return err
	}
	if err := session.uploadChunks(ctx); err != nil {
		return err
	}
	logger.GetLogger().Info("Video uploaded successfully")
	return nil
}

func (c *Client) newUploadSession(videoPath string) (*uploadSession, error) {
	info, err := os.Stat(videoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat video file %s: %w", videoPath, err)
	}
	size := info.Size()
	if size == 0 {
		return nil, fmt.Errorf("video file %s is empty", videoPath)
	}
	chunkSize := computeChunkSize(size)
	return &uploadSession{
		client:          c,
		videoPath:       videoPath,
		videoSize:       size,
		chunkSize:       chunkSize,
		totalChunkCount: size / chunkSize,
	}, nil
}

// computeChunkSize starts at 10 MiB and decrements until the file size is
// evenly divisible, so the declared chunk count is exact and no undersized
// final chunk exists.
func computeChunkSize(videoSize int64) int64 {
	chunkSize := defaultChunkSize
	for videoSize%chunkSize != 0 {
		chunkSize--
	}
	return chunkSize
}

func (s *uploadSession) initialize(ctx context.Context, description, accessToken string) error {
	initReq := dto.UploadInitRequest{
		PostInfo: dto.PostInfo{
			Title:                 strings.TrimSpace(description),
			PrivacyLevel:          "SELF_ONLY", // required for unaudited clients
			DisableDuet:           false,
			DisableComment:        false,
			DisableStitch:         false,
			VideoCoverTimestampMs: 1000,
		},
		SourceInfo: dto.SourceInfo{
			Source:          "FILE_UPLOAD",
			VideoSize:       s.videoSize,
			ChunkSize:       s.chunkSize,
			TotalChunkCount: s.totalChunkCount,
		},
	}
	body, err := json.Marshal(initReq)
	if err != nil {
		return fmt.Errorf("failed to encode upload init request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.cfg.BaseURL+"/v2/post/publish/video/init/", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build upload init request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	res, err := s.client.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadInit, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read upload init response: %w", err)
	}
	var initRes dto.UploadInitResponse
	if err := json.Unmarshal(data, &initRes); err != nil {
		return fmt.Errorf("failed to decode upload init response: %w", err)
	}
	if res.StatusCode != http.StatusOK || initRes.Error.Code != "ok" {
		msg := initRes.Error.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return fmt.Errorf("%w: %s", ErrUploadInit, msg)
	}

	s.uploadURL = initRes.Data.UploadURL
	logger.GetLogger().WithField("publishId", initRes.Data.PublishID).Info("Video upload initialized successfully")
	return nil
}

// uploadChunks streams the file as sequential byte-range PUTs. No parallel
// chunks, no partial-chunk retry.
func (s *uploadSession) uploadChunks(ctx context.Context) error {
	file, err := os.Open(s.videoPath)
	if err != nil {
		return fmt.Errorf("failed to open video file %s: %w", s.videoPath, err)
	}
	defer file.Close()

	chunk := make([]byte, s.chunkSize)
	for i := int64(0); i < s.totalChunkCount; i++ {
		if _, err := io.ReadFull(file, chunk); err != nil {
			return fmt.Errorf("failed to read chunk %d: %w", i+1, err)
		}
		if err := s.putChunk(ctx, i, chunk); err != nil {
			return err
		}
	}
	logger.GetLogger().Info("All chunks uploaded successfully")
	return nil
}

func (s *uploadSession) putChunk(ctx context.Context, index int64, chunk []byte) error {
	contentRange := fmt.Sprintf("bytes %d-%d/%d", index*s.chunkSize, (index+1)*s.chunkSize-1, s.videoSize)
	logger.GetLogger().WithFields(map[string]interface{}{
		"chunk": fmt.Sprintf("%d/%d", index+1, s.totalChunkCount),
		"range": contentRange,
	}).Info("Uploading chunk")

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.uploadURL, bytes.NewReader(chunk))
	if err != nil {
		return fmt.Errorf("failed to build chunk request: %w", err)
	}
	req.Header.Set("Content-Type", "video/mp4")
	req.Header.Set("Content-Range", contentRange)
	req.ContentLength = int64(len(chunk))

	res, err := s.client.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrChunkUpload, err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%w: chunk %d/%d returned status %d", ErrChunkUpload, index+1, s.totalChunkCount, res.StatusCode)
	}
	return nil
}
