package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout = 5 * time.Minute

	// Segments with a unique-word ratio below this are treated as engine
	// hallucinations and dropped.
	minUniqueWordRatio = 0.3
	minSegmentLength   = 3
)

// Client talks to a Whisper-compatible transcription server over HTTP.
type Client struct {
	HTTPClient *http.Client

	baseURL  string
	language string
	logger   *zap.Logger
}

// ClientOptions configure the transcription client.
type ClientOptions struct {
	// Language hints the spoken language to the engine. Empty means
	// auto-detect.
	Language string
	Timeout  time.Duration
}

func NewClient(baseURL string, opts ClientOptions, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   opts.Language,
		logger:     logger,
	}
}

type transcribeResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe uploads the media file and reassembles the transcript from the
// returned segments, filtering out hallucinated and near-empty fragments.
func (c *Client) Transcribe(ctx context.Context, mediaPath string) (string, error) {
	file, err := os.Open(mediaPath)
	if err != nil {
		return "", fmt.Errorf("open media file: %w", err)
	}
	defer file.Close()

	pipeReader, pipeWriter := io.Pipe()
	form := multipart.NewWriter(pipeWriter)

	go func() {
		err := c.writeForm(form, file, filepath.Base(mediaPath))
		pipeWriter.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", pipeReader)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	c.logger.Debug("transcription request", zap.String("media", mediaPath))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription service: bad status: %s", resp.Status)
	}

	var parsed transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}

	transcript := assemble(parsed)

	c.logger.Debug("transcription complete",
		zap.String("language", parsed.Language),
		zap.Int("segments", len(parsed.Segments)),
		zap.Int("characters", len(transcript)),
	)

	return transcript, nil
}

func (c *Client) writeForm(form *multipart.Writer, file io.Reader, filename string) error {
	if c.language != "" {
		if err := form.WriteField("language", c.language); err != nil {
			return err
		}
	}

	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}

	return form.Close()
}

func assemble(resp transcribeResponse) string {
	if len(resp.Segments) == 0 {
		return strings.TrimSpace(resp.Text)
	}

	parts := make([]string, 0, len(resp.Segments))
	for _, segment := range resp.Segments {
		text := strings.TrimSpace(segment.Text)
		if keepSegment(text) {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " ")
}

// keepSegment rejects fragments too short to carry content and segments that
// look like looped engine output.
func keepSegment(text string) bool {
	if len(text) < minSegmentLength {
		return false
	}

	words := strings.Fields(text)
	if len(words) <= 5 {
		return true
	}

	unique := make(map[string]struct{}, len(words))
	for _, word := range words {
		unique[strings.ToLower(word)] = struct{}{}
	}

	return float64(len(unique))/float64(len(words)) >= minUniqueWordRatio
}
