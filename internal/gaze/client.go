package gaze

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultSampleRate = 15
	defaultMaxSamples = 300
	defaultTimeout    = 3 * time.Minute
)

// Client talks to a face landmark service over HTTP. The service decodes the
// video, samples frames at the requested cadence and returns one gaze sample
// per analyzed frame.
type Client struct {
	HTTPClient *http.Client

	baseURL    string
	sampleRate int
	maxSamples int
	logger     *zap.Logger
}

// ClientOptions configure the tracking client. Zero values select defaults.
type ClientOptions struct {
	// SampleRate asks the service to analyze every Nth frame.
	SampleRate int
	// MaxSamples caps the number of analyzed frames per video.
	MaxSamples int
	Timeout    time.Duration
}

func NewClient(baseURL string, opts ClientOptions, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	sampleRate := opts.SampleRate
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	maxSamples := opts.MaxSamples
	if maxSamples <= 0 {
		maxSamples = defaultMaxSamples
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		sampleRate: sampleRate,
		maxSamples: maxSamples,
		logger:     logger,
	}
}

type analyzeResponse struct {
	Samples []Sample `json:"samples"`
}

// Analyze uploads the video and reduces the returned samples to Metrics.
func (c *Client) Analyze(ctx context.Context, mediaPath string) (*Metrics, error) {
	file, err := os.Open(mediaPath)
	if err != nil {
		return nil, fmt.Errorf("open media file: %w", err)
	}
	defer file.Close()

	pipeReader, pipeWriter := io.Pipe()
	form := multipart.NewWriter(pipeWriter)

	go func() {
		err := writeAnalyzeForm(form, file, filepath.Base(mediaPath), c.sampleRate, c.maxSamples)
		pipeWriter.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", pipeReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	c.logger.Debug("gaze analysis request",
		zap.String("media", mediaPath),
		zap.Int("sample_rate", c.sampleRate),
	)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gaze service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gaze service: bad status: %s", resp.Status)
	}

	var parsed analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode gaze response: %w", err)
	}

	metrics, err := Reduce(parsed.Samples)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("gaze analysis complete",
		zap.Int("samples", metrics.Samples),
		zap.Int("face_samples", metrics.FaceSamples),
		zap.Float64("attentiveness", metrics.Attentiveness),
	)

	return metrics, nil
}

func writeAnalyzeForm(form *multipart.Writer, file io.Reader, filename string, sampleRate, maxSamples int) error {
	if err := form.WriteField("sample_rate", strconv.Itoa(sampleRate)); err != nil {
		return err
	}
	if err := form.WriteField("max_samples", strconv.Itoa(maxSamples)); err != nil {
		return err
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
