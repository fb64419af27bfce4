package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// FailureKind classifies why a remote video could not be fetched.
type FailureKind string

const (
	FailureUnreachable FailureKind = "UNREACHABLE"
	FailureNotAVideo   FailureKind = "NOT_A_VIDEO"
	FailureTimeout     FailureKind = "TIMEOUT"
)

// Error is a fetch failure with its classified kind. The kind is part of the
// error text so it survives into per-item reasons.
type Error struct {
	Kind FailureKind
	Ref  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Handle points at a fully downloaded local media file. The file lives in its
// own temporary directory and exists until Cleanup is called.
type Handle struct {
	path string
	dir  string
}

// NewHandle wraps an existing local file. Cleanup removes only the file.
func NewHandle(path string) *Handle {
	return &Handle{path: path}
}

func (h *Handle) Path() string {
	return h.path
}

// Cleanup removes the downloaded file and its temporary directory. Safe to
// call more than once.
func (h *Handle) Cleanup() error {
	if h == nil || h.path == "" {
		return nil
	}
	err := os.Remove(h.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove media file: %w", err)
	}
	if h.dir != "" {
		// Best effort. The directory is private to this handle.
		_ = os.Remove(h.dir)
	}
	h.path = ""
	return nil
}

const (
	defaultTimeout  = 2 * time.Minute
	defaultMaxBytes = 512 << 20
)

var drivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`),
}

// ExtractFileID pulls the file id out of the usual Google Drive share link
// forms. Returns an empty string when the reference is not recognizable.
func ExtractFileID(ref string) string {
	for _, pattern := range drivePatterns {
		if m := pattern.FindStringSubmatch(ref); m != nil {
			return m[1]
		}
	}
	return ""
}

// Fetcher downloads remote interview recordings to local temporary files.
type Fetcher struct {
	HTTPClient *http.Client

	baseURL  string
	dir      string
	maxBytes int64
	logger   *zap.Logger
}

// FetcherOptions tune the fetcher. Zero values select defaults.
type FetcherOptions struct {
	// Dir is the parent directory for per-item temp directories.
	Dir string
	// Timeout bounds a single download.
	Timeout time.Duration
	// MaxBytes caps the downloaded file size.
	MaxBytes int64
	// BaseURL overrides the Google Drive download endpoint, for tests.
	BaseURL string
}

func NewFetcher(opts FetcherOptions, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://drive.google.com"
	}

	return &Fetcher{
		HTTPClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		dir:        opts.Dir,
		maxBytes:   maxBytes,
		logger:     logger,
	}
}

// Fetch resolves the share link and downloads the recording. All failures are
// returned as *Error with a classified kind. Malformed references fail before
// any network activity.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (*Handle, error) {
	id := ExtractFileID(ref)
	if id == "" {
		return nil, &Error{
			Kind: FailureUnreachable,
			Ref:  ref,
			Err:  errors.New("malformed video reference"),
		}
	}

	url := fmt.Sprintf("%s/uc?export=download&id=%s", f.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: FailureUnreachable, Ref: ref, Err: err}
	}

	f.logger.Debug("downloading video", zap.String("url", url))

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: classifyTransport(ctx, err), Ref: ref, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Kind: FailureUnreachable,
			Ref:  ref,
			Err:  fmt.Errorf("bad status: %s", resp.Status),
		}
	}

	contentType, _, _ := strings.Cut(resp.Header.Get("Content-Type"), ";")
	contentType = strings.TrimSpace(contentType)
	if !strings.HasPrefix(contentType, "video/") && contentType != "application/octet-stream" {
		return nil, &Error{
			Kind: FailureNotAVideo,
			Ref:  ref,
			Err:  fmt.Errorf("unexpected content type %q", contentType),
		}
	}

	handle, err := f.write(ctx, id, resp.Body)
	if err != nil {
		return nil, &Error{Kind: classifyTransport(ctx, err), Ref: ref, Err: err}
	}

	f.logger.Debug("video downloaded", zap.String("path", handle.Path()))

	return handle, nil
}

func (f *Fetcher) write(ctx context.Context, id string, body io.Reader) (*Handle, error) {
	dir, err := os.MkdirTemp(f.dir, "hireview-media-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	path := filepath.Join(dir, id+".mp4")
	file, err := os.Create(path)
	if err != nil {
		_ = os.Remove(dir)
		return nil, fmt.Errorf("create media file: %w", err)
	}

	written, err := io.Copy(file, io.LimitReader(body, f.maxBytes+1))
	closeErr := file.Close()

	switch {
	case err != nil:
		err = fmt.Errorf("download media: %w", err)
	case closeErr != nil:
		err = fmt.Errorf("flush media file: %w", closeErr)
	case written > f.maxBytes:
		err = fmt.Errorf("media exceeds size limit of %d bytes", f.maxBytes)
	case ctx.Err() != nil:
		err = ctx.Err()
	}

	if err != nil {
		_ = os.Remove(path)
		_ = os.Remove(dir)
		return nil, err
	}

	return &Handle{path: path, dir: dir}, nil
}

func classifyTransport(ctx context.Context, err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureUnreachable
}
