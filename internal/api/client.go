// Package api is the HTTP client for the lectio backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alkime/lectio/internal/catalog"
	"github.com/hashicorp/go-retryablehttp"
)

var (
	// ErrUnauthorized is returned for 401 responses. Re-authentication is
	// the caller's concern.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")
)

const (
	DefaultRetries      = 3
	defaultRetryWaitMin = 200 * time.Millisecond
	defaultRetryWaitMax = 2 * time.Second
)

// Backend is everything the client needs from the server.
type Backend interface {
	ListTranslations(ctx context.Context) ([]catalog.Translation, error)
	ListVersions(ctx context.Context) ([]string, error)
	ListBooks(ctx context.Context, translationID int64) ([]catalog.Book, error)
	ListChapters(ctx context.Context, bookID int64) ([]catalog.Chapter, error)
	FetchVerseText(ctx context.Context, passage catalog.Passage) (string, error)
	FetchSummaryStats(ctx context.Context, translationID int64) (catalog.SummaryStats, error)
	SubmitRecording(ctx context.Context, sub catalog.Submission) (int64, error)
	ListRecordings(ctx context.Context, translationID int64) ([]catalog.Recording, error)
	UpdateRecording(ctx context.Context, recordingID int64, update RecordingUpdate) error
	FetchAudio(ctx context.Context, recordingID int64) (io.ReadCloser, string, error)
	DeleteRecording(ctx context.Context, recordingID int64) error
	DownloadArchive(ctx context.Context, translationID int64) (io.ReadCloser, error)
}

// StatusError is a non-2xx response other than 401 and 404.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}

	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Detail)
}

// Client talks to the backend over HTTP. Reads are retried with backoff;
// mutations are sent once.
type Client struct {
	baseURL string
	token   string

	reads  *retryablehttp.Client
	writes *retryablehttp.Client
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithRetries sets how many times a failed read is retried.
func WithRetries(n int) ClientOption {
	return func(c *Client) {
		c.reads.RetryMax = n
	}
}

// WithRetryWait sets the backoff bounds between read retries.
func WithRetryWait(lo, hi time.Duration) ClientOption {
	return func(c *Client) {
		c.reads.RetryWaitMin = lo
		c.reads.RetryWaitMax = hi
	}
}

// WithLogger routes transport logs to logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.reads.Logger = logger
		c.writes.Logger = logger
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("API URL is required")
	}

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   "",
		reads:   newTransport(DefaultRetries),
		writes:  newTransport(0),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func newTransport(retries int) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retries
	rc.RetryWaitMin = defaultRetryWaitMin
	rc.RetryWaitMax = defaultRetryWaitMax
	rc.Logger = nil
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return rc
}

// do sends a request and maps error statuses. The caller owns the body of
// a successful response.
func (c *Client) do(ctx context.Context, method, path string, body any, contentType string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	transport := c.reads
	if method != http.MethodGet {
		transport = c.writes
	}

	resp, err := transport.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to %s %s: %w", method, path, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	case http.StatusNotFound:
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	default:
		return nil, fmt.Errorf("%s %s: %w", method, path, &StatusError{
			Code:   resp.StatusCode,
			Detail: readDetail(resp.Body),
		})
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return nil
}

func readDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}

	var body struct {
		Detail any `json:"detail"`
	}

	if err := json.Unmarshal(raw, &body); err == nil && body.Detail != nil {
		if s, ok := body.Detail.(string); ok {
			return s
		}

		return fmt.Sprint(body.Detail)
	}

	return strings.TrimSpace(string(raw))
}
