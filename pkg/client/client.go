package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"imushare/pkg/models"
)

const (
	defaultRetryMax     = 3
	defaultRetryWaitMin = 100 * time.Millisecond
	defaultRetryWaitMax = 2 * time.Second
	defaultTimeout      = 2 * time.Minute

	// errorBodyLimit caps how much of a failed response is read for its message.
	errorBodyLimit = 64 * 1024
)

// Options tunes the underlying HTTP client. Zero values select defaults.
type Options struct {
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration
}

// Client talks to a share server.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Code != "" {
		return fmt.Sprintf("server returned %d: %s (%s)", e.StatusCode, e.Message, e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func New(baseURL string, opts Options) *Client {
	if opts.RetryMax < 0 {
		opts.RetryMax = 0
	} else if opts.RetryMax == 0 {
		opts.RetryMax = defaultRetryMax
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = defaultRetryWaitMin
	}
	if opts.RetryWaitMax <= 0 {
		opts.RetryWaitMax = defaultRetryWaitMax
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newRetryableClient(opts),
	}
}

func newRetryableClient(opts Options) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	client.RetryWaitMin = opts.RetryWaitMin
	client.RetryWaitMax = opts.RetryWaitMax
	client.HTTPClient.Timeout = opts.Timeout
	client.Logger = nil
	client.CheckRetry = retryPolicy
	return client
}

// retryPolicy retries only when no response arrived. Any response, error
// statuses included, is handed back to the caller as is.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if resp != nil {
		return false, nil
	}
	if err != nil {
		return true, nil //nolint:nilerr // retryablehttp reports the last error itself
	}
	return false, nil
}

// do sends the request and returns the response when its status is 2xx.
// Callers must close the body.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, contentType string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer func() { _ = resp.Body.Close() }()
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, contentType string, result interface{}) error {
	resp, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	if err != nil {
		return apiErr
	}

	var payload models.ErrorResponse
	if json.Unmarshal(data, &payload) == nil {
		apiErr.Message = payload.Error
		apiErr.Code = payload.Code
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

// IDFromLink returns the file id at the end of a link returned by Upload.
func IDFromLink(link string) string {
	link, _, _ = strings.Cut(link, "?")
	link = strings.TrimRight(link, "/")
	return link[strings.LastIndex(link, "/")+1:]
}
