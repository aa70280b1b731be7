// Package httpclient provides a small JSON-over-HTTP client used by the
// catalog client. It resolves relative endpoints against a base URL and
// classifies non-2xx responses into a typed APIError.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the per-request timeout when no custom http.Client is set.
const DefaultTimeout = 10 * time.Second

// APIError is the typed error for failed HTTP exchanges.
// Status is the HTTP status code, or 0 when the transport itself failed
// (DNS failure, connection refused, context cancelled).
type APIError struct {
	Message string
	Status  int
	Data    map[string]any
	// RetryAfter is the server-requested wait from the Retry-After
	// header, or 0 when the response carried none.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return "network error: " + e.Message
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// AsAPIError unwraps err into an *APIError if possible.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Options configures a single request.
type Options struct {
	// Params are appended to the endpoint as query-string pairs.
	// Empty values are skipped.
	Params map[string]string
	// Headers are set on the request verbatim.
	Headers map[string]string
	// Body is JSON-encoded for methods that carry one.
	Body any
}

// Client issues JSON requests against a base URL.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: DefaultTimeout},
	}
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, endpoint string, opts *Options, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, opts, out)
}

// Post issues a POST request and decodes the JSON response into out.
func (c *Client) Post(ctx context.Context, endpoint string, opts *Options, out any) error {
	return c.do(ctx, http.MethodPost, endpoint, opts, out)
}

// Put issues a PUT request and decodes the JSON response into out.
func (c *Client) Put(ctx context.Context, endpoint string, opts *Options, out any) error {
	return c.do(ctx, http.MethodPut, endpoint, opts, out)
}

// Patch issues a PATCH request and decodes the JSON response into out.
func (c *Client) Patch(ctx context.Context, endpoint string, opts *Options, out any) error {
	return c.do(ctx, http.MethodPatch, endpoint, opts, out)
}

// Delete issues a DELETE request and decodes the JSON response into out.
func (c *Client) Delete(ctx context.Context, endpoint string, opts *Options, out any) error {
	return c.do(ctx, http.MethodDelete, endpoint, opts, out)
}

// ResolveURL turns an endpoint into an absolute URL. Absolute endpoints
// are used as-is; relative ones are joined to the base URL.
func (c *Client) ResolveURL(endpoint string, params map[string]string) (string, error) {
	raw := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		raw = c.BaseURL + "/" + strings.TrimLeft(endpoint, "/")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}

	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			if v == "" {
				continue
			}
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, opts *Options, out any) error {
	if opts == nil {
		opts = &Options{}
	}

	target, err := c.ResolveURL(endpoint, opts.Params)
	if err != nil {
		return err
	}

	var body io.Reader
	if opts.Body != nil {
		data, marshalErr := json.Marshal(opts.Body)
		if marshalErr != nil {
			return fmt.Errorf("marshal body: %w", marshalErr)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	httpc := c.HTTP
	if httpc == nil {
		httpc = &http.Client{Timeout: DefaultTimeout}
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return &APIError{Message: err.Error(), Status: 0}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "json") {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// messageFields are checked in priority order when extracting an error
// message from a JSON error body.
var messageFields = []string{"error_message", "message", "error"}

// errorFromResponse builds an APIError from a non-2xx response.
func errorFromResponse(resp *http.Response) *APIError {
	apiErr := &APIError{
		Status:     resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		apiErr.Message = resp.Status
		return apiErr
	}

	var payload map[string]any
	if json.Unmarshal(raw, &payload) == nil {
		apiErr.Data = payload
		for _, field := range messageFields {
			if s, ok := payload[field].(string); ok && s != "" {
				apiErr.Message = s
				return apiErr
			}
		}
	}

	if resp.Status != "" {
		apiErr.Message = resp.Status
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(raw))
	return apiErr
}

// parseRetryAfter handles both Retry-After forms: delay-seconds and
// HTTP-date. Unparseable or past values yield 0.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
