// Package backend is the gateway's REST client for the ERP API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/southern-apparels/sa-erp/internal/routes"
)

// Record is an opaque backend entity.
type Record map[string]any

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string { return e.Detail }

// StatusCode lets httpx render the backend status unchanged.
func (e *APIError) StatusCode() int { return e.Status }

// ErrUnavailable wraps transport failures: refused connections, DNS errors, timeouts.
var ErrUnavailable = &APIError{Status: 503, Detail: "Backend service unavailable"}

// Options configures the underlying transport.
type Options struct {
	Timeout         time.Duration
	DialTimeout     time.Duration
	IdleConnTimeout time.Duration
	MaxIdleConns    int
	// FollowRedirects lets the client chase 3xx answers itself. The proxy needs this:
	// a Location on the backend origin is unreachable from the browser.
	FollowRedirects bool
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 5 * time.Second
	}
	if o.IdleConnTimeout <= 0 {
		o.IdleConnTimeout = 90 * time.Second
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = 100
	}
	return o
}

// NewHTTPClient builds the pooled client shared by the REST client and the proxy.
func NewHTTPClient(opts Options) *http.Client {
	opts = opts.withDefaults()
	dialer := &net.Dialer{Timeout: opts.DialTimeout, KeepAlive: 30 * time.Second}
	client := &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         dialer.DialContext,
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        opts.MaxIdleConns,
			MaxIdleConnsPerHost: opts.MaxIdleConns / 4,
			IdleConnTimeout:     opts.IdleConnTimeout,
		},
	}
	if !opts.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}

// Client calls the backend API below BaseURL + /api/v1.
type Client struct {
	base   string
	http   *http.Client
	logger *slog.Logger
}

// NewClient constructs a REST client. baseURL is the backend origin.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(Options{})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/") + routes.APIPrefix,
		http:   httpClient,
		logger: logger,
	}
}

var successBody = json.RawMessage(`{"success":true}`)

// Do sends one request and returns the raw JSON answer. body may be nil, raw JSON
// ([]byte or json.RawMessage) or a value encoded as JSON. A 2xx answer that is not JSON
// yields {"success":true}.
func (c *Client) Do(ctx context.Context, method, path, token string, body any) (json.RawMessage, error) {
	reader, err := encodeBody(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("backend request failed", slog.String("method", method), slog.String("path", path), slog.Any("error", err))
		return nil, fmt.Errorf("backend %s %s: %w: %w", method, path, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !isJSON(resp.Header.Get("Content-Type")) {
		_, _ = io.Copy(io.Discard, resp.Body)
		if !ok {
			return nil, &APIError{
				Status: resp.StatusCode,
				Detail: fmt.Sprintf("API Error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			}
		}
		return successBody, nil
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend %s %s: read body: %w: %w", method, path, ErrUnavailable, err)
	}
	if !ok {
		return nil, &APIError{Status: resp.StatusCode, Detail: errorDetail(payload, resp.StatusCode)}
	}
	return payload, nil
}

// DoJSON is Do followed by decoding into dest. A nil dest discards the answer.
func (c *Client) DoJSON(ctx context.Context, method, path, token string, body, dest any) error {
	raw, err := c.Do(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("backend %s %s: decode: %w", method, path, err)
	}
	return nil
}

func encodeBody(body any) (io.Reader, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if len(v) == 0 {
			return nil, nil
		}
		return bytes.NewReader(v), nil
	case []byte:
		if len(v) == 0 {
			return nil, nil
		}
		return bytes.NewReader(v), nil
	case string:
		if v == "" {
			return nil, nil
		}
		return strings.NewReader(v), nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		return bytes.NewReader(raw), nil
	}
}

func isJSON(contentType string) bool {
	return strings.Contains(contentType, "application/json")
}

// errorDetail reads the FastAPI style {"detail": ...} field. Structured details are
// kept as their JSON text.
func errorDetail(payload []byte, status int) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	fallback := fmt.Sprintf("API Error: %d", status)
	if err := json.Unmarshal(payload, &body); err != nil || len(body.Detail) == 0 || string(body.Detail) == "null" {
		return fallback
	}
	var text string
	if err := json.Unmarshal(body.Detail, &text); err == nil {
		if text == "" {
			return fallback
		}
		return text
	}
	return string(body.Detail)
}
