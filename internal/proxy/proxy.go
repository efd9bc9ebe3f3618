// Package proxy forwards same-origin /api/v1 calls from the browser to the backend API.
package proxy

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/southern-apparels/sa-erp/internal/audit"
	"github.com/southern-apparels/sa-erp/internal/observability"
	"github.com/southern-apparels/sa-erp/internal/platform/httpx"
)

// Failure details returned to the browser.
const (
	TimeoutDetail     = "Request timeout - operation may have completed"
	UnavailableDetail = "Backend service unavailable"
)

const authCookie = "auth_token"

// Headers never copied from the browser to the backend.
var skipRequest = map[string]bool{
	"Host":                true,
	"Connection":          true,
	"Content-Length":      true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Proxy-Connection":    true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
	// The transport negotiates compression itself and hands back plain bodies.
	"Accept-Encoding": true,
}

// Headers never copied from the backend to the browser.
var skipResponse = map[string]bool{
	"Content-Encoding":  true,
	"Transfer-Encoding": true,
	"Connection":        true,
	"Content-Length":    true,
}

// WriteObserver is told about every successful write.
type WriteObserver interface {
	AfterWrite(ctx context.Context, apiPath string)
}

// OutcomeCounter counts upstream outcomes.
type OutcomeCounter interface {
	ProxyOutcome(method, outcome string)
}

// Options wires the proxy collaborators. Only BackendURL is required.
type Options struct {
	BackendURL string
	Prefix     string
	Timeout    time.Duration
	Client     *http.Client
	Logger     *slog.Logger
	Writes     WriteObserver
	Audit      audit.Recorder
	Metrics    OutcomeCounter
	Actor      func(*http.Request) string
}

// Handler is the reverse proxy.
type Handler struct {
	base    string
	prefix  string
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger
	writes  WriteObserver
	audit   audit.Recorder
	metrics OutcomeCounter
	actor   func(*http.Request) string
}

// New builds the proxy handler.
func New(opts Options) *Handler {
	h := &Handler{
		base:    strings.TrimRight(opts.BackendURL, "/"),
		prefix:  opts.Prefix,
		timeout: opts.Timeout,
		client:  opts.Client,
		logger:  opts.Logger,
		writes:  opts.Writes,
		audit:   opts.Audit,
		metrics: opts.Metrics,
		actor:   opts.Actor,
	}
	if h.prefix == "" {
		h.prefix = "/api/v1/"
	}
	if h.timeout <= 0 {
		h.timeout = 30 * time.Second
	}
	if h.client == nil {
		h.client = &http.Client{}
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.audit == nil {
		h.audit = audit.Nop{}
	}
	return h
}

// TargetURL composes the backend URL for an incoming request.
func (h *Handler) TargetURL(r *http.Request) string {
	rest := strings.TrimPrefix(r.URL.EscapedPath(), h.prefix)
	target := h.base + "/api/v1/" + rest
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	return target
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	target := h.TargetURL(r)
	status := h.forward(w, r, target)

	if !isWrite(r.Method) {
		return
	}
	ctx := context.WithoutCancel(r.Context())
	if status >= 200 && status < 300 && h.writes != nil {
		h.writes.AfterWrite(ctx, r.URL.Path)
	}
	entry := audit.Entry{
		RequestID:  middleware.GetReqID(r.Context()),
		Method:     r.Method,
		Path:       r.URL.Path,
		Status:     status,
		Duration:   time.Since(start),
		OccurredAt: start.UTC(),
	}
	if h.actor != nil {
		entry.Actor = h.actor(r)
	}
	if err := h.audit.Record(ctx, entry); err != nil {
		h.logger.Warn("proxy audit record", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
}

// forward performs the upstream call and writes the answer. It returns the status sent
// to the browser.
func (h *Handler) forward(w http.ResponseWriter, r *http.Request, target string) int {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var body io.Reader
	if r.Method != http.MethodGet && r.Method != http.MethodHead && r.Body != nil {
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			return h.fail(w, r, target, err)
		}
		if len(payload) > 0 {
			body = bytes.NewReader(payload)
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return h.fail(w, r, target, err)
	}
	copyRequestHeaders(req.Header, r)

	resp, err := h.client.Do(req)
	if err != nil {
		return h.fail(w, r, target, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return h.fail(w, r, target, err)
	}

	dst := w.Header()
	for key, values := range resp.Header {
		if skipResponse[http.CanonicalHeaderKey(key)] {
			continue
		}
		dst[key] = append([]string(nil), values...)
	}
	w.WriteHeader(resp.StatusCode)
	if r.Method != http.MethodHead {
		if _, err := w.Write(payload); err != nil {
			h.logger.Debug("proxy write response", slog.Any("error", err))
		}
	}
	h.count(r.Method, observability.OutcomeOK)
	return resp.StatusCode
}

func copyRequestHeaders(dst http.Header, r *http.Request) {
	for key, values := range r.Header {
		if skipRequest[http.CanonicalHeaderKey(key)] {
			continue
		}
		dst[key] = append([]string(nil), values...)
	}
	if dst.Get("Authorization") == "" {
		if c, err := r.Cookie(authCookie); err == nil && c.Value != "" {
			dst.Set("Authorization", "Bearer "+c.Value)
		}
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, target string, err error) int {
	if isTimeout(err) {
		h.logger.Error("proxy upstream timeout", slog.String("target", target), slog.Any("error", err))
		h.count(r.Method, observability.OutcomeTimeout)
		httpx.Detail(w, http.StatusGatewayTimeout, TimeoutDetail)
		return http.StatusGatewayTimeout
	}
	h.logger.Error("proxy upstream error", slog.String("target", target), slog.Any("error", err))
	h.count(r.Method, observability.OutcomeUnavailable)
	httpx.Detail(w, http.StatusServiceUnavailable, UnavailableDetail)
	return http.StatusServiceUnavailable
}

func (h *Handler) count(method, outcome string) {
	if h.metrics != nil {
		h.metrics.ProxyOutcome(method, outcome)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
