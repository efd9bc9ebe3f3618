package proxy_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/southern-apparels/sa-erp/internal/audit"
	"github.com/southern-apparels/sa-erp/internal/backend"
	"github.com/southern-apparels/sa-erp/internal/proxy"
	_ "github.com/southern-apparels/sa-erp/testing"
)

type seen struct {
	method string
	uri    string
	header http.Header
	body   string
	length int64
}

func upstream(t *testing.T, got *seen, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		got.method = r.Method
		got.uri = r.URL.RequestURI()
		got.header = r.Header.Clone()
		got.body = string(payload)
		got.length = r.ContentLength
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Total-Count", "2")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`[{"id":1},{"id":2}]`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type writes struct {
	mu    sync.Mutex
	paths []string
}

func (w *writes) AfterWrite(_ context.Context, apiPath string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paths = append(w.paths, apiPath)
}

type recorder struct {
	entries []audit.Entry
}

func (r *recorder) Record(_ context.Context, e audit.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

type outcomes map[string]int

func (o outcomes) ProxyOutcome(method, outcome string) { o[method+" "+outcome]++ }

func TestForwardsPathQueryAndHeaders(t *testing.T) {
	var got seen
	srv := upstream(t, &got, http.StatusOK)
	counts := outcomes{}
	h := proxy.New(proxy.Options{BackendURL: srv.URL + "/", Metrics: counts})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/buyers/?limit=10000&q=a%20b", nil)
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("X-Custom", "1")
	req.Header.Set("Accept-Encoding", "gzip")
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "tok"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `[{"id":1},{"id":2}]`, rr.Body.String())
	assert.Equal(t, "2", rr.Header().Get("X-Total-Count"))
	assert.Empty(t, rr.Header().Get("Content-Length"))

	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/api/v1/buyers/?limit=10000&q=a%20b", got.uri)
	assert.Equal(t, "1", got.header.Get("X-Custom"))
	assert.Equal(t, "Bearer tok", got.header.Get("Authorization"))
	assert.Empty(t, got.body)
	assert.Equal(t, 1, counts["GET ok"])
}

func TestExplicitAuthorizationWins(t *testing.T) {
	var got seen
	srv := upstream(t, &got, http.StatusOK)
	h := proxy.New(proxy.Options{BackendURL: srv.URL})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer explicit")
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "cookie"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "Bearer explicit", got.header.Get("Authorization"))
}

func TestWriteForwardsBodyAndNotifies(t *testing.T) {
	var got seen
	srv := upstream(t, &got, http.StatusCreated)
	w := &writes{}
	rec := &recorder{}
	h := proxy.New(proxy.Options{
		BackendURL: srv.URL,
		Writes:     w,
		Audit:      rec,
		Actor:      func(*http.Request) string { return "alice" },
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/samples/tna", strings.NewReader(`{"sample_id":"S-1"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, `{"sample_id":"S-1"}`, got.body)
	assert.Equal(t, "application/json", got.header.Get("Content-Type"))
	assert.Equal(t, []string{"/api/v1/samples/tna"}, w.paths)

	require.Len(t, rec.entries, 1)
	entry := rec.entries[0]
	assert.Equal(t, http.MethodPost, entry.Method)
	assert.Equal(t, "/api/v1/samples/tna", entry.Path)
	assert.Equal(t, http.StatusCreated, entry.Status)
	assert.Equal(t, "alice", entry.Actor)
}

func TestFailedWriteIsAuditedButNotNotified(t *testing.T) {
	var got seen
	srv := upstream(t, &got, http.StatusBadRequest)
	w := &writes{}
	rec := &recorder{}
	h := proxy.New(proxy.Options{BackendURL: srv.URL, Writes: w, Audit: rec})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/buyers/4", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, w.paths)
	require.Len(t, rec.entries, 1)
	assert.Equal(t, http.StatusBadRequest, rec.entries[0].Status)
}

func TestTimeoutReturns504(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})
	counts := outcomes{}
	h := proxy.New(proxy.Options{BackendURL: srv.URL, Timeout: 50 * time.Millisecond, Metrics: counts})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/v1/orders/1", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusGatewayTimeout, rr.Code)
	assert.JSONEq(t, `{"detail":"Request timeout - operation may have completed"}`, rr.Body.String())
	assert.Equal(t, 1, counts["PUT timeout"])
}

func TestUnreachableBackendReturns503(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	h := proxy.New(proxy.Options{BackendURL: addr})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/buyers", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"detail":"Backend service unavailable"}`, rr.Body.String())
}

func TestTargetURL(t *testing.T) {
	h := proxy.New(proxy.Options{BackendURL: "http://backend:8000"})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/master/colors?category=fabric&is_active=true", nil)
	assert.Equal(t, "http://backend:8000/api/v1/master/colors?category=fabric&is_active=true", h.TargetURL(req))
}

func TestStripsHopByHopRequestHeaders(t *testing.T) {
	var got seen
	srv := upstream(t, &got, http.StatusOK)
	h := proxy.New(proxy.Options{BackendURL: srv.URL})

	stripped := map[string]string{
		"Keep-Alive":          "timeout=5",
		"Upgrade":             "websocket",
		"Te":                  "trailers",
		"Trailer":             "X-Checksum",
		"Proxy-Authorization": "Basic Zm9vOmJhcg==",
		"Proxy-Connection":    "keep-alive",
		"Proxy-Authenticate":  "Basic",
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/buyers", nil)
	for k, v := range stripped {
		req.Header.Set(k, v)
	}
	req.Header.Set("X-Request-Source", "dashboard")
	h.ServeHTTP(httptest.NewRecorder(), req)

	for k := range stripped {
		assert.Empty(t, got.header.Get(k), "%s must not reach the backend", k)
	}
	assert.Equal(t, "dashboard", got.header.Get("X-Request-Source"))
}

func TestStripsEncodingResponseHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "br")
		w.Header().Set("Connection", "close")
		w.Header().Set("X-Request-Id", "abc")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	h := proxy.New(proxy.Options{BackendURL: srv.URL})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/reports/dashboard", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"ok":true}`, rr.Body.String())
	assert.Empty(t, rr.Header().Get("Content-Encoding"))
	assert.Empty(t, rr.Header().Get("Transfer-Encoding"))
	assert.Empty(t, rr.Header().Get("Connection"))
	assert.Empty(t, rr.Header().Get("Content-Length"))
	assert.Equal(t, "abc", rr.Header().Get("X-Request-Id"))
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestBodyForwardingRules(t *testing.T) {
	cases := []struct {
		name     string
		method   string
		body     string
		wantBody string
	}{
		{name: "get drops body", method: http.MethodGet, body: `{"ignored":true}`},
		{name: "head drops body", method: http.MethodHead, body: `{"ignored":true}`},
		{name: "empty post sends nothing", method: http.MethodPost, body: ""},
		{name: "patch forwards body", method: http.MethodPatch, body: `{"name":"x"}`, wantBody: `{"name":"x"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got seen
			srv := upstream(t, &got, http.StatusOK)
			h := proxy.New(proxy.Options{BackendURL: srv.URL})

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(tc.method, "/api/v1/buyers/1", strings.NewReader(tc.body)))

			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tc.method, got.method)
			assert.Equal(t, tc.wantBody, got.body)
			assert.Equal(t, int64(len(tc.wantBody)), got.length)
			if tc.method == http.MethodHead {
				assert.Empty(t, rr.Body.String())
			}
		})
	}
}

func TestFollowsBackendRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/buyers", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/v1/buyers/?"+r.URL.RawQuery, http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/api/v1/buyers/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":7,"auth":"` + r.Header.Get("Authorization") + `"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	clients := map[string]*http.Client{
		"default client": nil,
		"gateway client": backend.NewHTTPClient(backend.Options{FollowRedirects: true}),
	}
	for name, client := range clients {
		t.Run(name, func(t *testing.T) {
			h := proxy.New(proxy.Options{BackendURL: srv.URL, Client: client})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/buyers?limit=10000", nil)
			req.AddCookie(&http.Cookie{Name: "auth_token", Value: "tok"})
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			require.Equal(t, http.StatusOK, rr.Code)
			assert.Empty(t, rr.Header().Get("Location"))
			assert.JSONEq(t, `[{"id":7,"auth":"Bearer tok"}]`, rr.Body.String())
		})
	}
}
