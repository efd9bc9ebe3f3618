package audithttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/southern-apparels/sa-erp/internal/audit"
)

type stubTimelineService struct {
	result      audit.Result
	exportRows  []audit.Entry
	err         error
	lastFilters audit.TimelineFilters
}

func (s *stubTimelineService) Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error) {
	s.lastFilters = filters
	return s.result, s.err
}

func (s *stubTimelineService) Export(ctx context.Context, filters audit.TimelineFilters, limit int) ([]audit.Entry, error) {
	s.lastFilters = filters
	return s.exportRows, s.err
}

func newAuditRouter(svc *stubTimelineService) http.Handler {
	h := NewHandler(nil, svc)
	h.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestTimelineDefaultsToLastWeek(t *testing.T) {
	svc := &stubTimelineService{result: audit.Result{Rows: []audit.Entry{{Method: "POST", Path: "/api/v1/buyers", Status: 201}}}}
	rr := httptest.NewRecorder()
	newAuditRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/audit?method=post", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), svc.lastFilters.From)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), svc.lastFilters.To)
	assert.Equal(t, "post", svc.lastFilters.Method)

	var body audit.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Len(t, body.Rows, 1)
}

func TestTimelineRejectsBadFilters(t *testing.T) {
	for _, q := range []string{"from=2026-03-10&to=2026-03-01", "page=0", "to=yesterday", "from=2025-01-01&to=2026-03-01"} {
		rr := httptest.NewRecorder()
		newAuditRouter(&stubTimelineService{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/audit?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestTimelineNotConfigured(t *testing.T) {
	rr := httptest.NewRecorder()
	newAuditRouter(&stubTimelineService{err: audit.ErrNotConfigured}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/audit", nil))
	assert.Equal(t, http.StatusNotImplemented, rr.Code)
}

func TestExportCSV(t *testing.T) {
	svc := &stubTimelineService{exportRows: []audit.Entry{{
		Method: "DELETE", Path: "/api/v1/buyers/4", Status: 200, Actor: "bob",
		OccurredAt: time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC),
	}}}
	rr := httptest.NewRecorder()
	newAuditRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/audit/export.csv", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "occurred_at,request_id,actor,method,path,status,duration_ms\n"))
	assert.Contains(t, rr.Body.String(), "bob,DELETE,/api/v1/buyers/4,200,0")
}
