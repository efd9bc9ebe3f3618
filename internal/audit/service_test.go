package audit

import (
	"context"
	"strings"
	"testing"
	"time"
)

type stubTimelineRepo struct {
	rows     []Entry
	lastCall WindowParams
}

func (s *stubTimelineRepo) Window(ctx context.Context, p WindowParams) ([]Entry, error) {
	s.lastCall = p
	out := make([]Entry, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func mockEntry(ts, method, path string, status int) Entry {
	at, _ := time.Parse(time.RFC3339, ts)
	return Entry{Method: method, Path: path, Status: status, Duration: 1500 * time.Millisecond, OccurredAt: at, Actor: "alice"}
}

func TestServiceTimelinePaging(t *testing.T) {
	repo := &stubTimelineRepo{rows: []Entry{
		mockEntry("2026-03-10T10:00:00Z", "POST", "/api/v1/buyers", 201),
		mockEntry("2026-03-09T09:00:00Z", "PUT", "/api/v1/buyers/2", 200),
		mockEntry("2026-03-08T08:00:00Z", "DELETE", "/api/v1/buyers/3", 200),
	}}
	svc := NewService(repo)
	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 2, PageSize: 2, Method: " post "})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.Rows))
	}
	if !result.Paging.HasNext || result.Paging.NextPage != 3 || result.Paging.PrevPage != 1 {
		t.Fatalf("unexpected paging %+v", result.Paging)
	}
	if repo.lastCall.Limit != 3 || repo.lastCall.Offset != 2 {
		t.Fatalf("expected limit 3 offset 2, got %d/%d", repo.lastCall.Limit, repo.lastCall.Offset)
	}
	if repo.lastCall.Method != "POST" {
		t.Fatalf("expected normalized method, got %q", repo.lastCall.Method)
	}
	if result.Rows[0].DurationMS != 1500 {
		t.Fatalf("expected duration_ms 1500, got %d", result.Rows[0].DurationMS)
	}
}

func TestServiceWithoutRepository(t *testing.T) {
	var svc *Service
	if _, err := svc.Timeline(context.Background(), TimelineFilters{}); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestWriteCSV(t *testing.T) {
	data, err := WriteCSV([]Entry{mockEntry("2026-03-10T10:00:00Z", "POST", "/api/v1/samples/tna", 201)})
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %d lines", len(lines))
	}
	if lines[1] != "2026-03-10T10:00:00Z,,alice,POST,/api/v1/samples/tna,201,1500" {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestWindowQuery(t *testing.T) {
	query, args := windowQuery(WindowParams{Method: "POST", PathPrefix: "/api/v1/samples_x", Limit: 21, Offset: 20})
	want := `SELECT id, request_id, method, path, status, duration_ms, actor, occurred_at FROM gateway_audit_logs WHERE method = $1 AND path LIKE $2 ORDER BY occurred_at DESC LIMIT $3 OFFSET $4`
	if query != want {
		t.Fatalf("unexpected query:\n%s", query)
	}
	if len(args) != 4 || args[1] != `/api/v1/samples\_x%` {
		t.Fatalf("unexpected args %#v", args)
	}
}
