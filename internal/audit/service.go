package audit

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Recorder stores write entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Nop discards entries. It stands in when no database is configured.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Entry) error { return nil }

// Repository reads the stored trail.
type Repository interface {
	Window(ctx context.Context, params WindowParams) ([]Entry, error)
}

// ErrNotConfigured is returned when the trail has no backing store.
var ErrNotConfigured = errors.New("audit: repository not configured")

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service pages through the audit trail.
type Service struct {
	repo Repository
}

// NewService builds the timeline service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline returns one page of entries, newest first.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s == nil || s.repo == nil {
		return Result{}, ErrNotConfigured
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	rows, err := s.repo.Window(ctx, WindowParams{
		From:       filters.From,
		To:         filters.To,
		Actor:      strings.TrimSpace(filters.Actor),
		Method:     strings.ToUpper(strings.TrimSpace(filters.Method)),
		PathPrefix: strings.TrimSpace(filters.PathPrefix),
		Offset:     (page - 1) * pageSize,
		Limit:      pageSize + 1,
	})
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	for i := range rows {
		rows[i].DurationMS = rows[i].Duration.Milliseconds()
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// Export returns every entry matching the filters, capped at limit rows.
func (s *Service) Export(ctx context.Context, filters TimelineFilters, limit int) ([]Entry, error) {
	if s == nil || s.repo == nil {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		limit = 10000
	}
	rows, err := s.repo.Window(ctx, WindowParams{
		From:       filters.From,
		To:         filters.To,
		Actor:      strings.TrimSpace(filters.Actor),
		Method:     strings.ToUpper(strings.TrimSpace(filters.Method)),
		PathPrefix: strings.TrimSpace(filters.PathPrefix),
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].DurationMS = rows[i].Duration.Milliseconds()
	}
	return rows, nil
}

func normalize(entry Entry) Entry {
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	entry.Method = strings.ToUpper(entry.Method)
	return entry
}
