package audit

import "time"

// Entry is one proxied write.
type Entry struct {
	ID         string        `json:"id"`
	RequestID  string        `json:"request_id"`
	Method     string        `json:"method"`
	Path       string        `json:"path"`
	Status     int           `json:"status"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
	Actor      string        `json:"actor"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// TimelineFilters narrows the audit trail.
type TimelineFilters struct {
	From       time.Time
	To         time.Time
	Actor      string
	Method     string
	PathPrefix string
	Page       int
	PageSize   int
}

// PagingInfo is simple page metadata.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result is one page of the trail.
type Result struct {
	Rows   []Entry    `json:"rows"`
	Paging PagingInfo `json:"paging"`
}

// WindowParams is the repository query for one page.
type WindowParams struct {
	From       time.Time
	To         time.Time
	Actor      string
	Method     string
	PathPrefix string
	Offset     int
	Limit      int
}
