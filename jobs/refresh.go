package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/southern-apparels/sa-erp/internal/backend"
	jobmetrics "github.com/southern-apparels/sa-erp/internal/jobs"
	"github.com/southern-apparels/sa-erp/internal/querykeys"
)

// Fetcher loads raw list payloads from the backend.
type Fetcher interface {
	Fetch(ctx context.Context, path, token string) (json.RawMessage, error)
}

// ListStore persists refreshed lists.
type ListStore interface {
	Store(ctx context.Context, key string, value json.RawMessage) error
}

// RefreshJob reloads cached lists on behalf of the gateway.
type RefreshJob struct {
	Backend Fetcher
	Cache   ListStore
	Token   string
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewRefreshJob wires dependencies for the refresh handlers.
func NewRefreshJob(fetcher Fetcher, cache ListStore, token string, logger *slog.Logger, metrics *jobmetrics.Metrics) *RefreshJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshJob{Backend: fetcher, Cache: cache, Token: token, Logger: logger, Metrics: metrics}
}

// Handle processes TaskListRefresh tasks.
func (j *RefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Backend == nil || j.Cache == nil {
		return errors.New("list refresh: handler not configured")
	}
	var payload RefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.Key == "" || payload.Path == "" {
		return fmt.Errorf("list refresh: bad payload: %w", asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskListRefresh)
	return tracker.End(j.refresh(ctx, payload))
}

// HandleWarm processes TaskListWarm tasks. A failing list does not stop the others.
func (j *RefreshJob) HandleWarm(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Backend == nil || j.Cache == nil {
		return errors.New("list warm: handler not configured")
	}
	tracker := j.Metrics.Track(TaskListWarm)
	var errs []error
	for _, key := range querykeys.Refreshable() {
		path, ok := querykeys.ListPath(key)
		if !ok {
			continue
		}
		if err := j.refresh(ctx, RefreshPayload{Key: key.String(), Path: path}); err != nil {
			errs = append(errs, err)
		}
	}
	return tracker.End(errors.Join(errs...))
}

func (j *RefreshJob) refresh(ctx context.Context, payload RefreshPayload) error {
	raw, err := j.Backend.Fetch(ctx, payload.Path, j.Token)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			j.Logger.Warn("list refresh rejected", slog.String("key", payload.Key), slog.Int("status", apiErr.Status))
			return fmt.Errorf("list refresh %s: %w: %w", payload.Key, err, asynq.SkipRetry)
		}
		return fmt.Errorf("list refresh %s: %w", payload.Key, err)
	}
	if err := j.Cache.Store(ctx, payload.Key, raw); err != nil {
		return fmt.Errorf("list refresh %s: store: %w", payload.Key, err)
	}
	j.Metrics.AddRefreshed(payload.Key)
	j.Logger.Debug("list refreshed", slog.String("key", payload.Key))
	return nil
}
