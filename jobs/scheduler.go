package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/southern-apparels/sa-erp/internal/jobs"
	"github.com/southern-apparels/sa-erp/internal/querykeys"
)

// Enqueuer submits tasks. *asynq.Client satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Invalidator drops cached lists.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// Enqueue results recorded in metrics.
const (
	EnqueueOK        = "ok"
	EnqueueDuplicate = "duplicate"
	EnqueueError     = "error"
)

// RefreshScheduler reacts to successful writes: it drops the affected lists and
// schedules their reload after delay.
type RefreshScheduler struct {
	queue   Enqueuer
	cache   Invalidator
	delay   time.Duration
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewRefreshScheduler builds a scheduler. queue may be nil, in which case lists are
// only invalidated and reload on the next read.
func NewRefreshScheduler(queue Enqueuer, cache Invalidator, delay time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *RefreshScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshScheduler{queue: queue, cache: cache, delay: delay, logger: logger, metrics: metrics}
}

// AfterWrite implements the proxy write hook for a backend path.
func (s *RefreshScheduler) AfterWrite(ctx context.Context, apiPath string) {
	s.Refresh(ctx, querykeys.ForAPIPath(apiPath)...)
}

// Refresh invalidates keys and schedules a reload for the ones backed by a list path.
func (s *RefreshScheduler) Refresh(ctx context.Context, keys ...querykeys.Key) {
	if s == nil || len(keys) == 0 {
		return
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, querykeys.Strings(keys)...); err != nil {
			s.logger.Warn("list invalidate", slog.Any("keys", keys), slog.Any("error", err))
		}
	}
	if s.queue == nil {
		return
	}
	for _, key := range keys {
		path, ok := querykeys.ListPath(key)
		if !ok {
			continue
		}
		s.metrics.AddEnqueued(s.enqueue(ctx, RefreshPayload{Key: key.String(), Path: path}))
	}
}

func (s *RefreshScheduler) enqueue(ctx context.Context, payload RefreshPayload) string {
	task, err := NewRefreshTask(payload)
	if err != nil {
		s.logger.Error("build refresh task", slog.String("key", payload.Key), slog.Any("error", err))
		return EnqueueError
	}
	_, err = s.queue.EnqueueContext(ctx, task, RefreshOptions(s.delay)...)
	switch {
	case err == nil:
		return EnqueueOK
	case errors.Is(err, asynq.ErrDuplicateTask):
		return EnqueueDuplicate
	default:
		s.logger.Warn("enqueue refresh", slog.String("key", payload.Key), slog.Any("error", err))
		return EnqueueError
	}
}
