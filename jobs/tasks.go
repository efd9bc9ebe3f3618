package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskListRefresh reloads one cached list from the backend.
	TaskListRefresh = "listcache:refresh"
	// TaskListWarm reloads every cached list.
	TaskListWarm = "listcache:warm"
)

// refreshUniqueTTL collapses repeated writes to the same list into one refresh.
const refreshUniqueTTL = 5 * time.Second

// RefreshPayload names the cache key and the backend path that fills it.
type RefreshPayload struct {
	Key  string `json:"key"`
	Path string `json:"path"`
}

// NewRefreshTask constructs a list refresh task.
func NewRefreshTask(payload RefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskListRefresh, data), nil
}

// RefreshOptions returns the enqueue options for a refresh delayed by delay.
func RefreshOptions(delay time.Duration) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(3),
		asynq.Unique(refreshUniqueTTL),
	}
}

// NewWarmTask constructs the periodic warm task.
func NewWarmTask() *asynq.Task {
	return asynq.NewTask(TaskListWarm, nil)
}
