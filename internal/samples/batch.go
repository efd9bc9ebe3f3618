package samples

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/southern-apparels/sa-erp/internal/backend"
)

// batchConcurrency bounds parallel creates against the backend.
const batchConcurrency = 4

// ItemFailure describes one record the backend refused.
type ItemFailure struct {
	Index  int    `json:"index"`
	Label  string `json:"label"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// BatchResult collects every outcome of a fan-out create.
type BatchResult struct {
	Created  []backend.Record `json:"created"`
	Failures []ItemFailure    `json:"failures,omitempty"`
}

// OK reports whether every item was created.
func (r BatchResult) OK() bool { return len(r.Failures) == 0 }

type createFunc func(ctx context.Context, body any) (backend.Record, error)

// fanOut creates bodies concurrently. Every item runs to completion regardless of the
// others; the result keeps input order.
func fanOut(ctx context.Context, bodies []any, labels []string, create createFunc) BatchResult {
	records := make([]backend.Record, len(bodies))
	failures := make([]*ItemFailure, len(bodies))

	var g errgroup.Group
	g.SetLimit(batchConcurrency)
	for i, body := range bodies {
		g.Go(func() error {
			rec, err := create(ctx, body)
			if err != nil {
				failures[i] = failureFor(i, labels[i], err)
				return nil
			}
			records[i] = rec
			return nil
		})
	}
	_ = g.Wait()

	var res BatchResult
	for i := range bodies {
		if failures[i] != nil {
			res.Failures = append(res.Failures, *failures[i])
			continue
		}
		res.Created = append(res.Created, records[i])
	}
	if res.Created == nil {
		res.Created = []backend.Record{}
	}
	return res
}

func failureFor(i int, label string, err error) *ItemFailure {
	f := &ItemFailure{Index: i, Label: label, Status: http.StatusBadGateway, Detail: err.Error()}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		f.Status = apiErr.Status
		f.Detail = apiErr.Detail
	}
	return f
}
