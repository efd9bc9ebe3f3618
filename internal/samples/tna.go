package samples

import (
	"context"
	"maps"

	"github.com/southern-apparels/sa-erp/internal/backend"
)

// Piece is one part of a set style. Each piece gets its own TNA record.
type Piece struct {
	PieceName string `json:"piece_name" validate:"required"`
	Color     string `json:"color"`
	ColorCode string `json:"color_code,omitempty"`
}

// TNABatchRequest creates one TNA record per piece from a shared form.
type TNABatchRequest struct {
	TNA    map[string]any `json:"tna" validate:"required"`
	Pieces []Piece        `json:"pieces" validate:"required,min=1,dive"`
}

// Bodies returns the per-piece payloads: the shared form with color and piece_name
// overridden. Sizes live on the variant and are not copied.
func (r TNABatchRequest) Bodies() ([]any, []string) {
	bodies := make([]any, len(r.Pieces))
	labels := make([]string, len(r.Pieces))
	for i, p := range r.Pieces {
		body := maps.Clone(r.TNA)
		if body == nil {
			body = map[string]any{}
		}
		body["color"] = p.Color
		body["piece_name"] = p.PieceName
		bodies[i] = body
		labels[i] = p.PieceName
	}
	return bodies, labels
}

// CreateTNABatch creates every piece concurrently.
func CreateTNABatch(ctx context.Context, res backend.Resource, token string, req TNABatchRequest) BatchResult {
	bodies, labels := req.Bodies()
	return fanOut(ctx, bodies, labels, func(ctx context.Context, body any) (backend.Record, error) {
		return res.Create(ctx, token, body)
	})
}
