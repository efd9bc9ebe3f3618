package samples

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/southern-apparels/sa-erp/internal/backend"
)

// MaterialLine is one material requirement of a batch.
type MaterialLine struct {
	Material             string           `json:"material" validate:"required"`
	UOM                  string           `json:"uom" validate:"required"`
	ConsumptionPerPiece  decimal.Decimal  `json:"consumption_per_piece"`
	ConvertedUOM         string           `json:"converted_uom,omitempty"`
	ConvertedConsumption *decimal.Decimal `json:"converted_consumption,omitempty"`
	Remarks              string           `json:"remarks"`
}

// MaterialsBatchRequest creates several requirements for one style variant.
type MaterialsBatchRequest struct {
	StyleVariantID int64          `json:"style_variant_id" validate:"required"`
	StyleName      string         `json:"style_name"`
	StyleID        string         `json:"style_id"`
	Materials      []MaterialLine `json:"materials" validate:"required,min=1,dive"`
}

// requiredMaterialBody is the record the backend stores.
type requiredMaterialBody struct {
	StyleVariantID       int64    `json:"style_variant_id"`
	StyleName            string   `json:"style_name"`
	StyleID              string   `json:"style_id"`
	Material             string   `json:"material"`
	UOM                  string   `json:"uom"`
	ConsumptionPerPiece  float64  `json:"consumption_per_piece"`
	ConvertedUOM         *string  `json:"converted_uom"`
	ConvertedConsumption *float64 `json:"converted_consumption"`
	Remarks              string   `json:"remarks"`
}

// Bodies validates the lines and builds the backend payloads. A line with a converted
// unit but no converted figure gets one computed.
func (r MaterialsBatchRequest) Bodies() ([]any, []string, error) {
	bodies := make([]any, len(r.Materials))
	labels := make([]string, len(r.Materials))
	for i, line := range r.Materials {
		if !line.ConsumptionPerPiece.IsPositive() {
			return nil, nil, fmt.Errorf("%w: consumption_per_piece must be positive for %s", ErrInvalidInput, line.Material)
		}
		body := requiredMaterialBody{
			StyleVariantID:      r.StyleVariantID,
			StyleName:           r.StyleName,
			StyleID:             r.StyleID,
			Material:            line.Material,
			UOM:                 line.UOM,
			ConsumptionPerPiece: line.ConsumptionPerPiece.InexactFloat64(),
			Remarks:             line.Remarks,
		}
		if line.ConvertedUOM != "" {
			converted := line.ConvertedConsumption
			if converted == nil || converted.IsZero() {
				v, err := Convert(line.ConsumptionPerPiece, line.UOM, line.ConvertedUOM)
				if err != nil {
					return nil, nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
				}
				converted = &v
			}
			unit := line.ConvertedUOM
			figure := converted.InexactFloat64()
			body.ConvertedUOM = &unit
			body.ConvertedConsumption = &figure
		}
		bodies[i] = body
		labels[i] = line.Material
	}
	return bodies, labels, nil
}

// CreateMaterialsBatch creates every line concurrently.
func CreateMaterialsBatch(ctx context.Context, res backend.Resource, token string, req MaterialsBatchRequest) (BatchResult, error) {
	bodies, labels, err := req.Bodies()
	if err != nil {
		return BatchResult{}, err
	}
	return fanOut(ctx, bodies, labels, func(ctx context.Context, body any) (backend.Record, error) {
		return res.Create(ctx, token, body)
	}), nil
}
