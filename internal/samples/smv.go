// Package samples holds the sample department workflow arithmetic and the tools API
// built on top of it.
package samples

import (
	"fmt"
	"math"
	"strings"
)

// OperationRow is one line of an SMV worksheet.
type OperationRow struct {
	ID                 int64   `json:"id,omitempty"`
	OperationID        string  `json:"operation_id"`
	OperationType      string  `json:"operation_type"`
	OperationName      string  `json:"operation_name"`
	NumberOfOperations float64 `json:"number_of_operations" validate:"gte=0"`
	Size               string  `json:"size"`
	DurationInput      string  `json:"duration_input"`
	Duration           float64 `json:"duration"`
	TotalDuration      float64 `json:"total_duration"`
}

// Recalculate derives the duration in minutes from DurationInput and the row total.
// An empty DurationInput keeps the Duration already on the row.
func (r *OperationRow) Recalculate() {
	if r.DurationInput != "" {
		r.Duration = TimeToMinutes(r.DurationInput)
	}
	r.TotalDuration = r.NumberOfOperations * r.Duration
}

// TimeToMinutes converts an HH:MM:SS string into fractional minutes. Unparseable parts
// count as zero; anything other than three parts yields zero.
func TimeToMinutes(s string) float64 {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0
	}
	h, m, sec := leadingInt(parts[0]), leadingInt(parts[1]), leadingInt(parts[2])
	return float64(h*60+m) + float64(sec)/60
}

// MinutesToClock renders minutes as H:MM.
func MinutesToClock(minutes float64) string {
	hours := math.Floor(minutes / 60)
	mins := math.Round(math.Mod(minutes, 60))
	return fmt.Sprintf("%d:%02d", int64(hours), int64(mins))
}

// TotalSMV sums the row totals.
func TotalSMV(rows []OperationRow) float64 {
	var total float64
	for _, r := range rows {
		total += r.TotalDuration
	}
	return total
}

// Calculation is the result of recalculating a worksheet.
type Calculation struct {
	Rows       []OperationRow `json:"rows"`
	TotalSMV   float64        `json:"total_smv"`
	TotalClock string         `json:"total_clock"`
}

// Calculate recalculates every row and totals the sheet. The input is not modified.
func Calculate(rows []OperationRow) Calculation {
	out := make([]OperationRow, len(rows))
	copy(out, rows)
	for i := range out {
		out[i].Recalculate()
	}
	total := TotalSMV(out)
	return Calculation{Rows: out, TotalSMV: total, TotalClock: MinutesToClock(total)}
}

// leadingInt parses an optional sign and the leading decimal digits of s, ignoring
// surrounding whitespace. "12abc" is 12, "abc" is 0.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n := 0
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
	}
	if neg {
		return -n
	}
	return n
}
