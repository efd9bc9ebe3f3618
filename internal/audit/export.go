package audit

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"
)

var csvHeader = []string{"occurred_at", "request_id", "actor", "method", "path", "status", "duration_ms"}

// WriteCSV renders entries as a CSV document with a header row.
func WriteCSV(rows []Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			row.OccurredAt.UTC().Format(time.RFC3339),
			row.RequestID,
			row.Actor,
			row.Method,
			row.Path,
			strconv.Itoa(row.Status),
			strconv.FormatInt(row.Duration.Milliseconds(), 10),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
