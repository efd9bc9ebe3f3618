package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/southern-apparels/sa-erp/internal/platform/db"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS gateway_audit_logs (
		id uuid PRIMARY KEY,
		request_id text NOT NULL DEFAULT '',
		method text NOT NULL,
		path text NOT NULL,
		status integer NOT NULL,
		duration_ms bigint NOT NULL,
		actor text NOT NULL DEFAULT '',
		occurred_at timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS gateway_audit_logs_occurred_at_idx ON gateway_audit_logs (occurred_at DESC)`,
}

// Store keeps the trail in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the audit table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return db.ApplySchema(ctx, s.pool, schema...)
}

// Record inserts one entry.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if s == nil || s.pool == nil {
		return ErrNotConfigured
	}
	entry = normalize(entry)
	if entry.Method == "" || entry.Path == "" {
		return fmt.Errorf("audit: entry requires method and path")
	}
	id := uuid.New()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO gateway_audit_logs (id, request_id, method, path, status, duration_ms, actor, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, entry.RequestID, entry.Method, entry.Path, entry.Status, entry.Duration.Milliseconds(), entry.Actor, entry.OccurredAt)
	return err
}

// Window implements Repository.
func (s *Store) Window(ctx context.Context, p WindowParams) ([]Entry, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	query, args := windowQuery(p)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query window: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var (
			e  Entry
			id uuid.UUID
			ms int64
		)
		if err := row.Scan(&id, &e.RequestID, &e.Method, &e.Path, &e.Status, &ms, &e.Actor, &e.OccurredAt); err != nil {
			return Entry{}, err
		}
		e.ID = id.String()
		e.Duration = time.Duration(ms) * time.Millisecond
		return e, nil
	})
}

func windowQuery(p WindowParams) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if !p.From.IsZero() {
		add("occurred_at >= $%d", p.From)
	}
	if !p.To.IsZero() {
		add("occurred_at < $%d", p.To)
	}
	if p.Actor != "" {
		add("actor = $%d", p.Actor)
	}
	if p.Method != "" {
		add("method = $%d", p.Method)
	}
	if p.PathPrefix != "" {
		add("path LIKE $%d", escapeLike(p.PathPrefix)+"%")
	}
	var b strings.Builder
	b.WriteString(`SELECT id, request_id, method, path, status, duration_ms, actor, occurred_at FROM gateway_audit_logs`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY occurred_at DESC")
	if p.Limit > 0 {
		args = append(args, p.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if p.Offset > 0 {
		args = append(args, p.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	return b.String(), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
