package metricstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// PostgresStore persists section metrics in PostgreSQL. The unique
// constraint on (title, chapter, section, snapshot_date) backs the upsert
// invariant; see migrations/001_init.sql.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const upsertBatchSize = 500

// Upsert writes records in batches inside one transaction, using
// ON CONFLICT DO UPDATE so re-ingesting a snapshot overwrites rather than
// appends.
func (s *PostgresStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for start := 0; start < len(records); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(records))
		if err := upsertBatch(ctx, tx, records[start:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert tx: %w", err)
	}
	return nil
}

func upsertBatch(ctx context.Context, tx *sql.Tx, batch []Record) error {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`INSERT INTO section_metrics(
		title, chapter, section, snapshot_date,
		word_count, mandate_count, reading_ease, updated_at
	) VALUES `)

	now := time.Now().UTC()
	for i, r := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 8
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8)
		args = append(args,
			r.Title, r.Chapter, r.Section, day(r.Date),
			r.WordCount, r.MandateCount, r.ReadingEase, now,
		)
	}

	sb.WriteString(` ON CONFLICT (title, chapter, section, snapshot_date) DO UPDATE SET
		word_count = EXCLUDED.word_count,
		mandate_count = EXCLUDED.mandate_count,
		reading_ease = EXCLUDED.reading_ease,
		updated_at = EXCLUDED.updated_at`)

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("upsert section metrics batch: %w", err)
	}
	return nil
}

// QueryMatching returns records matching the selector within the range,
// ordered by date, title, chapter, section.
func (s *PostgresStore) QueryMatching(ctx context.Context, sel Selector, dr DateRange) ([]Record, error) {
	var (
		where []string
		args  []any
	)

	if len(sel.Refs) > 0 {
		var pairs []string
		for _, ref := range sel.Refs {
			pairs = append(pairs, fmt.Sprintf("($%d::int, $%d::text)", len(args)+1, len(args)+2))
			args = append(args, ref.Title, ref.Chapter)
		}
		where = append(where, "(title, chapter) IN ("+strings.Join(pairs, ", ")+")")
	} else {
		args = append(args, sel.Title)
		where = append(where, fmt.Sprintf("title = $%d", len(args)))
	}

	if !dr.From.IsZero() {
		args = append(args, day(dr.From))
		where = append(where, fmt.Sprintf("snapshot_date >= $%d", len(args)))
	}
	if !dr.To.IsZero() {
		args = append(args, day(dr.To))
		where = append(where, fmt.Sprintf("snapshot_date <= $%d", len(args)))
	}

	query := `SELECT title, chapter, section, snapshot_date,
		word_count, mandate_count, reading_ease
	FROM section_metrics
	WHERE ` + strings.Join(where, " AND ") + `
	ORDER BY snapshot_date, title, chapter, section`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query section metrics: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Title, &r.Chapter, &r.Section, &r.Date,
			&r.WordCount, &r.MandateCount, &r.ReadingEase); err != nil {
			return nil, fmt.Errorf("scan section metric: %w", err)
		}
		r.Date = day(r.Date)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate section metrics: %w", err)
	}
	return out, nil
}

// HasSnapshot reports whether any record exists for (title, date).
func (s *PostgresStore) HasSnapshot(ctx context.Context, title int, date time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM section_metrics WHERE title = $1 AND snapshot_date = $2)`,
		title, day(date),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check snapshot existence: %w", err)
	}
	return exists, nil
}
