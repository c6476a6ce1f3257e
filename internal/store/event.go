package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// sequenceCounter manages the global monotonic sequence number shared across
// the event tables, so allocations and completions can be ordered against
// each other.
//
// The mutex serializes within the process; the RETURNING clause makes the
// increment atomic at the database level.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// eventRepo implements EventRepo on the event tables.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *eventRepo) AppendAllocation(ctx context.Context, data AllocationEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	modules, err := marshalIDs(data.ModuleIDs)
	if err != nil {
		return err
	}
	carry, err := marshalIDs(data.CarryOver)
	if err != nil {
		return err
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(allocationEventsTable).
		Columns("sequence", "timestamp", "run_id", "user_id", "date", "kind", "success",
			"total_minutes", "budget", "module_ids", "carry_over", "message").
		Values(seqNum, time.Now().UTC(), data.RunID, data.UserID, data.Date, data.Kind, data.Success,
			data.TotalMinutes, data.Budget, modules, carry, data.Message).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save allocation event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendCompletion(ctx context.Context, data CompletionEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(completionEventsTable).
		Columns("sequence", "timestamp", "user_id", "module_id", "date", "completed", "completed_count").
		Values(seqNum, time.Now().UTC(), data.UserID, data.ModuleID, data.Date, data.Completed, data.CompletedCount).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save completion event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryAllocations(ctx context.Context, opts QueryOpts) ([]AllocationEvent, error) {
	query, args := selectEvents(allocationEventsTable, opts,
		"sequence", "timestamp", "run_id", "user_id", "date", "kind", "success",
		"total_minutes", "budget", "module_ids", "carry_over", "message")

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query allocation events: %w", err)
	}
	defer rows.Close()

	var out []AllocationEvent
	for rows.Next() {
		var (
			e              AllocationEvent
			modules, carry sql.NullString
		)
		if err := rows.Scan(&e.Sequence, &e.Timestamp, &e.RunID, &e.UserID, &e.Date, &e.Kind,
			&e.Success, &e.TotalMinutes, &e.Budget, &modules, &carry, &e.Message); err != nil {
			return nil, fmt.Errorf("scan allocation event: %w", err)
		}
		if e.ModuleIDs, err = unmarshalIDs(modules); err != nil {
			return nil, err
		}
		if e.CarryOver, err = unmarshalIDs(carry); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) QueryCompletions(ctx context.Context, opts QueryOpts) ([]CompletionEvent, error) {
	query, args := selectEvents(completionEventsTable, opts,
		"sequence", "timestamp", "user_id", "module_id", "date", "completed", "completed_count")

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query completion events: %w", err)
	}
	defer rows.Close()

	var out []CompletionEvent
	for rows.Next() {
		var e CompletionEvent
		if err := rows.Scan(&e.Sequence, &e.Timestamp, &e.UserID, &e.ModuleID, &e.Date,
			&e.Completed, &e.CompletedCount); err != nil {
			return nil, fmt.Errorf("scan completion event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	var removed int
	for _, table := range []string{allocationEventsTable, completionEventsTable} {
		// Find the sequence of the newest row that falls outside the window.
		query, args := entsql.Dialect(dialect.SQLite).
			Select("sequence").
			From(entsql.Table(table)).
			OrderBy(entsql.Desc("sequence")).
			Offset(keep).
			Limit(1).
			Query()

		var threshold int64
		err := r.db.QueryRowContext(ctx, query, args...).Scan(&threshold)
		if err == sql.ErrNoRows {
			continue // fewer than keep events exist
		}
		if err != nil {
			return removed, fmt.Errorf("query %s for prune: %w", table, err)
		}

		query, args = entsql.Dialect(dialect.SQLite).
			Delete(table).
			Where(entsql.LTE("sequence", threshold)).
			Query()
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return removed, fmt.Errorf("prune %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		removed += int(n)
	}
	return removed, nil
}

// selectEvents builds a newest-first query over an event table.
func selectEvents(table string, opts QueryOpts, columns ...string) (string, []any) {
	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", opts.To.UTC()))
	}
	if opts.UserID != "" {
		preds = append(preds, entsql.EQ("user_id", opts.UserID))
	}

	sel := entsql.Dialect(dialect.SQLite).
		Select(columns...).
		From(entsql.Table(table)).
		OrderBy(entsql.Desc("sequence"))
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}
	return sel.Query()
}

func marshalIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("marshal ids: %w", err)
	}
	return string(b), nil
}

func unmarshalIDs(s sql.NullString) ([]string, error) {
	if !s.Valid || s.String == "" {
		return []string{}, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(s.String), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal ids: %w", err)
	}
	return ids, nil
}
