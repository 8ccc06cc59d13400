// Package journal records collector cycles in a SQLite database so runs can
// be compared after the fact.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/chazu/ephemeron/vm"

	_ "modernc.org/sqlite"
)

// Cycle is one recorded collection.
type Cycle struct {
	ID                int64
	Run               string
	Cycle             uint64
	Live              int
	Swept             int
	WeakEntriesPruned int
	TablesDropped     int
	Handles           int
	Duration          time.Duration
	Timestamp         time.Time
}

// Journal is a SQLite-backed log of collection cycles.
type Journal struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates a journal. Use ":memory:" for an in-memory database.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	j := &Journal{db: db}
	if err := j.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cycles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run TEXT NOT NULL,
		cycle INTEGER NOT NULL,
		live INTEGER NOT NULL,
		swept INTEGER NOT NULL,
		weak_pruned INTEGER NOT NULL,
		tables_dropped INTEGER NOT NULL,
		handles INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cycles_run ON cycles(run);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Record appends the stats of one cycle under the given run name.
func (j *Journal) Record(ctx context.Context, run string, s *vm.GCStats) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO cycles (run, cycle, live, swept, weak_pruned, tables_dropped, handles, duration_ns, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run, int64(s.Cycle), s.Live, s.Swept, s.WeakEntriesPruned, s.TablesDropped,
		s.Handles, s.Duration.Nanoseconds(), s.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}
	return nil
}

// Cycles returns every cycle recorded for run, oldest first.
func (j *Journal) Cycles(ctx context.Context, run string) ([]Cycle, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, run, cycle, live, swept, weak_pruned, tables_dropped, handles, duration_ns, timestamp
		 FROM cycles WHERE run = ? ORDER BY id`,
		run,
	)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	var out []Cycle
	for rows.Next() {
		var c Cycle
		var cycle, durationNs, ts int64
		if err := rows.Scan(&c.ID, &c.Run, &cycle, &c.Live, &c.Swept, &c.WeakEntriesPruned,
			&c.TablesDropped, &c.Handles, &durationNs, &ts); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		c.Cycle = uint64(cycle)
		c.Duration = time.Duration(durationNs)
		c.Timestamp = time.Unix(0, ts)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// TotalPruned returns the number of weak entries pruned across a run.
func (j *Journal) TotalPruned(ctx context.Context, run string) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var total sql.NullInt64
	err := j.db.QueryRowContext(ctx,
		"SELECT SUM(weak_pruned) FROM cycles WHERE run = ?", run,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum pruned: %w", err)
	}
	return int(total.Int64), nil
}

// Runs returns the distinct run identifiers in the journal, oldest first.
func (j *Journal) Runs(ctx context.Context) ([]string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx,
		"SELECT run FROM cycles GROUP BY run ORDER BY MIN(id)")
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var run string
		if err := rows.Scan(&run); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
