package trace

import (
	"database/sql"
	"fmt"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"
)

// SQLiteWriter persists simulation traces into a SQLite database. Rows are
// buffered and written in batches, one transaction per flush. Several runs
// can share a database; every row carries its trace's RunID.
type SQLiteWriter struct {
	*sql.DB

	path      string
	batchSize int
	closed    bool

	transitionsToWrite []transitionRow
	occupancyToWrite   []occupancyRow
}

type transitionRow struct {
	runID string
	TransitionRecord
}

type occupancyRow struct {
	runID string
	OccupancyRecord
}

// NewSQLiteWriter creates a writer for the database at path. Buffered rows
// are flushed when the program exits through atexit.
func NewSQLiteWriter(path string) *SQLiteWriter {
	w := &SQLiteWriter{
		path:      path,
		batchSize: 10000,
	}

	atexit.Register(func() {
		if err := w.Flush(); err != nil {
			logrus.Errorf("flushing trace database %s: %v", w.path, err)
		}
	})

	return w
}

// Init opens the database and creates the trace tables if needed.
func (w *SQLiteWriter) Init() error {
	db, err := sql.Open("sqlite3", w.path)
	if err != nil {
		return fmt.Errorf("open trace database %s: %w", w.path, err)
	}
	w.DB = db

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS transitions (
			run_id     TEXT    NOT NULL,
			process_id INTEGER NOT NULL,
			from_state TEXT    NOT NULL,
			to_state   TEXT    NOT NULL,
			clock      INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS occupancy (
			run_id     TEXT    NOT NULL,
			device     TEXT    NOT NULL,
			process_id INTEGER NOT NULL,
			clock      INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS transitions_run ON transitions (run_id, process_id)`,
	} {
		if _, err := w.Exec(stmt); err != nil {
			return fmt.Errorf("create trace tables: %w", err)
		}
	}
	return nil
}

// Write buffers every record of st, flushing when the batch is full.
func (w *SQLiteWriter) Write(st *SimulationTrace) error {
	for _, t := range st.Transitions {
		w.transitionsToWrite = append(w.transitionsToWrite, transitionRow{runID: st.RunID, TransitionRecord: t})
	}
	for _, o := range st.Occupancy {
		w.occupancyToWrite = append(w.occupancyToWrite, occupancyRow{runID: st.RunID, OccupancyRecord: o})
	}
	if len(w.transitionsToWrite)+len(w.occupancyToWrite) >= w.batchSize {
		return w.Flush()
	}
	return nil
}

// Flush writes all buffered rows in a single transaction.
func (w *SQLiteWriter) Flush() error {
	if w.closed || w.DB == nil {
		return nil
	}
	if len(w.transitionsToWrite) == 0 && len(w.occupancyToWrite) == 0 {
		return nil
	}

	tx, err := w.Begin()
	if err != nil {
		return fmt.Errorf("begin trace transaction: %w", err)
	}
	if err := w.insertAll(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit trace transaction: %w", err)
	}

	logrus.Debugf("wrote %d transitions and %d occupancy rows to %s",
		len(w.transitionsToWrite), len(w.occupancyToWrite), w.path)
	w.transitionsToWrite = nil
	w.occupancyToWrite = nil
	return nil
}

func (w *SQLiteWriter) insertAll(tx *sql.Tx) error {
	transitionStmt, err := tx.Prepare(
		`INSERT INTO transitions (run_id, process_id, from_state, to_state, clock) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare transition insert: %w", err)
	}
	defer transitionStmt.Close()

	for _, r := range w.transitionsToWrite {
		if _, err := transitionStmt.Exec(r.runID, r.ProcessID, r.From, r.To, r.Clock); err != nil {
			return fmt.Errorf("insert transition %+v: %w", r, err)
		}
	}

	occupancyStmt, err := tx.Prepare(
		`INSERT INTO occupancy (run_id, device, process_id, clock) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare occupancy insert: %w", err)
	}
	defer occupancyStmt.Close()

	for _, r := range w.occupancyToWrite {
		if _, err := occupancyStmt.Exec(r.runID, r.Device, r.ProcessID, r.Clock); err != nil {
			return fmt.Errorf("insert occupancy %+v: %w", r, err)
		}
	}
	return nil
}

// Close flushes pending rows and closes the database.
func (w *SQLiteWriter) Close() error {
	if w.closed || w.DB == nil {
		return nil
	}
	if err := w.Flush(); err != nil {
		return err
	}
	w.closed = true
	return w.DB.Close()
}
