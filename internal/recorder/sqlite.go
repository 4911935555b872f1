package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"

	"PegSim/internal/model"
	"PegSim/internal/runner"
)

// SQLiteRecorder persists runs, trial series and experiment outcomes to a
// SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *log.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *log.Logger) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so report queries can read while a scheduled batch writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if logger != nil {
		logger.Info("sqlite recorder opened", "path", dbPath)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			kind        TEXT NOT NULL,
			variant     TEXT,
			seed        INTEGER,
			asset       TEXT,
			params_json TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS trial_steps (
			run_id             TEXT NOT NULL,
			trial              INTEGER NOT NULL,
			step               INTEGER NOT NULL,
			reserve_price      REAL,
			cumulative_demand  REAL,
			reserve_quantity   REAL,
			reserve_value      REAL,
			stable_circulation REAL,
			bond_circulation   REAL,
			reserve_ratio      REAL,
			PRIMARY KEY (run_id, trial, step)
		)`,

		`CREATE TABLE IF NOT EXISTS trial_outcomes (
			run_id                     TEXT NOT NULL,
			trial                      INTEGER NOT NULL,
			steps                      INTEGER,
			reason                     TEXT,
			initial_price              REAL,
			initial_stable_circulation REAL,
			reserve_price              REAL,
			reserve_quantity           REAL,
			reserve_value              REAL,
			stable_circulation         REAL,
			bond_circulation           REAL,
			reserve_ratio              REAL,
			supply_drift               REAL,
			price_drift                REAL,
			violation                  TEXT,
			PRIMARY KEY (run_id, trial)
		)`,

		`CREATE TABLE IF NOT EXISTS trial_failures (
			run_id TEXT NOT NULL,
			trial  INTEGER NOT NULL,
			error  TEXT,
			PRIMARY KEY (run_id, trial)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	params, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	// SQLite integers are signed; the seed is stored bit-for-bit.
	_, err = r.db.Exec(`INSERT INTO runs
		(id, started_at, kind, variant, seed, asset, params_json)
		VALUES (?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.Unix(), run.Kind, run.Variant, int64(run.Seed),
		run.Params.Asset, string(params),
	)
	return err
}

func (r *SQLiteRecorder) RecordSeries(runID string, trial int, series []model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO trial_steps
		(run_id, trial, step, reserve_price, cumulative_demand, reserve_quantity,
		 reserve_value, stable_circulation, bond_circulation, reserve_ratio)
		VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range series {
		if _, err := stmt.Exec(runID, trial, s.Step, s.ReservePrice, s.CumulativeDemand,
			s.ReserveQuantity, s.ReserveValue, s.StableCirculation, s.BondCirculation,
			s.ReserveRatio); err != nil {
			return fmt.Errorf("insert step %d: %w", s.Step, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordOutcomes(runID string, res *runner.ExperimentResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO trial_outcomes
		(run_id, trial, steps, reason, initial_price, initial_stable_circulation,
		 reserve_price, reserve_quantity, reserve_value, stable_circulation,
		 bond_circulation, reserve_ratio, supply_drift, price_drift, violation)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range res.Outcomes {
		var violation string
		if o.Violation != nil {
			violation = o.Violation.Error()
		}
		t := o.Terminal
		if _, err := stmt.Exec(runID, o.Trial, o.Steps, string(o.Reason),
			o.Initial.ReservePrice, o.Initial.StableCirculation,
			t.ReservePrice, t.ReserveQuantity, t.ReserveValue, t.StableCirculation,
			t.BondCirculation, t.ReserveRatio, o.SupplyDrift(), o.PriceDrift(),
			violation); err != nil {
			return fmt.Errorf("insert outcome %d: %w", o.Trial, err)
		}
	}

	for _, f := range res.Failures {
		if _, err := tx.Exec(`INSERT INTO trial_failures (run_id, trial, error) VALUES (?,?,?)`,
			runID, f.Trial, f.Err.Error()); err != nil {
			return fmt.Errorf("insert failure %d: %w", f.Trial, err)
		}
	}
	return tx.Commit()
}

// LoadSeries reads back the recorded series of one trial in step order.
func (r *SQLiteRecorder) LoadSeries(runID string, trial int) ([]model.Snapshot, error) {
	rows, err := r.db.Query(`SELECT step, reserve_price, cumulative_demand, reserve_quantity,
		reserve_value, stable_circulation, bond_circulation, reserve_ratio
		FROM trial_steps WHERE run_id = ? AND trial = ? ORDER BY step`, runID, trial)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Snapshot
	for rows.Next() {
		var s model.Snapshot
		if err := rows.Scan(&s.Step, &s.ReservePrice, &s.CumulativeDemand, &s.ReserveQuantity,
			&s.ReserveValue, &s.StableCirculation, &s.BondCirculation, &s.ReserveRatio); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LoadOutcomes reads back the terminal states of an experiment in trial
// order. Only the fields needed for drift analysis are restored on Initial.
func (r *SQLiteRecorder) LoadOutcomes(runID string) ([]runner.Outcome, error) {
	rows, err := r.db.Query(`SELECT trial, steps, reason, initial_price, initial_stable_circulation,
		reserve_price, reserve_quantity, reserve_value, stable_circulation,
		bond_circulation, reserve_ratio
		FROM trial_outcomes WHERE run_id = ? ORDER BY trial`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []runner.Outcome
	for rows.Next() {
		var (
			o      runner.Outcome
			reason string
			t      = &o.Terminal
		)
		if err := rows.Scan(&o.Trial, &o.Steps, &reason, &o.Initial.ReservePrice,
			&o.Initial.StableCirculation, &t.ReservePrice, &t.ReserveQuantity, &t.ReserveValue,
			&t.StableCirculation, &t.BondCirculation, &t.ReserveRatio); err != nil {
			return nil, err
		}
		o.Reason = runner.Reason(reason)
		t.Step = o.Steps
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	if r.log != nil {
		r.log.Info("closing sqlite recorder")
	}
	return r.db.Close()
}
