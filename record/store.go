package record

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"carrental/mdp"
	"carrental/solver"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
)

// Store keeps the results of many runs in one SQLite database.
type Store struct {
	*sql.DB
}

func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}

	s := &Store{DB: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			max_cars INTEGER NOT NULL,
			params TEXT NOT NULL,
			iterations INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS policies (
			run_id TEXT NOT NULL,
			iteration INTEGER NOT NULL,
			first INTEGER NOT NULL,
			second INTEGER NOT NULL,
			action INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS "values" (
			run_id TEXT NOT NULL,
			first INTEGER NOT NULL,
			second INTEGER NOT NULL,
			value REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sweeps (
			run_id TEXT NOT NULL,
			iteration INTEGER NOT NULL,
			sweep INTEGER NOT NULL,
			max_change REAL NOT NULL
		)`,
	}
	for _, statement := range statements {
		if _, err := s.Exec(statement); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Save writes a finished run in a single transaction.
func (s *Store) Save(runID string, params mdp.Params, rec *solver.Recorder) error {
	if rec.Values == nil {
		return fmt.Errorf("run %s has no converged values", runID)
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}

	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs (id, created_at, max_cars, params, iterations) VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339), params.MaxCars, string(encoded), len(rec.Improvements))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	policyStatement, err := tx.Prepare(`INSERT INTO policies (run_id, iteration, first, second, action) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare policy statement: %w", err)
	}
	defer policyStatement.Close()
	for _, snapshot := range rec.Policies {
		for first, row := range snapshot.Policy.Rows() {
			for second, action := range row {
				if _, err := policyStatement.Exec(runID, snapshot.Iteration, first, second, action); err != nil {
					return fmt.Errorf("failed to insert policy: %w", err)
				}
			}
		}
	}

	valueStatement, err := tx.Prepare(`INSERT INTO "values" (run_id, first, second, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare value statement: %w", err)
	}
	defer valueStatement.Close()
	for first, row := range rec.Values.Rows() {
		for second, value := range row {
			if _, err := valueStatement.Exec(runID, first, second, value); err != nil {
				return fmt.Errorf("failed to insert value: %w", err)
			}
		}
	}

	sweepStatement, err := tx.Prepare(`INSERT INTO sweeps (run_id, iteration, sweep, max_change) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare sweep statement: %w", err)
	}
	defer sweepStatement.Close()
	for _, sweep := range rec.Sweeps {
		if _, err := sweepStatement.Exec(runID, sweep.Iteration, sweep.Sweep, sweep.MaxChange); err != nil {
			return fmt.Errorf("failed to insert sweep: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", runID, err)
	}
	return nil
}

// LoadPolicy reads back the policy evaluated in the given iteration of a run.
func (s *Store) LoadPolicy(runID string, iteration int) (*solver.PolicyTable, error) {
	var maxCars int
	err := s.QueryRow(`SELECT max_cars FROM runs WHERE id = ?`, runID).Scan(&maxCars)
	if err != nil {
		return nil, fmt.Errorf("failed to find run %s: %w", runID, err)
	}

	rows, err := s.Query(`SELECT first, second, action FROM policies WHERE run_id = ? AND iteration = ?`, runID, iteration)
	if err != nil {
		return nil, fmt.Errorf("failed to query policy: %w", err)
	}
	defer rows.Close()

	policy := solver.NewPolicyTable(maxCars)
	count := 0
	for rows.Next() {
		var first, second, action int
		if err := rows.Scan(&first, &second, &action); err != nil {
			return nil, fmt.Errorf("failed to scan policy row: %w", err)
		}
		policy.Set(mdp.State{First: first, Second: second}, mdp.Action(action))
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read policy rows: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("run %s has no policy for iteration %d", runID, iteration)
	}
	return policy, nil
}
