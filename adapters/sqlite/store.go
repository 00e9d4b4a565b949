// Package sqlite persists per-trial study results to a file-backed SQLite
// database, one table per study label.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"mlstudy/domain/core"
)

// ExistsPolicy controls what Init does when the study's table is already
// present.
type ExistsPolicy string

const (
	// Fail refuses to touch an existing table.
	Fail ExistsPolicy = "fail"
	// Append reuses the existing table; rows from distinct runs are told
	// apart by run_id.
	Append ExistsPolicy = "append"
	// Replace drops and recreates the table.
	Replace ExistsPolicy = "replace"
)

// ParseExistsPolicy validates a config-supplied policy, defaulting to Fail.
func ParseExistsPolicy(s string) (ExistsPolicy, error) {
	switch ExistsPolicy(s) {
	case "":
		return Fail, nil
	case Fail, Append, Replace:
		return ExistsPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown on_exists policy %q (want fail, append or replace)", s)
	}
}

// Store writes result rows for one study run. Writes are mutex-guarded so
// concurrent trial workers can share it.
type Store struct {
	db      *sqlx.DB
	table   string
	tracked []string
	mu      sync.Mutex
}

// Open connects to the database file (created on first use) for the given
// study label. tracked lists the tracked metric column names in order.
func Open(path string, label core.StudyLabel, tracked []string) (*Store, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening result store %s: %w", path, err)
	}
	return &Store{db: db, table: label.TableName(), tracked: append([]string(nil), tracked...)}, nil
}

// column sanitizes a metric name into a SQL identifier.
func column(name string) string {
	return core.StudyLabel(name).TableName()
}

// Table returns the sanitized table name rows are written to.
func (s *Store) Table() string { return s.table }

// Init creates the study's table. An existing table is handled per policy:
// Fail surfaces core.ErrTableExists, Append leaves it in place, Replace
// drops and recreates it.
func (s *Store) Init(policy ExistsPolicy) error {
	exists, err := s.tableExists()
	if err != nil {
		return err
	}
	if exists {
		switch policy {
		case Append:
			return nil
		case Replace:
			if _, err := s.db.Exec(fmt.Sprintf("DROP TABLE %s", s.table)); err != nil {
				return fmt.Errorf("dropping table %s: %w", s.table, err)
			}
		default:
			return fmt.Errorf("%w: %s", core.ErrTableExists, s.table)
		}
	}

	cols := []string{
		"run_id TEXT NOT NULL",
		"replicate INTEGER NOT NULL",
		"trial INTEGER NOT NULL",
		"objective REAL NOT NULL",
	}
	for _, name := range s.tracked {
		cols = append(cols, column(name)+" REAL")
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", s.table, strings.Join(cols, ", "))
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("creating table %s: %w", s.table, err)
	}
	return nil
}

func (s *Store) tableExists() (bool, error) {
	var name string
	err := s.db.Get(&name,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", s.table)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("checking table %s: %w", s.table, err)
	}
	return true, nil
}

// Save appends one result row. Tracked metrics absent from the map store as
// NULL.
func (s *Store) Save(runID core.RunID, replicate, trial int, objective float64, tracked map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cols := []string{"run_id", "replicate", "trial", "objective"}
	args := []any{runID.String(), replicate, trial, objective}
	for _, name := range s.tracked {
		cols = append(cols, column(name))
		if v, ok := tracked[name]; ok {
			args = append(args, v)
		} else {
			args = append(args, nil)
		}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.table, strings.Join(cols, ", "), placeholders)
	if _, err := s.db.Exec(stmt, args...); err != nil {
		return fmt.Errorf("saving result row: %w", err)
	}
	return nil
}

// CountRows reports the number of rows currently in the study's table.
func (s *Store) CountRows() (int, error) {
	var n int
	if err := s.db.Get(&n, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)); err != nil {
		return 0, fmt.Errorf("counting rows in %s: %w", s.table, err)
	}
	return n, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
