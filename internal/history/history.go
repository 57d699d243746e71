// Package history persists evaluation reports in a local SQLite database.
// The log is append only: reports are written once and never updated or
// deleted, so past sessions stay exactly as they were scored.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/knowlumi/interview-panel/internal/evaluation"
)

const schema = `
	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sessionId TEXT NOT NULL,
		candidate TEXT NOT NULL,
		createdAt TEXT NOT NULL,
		avgScore REAL NOT NULL,
		verdict TEXT NOT NULL,
		payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS reports_session ON reports(sessionId);
`

// Store is the SQLite-backed report log.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default database location under the user home.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".interview-panel", "history.sqlite")
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendReport writes one evaluation report. The full report is stored as a
// JSON payload next to the indexed summary columns.
func (s *Store) AppendReport(ctx context.Context, report evaluation.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (sessionId, candidate, createdAt, avgScore, verdict, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`, report.SessionID, report.Candidate, report.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
		report.AvgScore, report.Verdict, string(payload))
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// ListReports returns the most recent reports, newest first. A limit of zero
// or less returns everything.
func (s *Store) ListReports(ctx context.Context, limit int) ([]evaluation.Report, error) {
	query := `SELECT payload FROM reports ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var reports []evaluation.Report
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		var report evaluation.Report
		if err := json.Unmarshal([]byte(payload), &report); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// SessionReport returns the report for a session, or nil when none exists.
func (s *Store) SessionReport(ctx context.Context, sessionID string) (*evaluation.Report, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT payload FROM reports WHERE sessionId = ? ORDER BY id DESC LIMIT 1
	`, sessionID)

	var payload string
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}

	var report evaluation.Report
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}
