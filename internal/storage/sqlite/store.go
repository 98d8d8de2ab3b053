// Package sqlite persists lint report history in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/lessonlint/lessonlint/internal/report"
	"github.com/lessonlint/lessonlint/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store keeps completed reports in a SQLite database.
type Store struct {
	sqlDB *sql.DB
}

// Summary is a report row without the full findings payload.
type Summary struct {
	ID           string    `json:"report_id"`
	CreatedAt    time.Time `json:"created_at"`
	Passed       bool      `json:"passed"`
	Files        int       `json:"files"`
	Errors       int       `json:"errors"`
	Warnings     int       `json:"warnings"`
	Infos        int       `json:"infos"`
	QuizBlocks   int       `json:"quiz_blocks"`
	LinksChecked int       `json:"links_checked"`
	LinksBroken  int       `json:"links_broken"`
}

// Open opens the report store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveReport inserts one completed report.
func (s *Store) SaveReport(ctx context.Context, r *report.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if r == nil || strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("report id is required")
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	createdAt := r.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO reports (
		   id, created_at, passed, files, errors, warnings, infos,
		   quiz_blocks, links_checked, links_broken, payload
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		createdAt.UnixMilli(),
		boolToInt(r.Passed),
		len(r.Files),
		r.Summary.Errors,
		r.Summary.Warnings,
		r.Summary.Infos,
		r.QuizBlocks,
		r.LinksChecked,
		r.LinksBroken,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", r.ID, err)
	}
	return nil
}

// GetReport loads a full report by id. Returns (nil, nil) when absent.
func (s *Store) GetReport(ctx context.Context, id string) (*report.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	var payload string
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT payload FROM reports WHERE id = ?`,
		id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query report %s: %w", id, err)
	}

	var r report.Report
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", id, err)
	}
	return &r, nil
}

// ListReports returns the most recent report summaries.
func (s *Store) ListReports(ctx context.Context, limit int) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, created_at, passed, files, errors, warnings, infos,
		        quiz_blocks, links_checked, links_broken
		 FROM reports
		 ORDER BY created_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var createdAt int64
		var passed int
		if err := rows.Scan(
			&sum.ID, &createdAt, &passed, &sum.Files,
			&sum.Errors, &sum.Warnings, &sum.Infos,
			&sum.QuizBlocks, &sum.LinksChecked, &sum.LinksBroken,
		); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		sum.CreatedAt = time.UnixMilli(createdAt).UTC()
		sum.Passed = passed != 0
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
