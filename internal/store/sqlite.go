package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/obralex/obralex/internal/types"
	_ "modernc.org/sqlite"
)

// DefaultMaxRecordBytes caps a single project record's JSON payload.
// Evidence is embedded as base64, so records can balloon; writes above
// the cap are refused with ErrRecordTooLarge instead of being attempted.
const DefaultMaxRecordBytes = 8 << 20

// SQLiteStore is the SQLite-backed project store. Each project is kept
// as one JSON record plus a few extracted columns for listing.
type SQLiteStore struct {
	db             *sql.DB
	maxRecordBytes int
}

// NewSQLiteStore opens (creating if needed) the database at dbPath,
// applies pragmas and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, maxRecordBytes: DefaultMaxRecordBytes}, nil
}

// SetMaxRecordBytes overrides the record size cap. Zero disables it.
func (s *SQLiteStore) SetMaxRecordBytes(n int) {
	s.maxRecordBytes = n
}

// enablePragmas sets SQLite pragmas for performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) marshalPayload(p *types.Project) ([]byte, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}
	if s.maxRecordBytes > 0 && len(payload) > s.maxRecordBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrRecordTooLarge, len(payload), s.maxRecordBytes)
	}
	return payload, nil
}

// CreateProject inserts a new project record.
func (s *SQLiteStore) CreateProject(ctx context.Context, p *types.Project) error {
	payload, err := s.marshalPayload(p)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, modality, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Modality, string(payload),
		p.CreatedAt.UTC().Format(time.RFC3339), p.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrProjectExists, p.ID)
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetProject loads a project by id.
func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*types.Project, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM projects WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query project: %w", err)
	}

	var p types.Project
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, fmt.Errorf("parse project payload: %w", err)
	}
	return &p, nil
}

// ListProjects returns every project, newest first.
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]types.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT payload FROM projects ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []types.Project
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		var p types.Project
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, fmt.Errorf("parse project payload: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// SaveProject persists the full state of an existing project.
func (s *SQLiteStore) SaveProject(ctx context.Context, p *types.Project) error {
	p.UpdatedAt = time.Now().UTC()
	payload, err := s.marshalPayload(p)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, modality = ?, payload = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.Modality, string(payload), p.UpdatedAt.Format(time.RFC3339), p.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, p.ID)
	}
	return nil
}

// UpsertProject inserts or replaces a project by id. Used by import;
// reports whether a new record was created. The record's own timestamps
// are kept so an export/import round trip reproduces the project
// exactly; they are stamped only when missing.
func (s *SQLiteStore) UpsertProject(ctx context.Context, p *types.Project) (bool, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	payload, err := s.marshalPayload(p)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM projects WHERE id = ?)", p.ID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check project: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, modality, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			modality = excluded.modality,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, p.ID, p.Name, p.Modality, string(payload),
		p.CreatedAt.UTC().Format(time.RFC3339), p.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("upsert project: %w", err)
	}
	return !exists, nil
}

// SetActiveProject records the active-project selection. The project
// must exist.
func (s *SQLiteStore) SetActiveProject(ctx context.Context, id string) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM projects WHERE id = ?)", id).Scan(&exists); err != nil {
		return fmt.Errorf("check project: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_state (key, value) VALUES ('active_project_id', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, id)
	if err != nil {
		return fmt.Errorf("set active project: %w", err)
	}
	return nil
}

// ActiveProjectID returns the active project id, or "" when none is set.
func (s *SQLiteStore) ActiveProjectID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM app_state WHERE key = 'active_project_id'").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query active project: %w", err)
	}
	return id, nil
}

// GetStats returns aggregate store statistics.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM projects").Scan(&count); err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}
	return &Stats{ProjectCount: count}, nil
}

// isUniqueViolation detects a primary-key conflict without depending on
// driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
