package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound  = errors.New("project not found")
	ErrNameTaken = errors.New("project name already in use")
)

// stored project document with its bookkeeping
type Project struct {
	ID        uuid.UUID
	Name      string
	Document  []byte
	UpdatedAt time.Time
}

// sqlite database of named projects
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// opens or creates the database at path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps sqlite writes serialized
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		document BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_projects_updated_at ON projects(updated_at);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// inserts or updates the project with p.ID. A nil ID gets a fresh uuid.
func (s *Store) Save(ctx context.Context, p Project) (Project, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Name == "" {
		return Project{}, fmt.Errorf("project name is required")
	}
	p.UpdatedAt = s.now().UTC().Truncate(time.Second)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, document, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			document = excluded.document,
			updated_at = excluded.updated_at`,
		p.ID.String(), p.Name, p.Document, p.UpdatedAt.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return Project{}, fmt.Errorf("%w: %s", ErrNameTaken, p.Name)
		}
		return Project{}, fmt.Errorf("failed to save project %s: %w", p.Name, err)
	}
	return p, nil
}

// finds a project by name or id
func (s *Store) Load(ctx context.Context, ref string) (Project, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, document, updated_at FROM projects WHERE name = ? OR id = ?", ref, ref)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return Project{}, fmt.Errorf("failed to load project %s: %w", ref, err)
	}
	return p, nil
}

// projects without their documents, most recently updated first
func (s *Store) List(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, X'', updated_at FROM projects ORDER BY updated_at DESC, name")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to list projects: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, ref string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE name = ? OR id = ?", ref, ref)
	if err != nil {
		return fmt.Errorf("failed to delete project %s: %w", ref, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (Project, error) {
	var (
		p         Project
		id        string
		updatedAt int64
	)
	if err := row.Scan(&id, &p.Name, &p.Document, &updatedAt); err != nil {
		return Project{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Project{}, fmt.Errorf("invalid project id %q: %w", id, err)
	}
	p.ID = parsed
	p.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return p, nil
}
