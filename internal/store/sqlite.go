package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nsiona/tvb-framework/internal/burst"
	"github.com/nsiona/tvb-framework/internal/datatype"
)

// SQLiteStore persists everything as JSON payload rows, one table per
// entity, upserting on GID.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveConnectivity(ctx context.Context, c *datatype.Connectivity) error {
	return s.savePayload(ctx, "connectivities", c.GID, c.Project, c.Created, c)
}

func (s *SQLiteStore) Connectivity(ctx context.Context, gid string) (*datatype.Connectivity, error) {
	var c datatype.Connectivity
	if err := s.loadPayload(ctx, "connectivities", gid, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) SaveSurface(ctx context.Context, surf *datatype.Surface) error {
	return s.savePayload(ctx, "surfaces", surf.GID, surf.Project, surf.Created, surf)
}

func (s *SQLiteStore) Surface(ctx context.Context, gid string) (*datatype.Surface, error) {
	var surf datatype.Surface
	if err := s.loadPayload(ctx, "surfaces", gid, &surf); err != nil {
		return nil, err
	}
	return &surf, nil
}

func (s *SQLiteStore) SaveBurst(ctx context.Context, cfg *burst.Configuration) error {
	return s.savePayload(ctx, "bursts", cfg.ID, cfg.Project, cfg.Created, cfg)
}

func (s *SQLiteStore) Burst(ctx context.Context, id string) (*burst.Configuration, error) {
	var cfg burst.Configuration
	if err := s.loadPayload(ctx, "bursts", id, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *SQLiteStore) Bursts(ctx context.Context, project string) ([]*burst.Configuration, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT payload FROM bursts WHERE project = ? ORDER BY created DESC, gid`, project)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*burst.Configuration, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var cfg burst.Configuration
		if err := json.Unmarshal(payload, &cfg); err != nil {
			return nil, fmt.Errorf("decode burst row: %w", err)
		}
		out = append(out, &cfg)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteBurst(ctx context.Context, id string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, `DELETE FROM bursts WHERE gid = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) savePayload(ctx context.Context, table, gid, project string, created time.Time, entity any) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(entity)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO `+table+` (gid, project, created, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(gid) DO UPDATE SET
			project = excluded.project,
			created = excluded.created,
			payload = excluded.payload
	`, gid, project, created.UTC().Format(time.RFC3339Nano), payload)
	return err
}

func (s *SQLiteStore) loadPayload(ctx context.Context, table, gid string, entity any) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM `+table+` WHERE gid = ?`, gid).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := json.Unmarshal(payload, entity); err != nil {
		return fmt.Errorf("decode %s %s: %w", table, gid, err)
	}
	return nil
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS connectivities (
			gid TEXT PRIMARY KEY,
			project TEXT NOT NULL,
			created TEXT NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS surfaces (
			gid TEXT PRIMARY KEY,
			project TEXT NOT NULL,
			created TEXT NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS bursts (
			gid TEXT PRIMARY KEY,
			project TEXT NOT NULL,
			created TEXT NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
