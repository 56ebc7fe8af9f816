package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/baldhumanity/neat-grid/neat"
)

// SQLiteStore keeps innovation state and the champion archive in a SQLite
// database.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore returns a store for the database at path. Call Init before
// use.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Init opens the database and creates missing tables. It is a no-op when
// already initialized.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

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

// LoadInnovations reads the stored registry state. The InnovationStore
// contract carries no context, so the query runs unbounded.
func (s *SQLiteStore) LoadInnovations() (neat.InnovationState, error) {
	db, err := s.getDB()
	if err != nil {
		return neat.InnovationState{}, err
	}

	var payload []byte
	err = db.QueryRowContext(context.Background(),
		`SELECT payload FROM innovation_state WHERE id = 1`).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return neat.InnovationState{}, neat.ErrStateNotFound
		}
		return neat.InnovationState{}, err
	}

	state, err := neat.DecodeInnovationState(bytes.NewReader(payload))
	if err != nil {
		return neat.InnovationState{}, fmt.Errorf("decode innovation state: %w", err)
	}
	return state, nil
}

// SaveInnovations replaces the stored registry state.
func (s *SQLiteStore) SaveInnovations(state neat.InnovationState) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := neat.EncodeInnovationState(&buf, state); err != nil {
		return fmt.Errorf("encode innovation state: %w", err)
	}

	_, err = db.ExecContext(context.Background(), `
		INSERT INTO innovation_state (id, payload, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, buf.Bytes(), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// SaveChampion stores a champion, replacing any record with the same id.
func (s *SQLiteStore) SaveChampion(ctx context.Context, champion Champion) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	if champion.Genome == nil {
		return errors.New("champion genome is required")
	}

	payload, err := json.Marshal(champion.Genome)
	if err != nil {
		return fmt.Errorf("encode champion genome %d: %w", champion.Genome.Key, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO champions (id, run_id, generation, fitness, saved_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			generation = excluded.generation,
			fitness = excluded.fitness,
			saved_at = excluded.saved_at,
			payload = excluded.payload
	`, champion.ID.String(), champion.RunID.String(), champion.Generation, champion.Fitness,
		champion.SavedAt.UTC().Format(time.RFC3339Nano), payload)
	return err
}

// Champions returns the champions of a run ordered by generation.
func (s *SQLiteStore) Champions(ctx context.Context, runID uuid.UUID) ([]Champion, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, generation, fitness, saved_at, payload
		FROM champions
		WHERE run_id = ?
		ORDER BY generation ASC, saved_at ASC
	`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var champions []Champion
	for rows.Next() {
		var (
			id      string
			savedAt string
			payload []byte
			c       = Champion{RunID: runID}
		)
		if err := rows.Scan(&id, &c.Generation, &c.Fitness, &savedAt, &payload); err != nil {
			return nil, err
		}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse champion id %q: %w", id, err)
		}
		if c.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
			return nil, fmt.Errorf("parse champion %s timestamp: %w", id, err)
		}
		var g neat.Genome
		if err := json.Unmarshal(payload, &g); err != nil {
			return nil, fmt.Errorf("decode champion %s genome: %w", id, err)
		}
		c.Genome = &g
		champions = append(champions, c)
	}
	return champions, rows.Err()
}

// Close closes the database.
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

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS innovation_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			payload BLOB NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS champions (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			fitness REAL NOT NULL,
			saved_at TEXT NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS champions_run_idx ON champions (run_id, generation);
	`)
	return err
}
