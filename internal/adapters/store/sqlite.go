package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/agora-ai/agora/internal/core"
	_ "modernc.org/sqlite"
)

//go:embed migrations/001_initial_schema.sql
var migrationV1 string

// SQLiteStore implements core.DebateStore on top of a single SQLite file
// opened in WAL mode. Each debate is one row; the transcript and stance are
// stored as JSON columns so the schema stays stable as the core types grow.
type SQLiteStore struct {
	dsn string
	db  *sql.DB
	mu  sync.RWMutex
}

// NewSQLiteStore opens (or creates) the database at dsn and applies pending
// migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{dsn: dsn, db: db}
	if err := s.migrate(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		// Table doesn't exist yet, run initial migration.
		version = 0
	}

	if version < 1 {
		if _, err := s.db.Exec(migrationV1); err != nil {
			return fmt.Errorf("applying migration v1: %w", err)
		}
	}
	return nil
}

// Save upserts the debate row in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, state *core.DebateState) error {
	if err := state.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state.UpdatedAt = time.Now()

	checksum, err := stateChecksum(state)
	if err != nil {
		return err
	}

	stanceJSON, err := json.Marshal(state.Stance)
	if err != nil {
		return fmt.Errorf("marshaling stance: %w", err)
	}
	historyJSON, err := json.Marshal(state.History)
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	activeInt := 0
	if state.Active {
		activeInt = 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO debates (
			id, topic, stance, history, current_side, round_count,
			max_rounds, active, phase, final_summary, checksum,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			topic = excluded.topic,
			stance = excluded.stance,
			history = excluded.history,
			current_side = excluded.current_side,
			round_count = excluded.round_count,
			max_rounds = excluded.max_rounds,
			active = excluded.active,
			phase = excluded.phase,
			final_summary = excluded.final_summary,
			checksum = excluded.checksum,
			updated_at = excluded.updated_at
	`,
		state.ID, state.Topic, string(stanceJSON), string(historyJSON),
		string(state.CurrentSide), state.RoundCount, state.MaxRounds,
		activeInt, string(state.Phase), state.FinalSummary, checksum,
		state.CreatedAt, state.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting debate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Load retrieves one debate by ID.
func (s *SQLiteStore) Load(ctx context.Context, id string) (*core.DebateState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, topic, stance, history, current_side, round_count,
		       max_rounds, active, phase, final_summary, checksum,
		       created_at, updated_at
		FROM debates WHERE id = ?
	`, id)

	state, err := scanDebate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound("debate", id)
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// List returns all stored debates, most recently updated first.
func (s *SQLiteStore) List(ctx context.Context) ([]*core.DebateState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, topic, stance, history, current_side, round_count,
		       max_rounds, active, phase, final_summary, checksum,
		       created_at, updated_at
		FROM debates ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying debates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var states []*core.DebateState
	for rows.Next() {
		state, err := scanDebate(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating debates: %w", err)
	}
	return states, nil
}

// Delete removes a debate. Deleting an unknown ID is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM debates WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting debate: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDebate(row rowScanner) (*core.DebateState, error) {
	var (
		state        core.DebateState
		stanceJSON   string
		historyJSON  string
		currentSide  string
		phase        string
		activeInt    int
		finalSummary sql.NullString
		checksum     string
	)
	err := row.Scan(
		&state.ID, &state.Topic, &stanceJSON, &historyJSON, &currentSide,
		&state.RoundCount, &state.MaxRounds, &activeInt, &phase,
		&finalSummary, &checksum, &state.CreatedAt, &state.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(stanceJSON), &state.Stance); err != nil {
		return nil, core.ErrState(core.CodeStateCorrupted,
			fmt.Sprintf("debate %s: unreadable stance: %v", state.ID, err))
	}
	if err := json.Unmarshal([]byte(historyJSON), &state.History); err != nil {
		return nil, core.ErrState(core.CodeStateCorrupted,
			fmt.Sprintf("debate %s: unreadable history: %v", state.ID, err))
	}
	state.CurrentSide = core.Side(currentSide)
	state.Phase = core.DebatePhase(phase)
	state.Active = activeInt == 1
	state.FinalSummary = finalSummary.String

	if err := state.Validate(); err != nil {
		return nil, core.ErrState(core.CodeStateCorrupted,
			fmt.Sprintf("debate %s: invalid state: %v", state.ID, err))
	}
	return &state, nil
}

func stateChecksum(state *core.DebateState) (string, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("marshaling state for checksum: %w", err)
	}
	hash := sha256.Sum256(payload)
	return hex.EncodeToString(hash[:]), nil
}

var _ core.DebateStore = (*SQLiteStore)(nil)
