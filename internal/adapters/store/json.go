// Package store persists debate state. Two backends are provided: one file
// per debate under a directory (JSON), and a single SQLite database.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/agora-ai/agora/internal/core"
)

// JSONStore implements core.DebateStore with one JSON file per debate.
type JSONStore struct {
	dir string
}

// NewJSONStore creates a JSON store rooted at dir.
func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating debate directory: %w", err)
	}
	return &JSONStore{dir: dir}, nil
}

// debateEnvelope wraps state with integrity metadata.
type debateEnvelope struct {
	Version   int               `json:"version"`
	Checksum  string            `json:"checksum"`
	UpdatedAt time.Time         `json:"updated_at"`
	State     *core.DebateState `json:"state"`
}

// Save persists the debate atomically, keeping a .bak of the previous version.
func (s *JSONStore) Save(_ context.Context, state *core.DebateState) error {
	path, err := s.pathFor(state.ID)
	if err != nil {
		return err
	}

	// Back up the previous version before overwriting
	if prev, err := os.ReadFile(path); err == nil {
		if err := atomicWriteFile(path+".bak", prev, 0o644); err != nil {
			return fmt.Errorf("creating backup: %w", err)
		}
	}

	stateBytes, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling debate: %w", err)
	}
	hash := sha256.Sum256(stateBytes)

	envelope := debateEnvelope{
		Version:   1,
		Checksum:  hex.EncodeToString(hash[:]),
		UpdatedAt: time.Now(),
		State:     state,
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}

	if err := atomicWriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing debate file: %w", err)
	}
	return nil
}

// Load retrieves a debate, falling back to the backup on corruption.
func (s *JSONStore) Load(_ context.Context, id string) (*core.DebateState, error) {
	path, err := s.pathFor(id)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, core.ErrNotFound("debate", id)
	}

	state, err := loadFromPath(path)
	if err != nil {
		backup, backupErr := loadFromPath(path + ".bak")
		if backupErr != nil {
			return nil, core.ErrState(core.CodeStateCorrupted,
				fmt.Sprintf("loading debate %s: %v (backup also failed: %v)", id, err, backupErr))
		}
		return backup, nil
	}
	return state, nil
}

// List returns all debates, most recently updated first.
// Unreadable files are skipped: one corrupt debate must not hide the rest.
func (s *JSONStore) List(_ context.Context) ([]*core.DebateState, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading debate directory: %w", err)
	}

	var debates []*core.DebateState
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".bak") {
			continue
		}
		state, err := loadFromPath(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		debates = append(debates, state)
	}

	sort.Slice(debates, func(i, j int) bool {
		return debates[i].UpdatedAt.After(debates[j].UpdatedAt)
	})
	return debates, nil
}

// Delete removes a debate and its backup. Unknown IDs are not an error.
func (s *JSONStore) Delete(_ context.Context, id string) error {
	path, err := s.pathFor(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting debate file: %w", err)
	}
	if err := os.Remove(path + ".bak"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting debate backup: %w", err)
	}
	return nil
}

// Dir returns the storage directory.
func (s *JSONStore) Dir() string {
	return s.dir
}

// safeID guards against path traversal through debate IDs. IDs are UUIDs in
// practice, but the store does not trust its callers.
var safeID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func (s *JSONStore) pathFor(id string) (string, error) {
	if !safeID.MatchString(id) {
		return "", core.ErrState(core.CodeInvalidState, fmt.Sprintf("invalid debate ID %q", id))
	}
	return filepath.Join(s.dir, id+".json"), nil
}

func loadFromPath(path string) (*core.DebateState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var envelope debateEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshaling envelope: %w", err)
	}
	if envelope.State == nil {
		return nil, core.ErrState(core.CodeStateCorrupted, "envelope has no state")
	}

	stateBytes, err := json.Marshal(envelope.State)
	if err != nil {
		return nil, fmt.Errorf("marshaling state for checksum: %w", err)
	}
	hash := sha256.Sum256(stateBytes)
	if hex.EncodeToString(hash[:]) != envelope.Checksum {
		return nil, core.ErrState(core.CodeStateCorrupted, "checksum mismatch")
	}

	if err := envelope.State.Validate(); err != nil {
		return nil, err
	}
	return envelope.State, nil
}

// Verify that JSONStore implements core.DebateStore.
var _ core.DebateStore = (*JSONStore)(nil)
