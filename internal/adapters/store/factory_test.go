package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-ai/agora/internal/config"
)

func TestNew_JSONBackend(t *testing.T) {
	s, err := New(config.StateConfig{Backend: "json", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, (*JSONStore)(nil), s)
	assert.NoError(t, CloseStore(s))
}

func TestNew_DefaultsToJSON(t *testing.T) {
	s, err := New(config.StateConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, (*JSONStore)(nil), s)
}

func TestNew_SQLiteBackend(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "agora.db")
	s, err := New(config.StateConfig{Backend: "sqlite", DSN: dsn})
	require.NoError(t, err)
	assert.IsType(t, (*SQLiteStore)(nil), s)
	require.NoError(t, CloseStore(s))
}

func TestNew_SQLiteAppendsExtension(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "state")
	s, err := New(config.StateConfig{Backend: "sqlite", DSN: dsn})
	require.NoError(t, err)
	sqlite := s.(*SQLiteStore)
	assert.Equal(t, dsn+".db", sqlite.dsn)
	require.NoError(t, CloseStore(s))
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(config.StateConfig{Backend: "redis"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown state backend")
}
