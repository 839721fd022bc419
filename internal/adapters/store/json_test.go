package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-ai/agora/internal/core"
	"github.com/agora-ai/agora/internal/testutil"
)

func TestJSONStore_SaveLoad(t *testing.T) {
	s, err := NewJSONStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	debate := testutil.NewTestDebate(testutil.WithHistory(3))

	require.NoError(t, s.Save(ctx, debate))

	loaded, err := s.Load(ctx, debate.ID)
	require.NoError(t, err)
	assert.Equal(t, debate.ID, loaded.ID)
	assert.Equal(t, debate.Topic, loaded.Topic)
	assert.Equal(t, debate.Stance, loaded.Stance)
	assert.Len(t, loaded.History, 3)
	assert.Equal(t, debate.RoundCount, loaded.RoundCount)
	assert.Equal(t, debate.CurrentSide, loaded.CurrentSide)
}

func TestJSONStore_LoadMissing(t *testing.T) {
	s, err := NewJSONStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Load(context.Background(), "no-such-debate")
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatNotFound))
}

func TestJSONStore_CorruptFileFallsBackToBackup(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	debate := testutil.NewTestDebate()

	// Two saves so a .bak of the first version exists
	require.NoError(t, s.Save(ctx, debate))
	require.NoError(t, s.Save(ctx, debate))

	path := filepath.Join(dir, debate.ID+".json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	loaded, err := s.Load(ctx, debate.ID)
	require.NoError(t, err)
	assert.Equal(t, debate.ID, loaded.ID)
}

func TestJSONStore_CorruptFileNoBackup(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONStore(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "deb-broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err = s.Load(context.Background(), "deb-broken")
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatState))
}

func TestJSONStore_ChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	debate := testutil.NewTestDebate()
	require.NoError(t, s.Save(ctx, debate))

	// Tamper with the stored topic without updating the checksum
	path := filepath.Join(dir, debate.ID+".json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := bytes.Replace(data, []byte(debate.Topic), []byte("a different topic entirely"), 1)
	require.NoError(t, os.WriteFile(path, tampered, 0o644))

	_, err = s.Load(ctx, debate.ID)
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatState))
}

func TestJSONStore_ListSortedByUpdate(t *testing.T) {
	s, err := NewJSONStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	first := testutil.NewTestDebate(testutil.WithID("deb-first"))
	second := testutil.NewTestDebate(testutil.WithID("deb-second"))

	require.NoError(t, s.Save(ctx, first))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.Save(ctx, second))

	debates, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, debates, 2)
	assert.Equal(t, "deb-second", debates[0].ID)
	assert.Equal(t, "deb-first", debates[1].ID)
}

func TestJSONStore_ListSkipsCorrupt(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, testutil.NewTestDebate(testutil.WithID("deb-good"))))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deb-bad.json"), []byte("junk"), 0o644))

	debates, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, debates, 1)
	assert.Equal(t, "deb-good", debates[0].ID)
}

func TestJSONStore_Delete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	debate := testutil.NewTestDebate()
	require.NoError(t, s.Save(ctx, debate))
	require.NoError(t, s.Save(ctx, debate)) // creates the backup too

	require.NoError(t, s.Delete(ctx, debate.ID))

	_, err = s.Load(ctx, debate.ID)
	assert.True(t, core.IsCategory(err, core.ErrCatNotFound))
	_, statErr := os.Stat(filepath.Join(dir, debate.ID+".json.bak"))
	assert.True(t, os.IsNotExist(statErr))

	// Deleting again is not an error
	assert.NoError(t, s.Delete(ctx, debate.ID))
}

func TestJSONStore_RejectsUnsafeID(t *testing.T) {
	s, err := NewJSONStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Load(context.Background(), "../escape")
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatState))
}
