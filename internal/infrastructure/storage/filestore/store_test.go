package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"token_portfolio/internal/app/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadMissing(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Load(context.Background(), "tokenPortfolio")
	assert.ErrorIs(t, err, port.ErrSnapshotNotFound)
}

func TestStore_SaveOverwritesAtomically(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s, err := New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "tokenPortfolio", []byte(`{"a":1}`)))
	require.NoError(t, s.Save(ctx, "tokenPortfolio", []byte(`{"a":2}`)))

	got, err := s.Load(ctx, "tokenPortfolio")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, "tokenPortfolio.json", entries[0].Name())
}

func TestStore_KeyCannotEscapeDir(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), "../escape", []byte(`{}`)))
	_, err = os.Stat(filepath.Join(dir, "escape.json"))
	assert.NoError(t, err)
}
