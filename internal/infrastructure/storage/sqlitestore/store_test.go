package sqlitestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"token_portfolio/internal/app/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "portfolio.db")
	s, err := New(path)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	_, err = s.Load(ctx, "tokenPortfolio")
	assert.ErrorIs(t, err, port.ErrSnapshotNotFound)

	require.NoError(t, s.Save(ctx, "tokenPortfolio", []byte(`{"v":1}`)))
	require.NoError(t, s.Save(ctx, "tokenPortfolio", []byte(`{"v":2}`)))

	got, err := s.Load(ctx, "tokenPortfolio")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(got))
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.db")
	ctx := context.Background()

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "tokenPortfolio", []byte(`{"v":3}`)))
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load(ctx, "tokenPortfolio")
	require.NoError(t, err)
	assert.Equal(t, `{"v":3}`, string(got))
}

func TestNew_DirectoryCreationFails(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s, err := New(filepath.Join(blocker, "db", "portfolio.db"))

	require.Error(t, err)
	assert.Nil(t, s)
	assert.Contains(t, err.Error(), "failed to create sqlite dir")
}
