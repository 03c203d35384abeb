package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"token_portfolio/internal/domain/entity"
	"token_portfolio/internal/infrastructure/storage/memstore"
	"token_portfolio/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPersisted(t *testing.T) {
	for _, a := range []Action{ActionAddTokens, ActionRemoveToken, ActionSetHolding, ActionSetLastUpdated, ActionSetCurrentPage, ActionSetItemsPerPage} {
		assert.True(t, IsPersisted(a), a)
	}
	assert.False(t, IsPersisted(ActionLoadFromStorage))
}

func TestPersistence_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()

	s := newTestStore()
	p := NewPersistenceAdapter(mem, "", logger.NewNop(), nil)
	p.Attach(s)

	s.AddTokens([]string{"tether", "ripple", "stellar"})
	_, err := s.SetHolding("tether", 12.5)
	require.NoError(t, err)
	s.RemoveToken("dogecoin")
	_, err = s.SetItemsPerPage(10)
	require.NoError(t, err)
	s.SetCurrentPage(2)
	want := s.State()

	restored := NewPortfolioStore(entity.DefaultPortfolioState(), logger.NewNop())
	NewPersistenceAdapter(mem, entity.StorageKey, logger.NewNop(), nil).Restore(ctx, restored)

	assert.Equal(t, want, restored.State())
}

func TestPersistence_EmptyWatchlistRoundTrips(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	s := newTestStore()
	NewPersistenceAdapter(mem, "", logger.NewNop(), nil).Attach(s)

	for _, id := range s.State().Watchlist {
		s.RemoveToken(id)
	}
	require.Empty(t, s.State().Watchlist)

	restored := NewPortfolioStore(entity.DefaultPortfolioState(), logger.NewNop())
	NewPersistenceAdapter(mem, "", logger.NewNop(), nil).Restore(ctx, restored)

	assert.Empty(t, restored.State().Watchlist)
	assert.Empty(t, restored.State().Holdings)
}

func TestPersistence_PartialBlobMergesOverDefaults(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	require.NoError(t, mem.Save(ctx, entity.StorageKey, []byte(`{"holdings":{"bitcoin":1}}`)))

	s := NewPortfolioStore(entity.DefaultPortfolioState(), logger.NewNop())
	NewPersistenceAdapter(mem, "", logger.NewNop(), nil).Restore(ctx, s)

	st := s.State()
	assert.Equal(t, entity.DefaultPortfolioState().Watchlist, st.Watchlist)
	assert.Equal(t, 1.0, st.Holdings["bitcoin"])
	assert.Len(t, st.Holdings, len(st.Watchlist))
	assert.Equal(t, 0.0, st.Holdings["ethereum"])
}

func TestPersistence_MalformedFallsBackToDefaults(t *testing.T) {
	blobs := []string{
		`{not json`,
		`{"watchlist":["bitcoin","bitcoin"]}`,
		`{"holdings":{"bitcoin":-4}}`,
		`{"itemsPerPage":0}`,
		`[1,2,3]`,
	}
	for _, blob := range blobs {
		t.Run(blob, func(t *testing.T) {
			ctx := context.Background()
			mem := memstore.New()
			require.NoError(t, mem.Save(ctx, entity.StorageKey, []byte(blob)))

			s := NewPortfolioStore(entity.DefaultPortfolioState(), logger.NewNop())
			NewPersistenceAdapter(mem, "", logger.NewNop(), nil).Restore(ctx, s)

			assert.Equal(t, entity.DefaultPortfolioState(), s.State())
		})
	}
}

func TestPersistence_RestoreRunsOnce(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	p := NewPersistenceAdapter(mem, "", logger.NewNop(), nil)
	s := NewPortfolioStore(entity.DefaultPortfolioState(), logger.NewNop())

	p.Restore(ctx, s)
	require.NoError(t, mem.Save(ctx, entity.StorageKey, []byte(`{"watchlist":["tether"],"holdings":{}}`)))
	p.Restore(ctx, s)

	assert.Equal(t, entity.DefaultPortfolioState().Watchlist, s.State().Watchlist)
}

func TestPersistence_RestoreDoesNotWriteBack(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()
	require.NoError(t, mem.Save(ctx, entity.StorageKey, []byte(`{"holdings":{"bitcoin":1}}`)))

	s := NewPortfolioStore(entity.DefaultPortfolioState(), logger.NewNop())
	p := NewPersistenceAdapter(mem, "", logger.NewNop(), nil)
	p.Attach(s)
	p.Restore(ctx, s)

	raw, err := mem.Load(ctx, entity.StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"holdings":{"bitcoin":1}}`, string(raw))
}

func TestPersistence_SaveFailureIsSwallowed(t *testing.T) {
	store := &failingStorage{err: errors.New("quota exceeded")}
	s := newTestStore()
	NewPersistenceAdapter(store, "", logger.NewNop(), nil).Attach(s)

	st := s.AddTokens([]string{"tether"})

	assert.Contains(t, st.Watchlist, "tether")
	assert.Contains(t, s.State().Watchlist, "tether")
	assert.Equal(t, int32(1), store.saves.Load())
}

func TestPersistence_HungBackendBoundedBySaveTimeout(t *testing.T) {
	s := newTestStore()
	NewPersistenceAdapter(hangingStorage{}, "", logger.NewNop(), nil, WithSaveTimeout(20*time.Millisecond)).Attach(s)

	start := time.Now()
	st := s.AddTokens([]string{"tether"})

	assert.Less(t, time.Since(start), time.Second)
	assert.Contains(t, st.Watchlist, "tether")
}

func TestPersistence_RejectedMutationDoesNotWrite(t *testing.T) {
	store := &failingStorage{err: errors.New("unused")}
	s := newTestStore()
	NewPersistenceAdapter(store, "", logger.NewNop(), nil).Attach(s)

	_, err := s.SetHolding("bitcoin", -1)

	assert.Error(t, err)
	assert.Zero(t, store.saves.Load())
}

func TestPersistence_ReadFailureKeepsDefaults(t *testing.T) {
	s := NewPortfolioStore(entity.DefaultPortfolioState(), logger.NewNop())
	NewPersistenceAdapter(&failingStorage{err: errors.New("disk gone")}, "", logger.NewNop(), nil).Restore(context.Background(), s)

	assert.Equal(t, entity.DefaultPortfolioState(), s.State())
}
