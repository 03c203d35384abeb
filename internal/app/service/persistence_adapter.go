package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"token_portfolio/internal/app/port"
	"token_portfolio/internal/domain/entity"
	"token_portfolio/internal/infrastructure/metrics"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultSaveTimeout = time.Second

// persistedActions are the mutations that trigger a snapshot write.
// Restoring never writes back.
var persistedActions = map[Action]struct{}{
	ActionAddTokens:       {},
	ActionRemoveToken:     {},
	ActionSetHolding:      {},
	ActionSetLastUpdated:  {},
	ActionSetCurrentPage:  {},
	ActionSetItemsPerPage: {},
}

// IsPersisted reports whether a mutation of kind a is written to storage.
func IsPersisted(a Action) bool {
	_, ok := persistedActions[a]
	return ok
}

// PersistenceAdapter mirrors the persisted subset of the store into a SnapshotStorage.
// Storage failures are logged and counted, never returned to the mutation caller.
type PersistenceAdapter struct {
	storage     port.SnapshotStorage
	key         string
	saveTimeout time.Duration
	logger      port.Logger
	metrics     *metrics.Metrics

	restoreOnce sync.Once
}

// AdapterOption customises a PersistenceAdapter.
type AdapterOption func(*PersistenceAdapter)

// WithSaveTimeout bounds each write. The mutation that triggered it waits at most d.
func WithSaveTimeout(d time.Duration) AdapterOption {
	return func(p *PersistenceAdapter) {
		if d > 0 {
			p.saveTimeout = d
		}
	}
}

// NewPersistenceAdapter creates an adapter writing under key, entity.StorageKey when empty.
func NewPersistenceAdapter(storage port.SnapshotStorage, key string, logger port.Logger, m *metrics.Metrics, opts ...AdapterOption) *PersistenceAdapter {
	if key == "" {
		key = entity.StorageKey
	}
	p := &PersistenceAdapter{
		storage:     storage,
		key:         key,
		saveTimeout: defaultSaveTimeout,
		logger:      logger,
		metrics:     m,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Attach subscribes the adapter to store mutations.
func (p *PersistenceAdapter) Attach(store *PortfolioStore) (detach func()) {
	return store.Subscribe(p.OnChange)
}

// OnChange is a ChangeListener that saves the snapshot after persisted mutations.
// The write is synchronous and bounded by the save timeout.
func (p *PersistenceAdapter) OnChange(action Action, state entity.PortfolioState) {
	if !IsPersisted(action) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.saveTimeout)
	defer cancel()
	if err := p.Save(ctx, state); err != nil {
		p.logger.Error("Failed to persist portfolio snapshot; continuing in memory", "action", string(action), "error", err)
		p.metrics.PersistFailure("save")
	}
}

// Save serializes the persisted subset of state and writes it under the adapter key.
func (p *PersistenceAdapter) Save(ctx context.Context, state entity.PortfolioState) error {
	data, err := json.Marshal(entity.SnapshotOf(state))
	if err != nil {
		return err
	}
	return p.storage.Save(ctx, p.key, data)
}

// Restore reads the stored snapshot and feeds it to store.LoadFromStorage.
// Only the first call does anything. Absent, unreadable or malformed snapshots
// leave the store at its defaults.
func (p *PersistenceAdapter) Restore(ctx context.Context, store *PortfolioStore) {
	p.restoreOnce.Do(func() {
		p.restore(ctx, store)
	})
}

func (p *PersistenceAdapter) restore(ctx context.Context, store *PortfolioStore) {
	data, err := p.storage.Load(ctx, p.key)
	if errors.Is(err, port.ErrSnapshotNotFound) {
		p.logger.Info("No stored portfolio snapshot, starting from defaults", "key", p.key)
		return
	}
	if err != nil {
		p.logger.Error("Failed to read portfolio snapshot, starting from defaults", "key", p.key, "error", err)
		p.metrics.PersistFailure("restore")
		return
	}

	var partial entity.PersistedSnapshot
	if err := json.Unmarshal(data, &partial); err != nil {
		p.logger.Warn("Stored portfolio snapshot is not valid JSON, starting from defaults", "key", p.key, "error", err)
		p.metrics.PersistFailure("restore")
		return
	}
	state, err := store.LoadFromStorage(partial)
	if err != nil {
		p.logger.Warn("Stored portfolio snapshot rejected, starting from defaults", "key", p.key, "error", err)
		p.metrics.PersistFailure("restore")
		return
	}
	p.logger.Info("Portfolio restored", "key", p.key, "tokens", len(state.Watchlist))
}
