package service

import (
	"sync"
	"time"

	"token_portfolio/internal/app/port"
	"token_portfolio/internal/domain/entity"
	"token_portfolio/internal/domain/portfolio"
)

// Action names a store mutation. Listeners use it to decide what to react to.
type Action string

const (
	ActionAddTokens       Action = "addTokens"
	ActionRemoveToken     Action = "removeToken"
	ActionSetHolding      Action = "setHolding"
	ActionSetLastUpdated  Action = "setLastUpdated"
	ActionSetCurrentPage  Action = "setCurrentPage"
	ActionSetItemsPerPage Action = "setItemsPerPage"
	ActionLoadFromStorage Action = "loadFromStorage"
)

// ChangeListener is called after every successful mutation with the new state.
// Listeners run in mutation order and must not call back into the store.
type ChangeListener func(action Action, state entity.PortfolioState)

// PortfolioStore holds the current PortfolioState and applies the pure reducers to it.
// Each mutation is atomic from the caller's point of view.
type PortfolioStore struct {
	mu    sync.RWMutex
	state entity.PortfolioState

	notifyMu  sync.Mutex
	listeners map[int]ChangeListener
	nextID    int

	now    func() time.Time
	logger port.Logger
}

// StoreOption customises a PortfolioStore.
type StoreOption func(*PortfolioStore)

// WithClock replaces time.Now, used to stamp LastUpdated.
func WithClock(now func() time.Time) StoreOption {
	return func(s *PortfolioStore) { s.now = now }
}

// NewPortfolioStore creates a store starting at initial.
func NewPortfolioStore(initial entity.PortfolioState, logger port.Logger, opts ...StoreOption) *PortfolioStore {
	s := &PortfolioStore{
		state:     initial.Clone(),
		listeners: make(map[int]ChangeListener),
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *PortfolioStore) State() entity.PortfolioState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe registers l and returns a function that removes it.
func (s *PortfolioStore) Subscribe(l ChangeListener) (unsubscribe func()) {
	s.notifyMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.notifyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.notifyMu.Lock()
			delete(s.listeners, id)
			s.notifyMu.Unlock()
		})
	}
}

// AddTokens appends ids not yet watched, each with a zero holding.
func (s *PortfolioStore) AddTokens(ids []string) entity.PortfolioState {
	next, _ := s.apply(ActionAddTokens, func(cur entity.PortfolioState) (entity.PortfolioState, error) {
		return portfolio.AddTokens(cur, ids), nil
	})
	return next
}

// RemoveToken drops id and its holding and pulls the page back into range.
func (s *PortfolioStore) RemoveToken(id string) entity.PortfolioState {
	next, _ := s.apply(ActionRemoveToken, func(cur entity.PortfolioState) (entity.PortfolioState, error) {
		return portfolio.RemoveToken(cur, id), nil
	})
	return next
}

// SetHolding rejects invalid amounts and unknown ids without touching state or notifying.
func (s *PortfolioStore) SetHolding(id string, amount float64) (entity.PortfolioState, error) {
	return s.apply(ActionSetHolding, func(cur entity.PortfolioState) (entity.PortfolioState, error) {
		return portfolio.SetHolding(cur, id, amount, s.now().UnixMilli())
	})
}

// SetLastUpdated overwrites the last refresh time.
func (s *PortfolioStore) SetLastUpdated(timestampMillis int64) entity.PortfolioState {
	next, _ := s.apply(ActionSetLastUpdated, func(cur entity.PortfolioState) (entity.PortfolioState, error) {
		return portfolio.SetLastUpdated(cur, timestampMillis), nil
	})
	return next
}

// SetCurrentPage sets the page cursor as given. Callers clamp it.
func (s *PortfolioStore) SetCurrentPage(page int) entity.PortfolioState {
	next, _ := s.apply(ActionSetCurrentPage, func(cur entity.PortfolioState) (entity.PortfolioState, error) {
		return portfolio.SetCurrentPage(cur, page), nil
	})
	return next
}

// SetItemsPerPage changes the page size and resets to the first page.
func (s *PortfolioStore) SetItemsPerPage(size int) (entity.PortfolioState, error) {
	return s.apply(ActionSetItemsPerPage, func(cur entity.PortfolioState) (entity.PortfolioState, error) {
		return portfolio.SetItemsPerPage(cur, size)
	})
}

// LoadFromStorage merges a restored snapshot over the current state.
func (s *PortfolioStore) LoadFromStorage(partial entity.PersistedSnapshot) (entity.PortfolioState, error) {
	return s.apply(ActionLoadFromStorage, func(cur entity.PortfolioState) (entity.PortfolioState, error) {
		return portfolio.LoadFromStorage(cur, partial)
	})
}

// apply runs reduce under the write lock. The notify lock is taken before the
// write lock is released so listeners observe mutations in order.
func (s *PortfolioStore) apply(action Action, reduce func(entity.PortfolioState) (entity.PortfolioState, error)) (entity.PortfolioState, error) {
	s.mu.Lock()
	next, err := reduce(s.state)
	if err != nil {
		cur := s.state.Clone()
		s.mu.Unlock()
		s.logger.Debug("Portfolio mutation rejected", "action", string(action), "error", err)
		return cur, err
	}
	s.state = next
	out := next.Clone()
	s.notifyMu.Lock()
	s.mu.Unlock()

	for _, l := range s.listeners {
		l(action, out.Clone())
	}
	s.notifyMu.Unlock()
	return out, nil
}
