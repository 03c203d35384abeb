// Package portfolio holds the pure state transitions of the portfolio store.
// Every function takes a state snapshot and returns a new one; inputs are never mutated.
package portfolio

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"token_portfolio/internal/domain/entity"
	"token_portfolio/internal/domain/pagination"
)

var (
	// ErrInvalidHolding is returned for amounts that are NaN, infinite or negative.
	ErrInvalidHolding = errors.New("holding amount must be a finite number >= 0")
	// ErrUnknownToken is returned when a holding targets an id outside the watchlist.
	ErrUnknownToken = errors.New("token is not in the watchlist")
	// ErrInvalidPageSize is returned for non-positive page sizes.
	ErrInvalidPageSize = errors.New("items per page must be positive")
	// ErrMalformedSnapshot is returned when restored state violates the state invariants.
	ErrMalformedSnapshot = errors.New("malformed portfolio snapshot")
)

// AddTokens appends every id not yet in the watchlist and initialises its holding to 0.
// Ids already present keep their position and holding. Blank ids are skipped.
func AddTokens(s entity.PortfolioState, ids []string) entity.PortfolioState {
	next := s.Clone()
	present := make(map[string]struct{}, len(next.Watchlist))
	for _, id := range next.Watchlist {
		present[id] = struct{}{}
	}

	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, ok := present[id]; ok {
			continue
		}
		present[id] = struct{}{}
		next.Watchlist = append(next.Watchlist, id)
		if _, ok := next.Holdings[id]; !ok {
			next.Holdings[id] = 0
		}
	}
	return next
}

// RemoveToken drops id and its holding, then pulls the page cursor back inside the page range.
func RemoveToken(s entity.PortfolioState, id string) entity.PortfolioState {
	next := s.Clone()
	kept := next.Watchlist[:0]
	for _, w := range next.Watchlist {
		if w != id {
			kept = append(kept, w)
		}
	}
	next.Watchlist = kept
	delete(next.Holdings, id)

	totalPages := pagination.TotalPages(len(next.Watchlist), next.ItemsPerPage)
	if totalPages == 0 {
		next.CurrentPage = 1
	} else if next.CurrentPage > totalPages {
		next.CurrentPage = totalPages
	}
	return next
}

// SetHolding records amount for id and stamps LastUpdated with nowMillis.
// On error the returned state equals s.
func SetHolding(s entity.PortfolioState, id string, amount float64, nowMillis int64) (entity.PortfolioState, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return s, fmt.Errorf("set holding for %q to %v: %w", id, amount, ErrInvalidHolding)
	}
	if !s.Contains(id) {
		return s, fmt.Errorf("set holding for %q: %w", id, ErrUnknownToken)
	}

	next := s.Clone()
	next.Holdings[id] = amount
	next.LastUpdated = &nowMillis
	return next, nil
}

// SetLastUpdated overwrites LastUpdated.
func SetLastUpdated(s entity.PortfolioState, timestampMillis int64) entity.PortfolioState {
	next := s.Clone()
	next.LastUpdated = &timestampMillis
	return next
}

// SetCurrentPage overwrites the page cursor. Bounds are the caller's concern.
func SetCurrentPage(s entity.PortfolioState, page int) entity.PortfolioState {
	next := s.Clone()
	next.CurrentPage = page
	return next
}

// SetItemsPerPage overwrites the page size and rewinds to the first page.
func SetItemsPerPage(s entity.PortfolioState, size int) (entity.PortfolioState, error) {
	if size <= 0 {
		return s, fmt.Errorf("set items per page to %d: %w", size, ErrInvalidPageSize)
	}
	next := s.Clone()
	next.ItemsPerPage = size
	next.CurrentPage = 1
	return next, nil
}

// LoadFromStorage shallow-merges the present fields of partial over s.
// The merged result must satisfy the state invariants, otherwise s is
// returned unchanged together with ErrMalformedSnapshot. Holdings for ids
// that are not in the merged watchlist are pruned, and the page cursor is
// clamped into range.
func LoadFromStorage(s entity.PortfolioState, partial entity.PersistedSnapshot) (entity.PortfolioState, error) {
	next := s.Clone()
	if partial.Watchlist != nil {
		next.Watchlist = append([]string(nil), partial.Watchlist...)
	}
	if partial.Holdings != nil {
		next.Holdings = make(map[string]float64, len(partial.Holdings))
		for k, v := range partial.Holdings {
			next.Holdings[k] = v
		}
	}
	if partial.LastUpdated != nil {
		ts := *partial.LastUpdated
		next.LastUpdated = &ts
	}
	if partial.CurrentPage != nil {
		next.CurrentPage = *partial.CurrentPage
	}
	if partial.ItemsPerPage != nil {
		next.ItemsPerPage = *partial.ItemsPerPage
	}

	if err := validate(next); err != nil {
		return s, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	for id := range next.Holdings {
		if !next.Contains(id) {
			delete(next.Holdings, id)
		}
	}
	for _, id := range next.Watchlist {
		if _, ok := next.Holdings[id]; !ok {
			next.Holdings[id] = 0
		}
	}
	next.CurrentPage = pagination.ClampPage(next.CurrentPage, pagination.TotalPages(len(next.Watchlist), next.ItemsPerPage))
	return next, nil
}

func validate(s entity.PortfolioState) error {
	seen := make(map[string]struct{}, len(s.Watchlist))
	for _, id := range s.Watchlist {
		if strings.TrimSpace(id) == "" {
			return errors.New("blank watchlist id")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate watchlist id %q", id)
		}
		seen[id] = struct{}{}
	}
	for id, amount := range s.Holdings {
		if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
			return fmt.Errorf("invalid holding %v for %q", amount, id)
		}
	}
	if s.ItemsPerPage <= 0 {
		return fmt.Errorf("invalid items per page %d", s.ItemsPerPage)
	}
	if s.CurrentPage < 1 {
		return fmt.Errorf("invalid current page %d", s.CurrentPage)
	}
	if s.LastUpdated != nil && *s.LastUpdated < 0 {
		return fmt.Errorf("invalid last updated %d", *s.LastUpdated)
	}
	return nil
}

// CheckInvariants reports the first invariant s violates, nil when consistent.
// Holdings must be keyed by watchlist ids only.
func CheckInvariants(s entity.PortfolioState) error {
	if err := validate(s); err != nil {
		return err
	}
	for id := range s.Holdings {
		if !s.Contains(id) {
			return fmt.Errorf("holding for %q outside the watchlist", id)
		}
	}
	return nil
}
