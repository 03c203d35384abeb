package entity

// StorageKey is the fixed key under which the persisted snapshot lives.
const StorageKey = "tokenPortfolio"

// DefaultItemsPerPage is the page size used before the user picks one.
const DefaultItemsPerPage = 5

// PageSizeOptions lists the page sizes a user may select.
var PageSizeOptions = []int{5, 10, 20, 30, 40, 50}

// defaultWatchlist is the starter set shown on first launch.
var defaultWatchlist = []string{
	"bitcoin",
	"ethereum",
	"binancecoin",
	"cardano",
	"dogecoin",
	"solana",
	"polkadot",
	"chainlink",
	"litecoin",
	"polygon",
}

// defaultHoldings are the sample amounts for the starter set.
var defaultHoldings = map[string]float64{
	"bitcoin":     0.5,
	"ethereum":    2.5,
	"binancecoin": 10,
	"cardano":     1000,
	"dogecoin":    5000,
	"solana":      25,
	"polkadot":    50,
	"chainlink":   100,
	"litecoin":    5,
	"polygon":     500,
}

// PortfolioState is the root aggregate of the dashboard.
// Values are treated as immutable snapshots: reducers return fresh copies.
type PortfolioState struct {
	Watchlist    []string           `json:"watchlist"`
	Holdings     map[string]float64 `json:"holdings"`
	LastUpdated  *int64             `json:"lastUpdated"` // epoch millis, nil until first edit or refresh
	CurrentPage  int                `json:"currentPage"`
	ItemsPerPage int                `json:"itemsPerPage"`
}

// DefaultPortfolioState returns a fresh copy of the starter state.
func DefaultPortfolioState() PortfolioState {
	return PortfolioState{
		Watchlist:    append([]string(nil), defaultWatchlist...),
		Holdings:     copyHoldings(defaultHoldings),
		LastUpdated:  nil,
		CurrentPage:  1,
		ItemsPerPage: DefaultItemsPerPage,
	}
}

// Clone returns a deep copy of the state.
func (s PortfolioState) Clone() PortfolioState {
	out := PortfolioState{
		Watchlist:    append([]string(nil), s.Watchlist...),
		Holdings:     copyHoldings(s.Holdings),
		CurrentPage:  s.CurrentPage,
		ItemsPerPage: s.ItemsPerPage,
	}
	if s.LastUpdated != nil {
		ts := *s.LastUpdated
		out.LastUpdated = &ts
	}
	return out
}

// Holding returns the amount held for id, 0 when absent.
func (s PortfolioState) Holding(id string) float64 {
	return s.Holdings[id]
}

// Contains reports whether id is in the watchlist.
func (s PortfolioState) Contains(id string) bool {
	for _, w := range s.Watchlist {
		if w == id {
			return true
		}
	}
	return false
}

// IsPageSizeOption reports whether size is one of PageSizeOptions.
func IsPageSizeOption(size int) bool {
	for _, opt := range PageSizeOptions {
		if opt == size {
			return true
		}
	}
	return false
}

func copyHoldings(src map[string]float64) map[string]float64 {
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// PersistedSnapshot is the durable subset of PortfolioState.
// Nil fields mean "absent in the stored blob" so a partial snapshot can be
// merged over defaults. A JSON null is indistinguishable from absence.
type PersistedSnapshot struct {
	Watchlist    []string           `json:"watchlist"`
	Holdings     map[string]float64 `json:"holdings"`
	LastUpdated  *int64             `json:"lastUpdated"`
	CurrentPage  *int               `json:"currentPage"`
	ItemsPerPage *int               `json:"itemsPerPage"`
}

// SnapshotOf captures every persisted field of s.
func SnapshotOf(s PortfolioState) PersistedSnapshot {
	c := s.Clone()
	page, size := c.CurrentPage, c.ItemsPerPage
	watchlist := c.Watchlist
	if watchlist == nil {
		watchlist = []string{}
	}
	return PersistedSnapshot{
		Watchlist:    watchlist,
		Holdings:     c.Holdings,
		LastUpdated:  c.LastUpdated,
		CurrentPage:  &page,
		ItemsPerPage: &size,
	}
}
