package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"token_portfolio/internal/app/port"
	"token_portfolio/internal/domain/entity"
	"token_portfolio/internal/domain/pagination"
	"token_portfolio/internal/domain/portfolio"
	"token_portfolio/internal/domain/projection"
	"token_portfolio/internal/infrastructure/metrics"
)

// Dashboard binds the store, the market gateway and the projection into the
// surface the presentation layer calls.
type Dashboard struct {
	store   *PortfolioStore
	gateway *MarketGateway
	logger  port.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu          sync.Mutex
	unsubscribe func()
}

var _ port.PortfolioService = (*Dashboard)(nil)

// NewDashboard creates the facade. Polling does not start until Start.
func NewDashboard(store *PortfolioStore, gateway *MarketGateway, logger port.Logger, m *metrics.Metrics) *Dashboard {
	return &Dashboard{
		store:   store,
		gateway: gateway,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Start keeps the current watchlist warm through the gateway poller.
func (d *Dashboard) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.unsubscribe != nil {
		return
	}
	d.unsubscribe = d.gateway.Subscribe(func() []string {
		return d.store.State().Watchlist
	})
	d.logger.Info("Dashboard started")
}

// Stop ends polling for this dashboard.
func (d *Dashboard) Stop() {
	d.mu.Lock()
	unsubscribe := d.unsubscribe
	d.unsubscribe = nil
	d.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
		d.logger.Info("Dashboard stopped")
	}
}

// AddTokens adds ids to the watchlist.
func (d *Dashboard) AddTokens(ids []string) entity.PortfolioState {
	st := d.store.AddTokens(ids)
	d.metrics.SetWatchlistSize(len(st.Watchlist))
	return st
}

// RemoveToken removes id from the watchlist.
func (d *Dashboard) RemoveToken(id string) entity.PortfolioState {
	st := d.store.RemoveToken(id)
	d.metrics.SetWatchlistSize(len(st.Watchlist))
	return st
}

// SetHolding records the amount held of id.
func (d *Dashboard) SetHolding(id string, amount float64) (entity.PortfolioState, error) {
	return d.store.SetHolding(id, amount)
}

// Refresh forces a market fetch for the watchlist and stamps LastUpdated on success.
// An empty watchlist makes no call and leaves LastUpdated alone.
func (d *Dashboard) Refresh(ctx context.Context) (entity.PortfolioState, error) {
	st := d.store.State()
	if len(st.Watchlist) == 0 {
		return st, nil
	}
	res := d.gateway.Refresh(ctx, st.Watchlist)
	if res.Err != nil {
		return st, res.Err
	}
	if res.Loading {
		return st, fmt.Errorf("refresh abandoned: %w", ctx.Err())
	}
	return d.store.SetLastUpdated(d.now().UnixMilli()), nil
}

// SetPage moves to page, clamped into the current page range.
func (d *Dashboard) SetPage(page int) entity.PortfolioState {
	st, _ := d.store.apply(ActionSetCurrentPage, func(cur entity.PortfolioState) (entity.PortfolioState, error) {
		total := pagination.TotalPages(len(cur.Watchlist), cur.ItemsPerPage)
		return portfolio.SetCurrentPage(cur, pagination.ClampPage(page, total)), nil
	})
	return st
}

// SetPageSize accepts only the sizes in entity.PageSizeOptions.
func (d *Dashboard) SetPageSize(size int) (entity.PortfolioState, error) {
	if !entity.IsPageSizeOption(size) {
		return d.store.State(), fmt.Errorf("page size %d not in %v: %w", size, entity.PageSizeOptions, portfolio.ErrInvalidPageSize)
	}
	return d.store.SetItemsPerPage(size)
}

// View derives the portfolio and the visible table page from the current state.
func (d *Dashboard) View(ctx context.Context) entity.DashboardView {
	st := d.store.State()
	res := d.gateway.Markets(ctx, st.Watchlist)

	snapshots := onlyWatched(res.Data, st.Watchlist)
	derived := projection.Project(snapshots, st.Holdings)
	rows := tableRows(derived.Tokens, st)

	page := pagination.Paginate(rows, st.CurrentPage, st.ItemsPerPage)
	view := entity.DashboardView{
		State:     st,
		Portfolio: derived,
		Rows:      page.Items,
		Pagination: entity.PageInfo{
			CurrentPage:  page.CurrentPage,
			ItemsPerPage: st.ItemsPerPage,
			TotalPages:   page.TotalPages,
			TotalItems:   page.TotalItems,
			PageNumbers:  pagination.PageNumbers(page.CurrentPage, page.TotalPages),
		},
		Loading: res.Loading,
		Stale:   res.IsStale,
	}
	if !res.FetchedAt.IsZero() {
		view.FetchedAt = res.FetchedAt.UnixMilli()
	}
	if res.Err != nil {
		view.Errors = append(view.Errors, entity.PortfolioError{
			Source:  "market",
			Key:     d.gateway.MarketsKey(st.Watchlist),
			Message: res.Err.Error(),
		})
	}

	d.metrics.SetWatchlistSize(len(st.Watchlist))
	d.metrics.SetPortfolioValue(derived.PortfolioTotal)
	return view
}

// SearchTokens looks tokens up by name or symbol.
func (d *Dashboard) SearchTokens(ctx context.Context, term string) ([]entity.TokenInfo, error) {
	res := d.gateway.Search(ctx, term)
	return res.Data, res.Err
}

// TrendingTokens returns the currently trending tokens.
func (d *Dashboard) TrendingTokens(ctx context.Context) ([]entity.TokenInfo, error) {
	res := d.gateway.Trending(ctx)
	return res.Data, res.Err
}

// onlyWatched drops snapshots for ids outside the watchlist and duplicates.
func onlyWatched(snaps []entity.MarketSnapshot, watchlist []string) []entity.MarketSnapshot {
	watched := make(map[string]struct{}, len(watchlist))
	for _, id := range watchlist {
		watched[id] = struct{}{}
	}
	out := make([]entity.MarketSnapshot, 0, len(snaps))
	for _, s := range snaps {
		if _, ok := watched[s.ID]; !ok {
			continue
		}
		delete(watched, s.ID)
		out = append(out, s)
	}
	return out
}

// tableRows lists priced tokens in snapshot order, then the watchlist ids the
// market returned nothing for, so the table covers the whole watchlist.
func tableRows(tokens []entity.TokenView, st entity.PortfolioState) []entity.TokenRow {
	rows := make([]entity.TokenRow, 0, len(st.Watchlist))
	priced := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		priced[t.ID] = struct{}{}
		rows = append(rows, entity.TokenRow{TokenView: t, Priced: true})
	}
	for _, id := range st.Watchlist {
		if _, ok := priced[id]; ok {
			continue
		}
		rows = append(rows, entity.TokenRow{
			TokenView: entity.TokenView{ID: id, Holdings: st.Holding(id)},
		})
	}
	return rows
}
