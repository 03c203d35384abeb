package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"token_portfolio/internal/app/port"
	"token_portfolio/internal/domain/entity"
	"token_portfolio/internal/infrastructure/metrics"
	"token_portfolio/internal/pkg/utils"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	endpointMarkets  = "markets"
	endpointSearch   = "search"
	endpointTrending = "trending"

	// maxIDsPerRequest is the upstream per_page limit for /coins/markets.
	maxIDsPerRequest = 250
)

// GatewayConfig holds freshness windows and limits of the MarketGateway.
type GatewayConfig struct {
	VsCurrency      string
	Freshness       time.Duration
	SearchTTL       time.Duration
	TrendingTTL     time.Duration
	PollInterval    time.Duration
	FetchTimeout    time.Duration
	CleanupInterval time.Duration
	SearchMinLength int
	SearchLimit     int
	TrendingLimit   int
}

// DefaultGatewayConfig returns the production defaults.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		VsCurrency:      "usd",
		Freshness:       30 * time.Second,
		SearchTTL:       60 * time.Second,
		TrendingTTL:     5 * time.Minute,
		PollInterval:    30 * time.Second,
		FetchTimeout:    15 * time.Second,
		CleanupInterval: 10 * time.Minute,
		SearchMinLength: 2,
		SearchLimit:     10,
		TrendingLimit:   8,
	}
}

func (c GatewayConfig) withDefaults() GatewayConfig {
	d := DefaultGatewayConfig()
	if c.VsCurrency == "" {
		c.VsCurrency = d.VsCurrency
	}
	if c.Freshness <= 0 {
		c.Freshness = d.Freshness
	}
	if c.SearchTTL <= 0 {
		c.SearchTTL = d.SearchTTL
	}
	if c.TrendingTTL <= 0 {
		c.TrendingTTL = d.TrendingTTL
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = d.FetchTimeout
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	if c.SearchMinLength <= 0 {
		c.SearchMinLength = d.SearchMinLength
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = d.SearchLimit
	}
	if c.TrendingLimit <= 0 {
		c.TrendingLimit = d.TrendingLimit
	}
	return c
}

// QueryResult is what a gateway query hands to consumers.
//
// Data holds the freshest data known for the key: the new result on success,
// the last successful result when the fetch failed (IsStale and Err both set),
// or the zero value when nothing was ever fetched. Loading is set when the
// caller stopped waiting before a shared fetch finished; that fetch still
// completes and fills the cache.
type QueryResult[T any] struct {
	Data      T
	Err       error
	IsStale   bool
	Loading   bool
	FetchedAt time.Time
	FromCache bool
}

type cachedEntry struct {
	data      any
	fetchedAt time.Time
}

// MarketGateway fronts the MarketDataClient with per-key freshness caching,
// last-known-good retention, in-flight de-duplication and background polling.
type MarketGateway struct {
	client  port.MarketDataClient
	cfg     GatewayConfig
	logger  port.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	fresh  *cache.Cache
	failed *cache.Cache
	group  singleflight.Group

	mu       sync.RWMutex
	lastGood map[string]cachedEntry

	*poller
}

// NewMarketGateway creates a gateway over client.
func NewMarketGateway(client port.MarketDataClient, cfg GatewayConfig, logger port.Logger, m *metrics.Metrics) *MarketGateway {
	cfg = cfg.withDefaults()
	g := &MarketGateway{
		client:   client,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
		fresh:    cache.New(cfg.Freshness, cfg.CleanupInterval),
		failed:   cache.New(cfg.Freshness, cfg.CleanupInterval),
		lastGood: make(map[string]cachedEntry),
	}
	g.poller = newPoller(g, cfg.PollInterval, logger, m)
	return g
}

// MarketsKey is the request signature of a market data query.
func (g *MarketGateway) MarketsKey(ids []string) string {
	return "markets:" + g.cfg.VsCurrency + ":" + strings.Join(ids, ",")
}

func searchKey(term string) string { return "search:" + strings.ToLower(term) }

const trendingKey = "trending"

// Markets returns snapshots for ids, served from cache inside the freshness window.
// An empty id set returns an empty result without a network call.
func (g *MarketGateway) Markets(ctx context.Context, ids []string) QueryResult[[]entity.MarketSnapshot] {
	return g.markets(ctx, ids, false)
}

// Refresh is Markets bypassing the freshness window.
func (g *MarketGateway) Refresh(ctx context.Context, ids []string) QueryResult[[]entity.MarketSnapshot] {
	return g.markets(ctx, ids, true)
}

func (g *MarketGateway) markets(ctx context.Context, ids []string, force bool) QueryResult[[]entity.MarketSnapshot] {
	ids = utils.NormalizeIDs(ids)
	if len(ids) == 0 {
		g.metrics.GatewayRequest(endpointMarkets, metrics.OutcomeSkipped)
		return QueryResult[[]entity.MarketSnapshot]{Data: []entity.MarketSnapshot{}}
	}
	return query(ctx, g, endpointMarkets, g.MarketsKey(ids), g.cfg.Freshness, force,
		func(ctx context.Context) ([]entity.MarketSnapshot, error) {
			return g.fetchMarkets(ctx, ids)
		})
}

// fetchMarkets splits ids into upstream-sized batches fetched concurrently and
// concatenates the results in batch order.
func (g *MarketGateway) fetchMarkets(ctx context.Context, ids []string) ([]entity.MarketSnapshot, error) {
	batches := utils.BatchStrings(ids, maxIDsPerRequest)
	results := make([][]entity.MarketSnapshot, len(batches))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		eg.Go(func() error {
			snaps, err := g.client.GetCoinsMarketData(egCtx, batch)
			if err != nil {
				return err
			}
			results[i] = snaps
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make([]entity.MarketSnapshot, 0, len(ids))
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// Search returns up to SearchLimit tokens matching term. Terms shorter than
// SearchMinLength runes after trimming return an empty result without a network call.
func (g *MarketGateway) Search(ctx context.Context, term string) QueryResult[[]entity.TokenInfo] {
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) < g.cfg.SearchMinLength {
		g.metrics.GatewayRequest(endpointSearch, metrics.OutcomeSkipped)
		return QueryResult[[]entity.TokenInfo]{Data: []entity.TokenInfo{}}
	}
	return query(ctx, g, endpointSearch, searchKey(term), g.cfg.SearchTTL, false,
		func(ctx context.Context) ([]entity.TokenInfo, error) {
			resp, err := g.client.SearchCoins(ctx, term)
			if err != nil {
				return nil, err
			}
			out := make([]entity.TokenInfo, 0, min(len(resp.Coins), g.cfg.SearchLimit))
			for _, c := range resp.Coins {
				if len(out) == g.cfg.SearchLimit {
					break
				}
				out = append(out, c.Info())
			}
			return out, nil
		})
}

// Trending returns the first TrendingLimit trending tokens.
func (g *MarketGateway) Trending(ctx context.Context) QueryResult[[]entity.TokenInfo] {
	return query(ctx, g, endpointTrending, trendingKey, g.cfg.TrendingTTL, false,
		func(ctx context.Context) ([]entity.TokenInfo, error) {
			resp, err := g.client.GetTrendingCoins(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]entity.TokenInfo, 0, min(len(resp.Coins), g.cfg.TrendingLimit))
			for _, c := range resp.Coins {
				if len(out) == g.cfg.TrendingLimit {
					break
				}
				out = append(out, c.Item.Info())
			}
			return out, nil
		})
}

// LastKnown returns the last successful result for key without fetching.
func (g *MarketGateway) LastKnown(key string) (any, time.Time, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.lastGood[key]
	return e.data, e.fetchedAt, ok
}

func (g *MarketGateway) remember(key string, e cachedEntry, ttl time.Duration) {
	g.failed.Delete(key)
	g.fresh.Set(key, e, ttl)
	g.mu.Lock()
	g.lastGood[key] = e
	g.mu.Unlock()
}

// query is the shared cache-keyed fetch path of every endpoint. Polled, forced
// and plain requests for one key share a single in-flight upstream call.
// A failed fetch is remembered for ttl; plain requests inside that window get
// the recorded failure without a call, only forced ones try again.
func query[T any](ctx context.Context, g *MarketGateway, endpoint, key string, ttl time.Duration, force bool, fetch func(context.Context) (T, error)) QueryResult[T] {
	if !force {
		if v, ok := g.fresh.Get(key); ok {
			e := v.(cachedEntry)
			g.metrics.GatewayRequest(endpoint, metrics.OutcomeHit)
			return QueryResult[T]{Data: e.data.(T), FetchedAt: e.fetchedAt, FromCache: true}
		}
		if v, ok := g.failed.Get(key); ok {
			return failure[T](g, endpoint, key, v.(error))
		}
	}

	ch := g.group.DoChan(key, func() (any, error) {
		// The fetch outlives a caller that stops waiting so the result still lands in the cache.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.cfg.FetchTimeout)
		defer cancel()
		data, err := fetch(fetchCtx)
		if err != nil {
			g.failed.Set(key, err, ttl)
			g.logger.Warn("Market data fetch failed", "key", key, "error", err)
			return nil, err
		}
		e := cachedEntry{data: data, fetchedAt: g.now()}
		g.remember(key, e, ttl)
		return e, nil
	})

	select {
	case res := <-ch:
		if res.Err == nil {
			e := res.Val.(cachedEntry)
			g.metrics.GatewayRequest(endpoint, metrics.OutcomeMiss)
			return QueryResult[T]{Data: e.data.(T), FetchedAt: e.fetchedAt}
		}
		return failure[T](g, endpoint, key, res.Err)
	case <-ctx.Done():
		out := QueryResult[T]{Loading: true}
		if data, fetchedAt, ok := g.LastKnown(key); ok {
			out.Data, out.FetchedAt, out.IsStale = data.(T), fetchedAt, true
		}
		return out
	}
}

// failure serves the last successful result for key, marked stale, alongside cause.
func failure[T any](g *MarketGateway, endpoint, key string, cause error) QueryResult[T] {
	err := fmt.Errorf("%s query %q: %w", endpoint, key, cause)
	if data, fetchedAt, ok := g.LastKnown(key); ok {
		g.metrics.GatewayRequest(endpoint, metrics.OutcomeStale)
		return QueryResult[T]{Data: data.(T), Err: err, IsStale: true, FetchedAt: fetchedAt}
	}
	g.metrics.GatewayRequest(endpoint, metrics.OutcomeError)
	return QueryResult[T]{Err: err}
}
