package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"token_portfolio/internal/app/port"
	"token_portfolio/internal/domain/entity"
)

var errUpstream = errors.New("upstream unavailable")

// fakeMarketClient serves fixed prices and counts calls per endpoint.
type fakeMarketClient struct {
	mu       sync.Mutex
	prices   map[string]float64
	failNext error
	gate     chan struct{} // when set, market calls block until it is closed

	marketCalls   atomic.Int32
	searchCalls   atomic.Int32
	trendingCalls atomic.Int32
	lastIDs       []string
}

func newFakeMarketClient(prices map[string]float64) *fakeMarketClient {
	return &fakeMarketClient{prices: prices}
}

func (f *fakeMarketClient) setFailure(err error) {
	f.mu.Lock()
	f.failNext = err
	f.mu.Unlock()
}

func (f *fakeMarketClient) setPrice(id string, price float64) {
	f.mu.Lock()
	f.prices[id] = price
	f.mu.Unlock()
}

func (f *fakeMarketClient) GetCoinsMarketData(ctx context.Context, ids []string) ([]entity.MarketSnapshot, error) {
	f.marketCalls.Add(1)
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastIDs = append([]string(nil), ids...)
	if f.failNext != nil {
		return nil, f.failNext
	}
	out := make([]entity.MarketSnapshot, 0, len(ids))
	for _, id := range ids {
		price, ok := f.prices[id]
		if !ok {
			continue
		}
		out = append(out, entity.MarketSnapshot{ID: id, Symbol: id, Name: id, CurrentPrice: price})
	}
	return out, nil
}

func (f *fakeMarketClient) SearchCoins(_ context.Context, query string) (entity.SearchResponse, error) {
	f.searchCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		return entity.SearchResponse{}, f.failNext
	}
	var resp entity.SearchResponse
	for i := 0; i < 15; i++ {
		resp.Coins = append(resp.Coins, entity.SearchCoin{ID: query + string(rune('a'+i)), Name: query, Symbol: "S"})
	}
	return resp, nil
}

func (f *fakeMarketClient) GetTrendingCoins(context.Context) (entity.TrendingResponse, error) {
	f.trendingCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		return entity.TrendingResponse{}, f.failNext
	}
	var resp entity.TrendingResponse
	for i := 0; i < 15; i++ {
		resp.Coins = append(resp.Coins, entity.TrendingItem{Item: entity.TrendingCoin{ID: string(rune('a' + i))}})
	}
	return resp, nil
}

// failingStorage fails every call with err.
type failingStorage struct {
	err   error
	saves atomic.Int32
}

func (s *failingStorage) Load(context.Context, string) ([]byte, error) { return nil, s.err }
func (s *failingStorage) Save(context.Context, string, []byte) error {
	s.saves.Add(1)
	return s.err
}
func (s *failingStorage) Close() error { return nil }

// hangingStorage blocks every Save until the caller's context ends.
type hangingStorage struct{}

func (hangingStorage) Load(context.Context, string) ([]byte, error) { return nil, port.ErrSnapshotNotFound }
func (hangingStorage) Save(ctx context.Context, _ string, _ []byte) error {
	<-ctx.Done()
	return ctx.Err()
}
func (hangingStorage) Close() error { return nil }
