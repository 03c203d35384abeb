package port

import (
	"context"

	"token_portfolio/internal/domain/entity"
)

// MarketDataClient is the read-only upstream market data service.
type MarketDataClient interface {
	// GetCoinsMarketData returns market snapshots for ids. Unknown ids are simply absent from the result.
	GetCoinsMarketData(ctx context.Context, ids []string) ([]entity.MarketSnapshot, error)

	// SearchCoins returns coins matching a free-text query.
	SearchCoins(ctx context.Context, query string) (entity.SearchResponse, error)

	// GetTrendingCoins returns the upstream trending list.
	GetTrendingCoins(ctx context.Context) (entity.TrendingResponse, error)
}
