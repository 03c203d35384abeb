package port

import (
	"context"

	"token_portfolio/internal/domain/entity"
)

// PortfolioService is the surface the presentation layer calls: the mutation
// intents plus the derived views.
type PortfolioService interface {
	AddTokens(ids []string) entity.PortfolioState
	RemoveToken(id string) entity.PortfolioState
	SetHolding(id string, amount float64) (entity.PortfolioState, error)
	Refresh(ctx context.Context) (entity.PortfolioState, error)
	SetPage(page int) entity.PortfolioState
	SetPageSize(size int) (entity.PortfolioState, error)

	// View returns the current state with its derived portfolio and visible table page.
	View(ctx context.Context) entity.DashboardView

	SearchTokens(ctx context.Context, term string) ([]entity.TokenInfo, error)
	TrendingTokens(ctx context.Context) ([]entity.TokenInfo, error)
}
