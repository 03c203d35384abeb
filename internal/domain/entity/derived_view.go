package entity

// TokenView is the derived per-token row of the portfolio.
type TokenView struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Price     float64   `json:"price"`
	Change24h float64   `json:"change24h"`
	Holdings  float64   `json:"holdings"`
	Value     float64   `json:"value"`
	Sparkline []float64 `json:"sparkline,omitempty"`
}

// ChartSlice is one segment of the allocation chart.
type ChartSlice struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Symbol     string  `json:"symbol"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
	ColorIndex int     `json:"colorIndex"`
	Color      string  `json:"color"`
}

// DerivedView is computed from market snapshots and holdings. It is never stored.
type DerivedView struct {
	Tokens         []TokenView  `json:"tokens"`
	PortfolioTotal float64      `json:"portfolioTotal"`
	Chart          []ChartSlice `json:"chart"`
}
