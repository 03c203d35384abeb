package entity

// TokenInfo holds the display details of a token as returned by search and trending lookups.
type TokenInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Thumb         string `json:"thumb"`
	MarketCapRank int    `json:"market_cap_rank"`
}

// MarketSnapshot is a point-in-time market read for a single token.
// It is an ephemeral cache entry and is never persisted.
type MarketSnapshot struct {
	ID                       string     `json:"id"`
	Symbol                   string     `json:"symbol"`
	Name                     string     `json:"name"`
	Image                    string     `json:"image"`
	CurrentPrice             float64    `json:"current_price"`
	MarketCap                float64    `json:"market_cap"`
	MarketCapRank            int        `json:"market_cap_rank"`
	PriceChangePercentage24h float64    `json:"price_change_percentage_24h"`
	TotalVolume              float64    `json:"total_volume"`
	LastUpdated              string     `json:"last_updated"`
	SparklineIn7d            *Sparkline `json:"sparkline_in_7d,omitempty"`
}

// Sparkline holds the 7 day price series of a token.
type Sparkline struct {
	Price []float64 `json:"price"`
}

// SearchResponse mirrors the upstream search payload. Only coins are used.
type SearchResponse struct {
	Coins []SearchCoin `json:"coins"`
}

// SearchCoin is a single search hit.
type SearchCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	APISymbol     string `json:"api_symbol"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
	Thumb         string `json:"thumb"`
	Large         string `json:"large"`
}

// TrendingResponse mirrors the upstream trending payload.
type TrendingResponse struct {
	Coins []TrendingItem `json:"coins"`
}

// TrendingItem wraps a trending coin.
type TrendingItem struct {
	Item TrendingCoin `json:"item"`
}

// TrendingCoin is a single trending entry.
type TrendingCoin struct {
	ID            string  `json:"id"`
	CoinID        int     `json:"coin_id"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	MarketCapRank int     `json:"market_cap_rank"`
	Thumb         string  `json:"thumb"`
	Small         string  `json:"small"`
	Large         string  `json:"large"`
	Slug          string  `json:"slug"`
	PriceBTC      float64 `json:"price_btc"`
	Score         int     `json:"score"`
}

// Info converts a search hit into a TokenInfo.
func (c SearchCoin) Info() TokenInfo {
	return TokenInfo{ID: c.ID, Name: c.Name, Symbol: c.Symbol, Thumb: c.Thumb, MarketCapRank: c.MarketCapRank}
}

// Info converts a trending entry into a TokenInfo.
func (c TrendingCoin) Info() TokenInfo {
	return TokenInfo{ID: c.ID, Name: c.Name, Symbol: c.Symbol, Thumb: c.Thumb, MarketCapRank: c.MarketCapRank}
}
