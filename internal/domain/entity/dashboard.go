package entity

// TokenRow is one line of the watchlist table. Priced is false for watchlist
// ids the market returned nothing for.
type TokenRow struct {
	TokenView
	Priced bool `json:"priced"`
}

// PageInfo describes the visible table window.
type PageInfo struct {
	CurrentPage  int   `json:"currentPage"`
	ItemsPerPage int   `json:"itemsPerPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int   `json:"totalItems"`
	PageNumbers  []int `json:"pageNumbers"`
}

// DashboardView is everything a consumer needs to render the dashboard.
type DashboardView struct {
	State      PortfolioState   `json:"state"`
	Portfolio  DerivedView      `json:"portfolio"`
	Rows       []TokenRow       `json:"rows"`
	Pagination PageInfo         `json:"pagination"`
	Loading    bool             `json:"loading"`
	Stale      bool             `json:"stale"`
	FetchedAt  int64            `json:"fetchedAt,omitempty"`
	Errors     []PortfolioError `json:"errors,omitempty"`
}
