package entity

// PortfolioError describes a non-fatal failure surfaced alongside derived data,
// such as a market fetch that failed while stale data is still shown.
type PortfolioError struct {
	Source  string `json:"source"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
}
