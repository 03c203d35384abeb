package restapi

import (
	"errors"
	"net/http"

	"token_portfolio/internal/app/port"
	"token_portfolio/internal/domain/entity"
	"token_portfolio/internal/domain/portfolio"
	"token_portfolio/internal/pkg/format"
	"token_portfolio/internal/pkg/utils"

	"github.com/gin-gonic/gin"
)

// APIPortfolioResponse is the body of GET /portfolio.
type APIPortfolioResponse struct {
	Data          entity.DashboardView    `json:"data"`
	Display       PortfolioDisplay        `json:"display"`
	ServiceErrors []entity.PortfolioError `json:"service_errors,omitempty"`
	StatusMessage string                  `json:"status_message"`
}

// PortfolioDisplay carries preformatted strings for the visible rows.
type PortfolioDisplay struct {
	PortfolioTotal string       `json:"portfolioTotal"`
	LastUpdated    string       `json:"lastUpdated,omitempty"`
	Rows           []DisplayRow `json:"rows"`
}

// DisplayRow is the formatted form of one table row.
type DisplayRow struct {
	ID        string `json:"id"`
	Price     string `json:"price"`
	Change24h string `json:"change24h"`
	Value     string `json:"value"`
}

// APIStateResponse is returned by every mutation endpoint.
type APIStateResponse struct {
	Data  entity.PortfolioState `json:"data"`
	Error string                `json:"error,omitempty"`
}

// APITokensResponse is returned by search and trending.
type APITokensResponse struct {
	Data  []entity.TokenInfo `json:"data"`
	Error string             `json:"error,omitempty"`
}

type addTokensRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

type setHoldingRequest struct {
	Amount *float64 `json:"amount" binding:"required"`
}

type setPageRequest struct {
	Page int `json:"page"`
}

type setPageSizeRequest struct {
	Size int `json:"size" binding:"required"`
}

// PortfolioHandler exposes the dashboard intents over HTTP.
type PortfolioHandler struct {
	portfolioService port.PortfolioService
	vsCurrency       string
}

// NewPortfolioHandler creates a new instance of PortfolioHandler.
func NewPortfolioHandler(ps port.PortfolioService, vsCurrency string) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: ps, vsCurrency: vsCurrency}
}

// GetPortfolioHandler returns the derived dashboard view.
func (h *PortfolioHandler) GetPortfolioHandler(c *gin.Context) {
	view := h.portfolioService.View(c.Request.Context())

	response := APIPortfolioResponse{
		Data:          view,
		Display:       h.display(view),
		ServiceErrors: view.Errors,
	}
	switch {
	case view.Loading:
		response.StatusMessage = "Market data is loading."
	case len(view.Errors) > 0 && view.Stale:
		response.StatusMessage = "Market data refresh failed; showing last known prices."
	case len(view.Errors) > 0:
		response.StatusMessage = "Market data unavailable."
	case len(view.State.Watchlist) == 0:
		response.StatusMessage = "Watchlist is empty."
	default:
		response.StatusMessage = "Portfolio retrieved successfully."
	}
	c.JSON(http.StatusOK, response)
}

func (h *PortfolioHandler) display(view entity.DashboardView) PortfolioDisplay {
	d := PortfolioDisplay{
		PortfolioTotal: format.FormatCurrencyIn(view.Portfolio.PortfolioTotal, h.vsCurrency),
		Rows:           make([]DisplayRow, 0, len(view.Rows)),
	}
	if view.State.LastUpdated != nil {
		d.LastUpdated = format.FormatTime(*view.State.LastUpdated, nil)
	}
	for _, r := range view.Rows {
		row := DisplayRow{ID: r.ID, Price: "-", Change24h: "-", Value: "-"}
		if r.Priced {
			row.Price = format.FormatCurrencyIn(r.Price, h.vsCurrency)
			row.Change24h = format.FormatPercentage(r.Change24h)
			row.Value = format.FormatCurrencyIn(r.Value, h.vsCurrency)
		}
		d.Rows = append(d.Rows, row)
	}
	return d
}

// AddTokensHandler appends ids to the watchlist.
func (h *PortfolioHandler) AddTokensHandler(c *gin.Context) {
	var req addTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIStateResponse{Error: err.Error()})
		return
	}
	ids := utils.NormalizeIDs(req.IDs)
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, APIStateResponse{Error: "ids must contain at least one non-empty id"})
		return
	}
	c.JSON(http.StatusOK, APIStateResponse{Data: h.portfolioService.AddTokens(ids)})
}

// RemoveTokenHandler drops a token and its holding.
func (h *PortfolioHandler) RemoveTokenHandler(c *gin.Context) {
	c.JSON(http.StatusOK, APIStateResponse{Data: h.portfolioService.RemoveToken(c.Param("id"))})
}

// SetHoldingHandler records the amount held for a watchlist token.
func (h *PortfolioHandler) SetHoldingHandler(c *gin.Context) {
	var req setHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIStateResponse{Error: err.Error()})
		return
	}
	st, err := h.portfolioService.SetHolding(c.Param("id"), *req.Amount)
	if err != nil {
		c.JSON(statusFor(err), APIStateResponse{Data: st, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, APIStateResponse{Data: st})
}

// RefreshHandler forces a market fetch for the watchlist.
func (h *PortfolioHandler) RefreshHandler(c *gin.Context) {
	st, err := h.portfolioService.Refresh(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, APIStateResponse{Data: st, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, APIStateResponse{Data: st})
}

// SetPageHandler moves the table cursor; out of range pages are clamped.
func (h *PortfolioHandler) SetPageHandler(c *gin.Context) {
	var req setPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIStateResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, APIStateResponse{Data: h.portfolioService.SetPage(req.Page)})
}

// SetPageSizeHandler changes the table page size.
func (h *PortfolioHandler) SetPageSizeHandler(c *gin.Context) {
	var req setPageSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIStateResponse{Error: err.Error()})
		return
	}
	st, err := h.portfolioService.SetPageSize(req.Size)
	if err != nil {
		c.JSON(statusFor(err), APIStateResponse{Data: st, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, APIStateResponse{Data: st})
}

// SearchTokensHandler looks tokens up by free text.
func (h *PortfolioHandler) SearchTokensHandler(c *gin.Context) {
	tokens, err := h.portfolioService.SearchTokens(c.Request.Context(), c.Query("query"))
	h.writeTokens(c, tokens, err)
}

// TrendingTokensHandler returns the trending list.
func (h *PortfolioHandler) TrendingTokensHandler(c *gin.Context) {
	tokens, err := h.portfolioService.TrendingTokens(c.Request.Context())
	h.writeTokens(c, tokens, err)
}

func (h *PortfolioHandler) writeTokens(c *gin.Context, tokens []entity.TokenInfo, err error) {
	if tokens == nil {
		tokens = []entity.TokenInfo{}
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, APITokensResponse{Data: tokens, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, APITokensResponse{Data: tokens})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, portfolio.ErrUnknownToken):
		return http.StatusNotFound
	case errors.Is(err, portfolio.ErrInvalidHolding), errors.Is(err, portfolio.ErrInvalidPageSize):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
