package restapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"token_portfolio/internal/domain/entity"
	"token_portfolio/internal/domain/portfolio"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fakePortfolioService records calls and answers from canned values.
type fakePortfolioService struct {
	state      entity.PortfolioState
	view       entity.DashboardView
	holdingErr error
	pageErr    error
	refreshErr error
	searchErr  error
	tokens     []entity.TokenInfo

	addedIDs  []string
	removedID string
	page      int
	lastTerm  string
}

func (f *fakePortfolioService) AddTokens(ids []string) entity.PortfolioState {
	f.addedIDs = ids
	return f.state
}

func (f *fakePortfolioService) RemoveToken(id string) entity.PortfolioState {
	f.removedID = id
	return f.state
}

func (f *fakePortfolioService) SetHolding(string, float64) (entity.PortfolioState, error) {
	return f.state, f.holdingErr
}

func (f *fakePortfolioService) Refresh(context.Context) (entity.PortfolioState, error) {
	return f.state, f.refreshErr
}

func (f *fakePortfolioService) SetPage(page int) entity.PortfolioState {
	f.page = page
	return f.state
}

func (f *fakePortfolioService) SetPageSize(int) (entity.PortfolioState, error) {
	return f.state, f.pageErr
}

func (f *fakePortfolioService) View(context.Context) entity.DashboardView { return f.view }

func (f *fakePortfolioService) SearchTokens(_ context.Context, term string) ([]entity.TokenInfo, error) {
	f.lastTerm = term
	return f.tokens, f.searchErr
}

func (f *fakePortfolioService) TrendingTokens(context.Context) ([]entity.TokenInfo, error) {
	return f.tokens, f.searchErr
}

func newTestRouter(svc *fakePortfolioService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return SetupRouter(NewPortfolioHandler(svc, "usd"), RouterOptions{
		Gatherer: prometheus.NewRegistry(),
		Logger:   zap.NewNop(),
	})
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetPortfolio(t *testing.T) {
	ts := int64(1700000000000)
	svc := &fakePortfolioService{view: entity.DashboardView{
		State:     entity.PortfolioState{Watchlist: []string{"bitcoin", "mystery"}, LastUpdated: &ts},
		Portfolio: entity.DerivedView{PortfolioTotal: 25000},
		Rows: []entity.TokenRow{
			{TokenView: entity.TokenView{ID: "bitcoin", Price: 50000, Change24h: 1.234, Value: 25000}, Priced: true},
			{TokenView: entity.TokenView{ID: "mystery"}},
		},
	}}
	w := do(t, newTestRouter(svc), http.MethodGet, "/api/v1/portfolio", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp APIPortfolioResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "$25,000.00", resp.Display.PortfolioTotal)
	require.Len(t, resp.Display.Rows, 2)
	assert.Equal(t, DisplayRow{ID: "bitcoin", Price: "$50,000.00", Change24h: "+1.23%", Value: "$25,000.00"}, resp.Display.Rows[0])
	assert.Equal(t, "-", resp.Display.Rows[1].Price)
	assert.NotEmpty(t, resp.Display.LastUpdated)
	assert.Equal(t, "Portfolio retrieved successfully.", resp.StatusMessage)
}

func TestGetPortfolio_StaleMessage(t *testing.T) {
	svc := &fakePortfolioService{view: entity.DashboardView{
		State:  entity.PortfolioState{Watchlist: []string{"bitcoin"}},
		Stale:  true,
		Errors: []entity.PortfolioError{{Source: "market", Message: "boom"}},
	}}
	w := do(t, newTestRouter(svc), http.MethodGet, "/api/v1/portfolio", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "showing last known prices")
	assert.Contains(t, w.Body.String(), `"service_errors"`)
}

func TestAddTokens(t *testing.T) {
	svc := &fakePortfolioService{}
	r := newTestRouter(svc)

	w := do(t, r, http.MethodPost, "/api/v1/watchlist", `{"ids":["solana"," tether ","solana"]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"solana", "tether"}, svc.addedIDs)

	for _, body := range []string{`{"ids":[]}`, `{"ids":[" "]}`, `{}`, `not json`} {
		w = do(t, r, http.MethodPost, "/api/v1/watchlist", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestRemoveToken(t *testing.T) {
	svc := &fakePortfolioService{}
	w := do(t, newTestRouter(svc), http.MethodDelete, "/api/v1/watchlist/bitcoin", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bitcoin", svc.removedID)
}

func TestSetHolding_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		body string
		want int
	}{
		{"ok", nil, `{"amount":1.5}`, http.StatusOK},
		{"zero ok", nil, `{"amount":0}`, http.StatusOK},
		{"missing amount", nil, `{}`, http.StatusBadRequest},
		{"non numeric", nil, `{"amount":"lots"}`, http.StatusBadRequest},
		{"invalid", fmt.Errorf("x: %w", portfolio.ErrInvalidHolding), `{"amount":-1}`, http.StatusBadRequest},
		{"unknown", fmt.Errorf("x: %w", portfolio.ErrUnknownToken), `{"amount":1}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakePortfolioService{holdingErr: tt.err}
			w := do(t, newTestRouter(svc), http.MethodPut, "/api/v1/holdings/bitcoin", tt.body)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRefresh(t *testing.T) {
	svc := &fakePortfolioService{}
	r := newTestRouter(svc)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/v1/refresh", "").Code)

	svc.refreshErr = errors.New("upstream down")
	w := do(t, r, http.MethodPost, "/api/v1/refresh", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "upstream down")
}

func TestPaging(t *testing.T) {
	svc := &fakePortfolioService{}
	r := newTestRouter(svc)

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodPut, "/api/v1/page", `{"page":3}`).Code)
	assert.Equal(t, 3, svc.page)

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodPut, "/api/v1/page-size", `{"size":10}`).Code)

	svc.pageErr = fmt.Errorf("x: %w", portfolio.ErrInvalidPageSize)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPut, "/api/v1/page-size", `{"size":7}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPut, "/api/v1/page-size", `{}`).Code)
}

func TestSearchAndTrending(t *testing.T) {
	svc := &fakePortfolioService{tokens: []entity.TokenInfo{{ID: "bitcoin"}}}
	r := newTestRouter(svc)

	w := do(t, r, http.MethodGet, "/api/v1/tokens/search?query=bit", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bit", svc.lastTerm)

	w = do(t, r, http.MethodGet, "/api/v1/tokens/trending", "")
	assert.Equal(t, http.StatusOK, w.Code)

	svc.tokens, svc.searchErr = nil, errors.New("rate limited")
	w = do(t, r, http.MethodGet, "/api/v1/tokens/trending", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestMetricsEndpoint(t *testing.T) {
	w := do(t, newTestRouter(&fakePortfolioService{}), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
