package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"token_portfolio/internal/app/port"
	"token_portfolio/internal/domain/entity"
	"token_portfolio/internal/infrastructure/metrics"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrEmptyIDs is returned when a market data request carries no ids.
var ErrEmptyIDs = errors.New("ids cannot be empty")

// ErrUpstreamStatus wraps non-200 answers from the API.
var ErrUpstreamStatus = errors.New("unexpected upstream status")

const (
	endpointMarkets  = "markets"
	endpointSearch   = "search"
	endpointTrending = "trending"

	apiKeyHeader = "x-cg-demo-api-key"
	marketsPage  = "250"
)

// CoinGeckoOptions configures the client.
type CoinGeckoOptions struct {
	BaseURL           string
	APIKey            string
	VsCurrency        string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

type coinGeckoClientImpl struct {
	client     *fasthttp.Client
	baseURL    string
	apiKey     string
	vsCurrency string
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewCoinGeckoClient creates a port.MarketDataClient for the CoinGecko v3 API.
func NewCoinGeckoClient(opts CoinGeckoOptions, logger *zap.Logger, m *metrics.Metrics) port.MarketDataClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.VsCurrency == "" {
		opts.VsCurrency = "usd"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &coinGeckoClientImpl{
		client: &fasthttp.Client{
			Name:                "token-portfolio",
			MaxIdleConnDuration: 30 * time.Second,
		},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		vsCurrency: strings.ToLower(opts.VsCurrency),
		timeout:    opts.Timeout,
		limiter:    rate.NewLimiter(limit, opts.Burst),
		logger:     logger.Named("CoinGeckoClient"),
		metrics:    m,
	}
}

// GetCoinsMarketData implements port.MarketDataClient.
func (c *coinGeckoClientImpl) GetCoinsMarketData(ctx context.Context, ids []string) ([]entity.MarketSnapshot, error) {
	if len(ids) == 0 {
		return nil, ErrEmptyIDs
	}
	q := url.Values{}
	q.Set("vs_currency", c.vsCurrency)
	q.Set("ids", strings.Join(ids, ","))
	q.Set("order", "market_cap_desc")
	q.Set("per_page", marketsPage)
	q.Set("page", "1")
	q.Set("sparkline", "true")
	q.Set("locale", "en")

	var out []entity.MarketSnapshot
	if err := c.get(ctx, endpointMarkets, "/coins/markets?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	c.logger.Debug("Fetched market data", zap.Int("requested", len(ids)), zap.Int("received", len(out)))
	return out, nil
}

// SearchCoins implements port.MarketDataClient.
func (c *coinGeckoClientImpl) SearchCoins(ctx context.Context, query string) (entity.SearchResponse, error) {
	var out entity.SearchResponse
	q := url.Values{}
	q.Set("query", query)
	if err := c.get(ctx, endpointSearch, "/search?"+q.Encode(), &out); err != nil {
		return entity.SearchResponse{}, err
	}
	return out, nil
}

// GetTrendingCoins implements port.MarketDataClient.
func (c *coinGeckoClientImpl) GetTrendingCoins(ctx context.Context) (entity.TrendingResponse, error) {
	var out entity.TrendingResponse
	if err := c.get(ctx, endpointTrending, "/search/trending", &out); err != nil {
		return entity.TrendingResponse{}, err
	}
	return out, nil
}

func (c *coinGeckoClientImpl) get(ctx context.Context, endpoint, pathAndQuery string, dst any) (err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", endpoint, err)
	}

	start := time.Now()
	defer func() { c.metrics.ObserveUpstream(endpoint, start, err) }()

	requestURL := c.baseURL + pathAndQuery
	c.logger.Debug("Requesting CoinGecko", zap.String("endpoint", endpoint), zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Error("Failed to execute request to CoinGecko", zap.String("endpoint", endpoint), zap.Error(err))
			return fmt.Errorf("failed to execute request to %s: %w", endpoint, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Error("Failed to execute request to CoinGecko (with default timeout)", zap.String("endpoint", endpoint), zap.Error(err))
			return fmt.Errorf("failed to execute request to %s with default timeout: %w", endpoint, err)
		}
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Warn("CoinGecko API request failed",
			zap.String("endpoint", endpoint),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", truncate(rawBody, 512)),
		)
		return fmt.Errorf("%s request failed with status %d: %w", endpoint, resp.StatusCode(), ErrUpstreamStatus)
	}

	if err := json.Unmarshal(rawBody, dst); err != nil {
		c.logger.Error("Failed to unmarshal CoinGecko response", zap.String("endpoint", endpoint), zap.Error(err))
		return fmt.Errorf("failed to unmarshal %s response: %w", endpoint, err)
	}
	return nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
