package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Gateway query outcomes.
const (
	OutcomeHit     = "hit"
	OutcomeMiss    = "miss"
	OutcomeStale   = "stale"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// Metrics groups the collectors of the portfolio service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatewayRequests  *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	upstreamFailures *prometheus.CounterVec
	persistFailures  *prometheus.CounterVec
	pollTicks        prometheus.Counter
	watchlistSize    prometheus.Gauge
	portfolioValue   prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		gatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "token_portfolio",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Market data queries by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "token_portfolio",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Latency of market data API calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		upstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "token_portfolio",
			Subsystem: "upstream",
			Name:      "failures_total",
			Help:      "Failed market data API calls.",
		}, []string{"endpoint"}),
		persistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "token_portfolio",
			Subsystem: "persistence",
			Name:      "failures_total",
			Help:      "Snapshot save/restore failures.",
		}, []string{"op"}),
		pollTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "token_portfolio",
			Subsystem: "poller",
			Name:      "ticks_total",
			Help:      "Background refresh ticks.",
		}),
		watchlistSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "token_portfolio",
			Name:      "watchlist_size",
			Help:      "Number of tokens in the watchlist.",
		}),
		portfolioValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "token_portfolio",
			Name:      "portfolio_value",
			Help:      "Last computed portfolio total in the quote currency.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.gatewayRequests,
			m.upstreamLatency,
			m.upstreamFailures,
			m.persistFailures,
			m.pollTicks,
			m.watchlistSize,
			m.portfolioValue,
		)
	}
	return m
}

// GatewayRequest counts one gateway query by endpoint and outcome.
func (m *Metrics) GatewayRequest(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.gatewayRequests.WithLabelValues(endpoint, outcome).Inc()
}

// ObserveUpstream records one upstream call started at start.
func (m *Metrics) ObserveUpstream(endpoint string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.upstreamLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		m.upstreamFailures.WithLabelValues(endpoint).Inc()
	}
}

// PersistFailure counts a failed snapshot save or restore.
func (m *Metrics) PersistFailure(op string) {
	if m == nil {
		return
	}
	m.persistFailures.WithLabelValues(op).Inc()
}

// PollTick counts one background refresh round.
func (m *Metrics) PollTick() {
	if m == nil {
		return
	}
	m.pollTicks.Inc()
}

// SetWatchlistSize records the number of watched tokens.
func (m *Metrics) SetWatchlistSize(n int) {
	if m == nil {
		return
	}
	m.watchlistSize.Set(float64(n))
}

// SetPortfolioValue records the last computed portfolio total.
func (m *Metrics) SetPortfolioValue(v float64) {
	if m == nil {
		return
	}
	m.portfolioValue.Set(v)
}
