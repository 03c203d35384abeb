package service

import (
	"context"
	"sync"
	"time"

	"token_portfolio/internal/app/port"
	"token_portfolio/internal/infrastructure/metrics"
	"token_portfolio/internal/pkg/utils"
)

// IDSource returns the id set a subscriber currently wants kept warm.
type IDSource func() []string

// poller re-fetches subscribed id sets on a fixed interval. The ticker only
// runs while at least one subscriber exists.
type poller struct {
	gw       *MarketGateway
	interval time.Duration
	logger   port.Logger
	metrics  *metrics.Metrics

	mu     sync.Mutex
	subs   map[int]IDSource
	nextID int
	cancel context.CancelFunc
	done   chan struct{}
}

func newPoller(gw *MarketGateway, interval time.Duration, logger port.Logger, m *metrics.Metrics) *poller {
	return &poller{
		gw:       gw,
		interval: interval,
		logger:   logger,
		metrics:  m,
		subs:     make(map[int]IDSource),
	}
}

// Subscribe adds source to the polling set and starts the ticker if it is the
// first subscriber. The returned function is idempotent.
func (p *poller) Subscribe(source IDSource) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = source
	if len(p.subs) == 1 {
		p.startLocked()
	}
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { p.unsubscribe(id) })
	}
}

// Subscribers returns the number of active subscriptions.
func (p *poller) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Close drops every subscription and waits for the ticker to stop.
func (p *poller) Close() {
	p.mu.Lock()
	p.subs = make(map[int]IDSource)
	done := p.stopLocked()
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (p *poller) unsubscribe(id int) {
	p.mu.Lock()
	delete(p.subs, id)
	var done chan struct{}
	if len(p.subs) == 0 {
		done = p.stopLocked()
	}
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (p *poller) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
	p.logger.Debug("Market data polling started", "interval", p.interval.String())
}

func (p *poller) stopLocked() chan struct{} {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	done := p.done
	p.cancel, p.done = nil, nil
	p.logger.Debug("Market data polling stopped")
	return done
}

func (p *poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick refreshes every subscriber's current id set once. Failures wait for the next tick.
func (p *poller) tick(ctx context.Context) {
	p.metrics.PollTick()

	p.mu.Lock()
	sources := make([]IDSource, 0, len(p.subs))
	for _, s := range p.subs {
		sources = append(sources, s)
	}
	p.mu.Unlock()

	seen := make(map[string]struct{}, len(sources))
	for _, source := range sources {
		ids := utils.NormalizeIDs(source())
		if len(ids) == 0 {
			continue
		}
		key := p.gw.MarketsKey(ids)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		res := p.gw.Refresh(ctx, ids)
		if res.Err != nil {
			p.logger.Warn("Background market refresh failed", "key", key, "error", res.Err)
		}
	}
}
