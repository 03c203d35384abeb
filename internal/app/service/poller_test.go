package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoller_RefreshesWhileSubscribed(t *testing.T) {
	client := newFakeMarketClient(map[string]float64{"bitcoin": 1})
	g := newTestGateway(client, GatewayConfig{PollInterval: 10 * time.Millisecond, Freshness: time.Hour})
	defer g.Close()

	unsubscribe := g.Subscribe(func() []string { return []string{"bitcoin"} })
	assert.Equal(t, 1, g.Subscribers())

	require.Eventually(t, func() bool { return client.marketCalls.Load() >= 2 }, time.Second, 5*time.Millisecond,
		"polls are forced fetches even inside the freshness window")

	unsubscribe()
	assert.Equal(t, 0, g.Subscribers())
	time.Sleep(10 * time.Millisecond)
	calls := client.marketCalls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, client.marketCalls.Load(), "no polling after the last unsubscribe")
}

func TestPoller_EmptySourceMakesNoCalls(t *testing.T) {
	client := newFakeMarketClient(map[string]float64{})
	g := newTestGateway(client, GatewayConfig{PollInterval: 5 * time.Millisecond})
	defer g.Close()

	var asked atomic.Int32
	unsubscribe := g.Subscribe(func() []string {
		asked.Add(1)
		return nil
	})
	defer unsubscribe()

	require.Eventually(t, func() bool { return asked.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, client.marketCalls.Load())
}

func TestPoller_SharedIDSetFetchedOncePerTick(t *testing.T) {
	client := newFakeMarketClient(map[string]float64{"bitcoin": 1})
	g := newTestGateway(client, GatewayConfig{PollInterval: 80 * time.Millisecond})
	defer g.Close()

	source := func() []string { return []string{"bitcoin"} }
	u1 := g.Subscribe(source)
	u2 := g.Subscribe(source)
	defer u1()
	defer u2()

	require.Eventually(t, func() bool { return client.marketCalls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), client.marketCalls.Load())
}

func TestPoller_FailuresDoNotStopPolling(t *testing.T) {
	client := newFakeMarketClient(map[string]float64{"bitcoin": 1})
	client.setFailure(errUpstream)
	g := newTestGateway(client, GatewayConfig{PollInterval: 5 * time.Millisecond})
	defer g.Close()

	unsubscribe := g.Subscribe(func() []string { return []string{"bitcoin"} })
	defer unsubscribe()

	require.Eventually(t, func() bool { return client.marketCalls.Load() >= 3 }, time.Second, 2*time.Millisecond)
}

func TestPoller_ResubscribeRestarts(t *testing.T) {
	client := newFakeMarketClient(map[string]float64{"bitcoin": 1})
	g := newTestGateway(client, GatewayConfig{PollInterval: 5 * time.Millisecond})
	defer g.Close()

	g.Subscribe(func() []string { return []string{"bitcoin"} })()
	calls := client.marketCalls.Load()

	unsubscribe := g.Subscribe(func() []string { return []string{"bitcoin"} })
	defer unsubscribe()
	require.Eventually(t, func() bool { return client.marketCalls.Load() > calls }, time.Second, 5*time.Millisecond)
}

func TestPoller_TickDedupesNormalizedIDSets(t *testing.T) {
	client := newFakeMarketClient(map[string]float64{"bitcoin": 1, "ethereum": 2})
	g := newTestGateway(client, GatewayConfig{PollInterval: time.Hour})
	defer g.Close()

	u1 := g.Subscribe(func() []string { return []string{"bitcoin", "ethereum"} })
	u2 := g.Subscribe(func() []string { return []string{" bitcoin", "ethereum", "bitcoin", ""} })
	defer u1()
	defer u2()

	g.tick(context.Background())

	assert.Equal(t, int32(1), client.marketCalls.Load())
}
