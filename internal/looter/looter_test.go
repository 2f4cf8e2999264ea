package looter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ultra2207/BotLooter/internal/steam"
)

func runConfig(threads int) Config {
	cfg := testConfig()
	cfg.ThreadCount = threads
	cfg.Destinations = []steam.TradeOfferURL{{
		Raw: "https://steamcommunity.com/tradeoffer/new/?partner=123456&token=aBcDeFgH",
		Partner: 123456, Token: "aBcDeFgH",
	}}
	return cfg
}

func successfulClient(items int) *LootClient {
	assets := make([]steam.Asset, 0, items)
	for i := 0; i < items; i++ {
		assets = append(assets, asset("A", "1"))
	}
	web := &fakeWeb{
		snapshots: map[string]*steam.InventorySnapshot{"730/2": {
			Descriptions: []steam.Description{desc("A", true, true)},
			Assets:       assets,
		}},
		sendResults: []*steam.SendOfferResult{sentOK("1")},
	}
	return newTestClient(&fakeSession{}, web)
}

func TestRunAggregatesResults(t *testing.T) {
	clients := []*LootClient{
		successfulClient(2),
		newTestClient(&fakeSession{}, &fakeWeb{
			snapshots: map[string]*steam.InventorySnapshot{"730/2": {}},
		}),
		newTestClient(&fakeSession{ensureErr: errors.New("bad token")}, &fakeWeb{}),
	}

	summary := New().Run(context.Background(), clients, runConfig(2))

	assert.Equal(t, Summary{LootedItems: 2, Succeeded: 1, Failed: 2}, summary)
}

func TestRunFiresSubscriberPerAccount(t *testing.T) {
	first := successfulClient(1)
	first.Credentials = &steam.Credentials{Login: "alpha"}
	second := successfulClient(3)
	second.Credentials = &steam.Credentials{Login: "beta"}

	var mu sync.Mutex
	seen := map[string]LootResult{}

	loot := New()
	loot.OnLooted(func(login string, result LootResult) error {
		mu.Lock()
		defer mu.Unlock()
		seen[login] = result
		return nil
	})

	loot.Run(context.Background(), []*LootClient{first, second}, runConfig(2))

	assert.Len(t, seen, 2)
	assert.Equal(t, 1, seen["alpha"].LootedItemCount)
	assert.Equal(t, 3, seen["beta"].LootedItemCount)
}

func TestRunSubscriberErrorDoesNotAbort(t *testing.T) {
	clients := []*LootClient{successfulClient(1), successfulClient(1)}

	var delivered atomic.Int64

	loot := New()
	loot.OnLooted(func(string, LootResult) error {
		return errors.New("export target unreachable")
	})
	loot.OnLooted(func(string, LootResult) error {
		delivered.Add(1)
		return nil
	})

	summary := loot.Run(context.Background(), clients, runConfig(1))

	assert.Equal(t, int64(2), delivered.Load())
	assert.Equal(t, 2, summary.Succeeded)
}

func TestRunBoundsParallelism(t *testing.T) {
	const threads = 2

	var active, peak atomic.Int64

	clients := make([]*LootClient, 6)
	for i := range clients {
		session := &gateSession{active: &active, peak: &peak}
		clients[i] = newTestClient(session, &fakeWeb{})
	}

	New().Run(context.Background(), clients, runConfig(threads))

	assert.LessOrEqual(t, peak.Load(), int64(threads))
	assert.Zero(t, active.Load())
}

// gateSession fails every attempt quickly while tracking how many attempts
// overlap.
type gateSession struct {
	active *atomic.Int64
	peak   *atomic.Int64
}

func (g *gateSession) EnsureSession(ctx context.Context) (string, error) {
	cur := g.active.Add(1)
	for {
		p := g.peak.Load()
		if cur <= p || g.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	g.active.Add(-1)
	return "", errors.New("gate")
}

func (g *gateSession) AcceptConfirmation(ctx context.Context, offerID uint64) error {
	return nil
}

func TestRunSkipsAccountsOnceGlobalCapReached(t *testing.T) {
	clients := []*LootClient{
		successfulClient(4), successfulClient(4), successfulClient(4),
	}

	cfg := runConfig(1)
	cfg.MaxItemsTotal = 5

	var attempts atomic.Int64
	loot := New()
	loot.OnLooted(func(string, LootResult) error {
		attempts.Add(1)
		return nil
	})

	summary := loot.Run(context.Background(), clients, cfg)

	// Sequential: 4 < 5 so the second account still runs; 8 >= 5 stops the
	// third before it does any work.
	assert.Equal(t, int64(2), attempts.Load())
	assert.Equal(t, 8, summary.LootedItems)
}

func TestRunCapOvershootByInFlightWorkIsAccepted(t *testing.T) {
	barrier := make(chan struct{})
	var waiting atomic.Int64

	clients := make([]*LootClient, 2)
	for i := range clients {
		web := &fakeWeb{
			snapshots: map[string]*steam.InventorySnapshot{"730/2": {
				Descriptions: []steam.Description{desc("A", true, true)},
				Assets: []steam.Asset{
					asset("A", "1"), asset("A", "2"), asset("A", "3"), asset("A", "4"),
				},
			}},
			sendResults: []*steam.SendOfferResult{sentOK("1")},
		}
		// Hold both attempts at the session stage until both have been
		// dispatched, so neither sees the other's item count.
		clients[i] = newTestClient(&barrierSession{barrier: barrier, waiting: &waiting}, web)
	}

	cfg := runConfig(2)
	cfg.MaxItemsTotal = 5

	summary := New().Run(context.Background(), clients, cfg)

	assert.Equal(t, 8, summary.LootedItems)
	assert.Equal(t, 2, summary.Succeeded)
}

type barrierSession struct {
	barrier chan struct{}
	waiting *atomic.Int64
}

func (b *barrierSession) EnsureSession(ctx context.Context) (string, error) {
	if b.waiting.Add(1) == 2 {
		close(b.barrier)
	}
	select {
	case <-b.barrier:
	case <-time.After(5 * time.Second):
		return "", errors.New("barrier timeout")
	}
	return "barrier session", nil
}

func (b *barrierSession) AcceptConfirmation(ctx context.Context, offerID uint64) error {
	return nil
}

func TestRunAppliesEmptyInventoryDelay(t *testing.T) {
	clients := []*LootClient{
		newTestClient(&fakeSession{}, &fakeWeb{
			snapshots: map[string]*steam.InventorySnapshot{"730/2": {}},
		}),
	}

	cfg := runConfig(1)
	cfg.DelayInventoryEmpty = 50 * time.Millisecond
	cfg.DelayBetweenAccounts = 2 * time.Second

	start := time.Now()
	New().Run(context.Background(), clients, cfg)
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, 1*time.Second)
}
