package looter

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ultra2207/BotLooter/internal/steam"
)

// Config is the validated run configuration the core consumes. Building it
// from the config file, including clamping ThreadCount to the number of
// available clients, happens before Run is called.
type Config struct {
	// Destinations is the trade offer url pool. One entry is picked per
	// attempt; with a single entry every attempt uses it.
	Destinations []steam.TradeOfferURL

	Inventories []Inventory
	Criteria    FilterCriteria

	// MaxItemsPerTrade caps one offer; MaxItemsTotal caps the whole run
	// (0 means unlimited). The total cap is soft: it stops new dispatches
	// but never cancels attempts already in flight, so the final total may
	// overshoot.
	MaxItemsPerTrade int
	MaxItemsTotal    int

	ThreadCount int

	DelayBetweenAccounts time.Duration
	DelayInventoryEmpty  time.Duration
}

// Subscriber receives one (login, result) pair per finished account.
// Delivery is synchronous and best-effort: a returned error is logged and
// the run carries on.
type Subscriber func(login string, result LootResult) error

// Looter schedules loot attempts over a fixed account list with bounded
// parallelism and aggregates the results.
type Looter struct {
	subscribers []Subscriber
}

func New() *Looter {
	return &Looter{}
}

// OnLooted registers a completion subscriber. Not safe to call once Run has
// started.
func (l *Looter) OnLooted(fn Subscriber) {
	l.subscribers = append(l.subscribers, fn)
}

// Run attempts every client exactly once, in list order, with at most
// cfg.ThreadCount attempts in flight. It blocks until every dispatched
// attempt has finished and returns the aggregated summary.
func (l *Looter) Run(ctx context.Context, clients []*LootClient, cfg Config) Summary {
	threads := cfg.ThreadCount
	if threads < 1 {
		threads = 1
	}

	log.Info().Int("threads", threads).Int("accounts", len(clients)).Msg("starting to loot")

	var (
		lootedTotal atomic.Int64
		progress    atomic.Int64

		resultsMu sync.Mutex
		results   = make([]LootResult, 0, len(clients))
	)

	g := new(errgroup.Group)
	g.SetLimit(threads)

	for _, client := range clients {
		g.Go(func() error {
			// Soft cap: skip accounts once the running total reaches the
			// limit. Attempts already dispatched still complete, so the
			// total can overshoot; that is accepted behavior.
			if cfg.MaxItemsTotal > 0 && lootedTotal.Load() >= int64(cfg.MaxItemsTotal) {
				return nil
			}

			result := client.Attempt(ctx, l.pickDestination(cfg), cfg)

			lootedTotal.Add(int64(result.LootedItemCount))

			resultsMu.Lock()
			results = append(results, result)
			resultsMu.Unlock()

			l.notify(client.Credentials.Login, result)

			done := progress.Add(1)
			log.Info().Msgf("%d/%d | %s | %s", done, len(clients), client.Credentials.Login, result.Message)

			l.waitForNextLoot(ctx, result, cfg)
			return nil
		})
	}

	// Barrier: the summary is only computed once every worker is done.
	_ = g.Wait()

	summary := summarize(results)

	log.Info().Msg("looting finished")
	log.Info().Int("lootedItems", summary.LootedItems).Msg("items looted")
	log.Info().Int("succeeded", summary.Succeeded).Msg("successful trades")
	log.Info().Int("failed", summary.Failed).Msg("failed trades")

	return summary
}

func (l *Looter) pickDestination(cfg Config) steam.TradeOfferURL {
	if len(cfg.Destinations) == 1 {
		return cfg.Destinations[0]
	}
	return cfg.Destinations[rand.IntN(len(cfg.Destinations))]
}

func (l *Looter) notify(login string, result LootResult) {
	for _, subscriber := range l.subscribers {
		if err := subscriber(login, result); err != nil {
			log.Warn().Err(err).Str("login", login).Msg("loot subscriber failed")
		}
	}
}

// waitForNextLoot holds the worker slot for the configured cool-down. An
// account with nothing to loot costs less remote traffic, so it gets the
// shorter delay.
func (l *Looter) waitForNextLoot(ctx context.Context, result LootResult, cfg Config) {
	delay := cfg.DelayBetweenAccounts
	if result.Outcome == OutcomeEmptySource {
		delay = cfg.DelayInventoryEmpty
	}
	_ = sleepCtx(ctx, delay)
}
