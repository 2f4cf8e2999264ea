package looter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ultra2207/BotLooter/internal/steam"
)

// SessionManager is the per-account session capability: establish an
// authenticated session and approve the mobile confirmation of an offer.
type SessionManager interface {
	EnsureSession(ctx context.Context) (string, error)
	AcceptConfirmation(ctx context.Context, offerID uint64) error
}

// WebClient is the Steam web surface the loot flow consumes.
type WebClient interface {
	LoadInventory(ctx context.Context, appID, contextID string) (*steam.InventorySnapshot, error)
	SendTradeOffer(ctx context.Context, destination steam.TradeOfferURL, offer steam.TradeOffer) (*steam.SendOfferResult, error)
	TradeHoldDuration(ctx context.Context) string
}

const (
	// sendAttempts bounds the send retry loop: one initial try plus two
	// retries.
	sendAttempts = 3

	// transientSendMarker in a 500 response body marks the only condition
	// worth retrying in place.
	transientSendMarker = "please try again later"

	// guardHoldMarker identifies the Steam Guard cool-down rejection. Not
	// retried: the hold lasts days, so the result just reports when the
	// account becomes tradable.
	guardHoldMarker = "Steam Guard enabled for at least 15 days"
)

// LootClient drives the full loot protocol for one account: session,
// inventory filtering, offer building, send with retry, confirmation.
type LootClient struct {
	Credentials *steam.Credentials

	session SessionManager
	web     WebClient

	// Delay knobs, shortened in tests.
	scanDelay      time.Duration
	sendRetryDelay time.Duration
}

func NewLootClient(creds *steam.Credentials, session SessionManager, web WebClient) *LootClient {
	return &LootClient{
		Credentials:    creds,
		session:        session,
		web:            web,
		scanDelay:      3 * time.Second,
		sendRetryDelay: 10 * time.Second,
	}
}

// Attempt runs one loot attempt against the destination. Every failure is
// captured in the returned LootResult; the method never panics and never
// affects other accounts.
func (c *LootClient) Attempt(ctx context.Context, destination steam.TradeOfferURL, cfg Config) LootResult {
	sessionKind, err := c.session.EnsureSession(ctx)
	if err != nil {
		return LootResult{Outcome: OutcomeHardFailure, Message: fmt.Sprintf("session error: %v", err)}
	}
	log.Debug().Str("login", c.Credentials.Login).Str("session", sessionKind).Msg("session ready")

	assets, failure := c.assetsToSend(ctx, cfg)
	if failure != nil {
		return *failure
	}
	if len(assets) == 0 {
		return LootResult{Outcome: OutcomeEmptySource, Message: "empty inventories"}
	}

	offer := BuildTradeOffer(assets)

	offerID, failure := c.sendTradeOffer(ctx, destination, offer)
	if failure != nil {
		return *failure
	}

	if err := c.session.AcceptConfirmation(ctx, offerID); err != nil {
		// The offer already exists on Steam's side at this point. There is
		// no cancellation attempt; the offer dangles until it expires or
		// someone confirms it by hand.
		log.Debug().Str("login", c.Credentials.Login).Err(err).Msg("confirmation failed")
		return LootResult{Outcome: OutcomeHardFailure, Message: "could not confirm the trade"}
	}

	count := len(offer.Me.Assets)
	return LootResult{
		Outcome:         OutcomeSuccess,
		Message:         fmt.Sprintf("looted %d items", count),
		LootedItemCount: count,
	}
}

// assetsToSend scans the configured inventories in order and filters them
// down to the eligible assets. Any fetch failure aborts the whole attempt;
// there is no partial result. A fixed delay separates consecutive scans to
// stay under Steam's rate limits.
func (c *LootClient) assetsToSend(ctx context.Context, cfg Config) ([]steam.Asset, *LootResult) {
	snapshots := make([]*steam.InventorySnapshot, 0, len(cfg.Inventories))

	for i, inventory := range cfg.Inventories {
		if i > 0 {
			if err := sleepCtx(ctx, c.scanDelay); err != nil {
				return nil, &LootResult{Outcome: OutcomeTransientFailure, Message: "cancelled"}
			}
		}

		snapshot, err := c.web.LoadInventory(ctx, inventory.AppID, inventory.ContextID)
		if err != nil {
			return nil, &LootResult{
				Outcome: OutcomeTransientFailure,
				Message: fmt.Sprintf("could not retrieve inventory %s: %v", inventory, err),
			}
		}
		snapshots = append(snapshots, snapshot)
	}

	return FilterAssets(snapshots, cfg.Criteria, cfg.MaxItemsPerTrade), nil
}

// sendTradeOffer sends the offer, retrying in place only on the transient
// 500 "please try again later" condition, and classifies every other
// failure. On success it returns the parsed offer id.
func (c *LootClient) sendTradeOffer(ctx context.Context, destination steam.TradeOfferURL, offer steam.TradeOffer) (uint64, *LootResult) {
	var result *steam.SendOfferResult

	for attempt := 1; ; attempt++ {
		res, err := c.web.SendTradeOffer(ctx, destination, offer)
		if err != nil {
			return 0, &LootResult{
				Outcome: OutcomeTransientFailure,
				Message: fmt.Sprintf("could not send trade: %v", err),
			}
		}
		result = res

		if !isTransientSendFailure(res) || attempt >= sendAttempts {
			break
		}

		log.Debug().
			Str("login", c.Credentials.Login).
			Int("attempt", attempt).
			Msg("transient send failure, retrying")

		if err := sleepCtx(ctx, c.sendRetryDelay); err != nil {
			return 0, &LootResult{Outcome: OutcomeTransientFailure, Message: "cancelled"}
		}
	}

	if result.Data == nil {
		outcome := OutcomeHardFailure
		if isTransientSendFailure(result) {
			outcome = OutcomeTransientFailure
		}
		return 0, &LootResult{
			Outcome: outcome,
			Message: fmt.Sprintf("could not send trade - %d %s", result.StatusCode, result.Body),
		}
	}

	if result.Data.Error != "" {
		if strings.Contains(result.Data.Error, guardHoldMarker) {
			holdTime := c.web.TradeHoldDuration(ctx)
			return 0, &LootResult{
				Outcome: OutcomeDeferred,
				Message: fmt.Sprintf("trade will be available in %s", holdTime),
			}
		}
		return 0, &LootResult{
			Outcome: OutcomeHardFailure,
			Message: fmt.Sprintf("could not send trade - %s", result.Data.Error),
		}
	}

	offerID, err := strconv.ParseUint(result.Data.TradeOfferID, 10, 64)
	if err != nil {
		return 0, &LootResult{
			Outcome: OutcomeHardFailure,
			Message: fmt.Sprintf("could not parse trade id - %d %s", result.StatusCode, result.Body),
		}
	}

	return offerID, nil
}

func isTransientSendFailure(res *steam.SendOfferResult) bool {
	return res.StatusCode == http.StatusInternalServerError &&
		strings.Contains(strings.ToLower(res.Body), transientSendMarker)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
