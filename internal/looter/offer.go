package looter

import (
	"strconv"

	"github.com/ultra2207/BotLooter/internal/steam"
)

// MaxOfferSize is the hard ceiling Steam imposes on entries per trade
// offer. Configuration may lower it, never raise it.
const MaxOfferSize = 8192

// BuildTradeOffer converts already-filtered assets into a trade offer
// payload. Amounts are normalized: an unparsable amount string counts as 1.
// The caller guarantees the asset list is within the offer size cap.
func BuildTradeOffer(assets []steam.Asset) steam.TradeOffer {
	offer := steam.TradeOffer{
		NewVersion: true,
		Version:    4,
	}

	for _, asset := range assets {
		amount, err := strconv.Atoi(asset.Amount)
		if err != nil {
			amount = 1
		}

		offer.Me.Assets = append(offer.Me.Assets, steam.TradeOfferAsset{
			AppID:     strconv.Itoa(asset.AppID),
			ContextID: asset.ContextID,
			Amount:    amount,
			AssetID:   asset.AssetID,
		})
	}

	return offer
}
