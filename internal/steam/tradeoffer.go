package steam

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// steamID64Base is the lowest individual account SteamID64. A trade offer
// URL carries the 32-bit account id; adding the base yields the full id.
const steamID64Base = 76561197960265728

// TradeOfferURL is a parsed trade offer link of the form
// https://steamcommunity.com/tradeoffer/new/?partner=123456&token=aBcDeFgH.
type TradeOfferURL struct {
	Raw     string
	Partner uint32
	Token   string
}

// ParseTradeOfferURL validates and parses a trade offer link. It returns an
// error instead of panicking on malformed input so configuration validation
// can surface the bad value.
func ParseTradeOfferURL(raw string) (TradeOfferURL, error) {
	if strings.TrimSpace(raw) == "" {
		return TradeOfferURL{}, fmt.Errorf("trade offer url is empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return TradeOfferURL{}, fmt.Errorf("invalid trade offer url %q: %w", raw, err)
	}

	if !strings.Contains(u.Path, "/tradeoffer/new") {
		return TradeOfferURL{}, fmt.Errorf("invalid trade offer url %q: not a tradeoffer/new link", raw)
	}

	partnerStr := u.Query().Get("partner")
	partner, err := strconv.ParseUint(partnerStr, 10, 32)
	if err != nil {
		return TradeOfferURL{}, fmt.Errorf("invalid trade offer url %q: bad partner id %q", raw, partnerStr)
	}

	token := u.Query().Get("token")
	if token == "" {
		return TradeOfferURL{}, fmt.Errorf("invalid trade offer url %q: missing token", raw)
	}

	return TradeOfferURL{Raw: raw, Partner: uint32(partner), Token: token}, nil
}

// SteamID64 returns the full 64-bit SteamID of the receiving account.
func (u TradeOfferURL) SteamID64() uint64 {
	return steamID64Base + uint64(u.Partner)
}

func (u TradeOfferURL) String() string {
	return u.Raw
}
