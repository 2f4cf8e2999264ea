package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/go-resty/resty/v2"
)

const (
	// inventoryPageSize is the maximum item count Steam returns per
	// inventory request.
	inventoryPageSize = 5000

	// maxInventoryPages bounds pagination so a misbehaving endpoint can't
	// loop us forever.
	maxInventoryPages = 50
)

// Web wraps the Steam community endpoints the loot flow needs: inventory
// loading, trade offer sending and the trade hold lookup. It shares the
// session's resty client so its cookies authenticate every request.
type Web struct {
	session *Session
	http    *resty.Client

	communityURL string
	helpURL      string
}

// WebOpts overrides the Steam endpoints, used by tests.
type WebOpts struct {
	CommunityURL string
	HelpURL      string
}

func NewWeb(session *Session, client *resty.Client, opts WebOpts) *Web {
	w := &Web{
		session:      session,
		http:         client,
		communityURL: CommunityBaseURL,
		helpURL:      "https://help.steampowered.com",
	}
	if opts.CommunityURL != "" {
		w.communityURL = opts.CommunityURL
	}
	if opts.HelpURL != "" {
		w.helpURL = opts.HelpURL
	}
	return w
}

// LoadInventory fetches the full inventory for one appid/contextid pair,
// following pagination until Steam reports no more items.
func (w *Web) LoadInventory(ctx context.Context, appID, contextID string) (*InventorySnapshot, error) {
	merged := &InventorySnapshot{}
	lastAssetID := ""

	for page := 0; page < maxInventoryPages; page++ {
		var snapshot InventorySnapshot

		req := w.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"l":     "english",
				"count": strconv.Itoa(inventoryPageSize),
			}).
			SetResult(&snapshot)
		if lastAssetID != "" {
			req.SetQueryParam("start_assetid", lastAssetID)
		}

		res, err := req.Get(fmt.Sprintf("%s/inventory/%s/%s/%s",
			w.communityURL, w.session.SteamID(), appID, contextID))
		if err != nil {
			return nil, err
		}
		if res.IsError() || snapshot.Success != 1 {
			return nil, fmt.Errorf("inventory request failed (status: %d)", res.StatusCode())
		}

		merged.Assets = append(merged.Assets, snapshot.Assets...)
		merged.Descriptions = append(merged.Descriptions, snapshot.Descriptions...)
		merged.TotalInventoryCount = snapshot.TotalInventoryCount
		merged.Success = 1

		if snapshot.MoreItems != 1 || snapshot.LastAssetID == "" {
			return merged, nil
		}
		lastAssetID = snapshot.LastAssetID
	}

	return nil, fmt.Errorf("inventory pagination did not terminate after %d pages", maxInventoryPages)
}

// SendTradeOffer posts the offer to the destination of the trade offer url.
// A transport failure returns an error; any HTTP response, including server
// errors, is returned as a SendOfferResult so the caller can decide whether
// to retry.
func (w *Web) SendTradeOffer(ctx context.Context, destination TradeOfferURL, offer TradeOffer) (*SendOfferResult, error) {
	offerJSON, err := json.Marshal(offer)
	if err != nil {
		return nil, fmt.Errorf("encoding trade offer: %w", err)
	}

	accessToken, err := json.Marshal(map[string]string{
		"trade_offer_access_token": destination.Token,
	})
	if err != nil {
		return nil, err
	}

	res, err := w.http.R().
		SetContext(ctx).
		SetHeader("Referer", destination.Raw).
		SetFormData(map[string]string{
			"sessionid":                 w.session.SessionID(),
			"serverid":                  "1",
			"partner":                   strconv.FormatUint(destination.SteamID64(), 10),
			"tradeoffermessage":         "",
			"json_tradeoffer":           string(offerJSON),
			"trade_offer_create_params": string(accessToken),
			"captcha":                   "",
		}).
		Post(w.communityURL + "/tradeoffer/new/send")
	if err != nil {
		return nil, err
	}

	result := &SendOfferResult{
		StatusCode: res.StatusCode(),
		Body:       string(res.Body()),
	}

	var data SendOfferData
	if err := json.Unmarshal(res.Body(), &data); err == nil {
		if data.TradeOfferID != "" || data.Error != "" {
			result.Data = &data
		}
	}

	return result, nil
}

// tradeHoldPattern picks the remaining wait out of the "why can't I trade"
// help page. Steam renders it as plain text like "15 days" or "48 hours".
var tradeHoldPattern = regexp.MustCompile(`(\d+\s+(?:days?|hours?|minutes?))`)

// TradeHoldDuration fetches a human-readable remaining trade hold time for
// the signed-in account. Best effort: any failure degrades to "unknown
// time" since the value is only used in a result message.
func (w *Web) TradeHoldDuration(ctx context.Context) string {
	res, err := w.http.R().
		SetContext(ctx).
		Get(w.helpURL + "/en/wizard/HelpWhyCantITrade")
	if err != nil || res.IsError() {
		return "unknown time"
	}

	if match := tradeHoldPattern.Find(res.Body()); match != nil {
		return string(match)
	}

	return "unknown time"
}
