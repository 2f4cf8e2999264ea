package steam

// CommunityAppID is the appid of Steam community items (trading cards,
// backgrounds, emoticons). Items from any game end up under this appid when
// listed through the community market; the originating game is carried in
// the description's MarketFeeApp field.
const CommunityAppID = 753

// Tag is one localized tag attached to an item description.
type Tag struct {
	Category              string `json:"category"`
	InternalName          string `json:"internal_name"`
	LocalizedCategoryName string `json:"localized_category_name"`
	LocalizedTagName      string `json:"localized_tag_name"`
}

// Description holds the properties shared by all assets of one classid.
// Steam encodes booleans as 0/1 integers on this endpoint.
type Description struct {
	AppID        int    `json:"appid"`
	ClassID      string `json:"classid"`
	InstanceID   string `json:"instanceid"`
	MarketName   string `json:"market_name"`
	MarketFeeApp int    `json:"market_fee_app"`
	Tradable     int    `json:"tradable"`
	Marketable   int    `json:"marketable"`
	Tags         []Tag  `json:"tags"`
}

// IsTradable reports whether assets of this class can be traded at all.
func (d Description) IsTradable() bool { return d.Tradable != 0 }

// IsMarketable reports whether assets of this class can be listed on the
// community market.
func (d Description) IsMarketable() bool { return d.Marketable != 0 }

// Asset is one item instance in an inventory. Amount is a string on the
// wire and may be empty for non-stackable items.
type Asset struct {
	AppID      int    `json:"appid"`
	ContextID  string `json:"contextid"`
	AssetID    string `json:"assetid"`
	ClassID    string `json:"classid"`
	InstanceID string `json:"instanceid"`
	Amount     string `json:"amount"`
}

// InventorySnapshot is the parsed response of one inventory page. Snapshots
// of consecutive pages are merged by the web client before they reach the
// filtering code.
type InventorySnapshot struct {
	Assets              []Asset       `json:"assets"`
	Descriptions        []Description `json:"descriptions"`
	MoreItems           int           `json:"more_items"`
	LastAssetID         string        `json:"last_assetid"`
	TotalInventoryCount int           `json:"total_inventory_count"`
	Success             int           `json:"success"`
}

// TradeOfferAsset is one entry of a trade offer payload. Steam expects the
// appid and contextid as strings here, unlike the inventory endpoint.
type TradeOfferAsset struct {
	AppID     string `json:"appid"`
	ContextID string `json:"contextid"`
	Amount    int    `json:"amount"`
	AssetID   string `json:"assetid"`
}

// TradeOfferParty lists what one side of the offer gives away.
type TradeOfferParty struct {
	Assets   []TradeOfferAsset `json:"assets"`
	Currency []struct{}        `json:"currency"`
	Ready    bool              `json:"ready"`
}

// TradeOffer is the json_tradeoffer form field of the send endpoint.
type TradeOffer struct {
	NewVersion bool            `json:"newversion"`
	Version    int             `json:"version"`
	Me         TradeOfferParty `json:"me"`
	Them       TradeOfferParty `json:"them"`
}

// SendOfferData is the parsed JSON body of a send-offer response. Steam
// reports application-level failures through the strError field with a 200
// status, so a parsed body is not yet a success.
type SendOfferData struct {
	TradeOfferID            string `json:"tradeofferid"`
	NeedsMobileConfirmation bool   `json:"needs_mobile_confirmation"`
	Error                   string `json:"strError"`
}

// SendOfferResult carries everything the caller needs to classify a
// send-offer response. Data is nil when the body did not parse as JSON.
type SendOfferResult struct {
	StatusCode int
	Body       string
	Data       *SendOfferData
}
