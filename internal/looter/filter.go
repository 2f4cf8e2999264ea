package looter

import (
	"github.com/ultra2207/BotLooter/internal/steam"
)

// Inventory identifies one appid/contextid inventory to scan. The
// configured order is the scan order.
type Inventory struct {
	AppID     string
	ContextID string
}

func (i Inventory) String() string { return i.AppID + "/" + i.ContextID }

// FilterCriteria selects which item classes are eligible for looting.
// Empty lists impose no restriction. Exclusion is decided per classid: one
// matching description excludes every asset of that class.
type FilterCriteria struct {
	IgnoreNotMarketable bool
	IgnoreMarketable    bool

	OnlyNames   []string
	IgnoreNames []string

	// App id rules only apply to Steam community items (appid 753), whose
	// originating game is the description's market_fee_app.
	OnlyAppIDs   []int
	IgnoreAppIDs []int

	OnlyTags   []string
	IgnoreTags []string
}

// FilterAssets returns the assets eligible for transfer across the given
// snapshots, in scan order, truncated to maxItems (applied once, after
// concatenation). The exclusion set is accumulated over every snapshot
// before any asset is kept, so a class excluded by one inventory's
// description is excluded everywhere. Deterministic: identical input yields
// an identical result.
func FilterAssets(snapshots []*steam.InventorySnapshot, criteria FilterCriteria, maxItems int) []steam.Asset {
	excluded := make(map[string]struct{})
	for _, snapshot := range snapshots {
		criteria.exclude(excluded, snapshot.Descriptions)
	}

	var assets []steam.Asset
	for _, snapshot := range snapshots {
		for _, asset := range snapshot.Assets {
			if _, out := excluded[asset.ClassID]; !out {
				assets = append(assets, asset)
			}
		}
	}

	if maxItems > 0 && len(assets) > maxItems {
		assets = assets[:maxItems]
	}

	return assets
}

// exclude adds every classid matching an active rule to the exclusion set.
// Rules only ever add; their order is fixed and each inspects the original
// description, not the set built so far.
func (c FilterCriteria) exclude(excluded map[string]struct{}, descriptions []steam.Description) {
	out := func(d steam.Description) { excluded[d.ClassID] = struct{}{} }

	for _, d := range descriptions {
		if !d.IsTradable() {
			out(d)
		}
	}

	if c.IgnoreNotMarketable {
		for _, d := range descriptions {
			if !d.IsMarketable() {
				out(d)
			}
		}
	}

	if c.IgnoreMarketable {
		for _, d := range descriptions {
			if d.IsMarketable() {
				out(d)
			}
		}
	}

	if len(c.OnlyNames) > 0 {
		for _, d := range descriptions {
			if !containsString(c.OnlyNames, d.MarketName) {
				out(d)
			}
		}
	}

	if len(c.IgnoreNames) > 0 {
		for _, d := range descriptions {
			if containsString(c.IgnoreNames, d.MarketName) {
				out(d)
			}
		}
	}

	if len(c.OnlyAppIDs) > 0 {
		for _, d := range descriptions {
			if d.AppID == steam.CommunityAppID && !containsInt(c.OnlyAppIDs, d.MarketFeeApp) {
				out(d)
			}
		}
	}

	if len(c.IgnoreAppIDs) > 0 {
		for _, d := range descriptions {
			if d.AppID == steam.CommunityAppID && containsInt(c.IgnoreAppIDs, d.MarketFeeApp) {
				out(d)
			}
		}
	}

	if len(c.OnlyTags) > 0 {
		for _, d := range descriptions {
			if len(d.Tags) > 0 && !anyTagMatches(d.Tags, c.OnlyTags) {
				out(d)
			}
		}
	}

	if len(c.IgnoreTags) > 0 {
		for _, d := range descriptions {
			if anyTagMatches(d.Tags, c.IgnoreTags) {
				out(d)
			}
		}
	}
}

func anyTagMatches(tags []steam.Tag, names []string) bool {
	for _, tag := range tags {
		if containsString(names, tag.LocalizedTagName) {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, i := range list {
		if i == v {
			return true
		}
	}
	return false
}
