package looter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ultra2207/BotLooter/internal/steam"
)

func desc(classID string, tradable, marketable bool) steam.Description {
	d := steam.Description{ClassID: classID, MarketName: classID}
	if tradable {
		d.Tradable = 1
	}
	if marketable {
		d.Marketable = 1
	}
	return d
}

func asset(classID, assetID string) steam.Asset {
	return steam.Asset{AppID: 730, ContextID: "2", ClassID: classID, AssetID: assetID, Amount: "1"}
}

func assetIDs(assets []steam.Asset) []string {
	ids := make([]string, 0, len(assets))
	for _, a := range assets {
		ids = append(ids, a.AssetID)
	}
	return ids
}

func TestFilterAssetsExcludesNotTradableClasses(t *testing.T) {
	snapshot := &steam.InventorySnapshot{
		Descriptions: []steam.Description{
			desc("A", true, true),
			desc("B", false, true),
		},
		Assets: []steam.Asset{
			asset("A", "1"), asset("A", "2"), asset("A", "3"),
			asset("B", "4"), asset("B", "5"),
		},
	}

	eligible := FilterAssets([]*steam.InventorySnapshot{snapshot}, FilterCriteria{}, 0)

	assert.Equal(t, []string{"1", "2", "3"}, assetIDs(eligible))
}

func TestFilterAssetsOnlyNames(t *testing.T) {
	widget := desc("W", true, true)
	widget.MarketName = "Widget"
	gadget := desc("G", true, true)
	gadget.MarketName = "Gadget"

	snapshot := &steam.InventorySnapshot{
		Descriptions: []steam.Description{widget, gadget},
		Assets: []steam.Asset{
			asset("W", "1"), asset("W", "2"), asset("W", "3"),
			asset("G", "4"), asset("G", "5"),
		},
	}

	eligible := FilterAssets([]*steam.InventorySnapshot{snapshot},
		FilterCriteria{OnlyNames: []string{"Widget"}}, 0)

	assert.Equal(t, []string{"1", "2", "3"}, assetIDs(eligible))
}

func TestFilterAssetsIgnoreNames(t *testing.T) {
	snapshot := &steam.InventorySnapshot{
		Descriptions: []steam.Description{desc("A", true, true), desc("B", true, true)},
		Assets:       []steam.Asset{asset("A", "1"), asset("B", "2")},
	}

	eligible := FilterAssets([]*steam.InventorySnapshot{snapshot},
		FilterCriteria{IgnoreNames: []string{"B"}}, 0)

	assert.Equal(t, []string{"1"}, assetIDs(eligible))
}

func TestFilterAssetsMarketableToggles(t *testing.T) {
	snapshot := &steam.InventorySnapshot{
		Descriptions: []steam.Description{
			desc("M", true, true),
			desc("N", true, false),
		},
		Assets: []steam.Asset{asset("M", "1"), asset("N", "2")},
	}
	snapshots := []*steam.InventorySnapshot{snapshot}

	assert.Equal(t, []string{"1"},
		assetIDs(FilterAssets(snapshots, FilterCriteria{IgnoreNotMarketable: true}, 0)))
	assert.Equal(t, []string{"2"},
		assetIDs(FilterAssets(snapshots, FilterCriteria{IgnoreMarketable: true}, 0)))
}

func TestFilterAssetsAppIDRulesOnlyTouchCommunityItems(t *testing.T) {
	card := desc("C", true, true)
	card.AppID = steam.CommunityAppID
	card.MarketFeeApp = 440

	skin := desc("S", true, true)
	skin.AppID = 730

	snapshot := &steam.InventorySnapshot{
		Descriptions: []steam.Description{card, skin},
		Assets:       []steam.Asset{asset("C", "1"), asset("S", "2")},
	}
	snapshots := []*steam.InventorySnapshot{snapshot}

	// Allow list without 440: the community card is excluded, the CS skin
	// is untouched even though 730 is not in the list.
	eligible := FilterAssets(snapshots, FilterCriteria{OnlyAppIDs: []int{570}}, 0)
	assert.Equal(t, []string{"2"}, assetIDs(eligible))

	// Deny list with 440 removes the card only.
	eligible = FilterAssets(snapshots, FilterCriteria{IgnoreAppIDs: []int{440}}, 0)
	assert.Equal(t, []string{"2"}, assetIDs(eligible))

	// Allow list with 440 keeps both.
	eligible = FilterAssets(snapshots, FilterCriteria{OnlyAppIDs: []int{440}}, 0)
	assert.Equal(t, []string{"1", "2"}, assetIDs(eligible))
}

func TestFilterAssetsTagRules(t *testing.T) {
	rare := desc("R", true, true)
	rare.Tags = []steam.Tag{{LocalizedTagName: "Rare"}}

	common := desc("C", true, true)
	common.Tags = []steam.Tag{{LocalizedTagName: "Common"}}

	untagged := desc("U", true, true)

	snapshot := &steam.InventorySnapshot{
		Descriptions: []steam.Description{rare, common, untagged},
		Assets:       []steam.Asset{asset("R", "1"), asset("C", "2"), asset("U", "3")},
	}
	snapshots := []*steam.InventorySnapshot{snapshot}

	// Allow-by-tag only excludes classes that have tags, none matching.
	eligible := FilterAssets(snapshots, FilterCriteria{OnlyTags: []string{"Rare"}}, 0)
	assert.Equal(t, []string{"1", "3"}, assetIDs(eligible))

	eligible = FilterAssets(snapshots, FilterCriteria{IgnoreTags: []string{"Rare"}}, 0)
	assert.Equal(t, []string{"2", "3"}, assetIDs(eligible))
}

func TestFilterAssetsClassLevelExclusionSpansInventories(t *testing.T) {
	// The class is fine in the first snapshot but a description in the
	// second marks it not tradable; its assets everywhere are excluded.
	first := &steam.InventorySnapshot{
		Descriptions: []steam.Description{desc("X", true, true)},
		Assets:       []steam.Asset{asset("X", "1")},
	}
	second := &steam.InventorySnapshot{
		Descriptions: []steam.Description{desc("X", false, true), desc("Y", true, true)},
		Assets:       []steam.Asset{asset("X", "2"), asset("Y", "3")},
	}

	eligible := FilterAssets([]*steam.InventorySnapshot{first, second}, FilterCriteria{}, 0)

	assert.Equal(t, []string{"3"}, assetIDs(eligible))
}

func TestFilterAssetsTruncatesAfterConcatenation(t *testing.T) {
	first := &steam.InventorySnapshot{
		Descriptions: []steam.Description{desc("A", true, true)},
		Assets:       []steam.Asset{asset("A", "1"), asset("A", "2")},
	}
	second := &steam.InventorySnapshot{
		Descriptions: []steam.Description{desc("B", true, true)},
		Assets:       []steam.Asset{asset("B", "3"), asset("B", "4")},
	}

	eligible := FilterAssets([]*steam.InventorySnapshot{first, second}, FilterCriteria{}, 3)

	assert.Equal(t, []string{"1", "2", "3"}, assetIDs(eligible))
}

func TestFilterAssetsIsDeterministic(t *testing.T) {
	snapshot := &steam.InventorySnapshot{
		Descriptions: []steam.Description{
			desc("A", true, true), desc("B", false, false), desc("C", true, false),
		},
		Assets: []steam.Asset{
			asset("A", "1"), asset("B", "2"), asset("C", "3"), asset("A", "4"),
		},
	}
	criteria := FilterCriteria{IgnoreNotMarketable: true}

	first := FilterAssets([]*steam.InventorySnapshot{snapshot}, criteria, 0)
	second := FilterAssets([]*steam.InventorySnapshot{snapshot}, criteria, 0)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"1", "4"}, assetIDs(first))
}
