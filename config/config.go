// Package config loads and validates the BotLooter configuration file.
// JSON configs may contain comments and trailing commas; a .yaml or .yml
// extension switches to YAML. Validation happens at load time so every
// configuration error aborts the run before any account is touched.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lithammer/dedent"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/ultra2207/BotLooter/internal/looter"
	"github.com/ultra2207/BotLooter/internal/steam"
)

const (
	// DefaultPath is used when no --config flag is given.
	DefaultPath = "BotLooter.Config.json"

	// EnvFileName is an optional dotenv file loaded from the working
	// directory; BOTLOOTER_CONFIG set there (or in the environment)
	// overrides the config path.
	EnvFileName = "botlooter.env"
)

type Config struct {
	LootTradeOfferURL  string   `json:"LootTradeOfferUrl" yaml:"LootTradeOfferUrl"`
	LootTradeOfferURLs []string `json:"LootTradeOfferUrls" yaml:"LootTradeOfferUrls"`

	SecretsDirectoryPath       string `json:"SecretsDirectoryPath" yaml:"SecretsDirectoryPath"`
	AccountsFilePath           string `json:"AccountsFilePath" yaml:"AccountsFilePath"`
	SteamSessionsDirectoryPath string `json:"SteamSessionsDirectoryPath" yaml:"SteamSessionsDirectoryPath"`
	IgnoreAccountsFilePath     string `json:"IgnoreAccountsFilePath" yaml:"IgnoreAccountsFilePath"`

	ProxiesFilePath string `json:"ProxiesFilePath" yaml:"ProxiesFilePath"`

	SuccessfulLootsExportFilePath string `json:"SuccessfulLootsExportFilePath" yaml:"SuccessfulLootsExportFilePath"`
	LootHistoryDatabasePath       string `json:"LootHistoryDatabasePath" yaml:"LootHistoryDatabasePath"`

	DelayBetweenAccountsSeconds int `json:"DelayBetweenAccountsSeconds" yaml:"DelayBetweenAccountsSeconds"`
	DelayInventoryEmptySeconds  int `json:"DelayInventoryEmptySeconds" yaml:"DelayInventoryEmptySeconds"`

	AskForApproval  bool `json:"AskForApproval" yaml:"AskForApproval"`
	ExitOnFinish    bool `json:"ExitOnFinish" yaml:"ExitOnFinish"`
	CheckForUpdates bool `json:"CheckForUpdates" yaml:"CheckForUpdates"`

	LootThreadCount int      `json:"LootThreadCount" yaml:"LootThreadCount"`
	Inventories     []string `json:"Inventories" yaml:"Inventories"`

	MaxItemsPerTrade     int `json:"MaxItemsPerTrade" yaml:"MaxItemsPerTrade"`
	MaxItemsPerAllTrades int `json:"MaxItemsPerAllTrades" yaml:"MaxItemsPerAllTrades"`

	IgnoreNotMarketable bool `json:"IgnoreNotMarketable" yaml:"IgnoreNotMarketable"`
	IgnoreMarketable    bool `json:"IgnoreMarketable" yaml:"IgnoreMarketable"`

	LootOnlyItemsWithNames  []string `json:"LootOnlyItemsWithNames" yaml:"LootOnlyItemsWithNames"`
	IgnoreItemsWithNames    []string `json:"IgnoreItemsWithNames" yaml:"IgnoreItemsWithNames"`
	LootOnlyItemsWithAppids []int    `json:"LootOnlyItemsWithAppids" yaml:"LootOnlyItemsWithAppids"`
	IgnoreItemsWithAppids   []int    `json:"IgnoreItemsWithAppids" yaml:"IgnoreItemsWithAppids"`
	LootOnlyItemsWithTags   []string `json:"LootOnlyItemsWithTags" yaml:"LootOnlyItemsWithTags"`
	IgnoreItemsWithTags     []string `json:"IgnoreItemsWithTags" yaml:"IgnoreItemsWithTags"`

	// Populated by validation.
	destinations []steam.TradeOfferURL
	inventories  []looter.Inventory
}

func defaults() *Config {
	return &Config{
		ProxiesFilePath:             "proxies.txt",
		DelayBetweenAccountsSeconds: 30,
		DelayInventoryEmptySeconds:  10,
		AskForApproval:              true,
		CheckForUpdates:             true,
		LootThreadCount:             1,
		MaxItemsPerTrade:            looter.MaxOfferSize,
	}
}

// LoadEnvFile loads the optional dotenv file from the working directory.
// Errors are ignored since the file usually doesn't exist.
func LoadEnvFile() {
	_ = godotenv.Load(EnvFileName)
}

// Load reads, parses and validates the configuration file.
func Load(path string) (*Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("configuration file %q not found: %w", path, err)
	}

	cfg := defaults()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("the config has an invalid format: %w", err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(contents), cfg); err != nil {
			return nil, fmt.Errorf("the config has an invalid format: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.LootTradeOfferURL == "" && len(c.LootTradeOfferURLs) == 0 {
		return fmt.Errorf("either 'LootTradeOfferUrl' or 'LootTradeOfferUrls' must be filled")
	}

	if c.LootTradeOfferURL != "" {
		u, err := steam.ParseTradeOfferURL(c.LootTradeOfferURL)
		if err != nil {
			return fmt.Errorf("config parameter 'LootTradeOfferUrl' is either empty or incorrectly filled: %w", err)
		}
		c.destinations = append(c.destinations, u)
	}
	for _, raw := range c.LootTradeOfferURLs {
		u, err := steam.ParseTradeOfferURL(raw)
		if err != nil {
			return fmt.Errorf("config parameter 'LootTradeOfferUrls' contains invalid trade offer links: %w", err)
		}
		c.destinations = append(c.destinations, u)
	}

	if len(c.Inventories) == 0 {
		return fmt.Errorf("%s", strings.TrimSpace(dedent.Dedent(`
			the config parameter 'Inventories' does not contain any inventories for looting.
			Format: appId/contextId
			Example with a CS2 inventory:
			"Inventories": [
			    "730/2"
			]`)))
	}
	for _, raw := range c.Inventories {
		appID, contextID, ok := strings.Cut(raw, "/")
		if !ok || appID == "" || contextID == "" {
			return fmt.Errorf("invalid inventory %q in 'Inventories', expected appId/contextId", raw)
		}
		c.inventories = append(c.inventories, looter.Inventory{AppID: appID, ContextID: contextID})
	}

	if c.MaxItemsPerTrade <= 0 || c.MaxItemsPerTrade > looter.MaxOfferSize {
		return fmt.Errorf("the config parameter 'MaxItemsPerTrade' must be between 1 and %d, current value: %d",
			looter.MaxOfferSize, c.MaxItemsPerTrade)
	}

	if c.MaxItemsPerAllTrades < 0 {
		return fmt.Errorf("the config parameter 'MaxItemsPerAllTrades' must not be negative")
	}

	if c.LootThreadCount < 1 {
		return fmt.Errorf("the config parameter 'LootThreadCount' must be at least 1")
	}

	if c.DelayBetweenAccountsSeconds < 0 || c.DelayInventoryEmptySeconds < 0 {
		return fmt.Errorf("delay parameters must not be negative")
	}

	return nil
}

// Destinations returns the parsed trade offer url pool.
func (c *Config) Destinations() []steam.TradeOfferURL { return c.destinations }

// RunConfig assembles the core run configuration. threadCount is the
// effective parallelism after clamping against the client provider.
func (c *Config) RunConfig(threadCount int) looter.Config {
	return looter.Config{
		Destinations:         c.destinations,
		Inventories:          c.inventories,
		Criteria:             c.criteria(),
		MaxItemsPerTrade:     c.MaxItemsPerTrade,
		MaxItemsTotal:        c.MaxItemsPerAllTrades,
		ThreadCount:          threadCount,
		DelayBetweenAccounts: time.Duration(c.DelayBetweenAccountsSeconds) * time.Second,
		DelayInventoryEmpty:  time.Duration(c.DelayInventoryEmptySeconds) * time.Second,
	}
}

func (c *Config) criteria() looter.FilterCriteria {
	return looter.FilterCriteria{
		IgnoreNotMarketable: c.IgnoreNotMarketable,
		IgnoreMarketable:    c.IgnoreMarketable,
		OnlyNames:           c.LootOnlyItemsWithNames,
		IgnoreNames:         c.IgnoreItemsWithNames,
		OnlyAppIDs:          c.LootOnlyItemsWithAppids,
		IgnoreAppIDs:        c.IgnoreItemsWithAppids,
		OnlyTags:            c.LootOnlyItemsWithTags,
		IgnoreTags:          c.IgnoreItemsWithTags,
	}
}
