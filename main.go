package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/ultra2207/BotLooter/config"
	"github.com/ultra2207/BotLooter/internal/export"
	"github.com/ultra2207/BotLooter/internal/looter"
	"github.com/ultra2207/BotLooter/internal/provider"
	"github.com/ultra2207/BotLooter/internal/steam"
	"github.com/ultra2207/BotLooter/internal/version"
)

const logFileName = "botlooter.log"

func main() {
	configPath := pflag.StringP("config", "c", "", "path to the configuration file")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	pflag.Parse()

	config.LoadEnvFile()

	setupLogging(*verbose)

	path := *configPath
	if path == "" {
		path = os.Getenv("BOTLOOTER_CONFIG")
	}
	if path == "" {
		path = config.DefaultPath
	}

	// Cancel the run on SIGINT/SIGTERM. In-flight attempts notice at
	// their next network call or timed wait.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info().Str("config", path).Msg(version.String())

	cfg, err := config.Load(path)
	if err != nil {
		fatal(cfg, "invalid configuration: %v", err)
	}
	log.Info().Strs("inventories", cfg.Inventories).Msg("inventories for looting")

	if cfg.CheckForUpdates {
		version.CheckLatest(ctx, resty.New())
	}

	clientProvider := buildClientProvider(cfg)

	accounts, err := steam.LoadCredentials(steam.LoadOptions{
		AccountsFile: cfg.AccountsFilePath,
		SecretsDir:   cfg.SecretsDirectoryPath,
		SessionsDir:  cfg.SteamSessionsDirectoryPath,
		IgnoreFile:   cfg.IgnoreAccountsFilePath,
	})
	if err != nil {
		fatal(cfg, "could not load accounts: %v", err)
	}
	if len(accounts) == 0 {
		fatal(cfg, "no accounts to loot")
	}

	waitForApproval(cfg, "total accounts for looting: %d", len(accounts))

	threadCount := effectiveThreadCount(cfg, clientProvider)

	clients := buildLootClients(accounts, clientProvider)

	loot := looter.New()

	if cfg.SuccessfulLootsExportFilePath != "" {
		exporter := export.NewFileExporter(cfg.SuccessfulLootsExportFilePath)
		loot.OnLooted(exporter.Export)
	}
	if cfg.LootHistoryDatabasePath != "" {
		store, err := export.NewResultStore(cfg.LootHistoryDatabasePath)
		if err != nil {
			fatal(cfg, "could not open loot history database: %v", err)
		}
		defer store.Close()
		loot.OnLooted(store.Record)
	}

	loot.Run(ctx, clients, cfg.RunConfig(threadCount))

	waitForExit(cfg)
}

func setupLogging(verbose bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}

	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Logger = log.Output(consoleWriter)
		log.Warn().Err(err).Msg("failed to open log file, logging to console only")
		return
	}

	fileWriter := zerolog.ConsoleWriter{Out: logFile, NoColor: true, TimeFormat: "15:04:05"}
	log.Logger = log.Output(io.MultiWriter(consoleWriter, fileWriter))
}

// buildClientProvider picks the proxy pool when a proxies file is
// configured and present, the local client otherwise.
func buildClientProvider(cfg *config.Config) provider.ClientProvider {
	if cfg.ProxiesFilePath == "" {
		waitForApproval(cfg, "no proxies specified, using local client")
		return provider.LocalProvider{}
	}

	if _, err := os.Stat(cfg.ProxiesFilePath); err != nil {
		waitForApproval(cfg, "proxies file %q not found, using local client", cfg.ProxiesFilePath)
		return provider.LocalProvider{}
	}

	pool, err := provider.LoadProxyProvider(cfg.ProxiesFilePath)
	if err != nil {
		fatal(cfg, "could not load proxies: %v", err)
	}
	if pool.AvailableClientCount() == 0 {
		fatal(cfg, "no proxies found in %q", cfg.ProxiesFilePath)
	}

	waitForApproval(cfg, "loaded proxies: %d", pool.AvailableClientCount())
	return pool
}

// effectiveThreadCount clamps the configured parallelism to the number of
// execution identities the provider can hand out.
func effectiveThreadCount(cfg *config.Config, clientProvider provider.ClientProvider) int {
	available := clientProvider.AvailableClientCount()
	if cfg.LootThreadCount <= available {
		return cfg.LootThreadCount
	}

	switch clientProvider.(type) {
	case provider.LocalProvider:
		log.Warn().
			Int("threads", cfg.LootThreadCount).
			Msg("using local client, thread count will be reduced to 1")
	default:
		log.Warn().
			Int("threads", cfg.LootThreadCount).
			Int("proxies", available).
			Msg("threads exceed available proxies, reducing thread count to match")
	}

	return available
}

// buildLootClients assembles one loot client per account, each with its own
// network client from the provider.
func buildLootClients(accounts []*steam.Credentials, clientProvider provider.ClientProvider) []*looter.LootClient {
	clients := make([]*looter.LootClient, 0, len(accounts))

	for _, creds := range accounts {
		httpClient := clientProvider.Provide()
		session := steam.NewSession(creds, httpClient, steam.SessionOpts{})
		web := steam.NewWeb(session, httpClient, steam.WebOpts{})
		clients = append(clients, looter.NewLootClient(creds, session, web))
	}

	return clients
}
