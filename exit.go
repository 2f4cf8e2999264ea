package main

import (
	"bufio"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/ultra2207/BotLooter/config"
)

// fatal logs the error and ends the process. When the config asks for an
// exit prompt (double-clicked console windows), it waits for enter first so
// the message can be read.
func fatal(cfg *config.Config, format string, args ...any) {
	log.Error().Msgf(format, args...)
	if cfg != nil && !cfg.ExitOnFinish {
		pressEnterToContinue()
	}
	os.Exit(1)
}

// waitForApproval logs a checkpoint and, when approval prompts are enabled,
// waits for enter before proceeding.
func waitForApproval(cfg *config.Config, format string, args ...any) {
	log.Info().Msgf(format, args...)
	if cfg != nil && cfg.AskForApproval {
		pressEnterToContinue()
	}
}

// waitForExit keeps the console window open after the run unless the
// config asks to exit immediately.
func waitForExit(cfg *config.Config) {
	if cfg != nil && cfg.ExitOnFinish {
		return
	}
	log.Info().Msg("press enter to exit")
	reader := bufio.NewReader(os.Stdin)
	_, _ = reader.ReadString('\n')
}

func pressEnterToContinue() {
	reader := bufio.NewReader(os.Stdin)
	_, _ = reader.ReadString('\n')
}
