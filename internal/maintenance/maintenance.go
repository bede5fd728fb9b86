// Package maintenance provides one-shot and periodic housekeeping tasks.
package maintenance

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/access"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/config"
)

// Run checks if any maintenance flags are set and executes the corresponding tasks.
// Returns true if a maintenance task was executed (indicating the program should exit).
func Run(ctx context.Context, cfg *config.Config, subs *access.Subscriptions) bool {
	if !cfg.Storage.SweepExpired {
		return false
	}

	log.Info().Int("stored", subs.Count()).Msg("Sweeping expired subscriptions...")

	removed, err := subs.SweepExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sweep subscriptions")
		return true
	}

	log.Info().Int("removed", removed).Int("remaining", subs.Count()).Msg("Sweep finished")
	return true
}
