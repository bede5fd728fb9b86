// main is the entry point of the XFOR bot service.
// It initializes the configuration, logger, document storage, upstream providers,
// periodic jobs and starts the gateway HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/access"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/bot"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/cache"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/config"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/fake"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/feed"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/logger"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/maintenance"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/provider"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/server"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/servers"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/stats"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/storage"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/vault"
)

func main() {
	cfg := config.Parse()

	logger.Setup(cfg.Logger)
	log.Info().Msg("Starting xfor service...")

	ctx := context.Background()

	// Documents
	docs, err := storage.Open(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer func() {
		if err := docs.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing storage")
		}
	}()

	subs := access.NewSubscriptions(docs, nil)
	if err := subs.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load subscriptions")
	}

	// data generation or database maintenance
	if cfg.Storage.GenerateCount > 0 {
		fake.GenerateData(ctx, docs, cfg.Storage.GenerateCount)
		return
	} else if maintenance.Run(ctx, cfg, subs) {
		return
	}

	userVault := vault.New(docs, cfg.Tier.FreeVaultSize, nil)
	if err := userVault.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load vault")
	}

	recorder := stats.New(docs, nil)
	if err := recorder.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load stats")
	}

	// Access control
	controller := access.NewController(
		access.NewCooldowns(cfg.Tier.FreeRateLimit, cfg.Tier.PremiumRateLimit, nil),
		subs,
		access.NewQuotas(map[access.Action]int{
			access.ActionCopy:      cfg.Tier.FreeDailyCopies,
			access.ActionVaultSave: cfg.Tier.FreeDailySaves,
		}, nil),
		cfg.Bot.Owners,
		cfg.Bot.Blacklist,
	)

	// Upstream providers
	hub := provider.New(cfg.Providers, cfg.Cache, cfg.Bot.Thumbnail)
	artifacts := cache.NewArtifacts(cfg.Cache.ArtifactTTL, cache.WithShards(cfg.Cache.Shards))

	commands := bot.New(cfg, bot.Deps{
		Access:    controller,
		Artifacts: artifacts,
		Vault:     userVault,
		Stats:     recorder,
		Scripts:   hub,
		Games:     hub.Games,
		Servers:   servers.NewFinder(hub.Sessions),
		Executors: hub,
	})

	// Release feed and periodic jobs
	releases := feed.NewHub(nil)
	scheduler := maintenance.NewScheduler(cfg.Schedule, maintenance.Jobs{
		Caches: map[string]maintenance.Sweeper{
			"artifacts": artifacts,
			"access":    controller,
			"queries":   hub,
		},
		Subscriptions: subs,
		Releases:      hub,
		Artifacts:     artifacts,
		Publisher:     releases,
		Render:        commands.ReleaseMessage,
		Stats:         recorder,
		Channels:      cfg.Bot.TargetChannels,
	})
	scheduler.Start()

	// Init server
	srvHandler := server.New(cfg, server.Deps{
		Gateway:       commands,
		Stats:         recorder,
		Subscriptions: subs,
		Feed:          releases,
	})
	srvHandler.StartWorkers()

	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           srvHandler.Run(),
		ReadHeaderTimeout: 5 * time.Second,
		// Commands wait on upstream catalogs.
		WriteTimeout: cfg.Providers.CatalogTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Close websocket subscribers so Shutdown does not wait on them
	releases.Close()

	// Shut down HTTP
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Wait for running jobs
	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn().Msg("Periodic jobs still running at shutdown")
	}

	srvHandler.StopWorkers()

	log.Info().Msg("Server exited")
}
