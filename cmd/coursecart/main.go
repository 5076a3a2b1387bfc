package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jacobmichels/Course-Cart-Go/cart"
	"github.com/jacobmichels/Course-Cart-Go/catalog"
	"github.com/jacobmichels/Course-Cart-Go/config"
	"github.com/jacobmichels/Course-Cart-Go/friends"
	"github.com/jacobmichels/Course-Cart-Go/luthers"
	"github.com/jacobmichels/Course-Cart-Go/notifier"
	"github.com/jacobmichels/Course-Cart-Go/profile"
	"github.com/jacobmichels/Course-Cart-Go/repository"
	"github.com/jacobmichels/Course-Cart-Go/schedule"
	"github.com/jacobmichels/Course-Cart-Go/server"
	"github.com/jacobmichels/Course-Cart-Go/vagrades"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.ReadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read config")
	}

	setupLogging(cfg.Log)

	repo, err := repository.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create repository")
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close repository")
		}
	}()

	n, err := notifier.New(cfg.Notifications)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create notifier")
	}

	source := luthers.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout)
	grades := vagrades.NewClient(cfg.Catalog.GradesURL, cfg.Catalog.Timeout)

	catalogService := catalog.NewService(source, grades, repo, cfg.Catalog.SyncConcurrency)
	cartService := cart.NewService(repo)
	scheduleService := schedule.NewService(repo, n)
	friendService := friends.NewService(repo, n)
	profileService := profile.NewService(repo)

	// Keep the stored catalog warm so browsing works when the course API is down
	if cfg.Catalog.Refresh != "" {
		c := cron.New()
		_, err := c.AddFunc(cfg.Catalog.Refresh, func() {
			if err := catalogService.Sync(ctx); err != nil {
				log.Error().Err(err).Msg("scheduled catalog sync failed")
			}
		})
		if err != nil {
			log.Fatal().Err(err).Str("refresh", cfg.Catalog.Refresh).Msg("invalid catalog refresh schedule")
		}

		c.Start()
		defer c.Stop()

		go func() {
			if err := catalogService.Sync(ctx); err != nil {
				log.Error().Err(err).Msg("initial catalog sync failed")
			}
		}()
	}

	srv := server.NewServer(cfg.Server, catalogService, cartService, scheduleService, friendService, profileService)
	if err := srv.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("server failure")
	}
}

func setupLogging(cfg config.Log) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Level).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
