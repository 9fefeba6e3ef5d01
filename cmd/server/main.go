// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

// Pulseboard server: embedded DuckDB store, embedded NATS JetStream
// change feed, live dashboard engine, and the HTTP/WebSocket surface,
// all under one suture supervision tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danvera/pulseboard/internal/api"
	"github.com/danvera/pulseboard/internal/changefeed"
	"github.com/danvera/pulseboard/internal/config"
	"github.com/danvera/pulseboard/internal/dashboard"
	"github.com/danvera/pulseboard/internal/database"
	"github.com/danvera/pulseboard/internal/logging"
	"github.com/danvera/pulseboard/internal/models"
	"github.com/danvera/pulseboard/internal/supervisor"
	"github.com/danvera/pulseboard/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("pulseboard exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Int("port", cfg.Server.Port).Msg("starting pulseboard")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("store close failed")
		}
	}()

	if cfg.NATS.EmbeddedServer {
		natsServer, err := changefeed.NewEmbeddedServer(&cfg.NATS)
		if err != nil {
			return fmt.Errorf("start embedded nats: %w", err)
		}
		cfg.NATS.URL = natsServer.ClientURL()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.NATS.CloseTimeout)
			defer cancel()
			if err := natsServer.Shutdown(shutdownCtx); err != nil {
				logging.Error().Err(err).Msg("embedded nats shutdown failed")
			}
		}()
	}

	if err := changefeed.EnsureStream(ctx, &cfg.NATS); err != nil {
		return fmt.Errorf("ensure change stream: %w", err)
	}

	wmLogger := changefeed.NewWatermillLogger()
	publisher, err := changefeed.NewPublisher(&cfg.NATS, wmLogger)
	if err != nil {
		return fmt.Errorf("create change publisher: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("publisher close failed")
		}
	}()

	subscriber, err := changefeed.NewSubscriber(changefeed.SubscriberConfigFrom(&cfg.NATS), wmLogger)
	if err != nil {
		return fmt.Errorf("create change subscriber: %w", err)
	}

	classifier := models.NewClassifier(cfg.Owner.UserID, cfg.Owner.Role)
	hub := websocket.NewHub()
	engine := dashboard.NewEngine(&cfg.Dashboard, db, subscriber, classifier, hub, logging.Logger())
	defer func() {
		if err := engine.Close(); err != nil {
			logging.Error().Err(err).Msg("engine close failed")
		}
	}()

	handlers := api.NewHandlers(db, publisher, engine, hub)
	router := api.NewRouter(cfg, handlers)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(engine)
	tree.AddMessagingService(supervisor.ServiceFunc{
		Name: "websocket-hub",
		Run:  hub.RunWithContext,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	tree.AddAPIService(supervisor.NewHTTPService(addr, router.Setup(), cfg.Server.Timeout, 10*time.Second))

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	logging.Info().Msg("pulseboard stopped")
	return nil
}
