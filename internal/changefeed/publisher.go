// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package changefeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/danvera/pulseboard/internal/config"
	"github.com/danvera/pulseboard/internal/metrics"
)

// Publisher publishes change records to JetStream. It wraps the Watermill
// NATS publisher with a circuit breaker and reconnection handling, and sets
// Nats-Msg-Id from the record id so JetStream deduplicates redeliveries.
type Publisher struct {
	publisher      message.Publisher
	circuitBreaker *gobreaker.CircuitBreaker[any]
	logger         watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// NewPublisher creates a resilient change-feed publisher.
func NewPublisher(cfg *config.NATSConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("publisher disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("publisher reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false, // stream is pre-created by EnsureStream
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "changefeed-publisher",
		Timeout: 10 * time.Second,
	})

	return &Publisher{
		publisher:      pub,
		circuitBreaker: cb,
		logger:         logger,
	}, nil
}

// PublishRecord serializes and publishes a change record to its table
// subject. The record id doubles as the JetStream deduplication key.
func (p *Publisher) PublishRecord(ctx context.Context, rec *Record) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("publisher is closed")
	}
	p.mu.RUnlock()

	if err := rec.Validate(); err != nil {
		return err
	}

	data, err := rec.Marshal()
	if err != nil {
		return fmt.Errorf("serialize change record: %w", err)
	}

	msg := message.NewMessage(rec.ID, data)
	msg.Metadata.Set(natsgo.MsgIdHdr, rec.ID)
	msg.Metadata.Set("table", rec.Table)
	msg.Metadata.Set("op", string(rec.Op))

	_, err = p.circuitBreaker.Execute(func() (any, error) {
		return nil, p.publisher.Publish(Subject(rec.Table), msg)
	})
	if err != nil {
		metrics.ChangePublishErrors.Inc()
		return fmt.Errorf("publish change for %s: %w", rec.Table, err)
	}

	metrics.ChangePublishes.Inc()
	return nil
}

// Close gracefully shuts down the publisher. Idempotent.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
