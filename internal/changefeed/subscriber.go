// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package changefeed

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
)

// Subscriber delivers change records from the durable JetStream consumer.
// Within one table's subject, records arrive in commit order; cross-table
// ordering is not guaranteed and consumers must not rely on it.
type Subscriber struct {
	subscriber message.Subscriber
	logger     watermill.LoggerAdapter
}

// NewSubscriber creates a durable JetStream subscriber bound to the change
// stream.
func NewSubscriber(cfg *SubscriberConfig, logger watermill.LoggerAdapter) (*Subscriber, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("subscriber disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("subscriber reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	// The stream name carries no wildcard, so the subscriber must bind to
	// the pre-provisioned stream rather than auto-provision one named
	// after the wildcard topic.
	subOpts := []natsgo.SubOpt{
		natsgo.MaxDeliver(cfg.MaxDeliver),
		natsgo.AckWait(cfg.AckWaitTimeout),
		natsgo.DeliverNew(),
		natsgo.BindStream(cfg.StreamName),
	}

	wmConfig := wmNats.SubscriberConfig{
		URL:            cfg.URL,
		AckWaitTimeout: cfg.AckWaitTimeout,
		CloseTimeout:   cfg.CloseTimeout,
		NatsOptions:    natsOpts,
		Unmarshaler:    &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:         false,
			AutoProvision:    false,
			AckAsync:         false,
			SubscribeOptions: subOpts,
			DurablePrefix:    cfg.DurableName,
		},
	}

	sub, err := wmNats.NewSubscriber(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}

	return &Subscriber{subscriber: sub, logger: logger}, nil
}

// Subscribe returns a channel of decoded change records for every table.
// Messages that fail to decode are acked and skipped after logging; a
// malformed record must never wedge the stream. The channel closes when
// the context is canceled or the subscriber is closed.
func (s *Subscriber) Subscribe(ctx context.Context) (<-chan *Record, error) {
	messages, err := s.subscriber.Subscribe(ctx, SubjectAll)
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", SubjectAll, err)
	}

	out := make(chan *Record)
	go func() {
		defer close(out)
		for msg := range messages {
			rec, err := UnmarshalRecord(msg.Payload)
			if err != nil {
				s.logger.Error("dropping malformed change record", err, watermill.LogFields{
					"message_uuid": msg.UUID,
				})
				msg.Ack()
				continue
			}

			select {
			case out <- rec:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()

	return out, nil
}

// Close shuts down the subscriber synchronously; no further records are
// delivered once it returns.
func (s *Subscriber) Close() error {
	return s.subscriber.Close()
}
