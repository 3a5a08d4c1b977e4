// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shopranker/internal/breaker"
	"github.com/tomtom215/shopranker/internal/config"
	"github.com/tomtom215/shopranker/internal/logging"
	"github.com/tomtom215/shopranker/internal/metrics"
)

// ErrClosed is returned by a Bus after Close.
var ErrClosed = errors.New("event bus is closed")

// Publisher accepts tracking events for fan-out.
type Publisher interface {
	Publish(ctx context.Context, e *Event) error
}

// Noop discards every event. It stands in when events are disabled.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, *Event) error { return nil }

// Bus publishes and subscribes to the tracking topic.
type Bus struct {
	topic     string
	transport string
	pub       message.Publisher
	sub       message.Subscriber
	breaker   *breaker.Breaker
	logger    zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// Open builds a bus for cfg. An empty NATS URL selects the in-process channel.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg config.EventsConfig, logger zerolog.Logger) (*Bus, error) {
	if cfg.Topic == "" {
		return nil, fmt.Errorf("events topic is required")
	}
	logger = logger.With().Str("component", "events").Str("topic", cfg.Topic).Logger()
	wmLogger := logging.NewWatermillAdapter(logger)

	b := &Bus{
		topic:   cfg.Topic,
		breaker: breaker.New("events", breaker.DefaultSettings(), nil),
		logger:  logger,
	}

	if cfg.NATSURL == "" {
		gc := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wmLogger)
		b.transport = "gochannel"
		b.pub, b.sub = gc, gc
		return b, nil
	}

	pub, sub, err := openNATS(cfg.NATSURL, wmLogger)
	if err != nil {
		return nil, err
	}
	b.transport = "nats"
	b.pub, b.sub = pub, sub
	logger.Info().Str("url", cfg.NATSURL).Msg("event bus connected to NATS")
	return b, nil
}

// openNATS uses plain NATS subjects; events are advisory and need no stream.
func openNATS(url string, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
	marshaler := &wmNats.NATSMarshaler{}
	js := wmNats.JetStreamConfig{Disabled: true}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   marshaler,
		JetStream:   js,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create NATS publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     5 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      marshaler,
		JetStream:        js,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, nil, fmt.Errorf("create NATS subscriber: %w", err)
	}
	return pub, sub, nil
}

// Transport names the active transport: gochannel or nats.
func (b *Bus) Transport() string { return b.transport }

// Topic returns the tracking topic.
func (b *Bus) Topic() string { return b.topic }

// Publish encodes e and sends it through the breaker.
func (b *Bus) Publish(ctx context.Context, e *Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	data, err := Marshal(e)
	if err != nil {
		return err
	}
	msg := message.NewMessage(e.ID, data)
	msg.SetContext(ctx)
	msg.Metadata.Set("event", string(e.Type))
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set("request_id", id)
	}

	if err := b.breaker.Execute(func() error { return b.pub.Publish(b.topic, msg) }); err != nil {
		return fmt.Errorf("publish %s event: %w", e.Type, err)
	}
	metrics.RecordEventPublished(string(e.Type))
	return nil
}

// Subscribe returns the message channel for the tracking topic. It closes
// when ctx is canceled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}
	return b.sub.Subscribe(ctx, b.topic)
}

// Close shuts the transport down. It is safe to call more than once.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	err := b.pub.Close()
	if s, ok := b.sub.(message.Publisher); !ok || s != b.pub {
		err = errors.Join(err, b.sub.Close())
	}
	return err
}

var (
	_ Publisher = (*Bus)(nil)
	_ Publisher = Noop{}
)
