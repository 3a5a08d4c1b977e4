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

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/shopranker/internal/metrics"
	"github.com/tomtom215/shopranker/internal/models"
)

// Subscriber is the consuming side of a Bus.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan *message.Message, error)
}

// Consumer tallies tracking events per type. It runs as a suture service.
type Consumer struct {
	source Subscriber
	logger zerolog.Logger

	mu        sync.Mutex
	counts    map[models.InteractionType]int64
	malformed int64
}

// NewConsumer creates a consumer reading from source.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewConsumer(source Subscriber, logger zerolog.Logger) *Consumer {
	return &Consumer{
		source: source,
		logger: logger.With().Str("service", "event-consumer").Logger(),
		counts: make(map[models.InteractionType]int64),
	}
}

// Serve implements suture.Service.
func (c *Consumer) Serve(ctx context.Context) error {
	msgs, err := c.source.Subscribe(ctx)
	if err != nil {
		if errors.Is(err, ErrClosed) {
			return suture.ErrDoNotRestart
		}
		return fmt.Errorf("subscribe: %w", err)
	}
	c.logger.Info().Msg("event consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Warn().Msg("event subscription closed")
				return suture.ErrDoNotRestart
			}
			c.handle(msg)
		}
	}
}

// handle acks every message. Undecodable ones are counted and dropped since
// redelivery would fail the same way.
func (c *Consumer) handle(msg *message.Message) {
	defer msg.Ack()

	e, err := Unmarshal(msg.Payload)
	if err != nil {
		metrics.EventsMalformed.Inc()
		c.mu.Lock()
		c.malformed++
		c.mu.Unlock()
		c.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("dropping malformed event")
		return
	}

	metrics.RecordEventConsumed(string(e.Type))
	c.mu.Lock()
	c.counts[e.Type]++
	c.mu.Unlock()

	c.logger.Trace().
		Str("event", string(e.Type)).
		Str("event_id", e.ID).
		Str("product_id", e.ProductID).
		Msg("event consumed")
}

// Counts returns a snapshot of consumed events per type.
func (c *Consumer) Counts() map[models.InteractionType]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[models.InteractionType]int64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Malformed returns how many messages failed to decode.
func (c *Consumer) Malformed() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.malformed
}

// String implements fmt.Stringer for suture logs.
func (c *Consumer) String() string { return "event-consumer" }
