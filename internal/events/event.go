// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

// Package events fans accepted tracking events out over watermill.
//
// The default transport is an in-process gochannel. Setting events.nats_url
// switches to core NATS through watermill-nats. Publishing goes through a
// circuit breaker so a dead broker cannot stall tracking requests.
package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/shopranker/internal/models"
)

// Event is the wire form of one accepted tracking event.
type Event struct {
	ID             string                 `json:"id"`
	Type           models.InteractionType `json:"type"`
	UserID         string                 `json:"userId,omitempty"`
	ProductID      string                 `json:"productId,omitempty"`
	Category       string                 `json:"category,omitempty"`
	Query          string                 `json:"query,omitempty"`
	Terms          []string               `json:"terms,omitempty"`
	Price          float64                `json:"price,omitempty"`
	Duration       float64                `json:"duration,omitempty"`
	ResultsClicked int                    `json:"resultsClicked,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
}

// NewEvent returns an event of type t with a fresh id.
func NewEvent(t models.InteractionType, at time.Time) *Event {
	return &Event{ID: uuid.NewString(), Type: t, Timestamp: at.UTC()}
}

// Validate checks the fields every consumer relies on.
func (e *Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event id is required")
	}
	switch e.Type {
	case models.InteractionView, models.InteractionSearch, models.InteractionPurchase:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("event timestamp is required")
	}
	return nil
}

// Marshal validates and encodes an event.
func Marshal(e *Event) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Unmarshal decodes and validates an event.
func Unmarshal(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
