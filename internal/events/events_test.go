// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package events

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/shopranker/internal/config"
	"github.com/tomtom215/shopranker/internal/logging"
	"github.com/tomtom215/shopranker/internal/models"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func viewEvent(productID string) *Event {
	e := NewEvent(models.InteractionView, testTime)
	e.ProductID = productID
	e.UserID = "u1"
	return e
}

func receive(t *testing.T, ch <-chan *message.Message) *Event {
	t.Helper()
	select {
	case msg := <-ch:
		msg.Ack()
		e, err := Unmarshal(msg.Payload)
		if err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if msg.Metadata.Get("event") != string(e.Type) {
			t.Errorf("metadata event = %q", msg.Metadata.Get("event"))
		}
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestEventValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		e    Event
	}{
		{"missing id", Event{Type: models.InteractionView, Timestamp: testTime}},
		{"unknown type", Event{ID: "x", Type: "like", Timestamp: testTime}},
		{"missing timestamp", Event{ID: "x", Type: models.InteractionSearch}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Marshal(&tt.e); err == nil {
				t.Error("Marshal() accepted an invalid event")
			}
		})
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	t.Parallel()
	for _, body := range []string{"", "not json", `{"id":"x","type":"view"}`} {
		if _, err := Unmarshal([]byte(body)); err == nil {
			t.Errorf("Unmarshal(%q) accepted", body)
		}
	}
}

func TestNewEventUTC(t *testing.T) {
	t.Parallel()
	local := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	e := NewEvent(models.InteractionPurchase, local)
	if e.ID == "" || e.Timestamp.Location() != time.UTC {
		t.Errorf("NewEvent() = %+v", e)
	}
	if NewEvent(models.InteractionPurchase, local).ID == e.ID {
		t.Error("event ids must be unique")
	}
}

func TestOpenRequiresTopic(t *testing.T) {
	t.Parallel()
	if _, err := Open(config.EventsConfig{Enabled: true}, logging.NewTestLogger(io.Discard)); err == nil {
		t.Error("Open() without topic should fail")
	}
}

func TestBusGoChannel(t *testing.T) {
	t.Parallel()
	bus, err := Open(config.EventsConfig{Enabled: true, Topic: "test.tracking"}, logging.NewTestLogger(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	defer bus.Close()

	if bus.Transport() != "gochannel" || bus.Topic() != "test.tracking" {
		t.Errorf("transport = %s, topic = %s", bus.Transport(), bus.Topic())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}

	sent := viewEvent("p1")
	if err := bus.Publish(logging.ContextWithRequestID(ctx, "req-1"), sent); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	got := receive(t, ch)
	if got.ID != sent.ID || got.ProductID != "p1" || !got.Timestamp.Equal(testTime) {
		t.Errorf("received %+v", got)
	}
}

func TestBusClosed(t *testing.T) {
	t.Parallel()
	bus, err := Open(config.EventsConfig{Topic: "t"}, logging.NewTestLogger(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if err := bus.Publish(context.Background(), viewEvent("p1")); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish() after close = %v", err)
	}
	if _, err := bus.Subscribe(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Subscribe() after close = %v", err)
	}
}

func TestBusRejectsInvalidEvent(t *testing.T) {
	t.Parallel()
	bus, err := Open(config.EventsConfig{Topic: "t"}, logging.NewTestLogger(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	defer bus.Close()
	if err := bus.Publish(context.Background(), &Event{}); err == nil {
		t.Error("Publish() accepted an invalid event")
	}
}

func TestNoop(t *testing.T) {
	t.Parallel()
	var p Publisher = Noop{}
	if err := p.Publish(context.Background(), &Event{}); err != nil {
		t.Errorf("Noop.Publish() = %v", err)
	}
}

func startNATS(t *testing.T) string {
	t.Helper()
	ns, err := server.NewServer(&server.Options{
		Host:   "127.0.0.1",
		Port:   server.RANDOM_PORT,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		t.Fatalf("create NATS server: %v", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		t.Fatal("NATS server not ready")
	}
	t.Cleanup(ns.Shutdown)
	return ns.ClientURL()
}

func TestBusNATS(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded NATS server")
	}
	t.Parallel()

	url := startNATS(t)
	bus, err := Open(config.EventsConfig{Enabled: true, Topic: "shopranker.tracking", NATSURL: url}, logging.NewTestLogger(io.Discard))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer bus.Close()
	if bus.Transport() != "nats" {
		t.Errorf("transport = %s", bus.Transport())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}

	sent := NewEvent(models.InteractionSearch, testTime)
	sent.Query = "summer dresses"
	sent.Terms = []string{"summer", "dress"}
	if err := bus.Publish(ctx, sent); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	got := receive(t, ch)
	if got.ID != sent.ID || got.Query != sent.Query || len(got.Terms) != 2 {
		t.Errorf("received %+v", got)
	}
}

type chanSource struct {
	ch  chan *message.Message
	err error
}

func (s *chanSource) Subscribe(context.Context) (<-chan *message.Message, error) {
	return s.ch, s.err
}

func waitAcked(t *testing.T, msg *message.Message) {
	t.Helper()
	select {
	case <-msg.Acked():
	case <-time.After(5 * time.Second):
		t.Fatalf("message %s was not acked", msg.UUID)
	}
}

func TestConsumerCounts(t *testing.T) {
	t.Parallel()
	src := &chanSource{ch: make(chan *message.Message)}
	c := NewConsumer(src, logging.NewTestLogger(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx) }()

	var msgs []*message.Message
	for _, e := range []*Event{viewEvent("a"), viewEvent("b"), NewEvent(models.InteractionPurchase, testTime)} {
		data, err := Marshal(e)
		if err != nil {
			t.Fatal(err)
		}
		msgs = append(msgs, message.NewMessage(e.ID, data))
	}
	msgs = append(msgs, message.NewMessage("bad", []byte("{")))

	for _, m := range msgs {
		src.ch <- m
		waitAcked(t, m)
	}

	counts := c.Counts()
	if counts[models.InteractionView] != 2 || counts[models.InteractionPurchase] != 1 {
		t.Errorf("counts = %v", counts)
	}
	if c.Malformed() != 1 {
		t.Errorf("malformed = %d", c.Malformed())
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v", err)
	}
	if c.String() != "event-consumer" {
		t.Errorf("String() = %s", c.String())
	}
}

func TestConsumerStopsOnClosedSource(t *testing.T) {
	t.Parallel()
	ch := make(chan *message.Message)
	close(ch)
	c := NewConsumer(&chanSource{ch: ch}, logging.NewTestLogger(io.Discard))
	if err := c.Serve(context.Background()); !errors.Is(err, suture.ErrDoNotRestart) {
		t.Errorf("Serve() = %v", err)
	}

	c = NewConsumer(&chanSource{err: ErrClosed}, logging.NewTestLogger(io.Discard))
	if err := c.Serve(context.Background()); !errors.Is(err, suture.ErrDoNotRestart) {
		t.Errorf("Serve() on closed bus = %v", err)
	}

	c = NewConsumer(&chanSource{err: errors.New("boom")}, logging.NewTestLogger(io.Discard))
	if err := c.Serve(context.Background()); err == nil || errors.Is(err, suture.ErrDoNotRestart) {
		t.Errorf("Serve() on subscribe failure = %v", err)
	}
}
