// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/swaralive/swaralive/internal/config"
	"github.com/swaralive/swaralive/internal/metrics"
)

// Relay publishes and subscribes chat events on the admin and public topics.
//
// Publishing is fire-and-forget from the caller's perspective: callers that
// must not fail on relay trouble log the returned error and move on. The
// relay itself never blocks a caller beyond the transport's publish call.
type Relay struct {
	publisher   message.Publisher
	subscriber  message.Subscriber
	adminTopic  string
	publicTopic string

	// breaker guards publishes on the NATS transport. Nil for the
	// in-process GoChannel transport, which cannot meaningfully fail.
	breaker *gobreaker.CircuitBreaker[interface{}]

	mu     sync.RWMutex
	closed bool
}

// NewGoChannel creates a relay on an in-process Watermill GoChannel. This is
// the default transport: every subscriber in the same process sees every
// published event.
func NewGoChannel(cfg *config.RelayConfig) *Relay {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, NewWatermillLogger())

	return &Relay{
		publisher:   pubsub,
		subscriber:  pubsub,
		adminTopic:  cfg.AdminTopic,
		publicTopic: cfg.PublicTopic,
	}
}

// PublishAdmin publishes an event on the admin topic.
func (r *Relay) PublishAdmin(ctx context.Context, event string, payload interface{}) error {
	return r.publish(ctx, r.adminTopic, event, payload)
}

// PublishPublic publishes an event on the public topic.
func (r *Relay) PublishPublic(ctx context.Context, event string, payload interface{}) error {
	return r.publish(ctx, r.publicTopic, event, payload)
}

func (r *Relay) publish(_ context.Context, topic, event string, payload interface{}) error {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return fmt.Errorf("relay is closed")
	}
	r.mu.RUnlock()

	data, err := EncodeEnvelope(event, payload)
	if err != nil {
		metrics.RelayPublishesTotal.WithLabelValues(topic, "error").Inc()
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("event", event)

	if r.breaker != nil {
		_, err = r.breaker.Execute(func() (interface{}, error) {
			return nil, r.publisher.Publish(topic, msg)
		})
	} else {
		err = r.publisher.Publish(topic, msg)
	}
	if err != nil {
		metrics.RelayPublishesTotal.WithLabelValues(topic, "error").Inc()
		return fmt.Errorf("publish %s to %s: %w", event, topic, err)
	}

	metrics.RelayPublishesTotal.WithLabelValues(topic, "ok").Inc()
	return nil
}

// SubscribeAdmin returns the admin topic message stream. The channel closes
// when the context is canceled or the relay is closed.
func (r *Relay) SubscribeAdmin(ctx context.Context) (<-chan *message.Message, error) {
	return r.subscriber.Subscribe(ctx, r.adminTopic)
}

// SubscribePublic returns the public topic message stream.
func (r *Relay) SubscribePublic(ctx context.Context) (<-chan *message.Message, error) {
	return r.subscriber.Subscribe(ctx, r.publicTopic)
}

// Close shuts the relay down. Safe to call more than once.
func (r *Relay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.publisher.Close(); err != nil {
		return fmt.Errorf("close publisher: %w", err)
	}
	// GoChannel shares one pubsub for both sides; avoid a double close.
	if sub, ok := r.subscriber.(*gochannel.GoChannel); ok {
		if pub, ok := r.publisher.(*gochannel.GoChannel); ok && pub == sub {
			return nil
		}
	}
	if err := r.subscriber.Close(); err != nil {
		return fmt.Errorf("close subscriber: %w", err)
	}
	return nil
}
