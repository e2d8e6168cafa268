package events

import (
	"context"
	"fmt"
	"log"
	"time"
)

// PendingEvent is an outbox row waiting to be published.
type PendingEvent struct {
	ID           uint
	EventID      string
	EventName    string
	EventVersion int
	Body         []byte
}

// OutboxStore is the relay's view of the outbox table.
type OutboxStore interface {
	PendingEvents(ctx context.Context, limit int) ([]PendingEvent, error)
	MarkPublished(ctx context.Context, id uint, at time.Time) error
	MarkFailed(ctx context.Context, id uint) error
}

type Publisher interface {
	Publish(ctx context.Context, routingKey, messageID string, body []byte) error
}

// Relay moves outbox rows to the broker. Rows are published in insert
// order; a failed row stays pending and the batch stops so ordering holds.
type Relay struct {
	store     OutboxStore
	pub       Publisher
	interval  time.Duration
	batchSize int
	logger    *log.Logger
}

func NewRelay(store OutboxStore, pub Publisher, interval time.Duration, logger *log.Logger) *Relay {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Relay{store: store, pub: pub, interval: interval, batchSize: 100, logger: logger}
}

// Start runs the relay in the background. The returned channel closes once
// Run has returned, after any in-flight publish.
func (r *Relay) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()
	return done
}

// Run polls until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if n, err := r.RunOnce(ctx); err != nil {
			r.logger.Printf("[outbox] relay error after %d published: %v", n, err)
		} else if n > 0 {
			r.logger.Printf("[outbox] published %d events", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce publishes one batch and reports how many rows went out.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	pending, err := r.store.PendingEvents(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("load pending events: %w", err)
	}

	published := 0
	for _, ev := range pending {
		key := RoutingKey(ev.EventName, ev.EventVersion)
		if err := r.pub.Publish(ctx, key, ev.EventID, ev.Body); err != nil {
			if markErr := r.store.MarkFailed(ctx, ev.ID); markErr != nil {
				r.logger.Printf("[outbox] mark failed id=%d: %v", ev.ID, markErr)
			}
			return published, fmt.Errorf("publish %s %s: %w", key, ev.EventID, err)
		}
		if err := r.store.MarkPublished(ctx, ev.ID, time.Now().UTC()); err != nil {
			return published, fmt.Errorf("mark published id=%d: %w", ev.ID, err)
		}
		published++
	}
	return published, nil
}
