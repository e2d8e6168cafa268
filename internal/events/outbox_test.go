package events

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutbox struct {
	pending   []PendingEvent
	published []uint
	failed    []uint
	loadErr   error
}

func (f *fakeOutbox) PendingEvents(ctx context.Context, limit int) ([]PendingEvent, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeOutbox) MarkPublished(ctx context.Context, id uint, at time.Time) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeOutbox) MarkFailed(ctx context.Context, id uint) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakePublisher struct {
	keys   []string
	failOn string
}

func (p *fakePublisher) Publish(ctx context.Context, routingKey, messageID string, body []byte) error {
	if messageID == p.failOn {
		return errors.New("broker down")
	}
	p.keys = append(p.keys, routingKey)
	return nil
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestRelayRunOnce(t *testing.T) {
	store := &fakeOutbox{pending: []PendingEvent{
		{ID: 1, EventID: "a", EventName: EventSaleCompleted, EventVersion: 1},
		{ID: 2, EventID: "b", EventName: EventRegisterClosed, EventVersion: 1},
	}}
	pub := &fakePublisher{}

	n, err := NewRelay(store, pub, time.Second, quietLogger()).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"sale.completed.v1", "register.closed.v1"}, pub.keys)
	assert.Equal(t, []uint{1, 2}, store.published)
}

func TestRelayStopsAtFirstFailure(t *testing.T) {
	store := &fakeOutbox{pending: []PendingEvent{
		{ID: 1, EventID: "a", EventName: EventSaleCompleted, EventVersion: 1},
		{ID: 2, EventID: "b", EventName: EventSaleCompleted, EventVersion: 1},
		{ID: 3, EventID: "c", EventName: EventSaleCompleted, EventVersion: 1},
	}}
	pub := &fakePublisher{failOn: "b"}

	n, err := NewRelay(store, pub, time.Second, quietLogger()).RunOnce(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []uint{1}, store.published)
	assert.Equal(t, []uint{2}, store.failed)
}

func TestRelayLoadError(t *testing.T) {
	store := &fakeOutbox{loadErr: errors.New("db gone")}
	_, err := NewRelay(store, &fakePublisher{}, 0, quietLogger()).RunOnce(context.Background())
	assert.ErrorContains(t, err, "db gone")
}

func TestRelayRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewRelay(&fakeOutbox{}, &fakePublisher{}, 10*time.Millisecond, quietLogger()).Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop after cancel")
	}
}

// heldPublisher blocks its first Publish until release is closed.
type heldPublisher struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (p *heldPublisher) Publish(ctx context.Context, routingKey, messageID string, body []byte) error {
	first := false
	p.once.Do(func() { first = true })
	if first {
		close(p.entered)
		<-p.release
	}
	return nil
}

func TestRelayStartWaitsForInFlightPublish(t *testing.T) {
	store := &fakeOutbox{pending: []PendingEvent{{ID: 1, EventID: "a", EventName: EventSaleCompleted, EventVersion: 1}}}
	pub := &heldPublisher{entered: make(chan struct{}), release: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	done := NewRelay(store, pub, 10*time.Millisecond, quietLogger()).Start(ctx)

	select {
	case <-pub.entered:
	case <-time.After(time.Second):
		t.Fatal("relay never published")
	}
	cancel()

	select {
	case <-done:
		t.Fatal("relay reported done while a publish was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(pub.release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop after the publish finished")
	}
}
