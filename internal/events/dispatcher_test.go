package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_DeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var received []Event
	d.Subscribe(EventDealCreated, func(_ context.Context, event Event) error {
		received = append(received, event)
		return nil
	})
	d.Subscribe(EventDealCompleted, func(_ context.Context, event Event) error {
		t.Fatalf("unexpected delivery: %v", event.Type)
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "e1", Type: EventDealCreated, ActorID: 7})
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "e1", received[0].ID)
	assert.Equal(t, int64(7), received[0].ActorID)
}

func TestDispatcher_HandlerErrorDoesNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var calls int
	d.Subscribe(EventDealDisputed, func(context.Context, Event) error {
		calls++
		return errors.New("notify failed")
	})
	d.Subscribe(EventDealDisputed, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventDealDisputed})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDispatcher_PublishWithoutSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventOfferCreated}))
}
