package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestQueueDispatchesToSubscribers(t *testing.T) {
	queue := NewChannelQueue(8, zap.NewNop())

	var mu sync.Mutex
	var got []string
	queue.Subscribe(EventTicketTransitioned, func(_ context.Context, event Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, event.TicketID)
		return nil
	})

	ctx := context.Background()
	require.NoError(t, queue.Publish(ctx, Event{Type: EventTicketTransitioned, TicketID: "tk-1"}))
	require.NoError(t, queue.Publish(ctx, Event{Type: EventTicketTransitioned, TicketID: "tk-2"}))
	Drain(ctx, queue)

	assert.Equal(t, []string{"tk-1", "tk-2"}, got)
}

func TestQueueRoutesByEventType(t *testing.T) {
	queue := NewChannelQueue(8, zap.NewNop())

	var transitioned, escalated int
	queue.Subscribe(EventTicketTransitioned, func(context.Context, Event) error {
		transitioned++
		return nil
	})
	queue.Subscribe(EventTicketEscalated, func(context.Context, Event) error {
		escalated++
		return nil
	})

	ctx := context.Background()
	require.NoError(t, queue.Publish(ctx, Event{Type: EventTicketEscalated, TicketID: "tk-1"}))
	Drain(ctx, queue)

	assert.Equal(t, 0, transitioned)
	assert.Equal(t, 1, escalated)
}

func TestQueueHandlerErrorDoesNotStopOthers(t *testing.T) {
	queue := NewChannelQueue(8, zap.NewNop())

	var second bool
	queue.Subscribe(EventTicketTransitioned, func(context.Context, Event) error {
		return errors.New("boom")
	})
	queue.Subscribe(EventTicketTransitioned, func(context.Context, Event) error {
		second = true
		return nil
	})

	ctx := context.Background()
	require.NoError(t, queue.Publish(ctx, Event{Type: EventTicketTransitioned, TicketID: "tk-1"}))
	Drain(ctx, queue)

	assert.True(t, second)
}

func TestQueueFullBufferDropsInsteadOfBlocking(t *testing.T) {
	queue := NewChannelQueue(1, zap.NewNop())

	var delivered int
	queue.Subscribe(EventTicketTransitioned, func(context.Context, Event) error {
		delivered++
		return nil
	})

	ctx := context.Background()
	require.NoError(t, queue.Publish(ctx, Event{Type: EventTicketTransitioned, TicketID: "tk-1"}))
	// Buffer is full; this publish must return immediately without error.
	require.NoError(t, queue.Publish(ctx, Event{Type: EventTicketTransitioned, TicketID: "tk-2"}))
	Drain(ctx, queue)

	assert.Equal(t, 1, delivered)
}
