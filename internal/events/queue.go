package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Handler consumes a published event.
type Handler func(context.Context, Event) error

// Queue is the outbound event boundary between the transition executor
// and the escalation subsystem. Producers publish onto a bounded buffer;
// a consumer loop dispatches to registered handlers.
type Queue interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler Handler)
	Run(ctx context.Context)
}

type channelQueue struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	buffer   chan Event
	logger   *zap.Logger
}

// NewChannelQueue creates a queue with the given buffer capacity.
func NewChannelQueue(capacity int, logger *zap.Logger) Queue {
	if capacity <= 0 {
		capacity = 256
	}
	return &channelQueue{
		handlers: make(map[EventType][]Handler),
		buffer:   make(chan Event, capacity),
		logger:   logger,
	}
}

// Publish enqueues the event. A full buffer drops the event rather than
// blocking the caller's request path.
func (q *channelQueue) Publish(ctx context.Context, event Event) error {
	select {
	case q.buffer <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		q.logger.Warn("event buffer full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID))
		return nil
	}
}

// Subscribe registers a handler for the given event type.
func (q *channelQueue) Subscribe(eventType EventType, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[eventType] = append(q.handlers[eventType], handler)
}

// Run consumes events until the context is cancelled. Handler errors are
// logged and never stop the loop.
func (q *channelQueue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-q.buffer:
			q.dispatch(ctx, event)
		}
	}
}

func (q *channelQueue) dispatch(ctx context.Context, event Event) {
	q.mu.RLock()
	handlers := append([]Handler{}, q.handlers[event.Type]...)
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			q.logger.Error("event handler failed",
				zap.String("event_type", string(event.Type)),
				zap.String("ticket_id", event.TicketID),
				zap.Error(err))
		}
	}
}

// Drain synchronously dispatches everything currently buffered. Intended
// for shutdown paths and tests; Run is the normal consumer.
func Drain(ctx context.Context, q Queue) {
	cq, ok := q.(*channelQueue)
	if !ok {
		return
	}
	for {
		select {
		case event := <-cq.buffer:
			cq.dispatch(ctx, event)
		default:
			return
		}
	}
}
