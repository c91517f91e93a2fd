package events

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrQueueFull is returned by Publish when the in-process queue has no room.
var ErrQueueFull = errors.New("event queue full")

// QueueDispatcher hands events to subscribers on a background goroutine so
// slow handlers never hold up the publisher. Events still queued at shutdown
// are delivered before Run returns. Nothing survives a restart.
type QueueDispatcher struct {
	handlers handlerSet
	queue    chan Event
	logger   *zap.Logger
}

// NewQueueDispatcher creates a dispatcher buffering up to size events.
func NewQueueDispatcher(size int, logger *zap.Logger) *QueueDispatcher {
	if size <= 0 {
		size = 256
	}
	return &QueueDispatcher{queue: make(chan Event, size), logger: logger}
}

// Publish enqueues event without waiting for delivery.
func (d *QueueDispatcher) Publish(ctx context.Context, event Event) error {
	select {
	case d.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Subscribe registers a handler for the given event type.
func (d *QueueDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.handlers.add(eventType, handler)
}

// Run delivers queued events until ctx is cancelled, then drains the queue.
func (d *QueueDispatcher) Run(ctx context.Context) error {
	for {
		select {
		case event := <-d.queue:
			d.deliver(ctx, event)
		case <-ctx.Done():
			d.drain()
			return nil
		}
	}
}

func (d *QueueDispatcher) drain() {
	ctx := context.Background()
	for {
		select {
		case event := <-d.queue:
			d.deliver(ctx, event)
		default:
			return
		}
	}
}

func (d *QueueDispatcher) deliver(ctx context.Context, event Event) {
	if err := d.handlers.deliver(ctx, event); err != nil {
		d.logger.Warn("event handler failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
	}
}
