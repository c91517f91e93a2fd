package events

import (
	"context"
	"errors"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// handlerSet is the subscriber registry shared by dispatchers.
type handlerSet struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
}

func (h *handlerSet) add(eventType EventType, handler EventHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listeners == nil {
		h.listeners = make(map[EventType][]EventHandler)
	}
	h.listeners[eventType] = append(h.listeners[eventType], handler)
}

// deliver invokes every handler for the event and joins their errors.
func (h *handlerSet) deliver(ctx context.Context, event Event) error {
	h.mu.RLock()
	handlers := append([]EventHandler{}, h.listeners[event.Type]...)
	h.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
