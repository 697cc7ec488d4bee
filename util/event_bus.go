// util/event_bus.go

package util

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	logger "github.com/aegis-admin/aegis/logging"
)

// Event types published by the services
const (
	EventUserUpdated  = "user.updated"
	EventUserDeleted  = "user.deleted"
	EventRoleUpdated  = "role.updated"
	EventMenuUpdated  = "menu.updated"
	EventDeptUpdated  = "dept.updated"
	EventRuleUpdated  = "rule.updated"
	EventTaskFinished = "task.finished"
)

// Event represents an event in the system
type Event struct {
	Type    string
	Payload interface{}
}

// EventHandler is a function that handles an event
type EventHandler func(context.Context, Event) error

// EventBus manages event subscriptions and publications. Handlers run in
// their own goroutines; publication never blocks the caller. Listeners are
// observers only: correctness-critical work (identity cache invalidation)
// happens synchronously in the services, never through the bus.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	errorChan   chan error
}

// NewEventBus creates a new EventBus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]EventHandler),
		errorChan:   make(chan error, 100),
	}
}

// Subscribe adds a new subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType string, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], handler)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(ctx context.Context, eventType string, payload interface{}) {
	eb.mu.RLock()
	handlers, exists := eb.subscribers[eventType]
	eb.mu.RUnlock()

	if !exists {
		return
	}

	event := Event{
		Type:    eventType,
		Payload: payload,
	}

	for _, handler := range handlers {
		go func(h EventHandler) {
			if err := h(ctx, event); err != nil {
				select {
				case eb.errorChan <- fmt.Errorf("event handler error: %w", err):
				default:
					logger.Error("Error channel full, logging event handler error",
						zap.Error(err),
						zap.String("eventType", eventType))
				}
			}
		}(handler)
	}
}

// Start begins processing events and handling errors
func (eb *EventBus) Start(ctx context.Context) {
	go eb.processErrors(ctx)
}

func (eb *EventBus) processErrors(ctx context.Context) {
	for {
		select {
		case err := <-eb.errorChan:
			logger.Error("Event handler error", zap.Error(err))
		case <-ctx.Done():
			return
		}
	}
}
