package events

import (
	"context"
	"sync"

	"botshop/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange         EventType = "balance_change"
	EventTypeUserCreated           EventType = "user_created"
	EventTypeWithdrawalStateChange EventType = "withdrawal_state_change"
	EventTypePlanActivated         EventType = "plan_activated"
	EventTypeStockChange           EventType = "stock_change"
	EventTypeInstanceDeleted       EventType = "instance_deleted"
	EventTypeRuntimeStatusChange   EventType = "runtime_status_change"
	EventTypePaymentStatusChange   EventType = "payment_status_change"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a wallet change that was committed
type BalanceChangeEvent struct {
	UserID          string
	TransactionID   string
	OldBalance      int64
	NewBalance      int64
	TransactionType models.TransactionType
	ChangeAmount    int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserCreatedEvent represents a first sign-in
type UserCreatedEvent struct {
	UserID   string
	Username string
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// WithdrawalStateChangeEvent represents a withdrawal state transition
type WithdrawalStateChangeEvent struct {
	WithdrawalID string
	UserID       string
	AmountCents  int64
	OldStatus    models.WithdrawalStatus
	NewStatus    models.WithdrawalStatus
}

func (e WithdrawalStateChangeEvent) Type() EventType {
	return EventTypeWithdrawalStateChange
}

// PlanActivatedEvent represents a trial claim or a paid plan activation
type PlanActivatedEvent struct {
	UserID string
	Plan   models.Plan
}

func (e PlanActivatedEvent) Type() EventType {
	return EventTypePlanActivated
}

// PaymentStatusChangeEvent represents a payment confirmation outcome
type PaymentStatusChangeEvent struct {
	TransactionID string
	UserID        string
	OldStatus     models.TransactionStatus
	NewStatus     models.TransactionStatus
}

func (e PaymentStatusChangeEvent) Type() EventType {
	return EventTypePaymentStatusChange
}

// StockChangeEvent represents keys added to or removed from a bucket
type StockChangeEvent struct {
	InstanceID string
	ProductID  string
	Bucket     string
	Added      int
	Removed    int
	Remaining  int
}

func (e StockChangeEvent) Type() EventType {
	return EventTypeStockChange
}

// InstanceDeletedEvent represents an instance removed with its catalog
type InstanceDeletedEvent struct {
	InstanceID string
	OwnerID    string
}

func (e InstanceDeletedEvent) Type() EventType {
	return EventTypeInstanceDeleted
}

// RuntimeStatusChangeEvent represents an orchestrator status report
type RuntimeStatusChangeEvent struct {
	InstanceID string
	OldStatus  models.RuntimeStatus
	NewStatus  models.RuntimeStatus
	Code       string
}

func (e RuntimeStatusChangeEvent) Type() EventType {
	return EventTypeRuntimeStatusChange
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Handlers run asynchronously so a slow subscriber never holds up the store queue
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised inside a store task until the task's
// document has been persisted. Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Pending returns the events published so far
func (b *TransactionalBus) Pending() []Event {
	return b.pending
}

// Flush is called after a successful save
func (b *TransactionalBus) Flush(ctx context.Context) {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing pending events")

	// Emission is decoupled from the caller's context: the write already committed
	eventCtx := context.WithoutCancel(ctx)
	if b.real != nil {
		for _, ev := range b.pending {
			b.real.Emit(eventCtx, ev)
		}
	}
	b.pending = nil
}

// Discard drops pending events after a failed task
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
