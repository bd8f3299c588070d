// Package event is a small in-process event bus. Listeners run either
// inline (Fire) or on the worker pool (FireAsync).
package event

import (
	"context"
	"sync"

	"github.com/mmartin-estofados/storefront/pkg/logger"
	"github.com/mmartin-estofados/storefront/pkg/workerpool"
)

// Event names.
const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	OrderPaymentUpdate = "order.payment_updated"
	StockLow           = "stock.low"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload interface{}) error

// Bus dispatches named events to listeners. A nil *Bus drops everything,
// which keeps services usable in tests without wiring.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	pool     *workerpool.Pool
}

// NewBus creates a bus. pool may be nil, in which case FireAsync starts a
// goroutine per listener.
func NewBus(pool *workerpool.Pool) *Bus {
	return &Bus{handlers: map[string][]Handler{}, pool: pool}
}

// Listen registers h for event.
func (b *Bus) Listen(event string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], h)
}

func (b *Bus) listeners(event string) []Handler {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Handler(nil), b.handlers[event]...)
}

// Fire runs every listener inline; listener errors are logged.
func (b *Bus) Fire(ctx context.Context, event string, payload interface{}) {
	for _, h := range b.listeners(event) {
		if err := h(ctx, payload); err != nil {
			logger.WithCtx(ctx).Warn("event: listener failed", "event", event, "error", err)
		}
	}
}

// FireAsync hands every listener to the worker pool. The request context
// is not passed on since the request will be gone by the time they run.
func (b *Bus) FireAsync(ctx context.Context, event string, payload interface{}) {
	for _, h := range b.listeners(event) {
		h := h
		task := func(taskCtx context.Context) error { return h(taskCtx, payload) }

		if b.pool == nil {
			go func() {
				if err := task(context.Background()); err != nil {
					logger.Warn("event: listener failed", "event", event, "error", err)
				}
			}()
			continue
		}
		if err := b.pool.Submit(event, task); err != nil {
			logger.WithCtx(ctx).Warn("event: listener dropped", "event", event, "error", err)
		}
	}
}
