package ledger

import (
	"context"

	"github.com/erp/posledger/internal/domain/shared"
	"github.com/erp/posledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// EventSource is anything that buffers domain events until commit
type EventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// Collector gathers events raised inside a transaction so they can be
// published once the transaction has committed
type Collector struct {
	events []shared.DomainEvent
}

// Collect takes the pending events off each source
func (c *Collector) Collect(sources ...EventSource) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		c.events = append(c.events, src.GetDomainEvents()...)
		src.ClearDomainEvents()
	}
}

// Add appends events that are not owned by an aggregate
func (c *Collector) Add(events ...shared.DomainEvent) {
	c.events = append(c.events, events...)
}

// Events returns the collected events
func (c *Collector) Events() []shared.DomainEvent {
	return c.events
}

// Publish sends collected events. Publishing failures are logged and never
// undo committed ledger work.
func (c *Collector) Publish(ctx context.Context, publisher shared.EventPublisher) {
	if publisher == nil || len(c.events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, c.events...); err != nil {
		logger.L(ctx).Warn("failed to publish ledger events",
			zap.Int("count", len(c.events)),
			zap.Error(err))
	}
	c.events = nil
}
