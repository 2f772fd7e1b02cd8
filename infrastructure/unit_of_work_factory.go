package infrastructure

import (
	"context"

	"raffler/application"
	"raffler/domain/events"
	"raffler/domain/interfaces"
)

// UnitOfWorkFactory creates units of work that pair a storage transaction
// with a transactional event publisher
type UnitOfWorkFactory struct {
	repoFactory    application.RepositoryUnitOfWorkFactory
	eventPublisher interfaces.EventPublisher
}

// NewUnitOfWorkFactory creates a new UnitOfWorkFactory
func NewUnitOfWorkFactory(repoFactory application.RepositoryUnitOfWorkFactory, eventPublisher interfaces.EventPublisher) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		repoFactory:    repoFactory,
		eventPublisher: eventPublisher,
	}
}

// RegisterLocalHandler registers an in-process handler for eventType. It is a
// no-op unless the underlying publisher supports local handlers.
func (f *UnitOfWorkFactory) RegisterLocalHandler(eventType events.EventType, handler func(context.Context, events.Event) error) {
	if registrar, ok := f.eventPublisher.(application.LocalHandlerRegistrar); ok {
		registrar.RegisterLocalHandler(eventType, handler)
	}
}

// Create returns a new unit of work with its own event buffer
func (f *UnitOfWorkFactory) Create() application.UnitOfWork {
	return &unitOfWork{
		inner:                  f.repoFactory.Create(),
		transactionalPublisher: NewNATSTransactionalPublisher(f.eventPublisher),
	}
}
