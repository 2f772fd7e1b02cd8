package application

import (
	"context"

	"raffler/domain/interfaces"
)

// RepositoryUnitOfWork is a storage transaction exposing repositories bound to it
type RepositoryUnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction. Safe to call after Commit.
	Rollback() error

	// Repository getters
	RaffleRepository() interfaces.RaffleRepository
	EntrantRepository() interfaces.EntrantRepository
	WinnerRepository() interfaces.WinnerRepository
	AccountRepository() interfaces.AccountRepository
}

// UnitOfWork is a storage transaction plus the event bus whose events are
// published only if the transaction commits
type UnitOfWork interface {
	RepositoryUnitOfWork
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// RepositoryUnitOfWorkFactory creates storage transactions without event handling
type RepositoryUnitOfWorkFactory interface {
	Create() RepositoryUnitOfWork
}
