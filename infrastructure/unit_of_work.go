package infrastructure

import (
	"context"

	"raffler/application"
	"raffler/domain/interfaces"
)

// unitOfWork wraps a storage transaction and publishes its events on commit
type unitOfWork struct {
	inner                  application.RepositoryUnitOfWork
	transactionalPublisher interfaces.TransactionalEventPublisher
	ctx                    context.Context
	committed              bool
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	u.ctx = ctx
	return u.inner.Begin(ctx)
}

// Commit commits the transaction, then flushes buffered events. Events are
// best-effort once the transaction is durable.
func (u *unitOfWork) Commit() error {
	if err := u.inner.Commit(); err != nil {
		return err
	}
	u.committed = true

	_ = u.transactionalPublisher.Flush(u.ctx)
	return nil
}

// Rollback discards buffered events and rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if !u.committed {
		u.transactionalPublisher.Discard()
	}
	return u.inner.Rollback()
}

func (u *unitOfWork) RaffleRepository() interfaces.RaffleRepository {
	return u.inner.RaffleRepository()
}

func (u *unitOfWork) EntrantRepository() interfaces.EntrantRepository {
	return u.inner.EntrantRepository()
}

func (u *unitOfWork) WinnerRepository() interfaces.WinnerRepository {
	return u.inner.WinnerRepository()
}

func (u *unitOfWork) AccountRepository() interfaces.AccountRepository {
	return u.inner.AccountRepository()
}

// EventBus returns the transactional event publisher
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	return u.transactionalPublisher
}
