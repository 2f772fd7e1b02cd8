package repository

import (
	"context"
	"errors"
	"fmt"

	"raffler/application"
	"raffler/database"
	"raffler/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

var (
	errTxActive   = errors.New("transaction already begun")
	errTxInactive = errors.New("no active transaction")
)

// txRepositories are bound to a single pgx.Tx
type txRepositories struct {
	raffles  interfaces.RaffleRepository
	entrants interfaces.EntrantRepository
	winners  interfaces.WinnerRepository
	accounts interfaces.AccountRepository
}

func bindRepositories(tx pgx.Tx) *txRepositories {
	return &txRepositories{
		raffles:  newRaffleRepository(tx),
		entrants: newEntrantRepository(tx),
		winners:  newWinnerRepository(tx),
		accounts: newAccountRepository(tx),
	}
}

// unitOfWork runs one raffle operation inside a single PostgreSQL transaction
type unitOfWork struct {
	db    *database.DB
	tx    pgx.Tx
	ctx   context.Context
	repos *txRepositories
}

type unitOfWorkFactory struct {
	db *database.DB
}

// NewUnitOfWorkFactory returns a factory whose units of work share db's pool
func NewUnitOfWorkFactory(db *database.DB) *unitOfWorkFactory {
	return &unitOfWorkFactory{db: db}
}

func (f *unitOfWorkFactory) Create() application.RepositoryUnitOfWork {
	return &unitOfWork{db: f.db}
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return errTxActive
	}

	tx, err := u.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx, u.ctx = tx, ctx
	u.repos = bindRepositories(tx)
	return nil
}

func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return errTxInactive
	}

	tx := u.tx
	u.tx = nil
	if err := tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback is a no-op once the transaction has ended, so it can be deferred
// unconditionally.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	tx := u.tx
	u.tx = nil
	if err := tx.Rollback(u.ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

func (u *unitOfWork) bound() *txRepositories {
	if u.repos == nil {
		panic("repository: unit of work used before Begin")
	}
	return u.repos
}

func (u *unitOfWork) RaffleRepository() interfaces.RaffleRepository {
	return u.bound().raffles
}

func (u *unitOfWork) EntrantRepository() interfaces.EntrantRepository {
	return u.bound().entrants
}

func (u *unitOfWork) WinnerRepository() interfaces.WinnerRepository {
	return u.bound().winners
}

func (u *unitOfWork) AccountRepository() interfaces.AccountRepository {
	return u.bound().accounts
}
