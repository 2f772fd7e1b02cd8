package interfaces

import (
	"context"
	"time"

	"raffler/domain/entities"
)

// RaffleRepository defines the interface for the singleton raffle record
type RaffleRepository interface {
	// Initialize creates the raffle record if it does not exist yet and returns it.
	// An existing record is returned untouched.
	Initialize(ctx context.Context, lastDrawAt time.Time) (*entities.Raffle, error)

	// Get returns the raffle record, or nil if it was never initialized
	Get(ctx context.Context) (*entities.Raffle, error)

	// GetForUpdate returns the raffle record locked for the rest of the transaction
	GetForUpdate(ctx context.Context) (*entities.Raffle, error)

	// Update persists the raffle record
	Update(ctx context.Context, raffle *entities.Raffle) error
}

// EntrantRepository defines the interface for the ordered entrant ledger
type EntrantRepository interface {
	// Append adds an entrant at the end of the sequence
	Append(ctx context.Context, entrant *entities.Entrant) error

	// GetByIndex returns the entrant at a zero-based position, or nil if out of range
	GetByIndex(ctx context.Context, index int64) (*entities.Entrant, error)

	// GetAll returns all entrants in insertion order
	GetAll(ctx context.Context) ([]*entities.Entrant, error)

	// Count returns the number of entrant slots
	Count(ctx context.Context) (int64, error)

	// Clear removes every entrant
	Clear(ctx context.Context) error
}

// WinnerRepository defines the interface for winner history
type WinnerRepository interface {
	// Create records a completed round
	Create(ctx context.Context, winner *entities.RaffleWinner) error

	// GetRecent returns the most recent winners, newest first
	GetRecent(ctx context.Context, limit int) ([]*entities.RaffleWinner, error)
}

// AccountRepository defines the interface for balance-holding accounts
type AccountRepository interface {
	// Get returns an account, or nil if it does not exist
	Get(ctx context.Context, identity string) (*entities.Account, error)

	// GetBalance returns an account balance, zero for unknown accounts
	GetBalance(ctx context.Context, identity string) (int64, error)

	// Deposit credits an account, creating it if needed
	Deposit(ctx context.Context, identity string, amount int64) error

	// Transfer moves amount from one account to another. It returns
	// entities.ErrPayoutRejected when the recipient refuses payouts.
	Transfer(ctx context.Context, from, to string, amount int64) error

	// SetAcceptsPayouts toggles whether an account accepts incoming transfers,
	// creating it if needed
	SetAcceptsPayouts(ctx context.Context, identity string, accepts bool) error
}
