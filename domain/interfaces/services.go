package interfaces

import (
	"context"
	"math/big"
	"time"

	"raffler/domain/entities"
	"raffler/domain/events"
)

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding transaction ends
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes buffered events. Called after commit.
	Flush(ctx context.Context) error

	// Discard drops buffered events. Called on rollback.
	Discard()
}

// RandomnessProvider issues randomness requests. The provider later delivers
// the random words for a request through a single fulfillment callback.
type RandomnessProvider interface {
	RequestRandomWords(ctx context.Context, request entities.RandomnessRequest) (entities.RequestID, error)
}

// RaffleService defines the raffle state machine operations
type RaffleService interface {
	// Initialize creates the raffle record on first start
	Initialize(ctx context.Context) (*entities.Raffle, error)

	// Enter records a paid entry for identity in the current round
	Enter(ctx context.Context, identity string, amountPaid int64) (*entities.Entrant, error)

	// CheckUpkeep reports whether a draw should be triggered. It never mutates state.
	CheckUpkeep(ctx context.Context, checkData []byte) (upkeepNeeded bool, performData []byte, err error)

	// GetUpkeepStatus returns the full predicate snapshot behind CheckUpkeep
	GetUpkeepStatus(ctx context.Context) (*entities.UpkeepStatus, error)

	// PerformUpkeep moves the raffle to calculating and requests randomness
	PerformUpkeep(ctx context.Context, performData []byte) (entities.RequestID, error)

	// FulfillRandomWords picks and pays the winner for the outstanding request
	FulfillRandomWords(ctx context.Context, requestID entities.RequestID, randomWords []*big.Int) (*entities.RaffleWinner, error)

	// Read accessors
	GetEntranceFee() int64
	GetInterval() time.Duration
	GetRaffleState(ctx context.Context) (entities.RaffleState, error)
	GetEntrant(ctx context.Context, index int64) (*entities.Entrant, error)
	GetAllEntrants(ctx context.Context) ([]*entities.Entrant, error)
	GetNumberOfEntrants(ctx context.Context) (int64, error)
	GetRecentWinner(ctx context.Context) (string, error)
	GetLastDrawTimestamp(ctx context.Context) (time.Time, error)
	GetBalance(ctx context.Context) (int64, error)
	GetRecentWinners(ctx context.Context, limit int) ([]*entities.RaffleWinner, error)
}
