package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"raffler/domain/entities"
	"raffler/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// raffleRowID is the primary key of the single raffle record
const raffleRowID = 1

const raffleColumns = `id, state, round_number, last_draw_at, recent_winner, pending_request_id, created_at, updated_at`

// RaffleRepository implements raffle record data access
type RaffleRepository struct {
	q Queryable
}

// NewRaffleRepository creates a raffle repository bound to q
func NewRaffleRepository(q Queryable) *RaffleRepository {
	return &RaffleRepository{q: q}
}

func newRaffleRepository(q Queryable) interfaces.RaffleRepository {
	return NewRaffleRepository(q)
}

// Initialize inserts the raffle record if missing and returns the stored record
func (r *RaffleRepository) Initialize(ctx context.Context, lastDrawAt time.Time) (*entities.Raffle, error) {
	query := `
		INSERT INTO raffles (id, state, round_number, last_draw_at)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (id) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, query, raffleRowID, string(entities.RaffleStateOpen), lastDrawAt); err != nil {
		return nil, fmt.Errorf("failed to initialize raffle: %w", err)
	}

	raffle, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}
	if raffle == nil {
		return nil, fmt.Errorf("raffle record missing after initialization")
	}
	return raffle, nil
}

// Get returns the raffle record, or nil if it was never initialized
func (r *RaffleRepository) Get(ctx context.Context) (*entities.Raffle, error) {
	query := `SELECT ` + raffleColumns + ` FROM raffles WHERE id = $1`
	return r.scanRaffle(r.q.QueryRow(ctx, query, raffleRowID))
}

// GetForUpdate returns the raffle record with a row lock held until the
// transaction ends
func (r *RaffleRepository) GetForUpdate(ctx context.Context) (*entities.Raffle, error) {
	query := `SELECT ` + raffleColumns + ` FROM raffles WHERE id = $1 FOR UPDATE`
	return r.scanRaffle(r.q.QueryRow(ctx, query, raffleRowID))
}

// Update persists the mutable raffle fields
func (r *RaffleRepository) Update(ctx context.Context, raffle *entities.Raffle) error {
	if !raffle.State.IsValid() {
		return fmt.Errorf("invalid raffle state %q", raffle.State)
	}

	query := `
		UPDATE raffles
		SET state = $2,
		    round_number = $3,
		    last_draw_at = $4,
		    recent_winner = $5,
		    pending_request_id = $6,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	var pendingRequestID *string
	if raffle.PendingRequestID != nil {
		id := string(*raffle.PendingRequestID)
		pendingRequestID = &id
	}

	err := r.q.QueryRow(ctx, query,
		raffle.ID,
		string(raffle.State),
		raffle.RoundNumber,
		raffle.LastDrawAt,
		raffle.RecentWinner,
		pendingRequestID,
	).Scan(&raffle.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("raffle %d not found", raffle.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update raffle: %w", err)
	}

	return nil
}

func (r *RaffleRepository) scanRaffle(row pgx.Row) (*entities.Raffle, error) {
	var (
		raffle           entities.Raffle
		state            string
		pendingRequestID *string
	)
	err := row.Scan(
		&raffle.ID,
		&state,
		&raffle.RoundNumber,
		&raffle.LastDrawAt,
		&raffle.RecentWinner,
		&pendingRequestID,
		&raffle.CreatedAt,
		&raffle.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle: %w", err)
	}

	raffle.State = entities.RaffleState(state)
	if pendingRequestID != nil {
		id := entities.RequestID(*pendingRequestID)
		raffle.PendingRequestID = &id
	}
	return &raffle, nil
}
