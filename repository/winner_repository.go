package repository

import (
	"context"
	"fmt"

	"raffler/domain/entities"
	"raffler/domain/interfaces"
)

// WinnerRepository implements raffle winner history data access
type WinnerRepository struct {
	q Queryable
}

// NewWinnerRepository creates a winner repository bound to q
func NewWinnerRepository(q Queryable) *WinnerRepository {
	return &WinnerRepository{q: q}
}

func newWinnerRepository(q Queryable) interfaces.WinnerRepository {
	return NewWinnerRepository(q)
}

// Create records a completed round
func (r *WinnerRepository) Create(ctx context.Context, winner *entities.RaffleWinner) error {
	query := `
		INSERT INTO raffle_winners (
			round_number, identity, request_id, random_word,
			winner_index, entrant_count, prize_amount, drawn_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		winner.RoundNumber,
		winner.Identity,
		string(winner.RequestID),
		winner.RandomWord,
		winner.WinnerIndex,
		winner.EntrantCount,
		winner.PrizeAmount,
		winner.DrawnAt,
	).Scan(&winner.ID)
	if err != nil {
		return fmt.Errorf("failed to create raffle winner: %w", err)
	}

	return nil
}

// GetRecent returns up to limit winners, newest first
func (r *WinnerRepository) GetRecent(ctx context.Context, limit int) ([]*entities.RaffleWinner, error) {
	query := `
		SELECT id, round_number, identity, request_id, random_word,
		       winner_index, entrant_count, prize_amount, drawn_at
		FROM raffle_winners
		ORDER BY round_number DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent winners: %w", err)
	}
	defer rows.Close()

	winners := make([]*entities.RaffleWinner, 0)
	for rows.Next() {
		var (
			winner    entities.RaffleWinner
			requestID string
		)
		if err := rows.Scan(
			&winner.ID,
			&winner.RoundNumber,
			&winner.Identity,
			&requestID,
			&winner.RandomWord,
			&winner.WinnerIndex,
			&winner.EntrantCount,
			&winner.PrizeAmount,
			&winner.DrawnAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan raffle winner: %w", err)
		}
		winner.RequestID = entities.RequestID(requestID)
		winners = append(winners, &winner)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating raffle winners: %w", err)
	}

	return winners, nil
}
