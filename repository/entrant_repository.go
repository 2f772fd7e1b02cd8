package repository

import (
	"context"
	"errors"
	"fmt"

	"raffler/domain/entities"
	"raffler/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// EntrantRepository implements the ordered entrant ledger. Insertion order is
// the serial id order.
type EntrantRepository struct {
	q Queryable
}

// NewEntrantRepository creates an entrant repository bound to q
func NewEntrantRepository(q Queryable) *EntrantRepository {
	return &EntrantRepository{q: q}
}

func newEntrantRepository(q Queryable) interfaces.EntrantRepository {
	return NewEntrantRepository(q)
}

// Append adds an entrant slot at the end of the ledger
func (r *EntrantRepository) Append(ctx context.Context, entrant *entities.Entrant) error {
	query := `
		INSERT INTO raffle_entrants (round_number, identity, amount_paid, entered_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		entrant.RoundNumber,
		entrant.Identity,
		entrant.AmountPaid,
		entrant.EnteredAt,
	).Scan(&entrant.ID)
	if err != nil {
		return fmt.Errorf("failed to append entrant: %w", err)
	}

	return nil
}

// GetByIndex returns the entrant at a zero-based position, or nil if out of range
func (r *EntrantRepository) GetByIndex(ctx context.Context, index int64) (*entities.Entrant, error) {
	if index < 0 {
		return nil, nil
	}

	query := `
		SELECT id, round_number, identity, amount_paid, entered_at
		FROM raffle_entrants
		ORDER BY id ASC
		OFFSET $1
		LIMIT 1
	`

	var entrant entities.Entrant
	err := r.q.QueryRow(ctx, query, index).Scan(
		&entrant.ID,
		&entrant.RoundNumber,
		&entrant.Identity,
		&entrant.AmountPaid,
		&entrant.EnteredAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entrant at index %d: %w", index, err)
	}

	return &entrant, nil
}

// GetAll returns every entrant in insertion order
func (r *EntrantRepository) GetAll(ctx context.Context) ([]*entities.Entrant, error) {
	query := `
		SELECT id, round_number, identity, amount_paid, entered_at
		FROM raffle_entrants
		ORDER BY id ASC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get entrants: %w", err)
	}
	defer rows.Close()

	entrants := make([]*entities.Entrant, 0)
	for rows.Next() {
		var entrant entities.Entrant
		if err := rows.Scan(
			&entrant.ID,
			&entrant.RoundNumber,
			&entrant.Identity,
			&entrant.AmountPaid,
			&entrant.EnteredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan entrant: %w", err)
		}
		entrants = append(entrants, &entrant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entrants: %w", err)
	}

	return entrants, nil
}

// Count returns the number of entrant slots
func (r *EntrantRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM raffle_entrants`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entrants: %w", err)
	}
	return count, nil
}

// Clear removes every entrant slot
func (r *EntrantRepository) Clear(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM raffle_entrants`); err != nil {
		return fmt.Errorf("failed to clear entrants: %w", err)
	}
	return nil
}
