package repository

import (
	"context"
	"errors"
	"fmt"

	"raffler/domain/entities"
	"raffler/domain/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// AccountRepository implements account balance data access
type AccountRepository struct {
	q Queryable
}

// NewAccountRepository creates an account repository bound to q
func NewAccountRepository(q Queryable) *AccountRepository {
	return &AccountRepository{q: q}
}

func newAccountRepository(q Queryable) interfaces.AccountRepository {
	return NewAccountRepository(q)
}

// Get returns an account, or nil if it does not exist
func (r *AccountRepository) Get(ctx context.Context, identity string) (*entities.Account, error) {
	query := `
		SELECT identity, balance, accepts_payouts, created_at, updated_at
		FROM accounts
		WHERE identity = $1
	`

	var account entities.Account
	err := r.q.QueryRow(ctx, query, identity).Scan(
		&account.Identity,
		&account.Balance,
		&account.AcceptsPayouts,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", identity, err)
	}

	return &account, nil
}

// GetBalance returns the account balance, zero for unknown accounts
func (r *AccountRepository) GetBalance(ctx context.Context, identity string) (int64, error) {
	var balance int64
	err := r.q.QueryRow(ctx, `SELECT balance FROM accounts WHERE identity = $1`, identity).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance for %s: %w", identity, err)
	}
	return balance, nil
}

// Deposit credits an account, creating it on first use
func (r *AccountRepository) Deposit(ctx context.Context, identity string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("deposit amount must be non-negative, got %d", amount)
	}

	query := `
		INSERT INTO accounts (identity, balance)
		VALUES ($1, $2)
		ON CONFLICT (identity) DO UPDATE
		SET balance = accounts.balance + EXCLUDED.balance,
		    updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, identity, amount); err != nil {
		if isNumericOverflow(err) {
			return fmt.Errorf("deposit to %s: %w", identity, entities.ErrBalanceOverflow)
		}
		return fmt.Errorf("failed to deposit to %s: %w", identity, err)
	}
	return nil
}

// Transfer moves amount from one account to another. The recipient is
// credited first so a refusing recipient never sees the sender debited.
func (r *AccountRepository) Transfer(ctx context.Context, from, to string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("transfer amount must be non-negative, got %d", amount)
	}
	if from == to {
		return fmt.Errorf("transfer %s: %w", from, entities.ErrSelfTransfer)
	}

	creditQuery := `
		INSERT INTO accounts (identity, balance)
		VALUES ($1, $2)
		ON CONFLICT (identity) DO UPDATE
		SET balance = accounts.balance + EXCLUDED.balance,
		    updated_at = NOW()
		WHERE accounts.accepts_payouts
		RETURNING identity
	`

	var credited string
	err := r.q.QueryRow(ctx, creditQuery, to, amount).Scan(&credited)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("transfer to %s: %w", to, entities.ErrPayoutRejected)
	}
	if isNumericOverflow(err) {
		return fmt.Errorf("transfer to %s: %w", to, entities.ErrBalanceOverflow)
	}
	if err != nil {
		return fmt.Errorf("failed to credit %s: %w", to, err)
	}

	debitQuery := `
		UPDATE accounts
		SET balance = balance - $2,
		    updated_at = NOW()
		WHERE identity = $1 AND balance >= $2
	`

	result, err := r.q.Exec(ctx, debitQuery, from, amount)
	if err != nil {
		return fmt.Errorf("failed to debit %s: %w", from, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("transfer from %s: %w", from, entities.ErrInsufficientBalance)
	}

	return nil
}

// SetAcceptsPayouts toggles whether an account accepts incoming transfers
func (r *AccountRepository) SetAcceptsPayouts(ctx context.Context, identity string, accepts bool) error {
	query := `
		INSERT INTO accounts (identity, accepts_payouts)
		VALUES ($1, $2)
		ON CONFLICT (identity) DO UPDATE
		SET accepts_payouts = EXCLUDED.accepts_payouts,
		    updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, identity, accepts); err != nil {
		return fmt.Errorf("failed to update payout setting for %s: %w", identity, err)
	}
	return nil
}

const numericValueOutOfRange = "22003"

// isNumericOverflow matches PostgreSQL's numeric_value_out_of_range (22003),
// raised when a BIGINT balance would overflow
func isNumericOverflow(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == numericValueOutOfRange
}
