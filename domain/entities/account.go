package entities

import (
	"errors"
	"math"
	"time"
)

// ErrPayoutRejected is returned when the recipient account refuses an incoming transfer
var ErrPayoutRejected = errors.New("recipient account rejects payouts")

// Account is a balance-holding identity. The raffle pot lives in the
// configured holding account.
type Account struct {
	Identity       string    `db:"identity"`
	Balance        int64     `db:"balance"`
	AcceptsPayouts bool      `db:"accepts_payouts"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

var (
	// ErrInsufficientBalance is returned when a debit exceeds the account balance
	ErrInsufficientBalance = errors.New("insufficient account balance")

	// ErrBalanceOverflow is returned when a credit would push a balance past int64
	ErrBalanceOverflow = errors.New("account balance would overflow")

	// ErrSelfTransfer is returned when sender and recipient are the same account
	ErrSelfTransfer = errors.New("cannot transfer to the sending account")
)

// CanCredit reports whether a non-negative amount can be added to balance
// without overflowing
func CanCredit(balance, amount int64) bool {
	return amount >= 0 && balance <= math.MaxInt64-amount
}
