package entities

import (
	"time"
)

// Entrant is one paid slot in the current round. The same identity may hold
// several slots.
type Entrant struct {
	ID          int64     `db:"id"`
	RoundNumber int64     `db:"round_number"`
	Identity    string    `db:"identity"`
	AmountPaid  int64     `db:"amount_paid"`
	EnteredAt   time.Time `db:"entered_at"`
}
