package entities

import (
	"time"
)

// RaffleState represents the lifecycle state of the raffle
type RaffleState string

const (
	RaffleStateOpen        RaffleState = "open"
	RaffleStateCalculating RaffleState = "calculating"
)

// IsValid reports whether the state is one of the known raffle states
func (s RaffleState) IsValid() bool {
	return s == RaffleStateOpen || s == RaffleStateCalculating
}

// Raffle is the single global raffle record
type Raffle struct {
	ID               int64       `db:"id"`
	State            RaffleState `db:"state"`
	RoundNumber      int64       `db:"round_number"`
	LastDrawAt       time.Time   `db:"last_draw_at"`
	RecentWinner     *string     `db:"recent_winner"`
	PendingRequestID *RequestID  `db:"pending_request_id"` // NULL unless calculating
	CreatedAt        time.Time   `db:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at"`
}

// IsOpen returns true if the raffle accepts entries
func (r *Raffle) IsOpen() bool {
	return r.State == RaffleStateOpen
}

// IsCalculating returns true while a randomness request is outstanding
func (r *Raffle) IsCalculating() bool {
	return r.State == RaffleStateCalculating
}

// StartCalculating moves the raffle into the calculating state. The request
// handle is attached separately once the provider has returned it.
func (r *Raffle) StartCalculating() {
	r.State = RaffleStateCalculating
	r.PendingRequestID = nil
}

// TrackRequest records the outstanding randomness request handle
func (r *Raffle) TrackRequest(requestID RequestID) {
	r.PendingRequestID = &requestID
}

// IsPendingRequest reports whether requestID is the outstanding request
func (r *Raffle) IsPendingRequest(requestID RequestID) bool {
	return r.IsCalculating() && r.PendingRequestID != nil && *r.PendingRequestID == requestID
}

// CompleteRound records the winner and reopens the raffle for the next round.
// LastDrawAt never moves backwards.
func (r *Raffle) CompleteRound(winner string, drawnAt time.Time) {
	r.RecentWinner = &winner
	r.State = RaffleStateOpen
	r.PendingRequestID = nil
	r.RoundNumber++
	if drawnAt.After(r.LastDrawAt) {
		r.LastDrawAt = drawnAt
	}
}

// GetRecentWinner returns the most recent winner or an empty string
func (r *Raffle) GetRecentWinner() string {
	if r.RecentWinner == nil {
		return ""
	}
	return *r.RecentWinner
}
