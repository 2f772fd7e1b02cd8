package entities

import "time"

// UpkeepStatus is a snapshot of every input to the upkeep predicate
type UpkeepStatus struct {
	Needed       bool        `json:"upkeep_needed"`
	TimePassed   bool        `json:"time_passed"`
	IsOpen       bool        `json:"is_open"`
	HasBalance   bool        `json:"has_balance"`
	HasEntrants  bool        `json:"has_entrants"`
	Balance      int64       `json:"balance"`
	EntrantCount int64       `json:"entrant_count"`
	State        RaffleState `json:"state"`
	LastDrawAt   time.Time   `json:"last_draw_at"`
	EvaluatedAt  time.Time   `json:"evaluated_at"`
}

// EvaluateUpkeep combines elapsed time, state, balance and entrant count.
// It has no side effects.
func EvaluateUpkeep(raffle *Raffle, interval time.Duration, now time.Time, balance, entrantCount int64) UpkeepStatus {
	status := UpkeepStatus{
		TimePassed:   now.Sub(raffle.LastDrawAt) >= interval,
		IsOpen:       raffle.IsOpen(),
		HasBalance:   balance > 0,
		HasEntrants:  entrantCount > 0,
		Balance:      balance,
		EntrantCount: entrantCount,
		State:        raffle.State,
		LastDrawAt:   raffle.LastDrawAt,
		EvaluatedAt:  now,
	}
	status.Needed = status.TimePassed && status.IsOpen && status.HasBalance && status.HasEntrants
	return status
}
