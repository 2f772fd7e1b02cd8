package entities

import "time"

// RaffleWinner is the historical record of a completed round
type RaffleWinner struct {
	ID           int64     `db:"id"`
	RoundNumber  int64     `db:"round_number"`
	Identity     string    `db:"identity"`
	RequestID    RequestID `db:"request_id"`
	RandomWord   string    `db:"random_word"` // decimal encoding of the uint256 word
	WinnerIndex  int64     `db:"winner_index"`
	EntrantCount int64     `db:"entrant_count"`
	PrizeAmount  int64     `db:"prize_amount"`
	DrawnAt      time.Time `db:"drawn_at"`
}
