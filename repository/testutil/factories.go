package testutil

import (
	"time"

	"raffler/domain/entities"
)

// CreateTestEntrant creates an entrant paying amount in round 0
func CreateTestEntrant(identity string, amount int64) *entities.Entrant {
	return &entities.Entrant{
		RoundNumber: 0,
		Identity:    identity,
		AmountPaid:  amount,
		EnteredAt:   time.Now().UTC(),
	}
}

// CreateTestWinner creates a winner record for round
func CreateTestWinner(round int64, identity string, prize int64) *entities.RaffleWinner {
	return &entities.RaffleWinner{
		RoundNumber:  round,
		Identity:     identity,
		RequestID:    entities.RequestID("req-test"),
		RandomWord:   "115792089237316195423570985008687907853269984665640564039457584007913129639935",
		WinnerIndex:  0,
		EntrantCount: 1,
		PrizeAmount:  prize,
		DrawnAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
}
