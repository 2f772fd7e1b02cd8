package dto

import (
	"math/big"
	"time"
)

// RaffleSnapshotDTO is a consistent read of the raffle taken in one transaction
type RaffleSnapshotDTO struct {
	State        string
	EntranceFee  int64
	Interval     time.Duration
	LastDrawAt   time.Time
	RecentWinner string
	Balance      int64
	EntrantCount int64
}

// RandomWordsFulfilledDTO is a randomness delivery for an outstanding request
type RandomWordsFulfilledDTO struct {
	RequestID   string
	RandomWords []*big.Int
}

// WinnerAnnouncementDTO contains what is needed to announce a completed round
type WinnerAnnouncementDTO struct {
	Winner      string
	PrizeAmount int64
	RoundNumber int64
	RequestID   string
}
