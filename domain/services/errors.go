package services

import (
	"errors"
	"fmt"

	"raffler/domain/entities"
)

var (
	// ErrSendMoreToEnterRaffle is returned when an entry pays no more than the entrance fee
	ErrSendMoreToEnterRaffle = errors.New("send more to enter raffle")

	// ErrRaffleNotOpen is returned when an entry is attempted while a draw is in progress
	ErrRaffleNotOpen = errors.New("raffle not open")

	// ErrUpkeepNotNeeded is returned when upkeep is forced while the predicate is false
	ErrUpkeepNotNeeded = errors.New("upkeep not needed")

	// ErrTransferFailed is returned when the prize cannot be paid to the winner
	ErrTransferFailed = errors.New("transfer failed")

	// ErrUnknownRequest is returned for a fulfillment that does not match the outstanding request
	ErrUnknownRequest = errors.New("unknown randomness request")

	// ErrNoEntrants is returned if a fulfillment arrives for a round without entrants
	ErrNoEntrants = errors.New("raffle has no entrants")

	// ErrNoRandomWords is returned for a fulfillment carrying no random words
	ErrNoRandomWords = errors.New("no random words provided")

	// ErrRaffleNotInitialized is returned before the raffle record exists
	ErrRaffleNotInitialized = errors.New("raffle not initialized")

	// ErrInvalidIdentity is returned for an empty entrant identity or one that
	// names the holding account
	ErrInvalidIdentity = errors.New("invalid entrant identity")

	// ErrPotCapacityExceeded is returned when an entry would overflow the held balance
	ErrPotCapacityExceeded = errors.New("entry exceeds raffle pot capacity")
)

// SendMoreToEnterRaffleError carries the amount sent and the fee it must exceed
type SendMoreToEnterRaffleError struct {
	Sent     int64
	Required int64
}

func (e *SendMoreToEnterRaffleError) Error() string {
	return fmt.Sprintf("%s: sent %d, must exceed %d", ErrSendMoreToEnterRaffle, e.Sent, e.Required)
}

func (e *SendMoreToEnterRaffleError) Unwrap() error {
	return ErrSendMoreToEnterRaffle
}

// PotCapacityExceededError carries the held balance an entry could not be added to
type PotCapacityExceededError struct {
	Balance    int64
	AmountPaid int64
}

func (e *PotCapacityExceededError) Error() string {
	return fmt.Sprintf("%s: balance %d, paid %d", ErrPotCapacityExceeded, e.Balance, e.AmountPaid)
}

func (e *PotCapacityExceededError) Unwrap() error {
	return ErrPotCapacityExceeded
}

// UpkeepNotNeededError carries a snapshot of the raffle at the time upkeep was refused
type UpkeepNotNeededError struct {
	Balance      int64
	EntrantCount int64
	State        entities.RaffleState
}

func (e *UpkeepNotNeededError) Error() string {
	return fmt.Sprintf("%s: balance=%d entrants=%d state=%s", ErrUpkeepNotNeeded, e.Balance, e.EntrantCount, e.State)
}

func (e *UpkeepNotNeededError) Unwrap() error {
	return ErrUpkeepNotNeeded
}

// TransferFailedError describes a prize payout that could not be delivered
type TransferFailedError struct {
	Winner string
	Amount int64
	Cause  error
}

func (e *TransferFailedError) Error() string {
	return fmt.Sprintf("%s: paying %d to %s: %v", ErrTransferFailed, e.Amount, e.Winner, e.Cause)
}

func (e *TransferFailedError) Unwrap() []error {
	return []error{ErrTransferFailed, e.Cause}
}
