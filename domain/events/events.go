package events

import "raffler/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeEntryRecorded    EventType = "entry_recorded"
	EventTypeRequestSubmitted EventType = "request_submitted"
	EventTypeWinnerPicked     EventType = "winner_picked"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// EntryRecordedEvent is emitted when an entrant joins the current round
type EntryRecordedEvent struct {
	Identity    string `json:"identity"`
	AmountPaid  int64  `json:"amount_paid"`
	RoundNumber int64  `json:"round_number"`
}

func (e EntryRecordedEvent) Type() EventType {
	return EventTypeEntryRecorded
}

// RequestSubmittedEvent is emitted when a randomness request has been issued
type RequestSubmittedEvent struct {
	RequestID   entities.RequestID `json:"request_id"`
	RoundNumber int64              `json:"round_number"`
}

func (e RequestSubmittedEvent) Type() EventType {
	return EventTypeRequestSubmitted
}

// WinnerPickedEvent is emitted when a round completes
type WinnerPickedEvent struct {
	Winner      string             `json:"winner"`
	RequestID   entities.RequestID `json:"request_id"`
	PrizeAmount int64              `json:"prize_amount"`
	RoundNumber int64              `json:"round_number"`
}

func (e WinnerPickedEvent) Type() EventType {
	return EventTypeWinnerPicked
}
