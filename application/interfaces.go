package application

import (
	"context"
	"math/big"

	"raffler/application/dto"
	"raffler/domain/entities"
	"raffler/domain/events"
)

// MetricsRecorder receives raffle outcome measurements
type MetricsRecorder interface {
	RecordEntry(ctx context.Context, amountPaid int64)
	RecordEntryRejected(ctx context.Context, reason string)
	RecordUpkeep(ctx context.Context, outcome string)
	RecordFulfillment(ctx context.Context, outcome string, prizeAmount int64)
}

// WinnerAnnouncer publishes round results to participants outside the service
type WinnerAnnouncer interface {
	AnnounceWinner(ctx context.Context, announcement dto.WinnerAnnouncementDTO) error
}

// UpkeepPerformer is the automation-facing side of the raffle
type UpkeepPerformer interface {
	CheckUpkeep(ctx context.Context, checkData []byte) (bool, []byte, error)
	PerformUpkeep(ctx context.Context, performData []byte) (entities.RequestID, error)
}

// RandomnessFulfiller is the provider-facing side of the raffle
type RandomnessFulfiller interface {
	FulfillRandomWords(ctx context.Context, requestID entities.RequestID, randomWords []*big.Int) (*entities.RaffleWinner, error)
}

// FulfillmentHandler processes randomness deliveries decoded by the
// infrastructure layer
type FulfillmentHandler interface {
	HandleRandomWordsFulfilled(ctx context.Context, fulfillment dto.RandomWordsFulfilledDTO) error
}

// LocalHandlerRegistrar registers in-process handlers for published events
type LocalHandlerRegistrar interface {
	RegisterLocalHandler(eventType events.EventType, handler func(context.Context, events.Event) error)
}

// NoopMetrics discards all measurements
type NoopMetrics struct{}

func (NoopMetrics) RecordEntry(context.Context, int64)               {}
func (NoopMetrics) RecordEntryRejected(context.Context, string)      {}
func (NoopMetrics) RecordUpkeep(context.Context, string)             {}
func (NoopMetrics) RecordFulfillment(context.Context, string, int64) {}
