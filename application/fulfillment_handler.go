package application

import (
	"context"
	"errors"

	"raffler/application/dto"
	"raffler/domain/entities"
	"raffler/domain/services"

	log "github.com/sirupsen/logrus"
)

type fulfillmentHandler struct {
	fulfiller RandomnessFulfiller
}

// NewFulfillmentHandler creates a handler for randomness deliveries
func NewFulfillmentHandler(fulfiller RandomnessFulfiller) FulfillmentHandler {
	return &fulfillmentHandler{fulfiller: fulfiller}
}

// HandleRandomWordsFulfilled runs the fulfillment callback once. Rejections
// by the raffle are final and return nil so the delivery is not retried;
// only infrastructure failures are returned.
func (h *fulfillmentHandler) HandleRandomWordsFulfilled(ctx context.Context, fulfillment dto.RandomWordsFulfilledDTO) error {
	fields := log.Fields{
		"requestID": fulfillment.RequestID,
		"wordCount": len(fulfillment.RandomWords),
	}

	_, err := h.fulfiller.FulfillRandomWords(ctx, entities.RequestID(fulfillment.RequestID), fulfillment.RandomWords)
	if err == nil {
		return nil
	}

	var transferErr *services.TransferFailedError
	switch {
	case errors.As(err, &transferErr):
		fields["winner"] = transferErr.Winner
		fields["amount"] = transferErr.Amount
		log.WithFields(fields).WithError(err).Error("Winner payout failed, fulfillment reverted; raffle remains calculating")
		return nil
	case errors.Is(err, services.ErrUnknownRequest),
		errors.Is(err, services.ErrNoRandomWords),
		errors.Is(err, services.ErrNoEntrants),
		errors.Is(err, services.ErrRaffleNotInitialized):
		log.WithFields(fields).WithError(err).Warn("Fulfillment rejected")
		return nil
	default:
		return err
	}
}
