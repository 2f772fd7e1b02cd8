package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"raffler/application"
	"raffler/application/dto"

	log "github.com/sirupsen/logrus"
)

// SubjectRandomnessFulfillments carries random words delivered by the provider
const SubjectRandomnessFulfillments = "raffle.randomness.fulfillments"

const randomnessStream = "raffle_randomness"

// fulfillmentMessage is the provider's delivery. Words are uint256 values
// encoded as decimal or 0x-prefixed hex strings.
type fulfillmentMessage struct {
	RequestID   string   `json:"request_id"`
	RandomWords []string `json:"random_words"`
}

// RandomnessListener decodes fulfillment messages and hands them to the
// application layer
type RandomnessListener struct {
	handler application.FulfillmentHandler
}

// NewRandomnessListener creates a new randomness listener
func NewRandomnessListener(handler application.FulfillmentHandler) *RandomnessListener {
	return &RandomnessListener{handler: handler}
}

// HandleFulfillment processes one fulfillment message. Undecodable messages
// are dropped since redelivery cannot fix them.
func (l *RandomnessListener) HandleFulfillment(ctx context.Context, data []byte) error {
	fulfillment, err := decodeFulfillment(data)
	if err != nil {
		log.WithError(err).Error("Dropping malformed randomness fulfillment")
		return nil
	}

	log.WithFields(log.Fields{
		"requestID": fulfillment.RequestID,
		"wordCount": len(fulfillment.RandomWords),
	}).Info("Received randomness fulfillment")

	return l.handler.HandleRandomWordsFulfilled(ctx, fulfillment)
}

func decodeFulfillment(data []byte) (dto.RandomWordsFulfilledDTO, error) {
	var msg fulfillmentMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return dto.RandomWordsFulfilledDTO{}, fmt.Errorf("failed to unmarshal fulfillment: %w", err)
	}
	if msg.RequestID == "" {
		return dto.RandomWordsFulfilledDTO{}, fmt.Errorf("fulfillment has no request id")
	}

	words := make([]*big.Int, 0, len(msg.RandomWords))
	for i, raw := range msg.RandomWords {
		word, ok := new(big.Int).SetString(raw, 0)
		if !ok || word.Sign() < 0 || word.BitLen() > 256 {
			return dto.RandomWordsFulfilledDTO{}, fmt.Errorf("random word %d is not a uint256: %q", i, raw)
		}
		words = append(words, word)
	}

	return dto.RandomWordsFulfilledDTO{
		RequestID:   msg.RequestID,
		RandomWords: words,
	}, nil
}
