package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"raffler/domain/entities"

	log "github.com/sirupsen/logrus"
)

// SubjectRandomnessRequests is where the provider listens for requests
const SubjectRandomnessRequests = "raffle.randomness.requests"

// ErrProviderRejected is returned when the provider answers with an error
var ErrProviderRejected = errors.New("randomness provider rejected request")

// requester is the subset of NATSClient used for request-reply
type requester interface {
	Request(ctx context.Context, subject string, data []byte) ([]byte, error)
}

type randomnessReply struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error,omitempty"`
}

// NATSRandomnessProvider submits randomness requests to an external provider
// over NATS request-reply. The provider later delivers the words on
// SubjectRandomnessFulfillments.
type NATSRandomnessProvider struct {
	client  requester
	timeout time.Duration
}

// NewNATSRandomnessProvider creates a provider client. A non-positive timeout
// leaves the deadline to the caller's context.
func NewNATSRandomnessProvider(client requester, timeout time.Duration) *NATSRandomnessProvider {
	return &NATSRandomnessProvider{
		client:  client,
		timeout: timeout,
	}
}

// RequestRandomWords sends request and returns the provider's handle for it
func (p *NATSRandomnessProvider) RequestRandomWords(ctx context.Context, request entities.RandomnessRequest) (entities.RequestID, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal randomness request: %w", err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	raw, err := p.client.Request(ctx, SubjectRandomnessRequests, data)
	if err != nil {
		return "", err
	}

	var reply randomnessReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", fmt.Errorf("failed to decode randomness reply: %w", err)
	}
	if reply.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrProviderRejected, reply.Error)
	}
	if reply.RequestID == "" {
		return "", fmt.Errorf("%w: empty request id", ErrProviderRejected)
	}

	log.WithFields(log.Fields{
		"requestID": reply.RequestID,
		"numWords":  request.NumWords,
	}).Debug("Randomness request accepted by provider")

	return entities.RequestID(reply.RequestID), nil
}
