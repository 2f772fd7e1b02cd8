package infrastructure

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"raffler/application"

	log "github.com/sirupsen/logrus"
)

// MessageHandler processes one JetStream payload. A non-nil error asks for
// redelivery.
type MessageHandler func(ctx context.Context, data []byte) error

// MessageConsumer owns the inbound side of the bus: it keeps a subject to
// handler table and attaches one durable consumer per subject.
type MessageConsumer struct {
	client *NATSClient

	mu     sync.RWMutex
	routes map[string]MessageHandler

	ctx  context.Context
	stop context.CancelFunc
}

// NewMessageConsumer routes randomness fulfillments to fulfillmentHandler
func NewMessageConsumer(client *NATSClient, fulfillmentHandler application.FulfillmentHandler) *MessageConsumer {
	ctx, stop := context.WithCancel(context.Background())
	consumer := &MessageConsumer{
		client: client,
		routes: map[string]MessageHandler{},
		ctx:    ctx,
		stop:   stop,
	}

	consumer.RegisterHandler(SubjectRandomnessFulfillments, NewRandomnessListener(fulfillmentHandler).HandleFulfillment)
	return consumer
}

func (mc *MessageConsumer) RegisterHandler(subject string, handler MessageHandler) {
	mc.mu.Lock()
	mc.routes[subject] = handler
	mc.mu.Unlock()

	log.WithField("subject", subject).Debug("Route registered")
}

// Start makes sure the fulfillment stream exists, attaches a consumer for
// every route and then blocks until Stop. The client must be connected.
func (mc *MessageConsumer) Start() error {
	if err := mc.client.EnsureStream(randomnessStream, "Randomness provider fulfillments", []string{SubjectRandomnessFulfillments}); err != nil {
		return fmt.Errorf("failed to ensure randomness stream: %w", err)
	}

	mc.mu.RLock()
	subjects := slices.Sorted(maps.Keys(mc.routes))
	mc.mu.RUnlock()

	for _, subject := range subjects {
		err := mc.client.Subscribe(subject, func(data []byte) error {
			return mc.dispatch(mc.ctx, subject, data)
		})
		if err != nil {
			return err
		}
	}
	log.WithField("subjects", subjects).Info("Message consumer running")

	<-mc.ctx.Done()
	log.Info("Message consumer stopped")
	return nil
}

// Stop unblocks Start. In-flight handlers see a cancelled context.
func (mc *MessageConsumer) Stop() {
	mc.stop()
}

func (mc *MessageConsumer) dispatch(ctx context.Context, subject string, data []byte) error {
	mc.mu.RLock()
	handler, ok := mc.routes[subject]
	mc.mu.RUnlock()

	if !ok {
		return fmt.Errorf("no route for subject %s", subject)
	}
	return handler(ctx, data)
}
