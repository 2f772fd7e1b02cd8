package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"raffler/domain/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const domainEventStream = "raffle_events"

// EventEnvelope wraps every event published to NATS
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// messagePublisher is the subset of NATSClient used for publishing
type messagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// publishRecorder counts events that reached NATS
type publishRecorder interface {
	RecordNATSMessagePublished(eventType string)
}

// NATSEventPublisher publishes domain events to NATS and runs local handlers
type NATSEventPublisher struct {
	client        messagePublisher
	subjectMapper *EventSubjectMapper
	recorder      publishRecorder
	mu            sync.RWMutex
	localHandlers map[events.EventType][]func(context.Context, events.Event) error
}

// NewNATSEventPublisher creates a new NATS event publisher
func NewNATSEventPublisher(client messagePublisher, subjectMapper *EventSubjectMapper) *NATSEventPublisher {
	return &NATSEventPublisher{
		client:        client,
		subjectMapper: subjectMapper,
		localHandlers: make(map[events.EventType][]func(context.Context, events.Event) error),
	}
}

// SetPublishRecorder installs a recorder notified after each successful publish
func (p *NATSEventPublisher) SetPublishRecorder(recorder publishRecorder) {
	p.recorder = recorder
}

// Publish gives the event to in-process subscribers first and then stores
// it on the domain event stream. A failing local handler is logged only.
func (p *NATSEventPublisher) Publish(event events.Event) error {
	ctx := context.Background()

	p.notifyLocal(ctx, event)

	envelope, data, err := encodeEnvelope(event)
	if err != nil {
		return err
	}

	subject := p.subjectMapper.MapEventToSubject(event)
	if err := p.client.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type(), err)
	}
	if p.recorder != nil {
		p.recorder.RecordNATSMessagePublished(envelope.EventType)
	}

	log.WithFields(log.Fields{
		"event_type": envelope.EventType,
		"event_id":   envelope.EventID,
		"subject":    subject,
	}).Debug("Domain event published")
	return nil
}

func (p *NATSEventPublisher) notifyLocal(ctx context.Context, event events.Event) {
	p.mu.RLock()
	handlers := slices.Clone(p.localHandlers[event.Type()])
	p.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			log.WithError(err).WithField("event_type", event.Type()).Error("Local event handler failed")
		}
	}
}

func encodeEnvelope(event events.Event) (EventEnvelope, []byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return EventEnvelope{}, nil, fmt.Errorf("failed to encode %s payload: %w", event.Type(), err)
	}

	envelope := EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: clientName,
		Payload:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return EventEnvelope{}, nil, fmt.Errorf("failed to encode %s envelope: %w", event.Type(), err)
	}
	return envelope, data, nil
}

// RegisterLocalHandler registers a handler invoked in-process for eventType
func (p *NATSEventPublisher) RegisterLocalHandler(eventType events.EventType, handler func(context.Context, events.Event) error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.localHandlers[eventType] = append(p.localHandlers[eventType], handler)
	log.WithField("event_type", eventType).Info("Local event handler registered")
}

// EnsureDomainEventStream creates the stream holding published domain events
func (p *NATSEventPublisher) EnsureDomainEventStream(client *NATSClient) error {
	return client.EnsureStream(domainEventStream, "Raffle domain events", p.subjectMapper.GetAllSubjects())
}
