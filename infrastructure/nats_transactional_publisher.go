package infrastructure

import (
	"context"

	"raffler/domain/events"
	"raffler/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// NATSTransactionalPublisher buffers the events raised inside one unit of
// work. Nothing reaches the bus until Flush; Discard forgets the buffer.
type NATSTransactionalPublisher struct {
	next    interfaces.EventPublisher
	pending []events.Event
}

func NewNATSTransactionalPublisher(next interfaces.EventPublisher) *NATSTransactionalPublisher {
	return &NATSTransactionalPublisher{next: next}
}

// Publish only buffers; it never fails
func (p *NATSTransactionalPublisher) Publish(event events.Event) error {
	p.pending = append(p.pending, event)
	log.WithFields(log.Fields{
		"event_type": event.Type(),
		"buffered":   len(p.pending),
	}).Debug("Event buffered until commit")
	return nil
}

// Flush hands the buffered events to the underlying publisher in the order
// they were raised. The transaction has already committed by the time Flush
// runs, so a publish failure is logged and the remaining events still go out.
func (p *NATSTransactionalPublisher) Flush(_ context.Context) error {
	batch := p.pending
	p.pending = nil

	failed := 0
	for _, event := range batch {
		if err := p.next.Publish(event); err != nil {
			failed++
			log.WithError(err).WithField("event_type", event.Type()).Error("Committed event could not be published")
		}
	}

	log.WithFields(log.Fields{
		"published": len(batch) - failed,
		"failed":    failed,
	}).Debug("Committed events flushed")
	return nil
}

// Discard drops the buffer after a rollback
func (p *NATSTransactionalPublisher) Discard() {
	if n := len(p.pending); n > 0 {
		log.WithField("discarded", n).Debug("Rolled back events discarded")
	}
	p.pending = nil
}

func (p *NATSTransactionalPublisher) PendingCount() int {
	return len(p.pending)
}
