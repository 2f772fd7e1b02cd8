package infrastructure

import (
	"fmt"

	"raffler/domain/events"
)

// Subjects for raffle domain events
const (
	SubjectEntryRecorded    = "raffle.entries.recorded"
	SubjectRequestSubmitted = "raffle.randomness.submitted"
	SubjectWinnerPicked     = "raffle.winners.picked"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeEntryRecorded:
		return SubjectEntryRecorded
	case events.EventTypeRequestSubmitted:
		return SubjectRequestSubmitted
	case events.EventTypeWinnerPicked:
		return SubjectWinnerPicked
	default:
		return fmt.Sprintf("raffle.unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case SubjectEntryRecorded:
		return events.EventTypeEntryRecorded
	case SubjectRequestSubmitted:
		return events.EventTypeRequestSubmitted
	case SubjectWinnerPicked:
		return events.EventTypeWinnerPicked
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects this service publishes domain events to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		SubjectEntryRecorded,
		SubjectRequestSubmitted,
		SubjectWinnerPicked,
	}
}
