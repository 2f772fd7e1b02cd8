package application

import (
	"context"
	"fmt"

	"raffler/application/dto"
	"raffler/domain/events"

	log "github.com/sirupsen/logrus"
)

// WinnerAnnouncementHandler forwards committed WinnerPicked events to an announcer
type WinnerAnnouncementHandler struct {
	announcer WinnerAnnouncer
}

// NewWinnerAnnouncementHandler creates a new WinnerAnnouncementHandler
func NewWinnerAnnouncementHandler(announcer WinnerAnnouncer) *WinnerAnnouncementHandler {
	return &WinnerAnnouncementHandler{announcer: announcer}
}

// HandleWinnerPicked announces a completed round
func (h *WinnerAnnouncementHandler) HandleWinnerPicked(ctx context.Context, event events.Event) error {
	e, ok := event.(events.WinnerPickedEvent)
	if !ok {
		return fmt.Errorf("event type assertion failed: expected WinnerPickedEvent, got %T", event)
	}

	log.WithFields(log.Fields{
		"winner": e.Winner,
		"round":  e.RoundNumber,
	}).Info("Announcing raffle winner")

	return h.announcer.AnnounceWinner(ctx, dto.WinnerAnnouncementDTO{
		Winner:      e.Winner,
		PrizeAmount: e.PrizeAmount,
		RoundNumber: e.RoundNumber,
		RequestID:   string(e.RequestID),
	})
}

// RegisterApplicationSubscriptions registers in-process handlers for raffle events
func RegisterApplicationSubscriptions(registrar LocalHandlerRegistrar, announcer WinnerAnnouncer) {
	handler := NewWinnerAnnouncementHandler(announcer)
	registrar.RegisterLocalHandler(events.EventTypeWinnerPicked, handler.HandleWinnerPicked)
}
