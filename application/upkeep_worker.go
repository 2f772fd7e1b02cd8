package application

import (
	"context"
	"errors"
	"time"

	"raffler/domain/services"

	log "github.com/sirupsen/logrus"
)

// UpkeepWorker is the automation trigger: it polls the upkeep predicate and
// performs upkeep whenever it holds
type UpkeepWorker struct {
	performer    UpkeepPerformer
	pollInterval time.Duration
}

// NewUpkeepWorker creates a new upkeep worker
func NewUpkeepWorker(performer UpkeepPerformer, pollInterval time.Duration) *UpkeepWorker {
	return &UpkeepWorker{
		performer:    performer,
		pollInterval: pollInterval,
	}
}

// Start runs the worker until ctx is cancelled or the returned stop func is called
func (w *UpkeepWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.WithField("pollInterval", w.pollInterval).Info("Upkeep worker started")

		for {
			w.tick(ctx)

			select {
			case <-ctx.Done():
				log.Info("Upkeep worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Upkeep worker shutting down (stop requested)...")
				return
			case <-time.After(w.pollInterval):
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// tick runs one check/perform cycle and reports whether a request was issued
func (w *UpkeepWorker) tick(ctx context.Context) bool {
	needed, performData, err := w.performer.CheckUpkeep(ctx, []byte{})
	if err != nil {
		log.WithError(err).Error("Failed to check upkeep")
		return false
	}
	if !needed {
		log.Debug("Upkeep not needed")
		return false
	}

	requestID, err := w.performer.PerformUpkeep(ctx, performData)
	if errors.Is(err, services.ErrUpkeepNotNeeded) {
		// Conditions changed between check and perform.
		log.WithError(err).Info("Upkeep no longer needed")
		return false
	}
	if err != nil {
		log.WithError(err).Error("Failed to perform upkeep")
		return false
	}

	log.WithField("requestID", requestID).Info("Upkeep performed, awaiting randomness")
	return true
}
