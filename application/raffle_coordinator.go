package application

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"raffler/application/dto"
	"raffler/domain/entities"
	"raffler/domain/interfaces"
	"raffler/domain/services"

	log "github.com/sirupsen/logrus"
)

// Upkeep and fulfillment outcomes reported to metrics
const (
	UpkeepPerformed  = "performed"
	UpkeepNotNeeded  = "not_needed"
	UpkeepFailed     = "failed"
	FulfillmentPaid  = "winner_paid"
	FulfillmentError = "error"
)

// RaffleCoordinator runs every raffle operation in its own unit of work.
// An operation either commits all of its effects and events or none of them.
type RaffleCoordinator struct {
	uowFactory UnitOfWorkFactory
	config     entities.RaffleConfig
	provider   interfaces.RandomnessProvider
	metrics    MetricsRecorder
	clock      services.Clock
}

// NewRaffleCoordinator creates a coordinator. A nil metrics recorder discards
// measurements and a nil clock uses the wall clock.
func NewRaffleCoordinator(
	uowFactory UnitOfWorkFactory,
	config entities.RaffleConfig,
	provider interfaces.RandomnessProvider,
	metrics MetricsRecorder,
	clock services.Clock,
) *RaffleCoordinator {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &RaffleCoordinator{
		uowFactory: uowFactory,
		config:     config,
		provider:   provider,
		metrics:    metrics,
		clock:      clock,
	}
}

// Config returns the immutable raffle configuration
func (c *RaffleCoordinator) Config() entities.RaffleConfig {
	return c.config
}

func (c *RaffleCoordinator) withService(ctx context.Context, fn func(interfaces.RaffleService) error) error {
	uow := c.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	svc := services.NewRaffleService(
		c.config,
		uow.RaffleRepository(),
		uow.EntrantRepository(),
		uow.WinnerRepository(),
		uow.AccountRepository(),
		c.provider,
		uow.EventBus(),
		c.clock,
	)

	if err := fn(svc); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Initialize creates the raffle record on first start
func (c *RaffleCoordinator) Initialize(ctx context.Context) (*entities.Raffle, error) {
	var raffle *entities.Raffle
	err := c.withService(ctx, func(svc interfaces.RaffleService) error {
		var err error
		raffle, err = svc.Initialize(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"state":      raffle.State,
		"round":      raffle.RoundNumber,
		"lastDrawAt": raffle.LastDrawAt,
	}).Info("Raffle initialized")
	return raffle, nil
}

// Enter records a paid entry
func (c *RaffleCoordinator) Enter(ctx context.Context, identity string, amountPaid int64) (*entities.Entrant, error) {
	var entrant *entities.Entrant
	err := c.withService(ctx, func(svc interfaces.RaffleService) error {
		var err error
		entrant, err = svc.Enter(ctx, identity, amountPaid)
		return err
	})
	if err != nil {
		c.metrics.RecordEntryRejected(ctx, entryRejectionReason(err))
		return nil, err
	}

	c.metrics.RecordEntry(ctx, amountPaid)
	log.WithFields(log.Fields{
		"identity":   entrant.Identity,
		"amountPaid": amountPaid,
	}).Info("Raffle entry recorded")
	return entrant, nil
}

// CheckUpkeep reports whether a draw should be triggered
func (c *RaffleCoordinator) CheckUpkeep(ctx context.Context, checkData []byte) (bool, []byte, error) {
	var (
		needed      bool
		performData []byte
	)
	err := c.withService(ctx, func(svc interfaces.RaffleService) error {
		var err error
		needed, performData, err = svc.CheckUpkeep(ctx, checkData)
		return err
	})
	if err != nil {
		return false, nil, err
	}
	return needed, performData, nil
}

// GetUpkeepStatus returns every condition behind CheckUpkeep
func (c *RaffleCoordinator) GetUpkeepStatus(ctx context.Context) (*entities.UpkeepStatus, error) {
	var status *entities.UpkeepStatus
	err := c.withService(ctx, func(svc interfaces.RaffleService) error {
		var err error
		status, err = svc.GetUpkeepStatus(ctx)
		return err
	})
	return status, err
}

// PerformUpkeep starts a draw. A provider failure rolls the raffle back to open.
func (c *RaffleCoordinator) PerformUpkeep(ctx context.Context, performData []byte) (entities.RequestID, error) {
	var requestID entities.RequestID
	err := c.withService(ctx, func(svc interfaces.RaffleService) error {
		var err error
		requestID, err = svc.PerformUpkeep(ctx, performData)
		return err
	})
	switch {
	case errors.Is(err, services.ErrUpkeepNotNeeded):
		c.metrics.RecordUpkeep(ctx, UpkeepNotNeeded)
		return "", err
	case err != nil:
		c.metrics.RecordUpkeep(ctx, UpkeepFailed)
		return "", err
	}

	c.metrics.RecordUpkeep(ctx, UpkeepPerformed)
	return requestID, nil
}

// FulfillRandomWords completes the outstanding round. On any error, including
// a failed payout, nothing is committed and the raffle stays calculating.
func (c *RaffleCoordinator) FulfillRandomWords(ctx context.Context, requestID entities.RequestID, randomWords []*big.Int) (*entities.RaffleWinner, error) {
	var winner *entities.RaffleWinner
	err := c.withService(ctx, func(svc interfaces.RaffleService) error {
		var err error
		winner, err = svc.FulfillRandomWords(ctx, requestID, randomWords)
		return err
	})
	if err != nil {
		var transferErr *services.TransferFailedError
		prize := int64(0)
		if errors.As(err, &transferErr) {
			prize = transferErr.Amount
		}
		c.metrics.RecordFulfillment(ctx, fulfillmentOutcome(err), prize)
		return nil, err
	}

	c.metrics.RecordFulfillment(ctx, FulfillmentPaid, winner.PrizeAmount)
	log.WithFields(log.Fields{
		"requestID": requestID,
		"round":     winner.RoundNumber,
		"winner":    winner.Identity,
		"prize":     winner.PrizeAmount,
		"entrants":  winner.EntrantCount,
	}).Info("Raffle winner picked and paid")
	return winner, nil
}

// GetSnapshot reads the raffle state and aggregates in one transaction
func (c *RaffleCoordinator) GetSnapshot(ctx context.Context) (*dto.RaffleSnapshotDTO, error) {
	snapshot := &dto.RaffleSnapshotDTO{}
	err := c.withService(ctx, func(svc interfaces.RaffleService) error {
		snapshot.EntranceFee = svc.GetEntranceFee()
		snapshot.Interval = svc.GetInterval()

		state, err := svc.GetRaffleState(ctx)
		if err != nil {
			return err
		}
		snapshot.State = string(state)

		if snapshot.LastDrawAt, err = svc.GetLastDrawTimestamp(ctx); err != nil {
			return err
		}
		if snapshot.RecentWinner, err = svc.GetRecentWinner(ctx); err != nil {
			return err
		}
		if snapshot.Balance, err = svc.GetBalance(ctx); err != nil {
			return err
		}
		snapshot.EntrantCount, err = svc.GetNumberOfEntrants(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// GetAllEntrants returns the current round's entrants in entry order
func (c *RaffleCoordinator) GetAllEntrants(ctx context.Context) ([]*entities.Entrant, error) {
	var entrants []*entities.Entrant
	err := c.withService(ctx, func(svc interfaces.RaffleService) error {
		var err error
		entrants, err = svc.GetAllEntrants(ctx)
		return err
	})
	return entrants, err
}

// GetEntrant returns the entrant at index, or nil if out of range
func (c *RaffleCoordinator) GetEntrant(ctx context.Context, index int64) (*entities.Entrant, error) {
	var entrant *entities.Entrant
	err := c.withService(ctx, func(svc interfaces.RaffleService) error {
		var err error
		entrant, err = svc.GetEntrant(ctx, index)
		return err
	})
	return entrant, err
}

// GetRecentWinners returns past winners, newest first
func (c *RaffleCoordinator) GetRecentWinners(ctx context.Context, limit int) ([]*entities.RaffleWinner, error) {
	var winners []*entities.RaffleWinner
	err := c.withService(ctx, func(svc interfaces.RaffleService) error {
		var err error
		winners, err = svc.GetRecentWinners(ctx, limit)
		return err
	})
	return winners, err
}

func entryRejectionReason(err error) string {
	switch {
	case errors.Is(err, services.ErrSendMoreToEnterRaffle):
		return "insufficient_payment"
	case errors.Is(err, services.ErrRaffleNotOpen):
		return "raffle_not_open"
	case errors.Is(err, services.ErrInvalidIdentity):
		return "invalid_identity"
	case errors.Is(err, services.ErrPotCapacityExceeded):
		return "pot_capacity_exceeded"
	default:
		return "error"
	}
}

func fulfillmentOutcome(err error) string {
	switch {
	case errors.Is(err, services.ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, services.ErrUnknownRequest):
		return "unknown_request"
	case errors.Is(err, services.ErrNoRandomWords):
		return "no_random_words"
	case errors.Is(err, services.ErrNoEntrants):
		return "no_entrants"
	default:
		return FulfillmentError
	}
}
