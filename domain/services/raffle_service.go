package services

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"raffler/domain/entities"
	"raffler/domain/events"
	"raffler/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// Clock returns the current time
type Clock func() time.Time

// raffleService implements the raffle state machine. Every method is meant to
// run inside a single unit of work; any returned error must roll the whole
// operation back.
type raffleService struct {
	config             entities.RaffleConfig
	raffleRepo         interfaces.RaffleRepository
	entrantRepo        interfaces.EntrantRepository
	winnerRepo         interfaces.WinnerRepository
	accountRepo        interfaces.AccountRepository
	randomnessProvider interfaces.RandomnessProvider
	eventPublisher     interfaces.EventPublisher
	now                Clock
}

// NewRaffleService creates a new raffle service. A nil clock uses the wall clock.
func NewRaffleService(
	config entities.RaffleConfig,
	raffleRepo interfaces.RaffleRepository,
	entrantRepo interfaces.EntrantRepository,
	winnerRepo interfaces.WinnerRepository,
	accountRepo interfaces.AccountRepository,
	randomnessProvider interfaces.RandomnessProvider,
	eventPublisher interfaces.EventPublisher,
	clock Clock,
) interfaces.RaffleService {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &raffleService{
		config:             config,
		raffleRepo:         raffleRepo,
		entrantRepo:        entrantRepo,
		winnerRepo:         winnerRepo,
		accountRepo:        accountRepo,
		randomnessProvider: randomnessProvider,
		eventPublisher:     eventPublisher,
		now:                clock,
	}
}

// Initialize creates the raffle record on first start. The round clock starts now.
func (s *raffleService) Initialize(ctx context.Context) (*entities.Raffle, error) {
	raffle, err := s.raffleRepo.Initialize(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize raffle: %w", err)
	}
	return raffle, nil
}

// Enter records a paid entry for identity
func (s *raffleService) Enter(ctx context.Context, identity string, amountPaid int64) (*entities.Entrant, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, ErrInvalidIdentity
	}
	// The pot cannot enter itself: a winning pot would pay itself and keep the prize.
	if identity == s.config.HoldingAccount() {
		return nil, fmt.Errorf("%w: %s is the holding account", ErrInvalidIdentity, identity)
	}

	// Strictly greater than: paying exactly the fee is rejected.
	if amountPaid <= s.config.EntranceFee() {
		return nil, &SendMoreToEnterRaffleError{Sent: amountPaid, Required: s.config.EntranceFee()}
	}

	raffle, err := s.loadRaffle(ctx, true)
	if err != nil {
		return nil, err
	}
	if !raffle.IsOpen() {
		return nil, ErrRaffleNotOpen
	}

	balance, err := s.accountRepo.GetBalance(ctx, s.config.HoldingAccount())
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle balance: %w", err)
	}
	if !entities.CanCredit(balance, amountPaid) {
		return nil, &PotCapacityExceededError{Balance: balance, AmountPaid: amountPaid}
	}

	entrant := &entities.Entrant{
		RoundNumber: raffle.RoundNumber,
		Identity:    identity,
		AmountPaid:  amountPaid,
		EnteredAt:   s.now(),
	}
	if err := s.entrantRepo.Append(ctx, entrant); err != nil {
		return nil, fmt.Errorf("failed to record entrant: %w", err)
	}

	if err := s.accountRepo.Deposit(ctx, s.config.HoldingAccount(), amountPaid); err != nil {
		return nil, fmt.Errorf("failed to deposit entry payment: %w", err)
	}

	if err := s.eventPublisher.Publish(events.EntryRecordedEvent{
		Identity:    identity,
		AmountPaid:  amountPaid,
		RoundNumber: raffle.RoundNumber,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish entry event: %w", err)
	}

	return entrant, nil
}

// CheckUpkeep reports whether a draw should be triggered. checkData is
// accepted for interface compatibility and ignored.
func (s *raffleService) CheckUpkeep(ctx context.Context, checkData []byte) (bool, []byte, error) {
	status, err := s.GetUpkeepStatus(ctx)
	if err != nil {
		return false, nil, err
	}
	return status.Needed, []byte{}, nil
}

// GetUpkeepStatus evaluates the upkeep predicate without locking or writing anything
func (s *raffleService) GetUpkeepStatus(ctx context.Context) (*entities.UpkeepStatus, error) {
	raffle, err := s.loadRaffle(ctx, false)
	if err != nil {
		return nil, err
	}
	return s.evaluateUpkeep(ctx, raffle)
}

// PerformUpkeep re-checks the upkeep predicate, switches to calculating and
// issues exactly one randomness request
func (s *raffleService) PerformUpkeep(ctx context.Context, performData []byte) (entities.RequestID, error) {
	raffle, err := s.loadRaffle(ctx, true)
	if err != nil {
		return "", err
	}

	status, err := s.evaluateUpkeep(ctx, raffle)
	if err != nil {
		return "", err
	}
	if !status.Needed {
		return "", &UpkeepNotNeededError{
			Balance:      status.Balance,
			EntrantCount: status.EntrantCount,
			State:        status.State,
		}
	}

	// State goes to calculating before the provider is contacted.
	raffle.StartCalculating()
	if err := s.raffleRepo.Update(ctx, raffle); err != nil {
		return "", fmt.Errorf("failed to mark raffle calculating: %w", err)
	}

	requestID, err := s.randomnessProvider.RequestRandomWords(ctx, s.config.RandomnessRequest())
	if err != nil {
		return "", fmt.Errorf("failed to request random words: %w", err)
	}

	raffle.TrackRequest(requestID)
	if err := s.raffleRepo.Update(ctx, raffle); err != nil {
		return "", fmt.Errorf("failed to record randomness request: %w", err)
	}

	if err := s.eventPublisher.Publish(events.RequestSubmittedEvent{
		RequestID:   requestID,
		RoundNumber: raffle.RoundNumber,
	}); err != nil {
		return "", fmt.Errorf("failed to publish request event: %w", err)
	}

	log.WithFields(log.Fields{
		"requestID":    requestID,
		"round":        raffle.RoundNumber,
		"entrantCount": status.EntrantCount,
		"balance":      status.Balance,
	}).Info("Requested random words for raffle draw")

	return requestID, nil
}

// FulfillRandomWords completes the outstanding round: it selects the winner,
// resets the ledger and reopens the raffle, then pays out the whole balance.
// A failed payout returns TransferFailedError and the caller must roll back.
func (s *raffleService) FulfillRandomWords(ctx context.Context, requestID entities.RequestID, randomWords []*big.Int) (*entities.RaffleWinner, error) {
	if len(randomWords) == 0 || randomWords[0] == nil {
		return nil, ErrNoRandomWords
	}

	raffle, err := s.loadRaffle(ctx, true)
	if err != nil {
		return nil, err
	}
	if !raffle.IsPendingRequest(requestID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRequest, requestID)
	}

	entrantCount, err := s.entrantRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count entrants: %w", err)
	}
	// Entries are blocked while calculating, so this only trips on corrupted state.
	if entrantCount == 0 {
		return nil, ErrNoEntrants
	}

	randomWord := randomWords[0]
	winnerIndex := entities.SelectWinnerIndex(randomWord, entrantCount)
	winner, err := s.entrantRepo.GetByIndex(ctx, winnerIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to get winning entrant: %w", err)
	}
	if winner == nil {
		return nil, fmt.Errorf("winning entrant %d not found", winnerIndex)
	}

	prize, err := s.accountRepo.GetBalance(ctx, s.config.HoldingAccount())
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle balance: %w", err)
	}

	// Effects.
	drawnAt := s.now()
	completedRound := raffle.RoundNumber
	raffle.CompleteRound(winner.Identity, drawnAt)
	if err := s.raffleRepo.Update(ctx, raffle); err != nil {
		return nil, fmt.Errorf("failed to reset raffle: %w", err)
	}
	if err := s.entrantRepo.Clear(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear entrants: %w", err)
	}

	record := &entities.RaffleWinner{
		RoundNumber:  completedRound,
		Identity:     winner.Identity,
		RequestID:    requestID,
		RandomWord:   randomWord.String(),
		WinnerIndex:  winnerIndex,
		EntrantCount: entrantCount,
		PrizeAmount:  prize,
		DrawnAt:      drawnAt,
	}
	if err := s.winnerRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record winner: %w", err)
	}

	if err := s.eventPublisher.Publish(events.WinnerPickedEvent{
		Winner:      winner.Identity,
		RequestID:   requestID,
		PrizeAmount: prize,
		RoundNumber: completedRound,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish winner event: %w", err)
	}

	// Interaction.
	if err := s.accountRepo.Transfer(ctx, s.config.HoldingAccount(), winner.Identity, prize); err != nil {
		return nil, &TransferFailedError{Winner: winner.Identity, Amount: prize, Cause: err}
	}

	return record, nil
}

// GetEntranceFee returns the configured entrance fee
func (s *raffleService) GetEntranceFee() int64 {
	return s.config.EntranceFee()
}

// GetInterval returns the configured round interval
func (s *raffleService) GetInterval() time.Duration {
	return s.config.Interval()
}

// GetRaffleState returns the current raffle state
func (s *raffleService) GetRaffleState(ctx context.Context) (entities.RaffleState, error) {
	raffle, err := s.loadRaffle(ctx, false)
	if err != nil {
		return "", err
	}
	return raffle.State, nil
}

// GetEntrant returns the entrant at index, or nil if out of range
func (s *raffleService) GetEntrant(ctx context.Context, index int64) (*entities.Entrant, error) {
	if index < 0 {
		return nil, nil
	}
	entrant, err := s.entrantRepo.GetByIndex(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("failed to get entrant %d: %w", index, err)
	}
	return entrant, nil
}

// GetAllEntrants returns the current round's entrants in entry order
func (s *raffleService) GetAllEntrants(ctx context.Context) ([]*entities.Entrant, error) {
	entrants, err := s.entrantRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get entrants: %w", err)
	}
	return entrants, nil
}

// GetNumberOfEntrants returns the number of entrant slots
func (s *raffleService) GetNumberOfEntrants(ctx context.Context) (int64, error) {
	count, err := s.entrantRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count entrants: %w", err)
	}
	return count, nil
}

// GetRecentWinner returns the last winner, or an empty string before the first draw
func (s *raffleService) GetRecentWinner(ctx context.Context) (string, error) {
	raffle, err := s.loadRaffle(ctx, false)
	if err != nil {
		return "", err
	}
	return raffle.GetRecentWinner(), nil
}

// GetLastDrawTimestamp returns the start of the current round
func (s *raffleService) GetLastDrawTimestamp(ctx context.Context) (time.Time, error) {
	raffle, err := s.loadRaffle(ctx, false)
	if err != nil {
		return time.Time{}, err
	}
	return raffle.LastDrawAt, nil
}

// GetBalance returns the balance currently held by the raffle
func (s *raffleService) GetBalance(ctx context.Context) (int64, error) {
	balance, err := s.accountRepo.GetBalance(ctx, s.config.HoldingAccount())
	if err != nil {
		return 0, fmt.Errorf("failed to get raffle balance: %w", err)
	}
	return balance, nil
}

// GetRecentWinners returns past winners, newest first
func (s *raffleService) GetRecentWinners(ctx context.Context, limit int) ([]*entities.RaffleWinner, error) {
	winners, err := s.winnerRepo.GetRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent winners: %w", err)
	}
	return winners, nil
}

func (s *raffleService) loadRaffle(ctx context.Context, forUpdate bool) (*entities.Raffle, error) {
	var (
		raffle *entities.Raffle
		err    error
	)
	if forUpdate {
		raffle, err = s.raffleRepo.GetForUpdate(ctx)
	} else {
		raffle, err = s.raffleRepo.Get(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle: %w", err)
	}
	if raffle == nil {
		return nil, ErrRaffleNotInitialized
	}
	return raffle, nil
}

func (s *raffleService) evaluateUpkeep(ctx context.Context, raffle *entities.Raffle) (*entities.UpkeepStatus, error) {
	balance, err := s.accountRepo.GetBalance(ctx, s.config.HoldingAccount())
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle balance: %w", err)
	}
	entrantCount, err := s.entrantRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count entrants: %w", err)
	}

	status := entities.EvaluateUpkeep(raffle, s.config.Interval(), s.now(), balance, entrantCount)
	return &status, nil
}
