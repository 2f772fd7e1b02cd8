package services

import (
	"testing"
	"time"

	"raffler/domain/entities"
	"raffler/domain/testhelpers"

	"github.com/stretchr/testify/require"
)

// Test constants for consistent test data
const (
	TestEntranceFee    = int64(10_000)
	TestInterval       = 30 * time.Second
	TestHoldingAccount = "raffle-pot"
	TestKeyHash        = "0x474e34a077df58807dbe9c96d3c009b23b3c6d0cce433e59bbf5b34f823bc56c"
	TestSubscriptionID = "42"
	TestGasLimit       = uint32(500_000)
	TestRequestID      = entities.RequestID("req-1")
)

// testNow is the fixed clock used by service tests
var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// TestMocks aggregates all mocks used by the raffle service
type TestMocks struct {
	RaffleRepo     *testhelpers.MockRaffleRepository
	EntrantRepo    *testhelpers.MockEntrantRepository
	WinnerRepo     *testhelpers.MockWinnerRepository
	AccountRepo    *testhelpers.MockAccountRepository
	Provider       *testhelpers.MockRandomnessProvider
	EventPublisher *testhelpers.MockEventPublisher
}

// NewTestMocks creates a new set of mocks
func NewTestMocks() *TestMocks {
	return &TestMocks{
		RaffleRepo:     new(testhelpers.MockRaffleRepository),
		EntrantRepo:    new(testhelpers.MockEntrantRepository),
		WinnerRepo:     new(testhelpers.MockWinnerRepository),
		AccountRepo:    new(testhelpers.MockAccountRepository),
		Provider:       new(testhelpers.MockRandomnessProvider),
		EventPublisher: new(testhelpers.MockEventPublisher),
	}
}

// AssertAllExpectations verifies all mock expectations were met
func (m *TestMocks) AssertAllExpectations(t *testing.T) {
	m.RaffleRepo.AssertExpectations(t)
	m.EntrantRepo.AssertExpectations(t)
	m.WinnerRepo.AssertExpectations(t)
	m.AccountRepo.AssertExpectations(t)
	m.Provider.AssertExpectations(t)
	m.EventPublisher.AssertExpectations(t)
}

// NewTestRaffleConfig returns the config shared by service tests
func NewTestRaffleConfig(t *testing.T) entities.RaffleConfig {
	cfg, err := entities.NewRaffleConfig(entities.RaffleConfigParams{
		EntranceFee:      TestEntranceFee,
		Interval:         TestInterval,
		HoldingAccount:   TestHoldingAccount,
		Coordinator:      "vrf-coordinator",
		KeyHash:          TestKeyHash,
		SubscriptionID:   TestSubscriptionID,
		CallbackGasLimit: TestGasLimit,
	})
	require.NoError(t, err)
	return cfg
}

// newTestService wires a raffle service onto the mocks with a fixed clock
func newTestService(t *testing.T, mocks *TestMocks) *raffleService {
	svc := NewRaffleService(
		NewTestRaffleConfig(t),
		mocks.RaffleRepo,
		mocks.EntrantRepo,
		mocks.WinnerRepo,
		mocks.AccountRepo,
		mocks.Provider,
		mocks.EventPublisher,
		func() time.Time { return testNow },
	)
	return svc.(*raffleService)
}

// createTestRaffle creates a raffle record with common defaults
func createTestRaffle(opts ...func(*entities.Raffle)) *entities.Raffle {
	raffle := &entities.Raffle{
		ID:          1,
		State:       entities.RaffleStateOpen,
		RoundNumber: 0,
		LastDrawAt:  testNow.Add(-TestInterval),
	}
	for _, opt := range opts {
		opt(raffle)
	}
	return raffle
}

func withCalculating(requestID entities.RequestID) func(*entities.Raffle) {
	return func(r *entities.Raffle) {
		r.State = entities.RaffleStateCalculating
		r.PendingRequestID = &requestID
	}
}

func withLastDrawAt(at time.Time) func(*entities.Raffle) {
	return func(r *entities.Raffle) {
		r.LastDrawAt = at
	}
}
