package testhelpers

import (
	"context"
	"time"

	"raffler/domain/entities"
	"raffler/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockRaffleRepository is a mock implementation of RaffleRepository
type MockRaffleRepository struct {
	mock.Mock
}

func (m *MockRaffleRepository) Initialize(ctx context.Context, lastDrawAt time.Time) (*entities.Raffle, error) {
	args := m.Called(ctx, lastDrawAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Raffle), args.Error(1)
}

func (m *MockRaffleRepository) Get(ctx context.Context) (*entities.Raffle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Raffle), args.Error(1)
}

func (m *MockRaffleRepository) GetForUpdate(ctx context.Context) (*entities.Raffle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Raffle), args.Error(1)
}

func (m *MockRaffleRepository) Update(ctx context.Context, raffle *entities.Raffle) error {
	args := m.Called(ctx, raffle)
	return args.Error(0)
}

// MockEntrantRepository is a mock implementation of EntrantRepository
type MockEntrantRepository struct {
	mock.Mock
}

func (m *MockEntrantRepository) Append(ctx context.Context, entrant *entities.Entrant) error {
	args := m.Called(ctx, entrant)
	return args.Error(0)
}

func (m *MockEntrantRepository) GetByIndex(ctx context.Context, index int64) (*entities.Entrant, error) {
	args := m.Called(ctx, index)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Entrant), args.Error(1)
}

func (m *MockEntrantRepository) GetAll(ctx context.Context) ([]*entities.Entrant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Entrant), args.Error(1)
}

func (m *MockEntrantRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEntrantRepository) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockWinnerRepository is a mock implementation of WinnerRepository
type MockWinnerRepository struct {
	mock.Mock
}

func (m *MockWinnerRepository) Create(ctx context.Context, winner *entities.RaffleWinner) error {
	args := m.Called(ctx, winner)
	return args.Error(0)
}

func (m *MockWinnerRepository) GetRecent(ctx context.Context, limit int) ([]*entities.RaffleWinner, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.RaffleWinner), args.Error(1)
}

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Get(ctx context.Context, identity string) (*entities.Account, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) GetBalance(ctx context.Context, identity string) (int64, error) {
	args := m.Called(ctx, identity)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) Deposit(ctx context.Context, identity string, amount int64) error {
	args := m.Called(ctx, identity, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) Transfer(ctx context.Context, from, to string, amount int64) error {
	args := m.Called(ctx, from, to, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) SetAcceptsPayouts(ctx context.Context, identity string, accepts bool) error {
	args := m.Called(ctx, identity, accepts)
	return args.Error(0)
}

// MockRandomnessProvider is a mock implementation of RandomnessProvider
type MockRandomnessProvider struct {
	mock.Mock
}

func (m *MockRandomnessProvider) RequestRandomWords(ctx context.Context, request entities.RandomnessRequest) (entities.RequestID, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(entities.RequestID), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
