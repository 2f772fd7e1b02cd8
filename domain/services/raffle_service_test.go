package services

import (
	"context"
	"errors"
	"math"
	"math/big"
	"testing"

	"raffler/domain/entities"
	"raffler/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRaffleService_Enter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		identity   string
		amountPaid int64
		setupMocks func(*TestMocks)
		wantErr    error
	}{
		{
			name:       "underpaid entry is rejected",
			identity:   "alice",
			amountPaid: TestEntranceFee - 1,
			setupMocks: func(m *TestMocks) {},
			wantErr:    ErrSendMoreToEnterRaffle,
		},
		{
			// Paying exactly the fee is rejected: the fee must be exceeded, not met.
			name:       "paying exactly the entrance fee is rejected",
			identity:   "alice",
			amountPaid: TestEntranceFee,
			setupMocks: func(m *TestMocks) {},
			wantErr:    ErrSendMoreToEnterRaffle,
		},
		{
			name:       "empty identity is rejected",
			identity:   "  ",
			amountPaid: TestEntranceFee + 1,
			setupMocks: func(m *TestMocks) {},
			wantErr:    ErrInvalidIdentity,
		},
		{
			name:       "holding account cannot enter",
			identity:   TestHoldingAccount,
			amountPaid: TestEntranceFee + 1,
			setupMocks: func(m *TestMocks) {},
			wantErr:    ErrInvalidIdentity,
		},
		{
			name:       "entry that would overflow the pot is rejected",
			identity:   "alice",
			amountPaid: math.MaxInt64,
			setupMocks: func(m *TestMocks) {
				m.RaffleRepo.On("GetForUpdate", mock.Anything).Return(createTestRaffle(), nil)
				m.AccountRepo.On("GetBalance", mock.Anything, TestHoldingAccount).Return(int64(math.MaxInt64), nil)
			},
			wantErr: ErrPotCapacityExceeded,
		},
		{
			name:       "entry while calculating is rejected",
			identity:   "alice",
			amountPaid: TestEntranceFee + 1,
			setupMocks: func(m *TestMocks) {
				m.RaffleRepo.On("GetForUpdate", mock.Anything).Return(createTestRaffle(withCalculating(TestRequestID)), nil)
			},
			wantErr: ErrRaffleNotOpen,
		},
		{
			name:       "raffle not initialized",
			identity:   "alice",
			amountPaid: TestEntranceFee + 1,
			setupMocks: func(m *TestMocks) {
				m.RaffleRepo.On("GetForUpdate", mock.Anything).Return(nil, nil)
			},
			wantErr: ErrRaffleNotInitialized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mocks := NewTestMocks()
			tt.setupMocks(mocks)
			svc := newTestService(t, mocks)

			entrant, err := svc.Enter(context.Background(), tt.identity, tt.amountPaid)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, entrant)
			mocks.EntrantRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
			mocks.AccountRepo.AssertNotCalled(t, "Deposit", mock.Anything, mock.Anything, mock.Anything)
			mocks.EventPublisher.AssertNotCalled(t, "Publish", mock.Anything)
			mocks.AssertAllExpectations(t)
		})
	}
}

func TestRaffleService_Enter_UnderpaidCarriesAmounts(t *testing.T) {
	t.Parallel()

	mocks := NewTestMocks()
	svc := newTestService(t, mocks)

	_, err := svc.Enter(context.Background(), "alice", 500)

	var sendMore *SendMoreToEnterRaffleError
	require.ErrorAs(t, err, &sendMore)
	assert.Equal(t, int64(500), sendMore.Sent)
	assert.Equal(t, TestEntranceFee, sendMore.Required)
}

func TestRaffleService_Enter_Success(t *testing.T) {
	t.Parallel()

	mocks := NewTestMocks()
	svc := newTestService(t, mocks)
	amount := TestEntranceFee + 1

	mocks.RaffleRepo.On("GetForUpdate", mock.Anything).Return(createTestRaffle(func(r *entities.Raffle) { r.RoundNumber = 4 }), nil)
	mocks.AccountRepo.On("GetBalance", mock.Anything, TestHoldingAccount).Return(int64(0), nil)
	mocks.EntrantRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *entities.Entrant) bool {
		return e.Identity == "alice" && e.AmountPaid == amount && e.RoundNumber == 4 && e.EnteredAt.Equal(testNow)
	})).Return(nil)
	mocks.AccountRepo.On("Deposit", mock.Anything, TestHoldingAccount, amount).Return(nil)
	mocks.EventPublisher.On("Publish", events.EntryRecordedEvent{Identity: "alice", AmountPaid: amount, RoundNumber: 4}).Return(nil)

	entrant, err := svc.Enter(context.Background(), "alice", amount)

	require.NoError(t, err)
	require.NotNil(t, entrant)
	assert.Equal(t, "alice", entrant.Identity)
	mocks.AssertAllExpectations(t)
}

func TestRaffleService_Enter_PotCapacityCarriesAmounts(t *testing.T) {
	t.Parallel()

	mocks := NewTestMocks()
	svc := newTestService(t, mocks)

	mocks.RaffleRepo.On("GetForUpdate", mock.Anything).Return(createTestRaffle(), nil)
	mocks.AccountRepo.On("GetBalance", mock.Anything, TestHoldingAccount).Return(int64(math.MaxInt64-TestEntranceFee), nil)

	_, err := svc.Enter(context.Background(), "alice", TestEntranceFee+1)

	var capacity *PotCapacityExceededError
	require.ErrorAs(t, err, &capacity)
	assert.Equal(t, int64(math.MaxInt64-TestEntranceFee), capacity.Balance)
	assert.Equal(t, TestEntranceFee+1, capacity.AmountPaid)
	mocks.EntrantRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestRaffleService_Enter_DepositFailure(t *testing.T) {
	t.Parallel()

	mocks := NewTestMocks()
	svc := newTestService(t, mocks)

	mocks.RaffleRepo.On("GetForUpdate", mock.Anything).Return(createTestRaffle(), nil)
	mocks.AccountRepo.On("GetBalance", mock.Anything, TestHoldingAccount).Return(int64(0), nil)
	mocks.EntrantRepo.On("Append", mock.Anything, mock.Anything).Return(nil)
	mocks.AccountRepo.On("Deposit", mock.Anything, TestHoldingAccount, TestEntranceFee+1).Return(errors.New("database error"))

	_, err := svc.Enter(context.Background(), "alice", TestEntranceFee+1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to deposit entry payment")
	mocks.EventPublisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestRaffleService_CheckUpkeep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		raffle       *entities.Raffle
		balance      int64
		entrantCount int64
		want         bool
	}{
		{
			name:         "all conditions hold",
			raffle:       createTestRaffle(),
			balance:      TestEntranceFee + 1,
			entrantCount: 1,
			want:         true,
		},
		{
			name:         "interval not elapsed",
			raffle:       createTestRaffle(withLastDrawAt(testNow.Add(-TestInterval + 1))),
			balance:      TestEntranceFee + 1,
			entrantCount: 1,
			want:         false,
		},
		{
			name:         "raffle calculating",
			raffle:       createTestRaffle(withCalculating(TestRequestID)),
			balance:      TestEntranceFee + 1,
			entrantCount: 1,
			want:         false,
		},
		{
			name:         "no balance",
			raffle:       createTestRaffle(),
			balance:      0,
			entrantCount: 1,
			want:         false,
		},
		{
			name:         "no entrants",
			raffle:       createTestRaffle(),
			balance:      TestEntranceFee + 1,
			entrantCount: 0,
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mocks := NewTestMocks()
			svc := newTestService(t, mocks)

			mocks.RaffleRepo.On("Get", mock.Anything).Return(tt.raffle, nil)
			mocks.AccountRepo.On("GetBalance", mock.Anything, TestHoldingAccount).Return(tt.balance, nil)
			mocks.EntrantRepo.On("Count", mock.Anything).Return(tt.entrantCount, nil)

			for i := 0; i < 3; i++ {
				needed, performData, err := svc.CheckUpkeep(context.Background(), nil)
				require.NoError(t, err)
				assert.Equal(t, tt.want, needed)
				assert.Empty(t, performData)
			}

			mocks.RaffleRepo.AssertNotCalled(t, "GetForUpdate", mock.Anything)
			mocks.RaffleRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			mocks.Provider.AssertNotCalled(t, "RequestRandomWords", mock.Anything, mock.Anything)
			mocks.EventPublisher.AssertNotCalled(t, "Publish", mock.Anything)
		})
	}
}

func TestRaffleService_PerformUpkeep_NotNeeded(t *testing.T) {
	t.Parallel()

	mocks := NewTestMocks()
	svc := newTestService(t, mocks)

	raffle := createTestRaffle(withLastDrawAt(testNow))
	mocks.RaffleRepo.On("GetForUpdate", mock.Anything).Return(raffle, nil)
	mocks.AccountRepo.On("GetBalance", mock.Anything, TestHoldingAccount).Return(int64(20_002), nil)
	mocks.EntrantRepo.On("Count", mock.Anything).Return(int64(2), nil)

	requestID, err := svc.PerformUpkeep(context.Background(), nil)

	require.Error(t, err)
	assert.Empty(t, requestID)
	var notNeeded *UpkeepNotNeededError
	require.ErrorAs(t, err, &notNeeded)
	assert.ErrorIs(t, err, ErrUpkeepNotNeeded)
	assert.Equal(t, int64(20_002), notNeeded.Balance)
	assert.Equal(t, int64(2), notNeeded.EntrantCount)
	assert.Equal(t, entities.RaffleStateOpen, notNeeded.State)
	assert.Equal(t, entities.RaffleStateOpen, raffle.State)
	mocks.RaffleRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	mocks.Provider.AssertNotCalled(t, "RequestRandomWords", mock.Anything, mock.Anything)
}

func TestRaffleService_PerformUpkeep_Success(t *testing.T) {
	t.Parallel()

	mocks := NewTestMocks()
	svc := newTestService(t, mocks)

	raffle := createTestRaffle()
	mocks.RaffleRepo.On("GetForUpdate", mock.Anything).Return(raffle, nil)
	mocks.AccountRepo.On("GetBalance", mock.Anything, TestHoldingAccount).Return(TestEntranceFee+1, nil)
	mocks.EntrantRepo.On("Count", mock.Anything).Return(int64(1), nil)
	mocks.RaffleRepo.On("Update", mock.Anything, raffle).Return(nil).Twice()

	expectedRequest := entities.RandomnessRequest{
		Coordinator:          "vrf-coordinator",
		KeyHash:              TestKeyHash,
		SubscriptionID:       TestSubscriptionID,
		RequestConfirmations: entities.DefaultRequestConfirmations,
		CallbackGasLimit:     TestGasLimit,
		NumWords:             1,
	}
	mocks.Provider.On("RequestRandomWords", mock.Anything, expectedRequest).
		Run(func(args mock.Arguments) {
			// The state change must already be applied when the provider is contacted.
			assert.Equal(t, entities.RaffleStateCalculating, raffle.State)
		}).
		Return(TestRequestID, nil).Once()
	mocks.EventPublisher.On("Publish", events.RequestSubmittedEvent{RequestID: TestRequestID}).Return(nil)

	requestID, err := svc.PerformUpkeep(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, TestRequestID, requestID)
	assert.True(t, raffle.IsPendingRequest(TestRequestID))
	mocks.AssertAllExpectations(t)
}

func TestRaffleService_PerformUpkeep_ProviderFailure(t *testing.T) {
	t.Parallel()

	mocks := NewTestMocks()
	svc := newTestService(t, mocks)

	raffle := createTestRaffle()
	mocks.RaffleRepo.On("GetForUpdate", mock.Anything).Return(raffle, nil)
	mocks.AccountRepo.On("GetBalance", mock.Anything, TestHoldingAccount).Return(TestEntranceFee+1, nil)
	mocks.EntrantRepo.On("Count", mock.Anything).Return(int64(1), nil)
	mocks.RaffleRepo.On("Update", mock.Anything, raffle).Return(nil).Once()
	mocks.Provider.On("RequestRandomWords", mock.Anything, mock.Anything).Return(entities.RequestID(""), errors.New("provider unavailable"))

	_, err := svc.PerformUpkeep(context.Background(), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to request random words")
	mocks.EventPublisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestRaffleService_FulfillRandomWords_Success(t *testing.T) {
	t.Parallel()

	entrants := []*entities.Entrant{
		{ID: 1, Identity: "alice"},
		{ID: 2, Identity: "bob"},
		{ID: 3, Identity: "carol"},
	}

	for word := int64(0); word < 7; word++ {
		word := word
		wantIndex := word % int64(len(entrants))
		winner := entrants[wantIndex]

		t.Run(winner.Identity, func(t *testing.T) {
			t.Parallel()

			mocks := NewTestMocks()
			svc := newTestService(t, mocks)
			prize := 3 * (TestEntranceFee + 1)

			raffle := createTestRaffle(withCalculating(TestRequestID), withLastDrawAt(testNow.Add(-2*TestInterval)))
			mocks.RaffleRepo.On("GetForUpdate", mock.Anything).Return(raffle, nil)
			mocks.EntrantRepo.On("Count", mock.Anything).Return(int64(len(entrants)), nil)
			mocks.EntrantRepo.On("GetByIndex", mock.Anything, wantIndex).Return(winner, nil)
			mocks.AccountRepo.On("GetBalance", mock.Anything, TestHoldingAccount).Return(prize, nil)

			cleared := false
			mocks.RaffleRepo.On("Update", mock.Anything, raffle).Return(nil)
			mocks.EntrantRepo.On("Clear", mock.Anything).Run(func(mock.Arguments) { cleared = true }).Return(nil)
			mocks.WinnerRepo.On("Create", mock.Anything, mock.MatchedBy(func(w *entities.RaffleWinner) bool {
				return w.Identity == winner.Identity && w.WinnerIndex == wantIndex && w.PrizeAmount == prize && w.EntrantCount == 3
			})).Return(nil)
			mocks.EventPublisher.On("Publish", events.WinnerPickedEvent{
				Winner:      winner.Identity,
				RequestID:   TestRequestID,
				PrizeAmount: prize,
			}).Return(nil)
			mocks.AccountRepo.On("Transfer", mock.Anything, TestHoldingAccount, winner.Identity, prize).
				Run(func(mock.Arguments) {
					// Effects precede the payout.
					assert.True(t, cleared)
					assert.True(t, raffle.IsOpen())
				}).
				Return(nil)

			record, err := svc.FulfillRandomWords(context.Background(), TestRequestID, []*big.Int{big.NewInt(word)})

			require.NoError(t, err)
			require.NotNil(t, record)
			assert.Equal(t, winner.Identity, record.Identity)
			assert.Equal(t, big.NewInt(word).String(), record.RandomWord)
			assert.True(t, raffle.IsOpen())
			assert.Nil(t, raffle.PendingRequestID)
			assert.Equal(t, winner.Identity, raffle.GetRecentWinner())
			assert.Equal(t, testNow, raffle.LastDrawAt)
			assert.Equal(t, int64(1), raffle.RoundNumber)
			mocks.AssertAllExpectations(t)
		})
	}
}

func TestRaffleService_FulfillRandomWords_TransferFailed(t *testing.T) {
	t.Parallel()

	mocks := NewTestMocks()
	svc := newTestService(t, mocks)

	raffle := createTestRaffle(withCalculating(TestRequestID))
	mocks.RaffleRepo.On("GetForUpdate", mock.Anything).Return(raffle, nil)
	mocks.EntrantRepo.On("Count", mock.Anything).Return(int64(1), nil)
	mocks.EntrantRepo.On("GetByIndex", mock.Anything, int64(0)).Return(&entities.Entrant{Identity: "mallory"}, nil)
	mocks.AccountRepo.On("GetBalance", mock.Anything, TestHoldingAccount).Return(TestEntranceFee+1, nil)
	mocks.RaffleRepo.On("Update", mock.Anything, raffle).Return(nil)
	mocks.EntrantRepo.On("Clear", mock.Anything).Return(nil)
	mocks.WinnerRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	mocks.EventPublisher.On("Publish", mock.Anything).Return(nil)
	mocks.AccountRepo.On("Transfer", mock.Anything, TestHoldingAccount, "mallory", TestEntranceFee+1).Return(entities.ErrPayoutRejected)

	record, err := svc.FulfillRandomWords(context.Background(), TestRequestID, []*big.Int{big.NewInt(99)})

	require.Error(t, err)
	assert.Nil(t, record)
	assert.ErrorIs(t, err, ErrTransferFailed)
	assert.ErrorIs(t, err, entities.ErrPayoutRejected)
	var transferErr *TransferFailedError
	require.ErrorAs(t, err, &transferErr)
	assert.Equal(t, "mallory", transferErr.Winner)
	assert.Equal(t, TestEntranceFee+1, transferErr.Amount)
}

func TestRaffleService_FulfillRandomWords_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		requestID  entities.RequestID
		words      []*big.Int
		setupMocks func(*TestMocks)
		wantErr    error
	}{
		{
			name:       "no random words",
			requestID:  TestRequestID,
			words:      nil,
			setupMocks: func(m *TestMocks) {},
			wantErr:    ErrNoRandomWords,
		},
		{
			name:      "raffle open",
			requestID: TestRequestID,
			words:     []*big.Int{big.NewInt(1)},
			setupMocks: func(m *TestMocks) {
				m.RaffleRepo.On("GetForUpdate", mock.Anything).Return(createTestRaffle(), nil)
			},
			wantErr: ErrUnknownRequest,
		},
		{
			name:      "different request handle",
			requestID: "req-other",
			words:     []*big.Int{big.NewInt(1)},
			setupMocks: func(m *TestMocks) {
				m.RaffleRepo.On("GetForUpdate", mock.Anything).Return(createTestRaffle(withCalculating(TestRequestID)), nil)
			},
			wantErr: ErrUnknownRequest,
		},
		{
			name:      "no entrants",
			requestID: TestRequestID,
			words:     []*big.Int{big.NewInt(1)},
			setupMocks: func(m *TestMocks) {
				m.RaffleRepo.On("GetForUpdate", mock.Anything).Return(createTestRaffle(withCalculating(TestRequestID)), nil)
				m.EntrantRepo.On("Count", mock.Anything).Return(int64(0), nil)
			},
			wantErr: ErrNoEntrants,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mocks := NewTestMocks()
			tt.setupMocks(mocks)
			svc := newTestService(t, mocks)

			_, err := svc.FulfillRandomWords(context.Background(), tt.requestID, tt.words)

			assert.ErrorIs(t, err, tt.wantErr)
			mocks.RaffleRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			mocks.AccountRepo.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			mocks.AssertAllExpectations(t)
		})
	}
}

func TestRaffleService_Accessors(t *testing.T) {
	t.Parallel()

	mocks := NewTestMocks()
	svc := newTestService(t, mocks)
	ctx := context.Background()

	winner := "alice"
	raffle := createTestRaffle(func(r *entities.Raffle) { r.RecentWinner = &winner })
	entrants := []*entities.Entrant{{ID: 1, Identity: "bob"}, {ID: 2, Identity: "bob"}}

	mocks.RaffleRepo.On("Get", mock.Anything).Return(raffle, nil)
	mocks.EntrantRepo.On("GetAll", mock.Anything).Return(entrants, nil)
	mocks.EntrantRepo.On("GetByIndex", mock.Anything, int64(1)).Return(entrants[1], nil)
	mocks.EntrantRepo.On("Count", mock.Anything).Return(int64(2), nil)
	mocks.AccountRepo.On("GetBalance", mock.Anything, TestHoldingAccount).Return(int64(20_002), nil)

	assert.Equal(t, TestEntranceFee, svc.GetEntranceFee())
	assert.Equal(t, TestInterval, svc.GetInterval())

	state, err := svc.GetRaffleState(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.RaffleStateOpen, state)

	all, err := svc.GetAllEntrants(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	second, err := svc.GetEntrant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "bob", second.Identity)

	negative, err := svc.GetEntrant(ctx, -1)
	require.NoError(t, err)
	assert.Nil(t, negative)

	count, err := svc.GetNumberOfEntrants(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	recent, err := svc.GetRecentWinner(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", recent)

	last, err := svc.GetLastDrawTimestamp(ctx)
	require.NoError(t, err)
	assert.Equal(t, raffle.LastDrawAt, last)

	balance, err := svc.GetBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20_002), balance)
}

func TestRaffleService_Initialize(t *testing.T) {
	t.Parallel()

	mocks := NewTestMocks()
	svc := newTestService(t, mocks)

	mocks.RaffleRepo.On("Initialize", mock.Anything, testNow).Return(createTestRaffle(withLastDrawAt(testNow)), nil)

	raffle, err := svc.Initialize(context.Background())

	require.NoError(t, err)
	assert.Equal(t, testNow, raffle.LastDrawAt)
	assert.True(t, raffle.IsOpen())
}
