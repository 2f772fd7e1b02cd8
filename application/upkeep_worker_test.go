package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"raffler/domain/entities"
	"raffler/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockUpkeepPerformer struct {
	mock.Mock
}

func (m *mockUpkeepPerformer) CheckUpkeep(ctx context.Context, checkData []byte) (bool, []byte, error) {
	args := m.Called(ctx, checkData)
	var performData []byte
	if args.Get(1) != nil {
		performData = args.Get(1).([]byte)
	}
	return args.Bool(0), performData, args.Error(2)
}

func (m *mockUpkeepPerformer) PerformUpkeep(ctx context.Context, performData []byte) (entities.RequestID, error) {
	args := m.Called(ctx, performData)
	return args.Get(0).(entities.RequestID), args.Error(1)
}

func TestUpkeepWorker_Tick(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		setup     func(m *mockUpkeepPerformer)
		performed bool
	}{
		{
			name: "not needed skips perform",
			setup: func(m *mockUpkeepPerformer) {
				m.On("CheckUpkeep", mock.Anything, []byte{}).Return(false, []byte{}, nil)
			},
		},
		{
			name: "check error skips perform",
			setup: func(m *mockUpkeepPerformer) {
				m.On("CheckUpkeep", mock.Anything, []byte{}).Return(false, nil, errors.New("db down"))
			},
		},
		{
			name: "needed performs",
			setup: func(m *mockUpkeepPerformer) {
				m.On("CheckUpkeep", mock.Anything, []byte{}).Return(true, []byte{}, nil)
				m.On("PerformUpkeep", mock.Anything, []byte{}).Return(entities.RequestID("req-1"), nil)
			},
			performed: true,
		},
		{
			name: "lost race to another performer",
			setup: func(m *mockUpkeepPerformer) {
				m.On("CheckUpkeep", mock.Anything, []byte{}).Return(true, []byte{}, nil)
				m.On("PerformUpkeep", mock.Anything, []byte{}).
					Return(entities.RequestID(""), &services.UpkeepNotNeededError{State: entities.RaffleStateCalculating})
			},
		},
		{
			name: "perform error",
			setup: func(m *mockUpkeepPerformer) {
				m.On("CheckUpkeep", mock.Anything, []byte{}).Return(true, []byte{}, nil)
				m.On("PerformUpkeep", mock.Anything, []byte{}).Return(entities.RequestID(""), errors.New("provider down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			performer := &mockUpkeepPerformer{}
			tt.setup(performer)

			worker := NewUpkeepWorker(performer, time.Minute)
			assert.Equal(t, tt.performed, worker.tick(context.Background()))
			performer.AssertExpectations(t)
		})
	}
}

func TestUpkeepWorker_StartAndStop(t *testing.T) {
	t.Parallel()

	performer := &mockUpkeepPerformer{}
	checked := make(chan struct{}, 16)
	performer.On("CheckUpkeep", mock.Anything, []byte{}).
		Run(func(mock.Arguments) {
			select {
			case checked <- struct{}{}:
			default:
			}
		}).
		Return(false, []byte{}, nil)

	worker := NewUpkeepWorker(performer, time.Millisecond)
	stop := worker.Start(context.Background())

	for i := 0; i < 2; i++ {
		select {
		case <-checked:
		case <-time.After(2 * time.Second):
			t.Fatal("worker did not poll")
		}
	}
	stop()

	performer.AssertNotCalled(t, "PerformUpkeep", mock.Anything, mock.Anything)
}
