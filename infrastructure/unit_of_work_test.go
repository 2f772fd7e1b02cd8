package infrastructure

import (
	"context"
	"testing"

	"raffler/domain/events"
	"raffler/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_CommitPublishesEvents(t *testing.T) {
	t.Parallel()

	publisher := &MockEventPublisher{}
	factory := NewUnitOfWorkFactory(memory.NewStore(), publisher)
	ctx := context.Background()

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.AccountRepository().Deposit(ctx, "raffle-pot", 500))
	require.NoError(t, uow.EventBus().Publish(events.EntryRecordedEvent{Identity: "alice", AmountPaid: 500}))
	assert.Empty(t, publisher.PublishedEvents)

	require.NoError(t, uow.Commit())
	require.NoError(t, uow.Rollback())
	assert.Len(t, publisher.PublishedEvents, 1)

	check := factory.Create()
	require.NoError(t, check.Begin(ctx))
	defer check.Rollback()
	balance, err := check.AccountRepository().GetBalance(ctx, "raffle-pot")
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance)
}

func TestUnitOfWork_RollbackDiscardsEvents(t *testing.T) {
	t.Parallel()

	publisher := &MockEventPublisher{}
	factory := NewUnitOfWorkFactory(memory.NewStore(), publisher)
	ctx := context.Background()

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.AccountRepository().Deposit(ctx, "raffle-pot", 500))
	require.NoError(t, uow.EventBus().Publish(events.EntryRecordedEvent{Identity: "alice", AmountPaid: 500}))
	require.NoError(t, uow.Rollback())

	assert.Empty(t, publisher.PublishedEvents)

	check := factory.Create()
	require.NoError(t, check.Begin(ctx))
	defer check.Rollback()
	balance, err := check.AccountRepository().GetBalance(ctx, "raffle-pot")
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestUnitOfWorkFactory_RegisterLocalHandler(t *testing.T) {
	t.Parallel()

	natsPublisher := NewNATSEventPublisher(&recordingClient{}, NewEventSubjectMapper())
	factory := NewUnitOfWorkFactory(memory.NewStore(), natsPublisher)
	ctx := context.Background()

	var announced []events.Event
	factory.RegisterLocalHandler(events.EventTypeWinnerPicked, func(_ context.Context, event events.Event) error {
		announced = append(announced, event)
		return nil
	})

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.EventBus().Publish(events.WinnerPickedEvent{Winner: "alice"}))
	assert.Empty(t, announced)
	require.NoError(t, uow.Commit())

	assert.Len(t, announced, 1)
}

func TestUnitOfWorkFactory_RegisterLocalHandlerUnsupported(t *testing.T) {
	t.Parallel()

	factory := NewUnitOfWorkFactory(memory.NewStore(), &MockEventPublisher{})
	assert.NotPanics(t, func() {
		factory.RegisterLocalHandler(events.EventTypeWinnerPicked, func(context.Context, events.Event) error { return nil })
	})
}
