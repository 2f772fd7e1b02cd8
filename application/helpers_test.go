package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"raffler/application"
	"raffler/config"
	"raffler/domain/entities"
	"raffler/domain/events"
	"raffler/infrastructure"
	"raffler/repository/memory"

	"github.com/stretchr/testify/require"
)

var errProviderDown = errors.New("provider unavailable")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeProvider struct {
	mu       sync.Mutex
	requests []entities.RandomnessRequest
	err      error
}

func (p *fakeProvider) RequestRandomWords(_ context.Context, request entities.RandomnessRequest) (entities.RequestID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return "", p.err
	}
	p.requests = append(p.requests, request)
	return entities.RequestID(fmt.Sprintf("req-%d", len(p.requests))), nil
}

func (p *fakeProvider) Requests() []entities.RandomnessRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entities.RandomnessRequest(nil), p.requests...)
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []events.Event
}

func (p *recordingPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, event)
	return nil
}

func (p *recordingPublisher) Types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]events.EventType, 0, len(p.published))
	for _, event := range p.published {
		types = append(types, event.Type())
	}
	return types
}

var errCommitFailed = errors.New("commit failed")

// flakyStore wraps the memory store so a test can make the next commit fail
type flakyStore struct {
	*memory.Store
	failNext atomic.Bool
}

func (s *flakyStore) Create() application.RepositoryUnitOfWork {
	return &flakyUnitOfWork{RepositoryUnitOfWork: s.Store.Create(), store: s}
}

type flakyUnitOfWork struct {
	application.RepositoryUnitOfWork
	store *flakyStore
}

func (u *flakyUnitOfWork) Commit() error {
	if u.store.failNext.CompareAndSwap(true, false) {
		_ = u.RepositoryUnitOfWork.Rollback()
		return errCommitFailed
	}
	return u.RepositoryUnitOfWork.Commit()
}

type harness struct {
	coordinator *application.RaffleCoordinator
	store       *memory.Store
	commits     *flakyStore
	provider    *fakeProvider
	publisher   *recordingPublisher
	clock       *fakeClock
	config      entities.RaffleConfig
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	raffleConfig, err := config.Get().RaffleConfig()
	require.NoError(t, err)

	h := &harness{
		store:     memory.NewStore(),
		provider:  &fakeProvider{},
		publisher: &recordingPublisher{},
		clock:     &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
		config:    raffleConfig,
	}
	h.commits = &flakyStore{Store: h.store}
	factory := infrastructure.NewUnitOfWorkFactory(h.commits, h.publisher)
	h.coordinator = application.NewRaffleCoordinator(factory, raffleConfig, h.provider, nil, h.clock.Now)

	_, err = h.coordinator.Initialize(context.Background())
	require.NoError(t, err)
	return h
}

// enterAll enters each identity paying one unit over the fee
func (h *harness) enterAll(t *testing.T, identities ...string) {
	t.Helper()
	for _, identity := range identities {
		_, err := h.coordinator.Enter(context.Background(), identity, h.config.EntranceFee()+1)
		require.NoError(t, err)
	}
}

func (h *harness) balanceOf(t *testing.T, identity string) int64 {
	t.Helper()
	ctx := context.Background()

	uow := h.store.Create()
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	balance, err := uow.AccountRepository().GetBalance(ctx, identity)
	require.NoError(t, err)
	return balance
}

func (h *harness) rejectPayouts(t *testing.T, identity string) {
	t.Helper()
	ctx := context.Background()

	uow := h.store.Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.AccountRepository().SetAcceptsPayouts(ctx, identity, false))
	require.NoError(t, uow.Commit())
}
