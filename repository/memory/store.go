// Package memory is a process-local raffle store. A unit of work holds the
// store lock from Begin until Commit or Rollback, which serializes operations
// the same way the raffle row lock does in PostgreSQL.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"raffler/application"
	"raffler/domain/entities"
	"raffler/domain/interfaces"
)

type state struct {
	raffle       *entities.Raffle
	entrants     []*entities.Entrant
	winners      []*entities.RaffleWinner
	accounts     map[string]*entities.Account
	nextEntrant  int64
	nextWinnerID int64
}

func newState() *state {
	return &state{
		accounts:     make(map[string]*entities.Account),
		nextEntrant:  1,
		nextWinnerID: 1,
	}
}

func (s *state) clone() *state {
	c := &state{
		entrants:     make([]*entities.Entrant, len(s.entrants)),
		winners:      make([]*entities.RaffleWinner, len(s.winners)),
		accounts:     make(map[string]*entities.Account, len(s.accounts)),
		nextEntrant:  s.nextEntrant,
		nextWinnerID: s.nextWinnerID,
	}
	if s.raffle != nil {
		c.raffle = copyRaffle(s.raffle)
	}
	for i, e := range s.entrants {
		entrant := *e
		c.entrants[i] = &entrant
	}
	for i, w := range s.winners {
		winner := *w
		c.winners[i] = &winner
	}
	for k, a := range s.accounts {
		account := *a
		c.accounts[k] = &account
	}
	return c
}

func copyRaffle(r *entities.Raffle) *entities.Raffle {
	raffle := *r
	if r.RecentWinner != nil {
		winner := *r.RecentWinner
		raffle.RecentWinner = &winner
	}
	if r.PendingRequestID != nil {
		id := *r.PendingRequestID
		raffle.PendingRequestID = &id
	}
	return &raffle
}

// Store holds committed raffle state
type Store struct {
	mu        sync.Mutex
	committed *state
	now       func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		committed: newState(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create returns a unit of work that has not begun yet
func (s *Store) Create() application.RepositoryUnitOfWork {
	return &unitOfWork{store: s}
}

type unitOfWork struct {
	store   *Store
	working *state
}

// Begin acquires the store lock and snapshots committed state
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.working != nil {
		return fmt.Errorf("transaction already started")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	u.store.mu.Lock()
	u.working = u.store.committed.clone()
	return nil
}

// Commit publishes the working state and releases the lock
func (u *unitOfWork) Commit() error {
	if u.working == nil {
		return fmt.Errorf("no transaction to commit")
	}
	u.store.committed = u.working
	u.working = nil
	u.store.mu.Unlock()
	return nil
}

// Rollback drops the working state and releases the lock
func (u *unitOfWork) Rollback() error {
	if u.working == nil {
		return nil
	}
	u.working = nil
	u.store.mu.Unlock()
	return nil
}

func (u *unitOfWork) mustState() *state {
	if u.working == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.working
}

func (u *unitOfWork) RaffleRepository() interfaces.RaffleRepository {
	return &raffleRepository{s: u.mustState(), now: u.store.now}
}

func (u *unitOfWork) EntrantRepository() interfaces.EntrantRepository {
	return &entrantRepository{s: u.mustState()}
}

func (u *unitOfWork) WinnerRepository() interfaces.WinnerRepository {
	return &winnerRepository{s: u.mustState()}
}

func (u *unitOfWork) AccountRepository() interfaces.AccountRepository {
	return &accountRepository{s: u.mustState(), now: u.store.now}
}
