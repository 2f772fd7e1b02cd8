package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"raffler/domain/entities"
)

type raffleRepository struct {
	s   *state
	now func() time.Time
}

func (r *raffleRepository) Initialize(_ context.Context, lastDrawAt time.Time) (*entities.Raffle, error) {
	if r.s.raffle == nil {
		now := r.now()
		r.s.raffle = &entities.Raffle{
			ID:         1,
			State:      entities.RaffleStateOpen,
			LastDrawAt: lastDrawAt,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}
	return copyRaffle(r.s.raffle), nil
}

func (r *raffleRepository) Get(_ context.Context) (*entities.Raffle, error) {
	if r.s.raffle == nil {
		return nil, nil
	}
	return copyRaffle(r.s.raffle), nil
}

// GetForUpdate is Get: the unit of work already holds the store lock.
func (r *raffleRepository) GetForUpdate(ctx context.Context) (*entities.Raffle, error) {
	return r.Get(ctx)
}

func (r *raffleRepository) Update(_ context.Context, raffle *entities.Raffle) error {
	if r.s.raffle == nil || r.s.raffle.ID != raffle.ID {
		return fmt.Errorf("raffle %d not found", raffle.ID)
	}
	if !raffle.State.IsValid() {
		return fmt.Errorf("invalid raffle state %q", raffle.State)
	}
	raffle.UpdatedAt = r.now()
	r.s.raffle = copyRaffle(raffle)
	return nil
}

type entrantRepository struct {
	s *state
}

func (r *entrantRepository) Append(_ context.Context, entrant *entities.Entrant) error {
	entrant.ID = r.s.nextEntrant
	r.s.nextEntrant++
	stored := *entrant
	r.s.entrants = append(r.s.entrants, &stored)
	return nil
}

func (r *entrantRepository) GetByIndex(_ context.Context, index int64) (*entities.Entrant, error) {
	if index < 0 || index >= int64(len(r.s.entrants)) {
		return nil, nil
	}
	entrant := *r.s.entrants[index]
	return &entrant, nil
}

func (r *entrantRepository) GetAll(_ context.Context) ([]*entities.Entrant, error) {
	entrants := make([]*entities.Entrant, len(r.s.entrants))
	for i, e := range r.s.entrants {
		entrant := *e
		entrants[i] = &entrant
	}
	return entrants, nil
}

func (r *entrantRepository) Count(_ context.Context) (int64, error) {
	return int64(len(r.s.entrants)), nil
}

func (r *entrantRepository) Clear(_ context.Context) error {
	r.s.entrants = r.s.entrants[:0:0]
	return nil
}

type winnerRepository struct {
	s *state
}

func (r *winnerRepository) Create(_ context.Context, winner *entities.RaffleWinner) error {
	for _, w := range r.s.winners {
		if w.RoundNumber == winner.RoundNumber {
			return fmt.Errorf("failed to create raffle winner: round %d already recorded", winner.RoundNumber)
		}
	}
	winner.ID = r.s.nextWinnerID
	r.s.nextWinnerID++
	stored := *winner
	r.s.winners = append(r.s.winners, &stored)
	return nil
}

func (r *winnerRepository) GetRecent(_ context.Context, limit int) ([]*entities.RaffleWinner, error) {
	winners := make([]*entities.RaffleWinner, 0, len(r.s.winners))
	for _, w := range r.s.winners {
		winner := *w
		winners = append(winners, &winner)
	}
	sort.Slice(winners, func(i, j int) bool {
		return winners[i].RoundNumber > winners[j].RoundNumber
	})
	if limit >= 0 && len(winners) > limit {
		winners = winners[:limit]
	}
	return winners, nil
}

type accountRepository struct {
	s   *state
	now func() time.Time
}

func (r *accountRepository) Get(_ context.Context, identity string) (*entities.Account, error) {
	account, ok := r.s.accounts[identity]
	if !ok {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

func (r *accountRepository) GetBalance(_ context.Context, identity string) (int64, error) {
	return r.balanceOf(identity), nil
}

func (r *accountRepository) balanceOf(identity string) int64 {
	if account, ok := r.s.accounts[identity]; ok {
		return account.Balance
	}
	return 0
}

func (r *accountRepository) Deposit(_ context.Context, identity string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("deposit amount must be non-negative, got %d", amount)
	}
	if !entities.CanCredit(r.balanceOf(identity), amount) {
		return fmt.Errorf("deposit to %s: %w", identity, entities.ErrBalanceOverflow)
	}
	account := r.getOrCreate(identity)
	account.Balance += amount
	account.UpdatedAt = r.now()
	return nil
}

func (r *accountRepository) Transfer(_ context.Context, from, to string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("transfer amount must be non-negative, got %d", amount)
	}
	if from == to {
		return fmt.Errorf("transfer %s: %w", from, entities.ErrSelfTransfer)
	}
	if recipient, ok := r.s.accounts[to]; ok && !recipient.AcceptsPayouts {
		return fmt.Errorf("transfer to %s: %w", to, entities.ErrPayoutRejected)
	}
	sender, ok := r.s.accounts[from]
	if !ok || sender.Balance < amount {
		return fmt.Errorf("transfer from %s: %w", from, entities.ErrInsufficientBalance)
	}
	if !entities.CanCredit(r.balanceOf(to), amount) {
		return fmt.Errorf("transfer to %s: %w", to, entities.ErrBalanceOverflow)
	}

	now := r.now()
	recipient := r.getOrCreate(to)
	sender.Balance -= amount
	sender.UpdatedAt = now
	recipient.Balance += amount
	recipient.UpdatedAt = now
	return nil
}

func (r *accountRepository) SetAcceptsPayouts(_ context.Context, identity string, accepts bool) error {
	account := r.getOrCreate(identity)
	account.AcceptsPayouts = accepts
	account.UpdatedAt = r.now()
	return nil
}

func (r *accountRepository) getOrCreate(identity string) *entities.Account {
	account, ok := r.s.accounts[identity]
	if !ok {
		now := r.now()
		account = &entities.Account{
			Identity:       identity,
			AcceptsPayouts: true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		r.s.accounts[identity] = account
	}
	return account
}
