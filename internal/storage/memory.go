package storage

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
	"github.com/aliskhannn/millionaire-bot/internal/service"
)

var errNoTransaction = errors.New("locking read outside of a transaction")

// MemoryStore keeps games and users in process memory. Transactions hold
// per-game and per-user locks and buffer their writes until commit.
type MemoryStore struct {
	mu     sync.RWMutex
	games  map[int64]*entities.Game
	users  map[int64]*entities.User
	lastID int64

	gameLocks *keyedMutex
	userLocks *keyedMutex
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:     make(map[int64]*entities.Game),
		users:     make(map[int64]*entities.User),
		gameLocks: newKeyedMutex(),
		userLocks: newKeyedMutex(),
	}
}

func (s *MemoryStore) Games() service.GameRepository {
	return &memoryGames{store: s}
}

func (s *MemoryStore) Users() service.UserRepository {
	return &memoryUsers{store: s}
}

// WithinTx runs fn in a transaction. Writes become visible to others only
// if fn succeeds; locks are released when WithinTx returns.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx service.Tx) error) error {
	tx := &memoryTx{
		store:     s,
		games:     make(map[int64]*entities.Game),
		users:     make(map[int64]*entities.User),
		heldGames: make(map[int64]struct{}),
		heldUsers: make(map[int64]struct{}),
	}
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit()
}

func (s *MemoryStore) nextID() int64 {
	s.lastID++
	return s.lastID
}

type memoryTx struct {
	store *MemoryStore

	games map[int64]*entities.Game
	users map[int64]*entities.User

	heldGames map[int64]struct{}
	heldUsers map[int64]struct{}
	unlocks   []func()
}

func (tx *memoryTx) Games() service.GameRepository {
	return &memoryGames{store: tx.store, tx: tx}
}

func (tx *memoryTx) Users() service.UserRepository {
	return &memoryUsers{store: tx.store, tx: tx}
}

func (tx *memoryTx) lockGame(id int64) {
	if _, ok := tx.heldGames[id]; ok {
		return
	}
	tx.unlocks = append(tx.unlocks, tx.store.gameLocks.Lock(id))
	tx.heldGames[id] = struct{}{}
}

func (tx *memoryTx) lockUser(id int64) {
	if _, ok := tx.heldUsers[id]; ok {
		return
	}
	tx.unlocks = append(tx.unlocks, tx.store.userLocks.Lock(id))
	tx.heldUsers[id] = struct{}{}
}

func (tx *memoryTx) release() {
	for i := len(tx.unlocks) - 1; i >= 0; i-- {
		tx.unlocks[i]()
	}
	tx.unlocks = nil
}

func (tx *memoryTx) commit() error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// One unfinished game per user, as the unique index does in Postgres.
	for _, g := range tx.games {
		if g.Finished() {
			continue
		}
		for id, other := range s.games {
			if id == g.ID || other.UserID != g.UserID || other.Finished() {
				continue
			}
			if pending, ok := tx.games[id]; ok && pending.Finished() {
				continue
			}
			return &entities.GameInProgressError{GameID: id}
		}
	}

	for id, g := range tx.games {
		s.games[id] = g
	}
	for id, u := range tx.users {
		s.users[id] = u
	}
	return nil
}

type memoryGames struct {
	store *MemoryStore
	tx    *memoryTx
}

func (r *memoryGames) Create(_ context.Context, game *entities.Game) error {
	r.store.mu.Lock()
	game.ID = r.store.nextID()
	for _, gq := range game.Questions {
		gq.ID = r.store.nextID()
		gq.GameID = game.ID
	}
	r.store.mu.Unlock()

	return r.put(game)
}

func (r *memoryGames) GetByID(_ context.Context, gameID int64) (*entities.Game, error) {
	if r.tx != nil {
		if g, ok := r.tx.games[gameID]; ok {
			return g.Clone(), nil
		}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	g, ok := r.store.games[gameID]
	if !ok {
		return nil, entities.ErrGameNotFound
	}
	return g.Clone(), nil
}

func (r *memoryGames) GetForUpdate(ctx context.Context, gameID int64) (*entities.Game, error) {
	if r.tx == nil {
		return nil, errNoTransaction
	}
	r.tx.lockGame(gameID)
	return r.GetByID(ctx, gameID)
}

func (r *memoryGames) GetInProgressByUserID(_ context.Context, userID int64) (*entities.Game, error) {
	var found *entities.Game
	for _, g := range r.snapshot() {
		if g.UserID != userID || g.Finished() {
			continue
		}
		if found == nil || g.CreatedAt.After(found.CreatedAt) {
			found = g
		}
	}
	if found == nil {
		return nil, entities.ErrGameNotFound
	}
	return found.Clone(), nil
}

func (r *memoryGames) ListByUserID(_ context.Context, userID int64, limit int) ([]*entities.Game, error) {
	var out []*entities.Game
	for _, g := range r.snapshot() {
		if g.UserID != userID {
			continue
		}
		out = append(out, g.Clone())
	}

	slices.SortFunc(out, func(a, b *entities.Game) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryGames) ListExpiredIDs(_ context.Context, createdBefore time.Time, limit int) ([]int64, error) {
	var ids []int64
	for _, g := range r.snapshot() {
		if !g.Finished() && g.CreatedAt.Before(createdBefore) {
			ids = append(ids, g.ID)
		}
	}
	slices.Sort(ids)

	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (r *memoryGames) Update(ctx context.Context, game *entities.Game) error {
	if _, err := r.GetByID(ctx, game.ID); err != nil {
		return err
	}
	return r.put(game)
}

func (r *memoryGames) put(game *entities.Game) error {
	if r.tx != nil {
		r.tx.games[game.ID] = game.Clone()
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.games[game.ID] = game.Clone()
	return nil
}

// snapshot returns committed games overlaid with the transaction's pending writes.
func (r *memoryGames) snapshot() map[int64]*entities.Game {
	r.store.mu.RLock()
	out := make(map[int64]*entities.Game, len(r.store.games))
	for id, g := range r.store.games {
		out[id] = g
	}
	r.store.mu.RUnlock()

	if r.tx != nil {
		for id, g := range r.tx.games {
			out[id] = g
		}
	}
	return out
}

type memoryUsers struct {
	store *MemoryStore
	tx    *memoryTx
}

func (r *memoryUsers) Save(ctx context.Context, user *entities.User) (bool, error) {
	existing, err := r.GetByID(ctx, user.ID)
	if err != nil && !errors.Is(err, entities.ErrUserNotFound) {
		return false, err
	}

	u := *user
	created := existing == nil
	if !created {
		u.Balance = existing.Balance
		u.CreatedAt = existing.CreatedAt
	}
	r.put(&u)

	return created, nil
}

func (r *memoryUsers) GetByID(_ context.Context, userID int64) (*entities.User, error) {
	if r.tx != nil {
		if u, ok := r.tx.users[userID]; ok {
			c := *u
			return &c, nil
		}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[userID]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *memoryUsers) LockForUpdate(ctx context.Context, userID int64) error {
	if r.tx == nil {
		return errNoTransaction
	}
	r.tx.lockUser(userID)
	_, err := r.GetByID(ctx, userID)
	return err
}

func (r *memoryUsers) Credit(ctx context.Context, userID int64, amount int64) error {
	u, err := r.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	u.Balance += amount
	r.put(u)
	return nil
}

func (r *memoryUsers) put(u *entities.User) {
	if r.tx != nil {
		r.tx.users[u.ID] = u
		return
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.users[u.ID] = u
}
