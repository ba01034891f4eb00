package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aliskhannn/millionaire-bot/internal/infra/postgres"
	"github.com/aliskhannn/millionaire-bot/internal/service"
)

// Store binds the repositories to the pool or to a running transaction.
type Store struct {
	pool       *pgxpool.Pool
	transactor *postgres.Transactor
}

// NewStore creates a new Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:       pool,
		transactor: postgres.NewTransactor(pool),
	}
}

func (s *Store) Games() service.GameRepository {
	return NewGameRepository(s.pool)
}

func (s *Store) Users() service.UserRepository {
	return NewUserRepository(s.pool)
}

// WithinTx runs fn in a database transaction that commits only if fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx service.Tx) error) error {
	return s.transactor.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, txRepos{tx: tx})
	})
}

type txRepos struct {
	tx pgx.Tx
}

func (t txRepos) Games() service.GameRepository {
	return NewGameRepository(t.tx)
}

func (t txRepos) Users() service.UserRepository {
	return NewUserRepository(t.tx)
}
