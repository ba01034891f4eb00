package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
	"github.com/aliskhannn/millionaire-bot/internal/infra/postgres"
)

// UserRepository provides access to players and their balances.
type UserRepository struct {
	db postgres.DBTX
}

// NewUserRepository creates a new UserRepository with the provided database handle.
func NewUserRepository(db postgres.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Save inserts a new user or refreshes chat and name of an existing one.
// The balance is never touched here.
func (r *UserRepository) Save(ctx context.Context, user *entities.User) (bool, error) {
	query := `
		INSERT INTO users (id, chat_id, name, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			chat_id = EXCLUDED.chat_id,
			name = EXCLUDED.name
		RETURNING (xmax = 0) AS created
	`

	var created bool
	err := r.db.QueryRow(ctx, query, user.ID, user.ChatID, user.Name, user.CreatedAt).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("save user: %w", err)
	}

	return created, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*entities.User, error) {
	query := `
		SELECT id, chat_id, name, balance, created_at
		FROM users
		WHERE id = $1
	`

	var user entities.User
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.ChatID,
		&user.Name,
		&user.Balance,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

// LockForUpdate locks the user row until the transaction ends.
func (r *UserRepository) LockForUpdate(ctx context.Context, userID int64) error {
	query := "SELECT id FROM users WHERE id = $1 FOR UPDATE"

	var id int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entities.ErrUserNotFound
		}
		return fmt.Errorf("lock user: %w", err)
	}

	return nil
}

// Credit adds amount to the user's balance.
func (r *UserRepository) Credit(ctx context.Context, userID int64, amount int64) error {
	query := "UPDATE users SET balance = balance + $1 WHERE id = $2"

	result, err := r.db.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("credit user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return entities.ErrUserNotFound
	}

	return nil
}
