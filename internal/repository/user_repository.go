package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/p2p-exchange-bot/internal/domain"
)

// UserRepository defines persistence access for trading participants.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	UpdateRole(ctx context.Context, id int64, role domain.Role) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, telegram_id, display_name, role, balance, total_bought, total_sold, completed_deals, rating, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (telegram_id, display_name, role)
        VALUES ($1, $2, $3)
        RETURNING id, balance, total_bought, total_sold, completed_deals, rating, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.TelegramID,
		user.DisplayName,
		user.Role,
	).Scan(
		&user.ID,
		&user.Balance,
		&user.TotalBought,
		&user.TotalSold,
		&user.CompletedDeals,
		&user.Rating,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM users WHERE id=$1`

	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM users WHERE telegram_id=$1`

	return r.scanUser(r.pool.QueryRow(ctx, query, telegramID))
}

func (r *userRepository) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	const query = `
        UPDATE users SET role=$1, updated_at=NOW() WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, role, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.DisplayName,
		&user.Role,
		&user.Balance,
		&user.TotalBought,
		&user.TotalSold,
		&user.CompletedDeals,
		&user.Rating,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
