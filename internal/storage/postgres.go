package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moe10k/word-game/internal/domain"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func (r *PostgresRepo) CreateUser(ctx context.Context, username, passwordHash string) (string, error) {
	row := r.pool.QueryRow(ctx,
		"INSERT INTO users(username, password_hash) VALUES($1, $2) RETURNING id",
		username, passwordHash)

	var id string
	if err := row.Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// "23505" is the PostgreSQL error code for unique_violation
			if pgErr.Code == "23505" {
				return "", domain.ErrDuplicateUsername
			}
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	return id, nil
}

func (r *PostgresRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	user := domain.User{Username: username}

	row := r.pool.QueryRow(ctx,
		"SELECT id, password_hash FROM users WHERE username = $1", username)

	err := row.Scan(&user.Id, &user.PasswordHash)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.User{}, domain.ErrUserNotFound
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return domain.User{}, err
		default:
			return domain.User{}, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
		}
	}
	return user, nil
}

func (r *PostgresRepo) GetUserById(ctx context.Context, id string) (domain.User, error) {
	user := domain.User{Id: id}

	row := r.pool.QueryRow(ctx,
		"SELECT username, password_hash FROM users WHERE id = $1", id)

	err := row.Scan(&user.Username, &user.PasswordHash)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.User{}, domain.ErrUserNotFound
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return domain.User{}, err
		default:
			return domain.User{}, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
		}
	}
	return user, nil
}

// RecordWin bumps the win counter for a user. Unknown user ids are a no-op
// rather than an error: the game must never care.
func (r *PostgresRepo) RecordWin(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO wins(user_id, count) VALUES($1, 1)
		ON CONFLICT (user_id) DO UPDATE SET count = wins.count + 1`,
		userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			// foreign_key_violation: the user was deleted
			return nil
		}
		return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	return nil
}

func (r *PostgresRepo) TopWinners(ctx context.Context, limit int) ([]domain.WinCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.username, w.count
		FROM wins w JOIN users u ON u.id = w.user_id
		ORDER BY w.count DESC, u.username ASC
		LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	defer rows.Close()

	winners := make([]domain.WinCount, 0, limit)
	for rows.Next() {
		var wc domain.WinCount
		if err := rows.Scan(&wc.Username, &wc.Wins); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
		}
		winners = append(winners, wc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	return winners, nil
}
