package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/carboni123/nanobanana/internal/domain/user"
	"github.com/carboni123/nanobanana/internal/ierr"
)

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger.Named("UserRepository"),
	}
}

var _ user.Repository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, u *user.User) (*user.User, error) {
	query := `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`
	created := *u
	err := r.db.QueryRow(ctx, query, u.Email, u.PasswordHash).
		Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			r.logger.Debug("Attempted to register duplicate email")
			return nil, ierr.ErrEmailTaken
		}
		r.logger.Error("Failed to create user in database", zap.Error(err))
		return nil, fmt.Errorf("db error creating user: %w", err)
	}

	r.logger.Info("User created", zap.String("id", created.ID.String()))
	return &created, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`
	cmdTag, err := r.db.Exec(ctx, query, passwordHash, id)
	if err != nil {
		r.logger.Error("Failed to update user password", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("db error updating password: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ierr.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ierr.ErrUserNotFound
		}
		r.logger.Error("Failed to scan user row", zap.Error(err))
		return nil, fmt.Errorf("db scan error on user: %w", err)
	}
	return &u, nil
}
