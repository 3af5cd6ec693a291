package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/carboni123/nanobanana/internal/domain/apikey"
	"github.com/carboni123/nanobanana/internal/ierr"
)

const uniqueViolation = "23505"

type APIKeyRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAPIKeyRepository(db *pgxpool.Pool, logger *zap.Logger) *APIKeyRepository {
	return &APIKeyRepository{
		db:     db,
		logger: logger.Named("APIKeyRepository"),
	}
}

var _ apikey.Repository = (*APIKeyRepository)(nil)

func (r *APIKeyRepository) Create(ctx context.Context, key *apikey.APIKey) (*apikey.APIKey, error) {
	query := `
		INSERT INTO api_keys (user_id, key_hash, name, prefix, is_active, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	var expiresArg interface{}
	if key.ExpiresAt != nil {
		expiresArg = *key.ExpiresAt
	}

	created := *key
	err := r.db.QueryRow(ctx, query,
		key.UserID,
		key.KeyHash,
		key.Name,
		key.Prefix,
		key.IsActive,
		expiresArg,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			r.logger.Warn("Failed to create API key due to unique constraint violation",
				zap.String("constraint", pgErr.ConstraintName),
				zap.String("prefix", key.Prefix),
			)
			return nil, fmt.Errorf("%w: api key hash collision (%s)", ierr.ErrConflict, pgErr.ConstraintName)
		}
		r.logger.Error("Failed to create api key in database", zap.Error(err))
		return nil, fmt.Errorf("db error creating api key: %w", err)
	}

	r.logger.Info("API key created", zap.String("id", created.ID.String()), zap.String("prefix", created.Prefix))
	return &created, nil
}

func (r *APIKeyRepository) FindByHash(ctx context.Context, keyHash string) (*apikey.APIKey, error) {
	query := `
		SELECT id, user_id, key_hash, name, prefix, is_active, last_used_at, expires_at, created_at, updated_at
		FROM api_keys
		WHERE key_hash = $1
	`
	key, err := r.scanKey(r.db.QueryRow(ctx, query, keyHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ierr.ErrAPIKeyNotFound
		}
		r.logger.Error("Failed to find api key by hash", zap.Error(err))
		return nil, fmt.Errorf("db error finding api key: %w", err)
	}
	return key, nil
}

func (r *APIKeyRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*apikey.APIKey, error) {
	query := `
		SELECT id, user_id, key_hash, name, prefix, is_active, last_used_at, expires_at, created_at, updated_at
		FROM api_keys
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to query api keys for user", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("db error listing api keys: %w", err)
	}
	defer rows.Close()

	keys := make([]*apikey.APIKey, 0)
	for rows.Next() {
		key, err := r.scanKey(rows)
		if err != nil {
			r.logger.Error("Failed to scan api key row during list", zap.Error(err))
			return nil, fmt.Errorf("db scan error during list: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating api key rows", zap.Error(err))
		return nil, fmt.Errorf("db iteration error on list api keys: %w", err)
	}

	return keys, nil
}

func (r *APIKeyRepository) Revoke(ctx context.Context, keyID, userID uuid.UUID) (bool, error) {
	// Ownership is part of the WHERE clause so "not found" and "not owned"
	// are indistinguishable to the caller.
	query := `
		UPDATE api_keys
		SET is_active = FALSE, updated_at = now()
		WHERE id = $1 AND user_id = $2
	`
	cmdTag, err := r.db.Exec(ctx, query, keyID, userID)
	if err != nil {
		r.logger.Error("Failed to revoke api key", zap.String("id", keyID.String()), zap.Error(err))
		return false, fmt.Errorf("db error revoking api key: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.Debug("API key not found or not owned on revoke", zap.String("id", keyID.String()))
		return false, nil
	}

	r.logger.Info("API key revoked", zap.String("id", keyID.String()))
	return true, nil
}

func (r *APIKeyRepository) UpdateLastUsed(ctx context.Context, keyID uuid.UUID, lastUsed time.Time) error {
	query := `UPDATE api_keys SET last_used_at = $1 WHERE id = $2`
	cmdTag, err := r.db.Exec(ctx, query, lastUsed, keyID)
	if err != nil {
		r.logger.Error("Failed to update api key last_used_at", zap.String("id", keyID.String()), zap.Error(err))
		return fmt.Errorf("db error updating last used time: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("API key not found when updating last_used_at", zap.String("id", keyID.String()))
	}
	return nil
}

func (r *APIKeyRepository) DisableExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE api_keys
		SET is_active = FALSE, updated_at = now()
		WHERE is_active = TRUE AND expires_at IS NOT NULL AND expires_at <= $1
	`
	cmdTag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		r.logger.Error("Failed to disable expired api keys", zap.Error(err))
		return 0, fmt.Errorf("db error disabling expired api keys: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

func (r *APIKeyRepository) scanKey(row pgx.Row) (*apikey.APIKey, error) {
	var key apikey.APIKey
	var lastUsed, expires sql.NullTime

	err := row.Scan(
		&key.ID,
		&key.UserID,
		&key.KeyHash,
		&key.Name,
		&key.Prefix,
		&key.IsActive,
		&lastUsed,
		&expires,
		&key.CreatedAt,
		&key.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastUsed.Valid {
		key.LastUsedAt = &lastUsed.Time
	}
	if expires.Valid {
		key.ExpiresAt = &expires.Time
	}

	return &key, nil
}
