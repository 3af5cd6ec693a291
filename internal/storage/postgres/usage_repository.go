package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/carboni123/nanobanana/internal/domain/usage"
	"github.com/carboni123/nanobanana/internal/ierr"
)

type UsageRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUsageRepository(db *pgxpool.Pool, logger *zap.Logger) *UsageRepository {
	return &UsageRepository{
		db:     db,
		logger: logger.Named("UsageRepository"),
	}
}

var _ usage.Repository = (*UsageRepository)(nil)

func (r *UsageRepository) Increment(ctx context.Context, keyID uuid.UUID, day time.Time, delta int64) error {
	// Single atomic upsert: the unique constraint on (api_key_id, usage_date)
	// plus ON CONFLICT makes concurrent increments for the same pair
	// accumulate into one row without a read-modify-write race.
	query := `
		INSERT INTO usage_records (api_key_id, usage_date, image_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (api_key_id, usage_date)
		DO UPDATE SET
			image_count = usage_records.image_count + EXCLUDED.image_count,
			updated_at = now()
	`
	_, err := r.db.Exec(ctx, query, keyID, usage.Day(day), delta)
	if err != nil {
		r.logger.Error("Failed to increment usage counter",
			zap.String("api_key_id", keyID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("db error incrementing usage: %w", err)
	}
	return nil
}

func (r *UsageRepository) CountForDay(ctx context.Context, keyID uuid.UUID, day time.Time) (int64, error) {
	query := `
		SELECT image_count FROM usage_records
		WHERE api_key_id = $1 AND usage_date = $2
	`
	var count int64
	err := r.db.QueryRow(ctx, query, keyID, usage.Day(day)).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		r.logger.Error("Failed to read usage count", zap.String("api_key_id", keyID.String()), zap.Error(err))
		return 0, fmt.Errorf("db error reading usage count: %w", err)
	}
	return count, nil
}

func (r *UsageRepository) RangeForKey(ctx context.Context, keyID uuid.UUID, from, to time.Time) ([]usage.DayCount, error) {
	query := `
		SELECT usage_date, image_count FROM usage_records
		WHERE api_key_id = $1 AND usage_date >= $2 AND usage_date <= $3
		ORDER BY usage_date DESC
	`
	rows, err := r.db.Query(ctx, query, keyID, usage.Day(from), usage.Day(to))
	if err != nil {
		r.logger.Error("Failed to query usage range", zap.String("api_key_id", keyID.String()), zap.Error(err))
		return nil, fmt.Errorf("db error querying usage range: %w", err)
	}
	defer rows.Close()

	return scanDayCounts(rows)
}

func (r *UsageRepository) SummaryForOwner(ctx context.Context, userID uuid.UUID, topN int) (*usage.OwnerSummary, error) {
	summary := &usage.OwnerSummary{TopKeys: make([]usage.KeyTotal, 0)}

	totalQuery := `
		SELECT COALESCE(SUM(u.image_count), 0)
		FROM usage_records u
		JOIN api_keys k ON u.api_key_id = k.id
		WHERE k.user_id = $1
	`
	if err := r.db.QueryRow(ctx, totalQuery, userID).Scan(&summary.TotalCount); err != nil {
		r.logger.Error("Failed to sum usage for owner", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("db error summing usage: %w", err)
	}

	keyCountQuery := `
		SELECT COUNT(id), COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0)
		FROM api_keys
		WHERE user_id = $1
	`
	if err := r.db.QueryRow(ctx, keyCountQuery, userID).Scan(&summary.TotalKeys, &summary.ActiveKeys); err != nil {
		r.logger.Error("Failed to count keys for owner", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("db error counting keys: %w", err)
	}

	topQuery := `
		SELECT k.id, k.name, k.prefix, COALESCE(SUM(u.image_count), 0) AS total
		FROM api_keys k
		LEFT JOIN usage_records u ON u.api_key_id = k.id
		WHERE k.user_id = $1
		GROUP BY k.id, k.name, k.prefix
		ORDER BY total DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, topQuery, userID, topN)
	if err != nil {
		r.logger.Error("Failed to query top keys for owner", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("db error querying top keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kt usage.KeyTotal
		if err := rows.Scan(&kt.KeyID, &kt.KeyName, &kt.Prefix, &kt.Count); err != nil {
			r.logger.Error("Failed to scan top key row", zap.Error(err))
			return nil, fmt.Errorf("db scan error on top keys: %w", err)
		}
		summary.TopKeys = append(summary.TopKeys, kt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db iteration error on top keys: %w", err)
	}

	return summary, nil
}

func (r *UsageRepository) DailyForOwner(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]usage.DayCount, error) {
	query := `
		SELECT u.usage_date, SUM(u.image_count)
		FROM usage_records u
		JOIN api_keys k ON u.api_key_id = k.id
		WHERE k.user_id = $1 AND u.usage_date >= $2 AND u.usage_date <= $3
		GROUP BY u.usage_date
		ORDER BY u.usage_date DESC
	`
	rows, err := r.db.Query(ctx, query, userID, usage.Day(from), usage.Day(to))
	if err != nil {
		r.logger.Error("Failed to query daily usage for owner", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("db error querying daily usage: %w", err)
	}
	defer rows.Close()

	return scanDayCounts(rows)
}

func (r *UsageRepository) KeyUsage(ctx context.Context, keyID, userID uuid.UUID) (*usage.KeyUsage, error) {
	keyQuery := `
		SELECT id, name, prefix FROM api_keys
		WHERE id = $1 AND user_id = $2
	`
	detail := &usage.KeyUsage{Daily: make([]usage.DayCount, 0)}
	err := r.db.QueryRow(ctx, keyQuery, keyID, userID).Scan(&detail.KeyID, &detail.KeyName, &detail.Prefix)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Unknown and unowned keys surface identically.
			return nil, ierr.ErrNotFound
		}
		r.logger.Error("Failed to resolve key for usage detail", zap.String("api_key_id", keyID.String()), zap.Error(err))
		return nil, fmt.Errorf("db error resolving key: %w", err)
	}

	totalQuery := `
		SELECT COALESCE(SUM(image_count), 0) FROM usage_records WHERE api_key_id = $1
	`
	if err := r.db.QueryRow(ctx, totalQuery, keyID).Scan(&detail.TotalCount); err != nil {
		r.logger.Error("Failed to sum usage for key", zap.String("api_key_id", keyID.String()), zap.Error(err))
		return nil, fmt.Errorf("db error summing key usage: %w", err)
	}

	dailyQuery := `
		SELECT usage_date, image_count FROM usage_records
		WHERE api_key_id = $1
		ORDER BY usage_date DESC
	`
	rows, err := r.db.Query(ctx, dailyQuery, keyID)
	if err != nil {
		r.logger.Error("Failed to query daily usage for key", zap.String("api_key_id", keyID.String()), zap.Error(err))
		return nil, fmt.Errorf("db error querying key usage: %w", err)
	}
	defer rows.Close()

	detail.Daily, err = scanDayCounts(rows)
	if err != nil {
		return nil, err
	}

	return detail, nil
}

func scanDayCounts(rows pgx.Rows) ([]usage.DayCount, error) {
	entries := make([]usage.DayCount, 0)
	for rows.Next() {
		var dc usage.DayCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("db scan error on usage rows: %w", err)
		}
		entries = append(entries, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db iteration error on usage rows: %w", err)
	}
	return entries, nil
}
