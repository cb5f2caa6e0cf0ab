package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ggrewal99/jobtrackr-backend-v2/internal/domain"
)

type AnalyticsRepository interface {
	StatusCounts(ctx context.Context, accountID int64) (map[domain.JobStatus]int, error)
	ApplicationsSince(ctx context.Context, accountID int64, since time.Time) (int, error)
	TaskCounts(ctx context.Context, accountID int64, now time.Time) (open, overdue int, err error)
	MonthlyApplications(ctx context.Context, accountID int64, from time.Time) (map[string]int, error)
}

type analyticsRepository struct {
	pool *pgxpool.Pool
}

func NewAnalyticsRepository(pool *pgxpool.Pool) AnalyticsRepository {
	return &analyticsRepository{pool: pool}
}

func (r *analyticsRepository) StatusCounts(ctx context.Context, accountID int64) (map[domain.JobStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM jobs WHERE account_id = $1 GROUP BY status`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.JobStatus]int)
	for rows.Next() {
		var status domain.JobStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *analyticsRepository) ApplicationsSince(ctx context.Context, accountID int64, since time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM jobs WHERE account_id = $1 AND applied_at >= $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int
	err := r.pool.QueryRow(ctx, q, accountID, since).Scan(&count)
	return count, err
}

func (r *analyticsRepository) TaskCounts(ctx context.Context, accountID int64, now time.Time) (int, int, error) {
	const q = `
		SELECT
			COUNT(*) FILTER (WHERE NOT completed),
			COUNT(*) FILTER (WHERE NOT completed AND due_date IS NOT NULL AND due_date < $2)
		FROM tasks
		WHERE account_id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var open, overdue int
	err := r.pool.QueryRow(ctx, q, accountID, now).Scan(&open, &overdue)
	return open, overdue, err
}

func (r *analyticsRepository) MonthlyApplications(ctx context.Context, accountID int64, from time.Time) (map[string]int, error) {
	const q = `
		SELECT to_char(date_trunc('month', applied_at), 'YYYY-MM'), COUNT(*)
		FROM jobs
		WHERE account_id = $1 AND applied_at >= $2
		GROUP BY 1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, accountID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var month string
		var count int
		if err := rows.Scan(&month, &count); err != nil {
			return nil, err
		}
		counts[month] = count
	}
	return counts, rows.Err()
}
