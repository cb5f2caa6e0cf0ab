package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ggrewal99/jobtrackr-backend-v2/internal/domain"
)

type JobRepository interface {
	Create(ctx context.Context, accountID int64, req *domain.CreateJobRequest) (*domain.Job, error)
	FindByID(ctx context.Context, accountID, id int64) (*domain.Job, error)
	List(ctx context.Context, accountID int64, filter domain.JobFilter) ([]domain.Job, error)
	Count(ctx context.Context, accountID int64, filter domain.JobFilter) (int, error)
	Update(ctx context.Context, accountID, id int64, req *domain.UpdateJobRequest) (*domain.Job, error)
	Delete(ctx context.Context, accountID, id int64) error
}

type jobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) JobRepository {
	return &jobRepository{pool: pool}
}

const jobCols = `id, account_id, position, company, status, job_type, location, notes, applied_at, created_at, updated_at`

func (r *jobRepository) Create(ctx context.Context, accountID int64, req *domain.CreateJobRequest) (*domain.Job, error) {
	const q = `
		INSERT INTO jobs (account_id, position, company, status, job_type, location, notes, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, CURRENT_DATE))
		RETURNING ` + jobCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var j domain.Job
	err := r.pool.QueryRow(ctx, q, accountID, req.Position, req.Company, req.Status, req.JobType, req.Location, req.Notes, req.AppliedAt).Scan(
		&j.ID, &j.AccountID, &j.Position, &j.Company, &j.Status, &j.JobType,
		&j.Location, &j.Notes, &j.AppliedAt, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &j, nil
}

func (r *jobRepository) FindByID(ctx context.Context, accountID, id int64) (*domain.Job, error) {
	const q = `SELECT ` + jobCols + ` FROM jobs WHERE id = $1 AND account_id = $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var j domain.Job
	err := r.pool.QueryRow(ctx, q, id, accountID).Scan(
		&j.ID, &j.AccountID, &j.Position, &j.Company, &j.Status, &j.JobType,
		&j.Location, &j.Notes, &j.AppliedAt, &j.CreatedAt, &j.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &j, err
}

func (r *jobRepository) List(ctx context.Context, accountID int64, filter domain.JobFilter) ([]domain.Job, error) {
	limit := filter.Limit
	offset := filter.Offset
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + jobCols + ` FROM jobs WHERE account_id=$1`
	args := []any{accountID}
	if filter.Status != "" {
		q += ` AND status=$2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
		args = append(args, filter.Status, limit, offset)
	} else {
		q += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		var j domain.Job
		if err := rows.Scan(
			&j.ID, &j.AccountID, &j.Position, &j.Company, &j.Status, &j.JobType,
			&j.Location, &j.Notes, &j.AppliedAt, &j.CreatedAt, &j.UpdatedAt,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *jobRepository) Count(ctx context.Context, accountID int64, filter domain.JobFilter) (int, error) {
	q := `SELECT COUNT(*) FROM jobs WHERE account_id=$1`
	args := []any{accountID}
	if filter.Status != "" {
		q += ` AND status=$2`
		args = append(args, filter.Status)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int
	err := r.pool.QueryRow(ctx, q, args...).Scan(&count)
	return count, err
}

func (r *jobRepository) Update(ctx context.Context, accountID, id int64, req *domain.UpdateJobRequest) (*domain.Job, error) {
	const q = `
		UPDATE jobs
		SET
			position   = COALESCE($3, position),
			company    = COALESCE($4, company),
			status     = COALESCE($5, status),
			job_type   = COALESCE($6, job_type),
			location   = COALESCE($7, location),
			notes      = COALESCE($8, notes),
			applied_at = COALESCE($9, applied_at),
			updated_at = now()
		WHERE id = $1 AND account_id = $2
		RETURNING ` + jobCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var j domain.Job
	err := r.pool.QueryRow(ctx, q, id, accountID,
		req.Position, req.Company, req.Status, req.JobType, req.Location, req.Notes, req.AppliedAt,
	).Scan(
		&j.ID, &j.AccountID, &j.Position, &j.Company, &j.Status, &j.JobType,
		&j.Location, &j.Notes, &j.AppliedAt, &j.CreatedAt, &j.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &j, err
}

func (r *jobRepository) Delete(ctx context.Context, accountID, id int64) error {
	const q = `DELETE FROM jobs WHERE id = $1 AND account_id = $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, accountID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}
