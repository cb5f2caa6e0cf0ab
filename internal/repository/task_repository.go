package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ggrewal99/jobtrackr-backend-v2/internal/domain"
)

type TaskRepository interface {
	Create(ctx context.Context, accountID int64, req *domain.CreateTaskRequest) (*domain.Task, error)
	FindByID(ctx context.Context, accountID, id int64) (*domain.Task, error)
	List(ctx context.Context, accountID int64, filter domain.TaskFilter) ([]domain.Task, error)
	Count(ctx context.Context, accountID int64, filter domain.TaskFilter) (int, error)
	Update(ctx context.Context, accountID, id int64, req *domain.UpdateTaskRequest) (*domain.Task, error)
	Delete(ctx context.Context, accountID, id int64) error
}

type taskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

const taskCols = `id, account_id, job_id, title, description, priority, due_date, completed, created_at, updated_at`

func (r *taskRepository) Create(ctx context.Context, accountID int64, req *domain.CreateTaskRequest) (*domain.Task, error) {
	const q = `
		INSERT INTO tasks (account_id, job_id, title, description, priority, due_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + taskCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.Task
	err := r.pool.QueryRow(ctx, q, accountID, req.JobID, req.Title, req.Description, req.Priority, req.DueDate).Scan(
		&t.ID, &t.AccountID, &t.JobID, &t.Title, &t.Description, &t.Priority,
		&t.DueDate, &t.Completed, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (r *taskRepository) FindByID(ctx context.Context, accountID, id int64) (*domain.Task, error) {
	const q = `SELECT ` + taskCols + ` FROM tasks WHERE id = $1 AND account_id = $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.Task
	err := r.pool.QueryRow(ctx, q, id, accountID).Scan(
		&t.ID, &t.AccountID, &t.JobID, &t.Title, &t.Description, &t.Priority,
		&t.DueDate, &t.Completed, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &t, err
}

// filterClause appends the optional task predicates and returns the WHERE
// tail shared by List and Count.
func taskFilterClause(filter domain.TaskFilter, args []any) (string, []any) {
	q := ""
	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		q += fmt.Sprintf(` AND completed=$%d`, len(args))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		q += fmt.Sprintf(` AND priority=$%d`, len(args))
	}
	if filter.DueBefore != nil {
		args = append(args, *filter.DueBefore)
		q += fmt.Sprintf(` AND due_date IS NOT NULL AND due_date < $%d`, len(args))
	}
	return q, args
}

func (r *taskRepository) List(ctx context.Context, accountID int64, filter domain.TaskFilter) ([]domain.Task, error) {
	limit := filter.Limit
	offset := filter.Offset
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + taskCols + ` FROM tasks WHERE account_id=$1`
	clause, args := taskFilterClause(filter, []any{accountID})
	q += clause

	args = append(args, limit)
	q += fmt.Sprintf(` ORDER BY due_date ASC NULLS LAST, created_at DESC LIMIT $%d`, len(args))
	args = append(args, offset)
	q += fmt.Sprintf(` OFFSET $%d`, len(args))

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(
			&t.ID, &t.AccountID, &t.JobID, &t.Title, &t.Description, &t.Priority,
			&t.DueDate, &t.Completed, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Count(ctx context.Context, accountID int64, filter domain.TaskFilter) (int, error) {
	q := `SELECT COUNT(*) FROM tasks WHERE account_id=$1`
	clause, args := taskFilterClause(filter, []any{accountID})
	q += clause

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int
	err := r.pool.QueryRow(ctx, q, args...).Scan(&count)
	return count, err
}

func (r *taskRepository) Update(ctx context.Context, accountID, id int64, req *domain.UpdateTaskRequest) (*domain.Task, error) {
	const q = `
		UPDATE tasks
		SET
			title       = COALESCE($3, title),
			description = COALESCE($4, description),
			priority    = COALESCE($5, priority),
			due_date    = COALESCE($6, due_date),
			job_id      = COALESCE($7, job_id),
			completed   = COALESCE($8, completed),
			updated_at  = now()
		WHERE id = $1 AND account_id = $2
		RETURNING ` + taskCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.Task
	err := r.pool.QueryRow(ctx, q, id, accountID,
		req.Title, req.Description, req.Priority, req.DueDate, req.JobID, req.Completed,
	).Scan(
		&t.ID, &t.AccountID, &t.JobID, &t.Title, &t.Description, &t.Priority,
		&t.DueDate, &t.Completed, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &t, err
}

func (r *taskRepository) Delete(ctx context.Context, accountID, id int64) error {
	const q = `DELETE FROM tasks WHERE id = $1 AND account_id = $2`
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
