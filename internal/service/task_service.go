package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ggrewal99/jobtrackr-backend-v2/internal/domain"
	"github.com/ggrewal99/jobtrackr-backend-v2/internal/repository"
	"github.com/ggrewal99/jobtrackr-backend-v2/pkg/events"
	"github.com/ggrewal99/jobtrackr-backend-v2/pkg/logger"
)

// TaskListResult carries one page of tasks plus the unpaginated match count.
type TaskListResult struct {
	Tasks []domain.Task `json:"tasks"`
	Count int           `json:"count"`
}

type TaskService interface {
	Create(ctx context.Context, accountID int64, req *domain.CreateTaskRequest) (*domain.Task, error)
	List(ctx context.Context, accountID int64, filter domain.TaskFilter) (*TaskListResult, error)
	Get(ctx context.Context, accountID, id int64) (*domain.Task, error)
	Update(ctx context.Context, accountID, id int64, req *domain.UpdateTaskRequest) (*domain.Task, error)
	Delete(ctx context.Context, accountID, id int64) error
}

type taskService struct {
	repo     repository.TaskRepository
	jobRepo  repository.JobRepository
	eventBus events.Publisher
}

func NewTaskService(repo repository.TaskRepository, jobRepo repository.JobRepository, eventBus events.Publisher) TaskService {
	return &taskService{repo: repo, jobRepo: jobRepo, eventBus: eventBus}
}

func (s *taskService) Create(ctx context.Context, accountID int64, req *domain.CreateTaskRequest) (*domain.Task, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := s.checkJobOwnership(ctx, accountID, req.JobID); err != nil {
		return nil, err
	}

	task, err := s.repo.Create(ctx, accountID, req)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	return task, nil
}

func (s *taskService) List(ctx context.Context, accountID int64, filter domain.TaskFilter) (*TaskListResult, error) {
	tasks, err := s.repo.List(ctx, accountID, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	count, err := s.repo.Count(ctx, accountID, filter)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}

	if tasks == nil {
		tasks = []domain.Task{}
	}
	return &TaskListResult{Tasks: tasks, Count: count}, nil
}

func (s *taskService) Get(ctx context.Context, accountID, id int64) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, accountID, id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return nil, domain.NotFound("task not found")
	}
	return task, nil
}

func (s *taskService) Update(ctx context.Context, accountID, id int64, req *domain.UpdateTaskRequest) (*domain.Task, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := s.checkJobOwnership(ctx, accountID, req.JobID); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, accountID, id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if existing == nil {
		return nil, domain.NotFound("task not found")
	}

	task, err := s.repo.Update(ctx, accountID, id, req)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if task == nil {
		return nil, domain.NotFound("task not found")
	}

	if task.Completed && !existing.Completed {
		if err := s.eventBus.Publish(ctx, events.TaskCompleted, events.TaskCompletedEvent{
			TaskID:      task.ID,
			AccountID:   task.AccountID,
			CompletedAt: time.Now(),
		}); err != nil {
			logger.ErrorContext(ctx, "Failed to publish task completed event", "error", err, "task_id", task.ID)
		}
	}

	return task, nil
}

func (s *taskService) Delete(ctx context.Context, accountID, id int64) error {
	err := s.repo.Delete(ctx, accountID, id)
	if err == pgx.ErrNoRows {
		return domain.NotFound("task not found")
	}
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// checkJobOwnership rejects a task that links to a job the caller does not
// own. A nil jobID is a standalone task and always fine.
func (s *taskService) checkJobOwnership(ctx context.Context, accountID int64, jobID *int64) error {
	if jobID == nil {
		return nil
	}

	job, err := s.jobRepo.FindByID(ctx, accountID, *jobID)
	if err != nil {
		return fmt.Errorf("check job: %w", err)
	}
	if job == nil {
		return domain.Validation("job not found")
	}
	return nil
}
