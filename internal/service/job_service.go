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

// JobListResult carries one page of jobs plus the unpaginated match count.
type JobListResult struct {
	Jobs  []domain.Job `json:"jobs"`
	Count int          `json:"count"`
}

type JobService interface {
	Create(ctx context.Context, accountID int64, req *domain.CreateJobRequest) (*domain.Job, error)
	List(ctx context.Context, accountID int64, filter domain.JobFilter) (*JobListResult, error)
	Get(ctx context.Context, accountID, id int64) (*domain.Job, error)
	Update(ctx context.Context, accountID, id int64, req *domain.UpdateJobRequest) (*domain.Job, error)
	Delete(ctx context.Context, accountID, id int64) error
}

type jobService struct {
	repo     repository.JobRepository
	eventBus events.Publisher
}

func NewJobService(repo repository.JobRepository, eventBus events.Publisher) JobService {
	return &jobService{repo: repo, eventBus: eventBus}
}

func (s *jobService) Create(ctx context.Context, accountID int64, req *domain.CreateJobRequest) (*domain.Job, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	job, err := s.repo.Create(ctx, accountID, req)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.JobCreated, events.JobCreatedEvent{
		JobID:     job.ID,
		AccountID: job.AccountID,
		Position:  job.Position,
		Company:   job.Company,
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish job created event", "error", err, "job_id", job.ID)
	}

	return job, nil
}

func (s *jobService) List(ctx context.Context, accountID int64, filter domain.JobFilter) (*JobListResult, error) {
	jobs, err := s.repo.List(ctx, accountID, filter)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	count, err := s.repo.Count(ctx, accountID, filter)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}

	if jobs == nil {
		jobs = []domain.Job{}
	}
	return &JobListResult{Jobs: jobs, Count: count}, nil
}

func (s *jobService) Get(ctx context.Context, accountID, id int64) (*domain.Job, error) {
	job, err := s.repo.FindByID(ctx, accountID, id)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if job == nil {
		// Another account's job answers the same as a missing one.
		return nil, domain.NotFound("job not found")
	}
	return job, nil
}

func (s *jobService) Update(ctx context.Context, accountID, id int64, req *domain.UpdateJobRequest) (*domain.Job, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, accountID, id)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if existing == nil {
		return nil, domain.NotFound("job not found")
	}

	job, err := s.repo.Update(ctx, accountID, id, req)
	if err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}
	if job == nil {
		return nil, domain.NotFound("job not found")
	}

	if job.Status != existing.Status {
		if err := s.eventBus.Publish(ctx, events.JobStatusChanged, events.JobStatusChangedEvent{
			JobID:     job.ID,
			AccountID: job.AccountID,
			OldStatus: string(existing.Status),
			NewStatus: string(job.Status),
			ChangedAt: job.UpdatedAt,
		}); err != nil {
			logger.ErrorContext(ctx, "Failed to publish job status changed event", "error", err, "job_id", job.ID)
		}
	}

	return job, nil
}

func (s *jobService) Delete(ctx context.Context, accountID, id int64) error {
	err := s.repo.Delete(ctx, accountID, id)
	if err == pgx.ErrNoRows {
		return domain.NotFound("job not found")
	}
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.JobDeleted, events.JobDeletedEvent{
		JobID:     id,
		AccountID: accountID,
		DeletedAt: time.Now(),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish job deleted event", "error", err, "job_id", id)
	}

	return nil
}
