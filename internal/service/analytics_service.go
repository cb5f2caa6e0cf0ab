package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ggrewal99/jobtrackr-backend-v2/internal/domain"
	"github.com/ggrewal99/jobtrackr-backend-v2/internal/repository"
)

const (
	defaultMonths = 6
	maxMonths     = 24

	recentWindow = 30 * 24 * time.Hour
)

type AnalyticsService interface {
	Summary(ctx context.Context, accountID int64) (*domain.AnalyticsSummary, error)
	Monthly(ctx context.Context, accountID int64, months int) ([]domain.MonthlyCount, error)
}

type analyticsService struct {
	repo repository.AnalyticsRepository

	now func() time.Time
}

func NewAnalyticsService(repo repository.AnalyticsRepository) AnalyticsService {
	return &analyticsService{repo: repo, now: time.Now}
}

func (s *analyticsService) Summary(ctx context.Context, accountID int64) (*domain.AnalyticsSummary, error) {
	now := s.now()

	counts, err := s.repo.StatusCounts(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}

	// Zero-fill so every status is present; clients chart the map directly.
	byStatus := make(map[domain.JobStatus]int, len(domain.JobStatuses()))
	total := 0
	for _, status := range domain.JobStatuses() {
		byStatus[status] = counts[status]
		total += counts[status]
	}

	recent, err := s.repo.ApplicationsSince(ctx, accountID, now.Add(-recentWindow))
	if err != nil {
		return nil, fmt.Errorf("recent applications: %w", err)
	}

	open, overdue, err := s.repo.TaskCounts(ctx, accountID, now)
	if err != nil {
		return nil, fmt.Errorf("task counts: %w", err)
	}

	return &domain.AnalyticsSummary{
		TotalJobs:          total,
		ByStatus:           byStatus,
		RecentApplications: recent,
		OpenTasks:          open,
		OverdueTasks:       overdue,
	}, nil
}

func (s *analyticsService) Monthly(ctx context.Context, accountID int64, months int) ([]domain.MonthlyCount, error) {
	if months <= 0 {
		months = defaultMonths
	}
	if months > maxMonths {
		months = maxMonths
	}

	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	from := first.AddDate(0, -(months - 1), 0)

	counts, err := s.repo.MonthlyApplications(ctx, accountID, from)
	if err != nil {
		return nil, fmt.Errorf("monthly applications: %w", err)
	}

	// Zero-filled buckets, oldest first.
	result := make([]domain.MonthlyCount, 0, months)
	for i := 0; i < months; i++ {
		month := from.AddDate(0, i, 0).Format("2006-01")
		result = append(result, domain.MonthlyCount{Month: month, Count: counts[month]})
	}
	return result, nil
}
