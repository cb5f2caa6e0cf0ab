package domain

import (
	"strings"
	"time"
)

type JobStatus string

const (
	JobApplied   JobStatus = "applied"
	JobInterview JobStatus = "interview"
	JobOffer     JobStatus = "offer"
	JobRejected  JobStatus = "rejected"
)

func ParseJobStatus(s string) (JobStatus, bool) {
	switch JobStatus(s) {
	case JobApplied, JobInterview, JobOffer, JobRejected:
		return JobStatus(s), true
	default:
		return "", false
	}
}

func JobStatuses() []JobStatus {
	return []JobStatus{JobApplied, JobInterview, JobOffer, JobRejected}
}

type JobType string

const (
	JobFullTime   JobType = "full-time"
	JobPartTime   JobType = "part-time"
	JobContract   JobType = "contract"
	JobInternship JobType = "internship"
)

func ParseJobType(s string) (JobType, bool) {
	switch JobType(s) {
	case JobFullTime, JobPartTime, JobContract, JobInternship:
		return JobType(s), true
	default:
		return "", false
	}
}

type Job struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"-"`
	Position  string    `json:"position"`
	Company   string    `json:"company"`
	Status    JobStatus `json:"status"`
	JobType   JobType   `json:"jobType"`
	Location  *string   `json:"location,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	AppliedAt time.Time `json:"appliedAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateJobRequest struct {
	Position  string     `json:"position"`
	Company   string     `json:"company"`
	Status    string     `json:"status,omitempty"`
	JobType   string     `json:"jobType,omitempty"`
	Location  *string    `json:"location,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	AppliedAt *time.Time `json:"appliedAt,omitempty"`
}

type UpdateJobRequest struct {
	Position  *string    `json:"position,omitempty"`
	Company   *string    `json:"company,omitempty"`
	Status    *string    `json:"status,omitempty"`
	JobType   *string    `json:"jobType,omitempty"`
	Location  *string    `json:"location,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	AppliedAt *time.Time `json:"appliedAt,omitempty"`
}

// JobFilter narrows list queries; zero values mean no filter.
type JobFilter struct {
	Status JobStatus
	Limit  int
	Offset int
}

func (r *CreateJobRequest) Normalize() {
	r.Position = strings.TrimSpace(r.Position)
	r.Company = strings.TrimSpace(r.Company)
	if r.Status == "" {
		r.Status = string(JobApplied)
	}
	if r.JobType == "" {
		r.JobType = string(JobFullTime)
	}
}

func (r *CreateJobRequest) Validate() error {
	if r.Position == "" {
		return Validation("position is required")
	}
	if r.Company == "" {
		return Validation("company is required")
	}
	if _, ok := ParseJobStatus(r.Status); !ok {
		return Validation("invalid job status")
	}
	if _, ok := ParseJobType(r.JobType); !ok {
		return Validation("invalid job type")
	}
	return nil
}

func (r *UpdateJobRequest) Normalize() {
	if r.Position != nil {
		trimmed := strings.TrimSpace(*r.Position)
		r.Position = &trimmed
	}
	if r.Company != nil {
		trimmed := strings.TrimSpace(*r.Company)
		r.Company = &trimmed
	}
}

func (r *UpdateJobRequest) Validate() error {
	if r.Position != nil && *r.Position == "" {
		return Validation("position must not be empty")
	}
	if r.Company != nil && *r.Company == "" {
		return Validation("company must not be empty")
	}
	if r.Status != nil {
		if _, ok := ParseJobStatus(*r.Status); !ok {
			return Validation("invalid job status")
		}
	}
	if r.JobType != nil {
		if _, ok := ParseJobType(*r.JobType); !ok {
			return Validation("invalid job type")
		}
	}
	return nil
}
