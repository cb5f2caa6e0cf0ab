package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ggrewal99/jobtrackr-backend-v2/internal/domain"
)

// CreateJob handles creating a job application
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", CodeInvalidInput)
		return
	}

	job, err := h.jobs.Create(r.Context(), accountID(r), &req)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, job)
}

// ListJobs handles listing the caller's job applications
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	filter := domain.JobFilter{Limit: limit, Offset: offset}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := domain.ParseJobStatus(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid job status", CodeInvalidInput)
			return
		}
		filter.Status = status
	}

	result, err := h.jobs.List(r.Context(), accountID(r), filter)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetJob handles fetching one job application
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid job ID", CodeInvalidInput)
		return
	}

	job, err := h.jobs.Get(r.Context(), accountID(r), id)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// UpdateJob handles partial updates to a job application
func (h *Handlers) UpdateJob(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid job ID", CodeInvalidInput)
		return
	}

	var req domain.UpdateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", CodeInvalidInput)
		return
	}

	job, err := h.jobs.Update(r.Context(), accountID(r), id, &req)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// DeleteJob handles deleting a job application
func (h *Handlers) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid job ID", CodeInvalidInput)
		return
	}

	if err := h.jobs.Delete(r.Context(), accountID(r), id); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Job deleted successfully",
	})
}
