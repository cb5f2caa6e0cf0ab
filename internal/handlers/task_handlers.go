package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ggrewal99/jobtrackr-backend-v2/internal/domain"
)

// CreateTask handles creating a task
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", CodeInvalidInput)
		return
	}

	task, err := h.tasks.Create(r.Context(), accountID(r), &req)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// ListTasks handles listing the caller's tasks
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	filter := domain.TaskFilter{Limit: limit, Offset: offset}

	if raw := r.URL.Query().Get("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid completed value", CodeInvalidInput)
			return
		}
		filter.Completed = &completed
	}
	if raw := r.URL.Query().Get("priority"); raw != "" {
		priority, ok := domain.ParseTaskPriority(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid task priority", CodeInvalidInput)
			return
		}
		filter.Priority = priority
	}
	if raw := r.URL.Query().Get("dueBefore"); raw != "" {
		due, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid dueBefore value", CodeInvalidInput)
			return
		}
		filter.DueBefore = &due
	}

	result, err := h.tasks.List(r.Context(), accountID(r), filter)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetTask handles fetching one task
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task ID", CodeInvalidInput)
		return
	}

	task, err := h.tasks.Get(r.Context(), accountID(r), id)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// UpdateTask handles partial updates to a task
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task ID", CodeInvalidInput)
		return
	}

	var req domain.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", CodeInvalidInput)
		return
	}

	task, err := h.tasks.Update(r.Context(), accountID(r), id, &req)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// DeleteTask handles deleting a task
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task ID", CodeInvalidInput)
		return
	}

	if err := h.tasks.Delete(r.Context(), accountID(r), id); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Task deleted successfully",
	})
}
