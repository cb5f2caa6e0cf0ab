package handlers

import (
	"net/http"
	"strconv"
)

// AnalyticsSummary handles the dashboard summary
func (h *Handlers) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analytics.Summary(r.Context(), accountID(r))
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// AnalyticsMonthly handles the per-month application counts
func (h *Handlers) AnalyticsMonthly(w http.ResponseWriter, r *http.Request) {
	months := 0
	if raw := r.URL.Query().Get("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid months value", CodeInvalidInput)
			return
		}
		months = n
	}

	result, err := h.analytics.Monthly(r.Context(), accountID(r), months)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"months": result,
	})
}
