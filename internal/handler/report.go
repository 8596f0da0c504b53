package handler

import (
	"net/http"
	"strconv"

	"github.com/subtrack/subtrack/internal/domain"
	"github.com/subtrack/subtrack/pkg/response"
)

const (
	defaultReportMonths = 6
	maxReportMonths     = 36
)

// MonthlyReport serves the revenue report for the most recent months,
// current month first. ?months=N controls the window.
func (h *SubscriptionHandler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	months := defaultReportMonths
	if raw := r.URL.Query().Get("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxReportMonths {
			response.BadRequest(w, "INVALID_MONTHS", "months must be between 1 and 36", err)
			return
		}
		months = parsed
	}

	rows, err := h.service.MonthlyReport(r.Context(), months)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, domain.MonthlyReportResponse{Months: rows})
}
