package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marcosbarbosa-dev/appfinance/internal/calendar"
	"github.com/marcosbarbosa-dev/appfinance/internal/services"
)

// ReportHandler serves aggregated views of a user's money.
type ReportHandler struct {
	reportService services.ReportServicer
	now           calendar.Clock
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService, now: calendar.System}
}

// MonthlyQuery selects the report month; it defaults to the current month.
type MonthlyQuery struct {
	Month string `form:"month" binding:"omitempty,iso_month"`
}

// GetMonthly returns income, expense, balance and the outflow breakdowns
// for one month.
func (h *ReportHandler) GetMonthly(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q MonthlyQuery
	if !bindQuery(c, &q) {
		return
	}
	if q.Month == "" {
		q.Month = calendar.Today(h.now)[:7]
	}

	report, err := h.reportService.Monthly(c.Request.Context(), uid, q.Month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}
