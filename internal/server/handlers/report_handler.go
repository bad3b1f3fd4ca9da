package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sellsmart/sellsmart-web/internal/domain/models"
	"github.com/sellsmart/sellsmart-web/internal/service/aggregation"
	"github.com/sellsmart/sellsmart-web/internal/service/fetch"
	"github.com/sellsmart/sellsmart-web/internal/service/reporting"
)

// ReportHandler serves the yearly profit report and month drill-down.
type ReportHandler struct {
	svc     *reporting.Service
	seq     *fetch.Sequencer
	cookies Cookies
	logger  *zap.Logger
}

// NewReportHandler constructs the HTTP handler adapter.
func NewReportHandler(svc *reporting.Service, seq *fetch.Sequencer, cookies Cookies, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, seq: seq, cookies: cookies, logger: logger}
}

func parseYear(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 || year > 9999 {
		return 0, models.NewValidationError("year", "must be a four digit year")
	}
	return year, nil
}

// Yearly renders the month-by-month profit of ?year= and, when both ?from=
// and ?to= are given, the totals of that date range.
func (h *ReportHandler) Yearly(c *gin.Context) {
	sess := CurrentSession(c)

	year, err := parseYear(c.Query("year"), h.svc.CurrentYear())
	if err != nil {
		c.String(http.StatusUnprocessableEntity, models.UserMessage(err))
		return
	}
	from, fromErr := parseDateParam(c.Query("from"), models.Date{})
	to, toErr := parseDateParam(c.Query("to"), models.Date{})

	res := fetch.Run(c.Request.Context(), h.seq, fetch.Key(sess.ID, "report"), "year="+strconv.Itoa(year),
		func(ctx context.Context) (models.YearlyReport, error) {
			return h.svc.YearlyReport(ctx, sess, year)
		},
		func(r models.YearlyReport) bool { return r.Total.IsZero() },
	)
	res, ok := settleStale(c, res)
	if !ok {
		return
	}
	switch res.State {
	case fetch.StateFailed:
		if handleAuthFailure(c, h.cookies, res.Err) {
			return
		}
		h.logger.Warn("yearly report failed", zap.Int("year", year), zap.Error(res.Err))
	}

	report := res.Data
	if report.Year == 0 {
		report = aggregation.BuildYearlyReport(year, nil)
	}

	data := gin.H{
		"Year":      year,
		"Years":     h.svc.YearOptions(),
		"Report":    report,
		"LoadState": string(res.State),
		"LoadError": models.UserMessage(res.Err),
		"From":      c.Query("from"),
		"To":        c.Query("to"),
	}
	if snap, ok := h.svc.LastSnapshot(c.Request.Context(), sess, year); ok {
		data["Snapshot"] = snap
	}

	status := http.StatusOK
	switch {
	case fromErr != nil:
		data["RangeError"] = models.UserMessage(fromErr)
		status = http.StatusUnprocessableEntity
	case toErr != nil:
		data["RangeError"] = models.UserMessage(toErr)
		status = http.StatusUnprocessableEntity
	case !from.IsZero() && !to.IsZero():
		rng, err := h.svc.RangeReport(c.Request.Context(), sess, from, to)
		if err != nil {
			if handleAuthFailure(c, h.cookies, err) {
				return
			}
			h.logger.Warn("range report failed", zap.Stringer("from", from), zap.Stringer("to", to), zap.Error(err))
			data["RangeError"] = models.UserMessage(err)
			if st := statusFor(err); st == http.StatusUnprocessableEntity {
				status = st
			}
			break
		}
		data["Range"] = rng
	}

	render(c, h.cookies, status, "report.html", data)
}

// Month renders the per-day profit of /report/month/:year/:month.
func (h *ReportHandler) Month(c *gin.Context) {
	sess := CurrentSession(c)

	year, err := parseYear(c.Param("year"), 0)
	if err != nil {
		c.String(http.StatusUnprocessableEntity, models.UserMessage(err))
		return
	}
	month, err := models.ParseMonth(c.Param("month"))
	if err != nil {
		c.String(http.StatusUnprocessableEntity, models.UserMessage(err))
		return
	}

	key := models.MonthKey(year, month)
	res := fetch.Run(c.Request.Context(), h.seq, fetch.Key(sess.ID, "month"), key,
		func(ctx context.Context) (models.MonthDetail, error) {
			return h.svc.MonthDetail(ctx, sess, year, month)
		},
		func(d models.MonthDetail) bool { return len(d.Days) == 0 },
	)
	res, ok := settleStale(c, res)
	if !ok {
		return
	}
	switch res.State {
	case fetch.StateFailed:
		if handleAuthFailure(c, h.cookies, res.Err) {
			return
		}
		h.logger.Warn("month detail failed", zap.String("month", key), zap.Error(res.Err))
	}

	render(c, h.cookies, http.StatusOK, "month.html", gin.H{
		"Year":      year,
		"MonthName": month.String(),
		"Key":       key,
		"Detail":    res.Data,
		"LoadState": string(res.State),
		"LoadError": models.UserMessage(res.Err),
	})
}
