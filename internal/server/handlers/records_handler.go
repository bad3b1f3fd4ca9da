package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sellsmart/sellsmart-web/internal/domain/models"
	"github.com/sellsmart/sellsmart-web/internal/service/aggregation"
	"github.com/sellsmart/sellsmart-web/internal/service/fetch"
	"github.com/sellsmart/sellsmart-web/internal/service/listview"
	"github.com/sellsmart/sellsmart-web/pkg/clients/sellsmart"
)

// DayRecords is everything sold and damaged on one day.
type DayRecords struct {
	Sales   []models.SaleRecord
	Damages []models.DamageRecord
}

// RecordsHandler serves the daily sales and damages tables.
type RecordsHandler struct {
	client  sellsmart.Client
	boards  *listview.Boards
	seq     *fetch.Sequencer
	cookies Cookies
	logger  *zap.Logger
	now     func() time.Time
}

// NewRecordsHandler constructs the HTTP handler adapter.
func NewRecordsHandler(client sellsmart.Client, boards *listview.Boards, seq *fetch.Sequencer, cookies Cookies, logger *zap.Logger) *RecordsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordsHandler{client: client, boards: boards, seq: seq, cookies: cookies, logger: logger, now: time.Now}
}

func salesURL(date models.Date) string {
	return "/sales?date=" + url.QueryEscape(date.String())
}

func (h *RecordsHandler) load(c *gin.Context, sess models.Session, date models.Date) fetch.Result[DayRecords] {
	return fetch.Run(c.Request.Context(), h.seq, fetch.Key(sess.ID, "sales"), "date="+date.String(),
		func(ctx context.Context) (DayRecords, error) {
			var day DayRecords
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				day.Sales, err = h.client.ListSales(gctx, sess, date)
				return err
			})
			g.Go(func() error {
				var err error
				day.Damages, err = h.client.ListDamages(gctx, sess, date)
				return err
			})
			return day, g.Wait()
		},
		func(day DayRecords) bool { return len(day.Sales) == 0 && len(day.Damages) == 0 },
	)
}

func (h *RecordsHandler) viewData(c *gin.Context, date models.Date) (gin.H, bool) {
	sess := CurrentSession(c)
	res := h.load(c, sess, date)
	res, ok := settleStale(c, res)
	if !ok {
		return nil, false
	}
	switch res.State {
	case fetch.StateFailed:
		if handleAuthFailure(c, h.cookies, res.Err) {
			return nil, false
		}
		h.logger.Warn("records load failed", zap.String("date", date.String()), zap.Error(res.Err))
	}

	board := h.boards.For(sess.ID)
	data := gin.H{
		"Date":           date.String(),
		"DateLong":       date.Long(),
		"Sales":          res.Data.Sales,
		"Damages":        res.Data.Damages,
		"SalesSummary":   aggregation.SummarizeSales(res.Data.Sales),
		"DamageLoss":     aggregation.TotalDamageLoss(res.Data.Damages),
		"EditingSales":   board.Editing(listview.KindSale),
		"EditingDamages": board.Editing(listview.KindDamage),
		"LoadState":      string(res.State),
		"LoadError":      models.UserMessage(res.Err),
		"ConfirmAction":  "/records/delete/confirm",
		"CancelAction":   "/records/delete/cancel",
		"TypedSales":     map[models.ID]string{},
		"TypedDamages":   map[models.ID]string{},
	}
	if pending, ok := board.Pending(); ok && pending.Kind != listview.KindInventory {
		data["Pending"] = pending
	}
	return data, true
}

func (h *RecordsHandler) dateFrom(c *gin.Context, raw string) (models.Date, bool) {
	date, err := parseDateParam(raw, today(h.now))
	if err != nil {
		c.String(http.StatusUnprocessableEntity, models.UserMessage(err))
		return models.Date{}, false
	}
	return date, true
}

// Page renders the full sales page for ?date= (today by default).
func (h *RecordsHandler) Page(c *gin.Context) {
	date, ok := h.dateFrom(c, c.Query("date"))
	if !ok {
		return
	}
	h.renderPage(c, http.StatusOK, date, "", nil)
}

// postedRow is the quantity a user typed into an editing row.
type postedRow struct {
	kind     listview.Kind
	id       models.ID
	quantity string
}

func (h *RecordsHandler) renderPage(c *gin.Context, status int, date models.Date, rowErr string, posted *postedRow) {
	data, ok := h.viewData(c, date)
	if !ok {
		return
	}
	if rowErr != "" {
		data["Flash"] = &Flash{Kind: FlashError, Message: rowErr}
	}
	if posted != nil {
		typed := map[models.ID]string{posted.id: posted.quantity}
		if posted.kind == listview.KindDamage {
			data["TypedDamages"] = typed
		} else {
			data["TypedSales"] = typed
		}
	}
	render(c, h.cookies, status, "sales.html", data)
}

// Partial renders only the tables, for in-page date changes.
func (h *RecordsHandler) Partial(c *gin.Context) {
	date, ok := h.dateFrom(c, c.Query("date"))
	if !ok {
		return
	}
	data, ok := h.viewData(c, date)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "sales_partial.html", data)
}

// Edit returns a handler putting a row of kind into edit mode.
func (h *RecordsHandler) Edit(kind listview.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		date, ok := h.dateFrom(c, c.PostForm("date"))
		if !ok {
			return
		}
		if err := h.boards.For(CurrentSession(c).ID).BeginEdit(kind, models.ID(c.Param("id"))); err != nil {
			h.cookies.SetFlash(c, FlashError, err.Error())
		}
		c.Redirect(http.StatusSeeOther, salesURL(date))
	}
}

// Cancel returns a handler leaving edit mode without saving.
func (h *RecordsHandler) Cancel(kind listview.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		date, ok := h.dateFrom(c, c.PostForm("date"))
		if !ok {
			return
		}
		h.boards.For(CurrentSession(c).ID).CancelEdit(kind, models.ID(c.Param("id")))
		c.Redirect(http.StatusSeeOther, salesURL(date))
	}
}

// Save returns a handler storing an edited row of kind.
func (h *RecordsHandler) Save(kind listview.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		date, ok := h.dateFrom(c, c.PostForm("date"))
		if !ok {
			return
		}
		id := models.ID(c.Param("id"))

		save, err := h.saveFunc(c, kind, sess, date, id)
		if err != nil {
			h.renderPage(c, http.StatusUnprocessableEntity, date, models.UserMessage(err),
				&postedRow{kind: kind, id: id, quantity: strings.TrimSpace(c.PostForm("quantity"))})
			return
		}

		err = h.boards.For(sess.ID).Save(c.Request.Context(), kind, id, save)
		switch {
		case err == nil:
			h.cookies.SetFlash(c, FlashSuccess, fmt.Sprintf("%s updated.", kindLabel(kind)))
		case errors.Is(err, listview.ErrNotEditing), errors.Is(err, listview.ErrRowBusy):
			h.cookies.SetFlash(c, FlashError, err.Error())
		case handleAuthFailure(c, h.cookies, err):
			return
		default:
			h.logger.Warn("record update failed", zap.String("kind", string(kind)), zap.Error(err))
			h.cookies.SetFlash(c, FlashError, fmt.Sprintf("Failed to update %s: %s", strings.ToLower(kindLabel(kind)), models.UserMessage(err)))
		}
		c.Redirect(http.StatusSeeOther, salesURL(date))
	}
}

// saveFunc validates the edited row locally and returns the update call.
func (h *RecordsHandler) saveFunc(c *gin.Context, kind listview.Kind, sess models.Session, date models.Date, id models.ID) (func(context.Context) error, error) {
	qty, err := strconv.Atoi(strings.TrimSpace(c.PostForm("quantity")))
	if err != nil {
		return nil, models.NewValidationError("quantity", "must be a whole number")
	}
	buy, err := decimal.NewFromString(strings.TrimSpace(c.PostForm("buyPrice")))
	if err != nil {
		return nil, models.NewValidationError("buy price", "must be a number")
	}
	name := c.PostForm("name")

	switch kind {
	case listview.KindSale:
		sell, err := decimal.NewFromString(strings.TrimSpace(c.PostForm("sellPrice")))
		if err != nil {
			return nil, models.NewValidationError("sell price", "must be a number")
		}
		rec := models.SaleRecord{ID: id, Name: name, QuantitySold: qty, BuyPrice: buy, SellPrice: sell, Date: date}
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		return func(ctx context.Context) error { return h.client.UpdateSale(ctx, sess, date, rec) }, nil
	case listview.KindDamage:
		rec := models.DamageRecord{ID: id, Name: name, QuantityDamaged: qty, BuyPrice: buy, Date: date}
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		return func(ctx context.Context) error { return h.client.UpdateDamage(ctx, sess, date, rec) }, nil
	default:
		return nil, models.NewValidationError("kind", "is not editable here")
	}
}

// RequestDelete returns a handler opening the confirmation dialog for a row.
func (h *RecordsHandler) RequestDelete(kind listview.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		date, ok := h.dateFrom(c, c.PostForm("date"))
		if !ok {
			return
		}
		h.boards.For(CurrentSession(c).ID).RequestDelete(listview.DeleteIntent{
			Kind:  kind,
			ID:    models.ID(c.Param("id")),
			Label: c.PostForm("name"),
			Date:  date,
		})
		c.Redirect(http.StatusSeeOther, salesURL(date))
	}
}

// ConfirmDelete deletes the pending sale or damage record.
func (h *RecordsHandler) ConfirmDelete(c *gin.Context) {
	sess := CurrentSession(c)
	intent, err := h.boards.For(sess.ID).ConfirmDelete(c.Request.Context(), func(ctx context.Context, in listview.DeleteIntent) error {
		if in.Kind == listview.KindSale {
			return h.client.DeleteSale(ctx, sess, in.Date, in.ID)
		}
		return h.client.DeleteDamage(ctx, sess, in.Date, in.ID)
	}, listview.KindSale, listview.KindDamage)

	date := intent.Date
	if date.IsZero() {
		date = today(h.now)
	}
	switch {
	case err == nil:
		h.cookies.SetFlash(c, FlashSuccess, fmt.Sprintf("%s deleted.", kindLabel(intent.Kind)))
	case errors.Is(err, listview.ErrNoPendingDelete):
		h.cookies.SetFlash(c, FlashError, "Nothing to delete.")
	case handleAuthFailure(c, h.cookies, err):
		return
	default:
		h.logger.Warn("record delete failed", zap.String("kind", string(intent.Kind)), zap.Error(err))
		h.cookies.SetFlash(c, FlashError, "Failed to delete: "+models.UserMessage(err))
	}
	c.Redirect(http.StatusSeeOther, salesURL(date))
}

// CancelDelete closes the confirmation dialog.
func (h *RecordsHandler) CancelDelete(c *gin.Context) {
	date := today(h.now)
	if cancelled, ok := h.boards.For(CurrentSession(c).ID).CancelDelete(listview.KindSale, listview.KindDamage); ok && !cancelled.Date.IsZero() {
		date = cancelled.Date
	}
	c.Redirect(http.StatusSeeOther, salesURL(date))
}

func kindLabel(kind listview.Kind) string {
	switch kind {
	case listview.KindSale:
		return "Sale"
	case listview.KindDamage:
		return "Damage record"
	default:
		return "Item"
	}
}
