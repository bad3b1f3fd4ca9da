package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sellsmart/sellsmart-web/internal/domain/models"
	"github.com/sellsmart/sellsmart-web/internal/service/fetch"
	"github.com/sellsmart/sellsmart-web/internal/service/forms"
	"github.com/sellsmart/sellsmart-web/pkg/clients/sellsmart"
)

// entryForm describes one of the two single-line entry screens.
type entryForm struct {
	view     string
	path     string
	title    string
	success  string
	editors  *forms.Registry[forms.LineDraft]
	send     func(ctx context.Context, sess models.Session, d forms.LineDraft) error
	failText string
}

// EntryHandler serves the add-sale and add-damage forms.
type EntryHandler struct {
	client  sellsmart.Client
	seq     *fetch.Sequencer
	cookies Cookies
	logger  *zap.Logger

	sale   entryForm
	damage entryForm
}

// EntryEditors holds the per-session drafts of both entry forms.
type EntryEditors struct {
	Sales   *forms.Registry[forms.LineDraft]
	Damages *forms.Registry[forms.LineDraft]
}

// NewEntryEditors builds the draft registries, defaulting the date to today.
func NewEntryEditors(now func() time.Time) EntryEditors {
	if now == nil {
		now = time.Now
	}
	defaults := forms.NewLineDraftFunc(now)
	return EntryEditors{
		Sales: forms.NewRegistry(func() *forms.Editor[forms.LineDraft] {
			return forms.NewEditor(defaults, forms.ValidateSale)
		}),
		Damages: forms.NewRegistry(func() *forms.Editor[forms.LineDraft] {
			return forms.NewEditor(defaults, forms.ValidateDamage)
		}),
	}
}

// Drop forgets both drafts of a session.
func (e EntryEditors) Drop(sessionID string) {
	e.Sales.Drop(sessionID)
	e.Damages.Drop(sessionID)
}

// NewEntryHandler constructs the HTTP handler adapter.
func NewEntryHandler(client sellsmart.Client, editors EntryEditors, seq *fetch.Sequencer, cookies Cookies, logger *zap.Logger) *EntryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &EntryHandler{client: client, seq: seq, cookies: cookies, logger: logger}
	h.sale = entryForm{
		view:     "add-sale",
		path:     "/add-sale",
		title:    "Add Sale",
		success:  "Sale added successfully!",
		failText: "Failed to add sale: ",
		editors:  editors.Sales,
		send: func(ctx context.Context, sess models.Session, d forms.LineDraft) error {
			date, line, err := d.SaleLine()
			if err != nil {
				return err
			}
			return h.client.AddSales(ctx, sess, date, []models.SaleLine{line})
		},
	}
	h.damage = entryForm{
		view:     "add-damage",
		path:     "/add-damage",
		title:    "Report Damage",
		success:  "Damage reported successfully!",
		failText: "Failed to report damage: ",
		editors:  editors.Damages,
		send: func(ctx context.Context, sess models.Session, d forms.LineDraft) error {
			date, line, err := d.DamageLine()
			if err != nil {
				return err
			}
			return h.client.ReportDamages(ctx, sess, date, []models.DamageLine{line})
		},
	}
	return h
}

func (h *EntryHandler) render(c *gin.Context, f entryForm, status int, formErr error) {
	sess := CurrentSession(c)
	res := fetch.Run(c.Request.Context(), h.seq, fetch.Key(sess.ID, f.view), "",
		func(ctx context.Context) ([]string, error) {
			return h.client.InventoryNames(ctx, sess)
		},
		func(names []string) bool { return len(names) == 0 },
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
		h.logger.Warn("inventory names load failed", zap.String("view", f.view), zap.Error(res.Err))
	}

	_, draft, _ := f.editors.For(sess.ID).Snapshot()
	data := gin.H{
		"Title":     f.title,
		"Action":    f.path,
		"Names":     res.Data,
		"LoadState": string(res.State),
		"LoadError": models.UserMessage(res.Err),
		"Draft":     draft,
	}
	if formErr != nil {
		data["FormError"] = models.UserMessage(formErr)
	}
	render(c, h.cookies, status, "add_entry.html", data)
}

func (h *EntryHandler) submit(c *gin.Context, f entryForm) {
	sess := CurrentSession(c)
	ed := f.editors.For(sess.ID)

	draft := forms.LineDraft{
		Date:     c.PostForm("date"),
		Name:     c.PostForm("name"),
		Quantity: c.PostForm("quantity"),
	}
	if err := ed.Edit(draft); err != nil {
		h.cookies.SetFlash(c, FlashError, "Please wait for the previous submission to finish.")
		c.Redirect(http.StatusSeeOther, f.path)
		return
	}

	err := ed.Submit(c.Request.Context(), func(ctx context.Context, d forms.LineDraft) error {
		return f.send(ctx, sess, d)
	})
	switch {
	case err == nil:
		h.cookies.SetFlash(c, FlashSuccess, f.success)
		c.Redirect(http.StatusSeeOther, f.path)
	case errors.Is(err, models.ErrValidation):
		h.render(c, f, http.StatusUnprocessableEntity, err)
	case handleAuthFailure(c, h.cookies, err):
	default:
		h.logger.Warn("entry submit failed", zap.String("view", f.view), zap.Error(err))
		h.cookies.SetFlash(c, FlashError, f.failText+models.UserMessage(err))
		c.Redirect(http.StatusSeeOther, f.path)
	}
}

// SaleForm renders the add-sale form.
func (h *EntryHandler) SaleForm(c *gin.Context) { h.render(c, h.sale, http.StatusOK, nil) }

// AddSale records one sale line.
func (h *EntryHandler) AddSale(c *gin.Context) { h.submit(c, h.sale) }

// DamageForm renders the report-damage form.
func (h *EntryHandler) DamageForm(c *gin.Context) { h.render(c, h.damage, http.StatusOK, nil) }

// AddDamage records one damage line.
func (h *EntryHandler) AddDamage(c *gin.Context) { h.submit(c, h.damage) }
