package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sellsmart/sellsmart-web/internal/domain/models"
	"github.com/sellsmart/sellsmart-web/internal/service/fetch"
	"github.com/sellsmart/sellsmart-web/internal/service/forms"
	"github.com/sellsmart/sellsmart-web/internal/service/listview"
	"github.com/sellsmart/sellsmart-web/pkg/clients/sellsmart"
)

// InventoryHandler serves the inventory table and its add/update form.
type InventoryHandler struct {
	client  sellsmart.Client
	boards  *listview.Boards
	editors *forms.Registry[forms.InventoryDraft]
	seq     *fetch.Sequencer
	cookies Cookies
	logger  *zap.Logger
}

// NewInventoryHandler constructs the HTTP handler adapter.
func NewInventoryHandler(client sellsmart.Client, boards *listview.Boards, editors *forms.Registry[forms.InventoryDraft], seq *fetch.Sequencer, cookies Cookies, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{client: client, boards: boards, editors: editors, seq: seq, cookies: cookies, logger: logger}
}

// NewInventoryEditors builds the per-session inventory form registry.
func NewInventoryEditors() *forms.Registry[forms.InventoryDraft] {
	return forms.NewRegistry(func() *forms.Editor[forms.InventoryDraft] {
		return forms.NewEditor(forms.NewInventoryDraft, forms.ValidateInventory)
	})
}

func (h *InventoryHandler) load(c *gin.Context, sess models.Session) fetch.Result[[]models.InventoryItem] {
	return fetch.Run(c.Request.Context(), h.seq, fetch.Key(sess.ID, "inventory"), "",
		func(ctx context.Context) ([]models.InventoryItem, error) {
			return h.client.ListInventory(ctx, sess)
		},
		func(items []models.InventoryItem) bool { return len(items) == 0 },
	)
}

// renderPage loads the table and renders it with the form state. formErr is
// shown inline next to the form.
func (h *InventoryHandler) renderPage(c *gin.Context, status int, formErr error) {
	sess := CurrentSession(c)
	res := h.load(c, sess)
	res, ok := settleStale(c, res)
	if !ok {
		return
	}
	switch res.State {
	case fetch.StateFailed:
		if handleAuthFailure(c, h.cookies, res.Err) {
			return
		}
		h.logger.Warn("inventory load failed", zap.Error(res.Err))
	}

	_, draft, _ := h.editors.For(sess.ID).Snapshot()
	pending, hasPending := h.boards.For(sess.ID).Pending()

	data := gin.H{
		"Items":     res.Data,
		"LoadState": string(res.State),
		"LoadError": models.UserMessage(res.Err),
		"Draft":     draft,

		"ConfirmAction": "/inventory/delete/confirm",
		"CancelAction":  "/inventory/delete/cancel",
	}
	if hasPending && pending.Kind == listview.KindInventory {
		data["Pending"] = pending
	}
	if formErr != nil {
		data["FormError"] = models.UserMessage(formErr)
	}
	render(c, h.cookies, status, "inventory.html", data)
}

// List renders the inventory page.
func (h *InventoryHandler) List(c *gin.Context) {
	h.renderPage(c, http.StatusOK, nil)
}

// Edit loads an item into the form.
func (h *InventoryHandler) Edit(c *gin.Context) {
	sess := CurrentSession(c)
	id := models.ID(c.Param("id"))

	items, err := h.client.ListInventory(c.Request.Context(), sess)
	if err != nil {
		if handleAuthFailure(c, h.cookies, err) {
			return
		}
		h.cookies.SetFlash(c, FlashError, models.UserMessage(err))
		c.Redirect(http.StatusSeeOther, "/inventory")
		return
	}
	for _, item := range items {
		if item.ID == id {
			if err := h.editors.For(sess.ID).Edit(forms.InventoryDraftOf(item)); err != nil {
				h.cookies.SetFlash(c, FlashError, err.Error())
			}
			c.Redirect(http.StatusSeeOther, "/inventory#item-form")
			return
		}
	}
	h.cookies.SetFlash(c, FlashError, "Item not found.")
	c.Redirect(http.StatusSeeOther, "/inventory")
}

// Save adds or updates an item from the form. action=clear resets the form.
func (h *InventoryHandler) Save(c *gin.Context) {
	sess := CurrentSession(c)
	ed := h.editors.For(sess.ID)

	if c.PostForm("action") == "clear" {
		ed.Reset()
		c.Redirect(http.StatusSeeOther, "/inventory")
		return
	}

	draft := forms.InventoryDraft{
		ID:        c.PostForm("id"),
		Name:      c.PostForm("name"),
		Quantity:  c.PostForm("quantity"),
		BuyPrice:  c.PostForm("buyPrice"),
		SellPrice: c.PostForm("sellPrice"),
	}
	if err := ed.Edit(draft); err != nil {
		h.cookies.SetFlash(c, FlashError, "Please wait for the previous save to finish.")
		c.Redirect(http.StatusSeeOther, "/inventory")
		return
	}

	err := ed.Submit(c.Request.Context(), func(ctx context.Context, d forms.InventoryDraft) error {
		item, err := d.Item()
		if err != nil {
			return err
		}
		if d.Updating() {
			return h.client.UpdateInventoryItem(ctx, sess, item)
		}
		return h.client.AddInventoryItem(ctx, sess, item)
	})
	switch {
	case err == nil:
		msg := "Item added successfully!"
		if draft.Updating() {
			msg = "Item updated successfully!"
		}
		h.cookies.SetFlash(c, FlashSuccess, msg)
		c.Redirect(http.StatusSeeOther, "/inventory")
	case errors.Is(err, models.ErrValidation):
		h.renderPage(c, http.StatusUnprocessableEntity, err)
	case handleAuthFailure(c, h.cookies, err):
	default:
		h.logger.Warn("inventory save failed", zap.Error(err))
		h.cookies.SetFlash(c, FlashError, "Failed to submit item: "+models.UserMessage(err))
		c.Redirect(http.StatusSeeOther, "/inventory")
	}
}

// RequestDelete opens the confirmation dialog for an item.
func (h *InventoryHandler) RequestDelete(c *gin.Context) {
	sess := CurrentSession(c)
	h.boards.For(sess.ID).RequestDelete(listview.DeleteIntent{
		Kind:  listview.KindInventory,
		ID:    models.ID(c.Param("id")),
		Label: c.PostForm("name"),
	})
	c.Redirect(http.StatusSeeOther, "/inventory")
}

// ConfirmDelete deletes the pending item.
func (h *InventoryHandler) ConfirmDelete(c *gin.Context) {
	sess := CurrentSession(c)
	_, err := h.boards.For(sess.ID).ConfirmDelete(c.Request.Context(), func(ctx context.Context, in listview.DeleteIntent) error {
		return h.client.DeleteInventoryItem(ctx, sess, in.ID)
	}, listview.KindInventory)
	switch {
	case err == nil:
		h.cookies.SetFlash(c, FlashSuccess, "Item deleted!")
	case errors.Is(err, listview.ErrNoPendingDelete):
		h.cookies.SetFlash(c, FlashError, "Nothing to delete.")
	case handleAuthFailure(c, h.cookies, err):
		return
	default:
		h.logger.Warn("inventory delete failed", zap.Error(err))
		h.cookies.SetFlash(c, FlashError, "Failed to delete item: "+models.UserMessage(err))
	}
	c.Redirect(http.StatusSeeOther, "/inventory")
}

// CancelDelete closes the confirmation dialog.
func (h *InventoryHandler) CancelDelete(c *gin.Context) {
	h.boards.For(CurrentSession(c).ID).CancelDelete(listview.KindInventory)
	c.Redirect(http.StatusSeeOther, "/inventory")
}
