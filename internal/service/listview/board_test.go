package listview

import (
	"context"
	"errors"
	"testing"

	"github.com/sellsmart/sellsmart-web/internal/domain/models"
)

func TestDeleteIntentAloneDoesNotMutate(t *testing.T) {
	items := map[models.ID]string{"1": "Pen", "2": "Cup"}
	b := NewBoard()

	b.RequestDelete(DeleteIntent{Kind: KindInventory, ID: "1", Label: "Pen"})
	if len(items) != 2 {
		t.Fatalf("intent must not delete")
	}
	if got, ok := b.Pending(); !ok || got.ID != "1" {
		t.Fatalf("pending = %+v, %v", got, ok)
	}

	b.CancelDelete()
	if _, ok := b.Pending(); ok {
		t.Fatalf("cancel should clear the intent")
	}
	if len(items) != 2 {
		t.Fatalf("cancel must not delete")
	}
}

func TestSecondIntentReplacesFirst(t *testing.T) {
	b := NewBoard()
	b.RequestDelete(DeleteIntent{Kind: KindSale, ID: "1"})
	b.RequestDelete(DeleteIntent{Kind: KindDamage, ID: "9"})

	var deleted []models.ID
	intent, err := b.ConfirmDelete(context.Background(), func(_ context.Context, in DeleteIntent) error {
		deleted = append(deleted, in.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if intent.Kind != KindDamage || len(deleted) != 1 || deleted[0] != "9" {
		t.Fatalf("intent=%+v deleted=%v", intent, deleted)
	}
	if _, ok := b.Pending(); ok {
		t.Fatalf("confirmed intent should be cleared")
	}
}

func TestConfirmWithoutIntent(t *testing.T) {
	b := NewBoard()
	_, err := b.ConfirmDelete(context.Background(), func(context.Context, DeleteIntent) error {
		t.Fatalf("delete must not run")
		return nil
	})
	if !errors.Is(err, ErrNoPendingDelete) {
		t.Fatalf("expected ErrNoPendingDelete, got %v", err)
	}
}

func TestConfirmRespectsKinds(t *testing.T) {
	b := NewBoard()
	b.RequestDelete(DeleteIntent{Kind: KindSale, ID: "3"})
	_, err := b.ConfirmDelete(context.Background(), func(context.Context, DeleteIntent) error { return nil }, KindInventory)
	if !errors.Is(err, ErrNoPendingDelete) {
		t.Fatalf("inventory confirm must not delete a sale, got %v", err)
	}
	if _, ok := b.Pending(); !ok {
		t.Fatalf("intent should still be pending")
	}
}

func TestFailedDeleteKeepsIntent(t *testing.T) {
	b := NewBoard()
	b.RequestDelete(DeleteIntent{Kind: KindInventory, ID: "1"})
	boom := errors.New("down")
	if _, err := b.ConfirmDelete(context.Background(), func(context.Context, DeleteIntent) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok := b.Pending(); !ok {
		t.Fatalf("intent should survive a failed delete")
	}
}

func TestRowEditCycle(t *testing.T) {
	b := NewBoard()
	ctx := context.Background()

	if b.State(KindSale, "1") != RowViewing {
		t.Fatalf("rows start in viewing")
	}
	if err := b.Save(ctx, KindSale, "1", func(context.Context) error { return nil }); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("save without edit: %v", err)
	}

	_ = b.BeginEdit(KindSale, "1")
	if !b.Editing(KindSale)["1"] || b.Editing(KindDamage)["1"] {
		t.Fatalf("editing set is wrong")
	}

	boom := errors.New("down")
	if err := b.Save(ctx, KindSale, "1", func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if b.State(KindSale, "1") != RowEditing {
		t.Fatalf("failed save should stay editing")
	}

	var observed RowState
	err := b.Save(ctx, KindSale, "1", func(context.Context) error {
		observed = b.State(KindSale, "1")
		return nil
	})
	if err != nil || observed != RowSaving {
		t.Fatalf("err=%v observed=%s", err, observed)
	}
	if b.State(KindSale, "1") != RowViewing {
		t.Fatalf("successful save returns to viewing")
	}

	_ = b.BeginEdit(KindDamage, "2")
	b.CancelEdit(KindDamage, "2")
	if b.State(KindDamage, "2") != RowViewing {
		t.Fatalf("cancel returns to viewing")
	}
}

func TestBoardsPerSession(t *testing.T) {
	r := NewBoards()
	r.For("a").RequestDelete(DeleteIntent{Kind: KindSale, ID: "1"})
	if _, ok := r.For("b").Pending(); ok {
		t.Fatalf("boards must not leak between sessions")
	}
	r.Drop("a")
	if _, ok := r.For("a").Pending(); ok {
		t.Fatalf("dropped board should be fresh")
	}
}

func TestCancelDeleteRespectsKinds(t *testing.T) {
	b := NewBoard()
	b.RequestDelete(DeleteIntent{Kind: KindInventory, ID: "7", Label: "Rice"})

	if _, ok := b.CancelDelete(KindSale, KindDamage); ok {
		t.Fatalf("records cancel must not drop an inventory intent")
	}
	if got, ok := b.Pending(); !ok || got.ID != "7" {
		t.Fatalf("inventory intent lost: %+v, %v", got, ok)
	}

	got, ok := b.CancelDelete(KindInventory)
	if !ok || got.ID != "7" {
		t.Fatalf("cancel = %+v, %v", got, ok)
	}
	if _, ok := b.Pending(); ok {
		t.Fatalf("intent should be cleared")
	}
}
