// Package listview tracks the inline-edit and confirm-delete state of the
// inventory, sales and damages tables for one session.
package listview

import (
	"context"
	"errors"
	"sync"

	"github.com/sellsmart/sellsmart-web/internal/domain/models"
)

// Kind names a table.
type Kind string

const (
	KindInventory Kind = "inventory"
	KindSale      Kind = "sale"
	KindDamage    Kind = "damage"
)

// RowState is the edit state of one row.
type RowState string

const (
	RowViewing RowState = "viewing"
	RowEditing RowState = "editing"
	RowSaving  RowState = "saving"
)

var (
	ErrNoPendingDelete = errors.New("no delete is awaiting confirmation")
	ErrNotEditing      = errors.New("row is not being edited")
	ErrRowBusy         = errors.New("row is being saved")
)

// DeleteIntent is a delete the user asked for but has not confirmed yet.
type DeleteIntent struct {
	Kind  Kind
	ID    models.ID
	Label string
	// Date scopes sale and damage deletes.
	Date models.Date
}

type rowKey struct {
	kind Kind
	id   models.ID
}

// Board holds row states and at most one pending delete.
type Board struct {
	mu      sync.Mutex
	rows    map[rowKey]RowState
	pending *DeleteIntent
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{rows: make(map[rowKey]RowState)}
}

// State returns the edit state of a row; unknown rows are viewing.
func (b *Board) State(kind Kind, id models.ID) RowState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.rows[rowKey{kind, id}]; ok {
		return st
	}
	return RowViewing
}

// Editing lists the IDs of rows of kind currently in edit mode.
func (b *Board) Editing(kind Kind) map[models.ID]bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[models.ID]bool)
	for k, st := range b.rows {
		if k.kind == kind && st != RowViewing {
			out[k.id] = true
		}
	}
	return out
}

// BeginEdit moves a row to editing.
func (b *Board) BeginEdit(kind Kind, id models.ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := rowKey{kind, id}
	if b.rows[key] == RowSaving {
		return ErrRowBusy
	}
	b.rows[key] = RowEditing
	return nil
}

// CancelEdit returns a row to viewing without saving.
func (b *Board) CancelEdit(kind Kind, id models.ID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := rowKey{kind, id}
	if b.rows[key] == RowSaving {
		return
	}
	delete(b.rows, key)
}

// Save runs save for a row in edit mode. Success returns the row to viewing;
// failure leaves it editing so the input can be corrected.
func (b *Board) Save(ctx context.Context, kind Kind, id models.ID, save func(context.Context) error) error {
	key := rowKey{kind, id}

	b.mu.Lock()
	switch b.rows[key] {
	case RowEditing:
	case RowSaving:
		b.mu.Unlock()
		return ErrRowBusy
	default:
		b.mu.Unlock()
		return ErrNotEditing
	}
	b.rows[key] = RowSaving
	b.mu.Unlock()

	err := save(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.rows[key] = RowEditing
		return err
	}
	delete(b.rows, key)
	return nil
}

// RequestDelete records a delete intent, replacing any earlier one. It never
// touches the data.
func (b *Board) RequestDelete(intent DeleteIntent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = &intent
}

// Pending returns the delete awaiting confirmation.
func (b *Board) Pending() (DeleteIntent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return DeleteIntent{}, false
	}
	return *b.pending, true
}

// CancelDelete drops the pending intent when its kind is one of kinds, or any
// kind when kinds is empty.
func (b *Board) CancelDelete(kinds ...Kind) (DeleteIntent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil || !kindAllowed(b.pending.Kind, kinds) {
		return DeleteIntent{}, false
	}
	intent := *b.pending
	b.pending = nil
	return intent, true
}

// ConfirmDelete performs the pending delete through del. When kinds is not
// empty the pending intent must be one of them. A failed delete keeps the
// intent so the user can confirm again.
func (b *Board) ConfirmDelete(ctx context.Context, del func(context.Context, DeleteIntent) error, kinds ...Kind) (DeleteIntent, error) {
	b.mu.Lock()
	if b.pending == nil || !kindAllowed(b.pending.Kind, kinds) {
		b.mu.Unlock()
		return DeleteIntent{}, ErrNoPendingDelete
	}
	intent := *b.pending
	b.mu.Unlock()

	if err := del(ctx, intent); err != nil {
		return intent, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending != nil && *b.pending == intent {
		b.pending = nil
	}
	delete(b.rows, rowKey{intent.Kind, intent.ID})
	return intent, nil
}

func kindAllowed(k Kind, kinds []Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, allowed := range kinds {
		if k == allowed {
			return true
		}
	}
	return false
}

// Boards keeps one Board per session.
type Boards struct {
	mu     sync.Mutex
	boards map[string]*Board
}

// NewBoards returns an empty registry.
func NewBoards() *Boards {
	return &Boards{boards: make(map[string]*Board)}
}

// For returns the board for key, creating it on first use.
func (r *Boards) For(key string) *Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.boards[key]
	if !ok {
		b = NewBoard()
		r.boards[key] = b
	}
	return b
}

// Drop forgets the board for key.
func (r *Boards) Drop(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.boards, key)
}
