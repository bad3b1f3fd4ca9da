// Package forms holds the per-session form editors behind the inventory,
// add-sale and add-damage screens.
package forms

import (
	"context"
	"errors"
	"sync"
)

// State of an editor.
type State string

const (
	StateIdle       State = "idle"
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
)

// ErrBusy is returned when a submit arrives while another one is in flight.
var ErrBusy = errors.New("form is already being submitted")

// Editor captures user input into a draft and submits it.
//
//	idle -> editing -> submitting -> idle (success, draft reset)
//	                              -> editing (failure, draft kept)
type Editor[T any] struct {
	mu       sync.Mutex
	state    State
	draft    T
	defaults func() T
	validate func(T) error
	lastErr  error
}

// NewEditor creates an idle editor. defaults builds a fresh draft and validate
// runs locally before any submit reaches the network.
func NewEditor[T any](defaults func() T, validate func(T) error) *Editor[T] {
	if defaults == nil {
		defaults = func() T { var zero T; return zero }
	}
	return &Editor[T]{state: StateIdle, draft: defaults(), defaults: defaults, validate: validate}
}

// Edit replaces the draft with the user's current input.
func (e *Editor[T]) Edit(draft T) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateSubmitting {
		return ErrBusy
	}
	e.draft = draft
	e.state = StateEditing
	e.lastErr = nil
	return nil
}

// Submit validates the draft and hands it to send. A validation failure never
// calls send. On success the draft resets to defaults; on any failure it is
// kept for the retry.
func (e *Editor[T]) Submit(ctx context.Context, send func(context.Context, T) error) error {
	e.mu.Lock()
	if e.state == StateSubmitting {
		e.mu.Unlock()
		return ErrBusy
	}
	draft := e.draft
	if e.validate != nil {
		if err := e.validate(draft); err != nil {
			e.state = StateEditing
			e.lastErr = err
			e.mu.Unlock()
			return err
		}
	}
	e.state = StateSubmitting
	e.mu.Unlock()

	err := send(ctx, draft)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = StateEditing
		e.lastErr = err
		return err
	}
	e.draft = e.defaults()
	e.state = StateIdle
	e.lastErr = nil
	return nil
}

// Reset discards the draft.
func (e *Editor[T]) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateSubmitting {
		return
	}
	e.draft = e.defaults()
	e.state = StateIdle
	e.lastErr = nil
}

// Snapshot returns the current state, draft and last error.
func (e *Editor[T]) Snapshot() (State, T, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, e.draft, e.lastErr
}

// Registry keeps one editor per session.
type Registry[T any] struct {
	mu      sync.Mutex
	editors map[string]*Editor[T]
	build   func() *Editor[T]
}

// NewRegistry creates a registry whose editors are built by build.
func NewRegistry[T any](build func() *Editor[T]) *Registry[T] {
	return &Registry[T]{editors: make(map[string]*Editor[T]), build: build}
}

// For returns the editor for key, creating it on first use.
func (r *Registry[T]) For(key string) *Editor[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	ed, ok := r.editors[key]
	if !ok {
		ed = r.build()
		r.editors[key] = ed
	}
	return ed
}

// Drop forgets the editor for key.
func (r *Registry[T]) Drop(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.editors, key)
}
