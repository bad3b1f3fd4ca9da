// Package fetch sequences view loads so a slow response can never overwrite
// the result of a newer request for the same view.
package fetch

import (
	"context"
	"strings"
	"sync"
	"time"
)

// LoadState is the outcome of one view load.
type LoadState string

const (
	StateLoaded LoadState = "loaded"
	StateEmpty  LoadState = "empty"
	StateFailed LoadState = "failed"
	// StateStale means a newer load for the same key started. Settled keeps
	// the outcome the load reached anyway.
	StateStale LoadState = "stale"
)

// Ticket tags one load with its key, sequence number and the parameters that
// triggered it.
type Ticket struct {
	Key    string
	Seq    uint64
	Params string
}

// Sequencer hands out tickets per key. Starting a load cancels the previous
// in-flight one for that key.
type Sequencer struct {
	mu      sync.Mutex
	timeout time.Duration
	seq     uint64
	latest  map[string]uint64
	cancels map[string]context.CancelFunc
}

// NewSequencer creates a Sequencer whose loads run under timeout.
func NewSequencer(timeout time.Duration) *Sequencer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sequencer{
		timeout: timeout,
		latest:  make(map[string]uint64),
		cancels: make(map[string]context.CancelFunc),
	}
}

// Key builds the sequencing key for a view of one session.
func Key(sessionID, view string) string {
	return sessionID + "|" + view
}

// Begin issues a new ticket for key and returns the context the load must
// use. The returned done func releases the context.
func (s *Sequencer) Begin(parent context.Context, key, params string) (context.Context, Ticket, func()) {
	ctx, cancel := context.WithTimeout(parent, s.timeout)

	s.mu.Lock()
	s.seq++
	t := Ticket{Key: key, Seq: s.seq, Params: params}
	if prev, ok := s.cancels[key]; ok {
		prev()
	}
	s.latest[key] = t.Seq
	s.cancels[key] = cancel
	s.mu.Unlock()

	done := func() {
		cancel()
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.latest[key] == t.Seq {
			delete(s.cancels, key)
		}
	}
	return ctx, t, done
}

// Latest reports whether t is still the newest ticket for its key.
func (s *Sequencer) Latest(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[t.Key] == t.Seq
}

// Forget cancels and drops every key of a session.
func (s *Sequencer) Forget(sessionID string) {
	prefix := sessionID + "|"
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.latest {
		if strings.HasPrefix(key, prefix) {
			if cancel, ok := s.cancels[key]; ok {
				cancel()
				delete(s.cancels, key)
			}
			delete(s.latest, key)
		}
	}
}

// Result is the outcome of Run.
type Result[T any] struct {
	State   LoadState
	Settled LoadState
	Data    T
	Err     error
	Ticket  Ticket
}

// Run performs load under a fresh ticket for key. isEmpty decides between
// loaded and empty on success; nil means never empty.
func Run[T any](parent context.Context, s *Sequencer, key, params string, load func(context.Context) (T, error), isEmpty func(T) bool) Result[T] {
	ctx, t, done := s.Begin(parent, key, params)
	defer done()

	data, err := load(ctx)

	res := Result[T]{Data: data, Err: err, Ticket: t}
	switch {
	case err != nil:
		var zero T
		res.Data = zero
		res.Settled = StateFailed
	case isEmpty != nil && isEmpty(data):
		res.Settled = StateEmpty
	default:
		res.Settled = StateLoaded
	}
	res.State = res.Settled
	if !s.Latest(t) {
		res.State = StateStale
	}
	return res
}
