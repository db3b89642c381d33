package server

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"lendview/services/loanform"
)

var errSubmitInFlight = errors.New("server: submission already in flight")

// session serialises events for one mounted loan form. The lock covers form
// events only; a broadcast runs outside it so price updates keep flowing.
type session struct {
	mu         sync.Mutex
	view       *loanform.View
	submitting bool

	subsMu sync.Mutex
	subs   map[chan loanform.Snapshot]struct{}
}

func newSession(view *loanform.View) *session {
	return &session{view: view, subs: make(map[chan loanform.Snapshot]struct{})}
}

// do runs fn while holding the session lock and returns the resulting snapshot.
func (s *session) do(fn func(v *loanform.View)) loanform.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		fn(s.view)
	}
	return s.view.Snapshot()
}

// prepareSubmit captures the validated loan and marks the session busy until
// finishSubmit runs. Only one broadcast per session is in flight at a time.
func (s *session) prepareSubmit(borrower common.Address) (*loanform.PendingSubmit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return nil, errSubmitInFlight
	}
	pending, err := s.view.PrepareSubmit(borrower)
	if err != nil {
		return nil, err
	}
	s.submitting = true
	return pending, nil
}

func (s *session) finishSubmit() loanform.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	return s.view.Snapshot()
}

// subscribe registers a snapshot channel. The channel keeps only the latest
// snapshot when the reader falls behind and is closed when the session ends.
func (s *session) subscribe() (<-chan loanform.Snapshot, func()) {
	ch := make(chan loanform.Snapshot, 1)
	s.subsMu.Lock()
	if s.subs == nil {
		s.subsMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()
	return ch, func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

func (s *session) publish(snap loanform.Snapshot) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *session) close() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}

type registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*session)}
}

func (r *registry) add(id string, s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = s
}

func (r *registry) get(id string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *registry) remove(id string) (*session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return s, ok
}

func (r *registry) all() []*session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
