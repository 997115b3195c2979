package controller

import (
	"sync"

	"github.com/goliatone/go-lesionform/pkg/model"
)

// Store owns the shared submission state. States are replaced wholesale; there
// is no partial update path.
type Store struct {
	mu     sync.RWMutex
	state  model.SubmissionState
	nextID int
	subs   map[int]func(model.SubmissionState)
}

// NewStore returns a store in the Idle state.
func NewStore() *Store {
	return &Store{
		state: model.Idle(),
		subs:  make(map[int]func(model.SubmissionState)),
	}
}

// Current returns the latest state.
func (s *Store) Current() model.SubmissionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Set replaces the state and notifies subscribers.
func (s *Store) Set(state model.SubmissionState) {
	s.mu.Lock()
	s.state = state
	subs := s.subscribersLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// Clear resets a settled outcome to Idle. A pending state stays until the
// submission that set it finishes. It reports whether the state was replaced.
func (s *Store) Clear() bool {
	s.mu.Lock()
	if s.state.Pending() {
		s.mu.Unlock()
		return false
	}
	s.state = model.Idle()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(model.Idle())
	}
	return true
}

func (s *Store) subscribersLocked() []func(model.SubmissionState) {
	subs := make([]func(model.SubmissionState), 0, len(s.subs))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	return subs
}

// Subscribe registers fn for every subsequent Set, in registration order. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func(model.SubmissionState)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
