package poller

import (
	"sync"
	"time"
)

// State is a copy of a Slot.
type State[T any] struct {
	Value       T         `json:"value"`
	HasValue    bool      `json:"has_value"`
	Unavailable bool      `json:"unavailable"`
	Cause       string    `json:"cause,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
	FailedAt    time.Time `json:"failed_at,omitempty"`
}

// Slot keeps the last known good value of one endpoint together with an
// error flag. A value is always replaced as a whole.
type Slot[T any] struct {
	mu  sync.RWMutex
	st  State[T]
	now func() time.Time
}

// NewSlot returns an empty slot.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{now: time.Now}
}

// Replace stores v and clears the error flag.
func (s *Slot[T]) Replace(v T) {
	s.mu.Lock()
	s.st = State[T]{Value: v, HasValue: true, UpdatedAt: s.now(), FailedAt: s.st.FailedAt}
	s.mu.Unlock()
}

// Fail keeps the current value and flags the slot as unavailable.
func (s *Slot[T]) Fail(err error) {
	cause := "data unavailable"
	if err != nil {
		cause = "data unavailable: " + err.Error()
	}
	s.mu.Lock()
	s.st.Unavailable = true
	s.st.Cause = cause
	s.st.FailedAt = s.now()
	s.mu.Unlock()
}

// Load returns a copy of the slot state.
func (s *Slot[T]) Load() State[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st
}
