package filter

import (
	"sync"
	"time"

	"kbconsole/debounce"
)

// DefaultDebounce is the quiet period after the last keystroke before a search runs.
const DefaultDebounce = 500 * time.Millisecond

// Session holds the filter state of one list view. Search text is debounced; the
// selectors take effect immediately. onChange receives a snapshot each time the
// effective state (everything but the raw query) changes.
type Session struct {
	mu       sync.Mutex
	state    State
	onChange func(State)
	search   *debounce.Debouncer[string]
}

// NewSession starts a session at initial. A non-positive wait uses DefaultDebounce.
func NewSession(initial State, wait time.Duration, onChange func(State)) *Session {
	if wait <= 0 {
		wait = DefaultDebounce
	}
	s := &Session{state: initial, onChange: onChange}
	s.search = debounce.New(wait, s.applySearch)
	return s
}

// State returns a snapshot of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetSearch records a keystroke. The list is only re-filtered once typing pauses.
func (s *Session) SetSearch(text string) {
	s.mu.Lock()
	s.state.Query = text
	s.mu.Unlock()
	s.search.Trigger(text)
}

// FlushSearch applies a pending search right away, as on an explicit submit.
func (s *Session) FlushSearch() {
	s.search.Flush()
}

func (s *Session) applySearch(text string) {
	s.update(func(st *State) { st.DebouncedQuery = text })
}

// SetCategory switches the category selector immediately.
func (s *Session) SetCategory(category string) {
	s.update(func(st *State) { st.Category = category })
}

// SetTab switches the tab immediately.
func (s *Session) SetTab(tab Tab) {
	s.update(func(st *State) { st.Tab = tab })
}

// SetApprovalStatus switches the approval-status selector immediately.
func (s *Session) SetApprovalStatus(status string) {
	s.update(func(st *State) { st.ApprovalStatus = status })
}

func (s *Session) update(apply func(*State)) {
	s.mu.Lock()
	before := s.state
	apply(&s.state)
	after := s.state
	s.mu.Unlock()

	before.Query, after.Query = "", ""
	if before == after {
		return
	}
	if s.onChange != nil {
		s.onChange(s.State())
	}
}

// Close cancels a pending search and waits for a running callback to return.
func (s *Session) Close() {
	s.search.Stop()
}
