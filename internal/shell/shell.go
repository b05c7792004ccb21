// Package shell is the two-pane navigation of the console: the collection
// list in the main pane and one of search, queue or scrape preview sliding
// in on the right.
package shell

import (
	"slices"
	"sync"
)

// Pane is the visible side of the shell.
type Pane string

const (
	PaneMain  Pane = "main"
	PaneRight Pane = "right"
)

// Code selects what the right pane shows.
type Code string

const (
	CodeSearch Code = "search"
	CodeQueue  Code = "queue"
	CodeScrape Code = "scrape"
)

// State is a snapshot of the shell.
type State struct {
	Pane    Pane
	Code    Code
	Payload any
}

// Shell tracks the visible pane and the last right pane.
type Shell struct {
	keys *Keymap

	mu       sync.Mutex
	state    State
	onChange []func(State)
}

// New returns a shell showing the main pane.
func New(keys *Keymap) *Shell {
	if keys == nil {
		keys = NewKeymap()
	}
	return &Shell{keys: keys, state: State{Pane: PaneMain}}
}

// Keys returns the keymap the shell binds to.
func (s *Shell) Keys() *Keymap {
	return s.keys
}

// State returns the current state.
func (s *Shell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnChange registers fn to run after every pane change.
func (s *Shell) OnChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// SlideToRight shows code with payload on the right pane.
func (s *Shell) SlideToRight(code Code, payload any) {
	s.set(func(st *State) bool {
		st.Pane = PaneRight
		st.Code = code
		st.Payload = payload
		return true
	})
}

// SlideToLeft returns to the main pane. The right pane's code and payload
// are kept so it can be reopened.
func (s *Shell) SlideToLeft() {
	s.set(func(st *State) bool {
		changed := st.Pane != PaneMain
		st.Pane = PaneMain
		return changed
	})
}

// Reopen shows the last right pane again. It reports false when no right
// pane was ever opened.
func (s *Shell) Reopen() bool {
	s.mu.Lock()
	code := s.state.Code
	s.mu.Unlock()
	if code == "" {
		return false
	}
	s.set(func(st *State) bool {
		changed := st.Pane != PaneRight
		st.Pane = PaneRight
		return changed
	})
	return true
}

func (s *Shell) set(fn func(*State) bool) {
	s.mu.Lock()
	changed := fn(&s.state)
	next := s.state
	listeners := slices.Clone(s.onChange)
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, l := range listeners {
		l(next)
	}
}

// Mount binds the arrow keys: right reopens the last right pane, left
// returns to main. The returned function removes both bindings.
func (s *Shell) Mount() (unmount func()) {
	unbindRight := s.keys.Bind(KeyRight, func() { s.Reopen() })
	unbindLeft := s.keys.Bind(KeyLeft, s.SlideToLeft)
	return func() {
		unbindRight()
		unbindLeft()
	}
}
