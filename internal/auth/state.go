package auth

import "sync"

// Event names an auth state transition.
type Event string

const (
	EventSignedIn  Event = "SIGNED_IN"
	EventSignedOut Event = "SIGNED_OUT"
)

// Listener receives auth transitions. session is nil on EventSignedOut.
type Listener func(event Event, session *Session)

// State is the process-wide session holder. The zero value is ready to use.
//
// Thread-safety: all methods are safe for concurrent use. Listeners run on
// the caller's goroutine after the state lock is released, so a listener
// may read State (or even register another listener) without deadlocking.
type State struct {
	mu        sync.Mutex
	user      *User
	session   *Session
	listeners []*Subscription
	nextID    uint64
}

// NewState returns an empty, signed-out state.
func NewState() *State {
	return &State{}
}

// Subscription is the handle returned by AddListener.
type Subscription struct {
	state *State
	id    uint64
	fn    Listener
}

// Unsubscribe removes the listener. Calling it again is a no-op.
func (s *Subscription) Unsubscribe() {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	for i, l := range st.listeners {
		if l.id == s.id {
			st.listeners = append(st.listeners[:i:i], st.listeners[i+1:]...)
			return
		}
	}
}

// SetUser replaces the current identity and notifies every listener with
// EventSignedIn before returning.
func (st *State) SetUser(user *User, session *Session) {
	st.mu.Lock()
	st.user = cloneUser(user)
	st.session = cloneSession(session)
	if st.session != nil && st.session.User == nil {
		st.session.User = cloneUser(user)
	}
	snapshot := st.snapshot()
	current := cloneSession(st.session)
	st.mu.Unlock()

	notify(snapshot, EventSignedIn, current)
}

// ClearUser removes the current identity and notifies every listener with
// EventSignedOut before returning.
func (st *State) ClearUser() {
	st.mu.Lock()
	st.user = nil
	st.session = nil
	snapshot := st.snapshot()
	st.mu.Unlock()

	notify(snapshot, EventSignedOut, nil)
}

// AddListener registers fn and immediately invokes it once with the
// current state.
func (st *State) AddListener(fn Listener) *Subscription {
	st.mu.Lock()
	st.nextID++
	sub := &Subscription{state: st, id: st.nextID, fn: fn}
	st.listeners = append(st.listeners, sub)
	event, session := EventSignedOut, (*Session)(nil)
	if st.user != nil {
		event, session = EventSignedIn, cloneSession(st.session)
	}
	st.mu.Unlock()

	fn(event, session)
	return sub
}

// User returns a copy of the current user, or nil.
func (st *State) User() *User {
	st.mu.Lock()
	defer st.mu.Unlock()
	return cloneUser(st.user)
}

// Session returns a copy of the current session, or nil.
func (st *State) Session() *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return cloneSession(st.session)
}

// ListenerCount returns the number of registered listeners.
func (st *State) ListenerCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.listeners)
}

// Reset clears the identity and drops every listener without notifying
// them.
func (st *State) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.user = nil
	st.session = nil
	st.listeners = nil
}

// snapshot copies the listener list. Caller holds mu.
func (st *State) snapshot() []*Subscription {
	out := make([]*Subscription, len(st.listeners))
	copy(out, st.listeners)
	return out
}

func notify(subs []*Subscription, event Event, session *Session) {
	for _, s := range subs {
		s.fn(event, cloneSession(session))
	}
}
