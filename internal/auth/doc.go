// Package auth holds the emulator's single current session and the auth
// client surface built on top of it.
//
// State is the session holder. At most one identity is signed in at a time.
// Listeners are notified synchronously, in registration order, on every
// sign-in and sign-out, and once immediately when they register so a late
// subscriber always learns the current state:
//
//	sub := state.AddListener(func(ev auth.Event, s *auth.Session) { ... })
//	// ev is EventSignedOut and s is nil if nobody is signed in yet
//	defer sub.Unsubscribe()
//
// Client mirrors the hosted auth API. SignInWithOtp and SignInWithOAuth are
// stubs: the first records the request for later inspection, the second
// fabricates the authorize URL a browser would be sent to. Neither signs
// anybody in; tests drive sign-in through State.SetUser (or the testutil
// helpers).
package auth
