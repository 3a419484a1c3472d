// Package realtime emulates named pub/sub channels.
//
// A Channel holds registrations keyed by (event type, filter). Its
// lifecycle is a small state machine:
//
//	created --subscribe--> subscribed --unsubscribe--> unsubscribed
//	created --unsubscribe--> unsubscribed
//
// Only a subscribed channel dispatches. Dispatch is synchronous: every
// matching callback runs, in registration order, before Send or Trigger
// returns. Unsubscribing clears the registrations and is terminal for that
// Channel value; asking the registry for the same name afterwards returns a
// fresh channel.
//
// Send routes by event type and the filter's "event" entry (absent, "*" or
// equal to the payload's "event"). Trigger is the test hook for simulating
// server pushes: it routes to the exact (event type, filter) registration.
package realtime
