package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/looplab/fsm"

	"github.com/SpareCarry/sparecarry-sub004/internal/record"
)

// Channel lifecycle states.
const (
	StateCreated      = "created"
	StateSubscribed   = "subscribed"
	StateUnsubscribed = "unsubscribed"
)

const (
	eventSubscribe   = "subscribe"
	eventUnsubscribe = "unsubscribe"
)

// Status is reported to Subscribe's status callback.
type Status string

const (
	StatusSubscribed Status = "SUBSCRIBED"
	StatusClosed     Status = "CLOSED"
)

// SendResult is the outcome of Send and Trigger.
type SendResult string

const (
	SendOK    SendResult = "ok"
	SendError SendResult = "error"
)

// Callback receives a dispatched payload. Each callback gets its own copy.
type Callback func(payload record.Record)

type binding struct {
	eventType string
	filter    record.Record
	key       string
	fn        Callback
}

// Channel is one named event-routing unit. Obtain channels from
// Realtime.Channel.
//
// Thread-safety: all methods are safe for concurrent use. Callbacks run
// without the channel lock held, so they may call back into the channel.
type Channel struct {
	name    string
	logger  *slog.Logger
	machine *fsm.FSM

	mu       sync.Mutex
	bindings []*binding
}

func newChannel(name string, logger *slog.Logger) *Channel {
	ch := &Channel{name: name, logger: logger}
	ch.machine = fsm.NewFSM(
		StateCreated,
		fsm.Events{
			{Name: eventSubscribe, Src: []string{StateCreated}, Dst: StateSubscribed},
			{Name: eventUnsubscribe, Src: []string{StateCreated, StateSubscribed}, Dst: StateUnsubscribed},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				ch.logger.Debug("channel state changed", "channel", name, "from", e.Src, "to", e.Dst)
			},
		},
	)
	return ch
}

// Name returns the channel name.
func (ch *Channel) Name() string {
	return ch.name
}

// State returns the lifecycle state.
func (ch *Channel) State() string {
	return ch.machine.Current()
}

// On registers fn for eventType and filter and returns the channel for
// chaining. A nil filter is the same as an empty one.
func (ch *Channel) On(eventType string, filter map[string]any, fn Callback) *Channel {
	f := record.New(filter)
	b := &binding{eventType: eventType, filter: f, key: compositeKey(eventType, f), fn: fn}

	ch.mu.Lock()
	ch.bindings = append(ch.bindings, b)
	ch.mu.Unlock()
	return ch
}

// Subscribe activates the channel and reports StatusSubscribed to statusFn
// (which may be nil) before returning. Subscribing an already subscribed
// channel reports StatusSubscribed again; an unsubscribed channel reports
// StatusClosed and stays closed.
func (ch *Channel) Subscribe(statusFn func(Status)) *Channel {
	status := StatusSubscribed
	switch ch.machine.Current() {
	case StateCreated:
		if err := ch.machine.Event(context.Background(), eventSubscribe); err != nil {
			ch.logger.Warn("subscribe failed", "channel", ch.name, "error", err)
			status = StatusClosed
		}
	case StateUnsubscribed:
		status = StatusClosed
	}
	if statusFn != nil {
		statusFn(status)
	}
	return ch
}

// Unsubscribe deactivates the channel and drops every registration.
// Calling it again is a no-op.
func (ch *Channel) Unsubscribe() {
	if ch.machine.Can(eventUnsubscribe) {
		if err := ch.machine.Event(context.Background(), eventUnsubscribe); err != nil {
			ch.logger.Warn("unsubscribe failed", "channel", ch.name, "error", err)
		}
	}
	ch.mu.Lock()
	ch.bindings = nil
	ch.mu.Unlock()
}

// Send delivers payload to every registration for eventType whose filter
// accepts it. On a channel that is not subscribed nothing is delivered and
// SendError is returned.
func (ch *Channel) Send(eventType string, payload map[string]any) SendResult {
	p := record.New(payload)
	return ch.dispatch("send", p, func(b *binding) bool {
		return b.eventType == eventType && acceptsEvent(b.filter, p)
	})
}

// trigger delivers payload to the registrations with exactly this event
// type and filter.
func (ch *Channel) trigger(eventType string, filter, payload map[string]any) SendResult {
	key := compositeKey(eventType, record.New(filter))
	return ch.dispatch("trigger", record.New(payload), func(b *binding) bool {
		return b.key == key
	})
}

func (ch *Channel) dispatch(via string, payload record.Record, match func(*binding) bool) SendResult {
	if ch.machine.Current() != StateSubscribed {
		ch.logger.Debug("dispatch on inactive channel", "channel", ch.name, "via", via, "state", ch.machine.Current())
		return SendError
	}

	ch.mu.Lock()
	var targets []Callback
	for _, b := range ch.bindings {
		if match(b) {
			targets = append(targets, b.fn)
		}
	}
	ch.mu.Unlock()

	for _, fn := range targets {
		fn(record.Clone(payload))
	}
	ch.logger.Debug("dispatched", "channel", ch.name, "via", via, "callbacks", len(targets))
	return SendOK
}

// BindingCount returns the number of registrations.
func (ch *Channel) BindingCount() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.bindings)
}

// compositeKey identifies a registration: the event type plus the
// canonical JSON of its filter.
func compositeKey(eventType string, filter record.Record) string {
	return eventType + "|" + record.Key(filter)
}

// acceptsEvent reports whether a filter's "event" entry admits the payload.
func acceptsEvent(filter, payload record.Record) bool {
	want, ok := filter["event"]
	if !ok || want == nil || want == "*" {
		return true
	}
	return record.Equal(want, payload["event"])
}
