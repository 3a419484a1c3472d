package realtime

import (
	"log/slog"
	"sort"
	"sync"
)

// Realtime is the channel registry. Channels are singletons per name while
// they are live.
//
// Thread-safety: all methods are safe for concurrent use.
type Realtime struct {
	mu       sync.Mutex
	channels map[string]*Channel
	logger   *slog.Logger
}

// Option configures a Realtime.
type Option func(*Realtime)

// WithLogger sets the logger used by the registry and its channels.
func WithLogger(l *slog.Logger) Option {
	return func(r *Realtime) { r.logger = l }
}

// New creates an empty registry.
func New(opts ...Option) *Realtime {
	r := &Realtime{
		channels: make(map[string]*Channel),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Channel returns the live channel called name, creating it if there is
// none or the previous one was unsubscribed.
func (r *Realtime) Channel(name string) *Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.channels[name]; ok && ch.State() != StateUnsubscribed {
		return ch
	}
	ch := newChannel(name, r.logger)
	r.channels[name] = ch
	return ch
}

// Lookup returns the registered channel called name without creating one.
func (r *Realtime) Lookup(name string) (*Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[name]
	return ch, ok
}

// Channels returns the registered channel names in sorted order.
func (r *Realtime) Channels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Trigger injects an event on the named channel as if the server had
// pushed it. It reaches only registrations with exactly this event type
// and filter, and only while the channel is subscribed. A missing channel
// yields SendError.
func (r *Realtime) Trigger(channel, eventType string, filter, payload map[string]any) SendResult {
	ch, ok := r.Lookup(channel)
	if !ok {
		r.logger.Debug("trigger on unknown channel", "channel", channel)
		return SendError
	}
	return ch.trigger(eventType, filter, payload)
}

// RemoveChannel unsubscribes ch and forgets it.
func (r *Realtime) RemoveChannel(ch *Channel) SendResult {
	ch.Unsubscribe()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.channels[ch.name] == ch {
		delete(r.channels, ch.name)
	}
	return SendOK
}

// RemoveAllChannels unsubscribes and forgets every channel.
func (r *Realtime) RemoveAllChannels() []SendResult {
	r.mu.Lock()
	chans := make([]*Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		chans = append(chans, ch)
	}
	r.channels = make(map[string]*Channel)
	r.mu.Unlock()

	out := make([]SendResult, len(chans))
	for i, ch := range chans {
		ch.Unsubscribe()
		out[i] = SendOK
	}
	return out
}

// Reset is RemoveAllChannels without the result.
func (r *Realtime) Reset() {
	r.RemoveAllChannels()
}
