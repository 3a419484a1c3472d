package client

import (
	"context"
	"log/slog"

	"github.com/SpareCarry/sparecarry-sub004/internal/apierr"
	"github.com/SpareCarry/sparecarry-sub004/internal/auth"
	"github.com/SpareCarry/sparecarry-sub004/internal/query"
	"github.com/SpareCarry/sparecarry-sub004/internal/realtime"
	"github.com/SpareCarry/sparecarry-sub004/internal/record"
	"github.com/SpareCarry/sparecarry-sub004/internal/schema"
	"github.com/SpareCarry/sparecarry-sub004/internal/storage"
	"github.com/SpareCarry/sparecarry-sub004/internal/store"
)

// DefaultBaseURL is the base of fabricated auth and storage URLs.
const DefaultBaseURL = "http://localhost:54321"

type config struct {
	baseURL string
	logger  *slog.Logger
	clock   store.Clock
	ids     store.IDGenerator
	schemas *schema.Registry
}

// Option configures a Client.
type Option func(*config)

// WithBaseURL sets the base of fabricated URLs.
func WithBaseURL(u string) Option {
	return func(c *config) { c.baseURL = u }
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithClock sets the time source shared by every component.
func WithClock(clock store.Clock) Option {
	return func(c *config) { c.clock = clock }
}

// WithIDGenerator sets the id source for records and storage objects.
func WithIDGenerator(g store.IDGenerator) Option {
	return func(c *config) { c.ids = g }
}

// WithSchemas enables write validation against r.
func WithSchemas(r *schema.Registry) Option {
	return func(c *config) { c.schemas = r }
}

// RPCResult is the outcome of RPC.
type RPCResult struct {
	Data  any           `json:"data"`
	Error *apierr.Error `json:"error"`
}

// Client is one independent emulator bundle.
type Client struct {
	store    *store.Store
	auth     *auth.Client
	storage  *storage.Storage
	realtime *realtime.Realtime
	queryOpt []query.Option
	logger   *slog.Logger
}

// New creates a fresh bundle.
func New(opts ...Option) *Client {
	cfg := config{
		baseURL: DefaultBaseURL,
		logger:  slog.Default(),
		clock:   store.NewMonotonicClock(),
		ids:     store.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Client{
		store: store.New(store.WithClock(cfg.clock), store.WithIDGenerator(cfg.ids)),
		auth: auth.NewClient(auth.NewState(),
			auth.WithBaseURL(cfg.baseURL),
			auth.WithClock(cfg.clock),
			auth.WithLogger(cfg.logger),
		),
		storage: storage.New(
			storage.WithBaseURL(cfg.baseURL),
			storage.WithClock(cfg.clock),
			storage.WithIDGenerator(cfg.ids),
			storage.WithLogger(cfg.logger),
		),
		realtime: realtime.New(realtime.WithLogger(cfg.logger)),
		queryOpt: []query.Option{query.WithLogger(cfg.logger)},
		logger:   cfg.logger,
	}
	if cfg.schemas != nil {
		c.queryOpt = append(c.queryOpt, query.WithValidator(cfg.schemas))
	}
	return c
}

// From starts a query chain on table.
func (c *Client) From(table string) query.Builder {
	return query.New(c.store, table, c.queryOpt...)
}

// Auth returns the auth client.
func (c *Client) Auth() *auth.Client {
	return c.auth
}

// Storage returns the storage emulator.
func (c *Client) Storage() *storage.Storage {
	return c.storage
}

// Realtime returns the channel registry.
func (c *Client) Realtime() *realtime.Realtime {
	return c.realtime
}

// Channel is shorthand for Realtime().Channel(name).
func (c *Client) Channel(name string) *realtime.Channel {
	return c.realtime.Channel(name)
}

// RemoveChannel unsubscribes and forgets ch.
func (c *Client) RemoveChannel(ch *realtime.Channel) realtime.SendResult {
	return c.realtime.RemoveChannel(ch)
}

// RemoveAllChannels unsubscribes and forgets every channel.
func (c *Client) RemoveAllChannels() []realtime.SendResult {
	return c.realtime.RemoveAllChannels()
}

// RPC is a stub: every call resolves to empty data and no error.
func (c *Client) RPC(ctx context.Context, name string, params map[string]any) RPCResult {
	c.logger.DebugContext(ctx, "rpc stub called", "function", name, "params", len(params))
	return RPCResult{}
}

// Store returns the underlying record store.
func (c *Client) Store() *store.Store {
	return c.store
}

// Seed replaces a table's rows as-is, bypassing auto-fill and schemas.
func (c *Client) Seed(table string, rows []record.Record) {
	c.store.Seed(table, rows)
}

// Reset clears every table, the session and its listeners, every bucket
// and every channel.
func (c *Client) Reset() {
	c.store.Reset()
	c.auth.Reset()
	c.storage.Reset()
	c.realtime.Reset()
}
