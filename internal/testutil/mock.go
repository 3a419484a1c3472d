package testutil

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SpareCarry/sparecarry-sub004/internal/auth"
	"github.com/SpareCarry/sparecarry-sub004/internal/client"
	"github.com/SpareCarry/sparecarry-sub004/internal/record"
	"github.com/SpareCarry/sparecarry-sub004/internal/storage"
)

// NewClient returns a deterministic emulator bundle: DeterministicClock
// timestamps, SequentialIDs ids and a discarding logger. Extra options are
// applied after the defaults. The bundle is reset when the test ends.
func NewClient(t testing.TB, opts ...client.Option) *client.Client {
	t.Helper()
	defaults := []client.Option{
		client.WithClock(NewDeterministicClock()),
		client.WithIDGenerator(NewSequentialIDs()),
		client.WithLogger(slog.New(slog.DiscardHandler)),
	}
	c := client.New(append(defaults, opts...)...)
	t.Cleanup(c.Reset)
	return c
}

// MockUserLogin signs user in with a fresh session. Empty ID and Email are
// filled with "test-user-id" and "test@example.com".
func MockUserLogin(c *client.Client, user *auth.User) *auth.Session {
	u := &auth.User{ID: "test-user-id", Email: "test@example.com"}
	if user != nil {
		copied := *user
		u = &copied
		if u.ID == "" {
			u.ID = "test-user-id"
		}
		if u.Email == "" {
			u.Email = "test@example.com"
		}
	}
	if u.CreatedAt == "" {
		u.CreatedAt = record.FormatTime(Epoch)
	}
	return c.Auth().SignIn(u)
}

// MockUserLogout signs the current user out.
func MockUserLogout(c *client.Client) {
	c.Auth().SignOut(context.Background())
}

// MockInsert inserts rows through the query builder and fails the test on
// error. It returns the stored rows including generated fields.
func MockInsert(t testing.TB, c *client.Client, table string, rows ...record.Record) []record.Record {
	t.Helper()
	res := c.From(table).Insert(rows...).Execute(context.Background())
	require.Nil(t, res.Error, "insert into %s", table)
	return res.Data
}

// MockSelect returns every row of table.
func MockSelect(c *client.Client, table string) []record.Record {
	return c.Store().Get(table)
}

// MockUpdate merges partial into the row with id and fails the test when
// there is no such row.
func MockUpdate(t testing.TB, c *client.Client, table, id string, partial record.Record) record.Record {
	t.Helper()
	rec, ok := c.Store().Update(table, id, partial)
	require.True(t, ok, "update %s/%s: no such row", table, id)
	return rec
}

// MockDelete removes the row with id and reports whether it existed.
func MockDelete(c *client.Client, table, id string) bool {
	return c.Store().Delete(table, id)
}

// MockStorageUpload stores data at bucket/path, overwriting any existing
// object, and fails the test on error.
func MockStorageUpload(t testing.TB, c *client.Client, bucket, path string, data []byte) storage.UploadData {
	t.Helper()
	res := c.Storage().From(bucket).Upload(context.Background(), path, data, storage.UploadOptions{Upsert: true})
	require.Nil(t, res.Error, "upload %s/%s", bucket, path)
	return *res.Data
}

// AuthEvents records auth transitions. Create with MockAuthEvents.
type AuthEvents struct {
	mu       sync.Mutex
	events   []auth.Event
	sessions []*auth.Session
	sub      *auth.Subscription
}

// MockAuthEvents subscribes a recorder to c's auth state. The recorder
// sees the replayed current state first.
func MockAuthEvents(c *client.Client) *AuthEvents {
	rec := &AuthEvents{}
	rec.sub = c.Auth().OnAuthStateChange(func(e auth.Event, s *auth.Session) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.events = append(rec.events, e)
		rec.sessions = append(rec.sessions, s)
	})
	return rec
}

// Events returns the recorded events in order.
func (r *AuthEvents) Events() []auth.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]auth.Event(nil), r.events...)
}

// Sessions returns the session delivered with each event (nil for
// sign-outs).
func (r *AuthEvents) Sessions() []*auth.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*auth.Session(nil), r.sessions...)
}

// Stop unsubscribes the recorder.
func (r *AuthEvents) Stop() {
	r.sub.Unsubscribe()
}
