package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SpareCarry/sparecarry-sub004/internal/auth"
	"github.com/SpareCarry/sparecarry-sub004/internal/record"
)

func TestNewClient_IsDeterministic(t *testing.T) {
	a := MockInsert(t, NewClient(t), "trips", record.Record{"origin": "Lisbon"})
	b := MockInsert(t, NewClient(t), "trips", record.Record{"origin": "Lisbon"})

	assert.Equal(t, a, b)
	assert.Equal(t, "00000000-0000-7000-8000-000000000001", a[0].ID())
	assert.Equal(t, "2024-01-01T00:00:00.001000Z", a[0][record.FieldCreatedAt])
}

func TestMockUserLoginLogout(t *testing.T) {
	c := NewClient(t)
	events := MockAuthEvents(c)

	s := MockUserLogin(c, &auth.User{Email: "ana@example.com"})
	require.NotNil(t, s)
	user := c.Auth().GetUser(context.Background()).User
	require.NotNil(t, user)
	assert.Equal(t, "test-user-id", user.ID)
	assert.Equal(t, "ana@example.com", user.Email)

	MockUserLogout(c)
	assert.Nil(t, c.Auth().GetUser(context.Background()).User)

	assert.Equal(t, []auth.Event{auth.EventSignedOut, auth.EventSignedIn, auth.EventSignedOut}, events.Events())
	sessions := events.Sessions()
	assert.Nil(t, sessions[0])
	assert.Equal(t, s.AccessToken, sessions[1].AccessToken)

	events.Stop()
	MockUserLogin(c, nil)
	assert.Len(t, events.Events(), 3)
}

func TestMockCRUD(t *testing.T) {
	c := NewClient(t)

	rows := MockInsert(t, c, "trips", record.Record{"id": "t1", "status": "open"}, record.Record{"id": "t2", "status": "open"})
	require.Len(t, rows, 2)

	updated := MockUpdate(t, c, "trips", "t1", record.Record{"status": "closed"})
	assert.Equal(t, "closed", updated["status"])

	assert.True(t, MockDelete(c, "trips", "t2"))
	assert.False(t, MockDelete(c, "trips", "t2"))

	remaining := MockSelect(c, "trips")
	require.Len(t, remaining, 1)
	assert.Equal(t, "closed", remaining[0]["status"])
}

func TestMockStorageUpload_Overwrites(t *testing.T) {
	c := NewClient(t)

	first := MockStorageUpload(t, c, "avatars", "u1.png", []byte("a"))
	second := MockStorageUpload(t, c, "avatars", "u1.png", []byte("b"))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, []byte("b"), c.Storage().From("avatars").Download(context.Background(), "u1.png").Data)
}

func TestMockUpdate_SeededFutureUpdatedAt(t *testing.T) {
	c := NewClient(t)
	c.Seed("trips", []record.Record{{"id": "t1", "updated_at": "2025-03-01T00:00:00.000000Z"}})

	got := MockUpdate(t, c, "trips", "t1", record.Record{"b": 3})

	assert.Greater(t, got[record.FieldUpdatedAt], "2025-03-01T00:00:00.000000Z")
	assert.Equal(t, int64(3), got["b"])
}
