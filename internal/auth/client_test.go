package auth

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func newTestClient() *Client {
	return NewClient(NewState(),
		WithBaseURL("https://mock.supabase.test/"),
		WithClock(fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))),
		WithLogger(slog.New(slog.DiscardHandler)),
	)
}

func TestClient_GetUserSignedOut(t *testing.T) {
	c := newTestClient()

	res := c.GetUser(context.Background())

	assert.Nil(t, res.User)
	assert.Nil(t, res.Error)
	assert.Nil(t, c.GetSession(context.Background()).Session)
}

func TestClient_SignInAndOut(t *testing.T) {
	c := newTestClient()
	ctx := context.Background()
	var events []Event
	c.OnAuthStateChange(func(e Event, _ *Session) { events = append(events, e) })

	s := c.SignIn(testUser())
	require.NotNil(t, s)
	assert.Equal(t, time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC).Unix(), s.ExpiresAt)
	assert.Equal(t, "u1", c.GetUser(ctx).User.ID)
	assert.Equal(t, s.AccessToken, c.GetSession(ctx).Session.AccessToken)

	assert.Nil(t, c.SignOut(ctx))
	assert.Nil(t, c.GetUser(ctx).User)
	assert.Equal(t, []Event{EventSignedOut, EventSignedIn, EventSignedOut}, events)
}

func TestClient_SignInWithOtpRecords(t *testing.T) {
	c := newTestClient()
	ctx := context.Background()

	err := c.SignInWithOtp(ctx, OtpRequest{Email: "ana@example.com", Options: OtpOptions{ShouldCreateUser: true}})

	assert.Nil(t, err)
	assert.Nil(t, c.GetUser(ctx).User, "otp does not sign in")
	require.Len(t, c.OtpRequests(), 1)
	assert.Equal(t, "ana@example.com", c.OtpRequests()[0].Email)

	c.Reset()
	assert.Empty(t, c.OtpRequests())
}

func TestClient_SignInWithOAuth(t *testing.T) {
	tests := []struct {
		name string
		req  OAuthRequest
		want string
	}{
		{
			name: "provider only",
			req:  OAuthRequest{Provider: "google"},
			want: "https://mock.supabase.test/auth/v1/authorize?provider=google",
		},
		{
			name: "with redirect and scopes",
			req: OAuthRequest{Provider: "github", Options: OAuthOptions{
				RedirectTo: "https://app.test/callback?next=/trips",
				Scopes:     "read:user",
			}},
			want: "https://mock.supabase.test/auth/v1/authorize?provider=github" +
				"&redirect_to=https%3A%2F%2Fapp.test%2Fcallback%3Fnext%3D%2Ftrips&scopes=read%3Auser",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newTestClient().SignInWithOAuth(context.Background(), tt.req)
			assert.Nil(t, res.Error)
			assert.Equal(t, tt.req.Provider, res.Provider)
			assert.Equal(t, tt.want, res.URL)
		})
	}
}
