package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/tiendc/go-deepcopy"
)

// SessionTTL is how long a fabricated session stays valid.
const SessionTTL = time.Hour

// User is an authenticated identity.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	CreatedAt    string         `json:"created_at"`
	AppMetadata  map[string]any `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// Session is a signed-in user plus its token pair.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         *User  `json:"user"`
}

// NewSession fabricates a bearer session for user that expires SessionTTL
// after now. Tokens are random.
func NewSession(user *User, now time.Time) *Session {
	return &Session{
		AccessToken:  "mock-access-" + uuid.NewString(),
		RefreshToken: "mock-refresh-" + uuid.NewString(),
		TokenType:    "bearer",
		ExpiresIn:    int(SessionTTL / time.Second),
		ExpiresAt:    now.Add(SessionTTL).Unix(),
		User:         user,
	}
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || now.Unix() >= s.ExpiresAt
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	var out User
	if err := deepcopy.Copy(&out, u); err != nil {
		out = *u
	}
	return &out
}

func cloneSession(s *Session) *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.User = cloneUser(s.User)
	return &out
}
