package domain

import "context"

type Session struct {
	UserID      string
	AccessToken string
}

// IsAuthenticated reports whether s carries both a user id and an access
// token. A session missing either field is treated as absent.
func IsAuthenticated(s Session) bool {
	return s.UserID != "" && s.AccessToken != ""
}

// SessionStore persists the viewer session between requests. Implementations
// are bound to the request context.
type SessionStore interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}
