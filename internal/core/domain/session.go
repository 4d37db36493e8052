package domain

import "errors"

// ErrCallbackReplayed marks a duplicate OAuth callback completion. The first
// completion for a given state wins; replays are dropped without touching the
// session and without surfacing an error to the user.
var ErrCallbackReplayed = errors.New("oauth callback already processed")

// Session is the current actor's identity, token, and auth status. It is a
// plain value: guard and permission checks take it as an explicit argument
// rather than reading ambient global state, so they stay pure and testable.
type Session struct {
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	GroupID       string `json:"grupo_id,omitempty"`
	Token         string `json:"-"`
	Authenticated bool   `json:"authenticated"`
}

// AnonymousSession is the unauthenticated default. An empty role is not in the
// permission table, so every capability check on it fails closed.
func AnonymousSession() Session {
	return Session{}
}

// Valid reports whether the session is well formed enough to authenticate a
// request. A session claiming authenticated without a role or token is
// malformed and treated as anonymous by the guard.
func (s Session) Valid() bool {
	return s.Authenticated && s.Role != "" && s.Token != "" && s.UserID != ""
}
