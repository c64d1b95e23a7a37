// Package guard gates protected views on the presence of a session. The
// decision mirrors the server's own auth check but runs locally, before any
// request is issued, so the shell can redirect instead of rendering a view
// that is guaranteed to fail.
package guard

import (
	"log/slog"

	"inkwell/internal/platform/logger"
	"inkwell/internal/session"
)

// LoginRoute is where denied navigations are redirected.
const LoginRoute = "/login"

// Decision is the outcome of a navigation check.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// Sessions is the slice of the session manager the guard consumes.
type Sessions interface {
	Authenticated() bool
	TokenExpired() bool
}

// Guard decides whether protected views may render.
type Guard struct {
	sessions Sessions
	log      *slog.Logger

	// When set, a present but expired token is treated as anonymous.
	rejectExpired bool
}

// Option configures a Guard.
type Option func(*Guard)

func WithLogger(log *slog.Logger) Option {
	return func(g *Guard) {
		g.log = log
	}
}

// RejectExpiredTokens makes the guard treat an expired token as no session.
// Off by default: the server remains the authority on token validity and the
// guard only checks presence.
func RejectExpiredTokens() Option {
	return func(g *Guard) {
		g.rejectExpired = true
	}
}

func New(sessions Sessions, opts ...Option) *Guard {
	g := &Guard{sessions: sessions, log: logger.Discard()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authenticated reports whether a session is present, honoring the expiry
// policy.
func (g *Guard) Authenticated() bool {
	if !g.sessions.Authenticated() {
		return false
	}
	if g.rejectExpired && g.sessions.TokenExpired() {
		return false
	}
	return true
}

// Check decides a navigation. Public views always render; protected views
// require a session and otherwise redirect to the login route.
func (g *Guard) Check(protected bool) Decision {
	if !protected || g.Authenticated() {
		return Decision{Allowed: true}
	}
	g.log.Debug("protected view denied, redirecting", "to", LoginRoute)
	return Decision{Allowed: false, RedirectTo: LoginRoute}
}

// Protect is shorthand for checking a protected view.
func (g *Guard) Protect() Decision {
	return g.Check(true)
}

var _ Sessions = (*session.Manager)(nil)
