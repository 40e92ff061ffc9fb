// Package auth turns an authenticated session into the bearer credential
// required by every task operation.
package auth

import (
	"context"
	"strings"
)

// Session is what the caller's authentication provider hands us: a session
// id, the user it belongs to and, when the provider issued one, a token.
type Session struct {
	ID     string
	UserID string
	Token  string
}

// SessionSource yields the current session. A nil session with a nil error
// means nobody is signed in.
type SessionSource interface {
	Session(ctx context.Context) (*Session, error)
}

// StaticSource always returns the same session. Used by the CLI and the
// MCP server, where the token comes from a flag or the environment.
type StaticSource struct {
	S *Session
}

func (s StaticSource) Session(context.Context) (*Session, error) {
	if s.S == nil {
		return nil, nil
	}
	cp := *s.S
	return &cp, nil
}

// TokenSource builds a StaticSource from a raw bearer token. An empty
// token yields no session.
func TokenSource(token string) StaticSource {
	token = strings.TrimSpace(token)
	if token == "" {
		return StaticSource{}
	}
	return StaticSource{S: &Session{Token: token}}
}

type sessionKey struct{}

// WithSession stores the request's session in ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	if s == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored by WithSession, or nil.
func FromContext(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}

// ContextSource reads the session that HTTP middleware placed in ctx.
type ContextSource struct{}

func (ContextSource) Session(ctx context.Context) (*Session, error) {
	return FromContext(ctx), nil
}

// ExtractBearer returns the token part of an Authorization header value.
func ExtractBearer(header string) string {
	h := strings.TrimSpace(header)
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// SessionFromRequest assembles a session from the pieces of an incoming
// request. The Authorization header wins over the token cookie. A request
// that only carries the session id cookie gets a session without a token,
// which the Bridge refuses.
func SessionFromRequest(authHeader, tokenCookie, idCookie string) *Session {
	token := ExtractBearer(authHeader)
	if token == "" {
		token = strings.TrimSpace(tokenCookie)
	}
	id := strings.TrimSpace(idCookie)
	if token == "" && id == "" {
		return nil
	}
	return &Session{ID: id, Token: token}
}
