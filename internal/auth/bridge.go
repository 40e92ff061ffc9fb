package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rcliao/todo-bridge/internal/model"
)

// Credential is the bearer form of a session, ready to send to the task API.
type Credential struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// Header returns the Authorization header value.
func (c *Credential) Header() string {
	return "Bearer " + c.Token
}

// Attach sets the Authorization header on req.
func (c *Credential) Attach(req *http.Request) {
	req.Header.Set("Authorization", c.Header())
}

// Resolver is implemented by Bridge. The gateway depends on this so tests
// can substitute a fixed credential.
type Resolver interface {
	ResolveCredential(ctx context.Context) (*Credential, error)
}

// Bridge resolves the current session into a Credential.
type Bridge struct {
	source   SessionSource
	verifier *Verifier
	logger   *slog.Logger
}

// NewBridge returns a Bridge. With a nil verifier the token is passed
// through unverified and the user id is read from its sub claim; that mode
// is only for clients whose server verifies the token itself.
func NewBridge(source SessionSource, verifier *Verifier, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{source: source, verifier: verifier, logger: logger}
}

// ResolveCredential reads the session and returns its credential. No
// session, a session without a token, or a token that fails verification
// all yield model.ErrUnauthenticated. The session is never modified.
func (b *Bridge) ResolveCredential(ctx context.Context) (*Credential, error) {
	sess, err := b.source.Session(ctx)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if sess == nil {
		return nil, fmt.Errorf("no session: %w", model.ErrUnauthenticated)
	}

	token := strings.TrimSpace(sess.Token)
	if token == "" {
		b.logger.Warn("session has no token, refusing to use session id as credential", "session_id", sess.ID)
		return nil, fmt.Errorf("session carries no token: %w", model.ErrUnauthenticated)
	}

	if b.verifier == nil {
		sub, err := PeekSubject(token)
		if err != nil {
			sub = sess.UserID
		}
		if sub == "" {
			return nil, fmt.Errorf("token has no subject: %w", model.ErrUnauthenticated)
		}
		return &Credential{UserID: sub, Token: token}, nil
	}

	claims, err := b.verifier.Verify(token)
	if err != nil {
		b.logger.Debug("token rejected", "session_id", sess.ID, "error", err)
		return nil, fmt.Errorf("%v: %w", err, model.ErrUnauthenticated)
	}
	if sess.UserID != "" && sess.UserID != claims.Subject {
		return nil, fmt.Errorf("session user does not match token subject: %w", model.ErrUnauthenticated)
	}

	cred := &Credential{UserID: claims.Subject, Token: token}
	if claims.ExpiresAt != nil {
		cred.ExpiresAt = claims.ExpiresAt.Time
	}
	return cred, nil
}
