// Package session resolves the signed-in identity of a request. A session is
// Loading until resolution finishes, then Ready (with or without an
// identity) or Failed when the backend could not be reached.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hongminglow/foodie-be/internal/models"
	"github.com/hongminglow/foodie-be/internal/storage"
)

// CookieName is the cookie carrying the session token for page requests.
const CookieName = "session"

// State is the lifecycle phase of a Session.
type State int

const (
	Loading State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "loading"
	}
}

// Session is the read-only view of who is making a request.
type Session struct {
	State    State
	Identity *models.Identity
	Err      error
}

// IsLoading reports whether the identity is not yet known.
func (s Session) IsLoading() bool {
	return s.State == Loading
}

// Current returns the signed-in identity, or nil.
func (s Session) Current() *models.Identity {
	if s.State != Ready {
		return nil
	}
	return s.Identity
}

// TokenVerifier extracts the identity id from a session token.
type TokenVerifier interface {
	Subject(token string) (string, error)
}

// IdentityLookup loads an identity with its current role.
type IdentityLookup interface {
	Lookup(ctx context.Context, id string) (models.Identity, error)
}

// Resolver turns request credentials into a settled Session.
type Resolver struct {
	tokens     TokenVerifier
	identities IdentityLookup
}

// NewResolver creates a Resolver.
func NewResolver(tokens TokenVerifier, identities IdentityLookup) *Resolver {
	return &Resolver{tokens: tokens, identities: identities}
}

// Resolve settles the session for r. It never returns a Loading session.
func (res *Resolver) Resolve(r *http.Request) Session {
	token := TokenFromRequest(r)
	if token == "" {
		return Session{State: Ready}
	}
	id, err := res.tokens.Subject(token)
	if err != nil {
		return Session{State: Ready}
	}
	identity, err := res.identities.Lookup(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{State: Ready}
		}
		slog.Error("resolve session", "uid", id, "err", err)
		return Session{State: Failed, Err: err}
	}
	return Session{State: Ready, Identity: &identity}
}

// Middleware resolves the session once per request and stores it in the context.
func (res *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := res.Resolve(r)
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// TokenFromRequest reads the bearer header, then the session cookie, then
// the token query parameter used by websocket clients.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

type ctxKey struct{}

// WithSession returns a context carrying sess.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the request session. Without one the session is Loading.
func FromContext(ctx context.Context) Session {
	sess, _ := ctx.Value(ctxKey{}).(Session)
	return sess
}
