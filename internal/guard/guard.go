// Package guard decides whether a session may reach a route.
package guard

import (
	"log/slog"
	"net/http"

	"github.com/hongminglow/foodie-be/internal/http/respond"
	"github.com/hongminglow/foodie-be/internal/session"
)

// Requirement is what a route demands of the session.
type Requirement int

const (
	Public Requirement = iota
	// GuestOnly routes (login, register, password reset) send signed-in users home.
	GuestOnly
	Authenticated
	Admin
)

// Redirect targets.
const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Outcome is the verdict for one request.
type Outcome int

const (
	Allow Outcome = iota
	Redirect
	// Wait means the session is not settled; the caller must not guess.
	Wait
)

// Decision is the result of Decide.
type Decision struct {
	Outcome    Outcome
	RedirectTo string
}

// Decide evaluates req against sess.
func Decide(sess session.Session, req Requirement) Decision {
	if sess.State != session.Ready {
		return Decision{Outcome: Wait}
	}
	identity := sess.Current()
	switch req {
	case GuestOnly:
		if identity != nil {
			return Decision{Outcome: Redirect, RedirectTo: HomePath}
		}
	case Authenticated:
		if identity == nil {
			return Decision{Outcome: Redirect, RedirectTo: LoginPath}
		}
	case Admin:
		if identity == nil {
			return Decision{Outcome: Redirect, RedirectTo: LoginPath}
		}
		if !identity.IsAdmin() {
			return Decision{Outcome: Redirect, RedirectTo: HomePath}
		}
	}
	return Decision{Outcome: Allow}
}

// Page guards browser routes with HTTP redirects.
func Page(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := Decide(session.FromContext(r.Context()), req)
			switch d.Outcome {
			case Redirect:
				http.Redirect(w, r, d.RedirectTo, http.StatusFound)
			case Wait:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session unavailable, try again", http.StatusServiceUnavailable)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// API guards JSON routes. Redirects become 401 or 403 envelopes that carry
// the target so clients can navigate.
func API(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.FromContext(r.Context())
			d := Decide(sess, req)
			switch d.Outcome {
			case Redirect:
				status, message := http.StatusForbidden, "forbidden"
				if sess.Current() == nil {
					status, message = http.StatusUnauthorized, "login required"
				}
				slog.Warn("auth_denied", "path", r.URL.Path, "required", req.String(), "redirect", d.RedirectTo)
				respond.JSON(w, status, message, map[string]string{"redirect": d.RedirectTo})
			case Wait:
				writeWait(w)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// Settled answers 503 and returns false while the request session is not
// Ready. Public JSON routes that branch on the identity call it first.
func Settled(w http.ResponseWriter, r *http.Request) bool {
	if session.FromContext(r.Context()).State == session.Ready {
		return true
	}
	writeWait(w)
	return false
}

func writeWait(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "1")
	respond.Error(w, http.StatusServiceUnavailable, "session unavailable, try again")
}

func (r Requirement) String() string {
	switch r {
	case GuestOnly:
		return "guest"
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	default:
		return "public"
	}
}
