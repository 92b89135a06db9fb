package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hongminglow/foodie-be/internal/models"
	"github.com/hongminglow/foodie-be/internal/session"
)

func TestDecide(t *testing.T) {
	anon := session.Session{State: session.Ready}
	user := session.Session{State: session.Ready, Identity: &models.Identity{ID: "u", Role: models.RoleUser}}
	admin := session.Session{State: session.Ready, Identity: &models.Identity{ID: "a", Role: models.RoleAdmin}}
	loading := session.Session{}
	failed := session.Session{State: session.Failed}

	tests := []struct {
		name string
		sess session.Session
		req  Requirement
		want Decision
	}{
		{"public anon", anon, Public, Decision{Outcome: Allow}},
		{"auth anon", anon, Authenticated, Decision{Outcome: Redirect, RedirectTo: "/login"}},
		{"auth user", user, Authenticated, Decision{Outcome: Allow}},
		{"admin anon", anon, Admin, Decision{Outcome: Redirect, RedirectTo: "/login"}},
		{"admin user", user, Admin, Decision{Outcome: Redirect, RedirectTo: "/"}},
		{"admin admin", admin, Admin, Decision{Outcome: Allow}},
		{"guest anon", anon, GuestOnly, Decision{Outcome: Allow}},
		{"guest user", user, GuestOnly, Decision{Outcome: Redirect, RedirectTo: "/"}},
		{"loading waits", loading, Authenticated, Decision{Outcome: Wait}},
		{"loading waits on public", loading, Public, Decision{Outcome: Wait}},
		{"failed waits", failed, Admin, Decision{Outcome: Wait}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.sess, tt.req))
		})
	}
}

func serve(h http.Handler, sess session.Session, path string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	r = r.WithContext(session.WithSession(r.Context(), sess))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestPageRedirects(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	user := session.Session{State: session.Ready, Identity: &models.Identity{ID: "u", Role: models.RoleUser}}
	anon := session.Session{State: session.Ready}

	w := serve(Page(Admin)(ok), user, "/dashboard/users")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = serve(Page(Authenticated)(ok), anon, "/cart-page")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = serve(Page(Authenticated)(ok), session.Session{}, "/cart-page")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = serve(Page(Authenticated)(ok), user, "/cart-page")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIStatuses(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	user := session.Session{State: session.Ready, Identity: &models.Identity{ID: "u", Role: models.RoleUser}}

	w := serve(API(Authenticated)(ok), session.Session{State: session.Ready}, "/api/cart")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"redirect":"/login"`)

	w = serve(API(Admin)(ok), user, "/api/dashboard/users")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"redirect":"/"`)

	w = serve(API(Admin)(ok), session.Session{State: session.Failed}, "/api/dashboard/users")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSettled(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Settled(w, r) {
			w.WriteHeader(http.StatusOK)
		}
	})

	w := serve(ok, session.Session{State: session.Failed}, "/api/cart")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	w = serve(ok, session.Session{}, "/api/cart")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = serve(ok, session.Session{State: session.Ready}, "/api/cart")
	assert.Equal(t, http.StatusOK, w.Code)
}
