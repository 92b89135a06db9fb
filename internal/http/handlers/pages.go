package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/foodie-be/internal/guard"
	"github.com/hongminglow/foodie-be/internal/http/respond"
	"github.com/hongminglow/foodie-be/internal/session"
)

// PageRoute is one browser route of the storefront.
type PageRoute struct {
	Path    string
	Require guard.Requirement
}

// PageRoutes lists every storefront page and who may open it.
var PageRoutes = []PageRoute{
	{"/", guard.Public},
	{"/menu", guard.Public},
	{"/order", guard.Public},
	{"/cart-page", guard.Authenticated},
	{"/login", guard.GuestOnly},
	{"/register", guard.GuestOnly},
	{"/forget-password", guard.GuestOnly},
	{"/dashboard", guard.Admin},
	{"/dashboard/add-menu", guard.Admin},
	{"/dashboard/users", guard.Admin},
	{"/dashboard/manage-items", guard.Admin},
	{"/dashboard/manage-orders", guard.Admin},
	{"/dashboard/*", guard.Admin},
}

// PagesHandler gates page routes and serves the single page bundle behind them.
type PagesHandler struct {
	staticDir string
}

// NewPagesHandler serves index.html and assets from staticDir. With an empty
// staticDir the allowed page answers with a JSON route descriptor.
func NewPagesHandler(staticDir string) *PagesHandler {
	return &PagesHandler{staticDir: staticDir}
}

func (h *PagesHandler) Routes(r chi.Router) {
	for _, page := range PageRoutes {
		r.With(guard.Page(page.Require)).Get(page.Path, h.serveApp(page))
	}
	if h.staticDir != "" {
		r.Handle("/assets/*", http.FileServer(http.Dir(h.staticDir)))
	}
}

func (h *PagesHandler) serveApp(page PageRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.staticDir != "" {
			index := filepath.Join(h.staticDir, "index.html")
			if _, err := os.Stat(index); err == nil {
				http.ServeFile(w, r, index)
				return
			}
		}
		data := map[string]any{
			"path":     page.Path,
			"requires": page.Require.String(),
		}
		if identity := session.FromContext(r.Context()).Current(); identity != nil {
			data["user"] = identity
		}
		respond.JSON(w, http.StatusOK, "ok", data)
	}
}
