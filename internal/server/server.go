package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hongminglow/foodie-be/internal/auth"
	"github.com/hongminglow/foodie-be/internal/cart"
	"github.com/hongminglow/foodie-be/internal/config"
	"github.com/hongminglow/foodie-be/internal/events"
	"github.com/hongminglow/foodie-be/internal/http/handlers"
	"github.com/hongminglow/foodie-be/internal/http/respond"
	"github.com/hongminglow/foodie-be/internal/identity"
	"github.com/hongminglow/foodie-be/internal/menu"
	"github.com/hongminglow/foodie-be/internal/middleware"
	"github.com/hongminglow/foodie-be/internal/orders"
	"github.com/hongminglow/foodie-be/internal/session"
	"github.com/hongminglow/foodie-be/internal/storage"
	"github.com/hongminglow/foodie-be/internal/upload"
	"github.com/hongminglow/foodie-be/internal/users"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// Options overrides collaborators that are normally built from config.
type Options struct {
	Mailer   identity.Mailer
	Uploader menu.Uploader
}

// New wires up services, middleware and routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, publisher events.Publisher, opts Options) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Router(cfg, store, publisher, opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return &Server{inner: httpServer}
}

// Router builds the full handler tree.
func Router(cfg config.Config, store storage.Store, publisher events.Publisher, opts Options) http.Handler {
	if opts.Mailer == nil {
		opts.Mailer = identity.NewMailer(cfg.SMTP)
	}
	if opts.Uploader == nil {
		opts.Uploader = upload.NewClient(cfg.ImageUploadURL, cfg.ImageUploadKey)
	}
	if publisher == nil {
		publisher = events.LogPublisher{}
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	accounts := identity.NewService(store, opts.Mailer, cfg.ResetTokenTTL, cfg.ResetURLBase)
	resolver := session.NewResolver(tokens, accounts)

	menuSvc := menu.NewService(store, opts.Uploader)
	cartSvc := cart.NewService(store, cart.NewNotifier(), publisher)
	orderSvc := orders.NewService(store, orders.PolicyFor(cfg.StrictOrderTransitions), publisher)
	userSvc := users.NewService(store)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(resolver.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	handlers.NewHealthHandler(time.Now(), cfg.StorageDriver).Routes(r)
	handlers.NewPagesHandler(cfg.StaticDir).Routes(r)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", handlers.NewAuthHandler(accounts, tokens, cfg.CookieSecure).Routes)
		r.Route("/menu", handlers.NewMenuHandler(menuSvc).Routes)
		r.Route("/cart", handlers.NewCartHandler(cartSvc, cfg.CORSOrigins).Routes)
		r.Route("/orders", handlers.NewOrdersHandler(orderSvc).Routes)
		r.Route("/dashboard", handlers.NewAdminHandler(menuSvc, orderSvc, userSvc).Routes)
	})
	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
