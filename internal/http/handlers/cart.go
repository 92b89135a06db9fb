package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/hongminglow/foodie-be/internal/cart"
	"github.com/hongminglow/foodie-be/internal/guard"
	"github.com/hongminglow/foodie-be/internal/http/respond"
	"github.com/hongminglow/foodie-be/internal/models"
	"github.com/hongminglow/foodie-be/internal/models/dto"
	"github.com/hongminglow/foodie-be/internal/session"
)

const (
	mustLogInMessage     = "Please log in to add items to the cart."
	alreadyInCartMessage = "This item is already in your cart."

	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

// CartHandler serves the cart page, checkout and the cart count stream.
type CartHandler struct {
	cart     *cart.Service
	upgrader websocket.Upgrader
}

// NewCartHandler builds the handler. allowedOrigins gates websocket upgrades
// the same way CORS gates XHR: listed origins may use the session cookie,
// "*" admits other origins only when they present an explicit token.
func NewCartHandler(cart *cart.Service, allowedOrigins []string) *CartHandler {
	allowAll := slices.Contains(allowedOrigins, "*")
	return &CartHandler{
		cart: cart,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || sameHost(origin, r.Host) {
					return true
				}
				if slices.ContainsFunc(allowedOrigins, func(o string) bool {
					return strings.EqualFold(strings.TrimRight(o, "/"), origin)
				}) {
					return true
				}
				_, err := r.Cookie(session.CookieName)
				return allowAll && err != nil
			},
		},
	}
}

func sameHost(origin, host string) bool {
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, host)
}

// Routes attaches /api/cart.
func (h *CartHandler) Routes(r chi.Router) {
	r.Post("/", h.handleAdd)
	r.Group(func(r chi.Router) {
		r.Use(guard.API(guard.Authenticated))
		r.Get("/", h.handleView)
		r.Delete("/{id}", h.handleRemove)
		r.Post("/checkout", h.handleCheckout)
		r.Get("/count", h.handleCount)
		r.Get("/count/ws", h.handleCountStream)
	})
}

func (h *CartHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	if !guard.Settled(w, r) {
		return
	}
	var req dto.AddToCartRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	line, err := h.cart.Add(r.Context(), currentIdentity(r), req.ItemID)
	switch {
	case err == nil:
		respond.JSON(w, http.StatusCreated, "Item added to cart", line)
	case errors.Is(err, cart.ErrMustLogIn):
		respond.JSON(w, http.StatusUnauthorized, mustLogInMessage, map[string]string{"redirect": guard.LoginPath})
	case errors.Is(err, cart.ErrAlreadyInCart):
		respond.Error(w, http.StatusConflict, alreadyInCartMessage)
	default:
		storeError(w, r, "add to cart", err, "failed to add item to cart")
	}
}

func (h *CartHandler) handleView(w http.ResponseWriter, r *http.Request) {
	lines, err := h.cart.Lines(r.Context(), mustIdentity(r).ID)
	if err != nil {
		respond.Internal(w, r, "list cart", err, "failed to load cart")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", cartView(lines))
}

func (h *CartHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	remaining, err := h.cart.Remove(r.Context(), mustIdentity(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		storeError(w, r, "remove cart line", err, "failed to remove item")
		return
	}
	respond.JSON(w, http.StatusOK, "Your item has been deleted.", cartView(remaining))
}

func (h *CartHandler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	order, err := h.cart.Checkout(r.Context(), mustIdentity(r))
	if err != nil {
		if errors.Is(err, cart.ErrEmptyCart) {
			respond.Error(w, http.StatusBadRequest, "Your cart is empty.")
			return
		}
		respond.Internal(w, r, "checkout", err, "There was an error placing your order. Please try again.")
		return
	}
	respond.JSON(w, http.StatusCreated, "Your order has been placed!", order)
}

func (h *CartHandler) handleCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.cart.Count(r.Context(), mustIdentity(r).ID)
	if err != nil {
		respond.Internal(w, r, "count cart", err, "failed to count cart")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.CartCount{Count: count})
}

// handleCountStream pushes {"count":n} whenever the user's cart changes.
// The subscription lives exactly as long as the connection.
func (h *CartHandler) handleCountStream(w http.ResponseWriter, r *http.Request) {
	userID := mustIdentity(r).ID
	sub, err := h.cart.Subscribe(r.Context(), userID)
	if err != nil {
		storeError(w, r, "subscribe cart count", err, "failed to open cart stream")
		return
	}
	defer sub.Stop()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "ws upgrade failed", "uid", userID, "err", err)
		return
	}
	defer conn.Close()
	// Reads fail once a pong is overdue; each pong pushes the deadline out.
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case count, ok := <-sub.C:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(dto.CartCount{Count: count}); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func cartView(lines []models.CartLine) dto.CartView {
	if lines == nil {
		lines = []models.CartLine{}
	}
	return dto.CartView{Items: lines, TotalItems: len(lines), TotalAmount: models.LinesTotal(lines)}
}

