package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/foodie-be/internal/guard"
	"github.com/hongminglow/foodie-be/internal/http/respond"
	"github.com/hongminglow/foodie-be/internal/orders"
)

// OrdersHandler serves the signed-in customer's order history.
type OrdersHandler struct {
	orders *orders.Service
}

func NewOrdersHandler(orders *orders.Service) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

func (h *OrdersHandler) Routes(r chi.Router) {
	r.With(guard.API(guard.Authenticated)).Get("/", h.handleList)
}

func (h *OrdersHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.orders.ListForUser(r.Context(), mustIdentity(r).ID)
	if err != nil {
		respond.Internal(w, r, "list orders", err, "failed to load orders")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", list)
}
