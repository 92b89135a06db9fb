package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/foodie-be/internal/catalog"
	"github.com/hongminglow/foodie-be/internal/http/respond"
	"github.com/hongminglow/foodie-be/internal/menu"
	"github.com/hongminglow/foodie-be/internal/models/dto"
)

// MenuHandler serves the public catalog.
type MenuHandler struct {
	menu *menu.Service
}

func NewMenuHandler(menu *menu.Service) *MenuHandler {
	return &MenuHandler{menu: menu}
}

// Routes attaches /api/menu.
func (h *MenuHandler) Routes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
}

// handleList loads the whole menu and pages it in memory:
// ?category=all|salad|... &sort=default|A-Z|Z-A|low-to-high|high-to-low &page=1
func (h *MenuHandler) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.List(r.Context())
	if err != nil {
		respond.Internal(w, r, "list menu", err, "failed to load menu")
		return
	}
	q := r.URL.Query()
	query := catalog.ParseQuery(q.Get("category"), q.Get("sort"), q.Get("page"))
	result := query.Apply(items)
	respond.JSON(w, http.StatusOK, "ok", dto.MenuPage{
		Items:      result.Items,
		Category:   query.Category,
		Sort:       string(query.Sort),
		Page:       result.Page,
		PageSize:   catalog.PageSize,
		TotalPages: result.TotalPages,
		TotalItems: result.TotalItems,
	})
}

func (h *MenuHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	item, err := h.menu.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		storeError(w, r, "get menu item", err, "failed to load menu item")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", item)
}
