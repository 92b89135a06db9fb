package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/foodie-be/internal/export"
	"github.com/hongminglow/foodie-be/internal/guard"
	"github.com/hongminglow/foodie-be/internal/http/respond"
	"github.com/hongminglow/foodie-be/internal/menu"
	"github.com/hongminglow/foodie-be/internal/models"
	"github.com/hongminglow/foodie-be/internal/models/dto"
	"github.com/hongminglow/foodie-be/internal/orders"
	"github.com/hongminglow/foodie-be/internal/upload"
	"github.com/hongminglow/foodie-be/internal/users"
)

const maxFormBytes = upload.MaxImageBytes + 1<<20

const imageTooLargeMessage = "Image must be 8 MB or smaller."

// AdminHandler backs the dashboard editors. Every write answers with the
// re-fetched list so the table can be redrawn from it.
type AdminHandler struct {
	menu   *menu.Service
	orders *orders.Service
	users  *users.Service
}

func NewAdminHandler(menu *menu.Service, orders *orders.Service, users *users.Service) *AdminHandler {
	return &AdminHandler{menu: menu, orders: orders, users: users}
}

// Routes attaches /api/dashboard. Every route requires an admin.
func (h *AdminHandler) Routes(r chi.Router) {
	r.Use(guard.API(guard.Admin))

	r.Post("/add-menu", h.handleAddMenu)

	r.Get("/manage-items", h.handleListItems)
	r.Get("/manage-items/export", h.handleExportItems)
	r.Get("/manage-items/{id}", h.handleGetItem)
	r.Put("/manage-items/{id}", h.handleUpdateItem)
	r.Delete("/manage-items/{id}", h.handleDeleteItem)

	r.Get("/users", h.handleListUsers)
	r.Post("/users/{id}/toggle-role", h.handleToggleRole)
	r.Delete("/users/{id}", h.handleDeleteUser)

	r.Get("/manage-orders", h.handleListOrders)
	r.Get("/manage-orders/export", h.handleExportOrders)
	r.Patch("/manage-orders/{id}/status", h.handleSetStatus)
	r.Delete("/manage-orders/{id}", h.handleDeleteOrder)
}

// handleAddMenu accepts multipart form data (name, category, price, recipe,
// image file) or a JSON body with an image URL.
func (h *AdminHandler) handleAddMenu(w http.ResponseWriter, r *http.Request) {
	var (
		draft menu.Draft
		file  *menu.ImageFile
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseMultipartForm(upload.MaxImageBytes); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid form data")
			return
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("price")), 64)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "price must be a number")
			return
		}
		draft = menu.Draft{
			Name:     r.FormValue("name"),
			Category: models.Category(r.FormValue("category")),
			Price:    price,
			Recipe:   r.FormValue("recipe"),
			Image:    r.FormValue("image_url"),
		}
		if f, header, err := r.FormFile("image"); err == nil {
			defer f.Close()
			if header.Size > upload.MaxImageBytes {
				respond.Error(w, http.StatusRequestEntityTooLarge, imageTooLargeMessage)
				return
			}
			file = &menu.ImageFile{Filename: header.Filename, Body: f}
		}
	} else {
		var body struct {
			Name     string          `json:"name"`
			Category models.Category `json:"category"`
			Price    float64         `json:"price"`
			Recipe   string          `json:"recipe"`
			Image    string          `json:"image"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		draft = menu.Draft(body)
	}

	item, err := h.menu.Create(r.Context(), draft, file)
	switch {
	case err == nil:
		respond.JSON(w, http.StatusCreated, "Your Item has been inserted successfully!", item)
	case errors.Is(err, menu.ErrInvalidItem):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, upload.ErrImageTooLarge):
		respond.Error(w, http.StatusRequestEntityTooLarge, imageTooLargeMessage)
	case errors.Is(err, upload.ErrUploadRejected), errors.Is(err, upload.ErrDisabled):
		respond.Error(w, http.StatusBadGateway, err.Error())
	default:
		respond.Internal(w, r, "create menu item", err, "Something went wrong while adding the item!")
	}
}

func (h *AdminHandler) handleListItems(w http.ResponseWriter, r *http.Request) {
	h.writeItems(w, r, http.StatusOK, "ok")
}

func (h *AdminHandler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.menu.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		storeError(w, r, "get menu item", err, "failed to load menu item")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", item)
}

func (h *AdminHandler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var update models.MenuItemUpdate
	if !decodeJSON(w, r, &update) {
		return
	}
	if _, err := h.menu.Update(r.Context(), chi.URLParam(r, "id"), update); err != nil {
		if errors.Is(err, menu.ErrInvalidItem) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		storeError(w, r, "update menu item", err, "failed to update menu item")
		return
	}
	h.writeItems(w, r, http.StatusOK, "Item updated")
}

func (h *AdminHandler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.menu.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		storeError(w, r, "delete menu item", err, "failed to delete menu item")
		return
	}
	h.writeItems(w, r, http.StatusOK, "Item deleted")
}

func (h *AdminHandler) handleExportItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.List(r.Context())
	if err != nil {
		respond.Internal(w, r, "list menu", err, "failed to load menu")
		return
	}
	var buf bytes.Buffer
	if err := export.Menu(&buf, items); err != nil {
		respond.Internal(w, r, "export menu", err, "failed to build workbook")
		return
	}
	writeWorkbook(w, "menu", buf.Bytes())
}

func (h *AdminHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	h.writeUsers(w, r, http.StatusOK, "ok")
}

func (h *AdminHandler) handleToggleRole(w http.ResponseWriter, r *http.Request) {
	if _, err := h.users.ToggleRole(r.Context(), chi.URLParam(r, "id")); err != nil {
		storeError(w, r, "toggle role", err, "Failed to update user role. Please try again.")
		return
	}
	h.writeUsers(w, r, http.StatusOK, "User role updated")
}

func (h *AdminHandler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), mustIdentity(r), chi.URLParam(r, "id")); err != nil {
		storeError(w, r, "delete user", err, "failed to delete user")
		return
	}
	h.writeUsers(w, r, http.StatusOK, "User deleted")
}

func (h *AdminHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	h.writeOrders(w, r, http.StatusOK, "ok")
}

func (h *AdminHandler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	_, err := h.orders.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	switch {
	case err == nil:
		h.writeOrders(w, r, http.StatusOK, fmt.Sprintf("Order %s", req.Status))
	case errors.Is(err, orders.ErrInvalidStatus):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrInvalidTransition):
		respond.Error(w, http.StatusConflict, err.Error())
	default:
		storeError(w, r, "set order status", err, "failed to update order")
	}
}

func (h *AdminHandler) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		storeError(w, r, "delete order", err, "failed to delete order")
		return
	}
	h.writeOrders(w, r, http.StatusOK, "Order deleted")
}

func (h *AdminHandler) handleExportOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.orders.ListAll(r.Context())
	if err != nil {
		respond.Internal(w, r, "list orders", err, "failed to load orders")
		return
	}
	var buf bytes.Buffer
	if err := export.Orders(&buf, list); err != nil {
		respond.Internal(w, r, "export orders", err, "failed to build workbook")
		return
	}
	writeWorkbook(w, "orders", buf.Bytes())
}

func (h *AdminHandler) writeItems(w http.ResponseWriter, r *http.Request, status int, message string) {
	items, err := h.menu.List(r.Context())
	if err != nil {
		respond.Internal(w, r, "list menu", err, "failed to load menu")
		return
	}
	respond.JSON(w, status, message, items)
}

func (h *AdminHandler) writeUsers(w http.ResponseWriter, r *http.Request, status int, message string) {
	list, err := h.users.List(r.Context())
	if err != nil {
		respond.Internal(w, r, "list users", err, "failed to load users")
		return
	}
	respond.JSON(w, status, message, list)
}

func (h *AdminHandler) writeOrders(w http.ResponseWriter, r *http.Request, status int, message string) {
	list, err := h.orders.ListAll(r.Context())
	if err != nil {
		respond.Internal(w, r, "list orders", err, "failed to load orders")
		return
	}
	respond.JSON(w, status, message, list)
}

func writeWorkbook(w http.ResponseWriter, name string, data []byte) {
	filename := fmt.Sprintf("%s-%s.xlsx", name, time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
