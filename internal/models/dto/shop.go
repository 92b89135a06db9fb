package dto

import "github.com/hongminglow/foodie-be/internal/models"

// MenuPage is one page of the filtered and sorted catalog.
type MenuPage struct {
	Items      []models.MenuItem `json:"items"`
	Category   string            `json:"category"`
	Sort       string            `json:"sort"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
	TotalItems int               `json:"totalItems"`
}

type AddToCartRequest struct {
	ItemID string `json:"itemId"`
}

// CartView is what the cart page renders.
type CartView struct {
	Items       []models.CartLine `json:"items"`
	TotalItems  int               `json:"totalItems"`
	TotalAmount float64           `json:"totalAmount"`
}

// CartCount is pushed on the cart count stream.
type CartCount struct {
	Count int `json:"count"`
}

type StatusRequest struct {
	Status models.OrderStatus `json:"status"`
}
