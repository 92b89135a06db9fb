package models

import "time"

// Category groups menu items on the storefront.
type Category string

const (
	CategorySalad   Category = "salad"
	CategoryPizza   Category = "pizza"
	CategorySoup    Category = "soup"
	CategoryDessert Category = "dessert"
	CategoryDrinks  Category = "drinks"
	CategoryPopular Category = "popular"
)

// Categories lists every category in storefront order.
var Categories = []Category{
	CategorySalad,
	CategoryPizza,
	CategorySoup,
	CategoryDessert,
	CategoryDrinks,
	CategoryPopular,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// MenuItem is one orderable dish.
type MenuItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  Category  `json:"category"`
	Price     float64   `json:"price"`
	Recipe    string    `json:"recipe"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}

// MenuItemUpdate carries the fields an admin may edit. Nil means unchanged.
type MenuItemUpdate struct {
	Name   *string  `json:"name"`
	Price  *float64 `json:"price"`
	Image  *string  `json:"image"`
	Recipe *string  `json:"recipe"`
}
