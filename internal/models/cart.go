package models

import "time"

// CartLine is a pending item owned by one user. The menu fields are a copy
// taken when the line was added.
type CartLine struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ItemID    string    `json:"itemId"`
	Name      string    `json:"name"`
	Category  Category  `json:"category"`
	Price     float64   `json:"price"`
	Recipe    string    `json:"recipe"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}

// LinesTotal sums the prices of lines.
func LinesTotal(lines []CartLine) float64 {
	var total float64
	for _, line := range lines {
		total += line.Price
	}
	return total
}
