// Package catalog filters, sorts and paginates the menu in memory.
package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/hongminglow/foodie-be/internal/models"
)

// PageSize is the number of items on one catalog page.
const PageSize = 9

// AllCategories selects the whole menu.
const AllCategories = "all"

// SortOption orders the catalog.
type SortOption string

const (
	SortDefault   SortOption = "default"
	SortNameAsc   SortOption = "A-Z"
	SortNameDesc  SortOption = "Z-A"
	SortPriceAsc  SortOption = "low-to-high"
	SortPriceDesc SortOption = "high-to-low"
)

// ParseSort maps unknown or empty input to SortDefault.
func ParseSort(s string) SortOption {
	switch opt := SortOption(strings.TrimSpace(s)); opt {
	case SortNameAsc, SortNameDesc, SortPriceAsc, SortPriceDesc:
		return opt
	}
	return SortDefault
}

// Filter returns the items of category, or all of them for "all" or "".
func Filter(items []models.MenuItem, category string) []models.MenuItem {
	if category == "" || category == AllCategories {
		return slices.Clone(items)
	}
	out := make([]models.MenuItem, 0, len(items))
	for _, item := range items {
		if string(item.Category) == category {
			out = append(out, item)
		}
	}
	return out
}

// Sort returns a reordered copy of items. SortDefault keeps the input order.
func Sort(items []models.MenuItem, opt SortOption) []models.MenuItem {
	out := slices.Clone(items)
	switch opt {
	case SortNameAsc:
		slices.SortStableFunc(out, func(a, b models.MenuItem) int { return compareNames(a, b) })
	case SortNameDesc:
		slices.SortStableFunc(out, func(a, b models.MenuItem) int { return compareNames(b, a) })
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b models.MenuItem) int { return cmp.Compare(a.Price, b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b models.MenuItem) int { return cmp.Compare(b.Price, a.Price) })
	}
	return out
}

func compareNames(a, b models.MenuItem) int {
	return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
}

// PageCount is ceil(n / PageSize).
func PageCount(n int) int {
	return (n + PageSize - 1) / PageSize
}

// Paginate returns the 1-indexed page of items. Out-of-range pages are empty.
func Paginate(items []models.MenuItem, page int) []models.MenuItem {
	if page < 1 {
		return []models.MenuItem{}
	}
	start := (page - 1) * PageSize
	if start >= len(items) {
		return []models.MenuItem{}
	}
	end := min(start+PageSize, len(items))
	return slices.Clone(items[start:end])
}
