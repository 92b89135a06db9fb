package catalog

import (
	"strconv"

	"github.com/hongminglow/foodie-be/internal/models"
)

// Query is a stateless catalog request: filter, then sort, then paginate.
type Query struct {
	Category string
	Sort     SortOption
	Page     int
}

// Result is one page plus the totals of the filtered list.
type Result struct {
	Items      []models.MenuItem
	Page       int
	TotalPages int
	TotalItems int
}

// ParseQuery reads category, sort and page values as given on a URL.
func ParseQuery(category, sort, page string) Query {
	q := Query{Category: category, Sort: ParseSort(sort), Page: 1}
	if q.Category == "" {
		q.Category = AllCategories
	}
	if n, err := strconv.Atoi(page); err == nil {
		q.Page = n
	}
	return q
}

// Apply replays the query on a fresh View over items in fetch order.
// A page outside the list yields no items but keeps the totals.
func (q Query) Apply(items []models.MenuItem) Result {
	v := NewView()
	v.Load(items)
	v.Filter(q.Category)
	v.Sort(q.Sort)

	res := Result{
		Items:      []models.MenuItem{},
		Page:       q.Page,
		TotalPages: v.PageCount(),
		TotalItems: len(v.current),
	}
	if q.Page >= 1 && q.Page <= res.TotalPages {
		v.SetPage(q.Page)
		res.Items = v.Page()
	}
	return res
}
