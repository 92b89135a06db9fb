package catalog

import "github.com/hongminglow/foodie-be/internal/models"

// View is the browsing state of one catalog screen. Sorting works on the
// currently filtered list and changing the category drops the sort.
// Query.Apply drives a View per request; clients that keep state across
// interactions follow the same transitions. A View is not safe for
// concurrent use.
type View struct {
	base     []models.MenuItem
	current  []models.MenuItem
	category string
	sort     SortOption
	page     int
}

// NewView returns an empty view showing every category.
func NewView() *View {
	return &View{category: AllCategories, sort: SortDefault, page: 1}
}

// Load replaces the base list in fetch order and resets the view.
func (v *View) Load(items []models.MenuItem) {
	v.base = append([]models.MenuItem(nil), items...)
	v.Filter(AllCategories)
}

// Filter selects a category from the base list.
func (v *View) Filter(category string) {
	v.category = category
	v.current = Filter(v.base, category)
	v.sort = SortDefault
	v.page = 1
}

// Sort reorders the current list in place of the previous order.
func (v *View) Sort(opt SortOption) {
	v.sort = opt
	v.current = Sort(v.current, opt)
	v.page = 1
}

// SetPage moves to page n; values outside 1..PageCount are ignored.
func (v *View) SetPage(n int) {
	if n < 1 || n > v.PageCount() {
		return
	}
	v.page = n
}

func (v *View) Category() string { return v.category }

func (v *View) Sorting() SortOption { return v.sort }

func (v *View) CurrentPage() int { return v.page }

// PageCount is the number of pages of the current list.
func (v *View) PageCount() int { return PageCount(len(v.current)) }

// Items is the whole filtered and sorted list.
func (v *View) Items() []models.MenuItem {
	return append([]models.MenuItem(nil), v.current...)
}

// Page is the slice of Items shown on the current page.
func (v *View) Page() []models.MenuItem {
	return Paginate(v.current, v.page)
}
