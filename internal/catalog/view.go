package catalog

import (
	"github.com/angelmondragon/residence-portal/internal/viewstate"
	"github.com/angelmondragon/residence-portal/pkg/apiclient"
	"github.com/angelmondragon/residence-portal/pkg/enums"
	"github.com/angelmondragon/residence-portal/pkg/money"
	"github.com/shopspring/decimal"
)

// Item is one rendered catalog card.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Description string `json:"description,omitempty"`
	Available   bool   `json:"available"`
	// InCart is the quantity held in the last fetched cart. Display only.
	InCart   int  `json:"inCart"`
	CanOrder bool `json:"canOrder"`
}

// View is the catalog page model.
type View struct {
	Filter    enums.CategoryFilter                   `json:"filter"`
	Beverages *viewstate.State[[]apiclient.Beverage] `json:"beverages"`
	Cart      *viewstate.State[*apiclient.Cart]      `json:"cart"`
	Items     []Item                                 `json:"items"`
	CartLines int                                    `json:"cartLines"`
	CartTotal string                                 `json:"cartTotal"`
	Updating  bool                                   `json:"updating"`
	Filters   []enums.CategoryFilter                 `json:"filters"`
}

// Filter narrows the catalog to one category. No pagination.
func Filter(beverages []apiclient.Beverage, filter enums.CategoryFilter) []apiclient.Beverage {
	out := make([]apiclient.Beverage, 0, len(beverages))
	for _, b := range beverages {
		if filter.Matches(b.Category) {
			out = append(out, b)
		}
	}
	return out
}

func buildView(beverages *viewstate.State[[]apiclient.Beverage], carts *viewstate.State[*apiclient.Cart], filter enums.CategoryFilter, updating bool) *View {
	if filter == "" {
		filter = enums.CategoryFilterAll
	}
	view := &View{
		Filter:    filter,
		Beverages: beverages,
		Cart:      carts,
		Items:     []Item{},
		Updating:  updating,
		Filters:   enums.CategoryFilters(),
		CartTotal: money.Format(cartTotal(carts.Data)),
		CartLines: len(cartItems(carts.Data)),
	}
	for _, b := range Filter(beverages.Data, filter) {
		view.Items = append(view.Items, Item{
			ID:          b.ID,
			Name:        b.Name,
			Category:    b.Category.String(),
			Price:       money.Format(b.Price),
			Description: b.Description,
			Available:   b.IsAvailable,
			InCart:      carts.Data.QuantityOf(b.ID),
			CanOrder:    b.IsAvailable && !updating,
		})
	}
	return view
}

func cartItems(c *apiclient.Cart) []apiclient.CartItem {
	if c == nil {
		return nil
	}
	return c.Items
}

func cartTotal(c *apiclient.Cart) decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	return c.TotalAmount
}
