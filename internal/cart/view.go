package cart

import (
	"fmt"

	"github.com/angelmondragon/residence-portal/internal/viewstate"
	"github.com/angelmondragon/residence-portal/pkg/apiclient"
	"github.com/angelmondragon/residence-portal/pkg/money"
	"github.com/shopspring/decimal"
)

// Line is one rendered cart row.
type Line struct {
	ID           string `json:"id"`
	BeverageID   string `json:"beverageId"`
	Name         string `json:"name"`
	Category     string `json:"category,omitempty"`
	Quantity     int    `json:"quantity"`
	UnitPrice    string `json:"unitPrice"`
	TotalPrice   string `json:"totalPrice"`
	CanDecrement bool   `json:"canDecrement"`
	CanIncrement bool   `json:"canIncrement"`
	CanRemove    bool   `json:"canRemove"`
}

// View is the cart page model.
type View struct {
	State           *viewstate.State[*apiclient.Cart] `json:"state"`
	Lines           []Line                            `json:"lines"`
	ItemCount       int                               `json:"itemCount"`
	Total           string                            `json:"total"`
	Updating        bool                              `json:"updating"`
	CheckoutEnabled bool                              `json:"checkoutEnabled"`
}

// Confirmation is shown before a destructive cart action is issued.
type Confirmation struct {
	ItemCount int    `json:"itemCount"`
	Total     string `json:"total"`
	Text      string `json:"text"`
}

// RemoveConfirmation is shown before a line is removed.
type RemoveConfirmation struct {
	Line Line   `json:"line"`
	Text string `json:"text"`
}

func buildView(state *viewstate.State[*apiclient.Cart], updating bool) *View {
	view := &View{State: state, Updating: updating, Lines: []Line{}, Total: money.Format(decimal.Zero)}
	cart := state.Data
	if cart == nil {
		return view
	}
	for _, item := range cart.Items {
		view.Lines = append(view.Lines, toLine(item, updating))
	}
	view.ItemCount = ItemCount(cart)
	view.Total = money.Format(cart.TotalAmount)
	view.CheckoutEnabled = !updating && !cart.Empty() && cart.Status.Open() && !state.Failed()
	return view
}

func toLine(item apiclient.CartItem, updating bool) Line {
	line := Line{
		ID:           item.ID,
		BeverageID:   item.BeverageID,
		Name:         item.DisplayName(),
		Quantity:     item.Quantity,
		UnitPrice:    money.Format(item.UnitPrice),
		TotalPrice:   money.Format(item.TotalPrice),
		CanDecrement: !updating && item.Quantity > 1,
		CanIncrement: !updating,
		CanRemove:    !updating,
	}
	if item.Beverage != nil {
		line.Category = item.Beverage.Category.String()
	}
	return line
}

// ItemCount is the number of lines in the cart, the count shown in the
// checkout confirmation.
func ItemCount(cart *apiclient.Cart) int {
	if cart == nil {
		return 0
	}
	return len(cart.Items)
}

func checkoutConfirmation(cart *apiclient.Cart) *Confirmation {
	count := ItemCount(cart)
	total := money.Format(cart.TotalAmount)
	return &Confirmation{
		ItemCount: count,
		Total:     total,
		Text:      fmt.Sprintf("Checkout %d %s for a total of %s? The amount will be added to your utility bill.", count, plural(count, "item", "items"), total),
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
