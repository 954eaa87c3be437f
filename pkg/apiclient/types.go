package apiclient

import (
	"github.com/angelmondragon/residence-portal/pkg/enums"
	"github.com/angelmondragon/residence-portal/pkg/session"
	"github.com/shopspring/decimal"
)

// Beverage is a catalog entry as served by the backend.
type Beverage struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Category    enums.BeverageCategory `json:"category"`
	Price       decimal.Decimal        `json:"price"`
	IsAvailable bool                   `json:"isAvailable"`
	Description string                 `json:"description,omitempty"`
}

// BeverageRef is the beverage summary embedded in cart lines.
type BeverageRef struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Category enums.BeverageCategory `json:"category"`
}

// CartItem is one line of the active cart.
type CartItem struct {
	ID         string          `json:"id"`
	BeverageID string          `json:"beverageId"`
	Beverage   *BeverageRef    `json:"beverage,omitempty"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// DisplayName prefers the embedded beverage name.
func (i CartItem) DisplayName() string {
	if i.Beverage != nil && i.Beverage.Name != "" {
		return i.Beverage.Name
	}
	return i.BeverageID
}

// BeverageKey is the beverage id of the line, read from the embedded
// beverage when the flat field is absent.
func (i CartItem) BeverageKey() string {
	if i.BeverageID == "" && i.Beverage != nil {
		return i.Beverage.ID
	}
	return i.BeverageID
}

// Cart is the tenant's active cart. Totals are the server's.
type Cart struct {
	ID          string           `json:"id"`
	Items       []CartItem       `json:"items"`
	TotalAmount decimal.Decimal  `json:"totalAmount"`
	Status      enums.CartStatus `json:"status,omitempty"`
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return c == nil || len(c.Items) == 0
}

// QuantityOf returns the quantity held for a beverage across lines.
func (c *Cart) QuantityOf(beverageID string) int {
	if c == nil {
		return 0
	}
	total := 0
	for _, item := range c.Items {
		if item.BeverageKey() == beverageID {
			total += item.Quantity
		}
	}
	return total
}

// AddItemRequest is the body of POST /api/rooftop/cart/items.
type AddItemRequest struct {
	BeverageID string `json:"beverageId"`
	Quantity   int    `json:"quantity"`
}

// UpdateItemRequest is the body of PUT /api/rooftop/cart/items/{itemId}.
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

// BillSummary is the utility bill a checkout was linked to.
type BillSummary struct {
	ID            string          `json:"id"`
	BillingPeriod string          `json:"billingPeriod"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Status        string          `json:"status,omitempty"`
}

// CheckoutResult is returned by POST /api/rooftop/cart/checkout.
type CheckoutResult struct {
	TotalItems     int             `json:"totalItems"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	ConsumptionIDs []string        `json:"consumptionIds"`
	Bill           *BillSummary    `json:"bill,omitempty"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult carries the bearer token and cached user object.
type LoginResult struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

// RawRecord is a consumption record in whatever shape the source returned.
// Numbers are decoded as json.Number.
type RawRecord map[string]any
