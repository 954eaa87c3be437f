package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/angelmondragon/residence-portal/pkg/enums"
	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
)

const (
	pathLogin              = "/api/auth/login"
	pathBeverages          = "/api/rooftop/beverages"
	pathCart               = "/api/rooftop/cart"
	pathCartItems          = "/api/rooftop/cart/items"
	pathCheckout           = "/api/rooftop/cart/checkout"
	pathConsumptionHistory = "/api/rooftop/consumption/history"
	pathConsumptionFlat    = "/api/rooftop/consumption"
	pathConsumptionLegacy  = "/api/tenant/beverage-consumption"
)

// consumptionPaths maps each source to its endpoint.
var consumptionPaths = map[enums.ConsumptionSource]string{
	enums.ConsumptionSourceHistory: pathConsumptionHistory,
	enums.ConsumptionSourceFlat:    pathConsumptionFlat,
	enums.ConsumptionSourceLegacy:  pathConsumptionLegacy,
}

// consumptionListKeys are the object keys under which a source may nest its records.
var consumptionListKeys = []string{"records", "consumptions", "history", "items"}

// Login exchanges tenant credentials for a bearer token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}
	var out LoginResult
	if err := c.call(ctx, "login", http.MethodPost, pathLogin, req, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "login response missing token")
	}
	return &out, nil
}

// ListBeverages fetches the full catalog.
func (c *Client) ListBeverages(ctx context.Context) ([]Beverage, error) {
	var out []Beverage
	if err := c.call(ctx, "list_beverages", http.MethodGet, pathBeverages, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Beverage{}
	}
	return out, nil
}

// GetCart fetches the tenant's active cart.
func (c *Client) GetCart(ctx context.Context) (*Cart, error) {
	var out Cart
	if err := c.call(ctx, "get_cart", http.MethodGet, pathCart, nil, &out); err != nil {
		return nil, err
	}
	return normalizeCart(&out), nil
}

// AddCartItem adds quantity units of a beverage to the active cart.
func (c *Client) AddCartItem(ctx context.Context, beverageID string, quantity int) (*Cart, error) {
	if strings.TrimSpace(beverageID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "beverage id is required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	var out Cart
	body := AddItemRequest{BeverageID: beverageID, Quantity: quantity}
	if err := c.call(ctx, "add_cart_item", http.MethodPost, pathCartItems, body, &out); err != nil {
		return nil, err
	}
	return normalizeCart(&out), nil
}

// UpdateCartItem sets the quantity of one cart line.
func (c *Client) UpdateCartItem(ctx context.Context, itemID string, quantity int) (*Cart, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	var out Cart
	path := pathCartItems + "/" + url.PathEscape(itemID)
	if err := c.call(ctx, "update_cart_item", http.MethodPut, path, UpdateItemRequest{Quantity: quantity}, &out); err != nil {
		return nil, err
	}
	return normalizeCart(&out), nil
}

// RemoveCartItem deletes one cart line.
func (c *Client) RemoveCartItem(ctx context.Context, itemID string) (*Cart, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	var out Cart
	path := pathCartItems + "/" + url.PathEscape(itemID)
	if err := c.call(ctx, "remove_cart_item", http.MethodDelete, path, nil, &out); err != nil {
		return nil, err
	}
	return normalizeCart(&out), nil
}

// Checkout converts the active cart into consumption records.
func (c *Client) Checkout(ctx context.Context) (*CheckoutResult, error) {
	var out CheckoutResult
	if err := c.call(ctx, "checkout", http.MethodPost, pathCheckout, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConsumptionRecords reads the tenant's consumption history from one source.
func (c *Client) ConsumptionRecords(ctx context.Context, source enums.ConsumptionSource) ([]RawRecord, error) {
	path, ok := consumptionPaths[source]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown consumption source")
	}
	var data json.RawMessage
	if err := c.call(ctx, "consumption_"+source.String(), http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	records, err := decodeRecords(data)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode consumption records")
	}
	return records, nil
}

// decodeRecords accepts a bare array or an object nesting the array under
// one of consumptionListKeys.
func decodeRecords(data json.RawMessage) ([]RawRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if isNull(trimmed) {
		return []RawRecord{}, nil
	}
	if trimmed[0] == '[' {
		var records []RawRecord
		if err := decodeJSON(trimmed, &records); err != nil {
			return nil, err
		}
		return records, nil
	}
	var wrapper map[string]json.RawMessage
	if err := decodeJSON(trimmed, &wrapper); err != nil {
		return nil, err
	}
	for _, key := range consumptionListKeys {
		if nested, ok := wrapper[key]; ok {
			return decodeRecords(nested)
		}
	}
	return nil, errUnrecognizedPayload
}

var errUnrecognizedPayload = pkgerrors.New(pkgerrors.CodeDependency, "unrecognized consumption payload")

func normalizeCart(cart *Cart) *Cart {
	if cart.Items == nil {
		cart.Items = []CartItem{}
	}
	return cart
}
