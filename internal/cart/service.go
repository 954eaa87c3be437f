// Package cart implements the tenant cart view: the active cart, quantity
// changes, removals and checkout. Totals always come from the backend.
package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/residence-portal/internal/viewstate"
	"github.com/angelmondragon/residence-portal/pkg/apiclient"
	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	"github.com/angelmondragon/residence-portal/pkg/logger"
)

type backend interface {
	GetCart(ctx context.Context) (*apiclient.Cart, error)
	UpdateCartItem(ctx context.Context, itemID string, quantity int) (*apiclient.Cart, error)
	RemoveCartItem(ctx context.Context, itemID string) (*apiclient.Cart, error)
	Checkout(ctx context.Context) (*apiclient.CheckoutResult, error)
}

// Service exposes the cart view operations.
type Service interface {
	Load(ctx context.Context) *View
	UpdateQuantity(ctx context.Context, itemID string, quantity int) (*apiclient.Cart, error)
	ConfirmRemove(ctx context.Context, itemID string) (*RemoveConfirmation, error)
	RemoveItem(ctx context.Context, itemID string) (*apiclient.Cart, error)
	ConfirmCheckout(ctx context.Context) (*Confirmation, error)
	Checkout(ctx context.Context) (*CheckoutOutcome, error)
}

// CheckoutOutcome is the result of a successful checkout.
type CheckoutOutcome struct {
	Result  *apiclient.CheckoutResult
	Cart    *apiclient.Cart
	Message string
}

type service struct {
	api       backend
	locker    Locker
	snapshots *Snapshots
	logg      *logger.Logger
}

// NewService builds the cart service.
func NewService(api backend, locker Locker, snapshots *Snapshots, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("backend client required")
	}
	if locker == nil {
		return nil, fmt.Errorf("locker required")
	}
	if snapshots == nil {
		return nil, fmt.Errorf("cart snapshots required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{api: api, locker: locker, snapshots: snapshots, logg: logg}, nil
}

// Load fetches the active cart. A missing cart is an empty state; other
// failures fall back to the stored snapshot.
func (s *service) Load(ctx context.Context) *View {
	state := viewstate.New[*apiclient.Cart]()
	state.Begin()
	cart, err := s.fetch(ctx)
	if err != nil {
		if snapshot, ok := s.snapshots.Load(ctx); ok {
			state.FailWith(UserMessage(err, MsgLoadFailed), snapshot)
		} else {
			state.Fail(UserMessage(err, MsgLoadFailed))
		}
	} else {
		state.Succeed(cart)
	}
	return buildView(state, Updating(ctx, s.locker))
}

// fetch reads the cart and refreshes the snapshot.
func (s *service) fetch(ctx context.Context) (*apiclient.Cart, error) {
	cart, err := s.api.GetCart(ctx)
	if err != nil {
		if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, err
		}
		cart = &apiclient.Cart{Items: []apiclient.CartItem{}}
	}
	s.remember(ctx, cart)
	return cart, nil
}

func (s *service) remember(ctx context.Context, cart *apiclient.Cart) {
	if err := s.snapshots.Save(ctx, cart); err != nil {
		s.logg.Warn(s.logg.WithError(ctx, err), "failed to store cart snapshot")
	}
}

func (s *service) UpdateQuantity(ctx context.Context, itemID string, quantity int) (*apiclient.Cart, error) {
	if quantity < 1 {
		return nil, ErrQuantityTooLow
	}
	var updated *apiclient.Cart
	err := WithLock(ctx, s.locker, func() error {
		cart, err := s.api.UpdateCartItem(ctx, strings.TrimSpace(itemID), quantity)
		if err != nil {
			return err
		}
		updated = cart
		s.remember(ctx, cart)
		return nil
	})
	return updated, err
}

// ConfirmRemove describes the line about to be removed without mutating.
func (s *service) ConfirmRemove(ctx context.Context, itemID string) (*RemoveConfirmation, error) {
	cart, ok := s.snapshots.Load(ctx)
	if !ok {
		var err error
		if cart, err = s.fetch(ctx); err != nil {
			return nil, err
		}
	}
	for _, item := range cart.Items {
		if item.ID == itemID {
			line := toLine(item, false)
			return &RemoveConfirmation{
				Line: line,
				Text: fmt.Sprintf("Remove %s (x%d, %s) from your cart?", line.Name, line.Quantity, line.TotalPrice),
			}, nil
		}
	}
	return nil, ErrItemNotFound
}

func (s *service) RemoveItem(ctx context.Context, itemID string) (*apiclient.Cart, error) {
	var updated *apiclient.Cart
	err := WithLock(ctx, s.locker, func() error {
		cart, err := s.api.RemoveCartItem(ctx, strings.TrimSpace(itemID))
		if err != nil {
			return err
		}
		updated = cart
		s.remember(ctx, cart)
		return nil
	})
	return updated, err
}

// ConfirmCheckout builds the confirmation from the cart the tenant was
// shown. No backend call is made when a snapshot exists.
func (s *service) ConfirmCheckout(ctx context.Context) (*Confirmation, error) {
	cart, ok := s.snapshots.Load(ctx)
	if !ok {
		var err error
		if cart, err = s.fetch(ctx); err != nil {
			return nil, err
		}
	}
	if cart.Empty() {
		return nil, ErrEmptyCart
	}
	return checkoutConfirmation(cart), nil
}

// Checkout bills the active cart and re-fetches the now empty cart.
func (s *service) Checkout(ctx context.Context) (*CheckoutOutcome, error) {
	var outcome *CheckoutOutcome
	err := WithLock(ctx, s.locker, func() error {
		result, err := s.api.Checkout(ctx)
		if err != nil {
			return err
		}
		cart, err := s.fetch(ctx)
		if err != nil {
			cart = &apiclient.Cart{Items: []apiclient.CartItem{}}
			s.remember(ctx, cart)
		}
		outcome = &CheckoutOutcome{
			Result:  result,
			Cart:    cart,
			Message: fmt.Sprintf("Checkout successful. %d %s billed to your utility bill.", result.TotalItems, plural(result.TotalItems, "item", "items")),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}
