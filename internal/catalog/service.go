// Package catalog implements the beverage catalog view: listing with a
// category filter, add to cart, and the add-then-checkout quick order.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/residence-portal/internal/cart"
	"github.com/angelmondragon/residence-portal/internal/viewstate"
	"github.com/angelmondragon/residence-portal/pkg/apiclient"
	"github.com/angelmondragon/residence-portal/pkg/enums"
	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	"github.com/angelmondragon/residence-portal/pkg/logger"
	"github.com/angelmondragon/residence-portal/pkg/money"
	"golang.org/x/sync/errgroup"
)

const catalogCacheTTL = time.Minute

const (
	MsgLoadFailed  = "Failed to load beverages"
	MsgAddFailed   = "Failed to add to cart"
	MsgOrderFailed = "Failed to place order"
)

var (
	// ErrUnavailable is returned for beverages marked unavailable.
	ErrUnavailable = pkgerrors.New(pkgerrors.CodeValidation, "This beverage is currently unavailable")
	// ErrUnknownBeverage is returned when the beverage is not in the catalog.
	ErrUnknownBeverage = pkgerrors.New(pkgerrors.CodeNotFound, "Beverage not found")
	// ErrOrderFailed is the single error reported for any quick-order failure.
	ErrOrderFailed = pkgerrors.New(pkgerrors.CodeDependency, MsgOrderFailed)
)

type backend interface {
	ListBeverages(ctx context.Context) ([]apiclient.Beverage, error)
	GetCart(ctx context.Context) (*apiclient.Cart, error)
	AddCartItem(ctx context.Context, beverageID string, quantity int) (*apiclient.Cart, error)
	Checkout(ctx context.Context) (*apiclient.CheckoutResult, error)
}

// Service exposes the catalog view operations.
type Service interface {
	Load(ctx context.Context, filter enums.CategoryFilter) *View
	AddToCart(ctx context.Context, beverageID string, quantity int) (*apiclient.Cart, error)
	QuickOrder(ctx context.Context, beverageID string, quantity int) (*OrderOutcome, error)
}

// OrderOutcome is the result of a completed quick order.
type OrderOutcome struct {
	Beverage apiclient.Beverage
	Result   *apiclient.CheckoutResult
	Message  string
}

type service struct {
	api       backend
	locker    cart.Locker
	snapshots *cart.Snapshots
	logg      *logger.Logger
	now       func() time.Time

	mu        sync.RWMutex
	cached    []apiclient.Beverage
	fetchedAt time.Time
}

// NewService builds the catalog service.
func NewService(api backend, locker cart.Locker, snapshots *cart.Snapshots, logg *logger.Logger) (Service, error) {
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
	return &service{api: api, locker: locker, snapshots: snapshots, logg: logg, now: time.Now}, nil
}

// Load fetches the catalog and the cart concurrently. Each result fills its
// own slice of the view; a cart failure falls back to the stored snapshot.
func (s *service) Load(ctx context.Context, filter enums.CategoryFilter) *View {
	beverages := viewstate.New[[]apiclient.Beverage]()
	carts := viewstate.New[*apiclient.Cart]()
	beverages.Begin()
	carts.Begin()

	var g errgroup.Group
	g.Go(func() error {
		list, err := s.api.ListBeverages(ctx)
		if err != nil {
			beverages.Fail(pkgerrors.UserMessage(err, MsgLoadFailed))
			return nil
		}
		s.store(list)
		beverages.Succeed(list)
		return nil
	})
	g.Go(func() error {
		current, err := s.api.GetCart(ctx)
		switch {
		case err == nil:
			carts.Succeed(current)
			s.saveSnapshot(ctx, current)
		case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
			carts.Succeed(&apiclient.Cart{Items: []apiclient.CartItem{}})
		default:
			if snapshot, ok := s.snapshots.Load(ctx); ok {
				carts.FailWith(cart.MsgLoadFailed, snapshot)
			} else {
				carts.Fail(cart.MsgLoadFailed)
			}
		}
		return nil
	})
	_ = g.Wait()

	return buildView(beverages, carts, filter, cart.Updating(ctx, s.locker))
}

func (s *service) AddToCart(ctx context.Context, beverageID string, quantity int) (*apiclient.Cart, error) {
	beverage, err := s.orderable(ctx, beverageID)
	if err != nil {
		return nil, err
	}
	if quantity, err = normalizeQuantity(quantity); err != nil {
		return nil, err
	}

	var updated *apiclient.Cart
	err = cart.WithLock(ctx, s.locker, func() error {
		current, err := s.api.AddCartItem(ctx, beverage.ID, quantity)
		if err != nil {
			return err
		}
		updated = current
		s.saveSnapshot(ctx, current)
		return nil
	})
	return updated, err
}

// QuickOrder adds the beverage and checks the cart out in one action. The
// two calls are independent: when checkout fails the added line stays in the
// cart and the caller sees only ErrOrderFailed.
func (s *service) QuickOrder(ctx context.Context, beverageID string, quantity int) (*OrderOutcome, error) {
	beverage, err := s.orderable(ctx, beverageID)
	if err != nil {
		return nil, err
	}
	if quantity, err = normalizeQuantity(quantity); err != nil {
		return nil, err
	}

	var outcome *OrderOutcome
	err = cart.WithLock(ctx, s.locker, func() error {
		added, err := s.api.AddCartItem(ctx, beverage.ID, quantity)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "step", "add"), "quick order failed")
			return wrapOrderFailure(err)
		}
		s.saveSnapshot(ctx, added)

		result, err := s.api.Checkout(ctx)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "step", "checkout"), "quick order failed after add; item left in cart")
			return wrapOrderFailure(err)
		}
		s.saveSnapshot(ctx, &apiclient.Cart{ID: added.ID, Items: []apiclient.CartItem{}, Status: enums.CartStatusActive})

		outcome = &OrderOutcome{
			Beverage: *beverage,
			Result:   result,
			Message:  fmt.Sprintf("Order placed: %d x %s, %s billed to your utility bill.", quantity, beverage.Name, money.Format(result.TotalAmount)),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// orderable finds the beverage in the catalog and refuses unavailable ones
// before any mutation is issued.
func (s *service) orderable(ctx context.Context, beverageID string) (*apiclient.Beverage, error) {
	id := strings.TrimSpace(beverageID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "beverage id is required")
	}
	list, cached := s.cachedList()
	if cached {
		if beverage, ok := find(list, id); ok {
			return checkAvailable(beverage)
		}
	}
	// A miss against the cache may be a beverage added since the last fetch.
	fresh, err := s.api.ListBeverages(ctx)
	if err != nil {
		return nil, err
	}
	s.store(fresh)
	if beverage, ok := find(fresh, id); ok {
		return checkAvailable(beverage)
	}
	return nil, ErrUnknownBeverage
}

func find(list []apiclient.Beverage, id string) (apiclient.Beverage, bool) {
	for _, b := range list {
		if b.ID == id {
			return b, true
		}
	}
	return apiclient.Beverage{}, false
}

func checkAvailable(beverage apiclient.Beverage) (*apiclient.Beverage, error) {
	if !beverage.IsAvailable {
		return nil, ErrUnavailable
	}
	return &beverage, nil
}

func (s *service) saveSnapshot(ctx context.Context, current *apiclient.Cart) {
	if err := s.snapshots.Save(ctx, current); err != nil {
		s.logg.Warn(s.logg.WithError(ctx, err), "failed to store cart snapshot")
	}
}

func (s *service) cachedList() ([]apiclient.Beverage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cached == nil || s.now().Sub(s.fetchedAt) > catalogCacheTTL {
		return nil, false
	}
	return s.cached, true
}

func (s *service) store(list []apiclient.Beverage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = list
	s.fetchedAt = s.now()
}

func normalizeQuantity(quantity int) (int, error) {
	if quantity == 0 {
		return 1, nil
	}
	if quantity < 0 {
		return 0, cart.ErrQuantityTooLow
	}
	return quantity, nil
}

func wrapOrderFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrOrderFailed, err)
}

// UserMessage picks the banner text for a failed catalog action. Quick-order
// failures always read as the generic order message.
func UserMessage(err error, fallback string) string {
	for _, local := range []*pkgerrors.Error{ErrOrderFailed, ErrUnavailable, ErrUnknownBeverage} {
		if errors.Is(err, local) {
			return local.Message()
		}
	}
	return cart.UserMessage(err, fallback)
}
