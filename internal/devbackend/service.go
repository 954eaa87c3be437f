package devbackend

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/residence-portal/pkg/auth"
	"github.com/angelmondragon/residence-portal/pkg/config"
	"github.com/angelmondragon/residence-portal/pkg/db"
	"github.com/angelmondragon/residence-portal/pkg/enums"
	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	"github.com/angelmondragon/residence-portal/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const billingPeriodLayout = "2006-01"

var (
	errInvalidLogin     = pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid email or password")
	errBeverageNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "Beverage not found")
	errBeverageOff      = pkgerrors.New(pkgerrors.CodeValidation, "Beverage is not available")
	errItemNotFound     = pkgerrors.New(pkgerrors.CodeNotFound, "Cart item not found")
	errQuantity         = pkgerrors.New(pkgerrors.CodeValidation, "Quantity must be at least 1")
	errEmptyCart        = pkgerrors.New(pkgerrors.CodeValidation, "Cart is empty")
	errCheckoutFault    = pkgerrors.New(pkgerrors.CodeInternal, "Checkout is temporarily unavailable")
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the dev backend service.
type ServiceParams struct {
	Repo   Repository
	Tx     txRunner
	Hasher *security.Hasher
	JWT    config.JWTConfig
	Faults config.FaultConfig
	Now    func() time.Time
}

// Service implements the rooftop bar backend contract.
type Service struct {
	repo   Repository
	tx     txRunner
	hasher *security.Hasher
	jwt    config.JWTConfig
	faults config.FaultConfig
	now    func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Tx == nil {
		return nil, errors.New("tx runner is required")
	}
	if params.Hasher == nil {
		return nil, errors.New("password hasher is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:   params.Repo,
		tx:     params.Tx,
		hasher: params.Hasher,
		jwt:    params.JWT,
		faults: params.Faults,
		now:    now,
	}, nil
}

// Login verifies the tenant password and mints a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (*loginDTO, error) {
	tenant, err := s.repo.FindTenantByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tenant")
	}
	if tenant == nil {
		return nil, errInvalidLogin
	}
	ok, err := s.hasher.Verify(password, tenant.PasswordHash)
	if err != nil || !ok {
		return nil, errInvalidLogin
	}

	token, err := auth.MintAccessToken(s.jwt, s.now(), auth.AccessTokenPayload{
		TenantID: tenant.ID,
		Role:     tenant.Role,
		Name:     tenant.Name,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &loginDTO{
		Token: token,
		User: userDTO{
			ID:         tenant.ID.String(),
			Name:       tenant.Name,
			Email:      tenant.Email,
			Role:       tenant.Role,
			RoomNumber: tenant.RoomNumber,
		},
	}, nil
}

func (s *Service) ListBeverages(ctx context.Context) ([]beverageDTO, error) {
	beverages, err := s.repo.ListBeverages(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list beverages")
	}
	out := make([]beverageDTO, 0, len(beverages))
	for _, b := range beverages {
		out = append(out, newBeverageDTO(b))
	}
	return out, nil
}

// GetCart returns the tenant's active cart, creating it on first access.
func (s *Service) GetCart(ctx context.Context, tenantID uuid.UUID) (*cartDTO, error) {
	cart, err := s.activeCart(ctx, s.repo, tenantID)
	if err != nil {
		return nil, err
	}
	out := newCartDTO(cart)
	return &out, nil
}

// AddItem increments the existing line for the beverage or adds a new one.
func (s *Service) AddItem(ctx context.Context, tenantID, beverageID uuid.UUID, quantity int) (*cartDTO, error) {
	if quantity < 1 {
		return nil, errQuantity
	}
	beverage, err := s.repo.FindBeverage(ctx, beverageID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load beverage")
	}
	if beverage == nil {
		return nil, errBeverageNotFound
	}
	if !beverage.IsAvailable {
		return nil, errBeverageOff
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.activeCart(ctx, repo, tenantID)
		if err != nil {
			return err
		}
		existing, err := repo.FindCartItemByBeverage(ctx, cart.ID, beverageID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}
		if existing != nil {
			return repo.UpdateCartItemQuantity(ctx, existing.ID, existing.Quantity+quantity)
		}
		now := s.now().UTC()
		return repo.CreateCartItem(ctx, &CartItem{
			ID:             uuid.New(),
			CartID:         cart.ID,
			BeverageID:     beverageID,
			Quantity:       quantity,
			UnitPriceCents: beverage.PriceCents,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	})
	if err != nil {
		return nil, asTyped(err, "add cart item")
	}
	return s.GetCart(ctx, tenantID)
}

func (s *Service) UpdateItem(ctx context.Context, tenantID, itemID uuid.UUID, quantity int) (*cartDTO, error) {
	if quantity < 1 {
		return nil, errQuantity
	}
	cart, err := s.activeCart(ctx, s.repo, tenantID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindCartItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if item == nil {
		return nil, errItemNotFound
	}
	if err := s.repo.UpdateCartItemQuantity(ctx, item.ID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return s.GetCart(ctx, tenantID)
}

func (s *Service) RemoveItem(ctx context.Context, tenantID, itemID uuid.UUID) (*cartDTO, error) {
	cart, err := s.activeCart(ctx, s.repo, tenantID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindCartItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if item == nil {
		return nil, errItemNotFound
	}
	if err := s.repo.DeleteCartItem(ctx, item.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	return s.GetCart(ctx, tenantID)
}

// Checkout converts every cart line into a consumption record on the
// tenant's bill for the current period. Nothing is written unless all of it is.
func (s *Service) Checkout(ctx context.Context, tenantID uuid.UUID) (*checkoutDTO, error) {
	if s.faults.FailCheckout {
		return nil, errCheckoutFault
	}

	var result *checkoutDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindActiveCart(ctx, tenantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if cart == nil || len(cart.Items) == 0 {
			return errEmptyCart
		}

		now := s.now().UTC()
		bill, err := s.openBill(ctx, repo, tenantID, now)
		if err != nil {
			return err
		}

		records := make([]ConsumptionRecord, 0, len(cart.Items))
		ids := make([]string, 0, len(cart.Items))
		for _, item := range cart.Items {
			if item.Beverage == nil {
				return pkgerrors.New(pkgerrors.CodeConflict, "cart references a missing beverage")
			}
			billID := bill.ID
			rec := ConsumptionRecord{
				ID:               uuid.New(),
				TenantID:         tenantID,
				BeverageID:       item.BeverageID,
				BeverageName:     item.Beverage.Name,
				BeverageCategory: item.Beverage.Category,
				Quantity:         item.Quantity,
				UnitPriceCents:   item.UnitPriceCents,
				TotalCents:       item.TotalCents(),
				ConsumedAt:       now,
				PaymentStatus:    enums.PaymentStatusPending,
				UtilityBillID:    &billID,
				IncludedInBill:   true,
				CreatedAt:        now,
			}
			records = append(records, rec)
			ids = append(ids, rec.ID.String())
		}

		total := cart.TotalCents()
		if err := repo.CreateConsumptionRecords(ctx, records); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create consumption records")
		}
		if err := repo.AddToBillTotal(ctx, bill.ID, total); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update bill total")
		}
		for _, item := range cart.Items {
			if err := repo.DeleteCartItem(ctx, item.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
			}
		}
		if err := repo.MarkCartConverted(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "convert cart")
		}

		bill.TotalCents += total
		result = &checkoutDTO{
			TotalItems:     len(records),
			TotalAmount:    amount(total),
			ConsumptionIDs: ids,
			Bill:           newBillDTO(bill),
		}
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "checkout")
	}
	return result, nil
}

// Consumption lists the tenant's records, newest first, with their bills.
func (s *Service) Consumption(ctx context.Context, tenantID uuid.UUID) ([]ConsumptionRecord, error) {
	records, err := s.repo.ListConsumption(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list consumption")
	}
	return records, nil
}

// SourceDisabled reports whether fault injection turned off a consumption endpoint.
func (s *Service) SourceDisabled(source enums.ConsumptionSource) bool {
	for _, disabled := range s.faults.DisabledConsumption {
		if strings.EqualFold(strings.TrimSpace(disabled), string(source)) {
			return true
		}
	}
	return false
}

func (s *Service) activeCart(ctx context.Context, repo Repository, tenantID uuid.UUID) (*Cart, error) {
	cart, err := repo.FindActiveCart(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart != nil {
		return cart, nil
	}

	now := s.now().UTC()
	cart = &Cart{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Status:    enums.CartStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateCart(ctx, cart); err != nil {
		// a concurrent request created it first
		if db.IsUniqueViolation(err, "") {
			return s.activeCart(ctx, repo, tenantID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	cart.Items = []CartItem{}
	return cart, nil
}

func (s *Service) openBill(ctx context.Context, repo Repository, tenantID uuid.UUID, now time.Time) (*UtilityBill, error) {
	period := now.Format(billingPeriodLayout)
	bill, err := repo.FindBill(ctx, tenantID, period)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bill")
	}
	if bill != nil {
		return bill, nil
	}
	bill = &UtilityBill{
		ID:            uuid.New(),
		TenantID:      tenantID,
		BillingPeriod: period,
		Status:        enums.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.CreateBill(ctx, bill); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create bill")
	}
	return bill, nil
}

func asTyped(err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
