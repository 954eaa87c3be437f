package devbackend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/residence-portal/pkg/auth"
	"github.com/angelmondragon/residence-portal/pkg/config"
	"github.com/angelmondragon/residence-portal/pkg/enums"
	"github.com/angelmondragon/residence-portal/pkg/money"
	"github.com/angelmondragon/residence-portal/pkg/security"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type seedBeverage struct {
	name        string
	category    enums.BeverageCategory
	price       decimal.Decimal
	available   bool
	description string
}

var rs = decimal.RequireFromString

// catalog is the rooftop bar menu installed on an empty database.
var catalog = []seedBeverage{
	{"Cola", enums.BeverageCategoryNonAlcoholic, rs("5.00"), true, "Chilled can"},
	{"Lemon Soda", enums.BeverageCategoryNonAlcoholic, rs("7.00"), true, "Fresh lime and soda"},
	{"Ginger Ale", enums.BeverageCategoryNonAlcoholic, rs("6.00"), true, ""},
	{"Mango Lassi", enums.BeverageCategoryNonAlcoholic, rs("9.00"), true, "House made"},
	{"House Lager", enums.BeverageCategoryAlcoholic, rs("12.50"), true, "Draught, 330ml"},
	{"Red Wine", enums.BeverageCategoryAlcoholic, rs("18.00"), true, "By the glass"},
	{"Sunset Cocktail", enums.BeverageCategoryAlcoholic, rs("15.00"), false, "Back next season"},
}

// SeedResult reports what Seed created.
type SeedResult struct {
	TenantID         uuid.UUID
	TenantCreated    bool
	BeveragesCreated int
	HistoryRecords   int
}

// Seed installs the demo tenant and catalog. It is idempotent: existing
// rows, matched by email and beverage name, are left alone.
func Seed(ctx context.Context, repo Repository, hasher *security.Hasher, cfg config.SeedConfig, now time.Time) (*SeedResult, error) {
	now = now.UTC()
	result := &SeedResult{}

	for _, item := range catalog {
		existing, err := repo.FindBeverageByName(ctx, item.name)
		if err != nil {
			return nil, fmt.Errorf("lookup beverage %q: %w", item.name, err)
		}
		if existing != nil {
			continue
		}
		if err := repo.CreateBeverage(ctx, &Beverage{
			ID:          uuid.New(),
			Name:        item.name,
			Category:    item.category,
			PriceCents:  money.ToCents(item.price),
			IsAvailable: item.available,
			Description: item.description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}); err != nil {
			return nil, fmt.Errorf("create beverage %q: %w", item.name, err)
		}
		result.BeveragesCreated++
	}

	email := strings.ToLower(strings.TrimSpace(cfg.TenantEmail))
	if email == "" {
		return result, nil
	}
	tenant, err := repo.FindTenantByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup tenant: %w", err)
	}
	if tenant != nil {
		result.TenantID = tenant.ID
		return result, nil
	}

	hash, err := hasher.Hash(cfg.TenantPassword)
	if err != nil {
		return nil, fmt.Errorf("hash tenant password: %w", err)
	}
	tenant = &Tenant{
		ID:           uuid.New(),
		Email:        email,
		Name:         cfg.TenantName,
		Role:         auth.RoleTenant,
		RoomNumber:   cfg.RoomNumber,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.CreateTenant(ctx, tenant); err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	result.TenantID = tenant.ID
	result.TenantCreated = true

	if cfg.History {
		added, err := seedHistory(ctx, repo, tenant.ID, now)
		if err != nil {
			return nil, err
		}
		result.HistoryRecords = added
	}
	return result, nil
}

// seedHistory adds a settled bill for the previous period so the history
// view has something to show.
func seedHistory(ctx context.Context, repo Repository, tenantID uuid.UUID, now time.Time) (int, error) {
	consumedAt := time.Date(now.Year(), now.Month(), 1, 21, 0, 0, 0, time.UTC).AddDate(0, -1, 3)
	bill := &UtilityBill{
		ID:            uuid.New(),
		TenantID:      tenantID,
		BillingPeriod: consumedAt.Format(billingPeriodLayout),
		Status:        enums.PaymentStatusPaid,
		CreatedAt:     consumedAt,
		UpdatedAt:     now,
	}

	var records []ConsumptionRecord
	for _, name := range []string{"House Lager", "Cola"} {
		beverage, err := repo.FindBeverageByName(ctx, name)
		if err != nil {
			return 0, fmt.Errorf("lookup beverage %q: %w", name, err)
		}
		if beverage == nil {
			continue
		}
		billID := bill.ID
		records = append(records, ConsumptionRecord{
			ID:               uuid.New(),
			TenantID:         tenantID,
			BeverageID:       beverage.ID,
			BeverageName:     beverage.Name,
			BeverageCategory: beverage.Category,
			Quantity:         2,
			UnitPriceCents:   beverage.PriceCents,
			TotalCents:       2 * beverage.PriceCents,
			ConsumedAt:       consumedAt,
			PaymentStatus:    enums.PaymentStatusPaid,
			UtilityBillID:    &billID,
			IncludedInBill:   true,
			CreatedAt:        consumedAt,
		})
		bill.TotalCents += 2 * beverage.PriceCents
	}
	if len(records) == 0 {
		return 0, nil
	}

	if err := repo.CreateBill(ctx, bill); err != nil {
		return 0, fmt.Errorf("create seed bill: %w", err)
	}
	if err := repo.CreateConsumptionRecords(ctx, records); err != nil {
		return 0, fmt.Errorf("create seed consumption: %w", err)
	}
	return len(records), nil
}
