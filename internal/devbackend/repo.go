package devbackend

import (
	"context"
	"errors"

	"github.com/angelmondragon/residence-portal/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles dev backend persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindTenantByEmail(ctx context.Context, email string) (*Tenant, error)
	FindTenant(ctx context.Context, id uuid.UUID) (*Tenant, error)
	CreateTenant(ctx context.Context, tenant *Tenant) error
	ListBeverages(ctx context.Context) ([]Beverage, error)
	FindBeverage(ctx context.Context, id uuid.UUID) (*Beverage, error)
	FindBeverageByName(ctx context.Context, name string) (*Beverage, error)
	CreateBeverage(ctx context.Context, beverage *Beverage) error
	FindActiveCart(ctx context.Context, tenantID uuid.UUID) (*Cart, error)
	CreateCart(ctx context.Context, cart *Cart) error
	MarkCartConverted(ctx context.Context, cartID uuid.UUID) error
	FindCartItem(ctx context.Context, cartID, itemID uuid.UUID) (*CartItem, error)
	FindCartItemByBeverage(ctx context.Context, cartID, beverageID uuid.UUID) (*CartItem, error)
	CreateCartItem(ctx context.Context, item *CartItem) error
	UpdateCartItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteCartItem(ctx context.Context, itemID uuid.UUID) error
	FindBill(ctx context.Context, tenantID uuid.UUID, period string) (*UtilityBill, error)
	CreateBill(ctx context.Context, bill *UtilityBill) error
	AddToBillTotal(ctx context.Context, billID uuid.UUID, cents int64) error
	CreateConsumptionRecords(ctx context.Context, records []ConsumptionRecord) error
	ListConsumption(ctx context.Context, tenantID uuid.UUID) ([]ConsumptionRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindTenantByEmail(ctx context.Context, email string) (*Tenant, error) {
	var tenant Tenant
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&tenant).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &tenant, nil
}

func (r *repository) FindTenant(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	var tenant Tenant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &tenant, nil
}

func (r *repository) CreateTenant(ctx context.Context, tenant *Tenant) error {
	return r.db.WithContext(ctx).Create(tenant).Error
}

func (r *repository) ListBeverages(ctx context.Context) ([]Beverage, error) {
	var beverages []Beverage
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&beverages).Error; err != nil {
		return nil, err
	}
	return beverages, nil
}

func (r *repository) FindBeverage(ctx context.Context, id uuid.UUID) (*Beverage, error) {
	var beverage Beverage
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&beverage).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &beverage, nil
}

func (r *repository) FindBeverageByName(ctx context.Context, name string) (*Beverage, error) {
	var beverage Beverage
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&beverage).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &beverage, nil
}

func (r *repository) CreateBeverage(ctx context.Context, beverage *Beverage) error {
	return r.db.WithContext(ctx).Create(beverage).Error
}

// FindActiveCart loads the tenant's active cart with lines and beverages, or nil.
func (r *repository) FindActiveCart(ctx context.Context, tenantID uuid.UUID) (*Cart, error) {
	var cart Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Items.Beverage").
		Where("tenant_id = ? AND status = ?", tenantID, enums.CartStatusActive).
		First(&cart).Error
	if err != nil {
		return nil, notFoundAsNil(err)
	}
	return &cart, nil
}

func (r *repository) CreateCart(ctx context.Context, cart *Cart) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(cart).Error
}

func (r *repository) MarkCartConverted(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&Cart{}).
		Where("id = ?", cartID).
		Update("status", enums.CartStatusConverted).Error
}

func (r *repository) FindCartItem(ctx context.Context, cartID, itemID uuid.UUID) (*CartItem, error) {
	var item CartItem
	if err := r.db.WithContext(ctx).
		Where("cart_id = ? AND id = ?", cartID, itemID).
		First(&item).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &item, nil
}

func (r *repository) FindCartItemByBeverage(ctx context.Context, cartID, beverageID uuid.UUID) (*CartItem, error) {
	var item CartItem
	if err := r.db.WithContext(ctx).
		Where("cart_id = ? AND beverage_id = ?", cartID, beverageID).
		First(&item).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &item, nil
}

func (r *repository) CreateCartItem(ctx context.Context, item *CartItem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

func (r *repository) UpdateCartItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

func (r *repository) DeleteCartItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", itemID).Delete(&CartItem{}).Error
}

func (r *repository) FindBill(ctx context.Context, tenantID uuid.UUID, period string) (*UtilityBill, error) {
	var bill UtilityBill
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND billing_period = ?", tenantID, period).
		First(&bill).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &bill, nil
}

func (r *repository) CreateBill(ctx context.Context, bill *UtilityBill) error {
	return r.db.WithContext(ctx).Create(bill).Error
}

func (r *repository) AddToBillTotal(ctx context.Context, billID uuid.UUID, cents int64) error {
	return r.db.WithContext(ctx).
		Model(&UtilityBill{}).
		Where("id = ?", billID).
		Update("total_cents", gorm.Expr("total_cents + ?", cents)).Error
}

func (r *repository) CreateConsumptionRecords(ctx context.Context, records []ConsumptionRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&records).Error
}

func (r *repository) ListConsumption(ctx context.Context, tenantID uuid.UUID) ([]ConsumptionRecord, error) {
	var records []ConsumptionRecord
	if err := r.db.WithContext(ctx).
		Preload("UtilityBill").
		Where("tenant_id = ?", tenantID).
		Order("consumed_at DESC, id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func notFoundAsNil(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
