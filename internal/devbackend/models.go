package devbackend

import (
	"time"

	"github.com/angelmondragon/residence-portal/pkg/enums"
	"github.com/google/uuid"
)

// Tenant is a resident that can log in and order from the rooftop bar.
type Tenant struct {
	ID           uuid.UUID `gorm:"type:text;primaryKey"`
	Email        string    `gorm:"not null"`
	Name         string    `gorm:"not null"`
	Role         string    `gorm:"not null"`
	RoomNumber   string    `gorm:"column:room_number;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (Tenant) TableName() string { return "tenants" }

type Beverage struct {
	ID          uuid.UUID              `gorm:"type:text;primaryKey"`
	Name        string                 `gorm:"not null"`
	Category    enums.BeverageCategory `gorm:"type:text;not null"`
	PriceCents  int64                  `gorm:"column:price_cents;not null"`
	IsAvailable bool                   `gorm:"column:is_available;not null"`
	Description string                 `gorm:"not null"`
	CreatedAt   time.Time              `gorm:"not null"`
	UpdatedAt   time.Time              `gorm:"not null"`
}

func (Beverage) TableName() string { return "beverages" }

// Cart is at most one active cart per tenant; checkout flips it to converted.
type Cart struct {
	ID        uuid.UUID        `gorm:"type:text;primaryKey"`
	TenantID  uuid.UUID        `gorm:"type:text;column:tenant_id;not null"`
	Status    enums.CartStatus `gorm:"type:text;not null"`
	Items     []CartItem       `gorm:"foreignKey:CartID"`
	CreatedAt time.Time        `gorm:"not null"`
	UpdatedAt time.Time        `gorm:"not null"`
}

func (Cart) TableName() string { return "carts" }

// TotalCents sums the line totals.
func (c *Cart) TotalCents() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.TotalCents()
	}
	return total
}

// CartItem snapshots the unit price at the time the beverage was added.
type CartItem struct {
	ID             uuid.UUID `gorm:"type:text;primaryKey"`
	CartID         uuid.UUID `gorm:"type:text;column:cart_id;not null"`
	BeverageID     uuid.UUID `gorm:"type:text;column:beverage_id;not null"`
	Beverage       *Beverage `gorm:"foreignKey:BeverageID"`
	Quantity       int       `gorm:"not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (CartItem) TableName() string { return "cart_items" }

func (i CartItem) TotalCents() int64 {
	return int64(i.Quantity) * i.UnitPriceCents
}

// UtilityBill aggregates a tenant's consumption for one billing period (YYYY-MM).
type UtilityBill struct {
	ID            uuid.UUID           `gorm:"type:text;primaryKey"`
	TenantID      uuid.UUID           `gorm:"type:text;column:tenant_id;not null"`
	BillingPeriod string              `gorm:"column:billing_period;not null"`
	Status        enums.PaymentStatus `gorm:"type:text;not null"`
	TotalCents    int64               `gorm:"column:total_cents;not null"`
	CreatedAt     time.Time           `gorm:"not null"`
	UpdatedAt     time.Time           `gorm:"not null"`
}

func (UtilityBill) TableName() string { return "utility_bills" }

type ConsumptionRecord struct {
	ID               uuid.UUID              `gorm:"type:text;primaryKey"`
	TenantID         uuid.UUID              `gorm:"type:text;column:tenant_id;not null"`
	BeverageID       uuid.UUID              `gorm:"type:text;column:beverage_id;not null"`
	BeverageName     string                 `gorm:"column:beverage_name;not null"`
	BeverageCategory enums.BeverageCategory `gorm:"type:text;column:beverage_category;not null"`
	Quantity         int                    `gorm:"not null"`
	UnitPriceCents   int64                  `gorm:"column:unit_price_cents;not null"`
	TotalCents       int64                  `gorm:"column:total_cents;not null"`
	ConsumedAt       time.Time              `gorm:"column:consumed_at;not null"`
	PaymentStatus    enums.PaymentStatus    `gorm:"type:text;column:payment_status;not null"`
	UtilityBillID    *uuid.UUID             `gorm:"type:text;column:utility_bill_id"`
	UtilityBill      *UtilityBill           `gorm:"foreignKey:UtilityBillID"`
	IncludedInBill   bool                   `gorm:"column:included_in_bill;not null"`
	CreatedAt        time.Time              `gorm:"not null"`
}

func (ConsumptionRecord) TableName() string { return "consumption_records" }
