package consumption

import (
	"time"

	"github.com/angelmondragon/residence-portal/pkg/apiclient"
	"github.com/angelmondragon/residence-portal/pkg/enums"
	"github.com/shopspring/decimal"
)

const (
	StatusPaidViaBill   = "Paid via Utility Bill"
	StatusPendingInBill = "Pending in Utility Bill"
	dayLayout           = "2006-01-02"
)

// BillLink ties a record to the utility bill it was charged to.
type BillLink struct {
	ID            string `json:"id"`
	BillingPeriod string `json:"billingPeriod,omitempty"`
	Included      bool   `json:"included"`
}

// Record is a consumption record read through the fallback chains.
type Record struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	Category         enums.BeverageCategory `json:"category"`
	CategoryInferred bool                   `json:"categoryInferred,omitempty"`
	Quantity         int                    `json:"quantity"`
	UnitPrice        decimal.Decimal        `json:"unitPrice"`
	Total            decimal.Decimal        `json:"total"`
	Date             time.Time              `json:"date"`
	Status           enums.PaymentStatus    `json:"status"`
	Bill             *BillLink              `json:"bill,omitempty"`
}

// Day is the record's calendar day, or "" when it has no date.
func (r Record) Day() string {
	if r.Date.IsZero() {
		return ""
	}
	return r.Date.Format(dayLayout)
}

// DisplayStatus is the status text shown to the tenant. Records included in
// a utility bill show the bill-derived text instead of the raw status.
func (r Record) DisplayStatus() string {
	if r.Bill != nil && r.Bill.Included && r.Status != enums.PaymentStatusCancelled {
		if r.Status == enums.PaymentStatusPaid {
			return StatusPaidViaBill
		}
		return StatusPendingInBill
	}
	switch r.Status {
	case enums.PaymentStatusPaid:
		return "Paid"
	case enums.PaymentStatusPending:
		return "Pending"
	case enums.PaymentStatusCancelled:
		return "Cancelled"
	}
	return string(r.Status)
}

// Normalize reads a raw record of any supported shape.
func Normalize(rec apiclient.RawRecord) Record {
	out := Record{}
	out.ID, _, _ = firstOf(rec, IDChain)

	name, _, ok := firstOf(rec, NameChain)
	if !ok {
		name = UnknownBeverageName
	}
	out.Name = name

	if category, _, ok := firstOf(rec, CategoryChain); ok {
		out.Category = category
	} else {
		out.Category = InferCategory(name)
		out.CategoryInferred = true
	}

	quantity, _, ok := firstOf(rec, QuantityChain)
	if !ok {
		quantity = DefaultQuantity
	}
	out.Quantity = quantity

	unit, _, hasUnit := firstOf(rec, UnitPriceChain)
	total, _, hasTotal := firstOf(rec, TotalChain)
	qty := decimal.NewFromInt(int64(quantity))
	switch {
	case hasUnit && hasTotal:
	case hasTotal:
		unit = total.Div(qty).Round(2)
	case hasUnit:
		total = unit.Mul(qty)
	}
	out.UnitPrice = unit
	out.Total = total

	out.Date, _, _ = firstOf(rec, DateChain)

	status, _, ok := firstOf(rec, StatusChain)
	if !ok {
		status = enums.PaymentStatusPending
	}
	out.Status = status

	if billID, _, ok := firstOf(rec, BillIDChain); ok {
		period, _, _ := firstOf(rec, BillPeriodChain)
		included, _, _ := firstOf(rec, BillIncludedChain)
		out.Bill = &BillLink{ID: billID, BillingPeriod: period, Included: included}
	}
	return out
}

// NormalizeAll reads every raw record.
func NormalizeAll(raws []apiclient.RawRecord) []Record {
	out := make([]Record, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw))
	}
	return out
}
