package devbackend

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/residence-portal/pkg/enums"
	"github.com/angelmondragon/residence-portal/pkg/money"
)

// amount renders cents as a JSON number with two decimals.
func amount(cents int64) json.Number {
	return json.Number(money.FromCents(cents).StringFixed(2))
}

type userDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	RoomNumber string `json:"roomNumber,omitempty"`
}

type loginDTO struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

type beverageDTO struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Category    enums.BeverageCategory `json:"category"`
	Price       json.Number            `json:"price"`
	IsAvailable bool                   `json:"isAvailable"`
	Description string                 `json:"description,omitempty"`
}

type beverageRefDTO struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Category enums.BeverageCategory `json:"category"`
}

type cartItemDTO struct {
	ID         string          `json:"id"`
	BeverageID string          `json:"beverageId"`
	Beverage   *beverageRefDTO `json:"beverage,omitempty"`
	Quantity   int             `json:"quantity"`
	UnitPrice  json.Number     `json:"unitPrice"`
	TotalPrice json.Number     `json:"totalPrice"`
}

type cartDTO struct {
	ID          string           `json:"id"`
	Items       []cartItemDTO    `json:"items"`
	TotalAmount json.Number      `json:"totalAmount"`
	Status      enums.CartStatus `json:"status"`
}

type billDTO struct {
	ID            string              `json:"id"`
	BillingPeriod string              `json:"billingPeriod"`
	TotalAmount   json.Number         `json:"totalAmount"`
	Status        enums.PaymentStatus `json:"status"`
}

type checkoutDTO struct {
	TotalItems     int         `json:"totalItems"`
	TotalAmount    json.Number `json:"totalAmount"`
	ConsumptionIDs []string    `json:"consumptionIds"`
	Bill           *billDTO    `json:"bill,omitempty"`
}

func newBeverageDTO(b Beverage) beverageDTO {
	return beverageDTO{
		ID:          b.ID.String(),
		Name:        b.Name,
		Category:    b.Category,
		Price:       amount(b.PriceCents),
		IsAvailable: b.IsAvailable,
		Description: b.Description,
	}
}

func newCartDTO(c *Cart) cartDTO {
	out := cartDTO{
		ID:          c.ID.String(),
		Items:       make([]cartItemDTO, 0, len(c.Items)),
		TotalAmount: amount(c.TotalCents()),
		Status:      c.Status,
	}
	for _, item := range c.Items {
		line := cartItemDTO{
			ID:         item.ID.String(),
			BeverageID: item.BeverageID.String(),
			Quantity:   item.Quantity,
			UnitPrice:  amount(item.UnitPriceCents),
			TotalPrice: amount(item.TotalCents()),
		}
		if item.Beverage != nil {
			line.Beverage = &beverageRefDTO{
				ID:       item.Beverage.ID.String(),
				Name:     item.Beverage.Name,
				Category: item.Beverage.Category,
			}
		}
		out.Items = append(out.Items, line)
	}
	return out
}

func newBillDTO(b *UtilityBill) *billDTO {
	if b == nil {
		return nil
	}
	return &billDTO{
		ID:            b.ID.String(),
		BillingPeriod: b.BillingPeriod,
		TotalAmount:   amount(b.TotalCents),
		Status:        b.Status,
	}
}

// The three consumption endpoints return the same records in different
// shapes: nested (history), denormalized (flat) and minimal (legacy).

type historyBillDTO struct {
	ID            string              `json:"id"`
	BillingPeriod string              `json:"billingPeriod"`
	Status        enums.PaymentStatus `json:"status"`
	Included      bool                `json:"included"`
}

type historyBeverageDTO struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Category enums.BeverageCategory `json:"category"`
	Price    json.Number            `json:"price"`
}

type historyRecordDTO struct {
	ID            string              `json:"id"`
	Beverage      historyBeverageDTO  `json:"beverage"`
	Quantity      int                 `json:"quantity"`
	UnitPrice     json.Number         `json:"unitPrice"`
	TotalAmount   json.Number         `json:"totalAmount"`
	ConsumedAt    time.Time           `json:"consumedAt"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	UtilityBill   *historyBillDTO     `json:"utilityBill,omitempty"`
}

type flatRecordDTO struct {
	ID               string                 `json:"id"`
	BeverageName     string                 `json:"beverageName"`
	BeverageCategory enums.BeverageCategory `json:"beverageCategory"`
	Quantity         int                    `json:"quantity"`
	Price            json.Number            `json:"price"`
	TotalPrice       json.Number            `json:"totalPrice"`
	ConsumptionDate  string                 `json:"consumptionDate"`
	Status           enums.PaymentStatus    `json:"status"`
	BillID           string                 `json:"billId,omitempty"`
	BillingPeriod    string                 `json:"billingPeriod,omitempty"`
	IncludedInBill   bool                   `json:"includedInBill"`
}

type legacyRecordDTO struct {
	ID            string              `json:"_id"`
	Item          string              `json:"item"`
	Qty           int                 `json:"qty"`
	Amount        json.Number         `json:"amount"`
	Date          int64               `json:"date"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
}

type historyPayload struct {
	Records []historyRecordDTO `json:"records"`
}

type legacyPayload struct {
	Consumptions []legacyRecordDTO `json:"consumptions"`
}

func newHistoryPayload(records []ConsumptionRecord) historyPayload {
	out := historyPayload{Records: make([]historyRecordDTO, 0, len(records))}
	for _, r := range records {
		dto := historyRecordDTO{
			ID: r.ID.String(),
			Beverage: historyBeverageDTO{
				ID:       r.BeverageID.String(),
				Name:     r.BeverageName,
				Category: r.BeverageCategory,
				Price:    amount(r.UnitPriceCents),
			},
			Quantity:      r.Quantity,
			UnitPrice:     amount(r.UnitPriceCents),
			TotalAmount:   amount(r.TotalCents),
			ConsumedAt:    r.ConsumedAt.UTC(),
			PaymentStatus: r.PaymentStatus,
		}
		if r.UtilityBill != nil {
			dto.UtilityBill = &historyBillDTO{
				ID:            r.UtilityBill.ID.String(),
				BillingPeriod: r.UtilityBill.BillingPeriod,
				Status:        r.UtilityBill.Status,
				Included:      r.IncludedInBill,
			}
		}
		out.Records = append(out.Records, dto)
	}
	return out
}

func newFlatPayload(records []ConsumptionRecord) []flatRecordDTO {
	out := make([]flatRecordDTO, 0, len(records))
	for _, r := range records {
		dto := flatRecordDTO{
			ID:               r.ID.String(),
			BeverageName:     r.BeverageName,
			BeverageCategory: r.BeverageCategory,
			Quantity:         r.Quantity,
			Price:            amount(r.UnitPriceCents),
			TotalPrice:       amount(r.TotalCents),
			ConsumptionDate:  r.ConsumedAt.UTC().Format(time.RFC3339),
			Status:           r.PaymentStatus,
			IncludedInBill:   r.IncludedInBill,
		}
		if r.UtilityBill != nil {
			dto.BillID = r.UtilityBill.ID.String()
			dto.BillingPeriod = r.UtilityBill.BillingPeriod
			dto.Status = r.UtilityBill.Status
		}
		out = append(out, dto)
	}
	return out
}

// newLegacyPayload omits the category so readers fall back to name inference.
func newLegacyPayload(records []ConsumptionRecord) legacyPayload {
	out := legacyPayload{Consumptions: make([]legacyRecordDTO, 0, len(records))}
	for _, r := range records {
		status := r.PaymentStatus
		if r.UtilityBill != nil {
			status = r.UtilityBill.Status
		}
		out.Consumptions = append(out.Consumptions, legacyRecordDTO{
			ID:            r.ID.String(),
			Item:          r.BeverageName,
			Qty:           r.Quantity,
			Amount:        amount(r.TotalCents),
			Date:          r.ConsumedAt.UnixMilli(),
			PaymentStatus: status,
		})
	}
	return out
}
