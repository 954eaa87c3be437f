package consumption

import (
	"github.com/angelmondragon/residence-portal/pkg/enums"
	"github.com/shopspring/decimal"
)

// Summary aggregates the filtered records. Total = Paid + Pending + Other.
type Summary struct {
	Orders  int             `json:"orders"`
	Total   decimal.Decimal `json:"total"`
	Paid    decimal.Decimal `json:"paid"`
	Pending decimal.Decimal `json:"pending"`
	Other   decimal.Decimal `json:"other"`
}

// Summarize computes the summary in a single pass.
func Summarize(records []Record) Summary {
	s := Summary{Total: decimal.Zero, Paid: decimal.Zero, Pending: decimal.Zero, Other: decimal.Zero}
	for _, r := range records {
		s.Orders++
		s.Total = s.Total.Add(r.Total)
		switch r.Status {
		case enums.PaymentStatusPaid:
			s.Paid = s.Paid.Add(r.Total)
		case enums.PaymentStatusPending:
			s.Pending = s.Pending.Add(r.Total)
		default:
			s.Other = s.Other.Add(r.Total)
		}
	}
	return s
}
