package enums

import (
	"fmt"
	"strings"
)

// PaymentStatus tracks settlement of a consumption record.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// PaymentStatuses lists the known statuses in display order.
var PaymentStatuses = []PaymentStatus{PaymentStatusPending, PaymentStatusPaid, PaymentStatusCancelled}

var paymentStatusSpellings = map[string]PaymentStatus{
	"pending":   PaymentStatusPending,
	"paid":      PaymentStatusPaid,
	"cancelled": PaymentStatusCancelled,
	"canceled":  PaymentStatusCancelled,
}

func (p PaymentStatus) String() string {
	return string(p)
}

func (p PaymentStatus) IsValid() bool {
	known, ok := paymentStatusSpellings[string(p)]
	return ok && known == p
}

// ParsePaymentStatus is case-insensitive and accepts the US spelling of
// cancelled.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	if status, ok := paymentStatusSpellings[strings.ToLower(strings.TrimSpace(value))]; ok {
		return status, nil
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
