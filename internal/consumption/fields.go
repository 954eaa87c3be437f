package consumption

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/residence-portal/pkg/apiclient"
	"github.com/angelmondragon/residence-portal/pkg/enums"
	"github.com/angelmondragon/residence-portal/pkg/money"
	"github.com/shopspring/decimal"
)

// Extractor reads one logical field from one known location.
type Extractor[T any] struct {
	Field string
	Read  func(apiclient.RawRecord) (T, bool)
}

// firstOf walks the chain in order and returns the first value found along
// with the location it came from.
func firstOf[T any](rec apiclient.RawRecord, chain []Extractor[T]) (T, string, bool) {
	for _, ex := range chain {
		if v, ok := ex.Read(rec); ok {
			return v, ex.Field, true
		}
	}
	var zero T
	return zero, "", false
}

const (
	UnknownBeverageName = "Unknown beverage"
	DefaultQuantity     = 1
)

// Fallback chains, in priority order. The history endpoint nests the
// beverage, the flat endpoint denormalizes it, the legacy endpoint only
// carries item/amount/date.
var (
	IDChain = []Extractor[string]{
		{"id", textAt("id")},
		{"_id", textAt("_id")},
		{"consumptionId", textAt("consumptionId")},
	}
	NameChain = []Extractor[string]{
		{"beverage.name", textAt("beverage", "name")},
		{"beverageName", textAt("beverageName")},
		{"item", textAt("item")},
		{"name", textAt("name")},
	}
	CategoryChain = []Extractor[enums.BeverageCategory]{
		{"beverage.category", categoryAt("beverage", "category")},
		{"beverageCategory", categoryAt("beverageCategory")},
		{"category", categoryAt("category")},
	}
	QuantityChain = []Extractor[int]{
		{"quantity", intAt("quantity")},
		{"qty", intAt("qty")},
	}
	UnitPriceChain = []Extractor[decimal.Decimal]{
		{"unitPrice", amountAt("unitPrice")},
		{"beverage.price", amountAt("beverage", "price")},
		{"price", amountAt("price")},
		{"pricePerUnit", amountAt("pricePerUnit")},
	}
	TotalChain = []Extractor[decimal.Decimal]{
		{"totalAmount", amountAt("totalAmount")},
		{"totalPrice", amountAt("totalPrice")},
		{"amount", amountAt("amount")},
		{"total", amountAt("total")},
	}
	DateChain = []Extractor[time.Time]{
		{"consumedAt", timeAt("consumedAt")},
		{"consumptionDate", timeAt("consumptionDate")},
		{"date", timeAt("date")},
		{"createdAt", timeAt("createdAt")},
	}
	// The bill's status is authoritative once a record is linked to one.
	StatusChain = []Extractor[enums.PaymentStatus]{
		{"utilityBill.status", statusAt("utilityBill", "status")},
		{"paymentStatus", statusAt("paymentStatus")},
		{"status", statusAt("status")},
	}
	BillIDChain = []Extractor[string]{
		{"utilityBill.id", textAt("utilityBill", "id")},
		{"utilityBill.billId", textAt("utilityBill", "billId")},
		{"billId", textAt("billId")},
		{"utilityBillId", textAt("utilityBillId")},
	}
	BillPeriodChain = []Extractor[string]{
		{"utilityBill.billingPeriod", textAt("utilityBill", "billingPeriod")},
		{"billingPeriod", textAt("billingPeriod")},
	}
	BillIncludedChain = []Extractor[bool]{
		{"utilityBill.included", boolAt("utilityBill", "included")},
		{"includedInBill", boolAt("includedInBill")},
		{"isIncludedInBill", boolAt("isIncludedInBill")},
	}
)

// alcoholKeywords drive the last-resort category inference. "gin" and "ale"
// are left out because they match "ginger ale".
var alcoholKeywords = []string{
	"beer", "wine", "whisk", "vodka", "rum", "tequila", "cocktail", "champagne",
	"cider", "brandy", "lager", "sake", "alcohol", "scotch", "bourbon", "martini",
}

// InferCategory classifies a beverage by name. It is only consulted when no
// category field is present anywhere in the record.
func InferCategory(name string) enums.BeverageCategory {
	lower := strings.ToLower(name)
	for _, kw := range alcoholKeywords {
		if strings.Contains(lower, kw) {
			return enums.BeverageCategoryAlcoholic
		}
	}
	return enums.BeverageCategoryNonAlcoholic
}

func lookup(rec apiclient.RawRecord, path ...string) (any, bool) {
	var current any = map[string]any(rec)
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = obj[key]; !ok || current == nil {
			return nil, false
		}
	}
	return current, true
}

func textAt(path ...string) func(apiclient.RawRecord) (string, bool) {
	return func(rec apiclient.RawRecord) (string, bool) {
		v, ok := lookup(rec, path...)
		if !ok {
			return "", false
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case json.Number:
			s = t.String()
		default:
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	}
}

func categoryAt(path ...string) func(apiclient.RawRecord) (enums.BeverageCategory, bool) {
	read := textAt(path...)
	return func(rec apiclient.RawRecord) (enums.BeverageCategory, bool) {
		raw, ok := read(rec)
		if !ok {
			return "", false
		}
		category, err := enums.ParseBeverageCategory(raw)
		return category, err == nil
	}
}

func statusAt(path ...string) func(apiclient.RawRecord) (enums.PaymentStatus, bool) {
	read := textAt(path...)
	return func(rec apiclient.RawRecord) (enums.PaymentStatus, bool) {
		raw, ok := read(rec)
		if !ok {
			return "", false
		}
		if status, err := enums.ParsePaymentStatus(raw); err == nil {
			return status, true
		}
		return enums.PaymentStatus(strings.ToLower(raw)), true
	}
}

func amountAt(path ...string) func(apiclient.RawRecord) (decimal.Decimal, bool) {
	return func(rec apiclient.RawRecord) (decimal.Decimal, bool) {
		v, ok := lookup(rec, path...)
		if !ok {
			return decimal.Zero, false
		}
		return money.FromAny(v)
	}
}

func intAt(path ...string) func(apiclient.RawRecord) (int, bool) {
	return func(rec apiclient.RawRecord) (int, bool) {
		v, ok := lookup(rec, path...)
		if !ok {
			return 0, false
		}
		var n int64
		var err error
		switch t := v.(type) {
		case json.Number:
			n, err = t.Int64()
			if err != nil {
				var f float64
				if f, err = t.Float64(); err == nil {
					n = int64(f)
				}
			}
		case float64:
			n = int64(t)
		case string:
			n, err = strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		default:
			return 0, false
		}
		if err != nil || n < 1 {
			return 0, false
		}
		return int(n), true
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func timeAt(path ...string) func(apiclient.RawRecord) (time.Time, bool) {
	return func(rec apiclient.RawRecord) (time.Time, bool) {
		v, ok := lookup(rec, path...)
		if !ok {
			return time.Time{}, false
		}
		switch t := v.(type) {
		case string:
			return parseDate(t)
		case json.Number:
			ms, err := t.Int64()
			if err != nil || ms <= 0 {
				return time.Time{}, false
			}
			return time.UnixMilli(ms).UTC(), true
		}
		return time.Time{}, false
	}
}

func parseDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func boolAt(path ...string) func(apiclient.RawRecord) (bool, bool) {
	return func(rec apiclient.RawRecord) (bool, bool) {
		v, ok := lookup(rec, path...)
		if !ok {
			return false, false
		}
		switch t := v.(type) {
		case bool:
			return t, true
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(t))
			return b, err == nil
		}
		return false, false
	}
}
