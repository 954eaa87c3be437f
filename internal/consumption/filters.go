package consumption

import (
	"net/url"
	"strings"

	"github.com/angelmondragon/residence-portal/pkg/enums"
)

// Filters narrow the fetched history. All four are applied client side and
// commute with each other.
type Filters struct {
	StartDate     string               `json:"startDate,omitempty"`
	EndDate       string               `json:"endDate,omitempty"`
	Category      enums.CategoryFilter `json:"category"`
	PaymentStatus string               `json:"paymentStatus,omitempty"`
}

// ParseFilters reads filters from query parameters. Malformed dates and
// unknown values are ignored.
func ParseFilters(q url.Values) Filters {
	f := Filters{
		StartDate: normalizeDay(q.Get("startDate")),
		EndDate:   normalizeDay(q.Get("endDate")),
		Category:  enums.ParseCategoryFilter(q.Get("category")),
	}
	if status, err := enums.ParsePaymentStatus(q.Get("paymentStatus")); err == nil {
		f.PaymentStatus = status.String()
	}
	return f
}

func normalizeDay(value string) string {
	ts, ok := parseDate(value)
	if !ok {
		return ""
	}
	return ts.Format(dayLayout)
}

// Match reports whether a record passes every filter. Date bounds are
// inclusive calendar days; a record without a date fails any date bound.
func (f Filters) Match(r Record) bool {
	if f.StartDate != "" || f.EndDate != "" {
		day := r.Day()
		if day == "" {
			return false
		}
		if f.StartDate != "" && day < f.StartDate {
			return false
		}
		if f.EndDate != "" && day > f.EndDate {
			return false
		}
	}
	if !f.Category.Matches(r.Category) {
		return false
	}
	if f.PaymentStatus != "" && !strings.EqualFold(f.PaymentStatus, string(r.Status)) {
		return false
	}
	return true
}

// Apply returns the records passing every filter, order preserved.
func (f Filters) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Query encodes the filters back into query parameters.
func (f Filters) Query() url.Values {
	q := url.Values{}
	if f.StartDate != "" {
		q.Set("startDate", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("endDate", f.EndDate)
	}
	if f.Category != "" && f.Category != enums.CategoryFilterAll {
		q.Set("category", string(f.Category))
	}
	if f.PaymentStatus != "" {
		q.Set("paymentStatus", f.PaymentStatus)
	}
	return q
}
