package consumption

import (
	"github.com/angelmondragon/residence-portal/internal/viewstate"
	"github.com/angelmondragon/residence-portal/pkg/enums"
	"github.com/angelmondragon/residence-portal/pkg/money"
)

// Row is one rendered history line.
type Row struct {
	ID            string `json:"id"`
	Date          string `json:"date"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	Quantity      int    `json:"quantity"`
	UnitPrice     string `json:"unitPrice"`
	Total         string `json:"total"`
	Status        string `json:"status"`
	StatusKey     string `json:"statusKey"`
	BillingPeriod string `json:"billingPeriod,omitempty"`
}

// SummaryView is the formatted summary.
type SummaryView struct {
	Orders  int    `json:"orders"`
	Total   string `json:"total"`
	Paid    string `json:"paid"`
	Pending string `json:"pending"`
	Other   string `json:"other"`
}

// Path is where the history page is served.
const Path = "/rooftop/consumption"

// View is the consumption history page model.
type View struct {
	State      *viewstate.State[[]Record] `json:"state"`
	Source     enums.ConsumptionSource    `json:"source,omitempty"`
	Filters    Filters                    `json:"filters"`
	Rows       []Row                      `json:"rows"`
	Summary    SummaryView                `json:"summary"`
	Statuses   []enums.PaymentStatus      `json:"statuses"`
	RefreshURL string                     `json:"refreshUrl"`
}

func buildView(state *viewstate.State[[]Record], filters Filters, source enums.ConsumptionSource) *View {
	if filters.Category == "" {
		filters.Category = enums.CategoryFilterAll
	}
	view := &View{
		State:    state,
		Source:   source,
		Filters:  filters,
		Rows:     make([]Row, 0, len(state.Data)),
		Statuses: enums.PaymentStatuses,
	}
	view.RefreshURL = Path
	if q := filters.Query().Encode(); q != "" {
		view.RefreshURL += "?" + q
	}
	for _, r := range state.Data {
		row := Row{
			ID:        r.ID,
			Date:      r.Day(),
			Name:      r.Name,
			Category:  r.Category.String(),
			Quantity:  r.Quantity,
			UnitPrice: money.Format(r.UnitPrice),
			Total:     money.Format(r.Total),
			Status:    r.DisplayStatus(),
			StatusKey: string(r.Status),
		}
		if r.Bill != nil {
			row.BillingPeriod = r.Bill.BillingPeriod
		}
		view.Rows = append(view.Rows, row)
	}
	summary := Summarize(state.Data)
	view.Summary = SummaryView{
		Orders:  summary.Orders,
		Total:   money.Format(summary.Total),
		Paid:    money.Format(summary.Paid),
		Pending: money.Format(summary.Pending),
		Other:   money.Format(summary.Other),
	}
	return view
}
