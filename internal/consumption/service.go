// Package consumption implements the read-only consumption history view.
// Records arrive in one of three shapes and are read through ordered
// fallback chains before filtering and summarising.
package consumption

import (
	"context"
	"fmt"
	"sort"

	"github.com/angelmondragon/residence-portal/internal/viewstate"
	"github.com/angelmondragon/residence-portal/pkg/apiclient"
	"github.com/angelmondragon/residence-portal/pkg/enums"
	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	"github.com/angelmondragon/residence-portal/pkg/logger"
)

const MsgLoadFailed = "Failed to load consumption history"

type backend interface {
	ConsumptionRecords(ctx context.Context, source enums.ConsumptionSource) ([]apiclient.RawRecord, error)
}

// Service exposes the consumption history view.
type Service interface {
	List(ctx context.Context, filters Filters) *View
}

type service struct {
	api     backend
	sources []enums.ConsumptionSource
	logg    *logger.Logger
}

// NewService builds the consumption service. Sources are tried in
// enums.ConsumptionSourcePriority order.
func NewService(api backend, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("backend client required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{api: api, sources: enums.ConsumptionSourcePriority, logg: logg}, nil
}

// List fetches from the first source that succeeds, then filters and
// summarises locally.
func (s *service) List(ctx context.Context, filters Filters) *View {
	state := viewstate.New[[]Record]()
	state.Begin()

	records, source, err := s.fetch(ctx)
	if err != nil {
		state.Fail(pkgerrors.UserMessage(err, MsgLoadFailed))
		return buildView(state, filters, "")
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
	state.Succeed(filters.Apply(records))
	return buildView(state, filters, source)
}

func (s *service) fetch(ctx context.Context) ([]Record, enums.ConsumptionSource, error) {
	var lastErr error
	for _, source := range s.sources {
		raws, err := s.api.ConsumptionRecords(ctx, source)
		if err == nil {
			return NormalizeAll(raws), source, nil
		}
		lastErr = err
		if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			break
		}
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{"source": source.String(), "error": err.Error()}), "consumption source failed; trying next")
	}
	return nil, "", lastErr
}
