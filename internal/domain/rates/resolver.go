package rates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/taxifleet/backend/internal/domain/masterdata"
)

// RateSource indicates where a resolved value came from
type RateSource string

const (
	SourceBase     RateSource = "BASE"
	SourceOverride RateSource = "OVERRIDE"
)

// ResolutionQuery identifies the context a rate is resolved for. CabID,
// ShiftType and DayOfWeek are optional; overrides constraining a dimension
// the query leaves nil do not match.
type ResolutionQuery struct {
	RateName  string
	OwnerID   uuid.UUID
	CabID     *uuid.UUID
	ShiftType *masterdata.ShiftType
	DayOfWeek *masterdata.DayOfWeek
	Date      time.Time
}

// ResolvedRate is the outcome of a resolution, carrying provenance so that
// statement line items can explain which rule produced their amount.
type ResolvedRate struct {
	Definition *RateDefinition
	Value      decimal.Decimal
	Source     RateSource
	OverrideID *uuid.UUID
	Priority   int
}

// Resolver performs the two-tier rate lookup: scoped overrides first, the
// catalog's base rate as fallback. Resolution is read-only and deterministic;
// identical inputs against unchanged data always produce identical results,
// which is what makes statement regeneration and audit replay safe.
type Resolver struct {
	catalog   *Catalog
	overrides RateOverrideRepository
}

// NewResolver creates a new override resolver
func NewResolver(catalog *Catalog, overrides RateOverrideRepository) *Resolver {
	return &Resolver{
		catalog:   catalog,
		overrides: overrides,
	}
}

// Resolve returns the winning rate for the query. Matching overrides are
// ranked by specificity priority; equal priorities are broken by the most
// recently created override. With no matching override the base rate applies.
func (r *Resolver) Resolve(ctx context.Context, fleetID uuid.UUID, q ResolutionQuery) (*ResolvedRate, error) {
	base, err := r.catalog.GetRate(ctx, fleetID, q.RateName, q.Date)
	if err != nil {
		return nil, err
	}

	candidates, err := r.overrides.FindActiveForRateAndOwnerOn(ctx, fleetID, base.ID, q.OwnerID, q.Date)
	if err != nil {
		return nil, err
	}

	var winner *RateOverride
	for i := range candidates {
		o := &candidates[i]
		if !o.IsEffectiveOn(q.Date) || !o.Scope.Matches(q) {
			continue
		}
		if winner == nil ||
			o.Priority > winner.Priority ||
			(o.Priority == winner.Priority && o.moreRecentlyCreatedThan(winner)) {
			winner = o
		}
	}

	if winner == nil {
		return &ResolvedRate{
			Definition: base,
			Value:      base.Value,
			Source:     SourceBase,
		}, nil
	}

	overrideID := winner.ID
	return &ResolvedRate{
		Definition: base,
		Value:      winner.OverrideValue,
		Source:     SourceOverride,
		OverrideID: &overrideID,
		Priority:   winner.Priority,
	}, nil
}
