package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/taxifleet/backend/internal/domain/expense"
	"github.com/taxifleet/backend/internal/domain/masterdata"
	"github.com/taxifleet/backend/internal/domain/rates"
	"github.com/taxifleet/backend/internal/domain/shared"
)

// Default catalog names for the two lease rate components
const (
	RateNameLeaseBase    = "lease_base"
	RateNameLeasePerMile = "lease_per_mile"
)

// LeaseChargeQuery carries the full resolution context for one shift-day
// lease computation
type LeaseChargeQuery struct {
	BaseRateName    string
	PerUnitRateName string
	OwnerID         uuid.UUID
	CabID           uuid.UUID
	ShiftType       masterdata.ShiftType
	Date            time.Time
	UnitsDriven     decimal.Decimal
}

// ChargeBreakdown is the decomposed result of a lease charge computation.
// Base and PerUnitRate keep the catalog's four decimal places; only Total
// is rounded, half-up to two places. Provenance of both components is
// carried so a disputed charge can name the exact override that priced it.
type ChargeBreakdown struct {
	Base        decimal.Decimal
	PerUnitRate decimal.Decimal
	UnitsDriven decimal.Decimal
	PerUnit     decimal.Decimal
	Total       decimal.Decimal
	ChargedTo   rates.ChargedTo
	BaseSource  *rates.ResolvedRate
	UnitSource  *rates.ResolvedRate
}

// ExpenseOccurrence is one dated billing of an expense charge against the
// targets its rule resolved to on that date
type ExpenseOccurrence struct {
	ChargeID    uuid.UUID
	Description string
	ChargeType  expense.ChargeType
	ChargedTo   rates.ChargedTo
	Date        time.Time
	Quantity    decimal.Decimal
	Amount      decimal.Decimal
	Targets     []expense.TargetEntity
}

// ChargeCalculator combines resolved rates, expense configuration and
// usage data into billable amounts. It is read-only over its
// collaborators and safe for concurrent use.
type ChargeCalculator struct {
	resolver *rates.Resolver
	targets  *expense.TargetResolver
	usage    masterdata.UsageSource
}

// NewChargeCalculator creates a new ChargeCalculator
func NewChargeCalculator(resolver *rates.Resolver, targets *expense.TargetResolver, usage masterdata.UsageSource) *ChargeCalculator {
	return &ChargeCalculator{
		resolver: resolver,
		targets:  targets,
		usage:    usage,
	}
}

// ComputeLeaseCharge resolves the base and per-unit lease rates
// independently for the query context and combines them with the driven
// units. Intermediate values stay unrounded; the total is rounded half-up
// to two places at the end.
func (cc *ChargeCalculator) ComputeLeaseCharge(ctx context.Context, fleetID uuid.UUID, q LeaseChargeQuery) (*ChargeBreakdown, error) {
	baseName := q.BaseRateName
	if baseName == "" {
		baseName = RateNameLeaseBase
	}
	unitName := q.PerUnitRateName
	if unitName == "" {
		unitName = RateNameLeasePerMile
	}

	weekday := q.Date.Weekday()
	query := rates.ResolutionQuery{
		OwnerID:   q.OwnerID,
		CabID:     &q.CabID,
		ShiftType: &q.ShiftType,
		DayOfWeek: &weekday,
		Date:      q.Date,
	}

	query.RateName = baseName
	base, err := cc.resolver.Resolve(ctx, fleetID, query)
	if err != nil {
		return nil, fmt.Errorf("resolve base lease rate: %w", err)
	}

	query.RateName = unitName
	perUnit, err := cc.resolver.Resolve(ctx, fleetID, query)
	if err != nil {
		return nil, fmt.Errorf("resolve per-unit lease rate: %w", err)
	}

	// Both components land on one line billed to one side; rates configured
	// to bill opposite sides would silently charge the wrong person
	if perUnit.Definition.ChargedTo != base.Definition.ChargedTo {
		return nil, shared.NewDomainError(shared.CodeDataInconsistency,
			fmt.Sprintf("Lease rates %q (%s) and %q (%s) bill different sides",
				baseName, base.Definition.ChargedTo, unitName, perUnit.Definition.ChargedTo))
	}

	unitAmount := perUnit.Value.Mul(q.UnitsDriven)

	return &ChargeBreakdown{
		Base:        base.Value,
		PerUnitRate: perUnit.Value,
		UnitsDriven: q.UnitsDriven,
		PerUnit:     unitAmount,
		Total:       base.Value.Add(unitAmount).Round(2),
		ChargedTo:   base.Definition.ChargedTo,
		BaseSource:  base,
		UnitSource:  perUnit,
	}, nil
}

// ComputeExpenseOccurrences expands a charge's cadence against the
// statement period. Targets are resolved per occurrence date, so a shift
// gaining or losing an attribute mid-period is billed only for the days
// it qualified. Per-unit charges follow usage data and produce nothing
// for days without it.
func (cc *ChargeCalculator) ComputeExpenseOccurrences(ctx context.Context, fleetID uuid.UUID, charge *expense.ExpenseCharge, periodFrom, periodTo time.Time) ([]ExpenseOccurrence, error) {
	if !charge.AppliesInPeriod(periodFrom, periodTo) {
		return nil, nil
	}

	if !charge.IsRecurring() {
		return cc.occurrenceOn(ctx, fleetID, charge, *charge.OccurredOn, decimal.NewFromInt(1), charge.Amount)
	}

	overlapFrom := periodFrom
	if charge.EffectiveFrom.After(overlapFrom) {
		overlapFrom = charge.EffectiveFrom
	}
	overlapTo := periodTo
	if charge.EffectiveTo != nil && charge.EffectiveTo.Before(overlapTo) {
		overlapTo = *charge.EffectiveTo
	}

	switch charge.Cadence {
	case rates.CadenceMonthly:
		// One occurrence per overlapping statement period, on the first
		// qualifying day
		return cc.occurrenceOn(ctx, fleetID, charge, overlapFrom, decimal.NewFromInt(1), charge.Amount)

	case rates.CadenceDaily:
		var occurrences []ExpenseOccurrence
		for day := overlapFrom; !day.After(overlapTo); day = day.AddDate(0, 0, 1) {
			occ, err := cc.occurrenceOn(ctx, fleetID, charge, day, decimal.NewFromInt(1), charge.Amount)
			if err != nil {
				return nil, err
			}
			occurrences = append(occurrences, occ...)
		}
		return occurrences, nil

	case rates.CadencePerUnit:
		return cc.perUnitOccurrences(ctx, fleetID, charge, overlapFrom, overlapTo)
	}

	return nil, fmt.Errorf("expense charge %s has unsupported cadence %q", charge.ID, charge.Cadence)
}

func (cc *ChargeCalculator) occurrenceOn(ctx context.Context, fleetID uuid.UUID, charge *expense.ExpenseCharge, date time.Time, quantity, amount decimal.Decimal) ([]ExpenseOccurrence, error) {
	targets, err := cc.targets.ResolveTargets(ctx, fleetID, charge.Rule, date)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, nil
	}

	return []ExpenseOccurrence{{
		ChargeID:    charge.ID,
		Description: charge.Description,
		ChargeType:  charge.Type,
		ChargedTo:   charge.ChargedTo,
		Date:        date,
		Quantity:    quantity,
		Amount:      amount,
		Targets:     targets,
	}}, nil
}

// perUnitOccurrences bills charge.Amount per driven mile. Each shift
// target is billed separately per day because the driven units differ
// per shift; person targets carry no usage and contribute nothing.
func (cc *ChargeCalculator) perUnitOccurrences(ctx context.Context, fleetID uuid.UUID, charge *expense.ExpenseCharge, from, to time.Time) ([]ExpenseOccurrence, error) {
	var occurrences []ExpenseOccurrence
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		targets, err := cc.targets.ResolveTargets(ctx, fleetID, charge.Rule, day)
		if err != nil {
			return nil, err
		}

		for _, target := range targets {
			if target.Type != expense.TargetShift {
				continue
			}
			records, err := cc.usage.UsageFor(ctx, fleetID, target.ID, day, day)
			if err != nil {
				return nil, fmt.Errorf("usage for shift %s on %s: %w", target.ID, day.Format("2006-01-02"), err)
			}

			miles := decimal.Zero
			for _, u := range records {
				miles = miles.Add(u.Miles)
			}
			if miles.IsZero() {
				continue
			}

			occurrences = append(occurrences, ExpenseOccurrence{
				ChargeID:    charge.ID,
				Description: charge.Description,
				ChargeType:  charge.Type,
				ChargedTo:   charge.ChargedTo,
				Date:        day,
				Quantity:    miles,
				Amount:      charge.Amount.Mul(miles).Round(2),
				Targets:     []expense.TargetEntity{target},
			})
		}
	}
	return occurrences, nil
}
