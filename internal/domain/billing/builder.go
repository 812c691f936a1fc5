package billing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/taxifleet/backend/internal/domain/expense"
	"github.com/taxifleet/backend/internal/domain/masterdata"
	"github.com/taxifleet/backend/internal/domain/shared"
	"github.com/taxifleet/backend/internal/domain/statement"
)

// BuildOptions controls how a period statement is assembled
type BuildOptions struct {
	// AllowFirstStatement accepts a missing prior statement and starts the
	// balance at zero instead of failing with PRIOR_STATEMENT_MISSING
	AllowFirstStatement bool

	// BaseRateName and PerUnitRateName override the default lease rate
	// names when a fleet prices its leases under different catalog entries
	BaseRateName    string
	PerUnitRateName string
}

// StatementBuilder assembles a person's DRAFT statement for a period:
// lease charges for the shifts they are billed on, expense occurrences
// whose targets resolved to them, revenue credits, and the prior
// statement's net due carried forward. The builder computes and returns;
// persisting the result and serializing concurrent builds for the same
// person/period is the application layer's job.
type StatementBuilder struct {
	calculator *ChargeCalculator
	statements statement.Repository
	charges    expense.ExpenseChargeRepository
	persons    masterdata.PersonReader
	shifts     masterdata.ShiftReader
	usage      masterdata.UsageSource
	revenues   masterdata.RevenueReader
}

// NewStatementBuilder creates a new StatementBuilder
func NewStatementBuilder(
	calculator *ChargeCalculator,
	statements statement.Repository,
	charges expense.ExpenseChargeRepository,
	persons masterdata.PersonReader,
	shifts masterdata.ShiftReader,
	usage masterdata.UsageSource,
	revenues masterdata.RevenueReader,
) *StatementBuilder {
	return &StatementBuilder{
		calculator: calculator,
		statements: statements,
		charges:    charges,
		persons:    persons,
		shifts:     shifts,
		usage:      usage,
		revenues:   revenues,
	}
}

// Build computes the DRAFT statement for a person and period. An existing
// draft for the key is rebuilt in place; a posted or locked statement for
// the key fails with STATEMENT_LOCKED and must be superseded through a
// new version instead. Any resolution failure aborts the whole build; no
// partially computed statement is returned.
func (sb *StatementBuilder) Build(ctx context.Context, fleetID, personID uuid.UUID, periodFrom, periodTo time.Time, opts BuildOptions) (*statement.Statement, error) {
	person, err := sb.persons.FindPerson(ctx, fleetID, personID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeTargetNotFound, fmt.Sprintf("Person %s not found", personID))
		}
		return nil, err
	}

	previousBalance, err := sb.previousBalance(ctx, fleetID, personID, periodFrom, opts)
	if err != nil {
		return nil, err
	}

	stmt, err := sb.statementForKey(ctx, fleetID, person, periodFrom, periodTo, previousBalance)
	if err != nil {
		return nil, err
	}

	var items statement.LineItems

	leaseItems, err := sb.leaseLineItems(ctx, fleetID, personID, periodFrom, periodTo, opts)
	if err != nil {
		return nil, err
	}
	items = append(items, leaseItems...)

	expenseItems, err := sb.expenseLineItems(ctx, fleetID, personID, periodFrom, periodTo)
	if err != nil {
		return nil, err
	}
	items = append(items, expenseItems...)

	revenueItems, err := sb.revenueLineItems(ctx, fleetID, personID, periodFrom, periodTo)
	if err != nil {
		return nil, err
	}
	items = append(items, revenueItems...)

	sortLineItems(items)

	if err := stmt.ReplaceLineItems(items); err != nil {
		return nil, err
	}

	return stmt, nil
}

// previousBalance carries the prior statement's net due forward. A person
// with no settled prior statement either starts at zero (first statement
// explicitly allowed) or fails, because silently dropping a carried
// balance corrupts the settlement chain.
func (sb *StatementBuilder) previousBalance(ctx context.Context, fleetID, personID uuid.UUID, periodFrom time.Time, opts BuildOptions) (decimal.Decimal, error) {
	prior, err := sb.statements.FindLatestBefore(ctx, fleetID, personID, periodFrom)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			if opts.AllowFirstStatement {
				return decimal.Zero, nil
			}
			return decimal.Zero, shared.NewDomainError(shared.CodePriorStatementMissing,
				fmt.Sprintf("No prior statement for person %s before %s", personID, periodFrom.Format("2006-01-02")))
		}
		return decimal.Zero, err
	}

	if prior.Status == statement.StatusDraft {
		return decimal.Zero, shared.NewDomainError(shared.CodePriorStatementMissing,
			fmt.Sprintf("Prior statement %s for person %s was never posted", prior.ID, personID))
	}

	return prior.NetDue, nil
}

func (sb *StatementBuilder) statementForKey(ctx context.Context, fleetID uuid.UUID, person *masterdata.Person, periodFrom, periodTo time.Time, previousBalance decimal.Decimal) (*statement.Statement, error) {
	existing, err := sb.statements.FindByPersonAndPeriod(ctx, fleetID, person.ID, periodFrom, periodTo)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if existing != nil && !existing.Status.IsTerminal() {
		if !existing.IsDraft() {
			return nil, shared.NewDomainError(shared.CodeStatementLocked,
				fmt.Sprintf("Statement %s for this period is %s; create a new version instead of rebuilding", existing.ID, existing.Status))
		}
		existing.PreviousBalance = previousBalance
		return existing, nil
	}

	return statement.NewStatement(fleetID, person.ID, person.Role, periodFrom, periodTo, previousBalance)
}

// leaseLineItems bills one lease charge per active shift-day. Whether the
// owner or the driver pays follows the base lease rate's charged-to side.
func (sb *StatementBuilder) leaseLineItems(ctx context.Context, fleetID, personID uuid.UUID, periodFrom, periodTo time.Time, opts BuildOptions) (statement.LineItems, error) {
	shifts, err := sb.shifts.ShiftsForPerson(ctx, fleetID, personID)
	if err != nil {
		return nil, err
	}

	var items statement.LineItems
	for _, shift := range shifts {
		usageByDay, err := sb.usageByDay(ctx, fleetID, shift.ID, periodFrom, periodTo)
		if err != nil {
			return nil, err
		}

		for day := periodFrom; !day.After(periodTo); day = day.AddDate(0, 0, 1) {
			if !shift.IsActiveOn(day) {
				continue
			}

			breakdown, err := sb.calculator.ComputeLeaseCharge(ctx, fleetID, LeaseChargeQuery{
				BaseRateName:    opts.BaseRateName,
				PerUnitRateName: opts.PerUnitRateName,
				OwnerID:         shift.OwnerID,
				CabID:           shift.CabID,
				ShiftType:       shift.Type,
				Date:            day,
				UnitsDriven:     usageByDay[dayKey(day)],
			})
			if err != nil {
				return nil, err
			}

			target := expense.TargetEntity{Type: expense.TargetShift, ID: shift.ID, OwnerID: shift.OwnerID, DriverID: shift.DriverID}
			billed, ok := target.BilledPerson(breakdown.ChargedTo)
			if !ok || billed != personID {
				continue
			}

			item := statement.NewLineItem(statement.LineItemLeaseCharge,
				fmt.Sprintf("Shift lease %s", day.Format("2006-01-02")), day, breakdown.Total).
				WithShift(shift.ID).
				WithQuantity(breakdown.UnitsDriven)
			if breakdown.BaseSource != nil && breakdown.BaseSource.Definition != nil {
				item = item.WithSource(breakdown.BaseSource.Definition.ID)
			}
			items = append(items, item)
		}
	}
	return items, nil
}

func (sb *StatementBuilder) usageByDay(ctx context.Context, fleetID, shiftID uuid.UUID, from, to time.Time) (map[string]decimal.Decimal, error) {
	records, err := sb.usage.UsageFor(ctx, fleetID, shiftID, from, to)
	if err != nil {
		return nil, fmt.Errorf("usage for shift %s: %w", shiftID, err)
	}

	byDay := make(map[string]decimal.Decimal, len(records))
	for _, u := range records {
		key := dayKey(u.Date)
		byDay[key] = byDay[key].Add(u.Miles)
	}
	return byDay, nil
}

func (sb *StatementBuilder) expenseLineItems(ctx context.Context, fleetID, personID uuid.UUID, periodFrom, periodTo time.Time) (statement.LineItems, error) {
	charges, err := sb.charges.FindActiveOverlapping(ctx, fleetID, periodFrom, periodTo)
	if err != nil {
		return nil, err
	}

	var items statement.LineItems
	for i := range charges {
		occurrences, err := sb.calculator.ComputeExpenseOccurrences(ctx, fleetID, &charges[i], periodFrom, periodTo)
		if err != nil {
			return nil, fmt.Errorf("expand expense charge %s: %w", charges[i].ID, err)
		}

		for _, occ := range occurrences {
			itemType := statement.LineItemRecurringExpense
			if occ.ChargeType == expense.ChargeTypeOneTime {
				itemType = statement.LineItemOneTimeExpense
			}

			for _, target := range occ.Targets {
				billed, ok := target.BilledPerson(occ.ChargedTo)
				if !ok || billed != personID {
					continue
				}

				item := statement.NewLineItem(itemType, occ.Description, occ.Date, occ.Amount).
					WithSource(occ.ChargeID).
					WithQuantity(occ.Quantity)
				if target.Type == expense.TargetShift {
					item = item.WithShift(target.ID)
				}
				items = append(items, item)
			}
		}
	}
	return items, nil
}

func (sb *StatementBuilder) revenueLineItems(ctx context.Context, fleetID, personID uuid.UUID, periodFrom, periodTo time.Time) (statement.LineItems, error) {
	records, err := sb.revenues.RevenuesFor(ctx, fleetID, personID, periodFrom, periodTo)
	if err != nil {
		return nil, err
	}

	var items statement.LineItems
	for _, r := range records {
		item := statement.NewLineItem(statement.LineItemRevenue, r.Description, r.OccurredOn, r.Amount).
			WithSource(r.ID)
		if r.ShiftID != nil {
			item = item.WithShift(*r.ShiftID)
		}
		items = append(items, item)
	}
	return items, nil
}

// sortLineItems fixes the statement order so rebuilding a draft from the
// same data yields the same document
func sortLineItems(items statement.LineItems) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].OccurredOn.Equal(items[j].OccurredOn) {
			return items[i].OccurredOn.Before(items[j].OccurredOn)
		}
		if items[i].Type != items[j].Type {
			return items[i].Type < items[j].Type
		}
		return sourceKey(items[i]) < sourceKey(items[j])
	})
}

func sourceKey(item statement.LineItem) string {
	key := ""
	if item.SourceID != nil {
		key = item.SourceID.String()
	}
	if item.ShiftID != nil {
		key += "/" + item.ShiftID.String()
	}
	return key
}

func dayKey(date time.Time) string {
	return date.Format("2006-01-02")
}
