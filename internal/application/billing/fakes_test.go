package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/taxifleet/backend/internal/domain/expense"
	"github.com/taxifleet/backend/internal/domain/rates"
	"github.com/taxifleet/backend/internal/domain/shared"
	"github.com/taxifleet/backend/internal/domain/statement"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return d
}

// spyInvalidator records fleet cache invalidations
type spyInvalidator struct {
	calls []uuid.UUID
}

func (s *spyInvalidator) InvalidateFleet(_ context.Context, fleetID uuid.UUID) error {
	s.calls = append(s.calls, fleetID)
	return nil
}

type fakeDefinitionRepo struct {
	defs map[uuid.UUID]*rates.RateDefinition
}

func newFakeDefinitionRepo() *fakeDefinitionRepo {
	return &fakeDefinitionRepo{defs: make(map[uuid.UUID]*rates.RateDefinition)}
}

func (r *fakeDefinitionRepo) FindByID(_ context.Context, id uuid.UUID) (*rates.RateDefinition, error) {
	if rd, ok := r.defs[id]; ok {
		return rd, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeDefinitionRepo) FindByIDForFleet(_ context.Context, fleetID, id uuid.UUID) (*rates.RateDefinition, error) {
	if rd, ok := r.defs[id]; ok && rd.FleetID == fleetID {
		return rd, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeDefinitionRepo) FindByNameOn(_ context.Context, fleetID uuid.UUID, name string, date time.Time) (*rates.RateDefinition, error) {
	for _, rd := range r.defs {
		if rd.FleetID == fleetID && rd.Name == name && rd.IsEffectiveOn(date) {
			return rd, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeDefinitionRepo) FindAllByName(_ context.Context, fleetID uuid.UUID, name string) ([]rates.RateDefinition, error) {
	var out []rates.RateDefinition
	for _, rd := range r.defs {
		if rd.FleetID == fleetID && rd.Name == name && rd.Active {
			out = append(out, *rd)
		}
	}
	return out, nil
}

func (r *fakeDefinitionRepo) FindAllForFleet(_ context.Context, fleetID uuid.UUID) ([]rates.RateDefinition, error) {
	var out []rates.RateDefinition
	for _, rd := range r.defs {
		if rd.FleetID == fleetID && rd.Active {
			out = append(out, *rd)
		}
	}
	return out, nil
}

func (r *fakeDefinitionRepo) Save(_ context.Context, rd *rates.RateDefinition) error {
	r.defs[rd.ID] = rd
	return nil
}

func (r *fakeDefinitionRepo) SaveWithLock(ctx context.Context, rd *rates.RateDefinition) error {
	return r.Save(ctx, rd)
}

type fakeOverrideRepo struct {
	overrides map[uuid.UUID]*rates.RateOverride
}

func newFakeOverrideRepo() *fakeOverrideRepo {
	return &fakeOverrideRepo{overrides: make(map[uuid.UUID]*rates.RateOverride)}
}

func (r *fakeOverrideRepo) FindByID(_ context.Context, id uuid.UUID) (*rates.RateOverride, error) {
	if ro, ok := r.overrides[id]; ok {
		return ro, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOverrideRepo) FindByIDForFleet(_ context.Context, fleetID, id uuid.UUID) (*rates.RateOverride, error) {
	if ro, ok := r.overrides[id]; ok && ro.FleetID == fleetID {
		return ro, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOverrideRepo) FindActiveForRateAndOwnerOn(_ context.Context, fleetID, rateID, ownerID uuid.UUID, date time.Time) ([]rates.RateOverride, error) {
	var out []rates.RateOverride
	for _, ro := range r.overrides {
		if ro.FleetID == fleetID && ro.RateID == rateID && ro.Scope.OwnerID == ownerID && ro.IsEffectiveOn(date) {
			out = append(out, *ro)
		}
	}
	return out, nil
}

func (r *fakeOverrideRepo) FindAllForRate(_ context.Context, fleetID, rateID uuid.UUID) ([]rates.RateOverride, error) {
	var out []rates.RateOverride
	for _, ro := range r.overrides {
		if ro.FleetID == fleetID && ro.RateID == rateID {
			out = append(out, *ro)
		}
	}
	return out, nil
}

func (r *fakeOverrideRepo) Save(_ context.Context, ro *rates.RateOverride) error {
	r.overrides[ro.ID] = ro
	return nil
}

func (r *fakeOverrideRepo) SaveWithLock(ctx context.Context, ro *rates.RateOverride) error {
	return r.Save(ctx, ro)
}

type fakeStatementRepo struct {
	statements map[uuid.UUID]*statement.Statement
	saves      int
	lockSaves  int
}

func newFakeStatementRepo() *fakeStatementRepo {
	return &fakeStatementRepo{statements: make(map[uuid.UUID]*statement.Statement)}
}

func (r *fakeStatementRepo) FindByID(_ context.Context, id uuid.UUID) (*statement.Statement, error) {
	if s, ok := r.statements[id]; ok {
		return s, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeStatementRepo) FindByIDForFleet(_ context.Context, fleetID, id uuid.UUID) (*statement.Statement, error) {
	if s, ok := r.statements[id]; ok && s.FleetID == fleetID {
		return s, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeStatementRepo) FindByPersonAndPeriod(_ context.Context, fleetID, personID uuid.UUID, periodFrom, periodTo time.Time) (*statement.Statement, error) {
	var found *statement.Statement
	for _, s := range r.statements {
		if s.FleetID != fleetID || s.PersonID != personID ||
			!s.PeriodFrom.Equal(periodFrom) || !s.PeriodTo.Equal(periodTo) || s.Status.IsTerminal() {
			continue
		}
		// drafts win deterministically, matching the production query order
		if found == nil || (s.IsDraft() && !found.IsDraft()) {
			found = s
		}
	}
	if found == nil {
		return nil, shared.ErrNotFound
	}
	return found, nil
}

func (r *fakeStatementRepo) FindLatestBefore(_ context.Context, fleetID, personID uuid.UUID, before time.Time) (*statement.Statement, error) {
	var latest *statement.Statement
	for _, s := range r.statements {
		if s.FleetID != fleetID || s.PersonID != personID || s.Status.IsTerminal() {
			continue
		}
		if !s.PeriodTo.Before(before) {
			continue
		}
		if latest == nil || s.PeriodTo.After(latest.PeriodTo) {
			latest = s
		}
	}
	if latest == nil {
		return nil, shared.ErrNotFound
	}
	return latest, nil
}

func (r *fakeStatementRepo) FindByStatus(_ context.Context, fleetID uuid.UUID, status statement.Status) ([]statement.Statement, error) {
	var out []statement.Statement
	for _, s := range r.statements {
		if s.FleetID == fleetID && s.Status == status {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeStatementRepo) FindByPerson(_ context.Context, fleetID, personID uuid.UUID) ([]statement.Statement, error) {
	var out []statement.Statement
	for _, s := range r.statements {
		if s.FleetID == fleetID && s.PersonID == personID {
			out = append(out, *s)
		}
	}
	return out, nil
}

// Save enforces the same partial unique index the production schema
// carries: at most one non-terminal statement per person/period key
func (r *fakeStatementRepo) Save(_ context.Context, s *statement.Statement) error {
	if !s.Status.IsTerminal() {
		for _, other := range r.statements {
			if other.ID != s.ID && other.FleetID == s.FleetID && other.PersonID == s.PersonID &&
				other.PeriodFrom.Equal(s.PeriodFrom) && other.PeriodTo.Equal(s.PeriodTo) && !other.Status.IsTerminal() {
				return fmt.Errorf("duplicate key value violates unique constraint %q", "uniq_statement_live_period")
			}
		}
	}
	r.saves++
	r.statements[s.ID] = s
	return nil
}

func (r *fakeStatementRepo) SaveWithLock(ctx context.Context, s *statement.Statement) error {
	r.lockSaves++
	return r.Save(ctx, s)
}

func (r *fakeStatementRepo) Supersede(ctx context.Context, parent, child *statement.Statement) error {
	if err := r.SaveWithLock(ctx, parent); err != nil {
		return err
	}
	return r.Save(ctx, child)
}

type fakeChargeRepo struct {
	charges map[uuid.UUID]*expense.ExpenseCharge
}

func newFakeChargeRepo() *fakeChargeRepo {
	return &fakeChargeRepo{charges: make(map[uuid.UUID]*expense.ExpenseCharge)}
}

func (r *fakeChargeRepo) FindByID(_ context.Context, id uuid.UUID) (*expense.ExpenseCharge, error) {
	if ec, ok := r.charges[id]; ok {
		return ec, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeChargeRepo) FindByIDForFleet(_ context.Context, fleetID, id uuid.UUID) (*expense.ExpenseCharge, error) {
	if ec, ok := r.charges[id]; ok && ec.FleetID == fleetID {
		return ec, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeChargeRepo) FindActiveOverlapping(_ context.Context, fleetID uuid.UUID, from, to time.Time) ([]expense.ExpenseCharge, error) {
	var out []expense.ExpenseCharge
	for _, ec := range r.charges {
		if ec.FleetID == fleetID && ec.AppliesInPeriod(from, to) {
			out = append(out, *ec)
		}
	}
	return out, nil
}

func (r *fakeChargeRepo) FindByCategory(_ context.Context, fleetID, categoryID uuid.UUID) ([]expense.ExpenseCharge, error) {
	var out []expense.ExpenseCharge
	for _, ec := range r.charges {
		if ec.FleetID == fleetID && ec.CategoryID == categoryID {
			out = append(out, *ec)
		}
	}
	return out, nil
}

func (r *fakeChargeRepo) Save(_ context.Context, ec *expense.ExpenseCharge) error {
	r.charges[ec.ID] = ec
	return nil
}

func (r *fakeChargeRepo) SaveWithLock(ctx context.Context, ec *expense.ExpenseCharge) error {
	return r.Save(ctx, ec)
}
