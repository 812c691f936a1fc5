package billing

import (
	"context"
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

type memDefinitionRepo struct {
	defs map[uuid.UUID]*rates.RateDefinition
}

func newMemDefinitionRepo() *memDefinitionRepo {
	return &memDefinitionRepo{defs: make(map[uuid.UUID]*rates.RateDefinition)}
}

func (r *memDefinitionRepo) FindByID(_ context.Context, id uuid.UUID) (*rates.RateDefinition, error) {
	if rd, ok := r.defs[id]; ok {
		return rd, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memDefinitionRepo) FindByIDForFleet(_ context.Context, fleetID, id uuid.UUID) (*rates.RateDefinition, error) {
	if rd, ok := r.defs[id]; ok && rd.FleetID == fleetID {
		return rd, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memDefinitionRepo) FindByNameOn(_ context.Context, fleetID uuid.UUID, name string, date time.Time) (*rates.RateDefinition, error) {
	for _, rd := range r.defs {
		if rd.FleetID == fleetID && rd.Name == name && rd.IsEffectiveOn(date) {
			return rd, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memDefinitionRepo) FindAllByName(_ context.Context, fleetID uuid.UUID, name string) ([]rates.RateDefinition, error) {
	var out []rates.RateDefinition
	for _, rd := range r.defs {
		if rd.FleetID == fleetID && rd.Name == name && rd.Active {
			out = append(out, *rd)
		}
	}
	return out, nil
}

func (r *memDefinitionRepo) FindAllForFleet(_ context.Context, fleetID uuid.UUID) ([]rates.RateDefinition, error) {
	var out []rates.RateDefinition
	for _, rd := range r.defs {
		if rd.FleetID == fleetID && rd.Active {
			out = append(out, *rd)
		}
	}
	return out, nil
}

func (r *memDefinitionRepo) Save(_ context.Context, rd *rates.RateDefinition) error {
	r.defs[rd.ID] = rd
	return nil
}

func (r *memDefinitionRepo) SaveWithLock(ctx context.Context, rd *rates.RateDefinition) error {
	return r.Save(ctx, rd)
}

type memOverrideRepo struct {
	overrides map[uuid.UUID]*rates.RateOverride
}

func newMemOverrideRepo() *memOverrideRepo {
	return &memOverrideRepo{overrides: make(map[uuid.UUID]*rates.RateOverride)}
}

func (r *memOverrideRepo) FindByID(_ context.Context, id uuid.UUID) (*rates.RateOverride, error) {
	if ro, ok := r.overrides[id]; ok {
		return ro, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memOverrideRepo) FindByIDForFleet(_ context.Context, fleetID, id uuid.UUID) (*rates.RateOverride, error) {
	if ro, ok := r.overrides[id]; ok && ro.FleetID == fleetID {
		return ro, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memOverrideRepo) FindActiveForRateAndOwnerOn(_ context.Context, fleetID, rateID, ownerID uuid.UUID, date time.Time) ([]rates.RateOverride, error) {
	var out []rates.RateOverride
	for _, ro := range r.overrides {
		if ro.FleetID == fleetID && ro.RateID == rateID && ro.Scope.OwnerID == ownerID && ro.IsEffectiveOn(date) {
			out = append(out, *ro)
		}
	}
	return out, nil
}

func (r *memOverrideRepo) FindAllForRate(_ context.Context, fleetID, rateID uuid.UUID) ([]rates.RateOverride, error) {
	var out []rates.RateOverride
	for _, ro := range r.overrides {
		if ro.FleetID == fleetID && ro.RateID == rateID {
			out = append(out, *ro)
		}
	}
	return out, nil
}

func (r *memOverrideRepo) Save(_ context.Context, ro *rates.RateOverride) error {
	r.overrides[ro.ID] = ro
	return nil
}

func (r *memOverrideRepo) SaveWithLock(ctx context.Context, ro *rates.RateOverride) error {
	return r.Save(ctx, ro)
}

type memStatementRepo struct {
	statements map[uuid.UUID]*statement.Statement
}

func newMemStatementRepo() *memStatementRepo {
	return &memStatementRepo{statements: make(map[uuid.UUID]*statement.Statement)}
}

func (r *memStatementRepo) FindByID(_ context.Context, id uuid.UUID) (*statement.Statement, error) {
	if s, ok := r.statements[id]; ok {
		return s, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memStatementRepo) FindByIDForFleet(_ context.Context, fleetID, id uuid.UUID) (*statement.Statement, error) {
	if s, ok := r.statements[id]; ok && s.FleetID == fleetID {
		return s, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memStatementRepo) FindByPersonAndPeriod(_ context.Context, fleetID, personID uuid.UUID, periodFrom, periodTo time.Time) (*statement.Statement, error) {
	for _, s := range r.statements {
		if s.FleetID == fleetID && s.PersonID == personID &&
			s.PeriodFrom.Equal(periodFrom) && s.PeriodTo.Equal(periodTo) && !s.Status.IsTerminal() {
			return s, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memStatementRepo) FindLatestBefore(_ context.Context, fleetID, personID uuid.UUID, before time.Time) (*statement.Statement, error) {
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

func (r *memStatementRepo) FindByStatus(_ context.Context, fleetID uuid.UUID, status statement.Status) ([]statement.Statement, error) {
	var out []statement.Statement
	for _, s := range r.statements {
		if s.FleetID == fleetID && s.Status == status {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memStatementRepo) FindByPerson(_ context.Context, fleetID, personID uuid.UUID) ([]statement.Statement, error) {
	var out []statement.Statement
	for _, s := range r.statements {
		if s.FleetID == fleetID && s.PersonID == personID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memStatementRepo) Save(_ context.Context, s *statement.Statement) error {
	r.statements[s.ID] = s
	return nil
}

func (r *memStatementRepo) SaveWithLock(ctx context.Context, s *statement.Statement) error {
	return r.Save(ctx, s)
}

func (r *memStatementRepo) Supersede(ctx context.Context, parent, child *statement.Statement) error {
	if err := r.Save(ctx, parent); err != nil {
		return err
	}
	return r.Save(ctx, child)
}

type memChargeRepo struct {
	charges map[uuid.UUID]*expense.ExpenseCharge
}

func newMemChargeRepo() *memChargeRepo {
	return &memChargeRepo{charges: make(map[uuid.UUID]*expense.ExpenseCharge)}
}

func (r *memChargeRepo) FindByID(_ context.Context, id uuid.UUID) (*expense.ExpenseCharge, error) {
	if ec, ok := r.charges[id]; ok {
		return ec, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memChargeRepo) FindByIDForFleet(_ context.Context, fleetID, id uuid.UUID) (*expense.ExpenseCharge, error) {
	if ec, ok := r.charges[id]; ok && ec.FleetID == fleetID {
		return ec, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memChargeRepo) FindActiveOverlapping(_ context.Context, fleetID uuid.UUID, from, to time.Time) ([]expense.ExpenseCharge, error) {
	var out []expense.ExpenseCharge
	for _, ec := range r.charges {
		if ec.FleetID == fleetID && ec.AppliesInPeriod(from, to) {
			out = append(out, *ec)
		}
	}
	return out, nil
}

func (r *memChargeRepo) FindByCategory(_ context.Context, fleetID, categoryID uuid.UUID) ([]expense.ExpenseCharge, error) {
	var out []expense.ExpenseCharge
	for _, ec := range r.charges {
		if ec.FleetID == fleetID && ec.CategoryID == categoryID {
			out = append(out, *ec)
		}
	}
	return out, nil
}

func (r *memChargeRepo) Save(_ context.Context, ec *expense.ExpenseCharge) error {
	r.charges[ec.ID] = ec
	return nil
}

func (r *memChargeRepo) SaveWithLock(ctx context.Context, ec *expense.ExpenseCharge) error {
	return r.Save(ctx, ec)
}
