package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxifleet/backend/internal/domain/expense"
	"github.com/taxifleet/backend/internal/domain/masterdata"
	"github.com/taxifleet/backend/internal/domain/rates"
	"github.com/taxifleet/backend/internal/domain/shared"
	"github.com/taxifleet/backend/internal/domain/statement"
)

type builderFixture struct {
	*calcFixture
	statements *memStatementRepo
	charges    *memChargeRepo
	builder    *StatementBuilder
}

// newBuilderFixture wires a fleet with one day shift active from April 28,
// a daily base lease of 85 and a per-mile lease rate of 0.1575, both
// charged to the driver.
func newBuilderFixture(t *testing.T) *builderFixture {
	t.Helper()
	f := &builderFixture{
		calcFixture: newCalcFixture(t),
		statements:  newMemStatementRepo(),
		charges:     newMemChargeRepo(),
	}

	f.shift.ActiveFrom = date(2024, 4, 28)
	f.store.AddShift(f.shift)

	f.addRate(t, RateNameLeaseBase, "85.0000", rates.UnitTypeFlatPeriodic, rates.CadenceDaily)
	f.addRate(t, RateNameLeasePerMile, "0.1575", rates.UnitTypePerMile, rates.CadencePerUnit)

	f.builder = NewStatementBuilder(f.calculator, f.statements, f.charges,
		f.store, f.store, f.store, f.store)
	return f
}

func (f *builderFixture) buildDriver(t *testing.T) (*statement.Statement, error) {
	t.Helper()
	return f.builder.Build(context.Background(), f.fleetID, f.driver.ID,
		date(2024, 4, 1), date(2024, 4, 30), BuildOptions{AllowFirstStatement: true})
}

func TestStatementBuilder_Build(t *testing.T) {
	ctx := context.Background()
	f := newBuilderFixture(t)

	// 212 miles on the 28th; the other two active days are idle
	f.store.AddUsage(masterdata.Usage{ShiftID: f.shift.ID, Date: date(2024, 4, 28), Miles: dec(t, "212"), Trips: 18})

	// Monthly charge effective mid-period must bill exactly once
	monthly, err := expense.NewRecurringCharge(f.fleetID, uuid.New(), "workers comp insurance",
		expense.NewAllDriversRule(), rates.ChargedToDriver, dec(t, "30.00"), rates.CadenceMonthly, date(2024, 4, 5), nil)
	require.NoError(t, err)
	require.NoError(t, f.charges.Save(ctx, monthly))

	f.store.AddRevenue(masterdata.RevenueRecord{
		ID: uuid.New(), PersonID: f.driver.ID, Description: "credit card trips",
		Amount: dec(t, "180.00"), OccurredOn: date(2024, 4, 28),
	})

	stmt, err := f.buildDriver(t)
	require.NoError(t, err)

	assert.Equal(t, statement.StatusDraft, stmt.Status)
	assert.Equal(t, masterdata.RoleDriver, stmt.PersonType)

	var lease, recurring, revenue int
	for _, item := range stmt.LineItems {
		switch item.Type {
		case statement.LineItemLeaseCharge:
			lease++
		case statement.LineItemRecurringExpense:
			recurring++
		case statement.LineItemRevenue:
			revenue++
		}
	}
	assert.Equal(t, 3, lease, "one lease line per active shift day")
	assert.Equal(t, 1, recurring, "monthly charge billed once")
	assert.Equal(t, 1, revenue)

	// 118.39 (85 + 0.1575*212) + 85 + 85 + 30 expense, 180 revenue credit
	assert.True(t, stmt.TotalExpense.Equal(dec(t, "318.39")), "expense %s", stmt.TotalExpense)
	assert.True(t, stmt.TotalRevenue.Equal(dec(t, "180.00")), "revenue %s", stmt.TotalRevenue)
	assert.True(t, stmt.NetDue.Equal(dec(t, "138.39")), "net due %s", stmt.NetDue)
}

func TestStatementBuilder_IdempotentRebuild(t *testing.T) {
	ctx := context.Background()
	f := newBuilderFixture(t)
	f.store.AddUsage(masterdata.Usage{ShiftID: f.shift.ID, Date: date(2024, 4, 28), Miles: dec(t, "212"), Trips: 18})

	first, err := f.buildDriver(t)
	require.NoError(t, err)
	require.NoError(t, f.statements.Save(ctx, first))

	second, err := f.buildDriver(t)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "rebuild reuses the existing draft")
	assert.Len(t, second.LineItems, len(first.LineItems))
	assert.True(t, first.TotalExpense.Equal(second.TotalExpense))
	assert.True(t, first.NetDue.Equal(second.NetDue))
}

func TestStatementBuilder_PostedStatementRejectsRebuild(t *testing.T) {
	ctx := context.Background()
	f := newBuilderFixture(t)
	f.store.AddUsage(masterdata.Usage{ShiftID: f.shift.ID, Date: date(2024, 4, 28), Miles: dec(t, "212"), Trips: 18})

	stmt, err := f.buildDriver(t)
	require.NoError(t, err)
	require.NoError(t, stmt.Post(uuid.New()))
	require.NoError(t, f.statements.Save(ctx, stmt))

	_, err = f.buildDriver(t)
	require.Error(t, err)
	assert.True(t, shared.IsDomainErrorCode(err, shared.CodeStatementLocked))
}

func TestStatementBuilder_PriorStatement(t *testing.T) {
	ctx := context.Background()

	t.Run("missing prior fails unless first statement is allowed", func(t *testing.T) {
		f := newBuilderFixture(t)
		_, err := f.builder.Build(ctx, f.fleetID, f.driver.ID,
			date(2024, 4, 1), date(2024, 4, 30), BuildOptions{})
		require.Error(t, err)
		assert.True(t, shared.IsDomainErrorCode(err, shared.CodePriorStatementMissing))
	})

	t.Run("unposted prior draft fails continuity", func(t *testing.T) {
		f := newBuilderFixture(t)
		prior, err := statement.NewStatement(f.fleetID, f.driver.ID, masterdata.RoleDriver,
			date(2024, 3, 1), date(2024, 3, 31), dec(t, "0"))
		require.NoError(t, err)
		require.NoError(t, f.statements.Save(ctx, prior))

		_, err = f.builder.Build(ctx, f.fleetID, f.driver.ID,
			date(2024, 4, 1), date(2024, 4, 30), BuildOptions{})
		require.Error(t, err)
		assert.True(t, shared.IsDomainErrorCode(err, shared.CodePriorStatementMissing))
	})

	t.Run("posted prior carries its net due forward", func(t *testing.T) {
		f := newBuilderFixture(t)
		admin := uuid.New()

		prior, err := statement.NewStatement(f.fleetID, f.driver.ID, masterdata.RoleDriver,
			date(2024, 3, 1), date(2024, 3, 31), dec(t, "0"))
		require.NoError(t, err)
		require.NoError(t, prior.ReplaceLineItems(statement.LineItems{
			statement.NewLineItem(statement.LineItemRecurringExpense, "radio fee", date(2024, 3, 1), dec(t, "40.00")),
		}))
		require.NoError(t, prior.Post(admin))
		require.NoError(t, f.statements.Save(ctx, prior))

		stmt, err := f.builder.Build(ctx, f.fleetID, f.driver.ID,
			date(2024, 4, 1), date(2024, 4, 30), BuildOptions{})
		require.NoError(t, err)
		assert.True(t, stmt.PreviousBalance.Equal(dec(t, "40.00")), "previous balance %s", stmt.PreviousBalance)
	})
}

func TestStatementBuilder_ChargedToSideSelectsThePayer(t *testing.T) {
	ctx := context.Background()
	f := newBuilderFixture(t)

	// The lease is charged to the driver, so the owner's statement carries
	// only the expense explicitly targeted at owners
	oneTime, err := expense.NewOneTimeCharge(f.fleetID, uuid.New(), "windshield replacement",
		expense.NewAllOwnersRule(), rates.ChargedToOwner, dec(t, "180.00"), date(2024, 4, 15))
	require.NoError(t, err)
	require.NoError(t, f.charges.Save(ctx, oneTime))

	stmt, err := f.builder.Build(ctx, f.fleetID, f.owner.ID,
		date(2024, 4, 1), date(2024, 4, 30), BuildOptions{AllowFirstStatement: true})
	require.NoError(t, err)

	require.Len(t, stmt.LineItems, 1)
	assert.Equal(t, statement.LineItemOneTimeExpense, stmt.LineItems[0].Type)
	assert.True(t, stmt.TotalExpense.Equal(dec(t, "180.00")))
}

func TestStatementBuilder_UnknownPerson(t *testing.T) {
	f := newBuilderFixture(t)
	_, err := f.builder.Build(context.Background(), f.fleetID, uuid.New(),
		date(2024, 4, 1), date(2024, 4, 30), BuildOptions{AllowFirstStatement: true})
	require.Error(t, err)
	assert.True(t, shared.IsDomainErrorCode(err, shared.CodeTargetNotFound))
}
