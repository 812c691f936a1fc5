package rates

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxifleet/backend/internal/domain/masterdata"
	"github.com/taxifleet/backend/internal/domain/shared"
)

type resolverFixture struct {
	fleetID   uuid.UUID
	ownerID   uuid.UUID
	cabID     uuid.UUID
	base      *RateDefinition
	defs      *memDefinitionRepo
	overrides *memOverrideRepo
	resolver  *Resolver
}

func newResolverFixture(t *testing.T) *resolverFixture {
	t.Helper()
	ctx := context.Background()
	f := &resolverFixture{
		fleetID:   uuid.New(),
		ownerID:   uuid.New(),
		cabID:     uuid.New(),
		defs:      newMemDefinitionRepo(),
		overrides: newMemOverrideRepo(),
	}

	f.base = createTestRate(t, "lease_base", "85.0000", date(2024, 1, 1), nil)
	f.base.FleetID = f.fleetID
	require.NoError(t, f.defs.Save(ctx, f.base))

	f.resolver = NewResolver(NewCatalog(f.defs), f.overrides)
	return f
}

func (f *resolverFixture) addOverride(t *testing.T, scope OverrideScope, value string, createdAt time.Time) *RateOverride {
	t.Helper()
	v, err := decimal.NewFromString(value)
	require.NoError(t, err)
	ro, err := NewRateOverride(f.fleetID, f.base.ID, scope, v, date(2024, 1, 1), nil)
	require.NoError(t, err)
	ro.CreatedAt = createdAt
	require.NoError(t, f.overrides.Save(context.Background(), ro))
	return ro
}

func (f *resolverFixture) query() ResolutionQuery {
	return ResolutionQuery{
		RateName:  "lease_base",
		OwnerID:   f.ownerID,
		CabID:     &f.cabID,
		ShiftType: shiftTypePtr(masterdata.ShiftTypeDay),
		DayOfWeek: weekdayPtr(time.Monday),
		Date:      date(2024, 3, 4), // a Monday
	}
}

func TestResolver_SpecificityOrdering(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(t)
	createdAt := date(2024, 1, 1)

	full := f.addOverride(t, OverrideScope{
		OwnerID:   f.ownerID,
		CabID:     &f.cabID,
		ShiftType: shiftTypePtr(masterdata.ShiftTypeDay),
		DayOfWeek: weekdayPtr(time.Monday),
	}, "60.0000", createdAt)
	cabOnly := f.addOverride(t, OverrideScope{OwnerID: f.ownerID, CabID: &f.cabID}, "70.0000", createdAt)

	// Priority 100 override wins over priority 50
	resolved, err := f.resolver.Resolve(ctx, f.fleetID, f.query())
	require.NoError(t, err)
	assert.Equal(t, SourceOverride, resolved.Source)
	assert.Equal(t, "60", resolved.Value.String())
	assert.Equal(t, 100, resolved.Priority)
	require.NotNil(t, resolved.OverrideID)
	assert.Equal(t, full.ID, *resolved.OverrideID)

	// Removing it falls back to the cab-only override
	f.overrides.remove(full.ID)
	resolved, err = f.resolver.Resolve(ctx, f.fleetID, f.query())
	require.NoError(t, err)
	assert.Equal(t, "70", resolved.Value.String())
	assert.Equal(t, 50, resolved.Priority)

	// Removing both falls back to the base rate
	f.overrides.remove(cabOnly.ID)
	resolved, err = f.resolver.Resolve(ctx, f.fleetID, f.query())
	require.NoError(t, err)
	assert.Equal(t, SourceBase, resolved.Source)
	assert.Equal(t, "85", resolved.Value.String())
	assert.Nil(t, resolved.OverrideID)
}

func TestResolver_TieBreakMostRecentWins(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(t)

	f.addOverride(t, OverrideScope{OwnerID: f.ownerID, CabID: &f.cabID}, "70.0000", date(2024, 1, 1))
	newer := f.addOverride(t, OverrideScope{OwnerID: f.ownerID, CabID: &f.cabID}, "72.0000", date(2024, 2, 1))

	resolved, err := f.resolver.Resolve(ctx, f.fleetID, f.query())
	require.NoError(t, err)
	assert.Equal(t, "72", resolved.Value.String())
	assert.Equal(t, newer.ID, *resolved.OverrideID)
}

func TestResolver_ScopeWindowAndActivity(t *testing.T) {
	ctx := context.Background()

	t.Run("expired override does not apply", func(t *testing.T) {
		f := newResolverFixture(t)
		ro := f.addOverride(t, OverrideScope{OwnerID: f.ownerID}, "50.0000", date(2024, 1, 1))
		require.NoError(t, ro.CloseWindow(date(2024, 2, 1)))
		require.NoError(t, f.overrides.Save(ctx, ro))

		resolved, err := f.resolver.Resolve(ctx, f.fleetID, f.query())
		require.NoError(t, err)
		assert.Equal(t, SourceBase, resolved.Source)
	})

	t.Run("deactivated override does not apply", func(t *testing.T) {
		f := newResolverFixture(t)
		ro := f.addOverride(t, OverrideScope{OwnerID: f.ownerID}, "50.0000", date(2024, 1, 1))
		require.NoError(t, ro.Deactivate())
		require.NoError(t, f.overrides.Save(ctx, ro))

		resolved, err := f.resolver.Resolve(ctx, f.fleetID, f.query())
		require.NoError(t, err)
		assert.Equal(t, SourceBase, resolved.Source)
	})

	t.Run("override scoped to a dimension the query omits does not apply", func(t *testing.T) {
		f := newResolverFixture(t)
		f.addOverride(t, OverrideScope{OwnerID: f.ownerID, DayOfWeek: weekdayPtr(time.Monday)}, "50.0000", date(2024, 1, 1))

		q := f.query()
		q.DayOfWeek = nil
		resolved, err := f.resolver.Resolve(ctx, f.fleetID, q)
		require.NoError(t, err)
		assert.Equal(t, SourceBase, resolved.Source)
	})
}

func TestResolver_MissingBaseRateSurfaced(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(t)

	q := f.query()
	q.RateName = "unconfigured"
	_, err := f.resolver.Resolve(ctx, f.fleetID, q)
	require.Error(t, err)
	assert.True(t, shared.IsDomainErrorCode(err, shared.CodeRateNotFound))
}

func TestResolver_Deterministic(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(t)
	f.addOverride(t, OverrideScope{OwnerID: f.ownerID, CabID: &f.cabID}, "70.0000", date(2024, 1, 1))
	f.addOverride(t, OverrideScope{OwnerID: f.ownerID}, "65.0000", date(2024, 1, 5))

	first, err := f.resolver.Resolve(ctx, f.fleetID, f.query())
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := f.resolver.Resolve(ctx, f.fleetID, f.query())
		require.NoError(t, err)
		assert.Equal(t, first.Value.String(), again.Value.String())
		assert.Equal(t, first.Source, again.Source)
		assert.Equal(t, *first.OverrideID, *again.OverrideID)
	}
}
