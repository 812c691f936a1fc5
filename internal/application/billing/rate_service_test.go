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
	"go.uber.org/zap"
)

type rateServiceFixture struct {
	fleetID   uuid.UUID
	defs      *fakeDefinitionRepo
	overrides *fakeOverrideRepo
	cache     *spyInvalidator
	service   *RateService
	owner     masterdata.Person
}

func newRateServiceFixture(t *testing.T) *rateServiceFixture {
	t.Helper()
	f := &rateServiceFixture{
		fleetID:   uuid.New(),
		defs:      newFakeDefinitionRepo(),
		overrides: newFakeOverrideRepo(),
		cache:     &spyInvalidator{},
	}

	store := masterdata.NewFixtureStore()
	f.owner = masterdata.Person{ID: uuid.New(), FleetID: f.fleetID, Name: "Pat Kowalski", Role: masterdata.RoleOwner, Active: true}
	store.AddPerson(f.owner)

	catalog := rates.NewCatalog(f.defs)
	resolver := rates.NewResolver(catalog, f.overrides)
	targets := expense.NewTargetResolver(store, store, store)

	f.service = NewRateService(catalog, f.defs, f.overrides, resolver, targets, f.cache, zap.NewNop())
	return f
}

func (f *rateServiceFixture) createRateRequest(t *testing.T) CreateRateRequest {
	t.Helper()
	return CreateRateRequest{
		FleetID:       f.fleetID,
		Name:          "lease_base",
		UnitType:      rates.UnitTypeFlatPeriodic,
		Value:         dec(t, "85.0000"),
		ChargedTo:     rates.ChargedToDriver,
		Cadence:       rates.CadenceDaily,
		EffectiveFrom: date(2024, 1, 1),
	}
}

func TestRateService_CreateRate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and invalidates the cache", func(t *testing.T) {
		f := newRateServiceFixture(t)

		resp, err := f.service.CreateRate(ctx, f.createRateRequest(t))
		require.NoError(t, err)

		assert.Equal(t, "lease_base", resp.Name)
		assert.True(t, resp.Active)
		require.Len(t, f.cache.calls, 1)
		assert.Equal(t, f.fleetID, f.cache.calls[0])
	})

	t.Run("rejects an overlapping window", func(t *testing.T) {
		f := newRateServiceFixture(t)

		_, err := f.service.CreateRate(ctx, f.createRateRequest(t))
		require.NoError(t, err)

		req := f.createRateRequest(t)
		req.EffectiveFrom = date(2024, 6, 1)
		_, err = f.service.CreateRate(ctx, req)
		require.Error(t, err)
		assert.True(t, shared.IsDomainErrorCode(err, shared.CodeRateWindowOverlap))
		assert.Len(t, f.cache.calls, 1, "failed create must not invalidate")
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		f := newRateServiceFixture(t)

		req := f.createRateRequest(t)
		req.Name = ""
		_, err := f.service.CreateRate(ctx, req)
		require.Error(t, err)
		assert.True(t, shared.IsDomainErrorCode(err, "INVALID_INPUT"))
	})
}

func TestRateService_CloseRate(t *testing.T) {
	ctx := context.Background()
	f := newRateServiceFixture(t)

	created, err := f.service.CreateRate(ctx, f.createRateRequest(t))
	require.NoError(t, err)

	closed, err := f.service.CloseRate(ctx, f.fleetID, created.ID, date(2024, 6, 30))
	require.NoError(t, err)
	require.NotNil(t, closed.EffectiveTo)
	assert.True(t, closed.EffectiveTo.Equal(date(2024, 6, 30)))
	assert.Len(t, f.cache.calls, 2)

	_, err = f.service.CloseRate(ctx, f.fleetID, uuid.New(), date(2024, 6, 30))
	require.Error(t, err)
	assert.True(t, shared.IsDomainErrorCode(err, shared.CodeRateNotFound))
}

func TestRateService_Overrides(t *testing.T) {
	ctx := context.Background()

	overrideRequest := func(t *testing.T, f *rateServiceFixture, rateID uuid.UUID) CreateOverrideRequest {
		t.Helper()
		return CreateOverrideRequest{
			FleetID:   f.fleetID,
			RateID:    rateID,
			OwnerID:   f.owner.ID,
			Value:     dec(t, "70.0000"),
			StartDate: date(2024, 2, 1),
		}
	}

	t.Run("creates with derived priority", func(t *testing.T) {
		f := newRateServiceFixture(t)
		created, err := f.service.CreateRate(ctx, f.createRateRequest(t))
		require.NoError(t, err)

		req := overrideRequest(t, f, created.ID)
		cabID := uuid.New()
		shiftType := masterdata.ShiftTypeNight
		req.CabID = &cabID
		req.ShiftType = &shiftType

		resp, err := f.service.CreateOverride(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 80, resp.Priority, "cab and shift type scoped")
		assert.Len(t, f.cache.calls, 2)
	})

	t.Run("unknown rate fails", func(t *testing.T) {
		f := newRateServiceFixture(t)
		_, err := f.service.CreateOverride(ctx, overrideRequest(t, f, uuid.New()))
		require.Error(t, err)
		assert.True(t, shared.IsDomainErrorCode(err, shared.CodeRateNotFound))
	})

	t.Run("same scope windows may not intersect", func(t *testing.T) {
		f := newRateServiceFixture(t)
		created, err := f.service.CreateRate(ctx, f.createRateRequest(t))
		require.NoError(t, err)

		_, err = f.service.CreateOverride(ctx, overrideRequest(t, f, created.ID))
		require.NoError(t, err)

		second := overrideRequest(t, f, created.ID)
		second.StartDate = date(2024, 3, 1)
		_, err = f.service.CreateOverride(ctx, second)
		require.Error(t, err)
		assert.True(t, shared.IsDomainErrorCode(err, shared.CodeRateWindowOverlap))
	})

	t.Run("deactivation returns resolution to the base rate", func(t *testing.T) {
		f := newRateServiceFixture(t)
		created, err := f.service.CreateRate(ctx, f.createRateRequest(t))
		require.NoError(t, err)

		ov, err := f.service.CreateOverride(ctx, overrideRequest(t, f, created.ID))
		require.NoError(t, err)

		query := rates.ResolutionQuery{RateName: "lease_base", OwnerID: f.owner.ID, Date: date(2024, 3, 4)}

		preview, err := f.service.PreviewResolution(ctx, f.fleetID, query)
		require.NoError(t, err)
		assert.Equal(t, string(rates.SourceOverride), preview.Source)
		assert.True(t, preview.Value.Equal(dec(t, "70.0000")))

		_, err = f.service.DeactivateOverride(ctx, f.fleetID, ov.ID)
		require.NoError(t, err)

		preview, err = f.service.PreviewResolution(ctx, f.fleetID, query)
		require.NoError(t, err)
		assert.Equal(t, string(rates.SourceBase), preview.Source)
		assert.True(t, preview.Value.Equal(dec(t, "85.0000")))
	})
}

func TestRateService_PreviewTargets(t *testing.T) {
	f := newRateServiceFixture(t)

	preview, err := f.service.PreviewTargets(context.Background(), f.fleetID,
		expense.NewAllOwnersRule(), date(2024, 3, 4), 10)
	require.NoError(t, err)

	assert.Equal(t, 1, preview.Total)
	require.Len(t, preview.Sample, 1)
	assert.Equal(t, f.owner.ID, preview.Sample[0].ID)
}
