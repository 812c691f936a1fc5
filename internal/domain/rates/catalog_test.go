package rates

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxifleet/backend/internal/domain/shared"
)

func TestCatalog_GetRate(t *testing.T) {
	ctx := context.Background()
	repo := newMemDefinitionRepo()
	catalog := NewCatalog(repo)
	fleetID := uuid.New()

	rd := createTestRate(t, "mileage", "0.1575", date(2024, 1, 1), datePtr(2024, 6, 30))
	rd.FleetID = fleetID
	require.NoError(t, repo.Save(ctx, rd))

	t.Run("returns definition inside window", func(t *testing.T) {
		got, err := catalog.GetRate(ctx, fleetID, "mileage", date(2024, 3, 15))
		require.NoError(t, err)
		assert.Equal(t, rd.ID, got.ID)
	})

	t.Run("fails outside window with context", func(t *testing.T) {
		_, err := catalog.GetRate(ctx, fleetID, "mileage", date(2024, 7, 1))
		require.Error(t, err)
		assert.True(t, shared.IsDomainErrorCode(err, shared.CodeRateNotFound))
		assert.Contains(t, err.Error(), "mileage")
		assert.Contains(t, err.Error(), "2024-07-01")
	})

	t.Run("fails for unknown name", func(t *testing.T) {
		_, err := catalog.GetRate(ctx, fleetID, "airport_trip", date(2024, 3, 15))
		assert.True(t, shared.IsDomainErrorCode(err, shared.CodeRateNotFound))
	})
}

func TestCatalog_CreateRate_Overlap(t *testing.T) {
	ctx := context.Background()
	fleetID := uuid.New()

	newCatalogWith := func(t *testing.T, existing ...*RateDefinition) *Catalog {
		t.Helper()
		repo := newMemDefinitionRepo()
		for _, rd := range existing {
			rd.FleetID = fleetID
			require.NoError(t, repo.Save(ctx, rd))
		}
		return NewCatalog(repo)
	}

	t.Run("rejects overlapping window for same name", func(t *testing.T) {
		catalog := newCatalogWith(t, createTestRate(t, "mileage", "0.15", date(2024, 1, 1), datePtr(2024, 6, 30)))

		overlapping := createTestRate(t, "mileage", "0.17", date(2024, 6, 1), nil)
		overlapping.FleetID = fleetID
		err := catalog.CreateRate(ctx, overlapping)
		require.Error(t, err)
		assert.True(t, shared.IsDomainErrorCode(err, shared.CodeRateWindowOverlap))
	})

	t.Run("rejects open-ended window overlapping open-ended existing", func(t *testing.T) {
		catalog := newCatalogWith(t, createTestRate(t, "mileage", "0.15", date(2024, 1, 1), nil))

		next := createTestRate(t, "mileage", "0.17", date(2025, 1, 1), nil)
		next.FleetID = fleetID
		assert.Error(t, catalog.CreateRate(ctx, next))
	})

	t.Run("accepts adjacent non-overlapping window", func(t *testing.T) {
		catalog := newCatalogWith(t, createTestRate(t, "mileage", "0.15", date(2024, 1, 1), datePtr(2024, 6, 30)))

		adjacent := createTestRate(t, "mileage", "0.17", date(2024, 7, 1), nil)
		adjacent.FleetID = fleetID
		assert.NoError(t, catalog.CreateRate(ctx, adjacent))
	})

	t.Run("different names never conflict", func(t *testing.T) {
		catalog := newCatalogWith(t, createTestRate(t, "mileage", "0.15", date(2024, 1, 1), nil))

		other := createTestRate(t, "airport_trip", "3.50", date(2024, 1, 1), nil)
		other.FleetID = fleetID
		assert.NoError(t, catalog.CreateRate(ctx, other))
	})
}

func TestCatalog_CloseRate(t *testing.T) {
	ctx := context.Background()
	repo := newMemDefinitionRepo()
	catalog := NewCatalog(repo)
	fleetID := uuid.New()

	rd := createTestRate(t, "mileage", "0.15", date(2024, 1, 1), nil)
	rd.FleetID = fleetID
	require.NoError(t, repo.Save(ctx, rd))

	closed, err := catalog.CloseRate(ctx, fleetID, rd.ID, date(2024, 12, 31))
	require.NoError(t, err)
	require.NotNil(t, closed.EffectiveTo)

	// Closing again fails: the persisted record now carries the window end
	_, err = catalog.CloseRate(ctx, fleetID, rd.ID, date(2025, 6, 30))
	require.Error(t, err)
	assert.True(t, shared.IsDomainErrorCode(err, shared.CodeRateClosed))
}
