package rates

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RateDefinitionRepository defines the interface for rate definition persistence
type RateDefinitionRepository interface {
	// FindByID finds a rate definition by ID
	FindByID(ctx context.Context, id uuid.UUID) (*RateDefinition, error)

	// FindByIDForFleet finds a rate definition by ID for a specific fleet
	FindByIDForFleet(ctx context.Context, fleetID, id uuid.UUID) (*RateDefinition, error)

	// FindByNameOn finds the active definition whose window contains the date
	FindByNameOn(ctx context.Context, fleetID uuid.UUID, name string, date time.Time) (*RateDefinition, error)

	// FindAllByName finds all active definitions for a name, ordered by effective-from
	FindAllByName(ctx context.Context, fleetID uuid.UUID, name string) ([]RateDefinition, error)

	// FindAllForFleet finds all active definitions for a fleet
	FindAllForFleet(ctx context.Context, fleetID uuid.UUID) ([]RateDefinition, error)

	// Save creates or updates a rate definition
	Save(ctx context.Context, rd *RateDefinition) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, rd *RateDefinition) error
}

// RateOverrideRepository defines the interface for rate override persistence
type RateOverrideRepository interface {
	// FindByID finds an override by ID
	FindByID(ctx context.Context, id uuid.UUID) (*RateOverride, error)

	// FindByIDForFleet finds an override by ID for a specific fleet
	FindByIDForFleet(ctx context.Context, fleetID, id uuid.UUID) (*RateOverride, error)

	// FindActiveForRateAndOwnerOn finds all active overrides for a rate and
	// owner whose window contains the date
	FindActiveForRateAndOwnerOn(ctx context.Context, fleetID, rateID, ownerID uuid.UUID, date time.Time) ([]RateOverride, error)

	// FindAllForRate finds all overrides referencing a rate definition
	FindAllForRate(ctx context.Context, fleetID, rateID uuid.UUID) ([]RateOverride, error)

	// Save creates or updates an override
	Save(ctx context.Context, ro *RateOverride) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, ro *RateOverride) error
}
