package statement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for statement persistence.
// Implementations must back FindByPersonAndPeriod with a unique index on
// (fleet, person, period) so concurrent builds for the same key resolve
// to insert-or-fail rather than silent duplication.
type Repository interface {
	// FindByID finds a statement by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Statement, error)

	// FindByIDForFleet finds a statement by ID for a specific fleet
	FindByIDForFleet(ctx context.Context, fleetID, id uuid.UUID) (*Statement, error)

	// FindByPersonAndPeriod finds the statement for an exact person/period key
	FindByPersonAndPeriod(ctx context.Context, fleetID, personID uuid.UUID, periodFrom, periodTo time.Time) (*Statement, error)

	// FindLatestBefore finds the most recent non-archived, non-cancelled
	// statement for a person ending before the date
	FindLatestBefore(ctx context.Context, fleetID, personID uuid.UUID, before time.Time) (*Statement, error)

	// FindByStatus finds all statements in a status for a fleet
	FindByStatus(ctx context.Context, fleetID uuid.UUID, status Status) ([]Statement, error)

	// FindByPerson finds all statements for a person, newest period first
	FindByPerson(ctx context.Context, fleetID, personID uuid.UUID) ([]Statement, error)

	// Save creates or updates a statement
	Save(ctx context.Context, s *Statement) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, s *Statement) error

	// Supersede persists an archived parent and its replacement draft
	// together, so the unique live-period key never sees both at once
	Supersede(ctx context.Context, parent, child *Statement) error
}
