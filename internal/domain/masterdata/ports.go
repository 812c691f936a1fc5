package masterdata

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// The engine consumes master data through narrow read-only ports. It never
// writes master data and must tolerate these collaborators being backed by
// anything from a gorm adapter to an in-memory fixture.

// PersonReader provides read access to fleet participants
type PersonReader interface {
	// FindPerson returns the person or shared.ErrNotFound
	FindPerson(ctx context.Context, fleetID, personID uuid.UUID) (*Person, error)

	// ActivePersonsByRole returns the active roster for a role,
	// ordered by ID for deterministic resolution
	ActivePersonsByRole(ctx context.Context, fleetID uuid.UUID, role PersonRole) ([]Person, error)
}

// CabReader provides read access to vehicles
type CabReader interface {
	// FindCab returns the cab or shared.ErrNotFound
	FindCab(ctx context.Context, fleetID, cabID uuid.UUID) (*Cab, error)

	// CabsByOwner returns all cabs owned by a person
	CabsByOwner(ctx context.Context, fleetID, ownerID uuid.UUID) ([]Cab, error)
}

// ShiftReader provides read access to shifts and their temporal state
type ShiftReader interface {
	// FindShift returns the shift or shared.ErrNotFound
	FindShift(ctx context.Context, fleetID, shiftID uuid.UUID) (*Shift, error)

	// ShiftsByProfile returns all shifts assigned the given profile,
	// ordered by ID for deterministic resolution
	ShiftsByProfile(ctx context.Context, fleetID, profileID uuid.UUID) ([]Shift, error)

	// ActiveShiftsOn returns all shifts whose window contains the date,
	// ordered by ID for deterministic resolution
	ActiveShiftsOn(ctx context.Context, fleetID uuid.UUID, date time.Time) ([]Shift, error)

	// ShiftsForPerson returns shifts the person owns or drives
	ShiftsForPerson(ctx context.Context, fleetID, personID uuid.UUID) ([]Shift, error)
}

// AttributeReader provides read access to temporal attribute values
type AttributeReader interface {
	// ShiftsWithAttributeOn returns all shifts with a current (non-expired)
	// value record for the attribute type on the date, ordered by shift ID
	ShiftsWithAttributeOn(ctx context.Context, fleetID, attributeTypeID uuid.UUID, date time.Time) ([]Shift, error)
}

// UsageSource provides per-shift mileage and trip counts.
// Implementations return zero usage for dates with no data, never an error.
type UsageSource interface {
	// UsageFor returns daily usage records for a shift within [from, to]
	UsageFor(ctx context.Context, fleetID, shiftID uuid.UUID, from, to time.Time) ([]Usage, error)
}

// RevenueReader provides credited revenue records for a person in a period
type RevenueReader interface {
	RevenuesFor(ctx context.Context, fleetID, personID uuid.UUID, from, to time.Time) ([]RevenueRecord, error)
}
