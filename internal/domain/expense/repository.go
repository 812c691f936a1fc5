package expense

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ExpenseChargeRepository defines the interface for expense charge persistence
type ExpenseChargeRepository interface {
	// FindByID finds an expense charge by ID
	FindByID(ctx context.Context, id uuid.UUID) (*ExpenseCharge, error)

	// FindByIDForFleet finds an expense charge by ID for a specific fleet
	FindByIDForFleet(ctx context.Context, fleetID, id uuid.UUID) (*ExpenseCharge, error)

	// FindActiveOverlapping finds all active charges that can produce
	// occurrences inside [from, to]: recurring charges whose effective
	// window intersects the period and one-time charges dated within it
	FindActiveOverlapping(ctx context.Context, fleetID uuid.UUID, from, to time.Time) ([]ExpenseCharge, error)

	// FindByCategory finds all charges referencing a category
	FindByCategory(ctx context.Context, fleetID, categoryID uuid.UUID) ([]ExpenseCharge, error)

	// Save creates or updates an expense charge
	Save(ctx context.Context, ec *ExpenseCharge) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, ec *ExpenseCharge) error
}
