package rates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/taxifleet/backend/internal/domain/shared"
)

// Catalog is the domain service guarding the invariants of versioned base
// rates: for a given name, active effective windows never overlap, and a
// closed window is never reopened.
type Catalog struct {
	definitions RateDefinitionRepository
}

// NewCatalog creates a new rate catalog
func NewCatalog(definitions RateDefinitionRepository) *Catalog {
	return &Catalog{definitions: definitions}
}

// GetRate returns the definition whose effective window contains the date.
// Callers must not default a missing rate to zero; the error carries the rate
// name and date so the configuration gap can be diagnosed.
func (c *Catalog) GetRate(ctx context.Context, fleetID uuid.UUID, name string, date time.Time) (*RateDefinition, error) {
	rd, err := c.definitions.FindByNameOn(ctx, fleetID, name, date)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeRateNotFound,
				fmt.Sprintf("No rate %q is effective on %s", name, date.Format("2006-01-02")))
		}
		return nil, err
	}
	return rd, nil
}

// CreateRate persists a new definition after checking that its window does
// not intersect any existing active window for the same name.
func (c *Catalog) CreateRate(ctx context.Context, rd *RateDefinition) error {
	existing, err := c.definitions.FindAllByName(ctx, rd.FleetID, rd.Name)
	if err != nil {
		return err
	}
	for i := range existing {
		if existing[i].ID == rd.ID {
			continue
		}
		if existing[i].Overlaps(rd.EffectiveFrom, rd.EffectiveTo) {
			return shared.NewDomainError(shared.CodeRateWindowOverlap,
				fmt.Sprintf("Rate %q window starting %s overlaps existing window starting %s",
					rd.Name, rd.EffectiveFrom.Format("2006-01-02"), existing[i].EffectiveFrom.Format("2006-01-02")))
		}
	}
	return c.definitions.Save(ctx, rd)
}

// CloseRate closes a definition's effective window
func (c *Catalog) CloseRate(ctx context.Context, fleetID, id uuid.UUID, endDate time.Time) (*RateDefinition, error) {
	rd, err := c.definitions.FindByIDForFleet(ctx, fleetID, id)
	if err != nil {
		return nil, err
	}
	if err := rd.Close(endDate); err != nil {
		return nil, err
	}
	if err := c.definitions.SaveWithLock(ctx, rd); err != nil {
		return nil, err
	}
	return rd, nil
}
