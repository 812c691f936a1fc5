package rates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taxifleet/backend/internal/domain/shared"
)

// In-memory repositories used by catalog and resolver tests.

type memDefinitionRepo struct {
	defs map[uuid.UUID]*RateDefinition
}

func newMemDefinitionRepo() *memDefinitionRepo {
	return &memDefinitionRepo{defs: make(map[uuid.UUID]*RateDefinition)}
}

func (r *memDefinitionRepo) FindByID(_ context.Context, id uuid.UUID) (*RateDefinition, error) {
	if rd, ok := r.defs[id]; ok {
		cp := *rd
		return &cp, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memDefinitionRepo) FindByIDForFleet(ctx context.Context, fleetID, id uuid.UUID) (*RateDefinition, error) {
	rd, err := r.FindByID(ctx, id)
	if err != nil || rd.FleetID != fleetID {
		return nil, shared.ErrNotFound
	}
	return rd, nil
}

func (r *memDefinitionRepo) FindByNameOn(_ context.Context, fleetID uuid.UUID, name string, date time.Time) (*RateDefinition, error) {
	for _, rd := range r.defs {
		if rd.FleetID == fleetID && rd.Name == name && rd.IsEffectiveOn(date) {
			cp := *rd
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memDefinitionRepo) FindAllByName(_ context.Context, fleetID uuid.UUID, name string) ([]RateDefinition, error) {
	var out []RateDefinition
	for _, rd := range r.defs {
		if rd.FleetID == fleetID && rd.Name == name && rd.Active {
			out = append(out, *rd)
		}
	}
	return out, nil
}

func (r *memDefinitionRepo) FindAllForFleet(_ context.Context, fleetID uuid.UUID) ([]RateDefinition, error) {
	var out []RateDefinition
	for _, rd := range r.defs {
		if rd.FleetID == fleetID && rd.Active {
			out = append(out, *rd)
		}
	}
	return out, nil
}

func (r *memDefinitionRepo) Save(_ context.Context, rd *RateDefinition) error {
	cp := *rd
	r.defs[rd.ID] = &cp
	return nil
}

func (r *memDefinitionRepo) SaveWithLock(ctx context.Context, rd *RateDefinition) error {
	return r.Save(ctx, rd)
}

type memOverrideRepo struct {
	overrides map[uuid.UUID]*RateOverride
}

func newMemOverrideRepo() *memOverrideRepo {
	return &memOverrideRepo{overrides: make(map[uuid.UUID]*RateOverride)}
}

func (r *memOverrideRepo) FindByID(_ context.Context, id uuid.UUID) (*RateOverride, error) {
	if ro, ok := r.overrides[id]; ok {
		cp := *ro
		return &cp, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memOverrideRepo) FindByIDForFleet(ctx context.Context, fleetID, id uuid.UUID) (*RateOverride, error) {
	ro, err := r.FindByID(ctx, id)
	if err != nil || ro.FleetID != fleetID {
		return nil, shared.ErrNotFound
	}
	return ro, nil
}

func (r *memOverrideRepo) FindActiveForRateAndOwnerOn(_ context.Context, fleetID, rateID, ownerID uuid.UUID, date time.Time) ([]RateOverride, error) {
	var out []RateOverride
	for _, ro := range r.overrides {
		if ro.FleetID == fleetID && ro.RateID == rateID && ro.Scope.OwnerID == ownerID && ro.IsEffectiveOn(date) {
			out = append(out, *ro)
		}
	}
	return out, nil
}

func (r *memOverrideRepo) FindAllForRate(_ context.Context, fleetID, rateID uuid.UUID) ([]RateOverride, error) {
	var out []RateOverride
	for _, ro := range r.overrides {
		if ro.FleetID == fleetID && ro.RateID == rateID {
			out = append(out, *ro)
		}
	}
	return out, nil
}

func (r *memOverrideRepo) Save(_ context.Context, ro *RateOverride) error {
	cp := *ro
	r.overrides[ro.ID] = &cp
	return nil
}

func (r *memOverrideRepo) SaveWithLock(ctx context.Context, ro *RateOverride) error {
	return r.Save(ctx, ro)
}

func (r *memOverrideRepo) remove(id uuid.UUID) {
	delete(r.overrides, id)
}

// date builds a UTC date for tests
func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := date(year, month, day)
	return &d
}
