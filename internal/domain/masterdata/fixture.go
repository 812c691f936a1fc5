package masterdata

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taxifleet/backend/internal/domain/shared"
)

// FixtureStore is an in-memory implementation of every master-data port.
// It backs tests and local dry runs; production wiring replaces it with
// the gorm-backed adapters.
type FixtureStore struct {
	mu         sync.RWMutex
	persons    map[uuid.UUID]Person
	cabs       map[uuid.UUID]Cab
	shifts     map[uuid.UUID]Shift
	attributes []AttributeValue
	usage      []Usage
	revenues   []RevenueRecord
}

// NewFixtureStore creates an empty FixtureStore
func NewFixtureStore() *FixtureStore {
	return &FixtureStore{
		persons: make(map[uuid.UUID]Person),
		cabs:    make(map[uuid.UUID]Cab),
		shifts:  make(map[uuid.UUID]Shift),
	}
}

// AddPerson registers a person
func (f *FixtureStore) AddPerson(p Person) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persons[p.ID] = p
}

// AddCab registers a cab
func (f *FixtureStore) AddCab(c Cab) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cabs[c.ID] = c
}

// AddShift registers a shift
func (f *FixtureStore) AddShift(s Shift) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shifts[s.ID] = s
}

// AddAttributeValue registers a temporal attribute value record
func (f *FixtureStore) AddAttributeValue(av AttributeValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attributes = append(f.attributes, av)
}

// AddUsage registers a daily usage record
func (f *FixtureStore) AddUsage(u Usage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usage = append(f.usage, u)
}

// AddRevenue registers a credited revenue record
func (f *FixtureStore) AddRevenue(r RevenueRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revenues = append(f.revenues, r)
}

// FindPerson implements PersonReader
func (f *FixtureStore) FindPerson(_ context.Context, fleetID, personID uuid.UUID) (*Person, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p, ok := f.persons[personID]
	if !ok || p.FleetID != fleetID {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

// ActivePersonsByRole implements PersonReader
func (f *FixtureStore) ActivePersonsByRole(_ context.Context, fleetID uuid.UUID, role PersonRole) ([]Person, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []Person
	for _, p := range f.persons {
		if p.FleetID == fleetID && p.Role == role && p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// FindCab implements CabReader
func (f *FixtureStore) FindCab(_ context.Context, fleetID, cabID uuid.UUID) (*Cab, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c, ok := f.cabs[cabID]
	if !ok || c.FleetID != fleetID {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

// CabsByOwner implements CabReader
func (f *FixtureStore) CabsByOwner(_ context.Context, fleetID, ownerID uuid.UUID) ([]Cab, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []Cab
	for _, c := range f.cabs {
		if c.FleetID == fleetID && c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// FindShift implements ShiftReader
func (f *FixtureStore) FindShift(_ context.Context, fleetID, shiftID uuid.UUID) (*Shift, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.shifts[shiftID]
	if !ok || s.FleetID != fleetID {
		return nil, shared.ErrNotFound
	}
	return &s, nil
}

// ShiftsByProfile implements ShiftReader
func (f *FixtureStore) ShiftsByProfile(_ context.Context, fleetID, profileID uuid.UUID) ([]Shift, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []Shift
	for _, s := range f.shifts {
		if s.FleetID == fleetID && s.ProfileID != nil && *s.ProfileID == profileID {
			out = append(out, s)
		}
	}
	sortShifts(out)
	return out, nil
}

// ActiveShiftsOn implements ShiftReader
func (f *FixtureStore) ActiveShiftsOn(_ context.Context, fleetID uuid.UUID, date time.Time) ([]Shift, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []Shift
	for _, s := range f.shifts {
		if s.FleetID == fleetID && s.IsActiveOn(date) {
			out = append(out, s)
		}
	}
	sortShifts(out)
	return out, nil
}

// ShiftsForPerson implements ShiftReader
func (f *FixtureStore) ShiftsForPerson(_ context.Context, fleetID, personID uuid.UUID) ([]Shift, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []Shift
	for _, s := range f.shifts {
		if s.FleetID != fleetID {
			continue
		}
		if s.OwnerID == personID || (s.DriverID != nil && *s.DriverID == personID) {
			out = append(out, s)
		}
	}
	sortShifts(out)
	return out, nil
}

// ShiftsWithAttributeOn implements AttributeReader
func (f *FixtureStore) ShiftsWithAttributeOn(_ context.Context, fleetID, attributeTypeID uuid.UUID, date time.Time) ([]Shift, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	seen := make(map[uuid.UUID]bool)
	var out []Shift
	for _, av := range f.attributes {
		if av.AttributeTypeID != attributeTypeID || !av.IsActiveOn(date) || seen[av.ShiftID] {
			continue
		}
		s, ok := f.shifts[av.ShiftID]
		if !ok || s.FleetID != fleetID {
			continue
		}
		seen[av.ShiftID] = true
		out = append(out, s)
	}
	sortShifts(out)
	return out, nil
}

// UsageFor implements UsageSource. Dates with no data contribute nothing,
// which callers treat as zero usage.
func (f *FixtureStore) UsageFor(_ context.Context, fleetID, shiftID uuid.UUID, from, to time.Time) ([]Usage, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []Usage
	for _, u := range f.usage {
		s, ok := f.shifts[u.ShiftID]
		if !ok || s.FleetID != fleetID || u.ShiftID != shiftID {
			continue
		}
		if u.Date.Before(from) || u.Date.After(to) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// RevenuesFor implements RevenueReader
func (f *FixtureStore) RevenuesFor(_ context.Context, fleetID, personID uuid.UUID, from, to time.Time) ([]RevenueRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []RevenueRecord
	for _, r := range f.revenues {
		if r.PersonID != personID {
			continue
		}
		if r.OccurredOn.Before(from) || r.OccurredOn.After(to) {
			continue
		}
		if p, ok := f.persons[r.PersonID]; !ok || p.FleetID != fleetID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredOn.Equal(out[j].OccurredOn) {
			return out[i].OccurredOn.Before(out[j].OccurredOn)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func sortShifts(shifts []Shift) {
	sort.Slice(shifts, func(i, j int) bool { return shifts[i].ID.String() < shifts[j].ID.String() })
}
