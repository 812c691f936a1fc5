package masterdata

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PersonRole identifies how a person participates in the fleet
type PersonRole string

const (
	RoleDriver PersonRole = "DRIVER"
	RoleOwner  PersonRole = "OWNER"
)

// IsValid checks if the role is a valid PersonRole
func (r PersonRole) IsValid() bool {
	return r == RoleDriver || r == RoleOwner
}

// String returns the string representation of PersonRole
func (r PersonRole) String() string {
	return string(r)
}

// ShiftType identifies the shift slot a cab is operated in
type ShiftType string

const (
	ShiftTypeDay   ShiftType = "DAY"
	ShiftTypeNight ShiftType = "NIGHT"
)

// DayOfWeek mirrors time.Weekday but is nullable in override scopes
type DayOfWeek = time.Weekday

// Person is the engine's read-only view of a fleet participant.
// Master-data CRUD lives outside this engine; only the fields the billing
// computation needs are surfaced here.
type Person struct {
	ID      uuid.UUID
	FleetID uuid.UUID
	Name    string
	Role    PersonRole
	Active  bool
}

// Cab is the engine's read-only view of a vehicle
type Cab struct {
	ID      uuid.UUID
	FleetID uuid.UUID
	Number  string
	OwnerID uuid.UUID
	Active  bool
}

// Shift is the engine's read-only view of a recurring cab shift.
// ActiveFrom/ActiveTo carry the same window semantics as rate overrides:
// a nil ActiveTo means the shift is open-ended.
type Shift struct {
	ID         uuid.UUID
	FleetID    uuid.UUID
	CabID      uuid.UUID
	OwnerID    uuid.UUID
	DriverID   *uuid.UUID
	Type       ShiftType
	ProfileID  *uuid.UUID
	ActiveFrom time.Time
	ActiveTo   *time.Time
}

// IsActiveOn reports whether the shift was active on the given date
func (s *Shift) IsActiveOn(date time.Time) bool {
	return WindowContains(s.ActiveFrom, s.ActiveTo, date)
}

// AttributeValue is a temporal value record attached to a shift
// (e.g. "wheelchair accessible", "airport permit"). ValidFrom/ValidTo
// follow the same window semantics as rate overrides.
type AttributeValue struct {
	ShiftID         uuid.UUID
	AttributeTypeID uuid.UUID
	Value           string
	ValidFrom       time.Time
	ValidTo         *time.Time
}

// IsActiveOn reports whether the attribute value was in effect on the given date
func (a *AttributeValue) IsActiveOn(date time.Time) bool {
	return WindowContains(a.ValidFrom, a.ValidTo, date)
}

// Usage carries the driven units for a shift on a single date.
// Absent usage data is represented as zero usage, never as an error.
type Usage struct {
	ShiftID uuid.UUID
	Date    time.Time
	Miles   decimal.Decimal
	Trips   int
}

// RevenueRecord is a credited amount for a person in a period
// (shift takings, credit-card trip reimbursements)
type RevenueRecord struct {
	ID          uuid.UUID
	PersonID    uuid.UUID
	ShiftID     *uuid.UUID
	Description string
	Amount      decimal.Decimal
	OccurredOn  time.Time
}

// WindowContains reports whether date falls inside [from, to].
// A nil to means the window is open-ended. Boundaries are inclusive.
func WindowContains(from time.Time, to *time.Time, date time.Time) bool {
	if date.Before(from) {
		return false
	}
	if to != nil && date.After(*to) {
		return false
	}
	return true
}
