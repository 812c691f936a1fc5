package rates

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/taxifleet/backend/internal/domain/masterdata"
	"github.com/taxifleet/backend/internal/domain/shared"
)

// Specificity weights for override scope dimensions. An override constraining
// more dimensions always outranks one constraining fewer, regardless of
// creation order.
const (
	priorityWeightCab       = 50
	priorityWeightShiftType = 30
	priorityWeightDayOfWeek = 20
)

// OverrideScope is the set of dimensions an override constrains. OwnerID is
// always required; the optional dimensions narrow the override further. A nil
// dimension matches anything.
type OverrideScope struct {
	OwnerID   uuid.UUID             `json:"owner_id"`
	CabID     *uuid.UUID            `json:"cab_id,omitempty"`
	ShiftType *masterdata.ShiftType `json:"shift_type,omitempty"`
	DayOfWeek *masterdata.DayOfWeek `json:"day_of_week,omitempty"`
}

// Priority computes the specificity score of the scope
func (s OverrideScope) Priority() int {
	p := 0
	if s.CabID != nil {
		p += priorityWeightCab
	}
	if s.ShiftType != nil {
		p += priorityWeightShiftType
	}
	if s.DayOfWeek != nil {
		p += priorityWeightDayOfWeek
	}
	return p
}

// Matches reports whether the scope applies to the queried context. Non-nil
// scope dimensions must match exactly; nil dimensions match anything.
func (s OverrideScope) Matches(q ResolutionQuery) bool {
	if s.OwnerID != q.OwnerID {
		return false
	}
	if s.CabID != nil && (q.CabID == nil || *s.CabID != *q.CabID) {
		return false
	}
	if s.ShiftType != nil && (q.ShiftType == nil || *s.ShiftType != *q.ShiftType) {
		return false
	}
	if s.DayOfWeek != nil && (q.DayOfWeek == nil || *s.DayOfWeek != *q.DayOfWeek) {
		return false
	}
	return true
}

// String renders the scope for error messages and logs
func (s OverrideScope) String() string {
	out := fmt.Sprintf("owner=%s", s.OwnerID)
	if s.CabID != nil {
		out += fmt.Sprintf(" cab=%s", *s.CabID)
	}
	if s.ShiftType != nil {
		out += fmt.Sprintf(" shift=%s", *s.ShiftType)
	}
	if s.DayOfWeek != nil {
		out += fmt.Sprintf(" day=%s", *s.DayOfWeek)
	}
	return out
}

// RateOverride replaces a base rate's value for a specific scope within a
// date window. Priority is derived from the scope at construction time and
// never accepted as free input. Overrides are never mutated in place except
// for deactivation and closing the window once.
type RateOverride struct {
	shared.FleetAggregateRoot
	RateID        uuid.UUID       `json:"rate_id"`
	Scope         OverrideScope   `json:"scope"`
	OverrideValue decimal.Decimal `json:"override_value"`
	Priority      int             `json:"priority"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       *time.Time      `json:"end_date"` // nil = open-ended
	Active        bool            `json:"active"`
}

// NewRateOverride creates a new rate override with derived priority
func NewRateOverride(
	fleetID uuid.UUID,
	rateID uuid.UUID,
	scope OverrideScope,
	overrideValue decimal.Decimal,
	startDate time.Time,
	endDate *time.Time,
) (*RateOverride, error) {
	if rateID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RATE_ID", "Override must reference a rate definition")
	}
	if scope.OwnerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SCOPE", "Override scope requires an owner")
	}
	if scope.ShiftType != nil && *scope.ShiftType == "" {
		return nil, shared.NewDomainError("INVALID_SCOPE", "Override shift type cannot be empty when specified")
	}
	if overrideValue.IsNegative() {
		return nil, shared.NewDomainError("INVALID_RATE_VALUE", "Override value cannot be negative")
	}
	if endDate != nil && endDate.Before(startDate) {
		return nil, shared.NewDomainError("INVALID_WINDOW", "Override end date cannot precede start date")
	}

	ro := &RateOverride{
		FleetAggregateRoot: shared.NewFleetAggregateRoot(fleetID),
		RateID:             rateID,
		Scope:              scope,
		OverrideValue:      overrideValue.Truncate(4),
		Priority:           scope.Priority(),
		StartDate:          startDate,
		EndDate:            endDate,
		Active:             true,
	}

	ro.AddDomainEvent(NewOverrideCreatedEvent(ro))

	return ro, nil
}

// IsEffectiveOn reports whether the override's window contains the date
func (ro *RateOverride) IsEffectiveOn(date time.Time) bool {
	return ro.Active && masterdata.WindowContains(ro.StartDate, ro.EndDate, date)
}

// CloseWindow sets the override's end date. Set once, never reopened.
func (ro *RateOverride) CloseWindow(endDate time.Time) error {
	if ro.EndDate != nil {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Override %s is already closed as of %s", ro.ID, ro.EndDate.Format("2006-01-02")))
	}
	if endDate.Before(ro.StartDate) {
		return shared.NewDomainError("INVALID_WINDOW",
			fmt.Sprintf("End date %s precedes start date %s for override %s",
				endDate.Format("2006-01-02"), ro.StartDate.Format("2006-01-02"), ro.ID))
	}

	ro.EndDate = &endDate
	ro.UpdatedAt = time.Now()
	ro.IncrementVersion()

	return nil
}

// Deactivate removes the override from resolution without deleting it
func (ro *RateOverride) Deactivate() error {
	if !ro.Active {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Override %s is already inactive", ro.ID))
	}

	ro.Active = false
	ro.UpdatedAt = time.Now()
	ro.IncrementVersion()

	ro.AddDomainEvent(NewOverrideDeactivatedEvent(ro))

	return nil
}

// moreRecentlyCreatedThan is the documented tie-break for equal-priority
// overrides: the most recently created one wins. Creation time is compared
// first; identical timestamps fall back to lexicographic ID order so the
// result stays a stable total order.
func (ro *RateOverride) moreRecentlyCreatedThan(other *RateOverride) bool {
	if !ro.CreatedAt.Equal(other.CreatedAt) {
		return ro.CreatedAt.After(other.CreatedAt)
	}
	return ro.ID.String() > other.ID.String()
}
