package rates

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/taxifleet/backend/internal/domain/masterdata"
	"github.com/taxifleet/backend/internal/domain/shared"
)

// UnitType represents what a rate is priced against
type UnitType string

const (
	UnitTypePerMile            UnitType = "PER_MILE"
	UnitTypePerTrip            UnitType = "PER_TRIP"
	UnitTypeFlatPeriodic       UnitType = "FLAT_PERIODIC"
	UnitTypeAttributeSurcharge UnitType = "ATTRIBUTE_SURCHARGE"
)

// IsValid checks if the unit type is a valid UnitType
func (u UnitType) IsValid() bool {
	switch u {
	case UnitTypePerMile, UnitTypePerTrip, UnitTypeFlatPeriodic, UnitTypeAttributeSurcharge:
		return true
	}
	return false
}

// String returns the string representation of UnitType
func (u UnitType) String() string {
	return string(u)
}

// ChargedTo identifies which side of the lease the rate bills
type ChargedTo string

const (
	ChargedToDriver ChargedTo = "DRIVER"
	ChargedToOwner  ChargedTo = "OWNER"
)

// IsValid checks if the value is a valid ChargedTo
func (c ChargedTo) IsValid() bool {
	return c == ChargedToDriver || c == ChargedToOwner
}

// BillingCadence controls how often a rate produces a billed occurrence
type BillingCadence string

const (
	CadenceMonthly BillingCadence = "MONTHLY"
	CadenceDaily   BillingCadence = "DAILY"
	CadencePerUnit BillingCadence = "PER_UNIT"
)

// IsValid checks if the cadence is a valid BillingCadence
func (b BillingCadence) IsValid() bool {
	return b == CadenceMonthly || b == CadenceDaily || b == CadencePerUnit
}

// String returns the string representation of BillingCadence
func (b BillingCadence) String() string {
	return string(b)
}

// RateDefinition is a versioned base rate. For a given name the effective
// windows of active definitions never overlap. A definition whose window has
// started is immutable except for closing the window; corrections are made by
// closing and creating a successor, never by editing value in place.
type RateDefinition struct {
	shared.FleetAggregateRoot
	Name          string          `json:"name"`
	UnitType      UnitType        `json:"unit_type"`
	Value         decimal.Decimal `json:"value"` // 4 fractional digits
	ChargedTo     ChargedTo       `json:"charged_to"`
	Cadence       BillingCadence  `json:"cadence"`
	EffectiveFrom time.Time       `json:"effective_from"`
	EffectiveTo   *time.Time      `json:"effective_to"` // nil = open-ended
	Active        bool            `json:"active"`
}

// NewRateDefinition creates a new rate definition
func NewRateDefinition(
	fleetID uuid.UUID,
	name string,
	unitType UnitType,
	value decimal.Decimal,
	chargedTo ChargedTo,
	cadence BillingCadence,
	effectiveFrom time.Time,
	effectiveTo *time.Time,
) (*RateDefinition, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_RATE_NAME", "Rate name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_RATE_NAME", "Rate name cannot exceed 100 characters")
	}
	if !unitType.IsValid() {
		return nil, shared.NewDomainError("INVALID_UNIT_TYPE", fmt.Sprintf("Unit type %q is not valid", unitType))
	}
	if !chargedTo.IsValid() {
		return nil, shared.NewDomainError("INVALID_CHARGED_TO", fmt.Sprintf("Charged-to %q is not valid", chargedTo))
	}
	if !cadence.IsValid() {
		return nil, shared.NewDomainError("INVALID_CADENCE", fmt.Sprintf("Billing cadence %q is not valid", cadence))
	}
	if value.IsNegative() {
		return nil, shared.NewDomainError("INVALID_RATE_VALUE", "Rate value cannot be negative")
	}
	if effectiveTo != nil && effectiveTo.Before(effectiveFrom) {
		return nil, shared.NewDomainError("INVALID_WINDOW", "Effective-to cannot precede effective-from")
	}

	rd := &RateDefinition{
		FleetAggregateRoot: shared.NewFleetAggregateRoot(fleetID),
		Name:               name,
		UnitType:           unitType,
		Value:              value.Truncate(4),
		ChargedTo:          chargedTo,
		Cadence:            cadence,
		EffectiveFrom:      effectiveFrom,
		EffectiveTo:        effectiveTo,
		Active:             true,
	}

	rd.AddDomainEvent(NewRateCreatedEvent(rd))

	return rd, nil
}

// IsEffectiveOn reports whether the definition's window contains the date
func (rd *RateDefinition) IsEffectiveOn(date time.Time) bool {
	return rd.Active && masterdata.WindowContains(rd.EffectiveFrom, rd.EffectiveTo, date)
}

// IsClosed reports whether the window has been closed
func (rd *RateDefinition) IsClosed() bool {
	return rd.EffectiveTo != nil
}

// Overlaps reports whether this definition's window intersects [from, to]
func (rd *RateDefinition) Overlaps(from time.Time, to *time.Time) bool {
	if rd.EffectiveTo != nil && from.After(*rd.EffectiveTo) {
		return false
	}
	if to != nil && rd.EffectiveFrom.After(*to) {
		return false
	}
	return true
}

// Close sets the end of the effective window. The end date is set once; a
// closed rate can only be superseded, never reopened.
func (rd *RateDefinition) Close(endDate time.Time) error {
	if rd.IsClosed() {
		return shared.NewDomainError(shared.CodeRateClosed,
			fmt.Sprintf("Rate %q is already closed as of %s", rd.Name, rd.EffectiveTo.Format("2006-01-02")))
	}
	if endDate.Before(rd.EffectiveFrom) {
		return shared.NewDomainError("INVALID_WINDOW",
			fmt.Sprintf("End date %s precedes effective-from %s for rate %q",
				endDate.Format("2006-01-02"), rd.EffectiveFrom.Format("2006-01-02"), rd.Name))
	}

	rd.EffectiveTo = &endDate
	rd.UpdatedAt = time.Now()
	rd.IncrementVersion()

	rd.AddDomainEvent(NewRateClosedEvent(rd))

	return nil
}

// Successor creates a new definition continuing this rate from the day after
// its window closes, with a new value. The receiver must already be closed.
func (rd *RateDefinition) Successor(value decimal.Decimal) (*RateDefinition, error) {
	if !rd.IsClosed() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Rate %q must be closed before creating a successor", rd.Name))
	}
	return NewRateDefinition(
		rd.FleetID,
		rd.Name,
		rd.UnitType,
		value,
		rd.ChargedTo,
		rd.Cadence,
		rd.EffectiveTo.AddDate(0, 0, 1),
		nil,
	)
}

// Deactivate removes the definition from resolution. Definitions whose window
// has started are kept for audit and cannot be deactivated.
func (rd *RateDefinition) Deactivate(now time.Time) error {
	if !rd.EffectiveFrom.After(now) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Rate %q is already in effect and cannot be deactivated, close its window instead", rd.Name))
	}
	rd.Active = false
	rd.UpdatedAt = time.Now()
	rd.IncrementVersion()
	return nil
}
