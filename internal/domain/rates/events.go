package rates

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/taxifleet/backend/internal/domain/shared"
)

// RateCreatedEvent is raised when a new rate definition is created
type RateCreatedEvent struct {
	shared.BaseDomainEvent
	RateID        uuid.UUID       `json:"rate_id"`
	Name          string          `json:"name"`
	UnitType      UnitType        `json:"unit_type"`
	Value         decimal.Decimal `json:"value"`
	ChargedTo     ChargedTo       `json:"charged_to"`
	EffectiveFrom time.Time       `json:"effective_from"`
	EffectiveTo   *time.Time      `json:"effective_to,omitempty"`
}

// EventType returns the event type name
func (e *RateCreatedEvent) EventType() string {
	return "RateCreated"
}

// NewRateCreatedEvent creates a new RateCreatedEvent
func NewRateCreatedEvent(rd *RateDefinition) *RateCreatedEvent {
	return &RateCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("RateCreated", "RateDefinition", rd.ID, rd.FleetID),
		RateID:          rd.ID,
		Name:            rd.Name,
		UnitType:        rd.UnitType,
		Value:           rd.Value,
		ChargedTo:       rd.ChargedTo,
		EffectiveFrom:   rd.EffectiveFrom,
		EffectiveTo:     rd.EffectiveTo,
	}
}

// RateClosedEvent is raised when a rate definition's window is closed
type RateClosedEvent struct {
	shared.BaseDomainEvent
	RateID      uuid.UUID `json:"rate_id"`
	Name        string    `json:"name"`
	EffectiveTo time.Time `json:"effective_to"`
}

// EventType returns the event type name
func (e *RateClosedEvent) EventType() string {
	return "RateClosed"
}

// NewRateClosedEvent creates a new RateClosedEvent
func NewRateClosedEvent(rd *RateDefinition) *RateClosedEvent {
	var effectiveTo time.Time
	if rd.EffectiveTo != nil {
		effectiveTo = *rd.EffectiveTo
	}
	return &RateClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("RateClosed", "RateDefinition", rd.ID, rd.FleetID),
		RateID:          rd.ID,
		Name:            rd.Name,
		EffectiveTo:     effectiveTo,
	}
}

// OverrideCreatedEvent is raised when a rate override is created
type OverrideCreatedEvent struct {
	shared.BaseDomainEvent
	OverrideID    uuid.UUID       `json:"override_id"`
	RateID        uuid.UUID       `json:"rate_id"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	Priority      int             `json:"priority"`
	OverrideValue decimal.Decimal `json:"override_value"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       *time.Time      `json:"end_date,omitempty"`
}

// EventType returns the event type name
func (e *OverrideCreatedEvent) EventType() string {
	return "RateOverrideCreated"
}

// NewOverrideCreatedEvent creates a new OverrideCreatedEvent
func NewOverrideCreatedEvent(ro *RateOverride) *OverrideCreatedEvent {
	return &OverrideCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("RateOverrideCreated", "RateOverride", ro.ID, ro.FleetID),
		OverrideID:      ro.ID,
		RateID:          ro.RateID,
		OwnerID:         ro.Scope.OwnerID,
		Priority:        ro.Priority,
		OverrideValue:   ro.OverrideValue,
		StartDate:       ro.StartDate,
		EndDate:         ro.EndDate,
	}
}

// OverrideDeactivatedEvent is raised when a rate override is deactivated
type OverrideDeactivatedEvent struct {
	shared.BaseDomainEvent
	OverrideID uuid.UUID `json:"override_id"`
	RateID     uuid.UUID `json:"rate_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
}

// EventType returns the event type name
func (e *OverrideDeactivatedEvent) EventType() string {
	return "RateOverrideDeactivated"
}

// NewOverrideDeactivatedEvent creates a new OverrideDeactivatedEvent
func NewOverrideDeactivatedEvent(ro *RateOverride) *OverrideDeactivatedEvent {
	return &OverrideDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("RateOverrideDeactivated", "RateOverride", ro.ID, ro.FleetID),
		OverrideID:      ro.ID,
		RateID:          ro.RateID,
		OwnerID:         ro.Scope.OwnerID,
	}
}
