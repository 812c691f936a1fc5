package expense

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/taxifleet/backend/internal/domain/rates"
	"github.com/taxifleet/backend/internal/domain/shared"
)

// ExpenseChargeCreatedEvent is raised when an expense charge is created
type ExpenseChargeCreatedEvent struct {
	shared.BaseDomainEvent
	ChargeID    uuid.UUID       `json:"charge_id"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Description string          `json:"description"`
	Rule        ApplicationRule `json:"rule"`
	ChargedTo   rates.ChargedTo `json:"charged_to"`
	Amount      decimal.Decimal `json:"amount"`
	ChargeType  ChargeType      `json:"charge_type"`
}

// EventType returns the event type name
func (e *ExpenseChargeCreatedEvent) EventType() string {
	return "ExpenseChargeCreated"
}

// NewExpenseChargeCreatedEvent creates a new ExpenseChargeCreatedEvent
func NewExpenseChargeCreatedEvent(ec *ExpenseCharge) *ExpenseChargeCreatedEvent {
	return &ExpenseChargeCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ExpenseChargeCreated", "ExpenseCharge", ec.ID, ec.FleetID),
		ChargeID:        ec.ID,
		CategoryID:      ec.CategoryID,
		Description:     ec.Description,
		Rule:            ec.Rule,
		ChargedTo:       ec.ChargedTo,
		Amount:          ec.Amount,
		ChargeType:      ec.Type,
	}
}

// ExpenseChargeDeactivatedEvent is raised when an expense charge is deactivated
type ExpenseChargeDeactivatedEvent struct {
	shared.BaseDomainEvent
	ChargeID   uuid.UUID `json:"charge_id"`
	CategoryID uuid.UUID `json:"category_id"`
}

// EventType returns the event type name
func (e *ExpenseChargeDeactivatedEvent) EventType() string {
	return "ExpenseChargeDeactivated"
}

// NewExpenseChargeDeactivatedEvent creates a new ExpenseChargeDeactivatedEvent
func NewExpenseChargeDeactivatedEvent(ec *ExpenseCharge) *ExpenseChargeDeactivatedEvent {
	return &ExpenseChargeDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ExpenseChargeDeactivated", "ExpenseCharge", ec.ID, ec.FleetID),
		ChargeID:        ec.ID,
		CategoryID:      ec.CategoryID,
	}
}
