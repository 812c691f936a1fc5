package expense

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/taxifleet/backend/internal/domain/masterdata"
	"github.com/taxifleet/backend/internal/domain/rates"
	"github.com/taxifleet/backend/internal/domain/shared"
)

// ChargeType distinguishes recurring charges from one-time charges
type ChargeType string

const (
	ChargeTypeRecurring ChargeType = "RECURRING"
	ChargeTypeOneTime   ChargeType = "ONE_TIME"
)

// IsValid checks if the charge type is valid
func (c ChargeType) IsValid() bool {
	return c == ChargeTypeRecurring || c == ChargeTypeOneTime
}

// ExpenseCharge is an operating expense billed to the entities its
// application rule resolves to. Recurring charges expand into zero or more
// billed occurrences per statement period depending on cadence; targets are
// resolved at statement-generation time using each occurrence date, so the
// target set can grow and shrink as shifts and attributes change.
type ExpenseCharge struct {
	shared.FleetAggregateRoot
	CategoryID    uuid.UUID            `json:"category_id"`
	Description   string               `json:"description"`
	Rule          ApplicationRule      `json:"rule"`
	ChargedTo     rates.ChargedTo      `json:"charged_to"`
	Amount        decimal.Decimal      `json:"amount"`
	Type          ChargeType           `json:"type"`
	Cadence       rates.BillingCadence `json:"cadence"`        // recurring only
	EffectiveFrom time.Time            `json:"effective_from"` // recurring only
	EffectiveTo   *time.Time           `json:"effective_to"`   // recurring only, nil = open
	OccurredOn    *time.Time           `json:"occurred_on"`    // one-time only
	Active        bool                 `json:"active"`
}

func validateChargeCommon(categoryID uuid.UUID, description string, rule ApplicationRule, chargedTo rates.ChargedTo, amount decimal.Decimal) error {
	if categoryID == uuid.Nil {
		return shared.NewDomainError("INVALID_CATEGORY", "Expense charge requires a category")
	}
	if description == "" {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Expense charge description cannot be empty")
	}
	if err := rule.Validate(); err != nil {
		return err
	}
	if !chargedTo.IsValid() {
		return shared.NewDomainError("INVALID_CHARGED_TO", fmt.Sprintf("Charged-to side %q is not valid", chargedTo))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Expense charge amount must be positive")
	}
	return nil
}

// NewRecurringCharge creates a recurring expense charge
func NewRecurringCharge(
	fleetID uuid.UUID,
	categoryID uuid.UUID,
	description string,
	rule ApplicationRule,
	chargedTo rates.ChargedTo,
	amount decimal.Decimal,
	cadence rates.BillingCadence,
	effectiveFrom time.Time,
	effectiveTo *time.Time,
) (*ExpenseCharge, error) {
	if err := validateChargeCommon(categoryID, description, rule, chargedTo, amount); err != nil {
		return nil, err
	}
	if !cadence.IsValid() {
		return nil, shared.NewDomainError("INVALID_CADENCE", fmt.Sprintf("Billing cadence %q is not valid", cadence))
	}
	if effectiveTo != nil && effectiveTo.Before(effectiveFrom) {
		return nil, shared.NewDomainError("INVALID_WINDOW", "Effective-to cannot precede effective-from")
	}

	ec := &ExpenseCharge{
		FleetAggregateRoot: shared.NewFleetAggregateRoot(fleetID),
		CategoryID:         categoryID,
		Description:        description,
		Rule:               rule,
		ChargedTo:          chargedTo,
		Amount:             amount.Truncate(2),
		Type:               ChargeTypeRecurring,
		Cadence:            cadence,
		EffectiveFrom:      effectiveFrom,
		EffectiveTo:        effectiveTo,
		Active:             true,
	}

	ec.AddDomainEvent(NewExpenseChargeCreatedEvent(ec))

	return ec, nil
}

// NewOneTimeCharge creates a one-time expense charge
func NewOneTimeCharge(
	fleetID uuid.UUID,
	categoryID uuid.UUID,
	description string,
	rule ApplicationRule,
	chargedTo rates.ChargedTo,
	amount decimal.Decimal,
	occurredOn time.Time,
) (*ExpenseCharge, error) {
	if err := validateChargeCommon(categoryID, description, rule, chargedTo, amount); err != nil {
		return nil, err
	}

	ec := &ExpenseCharge{
		FleetAggregateRoot: shared.NewFleetAggregateRoot(fleetID),
		CategoryID:         categoryID,
		Description:        description,
		Rule:               rule,
		ChargedTo:          chargedTo,
		Amount:             amount.Truncate(2),
		Type:               ChargeTypeOneTime,
		OccurredOn:         &occurredOn,
		Active:             true,
	}

	ec.AddDomainEvent(NewExpenseChargeCreatedEvent(ec))

	return ec, nil
}

// IsRecurring reports whether the charge recurs
func (ec *ExpenseCharge) IsRecurring() bool {
	return ec.Type == ChargeTypeRecurring
}

// AppliesInPeriod reports whether the charge can produce occurrences in
// [periodFrom, periodTo]
func (ec *ExpenseCharge) AppliesInPeriod(periodFrom, periodTo time.Time) bool {
	if !ec.Active {
		return false
	}
	if ec.Type == ChargeTypeOneTime {
		return ec.OccurredOn != nil &&
			!ec.OccurredOn.Before(periodFrom) && !ec.OccurredOn.After(periodTo)
	}
	if ec.EffectiveTo != nil && periodFrom.After(*ec.EffectiveTo) {
		return false
	}
	return !ec.EffectiveFrom.After(periodTo)
}

// IsEffectiveOn reports whether a recurring charge's window contains the date
func (ec *ExpenseCharge) IsEffectiveOn(date time.Time) bool {
	if !ec.Active || ec.Type != ChargeTypeRecurring {
		return false
	}
	return masterdata.WindowContains(ec.EffectiveFrom, ec.EffectiveTo, date)
}

// CloseWindow ends a recurring charge's effective window. Set once.
func (ec *ExpenseCharge) CloseWindow(endDate time.Time) error {
	if ec.Type != ChargeTypeRecurring {
		return shared.NewDomainError("INVALID_STATE", "Only recurring charges have an effective window")
	}
	if ec.EffectiveTo != nil {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Charge %s window is already closed as of %s", ec.ID, ec.EffectiveTo.Format("2006-01-02")))
	}
	if endDate.Before(ec.EffectiveFrom) {
		return shared.NewDomainError("INVALID_WINDOW", "End date cannot precede effective-from")
	}

	ec.EffectiveTo = &endDate
	ec.UpdatedAt = time.Now()
	ec.IncrementVersion()

	return nil
}

// Deactivate removes the charge from statement generation without deleting it
func (ec *ExpenseCharge) Deactivate() error {
	if !ec.Active {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Charge %s is already inactive", ec.ID))
	}

	ec.Active = false
	ec.UpdatedAt = time.Now()
	ec.IncrementVersion()

	ec.AddDomainEvent(NewExpenseChargeDeactivatedEvent(ec))

	return nil
}
