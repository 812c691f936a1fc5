package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/taxifleet/backend/internal/domain/masterdata"
	"github.com/taxifleet/backend/internal/domain/rates"
	"github.com/taxifleet/backend/internal/domain/shared/valueobject"
	"github.com/taxifleet/backend/internal/domain/statement"
)

// CreateRateRequest contains input for creating a base rate definition
type CreateRateRequest struct {
	FleetID       uuid.UUID            `json:"fleet_id" validate:"required"`
	Name          string               `json:"name" validate:"required"`
	UnitType      rates.UnitType       `json:"unit_type" validate:"required"`
	Value         decimal.Decimal      `json:"value"`
	ChargedTo     rates.ChargedTo      `json:"charged_to" validate:"required"`
	Cadence       rates.BillingCadence `json:"cadence" validate:"required"`
	EffectiveFrom time.Time            `json:"effective_from" validate:"required"`
	EffectiveTo   *time.Time           `json:"effective_to,omitempty"`
}

// CreateOverrideRequest contains input for creating a scoped rate override
type CreateOverrideRequest struct {
	FleetID   uuid.UUID             `json:"fleet_id" validate:"required"`
	RateID    uuid.UUID             `json:"rate_id" validate:"required"`
	OwnerID   uuid.UUID             `json:"owner_id" validate:"required"`
	CabID     *uuid.UUID            `json:"cab_id,omitempty"`
	ShiftType *masterdata.ShiftType `json:"shift_type,omitempty"`
	DayOfWeek *masterdata.DayOfWeek `json:"day_of_week,omitempty"`
	Value     decimal.Decimal       `json:"value"`
	StartDate time.Time             `json:"start_date" validate:"required"`
	EndDate   *time.Time            `json:"end_date,omitempty"`
}

// RateResponse represents a rate definition in API responses
type RateResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	UnitType      string          `json:"unit_type"`
	Value         decimal.Decimal `json:"value"`
	ChargedTo     string          `json:"charged_to"`
	Cadence       string          `json:"cadence"`
	EffectiveFrom time.Time       `json:"effective_from"`
	EffectiveTo   *time.Time      `json:"effective_to,omitempty"`
	Active        bool            `json:"active"`
	Version       int             `json:"version"`
}

func toRateResponse(rd *rates.RateDefinition) *RateResponse {
	return &RateResponse{
		ID:            rd.ID,
		Name:          rd.Name,
		UnitType:      rd.UnitType.String(),
		Value:         rd.Value,
		ChargedTo:     string(rd.ChargedTo),
		Cadence:       rd.Cadence.String(),
		EffectiveFrom: rd.EffectiveFrom,
		EffectiveTo:   rd.EffectiveTo,
		Active:        rd.Active,
		Version:       rd.Version,
	}
}

// OverrideResponse represents a rate override in API responses
type OverrideResponse struct {
	ID        uuid.UUID       `json:"id"`
	RateID    uuid.UUID       `json:"rate_id"`
	Scope     string          `json:"scope"`
	Priority  int             `json:"priority"`
	Value     decimal.Decimal `json:"value"`
	StartDate time.Time       `json:"start_date"`
	EndDate   *time.Time      `json:"end_date,omitempty"`
	Active    bool            `json:"active"`
	Version   int             `json:"version"`
}

func toOverrideResponse(ro *rates.RateOverride) *OverrideResponse {
	return &OverrideResponse{
		ID:        ro.ID,
		RateID:    ro.RateID,
		Scope:     ro.Scope.String(),
		Priority:  ro.Priority,
		Value:     ro.OverrideValue,
		StartDate: ro.StartDate,
		EndDate:   ro.EndDate,
		Active:    ro.Active,
		Version:   ro.Version,
	}
}

// ResolutionPreview explains which rate a query would resolve to, before
// any statement is built against it
type ResolutionPreview struct {
	RateID     uuid.UUID       `json:"rate_id"`
	RateName   string          `json:"rate_name"`
	Value      decimal.Decimal `json:"value"`
	Source     string          `json:"source"`
	OverrideID *uuid.UUID      `json:"override_id,omitempty"`
	Priority   int             `json:"priority"`
}

// GenerateStatementRequest contains input for building one person's
// statement over a period
type GenerateStatementRequest struct {
	FleetID             uuid.UUID `json:"fleet_id" validate:"required"`
	PersonID            uuid.UUID `json:"person_id" validate:"required"`
	PeriodFrom          time.Time `json:"period_from" validate:"required"`
	PeriodTo            time.Time `json:"period_to" validate:"required"`
	AllowFirstStatement bool      `json:"allow_first_statement"`
	BaseRateName        string    `json:"base_rate_name,omitempty"`
	PerUnitRateName     string    `json:"per_unit_rate_name,omitempty"`
}

// GenerateBatchRequest fans statement generation out across a roster.
// An empty PersonIDs list targets every active owner and driver.
type GenerateBatchRequest struct {
	FleetID             uuid.UUID   `json:"fleet_id" validate:"required"`
	PeriodFrom          time.Time   `json:"period_from" validate:"required"`
	PeriodTo            time.Time   `json:"period_to" validate:"required"`
	PersonIDs           []uuid.UUID `json:"person_ids,omitempty"`
	Workers             int         `json:"workers,omitempty"`
	AllowFirstStatement bool        `json:"allow_first_statement"`
}

// BatchError records one person's failed build without aborting the run
type BatchError struct {
	PersonID uuid.UUID `json:"person_id"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
}

// BatchResult summarizes a batch generation run
type BatchResult struct {
	SuccessCount int          `json:"success_count"`
	FailureCount int          `json:"failure_count"`
	Errors       []BatchError `json:"errors,omitempty"`
}

// ApplyPaymentRequest contains input for recording a payment against a
// locked statement
type ApplyPaymentRequest struct {
	FleetID     uuid.UUID               `json:"fleet_id" validate:"required"`
	StatementID uuid.UUID               `json:"statement_id" validate:"required"`
	Amount      decimal.Decimal         `json:"amount"`
	PaymentDate time.Time               `json:"payment_date" validate:"required"`
	Method      statement.PaymentMethod `json:"method" validate:"required"`
	Reference   string                  `json:"reference,omitempty"`
	OperatorID  uuid.UUID               `json:"operator_id" validate:"required"`
}

// StatementResponse summarizes a statement for API and CLI consumers.
// Monetary figures are reported as USD money values.
type StatementResponse struct {
	ID              uuid.UUID         `json:"id"`
	PersonID        uuid.UUID         `json:"person_id"`
	PersonType      string            `json:"person_type"`
	PeriodFrom      time.Time         `json:"period_from"`
	PeriodTo        time.Time         `json:"period_to"`
	Status          string            `json:"status"`
	PreviousBalance valueobject.Money `json:"previous_balance"`
	TotalExpense    valueobject.Money `json:"total_expense"`
	TotalRevenue    valueobject.Money `json:"total_revenue"`
	PaidAmount      valueobject.Money `json:"paid_amount"`
	NetDue          valueobject.Money `json:"net_due"`
	LineItemCount   int               `json:"line_item_count"`
	PaymentCount    int               `json:"payment_count"`
	ParentID        *uuid.UUID        `json:"parent_statement_id,omitempty"`
	Version         int               `json:"version"`
}

func toStatementResponse(s *statement.Statement) *StatementResponse {
	return &StatementResponse{
		ID:              s.ID,
		PersonID:        s.PersonID,
		PersonType:      string(s.PersonType),
		PeriodFrom:      s.PeriodFrom,
		PeriodTo:        s.PeriodTo,
		Status:          s.Status.String(),
		PreviousBalance: valueobject.NewMoneyUSD(s.PreviousBalance),
		TotalExpense:    valueobject.NewMoneyUSD(s.TotalExpense),
		TotalRevenue:    valueobject.NewMoneyUSD(s.TotalRevenue),
		PaidAmount:      valueobject.NewMoneyUSD(s.PaidAmount),
		NetDue:          valueobject.NewMoneyUSD(s.NetDue),
		LineItemCount:   len(s.LineItems),
		PaymentCount:    len(s.Payments),
		ParentID:        s.ParentStatementID,
		Version:         s.Version,
	}
}
