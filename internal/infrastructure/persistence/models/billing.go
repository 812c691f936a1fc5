package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/taxifleet/backend/internal/domain/expense"
	"github.com/taxifleet/backend/internal/domain/masterdata"
	"github.com/taxifleet/backend/internal/domain/rates"
	"github.com/taxifleet/backend/internal/domain/statement"
)

// RateDefinitionModel is the persistence model for the RateDefinition aggregate root.
type RateDefinitionModel struct {
	FleetAggregateModel
	Name          string               `gorm:"type:varchar(100);not null;index:idx_rate_fleet_name,priority:2"`
	UnitType      rates.UnitType       `gorm:"type:varchar(30);not null"`
	Value         decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	ChargedTo     rates.ChargedTo      `gorm:"type:varchar(10);not null"`
	Cadence       rates.BillingCadence `gorm:"type:varchar(10);not null"`
	EffectiveFrom time.Time            `gorm:"not null;index"`
	EffectiveTo   *time.Time           `gorm:"index"`
	Active        bool                 `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (RateDefinitionModel) TableName() string {
	return "rate_definitions"
}

// ToDomain converts the persistence model to a domain RateDefinition entity.
func (m *RateDefinitionModel) ToDomain() *rates.RateDefinition {
	rd := &rates.RateDefinition{
		Name:          m.Name,
		UnitType:      m.UnitType,
		Value:         m.Value,
		ChargedTo:     m.ChargedTo,
		Cadence:       m.Cadence,
		EffectiveFrom: m.EffectiveFrom,
		EffectiveTo:   m.EffectiveTo,
		Active:        m.Active,
	}
	m.PopulateFleetAggregateRoot(&rd.FleetAggregateRoot)
	return rd
}

// FromDomain populates the persistence model from a domain RateDefinition entity.
func (m *RateDefinitionModel) FromDomain(rd *rates.RateDefinition) {
	m.FromDomainFleetAggregateRoot(rd.FleetAggregateRoot)
	m.Name = rd.Name
	m.UnitType = rd.UnitType
	m.Value = rd.Value
	m.ChargedTo = rd.ChargedTo
	m.Cadence = rd.Cadence
	m.EffectiveFrom = rd.EffectiveFrom
	m.EffectiveTo = rd.EffectiveTo
	m.Active = rd.Active
}

// RateDefinitionModelFromDomain creates a new persistence model from a domain RateDefinition.
func RateDefinitionModelFromDomain(rd *rates.RateDefinition) *RateDefinitionModel {
	m := &RateDefinitionModel{}
	m.FromDomain(rd)
	return m
}

// RateOverrideModel is the persistence model for the RateOverride aggregate root.
// Scope dimensions are flattened into columns so override lookup by rate,
// owner and date stays a plain indexed query.
type RateOverrideModel struct {
	FleetAggregateModel
	RateID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_override_rate_owner,priority:1"`
	OwnerID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_override_rate_owner,priority:2"`
	CabID         *uuid.UUID      `gorm:"type:uuid;index"`
	ShiftType     *string         `gorm:"type:varchar(10)"`
	DayOfWeek     *int            `gorm:"type:smallint"`
	OverrideValue decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Priority      int             `gorm:"not null"`
	StartDate     time.Time       `gorm:"not null;index"`
	EndDate       *time.Time      `gorm:"index"`
	Active        bool            `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (RateOverrideModel) TableName() string {
	return "rate_overrides"
}

// ToDomain converts the persistence model to a domain RateOverride entity.
func (m *RateOverrideModel) ToDomain() *rates.RateOverride {
	scope := rates.OverrideScope{
		OwnerID: m.OwnerID,
		CabID:   m.CabID,
	}
	if m.ShiftType != nil {
		st := masterdata.ShiftType(*m.ShiftType)
		scope.ShiftType = &st
	}
	if m.DayOfWeek != nil {
		dow := masterdata.DayOfWeek(*m.DayOfWeek)
		scope.DayOfWeek = &dow
	}

	ro := &rates.RateOverride{
		RateID:        m.RateID,
		Scope:         scope,
		OverrideValue: m.OverrideValue,
		Priority:      m.Priority,
		StartDate:     m.StartDate,
		EndDate:       m.EndDate,
		Active:        m.Active,
	}
	m.PopulateFleetAggregateRoot(&ro.FleetAggregateRoot)
	return ro
}

// FromDomain populates the persistence model from a domain RateOverride entity.
func (m *RateOverrideModel) FromDomain(ro *rates.RateOverride) {
	m.FromDomainFleetAggregateRoot(ro.FleetAggregateRoot)
	m.RateID = ro.RateID
	m.OwnerID = ro.Scope.OwnerID
	m.CabID = ro.Scope.CabID
	m.ShiftType = nil
	if ro.Scope.ShiftType != nil {
		st := string(*ro.Scope.ShiftType)
		m.ShiftType = &st
	}
	m.DayOfWeek = nil
	if ro.Scope.DayOfWeek != nil {
		dow := int(*ro.Scope.DayOfWeek)
		m.DayOfWeek = &dow
	}
	m.OverrideValue = ro.OverrideValue
	m.Priority = ro.Priority
	m.StartDate = ro.StartDate
	m.EndDate = ro.EndDate
	m.Active = ro.Active
}

// RateOverrideModelFromDomain creates a new persistence model from a domain RateOverride.
func RateOverrideModelFromDomain(ro *rates.RateOverride) *RateOverrideModel {
	m := &RateOverrideModel{}
	m.FromDomain(ro)
	return m
}

// ExpenseChargeModel is the persistence model for the ExpenseCharge aggregate root.
// The application rule is a tagged union and stays opaque to SQL; it is stored
// as JSONB through the domain type's Valuer/Scanner.
type ExpenseChargeModel struct {
	FleetAggregateModel
	CategoryID    uuid.UUID               `gorm:"type:uuid;not null;index"`
	Description   string                  `gorm:"type:varchar(500);not null"`
	Rule          expense.ApplicationRule `gorm:"type:jsonb;not null"`
	ChargedTo     rates.ChargedTo         `gorm:"type:varchar(10);not null"`
	Amount        decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	Type          expense.ChargeType      `gorm:"type:varchar(10);not null;index"`
	Cadence       rates.BillingCadence    `gorm:"type:varchar(10)"`
	EffectiveFrom time.Time               `gorm:"index"`
	EffectiveTo   *time.Time              `gorm:"index"`
	OccurredOn    *time.Time              `gorm:"index"`
	Active        bool                    `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (ExpenseChargeModel) TableName() string {
	return "expense_charges"
}

// ToDomain converts the persistence model to a domain ExpenseCharge entity.
func (m *ExpenseChargeModel) ToDomain() *expense.ExpenseCharge {
	ec := &expense.ExpenseCharge{
		CategoryID:    m.CategoryID,
		Description:   m.Description,
		Rule:          m.Rule,
		ChargedTo:     m.ChargedTo,
		Amount:        m.Amount,
		Type:          m.Type,
		Cadence:       m.Cadence,
		EffectiveFrom: m.EffectiveFrom,
		EffectiveTo:   m.EffectiveTo,
		OccurredOn:    m.OccurredOn,
		Active:        m.Active,
	}
	m.PopulateFleetAggregateRoot(&ec.FleetAggregateRoot)
	return ec
}

// FromDomain populates the persistence model from a domain ExpenseCharge entity.
func (m *ExpenseChargeModel) FromDomain(ec *expense.ExpenseCharge) {
	m.FromDomainFleetAggregateRoot(ec.FleetAggregateRoot)
	m.CategoryID = ec.CategoryID
	m.Description = ec.Description
	m.Rule = ec.Rule
	m.ChargedTo = ec.ChargedTo
	m.Amount = ec.Amount
	m.Type = ec.Type
	m.Cadence = ec.Cadence
	m.EffectiveFrom = ec.EffectiveFrom
	m.EffectiveTo = ec.EffectiveTo
	m.OccurredOn = ec.OccurredOn
	m.Active = ec.Active
}

// ExpenseChargeModelFromDomain creates a new persistence model from a domain ExpenseCharge.
func ExpenseChargeModelFromDomain(ec *expense.ExpenseCharge) *ExpenseChargeModel {
	m := &ExpenseChargeModel{}
	m.FromDomain(ec)
	return m
}

// StatementModel is the persistence model for the Statement aggregate root.
// Line items, payments and the audit log live inside the aggregate and are
// stored as JSONB; they are never queried row by row. The period key is
// indexed but not unique because archived versions share it with their
// replacement draft.
type StatementModel struct {
	FleetAggregateModel
	PersonID          uuid.UUID             `gorm:"type:uuid;not null;index:idx_statement_person_period,priority:1"`
	PersonType        masterdata.PersonRole `gorm:"type:varchar(10);not null"`
	PeriodFrom        time.Time             `gorm:"not null;index:idx_statement_person_period,priority:2"`
	PeriodTo          time.Time             `gorm:"not null;index:idx_statement_person_period,priority:3"`
	PreviousBalance   decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	LineItems         statement.LineItems   `gorm:"type:jsonb;default:'[]'"`
	TotalExpense      decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	TotalRevenue      decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	PaidAmount        decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	NetDue            decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Status            statement.Status      `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	ParentStatementID *uuid.UUID            `gorm:"type:uuid;index"`
	PostedAt          *time.Time
	PostedBy          *uuid.UUID `gorm:"type:uuid"`
	LockedAt          *time.Time
	LockedBy          *uuid.UUID         `gorm:"type:uuid"`
	Payments          statement.Payments `gorm:"type:jsonb;default:'[]'"`
	AuditLog          statement.AuditLog `gorm:"type:jsonb;default:'[]'"`
}

// TableName returns the table name for GORM
func (StatementModel) TableName() string {
	return "statements"
}

// ToDomain converts the persistence model to a domain Statement entity.
func (m *StatementModel) ToDomain() *statement.Statement {
	s := &statement.Statement{
		PersonID:          m.PersonID,
		PersonType:        m.PersonType,
		PeriodFrom:        m.PeriodFrom,
		PeriodTo:          m.PeriodTo,
		PreviousBalance:   m.PreviousBalance,
		LineItems:         m.LineItems,
		TotalExpense:      m.TotalExpense,
		TotalRevenue:      m.TotalRevenue,
		PaidAmount:        m.PaidAmount,
		NetDue:            m.NetDue,
		Status:            m.Status,
		ParentStatementID: m.ParentStatementID,
		PostedAt:          m.PostedAt,
		PostedBy:          m.PostedBy,
		LockedAt:          m.LockedAt,
		LockedBy:          m.LockedBy,
		Payments:          m.Payments,
		AuditLog:          m.AuditLog,
	}
	m.PopulateFleetAggregateRoot(&s.FleetAggregateRoot)
	return s
}

// FromDomain populates the persistence model from a domain Statement entity.
func (m *StatementModel) FromDomain(s *statement.Statement) {
	m.FromDomainFleetAggregateRoot(s.FleetAggregateRoot)
	m.PersonID = s.PersonID
	m.PersonType = s.PersonType
	m.PeriodFrom = s.PeriodFrom
	m.PeriodTo = s.PeriodTo
	m.PreviousBalance = s.PreviousBalance
	m.LineItems = s.LineItems
	m.TotalExpense = s.TotalExpense
	m.TotalRevenue = s.TotalRevenue
	m.PaidAmount = s.PaidAmount
	m.NetDue = s.NetDue
	m.Status = s.Status
	m.ParentStatementID = s.ParentStatementID
	m.PostedAt = s.PostedAt
	m.PostedBy = s.PostedBy
	m.LockedAt = s.LockedAt
	m.LockedBy = s.LockedBy
	m.Payments = s.Payments
	m.AuditLog = s.AuditLog
}

// StatementModelFromDomain creates a new persistence model from a domain Statement.
func StatementModelFromDomain(s *statement.Statement) *StatementModel {
	m := &StatementModel{}
	m.FromDomain(s)
	return m
}
