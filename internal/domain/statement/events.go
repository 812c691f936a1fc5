package statement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/taxifleet/backend/internal/domain/shared"
)

// StatementCreatedEvent is raised when a draft statement is created
type StatementCreatedEvent struct {
	shared.BaseDomainEvent
	StatementID uuid.UUID `json:"statement_id"`
	PersonID    uuid.UUID `json:"person_id"`
	PeriodFrom  time.Time `json:"period_from"`
	PeriodTo    time.Time `json:"period_to"`
}

// EventType returns the event type name
func (e *StatementCreatedEvent) EventType() string {
	return "StatementCreated"
}

// NewStatementCreatedEvent creates a new StatementCreatedEvent
func NewStatementCreatedEvent(s *Statement) *StatementCreatedEvent {
	return &StatementCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("StatementCreated", "Statement", s.ID, s.FleetID),
		StatementID:     s.ID,
		PersonID:        s.PersonID,
		PeriodFrom:      s.PeriodFrom,
		PeriodTo:        s.PeriodTo,
	}
}

// StatementPostedEvent is raised when a statement's line items are frozen
type StatementPostedEvent struct {
	shared.BaseDomainEvent
	StatementID  uuid.UUID       `json:"statement_id"`
	PersonID     uuid.UUID       `json:"person_id"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	NetDue       decimal.Decimal `json:"net_due"`
}

// EventType returns the event type name
func (e *StatementPostedEvent) EventType() string {
	return "StatementPosted"
}

// NewStatementPostedEvent creates a new StatementPostedEvent
func NewStatementPostedEvent(s *Statement) *StatementPostedEvent {
	return &StatementPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("StatementPosted", "Statement", s.ID, s.FleetID),
		StatementID:     s.ID,
		PersonID:        s.PersonID,
		TotalExpense:    s.TotalExpense,
		TotalRevenue:    s.TotalRevenue,
		NetDue:          s.NetDue,
	}
}

// StatementLockedEvent is raised when a statement starts collecting payments
type StatementLockedEvent struct {
	shared.BaseDomainEvent
	StatementID uuid.UUID       `json:"statement_id"`
	PersonID    uuid.UUID       `json:"person_id"`
	NetDue      decimal.Decimal `json:"net_due"`
}

// EventType returns the event type name
func (e *StatementLockedEvent) EventType() string {
	return "StatementLocked"
}

// NewStatementLockedEvent creates a new StatementLockedEvent
func NewStatementLockedEvent(s *Statement) *StatementLockedEvent {
	return &StatementLockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("StatementLocked", "Statement", s.ID, s.FleetID),
		StatementID:     s.ID,
		PersonID:        s.PersonID,
		NetDue:          s.NetDue,
	}
}

// PaymentAppliedEvent is raised when a payment is applied to a statement
type PaymentAppliedEvent struct {
	shared.BaseDomainEvent
	StatementID uuid.UUID       `json:"statement_id"`
	PaymentID   uuid.UUID       `json:"payment_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	NetDue      decimal.Decimal `json:"net_due"`
	FullyPaid   bool            `json:"fully_paid"`
}

// EventType returns the event type name
func (e *PaymentAppliedEvent) EventType() string {
	return "StatementPaymentApplied"
}

// NewPaymentAppliedEvent creates a new PaymentAppliedEvent
func NewPaymentAppliedEvent(s *Statement, p *Payment) *PaymentAppliedEvent {
	return &PaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("StatementPaymentApplied", "Statement", s.ID, s.FleetID),
		StatementID:     s.ID,
		PaymentID:       p.ID,
		Amount:          p.Amount,
		PaidAmount:      s.PaidAmount,
		NetDue:          s.NetDue,
		FullyPaid:       s.IsPaid(),
	}
}

// PaymentReversedEvent is raised when a payment is backed out
type PaymentReversedEvent struct {
	shared.BaseDomainEvent
	StatementID uuid.UUID       `json:"statement_id"`
	PaymentID   uuid.UUID       `json:"payment_id"`
	Amount      decimal.Decimal `json:"amount"`
	Reason      string          `json:"reason"`
	NetDue      decimal.Decimal `json:"net_due"`
}

// EventType returns the event type name
func (e *PaymentReversedEvent) EventType() string {
	return "StatementPaymentReversed"
}

// NewPaymentReversedEvent creates a new PaymentReversedEvent
func NewPaymentReversedEvent(s *Statement, p *Payment) *PaymentReversedEvent {
	return &PaymentReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("StatementPaymentReversed", "Statement", s.ID, s.FleetID),
		StatementID:     s.ID,
		PaymentID:       p.ID,
		Amount:          p.Amount,
		Reason:          p.ReversalReason,
		NetDue:          s.NetDue,
	}
}

// StatementArchivedEvent is raised when a statement is recalled
type StatementArchivedEvent struct {
	shared.BaseDomainEvent
	StatementID uuid.UUID `json:"statement_id"`
	Reason      string    `json:"reason"`
}

// EventType returns the event type name
func (e *StatementArchivedEvent) EventType() string {
	return "StatementArchived"
}

// NewStatementArchivedEvent creates a new StatementArchivedEvent
func NewStatementArchivedEvent(s *Statement, reason string) *StatementArchivedEvent {
	return &StatementArchivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("StatementArchived", "Statement", s.ID, s.FleetID),
		StatementID:     s.ID,
		Reason:          reason,
	}
}

// StatementCancelledEvent is raised when a draft is abandoned
type StatementCancelledEvent struct {
	shared.BaseDomainEvent
	StatementID uuid.UUID `json:"statement_id"`
	Reason      string    `json:"reason"`
}

// EventType returns the event type name
func (e *StatementCancelledEvent) EventType() string {
	return "StatementCancelled"
}

// NewStatementCancelledEvent creates a new StatementCancelledEvent
func NewStatementCancelledEvent(s *Statement, reason string) *StatementCancelledEvent {
	return &StatementCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("StatementCancelled", "Statement", s.ID, s.FleetID),
		StatementID:     s.ID,
		Reason:          reason,
	}
}
