package statement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/taxifleet/backend/internal/domain/masterdata"
	"github.com/taxifleet/backend/internal/domain/shared"
)

// Status represents the settlement status of a statement
type Status string

const (
	StatusDraft     Status = "DRAFT"     // Being built, line items mutable
	StatusPosted    Status = "POSTED"    // Line items frozen, visible to the person
	StatusLocked    Status = "LOCKED"    // Accepting payments
	StatusPaid      Status = "PAID"      // Fully settled
	StatusArchived  Status = "ARCHIVED"  // Recalled or superseded
	StatusCancelled Status = "CANCELLED" // Abandoned before posting
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPosted, StatusLocked, StatusPaid, StatusArchived, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are possible
func (s Status) IsTerminal() bool {
	return s == StatusArchived || s == StatusCancelled
}

// CanArchive returns true if the statement can still be recalled
func (s Status) CanArchive() bool {
	return s == StatusDraft || s == StatusPosted || s == StatusLocked
}

// Statement is the period settlement document for one person. It owns the
// line items computed for the period, the running balance and the payment
// history, and it is the aggregate the settlement state machine runs on:
// DRAFT -> POSTED -> LOCKED -> PAID, with ARCHIVED as the recall branch
// and CANCELLED reachable from DRAFT only. Once posted, line items are
// frozen; every transition appends to the audit log.
type Statement struct {
	shared.FleetAggregateRoot
	PersonID          uuid.UUID             `json:"person_id"`
	PersonType        masterdata.PersonRole `json:"person_type"`
	PeriodFrom        time.Time             `json:"period_from"`
	PeriodTo          time.Time             `json:"period_to"`
	PreviousBalance   decimal.Decimal       `json:"previous_balance"`
	LineItems         LineItems             `json:"line_items"`
	TotalExpense      decimal.Decimal       `json:"total_expense"`
	TotalRevenue      decimal.Decimal       `json:"total_revenue"`
	PaidAmount        decimal.Decimal       `json:"paid_amount"`
	NetDue            decimal.Decimal       `json:"net_due"`
	Status            Status                `json:"status"`
	ParentStatementID *uuid.UUID            `json:"parent_statement_id"`
	PostedAt          *time.Time            `json:"posted_at"`
	PostedBy          *uuid.UUID            `json:"posted_by"`
	LockedAt          *time.Time            `json:"locked_at"`
	LockedBy          *uuid.UUID            `json:"locked_by"`
	Payments          Payments              `json:"payments"`
	AuditLog          AuditLog              `json:"audit_log"`
}

// NewStatement creates a DRAFT statement for a person and period
func NewStatement(
	fleetID uuid.UUID,
	personID uuid.UUID,
	personType masterdata.PersonRole,
	periodFrom time.Time,
	periodTo time.Time,
	previousBalance decimal.Decimal,
) (*Statement, error) {
	if personID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PERSON", "Statement person cannot be empty")
	}
	if !personType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PERSON_TYPE", fmt.Sprintf("Person type %q is not valid", personType))
	}
	if periodTo.Before(periodFrom) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period end cannot precede period start")
	}

	s := &Statement{
		FleetAggregateRoot: shared.NewFleetAggregateRoot(fleetID),
		PersonID:           personID,
		PersonType:         personType,
		PeriodFrom:         periodFrom,
		PeriodTo:           periodTo,
		PreviousBalance:    previousBalance,
		LineItems:          LineItems{},
		TotalExpense:       decimal.Zero,
		TotalRevenue:       decimal.Zero,
		PaidAmount:         decimal.Zero,
		NetDue:             previousBalance,
		Status:             StatusDraft,
		Payments:           Payments{},
		AuditLog:           AuditLog{},
	}

	s.AddDomainEvent(NewStatementCreatedEvent(s))

	return s, nil
}

// ReplaceLineItems swaps the draft's line items and recomputes totals.
// Rebuilding a draft is idempotent: the same source data produces the
// same items and totals. Posted statements reject mutation.
func (s *Statement) ReplaceLineItems(items LineItems) error {
	if s.Status != StatusDraft {
		return shared.NewDomainError(shared.CodeStatementLocked,
			fmt.Sprintf("Cannot modify line items of a %s statement", s.Status))
	}

	s.LineItems = items
	s.TotalExpense = items.TotalExpense().Round(2)
	s.TotalRevenue = items.TotalRevenue().Round(2)
	s.recomputeNetDue()
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// TotalOwed is the amount the statement settles against: carried balance
// plus period expenses minus period revenue credits
func (s *Statement) TotalOwed() decimal.Decimal {
	return s.PreviousBalance.Add(s.TotalExpense).Sub(s.TotalRevenue)
}

func (s *Statement) recomputeNetDue() {
	s.NetDue = s.TotalOwed().Sub(s.PaidAmount)
}

// Post freezes the line items and publishes the statement
func (s *Statement) Post(changedBy uuid.UUID) error {
	if s.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot post statement in %s status", s.Status))
	}
	if len(s.LineItems) == 0 {
		return shared.NewDomainError("EMPTY_STATEMENT", "Cannot post a statement with no line items")
	}

	now := time.Now()
	s.transition(ChangePosted, StatusPosted, changedBy, "")
	s.PostedAt = &now
	s.PostedBy = &changedBy

	s.AddDomainEvent(NewStatementPostedEvent(s))

	return nil
}

// Lock closes the statement for payment collection
func (s *Statement) Lock(changedBy uuid.UUID) error {
	if s.Status != StatusPosted {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot lock statement in %s status", s.Status))
	}
	if s.Payments.HasPending() {
		return shared.NewDomainError("INVALID_STATE", "Cannot lock statement with pending payments")
	}

	now := time.Now()
	s.transition(ChangeLocked, StatusLocked, changedBy, "")
	s.LockedAt = &now
	s.LockedBy = &changedBy

	s.AddDomainEvent(NewStatementLockedEvent(s))

	return nil
}

// ApplyPayment applies a pending payment to a locked statement. The
// payment record, paid amount, net due and audit entry change together;
// the statement transitions to PAID once payments cover the total owed.
func (s *Statement) ApplyPayment(payment *Payment, changedBy uuid.UUID) error {
	if s.Status != StatusLocked {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to statement in %s status", s.Status))
	}
	if payment == nil || payment.Status != PaymentStatusPending {
		return shared.NewDomainError("INVALID_PAYMENT", "Only a pending payment can be applied")
	}

	payment.markCompleted()
	s.Payments = append(s.Payments, *payment)
	s.PaidAmount = s.PaidAmount.Add(payment.Amount)
	s.recomputeNetDue()

	next := StatusLocked
	if s.PaidAmount.GreaterThanOrEqual(s.TotalOwed()) {
		next = StatusPaid
	}
	s.transition(ChangePaymentApplied, next, changedBy, "")

	s.AddDomainEvent(NewPaymentAppliedEvent(s, payment))

	return nil
}

// ReversePayment backs a completed payment out of the balance. A fully
// paid statement drops back to LOCKED.
func (s *Statement) ReversePayment(paymentID uuid.UUID, reason string, changedBy uuid.UUID) error {
	if s.Status != StatusPaid && s.Status != StatusLocked {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reverse payment on statement in %s status", s.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Reversal reason is required")
	}

	var payment *Payment
	for i := range s.Payments {
		if s.Payments[i].ID == paymentID {
			payment = &s.Payments[i]
			break
		}
	}
	if payment == nil {
		return shared.NewDomainError("PAYMENT_NOT_FOUND", fmt.Sprintf("Payment %s not found on statement %s", paymentID, s.ID))
	}
	if !payment.IsCompleted() {
		return shared.NewDomainError(shared.CodePaymentNotCompleted,
			fmt.Sprintf("Payment %s is %s and cannot be reversed", paymentID, payment.Status))
	}

	payment.markReversed(reason)
	s.PaidAmount = s.PaidAmount.Sub(payment.Amount)
	s.recomputeNetDue()
	s.transition(ChangePaymentReversed, StatusLocked, changedBy, reason)

	s.AddDomainEvent(NewPaymentReversedEvent(s, payment))

	return nil
}

// Archive recalls the statement, typically because a corrected version
// supersedes it
func (s *Statement) Archive(reason string, changedBy uuid.UUID) error {
	if !s.Status.CanArchive() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot archive statement in %s status", s.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Archive reason is required")
	}

	s.transition(ChangeArchived, StatusArchived, changedBy, reason)
	s.AddDomainEvent(NewStatementArchivedEvent(s, reason))

	return nil
}

// Cancel abandons a draft before it was ever posted
func (s *Statement) Cancel(reason string, changedBy uuid.UUID) error {
	if s.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel statement in %s status", s.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	s.transition(ChangeCancelled, StatusCancelled, changedBy, reason)
	s.AddDomainEvent(NewStatementCancelledEvent(s, reason))

	return nil
}

// NewVersion creates a fresh DRAFT replacing this posted or locked
// statement, chained through ParentStatementID. The caller archives this
// statement and persists both together; only one statement per period
// may be live.
func (s *Statement) NewVersion() (*Statement, error) {
	if s.Status != StatusPosted && s.Status != StatusLocked {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Only a posted or locked statement can be superseded, not %s", s.Status))
	}

	next, err := NewStatement(s.FleetID, s.PersonID, s.PersonType, s.PeriodFrom, s.PeriodTo, s.PreviousBalance)
	if err != nil {
		return nil, err
	}
	parentID := s.ID
	next.ParentStatementID = &parentID

	return next, nil
}

// transition moves to the next status and appends the audit entry.
// Status change and audit entry are inseparable; this is the only
// place either happens.
func (s *Statement) transition(changeType ChangeType, next Status, changedBy uuid.UUID, reason string) {
	previous := s.Status
	s.Status = next
	s.AuditLog = append(s.AuditLog, newAuditLogEntry(changeType, previous, next, changedBy, reason))
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// IsDraft returns true if the statement is still mutable
func (s *Statement) IsDraft() bool {
	return s.Status == StatusDraft
}

// IsPaid returns true if the statement is fully settled
func (s *Statement) IsPaid() bool {
	return s.Status == StatusPaid
}
