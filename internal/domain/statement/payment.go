package statement

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/taxifleet/backend/internal/domain/shared"
)

// PaymentMethod identifies how a settlement payment was made
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodCheck    PaymentMethod = "CHECK"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodCard     PaymentMethod = "CARD"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheck, PaymentMethodTransfer, PaymentMethodCard:
		return true
	}
	return false
}

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"   // Recorded but not yet applied to the balance
	PaymentStatusCompleted PaymentStatus = "COMPLETED" // Applied to the balance
	PaymentStatusReversed  PaymentStatus = "REVERSED"  // Backed out of the balance
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusPending || s == PaymentStatusCompleted || s == PaymentStatusReversed
}

// Payment represents money applied against a statement's balance.
// It is a value object within the Statement aggregate, stored as JSONB.
type Payment struct {
	ID             uuid.UUID       `json:"id"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentDate    time.Time       `json:"payment_date"`
	Method         PaymentMethod   `json:"method"`
	Status         PaymentStatus   `json:"status"`
	Reference      string          `json:"reference,omitempty"`
	AppliedAt      *time.Time      `json:"applied_at"`
	ReversedAt     *time.Time      `json:"reversed_at"`
	ReversalReason string          `json:"reversal_reason,omitempty"`
}

// NewPayment creates a pending payment awaiting application
func NewPayment(amount decimal.Decimal, paymentDate time.Time, method PaymentMethod, reference string) (*Payment, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}

	return &Payment{
		ID:          uuid.New(),
		Amount:      amount,
		PaymentDate: paymentDate,
		Method:      method,
		Status:      PaymentStatusPending,
		Reference:   reference,
	}, nil
}

// IsCompleted returns true if the payment has been applied
func (p *Payment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}

// markCompleted records the payment as applied to the balance
func (p *Payment) markCompleted() {
	now := time.Now()
	p.Status = PaymentStatusCompleted
	p.AppliedAt = &now
}

// markReversed records the payment as backed out of the balance
func (p *Payment) markReversed(reason string) {
	now := time.Now()
	p.Status = PaymentStatusReversed
	p.ReversedAt = &now
	p.ReversalReason = reason
}

// Payments is a slice of Payment that implements GORM Scanner/Valuer for JSONB storage
type Payments []Payment

// Value implements driver.Valuer interface for GORM to store as JSONB
func (p Payments) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (p *Payments) Scan(value interface{}) error {
	if value == nil {
		*p = Payments{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Payments: unsupported type")
	}

	if len(bytes) == 0 {
		*p = Payments{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// CompletedAmount sums all completed payments
func (p Payments) CompletedAmount() decimal.Decimal {
	total := decimal.Zero
	for _, pay := range p {
		if pay.IsCompleted() {
			total = total.Add(pay.Amount)
		}
	}
	return total
}

// HasPending returns true if any payment is still awaiting application
func (p Payments) HasPending() bool {
	for _, pay := range p {
		if pay.Status == PaymentStatusPending {
			return true
		}
	}
	return false
}
