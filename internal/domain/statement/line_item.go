package statement

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItemType classifies what a statement line bills or credits
type LineItemType string

const (
	LineItemLeaseCharge      LineItemType = "LEASE_CHARGE"
	LineItemRecurringExpense LineItemType = "RECURRING_EXPENSE"
	LineItemOneTimeExpense   LineItemType = "ONE_TIME_EXPENSE"
	LineItemRevenue          LineItemType = "REVENUE"
)

// IsValid checks if the line item type is valid
func (t LineItemType) IsValid() bool {
	switch t {
	case LineItemLeaseCharge, LineItemRecurringExpense, LineItemOneTimeExpense, LineItemRevenue:
		return true
	}
	return false
}

// IsExpense reports whether lines of this type accumulate into the
// statement's expense total; revenue lines accumulate into the credit side
func (t LineItemType) IsExpense() bool {
	return t != LineItemRevenue
}

// LineItem is one billed or credited position on a statement.
// It is a value object within the Statement aggregate, stored as JSONB.
// SourceID points at the record the line was computed from (expense
// charge, rate definition or revenue record) so a disputed line can be
// traced back to its configuration.
type LineItem struct {
	ID          uuid.UUID       `json:"id"`
	Type        LineItemType    `json:"type"`
	Description string          `json:"description"`
	SourceID    *uuid.UUID      `json:"source_id,omitempty"`
	ShiftID     *uuid.UUID      `json:"shift_id,omitempty"`
	OccurredOn  time.Time       `json:"occurred_on"`
	Quantity    decimal.Decimal `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
}

// NewLineItem creates a new line item
func NewLineItem(itemType LineItemType, description string, occurredOn time.Time, amount decimal.Decimal) LineItem {
	return LineItem{
		ID:          uuid.New(),
		Type:        itemType,
		Description: description,
		OccurredOn:  occurredOn,
		Quantity:    decimal.NewFromInt(1),
		Amount:      amount,
	}
}

// WithSource attaches the originating record reference
func (li LineItem) WithSource(sourceID uuid.UUID) LineItem {
	li.SourceID = &sourceID
	return li
}

// WithShift attaches the shift the line was billed against
func (li LineItem) WithShift(shiftID uuid.UUID) LineItem {
	li.ShiftID = &shiftID
	return li
}

// WithQuantity sets the driven-unit quantity behind the amount
func (li LineItem) WithQuantity(quantity decimal.Decimal) LineItem {
	li.Quantity = quantity
	return li
}

// LineItems is a slice of LineItem that implements GORM Scanner/Valuer for JSONB storage
type LineItems []LineItem

// Value implements driver.Valuer interface for GORM to store as JSONB
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (l *LineItems) Scan(value interface{}) error {
	if value == nil {
		*l = LineItems{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan LineItems: unsupported type")
	}

	if len(bytes) == 0 {
		*l = LineItems{}
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// TotalExpense sums all expense-side lines
func (l LineItems) TotalExpense() decimal.Decimal {
	total := decimal.Zero
	for _, li := range l {
		if li.Type.IsExpense() {
			total = total.Add(li.Amount)
		}
	}
	return total
}

// TotalRevenue sums all revenue lines
func (l LineItems) TotalRevenue() decimal.Decimal {
	total := decimal.Zero
	for _, li := range l {
		if !li.Type.IsExpense() {
			total = total.Add(li.Amount)
		}
	}
	return total
}
