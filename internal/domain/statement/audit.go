package statement

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ChangeType classifies what a statement audit entry records
type ChangeType string

const (
	ChangePosted          ChangeType = "POSTED"
	ChangeLocked          ChangeType = "LOCKED"
	ChangePaymentApplied  ChangeType = "PAYMENT_APPLIED"
	ChangePaymentReversed ChangeType = "PAYMENT_REVERSED"
	ChangeArchived        ChangeType = "ARCHIVED"
	ChangeCancelled       ChangeType = "CANCELLED"
)

// AuditLogEntry records one statement lifecycle transition.
// Entries are append-only: the aggregate exposes no way to edit or
// remove them, and the settlement history they form is the record a
// billing dispute is resolved against.
type AuditLogEntry struct {
	ID             uuid.UUID  `json:"id"`
	ChangeType     ChangeType `json:"change_type"`
	PreviousStatus Status     `json:"previous_status"`
	NewStatus      Status     `json:"new_status"`
	ChangedBy      uuid.UUID  `json:"changed_by"`
	Reason         string     `json:"reason,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
}

func newAuditLogEntry(changeType ChangeType, previous, next Status, changedBy uuid.UUID, reason string) AuditLogEntry {
	return AuditLogEntry{
		ID:             uuid.New(),
		ChangeType:     changeType,
		PreviousStatus: previous,
		NewStatus:      next,
		ChangedBy:      changedBy,
		Reason:         reason,
		Timestamp:      time.Now(),
	}
}

// AuditLog is a slice of AuditLogEntry that implements GORM Scanner/Valuer for JSONB storage
type AuditLog []AuditLogEntry

// Value implements driver.Valuer interface for GORM to store as JSONB
func (a AuditLog) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (a *AuditLog) Scan(value interface{}) error {
	if value == nil {
		*a = AuditLog{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan AuditLog: unsupported type")
	}

	if len(bytes) == 0 {
		*a = AuditLog{}
		return nil
	}

	return json.Unmarshal(bytes, a)
}
