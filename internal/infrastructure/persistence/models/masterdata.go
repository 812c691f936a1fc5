package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/taxifleet/backend/internal/domain/masterdata"
)

// The billing engine reads fleet master data but never writes it; these
// models only convert toward the domain.

// PersonModel is the persistence model for fleet participants.
type PersonModel struct {
	ID      uuid.UUID             `gorm:"type:uuid;primary_key"`
	FleetID uuid.UUID             `gorm:"type:uuid;not null;index"`
	Name    string                `gorm:"type:varchar(200);not null"`
	Role    masterdata.PersonRole `gorm:"type:varchar(10);not null;index"`
	Active  bool                  `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (PersonModel) TableName() string {
	return "persons"
}

// ToDomain converts the persistence model to a domain Person.
func (m *PersonModel) ToDomain() *masterdata.Person {
	return &masterdata.Person{
		ID:      m.ID,
		FleetID: m.FleetID,
		Name:    m.Name,
		Role:    m.Role,
		Active:  m.Active,
	}
}

// CabModel is the persistence model for vehicles.
type CabModel struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key"`
	FleetID uuid.UUID `gorm:"type:uuid;not null;index"`
	Number  string    `gorm:"type:varchar(20);not null"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`
	Active  bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (CabModel) TableName() string {
	return "cabs"
}

// ToDomain converts the persistence model to a domain Cab.
func (m *CabModel) ToDomain() *masterdata.Cab {
	return &masterdata.Cab{
		ID:      m.ID,
		FleetID: m.FleetID,
		Number:  m.Number,
		OwnerID: m.OwnerID,
		Active:  m.Active,
	}
}

// ShiftModel is the persistence model for recurring cab shifts.
type ShiftModel struct {
	ID         uuid.UUID            `gorm:"type:uuid;primary_key"`
	FleetID    uuid.UUID            `gorm:"type:uuid;not null;index"`
	CabID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	OwnerID    uuid.UUID            `gorm:"type:uuid;not null;index"`
	DriverID   *uuid.UUID           `gorm:"type:uuid;index"`
	Type       masterdata.ShiftType `gorm:"type:varchar(10);not null"`
	ProfileID  *uuid.UUID           `gorm:"type:uuid;index"`
	ActiveFrom time.Time            `gorm:"not null;index"`
	ActiveTo   *time.Time           `gorm:"index"`
}

// TableName returns the table name for GORM
func (ShiftModel) TableName() string {
	return "shifts"
}

// ToDomain converts the persistence model to a domain Shift.
func (m *ShiftModel) ToDomain() *masterdata.Shift {
	return &masterdata.Shift{
		ID:         m.ID,
		FleetID:    m.FleetID,
		CabID:      m.CabID,
		OwnerID:    m.OwnerID,
		DriverID:   m.DriverID,
		Type:       m.Type,
		ProfileID:  m.ProfileID,
		ActiveFrom: m.ActiveFrom,
		ActiveTo:   m.ActiveTo,
	}
}

// ShiftAttributeValueModel is the persistence model for temporal attribute
// values attached to shifts.
type ShiftAttributeValueModel struct {
	ShiftID         uuid.UUID `gorm:"type:uuid;not null;index:idx_attr_shift_type,priority:1"`
	AttributeTypeID uuid.UUID `gorm:"type:uuid;not null;index:idx_attr_shift_type,priority:2"`
	Value           string    `gorm:"type:varchar(200);not null"`
	ValidFrom       time.Time `gorm:"not null"`
	ValidTo         *time.Time
}

// TableName returns the table name for GORM
func (ShiftAttributeValueModel) TableName() string {
	return "shift_attribute_values"
}

// ToDomain converts the persistence model to a domain AttributeValue.
func (m *ShiftAttributeValueModel) ToDomain() *masterdata.AttributeValue {
	return &masterdata.AttributeValue{
		ShiftID:         m.ShiftID,
		AttributeTypeID: m.AttributeTypeID,
		Value:           m.Value,
		ValidFrom:       m.ValidFrom,
		ValidTo:         m.ValidTo,
	}
}

// ShiftUsageModel is the persistence model for daily per-shift mileage and
// trip counts.
type ShiftUsageModel struct {
	ShiftID uuid.UUID       `gorm:"type:uuid;not null;index:idx_usage_shift_date,priority:1"`
	FleetID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Date    time.Time       `gorm:"not null;index:idx_usage_shift_date,priority:2"`
	Miles   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Trips   int             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ShiftUsageModel) TableName() string {
	return "shift_usages"
}

// ToDomain converts the persistence model to a domain Usage record.
func (m *ShiftUsageModel) ToDomain() masterdata.Usage {
	return masterdata.Usage{
		ShiftID: m.ShiftID,
		Date:    m.Date,
		Miles:   m.Miles,
		Trips:   m.Trips,
	}
}

// RevenueRecordModel is the persistence model for credited revenue records.
type RevenueRecordModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	FleetID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	PersonID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ShiftID     *uuid.UUID      `gorm:"type:uuid;index"`
	Description string          `gorm:"type:varchar(500);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	OccurredOn  time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (RevenueRecordModel) TableName() string {
	return "revenue_records"
}

// ToDomain converts the persistence model to a domain RevenueRecord.
func (m *RevenueRecordModel) ToDomain() masterdata.RevenueRecord {
	return masterdata.RevenueRecord{
		ID:          m.ID,
		PersonID:    m.PersonID,
		ShiftID:     m.ShiftID,
		Description: m.Description,
		Amount:      m.Amount,
		OccurredOn:  m.OccurredOn,
	}
}
