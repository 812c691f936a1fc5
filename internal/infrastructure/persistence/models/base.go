package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/taxifleet/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel provides common persistence fields for aggregate roots.
// It extends BaseModel with version for optimistic locking.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// FleetAggregateModel provides common persistence fields for fleet-scoped aggregate roots.
// It extends AggregateModel with fleet ID and creator info.
type FleetAggregateModel struct {
	AggregateModel
	FleetID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid;index"`
}

// FromDomainFleetAggregateRoot populates FleetAggregateModel from domain FleetAggregateRoot
func (m *FleetAggregateModel) FromDomainFleetAggregateRoot(f shared.FleetAggregateRoot) {
	m.FromDomainAggregateRoot(f.BaseAggregateRoot)
	m.FleetID = f.FleetID
	m.CreatedBy = f.CreatedBy
}

// PopulateFleetAggregateRoot populates a domain FleetAggregateRoot from persistence model
func (m *FleetAggregateModel) PopulateFleetAggregateRoot(f *shared.FleetAggregateRoot) {
	f.BaseAggregateRoot.BaseEntity.ID = m.ID
	f.BaseAggregateRoot.BaseEntity.CreatedAt = m.CreatedAt
	f.BaseAggregateRoot.BaseEntity.UpdatedAt = m.UpdatedAt
	f.BaseAggregateRoot.Version = m.Version
	f.FleetID = m.FleetID
	f.CreatedBy = m.CreatedBy
}
