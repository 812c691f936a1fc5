package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/taxifleet/backend/internal/domain/masterdata"
	"github.com/taxifleet/backend/internal/domain/shared"
	"github.com/taxifleet/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMasterdataStore implements the engine's read-only master data ports
// (PersonReader, CabReader, ShiftReader, AttributeReader, UsageSource,
// RevenueReader) against the fleet's operational tables. The engine never
// writes these tables.
type GormMasterdataStore struct {
	db *gorm.DB
}

// NewGormMasterdataStore creates a new GormMasterdataStore
func NewGormMasterdataStore(db *gorm.DB) *GormMasterdataStore {
	return &GormMasterdataStore{db: db}
}

// FindPerson returns the person or shared.ErrNotFound
func (s *GormMasterdataStore) FindPerson(ctx context.Context, fleetID, personID uuid.UUID) (*masterdata.Person, error) {
	var model models.PersonModel
	err := s.db.WithContext(ctx).Where("id = ? AND fleet_id = ?", personID, fleetID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ActivePersonsByRole returns the active roster for a role, ordered by ID
// for deterministic resolution
func (s *GormMasterdataStore) ActivePersonsByRole(ctx context.Context, fleetID uuid.UUID, role masterdata.PersonRole) ([]masterdata.Person, error) {
	var list []models.PersonModel
	err := s.db.WithContext(ctx).
		Where("fleet_id = ? AND role = ? AND active = ?", fleetID, role, true).
		Order("id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	persons := make([]masterdata.Person, len(list))
	for i := range list {
		persons[i] = *list[i].ToDomain()
	}
	return persons, nil
}

// FindCab returns the cab or shared.ErrNotFound
func (s *GormMasterdataStore) FindCab(ctx context.Context, fleetID, cabID uuid.UUID) (*masterdata.Cab, error) {
	var model models.CabModel
	err := s.db.WithContext(ctx).Where("id = ? AND fleet_id = ?", cabID, fleetID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// CabsByOwner returns all cabs owned by a person
func (s *GormMasterdataStore) CabsByOwner(ctx context.Context, fleetID, ownerID uuid.UUID) ([]masterdata.Cab, error) {
	var list []models.CabModel
	err := s.db.WithContext(ctx).
		Where("fleet_id = ? AND owner_id = ?", fleetID, ownerID).
		Order("id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	cabs := make([]masterdata.Cab, len(list))
	for i := range list {
		cabs[i] = *list[i].ToDomain()
	}
	return cabs, nil
}

// FindShift returns the shift or shared.ErrNotFound
func (s *GormMasterdataStore) FindShift(ctx context.Context, fleetID, shiftID uuid.UUID) (*masterdata.Shift, error) {
	var model models.ShiftModel
	err := s.db.WithContext(ctx).Where("id = ? AND fleet_id = ?", shiftID, fleetID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ShiftsByProfile returns all shifts assigned the given profile, ordered by
// ID for deterministic resolution
func (s *GormMasterdataStore) ShiftsByProfile(ctx context.Context, fleetID, profileID uuid.UUID) ([]masterdata.Shift, error) {
	var list []models.ShiftModel
	err := s.db.WithContext(ctx).
		Where("fleet_id = ? AND profile_id = ?", fleetID, profileID).
		Order("id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return toDomainShifts(list), nil
}

// ActiveShiftsOn returns all shifts whose window contains the date, ordered
// by ID for deterministic resolution
func (s *GormMasterdataStore) ActiveShiftsOn(ctx context.Context, fleetID uuid.UUID, date time.Time) ([]masterdata.Shift, error) {
	var list []models.ShiftModel
	err := s.db.WithContext(ctx).
		Where("fleet_id = ? AND active_from <= ? AND (active_to IS NULL OR active_to >= ?)", fleetID, date, date).
		Order("id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return toDomainShifts(list), nil
}

// ShiftsForPerson returns shifts the person owns or drives
func (s *GormMasterdataStore) ShiftsForPerson(ctx context.Context, fleetID, personID uuid.UUID) ([]masterdata.Shift, error) {
	var list []models.ShiftModel
	err := s.db.WithContext(ctx).
		Where("fleet_id = ?", fleetID).
		Where("owner_id = ? OR driver_id = ?", personID, personID).
		Order("id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return toDomainShifts(list), nil
}

// ShiftsWithAttributeOn returns all shifts with a current value record for
// the attribute type on the date, ordered by shift ID
func (s *GormMasterdataStore) ShiftsWithAttributeOn(ctx context.Context, fleetID, attributeTypeID uuid.UUID, date time.Time) ([]masterdata.Shift, error) {
	var list []models.ShiftModel
	err := s.db.WithContext(ctx).
		Joins("JOIN shift_attribute_values av ON av.shift_id = shifts.id").
		Where("shifts.fleet_id = ? AND av.attribute_type_id = ?", fleetID, attributeTypeID).
		Where("av.valid_from <= ? AND (av.valid_to IS NULL OR av.valid_to >= ?)", date, date).
		Order("shifts.id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return toDomainShifts(list), nil
}

// UsageFor returns daily usage records for a shift within [from, to].
// Dates with no rows simply produce no records, never an error.
func (s *GormMasterdataStore) UsageFor(ctx context.Context, fleetID, shiftID uuid.UUID, from, to time.Time) ([]masterdata.Usage, error) {
	var list []models.ShiftUsageModel
	err := s.db.WithContext(ctx).
		Where("fleet_id = ? AND shift_id = ? AND date >= ? AND date <= ?", fleetID, shiftID, from, to).
		Order("date ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	usages := make([]masterdata.Usage, len(list))
	for i := range list {
		usages[i] = list[i].ToDomain()
	}
	return usages, nil
}

// RevenuesFor returns credited revenue records for a person within [from, to]
func (s *GormMasterdataStore) RevenuesFor(ctx context.Context, fleetID, personID uuid.UUID, from, to time.Time) ([]masterdata.RevenueRecord, error) {
	var list []models.RevenueRecordModel
	err := s.db.WithContext(ctx).
		Where("fleet_id = ? AND person_id = ? AND occurred_on >= ? AND occurred_on <= ?", fleetID, personID, from, to).
		Order("occurred_on ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	records := make([]masterdata.RevenueRecord, len(list))
	for i := range list {
		records[i] = list[i].ToDomain()
	}
	return records, nil
}

func toDomainShifts(list []models.ShiftModel) []masterdata.Shift {
	out := make([]masterdata.Shift, len(list))
	for i := range list {
		out[i] = *list[i].ToDomain()
	}
	return out
}
