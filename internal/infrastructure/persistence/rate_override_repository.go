package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/taxifleet/backend/internal/domain/rates"
	"github.com/taxifleet/backend/internal/domain/shared"
	"github.com/taxifleet/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRateOverrideRepository implements rates.RateOverrideRepository using GORM
type GormRateOverrideRepository struct {
	db *gorm.DB
}

// NewGormRateOverrideRepository creates a new GormRateOverrideRepository
func NewGormRateOverrideRepository(db *gorm.DB) *GormRateOverrideRepository {
	return &GormRateOverrideRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormRateOverrideRepository) WithTx(tx *gorm.DB) *GormRateOverrideRepository {
	return &GormRateOverrideRepository{db: tx}
}

// FindByID finds an override by ID
func (r *GormRateOverrideRepository) FindByID(ctx context.Context, id uuid.UUID) (*rates.RateOverride, error) {
	var model models.RateOverrideModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForFleet finds an override by ID scoped to a fleet
func (r *GormRateOverrideRepository) FindByIDForFleet(ctx context.Context, fleetID, id uuid.UUID) (*rates.RateOverride, error) {
	var model models.RateOverrideModel
	err := r.db.WithContext(ctx).Where("id = ? AND fleet_id = ?", id, fleetID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveForRateAndOwnerOn finds all active overrides for a rate and owner
// whose window contains the date. Ordering is stable so resolution ties are
// broken the same way on every run.
func (r *GormRateOverrideRepository) FindActiveForRateAndOwnerOn(ctx context.Context, fleetID, rateID, ownerID uuid.UUID, date time.Time) ([]rates.RateOverride, error) {
	var list []models.RateOverrideModel
	err := r.db.WithContext(ctx).
		Where("fleet_id = ? AND rate_id = ? AND owner_id = ? AND active = ?", fleetID, rateID, ownerID, true).
		Where("start_date <= ? AND (end_date IS NULL OR end_date >= ?)", date, date).
		Order("priority DESC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return toDomainRateOverrides(list), nil
}

// FindAllForRate finds all overrides referencing a rate definition
func (r *GormRateOverrideRepository) FindAllForRate(ctx context.Context, fleetID, rateID uuid.UUID) ([]rates.RateOverride, error) {
	var list []models.RateOverrideModel
	err := r.db.WithContext(ctx).
		Where("fleet_id = ? AND rate_id = ?", fleetID, rateID).
		Order("start_date ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return toDomainRateOverrides(list), nil
}

// Save creates or updates an override
func (r *GormRateOverrideRepository) Save(ctx context.Context, ro *rates.RateOverride) error {
	model := models.RateOverrideModelFromDomain(ro)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. Overrides only ever change by
// closing the window or deactivating, so only those columns are written.
func (r *GormRateOverrideRepository) SaveWithLock(ctx context.Context, ro *rates.RateOverride) error {
	model := models.RateOverrideModelFromDomain(ro)
	result := r.db.WithContext(ctx).
		Model(&models.RateOverrideModel{}).
		Where("id = ? AND version = ?", ro.ID, ro.Version-1).
		Updates(map[string]any{
			"end_date":   model.EndDate,
			"active":     model.Active,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

func toDomainRateOverrides(list []models.RateOverrideModel) []rates.RateOverride {
	out := make([]rates.RateOverride, len(list))
	for i := range list {
		out[i] = *list[i].ToDomain()
	}
	return out
}
