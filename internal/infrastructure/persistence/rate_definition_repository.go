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

// GormRateDefinitionRepository implements rates.RateDefinitionRepository using GORM
type GormRateDefinitionRepository struct {
	db *gorm.DB
}

// NewGormRateDefinitionRepository creates a new GormRateDefinitionRepository
func NewGormRateDefinitionRepository(db *gorm.DB) *GormRateDefinitionRepository {
	return &GormRateDefinitionRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormRateDefinitionRepository) WithTx(tx *gorm.DB) *GormRateDefinitionRepository {
	return &GormRateDefinitionRepository{db: tx}
}

// FindByID finds a rate definition by ID
func (r *GormRateDefinitionRepository) FindByID(ctx context.Context, id uuid.UUID) (*rates.RateDefinition, error) {
	var model models.RateDefinitionModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForFleet finds a rate definition by ID scoped to a fleet
func (r *GormRateDefinitionRepository) FindByIDForFleet(ctx context.Context, fleetID, id uuid.UUID) (*rates.RateDefinition, error) {
	var model models.RateDefinitionModel
	err := r.db.WithContext(ctx).Where("id = ? AND fleet_id = ?", id, fleetID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNameOn finds the active definition whose window contains the date
func (r *GormRateDefinitionRepository) FindByNameOn(ctx context.Context, fleetID uuid.UUID, name string, date time.Time) (*rates.RateDefinition, error) {
	var model models.RateDefinitionModel
	err := r.db.WithContext(ctx).
		Where("fleet_id = ? AND name = ? AND active = ?", fleetID, name, true).
		Where("effective_from <= ? AND (effective_to IS NULL OR effective_to >= ?)", date, date).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllByName finds all active definitions for a name, ordered by effective-from
func (r *GormRateDefinitionRepository) FindAllByName(ctx context.Context, fleetID uuid.UUID, name string) ([]rates.RateDefinition, error) {
	var list []models.RateDefinitionModel
	err := r.db.WithContext(ctx).
		Where("fleet_id = ? AND name = ? AND active = ?", fleetID, name, true).
		Order("effective_from ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return toDomainRateDefinitions(list), nil
}

// FindAllForFleet finds all active definitions for a fleet
func (r *GormRateDefinitionRepository) FindAllForFleet(ctx context.Context, fleetID uuid.UUID) ([]rates.RateDefinition, error) {
	var list []models.RateDefinitionModel
	err := r.db.WithContext(ctx).
		Where("fleet_id = ? AND active = ?", fleetID, true).
		Order("name ASC, effective_from ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return toDomainRateDefinitions(list), nil
}

// Save creates or updates a rate definition
func (r *GormRateDefinitionRepository) Save(ctx context.Context, rd *rates.RateDefinition) error {
	model := models.RateDefinitionModelFromDomain(rd)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. The domain has already
// incremented the version, so the predicate checks against the prior one.
// Definitions are immutable after their window starts except for closing
// and deactivation, so only those columns are written.
func (r *GormRateDefinitionRepository) SaveWithLock(ctx context.Context, rd *rates.RateDefinition) error {
	model := models.RateDefinitionModelFromDomain(rd)
	result := r.db.WithContext(ctx).
		Model(&models.RateDefinitionModel{}).
		Where("id = ? AND version = ?", rd.ID, rd.Version-1).
		Updates(map[string]any{
			"effective_to": model.EffectiveTo,
			"active":       model.Active,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

func toDomainRateDefinitions(list []models.RateDefinitionModel) []rates.RateDefinition {
	out := make([]rates.RateDefinition, len(list))
	for i := range list {
		out[i] = *list[i].ToDomain()
	}
	return out
}
