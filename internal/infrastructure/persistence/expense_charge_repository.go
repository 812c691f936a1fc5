package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/taxifleet/backend/internal/domain/expense"
	"github.com/taxifleet/backend/internal/domain/shared"
	"github.com/taxifleet/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormExpenseChargeRepository implements expense.ExpenseChargeRepository using GORM
type GormExpenseChargeRepository struct {
	db *gorm.DB
}

// NewGormExpenseChargeRepository creates a new GormExpenseChargeRepository
func NewGormExpenseChargeRepository(db *gorm.DB) *GormExpenseChargeRepository {
	return &GormExpenseChargeRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormExpenseChargeRepository) WithTx(tx *gorm.DB) *GormExpenseChargeRepository {
	return &GormExpenseChargeRepository{db: tx}
}

// FindByID finds an expense charge by ID
func (r *GormExpenseChargeRepository) FindByID(ctx context.Context, id uuid.UUID) (*expense.ExpenseCharge, error) {
	var model models.ExpenseChargeModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForFleet finds an expense charge by ID scoped to a fleet
func (r *GormExpenseChargeRepository) FindByIDForFleet(ctx context.Context, fleetID, id uuid.UUID) (*expense.ExpenseCharge, error) {
	var model models.ExpenseChargeModel
	err := r.db.WithContext(ctx).Where("id = ? AND fleet_id = ?", id, fleetID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveOverlapping finds all active charges that can produce occurrences
// inside [from, to]: recurring charges whose effective window intersects the
// period and one-time charges dated within it
func (r *GormExpenseChargeRepository) FindActiveOverlapping(ctx context.Context, fleetID uuid.UUID, from, to time.Time) ([]expense.ExpenseCharge, error) {
	var list []models.ExpenseChargeModel
	err := r.db.WithContext(ctx).
		Where("fleet_id = ? AND active = ?", fleetID, true).
		Where(
			r.db.Where("type = ? AND effective_from <= ? AND (effective_to IS NULL OR effective_to >= ?)",
				expense.ChargeTypeRecurring, to, from).
				Or("type = ? AND occurred_on >= ? AND occurred_on <= ?",
					expense.ChargeTypeOneTime, from, to),
		).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return toDomainExpenseCharges(list), nil
}

// FindByCategory finds all charges referencing a category
func (r *GormExpenseChargeRepository) FindByCategory(ctx context.Context, fleetID, categoryID uuid.UUID) ([]expense.ExpenseCharge, error) {
	var list []models.ExpenseChargeModel
	err := r.db.WithContext(ctx).
		Where("fleet_id = ? AND category_id = ?", fleetID, categoryID).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return toDomainExpenseCharges(list), nil
}

// Save creates or updates an expense charge
func (r *GormExpenseChargeRepository) Save(ctx context.Context, ec *expense.ExpenseCharge) error {
	model := models.ExpenseChargeModelFromDomain(ec)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. Rules and amounts are immutable
// on live charges; only window closing and deactivation are written.
func (r *GormExpenseChargeRepository) SaveWithLock(ctx context.Context, ec *expense.ExpenseCharge) error {
	model := models.ExpenseChargeModelFromDomain(ec)
	result := r.db.WithContext(ctx).
		Model(&models.ExpenseChargeModel{}).
		Where("id = ? AND version = ?", ec.ID, ec.Version-1).
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

func toDomainExpenseCharges(list []models.ExpenseChargeModel) []expense.ExpenseCharge {
	out := make([]expense.ExpenseCharge, len(list))
	for i := range list {
		out[i] = *list[i].ToDomain()
	}
	return out
}
