package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/taxifleet/backend/internal/domain/shared"
	"github.com/taxifleet/backend/internal/domain/statement"
	"github.com/taxifleet/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStatementRepository implements statement.Repository using GORM
type GormStatementRepository struct {
	db *gorm.DB
}

// NewGormStatementRepository creates a new GormStatementRepository
func NewGormStatementRepository(db *gorm.DB) *GormStatementRepository {
	return &GormStatementRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormStatementRepository) WithTx(tx *gorm.DB) *GormStatementRepository {
	return &GormStatementRepository{db: tx}
}

// FindByID finds a statement by ID
func (r *GormStatementRepository) FindByID(ctx context.Context, id uuid.UUID) (*statement.Statement, error) {
	var model models.StatementModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForFleet finds a statement by ID scoped to a fleet
func (r *GormStatementRepository) FindByIDForFleet(ctx context.Context, fleetID, id uuid.UUID) (*statement.Statement, error) {
	var model models.StatementModel
	err := r.db.WithContext(ctx).Where("id = ? AND fleet_id = ?", id, fleetID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPersonAndPeriod finds the live statement for an exact person/period
// key. Archived and cancelled versions share the key with their replacement
// and are skipped. Should a draft ever coexist with an older live row, the
// draft wins deterministically.
func (r *GormStatementRepository) FindByPersonAndPeriod(ctx context.Context, fleetID, personID uuid.UUID, periodFrom, periodTo time.Time) (*statement.Statement, error) {
	var model models.StatementModel
	err := r.db.WithContext(ctx).
		Where("fleet_id = ? AND person_id = ? AND period_from = ? AND period_to = ?", fleetID, personID, periodFrom, periodTo).
		Where("status NOT IN ?", []statement.Status{statement.StatusArchived, statement.StatusCancelled}).
		Order("status <> 'DRAFT', created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindLatestBefore finds the most recent non-archived, non-cancelled
// statement for a person ending before the date
func (r *GormStatementRepository) FindLatestBefore(ctx context.Context, fleetID, personID uuid.UUID, before time.Time) (*statement.Statement, error) {
	var model models.StatementModel
	err := r.db.WithContext(ctx).
		Where("fleet_id = ? AND person_id = ? AND period_to < ?", fleetID, personID, before).
		Where("status NOT IN ?", []statement.Status{statement.StatusArchived, statement.StatusCancelled}).
		Order("period_to DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStatus finds all statements in a status for a fleet
func (r *GormStatementRepository) FindByStatus(ctx context.Context, fleetID uuid.UUID, status statement.Status) ([]statement.Statement, error) {
	var list []models.StatementModel
	err := r.db.WithContext(ctx).
		Where("fleet_id = ? AND status = ?", fleetID, status).
		Order("period_from ASC, person_id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return toDomainStatements(list), nil
}

// FindByPerson finds all statements for a person, newest period first
func (r *GormStatementRepository) FindByPerson(ctx context.Context, fleetID, personID uuid.UUID) ([]statement.Statement, error) {
	var list []models.StatementModel
	err := r.db.WithContext(ctx).
		Where("fleet_id = ? AND person_id = ?", fleetID, personID).
		Order("period_from DESC, created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return toDomainStatements(list), nil
}

// Save creates or updates a statement
func (r *GormStatementRepository) Save(ctx context.Context, s *statement.Statement) error {
	model := models.StatementModelFromDomain(s)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. Every settlement transition
// goes through here; a stale version means another operator got there first.
func (r *GormStatementRepository) SaveWithLock(ctx context.Context, s *statement.Statement) error {
	model := models.StatementModelFromDomain(s)
	result := r.db.WithContext(ctx).
		Model(&models.StatementModel{}).
		Where("id = ? AND version = ?", s.ID, s.Version-1).
		Updates(map[string]any{
			"status":        model.Status,
			"line_items":    model.LineItems,
			"total_expense": model.TotalExpense,
			"total_revenue": model.TotalRevenue,
			"paid_amount":   model.PaidAmount,
			"net_due":       model.NetDue,
			"posted_at":     model.PostedAt,
			"posted_by":     model.PostedBy,
			"locked_at":     model.LockedAt,
			"locked_by":     model.LockedBy,
			"payments":      model.Payments,
			"audit_log":     model.AuditLog,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

// Supersede archives the parent and inserts its replacement draft in one
// transaction. The partial unique index on the live period key admits the
// child only once the parent row is terminal, so the two writes must
// commit together.
func (r *GormStatementRepository) Supersede(ctx context.Context, parent, child *statement.Statement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.WithTx(tx).SaveWithLock(ctx, parent); err != nil {
			return err
		}
		return tx.Create(models.StatementModelFromDomain(child)).Error
	})
}

func toDomainStatements(list []models.StatementModel) []statement.Statement {
	out := make([]statement.Statement, len(list))
	for i := range list {
		out[i] = *list[i].ToDomain()
	}
	return out
}
