package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/taxifleet/backend/internal/domain/expense"
	"github.com/taxifleet/backend/internal/domain/rates"
	"github.com/taxifleet/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RateCacheInvalidator drops cached rate configuration for a fleet. Every
// write through RateService invalidates before returning, so resolution
// never serves a stale rate after an admin change.
type RateCacheInvalidator interface {
	InvalidateFleet(ctx context.Context, fleetID uuid.UUID) error
}

// NopInvalidator satisfies RateCacheInvalidator without a cache behind it
type NopInvalidator struct{}

// InvalidateFleet does nothing
func (NopInvalidator) InvalidateFleet(context.Context, uuid.UUID) error { return nil }

// RateService handles the administration of base rates and overrides:
// creation, window closing, deactivation, and resolution previews for
// diagnosing configuration before statements are built against it.
type RateService struct {
	catalog   *rates.Catalog
	defs      rates.RateDefinitionRepository
	overrides rates.RateOverrideRepository
	resolver  *rates.Resolver
	targets   *expense.TargetResolver
	cache     RateCacheInvalidator
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewRateService creates a new RateService
func NewRateService(
	catalog *rates.Catalog,
	defs rates.RateDefinitionRepository,
	overrides rates.RateOverrideRepository,
	resolver *rates.Resolver,
	targets *expense.TargetResolver,
	cache RateCacheInvalidator,
	logger *zap.Logger,
) *RateService {
	if cache == nil {
		cache = NopInvalidator{}
	}
	return &RateService{
		catalog:   catalog,
		defs:      defs,
		overrides: overrides,
		resolver:  resolver,
		targets:   targets,
		cache:     cache,
		validate:  validator.New(),
		logger:    logger,
	}
}

// CreateRate creates a new base rate definition. The catalog rejects any
// effective window intersecting an existing active window for the name.
func (s *RateService) CreateRate(ctx context.Context, req CreateRateRequest) (*RateResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	rd, err := rates.NewRateDefinition(req.FleetID, req.Name, req.UnitType, req.Value,
		req.ChargedTo, req.Cadence, req.EffectiveFrom, req.EffectiveTo)
	if err != nil {
		return nil, err
	}

	if err := s.catalog.CreateRate(ctx, rd); err != nil {
		return nil, err
	}
	s.invalidate(ctx, req.FleetID)

	s.logger.Info("Rate definition created",
		zap.String("rate_id", rd.ID.String()),
		zap.String("name", rd.Name),
		zap.String("value", rd.Value.String()))
	rd.ClearDomainEvents()

	return toRateResponse(rd), nil
}

// CloseRate ends a definition's effective window. Statements already built
// against the rate keep their amounts; future resolutions stop seeing it.
func (s *RateService) CloseRate(ctx context.Context, fleetID, rateID uuid.UUID, endDate time.Time) (*RateResponse, error) {
	rd, err := s.catalog.CloseRate(ctx, fleetID, rateID, endDate)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeRateNotFound,
				fmt.Sprintf("Rate %s not found", rateID))
		}
		return nil, err
	}
	s.invalidate(ctx, fleetID)

	s.logger.Info("Rate window closed",
		zap.String("rate_id", rd.ID.String()),
		zap.Time("effective_to", endDate))
	rd.ClearDomainEvents()

	return toRateResponse(rd), nil
}

// CreateOverride creates a scoped override on an existing rate definition.
// Two active overrides with the same scope may not have intersecting
// windows; ambiguity between different scopes is resolved by priority.
func (s *RateService) CreateOverride(ctx context.Context, req CreateOverrideRequest) (*OverrideResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	if _, err := s.defs.FindByIDForFleet(ctx, req.FleetID, req.RateID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeRateNotFound,
				fmt.Sprintf("Rate %s not found", req.RateID))
		}
		return nil, err
	}

	scope := rates.OverrideScope{
		OwnerID:   req.OwnerID,
		CabID:     req.CabID,
		ShiftType: req.ShiftType,
		DayOfWeek: req.DayOfWeek,
	}

	ro, err := rates.NewRateOverride(req.FleetID, req.RateID, scope, req.Value, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	existing, err := s.overrides.FindAllForRate(ctx, req.FleetID, req.RateID)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if !existing[i].Active || existing[i].Scope.String() != scope.String() {
			continue
		}
		if windowsOverlap(existing[i].StartDate, existing[i].EndDate, req.StartDate, req.EndDate) {
			return nil, shared.NewDomainError(shared.CodeRateWindowOverlap,
				fmt.Sprintf("Override scope %s window starting %s overlaps existing window starting %s",
					scope, req.StartDate.Format("2006-01-02"), existing[i].StartDate.Format("2006-01-02")))
		}
	}

	if err := s.overrides.Save(ctx, ro); err != nil {
		return nil, err
	}
	s.invalidate(ctx, req.FleetID)

	s.logger.Info("Rate override created",
		zap.String("override_id", ro.ID.String()),
		zap.String("rate_id", req.RateID.String()),
		zap.String("scope", scope.String()),
		zap.Int("priority", scope.Priority()))
	ro.ClearDomainEvents()

	return toOverrideResponse(ro), nil
}

// CloseOverride ends an override's window on the given date
func (s *RateService) CloseOverride(ctx context.Context, fleetID, overrideID uuid.UUID, endDate time.Time) (*OverrideResponse, error) {
	ro, err := s.findOverride(ctx, fleetID, overrideID)
	if err != nil {
		return nil, err
	}
	if err := ro.CloseWindow(endDate); err != nil {
		return nil, err
	}
	if err := s.overrides.SaveWithLock(ctx, ro); err != nil {
		return nil, err
	}
	s.invalidate(ctx, fleetID)

	s.logger.Info("Rate override window closed",
		zap.String("override_id", overrideID.String()),
		zap.Time("end_date", endDate))
	ro.ClearDomainEvents()

	return toOverrideResponse(ro), nil
}

// DeactivateOverride removes an override from resolution immediately
func (s *RateService) DeactivateOverride(ctx context.Context, fleetID, overrideID uuid.UUID) (*OverrideResponse, error) {
	ro, err := s.findOverride(ctx, fleetID, overrideID)
	if err != nil {
		return nil, err
	}
	if err := ro.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.overrides.SaveWithLock(ctx, ro); err != nil {
		return nil, err
	}
	s.invalidate(ctx, fleetID)

	s.logger.Info("Rate override deactivated", zap.String("override_id", overrideID.String()))
	ro.ClearDomainEvents()

	return toOverrideResponse(ro), nil
}

// PreviewResolution runs the resolver for a query without building
// anything, so an admin can verify which rate a shift would be billed at
func (s *RateService) PreviewResolution(ctx context.Context, fleetID uuid.UUID, q rates.ResolutionQuery) (*ResolutionPreview, error) {
	resolved, err := s.resolver.Resolve(ctx, fleetID, q)
	if err != nil {
		return nil, err
	}
	return &ResolutionPreview{
		RateID:     resolved.Definition.ID,
		RateName:   resolved.Definition.Name,
		Value:      resolved.Value,
		Source:     string(resolved.Source),
		OverrideID: resolved.OverrideID,
		Priority:   resolved.Priority,
	}, nil
}

// PreviewTargets reports how many entities an application rule would hit
// on a date, with a bounded sample for inspection
func (s *RateService) PreviewTargets(ctx context.Context, fleetID uuid.UUID, rule expense.ApplicationRule, asOfDate time.Time, limit int) (*expense.TargetPreview, error) {
	return s.targets.PreviewTargets(ctx, fleetID, rule, asOfDate, limit)
}

func (s *RateService) findOverride(ctx context.Context, fleetID, overrideID uuid.UUID) (*rates.RateOverride, error) {
	ro, err := s.overrides.FindByIDForFleet(ctx, fleetID, overrideID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeRateNotFound,
				fmt.Sprintf("Override %s not found", overrideID))
		}
		return nil, err
	}
	return ro, nil
}

// invalidate is best-effort: a failed invalidation is logged, not
// propagated, because cached entries expire on their own TTL anyway
func (s *RateService) invalidate(ctx context.Context, fleetID uuid.UUID) {
	if err := s.cache.InvalidateFleet(ctx, fleetID); err != nil {
		s.logger.Warn("Rate cache invalidation failed",
			zap.String("fleet_id", fleetID.String()),
			zap.Error(err))
	}
}

func windowsOverlap(aFrom time.Time, aTo *time.Time, bFrom time.Time, bTo *time.Time) bool {
	if aTo != nil && aTo.Before(bFrom) {
		return false
	}
	if bTo != nil && bTo.Before(aFrom) {
		return false
	}
	return true
}
