package expense

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/taxifleet/backend/internal/domain/masterdata"
	"github.com/taxifleet/backend/internal/domain/rates"
	"github.com/taxifleet/backend/internal/domain/shared"
)

// TargetType identifies the kind of entity an application rule resolved to
type TargetType string

const (
	TargetPerson TargetType = "PERSON"
	TargetShift  TargetType = "SHIFT"
)

// TargetEntity is one concrete billing target produced by expanding an
// application rule on a given date. Shift targets carry the owner and
// driver so the calculator can pick the billed party without a second
// lookup; person targets carry the person ID alone.
type TargetEntity struct {
	Type     TargetType
	ID       uuid.UUID
	OwnerID  uuid.UUID  // shift targets only
	DriverID *uuid.UUID // shift targets only, nil when the shift is unmanned
}

// BilledPerson returns the person a charge against this target bills,
// given which side of the lease the charge falls on. Returns false for
// a driver-side charge on a shift with no assigned driver.
func (te TargetEntity) BilledPerson(chargedTo rates.ChargedTo) (uuid.UUID, bool) {
	if te.Type == TargetPerson {
		return te.ID, true
	}
	switch chargedTo {
	case rates.ChargedToOwner:
		return te.OwnerID, true
	case rates.ChargedToDriver:
		if te.DriverID != nil {
			return *te.DriverID, true
		}
	}
	return uuid.Nil, false
}

func personTarget(p masterdata.Person) TargetEntity {
	return TargetEntity{Type: TargetPerson, ID: p.ID}
}

func shiftTarget(s masterdata.Shift) TargetEntity {
	return TargetEntity{Type: TargetShift, ID: s.ID, OwnerID: s.OwnerID, DriverID: s.DriverID}
}

// TargetPreview summarizes a rule expansion without billing anything
type TargetPreview struct {
	Total  int
	Sample []TargetEntity
}

// TargetResolver expands application rules into concrete target sets.
// Resolution is read-only and deterministic: the same rule, date and
// master data always produce the same targets in the same order.
type TargetResolver struct {
	persons    masterdata.PersonReader
	shifts     masterdata.ShiftReader
	attributes masterdata.AttributeReader
}

// NewTargetResolver creates a new TargetResolver
func NewTargetResolver(
	persons masterdata.PersonReader,
	shifts masterdata.ShiftReader,
	attributes masterdata.AttributeReader,
) *TargetResolver {
	return &TargetResolver{
		persons:    persons,
		shifts:     shifts,
		attributes: attributes,
	}
}

// ResolveTargets expands the rule into the entities it applies to as of
// the given date. A dangling specific-shift or specific-person reference
// is surfaced as a TARGET_NOT_FOUND domain error, never swallowed; the
// roster variants simply return an empty set when nothing matches.
func (tr *TargetResolver) ResolveTargets(ctx context.Context, fleetID uuid.UUID, rule ApplicationRule, asOfDate time.Time) ([]TargetEntity, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	var (
		targets []TargetEntity
		err     error
	)

	switch rule.Kind() {
	case RuleShiftProfile:
		targets, err = tr.resolveShiftProfile(ctx, fleetID, rule.Ref(), asOfDate)
	case RuleSpecificShift:
		targets, err = tr.resolveSpecificShift(ctx, fleetID, rule.Ref(), asOfDate)
	case RuleSpecificPerson:
		targets, err = tr.resolveSpecificPerson(ctx, fleetID, rule.Ref())
	case RuleAllOwners:
		targets, err = tr.resolveRole(ctx, fleetID, masterdata.RoleOwner)
	case RuleAllDrivers:
		targets, err = tr.resolveRole(ctx, fleetID, masterdata.RoleDriver)
	case RuleAllActiveShifts:
		targets, err = tr.resolveActiveShifts(ctx, fleetID, asOfDate)
	case RuleShiftsWithAttribute:
		targets, err = tr.resolveShiftsWithAttribute(ctx, fleetID, rule.Ref(), asOfDate)
	default:
		return nil, shared.NewDomainError(shared.CodeInvalidApplicationRule, fmt.Sprintf("Unknown application rule kind %q", rule.Kind()))
	}
	if err != nil {
		return nil, err
	}

	sortTargets(targets)
	return targets, nil
}

// PreviewTargets expands the rule and returns the target count plus at
// most limit sample entries, for dry-running a charge before saving it
func (tr *TargetResolver) PreviewTargets(ctx context.Context, fleetID uuid.UUID, rule ApplicationRule, asOfDate time.Time, limit int) (*TargetPreview, error) {
	targets, err := tr.ResolveTargets(ctx, fleetID, rule, asOfDate)
	if err != nil {
		return nil, err
	}

	sample := targets
	if limit >= 0 && len(sample) > limit {
		sample = sample[:limit]
	}
	return &TargetPreview{Total: len(targets), Sample: sample}, nil
}

func (tr *TargetResolver) resolveShiftProfile(ctx context.Context, fleetID, profileID uuid.UUID, asOfDate time.Time) ([]TargetEntity, error) {
	shifts, err := tr.shifts.ShiftsByProfile(ctx, fleetID, profileID)
	if err != nil {
		return nil, err
	}

	targets := make([]TargetEntity, 0, len(shifts))
	for _, s := range shifts {
		if s.IsActiveOn(asOfDate) {
			targets = append(targets, shiftTarget(s))
		}
	}
	return targets, nil
}

func (tr *TargetResolver) resolveSpecificShift(ctx context.Context, fleetID, shiftID uuid.UUID, asOfDate time.Time) ([]TargetEntity, error) {
	s, err := tr.shifts.FindShift(ctx, fleetID, shiftID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeTargetNotFound, fmt.Sprintf("Shift %s referenced by charge rule does not exist", shiftID))
		}
		return nil, err
	}
	if !s.IsActiveOn(asOfDate) {
		return nil, shared.NewDomainError(shared.CodeTargetNotFound,
			fmt.Sprintf("Shift %s referenced by charge rule is not active on %s", shiftID, asOfDate.Format("2006-01-02")))
	}
	return []TargetEntity{shiftTarget(*s)}, nil
}

func (tr *TargetResolver) resolveSpecificPerson(ctx context.Context, fleetID, personID uuid.UUID) ([]TargetEntity, error) {
	p, err := tr.persons.FindPerson(ctx, fleetID, personID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeTargetNotFound, fmt.Sprintf("Person %s referenced by charge rule does not exist", personID))
		}
		return nil, err
	}
	if !p.Active {
		return nil, shared.NewDomainError(shared.CodeTargetNotFound, fmt.Sprintf("Person %s referenced by charge rule is inactive", personID))
	}
	return []TargetEntity{personTarget(*p)}, nil
}

func (tr *TargetResolver) resolveRole(ctx context.Context, fleetID uuid.UUID, role masterdata.PersonRole) ([]TargetEntity, error) {
	persons, err := tr.persons.ActivePersonsByRole(ctx, fleetID, role)
	if err != nil {
		return nil, err
	}

	targets := make([]TargetEntity, 0, len(persons))
	for _, p := range persons {
		targets = append(targets, personTarget(p))
	}
	return targets, nil
}

func (tr *TargetResolver) resolveActiveShifts(ctx context.Context, fleetID uuid.UUID, asOfDate time.Time) ([]TargetEntity, error) {
	shifts, err := tr.shifts.ActiveShiftsOn(ctx, fleetID, asOfDate)
	if err != nil {
		return nil, err
	}

	targets := make([]TargetEntity, 0, len(shifts))
	for _, s := range shifts {
		targets = append(targets, shiftTarget(s))
	}
	return targets, nil
}

func (tr *TargetResolver) resolveShiftsWithAttribute(ctx context.Context, fleetID, attributeTypeID uuid.UUID, asOfDate time.Time) ([]TargetEntity, error) {
	shifts, err := tr.attributes.ShiftsWithAttributeOn(ctx, fleetID, attributeTypeID, asOfDate)
	if err != nil {
		return nil, err
	}

	targets := make([]TargetEntity, 0, len(shifts))
	for _, s := range shifts {
		if s.IsActiveOn(asOfDate) {
			targets = append(targets, shiftTarget(s))
		}
	}
	return targets, nil
}

// sortTargets orders targets by type then ID so repeated resolution
// always yields the same slice regardless of reader ordering
func sortTargets(targets []TargetEntity) {
	sort.Slice(targets, func(i, j int) bool {
		if targets[i].Type != targets[j].Type {
			return targets[i].Type < targets[j].Type
		}
		return targets[i].ID.String() < targets[j].ID.String()
	})
}
