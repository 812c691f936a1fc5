package expense

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/taxifleet/backend/internal/domain/shared"
)

// RuleKind discriminates the application rule variants
type RuleKind string

const (
	RuleShiftProfile        RuleKind = "SHIFT_PROFILE"
	RuleSpecificShift       RuleKind = "SPECIFIC_SHIFT"
	RuleSpecificPerson      RuleKind = "SPECIFIC_PERSON"
	RuleAllOwners           RuleKind = "ALL_OWNERS"
	RuleAllDrivers          RuleKind = "ALL_DRIVERS"
	RuleAllActiveShifts     RuleKind = "ALL_ACTIVE_SHIFTS"
	RuleShiftsWithAttribute RuleKind = "SHIFTS_WITH_ATTRIBUTE"
)

// IsValid checks if the kind is a valid RuleKind
func (k RuleKind) IsValid() bool {
	switch k {
	case RuleShiftProfile, RuleSpecificShift, RuleSpecificPerson,
		RuleAllOwners, RuleAllDrivers, RuleAllActiveShifts, RuleShiftsWithAttribute:
		return true
	}
	return false
}

// String returns the string representation of RuleKind
func (k RuleKind) String() string {
	return string(k)
}

// requiresRef reports whether the variant carries a referenced entity ID
func (k RuleKind) requiresRef() bool {
	switch k {
	case RuleShiftProfile, RuleSpecificShift, RuleSpecificPerson, RuleShiftsWithAttribute:
		return true
	}
	return false
}

// ApplicationRule is a tagged variant selecting the entities an expense
// charge applies to. Exactly one variant is active per rule and the variant
// determines which reference is mandatory; this is enforced by the
// constructors, so a rule that validates cannot be half-configured. The zero
// value is invalid. Rules are immutable once attached to a live charge.
type ApplicationRule struct {
	kind RuleKind
	ref  uuid.UUID
}

// NewShiftProfileRule targets all shifts assigned the given profile
func NewShiftProfileRule(profileID uuid.UUID) (ApplicationRule, error) {
	if profileID == uuid.Nil {
		return ApplicationRule{}, shared.NewDomainError(shared.CodeInvalidApplicationRule, "Shift-profile rule requires a profile ID")
	}
	return ApplicationRule{kind: RuleShiftProfile, ref: profileID}, nil
}

// NewSpecificShiftRule targets a single shift
func NewSpecificShiftRule(shiftID uuid.UUID) (ApplicationRule, error) {
	if shiftID == uuid.Nil {
		return ApplicationRule{}, shared.NewDomainError(shared.CodeInvalidApplicationRule, "Specific-shift rule requires a shift ID")
	}
	return ApplicationRule{kind: RuleSpecificShift, ref: shiftID}, nil
}

// NewSpecificPersonRule targets a single person
func NewSpecificPersonRule(personID uuid.UUID) (ApplicationRule, error) {
	if personID == uuid.Nil {
		return ApplicationRule{}, shared.NewDomainError(shared.CodeInvalidApplicationRule, "Specific-person rule requires a person ID")
	}
	return ApplicationRule{kind: RuleSpecificPerson, ref: personID}, nil
}

// NewAllOwnersRule targets the full active owner roster
func NewAllOwnersRule() ApplicationRule {
	return ApplicationRule{kind: RuleAllOwners}
}

// NewAllDriversRule targets the full active driver roster
func NewAllDriversRule() ApplicationRule {
	return ApplicationRule{kind: RuleAllDrivers}
}

// NewAllActiveShiftsRule targets every shift active on the resolution date
func NewAllActiveShiftsRule() ApplicationRule {
	return ApplicationRule{kind: RuleAllActiveShifts}
}

// NewShiftsWithAttributeRule targets shifts with a current value record for
// the attribute type
func NewShiftsWithAttributeRule(attributeTypeID uuid.UUID) (ApplicationRule, error) {
	if attributeTypeID == uuid.Nil {
		return ApplicationRule{}, shared.NewDomainError(shared.CodeInvalidApplicationRule, "Attribute rule requires an attribute type ID")
	}
	return ApplicationRule{kind: RuleShiftsWithAttribute, ref: attributeTypeID}, nil
}

// Kind returns the active variant
func (r ApplicationRule) Kind() RuleKind {
	return r.kind
}

// Ref returns the referenced entity ID for variants that carry one
// (profile, shift, person or attribute type, depending on Kind)
func (r ApplicationRule) Ref() uuid.UUID {
	return r.ref
}

// IsZero reports whether the rule was never constructed
func (r ApplicationRule) IsZero() bool {
	return r.kind == ""
}

// Validate checks the rule's internal consistency. Constructed rules always
// pass; this guards values rehydrated from storage or JSON.
func (r ApplicationRule) Validate() error {
	if !r.kind.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidApplicationRule, fmt.Sprintf("Unknown application rule kind %q", r.kind))
	}
	if r.kind.requiresRef() && r.ref == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidApplicationRule, fmt.Sprintf("Application rule %s requires a reference ID", r.kind))
	}
	if !r.kind.requiresRef() && r.ref != uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidApplicationRule, fmt.Sprintf("Application rule %s must not carry a reference ID", r.kind))
	}
	return nil
}

// String renders the rule for logs and error messages
func (r ApplicationRule) String() string {
	if r.kind.requiresRef() {
		return fmt.Sprintf("%s(%s)", r.kind, r.ref)
	}
	return string(r.kind)
}

type ruleJSON struct {
	Kind RuleKind   `json:"kind"`
	Ref  *uuid.UUID `json:"ref,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (r ApplicationRule) MarshalJSON() ([]byte, error) {
	out := ruleJSON{Kind: r.kind}
	if r.ref != uuid.Nil {
		ref := r.ref
		out.Ref = &ref
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler and re-validates the variant
func (r *ApplicationRule) UnmarshalJSON(data []byte) error {
	var in ruleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	rule := ApplicationRule{kind: in.Kind}
	if in.Ref != nil {
		rule.ref = *in.Ref
	}
	if err := rule.Validate(); err != nil {
		return err
	}
	*r = rule
	return nil
}

// Value implements driver.Valuer for JSONB storage
func (r ApplicationRule) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB retrieval
func (r *ApplicationRule) Scan(value interface{}) error {
	if value == nil {
		return errors.New("application rule cannot be null")
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan ApplicationRule: unsupported type")
	}

	return json.Unmarshal(bytes, r)
}
