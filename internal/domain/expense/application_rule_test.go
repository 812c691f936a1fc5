package expense

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxifleet/backend/internal/domain/shared"
)

func TestApplicationRule_Constructors(t *testing.T) {
	ref := uuid.New()

	t.Run("referencing variants require a ref", func(t *testing.T) {
		for name, build := range map[string]func(uuid.UUID) (ApplicationRule, error){
			"shift profile":   NewShiftProfileRule,
			"specific shift":  NewSpecificShiftRule,
			"specific person": NewSpecificPersonRule,
			"attribute":       NewShiftsWithAttributeRule,
		} {
			t.Run(name, func(t *testing.T) {
				rule, err := build(ref)
				require.NoError(t, err)
				assert.Equal(t, ref, rule.Ref())
				assert.NoError(t, rule.Validate())

				_, err = build(uuid.Nil)
				require.Error(t, err)
				assert.True(t, shared.IsDomainErrorCode(err, shared.CodeInvalidApplicationRule))
			})
		}
	})

	t.Run("roster variants carry no ref", func(t *testing.T) {
		for _, rule := range []ApplicationRule{NewAllOwnersRule(), NewAllDriversRule(), NewAllActiveShiftsRule()} {
			assert.NoError(t, rule.Validate())
			assert.Equal(t, uuid.Nil, rule.Ref())
		}
	})

	t.Run("zero value is invalid", func(t *testing.T) {
		var rule ApplicationRule
		assert.True(t, rule.IsZero())
		assert.Error(t, rule.Validate())
	})
}

func TestApplicationRule_JSONRoundTrip(t *testing.T) {
	ref := uuid.New()
	withRef, err := NewSpecificShiftRule(ref)
	require.NoError(t, err)

	for _, rule := range []ApplicationRule{withRef, NewAllDriversRule()} {
		data, err := json.Marshal(rule)
		require.NoError(t, err)

		var decoded ApplicationRule
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, rule.Kind(), decoded.Kind())
		assert.Equal(t, rule.Ref(), decoded.Ref())
	}
}

func TestApplicationRule_UnmarshalRevalidates(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown kind", `{"kind":"EVERYONE"}`},
		{"missing ref", `{"kind":"SPECIFIC_SHIFT"}`},
		{"ref on roster variant", `{"kind":"ALL_OWNERS","ref":"7a9db5c1-9d0a-4f2b-8c6e-b1a2c3d4e5f6"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rule ApplicationRule
			err := json.Unmarshal([]byte(tt.data), &rule)
			require.Error(t, err)
			assert.True(t, shared.IsDomainErrorCode(err, shared.CodeInvalidApplicationRule))
		})
	}
}

func TestApplicationRule_ScanValue(t *testing.T) {
	rule, err := NewShiftProfileRule(uuid.New())
	require.NoError(t, err)

	v, err := rule.Value()
	require.NoError(t, err)

	var fromBytes ApplicationRule
	require.NoError(t, fromBytes.Scan(v))
	assert.Equal(t, rule.Kind(), fromBytes.Kind())
	assert.Equal(t, rule.Ref(), fromBytes.Ref())

	var fromString ApplicationRule
	require.NoError(t, fromString.Scan(string(v.([]byte))))
	assert.Equal(t, rule.Ref(), fromString.Ref())

	var bad ApplicationRule
	assert.Error(t, bad.Scan(nil))
	assert.Error(t, bad.Scan(42))
}
