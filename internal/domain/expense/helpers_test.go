package expense

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/taxifleet/backend/internal/domain/rates"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := date(year, month, day)
	return &d
}

func amount(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return d
}

func createRecurringCharge(t *testing.T, rule ApplicationRule, value string, cadence rates.BillingCadence, from time.Time, to *time.Time) *ExpenseCharge {
	t.Helper()
	ec, err := NewRecurringCharge(uuid.New(), uuid.New(), "workers comp insurance", rule,
		rates.ChargedToDriver, amount(t, value), cadence, from, to)
	require.NoError(t, err)
	return ec
}

func createOneTimeCharge(t *testing.T, rule ApplicationRule, value string, occurredOn time.Time) *ExpenseCharge {
	t.Helper()
	ec, err := NewOneTimeCharge(uuid.New(), uuid.New(), "windshield replacement", rule,
		rates.ChargedToOwner, amount(t, value), occurredOn)
	require.NoError(t, err)
	return ec
}
