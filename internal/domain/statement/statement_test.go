package statement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxifleet/backend/internal/domain/masterdata"
	"github.com/taxifleet/backend/internal/domain/shared"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return d
}

func createDraft(t *testing.T, previousBalance string) *Statement {
	t.Helper()
	s, err := NewStatement(uuid.New(), uuid.New(), masterdata.RoleOwner,
		date(2024, 3, 1), date(2024, 3, 31), dec(t, previousBalance))
	require.NoError(t, err)
	return s
}

func withItems(t *testing.T, s *Statement, expense, revenue string) *Statement {
	t.Helper()
	items := LineItems{
		NewLineItem(LineItemRecurringExpense, "workers comp insurance", date(2024, 3, 1), dec(t, expense)),
		NewLineItem(LineItemRevenue, "credit card trips", date(2024, 3, 15), dec(t, revenue)),
	}
	require.NoError(t, s.ReplaceLineItems(items))
	return s
}

func lockedStatement(t *testing.T, previousBalance, expense, revenue string) *Statement {
	t.Helper()
	s := withItems(t, createDraft(t, previousBalance), expense, revenue)
	admin := uuid.New()
	require.NoError(t, s.Post(admin))
	require.NoError(t, s.Lock(admin))
	return s
}

func pendingPayment(t *testing.T, amount string) *Payment {
	t.Helper()
	p, err := NewPayment(dec(t, amount), date(2024, 4, 5), PaymentMethodCheck, "chk-1042")
	require.NoError(t, err)
	return p
}

func TestNewStatement(t *testing.T) {
	t.Run("starts as draft carrying the previous balance", func(t *testing.T) {
		s := createDraft(t, "100.00")
		assert.Equal(t, StatusDraft, s.Status)
		assert.True(t, s.NetDue.Equal(dec(t, "100.00")))
		assert.Empty(t, s.AuditLog)
	})

	t.Run("rejects inverted period", func(t *testing.T) {
		_, err := NewStatement(uuid.New(), uuid.New(), masterdata.RoleDriver,
			date(2024, 3, 31), date(2024, 3, 1), decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("rejects unknown person type", func(t *testing.T) {
		_, err := NewStatement(uuid.New(), uuid.New(), masterdata.PersonRole("DISPATCHER"),
			date(2024, 3, 1), date(2024, 3, 31), decimal.Zero)
		assert.Error(t, err)
	})
}

func TestStatement_BalanceArithmetic(t *testing.T) {
	s := lockedStatement(t, "100.00", "250.00", "180.00")
	require.NoError(t, s.ApplyPayment(pendingPayment(t, "50.00"), uuid.New()))

	assert.True(t, s.TotalExpense.Equal(dec(t, "250.00")), "expense %s", s.TotalExpense)
	assert.True(t, s.TotalRevenue.Equal(dec(t, "180.00")), "revenue %s", s.TotalRevenue)
	assert.True(t, s.PaidAmount.Equal(dec(t, "50.00")), "paid %s", s.PaidAmount)
	assert.True(t, s.NetDue.Equal(dec(t, "120.00")), "net due %s", s.NetDue)
	assert.Equal(t, StatusLocked, s.Status)
}

func TestStatement_ReplaceLineItems(t *testing.T) {
	t.Run("rebuild of a draft is idempotent", func(t *testing.T) {
		s := createDraft(t, "0")
		withItems(t, s, "250.00", "180.00")
		firstNetDue := s.NetDue

		withItems(t, s, "250.00", "180.00")
		assert.True(t, firstNetDue.Equal(s.NetDue))
		assert.Len(t, s.LineItems, 2)
	})

	t.Run("posted statement rejects mutation", func(t *testing.T) {
		s := withItems(t, createDraft(t, "0"), "250.00", "180.00")
		require.NoError(t, s.Post(uuid.New()))

		err := s.ReplaceLineItems(LineItems{})
		require.Error(t, err)
		assert.True(t, shared.IsDomainErrorCode(err, shared.CodeStatementLocked))
	})
}

func TestStatement_Post(t *testing.T) {
	admin := uuid.New()

	t.Run("posting freezes the statement and logs the transition", func(t *testing.T) {
		s := withItems(t, createDraft(t, "0"), "250.00", "180.00")
		require.NoError(t, s.Post(admin))

		assert.Equal(t, StatusPosted, s.Status)
		require.NotNil(t, s.PostedAt)
		assert.Equal(t, admin, *s.PostedBy)
		require.Len(t, s.AuditLog, 1)
		assert.Equal(t, StatusDraft, s.AuditLog[0].PreviousStatus)
		assert.Equal(t, StatusPosted, s.AuditLog[0].NewStatus)
	})

	t.Run("empty statement cannot post", func(t *testing.T) {
		assert.Error(t, createDraft(t, "0").Post(admin))
	})

	t.Run("posting twice fails", func(t *testing.T) {
		s := withItems(t, createDraft(t, "0"), "250.00", "180.00")
		require.NoError(t, s.Post(admin))
		assert.Error(t, s.Post(admin))
	})
}

func TestStatement_PaymentTransition(t *testing.T) {
	s := lockedStatement(t, "100.00", "250.00", "180.00")
	require.True(t, s.NetDue.Equal(dec(t, "170.00")))

	auditBefore := len(s.AuditLog)
	require.NoError(t, s.ApplyPayment(pendingPayment(t, "50.00"), uuid.New()))
	assert.Equal(t, StatusLocked, s.Status)

	// Settling the remaining 120 flips to PAID with exactly one new entry
	require.NoError(t, s.ApplyPayment(pendingPayment(t, "120.00"), uuid.New()))
	assert.Equal(t, StatusPaid, s.Status)
	assert.True(t, s.NetDue.IsZero(), "net due %s", s.NetDue)

	require.Len(t, s.AuditLog, auditBefore+2)
	last := s.AuditLog[len(s.AuditLog)-1]
	assert.Equal(t, ChangePaymentApplied, last.ChangeType)
	assert.Equal(t, StatusLocked, last.PreviousStatus)
	assert.Equal(t, StatusPaid, last.NewStatus)
}

func TestStatement_ApplyPaymentGuards(t *testing.T) {
	admin := uuid.New()

	t.Run("only locked statements accept payments", func(t *testing.T) {
		s := withItems(t, createDraft(t, "0"), "250.00", "180.00")
		assert.Error(t, s.ApplyPayment(pendingPayment(t, "10.00"), admin))

		require.NoError(t, s.Post(admin))
		assert.Error(t, s.ApplyPayment(pendingPayment(t, "10.00"), admin))
	})

	t.Run("already applied payment cannot be applied again", func(t *testing.T) {
		s := lockedStatement(t, "0", "250.00", "180.00")
		p := pendingPayment(t, "10.00")
		require.NoError(t, s.ApplyPayment(p, admin))
		assert.Error(t, s.ApplyPayment(p, admin))
	})
}

func TestStatement_ReversePayment(t *testing.T) {
	admin := uuid.New()

	t.Run("reversing drops a paid statement back to locked", func(t *testing.T) {
		s := lockedStatement(t, "0", "250.00", "180.00")
		p := pendingPayment(t, "70.00")
		require.NoError(t, s.ApplyPayment(p, admin))
		require.Equal(t, StatusPaid, s.Status)

		require.NoError(t, s.ReversePayment(p.ID, "check bounced", admin))
		assert.Equal(t, StatusLocked, s.Status)
		assert.True(t, s.PaidAmount.IsZero())
		assert.True(t, s.NetDue.Equal(dec(t, "70.00")))
		assert.Equal(t, PaymentStatusReversed, s.Payments[0].Status)

		last := s.AuditLog[len(s.AuditLog)-1]
		assert.Equal(t, ChangePaymentReversed, last.ChangeType)
		assert.Equal(t, "check bounced", last.Reason)
	})

	t.Run("reversed payment cannot be reversed twice", func(t *testing.T) {
		s := lockedStatement(t, "0", "250.00", "180.00")
		p := pendingPayment(t, "70.00")
		require.NoError(t, s.ApplyPayment(p, admin))
		require.NoError(t, s.ReversePayment(p.ID, "check bounced", admin))

		err := s.ReversePayment(p.ID, "again", admin)
		require.Error(t, err)
		assert.True(t, shared.IsDomainErrorCode(err, shared.CodePaymentNotCompleted))
	})

	t.Run("reason is required", func(t *testing.T) {
		s := lockedStatement(t, "0", "250.00", "180.00")
		p := pendingPayment(t, "10.00")
		require.NoError(t, s.ApplyPayment(p, admin))
		assert.Error(t, s.ReversePayment(p.ID, "", admin))
	})

	t.Run("unknown payment is surfaced", func(t *testing.T) {
		s := lockedStatement(t, "0", "250.00", "180.00")
		assert.Error(t, s.ReversePayment(uuid.New(), "check bounced", admin))
	})
}

func TestStatement_ArchiveAndCancel(t *testing.T) {
	admin := uuid.New()

	t.Run("draft, posted and locked statements can archive", func(t *testing.T) {
		draft := withItems(t, createDraft(t, "0"), "250.00", "180.00")
		require.NoError(t, draft.Archive("superseded", admin))
		assert.Equal(t, StatusArchived, draft.Status)

		locked := lockedStatement(t, "0", "250.00", "180.00")
		require.NoError(t, locked.Archive("superseded", admin))
		assert.Equal(t, StatusArchived, locked.Status)
	})

	t.Run("archive requires a reason", func(t *testing.T) {
		assert.Error(t, createDraft(t, "0").Archive("", admin))
	})

	t.Run("cancel only from draft", func(t *testing.T) {
		s := createDraft(t, "0")
		require.NoError(t, s.Cancel("duplicate run", admin))
		assert.Equal(t, StatusCancelled, s.Status)

		posted := withItems(t, createDraft(t, "0"), "250.00", "180.00")
		require.NoError(t, posted.Post(admin))
		assert.Error(t, posted.Cancel("too late", admin))
	})

	t.Run("terminal states admit nothing", func(t *testing.T) {
		s := createDraft(t, "0")
		require.NoError(t, s.Cancel("duplicate run", admin))
		assert.Error(t, s.Archive("superseded", admin))
		assert.Error(t, s.Post(admin))
	})
}

func TestStatement_NewVersion(t *testing.T) {
	t.Run("posted statement spawns a chained draft", func(t *testing.T) {
		s := withItems(t, createDraft(t, "40.00"), "250.00", "180.00")
		require.NoError(t, s.Post(uuid.New()))

		next, err := s.NewVersion()
		require.NoError(t, err)
		assert.Equal(t, StatusDraft, next.Status)
		assert.Equal(t, s.PersonID, next.PersonID)
		assert.Equal(t, s.PeriodFrom, next.PeriodFrom)
		assert.True(t, next.PreviousBalance.Equal(s.PreviousBalance))
		require.NotNil(t, next.ParentStatementID)
		assert.Equal(t, s.ID, *next.ParentStatementID)
	})

	t.Run("draft has no version to supersede", func(t *testing.T) {
		_, err := createDraft(t, "0").NewVersion()
		assert.Error(t, err)
	})
}

func TestStatement_AuditLogIsAppendOnly(t *testing.T) {
	admin := uuid.New()
	s := lockedStatement(t, "0", "250.00", "180.00")
	require.NoError(t, s.ApplyPayment(pendingPayment(t, "70.00"), admin))

	// Post, lock and payment each logged once, in order
	require.Len(t, s.AuditLog, 3)
	assert.Equal(t, ChangePosted, s.AuditLog[0].ChangeType)
	assert.Equal(t, ChangeLocked, s.AuditLog[1].ChangeType)
	assert.Equal(t, ChangePaymentApplied, s.AuditLog[2].ChangeType)
	for _, entry := range s.AuditLog {
		assert.False(t, entry.Timestamp.IsZero())
		assert.NotEqual(t, uuid.Nil, entry.ID)
	}
}

func TestLineItems_ScanValue(t *testing.T) {
	items := LineItems{
		NewLineItem(LineItemLeaseCharge, "day shift lease", date(2024, 3, 1), dec(t, "85.00")).WithShift(uuid.New()),
	}

	v, err := items.Value()
	require.NoError(t, err)

	var decoded LineItems
	require.NoError(t, decoded.Scan(v))
	require.Len(t, decoded, 1)
	assert.Equal(t, items[0].ID, decoded[0].ID)
	assert.True(t, items[0].Amount.Equal(decoded[0].Amount))

	var empty LineItems
	require.NoError(t, empty.Scan(nil))
	assert.Empty(t, empty)
}
