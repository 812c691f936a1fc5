package billing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/taxifleet/backend/internal/domain/billing"
	"github.com/taxifleet/backend/internal/domain/masterdata"
	"github.com/taxifleet/backend/internal/domain/shared"
	"github.com/taxifleet/backend/internal/domain/statement"
	"go.uber.org/zap"
)

const defaultBatchWorkers = 4

// keyedMutex serializes work per string key. Entries are kept for the
// lifetime of the service; the key space is bounded by the roster times
// the periods billed in one process lifetime.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for the key and returns its unlock function
func (km *keyedMutex) Lock(key string) func() {
	km.mu.Lock()
	m, ok := km.locks[key]
	if !ok {
		m = &sync.Mutex{}
		km.locks[key] = m
	}
	km.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// StatementService orchestrates statement generation and settlement. Builds
// for the same (person, period) key are serialized through a keyed mutex;
// the repository's unique index on that key backstops concurrent processes.
// All settlement transitions persist through SaveWithLock so a stale
// aggregate version fails instead of overwriting a concurrent change.
type StatementService struct {
	builder    *billing.StatementBuilder
	statements statement.Repository
	persons    masterdata.PersonReader
	buildLocks *keyedMutex
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewStatementService creates a new StatementService
func NewStatementService(
	builder *billing.StatementBuilder,
	statements statement.Repository,
	persons masterdata.PersonReader,
	logger *zap.Logger,
) *StatementService {
	return &StatementService{
		builder:    builder,
		statements: statements,
		persons:    persons,
		buildLocks: newKeyedMutex(),
		validate:   validator.New(),
		logger:     logger,
	}
}

// Generate builds and persists the DRAFT statement for one person and
// period. Rebuilding an existing draft replaces its line items in place.
func (s *StatementService) Generate(ctx context.Context, req GenerateStatementRequest) (*StatementResponse, error) {
	if err := s.validateGenerate(req); err != nil {
		return nil, err
	}

	unlock := s.buildLocks.Lock(buildKey(req.FleetID, req.PersonID, req.PeriodFrom, req.PeriodTo))
	defer unlock()

	stmt, err := s.builder.Build(ctx, req.FleetID, req.PersonID, req.PeriodFrom, req.PeriodTo,
		billing.BuildOptions{
			AllowFirstStatement: req.AllowFirstStatement,
			BaseRateName:        req.BaseRateName,
			PerUnitRateName:     req.PerUnitRateName,
		})
	if err != nil {
		return nil, err
	}

	if err := s.statements.Save(ctx, stmt); err != nil {
		return nil, err
	}

	s.logger.Info("Statement generated",
		zap.String("statement_id", stmt.ID.String()),
		zap.String("person_id", req.PersonID.String()),
		zap.String("period_from", req.PeriodFrom.Format("2006-01-02")),
		zap.String("period_to", req.PeriodTo.Format("2006-01-02")),
		zap.Int("line_items", len(stmt.LineItems)),
		zap.String("net_due", stmt.NetDue.String()))
	stmt.ClearDomainEvents()

	return toStatementResponse(stmt), nil
}

// Preview computes the statement for one person and period without
// persisting anything, so operators can inspect the effect of rate and
// expense configuration before a real run.
func (s *StatementService) Preview(ctx context.Context, req GenerateStatementRequest) (*StatementResponse, error) {
	if err := s.validateGenerate(req); err != nil {
		return nil, err
	}

	stmt, err := s.builder.Build(ctx, req.FleetID, req.PersonID, req.PeriodFrom, req.PeriodTo,
		billing.BuildOptions{
			AllowFirstStatement: req.AllowFirstStatement,
			BaseRateName:        req.BaseRateName,
			PerUnitRateName:     req.PerUnitRateName,
		})
	if err != nil {
		return nil, err
	}
	stmt.ClearDomainEvents()

	return toStatementResponse(stmt), nil
}

func (s *StatementService) validateGenerate(req GenerateStatementRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return shared.NewDomainError("INVALID_INPUT", err.Error())
	}
	if req.PeriodTo.Before(req.PeriodFrom) {
		return shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Period end %s precedes period start %s",
				req.PeriodTo.Format("2006-01-02"), req.PeriodFrom.Format("2006-01-02")))
	}
	return nil
}

// GenerateBatch builds statements for a roster with a bounded worker pool.
// One person's failure never aborts the run; failures accumulate into the
// result and the returned error carries DATA_INCONSISTENCY when any build
// failed, so callers can both act on the partial result and flag the run.
func (s *StatementService) GenerateBatch(ctx context.Context, req GenerateBatchRequest) (*BatchResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	personIDs := req.PersonIDs
	if len(personIDs) == 0 {
		var err error
		personIDs, err = s.activeRoster(ctx, req.FleetID)
		if err != nil {
			return nil, err
		}
	}

	workers := req.Workers
	if workers <= 0 {
		workers = defaultBatchWorkers
	}
	if workers > len(personIDs) {
		workers = len(personIDs)
	}

	var (
		mu     sync.Mutex
		result BatchResult
		wg     sync.WaitGroup
		queue  = make(chan uuid.UUID)
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for personID := range queue {
				_, err := s.Generate(ctx, GenerateStatementRequest{
					FleetID:             req.FleetID,
					PersonID:            personID,
					PeriodFrom:          req.PeriodFrom,
					PeriodTo:            req.PeriodTo,
					AllowFirstStatement: req.AllowFirstStatement,
				})

				mu.Lock()
				if err != nil {
					result.FailureCount++
					result.Errors = append(result.Errors, toBatchError(personID, err))
				} else {
					result.SuccessCount++
				}
				mu.Unlock()
			}
		}()
	}

	for _, personID := range personIDs {
		queue <- personID
	}
	close(queue)
	wg.Wait()

	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].PersonID.String() < result.Errors[j].PersonID.String()
	})

	s.logger.Info("Batch generation finished",
		zap.String("fleet_id", req.FleetID.String()),
		zap.Int("success", result.SuccessCount),
		zap.Int("failure", result.FailureCount))

	if result.FailureCount > 0 {
		return &result, shared.NewDomainError(shared.CodeDataInconsistency,
			fmt.Sprintf("%d of %d statement builds failed", result.FailureCount, len(personIDs)))
	}
	return &result, nil
}

// Post freezes the statement's line items and opens it for payment
func (s *StatementService) Post(ctx context.Context, fleetID, statementID, operatorID uuid.UUID) (*StatementResponse, error) {
	return s.transition(ctx, fleetID, statementID, "posted", func(stmt *statement.Statement) error {
		return stmt.Post(operatorID)
	})
}

// Lock marks a posted statement ready for payment application
func (s *StatementService) Lock(ctx context.Context, fleetID, statementID, operatorID uuid.UUID) (*StatementResponse, error) {
	return s.transition(ctx, fleetID, statementID, "locked", func(stmt *statement.Statement) error {
		return stmt.Lock(operatorID)
	})
}

// ApplyPayment records a payment against a locked statement. The paid
// amount, status change and audit entry persist atomically through the
// aggregate's version check.
func (s *StatementService) ApplyPayment(ctx context.Context, req ApplyPaymentRequest) (*StatementResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	payment, err := statement.NewPayment(req.Amount, req.PaymentDate, req.Method, req.Reference)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, req.FleetID, req.StatementID, "payment applied", func(stmt *statement.Statement) error {
		return stmt.ApplyPayment(payment, req.OperatorID)
	})
}

// ReversePayment backs out a completed payment, for example a bounced
// check, returning a PAID statement to LOCKED
func (s *StatementService) ReversePayment(ctx context.Context, fleetID, statementID, paymentID uuid.UUID, reason string, operatorID uuid.UUID) (*StatementResponse, error) {
	return s.transition(ctx, fleetID, statementID, "payment reversed", func(stmt *statement.Statement) error {
		return stmt.ReversePayment(paymentID, reason, operatorID)
	})
}

// Archive retires a statement while preserving it for audit
func (s *StatementService) Archive(ctx context.Context, fleetID, statementID uuid.UUID, reason string, operatorID uuid.UUID) (*StatementResponse, error) {
	return s.transition(ctx, fleetID, statementID, "archived", func(stmt *statement.Statement) error {
		return stmt.Archive(reason, operatorID)
	})
}

// Cancel voids a statement that was never posted
func (s *StatementService) Cancel(ctx context.Context, fleetID, statementID uuid.UUID, reason string, operatorID uuid.UUID) (*StatementResponse, error) {
	return s.transition(ctx, fleetID, statementID, "cancelled", func(stmt *statement.Statement) error {
		return stmt.Cancel(reason, operatorID)
	})
}

// NewVersion supersedes a posted or locked statement: the parent archives
// with the given reason and a fresh DRAFT chained through the parent
// statement id takes over the period. Both rows persist in one
// transaction; the period key admits only one live statement.
func (s *StatementService) NewVersion(ctx context.Context, fleetID, statementID uuid.UUID, reason string, operatorID uuid.UUID) (*StatementResponse, error) {
	stmt, err := s.load(ctx, fleetID, statementID)
	if err != nil {
		return nil, err
	}

	next, err := stmt.NewVersion()
	if err != nil {
		return nil, err
	}
	if err := stmt.Archive(reason, operatorID); err != nil {
		return nil, err
	}

	if err := s.statements.Supersede(ctx, stmt, next); err != nil {
		return nil, err
	}

	s.logger.Info("Statement superseded",
		zap.String("statement_id", next.ID.String()),
		zap.String("parent_id", stmt.ID.String()),
		zap.String("reason", reason))
	stmt.ClearDomainEvents()
	next.ClearDomainEvents()

	return toStatementResponse(next), nil
}

// GetStatement returns one statement's summary
func (s *StatementService) GetStatement(ctx context.Context, fleetID, statementID uuid.UUID) (*StatementResponse, error) {
	stmt, err := s.load(ctx, fleetID, statementID)
	if err != nil {
		return nil, err
	}
	return toStatementResponse(stmt), nil
}

func (s *StatementService) transition(ctx context.Context, fleetID, statementID uuid.UUID, action string, mutate func(*statement.Statement) error) (*StatementResponse, error) {
	stmt, err := s.load(ctx, fleetID, statementID)
	if err != nil {
		return nil, err
	}

	if err := mutate(stmt); err != nil {
		return nil, err
	}

	if err := s.statements.SaveWithLock(ctx, stmt); err != nil {
		return nil, err
	}

	s.logger.Info("Statement "+action,
		zap.String("statement_id", stmt.ID.String()),
		zap.String("status", stmt.Status.String()),
		zap.String("net_due", stmt.NetDue.String()),
		zap.String("paid", stmt.PaidAmount.String()))
	stmt.ClearDomainEvents()

	return toStatementResponse(stmt), nil
}

func (s *StatementService) load(ctx context.Context, fleetID, statementID uuid.UUID) (*statement.Statement, error) {
	stmt, err := s.statements.FindByIDForFleet(ctx, fleetID, statementID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("STATEMENT_NOT_FOUND",
				fmt.Sprintf("Statement %s not found", statementID))
		}
		return nil, err
	}
	return stmt, nil
}

// activeRoster lists every active owner and driver, owners first, each
// group ordered by id so batch runs visit persons deterministically
func (s *StatementService) activeRoster(ctx context.Context, fleetID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, role := range []masterdata.PersonRole{masterdata.RoleOwner, masterdata.RoleDriver} {
		persons, err := s.persons.ActivePersonsByRole(ctx, fleetID, role)
		if err != nil {
			return nil, err
		}
		for _, p := range persons {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func toBatchError(personID uuid.UUID, err error) BatchError {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return BatchError{PersonID: personID, Code: de.Code, Message: de.Message}
	}
	return BatchError{PersonID: personID, Code: "INTERNAL_ERROR", Message: err.Error()}
}

func buildKey(fleetID, personID uuid.UUID, from, to time.Time) string {
	return fmt.Sprintf("%s/%s/%s/%s", fleetID, personID, from.Format("2006-01-02"), to.Format("2006-01-02"))
}
