// Command statements is the operator CLI for the fleet billing engine. It
// wires the billing services against the configured database and drives
// statement generation and the settlement lifecycle from the command line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	billingapp "github.com/taxifleet/backend/internal/application/billing"
	domainbilling "github.com/taxifleet/backend/internal/domain/billing"
	"github.com/taxifleet/backend/internal/domain/expense"
	"github.com/taxifleet/backend/internal/domain/masterdata"
	"github.com/taxifleet/backend/internal/domain/rates"
	"github.com/taxifleet/backend/internal/domain/statement"
	"github.com/taxifleet/backend/internal/infrastructure/cache"
	"github.com/taxifleet/backend/internal/infrastructure/config"
	"github.com/taxifleet/backend/internal/infrastructure/logger"
	"github.com/taxifleet/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if logLevel == "" {
		logLevel = cfg.Log.Level
	}

	// Logs go to stderr so command output on stdout stays machine-readable
	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     cfg.Log.Format,
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	app, err := newApplication(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer app.Close()

	ctx := context.Background()
	if err := app.run(ctx, command, args[1:]); err != nil {
		log.Fatal("Command failed", zap.String("command", command), zap.Error(err))
	}
}

// application holds the wired services and the resources they borrow
type application struct {
	cfg        *config.Config
	log        *zap.Logger
	db         *persistence.Database
	l1         *cache.MemoryStore
	l2         *cache.RedisStore
	rates      *billingapp.RateService
	statements *billingapp.StatementService
}

func newApplication(cfg *config.Config, log *zap.Logger) (*application, error) {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return nil, err
	}

	app := &application{cfg: cfg, log: log, db: db}

	app.l1 = cache.NewMemoryStore(0)
	if cfg.Redis.Enabled {
		app.l2, err = cache.NewRedisStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	var l2 cache.Store
	if app.l2 != nil {
		l2 = app.l2
	}
	rateCache := cache.NewRateConfigCache(app.l1, l2, cfg.Billing.RateCacheTTL, log)

	defRepo := persistence.NewGormRateDefinitionRepository(db.DB)
	cachedDefs := cache.NewCachingDefinitionRepository(defRepo, rateCache)
	overrideRepo := persistence.NewGormRateOverrideRepository(db.DB)
	chargeRepo := persistence.NewGormExpenseChargeRepository(db.DB)
	statementRepo := persistence.NewGormStatementRepository(db.DB)
	master := persistence.NewGormMasterdataStore(db.DB)

	catalog := rates.NewCatalog(cachedDefs)
	resolver := rates.NewResolver(catalog, overrideRepo)
	targets := expense.NewTargetResolver(master, master, master)
	calculator := domainbilling.NewChargeCalculator(resolver, targets, master)
	builder := domainbilling.NewStatementBuilder(calculator, statementRepo, chargeRepo, master, master, master, master)

	app.rates = billingapp.NewRateService(catalog, cachedDefs, overrideRepo, resolver, targets, rateCache, log)
	app.statements = billingapp.NewStatementService(builder, statementRepo, master, log)
	return app, nil
}

// Close releases the database and cache resources
func (a *application) Close() {
	a.l1.Stop()
	if a.l2 != nil {
		_ = a.l2.Close()
	}
	_ = a.db.Close()
}

func (a *application) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "generate":
		return a.generate(ctx, args)
	case "batch":
		return a.batch(ctx, args)
	case "post":
		return a.transition(ctx, args, "post")
	case "lock":
		return a.transition(ctx, args, "lock")
	case "pay":
		return a.pay(ctx, args)
	case "reverse":
		return a.reverse(ctx, args)
	case "archive":
		return a.transition(ctx, args, "archive")
	case "cancel":
		return a.transition(ctx, args, "cancel")
	case "new-version":
		return a.newVersion(ctx, args)
	case "show":
		return a.show(ctx, args)
	case "resolve":
		return a.resolve(ctx, args)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *application) generate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	fleet := fs.String("fleet", "", "Fleet ID (required)")
	person := fs.String("person", "", "Person ID (required)")
	from := fs.String("from", "", "Period start, YYYY-MM-DD (required)")
	to := fs.String("to", "", "Period end, YYYY-MM-DD (required)")
	first := fs.Bool("first", false, "Allow a missing prior statement and open the balance at zero")
	dryRun := fs.Bool("dry-run", false, "Compute the statement without saving it")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fleetID, err := parseUUID("fleet", *fleet)
	if err != nil {
		return err
	}
	personID, err := parseUUID("person", *person)
	if err != nil {
		return err
	}
	periodFrom, periodTo, err := parsePeriod(*from, *to)
	if err != nil {
		return err
	}

	req := billingapp.GenerateStatementRequest{
		FleetID:             fleetID,
		PersonID:            personID,
		PeriodFrom:          periodFrom,
		PeriodTo:            periodTo,
		AllowFirstStatement: *first,
		BaseRateName:        a.cfg.Billing.BaseRateName,
		PerUnitRateName:     a.cfg.Billing.PerUnitRateName,
	}

	var resp *billingapp.StatementResponse
	if *dryRun {
		resp, err = a.statements.Preview(ctx, req)
	} else {
		resp, err = a.statements.Generate(ctx, req)
	}
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func (a *application) batch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	fleet := fs.String("fleet", "", "Fleet ID (required)")
	from := fs.String("from", "", "Period start, YYYY-MM-DD (required)")
	to := fs.String("to", "", "Period end, YYYY-MM-DD (required)")
	workers := fs.Int("workers", 0, "Worker pool size (default from configuration)")
	first := fs.Bool("first", false, "Allow missing prior statements")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fleetID, err := parseUUID("fleet", *fleet)
	if err != nil {
		return err
	}
	periodFrom, periodTo, err := parsePeriod(*from, *to)
	if err != nil {
		return err
	}
	if *workers == 0 {
		*workers = a.cfg.Billing.BatchWorkers
	}

	result, err := a.statements.GenerateBatch(ctx, billingapp.GenerateBatchRequest{
		FleetID:             fleetID,
		PeriodFrom:          periodFrom,
		PeriodTo:            periodTo,
		Workers:             *workers,
		AllowFirstStatement: *first,
	})
	if result != nil {
		if printErr := printJSON(result); printErr != nil {
			return printErr
		}
	}
	return err
}

// transition handles the single-statement lifecycle commands that only need
// an operator and an optional reason
func (a *application) transition(ctx context.Context, args []string, action string) error {
	fs := flag.NewFlagSet(action, flag.ExitOnError)
	fleet := fs.String("fleet", "", "Fleet ID (required)")
	stmt := fs.String("statement", "", "Statement ID (required)")
	operator := fs.String("operator", "", "Operator ID (required)")
	reason := fs.String("reason", "", "Reason (archive and cancel only)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fleetID, statementID, operatorID, err := parseTransitionIDs(*fleet, *stmt, *operator)
	if err != nil {
		return err
	}

	var resp *billingapp.StatementResponse
	switch action {
	case "post":
		resp, err = a.statements.Post(ctx, fleetID, statementID, operatorID)
	case "lock":
		resp, err = a.statements.Lock(ctx, fleetID, statementID, operatorID)
	case "archive":
		resp, err = a.statements.Archive(ctx, fleetID, statementID, *reason, operatorID)
	case "cancel":
		resp, err = a.statements.Cancel(ctx, fleetID, statementID, *reason, operatorID)
	}
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func (a *application) pay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pay", flag.ExitOnError)
	fleet := fs.String("fleet", "", "Fleet ID (required)")
	stmt := fs.String("statement", "", "Statement ID (required)")
	operator := fs.String("operator", "", "Operator ID (required)")
	amount := fs.String("amount", "", "Payment amount (required)")
	method := fs.String("method", "CASH", "Payment method: CASH, CHECK, TRANSFER, CARD")
	date := fs.String("date", "", "Payment date, YYYY-MM-DD (default today)")
	reference := fs.String("reference", "", "External reference, e.g. a check number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fleetID, statementID, operatorID, err := parseTransitionIDs(*fleet, *stmt, *operator)
	if err != nil {
		return err
	}
	value, err := decimal.NewFromString(*amount)
	if err != nil {
		return fmt.Errorf("invalid -amount %q: %w", *amount, err)
	}
	paymentDate := time.Now().UTC().Truncate(24 * time.Hour)
	if *date != "" {
		paymentDate, err = time.Parse("2006-01-02", *date)
		if err != nil {
			return fmt.Errorf("invalid -date %q: %w", *date, err)
		}
	}

	resp, err := a.statements.ApplyPayment(ctx, billingapp.ApplyPaymentRequest{
		FleetID:     fleetID,
		StatementID: statementID,
		Amount:      value,
		PaymentDate: paymentDate,
		Method:      statement.PaymentMethod(*method),
		Reference:   *reference,
		OperatorID:  operatorID,
	})
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func (a *application) reverse(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reverse", flag.ExitOnError)
	fleet := fs.String("fleet", "", "Fleet ID (required)")
	stmt := fs.String("statement", "", "Statement ID (required)")
	operator := fs.String("operator", "", "Operator ID (required)")
	payment := fs.String("payment", "", "Payment ID to reverse (required)")
	reason := fs.String("reason", "", "Reversal reason (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fleetID, statementID, operatorID, err := parseTransitionIDs(*fleet, *stmt, *operator)
	if err != nil {
		return err
	}
	paymentID, err := parseUUID("payment", *payment)
	if err != nil {
		return err
	}

	resp, err := a.statements.ReversePayment(ctx, fleetID, statementID, paymentID, *reason, operatorID)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func (a *application) newVersion(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("new-version", flag.ExitOnError)
	fleet := fs.String("fleet", "", "Fleet ID (required)")
	stmt := fs.String("statement", "", "Statement ID (required)")
	operator := fs.String("operator", "", "Operator ID (required)")
	reason := fs.String("reason", "", "Supersession reason, recorded on the archived parent (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fleetID, statementID, operatorID, err := parseTransitionIDs(*fleet, *stmt, *operator)
	if err != nil {
		return err
	}

	resp, err := a.statements.NewVersion(ctx, fleetID, statementID, *reason, operatorID)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func (a *application) show(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	fleet := fs.String("fleet", "", "Fleet ID (required)")
	stmt := fs.String("statement", "", "Statement ID (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fleetID, err := parseUUID("fleet", *fleet)
	if err != nil {
		return err
	}
	statementID, err := parseUUID("statement", *stmt)
	if err != nil {
		return err
	}

	resp, err := a.statements.GetStatement(ctx, fleetID, statementID)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func (a *application) resolve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	fleet := fs.String("fleet", "", "Fleet ID (required)")
	rate := fs.String("rate", "", "Rate name (required)")
	owner := fs.String("owner", "", "Owner ID (required)")
	cab := fs.String("cab", "", "Cab ID (optional)")
	shiftType := fs.String("shift-type", "", "Shift type: DAY or NIGHT (optional)")
	date := fs.String("date", "", "Resolution date, YYYY-MM-DD (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fleetID, err := parseUUID("fleet", *fleet)
	if err != nil {
		return err
	}
	ownerID, err := parseUUID("owner", *owner)
	if err != nil {
		return err
	}
	day, err := time.Parse("2006-01-02", *date)
	if err != nil {
		return fmt.Errorf("invalid -date %q: %w", *date, err)
	}

	query := rates.ResolutionQuery{
		RateName: *rate,
		OwnerID:  ownerID,
		Date:     day,
	}
	if *cab != "" {
		cabID, err := parseUUID("cab", *cab)
		if err != nil {
			return err
		}
		query.CabID = &cabID
	}
	if *shiftType != "" {
		st := masterdata.ShiftType(*shiftType)
		query.ShiftType = &st
	}
	dow := day.Weekday()
	query.DayOfWeek = &dow

	resp, err := a.rates.PreviewResolution(ctx, fleetID, query)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func parseTransitionIDs(fleet, stmt, operator string) (fleetID, statementID, operatorID uuid.UUID, err error) {
	if fleetID, err = parseUUID("fleet", fleet); err != nil {
		return
	}
	if statementID, err = parseUUID("statement", stmt); err != nil {
		return
	}
	operatorID, err = parseUUID("operator", operator)
	return
}

func parseUUID(name, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, fmt.Errorf("-%s is required", name)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid -%s %q: %w", name, value, err)
	}
	return id, nil
}

func parsePeriod(from, to string) (time.Time, time.Time, error) {
	periodFrom, err := time.Parse("2006-01-02", from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid -from %q: %w", from, err)
	}
	periodTo, err := time.Parse("2006-01-02", to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid -to %q: %w", to, err)
	}
	return periodFrom, periodTo, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printUsage() {
	fmt.Println(`FleetBill Statement Tool

Usage:
  statements [flags] <command> [arguments]

Commands:
  generate     Build the draft statement for one person and period
  batch        Build draft statements for the whole active roster
  post         Freeze a draft's line items and make it visible
  lock         Mark a posted statement ready for payments
  pay          Apply a payment to a locked statement
  reverse      Back a completed payment out of a statement
  archive      Archive a statement (requires -reason)
  cancel       Cancel a draft statement (requires -reason)
  new-version  Archive a statement and open a fresh draft for its period (requires -reason)
  show         Print one statement as JSON
  resolve      Preview which rate value wins for a scope and date

Flags:
  -log-level string   Log level override: debug, info, warn, error

Run 'statements <command> -h' for the command's arguments.`)
}
