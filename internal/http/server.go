package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"cashflow/internal/cache"
	"cashflow/internal/core"
	"cashflow/internal/log"
	"cashflow/internal/middleware/ratelimit"
	"cashflow/internal/middleware/security"
	"cashflow/internal/middleware/trace"
	"cashflow/internal/services"
)

// Ledger is the engine surface the API exposes.
type Ledger interface {
	RecordTransaction(ctx context.Context, req services.TransactionRequest) (*services.Receipt, error)
	RecordIncome(ctx context.Context, req services.IncomeRequest) (*services.Receipt, error)
	Transfer(ctx context.Context, amount decimal.Decimal) (*services.Receipt, error)
	ReverseMovement(ctx context.Context, id int64) (*services.Receipt, error)

	ToggleObligation(ctx context.Context, id int64, paid bool) (*services.Receipt, error)
	CreateObligation(ctx context.Context, name string, amount decimal.Decimal, dueDay int) (core.Obligation, error)
	DeleteObligation(ctx context.Context, id int64) error
	ListObligations(ctx context.Context) ([]core.Obligation, error)
	NewMonthRollover(ctx context.Context) (*services.Receipt, error)

	CreateGoal(ctx context.Context, name string, target decimal.Decimal) (core.Goal, error)
	ListGoals(ctx context.Context) ([]core.GoalProgress, error)
	FundGoal(ctx context.Context, id int64, amount decimal.Decimal) (*services.Receipt, error)
	WithdrawGoal(ctx context.Context, id int64, amount decimal.Decimal) (*services.Receipt, error)
	DeleteGoal(ctx context.Context, id int64) (*services.Receipt, error)

	Accounts(ctx context.Context) ([]core.Account, error)
	Movements(ctx context.Context, f core.MovementFilter) ([]core.Movement, error)
	AllMovements(ctx context.Context) ([]core.Movement, error)
	MovementMonths(ctx context.Context) ([]string, error)
	WeeklyExpenses(ctx context.Context) ([]core.DailyTotal, error)
	Settings(ctx context.Context) (core.Settings, error)
	UpdateSettings(ctx context.Context, settings core.Settings) (*services.Receipt, error)
	Snapshot(ctx context.Context) (core.Snapshot, error)
}

// Options tunes the server. Zero values select defaults.
type Options struct {
	Logger *log.Logger
	// Ready reports whether the backing store is reachable.
	Ready       func(ctx context.Context) error
	RateLimit   ratelimit.Config
	SnapshotTTL time.Duration
	// Version reports a counter that changes whenever another process
	// commits to the store. A cached snapshot is only served while it is
	// unchanged. Nil relies on SnapshotTTL alone.
	Version func(ctx context.Context) (int64, error)
	Now     func() time.Time
}

const snapshotKey = "snapshot"

type Server struct {
	http.Server

	ledger Ledger
	logger *log.Logger
	ready  func(ctx context.Context) error
	now    func() time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	snapshotCache *cache.LRUCache[cachedSnapshot]
	cacheManager  *cache.Manager
	version       func(ctx context.Context) (int64, error)

	appMetrics   appMetrics
	shutdownOnce sync.Once
}

type cachedSnapshot struct {
	snapshot core.Snapshot
	version  int64
}

type appMetrics struct {
	movements   int64
	cacheHits   int64
	cacheMisses int64
	uptime      time.Time
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, ledger Ledger, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		ledger:           ledger,
		logger:           opts.Logger,
		ready:            opts.Ready,
		now:              opts.Now,
		rateLimiter:      ratelimit.NewLimiter(opts.RateLimit),
		securityDetector: security.NewDetector(),
		snapshotCache:    cache.NewLRUCache[cachedSnapshot](1, opts.SnapshotTTL),
		cacheManager:     cache.NewManager(),
		version:          opts.Version,
	}
	s.appMetrics.uptime = time.Now()
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP)

	s.cacheManager.Register(s.snapshotCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, ratelimit.MutationsOnly, s.handleRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = log.Middleware(s.logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/accounts", s.handleAccounts)
	mux.HandleFunc("POST /api/transactions", s.handleRecordTransaction)
	mux.HandleFunc("POST /api/incomes", s.handleRecordIncome)
	mux.HandleFunc("POST /api/transfers", s.handleTransfer)

	mux.HandleFunc("GET /api/movements", s.handleListMovements)
	mux.HandleFunc("GET /api/movements/months", s.handleMovementMonths)
	mux.HandleFunc("DELETE /api/movements/{id}", s.handleReverseMovement)
	mux.HandleFunc("GET /api/expenses/weekly", s.handleWeeklyExpenses)

	mux.HandleFunc("GET /api/obligations", s.handleListObligations)
	mux.HandleFunc("POST /api/obligations", s.handleCreateObligation)
	mux.HandleFunc("POST /api/obligations/rollover", s.handleRollover)
	mux.HandleFunc("POST /api/obligations/{id}/toggle", s.handleToggleObligation)
	mux.HandleFunc("DELETE /api/obligations/{id}", s.handleDeleteObligation)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("POST /api/goals/{id}/fund", s.handleFundGoal)
	mux.HandleFunc("POST /api/goals/{id}/withdraw", s.handleWithdrawGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)
	mux.HandleFunc("GET /api/export.csv", s.handleExportCSV)
}

// Shutdown stops background cleanup and gracefully shuts the listener down.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// snapshot serves the derived view from cache while it is fresh and no
// other process has written to the store since it was cached.
func (s *Server) snapshot(ctx context.Context) (core.Snapshot, error) {
	version, versioned := s.storeVersion(ctx)
	if entry, ok := s.snapshotCache.Get(snapshotKey); ok && versioned && entry.version == version {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		return entry.snapshot, nil
	}
	atomic.AddInt64(&s.appMetrics.cacheMisses, 1)

	snap, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	if versioned {
		s.snapshotCache.Set(snapshotKey, cachedSnapshot{snapshot: snap, version: version})
	}
	return snap, nil
}

// storeVersion returns the store's change counter. Without a Version hook
// every read sees the same version, leaving freshness to the TTL. A failing
// hook disables caching for the request.
func (s *Server) storeVersion(ctx context.Context) (int64, bool) {
	if s.version == nil {
		return 0, true
	}
	v, err := s.version(ctx)
	if err != nil {
		log.FromContext(ctx).DebugContext(ctx, "Store version unavailable, bypassing snapshot cache", log.FieldError, err.Error())
		return 0, false
	}
	return v, true
}

// committed records a successful mutation: the cached view is replaced by
// the receipt's snapshot and journal changes are logged.
func (s *Server) committed(ctx context.Context, op string, receipt *services.Receipt) {
	s.snapshotCache.Purge()
	if receipt == nil {
		return
	}
	if version, ok := s.storeVersion(ctx); ok {
		s.snapshotCache.Set(snapshotKey, cachedSnapshot{snapshot: receipt.Snapshot, version: version})
	}
	atomic.AddInt64(&s.appMetrics.movements, int64(len(receipt.Movements)))
	log.NewStructuredLogger(log.FromContext(ctx)).LogMovements(ctx, op, receipt.Movements)
}
