package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/application/validation"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/report"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SummaryCache stores computed summaries per owner. Get returns nil on a miss
// together with the owner's generation at read time; Set stores under that
// generation, so a summary computed before an Invalidate is never served.
// Invalidate drops every cached summary of the owner.
type SummaryCache interface {
	Get(ctx context.Context, ownerID uuid.UUID, key string) (*SpendingSummaryResponse, int64, error)
	Set(ctx context.Context, ownerID uuid.UUID, generation int64, key string, summary *SpendingSummaryResponse) error
	Invalidate(ctx context.Context, ownerID uuid.UUID) error
}

// SpendingSummaryRequest is the query of the spending summary.
// Dates accept RFC 3339 or YYYY-MM-DD; a date-only "to" covers the whole day.
type SpendingSummaryRequest struct {
	From     string `form:"from"`
	To       string `form:"to"`
	Category string `form:"cat" binding:"max=64"`
	OnlyPaid bool   `form:"onlyPaid"`
}

// SpendingService computes the read-only spending, P&L and inventory summary
type SpendingService struct {
	reader report.SpendingReader
	cache  SummaryCache
	logger *zap.Logger
	now    func() time.Time
}

// NewSpendingService creates a new SpendingService. cache may be nil.
func NewSpendingService(reader report.SpendingReader, cache SummaryCache, logger *zap.Logger) *SpendingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpendingService{
		reader: reader,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// Summary returns the spending summary for the requested window
func (s *SpendingService) Summary(ctx context.Context, ownerID uuid.UUID, req SpendingSummaryRequest) (resp *SpendingSummaryResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "spending", "summary", telemetry.OwnerAttr(ownerID))
	defer func() { telemetry.End(span, err) }()

	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	from, err := parseBound(req.From, "from", false)
	if err != nil {
		return nil, err
	}
	to, err := parseBound(req.To, "to", true)
	if err != nil {
		return nil, err
	}
	category := ""
	if strings.TrimSpace(req.Category) != "" {
		category = finance.NormalizeCategory(req.Category)
	}
	// Minute resolution keeps the default window stable enough to cache
	now := s.now().UTC().Truncate(time.Minute)
	q, err := report.NewSpendingQuery(from, to, category, req.OnlyPaid, now)
	if err != nil {
		return nil, err
	}

	key := cacheKey(q)
	var (
		generation int64
		cacheable  bool
	)
	if s.cache != nil {
		cached, gen, err := s.cache.Get(ctx, ownerID, key)
		switch {
		case err != nil:
			s.logger.Warn("spending summary cache read failed", zap.Error(err))
		case cached != nil:
			return cached, nil
		default:
			generation, cacheable = gen, true
		}
	}

	var summary report.Summary
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("spending", "summary"), func(ctx context.Context) {
		summary, err = s.compute(ctx, ownerID, q)
	})
	if err != nil {
		return nil, err
	}
	resp = ToSpendingSummaryResponse(summary)

	if cacheable {
		if err := s.cache.Set(ctx, ownerID, generation, key, resp); err != nil {
			s.logger.Warn("spending summary cache write failed", zap.Error(err))
		}
	}
	return resp, nil
}

// compute runs the independent aggregation queries concurrently
func (s *SpendingService) compute(ctx context.Context, ownerID uuid.UUID, q report.SpendingQuery) (report.Summary, error) {
	var (
		exp       report.ExpenseTotals
		cats      []report.CategoryTotal
		sales     report.SalesTotals
		inv       report.InventoryTotals
		delivered []report.DeliveredOrder
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		exp, err = s.reader.ExpenseTotals(gctx, ownerID, q)
		return err
	})
	g.Go(func() (err error) {
		cats, err = s.reader.ExpensesByCategory(gctx, ownerID, q)
		return err
	})
	g.Go(func() (err error) {
		sales, err = s.reader.SalesTotals(gctx, ownerID, q.From, q.To)
		return err
	})
	g.Go(func() (err error) {
		inv, err = s.reader.InventoryTotals(gctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		delivered, err = s.reader.DeliveredOrders(gctx, ownerID, report.HistogramStart(q.To), q.To)
		return err
	})
	if err := g.Wait(); err != nil {
		return report.Summary{}, err
	}
	return report.BuildSummary(q, exp, cats, sales, inv, delivered), nil
}

func cacheKey(q report.SpendingQuery) string {
	return fmt.Sprintf("%d:%d:%s:%t", q.From.Unix(), q.To.Unix(), q.Category, q.OnlyPaid)
}

func parseBound(raw, field string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, shared.NewValidationError(field + " must be an RFC 3339 timestamp or YYYY-MM-DD date")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Microsecond)
	}
	return &t, nil
}
