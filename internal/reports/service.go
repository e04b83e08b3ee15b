package reports

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stockpulse/stockpulse/internal/shared"
)

const defaultQueryTimeout = 10 * time.Second

// Service coordinates one report generation: validate the type, resolve the
// window, fetch the dataset, classify, assemble. The clock is injected so
// date boundaries stay deterministic under test.
type Service struct {
	repo         Repository
	cache        *Cache
	logger       *slog.Logger
	queryTimeout time.Duration
	now          func() time.Time
}

// NewService wires a Repository with the optional payload cache.
func NewService(repo Repository, cache *Cache, logger *slog.Logger, queryTimeout time.Duration) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &Service{
		repo:         repo,
		cache:        cache,
		logger:       logger,
		queryTimeout: queryTimeout,
		now:          time.Now,
	}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Generate produces the assembled payload for one report request.
func (s *Service) Generate(ctx context.Context, req Request) (Payload, error) {
	t, err := ParseType(string(req.Type))
	if err != nil {
		return Payload{}, err
	}

	now := s.now()
	var window DateWindow
	if !t.Snapshot() {
		window, err = ResolveRange(req.RangeKey, now)
		if err != nil {
			return Payload{}, err
		}
	}
	filter := Filter{Window: window, Zone: req.Zone}

	loader := func(ctx context.Context) (interface{}, error) {
		return s.build(ctx, t, filter, now)
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return Payload{}, err
		}
		return value.(Payload), nil
	}

	key, err := s.cache.BuildKey(ctx, keyPayload(t, window, req.Zone))
	if err != nil {
		return Payload{}, err
	}
	var payload Payload
	if err := s.cache.FetchJSON(ctx, key, &payload, loader); err != nil {
		return Payload{}, err
	}
	return payload, nil
}

func (s *Service) build(ctx context.Context, t Type, f Filter, now time.Time) (Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var (
		rows    []Row
		summary Summary
		err     error
	)
	switch t {
	case TypeABCAnalysis:
		var input []ABCRow
		if input, err = s.repo.ABCCandidates(ctx, f); err == nil {
			rows, summary = ClassifyABC(input)
		}
	case TypeStockAging:
		var input []AgingLotRow
		if input, err = s.repo.AgingLots(ctx, f.Zone); err == nil {
			rows, summary = ClassifyAging(input, now)
		}
	case TypeInventoryValuation:
		var input []ValuationRow
		if input, err = s.repo.ValuationPositions(ctx, f.Zone); err == nil {
			rows, summary = ClassifyValuation(input)
		}
	case TypeLowStock:
		var input []StockLevelRow
		if input, err = s.repo.StockLevels(ctx, f.Zone); err == nil {
			rows, summary = ClassifyStockLevels(input)
		}
	case TypeTransactionHistory:
		// Detail and totals run concurrently against a live store; the two
		// reads may observe slightly different states. Accepted snapshot
		// semantics, not worth transaction-level isolation.
		var (
			input  []MovementRow
			totals MovementTotals
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var inner error
			input, inner = s.repo.Movements(gctx, f)
			return inner
		})
		g.Go(func() error {
			var inner error
			totals, inner = s.repo.MovementWindowTotals(gctx, f)
			return inner
		})
		if err = g.Wait(); err == nil {
			rows, summary = BuildTransactionHistory(input, totals)
		}
	case TypePickEfficiency:
		var input []UserDayRow
		if input, err = s.repo.PickActivity(ctx, f); err == nil {
			rows, summary = ClassifyPickEfficiency(input)
		}
	case TypeMovementSummary:
		var input []MovementGroupRow
		if input, err = s.repo.MovementGroups(ctx, f); err == nil {
			rows, summary = ClassifyMovementGroups(input)
		}
	case TypeFEFOCompliance:
		var input []FEFOPickRow
		if input, err = s.repo.FEFOPicks(ctx, f); err == nil {
			rows, summary = ClassifyFEFO(input)
		}
	case TypeSpaceUtilization:
		var input []ZoneUsageRow
		if input, err = s.repo.ZoneUsage(ctx, f.Zone); err == nil {
			rows, summary = ClassifySpaceUtilization(input)
		}
	case TypeProductivity:
		var input []UserActivityRow
		if input, err = s.repo.UserActivity(ctx, f); err == nil {
			rows, summary = ClassifyProductivity(input)
		}
	default:
		return Payload{}, shared.ErrInvalidReportType
	}

	if err != nil {
		if errors.Is(err, shared.ErrDataUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("report dataset fetch failed",
				slog.String("report", string(t)),
				slog.String("zone", f.Zone),
				slog.Time("window_start", f.Window.Start),
				slog.Time("window_end", f.Window.End),
				slog.Any("error", err),
			)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return Payload{}, shared.ErrDataUnavailable
		}
		return Payload{}, err
	}
	return Assemble(t, rows, summary)
}
