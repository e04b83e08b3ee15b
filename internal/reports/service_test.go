package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/stockpulse/stockpulse/internal/shared"
)

type mockRepo struct {
	abcRows      []ABCRow
	abcErr       error
	abcCalls     int
	abcFilter    Filter
	agingRows    []AgingLotRow
	agingCalls   int
	agingZone    string
	valRows      []ValuationRow
	levelRows    []StockLevelRow
	moveRows     []MovementRow
	moveCalls    int
	totals       MovementTotals
	totalsCalls  int
	pickRows     []UserDayRow
	groupRows    []MovementGroupRow
	fefoRows     []FEFOPickRow
	zoneRows     []ZoneUsageRow
	activityRows []UserActivityRow
}

func (m *mockRepo) ABCCandidates(ctx context.Context, f Filter) ([]ABCRow, error) {
	m.abcCalls++
	m.abcFilter = f
	return m.abcRows, m.abcErr
}

func (m *mockRepo) AgingLots(ctx context.Context, zone string) ([]AgingLotRow, error) {
	m.agingCalls++
	m.agingZone = zone
	return m.agingRows, nil
}

func (m *mockRepo) ValuationPositions(ctx context.Context, zone string) ([]ValuationRow, error) {
	return m.valRows, nil
}

func (m *mockRepo) StockLevels(ctx context.Context, zone string) ([]StockLevelRow, error) {
	return m.levelRows, nil
}

func (m *mockRepo) Movements(ctx context.Context, f Filter) ([]MovementRow, error) {
	m.moveCalls++
	return m.moveRows, nil
}

func (m *mockRepo) MovementWindowTotals(ctx context.Context, f Filter) (MovementTotals, error) {
	m.totalsCalls++
	return m.totals, nil
}

func (m *mockRepo) PickActivity(ctx context.Context, f Filter) ([]UserDayRow, error) {
	return m.pickRows, nil
}

func (m *mockRepo) MovementGroups(ctx context.Context, f Filter) ([]MovementGroupRow, error) {
	return m.groupRows, nil
}

func (m *mockRepo) FEFOPicks(ctx context.Context, f Filter) ([]FEFOPickRow, error) {
	return m.fefoRows, nil
}

func (m *mockRepo) ZoneUsage(ctx context.Context, zone string) ([]ZoneUsageRow, error) {
	return m.zoneRows, nil
}

func (m *mockRepo) UserActivity(ctx context.Context, f Filter) ([]UserActivityRow, error) {
	return m.activityRows, nil
}

func fixedClock() time.Time {
	return time.Date(2026, time.March, 17, 10, 0, 0, 0, time.UTC)
}

func TestGenerateABCPayload(t *testing.T) {
	repo := &mockRepo{abcRows: []ABCRow{
		{SKU: "TOP", Name: "Top", PickedQty: 80, UnitCost: 1},
		{SKU: "TAIL", Name: "Tail", PickedQty: 20, UnitCost: 1},
	}}
	svc := NewService(repo, nil, nil, time.Second)
	svc.WithNow(fixedClock)

	payload, err := svc.Generate(context.Background(), Request{Type: TypeABCAnalysis, RangeKey: RangeLast7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Title != "ABC Value Analysis" {
		t.Fatalf("title = %q", payload.Title)
	}
	if len(payload.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(payload.Rows))
	}
	if payload.Rows[0]["abc_class"] != "A" {
		t.Fatalf("first class = %v, want A", payload.Rows[0]["abc_class"])
	}
	want, _ := ResolveRange(RangeLast7, fixedClock())
	if !repo.abcFilter.Window.Start.Equal(want.Start) || !repo.abcFilter.Window.End.Equal(want.End) {
		t.Fatalf("filter window = %v..%v, want %v..%v",
			repo.abcFilter.Window.Start, repo.abcFilter.Window.End, want.Start, want.End)
	}
}

func TestGenerateRejectsUnknownTypeBeforeQuery(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, nil, nil, time.Second)

	_, err := svc.Generate(context.Background(), Request{Type: "velocity-report"})
	if !errors.Is(err, shared.ErrInvalidReportType) {
		t.Fatalf("error = %v, want ErrInvalidReportType", err)
	}
	if repo.abcCalls != 0 || repo.agingCalls != 0 || repo.moveCalls != 0 {
		t.Fatal("no query may run for an unknown report type")
	}
}

func TestGenerateRejectsUnknownRangeKey(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, nil, nil, time.Second)

	_, err := svc.Generate(context.Background(), Request{Type: TypeABCAnalysis, RangeKey: "fortnight"})
	if !errors.Is(err, shared.ErrInvalidDateRange) {
		t.Fatalf("error = %v, want ErrInvalidDateRange", err)
	}
	if repo.abcCalls != 0 {
		t.Fatal("no query may run for an unknown range key")
	}
}

func TestGenerateSnapshotIgnoresRangeKey(t *testing.T) {
	repo := &mockRepo{agingRows: []AgingLotRow{{
		SKU: "P1", LotCode: "L1", Quantity: 3,
		ReceivedAt: fixedClock().AddDate(0, 0, -10),
		ExpiryAt:   fixedClock().AddDate(0, 0, 90),
	}}}
	svc := NewService(repo, nil, nil, time.Second)
	svc.WithNow(fixedClock)

	payload, err := svc.Generate(context.Background(), Request{Type: TypeStockAging, RangeKey: "fortnight", Zone: "CHILL"})
	if err != nil {
		t.Fatalf("snapshot reports ignore the range key, got %v", err)
	}
	if len(payload.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(payload.Rows))
	}
	if repo.agingZone != "CHILL" {
		t.Fatalf("zone = %q, want CHILL", repo.agingZone)
	}
}

func TestGenerateTransactionHistoryMergesTotals(t *testing.T) {
	repo := &mockRepo{
		moveRows: []MovementRow{{OccurredAt: fixedClock(), EventType: "pick", SKU: "P1", Quantity: 2, UserName: "dana"}},
		totals:   MovementTotals{Events: 12, TotalQuantity: 40, DistinctUsers: 4},
	}
	svc := NewService(repo, nil, nil, time.Second)
	svc.WithNow(fixedClock)

	payload, err := svc.Generate(context.Background(), Request{Type: TypeTransactionHistory, RangeKey: RangeToday})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.moveCalls != 1 || repo.totalsCalls != 1 {
		t.Fatalf("detail calls = %d, totals calls = %d, want 1 each", repo.moveCalls, repo.totalsCalls)
	}
	if payload.Summary["total_events"] != int64(12) {
		t.Fatalf("total_events = %v, want 12", payload.Summary["total_events"])
	}
}

func TestGenerateDataUnavailableNotEmptyResult(t *testing.T) {
	repo := &mockRepo{abcErr: shared.ErrDataUnavailable}
	svc := NewService(repo, nil, nil, time.Second)
	svc.WithNow(fixedClock)

	_, err := svc.Generate(context.Background(), Request{Type: TypeABCAnalysis, RangeKey: RangeToday})
	if !errors.Is(err, shared.ErrDataUnavailable) {
		t.Fatalf("error = %v, want ErrDataUnavailable; a failed query must not look like an empty report", err)
	}
}

func TestGenerateCachesPayload(t *testing.T) {
	repo := &mockRepo{abcRows: []ABCRow{{SKU: "TOP", Name: "Top", PickedQty: 10, UnitCost: 5}}}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	svc := NewService(repo, NewCache(client, time.Minute), nil, time.Second)
	svc.WithNow(fixedClock)

	ctx := context.Background()
	req := Request{Type: TypeABCAnalysis, RangeKey: RangeLast7}
	first, err := svc.Generate(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Generate(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.abcCalls != 1 {
		t.Fatalf("repo calls = %d, want 1 (second read served from cache)", repo.abcCalls)
	}
	if len(first.Rows) != len(second.Rows) || first.Title != second.Title {
		t.Fatal("cached payload must match the computed payload")
	}

	// A version bump invalidates every cached payload.
	if err := NewCache(client, time.Minute).Bump(ctx); err != nil {
		t.Fatalf("bump: %v", err)
	}
	if _, err := svc.Generate(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.abcCalls != 2 {
		t.Fatalf("repo calls = %d, want 2 after invalidation", repo.abcCalls)
	}
}
