package reports

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockpulse/stockpulse/internal/shared"
)

// Per-report row caps. The caps protect the export pipeline from unbounded
// memory use and are part of the report contract, not incidental limits.
const (
	capABC          = 500
	capAging        = 1000
	capValuation    = 1000
	capLowStock     = 500
	capHistory      = 1000
	capPickEff      = 250
	capMovement     = 500
	capFEFO         = 1000
	capSpaceUtil    = 100
	capProductivity = 250
)

// Filter scopes a dataset query. Zone empty means no zone predicate at all.
type Filter struct {
	Window DateWindow
	Zone   string
}

// ABCRow is one SKU candidate for ABC classification.
type ABCRow struct {
	SKU       string  `db:"sku"`
	Name      string  `db:"name"`
	PickedQty float64 `db:"picked_qty"`
	UnitCost  float64 `db:"unit_cost"`
}

// AgingLotRow is one stored lot for the stock aging report.
type AgingLotRow struct {
	SKU        string    `db:"sku"`
	Name       string    `db:"name"`
	LotCode    string    `db:"lot_code"`
	Zone       string    `db:"zone"`
	Location   string    `db:"location"`
	Quantity   float64   `db:"quantity"`
	ReceivedAt time.Time `db:"received_at"`
	ExpiryAt   time.Time `db:"expiry_at"`
}

// ValuationRow is one SKU+zone stock position.
type ValuationRow struct {
	SKU      string  `db:"sku"`
	Name     string  `db:"name"`
	Zone     string  `db:"zone"`
	Quantity float64 `db:"quantity"`
	UnitCost float64 `db:"unit_cost"`
}

// StockLevelRow is one SKU stock position against its minimum level.
type StockLevelRow struct {
	SKU          string  `db:"sku"`
	Name         string  `db:"name"`
	CurrentStock float64 `db:"current_stock"`
	MinStock     float64 `db:"min_stock"`
}

// MovementRow is one raw movement event.
type MovementRow struct {
	OccurredAt   time.Time `db:"occurred_at"`
	EventType    string    `db:"event_type"`
	SKU          string    `db:"sku"`
	Name         string    `db:"name"`
	Quantity     float64   `db:"quantity"`
	UserName     string    `db:"user_name"`
	FromLocation string    `db:"from_location"`
	ToLocation   string    `db:"to_location"`
}

// MovementTotals aggregates a movement window.
type MovementTotals struct {
	Events        int64   `db:"events"`
	TotalQuantity float64 `db:"total_quantity"`
	TotalWeightKg float64 `db:"total_weight_kg"`
	DistinctUsers int64   `db:"distinct_users"`
}

// UserDayRow is one user's picking activity on one calendar day.
type UserDayRow struct {
	UserName  string    `db:"user_name"`
	Day       time.Time `db:"day"`
	Picks     int64     `db:"picks"`
	Quantity  float64   `db:"quantity"`
	FirstPick time.Time `db:"first_pick"`
	LastPick  time.Time `db:"last_pick"`
}

// MovementGroupRow is one day+event-type aggregate.
type MovementGroupRow struct {
	Day           time.Time `db:"day"`
	EventType     string    `db:"event_type"`
	Events        int64     `db:"events"`
	Quantity      float64   `db:"quantity"`
	WeightKg      float64   `db:"weight_kg"`
	DistinctUsers int64     `db:"distinct_users"`
}

// FEFOPickRow is one pick event with the expiry actually picked and the
// earliest eligible expiry recorded by the picking subsystem at pick time.
type FEFOPickRow struct {
	OccurredAt       time.Time `db:"occurred_at"`
	SKU              string    `db:"sku"`
	Name             string    `db:"name"`
	UserName         string    `db:"user_name"`
	Quantity         float64   `db:"quantity"`
	PickedExpiryAt   time.Time `db:"picked_expiry_at"`
	EarliestExpiryAt time.Time `db:"earliest_expiry_at"`
}

// ZoneUsageRow is one zone's location occupancy.
type ZoneUsageRow struct {
	Zone              string `db:"zone"`
	TotalLocations    int64  `db:"total_locations"`
	OccupiedLocations int64  `db:"occupied_locations"`
}

// UserActivityRow is one user's totals over the whole window.
type UserActivityRow struct {
	UserName   string    `db:"user_name"`
	Picks      int64     `db:"picks"`
	Receives   int64     `db:"receives"`
	Moves      int64     `db:"moves"`
	Quantity   float64   `db:"quantity"`
	ActiveDays int64     `db:"active_days"`
	FirstEvent time.Time `db:"first_event"`
	LastEvent  time.Time `db:"last_event"`
}

// Repository is the dataset provider contract consumed by the Service.
type Repository interface {
	ABCCandidates(ctx context.Context, f Filter) ([]ABCRow, error)
	AgingLots(ctx context.Context, zone string) ([]AgingLotRow, error)
	ValuationPositions(ctx context.Context, zone string) ([]ValuationRow, error)
	StockLevels(ctx context.Context, zone string) ([]StockLevelRow, error)
	Movements(ctx context.Context, f Filter) ([]MovementRow, error)
	MovementWindowTotals(ctx context.Context, f Filter) (MovementTotals, error)
	PickActivity(ctx context.Context, f Filter) ([]UserDayRow, error)
	MovementGroups(ctx context.Context, f Filter) ([]MovementGroupRow, error)
	FEFOPicks(ctx context.Context, f Filter) ([]FEFOPickRow, error)
	ZoneUsage(ctx context.Context, zone string) ([]ZoneUsageRow, error)
	UserActivity(ctx context.Context, f Filter) ([]UserActivityRow, error)
}

// PGRepository executes the report aggregation queries against PostgreSQL.
// All queries are read only; the store is concurrently mutated by the rest of
// the warehouse system, so a report is a point-in-time snapshot with no
// cross-query isolation guarantee.
type PGRepository struct {
	pool    *pgxpool.Pool
	builder sq.StatementBuilderType
}

// NewPGRepository constructs PGRepository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{
		pool:    pool,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PGRepository) selectRows(ctx context.Context, dest any, qb sq.SelectBuilder, report string) error {
	query, args, err := qb.ToSql()
	if err != nil {
		return fmt.Errorf("reports: build %s query: %w", report, err)
	}
	if err := pgxscan.Select(ctx, r.pool, dest, query, args...); err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrDataUnavailable, report, err)
	}
	return nil
}

func (r *PGRepository) selectOne(ctx context.Context, dest any, qb sq.SelectBuilder, report string) error {
	query, args, err := qb.ToSql()
	if err != nil {
		return fmt.Errorf("reports: build %s query: %w", report, err)
	}
	if err := pgxscan.Get(ctx, r.pool, dest, query, args...); err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrDataUnavailable, report, err)
	}
	return nil
}

// withinWindow appends the inclusive event-time predicate.
func withinWindow(qb sq.SelectBuilder, column string, w DateWindow) sq.SelectBuilder {
	return qb.Where(sq.Expr(column+" BETWEEN ? AND ?", w.Start, w.End))
}

// zoneClause appends the zone predicate only when a zone filter is present.
func zoneClause(qb sq.SelectBuilder, column, zone string) sq.SelectBuilder {
	if zone == "" {
		return qb
	}
	return qb.Where(sq.Eq{column: zone})
}

// abcQuery builds the picked-value aggregation. The locations join exists
// only to serve the zone predicate; without a zone filter it is left out so
// picks with no from-location still count.
func (r *PGRepository) abcQuery(f Filter) sq.SelectBuilder {
	qb := r.builder.
		Select(
			"p.sku AS sku",
			"p.name AS name",
			"SUM(m.quantity) AS picked_qty",
			"COALESCE(p.unit_cost, 0) AS unit_cost",
		).
		From("stock_movements m").
		Join("products p ON p.id = m.product_id").
		Where(sq.Eq{"m.event_type": "pick"}).
		GroupBy("p.sku", "p.name", "p.unit_cost").
		OrderBy("SUM(m.quantity) * COALESCE(p.unit_cost, 0) DESC").
		Limit(capABC)
	qb = withinWindow(qb, "m.occurred_at", f.Window)
	if f.Zone != "" {
		qb = qb.
			Join("locations l ON l.id = m.from_location_id").
			Where(sq.Eq{"l.zone": f.Zone})
	}
	return qb
}

// ABCCandidates returns picked value inputs grouped by SKU.
func (r *PGRepository) ABCCandidates(ctx context.Context, f Filter) ([]ABCRow, error) {
	var rows []ABCRow
	if err := r.selectRows(ctx, &rows, r.abcQuery(f), "abc-analysis"); err != nil {
		return nil, err
	}
	return rows, nil
}

// AgingLots returns every stored lot with stock on hand.
func (r *PGRepository) AgingLots(ctx context.Context, zone string) ([]AgingLotRow, error) {
	qb := r.builder.
		Select(
			"p.sku AS sku",
			"p.name AS name",
			"sl.lot_code AS lot_code",
			"l.zone AS zone",
			"l.code AS location",
			"sl.quantity AS quantity",
			"sl.received_at AS received_at",
			"sl.expiry_at AS expiry_at",
		).
		From("stock_lots sl").
		Join("products p ON p.id = sl.product_id").
		Join("locations l ON l.id = sl.location_id").
		Where(sq.Gt{"sl.quantity": 0}).
		OrderBy("sl.expiry_at ASC", "sl.received_at ASC").
		Limit(capAging)
	qb = zoneClause(qb, "l.zone", zone)

	var rows []AgingLotRow
	if err := r.selectRows(ctx, &rows, qb, "stock-aging"); err != nil {
		return nil, err
	}
	return rows, nil
}

// ValuationPositions returns stock grouped by SKU and zone.
func (r *PGRepository) ValuationPositions(ctx context.Context, zone string) ([]ValuationRow, error) {
	qb := r.builder.
		Select(
			"p.sku AS sku",
			"p.name AS name",
			"l.zone AS zone",
			"SUM(sl.quantity) AS quantity",
			"COALESCE(p.unit_cost, 0) AS unit_cost",
		).
		From("stock_lots sl").
		Join("products p ON p.id = sl.product_id").
		Join("locations l ON l.id = sl.location_id").
		Where(sq.Gt{"sl.quantity": 0}).
		GroupBy("p.sku", "p.name", "l.zone", "p.unit_cost").
		OrderBy("p.sku ASC", "l.zone ASC").
		Limit(capValuation)
	qb = zoneClause(qb, "l.zone", zone)

	var rows []ValuationRow
	if err := r.selectRows(ctx, &rows, qb, "inventory-valuation"); err != nil {
		return nil, err
	}
	return rows, nil
}

// StockLevels returns every product's current stock against its minimum.
// Products with no lots at all must still appear (stock 0), hence the left join.
func (r *PGRepository) StockLevels(ctx context.Context, zone string) ([]StockLevelRow, error) {
	join := "stock_lots sl ON sl.product_id = p.id AND sl.quantity > 0"
	args := []any{}
	if zone != "" {
		join += " AND sl.location_id IN (SELECT id FROM locations WHERE zone = ?)"
		args = append(args, zone)
	}
	qb := r.builder.
		Select(
			"p.sku AS sku",
			"p.name AS name",
			"COALESCE(SUM(sl.quantity), 0) AS current_stock",
			"p.min_stock AS min_stock",
		).
		From("products p").
		LeftJoin(join, args...).
		GroupBy("p.sku", "p.name", "p.min_stock").
		OrderBy("current_stock ASC", "p.sku ASC").
		Limit(capLowStock)

	var rows []StockLevelRow
	if err := r.selectRows(ctx, &rows, qb, "low-stock"); err != nil {
		return nil, err
	}
	return rows, nil
}

// Movements returns raw events inside the window, newest first.
func (r *PGRepository) Movements(ctx context.Context, f Filter) ([]MovementRow, error) {
	qb := r.builder.
		Select(
			"m.occurred_at AS occurred_at",
			"m.event_type AS event_type",
			"p.sku AS sku",
			"p.name AS name",
			"m.quantity AS quantity",
			"u.name AS user_name",
			"COALESCE(lf.code, '') AS from_location",
			"COALESCE(lt.code, '') AS to_location",
		).
		From("stock_movements m").
		Join("products p ON p.id = m.product_id").
		Join("warehouse_users u ON u.id = m.user_id").
		LeftJoin("locations lf ON lf.id = m.from_location_id").
		LeftJoin("locations lt ON lt.id = m.to_location_id").
		OrderBy("m.occurred_at DESC").
		Limit(capHistory)
	qb = withinWindow(qb, "m.occurred_at", f.Window)
	if f.Zone != "" {
		qb = qb.Where(sq.Or{sq.Eq{"lf.zone": f.Zone}, sq.Eq{"lt.zone": f.Zone}})
	}

	var rows []MovementRow
	if err := r.selectRows(ctx, &rows, qb, "transaction-history"); err != nil {
		return nil, err
	}
	return rows, nil
}

// MovementWindowTotals aggregates the same window the detail query reads.
// Both queries may observe slightly different states; reports are snapshots
// without cross-query isolation.
func (r *PGRepository) MovementWindowTotals(ctx context.Context, f Filter) (MovementTotals, error) {
	qb := r.builder.
		Select(
			"COUNT(*) AS events",
			"COALESCE(SUM(m.quantity), 0) AS total_quantity",
			"COALESCE(SUM(m.quantity * COALESCE(p.weight_kg, 0)), 0) AS total_weight_kg",
			"COUNT(DISTINCT m.user_id) AS distinct_users",
		).
		From("stock_movements m").
		Join("products p ON p.id = m.product_id")
	qb = withinWindow(qb, "m.occurred_at", f.Window)
	if f.Zone != "" {
		qb = qb.Where(sq.Expr(
			"(m.from_location_id IN (SELECT id FROM locations WHERE zone = ?) OR m.to_location_id IN (SELECT id FROM locations WHERE zone = ?))",
			f.Zone, f.Zone,
		))
	}

	var totals MovementTotals
	if err := r.selectOne(ctx, &totals, qb, "movement-totals"); err != nil {
		return MovementTotals{}, err
	}
	return totals, nil
}

// PickActivity groups pick events by user and calendar day.
func (r *PGRepository) PickActivity(ctx context.Context, f Filter) ([]UserDayRow, error) {
	qb := r.builder.
		Select(
			"u.name AS user_name",
			"date_trunc('day', m.occurred_at) AS day",
			"COUNT(*) AS picks",
			"COALESCE(SUM(m.quantity), 0) AS quantity",
			"MIN(m.occurred_at) AS first_pick",
			"MAX(m.occurred_at) AS last_pick",
		).
		From("stock_movements m").
		Join("warehouse_users u ON u.id = m.user_id").
		Where(sq.Eq{"m.event_type": "pick"}).
		GroupBy("u.name", "date_trunc('day', m.occurred_at)").
		OrderBy("day ASC", "u.name ASC").
		Limit(capPickEff)
	qb = withinWindow(qb, "m.occurred_at", f.Window)
	if f.Zone != "" {
		qb = qb.Where(sq.Expr("m.from_location_id IN (SELECT id FROM locations WHERE zone = ?)", f.Zone))
	}

	var rows []UserDayRow
	if err := r.selectRows(ctx, &rows, qb, "pick-efficiency"); err != nil {
		return nil, err
	}
	return rows, nil
}

// MovementGroups aggregates movements per day and event type.
func (r *PGRepository) MovementGroups(ctx context.Context, f Filter) ([]MovementGroupRow, error) {
	qb := r.builder.
		Select(
			"date_trunc('day', m.occurred_at) AS day",
			"m.event_type AS event_type",
			"COUNT(*) AS events",
			"COALESCE(SUM(m.quantity), 0) AS quantity",
			"COALESCE(SUM(m.quantity * COALESCE(p.weight_kg, 0)), 0) AS weight_kg",
			"COUNT(DISTINCT m.user_id) AS distinct_users",
		).
		From("stock_movements m").
		Join("products p ON p.id = m.product_id").
		GroupBy("date_trunc('day', m.occurred_at)", "m.event_type").
		OrderBy("day ASC", "m.event_type ASC").
		Limit(capMovement)
	qb = withinWindow(qb, "m.occurred_at", f.Window)
	if f.Zone != "" {
		qb = qb.Where(sq.Expr(
			"(m.from_location_id IN (SELECT id FROM locations WHERE zone = ?) OR m.to_location_id IN (SELECT id FROM locations WHERE zone = ?))",
			f.Zone, f.Zone,
		))
	}

	var rows []MovementGroupRow
	if err := r.selectRows(ctx, &rows, qb, "movement-summary"); err != nil {
		return nil, err
	}
	return rows, nil
}

// FEFOPicks returns pick events with the picked and earliest eligible expiry.
func (r *PGRepository) FEFOPicks(ctx context.Context, f Filter) ([]FEFOPickRow, error) {
	qb := r.builder.
		Select(
			"m.occurred_at AS occurred_at",
			"p.sku AS sku",
			"p.name AS name",
			"u.name AS user_name",
			"m.quantity AS quantity",
			"m.picked_expiry_at AS picked_expiry_at",
			"m.earliest_expiry_at AS earliest_expiry_at",
		).
		From("stock_movements m").
		Join("products p ON p.id = m.product_id").
		Join("warehouse_users u ON u.id = m.user_id").
		Where(sq.Eq{"m.event_type": "pick"}).
		Where("m.picked_expiry_at IS NOT NULL").
		Where("m.earliest_expiry_at IS NOT NULL").
		OrderBy("m.occurred_at ASC").
		Limit(capFEFO)
	qb = withinWindow(qb, "m.occurred_at", f.Window)
	if f.Zone != "" {
		qb = qb.Where(sq.Expr("m.from_location_id IN (SELECT id FROM locations WHERE zone = ?)", f.Zone))
	}

	var rows []FEFOPickRow
	if err := r.selectRows(ctx, &rows, qb, "fefo-compliance"); err != nil {
		return nil, err
	}
	return rows, nil
}

// ZoneUsage counts total and occupied locations per zone. Zones whose
// locations hold no stock still appear with zero occupancy.
func (r *PGRepository) ZoneUsage(ctx context.Context, zone string) ([]ZoneUsageRow, error) {
	qb := r.builder.
		Select(
			"l.zone AS zone",
			"COUNT(DISTINCT l.id) AS total_locations",
			"COUNT(DISTINCT sl.location_id) AS occupied_locations",
		).
		From("locations l").
		LeftJoin("stock_lots sl ON sl.location_id = l.id AND sl.quantity > 0").
		GroupBy("l.zone").
		OrderBy("l.zone ASC").
		Limit(capSpaceUtil)
	qb = zoneClause(qb, "l.zone", zone)

	var rows []ZoneUsageRow
	if err := r.selectRows(ctx, &rows, qb, "space-utilization"); err != nil {
		return nil, err
	}
	return rows, nil
}

// UserActivity aggregates each user's movements over the whole window.
func (r *PGRepository) UserActivity(ctx context.Context, f Filter) ([]UserActivityRow, error) {
	qb := r.builder.
		Select(
			"u.name AS user_name",
			"COUNT(*) FILTER (WHERE m.event_type = 'pick') AS picks",
			"COUNT(*) FILTER (WHERE m.event_type = 'receive') AS receives",
			"COUNT(*) FILTER (WHERE m.event_type = 'move') AS moves",
			"COALESCE(SUM(m.quantity), 0) AS quantity",
			"COUNT(DISTINCT date_trunc('day', m.occurred_at)) AS active_days",
			"MIN(m.occurred_at) AS first_event",
			"MAX(m.occurred_at) AS last_event",
		).
		From("stock_movements m").
		Join("warehouse_users u ON u.id = m.user_id").
		GroupBy("u.name").
		OrderBy("picks DESC", "u.name ASC").
		Limit(capProductivity)
	qb = withinWindow(qb, "m.occurred_at", f.Window)
	if f.Zone != "" {
		qb = qb.Where(sq.Expr(
			"(m.from_location_id IN (SELECT id FROM locations WHERE zone = ?) OR m.to_location_id IN (SELECT id FROM locations WHERE zone = ?))",
			f.Zone, f.Zone,
		))
	}

	var rows []UserActivityRow
	if err := r.selectRows(ctx, &rows, qb, "productivity-analysis"); err != nil {
		return nil, err
	}
	return rows, nil
}
