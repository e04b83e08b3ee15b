package reports

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Classifiers are pure functions: raw provider rows in, enriched report rows
// plus a summary aggregate out. Accumulation runs in full precision; values
// are rounded to two decimals only at presentation.

var (
	decHundred   = decimal.NewFromInt(100)
	decClassACut = decimal.NewFromInt(80)
	decClassBCut = decimal.NewFromInt(95)
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// daysBetween returns whole days from a to b at date granularity, ignoring
// the time of day on either side.
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

const dayFormat = "2006-01-02"
const stampFormat = "2006-01-02 15:04:05"

// ClassifyABC ranks SKUs by picked value and assigns Pareto classes:
// A while the cumulative share stays at or under 80%, B under 95%, else C.
// A zero grand total makes the classification undefined; every row is then
// class C with zero percentages instead of dividing by zero.
func ClassifyABC(input []ABCRow) ([]Row, Summary) {
	type ranked struct {
		row   ABCRow
		value decimal.Decimal
	}
	items := make([]ranked, 0, len(input))
	total := decimal.Zero
	for _, r := range input {
		value := decimal.NewFromFloat(r.PickedQty).Mul(decimal.NewFromFloat(r.UnitCost))
		items = append(items, ranked{row: r, value: value})
		total = total.Add(value)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].value.GreaterThan(items[j].value)
	})

	degenerate := total.IsZero()
	cumulative := decimal.Zero
	counts := map[string]int{}
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		cumulative = cumulative.Add(item.value)
		valuePct := decimal.Zero
		cumulativePct := decimal.Zero
		class := "C"
		if !degenerate {
			valuePct = item.value.Div(total).Mul(decHundred)
			cumulativePct = cumulative.Div(total).Mul(decHundred)
			switch {
			case cumulativePct.LessThanOrEqual(decClassACut):
				class = "A"
			case cumulativePct.LessThanOrEqual(decClassBCut):
				class = "B"
			}
		}
		counts[class]++
		rows = append(rows, Row{
			"sku":                item.row.SKU,
			"name":               item.row.Name,
			"picked_qty":         round2(item.row.PickedQty),
			"unit_cost":          round2(item.row.UnitCost),
			"total_value":        item.value.Round(2).InexactFloat64(),
			"value_percent":      valuePct.Round(2).InexactFloat64(),
			"cumulative_percent": cumulativePct.Round(2).InexactFloat64(),
			"abc_class":          class,
		})
	}
	summary := Summary{
		"total_value": total.Round(2).InexactFloat64(),
		"total_skus":  len(rows),
		"a_count":     counts["A"],
		"b_count":     counts["B"],
		"c_count":     counts["C"],
	}
	return rows, summary
}

// Aging buckets, checked in priority order: expiry proximity first, then
// time in storage.
const (
	bucketExpired    = "expired"
	bucketExpiring7  = "expiring in 7 days"
	bucketExpiring30 = "expiring in 30 days"
	bucketNew        = "new"
	bucketMedium     = "medium"
	bucketOld        = "old"
)

func agingBucket(daysInStock, daysToExpiry int) string {
	switch {
	case daysToExpiry < 0:
		return bucketExpired
	case daysToExpiry <= 7:
		return bucketExpiring7
	case daysToExpiry <= 30:
		return bucketExpiring30
	case daysInStock <= 30:
		return bucketNew
	case daysInStock <= 90:
		return bucketMedium
	default:
		return bucketOld
	}
}

// ClassifyAging buckets each stored lot by expiry proximity and storage age.
func ClassifyAging(input []AgingLotRow, today time.Time) ([]Row, Summary) {
	type aged struct {
		row          AgingLotRow
		daysInStock  int
		daysToExpiry int
	}
	items := make([]aged, 0, len(input))
	for _, r := range input {
		items = append(items, aged{
			row:          r,
			daysInStock:  daysBetween(r.ReceivedAt, today),
			daysToExpiry: daysBetween(today, r.ExpiryAt),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].daysToExpiry != items[j].daysToExpiry {
			return items[i].daysToExpiry < items[j].daysToExpiry
		}
		return items[i].daysInStock > items[j].daysInStock
	})

	var totalQty float64
	buckets := map[string]int{}
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		bucket := agingBucket(item.daysInStock, item.daysToExpiry)
		buckets[bucket]++
		totalQty += item.row.Quantity
		rows = append(rows, Row{
			"sku":            item.row.SKU,
			"name":           item.row.Name,
			"lot_code":       item.row.LotCode,
			"zone":           item.row.Zone,
			"location":       item.row.Location,
			"quantity":       round2(item.row.Quantity),
			"received_date":  item.row.ReceivedAt.Format(dayFormat),
			"expiry_date":    item.row.ExpiryAt.Format(dayFormat),
			"days_in_stock":  item.daysInStock,
			"days_to_expiry": item.daysToExpiry,
			"aging_bucket":   bucket,
		})
	}
	summary := Summary{
		"total_lots":     len(rows),
		"total_quantity": round2(totalQty),
		"expired":        buckets[bucketExpired],
		"expiring_7d":    buckets[bucketExpiring7],
		"expiring_30d":   buckets[bucketExpiring30],
	}
	return rows, summary
}

// ClassifyValuation totals stock value per SKU and zone. A missing unit cost
// is valued at zero, not treated as an error.
func ClassifyValuation(input []ValuationRow) ([]Row, Summary) {
	total := decimal.Zero
	skus := map[string]bool{}
	rows := make([]Row, 0, len(input))
	for _, r := range input {
		value := decimal.NewFromFloat(r.Quantity).Mul(decimal.NewFromFloat(r.UnitCost))
		total = total.Add(value)
		skus[r.SKU] = true
		rows = append(rows, Row{
			"sku":         r.SKU,
			"name":        r.Name,
			"zone":        r.Zone,
			"quantity":    round2(r.Quantity),
			"unit_cost":   round2(r.UnitCost),
			"total_value": value.Round(2).InexactFloat64(),
		})
	}
	summary := Summary{
		"total_value":    total.Round(2).InexactFloat64(),
		"positions":      len(rows),
		"distinct_skus":  len(skus),
	}
	return rows, summary
}

// Stock status values, ordered by severity.
const (
	statusOutOfStock = "out_of_stock"
	statusCritical   = "critical"
	statusLow        = "low"
	statusNormal     = "normal"
)

func stockStatus(current, min float64) string {
	switch {
	case current == 0:
		return statusOutOfStock
	case current <= min*0.5:
		return statusCritical
	case current <= min:
		return statusLow
	default:
		return statusNormal
	}
}

var severityRank = map[string]int{
	statusOutOfStock: 0,
	statusCritical:   1,
	statusLow:        2,
}

// ClassifyStockLevels keeps only SKUs needing attention: this is an alert
// report, normal rows never appear in its output.
func ClassifyStockLevels(input []StockLevelRow) ([]Row, Summary) {
	type alert struct {
		row    StockLevelRow
		status string
	}
	alerts := make([]alert, 0, len(input))
	counts := map[string]int{}
	for _, r := range input {
		status := stockStatus(r.CurrentStock, r.MinStock)
		if status == statusNormal {
			continue
		}
		counts[status]++
		alerts = append(alerts, alert{row: r, status: status})
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		if severityRank[alerts[i].status] != severityRank[alerts[j].status] {
			return severityRank[alerts[i].status] < severityRank[alerts[j].status]
		}
		return alerts[i].row.CurrentStock < alerts[j].row.CurrentStock
	})

	rows := make([]Row, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, Row{
			"sku":           a.row.SKU,
			"name":          a.row.Name,
			"current_stock": round2(a.row.CurrentStock),
			"min_stock":     round2(a.row.MinStock),
			"status":        a.status,
		})
	}
	summary := Summary{
		"out_of_stock": counts[statusOutOfStock],
		"critical":     counts[statusCritical],
		"low":          counts[statusLow],
		"total_alerts": len(rows),
	}
	return rows, summary
}

// ClassifyPickEfficiency derives hourly rates per user and day. A single-event
// day has zero working hours and is reported with rate 0 rather than infinity.
func ClassifyPickEfficiency(input []UserDayRow) ([]Row, Summary) {
	var totalPicks int64
	var totalQty, totalHours float64
	rows := make([]Row, 0, len(input))
	for _, r := range input {
		hours := r.LastPick.Sub(r.FirstPick).Hours()
		if hours < 0 {
			hours = 0
		}
		picksPerHour := 0.0
		qtyPerHour := 0.0
		if hours > 0 {
			picksPerHour = float64(r.Picks) / hours
			qtyPerHour = r.Quantity / hours
		}
		totalPicks += r.Picks
		totalQty += r.Quantity
		totalHours += hours
		rows = append(rows, Row{
			"user":              r.UserName,
			"day":               r.Day.Format(dayFormat),
			"total_picks":       r.Picks,
			"total_quantity":    round2(r.Quantity),
			"working_hours":     round2(hours),
			"picks_per_hour":    round2(picksPerHour),
			"quantity_per_hour": round2(qtyPerHour),
		})
	}
	avgRate := 0.0
	if totalHours > 0 {
		avgRate = float64(totalPicks) / totalHours
	}
	summary := Summary{
		"total_picks":        totalPicks,
		"total_quantity":     round2(totalQty),
		"total_hours":        round2(totalHours),
		"avg_picks_per_hour": round2(avgRate),
	}
	return rows, summary
}

// ClassifyFEFO flags each pick as compliant when the picked lot expiry equals
// the earliest eligible expiry at pick time, both at date granularity.
func ClassifyFEFO(input []FEFOPickRow) ([]Row, Summary) {
	var compliant int
	rows := make([]Row, 0, len(input))
	for _, r := range input {
		ok := daysBetween(r.EarliestExpiryAt, r.PickedExpiryAt) == 0
		verdict := "non-compliant"
		if ok {
			verdict = "compliant"
			compliant++
		}
		rows = append(rows, Row{
			"picked_at":       r.OccurredAt.Format(stampFormat),
			"sku":             r.SKU,
			"name":            r.Name,
			"user":            r.UserName,
			"quantity":        round2(r.Quantity),
			"picked_expiry":   r.PickedExpiryAt.Format(dayFormat),
			"earliest_expiry": r.EarliestExpiryAt.Format(dayFormat),
			"verdict":         verdict,
		})
	}
	rate := 0.0
	if len(input) > 0 {
		rate = float64(compliant) / float64(len(input)) * 100
	}
	summary := Summary{
		"total_picks":     len(rows),
		"compliant":       compliant,
		"non_compliant":   len(rows) - compliant,
		"compliance_rate": round2(rate),
	}
	return rows, summary
}

// ClassifySpaceUtilization computes per-zone occupancy. A zone with zero
// locations is reported at 0%, not excluded.
func ClassifySpaceUtilization(input []ZoneUsageRow) ([]Row, Summary) {
	var totalLocations, occupiedLocations int64
	rows := make([]Row, 0, len(input))
	for _, r := range input {
		pct := 0.0
		if r.TotalLocations > 0 {
			pct = float64(r.OccupiedLocations) / float64(r.TotalLocations) * 100
		}
		totalLocations += r.TotalLocations
		occupiedLocations += r.OccupiedLocations
		rows = append(rows, Row{
			"zone":                r.Zone,
			"total_locations":     r.TotalLocations,
			"occupied_locations":  r.OccupiedLocations,
			"free_locations":      r.TotalLocations - r.OccupiedLocations,
			"utilization_percent": round2(pct),
		})
	}
	overall := 0.0
	if totalLocations > 0 {
		overall = float64(occupiedLocations) / float64(totalLocations) * 100
	}
	summary := Summary{
		"total_zones":         len(rows),
		"total_locations":     totalLocations,
		"occupied_locations":  occupiedLocations,
		"overall_utilization": round2(overall),
	}
	return rows, summary
}

// ClassifyMovementGroups is a pass-through aggregation with totals only.
func ClassifyMovementGroups(input []MovementGroupRow) ([]Row, Summary) {
	var events int64
	var qty, weight float64
	rows := make([]Row, 0, len(input))
	for _, r := range input {
		events += r.Events
		qty += r.Quantity
		weight += r.WeightKg
		rows = append(rows, Row{
			"day":            r.Day.Format(dayFormat),
			"event_type":     r.EventType,
			"events":         r.Events,
			"quantity":       round2(r.Quantity),
			"weight_kg":      round2(r.WeightKg),
			"distinct_users": r.DistinctUsers,
		})
	}
	summary := Summary{
		"total_events":    events,
		"total_quantity":  round2(qty),
		"total_weight_kg": round2(weight),
	}
	return rows, summary
}

// BuildTransactionHistory renders raw events with window totals computed by
// a separate aggregate query.
func BuildTransactionHistory(input []MovementRow, totals MovementTotals) ([]Row, Summary) {
	rows := make([]Row, 0, len(input))
	for _, r := range input {
		rows = append(rows, Row{
			"occurred_at":   r.OccurredAt.Format(stampFormat),
			"event_type":    r.EventType,
			"sku":           r.SKU,
			"name":          r.Name,
			"quantity":      round2(r.Quantity),
			"user":          r.UserName,
			"from_location": r.FromLocation,
			"to_location":   r.ToLocation,
		})
	}
	summary := Summary{
		"total_events":    totals.Events,
		"total_quantity":  round2(totals.TotalQuantity),
		"total_weight_kg": round2(totals.TotalWeightKg),
		"distinct_users":  totals.DistinctUsers,
	}
	return rows, summary
}

// ClassifyProductivity aggregates per-user task rates across the window.
func ClassifyProductivity(input []UserActivityRow) ([]Row, Summary) {
	var totalTasks int64
	var totalQty float64
	rows := make([]Row, 0, len(input))
	for _, r := range input {
		tasks := r.Picks + r.Receives + r.Moves
		hours := r.LastEvent.Sub(r.FirstEvent).Hours()
		if hours < 0 {
			hours = 0
		}
		tasksPerHour := 0.0
		if hours > 0 {
			tasksPerHour = float64(tasks) / hours
		}
		tasksPerDay := 0.0
		if r.ActiveDays > 0 {
			tasksPerDay = float64(tasks) / float64(r.ActiveDays)
		}
		totalTasks += tasks
		totalQty += r.Quantity
		rows = append(rows, Row{
			"user":           r.UserName,
			"picks":          r.Picks,
			"receives":       r.Receives,
			"moves":          r.Moves,
			"total_tasks":    tasks,
			"total_quantity": round2(r.Quantity),
			"active_days":    r.ActiveDays,
			"tasks_per_day":  round2(tasksPerDay),
			"tasks_per_hour": round2(tasksPerHour),
		})
	}
	summary := Summary{
		"total_users":    len(rows),
		"total_tasks":    totalTasks,
		"total_quantity": round2(totalQty),
	}
	return rows, summary
}
