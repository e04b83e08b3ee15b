package reports

import (
	"fmt"

	"github.com/stockpulse/stockpulse/internal/shared"
)

// Column binds a row key to its display header.
type Column struct {
	Key   string
	Title string
}

var reportTitles = map[Type]string{
	TypeABCAnalysis:        "ABC Value Analysis",
	TypeStockAging:         "Stock Aging",
	TypeInventoryValuation: "Inventory Valuation",
	TypeLowStock:           "Low Stock Alerts",
	TypeTransactionHistory: "Transaction History",
	TypePickEfficiency:     "Pick Efficiency",
	TypeMovementSummary:    "Movement Summary",
	TypeFEFOCompliance:     "FEFO Compliance",
	TypeSpaceUtilization:   "Space Utilization",
	TypeProductivity:       "Productivity Analysis",
}

var reportColumns = map[Type][]Column{
	TypeABCAnalysis: {
		{"sku", "SKU"},
		{"name", "Product"},
		{"picked_qty", "Picked Qty"},
		{"unit_cost", "Unit Cost"},
		{"total_value", "Total Value"},
		{"value_percent", "Value %"},
		{"cumulative_percent", "Cumulative %"},
		{"abc_class", "Class"},
	},
	TypeStockAging: {
		{"sku", "SKU"},
		{"name", "Product"},
		{"lot_code", "Lot"},
		{"zone", "Zone"},
		{"location", "Location"},
		{"quantity", "Quantity"},
		{"received_date", "Received"},
		{"expiry_date", "Expires"},
		{"days_in_stock", "Days In Stock"},
		{"days_to_expiry", "Days To Expiry"},
		{"aging_bucket", "Bucket"},
	},
	TypeInventoryValuation: {
		{"sku", "SKU"},
		{"name", "Product"},
		{"zone", "Zone"},
		{"quantity", "Quantity"},
		{"unit_cost", "Unit Cost"},
		{"total_value", "Total Value"},
	},
	TypeLowStock: {
		{"sku", "SKU"},
		{"name", "Product"},
		{"current_stock", "Current Stock"},
		{"min_stock", "Min Stock"},
		{"status", "Status"},
	},
	TypeTransactionHistory: {
		{"occurred_at", "Timestamp"},
		{"event_type", "Event"},
		{"sku", "SKU"},
		{"name", "Product"},
		{"quantity", "Quantity"},
		{"user", "User"},
		{"from_location", "From"},
		{"to_location", "To"},
	},
	TypePickEfficiency: {
		{"user", "User"},
		{"day", "Day"},
		{"total_picks", "Picks"},
		{"total_quantity", "Quantity"},
		{"working_hours", "Working Hours"},
		{"picks_per_hour", "Picks/Hour"},
		{"quantity_per_hour", "Qty/Hour"},
	},
	TypeMovementSummary: {
		{"day", "Day"},
		{"event_type", "Event"},
		{"events", "Events"},
		{"quantity", "Quantity"},
		{"weight_kg", "Weight (kg)"},
		{"distinct_users", "Users"},
	},
	TypeFEFOCompliance: {
		{"picked_at", "Picked At"},
		{"sku", "SKU"},
		{"name", "Product"},
		{"user", "User"},
		{"quantity", "Quantity"},
		{"picked_expiry", "Picked Expiry"},
		{"earliest_expiry", "Earliest Expiry"},
		{"verdict", "Verdict"},
	},
	TypeSpaceUtilization: {
		{"zone", "Zone"},
		{"total_locations", "Locations"},
		{"occupied_locations", "Occupied"},
		{"free_locations", "Free"},
		{"utilization_percent", "Utilization %"},
	},
	TypeProductivity: {
		{"user", "User"},
		{"picks", "Picks"},
		{"receives", "Receives"},
		{"moves", "Moves"},
		{"total_tasks", "Tasks"},
		{"total_quantity", "Quantity"},
		{"active_days", "Active Days"},
		{"tasks_per_day", "Tasks/Day"},
		{"tasks_per_hour", "Tasks/Hour"},
	},
}

// Columns returns the ordered column set of a report type.
func Columns(t Type) []Column {
	return reportColumns[t]
}

// Title returns the display title of a report type.
func Title(t Type) string {
	return reportTitles[t]
}

// Assemble packages classified rows and their summary into the payload
// consumed by the viewer and the exporter. Every row must carry exactly the
// column key set of its report type; a mismatch is a defect in the emitting
// classifier and is reported, never silently truncated or padded.
func Assemble(t Type, rows []Row, summary Summary) (Payload, error) {
	columns, ok := reportColumns[t]
	if !ok {
		return Payload{}, fmt.Errorf("%w: %q", shared.ErrInvalidReportType, t)
	}
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.Title
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return Payload{}, fmt.Errorf("%w: %s row %d has %d columns, want %d",
				shared.ErrRowShape, t, i, len(row), len(columns))
		}
		for _, c := range columns {
			if _, present := row[c.Key]; !present {
				return Payload{}, fmt.Errorf("%w: %s row %d missing column %q",
					shared.ErrRowShape, t, i, c.Key)
			}
		}
	}
	if summary == nil {
		summary = Summary{}
	}
	return Payload{
		Type:    t,
		Title:   reportTitles[t],
		Headers: headers,
		Rows:    rows,
		Summary: summary,
	}, nil
}
