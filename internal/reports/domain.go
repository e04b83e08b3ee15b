package reports

import (
	"fmt"
	"time"

	"github.com/stockpulse/stockpulse/internal/shared"
)

// Type enumerates the supported report kinds.
type Type string

const (
	// TypeABCAnalysis ranks SKUs by cumulative picked value (Pareto).
	TypeABCAnalysis Type = "abc-analysis"
	// TypeStockAging buckets stored lots by age and proximity to expiry.
	TypeStockAging Type = "stock-aging"
	// TypeInventoryValuation totals stock value per SKU and zone.
	TypeInventoryValuation Type = "inventory-valuation"
	// TypeLowStock alerts on SKUs at or below their minimum stock level.
	TypeLowStock Type = "low-stock"
	// TypeTransactionHistory lists raw movement events in a window.
	TypeTransactionHistory Type = "transaction-history"
	// TypePickEfficiency reports per-user per-day picking rates.
	TypePickEfficiency Type = "pick-efficiency"
	// TypeMovementSummary aggregates movements per day and event type.
	TypeMovementSummary Type = "movement-summary"
	// TypeFEFOCompliance checks picks against the earliest-expiry discipline.
	TypeFEFOCompliance Type = "fefo-compliance"
	// TypeSpaceUtilization reports occupied vs total locations per zone.
	TypeSpaceUtilization Type = "space-utilization"
	// TypeProductivity aggregates per-user activity over the window.
	TypeProductivity Type = "productivity-analysis"
)

var knownTypes = map[Type]bool{
	TypeABCAnalysis:        true,
	TypeStockAging:         true,
	TypeInventoryValuation: true,
	TypeLowStock:           true,
	TypeTransactionHistory: true,
	TypePickEfficiency:     true,
	TypeMovementSummary:    true,
	TypeFEFOCompliance:     true,
	TypeSpaceUtilization:   true,
	TypeProductivity:       true,
}

// ParseType validates a report type key before any query runs.
func ParseType(raw string) (Type, error) {
	t := Type(raw)
	if !knownTypes[t] {
		return "", fmt.Errorf("%w: %q", shared.ErrInvalidReportType, raw)
	}
	return t, nil
}

// Snapshot reports reflect current state only and ignore the date window.
func (t Type) Snapshot() bool {
	switch t {
	case TypeStockAging, TypeInventoryValuation, TypeLowStock, TypeSpaceUtilization:
		return true
	}
	return false
}

// Format enumerates export document kinds.
type Format string

const (
	// FormatSpreadsheet produces an XLSX workbook, uncapped.
	FormatSpreadsheet Format = "spreadsheet"
	// FormatPrint produces a print-ready HTML document capped at 100 data rows.
	FormatPrint Format = "print"
)

// ParseFormat validates an export format key.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(raw); f {
	case FormatSpreadsheet, FormatPrint:
		return f, nil
	}
	return "", fmt.Errorf("invalid export format %q", raw)
}

// DateWindow bounds a date-filtered report, inclusive on both ends.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// Request describes one report generation.
type Request struct {
	Type     Type
	RangeKey string
	Zone     string
}

// Row is a flat column-to-scalar mapping. All rows of one payload share the
// same key set; Assemble enforces this.
type Row map[string]any

// Summary holds the derived aggregate fields of a report.
type Summary map[string]any

// Payload is the assembled report consumed by both the viewer and the exporter.
type Payload struct {
	Type    Type     `json:"reportType"`
	Title   string   `json:"title"`
	Headers []string `json:"headers"`
	Rows    []Row    `json:"data"`
	Summary Summary  `json:"summary"`
}
