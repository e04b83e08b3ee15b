package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidReportType indicates an unrecognized report key, rejected before any query runs.
	ErrInvalidReportType = errors.New("invalid report type")
	// ErrInvalidDateRange indicates an unrecognized date range key.
	ErrInvalidDateRange = errors.New("invalid date range key")
	// ErrDataUnavailable indicates the backing store query failed or timed out.
	// Distinct from an empty result: empty means no matching data, this means we cannot know.
	ErrDataUnavailable = errors.New("report data unavailable")
	// ErrExportWriteFailed indicates the export artifact could not be written.
	// The payload was computed; callers may retry the export without regenerating it.
	ErrExportWriteFailed = errors.New("export write failed")
	// ErrRowShape indicates a classifier emitted a row whose columns do not match
	// the report headers. This is a defect, not an operational failure.
	ErrRowShape = errors.New("report row shape mismatch")
)
