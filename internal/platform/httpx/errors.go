// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/stockpulse/stockpulse/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. Internal
// error detail never crosses the boundary; callers get the taxonomy class
// and a generic message, the full chain stays in server logs.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidReportType):
		Problem(w, http.StatusBadRequest, "Invalid Report Type", "the requested report type is not recognized")
	case errors.Is(err, shared.ErrInvalidDateRange):
		Problem(w, http.StatusBadRequest, "Invalid Date Range", "the requested date range key is not recognized")
	case errors.Is(err, shared.ErrDataUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Data Unavailable", "report data could not be fetched, retry later")
	case errors.Is(err, shared.ErrExportWriteFailed):
		// Distinct from DataUnavailable: the payload was computed, only the
		// artifact write failed, so the caller may retry the export alone.
		Problem(w, http.StatusInsufficientStorage, "Export Write Failed", "the export file could not be written, retry the export")
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
