// Package reporthttp exposes the report generation and export endpoints.
package reporthttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockpulse/stockpulse/internal/platform/httpx"
	"github.com/stockpulse/stockpulse/internal/reports"
	"github.com/stockpulse/stockpulse/internal/reports/export"
	"github.com/stockpulse/stockpulse/internal/reports/ledger"
	"github.com/stockpulse/stockpulse/internal/shared"
)

// FileBasePath is the URL prefix under which export artifacts are served.
const FileBasePath = "/reports/exports/files"

// ReportService is the payload generation contract used by the handler.
type ReportService interface {
	Generate(ctx context.Context, req reports.Request) (reports.Payload, error)
}

// ExportService writes payloads to durable artifacts.
type ExportService interface {
	Export(payload reports.Payload, format reports.Format) (export.Artifact, error)
	Dir() string
}

// LedgerService records completed exports and lists them.
type LedgerService interface {
	Append(ctx context.Context, ownerID string, t reports.Type, format reports.Format, artifact export.Artifact) (ledger.Record, error)
	ListRecent(ctx context.Context, ownerID string, limit int) ([]ledger.Entry, error)
}

// Handler coordinates HTTP requests for the reporting engine.
type Handler struct {
	logger   *slog.Logger
	service  ReportService
	exporter ExportService
	ledger   LedgerService
	validate *validator.Validate
}

// NewHandler constructs the report HTTP handler.
func NewHandler(logger *slog.Logger, service ReportService, exporter ExportService, ledgerSvc LedgerService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		service:  service,
		exporter: exporter,
		ledger:   ledgerSvc,
		validate: validator.New(),
	}
}

type generateRequest struct {
	ReportType   string `json:"reportType" validate:"required"`
	DateRangeKey string `json:"dateRangeKey"`
	ZoneFilter   string `json:"zoneFilter"`
	Mode         string `json:"mode" validate:"required,oneof=view export"`
	ExportFormat string `json:"exportFormat" validate:"required_if=Mode export,omitempty,oneof=spreadsheet print"`
}

type exportResponse struct {
	Filename      string `json:"filename"`
	FileURL       string `json:"fileUrl"`
	FileSizeHuman string `json:"fileSizeHuman"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor identity required")
		return
	}

	var req generateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", "request body is not valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}

	payload, err := h.service.Generate(r.Context(), reports.Request{
		Type:     reports.Type(req.ReportType),
		RangeKey: req.DateRangeKey,
		Zone:     strings.TrimSpace(req.ZoneFilter),
	})
	if err != nil {
		h.logError(r, "generate report", err)
		httpx.RespondError(w, err)
		return
	}

	if req.Mode == "view" {
		httpx.JSON(w, http.StatusOK, payload)
		return
	}

	format, err := reports.ParseFormat(req.ExportFormat)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown export format")
		return
	}
	artifact, err := h.exporter.Export(payload, format)
	if err != nil {
		h.logError(r, "write export", err)
		httpx.RespondError(w, err)
		return
	}
	if _, err := h.ledger.Append(r.Context(), actor.ID, payload.Type, format, artifact); err != nil {
		h.logError(r, "append export record", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, exportResponse{
		Filename:      artifact.Filename,
		FileURL:       FileBasePath + "/" + artifact.Filename,
		FileSizeHuman: export.FormatByteSize(artifact.ByteSize),
	})
}

func (h *Handler) handleRecentExports(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor identity required")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "limit must be an integer")
			return
		}
		limit = parsed
	}
	entries, err := h.ledger.ListRecent(r.Context(), actor.ID, limit)
	if err != nil {
		h.logError(r, "list recent exports", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"exports": entries})
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor identity required")
		return
	}
	name := chi.URLParam(r, "filename")
	// The export directory is flat; anything that is not a plain file name
	// inside it is rejected.
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid export filename")
		return
	}
	path := filepath.Join(h.exporter.Dir(), name)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
	http.ServeFile(w, r, path)
}

func (h *Handler) logError(r *http.Request, action string, err error) {
	level := slog.LevelError
	if errors.Is(err, shared.ErrInvalidReportType) || errors.Is(err, shared.ErrInvalidDateRange) {
		level = slog.LevelWarn
	}
	h.logger.Log(r.Context(), level, action+" failed",
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return "invalid field: " + verrs[0].Field()
	}
	return "request validation failed"
}
