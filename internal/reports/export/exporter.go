// Package export serialises assembled report payloads to durable artifacts:
// an XLSX workbook for spreadsheet use, or a print-ready HTML document.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/stockpulse/stockpulse/internal/reports"
	"github.com/stockpulse/stockpulse/internal/shared"
)

// PrintRowCap bounds the print document to its first data rows; a truncation
// notice replaces the remainder. Deliberate contract: print output is for
// reading, the spreadsheet export carries the full set.
const PrintRowCap = 100

const filenameStamp = "2006-01-02_15-04-05"

// Artifact describes one written export file.
type Artifact struct {
	Filename string
	Path     string
	ByteSize int64
}

// Exporter writes report artifacts under a dedicated directory, creating it
// on first use. Writes are atomic: content lands in a temp file that is
// renamed into place, so a concurrent reader never sees a half-written file.
type Exporter struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// NewExporter constructs an Exporter rooted at dir.
func NewExporter(dir string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{dir: dir, logger: logger, now: time.Now}
}

// WithNow overrides the exporter clock for testing.
func (e *Exporter) WithNow(fn func() time.Time) {
	if fn != nil {
		e.now = fn
	}
}

// Dir returns the export directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// Export serialises the payload in the requested format and writes it.
func (e *Exporter) Export(payload reports.Payload, format reports.Format) (Artifact, error) {
	var (
		buf bytes.Buffer
		ext string
		err error
	)
	switch format {
	case reports.FormatSpreadsheet:
		ext = "xlsx"
		err = WriteWorkbook(&buf, payload)
	case reports.FormatPrint:
		ext = "html"
		err = WriteDocument(&buf, payload, PrintRowCap)
	default:
		return Artifact{}, fmt.Errorf("export: unknown format %q", format)
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("export: serialise %s: %w", payload.Type, err)
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return Artifact{}, fmt.Errorf("%w: create export dir: %v", shared.ErrExportWriteFailed, err)
	}

	tmp := filepath.Join(e.dir, ".tmp-"+uuid.NewString())
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return Artifact{}, fmt.Errorf("%w: write temp file: %v", shared.ErrExportWriteFailed, err)
	}

	filename, err := e.claimFilename(string(payload.Type), ext)
	if err != nil {
		_ = os.Remove(tmp)
		return Artifact{}, fmt.Errorf("%w: claim filename: %v", shared.ErrExportWriteFailed, err)
	}
	path := filepath.Join(e.dir, filename)
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		_ = os.Remove(path)
		return Artifact{}, fmt.Errorf("%w: rename into place: %v", shared.ErrExportWriteFailed, err)
	}

	size := int64(buf.Len())
	e.logger.Info("export written",
		slog.String("report", string(payload.Type)),
		slog.String("filename", filename),
		slog.Int64("bytes", size),
	)
	return Artifact{Filename: filename, Path: path, ByteSize: size}, nil
}

// claimFilename reserves {reportType}_{timestamp}.{ext} by creating the file
// with O_EXCL, walking numeric suffixes while the name is taken. The claim is
// atomic, so concurrent exports inside the same second each end up with their
// own filename; the caller renames the finished content over the placeholder.
func (e *Exporter) claimFilename(reportType, ext string) (string, error) {
	stamp := e.now().Format(filenameStamp)
	base := reportType + "_" + stamp
	name := base + "." + ext
	for i := 1; ; i++ {
		f, err := os.OpenFile(filepath.Join(e.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_ = f.Close()
			return name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
		name = base + "-" + strconv.Itoa(i) + "." + ext
	}
}

// FormatByteSize renders a byte count for humans, e.g. "12.4 KB".
func FormatByteSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
