package ledger

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/stockpulse/stockpulse/internal/reports"
	"github.com/stockpulse/stockpulse/internal/reports/export"
)

const (
	defaultListLimit = 20
	maxListLimit     = 50
)

// Repository is the persistence contract for export records.
type Repository interface {
	Insert(ctx context.Context, rec Record) error
	ListRecent(ctx context.Context, ownerID string, limit int) ([]Record, error)
}

// Service appends export records and lists them with file annotations.
type Service struct {
	repo      Repository
	exportDir string
	fileBase  string
	now       func() time.Time
}

// NewService wires the ledger over its repository. fileBase is the URL path
// prefix under which export artifacts are served.
func NewService(repo Repository, exportDir, fileBase string) *Service {
	return &Service{repo: repo, exportDir: exportDir, fileBase: fileBase, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Append records one completed export. The record is immutable afterwards.
func (s *Service) Append(ctx context.Context, ownerID string, t reports.Type, format reports.Format, artifact export.Artifact) (Record, error) {
	rec := Record{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		ReportType: string(t),
		Format:     string(format),
		Filename:   artifact.Filename,
		ByteSize:   artifact.ByteSize,
		CreatedAt:  s.now(),
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ListRecent returns the owner's newest exports, newest first, annotated with
// whether each artifact still exists on disk.
func (s *Service) ListRecent(ctx context.Context, ownerID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	records, err := s.repo.ListRecent(ctx, ownerID, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		_, statErr := os.Stat(filepath.Join(s.exportDir, rec.Filename))
		entries = append(entries, Entry{
			ReportName: reports.Title(reports.Type(rec.ReportType)),
			ReportType: rec.ReportType,
			Format:     rec.Format,
			Filename:   rec.Filename,
			SizeHuman:  export.FormatByteSize(rec.ByteSize),
			CreatedAt:  rec.CreatedAt,
			FileURL:    s.fileBase + "/" + rec.Filename,
			FileExists: statErr == nil,
		})
	}
	return entries, nil
}
