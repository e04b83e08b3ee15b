// Package ledger keeps one immutable record per completed export. It is a
// log, not a store: files may be pruned externally, listings only annotate
// whether the artifact still exists.
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Record is the durable trace of one export. Created once, never updated.
type Record struct {
	ID         uuid.UUID
	OwnerID    string
	ReportType string
	Format     string
	Filename   string
	ByteSize   int64
	CreatedAt  time.Time
}

// Entry is a listing row: the record plus presentation fields and the
// on-disk existence check.
type Entry struct {
	ReportName string    `json:"reportName"`
	ReportType string    `json:"reportType"`
	Format     string    `json:"format"`
	Filename   string    `json:"filename"`
	SizeHuman  string    `json:"sizeHuman"`
	CreatedAt  time.Time `json:"createdAt"`
	FileURL    string    `json:"fileUrl"`
	FileExists bool      `json:"fileExists"`
}
