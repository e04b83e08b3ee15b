package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository persists export records in PostgreSQL, append only.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs PGRepository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert appends one export record.
func (r *PGRepository) Insert(ctx context.Context, rec Record) error {
	if r == nil || r.pool == nil {
		return errors.New("ledger repository not initialised")
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO report_exports (id, owner_id, report_type, format, filename, byte_size, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, rec.ID, rec.OwnerID, rec.ReportType, rec.Format, rec.Filename, rec.ByteSize, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("ledger: insert export record: %w", err)
	}
	return nil
}

// ListRecent returns the owner's newest export records, capped at limit.
func (r *PGRepository) ListRecent(ctx context.Context, ownerID string, limit int) ([]Record, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("ledger repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, owner_id, report_type, format, filename, byte_size, created_at
FROM report_exports
WHERE owner_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: list exports: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.ReportType, &rec.Format, &rec.Filename, &rec.ByteSize, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("ledger: scan export record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: list exports: %w", err)
	}
	return records, nil
}
