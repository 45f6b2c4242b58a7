package scan

import "context"

// Repository defines the interface for scan record persistence. Inserts are
// append-only and must be safe for concurrent use.
type Repository interface {
	// Insert stores a record and returns an opaque storage identifier
	Insert(ctx context.Context, record *ScanRecord) (string, error)

	// Latest returns the most recent record for a target URL, or
	// errors.ErrScanNotFound when the target was never scanned
	Latest(ctx context.Context, url string) (*ScanRecord, error)

	// FindByScanID returns the record whose creation timestamp equals scanID
	FindByScanID(ctx context.Context, scanID string) (*ScanRecord, error)

	// History returns up to limit records for a target URL, newest first
	History(ctx context.Context, url string, limit int) ([]*ScanRecord, error)
}
