package json

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
	"github.com/ARYAN-095/GuardianWeb/internal/infrastructure/persistence/codec"
	"github.com/ARYAN-095/GuardianWeb/internal/shared/constants"
	sharedErrors "github.com/ARYAN-095/GuardianWeb/internal/shared/errors"
	"github.com/ARYAN-095/GuardianWeb/internal/shared/security"
	"github.com/google/uuid"
)

// fileTimeLayout sorts lexically in chronological order
const fileTimeLayout = "20060102T150405.000000000Z"

// ScanRecordRepository implements the scan.Repository interface using one
// JSON file per record, grouped in a directory per target URL. Files are
// created exclusively and never rewritten.
type ScanRecordRepository struct {
	root security.Root
	mu   sync.RWMutex
}

// NewScanRecordRepository creates a new JSON-based scan record repository
func NewScanRecordRepository(dataDir string) (*ScanRecordRepository, error) {
	root, err := security.NewRoot(dataDir)
	if err != nil {
		return nil, fmt.Errorf("invalid data directory: %w", err)
	}
	if err := os.MkdirAll(root.String(), constants.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &ScanRecordRepository{root: root}, nil
}

// Ping checks that the data directory is still usable
func (r *ScanRecordRepository) Ping(_ context.Context) error {
	info, err := os.Stat(r.root.String())
	if err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory %s is not a directory", r.root)
	}
	return nil
}

// Insert stores record and returns its generated identifier
func (r *ScanRecordRepository) Insert(ctx context.Context, record *scan.ScanRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	data, err := codec.Marshal(record.WithID(id))
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dir, err := r.root.Join(targetDir(record.URL()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", sharedErrors.ErrRepositoryOperation, err)
	}
	if err := os.MkdirAll(dir, constants.DefaultDirPerm); err != nil {
		return "", fmt.Errorf("failed to create target directory: %w", err)
	}

	name := record.CreatedAt().UTC().Format(fileTimeLayout) + "-" + id + ".json"
	file, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, constants.DefaultFilePerm)
	if err != nil {
		return "", fmt.Errorf("failed to create record file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("failed to write record: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close record file: %w", err)
	}
	return id, nil
}

// Latest returns the most recent record for url
func (r *ScanRecordRepository) Latest(ctx context.Context, url string) (*scan.ScanRecord, error) {
	records, err := r.History(ctx, url, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, sharedErrors.ErrScanNotFound
	}
	return records[0], nil
}

// History returns up to limit records for url, newest first. A limit <= 0
// returns every record.
func (r *ScanRecordRepository) History(ctx context.Context, url string, limit int) ([]*scan.ScanRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dir, err := r.root.Join(targetDir(url))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sharedErrors.ErrRepositoryOperation, err)
	}
	files, err := recordFiles(dir)
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	var records []*scan.ScanRecord
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if limit > 0 && len(records) >= limit {
			break
		}
		rec, err := r.loadFromFile(filepath.Join(dir, f))
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// FindByScanID returns the record created at the timestamp scanID
func (r *ScanRecordRepository) FindByScanID(ctx context.Context, scanID string) (*scan.ScanRecord, error) {
	created, err := parseScanID(scanID)
	if err != nil {
		return nil, err
	}
	prefix := created + "-"

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.root.String())
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		dir, err := r.root.Join(entry.Name())
		if err != nil {
			continue
		}
		files, err := recordFiles(dir)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if !strings.HasPrefix(f, prefix) {
				continue
			}
			rec, err := r.loadFromFile(filepath.Join(dir, f))
			if err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", f, err)
			}
			if rec.ScanID() == scanID {
				return rec, nil
			}
		}
	}
	return nil, sharedErrors.ErrScanNotFound
}

// Helper methods

// targetDir derives a stable directory name for a URL
func targetDir(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:16])
}

func parseScanID(scanID string) (string, error) {
	t, err := time.Parse(scan.ScanIDLayout, scanID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", sharedErrors.ErrScanNotFound, err)
	}
	return t.UTC().Format(fileTimeLayout), nil
}

func recordFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			files = append(files, e.Name())
		}
	}
	return files, nil
}

func (r *ScanRecordRepository) loadFromFile(path string) (*scan.ScanRecord, error) {
	if !r.root.Contains(path) {
		return nil, fmt.Errorf("%w: %s", security.ErrPathEscape, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return codec.Unmarshal(data)
}
