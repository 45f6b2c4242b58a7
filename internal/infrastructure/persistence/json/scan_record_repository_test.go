package json

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
	sharedErrors "github.com/ARYAN-095/GuardianWeb/internal/shared/errors"
)

func newRecord(t *testing.T, url string, created time.Time, score int, messages ...string) *scan.ScanRecord {
	t.Helper()
	var findings []scan.Finding
	for _, m := range messages {
		findings = append(findings, scan.MustFinding(scan.FindingSpec{Type: scan.TypeSecurity, Message: m, Severity: scan.SeverityHigh}))
	}
	rec, err := scan.NewScanRecord(scan.RecordSpec{
		URL:       url,
		CreatedAt: created,
		RiskScore: score,
		Findings:  scan.Consolidate(findings),
	})
	if err != nil {
		t.Fatalf("failed to build record: %v", err)
	}
	return rec
}

func TestScanRecordRepository_InsertAndLatest(t *testing.T) {
	repo, err := NewScanRecordRepository(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	ctx := context.Background()
	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	for i, score := range []int{40, 90, 65} {
		rec := newRecord(t, "https://example.com", base.Add(time.Duration(i)*time.Minute), score, "Missing Content-Security-Policy header")
		id, err := repo.Insert(ctx, rec)
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		if id == "" {
			t.Fatalf("insert %d returned empty id", i)
		}
	}
	if _, err := repo.Insert(ctx, newRecord(t, "https://other.example", base.Add(time.Hour), 10)); err != nil {
		t.Fatalf("insert other: %v", err)
	}

	latest, err := repo.Latest(ctx, "https://example.com")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if score, _ := latest.RiskScore(); score != 65 {
		t.Errorf("expected newest record (score 65), got %d", score)
	}
	if latest.ID() == "" {
		t.Error("expected stored record to carry its id")
	}

	history, err := repo.History(ctx, "https://example.com", 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || !history[0].CreatedAt().After(history[1].CreatedAt()) {
		t.Fatalf("expected 2 records newest first, got %d", len(history))
	}
}

func TestScanRecordRepository_LatestNotFound(t *testing.T) {
	repo, err := NewScanRecordRepository(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Latest(context.Background(), "https://never.example"); !errors.Is(err, sharedErrors.ErrScanNotFound) {
		t.Fatalf("expected ErrScanNotFound, got %v", err)
	}
}

func TestScanRecordRepository_FindByScanID(t *testing.T) {
	repo, err := NewScanRecordRepository(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	created := time.Date(2026, 5, 4, 10, 0, 0, 987654321, time.UTC)
	rec := newRecord(t, "https://example.com/a", created, 77, "Missing Referrer-Policy header")
	if _, err := repo.Insert(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, err := repo.FindByScanID(ctx, rec.ScanID())
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.URL() != "https://example.com/a" {
		t.Errorf("unexpected url %q", got.URL())
	}

	if _, err := repo.FindByScanID(ctx, "2026-05-04T10:00:01Z"); !errors.Is(err, sharedErrors.ErrScanNotFound) {
		t.Errorf("expected ErrScanNotFound, got %v", err)
	}
	if _, err := repo.FindByScanID(ctx, "not-a-timestamp"); !errors.Is(err, sharedErrors.ErrScanNotFound) {
		t.Errorf("expected ErrScanNotFound for malformed id, got %v", err)
	}
}

func TestScanRecordRepository_ConcurrentInserts(t *testing.T) {
	repo, err := NewScanRecordRepository(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	records := make([]*scan.ScanRecord, 20)
	for i := range records {
		records[i] = newRecord(t, "https://example.com", base.Add(time.Duration(i)*time.Second), i, fmt.Sprintf("issue %d", i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(records))
	for _, rec := range records {
		wg.Add(1)
		go func(rec *scan.ScanRecord) {
			defer wg.Done()
			if _, err := repo.Insert(ctx, rec); err != nil {
				errs <- err
			}
		}(rec)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent insert failed: %v", err)
	}

	all, err := repo.History(ctx, "https://example.com", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 20 {
		t.Fatalf("expected 20 records, got %d", len(all))
	}
}

func TestScanRecordRepository_Ping(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewScanRecordRepository(dir)
	if err != nil {
		t.Fatalf("NewScanRecordRepository: %v", err)
	}
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("expected ping to succeed, got %v", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := repo.Ping(context.Background()); err == nil {
		t.Fatal("expected ping to fail for a missing directory")
	}
}

func TestScanRecordRepository_RelativeParentDir(t *testing.T) {
	base := t.TempDir()
	work := filepath.Join(base, "work")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(work)

	repo, err := NewScanRecordRepository("../scans")
	if err != nil {
		t.Fatalf("NewScanRecordRepository: %v", err)
	}
	ctx := context.Background()
	rec := newRecord(t, "https://example.com", time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC), 70, "Missing X-Frame-Options header")
	if _, err := repo.Insert(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := os.Stat(filepath.Join(base, "scans", targetDir("https://example.com"))); err != nil {
		t.Fatalf("expected record under the parent scans dir: %v", err)
	}
	if _, err := repo.Latest(ctx, "https://example.com"); err != nil {
		t.Fatalf("latest: %v", err)
	}
	history, err := repo.History(ctx, "https://example.com", 0)
	if err != nil || len(history) != 1 {
		t.Fatalf("history = %d records, err %v", len(history), err)
	}
	if _, err := repo.FindByScanID(ctx, rec.ScanID()); err != nil {
		t.Fatalf("find by scan id: %v", err)
	}
}
