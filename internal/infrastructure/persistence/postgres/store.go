package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ARYAN-095/GuardianWeb/internal/domain/scan"
	"github.com/ARYAN-095/GuardianWeb/internal/infrastructure/persistence/codec"
	sharedErrors "github.com/ARYAN-095/GuardianWeb/internal/shared/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DBPool abstracts *pgxpool.Pool so the store can be tested with pgxmock
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	schemaSQL = `
CREATE TABLE IF NOT EXISTS scan_records (
    id          UUID PRIMARY KEY,
    url         TEXT NOT NULL,
    scan_id     TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL,
    risk_score  INTEGER,
    risk_level  TEXT,
    document    JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS scan_records_url_created_idx ON scan_records (url, created_at DESC);
CREATE INDEX IF NOT EXISTS scan_records_scan_id_idx ON scan_records (scan_id);`

	insertSQL = `INSERT INTO scan_records (id, url, scan_id, created_at, risk_score, risk_level, document)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	latestSQL = `SELECT document FROM scan_records WHERE url = $1 ORDER BY created_at DESC LIMIT 1`

	byScanIDSQL = `SELECT document FROM scan_records WHERE scan_id = $1 ORDER BY created_at DESC LIMIT 1`

	historySQL = `SELECT document FROM scan_records WHERE url = $1 ORDER BY created_at DESC LIMIT $2`
)

// Store provides a PostgreSQL implementation of scan.Repository
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// Connect opens a pgx pool for dsn and wraps it in a Store
func Connect(ctx context.Context, dsn string, logger *zap.Logger) (*Store, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	store, err := New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}

// New creates a new store instance and verifies the connection
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{pool: pool, log: logger.Named("store")}, nil
}

// EnsureSchema creates the scan_records table and its indexes if missing
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Insert stores record and returns its generated identifier
func (s *Store) Insert(ctx context.Context, record *scan.ScanRecord) (string, error) {
	id := uuid.NewString()
	stored := record.WithID(id)

	doc, err := codec.Marshal(stored)
	if err != nil {
		return "", err
	}

	var score *int
	var level *string
	if v, ok := stored.RiskScore(); ok {
		l := string(stored.RiskLevel())
		score, level = &v, &l
	}

	if _, err := s.pool.Exec(ctx, insertSQL,
		id, stored.URL(), stored.ScanID(), stored.CreatedAt(), score, level, doc,
	); err != nil {
		return "", fmt.Errorf("failed to insert scan record: %w", err)
	}
	s.log.Debug("scan record inserted", zap.String("id", id), zap.String("url", stored.URL()))
	return id, nil
}

// Latest returns the most recent record for url
func (s *Store) Latest(ctx context.Context, url string) (*scan.ScanRecord, error) {
	return s.queryOne(ctx, latestSQL, url)
}

// FindByScanID returns the record whose scan identifier equals scanID
func (s *Store) FindByScanID(ctx context.Context, scanID string) (*scan.ScanRecord, error) {
	return s.queryOne(ctx, byScanIDSQL, scanID)
}

// History returns up to limit records for url, newest first
func (s *Store) History(ctx context.Context, url string, limit int) ([]*scan.ScanRecord, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.pool.Query(ctx, historySQL, url, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []*scan.ScanRecord
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		rec, err := codec.Unmarshal(doc)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return records, nil
}

func (s *Store) queryOne(ctx context.Context, sql string, arg string) (*scan.ScanRecord, error) {
	var doc []byte
	if err := s.pool.QueryRow(ctx, sql, arg).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sharedErrors.ErrScanNotFound
		}
		return nil, fmt.Errorf("failed to query scan record: %w", err)
	}
	return codec.Unmarshal(doc)
}
