// Package postgres implements the document store on PostgreSQL: one JSONB
// row per document, keyed by collection and id, with in-process snapshot
// fan-out for subscriptions.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kababistan/orderhub/db"
	"github.com/kababistan/orderhub/internal/docstore"
)

// NewPool creates a pgxpool.Pool configured with shopspring/decimal support
// for NUMERIC columns.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	return pool, nil
}

// RunMigrations executes the embedded DDL schema against the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, db.Schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

var _ docstore.Store = (*Store)(nil)

// Store implements docstore.Store backed by PostgreSQL.
//
// Subscriptions are fanned out in-process after each local mutation, which is
// correct for a single backend instance (the deployment model here); a
// multi-instance deployment would need LISTEN/NOTIFY plumbed underneath.
type Store struct {
	pool *pgxpool.Pool
	hub  *hub
}

// New returns a Store that uses the given pool.
func New(pool *pgxpool.Pool) *Store {
	s := &Store{pool: pool}
	s.hub = newHub(s.snapshot)
	return s
}

const setSQL = `INSERT INTO documents (collection, id, doc)
	VALUES ($1, $2, $3)
	ON CONFLICT (collection, id) DO UPDATE SET doc = EXCLUDED.doc`

// Set stores the document, replacing any existing one.
func (s *Store) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "marshal document")
	}
	if _, err := s.pool.Exec(ctx, setSQL, collection, id, raw); err != nil {
		return errors.Wrapf(err, "set %s/%s", collection, id)
	}
	s.hub.notify(collection)
	return nil
}

const updateSQL = `UPDATE documents SET doc = doc || $3
	WHERE collection = $1 AND id = $2`

// Update merges fields into an existing document via JSONB concatenation.
// Returns docstore.ErrNotFound when no row matches.
func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Document) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return errors.Wrap(err, "marshal fields")
	}
	tag, err := s.pool.Exec(ctx, updateSQL, collection, id, raw)
	if err != nil {
		return errors.Wrapf(err, "update %s/%s", collection, id)
	}
	if tag.RowsAffected() == 0 {
		return docstore.ErrNotFound
	}
	s.hub.notify(collection)
	return nil
}

const deleteSQL = `DELETE FROM documents WHERE collection = $1 AND id = $2`

// Delete removes a document. Returns docstore.ErrNotFound when no row
// matches.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	tag, err := s.pool.Exec(ctx, deleteSQL, collection, id)
	if err != nil {
		return errors.Wrapf(err, "delete %s/%s", collection, id)
	}
	if tag.RowsAffected() == 0 {
		return docstore.ErrNotFound
	}
	s.hub.notify(collection)
	return nil
}

const getSQL = `SELECT doc FROM documents WHERE collection = $1 AND id = $2`

// Get returns the stored document, or docstore.ErrNotFound.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, getSQL, collection, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, docstore.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get %s/%s", collection, id)
	}

	var doc docstore.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "unmarshal document")
	}
	return doc, nil
}

// Query returns the matching documents of a collection. Ordering uses the
// row insertion timestamp, which tracks document creation time for the
// insert-once collections this store serves.
func (s *Store) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	sql := `SELECT doc FROM documents WHERE collection = $1`
	args := []any{collection}
	if q.FilterField != "" {
		sql += ` AND doc->>$2 = $3`
		args = append(args, q.FilterField, q.FilterValue)
	}
	if q.OrderBy != "" {
		if q.Descending {
			sql += ` ORDER BY created_at DESC`
		} else {
			sql += ` ORDER BY created_at ASC`
		}
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", collection)
	}
	defer rows.Close()

	var out []docstore.Document
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.Wrap(err, "scan document")
		}
		var doc docstore.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, errors.Wrap(err, "unmarshal document")
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Subscribe registers a snapshot feed for the query. The current snapshot is
// delivered immediately; ctx cancellation is equivalent to Stop.
func (s *Store) Subscribe(ctx context.Context, collection string, q docstore.Query) (*docstore.Subscription, error) {
	return s.hub.subscribe(ctx, collection, q)
}

// snapshot is the hub's query callback, bounded so a slow database cannot
// wedge the fan-out goroutine.
func (s *Store) snapshot(collection string, q docstore.Query) ([]docstore.Document, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Query(ctx, collection, q)
}

// DayStats aggregates one calendar day of an order collection.
type DayStats struct {
	Orders  int64
	Revenue decimal.Decimal
}

const dailyStatsSQL = `SELECT COUNT(*),
	COALESCE(SUM((doc->>'total')::numeric), 0)
	FROM documents
	WHERE collection = $1
	AND created_at::date = $2::date
	AND COALESCE(doc->>'status', '') <> 'Cancelled'`

// DailyStats returns the order count and revenue for the given day,
// excluding cancelled orders.
func (s *Store) DailyStats(ctx context.Context, collection string, day time.Time) (DayStats, error) {
	var st DayStats
	err := s.pool.QueryRow(ctx, dailyStatsSQL, collection, day).Scan(&st.Orders, &st.Revenue)
	if err != nil {
		return DayStats{}, errors.Wrap(err, "daily stats")
	}
	return st, nil
}
