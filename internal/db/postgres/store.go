// Package postgres serves list queries for the current site from a Postgres table.
//
// Items live in one table keyed by site and collection, with every list field in a jsonb column:
//
//	CREATE TABLE rollup_items (
//	    site_url        text        NOT NULL,
//	    collection      text        NOT NULL,
//	    collection_id   text        NOT NULL,
//	    item_id         text        NOT NULL,
//	    content_type_id text        NOT NULL DEFAULT '',
//	    modified        timestamptz NOT NULL,
//	    fields          jsonb       NOT NULL DEFAULT '{}',
//	    PRIMARY KEY (collection_id, item_id)
//	);
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kailas-cloud/rollup/internal/db"
)

// querier is the subset of pgxpool.Pool used by Store.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// Store runs list queries against the rollup_items table.
type Store struct {
	conn  querier
	close func()
}

// NewStore connects a pool to dsn and verifies it with a ping.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{conn: pool, close: pool.Close}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// QueryList runs q and returns one row per item, projected onto q.Fields.
func (s *Store) QueryList(ctx context.Context, q db.ListQuery) ([]db.Row, error) {
	sql, args := buildListSQL(q)
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query list %q: %w", q.Collection, err)
	}
	defer rows.Close()

	var out []db.Row
	for rows.Next() {
		var (
			collectionID, itemID, contentTypeID string
			modified                            time.Time
			fieldsJSON                          []byte
		)
		if err := rows.Scan(&collectionID, &itemID, &contentTypeID, &modified, &fieldsJSON); err != nil {
			return nil, fmt.Errorf("scan list row: %w", err)
		}
		row, err := toRow(collectionID, itemID, contentTypeID, modified, fieldsJSON, q.Fields)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate list rows: %w", err)
	}
	return out, nil
}

func toRow(collectionID, itemID, contentTypeID string, modified time.Time, fieldsJSON []byte, selected []string) (db.Row, error) {
	fields := map[string]any{}
	if len(fieldsJSON) > 0 {
		if err := json.Unmarshal(fieldsJSON, &fields); err != nil {
			return nil, fmt.Errorf("decode fields of item %s: %w", itemID, err)
		}
	}

	row := db.Row{}
	if len(selected) == 0 {
		for k, v := range fields {
			row[k] = v
		}
	} else {
		for _, name := range selected {
			if v, ok := lookupFold(fields, name); ok {
				row[name] = v
			}
		}
	}
	row["ID"] = itemID
	row["ListId"] = collectionID
	row["ContentTypeId"] = contentTypeID
	row["Modified"] = modified
	return row, nil
}

func lookupFold(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}
