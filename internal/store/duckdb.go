// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"

	"github.com/tomtom215/shopranker/internal/config"
	"github.com/tomtom215/shopranker/internal/models"
)

// counterColumns maps a counter kind to its column. Only these names are ever
// interpolated into SQL.
var counterColumns = map[models.CounterKind]string{
	models.CounterViews:     "views",
	models.CounterLikes:     "likes",
	models.CounterShares:    "shares",
	models.CounterPurchases: "purchases",
}

var duckdbSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id        VARCHAR PRIMARY KEY,
		category  VARCHAR NOT NULL,
		is_active BOOLEAN NOT NULL,
		doc       VARCHAR NOT NULL,
		views     BIGINT NOT NULL DEFAULT 0,
		likes     BIGINT NOT NULL DEFAULT 0,
		shares    BIGINT NOT NULL DEFAULT 0,
		purchases BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE SEQUENCE IF NOT EXISTS interaction_seq START 1`,
	`CREATE TABLE IF NOT EXISTS interactions (
		seq     BIGINT PRIMARY KEY DEFAULT nextval('interaction_seq'),
		user_id VARCHAR NOT NULL,
		doc     VARCHAR NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_id)`,
}

// DuckDB keeps products and interactions in two tables. Counters are columns
// so an increment is a single UPDATE ... RETURNING.
type DuckDB struct {
	conn *sql.DB

	// Per-row write locks; concurrent UPDATEs of one row conflict in DuckDB.
	rowLocks sync.Map
}

// OpenDuckDB opens a database file at path, or an in-memory database when path
// is empty, and creates the schema.
func OpenDuckDB(ctx context.Context, path string) (*DuckDB, error) {
	if path != "" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	conn, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, q := range duckdbSchema {
		if _, err := conn.ExecContext(ctx, q); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return &DuckDB{conn: conn}, nil
}

func (d *DuckDB) Name() string { return config.BackendDuckDB }

func (d *DuckDB) Ping(ctx context.Context) error { return d.conn.PingContext(ctx) }

func (d *DuckDB) Close() error { return d.conn.Close() }

func (d *DuckDB) lockRow(id string) func() {
	v, _ := d.rowLocks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (d *DuckDB) PutProduct(ctx context.Context, p models.Product) error {
	if p.ID == "" {
		return models.Invalidf("put_product", "product id is required")
	}
	c := p.Analytics
	p.Analytics = models.Counters{}
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}

	defer d.lockRow(p.ID)()
	_, err = d.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO products (id, category, is_active, doc, views, likes, shares, purchases)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Category, p.IsActive, string(doc), c.Views, c.Likes, c.Shares, c.Purchases)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (models.Product, error) {
	var (
		p   models.Product
		doc string
		c   models.Counters
	)
	if err := row.Scan(&doc, &c.Views, &c.Likes, &c.Shares, &c.Purchases); err != nil {
		return p, err
	}
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return p, fmt.Errorf("decode product: %w", err)
	}
	p.Analytics = c
	return p, nil
}

const productColumns = `doc, views, likes, shares, purchases`

func (d *DuckDB) GetProduct(ctx context.Context, id string) (models.Product, error) {
	row := d.conn.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return p, models.NotFoundf("get_product", id)
	}
	return p, err
}

func (d *DuckDB) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	var args []any
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.ActiveOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY id`

	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (d *DuckDB) Increment(ctx context.Context, id string, kind models.CounterKind) (models.Counters, error) {
	col, ok := counterColumns[kind]
	if !ok {
		return models.Counters{}, models.Invalidf("increment", "unknown counter %q", kind)
	}

	defer d.lockRow(id)()
	var c models.Counters
	err := d.conn.QueryRowContext(ctx,
		`UPDATE products SET `+col+` = `+col+` + 1 WHERE id = ? RETURNING views, likes, shares, purchases`, id,
	).Scan(&c.Views, &c.Likes, &c.Shares, &c.Purchases)
	if errors.Is(err, sql.ErrNoRows) {
		return c, models.NotFoundf("increment", id)
	}
	if err != nil {
		return c, fmt.Errorf("increment %s: %w", col, err)
	}
	return c, nil
}

func (d *DuckDB) GetCounters(ctx context.Context, id string) (models.Counters, error) {
	var c models.Counters
	err := d.conn.QueryRowContext(ctx,
		`SELECT views, likes, shares, purchases FROM products WHERE id = ?`, id,
	).Scan(&c.Views, &c.Likes, &c.Shares, &c.Purchases)
	if errors.Is(err, sql.ErrNoRows) {
		return c, models.NotFoundf("get_counters", id)
	}
	return c, err
}

func (d *DuckDB) AppendInteraction(ctx context.Context, userID string, ev models.Interaction) error {
	doc, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}
	_, err = d.conn.ExecContext(ctx, `INSERT INTO interactions (user_id, doc) VALUES (?, ?)`, userID, string(doc))
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

func (d *DuckDB) GetInteractions(ctx context.Context, userID string) (models.InteractionRecord, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT doc FROM interactions WHERE user_id = ? ORDER BY seq`, userID)
	if err != nil {
		return models.InteractionRecord{}, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	rec := models.InteractionRecord{UserID: userID}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return models.InteractionRecord{}, err
		}
		var ev models.Interaction
		if err := json.Unmarshal([]byte(doc), &ev); err != nil {
			return models.InteractionRecord{}, fmt.Errorf("decode interaction: %w", err)
		}
		rec.Interactions = append(rec.Interactions, ev)
	}
	if err := rows.Err(); err != nil {
		return models.InteractionRecord{}, err
	}
	if len(rec.Interactions) == 0 {
		return models.InteractionRecord{}, models.NotFoundf("get_interactions", userID)
	}
	return rec, nil
}

var _ Backend = (*DuckDB)(nil)
