package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore reads the menu knowledge base from PostgreSQL. The tables are
// written by the seed loader.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := InitSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

// InitSchema creates the catalog tables. Shared with the seed loader.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS restaurant_info (
			name TEXT PRIMARY KEY,
			country TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			services JSONB NOT NULL DEFAULT '[]',
			payment_methods JSONB NOT NULL DEFAULT '[]'
		);`,
		`CREATE TABLE IF NOT EXISTS menu_categories (
			name TEXT PRIMARY KEY,
			type TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS menu_items (
			name TEXT PRIMARY KEY,
			category TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			sizes TEXT NOT NULL DEFAULT 'Standard',
			price DOUBLE PRECISION NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS deals (
			name TEXT PRIMARY KEY,
			description TEXT NOT NULL DEFAULT '',
			items_included TEXT NOT NULL DEFAULT '',
			availability TEXT NOT NULL DEFAULT '',
			price DOUBLE PRECISION NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS dips (
			name TEXT PRIMARY KEY,
			price DOUBLE PRECISION NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS crust_types (
			name TEXT PRIMARY KEY,
			extra_price DOUBLE PRECISION NOT NULL DEFAULT 0
		);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init catalog schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Info(ctx context.Context) (RestaurantInfo, error) {
	var info RestaurantInfo
	var services, payments []byte
	err := s.pool.QueryRow(ctx,
		`SELECT name, country, description, services, payment_methods FROM restaurant_info LIMIT 1`,
	).Scan(&info.Name, &info.Country, &info.Description, &services, &payments)
	if errors.Is(err, pgx.ErrNoRows) {
		return RestaurantInfo{}, nil
	}
	if err != nil {
		return RestaurantInfo{}, fmt.Errorf("query restaurant info: %w", err)
	}
	if err := json.Unmarshal(services, &info.Services); err != nil {
		return RestaurantInfo{}, fmt.Errorf("decode services: %w", err)
	}
	if err := json.Unmarshal(payments, &info.PaymentMethods); err != nil {
		return RestaurantInfo{}, fmt.Errorf("decode payment methods: %w", err)
	}
	return info, nil
}

func (s *PostgresStore) Items(ctx context.Context, query string) ([]Item, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if query == "" {
		rows, err = s.pool.Query(ctx,
			`SELECT name, category, description, sizes, price FROM menu_items ORDER BY category, name`)
	} else {
		pattern := "%" + query + "%"
		rows, err = s.pool.Query(ctx,
			`SELECT name, category, description, sizes, price FROM menu_items
			 WHERE name ILIKE $1 OR category ILIKE $1 OR description ILIKE $1
			 ORDER BY category, name`,
			pattern)
	}
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.Name, &it.Category, &it.Description, &it.Sizes, &it.Price); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu items: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) Deals(ctx context.Context) ([]Deal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, description, items_included, availability, price FROM deals ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query deals: %w", err)
	}
	defer rows.Close()

	var deals []Deal
	for rows.Next() {
		var d Deal
		if err := rows.Scan(&d.Name, &d.Description, &d.ItemsIncluded, &d.Availability, &d.Price); err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deals: %w", err)
	}
	return deals, nil
}

func (s *PostgresStore) Dips(ctx context.Context) ([]Dip, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, price FROM dips ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query dips: %w", err)
	}
	defer rows.Close()

	var dips []Dip
	for rows.Next() {
		var d Dip
		if err := rows.Scan(&d.Name, &d.Price); err != nil {
			return nil, fmt.Errorf("scan dip: %w", err)
		}
		dips = append(dips, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dips: %w", err)
	}
	return dips, nil
}

func (s *PostgresStore) Crusts(ctx context.Context) ([]Crust, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, extra_price FROM crust_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query crusts: %w", err)
	}
	defer rows.Close()

	var crusts []Crust
	for rows.Next() {
		var c Crust
		if err := rows.Scan(&c.Name, &c.ExtraPrice); err != nil {
			return nil, fmt.Errorf("scan crust: %w", err)
		}
		crusts = append(crusts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate crusts: %w", err)
	}
	return crusts, nil
}

func (s *PostgresStore) Categories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, type FROM menu_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return cats, nil
}

func (s *PostgresStore) FindItem(ctx context.Context, name string) (Item, bool, error) {
	pattern := "%" + name + "%"
	var it Item
	err := s.pool.QueryRow(ctx,
		`SELECT name, category, sizes, price FROM menu_items WHERE name ILIKE $1 OR $2 ILIKE '%' || name || '%' LIMIT 1`,
		pattern, name,
	).Scan(&it.Name, &it.Category, &it.Sizes, &it.Price)
	if err == nil {
		return it, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Item{}, false, fmt.Errorf("find menu item: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`SELECT name, price FROM deals WHERE name ILIKE $1 OR $2 ILIKE '%' || name || '%' LIMIT 1`,
		pattern, name,
	).Scan(&it.Name, &it.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, false, nil
	}
	if err != nil {
		return Item{}, false, fmt.Errorf("find deal: %w", err)
	}
	it.Category = "Deals"
	return it, true, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
