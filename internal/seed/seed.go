package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"github.com/prontoville/crust/internal/catalog"
)

// LoadFile parses the yaml menu definition.
func LoadFile(path string) (catalog.Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return catalog.Data{}, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes yaml seed data and rejects files with nothing to serve.
func Parse(raw []byte) (catalog.Data, error) {
	var data catalog.Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return catalog.Data{}, fmt.Errorf("parse seed yaml: %w", err)
	}
	if len(data.Items) == 0 && len(data.Deals) == 0 {
		return catalog.Data{}, fmt.Errorf("seed contains no menu items or deals")
	}
	return data, nil
}

// Apply writes the seed data into the catalog tables. Reruns are safe; rows
// are upserted by name.
func Apply(ctx context.Context, databaseURL string, data catalog.Data) error {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := catalog.InitSchema(ctx, pool); err != nil {
		return err
	}

	if data.Restaurant.Name != "" {
		services, err := json.Marshal(data.Restaurant.Services)
		if err != nil {
			return fmt.Errorf("encode services: %w", err)
		}
		payments, err := json.Marshal(data.Restaurant.PaymentMethods)
		if err != nil {
			return fmt.Errorf("encode payment methods: %w", err)
		}
		_, err = pool.Exec(ctx,
			`INSERT INTO restaurant_info (name, country, description, services, payment_methods)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (name) DO UPDATE SET
				country = EXCLUDED.country,
				description = EXCLUDED.description,
				services = EXCLUDED.services,
				payment_methods = EXCLUDED.payment_methods`,
			data.Restaurant.Name, data.Restaurant.Country, data.Restaurant.Description, services, payments)
		if err != nil {
			return fmt.Errorf("seed restaurant info: %w", err)
		}
	}

	for _, c := range data.Categories {
		_, err := pool.Exec(ctx,
			`INSERT INTO menu_categories (name, type) VALUES ($1, $2)
			 ON CONFLICT (name) DO UPDATE SET type = EXCLUDED.type`,
			c.Name, c.Type)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}

	for _, it := range data.Items {
		sizes := it.Sizes
		if sizes == "" {
			sizes = "Standard"
		}
		_, err := pool.Exec(ctx,
			`INSERT INTO menu_items (name, category, description, sizes, price)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (name) DO UPDATE SET
				category = EXCLUDED.category,
				description = EXCLUDED.description,
				sizes = EXCLUDED.sizes,
				price = EXCLUDED.price`,
			it.Name, it.Category, it.Description, sizes, it.Price)
		if err != nil {
			return fmt.Errorf("seed item %q: %w", it.Name, err)
		}
	}

	for _, d := range data.Deals {
		_, err := pool.Exec(ctx,
			`INSERT INTO deals (name, description, items_included, availability, price)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (name) DO UPDATE SET
				description = EXCLUDED.description,
				items_included = EXCLUDED.items_included,
				availability = EXCLUDED.availability,
				price = EXCLUDED.price`,
			d.Name, d.Description, d.ItemsIncluded, d.Availability, d.Price)
		if err != nil {
			return fmt.Errorf("seed deal %q: %w", d.Name, err)
		}
	}

	for _, d := range data.Dips {
		_, err := pool.Exec(ctx,
			`INSERT INTO dips (name, price) VALUES ($1, $2)
			 ON CONFLICT (name) DO UPDATE SET price = EXCLUDED.price`,
			d.Name, d.Price)
		if err != nil {
			return fmt.Errorf("seed dip %q: %w", d.Name, err)
		}
	}

	for _, c := range data.Crusts {
		_, err := pool.Exec(ctx,
			`INSERT INTO crust_types (name, extra_price) VALUES ($1, $2)
			 ON CONFLICT (name) DO UPDATE SET extra_price = EXCLUDED.extra_price`,
			c.Name, c.ExtraPrice)
		if err != nil {
			return fmt.Errorf("seed crust %q: %w", c.Name, err)
		}
	}

	log.Printf("seed: applied %d items, %d deals, %d categories", len(data.Items), len(data.Deals), len(data.Categories))
	return nil
}
