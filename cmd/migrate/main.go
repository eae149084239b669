package main

import (
	"context"
	"log"

	"muvbackoffice/internal/config"
	"muvbackoffice/internal/db"
)

// Steps are embedded so the binary carries its own schema. Each runs once,
// tracked by name in schema_migrations.
var migrations = []struct {
	Name string
	SQL  string
}{
	{
		Name: "001_orders",
		SQL: `
			CREATE TABLE IF NOT EXISTS orders (
				id                  TEXT PRIMARY KEY,
				user_id             TEXT NOT NULL,
				customer_name       TEXT NOT NULL DEFAULT '',
				customer_email      TEXT NOT NULL DEFAULT '',
				customer_phone      TEXT NOT NULL DEFAULT '',
				product_type        TEXT NOT NULL,
				quantity            INTEGER NOT NULL,
				specifications      TEXT NOT NULL DEFAULT '',
				delivery_address    TEXT NOT NULL DEFAULT '',
				total_amount        NUMERIC NOT NULL,
				tracking_id         TEXT NOT NULL UNIQUE,
				status              TEXT NOT NULL DEFAULT 'pending',
				payment_status      TEXT NOT NULL DEFAULT 'pending',
				payment_method      TEXT,
				payment_external_id TEXT,
				created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
				last_updated        TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
	},
	{
		Name: "002_orders_indexes",
		SQL: `
			CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders (user_id, created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status);
			CREATE INDEX IF NOT EXISTS idx_orders_dedup ON orders (user_id, product_type, total_amount, created_at)`,
	},
	{
		Name: "003_admins",
		SQL: `
			CREATE TABLE IF NOT EXISTS admins (
				email      TEXT PRIMARY KEY,
				name       TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
	},
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if err := ensureSchemaTable(ctx, pool); err != nil {
		log.Fatalf("ensure schema table failed: %v", err)
	}

	for _, m := range migrations {
		applied, err := isApplied(ctx, pool, m.Name)
		if err != nil {
			log.Fatalf("check migration failed (%s): %v", m.Name, err)
		}
		if applied {
			continue
		}

		if _, err := pool.Exec(ctx, m.SQL); err != nil {
			log.Fatalf("apply migration failed (%s): %v", m.Name, err)
		}
		if err := markApplied(ctx, pool, m.Name); err != nil {
			log.Fatalf("mark migration failed (%s): %v", m.Name, err)
		}
		log.Printf("applied %s", m.Name)
	}
}

func ensureSchemaTable(ctx context.Context, pool *db.Pool) error {
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (filename TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT now())`)
	return err
}

func isApplied(ctx context.Context, pool *db.Pool, name string) (bool, error) {
	var exists bool
	row := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE filename=$1)`, name)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func markApplied(ctx context.Context, pool *db.Pool, name string) error {
	_, err := pool.Exec(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, name)
	return err
}
