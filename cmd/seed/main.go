// Command seed manages the database schema for local and test environments.
package main

import (
	"context"
	"flag"
	"log"

	"notaminda/internal/config"
	"notaminda/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before creating the schema (fresh start)")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	log.Printf("Setting up schema (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	log.Println("Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")
}

// runSchema creates the tables and indexes if they do not exist. Mind map ids
// are 20-character nanoids and node ids are client-suppliable strings, so both
// are TEXT rather than UUID columns.
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	createMindMaps := `
		CREATE TABLE IF NOT EXISTS ` + tables.MindMaps + ` (
			id TEXT PRIMARY KEY,
			user_id UUID NOT NULL,
			title VARCHAR(200) NOT NULL,
			is_private BOOLEAN NOT NULL DEFAULT TRUE,
			flow_data JSONB,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createMindMaps); err != nil {
		return err
	}

	createNodes := `
		CREATE TABLE IF NOT EXISTS ` + tables.Nodes + ` (
			id TEXT PRIMARY KEY,
			mind_map_id TEXT NOT NULL REFERENCES ` + tables.MindMaps + `(id) ON DELETE CASCADE,
			title VARCHAR(200),
			note TEXT NOT NULL DEFAULT '',
			parent_id TEXT REFERENCES ` + tables.Nodes + `(id) ON DELETE CASCADE,
			flow_data JSONB,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createNodes); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `mindmaps_user_id ON ` + tables.MindMaps + `(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `nodes_mind_map_id ON ` + tables.Nodes + `(mind_map_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `nodes_parent_id ON ` + tables.Nodes + `(parent_id)`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables in reverse order (to respect foreign keys)
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.Nodes,
		tables.MindMaps,
	}

	for _, table := range tableNames {
		dropSQL := "DROP TABLE IF EXISTS " + table + " CASCADE"
		if _, err := pool.Exec(ctx, dropSQL); err != nil {
			return err
		}
		log.Printf("  dropped %s", table)
	}

	return nil
}
