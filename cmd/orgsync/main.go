// Command orgsync runs a single full organisation resync and exits. Useful
// for cron-style scheduling and for seeding the cache on a fresh database.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"time"

	"github.com/ignite/workbooks-sync/internal/config"
	"github.com/ignite/workbooks-sync/internal/organisation"
	"github.com/ignite/workbooks-sync/internal/repository/postgres"
	"github.com/ignite/workbooks-sync/internal/snapshot"
	"github.com/ignite/workbooks-sync/internal/workbooks"

	_ "github.com/lib/pq" // PostgreSQL driver
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	timeout := flag.Duration("timeout", 15*time.Minute, "overall run timeout")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	crm := workbooks.NewClient(workbooks.Config{
		BaseURL:         cfg.Workbooks.BaseURL,
		APIKey:          cfg.Workbooks.APIKey,
		LogicalDatabase: cfg.Workbooks.LogicalDatabase,
		Timeout:         cfg.Workbooks.Timeout(),
		MaxRetries:      cfg.Workbooks.MaxRetries,
	})

	resolver := organisation.NewResolver(
		postgres.NewOrganisationRepo(db),
		crm,
		nil,
		snapshot.New(cfg.Snapshot.LocalPath),
		cfg.Sync.OrgPageSize,
	)

	start := time.Now()
	count, err := resolver.ResyncAll(ctx)
	if err != nil {
		log.Fatalf("Resync failed: %v", err)
	}
	log.Printf("Resynced %d organisations in %s", count, time.Since(start).Round(time.Millisecond))
}
