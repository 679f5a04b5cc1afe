package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/workbooks-sync/internal/api"
	"github.com/ignite/workbooks-sync/internal/config"
	"github.com/ignite/workbooks-sync/internal/organisation"
	"github.com/ignite/workbooks-sync/internal/pkg/distlock"
	"github.com/ignite/workbooks-sync/internal/reconcile"
	"github.com/ignite/workbooks-sync/internal/repository/postgres"
	"github.com/ignite/workbooks-sync/internal/service/member"
	"github.com/ignite/workbooks-sync/internal/snapshot"
	"github.com/ignite/workbooks-sync/internal/worker"
	"github.com/ignite/workbooks-sync/internal/workbooks"

	_ "github.com/lib/pq" // PostgreSQL driver
)

func main() {
	log.Println("Workbooks sync service starting")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Workbooks.APIKey == "" {
		log.Fatal("WORKBOOKS_API_KEY is required")
	}

	// Postgres
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	// Redis (optional — snapshot cache and resync lock degrade without it)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis unavailable, continuing without snapshot cache: %v", err)
			redisClient = nil
		}
	}

	// Snapshot store: local file, mirrored to S3 when a bucket is configured
	snapStore := snapshot.New(cfg.Snapshot.LocalPath)
	var s3Client *s3.Client
	if cfg.Snapshot.S3Bucket != "" {
		awsCfg, err := loadAWSConfig(ctx, cfg.Snapshot)
		if err != nil {
			log.Printf("AWS config failed, snapshot stays local-only: %v", err)
		} else {
			s3Client = s3.NewFromConfig(awsCfg)
			snapStore.SetS3Client(s3Client, cfg.Snapshot.S3Bucket, cfg.Snapshot.S3Key)
			log.Printf("Snapshot mirroring to s3://%s/%s", cfg.Snapshot.S3Bucket, cfg.Snapshot.S3Key)
		}
	}

	// Workbooks CRM client
	crm := workbooks.NewClient(workbooks.Config{
		BaseURL:         cfg.Workbooks.BaseURL,
		APIKey:          cfg.Workbooks.APIKey,
		LogicalDatabase: cfg.Workbooks.LogicalDatabase,
		Timeout:         cfg.Workbooks.Timeout(),
		MaxRetries:      cfg.Workbooks.MaxRetries,
	})

	// Repositories and services
	accounts := postgres.NewAccountRepo(db)
	orgRepo := postgres.NewOrganisationRepo(db)

	var snapCache *organisation.SnapshotCache
	if redisClient != nil {
		snapCache = organisation.NewSnapshotCache(redisClient, cfg.Redis.SnapshotTTL())
	}
	resolver := organisation.NewResolver(orgRepo, crm, snapCache, snapStore, cfg.Sync.OrgPageSize)

	reconciler := reconcile.New(crm, accounts)
	members := member.New(accounts, reconciler, resolver, crm)

	// Daily bulk resync, guarded by a distributed lock
	lock := distlock.NewLock(redisClient, db, "workbooks:org-resync", 30*time.Minute)
	resyncWorker := worker.NewOrgResyncWorker(resolver, lock, cfg.Sync.OrgResyncInterval())
	go resyncWorker.Start(ctx)

	// HTTP server
	handlers := api.NewHandlers(members, resolver)
	health := api.NewHealthChecker(db, redisClient, s3Client, cfg.Snapshot.S3Bucket, crm)
	server := api.NewServer(cfg.API, handlers, health)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

func loadAWSConfig(ctx context.Context, cfg config.SnapshotConfig) (aws.Config, error) {
	if profile := cfg.GetAWSProfile(); profile != "" {
		return awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.AWSRegion),
			awsconfig.WithSharedConfigProfile(profile),
		)
	}
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
}
