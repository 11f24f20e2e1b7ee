package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	corecfg "github.com/plateful-app/plateful/internal/core/config"
	mongostore "github.com/plateful-app/plateful/internal/core/storage/mongo"
	"github.com/plateful-app/plateful/internal/core/storage/postgres"
	"github.com/plateful-app/plateful/internal/migrations"
	"github.com/plateful-app/plateful/internal/notify"
	"github.com/plateful-app/plateful/internal/ratings"
	"github.com/plateful-app/plateful/internal/reviews"
	"github.com/plateful-app/plateful/internal/server"
	"github.com/plateful-app/plateful/internal/stats"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "plateful.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "config", cfg)

	// 2. Initialize Relational Store (PostgreSQL: restaurants, users)
	dbAdapter, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbAdapter.Close()

	// 2.1. Run Database Migrations
	if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}
	if err := dbAdapter.ValidateSchema(); err != nil {
		slog.Error("Schema validation failed", "error", err)
		os.Exit(1)
	}

	// 3. Initialize Document Store (MongoDB: reviews)
	mongoClient, err := mongostore.Connect(cfg.Mongo.URI)
	if err != nil {
		slog.Error("Failed to connect to mongo", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			slog.Error("Failed to disconnect mongo", "error", err)
		}
	}()

	reviewStore := mongostore.NewReviewAdapter(mongoClient.Database(cfg.Mongo.Database))
	restaurantStore := postgres.NewRestaurantAdapter(dbAdapter.DB())

	// 4. Initialize Rating Aggregation
	engine := ratings.NewEngine(reviewStore)
	sync := ratings.NewSync(restaurantStore, cfg.Reconcile.WriteWorkers)
	trigger := ratings.NewTrigger(engine, sync)
	reconcileJob := ratings.NewJob(engine, sync, restaurantStore)
	scheduler := ratings.NewScheduler(cfg.ReconcileInterval(), reconcileJob)

	// 5. Initialize Pending-Update Cache
	pendingCache := notify.NewPendingCache(cfg.PendingTTL())

	// 6. Initialize Services
	reviewSvc := reviews.NewService(reviewStore, trigger, pendingCache)
	statsSvc := stats.NewService(engine, reconcileJob)
	notifyHandler := notify.NewHandler(pendingCache)

	// 7. Initialize Server
	srv := server.New(
		fmtAddr(cfg.Server.Host, cfg.Server.Port),
		dbAdapter,
		mongostore.Pinger{Client: mongoClient},
		cfg.Server.Mode,
	)
	reviewSvc.RegisterRoutes(srv.Engine)
	statsSvc.RegisterRoutes(srv.Engine)
	notifyHandler.RegisterRoutes(srv.Engine)
	srv.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Reconcile.Enabled {
		go func() {
			if err := scheduler.Start(ctx); err != nil {
				slog.Error("Scheduler stopped with error", "error", err)
			}
		}()
	} else {
		slog.Info("Reconciliation scheduler disabled by config")
	}

	go pendingCache.StartJanitor(ctx, cfg.SweepInterval())

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
