package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/dormledger/hostel-inventory/api/routes"
	"github.com/dormledger/hostel-inventory/internal/audits"
	"github.com/dormledger/hostel-inventory/internal/auth"
	"github.com/dormledger/hostel-inventory/internal/export"
	"github.com/dormledger/hostel-inventory/internal/inventory"
	"github.com/dormledger/hostel-inventory/internal/issuance"
	"github.com/dormledger/hostel-inventory/internal/stock"
	"github.com/dormledger/hostel-inventory/internal/students"
	"github.com/dormledger/hostel-inventory/internal/users"
	"github.com/dormledger/hostel-inventory/pkg/auth/session"
	"github.com/dormledger/hostel-inventory/pkg/config"
	"github.com/dormledger/hostel-inventory/pkg/db"
	"github.com/dormledger/hostel-inventory/pkg/instance"
	"github.com/dormledger/hostel-inventory/pkg/logger"
	"github.com/dormledger/hostel-inventory/pkg/metrics"
	"github.com/dormledger/hostel-inventory/pkg/migrate"
	"github.com/dormledger/hostel-inventory/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	conn := dbClient.DB()
	usersRepo := users.NewRepository(conn)
	studentsRepo := students.NewRepository(conn)
	stockRepo := stock.NewRepository(conn)
	issuanceRepo := issuance.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	exitOnErr(logg, "auth service", err)

	usersService, err := users.NewService(usersRepo, cfg.Password)
	exitOnErr(logg, "users service", err)

	studentsService, err := students.NewService(studentsRepo, dbClient)
	exitOnErr(logg, "students service", err)

	importer, err := students.NewImporter(studentsRepo, dbClient, logg)
	exitOnErr(logg, "students importer", err)

	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Stock:    stockRepo,
		Issuance: issuanceRepo,
		Students: students.NewResolver(studentsRepo),
		Tx:       dbClient,
		Metrics:  ledgerMetrics,
		Logger:   logg,
	})
	exitOnErr(logg, "inventory service", err)

	exportService, err := export.NewService(inventoryService)
	exitOnErr(logg, "export service", err)

	auditsService, err := audits.NewService(audits.ServiceParams{
		Repo:      audits.NewRepository(conn),
		Stock:     stockRepo,
		Issuance:  issuanceRepo,
		Tx:        dbClient,
		CacheSize: cfg.Audit.CacheSize,
		Metrics:   ledgerMetrics,
		Logger:    logg,
	})
	exitOnErr(logg, "audits service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Gatherer:    registry,
			Sessions:    sessionManager,
			RateLimiter: redisClient,
			Idempotency: redisClient,
			Auth:        authService,
			Users:       usersService,
			Inventory:   inventoryService,
			Export:      exportService,
			Audits:      auditsService,
			Students:    studentsService,
			Importer:    importer,
		}),
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

func exitOnErr(logg *logger.Logger, component string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+component, err)
	os.Exit(1)
}
