package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"mentorbook/internal/booking"
	"mentorbook/internal/catalog"
	"mentorbook/internal/config"
	"mentorbook/internal/db"
	"mentorbook/internal/events"
	"mentorbook/internal/logger"
	"mentorbook/internal/meeting"
	"mentorbook/internal/notification"
	"mentorbook/internal/reminder"
	"mentorbook/internal/search"
	"mentorbook/internal/server"
	"mentorbook/internal/wallet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	logger.Info("Starting mentorbook")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := map[string]server.Check{}

	var (
		catalogRepo catalog.Repository = catalog.NewMemoryRepository()
		bookingRepo booking.Repository = booking.NewMemoryRepository()
		meetingRepo meeting.Repository = meeting.NewMemoryRepository()
		journal     wallet.Journal     = wallet.NewMemoryJournal()
	)
	if cfg.DatabaseURL != "" {
		logger.Info("Connecting to database...")
		database, err := db.Connect(ctx, cfg.DatabaseURL, db.Pool{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
		})
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		version, err := db.RunMigrations(database, cfg.MigrationsPath)
		if err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
		logger.Info("Migrations completed", "version", version)

		catalogRepo = catalog.NewRepository(database)
		bookingRepo = booking.NewRepository(database)
		meetingRepo = meeting.NewRepository(database)
		journal = wallet.NewRepository(database)
		checks["database"] = database.PingContext
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
	}

	var (
		rdb   *redis.Client
		cache search.Cache
		queue notification.Queue = notification.NewMemoryQueue(1024)
	)
	if cfg.RedisAddr != "" {
		rdb, err = db.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rdb.Close()

		cache = search.NewRedisCache(rdb, cfg.SearchCacheTTL)
		queue = notification.NewRedisQueue(rdb)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		logger.Info("Redis connected", "addr", cfg.RedisAddr)
	} else {
		logger.Warn("REDIS_ADDR not set, search cache disabled and notifications queued in process")
	}

	store := catalog.NewStore(catalogRepo)
	if cfg.CatalogSeedPath != "" {
		if err := store.LoadFile(ctx, cfg.CatalogSeedPath); err != nil {
			logger.Fatalf("Failed to load catalog: %v", err)
		}
	}

	ledger := wallet.NewLedger(wallet.Config{
		MinWithdrawal:   cfg.MinimumWithdrawal(),
		PlatformAccount: cfg.PlatformAccount,
	}, journal)
	if err := ledger.Restore(ctx); err != nil {
		logger.Fatalf("Failed to restore ledger: %v", err)
	}

	bus := events.NewBus()
	notifier := notification.New(queue, notification.LogSender{}, cfg.NotificationMaxTries)
	notifier.Subscribe(bus)
	go notifier.Start(ctx)

	binder := meeting.NewBinder(meetingRepo)
	bookings := booking.NewService(booking.Config{CommissionRate: cfg.Commission()},
		bookingRepo, store, ledger, binder, bus)

	stopReminders, err := reminder.New(bookings, bus, cfg.ReminderLead).Schedule(ctx, cfg.ReminderSchedule)
	if err != nil {
		logger.Fatalf("Failed to schedule reminders: %v", err)
	}

	srv := server.New(server.Deps{
		Catalog:  store,
		Search:   search.NewEngine(store, cache),
		Bookings: bookings,
		Ledger:   ledger,
		Meetings: binder,
		Checks:   checks,
	}, cfg)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
	stopReminders()
	cancel()

	logger.Info("Server stopped")
}
