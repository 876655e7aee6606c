package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/sheepify-api/internal/clock"
	"github.com/phrazzld/sheepify-api/internal/config"
	"github.com/phrazzld/sheepify-api/internal/domain/reward"
	"github.com/phrazzld/sheepify-api/internal/domain/scoring"
	"github.com/phrazzld/sheepify-api/internal/events"
	"github.com/phrazzld/sheepify-api/internal/leaderboard"
	"github.com/phrazzld/sheepify-api/internal/platform/postgres"
	"github.com/phrazzld/sheepify-api/internal/redact"
	"github.com/phrazzld/sheepify-api/internal/service"
	"github.com/phrazzld/sheepify-api/internal/service/auth"
	"github.com/phrazzld/sheepify-api/internal/task"
	"github.com/redis/go-redis/v9"
)

// application holds the shared dependencies of the server and releases them
// on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	clock  clock.Clock

	jwtService       auth.JWTService
	accountService   service.AccountService
	currencyService  service.CurrencyService
	inventoryService service.InventoryService
	sleepService     service.SleepService

	eventEmitter *events.InMemoryEventEmitter
	taskRunner   *task.TaskRunner
	scheduler    *task.Scheduler

	// Nil when Redis is not configured.
	redis       *redis.Client
	leaderboard *leaderboard.Leaderboard
}

// newApplication wires stores, services, the event emitter, the worker pool
// and the optional leaderboard and scheduler. It starts the worker pool.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		clock:  clock.Real{},
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	accountStore := postgres.NewPostgresAccountStore(db, logger)
	ledgerStore := postgres.NewPostgresLedgerStore(db, logger)
	sessionStore := postgres.NewPostgresSessionStore(db, logger)
	collectibleStore := postgres.NewPostgresCollectibleStore(db, logger)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	app.inventoryService, err = service.NewInventoryService(db, accountStore, collectibleStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create inventory service: %w", err)
	}

	app.currencyService, err = service.NewCurrencyService(db, accountStore, ledgerStore, collectibleStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create currency service: %w", err)
	}

	app.accountService, err = service.NewAccountService(
		db,
		accountStore,
		app.inventoryService,
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		app.jwtService,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account service: %w", err)
	}

	rewardParams := reward.NewDefaultParams()
	rewardParams.AwardChance = cfg.Economy.CollectibleAwardChance

	app.sleepService, err = service.NewSleepService(service.SleepServiceDeps{
		DB:         db,
		Accounts:   accountStore,
		Sessions:   sessionStore,
		Currency:   app.currencyService,
		Inventory:  app.inventoryService,
		Scorer:     scoring.NewDefaultService(),
		Calculator: reward.NewCalculator(rewardParams, nil),
		Clock:      app.clock,
		Events:     app.eventEmitter,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sleep service: %w", err)
	}

	app.taskRunner = task.NewTaskRunner(task.TaskRunnerConfig{
		WorkerCount: cfg.Task.WorkerCount,
		QueueSize:   cfg.Task.QueueSize,
	}, logger)
	app.eventEmitter.RegisterHandler(
		task.NewGenerationEventHandler(accountStore, app.currencyService, app.taskRunner, logger),
	)

	if cfg.Redis.Addr != "" {
		app.redis, err = leaderboard.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize leaderboard: %w", err)
		}
		app.leaderboard = leaderboard.New(app.redis, app.clock, logger)
		app.eventEmitter.RegisterHandler(app.leaderboard)
		logger.Info("leaderboard enabled", slog.String("redis_addr", cfg.Redis.Addr))
	}

	if cfg.Economy.GenerationSchedule != "" {
		app.scheduler, err = task.NewScheduler(cfg.Economy.GenerationSchedule, app.eventEmitter, app.clock, logger)
		if err != nil {
			app.closeRedis()
			return nil, fmt.Errorf("failed to create generation scheduler: %w", err)
		}
	}

	app.taskRunner.Start()

	logger.Info("application initialized")
	return app, nil
}

// Run starts the scheduler and serves HTTP until ctx is cancelled, then
// shuts everything down.
func (app *application) Run(ctx context.Context) error {
	if app.scheduler != nil {
		app.scheduler.Start()
		app.logger.Info("passive generation scheduled",
			slog.String("schedule", app.config.Economy.GenerationSchedule))
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops background work before closing the connections it uses.
func (app *application) cleanup() {
	if app.scheduler != nil {
		select {
		case <-app.scheduler.Stop().Done():
		case <-time.After(app.shutdownTimeout()):
			app.logger.Warn("generation job still running at shutdown")
		}
	}

	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	app.closeRedis()

	if app.db != nil {
		closeDB(app.db, app.logger)
	}

	app.logger.Info("application shutdown completed")
}

func (app *application) closeRedis() {
	if app.redis == nil {
		return
	}
	if err := app.redis.Close(); err != nil {
		app.logger.Error("error closing redis connection", slog.String("error", redact.Error(err)))
	}
}

func (app *application) shutdownTimeout() time.Duration {
	if app.config.Server.ShutdownTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(app.config.Server.ShutdownTimeoutSeconds) * time.Second
}
