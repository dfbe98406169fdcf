// Package app wires repositories, services and background jobs from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/villastay/backend/config"
	"github.com/villastay/backend/internal/auth"
	"github.com/villastay/backend/internal/availability"
	"github.com/villastay/backend/internal/calendarfeed"
	"github.com/villastay/backend/internal/coupons"
	"github.com/villastay/backend/internal/notifications"
	"github.com/villastay/backend/internal/pricing"
	"github.com/villastay/backend/internal/reservations"
	"github.com/villastay/backend/internal/settings"
	"github.com/villastay/backend/internal/worker"
	"github.com/villastay/backend/pkg/database"
	"github.com/villastay/backend/pkg/metrics"
	"github.com/villastay/backend/pkg/queue"
	"github.com/villastay/backend/pkg/redis"
	"github.com/villastay/backend/pkg/storage"
)

// App holds the wired dependencies shared by the server and the worker.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Metrics *metrics.Metrics
	S3      *storage.S3 // nil when feed publishing is disabled

	Users         *auth.Repository
	JWT           *auth.JWTService
	Calendar      *availability.Repository
	Resolver      *availability.Resolver
	Blocks        *availability.BlockService
	Catalog       *pricing.Repository
	Engine        *pricing.Engine
	PricingAdmin  *pricing.Admin
	Coupons       *coupons.Service
	Settings      *settings.Repository
	Reservations  *reservations.Service
	ReservationDB *reservations.Repository
	Queue         *queue.Queue
	Notifier      *notifications.QueueNotifier
	Notifications *notifications.Repository
	Feed          *calendarfeed.Feed
	FeedPublisher *calendarfeed.Publisher // nil without S3
}

// New connects to Postgres and Redis, applies migrations and builds the services.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	loc, err := cfg.Booking.Location()
	if err != nil {
		return nil, err
	}
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{MaxConns: cfg.Database.MaxConns}, logger)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := database.Migrate(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, Pool: pool, Redis: rdb, Metrics: metrics.New()}
	if cfg.AWS.FeedBucket != "" {
		a.S3, err = storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			Bucket:               cfg.AWS.FeedBucket,
			PublicRead:           cfg.AWS.FeedPublicRead,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
			a.S3 = nil
		}
	}

	a.Users = auth.NewRepository(pool)
	a.JWT = auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	a.Calendar = availability.NewRepository(pool)
	a.Resolver = availability.NewResolver(a.Calendar, loc)
	a.Blocks = availability.NewBlockService(a.Calendar, a.Resolver, logger)

	couponRepo := coupons.NewRepository(pool)
	a.Coupons = coupons.NewService(couponRepo, coupons.NewValidator(couponRepo, loc), logger)
	a.Settings = settings.NewRepository(pool)

	quotes := pricing.NewRedisQuoteStore(rdb.Client)
	a.Catalog = pricing.NewRepository(pool)
	a.Engine = pricing.NewEngine(a.Catalog, a.Settings, a.Resolver, a.Coupons, quotes, cfg.Booking.HoldTTL, logger).WithMetrics(a.Metrics)
	a.PricingAdmin = pricing.NewAdmin(a.Catalog, cfg.Booking.Currency, logger)

	a.Queue = queue.NewQueue(rdb.Client, logger)
	a.Notifier = notifications.NewQueueNotifier(a.Queue, a.Metrics, logger)
	a.Notifications = notifications.NewRepository(pool)

	a.ReservationDB = reservations.NewRepository(pool)
	a.Reservations = reservations.NewService(a.ReservationDB, a.Resolver, quotes, a.Notifier, cfg.Booking.HoldTTL, logger).WithMetrics(a.Metrics)

	a.Feed = calendarfeed.NewFeed(a.Calendar, a.Catalog, a.Resolver)
	if a.S3 != nil {
		a.FeedPublisher = calendarfeed.NewPublisher(a.Feed, a.S3, logger)
	}

	if err := auth.EnsureAdmin(ctx, a.Users, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name, logger); err != nil {
		a.Close()
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	return a, nil
}

// Runner builds the background job runner: notification delivery, hold reaper,
// reminders and, when S3 is configured, feed publishing.
func (a *App) Runner() *worker.Runner {
	processor := notifications.NewProcessor(a.ReservationDB, a.Users, a.Notifications,
		notifications.NewLogSender(a.Logger), notifications.ProcessorConfig{
			SiteName:      a.Config.Email.FromName,
			FromAddress:   a.Config.Email.FromAddress,
			FromName:      a.Config.Email.FromName,
			AdminFallback: a.Config.Email.AdminCopy,
		}, a.Logger).WithMetrics(a.Metrics)

	b := a.Config.Booking
	tasks := []worker.Task{
		worker.ReaperTask(a.Reservations, b.ReaperInterval),
		worker.ReminderTask(a.Reservations, b.ReminderLeadDays, b.ReminderInterval, a.Logger),
	}
	if a.FeedPublisher != nil {
		tasks = append(tasks, worker.FeedTask(a.FeedPublisher, b.FeedInterval))
	}
	return worker.NewRunner(worker.NewNotificationWorker(a.Queue, processor, a.Logger), a.Logger, tasks...)
}

// Close releases the connections.
func (a *App) Close() {
	if err := a.Redis.Close(); err != nil {
		a.Logger.Warn("redis close", zap.Error(err))
	}
	a.Pool.Close()
}
