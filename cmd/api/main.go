package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	kafkabroker "github.com/Lutefd/logpulse/internal/broker/kafka"
	"github.com/Lutefd/logpulse/internal/bus"
	"github.com/Lutefd/logpulse/internal/cache"
	"github.com/Lutefd/logpulse/internal/commons"
	"github.com/Lutefd/logpulse/internal/database"
	"github.com/Lutefd/logpulse/internal/logger"
	"github.com/Lutefd/logpulse/internal/metrics"
	api_middleware "github.com/Lutefd/logpulse/internal/middleware"
	"github.com/Lutefd/logpulse/internal/notifier"
	"github.com/Lutefd/logpulse/internal/repository"
	"github.com/Lutefd/logpulse/internal/server"
	"github.com/Lutefd/logpulse/internal/service"
	"github.com/Lutefd/logpulse/internal/worker"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type dependencies struct {
	store         repository.Store
	throttleStore cache.ThrottleStore
	blacklist     cache.BlacklistStore
	settings      cache.SettingsStore
	whitelist     service.Whitelist
	notifier      notifier.Notifier
	nats          *bus.Publisher
	producer      *kafkabroker.Producer
	partitionMgr  *logger.PartitionManager
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Infof("no .env file loaded: %v", err)
	}

	config, err := commons.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.SetupLogger(config.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	deps, err := initDependencies(ctx, config)
	if err != nil {
		log.Fatalf("Failed to initialize dependencies: %v", err)
	}
	defer deps.close()

	if err := run(ctx, config, deps); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func initDependencies(ctx context.Context, config commons.Config) (*dependencies, error) {
	deps := &dependencies{}

	switch config.StorageBackend {
	case commons.StoragePostgres:
		store, err := repository.NewPostgresStore(config.PostgresConn, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize store: %w", err)
		}
		deps.store = store
		if err := database.Migrate(store.DB()); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		deps.partitionMgr = logger.NewPartitionManager(store.PartitionCreator())
	default:
		deps.store = repository.NewMemoryStore()
	}

	if config.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(config.RedisAddr, config.RedisPass)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cache: %w", err)
		}
		if err := redisCache.Allow(ctx, config.WhitelistIPs...); err != nil {
			return nil, fmt.Errorf("failed to seed whitelist: %w", err)
		}
		deps.throttleStore = redisCache
		deps.blacklist = redisCache
		deps.settings = redisCache
		if config.IPGating {
			deps.whitelist = redisCache
		}
	} else {
		deps.throttleStore = cache.NewMemoryThrottleStore()
		deps.blacklist = cache.NewMemoryBlacklist()
		deps.settings = cache.NewMemorySettings()
		if config.IPGating {
			deps.whitelist = api_middleware.NewStaticWhitelist(config.WhitelistIPs)
		}
	}

	var channels notifier.Multi
	if config.AlertWebhookURL != "" {
		channels = append(channels, notifier.NewWebhookNotifier(config.AlertWebhookURL, commons.NotificationTimeout))
	}
	if config.NATSURL != "" {
		publisher, err := bus.NewPublisher(config.NATSURL, config.NATSSubject)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize event bus: %w", err)
		}
		deps.nats = publisher
		channels = append(channels, publisher)
	}
	if len(channels) == 0 {
		channels = append(channels, notifier.LogNotifier{})
	}
	deps.notifier = channels

	if len(config.KafkaBrokers) > 0 {
		deps.producer = kafkabroker.NewProducer(kafkabroker.ProducerConfig{
			Brokers: config.KafkaBrokers,
			Topic:   config.KafkaTopic,
		})
	}

	return deps, nil
}

func run(ctx context.Context, config commons.Config, deps *dependencies) error {
	counters := metrics.New()
	dispatcher := notifier.NewDispatcher(deps.notifier, commons.NotificationTimeout, counters)
	throttle := worker.NewThrottle(deps.throttleStore)

	schedulerCfg := worker.PingSchedulerConfig{
		Pings:        deps.store.Pings(),
		Projects:     deps.store.Projects(),
		Prober:       worker.NewHTTPProber(),
		Throttle:     throttle,
		Dispatcher:   dispatcher,
		Counters:     counters,
		ProbeTimeout: config.ProbeTimeout,
	}
	if deps.nats != nil {
		schedulerCfg.Publisher = deps.nats
	}
	scheduler := worker.NewPingScheduler(schedulerCfg)

	ingestCfg := service.IngestServiceConfig{
		Projects:   deps.store.Projects(),
		Logs:       deps.store.Logs(),
		Throttle:   throttle,
		Dispatcher: dispatcher,
		Counters:   counters,
		Whitelist:  deps.whitelist,
	}
	if deps.producer != nil {
		ingestCfg.Publisher = deps.producer
	}

	projectService := service.NewProjectService(deps.store, scheduler)
	if _, err := projectService.EnsureSystemProject(ctx); err != nil {
		return err
	}
	logger.InitLogger(deps.store.Logs())
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), commons.ShutdownTimeout)
		defer cancel()
		if err := logger.Shutdown(shutdownCtx); err != nil {
			log.Errorf("failed to flush system logs: %v", err)
		}
	}()

	if deps.partitionMgr != nil {
		if err := deps.partitionMgr.Start(ctx); err != nil {
			return fmt.Errorf("failed to start partition manager: %w", err)
		}
	}

	rateLimiter := api_middleware.NewRateLimiter(config.RateLimitPerMinute)
	settingsService := service.NewSettingsService(deps.settings, rateLimiter)
	if err := settingsService.Sync(ctx); err != nil {
		logger.Warnf("failed to load saved settings, keeping configured rate limit: %v", err)
	}
	blacklistService := service.NewBlacklistService(deps.blacklist)

	housekeeper := worker.NewHousekeeper()
	if err := housekeeper.Add(commons.HousekeepingSchedule, "settings sync", settingsService.Sync); err != nil {
		return err
	}
	if err := housekeeper.Add(commons.HousekeepingSchedule, "blacklist sweep", func(ctx context.Context) error {
		_, err := blacklistService.Sweep(ctx)
		return err
	}); err != nil {
		return err
	}
	housekeeper.Start(ctx)
	defer housekeeper.Stop()

	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer dispatcher.Wait()
	defer scheduler.Stop()

	srv := server.NewServer(config, server.Services{
		Ingest:      service.NewIngestService(ingestCfg),
		Logs:        service.NewLogService(deps.store.Projects(), deps.store.Logs()),
		Projects:    projectService,
		Pings:       service.NewPingService(deps.store.Projects(), deps.store.Pings(), scheduler),
		Blacklist:   blacklistService,
		Settings:    settingsService,
		RateLimiter: rateLimiter,
	})
	return srv.Start(ctx)
}

func (d *dependencies) close() {
	if d.producer != nil {
		if err := d.producer.Close(); err != nil {
			log.Errorf("Error closing kafka producer: %v", err)
		}
	}
	if d.nats != nil {
		d.nats.Close()
	}
	if d.throttleStore != nil {
		if err := d.throttleStore.Close(); err != nil {
			log.Errorf("Error closing cache: %v", err)
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			log.Errorf("Error closing store: %v", err)
		}
	}
}
