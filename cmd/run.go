package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"raffler/api/rest"
	"raffler/application"
	"raffler/config"
	"raffler/database"
	"raffler/infrastructure"
	"raffler/infrastructure/observability"
	"raffler/repository"
	"raffler/repository/memory"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the raffle service
func Run(ctx context.Context) error {
	log.Info("Starting raffler...")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	closeLog := configureLogging(cfg)
	defer closeLog()
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	raffleConfig, err := cfg.RaffleConfig()
	if err != nil {
		return fmt.Errorf("invalid raffle configuration: %w", err)
	}

	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metrics := observability.GetMetrics()

	repoFactory, closeStorage, err := newRepositoryFactory(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	log.WithField("servers", cfg.NATSServers).Info("Connecting to NATS...")
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	connectCtx, cancelConnect := context.WithTimeout(ctx, 10*time.Second)
	err = natsClient.Connect(connectCtx)
	cancelConnect()
	if err != nil {
		return err
	}
	defer natsClient.Close()

	eventPublisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
	eventPublisher.SetPublishRecorder(metrics)
	if err := eventPublisher.EnsureDomainEventStream(natsClient); err != nil {
		return fmt.Errorf("failed to ensure domain event stream: %w", err)
	}

	uowFactory := infrastructure.NewUnitOfWorkFactory(repoFactory, eventPublisher)

	if cfg.DiscordEnabled() {
		announcer, err := infrastructure.NewDiscordAnnouncer(cfg.DiscordToken, cfg.DiscordChannelID)
		if err != nil {
			return err
		}
		application.RegisterApplicationSubscriptions(uowFactory, announcer)
		log.WithField("channelID", cfg.DiscordChannelID).Info("Discord winner announcements enabled")
	}

	provider := infrastructure.NewNATSRandomnessProvider(natsClient, cfg.VRFRequestTimeout)
	coordinator := application.NewRaffleCoordinator(uowFactory, raffleConfig, provider, metrics, nil)

	if _, err := coordinator.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize raffle: %w", err)
	}

	consumer := infrastructure.NewMessageConsumer(natsClient, application.NewFulfillmentHandler(coordinator))
	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- consumer.Start()
	}()

	stopWorker := application.NewUpkeepWorker(coordinator, cfg.UpkeepPollInterval).Start(ctx)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           rest.NewRouter(rest.NewHandler(coordinator)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	log.WithFields(log.Fields{
		"environment": cfg.Environment,
		"storage":     cfg.StorageDriver,
		"entranceFee": raffleConfig.EntranceFee(),
		"interval":    raffleConfig.Interval(),
	}).Info("Raffler is running")

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-consumerErr:
		if err != nil {
			runErr = fmt.Errorf("message consumer failed: %w", err)
		}
	case err := <-serverErr:
		runErr = fmt.Errorf("HTTP server failed: %w", err)
	}

	log.Info("Shutting down raffler...")
	stopWorker()
	consumer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}
	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics provider")
	}

	log.Info("Shutdown completed")
	return runErr
}

// newRepositoryFactory opens the configured storage backend
func newRepositoryFactory(ctx context.Context, cfg *config.Config) (application.RepositoryUnitOfWorkFactory, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		log.Warn("Using in-memory storage; raffle state is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	return repository.NewUnitOfWorkFactory(db), func() {
		log.Info("Closing database connection...")
		db.Close()
	}, nil
}
