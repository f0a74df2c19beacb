package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SwiftFiat/SwiftFiat-Queue/api"
	db "github.com/SwiftFiat/SwiftFiat-Queue/db/sqlc"
	"github.com/SwiftFiat/SwiftFiat-Queue/providers"
	"github.com/SwiftFiat/SwiftFiat-Queue/providers/anomaly"
	"github.com/SwiftFiat/SwiftFiat-Queue/providers/geocoding"
	notificationprovider "github.com/SwiftFiat/SwiftFiat-Queue/providers/notification"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/account"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/fraud"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/ledger"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/monitoring/logging"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/monitoring/tasks"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/notification"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/queue"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/redis"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/security"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/topup"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/transaction"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

var envPath string = "."

func main() {

	config, err := utils.LoadConfig(envPath)
	if err != nil {
		panic(fmt.Sprintf("Could not load config: %v", err))
	}

	logger := logging.NewLogger(config)
	if config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.WithField("config", config.Redact()).Debug("config loaded")

	conn, err := sql.Open(config.DBDriver, utils.GetDBSource(config, config.DBName))
	if err != nil {
		panic(fmt.Sprintf("Could not load DB: %v", err))
	}
	defer conn.Close()

	m, err := migrate.New(config.MigrationsPath, utils.GetDBSource(config, config.DBName))
	if err != nil {
		log.Fatalf("Unable to instantiate the database schema migrator - %v", err)
	}
	if err := m.Up(); err != nil {
		if err != migrate.ErrNoChange {
			log.Fatalf("Unable to migrate up to the latest database schema - %v", err)
		}
	}

	cache, err := redis.NewRedisService(redis.ConfigFrom(config))
	if err != nil {
		log.Fatalf("Unable to reach Redis - %v", err)
	}
	defer cache.Close()

	protocol, err := security.NewProtocol(security.Keys{
		Secret:             config.EncryptionKey,
		PrivateKeyPEM:      config.SignPrivateKey,
		PublicKeyPEM:       config.SignPublicKey,
		ClientPublicKeyPEM: config.ClientSignPublicKey,
	})
	if err != nil {
		log.Fatalf("Unable to load signing keys - %v", err)
	}

	salt := config.HashidsSalt
	if salt == "" {
		salt = config.SigningKey
	}
	ids, err := utils.NewTokenGenerator(salt)
	if err != nil {
		log.Fatalf("Unable to build token generator - %v", err)
	}

	loc, err := config.Location()
	if err != nil {
		log.Fatalf("Unknown queue timezone %q - %v", config.QueueTimezone, err)
	}

	/// External services
	p := providers.NewProviderService()
	p.AddProvider(anomaly.NewAnomalyProvider(config, logger))
	p.AddProvider(notificationprovider.NewNotificationProvider(config, logger))
	p.AddProvider(geocoding.NewGeocodingProvider(config, security.NewCache(24*time.Hour, time.Hour), logger))
	logger.WithField("providers", p.Names()).Info("external providers configured")

	classifier, err := providers.Lookup[*anomaly.AnomalyProvider](p, providers.Anomaly)
	if err != nil {
		log.Fatalf("Unable to resolve the fraud classifier - %v", err)
	}
	sender, err := providers.Lookup[*notificationprovider.NotificationProvider](p, providers.Notification)
	if err != nil {
		log.Fatalf("Unable to resolve the notification server - %v", err)
	}
	geocoder, err := providers.Lookup[*geocoding.GeocodingProvider](p, providers.Geocoding)
	if err != nil {
		log.Fatalf("Unable to resolve the geocoder - %v", err)
	}

	store := db.NewStore(conn)
	scheduler := tasks.NewTaskScheduler(logger)
	defer scheduler.Stop()

	registry := queue.NewRegistry()
	queues := queue.NewQueueService(cache.Client(), store, protocol, registry, scheduler, logger, queue.Options{
		Workers:      config.QueueWorkers,
		MaxAttempts:  config.QueueMaxAttempts,
		BackoffUnit:  config.QueueBackoffUnit,
		Lease:        config.QueueVisibilityTimeout,
		PollInterval: config.QueuePollInterval,
		Location:     loc,
	})

	accounts := account.NewAccountService(logger)
	ledgers := ledger.NewLedgerService(store, logger)
	notifier := notification.NewNotificationService(queues, store, sender, ids, logger)

	transactions := transaction.NewTransactionService(transaction.Deps{
		Store:           store,
		Queue:           queues,
		Protocol:        protocol,
		Accounts:        accounts,
		Ledger:          ledgers,
		Fraud:           fraud.NewFraudService(store, classifier, logger),
		Notifier:        notifier,
		Geocoder:        geocoder,
		Tokens:          ids,
		Logger:          logger,
		SettlementDelay: config.SettlementDelay,
	})
	topups := topup.NewTopUpService(topup.Deps{
		Store:           store,
		Queue:           queues,
		Accounts:        accounts,
		Ledger:          ledgers,
		Cache:           cache,
		Tokens:          ids,
		Logger:          logger,
		HouseAccount:    config.HouseAccountUsername,
		SettlementDelay: config.SettlementDelay,
	})

	for name, register := range map[string]func(*queue.Registry) error{
		"notification": notifier.Register,
		"transaction":  transactions.Register,
		"topup":        topups.Register,
	} {
		if err := register(registry); err != nil {
			log.Fatalf("Unable to register %s handlers - %v", name, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := queues.Start(ctx); err != nil {
		log.Fatalf("Unable to start queue workers - %v", err)
	}

	server := api.NewServer(api.Deps{
		Config:       config,
		Logger:       logger,
		Tokens:       utils.NewJWTToken(config),
		IDs:          ids,
		Queue:        queues,
		Transactions: transactions,
		TopUps:       topups,
		Ledger:       ledgers,
	})

	errs := make(chan error, 1)
	go func() {
		errs <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errs:
		if err != nil {
			logger.WithError(err).Error("rpc server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"error": err}).Warn("rpc server did not drain in time")
	}
	queues.Stop()
}
