package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tamasbrandstadter/bank-api/cmd/api/account"
	"github.com/tamasbrandstadter/bank-api/cmd/api/consumer"
	"github.com/tamasbrandstadter/bank-api/cmd/api/customer"
	"github.com/tamasbrandstadter/bank-api/cmd/api/handler"
	"github.com/tamasbrandstadter/bank-api/cmd/api/notification"
	"github.com/tamasbrandstadter/bank-api/cmd/api/storage"
	"github.com/tamasbrandstadter/bank-api/cmd/api/transfer"
	"github.com/tamasbrandstadter/bank-api/internal/cache"
	"github.com/tamasbrandstadter/bank-api/internal/db"
	"github.com/tamasbrandstadter/bank-api/internal/env"
	"github.com/tamasbrandstadter/bank-api/internal/mq"
)

type store interface {
	account.Repository
	customer.Repository
	transfer.Repository
}

func main() {
	log.SetFormatter(&log.TextFormatter{TimestampFormat: time.RFC3339, FullTimestamp: true})

	envCfg, err := env.GetEnvCfg()
	if err != nil {
		log.Errorf("error parsing env vars: %v", err)
		return
	}

	configureLogging(envCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st store

	switch envCfg.Storage {
	case env.StorageMemory:
		log.Info("using in-memory storage")
		st = storage.NewMemory()
	default:
		dbc, err := db.NewConnection(db.Config{
			Host:       envCfg.DBHost,
			User:       envCfg.DBUser,
			Pass:       envCfg.DBPass,
			Name:       envCfg.DBName,
			Port:       envCfg.DBPort,
			MaxRetries: envCfg.DBMaxRetries,
		})
		if err != nil {
			log.Errorf("error connecting to db: %v", err)
			return
		}

		defer func() {
			if err := dbc.Close(); err != nil {
				log.Errorf("error closing db: %v", err)
			}
		}()

		if envCfg.DBMigrate {
			if err := db.Migrate(dbc); err != nil {
				log.Errorf("error migrating db: %v", err)
				return
			}
		}

		st = storage.NewPostgres(dbc)
	}

	balances := cache.NewLocal(0)
	if envCfg.CacheEnabled() {
		r, err := cache.NewConnection(cache.Config{
			Host: envCfg.RedisHost,
			Pass: envCfg.RedisPass,
			Port: envCfg.RedisPort,
		})
		if err != nil {
			log.Errorf("error connecting to redis: %v", err)
			return
		}
		balances = r
	}

	defer func() {
		if err := balances.Close(); err != nil {
			log.Errorf("error closing redis: %v", err)
		}
	}()

	publisher := notification.NewPublisher(nil, envCfg.Currency)
	transfers := transfer.NewService(st, balances, publisher)

	if envCfg.MQEnabled() {
		mqCfg := mq.Config{
			User:         envCfg.MQUser,
			Pass:         envCfg.MQPass,
			Host:         envCfg.MQHost,
			Port:         envCfg.MQPort,
			Concurrency:  envCfg.MQConcurrency,
			MaxReconnect: envCfg.MQMaxReconnect,
		}

		conn, err := mq.NewConnection(mqCfg)
		if err != nil {
			log.Errorf("error connecting to mq: %v", err)
			return
		}

		defer func() {
			if err := conn.Close(); err != nil {
				log.Errorf("error closing mq connection: %v", err)
			}
		}()

		queue, err := conn.DeclareTransfers(mqCfg.Concurrency)
		if err != nil {
			log.Errorf("error declaring queues: %v", err)
			return
		}

		publisher.SetChannel(conn.Channel)

		tc := consumer.TransferConsumer{
			Queue:       queue,
			Concurrency: mqCfg.Concurrency,
			Transfers:   transfers,
			Reconnected: func(c mq.Conn) { publisher.SetChannel(c.Channel) },
		}

		if err := tc.StartConsume(ctx, conn); err != nil {
			log.Errorf("error starting consumers: %v", err)
			return
		}
		go tc.ClosedConnectionListener(ctx, mqCfg, conn.NotifyClose())
	}

	app := handler.NewApplication(
		account.NewService(st, balances),
		customer.NewService(st, balances),
		transfers,
	)

	server := http.Server{
		Addr:           fmt.Sprintf(":%d", envCfg.Port),
		Handler:        app,
		ReadTimeout:    envCfg.ReadTimeout,
		WriteTimeout:   envCfg.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Infof("server started successfully, listening on %s", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Errorf("server failed to start: %v", err)
		}
		return
	case <-ctx.Done():
		log.Info("shutdown: signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), envCfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("shutdown: Graceful shutdown did not complete in %v : %v", envCfg.ShutdownTimeout, err)

		if err := server.Close(); err != nil {
			log.Warnf("shutdown: Error killing server : %v", err)
		}
	}
}

func configureLogging(cfg env.Cfg) {
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("unknown log level %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
