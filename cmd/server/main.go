package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"smartdoor/internal/access"
	"smartdoor/internal/audit"
	auditHandler "smartdoor/internal/audit/handler"
	doorHandler "smartdoor/internal/door/handler"
	"smartdoor/internal/door/metrics"
	"smartdoor/internal/door/registry"
	"smartdoor/internal/door/service"
	healthmqtt "smartdoor/internal/health/mqtt"
	httpapi "smartdoor/internal/http"
	"smartdoor/internal/platform/config"
	"smartdoor/internal/platform/httpserver"
	"smartdoor/internal/platform/logger"
	platformredis "smartdoor/internal/platform/redis"
	"smartdoor/internal/token"
	"smartdoor/internal/token/revocation"
	"smartdoor/pkg/platform/middleware/auth"
)

// main wires dependencies and owns the process lifecycle. Business logic lives
// in the internal packages.
func main() {
	log := logger.New()
	slog.SetDefault(log)

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: PostgreSQL when configured, in-memory for local development.
	var (
		doorStore  registry.Store
		grantStore access.Store
		auditStore audit.Store
		healthy    func() error
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		for _, ensure := range []func(context.Context, *sql.DB) error{
			registry.EnsureSchema,
			access.EnsureSchema,
			audit.EnsureSchema,
		} {
			if err := ensure(ctx, db); err != nil {
				return err
			}
		}
		doorStore = registry.NewPostgres(db)
		grantStore = access.NewPostgres(db)
		auditStore = audit.NewPostgres(db)
		healthy = func() error { return db.Ping() }
		log.Info("using postgres stores")
	} else {
		doorStore = registry.NewMemoryStore()
		grantStore = access.NewMemoryStore()
		auditStore = audit.NewMemoryStore()
		log.Warn("no database configured, using in-memory stores")
	}

	if cfg.SeedSampleData {
		doors, err := registry.SeedSampleDoors(ctx, doorStore)
		if err != nil {
			return err
		}
		log.Info("seeded sample doors", "count", len(doors))
	}

	// Optional revocation list, backed by Redis when configured.
	var revocationChecker auth.RevocationChecker
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		revocationChecker = revocation.NewRedisList(redisClient.Client)
		log.Info("token revocation list enabled")
	}

	// Optional audit mirror into Kafka for the notification feed.
	var auditOpts []audit.Option
	var mirror chan audit.Entry
	var publisher *audit.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err = audit.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer publisher.Close()
		mirror = make(chan audit.Entry, 256)
		auditOpts = append(auditOpts, audit.WithMirror(mirror), audit.WithLogger(log))
		log.Info("audit mirror enabled", "topic", cfg.Kafka.Topic)
	}
	auditLog := audit.NewLog(auditStore, auditOpts...)

	tokens := token.NewService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)

	resolver, err := access.NewResolver(grantStore, doorStore, cfg.AccessPolicy,
		access.WithLogger(log),
		access.WithProvisionLimit(cfg.ProvisionLimit),
	)
	if err != nil {
		return err
	}

	doorService, err := service.New(tokens, resolver, doorStore, auditLog,
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
	)
	if err != nil {
		return err
	}

	router := httpapi.New(httpapi.Dependencies{
		Logger:     log,
		Validator:  token.NewServiceAdapter(tokens),
		Revocation: revocationChecker,
		Doors:      doorHandler.New(doorService, log),
		Audit:      auditHandler.New(auditLog, log),
		Healthy:    healthy,
	})

	// Optional device health feed over MQTT.
	if cfg.MQTT.BrokerURL != "" {
		subscriber, err := healthmqtt.NewSubscriber(cfg.MQTT, doorStore, log)
		if err != nil {
			return err
		}
		defer subscriber.Close()
		log.Info("device health feed enabled", "prefix", cfg.MQTT.TopicPrefix)
	}

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting smartdoor server", "addr", cfg.Addr, "policy", cfg.AccessPolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if mirror != nil {
		worker := audit.NewWorker(publisher, mirror, log)
		group.Go(func() error {
			if err := worker.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
