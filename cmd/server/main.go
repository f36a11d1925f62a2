// Command server runs the selective disclosure service.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	disclosurehandler "veil/internal/disclosure/handler"
	disclosuremetrics "veil/internal/disclosure/metrics"
	disclosureservice "veil/internal/disclosure/service"
	jwttoken "veil/internal/jwt_token"
	"veil/internal/party"
	"veil/internal/platform/config"
	"veil/internal/platform/httpserver"
	"veil/internal/platform/logger"
	"veil/internal/platform/metrics"
	"veil/internal/platform/middleware"
	platformredis "veil/internal/platform/redis"
	recordhandler "veil/internal/record/handler"
	recordservice "veil/internal/record/service"
	recordstore "veil/internal/record/store"
	"veil/internal/router"
	"veil/internal/schema"
	audit "veil/pkg/platform/audit"
	auditpublisher "veil/pkg/platform/audit/publisher"
	auditmemory "veil/pkg/platform/audit/store/memory"
	auditpostgres "veil/pkg/platform/audit/store/postgres"
	auditworker "veil/pkg/platform/audit/worker"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	registry, err := schema.New(cfg.SchemaFields)
	if err != nil {
		return fmt.Errorf("build schema registry: %w", err)
	}
	log.Info("schema registry loaded", "fields", registry.Cardinality())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := make(map[string]router.HealthCheck)

	// Snapshot store: postgres when a DSN is configured, in-memory otherwise.
	var snapshots recordservice.Store
	if cfg.Postgres.DSN != "" {
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("connect record store: %w", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("ping record store: %w", err)
		}
		snapshots = recordstore.NewPostgres(pool)
		checks["postgres"] = pool.Ping
	} else {
		log.Warn("no postgres DSN configured, using in-memory record store")
		snapshots = recordstore.NewMemory()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		snapshots = recordstore.NewRedisCache(snapshots, redisClient.Client, cfg.Redis.SnapshotTTL, log)
		checks["redis"] = redisClient.Health
	}

	// Audit trail: pipeline feeds a worker which appends to the store and
	// optionally publishes to Kafka.
	pipeline := audit.NewPipeline(1024, log)

	var auditStore audit.Store
	if cfg.Postgres.DSN != "" {
		auditDB, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("connect audit store: %w", err)
		}
		defer auditDB.Close()
		if err := auditDB.PingContext(ctx); err != nil {
			return fmt.Errorf("ping audit store: %w", err)
		}
		auditStore = auditpostgres.New(auditDB)
	} else {
		auditStore = auditmemory.New()
	}

	var publisher auditworker.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := auditpublisher.NewKafka(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return fmt.Errorf("connect audit publisher: %w", err)
		}
		defer kafka.Close()
		publisher = kafka
	}
	worker := auditworker.New(auditStore, publisher, pipeline.Events(), log)

	// Auth and parties.
	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	validator := jwtValidator{tokens: jwtService}

	partyService := party.NewService(party.NewInMemoryStore(), jwtService, cfg.Auth.TokenTTL, pipeline, log)
	partyHandler := party.NewHandler(partyService, log, cfg.Auth.AdminKey)

	// Records and disclosure.
	recordService := recordservice.New(registry, snapshots, pipeline, log)
	recHandler := recordhandler.New(recordService, log, validator)

	disclosureService := disclosureservice.New(registry, snapshots, pipeline, disclosuremetrics.New(), log)
	discHandler := disclosurehandler.New(disclosureService, log, validator)

	httpMetrics := metrics.New()
	r := router.New(log, httpMetrics, checks, partyHandler, recHandler, discHandler)
	server := httpserver.New(cfg.Server.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := worker.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// jwtValidator adapts the token service to the middleware's claims type.
type jwtValidator struct {
	tokens *jwttoken.JWTService
}

func (v jwtValidator) ValidateToken(token string) (*middleware.JWTClaims, error) {
	claims, err := v.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{PartyID: claims.PartyID, JTI: claims.ID}, nil
}
