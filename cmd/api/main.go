// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Huddle HTTP API server.
//
// # Startup Sequence
//
//  1. Load configuration from the environment (and an optional .env file).
//  2. Initialize structured logger.
//  3. Open storage: PostgreSQL + Redis with migrations, or in-memory stores.
//  4. Wire domain services, the realtime hub and HTTP handlers.
//  5. Seed the bootstrap administrator.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/taibuivan/huddle/internal/api"
	"github.com/taibuivan/huddle/internal/chat"
	"github.com/taibuivan/huddle/internal/chat/access"
	"github.com/taibuivan/huddle/internal/chat/group"
	"github.com/taibuivan/huddle/internal/chat/message"
	"github.com/taibuivan/huddle/internal/chat/realtime"
	"github.com/taibuivan/huddle/internal/platform/config"
	"github.com/taibuivan/huddle/internal/platform/constants"
	"github.com/taibuivan/huddle/internal/platform/ctxutil"
	"github.com/taibuivan/huddle/internal/platform/events"
	"github.com/taibuivan/huddle/internal/platform/logging"
	"github.com/taibuivan/huddle/internal/platform/metrics"
	"github.com/taibuivan/huddle/internal/platform/migration"
	pgstore "github.com/taibuivan/huddle/internal/platform/postgres"
	redisstore "github.com/taibuivan/huddle/internal/platform/redis"
	"github.com/taibuivan/huddle/internal/platform/sec"
	"github.com/taibuivan/huddle/internal/users/account"
	"github.com/taibuivan/huddle/internal/users/auth"
)

// storage bundles the repositories selected by STORAGE_DRIVER.
type storage struct {
	users       auth.UserRepository
	revocations auth.RevocationStore
	groups      group.Repository
	messages    message.Repository
	health      api.HealthDependencies
	close       func()
}

func main() {
	// ── 1. Configuration ──────────────────────────────────────────────────
	bootLog := logging.New(os.Stdout, logging.Options{})
	cfg, err := config.Load()
	must(bootLog, err, "load configuration")

	// ── 2. Logger ─────────────────────────────────────────────────────────
	log := logging.New(os.Stdout, logging.Options{Development: cfg.IsDevelopment(), Debug: cfg.Debug})
	slog.SetDefault(log)

	log.Info("configuration_loaded",
		slog.String("version", constants.AppVersion),
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("storage", cfg.StorageDriver),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Bound dependency connections so misconfiguration fails fast.
	startupCtx, startupCancel := context.WithTimeout(rootCtx, constants.StartupTimeout)
	defer startupCancel()

	// ── 3. Storage ────────────────────────────────────────────────────────
	var store *storage
	if cfg.StorageDriver == config.StoragePostgres {
		store, err = openPostgres(startupCtx, cfg, log)
	} else {
		store = openMemory()
	}
	must(log, err, "open storage")
	defer store.close()

	// ── 4. Domain Wiring ──────────────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.JWTSecret, constants.AuthIssuer, cfg.TokenTTL)
	must(log, err, "initialize token service")
	log.Debug("token_service_ready", slog.Duration("ttl", tokens.TTL()))

	if cfg.IsProduction() && !cfg.CookieSecure {
		log.Warn("insecure_credential_cookie", slog.String("hint", "set COOKIE_SECURE=true behind TLS"))
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.KafkaEnabled() {
		publisher, err = events.NewKafkaPublisher(events.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		must(log, err, "initialize kafka publisher")
		log.Info("event_stream_enabled", slog.String("topic", cfg.KafkaTopic))
	}
	defer func() {
		if cerr := publisher.Close(); cerr != nil {
			log.Error("event_publisher_close_failed", slog.Any("error", cerr))
		}
	}()

	registry := metrics.New()

	gate := access.NewGate(access.Options{StrictParticipation: cfg.StrictParticipation})
	authService := auth.NewService(store.users, store.revocations, tokens)
	accountService := account.NewService(store.users, gate)

	// The hub and the chat service refer to each other; the hub resolves
	// room permissions through the service once it exists.
	var chatService *chat.Service
	hub := realtime.NewHub(realtime.AuthorizerFunc(func(ctx context.Context, claims *sec.AuthClaims, room string) bool {
		return chatService.CanJoinRoom(ctx, claims, room)
	}), registry)

	chatService = chat.NewService(store.groups, store.messages, store.users, gate,
		chat.Options{Events: publisher, Notifier: hub, Metrics: registry},
	)

	// ── 5. Bootstrap Administrator ────────────────────────────────────────
	if cfg.SeedAdminUsername != "" {
		_, err := authService.EnsureAdmin(ctxutil.WithLogger(startupCtx, log), cfg.SeedAdminUsername, cfg.SeedAdminPassword)
		must(log, err, "seed administrator")
	}

	// ── 6. HTTP Server ────────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(store.health, log)

	server := api.NewServer(rootCtx, cfg, log,
		api.Security{Verifier: tokens, Revocations: store.revocations},
		registry,
		api.Handlers{
			Liveness:  liveness,
			Readiness: readiness,
			Auth:      auth.NewHandler(authService, cfg.CookieSecure),
			Accounts:  account.NewHandler(accountService),
			Chat:      chat.NewHandler(chatService),
			Realtime:  realtime.NewHandler(hub, cfg.AllowedOrigins, cfg.IsDevelopment()),
		},
	)

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case <-rootCtx.Done():
		log.Info("shutdown_signal_received")
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	// Websocket connections are hijacked, so the server does not wait for them.
	hub.Shutdown()

	log.Info("server_shutting_down", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("server_shutdown_failed", slog.Any("error", err))
	}

	log.Info("server_stopped")
}

// openPostgres connects PostgreSQL and Redis and applies pending migrations.
func openPostgres(ctx context.Context, cfg *config.Config, log *slog.Logger) (*storage, error) {
	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}

	rdb, err := redisstore.NewClient(ctx, cfg.RedisURL, log)
	if err != nil {
		pool.Close()
		return nil, err
	}

	if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, err
	}

	return &storage{
		users:       auth.NewUserRepository(pool),
		revocations: auth.NewRevocationStore(rdb),
		groups:      group.NewPostgresRepository(pool),
		messages:    message.NewPostgresRepository(pool),
		health: api.HealthDependencies{
			CheckDatabase: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
			CheckCache:    func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) },
		},
		close: func() {
			log.Info("closing_postgres_pool")
			pool.Close()
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_failed", slog.Any("error", cerr))
			}
		},
	}, nil
}

// openMemory builds process-local stores. Deletions cascade through hooks
// the way foreign keys do in PostgreSQL.
func openMemory() *storage {
	users := auth.NewMemoryUserRepository()
	groups := group.NewMemoryRepository()
	messages := message.NewMemoryRepository()

	groups.OnDelete(messages.DeleteByGroup)
	users.OnDelete(groups.RemoveUser)
	users.OnDelete(messages.RemoveUser)

	return &storage{
		users:       users,
		revocations: auth.NewMemoryRevocationStore(),
		groups:      groups,
		messages:    messages,
		close:       func() {},
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
