package infrastructure

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/config"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/ledger"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/repository"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/service"
	transportGRPC "github.com/notarijp-cyber/ecomaker-sub003/internal/transport/grpc"
	transportHTTP "github.com/notarijp-cyber/ecomaker-sub003/internal/transport/http"
	transportNATS "github.com/notarijp-cyber/ecomaker-sub003/internal/transport/nats"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/worker"
)

// Bootstrap initialises all dependencies from config and wires up the application.
// Returns the App, a cleanup function, or an error.
func Bootstrap(ctx context.Context) (*App, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, err
	}

	var cleanupFns []func()
	fail := func(err error) (*App, func(), error) {
		runCleanup(cleanupFns)()
		return nil, nil, err
	}

	// ── Storage ────────────────────────────────────────────────────────────────
	var (
		store repository.Store
		cache ledger.BalanceCache
		audit worker.AuditRecorder
	)
	switch cfg.StoreProvider {
	case config.StorePostgres:
		db, err := connectPostgres(ctx, cfg.DSN())
		if err != nil {
			return fail(fmt.Errorf("postgres: %w", err))
		}
		cleanupFns = append(cleanupFns, db.Close)

		rdb, err := connectRedis(ctx, cfg.RedisAddr())
		if err != nil {
			return fail(fmt.Errorf("redis: %w", err))
		}
		cleanupFns = append(cleanupFns, func() { _ = rdb.Close() })

		pg := repository.NewPostgresStore(db)
		store = pg
		cache = repository.NewBalanceCache(rdb, pg)
		audit = repository.NewAuditRepo(db)

	case config.StoreMemory:
		slog.Warn("using in-memory store, state is lost on restart")
		store = repository.NewMemoryStore()
	}

	// ── Messaging ──────────────────────────────────────────────────────────────
	var (
		bus repository.MessageBus
		nc  *nats.Conn
	)
	if cfg.BusProvider == config.ProviderNats || cfg.WorkerProvider == config.ProviderNats {
		nc, err = connectNats(cfg.NatsAddr())
		if err != nil {
			return fail(fmt.Errorf("nats: %w", err))
		}
		cleanupFns = append(cleanupFns, nc.Close)
	}

	switch cfg.BusProvider {
	case config.ProviderNats:
		bus = transportNATS.NewBus(nc)
	case config.ProviderGRPC:
		grpcBus, cleanup, err := transportGRPC.NewGrpcBusFromAddr(cfg.GRPCAddr(), cfg.BusBufferSize)
		if err != nil {
			return fail(fmt.Errorf("grpc bus: %w", err))
		}
		bus = grpcBus
		cleanupFns = append(cleanupFns, cleanup)
	}

	// ── Engine ─────────────────────────────────────────────────────────────────
	engine := ledger.New(store, bus, cache, ledger.Config{
		MaxAttempts:     cfg.MaxTxAttempts,
		RetryDelay:      cfg.RetryDelay,
		StartingBalance: cfg.StartingBalance,
	}, slog.Default())

	for _, id := range cfg.AdminIDs {
		if err := engine.SeedAccount(ctx, id, model.RoleAdmin); err != nil {
			return fail(fmt.Errorf("seed admin %q: %w", id, err))
		}
	}

	var svc service.EconomyService = engine

	// ── Servers ────────────────────────────────────────────────────────────────
	var servers []Server

	// gRPC server acts as audit worker when WorkerProvider is "grpc" (handled in Server.Publish).
	var grpcRecorder worker.AuditRecorder
	if cfg.WorkerProvider == config.ProviderGRPC {
		grpcRecorder = audit
	}
	servers = append(servers, transportGRPC.NewServer(cfg.GRPCListenAddr(), svc, grpcRecorder))

	if nc != nil {
		servers = append(servers, transportNATS.NewHandler(svc, nc))
		if cfg.WorkerProvider == config.ProviderNats {
			servers = append(servers, worker.NewAuditWorker(audit, nc))
		}
	}

	if addr, apiErr := cfg.ApiAddr(); apiErr == nil {
		limiter := transportHTTP.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
		servers = append(servers, transportHTTP.NewServer(addr, svc, limiter))
	} else {
		slog.Info("HTTP API not started", "reason", apiErr)
	}

	servers = append(servers, worker.NewSettlementSweeper(engine, cfg.SettlementSchedule, cfg.SettlementBatch))

	return NewApp(servers), runCleanup(cleanupFns), nil
}

// runCleanup returns a single function that calls all cleanup functions in reverse order.
func runCleanup(fns []func()) func() {
	return func() {
		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	}
}
