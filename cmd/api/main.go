package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/cache"
	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/db"
	httpx "github.com/geocoder89/todohub/internal/http"
	"github.com/geocoder89/todohub/internal/http/handlers"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/geocoder89/todohub/internal/repo/memory"
	"github.com/geocoder89/todohub/internal/repo/postgres"
	"github.com/geocoder89/todohub/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// storage is the repo pair the router and authenticator share.
type storage struct {
	users interface {
		handlers.UsersStore
		auth.UserStore
	}
	todos handlers.TodosStore
	ping  handlers.Pinger
	close func()
}

// overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(observability.LoggerConfig{
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Service: "todohub",
	})
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: "todohub",
		Version:     version,
		Env:         cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.OTLPSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		sctx, cancel := config.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	store, err := openStorage(ctx, cfg, prom, log)
	if err != nil {
		return err
	}
	defer store.close()

	hasher := security.NewHasher(cfg.BcryptCost)

	seeded, err := db.EnsureAdminUser(ctx, store.users, hasher, cfg)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if seeded {
		log.Info("admin user created", "username", cfg.AdminUsername)
	}

	codec, err := auth.NewCodec([]byte(cfg.JWTSecret), cfg.JWTAlgorithm)
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}

	authn := auth.NewAuthenticator(store.users, hasher, codec, cfg.AccessTTL()).WithMetrics(prom)

	readiness := map[string]handlers.Pinger{}
	if store.ping != nil {
		readiness["postgres"] = store.ping
	}

	var todoCache cache.Store
	if cfg.RedisAddr != "" {
		rc := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL(),
			Prefix:   "todohub:",
		})
		defer rc.Close()

		readiness["redis"] = rc
		todoCache = rc
		log.Info("todo cache backed by redis", "addr", cfg.RedisAddr)
	} else {
		todoCache = cache.NewMemory(cfg.CacheTTL())
	}

	router := httpx.NewRouter(httpx.Deps{
		Log:           log,
		Config:        cfg,
		Prom:          prom,
		Authenticator: authn,
		Resolver:      auth.NewResolver(codec),
		Guard:         auth.NewGuard(cfg.AuthAdminBypass),
		Users:         store.users,
		Todos:         store.todos,
		Cache:         cache.WithMetrics(todoCache, prom),
		Readiness:     readiness,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.Storage, "jwt_alg", codec.Algorithm())
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-stop:
	}

	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

func openStorage(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (storage, error) {
	if cfg.Storage == "memory" {
		log.Warn("using in-memory storage; data is lost on restart")

		todos := memory.NewTodosRepo()
		return storage{
			users: memory.NewUsersRepo(todos),
			todos: todos,
			close: func() {},
		}, nil
	}

	pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DBURL, MaxConns: int32(cfg.DBMaxConns)})
	if err != nil {
		return storage{}, fmt.Errorf("connect postgres: %w", err)
	}

	applied, err := db.Migrate(ctx, pool)
	if err != nil {
		pool.Close()
		return storage{}, err
	}
	log.Info("schema up to date", "applied", applied)

	return storage{
		users: postgres.NewUsersRepo(pool, prom),
		todos: postgres.NewTodosRepo(pool, prom),
		ping:  pool,
		close: pool.Close,
	}, nil
}
