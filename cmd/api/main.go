package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/99minutos/storefront/internal/api"
	"github.com/99minutos/storefront/internal/core/ports"
	"github.com/99minutos/storefront/internal/core/service"
	"github.com/99minutos/storefront/internal/infrastructure/db/gormstore"
	mongostore "github.com/99minutos/storefront/internal/infrastructure/db/mongo"
	redisstore "github.com/99minutos/storefront/internal/infrastructure/db/redis"
	"github.com/99minutos/storefront/internal/infrastructure/http/handlers"
	"github.com/99minutos/storefront/internal/infrastructure/messaging/kafka"
	"github.com/99minutos/storefront/internal/infrastructure/messaging/rabbitmq"
	"github.com/99minutos/storefront/internal/infrastructure/queue"
	"github.com/99minutos/storefront/internal/infrastructure/search/elastic"
	"github.com/99minutos/storefront/internal/infrastructure/security"
	"github.com/99minutos/storefront/internal/pkg/config"
	"github.com/99minutos/storefront/pkg/logger"
)

const serviceName = "storefront-api"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
		Env:     cfg.Env,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server exited properly")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.DevSecrets {
		log.Warn().Msg("JWT secrets not set, using development-only values")
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.close(closeCtx); err != nil {
			log.Error().Err(err).Msg("store close failed")
		}
	}()

	probes := map[string]handlers.Pinger{cfg.Store.Driver: store.probe}

	// --- Redis: refresh-token revocation and login throttling ---
	authOpts := []service.AuthOption{service.WithAdminSignup(cfg.Auth.AllowAdminSignup)}
	deps := api.Dependencies{
		Logger:      log,
		Prefix:      cfg.APIPrefix,
		CORSOrigins: cfg.CORSOrigins,
	}
	if cfg.Redis.Addr != "" {
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer closeWithLog(log, "redis client", client.Close)

		authOpts = append(authOpts, service.WithRevocationStore(redisstore.NewRevocationStore(client)))
		deps.Limiter = redisstore.NewRateLimiter(client, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow)
		probes["redis"] = redisstore.NewPinger(client)
	} else {
		log.Warn().Msg("REDIS_ADDR not set: refresh tokens cannot be revoked and login is not rate limited")
	}

	// --- Product events: brokers and the search projection ---
	var sinks []queue.NamedSink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := kafka.NewProductEventSink(kafka.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.ProductTopic,
		})
		if err != nil {
			return err
		}
		defer closeWithLog(log, "kafka writer", kafkaSink.Close)
		sinks = append(sinks, queue.NamedSink{Name: "kafka", Sink: kafkaSink})
	}
	if cfg.RabbitMQ.URL != "" {
		rabbitSink, err := rabbitmq.NewProductEventSink(rabbitmq.Config{
			URL:      cfg.RabbitMQ.URL,
			Exchange: cfg.RabbitMQ.Exchange,
		})
		if err != nil {
			return err
		}
		defer closeWithLog(log, "rabbitmq connection", rabbitSink.Close)
		sinks = append(sinks, queue.NamedSink{Name: "rabbitmq", Sink: rabbitSink})
	}
	if len(cfg.Search.URLs) > 0 {
		es, err := elastic.NewClient(elastic.Config{
			Addresses: cfg.Search.URLs,
			Username:  cfg.Search.Username,
			Password:  cfg.Search.Password,
		})
		if err != nil {
			return err
		}
		catalog := elastic.NewCatalog(es, cfg.Search.Index)
		sinks = append(sinks, queue.NamedSink{Name: "elasticsearch", Sink: catalog})
		deps.Search = catalog
		probes["elasticsearch"] = catalog
	}

	var sink ports.ProductEventSink
	switch len(sinks) {
	case 0:
		sink = queue.NewLogSink(logger.Component("events"))
	case 1:
		sink = sinks[0].Sink
	default:
		sink = queue.NewFanoutSink(sinks...)
	}

	// Workers run on their own context so Close can drain them after the
	// server has stopped taking requests.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	dispatcher := queue.NewDispatcher(cfg.Events.Workers, sink, logger.Component("events"))
	dispatcher.Start(workerCtx)
	defer dispatcher.Close()

	// --- Services ---
	tokens, err := security.NewJWTManager([]byte(cfg.Auth.JWTSecret), []byte(cfg.Auth.JWTRefreshSecret))
	if err != nil {
		return err
	}
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)

	deps.AuthService = service.NewAuthService(store.users, hasher, tokens, logger.Component("auth"), authOpts...)
	deps.ProductService = service.NewProductService(store.products, store.users, dispatcher, logger.Component("products"))
	deps.Tokens = tokens
	deps.Probes = probes

	e, err := api.NewRouter(deps)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.Store.Driver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type storage struct {
	users    ports.UserRepository
	products ports.ProductRepository
	probe    handlers.Pinger
	close    func(context.Context) error
}

// openStorage connects the configured store and prepares its schema or indexes.
func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		s, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		return &storage{users: s.Users(), products: s.Products(), probe: s, close: s.Close}, nil

	default:
		s, err := gormstore.Open(ctx, gormstore.Config{
			Driver:        cfg.Store.Driver,
			DSN:           cfg.Store.DatabaseURL,
			SlowThreshold: 200 * time.Millisecond,
		}, logger.Component("sql"))
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return &storage{
			users:    s.Users(),
			products: s.Products(),
			probe:    s,
			close:    func(context.Context) error { return s.Close() },
		}, nil
	}
}

func closeWithLog(log zerolog.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Error().Err(err).Str("resource", what).Msg("close failed")
	}
}
