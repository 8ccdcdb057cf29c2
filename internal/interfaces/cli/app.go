package cli

import (
	"context"
	"strings"

	"github.com/c-nielson/CS534-Final-Project/internal/application/features"
	"github.com/c-nielson/CS534-Final-Project/internal/config"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/database/redis"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/messaging/kafka"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/monitoring/logging"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/monitoring/prometheus"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/storage"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/storage/local"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/storage/minio"
	"github.com/c-nielson/CS534-Final-Project/internal/interfaces/http/handlers"
)

// App holds the infrastructure a command runs against.  Optional parts stay
// nil when their section is disabled.
type App struct {
	Service   *features.Service
	Store     storage.ObjectStore
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.PipelineMetrics
	Checkers  []handlers.HealthChecker

	logger  logging.Logger
	closers []func() error
}

// BuildApp connects every enabled backend.  A backend that fails to connect
// fails the build; nothing is silently disabled.
func BuildApp(cfg *config.Config, logger logging.Logger) (*App, error) {
	app := &App{logger: logger}
	var opts []features.Option

	store, client, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	app.Store = store
	if client != nil {
		app.closers = append(app.closers, client.Close)
		app.Checkers = append(app.Checkers, handlers.NewChecker("object_store", func(ctx context.Context) error {
			_, err := client.HealthCheck(ctx)
			return err
		}))
	}

	if cfg.Cache.Enabled {
		rc, err := redis.NewClient(&redis.RedisConfig{
			Addr:         cfg.Cache.Redis.Addr,
			Password:     cfg.Cache.Redis.Password,
			DB:           cfg.Cache.Redis.DB,
			PoolSize:     cfg.Cache.Redis.PoolSize,
			DialTimeout:  cfg.Cache.Redis.DialTimeout,
			ReadTimeout:  cfg.Cache.Redis.ReadTimeout,
			WriteTimeout: cfg.Cache.Redis.WriteTimeout,
		}, logger)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, rc.Close)
		cache := redis.NewRedisCache(rc, logger,
			redis.WithPrefix(cachePrefix(cfg.Cache.KeyPrefix)),
			redis.WithTTLJitter(cfg.Cache.TTLJitter))
		app.Checkers = append(app.Checkers, handlers.NewChecker("cache", cache.Ping))
		opts = append(opts, features.WithCache(cache, cfg.Cache.TTL))
	}

	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Collector = collector
		app.Metrics = prometheus.NewPipelineMetrics(collector)
		opts = append(opts, features.WithMetrics(app.Metrics))
	}

	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			Acks:         acksName(cfg.Kafka.RequiredAcks),
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			WriteTimeout: cfg.Kafka.WriteTimeout,
			AsyncErrorHandler: func(err error, msg *kafka.Message) {
				logger.Warn("async event publish failed", logging.String("topic", msg.Topic), logging.Err(err))
			},
		}, logger)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, producer.Close)
		opts = append(opts, features.WithPublisher(producer, cfg.Kafka.Topic))
	}

	app.Service = features.NewService(app.Store, logger, opts...)
	return app, nil
}

// openStore routes s3:// locations to MinIO when an endpoint is configured
// and everything else to the local filesystem.
func openStore(cfg *config.Config, logger logging.Logger) (storage.ObjectStore, *minio.MinIOClient, error) {
	if cfg.MinIO.Endpoint == "" {
		return storage.NewRouter(local.New(), nil), nil, nil
	}
	client, err := minio.NewMinIOClient(&minio.MinIOConfig{
		Endpoint:        cfg.MinIO.Endpoint,
		AccessKeyID:     cfg.MinIO.AccessKey,
		SecretAccessKey: cfg.MinIO.SecretKey,
		Region:          cfg.MinIO.Region,
		UseSSL:          cfg.MinIO.UseSSL,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewRouter(local.New(), minio.NewStore(client, logger)), client, nil
}

// Close releases every backend in reverse order of construction.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to close backend", logging.Err(err))
		}
	}
	a.closers = nil
}

func cachePrefix(p string) string {
	if p == "" || strings.HasSuffix(p, ":") {
		return p
	}
	return p + ":"
}

// acksName maps kafka.required_acks to the producer setting: -1 waits for
// all replicas, anything else for the leader only.
func acksName(n int) string {
	if n == -1 {
		return "all"
	}
	return "one"
}

//Personal.AI order the ending
