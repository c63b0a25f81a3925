package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	red "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/klabs/account-service/internal/core/port"
	"github.com/klabs/account-service/internal/infra/config"
	"github.com/klabs/account-service/internal/infra/database"
	"github.com/klabs/account-service/internal/infra/email"
	kafkainfra "github.com/klabs/account-service/internal/infra/kafka"
	"github.com/klabs/account-service/internal/infra/logger"
	redisinfra "github.com/klabs/account-service/internal/infra/redis"
	"github.com/klabs/account-service/internal/infra/security"
	"github.com/klabs/account-service/internal/infra/telemetry"
	postgresrepo "github.com/klabs/account-service/internal/repository/postgres"
	redisrepo "github.com/klabs/account-service/internal/repository/redis"
	"github.com/klabs/account-service/internal/transport/http/routes"
	"github.com/klabs/account-service/internal/usecase"
)

const tombstonePurgeInterval = 24 * time.Hour

// Application wires configuration, infrastructure, use cases and transport
// into a runnable service.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *red.Client
	producer *kafkainfra.Producer
	tracing  *telemetry.TracerProvider
	metrics  *telemetry.Metrics
	accounts *usecase.AccountService
}

// New builds the full dependency graph. Kafka and SMTP fall back to logging
// stand-ins when disabled, so local development needs only Postgres and Redis.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	var tracing *telemetry.TracerProvider
	if cfg.Telemetry.Enabled {
		tracing, err = telemetry.NewTracerProvider(ctx, cfg.App.Name, cfg.Telemetry, log)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
	}
	metrics := telemetry.NewMetrics()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(ctx, cfg.Redis)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	hasher := security.NewArgon2Hasher(security.DefaultArgon2Params())
	tokenIssuer := security.NewJWTIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)

	accountRepo := postgresrepo.NewAccountRepository(pool)
	auditRepo := postgresrepo.NewAuditLogRepository(pool)
	deletedRepo := postgresrepo.NewDeletedAccountRepository(pool)
	cache := redisrepo.NewCache(redisClient)

	var producer *kafkainfra.Producer
	var events port.EventPublisher
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("kafka unavailable, using stub publisher", zap.Error(err))
			events = kafkainfra.NewStubPublisher(log)
		} else {
			events = kafkainfra.NewEventPublisher(producer, log)
		}
	} else {
		log.Info("kafka disabled, using stub publisher")
		events = kafkainfra.NewStubPublisher(log)
	}

	var mail port.EmailSender
	if cfg.SMTP.Enabled {
		mail = email.NewSMTPSender(cfg.SMTP)
	} else {
		log.Info("smtp disabled, logging outbound mail")
		mail = email.NewNoopSender(log)
	}

	validator := usecase.NewAccountValidator(accountRepo, deletedRepo)

	registrationService := usecase.NewRegistrationService(accountRepo, cache, mail, events, tokenIssuer, validator, hasher, log)
	authService := usecase.NewAuthService(accountRepo, auditRepo, cache, tokenIssuer, events, validator, hasher, log)
	validationService := usecase.NewValidationService(accountRepo, deletedRepo, cache, tokenIssuer)
	accountService := usecase.NewAccountService(accountRepo, deletedRepo, auditRepo, cache, mail, events, validator, hasher, log)

	engine := routes.Register(routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Metrics:  metrics,
		Database: pool,
		Cache:    redisChecker{client: redisClient},
		Services: routes.ServiceSet{
			Registration: registrationService,
			Auth:         authService,
			Validation:   validationService,
			Accounts:     accountService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
		tracing:  tracing,
		metrics:  metrics,
		accounts: accountService,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.pool.Close()
	defer func() {
		_ = a.redis.Close()
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()
	defer func() {
		if a.tracing != nil {
			_ = a.tracing.Shutdown(context.Background())
		}
	}()

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go a.purgeLoop(purgeCtx)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting account API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}

// purgeLoop sweeps expired tombstones once per interval.
func (a *Application) purgeLoop(ctx context.Context) {
	ticker := time.NewTicker(tombstonePurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := a.accounts.PurgeExpiredTombstones(ctx)
			if err != nil {
				a.logger.Error("tombstone purge failed", zap.Error(err))
				continue
			}
			if purged > 0 {
				a.metrics.TombstonePurges.Add(float64(purged))
				a.logger.Info("tombstones purged", zap.Int("count", purged))
			}
		}
	}
}

type redisChecker struct {
	client *red.Client
}

func (r redisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
