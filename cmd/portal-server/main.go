// cmd/portal-server/main.go
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

	"incubator-portal/internal/api"
	"incubator-portal/internal/applications"
	"incubator-portal/internal/applications/search"
	"incubator-portal/internal/applications/store"
	"incubator-portal/internal/common/auth"
	"incubator-portal/internal/common/camunda"
	"incubator-portal/internal/common/config"
	"incubator-portal/internal/common/database"
	"incubator-portal/internal/common/logger"
	"incubator-portal/internal/common/observability"
	"incubator-portal/internal/common/validation"
	"incubator-portal/internal/models"
	sas "incubator-portal/internal/workers/application/set-application-status"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting incubator portal...",
		zap.String("environment", cfg.App.Environment),
		zap.Bool("camunda", cfg.Camunda.Enabled),
		zap.Bool("elasticsearch", cfg.Database.Elasticsearch.Enabled),
	)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("failed to ensure applications schema", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	checks := map[string]api.ReadinessCheck{
		"postgres": pg.Ping,
		"redis":    redis.Ping,
	}

	// --- Init Elasticsearch with retry (optional) ---
	var indexer applications.Indexer
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		if err := esClient.EnsureIndex(ctx, cfg.Database.Elasticsearch.Index); err != nil {
			zapLog.Fatal("failed to ensure search index", zap.Error(err))
		}
		indexer = search.NewIndex(esClient.Client, cfg.Database.Elasticsearch.Index)
		checks["elasticsearch"] = esClient.Ping
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init Zeebe client with retry (optional) ---
	var zeebe *camunda.Client
	var publisher applications.EventPublisher
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
				MessageTTL:             config.GetDuration(cfg.Camunda.MessageTTL),
			}, log)
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		publisher = zeebe
		zapLog.Info("Zeebe client connected successfully")
	}

	// --- Token verification ---
	var verifier auth.Verifier
	switch cfg.Auth.Verifier {
	case "keycloak":
		verifier = auth.NewKeycloakClient(
			cfg.Auth.Keycloak.URL,
			cfg.Auth.Keycloak.Realm,
			cfg.Auth.Keycloak.ClientID,
			cfg.Auth.Keycloak.ClientSecret,
		)
	default:
		verifier, err = auth.NewJWTVerifier(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer, cfg.Auth.JWT.Audience)
		if err != nil {
			zapLog.Fatal("failed to create jwt verifier", zap.Error(err))
		}
	}
	revocations := auth.NewRevocationList(redis.Client, time.Duration(cfg.Auth.RevocationTTL)*time.Second)

	// --- Application service ---
	records := store.NewPostgresStore(pg.DB)

	validator, err := validation.NewSubmissionValidator()
	if err != nil {
		zapLog.Fatal("failed to compile submission schema", zap.Error(err))
	}

	table := applications.PermissiveTransitions()
	if cfg.Lifecycle.Strict {
		table = applications.StrictTransitions()
	}

	svc := applications.NewService(applications.Deps{
		Store:         records,
		Gate:          applications.NewGate(verifier, revocations, nil),
		Issuer:        applications.NewIssuer(records, cfg.Issuer.MaxAttempts, log),
		Authority:     applications.NewAuthority(records, table, log),
		Validator:     validator,
		Indexer:       indexer,
		Publisher:     publisher,
		Revoker:       revocations,
		Observability: obs,
		StoreTimeout:  config.GetDuration(cfg.Store.Timeout),
	}, log)

	// --- Workflow worker ---
	var jobWorker worker.JobWorker
	if zeebe != nil {
		role, err := models.ParseRole(cfg.Auth.ServiceActor.Role)
		if err != nil {
			zapLog.Fatal("invalid auth.service_actor.role", zap.Error(err))
		}
		wcfg := config.GetWorkerConfig(cfg, sas.TaskType)
		hcfg := sas.LoadConfig()
		hcfg.Timeout = config.GetDuration(wcfg.Timeout)
		hcfg.Actor = models.Actor{Identity: cfg.Auth.ServiceActor.Identity, Role: role}
		handler := sas.NewHandler(hcfg, svc, log)
		jobWorker = zeebe.StartWorker(sas.TaskType, wcfg, handler.Handle, log)
	}

	// --- HTTP server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewRouter(svc, checks, log),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	if jobWorker != nil {
		jobWorker.Close()
		jobWorker.AwaitClose()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Incubator portal stopped gracefully")
}
