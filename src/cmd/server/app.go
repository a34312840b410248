package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/adapter/http/controller"
	"github.com/api-sage/settlement-hub/src/internal/adapter/http/middleware"
	"github.com/api-sage/settlement-hub/src/internal/adapter/http/router"
	"github.com/api-sage/settlement-hub/src/internal/adapter/interbank"
	"github.com/api-sage/settlement-hub/src/internal/adapter/repository/memory"
	"github.com/api-sage/settlement-hub/src/internal/adapter/repository/postgres"
	"github.com/api-sage/settlement-hub/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/settlement-hub/src/internal/audit"
	"github.com/api-sage/settlement-hub/src/internal/config"
	"github.com/api-sage/settlement-hub/src/internal/logger"
	"github.com/api-sage/settlement-hub/src/internal/metrics"
	"github.com/api-sage/settlement-hub/src/internal/ratelimit"
	"github.com/api-sage/settlement-hub/src/internal/usecase/services"
	"github.com/api-sage/settlement-hub/src/migrations"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const (
	metricsNamespace = "settlement_hub"
	startupTimeout   = 30 * time.Second
)

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: cfg.Log.Development,
	}); err != nil {
		return config.Config{}, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

func migrate(ctx context.Context, cfg config.Config) error {
	defer logger.Sync()

	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("migrations need database.driver postgres, got %q", cfg.Database.Driver)
	}

	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	db, err := postgres.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.RunMigrations(ctx, db, migrations.FS); err != nil {
		return err
	}

	logger.Info("initial migrations completed successfully", nil)
	return nil
}

type repositories struct {
	accounts     repo_interfaces.AccountRepository
	banks        repo_interfaces.BankRepository
	transactions repo_interfaces.TransactionRepository
	fraudCases   repo_interfaces.FraudCaseRepository
	rates        repo_interfaces.RateRepository
	close        func()
}

func openRepositories(ctx context.Context, cfg config.Config, runMigrations bool) (repositories, error) {
	if cfg.Database.Driver == "memory" {
		store := memory.NewStore()
		store.SeedDemo(time.Now())
		logger.Warn("using in-memory repositories with demo data", nil)
		return repositories{
			accounts:     store.Accounts(),
			banks:        store.Banks(),
			transactions: store.Transactions(),
			fraudCases:   store.FraudCases(),
			rates:        store.Rates(),
			close:        func() {},
		}, nil
	}

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	db, err := postgres.Open(startCtx, cfg.Database.DSN)
	if err != nil {
		return repositories{}, err
	}

	if err := preparePostgres(startCtx, db, runMigrations); err != nil {
		_ = db.Close()
		return repositories{}, err
	}

	return repositories{
		accounts:     postgres.NewAccountRepository(db),
		banks:        postgres.NewBankRepository(db),
		transactions: postgres.NewTransactionRepository(db),
		fraudCases:   postgres.NewFraudCaseRepository(db),
		rates:        postgres.NewRateRepository(db),
		close:        func() { _ = db.Close() },
	}, nil
}

func preparePostgres(ctx context.Context, db *sql.DB, runMigrations bool) error {
	if runMigrations {
		if err := postgres.RunMigrations(ctx, db, migrations.FS); err != nil {
			return err
		}
	}
	return postgres.NewRateRepository(db).EnsureDefaultRates(ctx)
}

type limiterStore interface {
	ratelimit.Store
	Close()
}

type memoryLimiterStore struct {
	*ratelimit.MemoryStore
}

func (memoryLimiterStore) Close() {}

func openLimiterStore(ctx context.Context, cfg config.RateLimitConfig) (limiterStore, error) {
	if cfg.Backend == "redis" {
		store, err := ratelimit.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return memoryLimiterStore{ratelimit.NewMemoryStore()}, nil
}

func serve(ctx context.Context, cfg config.Config, runMigrations bool) error {
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg, runMigrations)
	if err != nil {
		return err
	}
	defer repos.close()

	counterStore, err := openLimiterStore(ctx, cfg.RateLimit)
	if err != nil {
		return err
	}
	defer counterStore.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewPrometheusCollector(metricsNamespace)
	if err := collector.Register(registry); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	recorder := audit.NewLogRecorder()
	opts := []services.Option{
		services.WithMetrics(collector),
		services.WithAudit(recorder),
	}

	tokens := interbank.NewTokenIssuer(cfg.InterBank.Secret, cfg.InterBank.Issuer, cfg.InterBank.TokenTTL)
	gateway := interbank.NewGateway(cfg.InterBank, tokens, collector)

	currencyService := services.NewCurrencyService(repos.rates, cfg.Currency, opts...)
	fraudService := services.NewFraudService(repos.transactions, repos.fraudCases, cfg.Fraud, opts...)
	settlementService := services.NewSettlementService(
		repos.accounts,
		repos.banks,
		repos.transactions,
		currencyService,
		fraudService,
		gateway,
		opts...,
	)
	recoveryService := services.NewRecoveryService(repos.transactions, settlementService, cfg.Recovery, opts...)
	bankService := services.NewBankService(repos.banks, tokens, cfg.Auth.BankSecretHash, opts...)

	limiter := ratelimit.NewLimiter(counterStore)
	policy := ratelimit.NewPolicy(cfg.RateLimit)

	authn := middleware.NewAuthenticator(cfg.Auth.ChannelID, cfg.Auth.ChannelKey, tokens)

	middlewares := []mux.MiddlewareFunc{middleware.HTTPMetrics(collector)}
	if cfg.RateLimit.Enabled {
		middlewares = append(middlewares, middleware.RateLimit(limiter, policy, authn, cfg.RateLimit.SkipInternal, collector))
	}

	handler := router.New(
		router.Config{
			Middlewares:    middlewares,
			AuthMiddleware: authn.Channel(),
			Registry:       registry,
		},
		controller.NewHealthController(),
		router.WithAuth(controller.NewTransactionController(settlementService), authn.ChannelOrBank()),
		controller.NewFraudController(fraudService),
		controller.NewCurrencyController(currencyService),
		controller.NewBankController(bankService),
		controller.NewAdminController(limiter, cfg.RateLimit.Enabled, policy.Describe(), recorder),
	)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", logger.Fields{"address": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		logger.Info("http server shutting down", nil)
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return recoveryService.Run(gctx)
	})

	g.Go(func() error {
		return currencyService.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("settlement hub stopped with error", err, nil)
		return err
	}

	logger.Info("settlement hub stopped", nil)
	return nil
}
