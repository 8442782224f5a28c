package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymdesk/internal/config"
	"gymdesk/internal/domain/model"
	"gymdesk/internal/infra/api"
	"gymdesk/internal/infra/api/apiv1"
	pg "gymdesk/internal/infra/db/postgres"
	"gymdesk/internal/infra/i18n"
	"gymdesk/internal/infra/logging"
	"gymdesk/internal/infra/metrics"
	red "gymdesk/internal/infra/redis"
	"gymdesk/internal/infra/sched"
	"gymdesk/internal/infra/security"
	"gymdesk/internal/infra/sheet"
	"gymdesk/internal/infra/web"
	"gymdesk/internal/usecase"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (verbose logs, unredacted codes)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Postgres ----
	pool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second, logger)
	tm := pg.NewTxManager(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)
	limiter := red.NewRateLimiter(redisClient)

	// ---- Encryption ----
	sealer, err := security.NewEncryptionService(cfg.Security.EncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("encryption")
	}

	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Locale)
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}
	clock := usecase.Clock{Loc: cfg.Location()}

	// ---- Repositories ----
	gymRepo := pg.NewGymRepo(pool)
	memberRepo := pg.NewMemberRepo(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPostgresPlanRepo(pool), redisClient, cfg.Redis.TTL)
	optionRepo := pg.NewOptionRepoCacheDecorator(pg.NewPostgresOptionRepo(pool), redisClient, cfg.Redis.TTL)

	// ---- Use cases ----
	identity := web.ContextIdentity{}
	expiring := cfg.Ledger.ExpiringWithinDays
	ucs := apiv1.UseCases{
		Gym:     usecase.NewGymUseCase(gymRepo, identity, logger),
		Member:  usecase.NewMemberUseCase(tm, gymRepo, memberRepo, paymentRepo, identity, sealer, clock, expiring, cfg.Runtime.Dev, logger),
		Ledger:  usecase.NewLedgerUseCase(tm, gymRepo, memberRepo, planRepo, optionRepo, paymentRepo, identity, tr, clock, model.PaymentMethod(cfg.Ledger.DefaultPaymentMethod), logger),
		Pricing: usecase.NewPricingUseCase(gymRepo, planRepo, optionRepo, identity, logger),
		Import: usecase.NewImportUseCase(tm, gymRepo, memberRepo, sheet.NewParser(logger), sealer, locker, limiter, identity, usecase.ImportLimits{
			MaxRows:         cfg.Import.MaxRows,
			RateLimit:       cfg.Import.RateLimit,
			RateLimitWindow: cfg.Import.RateLimitWindow,
			LockTTL:         cfg.Import.LockTTL,
		}, logger),
		Stats: usecase.NewStatsUseCase(gymRepo, memberRepo, paymentRepo, identity, clock, expiring, logger),
	}

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Auth)
	v1 := apiv1.NewServer(ucs, tr, cfg.HTTP.MaxUploadBytes, logger)
	server := api.NewServer(cfg.HTTP, api.NewRouter(cfg.HTTP, v1, auth, logger), logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	// ---- Entitlement gauges ----
	worker := sched.NewEntitlementWorker(cfg.Scheduler.GaugeInterval, gymRepo, memberRepo, clock, expiring, logger)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("entitlement worker stopped")
		}
	}()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
