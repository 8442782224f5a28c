package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"gymdesk/internal/config"
	"gymdesk/internal/domain/model"
	"gymdesk/internal/domain/ports/adapter"
	pg "gymdesk/internal/infra/db/postgres"
	"gymdesk/internal/infra/logging"
	"gymdesk/internal/infra/web"
	"gymdesk/internal/usecase"
)

// seed opens a gym for an owner, fills an empty catalog with sample
// plans and options, and prints a bearer token for that owner.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	ownerID := flag.String("owner", "owner-dev", "owner id to seed for")
	email := flag.String("email", "owner@example.com", "owner email")
	gymName := flag.String("gym", "Sample Gym", "gym name")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	gymRepo := pg.NewGymRepo(pool)
	identity := web.ContextIdentity{}
	gyms := usecase.NewGymUseCase(gymRepo, identity, logger)
	pricing := usecase.NewPricingUseCase(gymRepo, pg.NewPostgresPlanRepo(pool), pg.NewPostgresOptionRepo(pool), identity, logger)

	ctx = web.WithPrincipal(ctx, &adapter.Principal{ID: *ownerID, Email: *email})
	gym, err := gyms.Current(ctx)
	if err != nil {
		if gym, err = gyms.Open(ctx, *gymName); err != nil {
			logger.Fatal().Err(err).Msg("open gym")
		}
		fmt.Printf("opened gym %q (id=%s)\n", gym.Name, gym.ID)
	}

	catalog, err := pricing.Catalog(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("catalog")
	}
	if len(catalog.Plans) > 0 || len(catalog.Options) > 0 {
		fmt.Printf("%d plans and %d options already present. No changes.\n", len(catalog.Plans), len(catalog.Options))
	} else {
		plans := []usecase.PlanInput{
			{Name: "1 month", Type: model.PlanPeriod, Price: 120_000, DurationMonths: 1},
			{Name: "3 months", Type: model.PlanPeriod, Price: 330_000, DurationMonths: 3, DurationDays: 90},
			{Name: "PT 10 sessions", Type: model.PlanSession, Price: 500_000, SessionCount: 10},
		}
		for _, in := range plans {
			p, err := pricing.CreatePlan(ctx, in)
			if err != nil {
				logger.Fatal().Err(err).Str("plan", in.Name).Msg("create plan")
			}
			fmt.Printf("seeded plan: %s (id=%s, price=%d)\n", p.Name, p.ID, p.Price)
		}
		options := []usecase.OptionInput{
			{GroupName: "locker", Name: "locker", Price: 10_000},
			{GroupName: "apparel", Name: "uniform", Price: 5_000},
		}
		for _, in := range options {
			o, err := pricing.CreateOption(ctx, in)
			if err != nil {
				logger.Fatal().Err(err).Str("option", in.Name).Msg("create option")
			}
			fmt.Printf("seeded option: %s (id=%s, price=%d)\n", o.Name, o.ID, o.Price)
		}
	}

	token, err := web.NewAuthManager(cfg.Auth).Mint(nil, *ownerID, *email)
	if err != nil {
		logger.Fatal().Err(err).Msg("mint token")
	}
	fmt.Printf("gym: %s\ntoken: %s\n", gym.ID, token)
}
