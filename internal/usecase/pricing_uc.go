// File: internal/usecase/pricing_uc.go
package usecase

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog"

	"gymdesk/internal/domain"
	"gymdesk/internal/domain/model"
	"gymdesk/internal/domain/ports/adapter"
	"gymdesk/internal/domain/ports/repository"
	"gymdesk/internal/infra/logging"
)

// Compile-time check
var _ PricingUseCase = (*pricingUC)(nil)

// PricingUseCase manages the plan and option catalog of the caller's gym.
type PricingUseCase interface {
	Catalog(ctx context.Context) (*model.Catalog, error)
	CreatePlan(ctx context.Context, in PlanInput) (*model.Plan, error)
	CreateOption(ctx context.Context, in OptionInput) (*model.Option, error)
	DeactivatePlan(ctx context.Context, id string) error
	DeactivateOption(ctx context.Context, id string) error
}

type PlanInput struct {
	Name           string
	Type           model.PlanType
	Price          int64
	DurationMonths int
	DurationDays   int
	SessionCount   int
}

type OptionInput struct {
	GroupName string
	Name      string
	Price     int64
}

type pricingUC struct {
	plans   repository.PlanRepository
	options repository.OptionRepository
	tenant  tenant
	log     *zerolog.Logger
}

func NewPricingUseCase(gyms repository.GymRepository, plans repository.PlanRepository, options repository.OptionRepository, identity adapter.Identity, logger *zerolog.Logger) *pricingUC {
	return &pricingUC{plans: plans, options: options, tenant: tenant{identity: identity, gyms: gyms}, log: logger}
}

// Catalog lists active plans oldest first and active options by group.
func (p *pricingUC) Catalog(ctx context.Context) (*model.Catalog, error) {
	defer logging.TraceDuration(p.log, "PricingUC.Catalog")()

	gym, ctx, err := p.tenant.resolve(ctx)
	if err != nil {
		return nil, err
	}
	plans, err := p.plans.ListActive(ctx, repository.NoTX, gym.ID)
	if err != nil {
		return nil, domain.AsPersistence("list plans", err)
	}
	options, err := p.options.ListActive(ctx, repository.NoTX, gym.ID)
	if err != nil {
		return nil, domain.AsPersistence("list options", err)
	}
	sort.SliceStable(plans, func(i, j int) bool { return plans[i].CreatedAt.Before(plans[j].CreatedAt) })
	sort.SliceStable(options, func(i, j int) bool { return options[i].GroupName < options[j].GroupName })
	return &model.Catalog{Plans: plans, Options: options}, nil
}

func (p *pricingUC) CreatePlan(ctx context.Context, in PlanInput) (*model.Plan, error) {
	defer logging.TraceDuration(p.log, "PricingUC.CreatePlan")()

	gym, ctx, err := p.tenant.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, domain.Invalid("type", "must be period or session")
	}
	plan, err := model.NewPlan("", gym.ID, in.Name, in.Type, in.Price, in.DurationMonths, in.DurationDays, in.SessionCount)
	if err != nil {
		return nil, domain.Invalid("plan", "name, price and durations must be set and not negative")
	}
	if err := p.plans.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, domain.AsPersistence("create plan", err)
	}
	logging.With(ctx, p.log).Info().Str("plan_id", plan.ID).Str("type", string(plan.Type)).Int64("price", plan.Price).Msg("plan created")
	return plan, nil
}

func (p *pricingUC) CreateOption(ctx context.Context, in OptionInput) (*model.Option, error) {
	defer logging.TraceDuration(p.log, "PricingUC.CreateOption")()

	gym, ctx, err := p.tenant.resolve(ctx)
	if err != nil {
		return nil, err
	}
	opt, err := model.NewOption("", gym.ID, in.GroupName, in.Name, in.Price)
	if err != nil {
		return nil, domain.Invalid("option", "name is required")
	}
	if err := p.options.Save(ctx, repository.NoTX, opt); err != nil {
		return nil, domain.AsPersistence("create option", err)
	}
	logging.With(ctx, p.log).Info().Str("option_id", opt.ID).Msg("option created")
	return opt, nil
}

// DeactivatePlan hides the plan from the catalog. Payments keep their
// snapshot of it.
func (p *pricingUC) DeactivatePlan(ctx context.Context, id string) error {
	defer logging.TraceDuration(p.log, "PricingUC.DeactivatePlan")()

	gym, ctx, err := p.tenant.resolve(ctx)
	if err != nil {
		return err
	}
	if err := p.plans.Deactivate(ctx, repository.NoTX, gym.ID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("plan", id)
		}
		return domain.AsPersistence("deactivate plan", err)
	}
	return nil
}

func (p *pricingUC) DeactivateOption(ctx context.Context, id string) error {
	defer logging.TraceDuration(p.log, "PricingUC.DeactivateOption")()

	gym, ctx, err := p.tenant.resolve(ctx)
	if err != nil {
		return err
	}
	if err := p.options.Deactivate(ctx, repository.NoTX, gym.ID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("option", id)
		}
		return domain.AsPersistence("deactivate option", err)
	}
	return nil
}
