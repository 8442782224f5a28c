package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"gymdesk/internal/domain"
	"gymdesk/internal/domain/model"
	"gymdesk/internal/domain/ports/adapter"
	"gymdesk/internal/domain/ports/repository"
	"gymdesk/internal/infra/logging"
)

// Compile-time check
var _ GymUseCase = (*gymUC)(nil)

type GymUseCase interface {
	Current(ctx context.Context) (*model.Gym, error)
	// Open creates the caller's gym. An owner has at most one.
	Open(ctx context.Context, name string) (*model.Gym, error)
}

type gymUC struct {
	gyms   repository.GymRepository
	tenant tenant
	log    *zerolog.Logger
}

func NewGymUseCase(gyms repository.GymRepository, identity adapter.Identity, logger *zerolog.Logger) *gymUC {
	return &gymUC{gyms: gyms, tenant: tenant{identity: identity, gyms: gyms}, log: logger}
}

func (g *gymUC) Current(ctx context.Context) (*model.Gym, error) {
	defer logging.TraceDuration(g.log, "GymUC.Current")()
	gym, _, err := g.tenant.resolve(ctx)
	return gym, err
}

func (g *gymUC) Open(ctx context.Context, name string) (*model.Gym, error) {
	defer logging.TraceDuration(g.log, "GymUC.Open")()

	p, err := g.tenant.identity.CurrentPrincipal(ctx)
	if err != nil || p == nil || p.ID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if _, err := g.gyms.FindByOwner(ctx, repository.NoTX, p.ID); err == nil {
		return nil, domain.ErrAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.AsPersistence("open gym", err)
	}
	gym, err := model.NewGym("", p.ID, name)
	if err != nil {
		return nil, domain.Invalid("name", "is required")
	}
	if err := g.gyms.Save(ctx, repository.NoTX, gym); err != nil {
		return nil, domain.AsPersistence("open gym", err)
	}
	ctx = logging.WithGymID(logging.WithOwnerID(ctx, p.ID), gym.ID)
	logging.With(ctx, g.log).Info().Str("name", gym.Name).Msg("gym opened")
	return gym, nil
}
