package usecase

import (
	"context"
	"errors"
	"time"

	"gymdesk/internal/domain"
	"gymdesk/internal/domain/model"
	"gymdesk/internal/domain/ports/adapter"
	"gymdesk/internal/domain/ports/repository"
	"gymdesk/internal/infra/logging"
)

// tenant scopes every operation to the gym owned by the caller.
type tenant struct {
	identity adapter.Identity
	gyms     repository.GymRepository
}

// resolve returns the caller's gym and a context carrying its ids for
// logging.
func (t tenant) resolve(ctx context.Context) (*model.Gym, context.Context, error) {
	p, err := t.identity.CurrentPrincipal(ctx)
	if err != nil || p == nil || p.ID == "" {
		return nil, ctx, domain.ErrUnauthenticated
	}
	ctx = logging.WithOwnerID(ctx, p.ID)
	gym, err := t.gyms.FindByOwner(ctx, repository.NoTX, p.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ctx, domain.NotFound("gym", "")
		}
		return nil, ctx, domain.AsPersistence("resolve gym", err)
	}
	return gym, logging.WithGymID(ctx, gym.ID), nil
}

// Clock supplies the current instant. Calendar days are taken in the
// configured location.
type Clock struct {
	Now func() time.Time
	Loc *time.Location
}

func (c Clock) Today() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Loc
	if loc == nil {
		loc = time.UTC
	}
	return model.DateOf(now().In(loc))
}
