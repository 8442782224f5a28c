package usecase

import (
	"context"
	"time"

	"gymdesk/internal/domain"
	"gymdesk/internal/domain/model"
	"gymdesk/internal/domain/ports/adapter"
	"gymdesk/internal/domain/ports/repository"
	"gymdesk/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	Members(ctx context.Context) (map[model.EntitlementState]int, error)
	// Revenue buckets payments of the last n months ("month") or years ("year").
	Revenue(ctx context.Context, period string, n int) ([]model.RevenueBucket, error)
}

type statsUC struct {
	members  repository.MemberRepository
	payments repository.PaymentRepository
	tenant   tenant
	clock    Clock
	expiring int

	log *zerolog.Logger
}

func NewStatsUseCase(gyms repository.GymRepository, members repository.MemberRepository, payments repository.PaymentRepository, identity adapter.Identity, clock Clock, expiringWithinDays int, logger *zerolog.Logger) *statsUC {
	return &statsUC{
		members:  members,
		payments: payments,
		tenant:   tenant{identity: identity, gyms: gyms},
		clock:    clock,
		expiring: expiringWithinDays,
		log:      logger,
	}
}

func (s *statsUC) Members(ctx context.Context) (map[model.EntitlementState]int, error) {
	defer logging.TraceDuration(s.log, "StatsUC.Members")()

	gym, ctx, err := s.tenant.resolve(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.members.CountByState(ctx, repository.NoTX, gym.ID, s.clock.Today(), s.expiring)
	if err != nil {
		return nil, domain.AsPersistence("count members", err)
	}
	return counts, nil
}

func (s *statsUC) Revenue(ctx context.Context, period string, n int) ([]model.RevenueBucket, error) {
	defer logging.TraceDuration(s.log, "StatsUC.Revenue")()

	gym, ctx, err := s.tenant.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = 12
	}
	today := s.clock.Today()
	var from time.Time
	switch period {
	case "month":
		from = time.Date(today.Year(), today.Month()-time.Month(n-1), 1, 0, 0, 0, 0, time.UTC)
	case "year":
		from = time.Date(today.Year()-(n-1), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return nil, domain.Invalid("period", "must be month or year")
	}
	buckets, err := s.payments.Revenue(ctx, repository.NoTX, gym.ID, period, from, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, domain.AsPersistence("revenue", err)
	}
	return buckets, nil
}
