package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"gymdesk/internal/domain/model"
	"gymdesk/internal/domain/ports/repository"
	"gymdesk/internal/infra/metrics"
	"gymdesk/internal/usecase"
)

// EntitlementWorker periodically recounts members per entitlement state
// across all gyms and publishes the totals as gauges.
type EntitlementWorker struct {
	interval       time.Duration
	gyms           repository.GymRepository
	members        repository.MemberRepository
	clock          usecase.Clock
	expiringWithin int
	log            *zerolog.Logger
}

func NewEntitlementWorker(interval time.Duration, gyms repository.GymRepository, members repository.MemberRepository, clock usecase.Clock, expiringWithin int, logger *zerolog.Logger) *EntitlementWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	wlog := logger.With().Str("component", "EntitlementWorker").Logger()
	return &EntitlementWorker{
		interval:       interval,
		gyms:           gyms,
		members:        members,
		clock:          clock,
		expiringWithin: expiringWithin,
		log:            &wlog,
	}
}

// Run refreshes once at start and then on every tick until ctx is done.
func (w *EntitlementWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting entitlement worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping entitlement worker")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *EntitlementWorker) tick(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := w.Refresh(runCtx); err != nil {
		w.log.Error().Err(err).Msg("entitlement refresh failed")
	}
}

// Refresh recounts and publishes. A gym that fails to count is skipped and
// the first such error is returned with the partial totals.
func (w *EntitlementWorker) Refresh(ctx context.Context) (map[model.EntitlementState]int, error) {
	gyms, err := w.gyms.ListAll(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	today := w.clock.Today()
	totals := map[model.EntitlementState]int{}
	var firstErr error
	for _, g := range gyms {
		counts, err := w.members.CountByState(ctx, repository.NoTX, g.ID, today, w.expiringWithin)
		if err != nil {
			w.log.Warn().Err(err).Str("gym_id", g.ID).Msg("count by state failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for state, n := range counts {
			totals[state] += n
		}
	}
	metrics.SetMembersEntitlement(totals)
	return totals, firstErr
}
