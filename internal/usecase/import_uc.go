// File: internal/usecase/import_uc.go
package usecase

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"gymdesk/internal/domain"
	"gymdesk/internal/domain/model"
	"gymdesk/internal/domain/ports/adapter"
	"gymdesk/internal/domain/ports/repository"
	"gymdesk/internal/infra/logging"
	"gymdesk/internal/infra/metrics"
	red "gymdesk/internal/infra/redis"
)

// Compile-time check
var _ ImportUseCase = (*importUC)(nil)

// ImportUseCase registers members in bulk from an uploaded spreadsheet.
type ImportUseCase interface {
	// Preview parses the sheet without writing anything.
	Preview(ctx context.Context, r io.Reader, filename string) ([]model.MemberDraft, int, error)
	// Import inserts every row of the sheet or none of them.
	Import(ctx context.Context, r io.Reader, filename string) (*model.ImportReport, error)
}

type ImportLimits struct {
	MaxRows         int
	RateLimit       int
	RateLimitWindow time.Duration
	LockTTL         time.Duration
}

type importUC struct {
	tm      repository.TransactionManager
	members repository.MemberRepository
	parser  adapter.SheetParser
	sealer  adapter.Sealer
	locker  adapter.Locker
	limiter adapter.RateLimiter
	tenant  tenant
	limits  ImportLimits

	log *zerolog.Logger
}

func NewImportUseCase(
	tm repository.TransactionManager,
	gyms repository.GymRepository,
	members repository.MemberRepository,
	parser adapter.SheetParser,
	sealer adapter.Sealer,
	locker adapter.Locker,
	limiter adapter.RateLimiter,
	identity adapter.Identity,
	limits ImportLimits,
	logger *zerolog.Logger,
) *importUC {
	return &importUC{
		tm:      tm,
		members: members,
		parser:  parser,
		sealer:  sealer,
		locker:  locker,
		limiter: limiter,
		tenant:  tenant{identity: identity, gyms: gyms},
		limits:  limits,
		log:     logger,
	}
}

func (u *importUC) Preview(ctx context.Context, r io.Reader, filename string) ([]model.MemberDraft, int, error) {
	defer logging.TraceDuration(u.log, "ImportUC.Preview")()

	if _, _, err := u.tenant.resolve(ctx); err != nil {
		return nil, 0, err
	}
	return u.parse(ctx, r, filename)
}

func (u *importUC) Import(ctx context.Context, r io.Reader, filename string) (*model.ImportReport, error) {
	defer logging.TraceDuration(u.log, "ImportUC.Import")()

	gym, ctx, err := u.tenant.resolve(ctx)
	if err != nil {
		return nil, err
	}
	l := logging.With(ctx, u.log)

	if u.limiter != nil && u.limits.RateLimit > 0 {
		ok, err := u.limiter.Allow(ctx, red.ImportRateKey(gym.ID), u.limits.RateLimit, u.limits.RateLimitWindow)
		if err != nil {
			// limiter outage should not block uploads
			l.Warn().Err(err).Msg("import rate limiter unavailable")
		} else if !ok {
			metrics.IncImportRateLimited()
			return nil, domain.ErrRateLimited
		}
	}

	drafts, dropped, err := u.parse(ctx, r, filename)
	if err != nil {
		return nil, err
	}

	members := make([]*model.Member, 0, len(drafts))
	for _, d := range drafts {
		m, err := d.ToMember(gym.ID)
		if err != nil {
			metrics.AddMembersImported("failed", len(drafts))
			return nil, domain.Invalid(fmt.Sprintf("row %d", d.Row), rowReason(err))
		}
		if m.AccessCode, err = u.sealer.Encrypt(m.AccessCode); err != nil {
			return nil, domain.Persistence("seal access code", err)
		}
		members = append(members, m)
	}

	if u.locker != nil {
		key := red.ImportLockKey(gym.ID)
		token, err := u.locker.TryLock(ctx, key, u.limits.LockTTL)
		if err != nil {
			return nil, domain.ErrLocked
		}
		defer func() {
			if err := u.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
				l.Warn().Err(err).Msg("failed to release import lock")
			}
		}()
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		return u.members.SaveBatch(ctx, tx, members)
	})
	if err != nil {
		metrics.AddMembersImported("failed", len(members))
		l.Error().Err(err).Int("rows", len(members)).Msg("member import rolled back")
		return nil, domain.AsPersistence("import members", err)
	}

	metrics.AddMembersImported("inserted", len(members))
	metrics.AddMembersImported("dropped", dropped)
	l.Info().Str("file", filename).Int("inserted", len(members)).Int("dropped", dropped).Msg("members imported")
	return &model.ImportReport{Inserted: len(members), Dropped: dropped, Members: members}, nil
}

func (u *importUC) parse(ctx context.Context, r io.Reader, filename string) ([]model.MemberDraft, int, error) {
	drafts, dropped, err := u.parser.Parse(ctx, r, filename)
	if err != nil {
		return nil, 0, err
	}
	if len(drafts) == 0 {
		return nil, dropped, domain.ErrEmptySheet
	}
	if u.limits.MaxRows > 0 && len(drafts) > u.limits.MaxRows {
		return nil, dropped, domain.Invalid("sheet", fmt.Sprintf("has %d rows, at most %d are allowed", len(drafts), u.limits.MaxRows))
	}
	return drafts, dropped, nil
}

func rowReason(err error) string {
	if ve, ok := err.(*domain.ValidationError); ok {
		return ve.Error()
	}
	return "name is required"
}
