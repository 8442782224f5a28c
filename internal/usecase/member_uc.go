// File: internal/usecase/member_uc.go
package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"gymdesk/internal/domain"
	"gymdesk/internal/domain/model"
	"gymdesk/internal/domain/ports/adapter"
	"gymdesk/internal/domain/ports/repository"
	"gymdesk/internal/infra/logging"
	"gymdesk/internal/infra/metrics"
)

// Compile-time check
var _ MemberUseCase = (*memberUC)(nil)

type MemberUseCase interface {
	Register(ctx context.Context, in MemberInput) (*MemberView, error)
	Get(ctx context.Context, id string) (*MemberView, error)
	List(ctx context.Context, f model.MemberFilter) ([]*MemberView, error)
	Update(ctx context.Context, id string, u model.MemberUpdate) (*MemberView, error)
	// Delete removes members without payments. Members with payment
	// history are set inactive instead so the ledger stays complete.
	Delete(ctx context.Context, ids []string) (*DeleteResult, error)
}

type MemberInput struct {
	Name          string
	Phone         string
	Gender        model.Gender
	BirthDate     *time.Time
	JoinedAt      *time.Time
	GuardianPhone string
	Address       string
	School        string
	Grade         string
	AccessCode    string
	PaymentDueDay *int
}

// MemberView is a member as shown to the operator: access code in clear,
// age and entitlement state computed for today.
type MemberView struct {
	Member     *model.Member
	AccessCode string
	Age        *int
	State      model.EntitlementState
}

type DeleteResult struct {
	Deleted     int
	Deactivated int
}

type memberUC struct {
	tm       repository.TransactionManager
	members  repository.MemberRepository
	payments repository.PaymentRepository
	sealer   adapter.Sealer
	tenant   tenant
	clock    Clock
	expiring int
	dev      bool

	log *zerolog.Logger
}

func NewMemberUseCase(
	tm repository.TransactionManager,
	gyms repository.GymRepository,
	members repository.MemberRepository,
	payments repository.PaymentRepository,
	identity adapter.Identity,
	sealer adapter.Sealer,
	clock Clock,
	expiringWithinDays int,
	dev bool,
	logger *zerolog.Logger,
) *memberUC {
	return &memberUC{
		tm:       tm,
		members:  members,
		payments: payments,
		sealer:   sealer,
		tenant:   tenant{identity: identity, gyms: gyms},
		clock:    clock,
		expiring: expiringWithinDays,
		dev:      dev,
		log:      logger,
	}
}

func (u *memberUC) Register(ctx context.Context, in MemberInput) (*MemberView, error) {
	defer logging.TraceDuration(u.log, "MemberUC.Register")()

	gym, ctx, err := u.tenant.resolve(ctx)
	if err != nil {
		return nil, err
	}
	m, err := model.MemberDraft{
		Name:          in.Name,
		Phone:         in.Phone,
		Gender:        in.Gender,
		BirthDate:     in.BirthDate,
		JoinedAt:      in.JoinedAt,
		GuardianPhone: in.GuardianPhone,
		Address:       in.Address,
		School:        in.School,
		Grade:         in.Grade,
		AccessCode:    in.AccessCode,
		PaymentDueDay: in.PaymentDueDay,
	}.ToMember(gym.ID)
	if err != nil {
		return nil, asValidation(err, "name", "is required")
	}
	plain := m.AccessCode
	if m.AccessCode, err = u.sealer.Encrypt(plain); err != nil {
		return nil, domain.Persistence("seal access code", err)
	}
	if err := u.members.Save(ctx, repository.NoTX, m); err != nil {
		return nil, domain.AsPersistence("register member", err)
	}
	metrics.IncMemberRegistered()
	logging.With(ctx, u.log).Info().
		Str("member_id", m.ID).
		Str("phone", logging.Redact(m.Phone, u.dev)).
		Msg("member registered")
	return u.view(m, plain), nil
}

func (u *memberUC) Get(ctx context.Context, id string) (*MemberView, error) {
	defer logging.TraceDuration(u.log, "MemberUC.Get")()

	gym, ctx, err := u.tenant.resolve(ctx)
	if err != nil {
		return nil, err
	}
	m, err := u.members.FindByID(ctx, repository.NoTX, gym.ID, id)
	if err != nil {
		return nil, domain.AsPersistence("get member", notFoundAs(err, "member", id))
	}
	return u.view(m, u.open(ctx, m)), nil
}

func (u *memberUC) List(ctx context.Context, f model.MemberFilter) ([]*MemberView, error) {
	defer logging.TraceDuration(u.log, "MemberUC.List")()

	gym, ctx, err := u.tenant.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 500
	}
	f.Query = strings.TrimSpace(f.Query)
	list, err := u.members.List(ctx, repository.NoTX, gym.ID, f)
	if err != nil {
		return nil, domain.AsPersistence("list members", err)
	}
	out := make([]*MemberView, 0, len(list))
	for _, m := range list {
		out = append(out, u.view(m, u.open(ctx, m)))
	}
	return out, nil
}

func (u *memberUC) Update(ctx context.Context, id string, upd model.MemberUpdate) (*MemberView, error) {
	defer logging.TraceDuration(u.log, "MemberUC.Update")()

	gym, ctx, err := u.tenant.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if upd.IsEmpty() {
		return nil, domain.Invalid("update", "no fields to change")
	}
	var out *model.Member
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		m, err := u.members.FindByID(ctx, tx, gym.ID, id)
		if err != nil {
			return notFoundAs(err, "member", id)
		}
		if err := upd.Apply(m); err != nil {
			return err
		}
		if err := u.members.Save(ctx, tx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, domain.AsPersistence("update member", err)
	}
	return u.view(out, u.open(ctx, out)), nil
}

func (u *memberUC) Delete(ctx context.Context, ids []string) (*DeleteResult, error) {
	defer logging.TraceDuration(u.log, "MemberUC.Delete")()

	gym, ctx, err := u.tenant.resolve(ctx)
	if err != nil {
		return nil, err
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, domain.Invalid("ids", "at least one member id is required")
	}

	res := &DeleteResult{}
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		counts, err := u.payments.CountByMember(ctx, tx, gym.ID, ids)
		if err != nil {
			return err
		}
		var drop []string
		for _, id := range ids {
			if counts[id] == 0 {
				drop = append(drop, id)
				continue
			}
			m, err := u.members.FindByID(ctx, tx, gym.ID, id)
			if err != nil {
				return notFoundAs(err, "member", id)
			}
			if m.Status != model.MemberInactive {
				m.Status = model.MemberInactive
				m.UpdatedAt = time.Now()
				if err := u.members.Save(ctx, tx, m); err != nil {
					return err
				}
			}
			res.Deactivated++
		}
		if len(drop) == 0 {
			return nil
		}
		n, err := u.members.Delete(ctx, tx, gym.ID, drop)
		if err != nil {
			return err
		}
		res.Deleted = int(n)
		return nil
	})
	if err != nil {
		return nil, domain.AsPersistence("delete members", err)
	}
	logging.With(ctx, u.log).Info().Int("deleted", res.Deleted).Int("deactivated", res.Deactivated).Msg("members removed")
	return res, nil
}

// open decrypts the stored access code. Rows that predate encryption
// hold the code in clear and are shown as is.
func (u *memberUC) open(ctx context.Context, m *model.Member) string {
	if m.AccessCode == "" {
		return ""
	}
	plain, err := u.sealer.Decrypt(m.AccessCode)
	if err != nil {
		logging.With(ctx, u.log).Debug().Str("member_id", m.ID).Msg("access code is not sealed")
		return m.AccessCode
	}
	return plain
}

func (u *memberUC) view(m *model.Member, accessCode string) *MemberView {
	today := u.clock.Today()
	v := &MemberView{Member: m, AccessCode: accessCode, State: m.State(today, u.expiring)}
	if age, ok := m.Age(today); ok {
		v.Age = &age
	}
	return v
}

// asValidation keeps typed validation errors and maps a bare
// ErrInvalidArgument onto field.
func asValidation(err error, field, reason string) error {
	if _, ok := err.(*domain.ValidationError); ok {
		return err
	}
	return domain.Invalid(field, reason)
}
