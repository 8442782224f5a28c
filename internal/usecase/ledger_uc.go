// File: internal/usecase/ledger_uc.go
package usecase

import (
	"context"
	"errors"
	"sort"
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
var _ LedgerUseCase = (*ledgerUC)(nil)

// LedgerUseCase records purchases and keeps member entitlements in step
// with them.
type LedgerUseCase interface {
	// RecordPayment prices the purchase, inserts the payment and extends
	// the member's entitlement in one transaction.
	RecordPayment(ctx context.Context, req model.PurchaseRequest) (*model.PurchaseResult, error)
	// Quote computes what RecordPayment would do without writing anything.
	Quote(ctx context.Context, req model.PurchaseRequest) (*model.Quote, error)
	// AmendPayment corrects amount, date or note. The member is not touched.
	AmendPayment(ctx context.Context, paymentID string, a model.PaymentAmendment) (*model.Payment, error)
	// RepeatPayment rebuilds a purchase draft from an earlier payment.
	RepeatPayment(ctx context.Context, paymentID string) (*model.DraftPurchase, error)
	History(ctx context.Context, memberID string) ([]*model.Payment, error)
}

type ledgerUC struct {
	tm       repository.TransactionManager
	members  repository.MemberRepository
	plans    repository.PlanRepository
	options  repository.OptionRepository
	payments repository.PaymentRepository

	tenant        tenant
	tr            adapter.Translator
	clock         Clock
	defaultMethod model.PaymentMethod

	log *zerolog.Logger
}

func NewLedgerUseCase(
	tm repository.TransactionManager,
	gyms repository.GymRepository,
	members repository.MemberRepository,
	plans repository.PlanRepository,
	options repository.OptionRepository,
	payments repository.PaymentRepository,
	identity adapter.Identity,
	tr adapter.Translator,
	clock Clock,
	defaultMethod model.PaymentMethod,
	logger *zerolog.Logger,
) *ledgerUC {
	if !defaultMethod.Valid() {
		defaultMethod = model.MethodCard
	}
	return &ledgerUC{
		tm:            tm,
		members:       members,
		plans:         plans,
		options:       options,
		payments:      payments,
		tenant:        tenant{identity: identity, gyms: gyms},
		tr:            tr,
		clock:         clock,
		defaultMethod: defaultMethod,
		log:           logger,
	}
}

func (u *ledgerUC) RecordPayment(ctx context.Context, req model.PurchaseRequest) (*model.PurchaseResult, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.RecordPayment")()

	gym, ctx, err := u.tenant.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	ctx = logging.WithMemberID(ctx, req.MemberID)
	today := u.clock.Today()
	method := req.Method
	if method == "" {
		method = u.defaultMethod
	}
	if !method.Valid() {
		return nil, domain.Invalid("method", "must be card, cash or transfer")
	}

	var (
		result *model.PurchaseResult
		quote  model.Quote
	)
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		member, terms, err := u.load(ctx, tx, gym.ID, req, today)
		if err != nil {
			return err
		}
		quote, err = model.ComputePurchase(member.Entitlement(), terms, today)
		if err != nil {
			return err
		}

		p, err := model.NewPayment(gym.ID, member.ID, quote.Amount, terms.PaymentDate, method, quote.Snapshot, req.Note)
		if err != nil {
			return domain.Invalid("payment", err.Error())
		}
		p.AmountOverridden = quote.Overridden
		if err := u.payments.Save(ctx, tx, p); err != nil {
			return err
		}
		if err := u.members.UpdateEntitlement(ctx, tx, gym.ID, member.ID, quote.Before, quote.After); err != nil {
			return err
		}
		member.ApplyEntitlement(quote.After)
		result = &model.PurchaseResult{Payment: p, Member: member}
		return nil
	})
	l := logging.With(ctx, u.log)
	if err != nil {
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			metrics.IncLedgerConflict()
			l.Warn().Err(err).Msg("payment rejected: member changed concurrently")
		} else {
			l.Error().Err(err).Str("plan_id", req.PlanID).Msg("record payment failed")
		}
		return nil, domain.AsPersistence("record payment", err)
	}

	metrics.IncPaymentRecorded(string(quote.Snapshot.Type), quote.Overridden, quote.Amount)
	ev := l.Info().
		Str("payment_id", result.Payment.ID).
		Str("plan_id", req.PlanID).
		Int64("amount", quote.Amount).
		Bool("overridden", quote.Overridden)
	if result.Member.PaymentEndDate != nil {
		ev = ev.Time("payment_end_date", *result.Member.PaymentEndDate)
	}
	if result.Member.RemainingSessions != nil {
		ev = ev.Int("remaining_sessions", *result.Member.RemainingSessions)
	}
	ev.Msg("payment recorded")
	return result, nil
}

func (u *ledgerUC) Quote(ctx context.Context, req model.PurchaseRequest) (*model.Quote, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.Quote")()

	gym, ctx, err := u.tenant.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	today := u.clock.Today()
	member, terms, err := u.load(ctx, repository.NoTX, gym.ID, req, today)
	if err != nil {
		return nil, domain.AsPersistence("quote", err)
	}
	q, err := model.ComputePurchase(member.Entitlement(), terms, today)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// load resolves the member, plan and options of a purchase. With a live
// transaction the member row stays locked until commit.
func (u *ledgerUC) load(ctx context.Context, tx repository.Tx, gymID string, req model.PurchaseRequest, today time.Time) (*model.Member, model.PurchaseTerms, error) {
	member, err := u.members.FindByID(ctx, tx, gymID, req.MemberID)
	if err != nil {
		return nil, model.PurchaseTerms{}, notFoundAs(err, "member", req.MemberID)
	}
	plan, err := u.plans.FindByID(ctx, tx, gymID, req.PlanID)
	if err != nil {
		return nil, model.PurchaseTerms{}, notFoundAs(err, "plan", req.PlanID)
	}
	if !plan.IsActive {
		return nil, model.PurchaseTerms{}, domain.NotFound("plan", req.PlanID)
	}

	var options []*model.Option
	if plan.Type == model.PlanPeriod && len(req.OptionIDs) > 0 {
		options, err = u.resolveOptions(ctx, tx, gymID, req.OptionIDs)
		if err != nil {
			return nil, model.PurchaseTerms{}, err
		}
	}

	terms := model.PurchaseTerms{
		Plan:           plan,
		Options:        options,
		DurationUnits:  req.DurationUnits,
		OverrideAmount: req.OverrideAmount,
	}
	if req.PaymentDate != nil {
		terms.PaymentDate = model.DateOf(*req.PaymentDate)
	} else {
		terms.PaymentDate = today
	}
	return member, terms, nil
}

// resolveOptions loads active options of the gym in request order. Any
// unknown, foreign or inactive id fails the purchase.
func (u *ledgerUC) resolveOptions(ctx context.Context, tx repository.Tx, gymID string, ids []string) ([]*model.Option, error) {
	ids = dedupe(ids)
	found, err := u.options.FindByIDs(ctx, tx, gymID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Option, len(found))
	for _, o := range found {
		byID[o.ID] = o
	}
	out := make([]*model.Option, 0, len(ids))
	for _, id := range ids {
		o, ok := byID[id]
		if !ok || !o.IsActive {
			return nil, domain.NotFound("option", id)
		}
		out = append(out, o)
	}
	return out, nil
}

func (u *ledgerUC) AmendPayment(ctx context.Context, paymentID string, a model.PaymentAmendment) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.AmendPayment")()

	gym, ctx, err := u.tenant.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if paymentID == "" {
		return nil, domain.Invalid("payment_id", "is required")
	}
	if a.IsEmpty() {
		return nil, domain.Invalid("amendment", "no fields to change")
	}

	var out *model.Payment
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.FindByID(ctx, tx, gym.ID, paymentID)
		if err != nil {
			return notFoundAs(err, "payment", paymentID)
		}
		if err := a.Apply(p); err != nil {
			return err
		}
		if err := u.payments.Update(ctx, tx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, domain.AsPersistence("amend payment", err)
	}
	metrics.IncPaymentAmended()
	logging.With(ctx, u.log).Info().Str("payment_id", out.ID).Int64("amount", out.Amount).Msg("payment amended")
	return out, nil
}

func (u *ledgerUC) RepeatPayment(ctx context.Context, paymentID string) (*model.DraftPurchase, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.RepeatPayment")()

	gym, ctx, err := u.tenant.resolve(ctx)
	if err != nil {
		return nil, err
	}
	p, err := u.payments.FindByID(ctx, repository.NoTX, gym.ID, paymentID)
	if err != nil {
		return nil, domain.AsPersistence("repeat payment", notFoundAs(err, "payment", paymentID))
	}

	draft := &model.DraftPurchase{
		SourcePaymentID: p.ID,
		MemberID:        p.MemberID,
		PaymentDate:     u.clock.Today(),
		Method:          p.Method,
	}
	snap := p.Snapshot
	if snap.IsZero() {
		draft.Warning = u.tr.T("repeat.snapshot_missing")
		return draft, nil
	}
	draft.PlanID = snap.PlanID
	draft.OptionIDs = append([]string(nil), snap.OptionIDs...)
	draft.DurationUnits = snap.DurationMonths
	if draft.DurationUnits <= 0 {
		draft.DurationUnits = 1
	}

	plan, err := u.plans.FindByID(ctx, repository.NoTX, gym.ID, snap.PlanID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		draft.Warning = u.tr.T("repeat.plan_missing")
		return draft, nil
	case err != nil:
		return nil, domain.AsPersistence("repeat payment", err)
	case !plan.IsActive:
		draft.Warning = u.tr.T("repeat.plan_missing")
		return draft, nil
	}

	if plan.Type == model.PlanPeriod && len(draft.OptionIDs) > 0 {
		found, err := u.options.FindByIDs(ctx, repository.NoTX, gym.ID, draft.OptionIDs)
		if err != nil {
			return nil, domain.AsPersistence("repeat payment", err)
		}
		active := make(map[string]bool, len(found))
		for _, o := range found {
			active[o.ID] = o.IsActive
		}
		kept := draft.OptionIDs[:0]
		for _, id := range draft.OptionIDs {
			if active[id] {
				kept = append(kept, id)
			} else {
				draft.DroppedOptionIDs = append(draft.DroppedOptionIDs, id)
			}
		}
		draft.OptionIDs = kept
		if len(draft.DroppedOptionIDs) > 0 {
			draft.Warning = u.tr.T("repeat.options_dropped", len(draft.DroppedOptionIDs))
		}
	}
	if plan.Type == model.PlanSession {
		draft.OptionIDs = nil
	}
	draft.Ready = true
	return draft, nil
}

func (u *ledgerUC) History(ctx context.Context, memberID string) ([]*model.Payment, error) {
	defer logging.TraceDuration(u.log, "LedgerUC.History")()

	gym, ctx, err := u.tenant.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := u.members.FindByID(ctx, repository.NoTX, gym.ID, memberID); err != nil {
		return nil, domain.AsPersistence("payment history", notFoundAs(err, "member", memberID))
	}
	list, err := u.payments.ListByMember(ctx, repository.NoTX, gym.ID, memberID)
	if err != nil {
		return nil, domain.AsPersistence("payment history", err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].PaymentDate.Equal(list[j].PaymentDate) {
			return list[i].PaymentDate.After(list[j].PaymentDate)
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func validateRequest(req model.PurchaseRequest) error {
	if req.MemberID == "" {
		return domain.Invalid("member_id", "is required")
	}
	if req.PlanID == "" {
		return domain.Invalid("plan_id", "is required")
	}
	return nil
}

// notFoundAs turns a bare ErrNotFound into a NotFoundError naming entity.
func notFoundAs(err error, entity, id string) error {
	var nf *domain.NotFoundError
	if errors.Is(err, domain.ErrNotFound) && !errors.As(err, &nf) {
		return domain.NotFound(entity, id)
	}
	return err
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
