package model

import (
	"time"

	"gymdesk/internal/domain"
)

// DateOf drops the clock part of t, keeping its calendar date in t's
// location, and returns that date at midnight UTC. All ledger dates use
// this form so they compare and persist as plain DATE values.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths adds n calendar months to the date of d. When the day does not
// exist in the target month, the result rolls to the first day of the
// month after it: Jan 31 + 1 month is Mar 1, and Feb 29 + 12 months is
// Mar 1 of the following year.
func AddMonths(d time.Time, n int) time.Time {
	d = DateOf(d)
	first := time.Date(d.Year(), d.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if d.Day() > daysIn(first.Year(), first.Month()) {
		return first.AddDate(0, 1, 0)
	}
	return time.Date(first.Year(), first.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// Span is an amount of validity: whole months, then whole days.
type Span struct {
	Months int
	Days   int
}

func Months(n int) Span { return Span{Months: n} }
func Days(n int) Span   { return Span{Days: n} }

func (s Span) AddTo(d time.Time) time.Time {
	return AddMonths(d, s.Months).AddDate(0, 0, s.Days)
}

// ExtendFrom returns the new end date of an entitlement. An end date that
// is still strictly after today is stacked on; otherwise the extension
// starts at from, the payment date, even when that is in the past.
func ExtendFrom(currentEnd *time.Time, from, today time.Time, add Span) time.Time {
	base := DateOf(from)
	if currentEnd != nil && DateOf(*currentEnd).After(DateOf(today)) {
		base = DateOf(*currentEnd)
	}
	return add.AddTo(base)
}

// Entitlement is the part of a member the ledger reads and writes.
type Entitlement struct {
	PaymentStartDate  *time.Time
	PaymentEndDate    *time.Time
	RemainingSessions *int
	CurrentPlanID     *string
}

// Price computes the charge for a purchase without override. Session plans
// cost the plan price; options and duration do not apply to them.
func Price(plan *Plan, options []*Option, durationUnits int) (int64, error) {
	switch plan.Type {
	case PlanPeriod:
		if durationUnits <= 0 {
			return 0, domain.Invalid("duration_units", "must be a positive number of months")
		}
		unit := plan.Price
		for _, o := range options {
			unit += o.Price
		}
		return unit * int64(durationUnits), nil
	case PlanSession:
		return plan.Price, nil
	default:
		return 0, domain.Invalid("plan.type", "unknown plan type "+string(plan.Type))
	}
}

// PurchaseTerms is a resolved purchase: catalog entries are loaded and the
// payment date is fixed.
type PurchaseTerms struct {
	Plan           *Plan
	Options        []*Option
	DurationUnits  int
	PaymentDate    time.Time
	OverrideAmount *int64
}

// Quote is the outcome of a purchase before it is persisted.
type Quote struct {
	Computed   int64
	Amount     int64
	Overridden bool
	Snapshot   PlanSnapshot
	Before     Entitlement
	After      Entitlement
}

// ComputePurchase applies terms to the current entitlement. It is pure:
// today is supplied by the caller and nothing is persisted.
func ComputePurchase(current Entitlement, terms PurchaseTerms, today time.Time) (Quote, error) {
	plan := terms.Plan
	if plan == nil {
		return Quote{}, domain.NotFound("plan", "")
	}
	options := terms.Options
	if plan.Type == PlanSession {
		options = nil
	}
	computed, err := Price(plan, options, terms.DurationUnits)
	if err != nil {
		return Quote{}, err
	}
	amount := computed
	if terms.OverrideAmount != nil {
		if *terms.OverrideAmount < 0 {
			return Quote{}, domain.Invalid("override_amount", "must not be negative")
		}
		amount = *terms.OverrideAmount
	}

	payDate := DateOf(terms.PaymentDate)
	next := Entitlement{
		PaymentStartDate:  &payDate,
		PaymentEndDate:    cloneTime(current.PaymentEndDate),
		RemainingSessions: cloneInt(current.RemainingSessions),
		CurrentPlanID:     cloneString(&plan.ID),
	}
	switch plan.Type {
	case PlanPeriod:
		end := ExtendFrom(current.PaymentEndDate, payDate, today, Months(terms.DurationUnits))
		next.PaymentEndDate = &end
	case PlanSession:
		sessions := plan.SessionCount
		if current.RemainingSessions != nil {
			sessions += *current.RemainingSessions
		}
		next.RemainingSessions = &sessions
		if plan.DurationDays > 0 {
			end := ExtendFrom(current.PaymentEndDate, payDate, today, Days(plan.DurationDays))
			next.PaymentEndDate = &end
		}
	}

	return Quote{
		Computed:   computed,
		Amount:     amount,
		Overridden: terms.OverrideAmount != nil,
		Snapshot:   SnapshotOf(plan, options, terms.DurationUnits, amount),
		Before:     current,
		After:      next,
	}, nil
}
