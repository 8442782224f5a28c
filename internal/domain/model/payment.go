package model

import (
	"strings"
	"time"

	"gymdesk/internal/domain"

	"github.com/oklog/ulid/v2"
)

type PaymentMethod string

const (
	MethodCard     PaymentMethod = "card"
	MethodCash     PaymentMethod = "cash"
	MethodTransfer PaymentMethod = "transfer"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodCard || m == MethodCash || m == MethodTransfer
}

// Payment is a ledger entry. It is written once by RecordPayment and may
// later be amended (amount, date, note) but is never deleted. Ids are
// ULIDs so that insertion order is recoverable from the id alone.
type Payment struct {
	ID               string
	GymID            string
	MemberID         string
	Amount           int64
	AmountOverridden bool
	PaymentDate      time.Time
	Method           PaymentMethod
	Snapshot         PlanSnapshot
	Note             string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewPayment(gymID, memberID string, amount int64, paymentDate time.Time, method PaymentMethod, snap PlanSnapshot, note string) (*Payment, error) {
	if gymID == "" || memberID == "" || amount < 0 || paymentDate.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	if method == "" {
		method = MethodCard
	}
	if !method.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Payment{
		ID:          ulid.Make().String(),
		GymID:       gymID,
		MemberID:    memberID,
		Amount:      amount,
		PaymentDate: DateOf(paymentDate),
		Method:      method,
		Snapshot:    snap,
		Note:        strings.TrimSpace(note),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// OptionSnapshot is the option data captured at purchase time.
type OptionSnapshot struct {
	ID        string `json:"id"`
	GroupName string `json:"group_name,omitempty"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
}

// PlanSnapshot is a by-value copy of the plan and options a payment was
// made against. It stays readable after the catalog changes.
type PlanSnapshot struct {
	PlanID         string           `json:"plan_id"`
	PlanName       string           `json:"plan_name"`
	Type           PlanType         `json:"type"`
	Price          int64            `json:"price"`
	Amount         int64            `json:"amount"`
	DurationMonths int              `json:"duration_months"`
	DurationDays   int              `json:"duration_days"`
	SessionCount   int              `json:"session_count"`
	OptionIDs      []string         `json:"option_ids"`
	Options        []OptionSnapshot `json:"options,omitempty"`
	OptionsSummary string           `json:"options_summary"`
}

func (s PlanSnapshot) IsZero() bool { return s.PlanID == "" }

// SnapshotOf captures plan and options by value. durationUnits is recorded
// for period plans only.
func SnapshotOf(plan *Plan, options []*Option, durationUnits int, amount int64) PlanSnapshot {
	s := PlanSnapshot{
		PlanID:       plan.ID,
		PlanName:     plan.Name,
		Type:         plan.Type,
		Price:        plan.Price,
		Amount:       amount,
		DurationDays: plan.DurationDays,
		SessionCount: plan.SessionCount,
		OptionIDs:    []string{},
	}
	if plan.Type != PlanPeriod {
		return s
	}
	s.DurationMonths = durationUnits
	names := make([]string, 0, len(options))
	for _, o := range options {
		s.OptionIDs = append(s.OptionIDs, o.ID)
		s.Options = append(s.Options, OptionSnapshot{ID: o.ID, GroupName: o.GroupName, Name: o.Name, Price: o.Price})
		names = append(names, o.Name)
	}
	s.OptionsSummary = strings.Join(names, ", ")
	return s
}

// PaymentAmendment is an administrative correction. Nil fields are kept.
type PaymentAmendment struct {
	Amount      *int64
	PaymentDate *time.Time
	Note        *string
}

func (a PaymentAmendment) IsEmpty() bool {
	return a.Amount == nil && a.PaymentDate == nil && a.Note == nil
}

// Apply validates a and copies it onto p. Entitlement is not touched.
func (a PaymentAmendment) Apply(p *Payment) error {
	if a.IsEmpty() {
		return domain.Invalid("amendment", "no fields to change")
	}
	if a.Amount != nil {
		if *a.Amount < 0 {
			return domain.Invalid("amount", "must not be negative")
		}
		p.Amount = *a.Amount
		p.AmountOverridden = true
	}
	if a.PaymentDate != nil {
		if a.PaymentDate.IsZero() {
			return domain.Invalid("payment_date", "must be set")
		}
		p.PaymentDate = DateOf(*a.PaymentDate)
	}
	if a.Note != nil {
		p.Note = strings.TrimSpace(*a.Note)
	}
	p.UpdatedAt = time.Now()
	return nil
}

// PurchaseRequest is the input of RecordPayment and Quote.
type PurchaseRequest struct {
	MemberID      string
	PlanID        string
	OptionIDs     []string
	DurationUnits int
	// PaymentDate defaults to today when nil.
	PaymentDate    *time.Time
	Method         PaymentMethod
	OverrideAmount *int64
	Note           string
}

type PurchaseResult struct {
	Payment *Payment
	Member  *Member
}

// DraftPurchase is a pre-filled purchase rebuilt from an earlier payment.
// Ready is false when the draft cannot be submitted as is; Warning then
// holds a message for the operator.
type DraftPurchase struct {
	SourcePaymentID  string
	MemberID         string
	PlanID           string
	OptionIDs        []string
	DurationUnits    int
	PaymentDate      time.Time
	Method           PaymentMethod
	Ready            bool
	Warning          string
	DroppedOptionIDs []string
}

// Request turns the draft into a purchase request.
func (d *DraftPurchase) Request() PurchaseRequest {
	date := d.PaymentDate
	return PurchaseRequest{
		MemberID:      d.MemberID,
		PlanID:        d.PlanID,
		OptionIDs:     append([]string(nil), d.OptionIDs...),
		DurationUnits: d.DurationUnits,
		PaymentDate:   &date,
		Method:        d.Method,
	}
}

// RevenueBucket is the payment total of one calendar period.
type RevenueBucket struct {
	Period string
	Total  int64
	Count  int
}
