package apiv1

import (
	"time"

	"gymdesk/internal/domain"
	"gymdesk/internal/domain/model"
	"gymdesk/internal/usecase"
)

const dateLayout = "2006-01-02"

func fmtDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func parseDate(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, domain.Invalid(field, "must be YYYY-MM-DD")
	}
	return &t, nil
}

type gymJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toGym(g *model.Gym) gymJSON {
	return gymJSON{ID: g.ID, Name: g.Name, CreatedAt: g.CreatedAt}
}

type planJSON struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Type           model.PlanType `json:"type"`
	Price          int64          `json:"price"`
	DurationMonths int            `json:"duration_months"`
	DurationDays   int            `json:"duration_days"`
	SessionCount   int            `json:"session_count"`
	IsActive       bool           `json:"is_active"`
}

func toPlan(p *model.Plan) planJSON {
	return planJSON{
		ID: p.ID, Name: p.Name, Type: p.Type, Price: p.Price,
		DurationMonths: p.DurationMonths, DurationDays: p.DurationDays,
		SessionCount: p.SessionCount, IsActive: p.IsActive,
	}
}

type optionJSON struct {
	ID        string `json:"id"`
	GroupName string `json:"group_name"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	IsActive  bool   `json:"is_active"`
}

func toOption(o *model.Option) optionJSON {
	return optionJSON{ID: o.ID, GroupName: o.GroupName, Name: o.Name, Price: o.Price, IsActive: o.IsActive}
}

type entitlementJSON struct {
	PaymentStartDate  *string `json:"payment_start_date"`
	PaymentEndDate    *string `json:"payment_end_date"`
	RemainingSessions *int    `json:"remaining_sessions"`
	CurrentPlanID     *string `json:"current_plan_id"`
}

func toEntitlement(e model.Entitlement) entitlementJSON {
	return entitlementJSON{
		PaymentStartDate:  fmtDate(e.PaymentStartDate),
		PaymentEndDate:    fmtDate(e.PaymentEndDate),
		RemainingSessions: e.RemainingSessions,
		CurrentPlanID:     e.CurrentPlanID,
	}
}

type memberJSON struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Phone         string                 `json:"phone"`
	Gender        model.Gender           `json:"gender"`
	BirthDate     *string                `json:"birth_date"`
	Age           *int                   `json:"age"`
	JoinedAt      string                 `json:"joined_at"`
	GuardianPhone string                 `json:"guardian_phone"`
	Address       string                 `json:"address"`
	School        string                 `json:"school"`
	Grade         string                 `json:"grade"`
	AccessCode    string                 `json:"access_code"`
	PaymentDueDay *int                   `json:"payment_due_day"`
	Status        model.MemberStatus     `json:"status"`
	Belt          string                 `json:"belt"`
	Note          string                 `json:"note"`
	State         model.EntitlementState `json:"state"`
	entitlementJSON
}

func toMember(v *usecase.MemberView) memberJSON {
	m := v.Member
	return memberJSON{
		ID:              m.ID,
		Name:            m.Name,
		Phone:           m.Phone,
		Gender:          m.Gender,
		BirthDate:       fmtDate(m.BirthDate),
		Age:             v.Age,
		JoinedAt:        m.JoinedAt.Format(dateLayout),
		GuardianPhone:   m.GuardianPhone,
		Address:         m.Address,
		School:          m.School,
		Grade:           m.Grade,
		AccessCode:      v.AccessCode,
		PaymentDueDay:   m.PaymentDueDay,
		Status:          m.Status,
		Belt:            m.Belt,
		Note:            m.Note,
		State:           v.State,
		entitlementJSON: toEntitlement(m.Entitlement()),
	}
}

type memberRequest struct {
	Name          string       `json:"name"`
	Phone         string       `json:"phone"`
	Gender        model.Gender `json:"gender"`
	BirthDate     *string      `json:"birth_date"`
	JoinedAt      *string      `json:"joined_at"`
	GuardianPhone string       `json:"guardian_phone"`
	Address       string       `json:"address"`
	School        string       `json:"school"`
	Grade         string       `json:"grade"`
	AccessCode    string       `json:"access_code"`
	PaymentDueDay *int         `json:"payment_due_day"`
}

func (m memberRequest) input() (usecase.MemberInput, error) {
	birth, err := parseDate("birth_date", m.BirthDate)
	if err != nil {
		return usecase.MemberInput{}, err
	}
	joined, err := parseDate("joined_at", m.JoinedAt)
	if err != nil {
		return usecase.MemberInput{}, err
	}
	return usecase.MemberInput{
		Name:          m.Name,
		Phone:         m.Phone,
		Gender:        m.Gender,
		BirthDate:     birth,
		JoinedAt:      joined,
		GuardianPhone: m.GuardianPhone,
		Address:       m.Address,
		School:        m.School,
		Grade:         m.Grade,
		AccessCode:    m.AccessCode,
		PaymentDueDay: m.PaymentDueDay,
	}, nil
}

type memberPatch struct {
	Name          *string             `json:"name"`
	Phone         *string             `json:"phone"`
	Gender        *model.Gender       `json:"gender"`
	BirthDate     *string             `json:"birth_date"`
	GuardianPhone *string             `json:"guardian_phone"`
	Address       *string             `json:"address"`
	School        *string             `json:"school"`
	Grade         *string             `json:"grade"`
	PaymentDueDay *int                `json:"payment_due_day"`
	Status        *model.MemberStatus `json:"status"`
	Belt          *string             `json:"belt"`
	Note          *string             `json:"note"`
}

func (p memberPatch) update() (model.MemberUpdate, error) {
	birth, err := parseDate("birth_date", p.BirthDate)
	if err != nil {
		return model.MemberUpdate{}, err
	}
	return model.MemberUpdate{
		Name:          p.Name,
		Phone:         p.Phone,
		Gender:        p.Gender,
		BirthDate:     birth,
		GuardianPhone: p.GuardianPhone,
		Address:       p.Address,
		School:        p.School,
		Grade:         p.Grade,
		PaymentDueDay: p.PaymentDueDay,
		Status:        p.Status,
		Belt:          p.Belt,
		Note:          p.Note,
	}, nil
}

type paymentJSON struct {
	ID               string              `json:"id"`
	MemberID         string              `json:"member_id"`
	Amount           int64               `json:"amount"`
	AmountOverridden bool                `json:"amount_overridden"`
	PaymentDate      string              `json:"payment_date"`
	Method           model.PaymentMethod `json:"method"`
	Note             string              `json:"note"`
	Snapshot         *model.PlanSnapshot `json:"snapshot"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func toPayment(p *model.Payment) paymentJSON {
	out := paymentJSON{
		ID:               p.ID,
		MemberID:         p.MemberID,
		Amount:           p.Amount,
		AmountOverridden: p.AmountOverridden,
		PaymentDate:      p.PaymentDate.Format(dateLayout),
		Method:           p.Method,
		Note:             p.Note,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if !p.Snapshot.IsZero() {
		snap := p.Snapshot
		out.Snapshot = &snap
	}
	return out
}

type purchaseRequest struct {
	MemberID       string              `json:"member_id"`
	PlanID         string              `json:"plan_id"`
	OptionIDs      []string            `json:"option_ids"`
	DurationUnits  int                 `json:"duration_units"`
	PaymentDate    *string             `json:"payment_date"`
	Method         model.PaymentMethod `json:"method"`
	OverrideAmount *int64              `json:"override_amount"`
	Note           string              `json:"note"`
}

func (p purchaseRequest) request() (model.PurchaseRequest, error) {
	date, err := parseDate("payment_date", p.PaymentDate)
	if err != nil {
		return model.PurchaseRequest{}, err
	}
	return model.PurchaseRequest{
		MemberID:       p.MemberID,
		PlanID:         p.PlanID,
		OptionIDs:      p.OptionIDs,
		DurationUnits:  p.DurationUnits,
		PaymentDate:    date,
		Method:         p.Method,
		OverrideAmount: p.OverrideAmount,
		Note:           p.Note,
	}, nil
}

type quoteJSON struct {
	Computed   int64              `json:"computed"`
	Amount     int64              `json:"amount"`
	Overridden bool               `json:"overridden"`
	Snapshot   model.PlanSnapshot `json:"snapshot"`
	Before     entitlementJSON    `json:"before"`
	After      entitlementJSON    `json:"after"`
}

func toQuote(q *model.Quote) quoteJSON {
	return quoteJSON{
		Computed:   q.Computed,
		Amount:     q.Amount,
		Overridden: q.Overridden,
		Snapshot:   q.Snapshot,
		Before:     toEntitlement(q.Before),
		After:      toEntitlement(q.After),
	}
}

type amendRequest struct {
	Amount      *int64  `json:"amount"`
	PaymentDate *string `json:"payment_date"`
	Note        *string `json:"note"`
}

type draftJSON struct {
	SourcePaymentID  string              `json:"source_payment_id"`
	MemberID         string              `json:"member_id"`
	PlanID           string              `json:"plan_id"`
	OptionIDs        []string            `json:"option_ids"`
	DurationUnits    int                 `json:"duration_units"`
	PaymentDate      string              `json:"payment_date"`
	Method           model.PaymentMethod `json:"method"`
	Ready            bool                `json:"ready"`
	Warning          string              `json:"warning,omitempty"`
	DroppedOptionIDs []string            `json:"dropped_option_ids,omitempty"`
}

func toDraft(d *model.DraftPurchase) draftJSON {
	return draftJSON{
		SourcePaymentID:  d.SourcePaymentID,
		MemberID:         d.MemberID,
		PlanID:           d.PlanID,
		OptionIDs:        d.OptionIDs,
		DurationUnits:    d.DurationUnits,
		PaymentDate:      d.PaymentDate.Format(dateLayout),
		Method:           d.Method,
		Ready:            d.Ready,
		Warning:          d.Warning,
		DroppedOptionIDs: d.DroppedOptionIDs,
	}
}

type draftMemberJSON struct {
	Row           int          `json:"row"`
	Name          string       `json:"name"`
	Phone         string       `json:"phone"`
	Gender        model.Gender `json:"gender"`
	BirthDate     *string      `json:"birth_date"`
	JoinedAt      *string      `json:"joined_at"`
	GuardianPhone string       `json:"guardian_phone"`
	Address       string       `json:"address"`
	School        string       `json:"school"`
	Grade         string       `json:"grade"`
	PaymentDueDay *int         `json:"payment_due_day"`
}

func toDraftMember(d model.MemberDraft) draftMemberJSON {
	return draftMemberJSON{
		Row: d.Row, Name: d.Name, Phone: d.Phone, Gender: d.Gender,
		BirthDate: fmtDate(d.BirthDate), JoinedAt: fmtDate(d.JoinedAt),
		GuardianPhone: d.GuardianPhone, Address: d.Address, School: d.School,
		Grade: d.Grade, PaymentDueDay: d.PaymentDueDay,
	}
}
