package model

import (
	"strings"
	"time"

	"gymdesk/internal/domain"

	"github.com/google/uuid"
)

type MemberStatus string

const (
	MemberActive   MemberStatus = "active"
	MemberInactive MemberStatus = "inactive"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

const (
	DefaultBelt       = "white"
	DefaultAccessCode = "1234"
)

// Member is a registered gym member. The Payment* fields, RemainingSessions
// and CurrentPlanID form the entitlement and are only changed by the ledger.
type Member struct {
	ID            string
	GymID         string
	Name          string
	Phone         string
	Gender        Gender
	BirthDate     *time.Time
	JoinedAt      time.Time
	GuardianPhone string
	Address       string
	School        string
	Grade         string
	// AccessCode holds ciphertext once persisted.
	AccessCode    string
	PaymentDueDay *int
	Status        MemberStatus
	Belt          string
	Note          string

	PaymentStartDate  *time.Time
	PaymentEndDate    *time.Time
	RemainingSessions *int
	CurrentPlanID     *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMember validates and constructs a member with registration defaults.
func NewMember(id, gymID, name string) (*Member, error) {
	if id == "" {
		id = uuid.NewString()
	}
	name = strings.TrimSpace(name)
	if gymID == "" || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Member{
		ID:         id,
		GymID:      gymID,
		Name:       name,
		JoinedAt:   DateOf(now),
		AccessCode: DefaultAccessCode,
		Status:     MemberActive,
		Belt:       DefaultBelt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (m *Member) IsZero() bool { return m == nil || m.ID == "" }

// Entitlement returns a copy of the member's entitlement fields.
func (m *Member) Entitlement() Entitlement {
	return Entitlement{
		PaymentStartDate:  cloneTime(m.PaymentStartDate),
		PaymentEndDate:    cloneTime(m.PaymentEndDate),
		RemainingSessions: cloneInt(m.RemainingSessions),
		CurrentPlanID:     cloneString(m.CurrentPlanID),
	}
}

// ApplyEntitlement overwrites the entitlement fields with e.
func (m *Member) ApplyEntitlement(e Entitlement) {
	m.PaymentStartDate = cloneTime(e.PaymentStartDate)
	m.PaymentEndDate = cloneTime(e.PaymentEndDate)
	m.RemainingSessions = cloneInt(e.RemainingSessions)
	m.CurrentPlanID = cloneString(e.CurrentPlanID)
}

// Age returns the Korean age of the member, counting the birth year as
// one. ok is false when no birth date is on file.
func (m *Member) Age(now time.Time) (age int, ok bool) {
	if m.BirthDate == nil {
		return 0, false
	}
	return KoreanAge(*m.BirthDate, now), true
}

func KoreanAge(birth, now time.Time) int {
	return now.Year() - birth.Year() + 1
}

type EntitlementState string

const (
	StateNeverPaid EntitlementState = "never_paid"
	StateActive    EntitlementState = "active"
	StateExpiring  EntitlementState = "expiring"
	StateExpired   EntitlementState = "expired"
)

// State classifies the member's validity on the given day. A member whose
// end date falls within expiringWithin days is expiring. Members holding
// sessions but no end date count as active while sessions remain.
func (m *Member) State(today time.Time, expiringWithin int) EntitlementState {
	today = DateOf(today)
	if m.PaymentEndDate == nil {
		if m.RemainingSessions != nil && *m.RemainingSessions > 0 {
			return StateActive
		}
		if m.RemainingSessions != nil {
			return StateExpired
		}
		return StateNeverPaid
	}
	end := DateOf(*m.PaymentEndDate)
	switch {
	case end.Before(today):
		return StateExpired
	case !end.After(today.AddDate(0, 0, expiringWithin)):
		return StateExpiring
	default:
		return StateActive
	}
}

// MemberUpdate carries administrative edits. Nil fields are left unchanged.
type MemberUpdate struct {
	Name          *string
	Phone         *string
	Gender        *Gender
	BirthDate     *time.Time
	GuardianPhone *string
	Address       *string
	School        *string
	Grade         *string
	PaymentDueDay *int
	Status        *MemberStatus
	Belt          *string
	Note          *string
}

func (u MemberUpdate) IsEmpty() bool {
	return u.Name == nil && u.Phone == nil && u.Gender == nil && u.BirthDate == nil &&
		u.GuardianPhone == nil && u.Address == nil && u.School == nil && u.Grade == nil &&
		u.PaymentDueDay == nil && u.Status == nil && u.Belt == nil && u.Note == nil
}

// Apply validates u and copies it onto m.
func (u MemberUpdate) Apply(m *Member) error {
	if u.Name != nil {
		n := strings.TrimSpace(*u.Name)
		if n == "" {
			return domain.Invalid("name", "must not be empty")
		}
		m.Name = n
	}
	if u.Status != nil {
		if *u.Status != MemberActive && *u.Status != MemberInactive {
			return domain.Invalid("status", "must be active or inactive")
		}
		m.Status = *u.Status
	}
	if u.PaymentDueDay != nil {
		if *u.PaymentDueDay < 1 || *u.PaymentDueDay > 31 {
			return domain.Invalid("payment_due_day", "must be between 1 and 31")
		}
		d := *u.PaymentDueDay
		m.PaymentDueDay = &d
	}
	if u.BirthDate != nil {
		b := DateOf(*u.BirthDate)
		m.BirthDate = &b
	}
	if u.Gender != nil {
		m.Gender = *u.Gender
	}
	setString(&m.Phone, u.Phone)
	setString(&m.GuardianPhone, u.GuardianPhone)
	setString(&m.Address, u.Address)
	setString(&m.School, u.School)
	setString(&m.Grade, u.Grade)
	setString(&m.Belt, u.Belt)
	setString(&m.Note, u.Note)
	m.UpdatedAt = time.Now()
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

type MemberSort string

const (
	SortByName     MemberSort = "name"
	SortByEndDate  MemberSort = "end_date"
	SortByJoinedAt MemberSort = "joined_at"
)

// MemberFilter narrows member listings. Zero values mean no filter.
type MemberFilter struct {
	Status MemberStatus
	Query  string
	Sort   MemberSort
	Desc   bool
	Limit  int
	Offset int
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
