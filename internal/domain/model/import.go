package model

import (
	"strings"
	"time"

	"gymdesk/internal/domain"
)

// MemberDraft is one spreadsheet row mapped onto the member shape. Row is
// the 1-based sheet row the draft was read from.
type MemberDraft struct {
	Row           int
	Name          string
	Phone         string
	Gender        Gender
	BirthDate     *time.Time
	JoinedAt      *time.Time
	GuardianPhone string
	Address       string
	School        string
	Grade         string
	AccessCode    string
	PaymentDueDay *int
}

// ToMember builds the member a draft registers as.
func (d MemberDraft) ToMember(gymID string) (*Member, error) {
	m, err := NewMember("", gymID, d.Name)
	if err != nil {
		return nil, err
	}
	m.Phone = strings.TrimSpace(d.Phone)
	m.Gender = d.Gender
	if d.BirthDate != nil {
		b := DateOf(*d.BirthDate)
		m.BirthDate = &b
	}
	if d.JoinedAt != nil {
		m.JoinedAt = DateOf(*d.JoinedAt)
	}
	m.GuardianPhone = strings.TrimSpace(d.GuardianPhone)
	m.Address = strings.TrimSpace(d.Address)
	m.School = strings.TrimSpace(d.School)
	m.Grade = strings.TrimSpace(d.Grade)
	if c := strings.TrimSpace(d.AccessCode); c != "" {
		m.AccessCode = c
	}
	if d.PaymentDueDay != nil {
		if *d.PaymentDueDay < 1 || *d.PaymentDueDay > 31 {
			return nil, domain.Invalid("payment_due_day", "must be between 1 and 31")
		}
		v := *d.PaymentDueDay
		m.PaymentDueDay = &v
	}
	return m, nil
}

// ImportReport summarises a committed import.
type ImportReport struct {
	Inserted int
	Dropped  int
	Members  []*Member
}
