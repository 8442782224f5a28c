package model

import (
	"strings"
	"time"

	"gymdesk/internal/domain"

	"github.com/google/uuid"
)

type PlanType string

const (
	PlanPeriod  PlanType = "period"
	PlanSession PlanType = "session"
)

func (t PlanType) Valid() bool { return t == PlanPeriod || t == PlanSession }

// DefaultPlanDurationDays is applied to new period plans that specify no
// day count.
const DefaultPlanDurationDays = 30

// Plan is a purchasable entitlement template. Prices are whole KRW.
// Plans are never hard-deleted; deactivation keeps payment history intact.
type Plan struct {
	ID             string
	GymID          string
	Name           string
	Price          int64
	Type           PlanType
	DurationDays   int
	DurationMonths int
	SessionCount   int
	IsActive       bool
	CreatedAt      time.Time
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// NewPlan validates and constructs an active plan.
func NewPlan(id, gymID, name string, typ PlanType, price int64, durationMonths, durationDays, sessionCount int) (*Plan, error) {
	if id == "" {
		id = uuid.NewString()
	}
	name = strings.TrimSpace(name)
	if gymID == "" || name == "" || price < 0 || durationMonths < 0 || durationDays < 0 || sessionCount < 0 {
		return nil, domain.ErrInvalidArgument
	}
	switch typ {
	case PlanPeriod:
		if durationDays == 0 {
			durationDays = DefaultPlanDurationDays
		}
		if durationMonths == 0 {
			durationMonths = 1
		}
	case PlanSession:
		if sessionCount <= 0 {
			return nil, domain.ErrInvalidArgument
		}
	default:
		return nil, domain.ErrInvalidArgument
	}
	return &Plan{
		ID:             id,
		GymID:          gymID,
		Name:           name,
		Price:          price,
		Type:           typ,
		DurationDays:   durationDays,
		DurationMonths: durationMonths,
		SessionCount:   sessionCount,
		IsActive:       true,
		CreatedAt:      time.Now(),
	}, nil
}

// Option is a priced add-on for period plans. Price may be negative.
type Option struct {
	ID        string
	GymID     string
	GroupName string
	Name      string
	Price     int64
	IsActive  bool
	CreatedAt time.Time
}

func (o *Option) IsZero() bool { return o == nil || o.ID == "" }

func NewOption(id, gymID, groupName, name string, price int64) (*Option, error) {
	if id == "" {
		id = uuid.NewString()
	}
	name = strings.TrimSpace(name)
	if gymID == "" || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Option{
		ID:        id,
		GymID:     gymID,
		GroupName: strings.TrimSpace(groupName),
		Name:      name,
		Price:     price,
		IsActive:  true,
		CreatedAt: time.Now(),
	}, nil
}

// Catalog is the active pricing data of one gym.
type Catalog struct {
	Plans   []*Plan
	Options []*Option
}
