package model

import (
	"strings"
	"time"

	"gymdesk/internal/domain"

	"github.com/google/uuid"
)

// Gym is the tenant. Every member, plan, option and payment belongs to
// exactly one gym, and a gym is owned by one authenticated principal.
type Gym struct {
	ID        string
	OwnerID   string
	Name      string
	CreatedAt time.Time
}

func NewGym(id, ownerID, name string) (*Gym, error) {
	if id == "" {
		id = uuid.NewString()
	}
	name = strings.TrimSpace(name)
	if ownerID == "" || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Gym{ID: id, OwnerID: ownerID, Name: name, CreatedAt: time.Now()}, nil
}

func (g *Gym) IsZero() bool { return g == nil || g.ID == "" }
