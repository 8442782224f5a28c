package repository

import (
	"context"
	"time"

	"gymdesk/internal/domain/model"
)

// MemberRepository persists members. Every lookup is scoped to a gym.
type MemberRepository interface {
	// Save inserts or updates profile fields. Entitlement fields are only
	// written on insert; later changes go through UpdateEntitlement.
	Save(ctx context.Context, tx Tx, m *model.Member) error
	SaveBatch(ctx context.Context, tx Tx, ms []*model.Member) error
	FindByID(ctx context.Context, tx Tx, gymID, id string) (*model.Member, error)
	List(ctx context.Context, tx Tx, gymID string, f model.MemberFilter) ([]*model.Member, error)
	// UpdateEntitlement stores next only when the stored end date and
	// session balance still equal those of prev. Otherwise it returns a
	// domain.ConflictError.
	UpdateEntitlement(ctx context.Context, tx Tx, gymID, id string, prev, next model.Entitlement) error
	Delete(ctx context.Context, tx Tx, gymID string, ids []string) (int64, error)
	ListAll(ctx context.Context, tx Tx, gymID string) ([]*model.Member, error)
	CountByState(ctx context.Context, tx Tx, gymID string, today time.Time, expiringWithin int) (map[model.EntitlementState]int, error)
}
