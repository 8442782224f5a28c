package repository

import (
	"context"

	"gymdesk/internal/domain/model"
)

// PlanRepository is the port for plan persistence. Plans are deactivated,
// never removed.
type PlanRepository interface {
	Save(ctx context.Context, tx Tx, plan *model.Plan) error
	FindByID(ctx context.Context, tx Tx, gymID, id string) (*model.Plan, error)
	ListActive(ctx context.Context, tx Tx, gymID string) ([]*model.Plan, error)
	Deactivate(ctx context.Context, tx Tx, gymID, id string) error
}

type OptionRepository interface {
	Save(ctx context.Context, tx Tx, o *model.Option) error
	// FindByIDs returns the options of gymID among ids, in no particular
	// order. Unknown ids are skipped.
	FindByIDs(ctx context.Context, tx Tx, gymID string, ids []string) ([]*model.Option, error)
	ListActive(ctx context.Context, tx Tx, gymID string) ([]*model.Option, error)
	Deactivate(ctx context.Context, tx Tx, gymID, id string) error
}
