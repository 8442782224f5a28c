package repository

import (
	"context"
	"time"

	"gymdesk/internal/domain/model"
)

// -----------------------------
// Payments
// -----------------------------

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	// Update writes the amendable columns: amount, payment date, note.
	Update(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, gymID, id string) (*model.Payment, error)
	// ListByMember orders by payment date, newest first, then creation time.
	ListByMember(ctx context.Context, tx Tx, gymID, memberID string) ([]*model.Payment, error)
	CountByMember(ctx context.Context, tx Tx, gymID string, memberIDs []string) (map[string]int, error)
	// Revenue groups payment totals by "month" or "year" of payment date.
	Revenue(ctx context.Context, tx Tx, gymID, period string, from, to time.Time) ([]model.RevenueBucket, error)
}
