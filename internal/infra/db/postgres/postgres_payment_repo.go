package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"gymdesk/internal/domain"
	"gymdesk/internal/domain/model"
	"gymdesk/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentSelect = `SELECT id, gym_id, member_id, amount, amount_overridden, payment_date, method, snapshot, note, created_at, updated_at FROM payments`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var (
		p      model.Payment
		method string
		snap   []byte
	)
	if err := row.Scan(&p.ID, &p.GymID, &p.MemberID, &p.Amount, &p.AmountOverridden, &p.PaymentDate, &method, &snap, &p.Note, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Method = model.PaymentMethod(method)
	if len(snap) > 0 {
		if err := json.Unmarshal(snap, &p.Snapshot); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// Save inserts a new ledger entry. Payments are never upserted.
func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, gym_id, member_id, amount, amount_overridden, payment_date, method, snapshot, note, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8::jsonb,$9,$10,$11
);`
	var snap []byte
	if !p.Snapshot.IsZero() {
		b, err := json.Marshal(p.Snapshot)
		if err != nil {
			return domain.Persistence("encode snapshot", err)
		}
		snap = b
	}
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.GymID, p.MemberID, p.Amount, p.AmountOverridden, p.PaymentDate, string(p.Method), snap, p.Note, p.CreatedAt, p.UpdatedAt)
	return mapErr("save payment", err)
}

func (r *paymentRepo) Update(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
UPDATE payments
   SET amount = $3, amount_overridden = $4, payment_date = $5, note = $6, updated_at = $7
 WHERE gym_id = $1 AND id = $2;`
	ct, err := execSQL(ctx, r.pool, tx, q, p.GymID, p.ID, p.Amount, p.AmountOverridden, p.PaymentDate, p.Note, p.UpdatedAt)
	if err != nil {
		return mapErr("update payment", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, gymID, id string) (*model.Payment, error) {
	q := paymentSelect + " WHERE gym_id = $1 AND id = $2"
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, gymID, id)
	if err != nil {
		return nil, err
	}
	p, err := scanPayment(row)
	if err != nil {
		return nil, mapErr("find payment", err)
	}
	return p, nil
}

func (r *paymentRepo) ListByMember(ctx context.Context, tx repository.Tx, gymID, memberID string) ([]*model.Payment, error) {
	q := paymentSelect + " WHERE gym_id = $1 AND member_id = $2 ORDER BY payment_date DESC, created_at DESC, id DESC;"
	rows, err := queryRows(ctx, r.pool, tx, q, gymID, memberID)
	if err != nil {
		return nil, mapErr("list payments", err)
	}
	defer rows.Close()
	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, mapErr("list payments", rows.Err())
}

func (r *paymentRepo) CountByMember(ctx context.Context, tx repository.Tx, gymID string, memberIDs []string) (map[string]int, error) {
	const q = `SELECT member_id, COUNT(*) FROM payments WHERE gym_id = $1 AND member_id = ANY($2) GROUP BY member_id;`
	rows, err := queryRows(ctx, r.pool, tx, q, gymID, memberIDs)
	if err != nil {
		return nil, mapErr("count payments", err)
	}
	defer rows.Close()
	out := make(map[string]int, len(memberIDs))
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[id] = n
	}
	return out, mapErr("count payments", rows.Err())
}

var revenueLayouts = map[string]string{
	"month": "YYYY-MM",
	"year":  "YYYY",
}

// Revenue sums payments with from <= payment_date < to.
func (r *paymentRepo) Revenue(ctx context.Context, tx repository.Tx, gymID, period string, from, to time.Time) ([]model.RevenueBucket, error) {
	layout, ok := revenueLayouts[period]
	if !ok {
		return nil, domain.Invalid("period", "must be month or year")
	}
	const q = `
SELECT to_char(date_trunc($2, payment_date::timestamp), $5) AS bucket,
       COALESCE(SUM(amount), 0)::bigint,
       COUNT(*)
  FROM payments
 WHERE gym_id = $1 AND payment_date >= $3::date AND payment_date < $4::date
 GROUP BY bucket
 ORDER BY bucket;`
	rows, err := queryRows(ctx, r.pool, tx, q, gymID, period, model.DateOf(from), model.DateOf(to), layout)
	if err != nil {
		return nil, mapErr("revenue", err)
	}
	defer rows.Close()
	var out []model.RevenueBucket
	for rows.Next() {
		var b model.RevenueBucket
		if err := rows.Scan(&b.Period, &b.Total, &b.Count); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, b)
	}
	return out, mapErr("revenue", rows.Err())
}
