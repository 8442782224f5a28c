package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"gymdesk/internal/domain"
	"gymdesk/internal/domain/model"
	"gymdesk/internal/domain/ports/repository"
)

// Ensure interface compliance
var (
	_ repository.PlanRepository   = (*PostgresPlanRepo)(nil)
	_ repository.OptionRepository = (*PostgresOptionRepo)(nil)
)

// PostgresPlanRepo reads plans without row locks even inside a
// transaction; a plan edited mid-purchase is priced as it was read.
type PostgresPlanRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPlanRepo(pool *pgxpool.Pool) *PostgresPlanRepo {
	return &PostgresPlanRepo{pool: pool}
}

const planSelect = `
SELECT id, gym_id, name, price, type, duration_days, duration_months, session_count, is_active, created_at
  FROM plans`

func scanPlan(row pgx.Row) (*model.Plan, error) {
	var (
		p   model.Plan
		typ string
	)
	if err := row.Scan(&p.ID, &p.GymID, &p.Name, &p.Price, &typ, &p.DurationDays, &p.DurationMonths, &p.SessionCount, &p.IsActive, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Type = model.PlanType(typ)
	return &p, nil
}

func (r *PostgresPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	const q = `
INSERT INTO plans (id, gym_id, name, price, type, duration_days, duration_months, session_count, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE
  SET name            = EXCLUDED.name,
      price           = EXCLUDED.price,
      duration_days   = EXCLUDED.duration_days,
      duration_months = EXCLUDED.duration_months,
      session_count   = EXCLUDED.session_count,
      is_active       = EXCLUDED.is_active
WHERE plans.gym_id = EXCLUDED.gym_id;`
	_, err := execSQL(ctx, r.pool, tx, q,
		plan.ID, plan.GymID, plan.Name, plan.Price, string(plan.Type),
		plan.DurationDays, plan.DurationMonths, plan.SessionCount, plan.IsActive, plan.CreatedAt,
	)
	return mapErr("save plan", err)
}

func (r *PostgresPlanRepo) FindByID(ctx context.Context, tx repository.Tx, gymID, id string) (*model.Plan, error) {
	row, err := pickRow(ctx, r.pool, tx, planSelect+" WHERE gym_id = $1 AND id = $2;", gymID, id)
	if err != nil {
		return nil, err
	}
	p, err := scanPlan(row)
	if err != nil {
		return nil, mapErr("find plan", err)
	}
	return p, nil
}

func (r *PostgresPlanRepo) ListActive(ctx context.Context, tx repository.Tx, gymID string) ([]*model.Plan, error) {
	rows, err := queryRows(ctx, r.pool, tx, planSelect+" WHERE gym_id = $1 AND is_active ORDER BY created_at, id;", gymID)
	if err != nil {
		return nil, mapErr("list plans", err)
	}
	defer rows.Close()
	var out []*model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, mapErr("list plans", rows.Err())
}

func (r *PostgresPlanRepo) Deactivate(ctx context.Context, tx repository.Tx, gymID, id string) error {
	ct, err := execSQL(ctx, r.pool, tx, `UPDATE plans SET is_active = FALSE WHERE gym_id = $1 AND id = $2;`, gymID, id)
	if err != nil {
		return mapErr("deactivate plan", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type PostgresOptionRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresOptionRepo(pool *pgxpool.Pool) *PostgresOptionRepo {
	return &PostgresOptionRepo{pool: pool}
}

const optionSelect = `SELECT id, gym_id, group_name, name, price, is_active, created_at FROM options`

func (r *PostgresOptionRepo) Save(ctx context.Context, tx repository.Tx, o *model.Option) error {
	const q = `
INSERT INTO options (id, gym_id, group_name, name, price, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE
  SET group_name = EXCLUDED.group_name,
      name       = EXCLUDED.name,
      price      = EXCLUDED.price,
      is_active  = EXCLUDED.is_active
WHERE options.gym_id = EXCLUDED.gym_id;`
	_, err := execSQL(ctx, r.pool, tx, q, o.ID, o.GymID, o.GroupName, o.Name, o.Price, o.IsActive, o.CreatedAt)
	return mapErr("save option", err)
}

func (r *PostgresOptionRepo) FindByIDs(ctx context.Context, tx repository.Tx, gymID string, ids []string) ([]*model.Option, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, tx, optionSelect+" WHERE gym_id = $1 AND id = ANY($2);", gymID, ids)
}

func (r *PostgresOptionRepo) ListActive(ctx context.Context, tx repository.Tx, gymID string) ([]*model.Option, error) {
	return r.list(ctx, tx, optionSelect+" WHERE gym_id = $1 AND is_active ORDER BY group_name, name;", gymID)
}

func (r *PostgresOptionRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Option, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, mapErr("list options", err)
	}
	defer rows.Close()
	var out []*model.Option
	for rows.Next() {
		var o model.Option
		if err := rows.Scan(&o.ID, &o.GymID, &o.GroupName, &o.Name, &o.Price, &o.IsActive, &o.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &o)
	}
	return out, mapErr("list options", rows.Err())
}

func (r *PostgresOptionRepo) Deactivate(ctx context.Context, tx repository.Tx, gymID, id string) error {
	ct, err := execSQL(ctx, r.pool, tx, `UPDATE options SET is_active = FALSE WHERE gym_id = $1 AND id = $2;`, gymID, id)
	if err != nil {
		return mapErr("deactivate option", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
