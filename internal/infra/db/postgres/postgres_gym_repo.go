package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"gymdesk/internal/domain"
	"gymdesk/internal/domain/model"
	"gymdesk/internal/domain/ports/repository"
)

var _ repository.GymRepository = (*gymRepo)(nil)

type gymRepo struct{ pool *pgxpool.Pool }

func NewGymRepo(pool *pgxpool.Pool) *gymRepo {
	return &gymRepo{pool: pool}
}

func (r *gymRepo) Save(ctx context.Context, tx repository.Tx, g *model.Gym) error {
	const q = `
INSERT INTO gyms (id, owner_id, name, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name;`
	_, err := execSQL(ctx, r.pool, tx, q, g.ID, g.OwnerID, g.Name, g.CreatedAt)
	return mapErr("save gym", err)
}

func (r *gymRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Gym, error) {
	return r.findOne(ctx, tx, `SELECT id, owner_id, name, created_at FROM gyms WHERE id = $1;`, id)
}

func (r *gymRepo) FindByOwner(ctx context.Context, tx repository.Tx, ownerID string) (*model.Gym, error) {
	return r.findOne(ctx, tx, `SELECT id, owner_id, name, created_at FROM gyms WHERE owner_id = $1;`, ownerID)
}

func (r *gymRepo) findOne(ctx context.Context, tx repository.Tx, q string, arg string) (*model.Gym, error) {
	row, err := pickRow(ctx, r.pool, tx, q, arg)
	if err != nil {
		return nil, err
	}
	var g model.Gym
	if err := row.Scan(&g.ID, &g.OwnerID, &g.Name, &g.CreatedAt); err != nil {
		return nil, mapErr("find gym", err)
	}
	return &g, nil
}

func (r *gymRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Gym, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT id, owner_id, name, created_at FROM gyms ORDER BY created_at;`)
	if err != nil {
		return nil, mapErr("list gyms", err)
	}
	defer rows.Close()
	var out []*model.Gym
	for rows.Next() {
		var g model.Gym
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Name, &g.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &g)
	}
	return out, mapErr("list gyms", rows.Err())
}
