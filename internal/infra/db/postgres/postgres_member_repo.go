package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"gymdesk/internal/domain"
	"gymdesk/internal/domain/model"
	"gymdesk/internal/domain/ports/repository"
)

var _ repository.MemberRepository = (*memberRepo)(nil)

type memberRepo struct{ pool *pgxpool.Pool }

func NewMemberRepo(pool *pgxpool.Pool) *memberRepo {
	return &memberRepo{pool: pool}
}

var memberColumns = []string{
	"id", "gym_id", "name", "phone", "gender", "birth_date", "joined_at", "guardian_phone",
	"address", "school", "grade", "access_code", "payment_due_day", "status", "belt", "note",
	"payment_start_date", "payment_end_date", "remaining_sessions", "current_plan_id",
	"created_at", "updated_at",
}

var memberSelect = "SELECT " + strings.Join(memberColumns, ", ") + " FROM members"

func memberValues(m *model.Member) []interface{} {
	return []interface{}{
		m.ID, m.GymID, m.Name, m.Phone, string(m.Gender), m.BirthDate, m.JoinedAt, m.GuardianPhone,
		m.Address, m.School, m.Grade, m.AccessCode, m.PaymentDueDay, string(m.Status), m.Belt, m.Note,
		m.PaymentStartDate, m.PaymentEndDate, m.RemainingSessions, m.CurrentPlanID,
		m.CreatedAt, m.UpdatedAt,
	}
}

func scanMember(row pgx.Row) (*model.Member, error) {
	var (
		m              model.Member
		gender, status string
	)
	err := row.Scan(
		&m.ID, &m.GymID, &m.Name, &m.Phone, &gender, &m.BirthDate, &m.JoinedAt, &m.GuardianPhone,
		&m.Address, &m.School, &m.Grade, &m.AccessCode, &m.PaymentDueDay, &status, &m.Belt, &m.Note,
		&m.PaymentStartDate, &m.PaymentEndDate, &m.RemainingSessions, &m.CurrentPlanID,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Gender = model.Gender(gender)
	m.Status = model.MemberStatus(status)
	return &m, nil
}

// Save upserts the profile. The entitlement columns are written on insert
// only.
func (r *memberRepo) Save(ctx context.Context, tx repository.Tx, m *model.Member) error {
	const q = `
INSERT INTO members (
  id, gym_id, name, phone, gender, birth_date, joined_at, guardian_phone,
  address, school, grade, access_code, payment_due_day, status, belt, note,
  payment_start_date, payment_end_date, remaining_sessions, current_plan_id,
  created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22
) ON CONFLICT (id) DO UPDATE SET
  name=$3, phone=$4, gender=$5, birth_date=$6, joined_at=$7, guardian_phone=$8,
  address=$9, school=$10, grade=$11, access_code=$12, payment_due_day=$13,
  status=$14, belt=$15, note=$16, updated_at=$22
WHERE members.gym_id = EXCLUDED.gym_id;`
	ct, err := execSQL(ctx, r.pool, tx, q, memberValues(m)...)
	if err != nil {
		return mapErr("save member", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.NotFound("member", m.ID)
	}
	return nil
}

// SaveBatch bulk-inserts ms with COPY. A duplicate id fails the whole batch.
func (r *memberRepo) SaveBatch(ctx context.Context, tx repository.Tx, ms []*model.Member) error {
	if len(ms) == 0 {
		return nil
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	rows := make([][]interface{}, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, memberValues(m))
	}
	n, err := ex.CopyFrom(ctx, pgx.Identifier{"members"}, memberColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return mapErr("copy members", err)
	}
	if int(n) != len(ms) {
		return domain.Persistence("copy members", fmt.Errorf("copied %d of %d rows", n, len(ms)))
	}
	return nil
}

func (r *memberRepo) FindByID(ctx context.Context, tx repository.Tx, gymID, id string) (*model.Member, error) {
	q := memberSelect + " WHERE gym_id = $1 AND id = $2"
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, gymID, id)
	if err != nil {
		return nil, err
	}
	m, err := scanMember(row)
	if err != nil {
		return nil, mapErr("find member", err)
	}
	return m, nil
}

var memberSortColumns = map[model.MemberSort]string{
	model.SortByName:     "name",
	model.SortByEndDate:  "payment_end_date",
	model.SortByJoinedAt: "joined_at",
}

func (r *memberRepo) List(ctx context.Context, tx repository.Tx, gymID string, f model.MemberFilter) ([]*model.Member, error) {
	var (
		sb   strings.Builder
		args = []interface{}{gymID}
	)
	sb.WriteString(memberSelect)
	sb.WriteString(" WHERE gym_id = $1")
	if f.Status != "" {
		args = append(args, string(f.Status))
		fmt.Fprintf(&sb, " AND status = $%d", len(args))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		fmt.Fprintf(&sb, " AND (name ILIKE $%d OR phone ILIKE $%d)", len(args), len(args))
	}
	col, ok := memberSortColumns[f.Sort]
	if !ok {
		col = "name"
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s NULLS LAST, id", col, dir)
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}
	return r.list(ctx, tx, sb.String(), args...)
}

func (r *memberRepo) ListAll(ctx context.Context, tx repository.Tx, gymID string) ([]*model.Member, error) {
	return r.list(ctx, tx, memberSelect+" WHERE gym_id = $1 ORDER BY name, id", gymID)
}

func (r *memberRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Member, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, mapErr("list members", err)
	}
	defer rows.Close()
	var out []*model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, m)
	}
	return out, mapErr("list members", rows.Err())
}

// UpdateEntitlement is a compare-and-set on the end date and session
// balance read earlier in the same unit of work.
func (r *memberRepo) UpdateEntitlement(ctx context.Context, tx repository.Tx, gymID, id string, prev, next model.Entitlement) error {
	const q = `
UPDATE members
   SET payment_start_date = $3,
       payment_end_date   = $4,
       remaining_sessions = $5,
       current_plan_id    = $6,
       updated_at         = NOW()
 WHERE gym_id = $1 AND id = $2
   AND payment_end_date   IS NOT DISTINCT FROM $7::date
   AND remaining_sessions IS NOT DISTINCT FROM $8::int;`
	ct, err := execSQL(ctx, r.pool, tx, q, gymID, id,
		next.PaymentStartDate, next.PaymentEndDate, next.RemainingSessions, next.CurrentPlanID,
		prev.PaymentEndDate, prev.RemainingSessions)
	if err != nil {
		return mapErr("update entitlement", err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	row, err := pickRow(ctx, r.pool, tx, `SELECT 1 FROM members WHERE gym_id = $1 AND id = $2;`, gymID, id)
	if err != nil {
		return err
	}
	var one int
	if err := row.Scan(&one); err != nil {
		return mapErr("update entitlement", err)
	}
	return domain.Conflict("member", id)
}

func (r *memberRepo) Delete(ctx context.Context, tx repository.Tx, gymID string, ids []string) (int64, error) {
	ct, err := execSQL(ctx, r.pool, tx, `DELETE FROM members WHERE gym_id = $1 AND id = ANY($2);`, gymID, ids)
	if err != nil {
		return 0, mapErr("delete members", err)
	}
	return ct.RowsAffected(), nil
}

// CountByState mirrors model.Member.State in SQL for active members.
func (r *memberRepo) CountByState(ctx context.Context, tx repository.Tx, gymID string, today time.Time, expiringWithin int) (map[model.EntitlementState]int, error) {
	const q = `
SELECT CASE
         WHEN payment_end_date IS NULL AND remaining_sessions IS NULL THEN 'never_paid'
         WHEN payment_end_date IS NULL AND remaining_sessions > 0     THEN 'active'
         WHEN payment_end_date IS NULL                                THEN 'expired'
         WHEN payment_end_date < $2::date                             THEN 'expired'
         WHEN payment_end_date <= $2::date + $3::int                  THEN 'expiring'
         ELSE 'active'
       END AS state,
       COUNT(*)
  FROM members
 WHERE gym_id = $1 AND status = 'active'
 GROUP BY 1;`
	rows, err := queryRows(ctx, r.pool, tx, q, gymID, model.DateOf(today), expiringWithin)
	if err != nil {
		return nil, mapErr("count members", err)
	}
	defer rows.Close()
	out := make(map[model.EntitlementState]int, 4)
	for rows.Next() {
		var (
			state string
			n     int
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[model.EntitlementState(state)] = n
	}
	return out, mapErr("count members", rows.Err())
}
