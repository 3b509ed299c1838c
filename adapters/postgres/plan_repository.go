package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"gopower/domain/core"
	"gopower/domain/power"
	"gopower/internal/errors"
	"gopower/ports"

	"github.com/jmoiron/sqlx"
)

// PlanRepositoryImpl implements PlanRepository for PostgreSQL. Queries are written with
// ? placeholders and rebound, so the same code runs on sqlite3 for local development.
type PlanRepositoryImpl struct {
	db *sqlx.DB
}

// NewPlanRepository creates a new PostgreSQL plan repository
func NewPlanRepository(db *sqlx.DB) ports.PlanRepository {
	return &PlanRepositoryImpl{db: db}
}

// planRow mirrors the sample_size_plans table
type planRow struct {
	ID                string          `db:"id"`
	Name              string          `db:"name"`
	Design            string          `db:"design"`
	Outcome           string          `db:"outcome"`
	BaselineMean      sql.NullFloat64 `db:"baseline_mean"`
	TargetMean        sql.NullFloat64 `db:"target_mean"`
	MeanDifference    float64         `db:"mean_difference"`
	StandardDeviation sql.NullFloat64 `db:"standard_deviation"`
	Alpha             float64         `db:"alpha"`
	Power             float64         `db:"power"`
	ZAlpha            float64         `db:"z_alpha"`
	ZPower            float64         `db:"z_power"`
	EffectSize        float64         `db:"effect_size"`
	SampleSize        float64         `db:"sample_size"`
	PerGroup          int             `db:"per_group"`
	GroupCount        int             `db:"group_count"`
	Total             int             `db:"total"`
	Fingerprint       string          `db:"fingerprint"`
	CreatedAt         time.Time       `db:"created_at"`
}

const planColumns = `id, name, design, outcome, baseline_mean, target_mean, mean_difference,
	standard_deviation, alpha, power, z_alpha, z_power, effect_size, sample_size,
	per_group, group_count, total, fingerprint, created_at`

// SavePlan upserts a plan
func (r *PlanRepositoryImpl) SavePlan(ctx context.Context, plan *power.Plan) error {
	row := toPlanRow(plan)

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO sample_size_plans (`+planColumns+`)
		VALUES (:id, :name, :design, :outcome, :baseline_mean, :target_mean, :mean_difference,
			:standard_deviation, :alpha, :power, :z_alpha, :z_power, :effect_size, :sample_size,
			:per_group, :group_count, :total, :fingerprint, :created_at)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			per_group = EXCLUDED.per_group,
			group_count = EXCLUDED.group_count,
			total = EXCLUDED.total,
			sample_size = EXCLUDED.sample_size,
			effect_size = EXCLUDED.effect_size`, row)
	if err != nil {
		return errors.DatabaseError("failed to save plan", err)
	}
	return nil
}

// GetPlan retrieves a plan by ID
func (r *PlanRepositoryImpl) GetPlan(ctx context.Context, id core.PlanID) (*power.Plan, error) {
	var row planRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+planColumns+` FROM sample_size_plans WHERE id = ?`), id.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrPlanNotFound
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load plan", err)
	}
	return row.toPlan(), nil
}

// ListPlans returns plans newest first
func (r *PlanRepositoryImpl) ListPlans(ctx context.Context, filter ports.PlanFilter) ([]*power.Plan, error) {
	query, args := buildListQuery(filter)

	var rows []planRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, errors.DatabaseError("failed to list plans", err)
	}

	plans := make([]*power.Plan, 0, len(rows))
	for i := range rows {
		plans = append(plans, rows[i].toPlan())
	}
	return plans, nil
}

// DeletePlan removes a plan by ID
func (r *PlanRepositoryImpl) DeletePlan(ctx context.Context, id core.PlanID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sample_size_plans WHERE id = ?`), id.String())
	if err != nil {
		return errors.DatabaseError("failed to delete plan", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.DatabaseError("failed to delete plan", err)
	}
	if affected == 0 {
		return core.ErrPlanNotFound
	}
	return nil
}

// buildListQuery uses ? placeholders; callers rebind for the driver
func buildListQuery(filter ports.PlanFilter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Design != "" {
		where = append(where, "design = ?")
		args = append(args, string(filter.Design))
	}
	if filter.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, string(filter.Outcome))
	}

	var b strings.Builder
	b.WriteString("SELECT " + planColumns + " FROM sample_size_plans")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")
	if filter.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}
	return b.String(), args
}

func toPlanRow(plan *power.Plan) planRow {
	p := plan.Parameters
	return planRow{
		ID:                plan.ID.String(),
		Name:              plan.Name,
		Design:            string(plan.Design),
		Outcome:           string(plan.Outcome),
		BaselineMean:      toNullFloat(p.BaselineMean),
		TargetMean:        toNullFloat(p.TargetMean),
		MeanDifference:    p.MeanDifference.OrElse(0),
		StandardDeviation: toNullFloat(p.StandardDeviation),
		Alpha:             p.Alpha,
		Power:             p.Power,
		ZAlpha:            plan.ZAlpha,
		ZPower:            plan.ZPower,
		EffectSize:        plan.EffectSize,
		SampleSize:        plan.SampleSize,
		PerGroup:          plan.PerGroup,
		GroupCount:        plan.Groups,
		Total:             plan.Total,
		Fingerprint:       plan.Fingerprint.String(),
		CreatedAt:         plan.CreatedAt,
	}
}

func (row planRow) toPlan() *power.Plan {
	return &power.Plan{
		ID:      core.PlanID(row.ID),
		Name:    row.Name,
		Design:  power.Design(row.Design),
		Outcome: power.Outcome(row.Outcome),
		Parameters: power.TestParameters{
			BaselineMean:      fromNullFloat(row.BaselineMean),
			TargetMean:        fromNullFloat(row.TargetMean),
			MeanDifference:    power.Some(row.MeanDifference),
			StandardDeviation: fromNullFloat(row.StandardDeviation),
			Alpha:             row.Alpha,
			Power:             row.Power,
		},
		ZAlpha:      row.ZAlpha,
		ZPower:      row.ZPower,
		EffectSize:  row.EffectSize,
		SampleSize:  row.SampleSize,
		PerGroup:    row.PerGroup,
		Groups:      row.GroupCount,
		Total:       row.Total,
		Fingerprint: core.Hash(row.Fingerprint),
		CreatedAt:   row.CreatedAt,
	}
}

func toNullFloat(o power.Optional) sql.NullFloat64 {
	v, ok := o.Get()
	return sql.NullFloat64{Float64: v, Valid: ok}
}

func fromNullFloat(n sql.NullFloat64) power.Optional {
	if !n.Valid {
		return power.None()
	}
	return power.Some(n.Float64)
}
