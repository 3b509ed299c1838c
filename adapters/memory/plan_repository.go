package memory

import (
	"context"
	"sort"
	"sync"

	"gopower/domain/core"
	"gopower/domain/power"
	"gopower/ports"
)

// PlanRepository keeps plans in process memory. Used when no DATABASE_URL is configured.
type PlanRepository struct {
	mu    sync.RWMutex
	plans map[core.PlanID]*power.Plan
}

// NewPlanRepository creates an empty in-memory plan repository
func NewPlanRepository() *PlanRepository {
	return &PlanRepository{plans: make(map[core.PlanID]*power.Plan)}
}

var _ ports.PlanRepository = (*PlanRepository)(nil)

func (r *PlanRepository) SavePlan(ctx context.Context, plan *power.Plan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := *plan

	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[plan.ID] = &stored
	return nil
}

func (r *PlanRepository) GetPlan(ctx context.Context, id core.PlanID) (*power.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	plan, ok := r.plans[id]
	if !ok {
		return nil, core.ErrPlanNotFound
	}
	out := *plan
	return &out, nil
}

func (r *PlanRepository) ListPlans(ctx context.Context, filter ports.PlanFilter) ([]*power.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	result := make([]*power.Plan, 0, len(r.plans))
	for _, plan := range r.plans {
		if filter.Design != "" && plan.Design != filter.Design {
			continue
		}
		if filter.Outcome != "" && plan.Outcome != filter.Outcome {
			continue
		}
		out := *plan
		result = append(result, &out)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *PlanRepository) DeletePlan(ctx context.Context, id core.PlanID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[id]; !ok {
		return core.ErrPlanNotFound
	}
	delete(r.plans, id)
	return nil
}
