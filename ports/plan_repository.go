package ports

import (
	"context"

	"gopower/domain/core"
	"gopower/domain/power"
)

// PlanFilter narrows ListPlans. Zero values match everything.
type PlanFilter struct {
	Design  power.Design
	Outcome power.Outcome
	Limit   int
}

// PlanRepository defines the interface for sample-size plan persistence
type PlanRepository interface {
	// SavePlan stores a plan, replacing any plan with the same ID
	SavePlan(ctx context.Context, plan *power.Plan) error

	// GetPlan retrieves a plan by ID; returns core.ErrPlanNotFound when absent
	GetPlan(ctx context.Context, id core.PlanID) (*power.Plan, error)

	// ListPlans returns plans newest first
	ListPlans(ctx context.Context, filter PlanFilter) ([]*power.Plan, error)

	// DeletePlan removes a plan; returns core.ErrPlanNotFound when absent
	DeletePlan(ctx context.Context, id core.PlanID) error
}
