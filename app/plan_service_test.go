package app

import (
	"context"
	stderrors "errors"
	"testing"

	"gopower/domain/core"
	"gopower/domain/power"
	"gopower/internal"
	"gopower/internal/errors"
	"gopower/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPlanRepository is a testify mock of ports.PlanRepository
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) SavePlan(ctx context.Context, plan *power.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) GetPlan(ctx context.Context, id core.PlanID) (*power.Plan, error) {
	args := m.Called(ctx, id)
	plan, _ := args.Get(0).(*power.Plan)
	return plan, args.Error(1)
}

func (m *MockPlanRepository) ListPlans(ctx context.Context, filter ports.PlanFilter) ([]*power.Plan, error) {
	args := m.Called(ctx, filter)
	plans, _ := args.Get(0).([]*power.Plan)
	return plans, args.Error(1)
}

func (m *MockPlanRepository) DeletePlan(ctx context.Context, id core.PlanID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var testDefaults = Defaults{Alpha: 0.05, Power: 0.8}

func quietLogger() *internal.Logger {
	return internal.NewLogger(internal.LogLevelError)
}

func TestPlanServiceCreateSaves(t *testing.T) {
	repo := new(MockPlanRepository)
	repo.On("SavePlan", mock.Anything, mock.AnythingOfType("*power.Plan")).Return(nil)

	svc := NewPlanService(repo, testDefaults, quietLogger())
	plan, err := svc.Create(context.Background(), PlanRequest{
		ParameterInput: ParameterInput{
			BaselineMean:      power.Some(0),
			TargetMean:        power.Some(0.5),
			StandardDeviation: power.Some(1),
		},
		Name:    "pricing page",
		Design:  "two-sample",
		Outcome: "continuous",
	})
	require.NoError(t, err)

	assert.Equal(t, 63, plan.PerGroup)
	assert.Equal(t, 0.05, plan.Parameters.Alpha)
	assert.Equal(t, 0.8, plan.Parameters.Power)
	repo.AssertExpectations(t)
}

func TestPlanServiceRejectsBadInputWithoutSaving(t *testing.T) {
	repo := new(MockPlanRepository)
	svc := NewPlanService(repo, testDefaults, quietLogger())

	_, err := svc.Create(context.Background(), PlanRequest{
		ParameterInput: ParameterInput{MeanDifference: power.Some(0.1), Alpha: power.Some(2)},
		Design:         "one-sample",
		Outcome:        "continuous",
	})
	assert.True(t, core.IsDomainError(err))

	_, err = svc.Create(context.Background(), PlanRequest{Design: "one-sample", Outcome: "continuous"})
	assert.True(t, core.IsInvalidParameters(err))

	_, err = svc.Create(context.Background(), PlanRequest{
		ParameterInput: ParameterInput{MeanDifference: power.Some(0.1)},
		Design:         "two-sample",
		Outcome:        "continuous",
	})
	assert.True(t, core.IsMissingParameter(err))

	repo.AssertNotCalled(t, "SavePlan", mock.Anything, mock.Anything)
}

func TestPlanServiceSaveFailure(t *testing.T) {
	repo := new(MockPlanRepository)
	repo.On("SavePlan", mock.Anything, mock.Anything).Return(errors.DatabaseError("insert failed", stderrors.New("connection reset")))

	svc := NewPlanService(repo, testDefaults, quietLogger())
	_, err := svc.Create(context.Background(), PlanRequest{
		ParameterInput: ParameterInput{MeanDifference: power.Some(1), StandardDeviation: power.Some(2)},
		Design:         "matched",
		Outcome:        "continuous",
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
}

func TestPlanServicePilotFillsParameters(t *testing.T) {
	svc := NewPlanService(new(MockPlanRepository), testDefaults, quietLogger())

	plan, err := svc.Compute(PlanRequest{
		ParameterInput: ParameterInput{MeanDifference: power.Some(0.05)},
		Design:         "one-sample",
		Outcome:        "dichotomous",
		Pilot:          []float64{1, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	})
	require.NoError(t, err)

	p1, ok := plan.Parameters.BaselineMean.Get()
	require.True(t, ok)
	assert.InDelta(t, 0.1, p1, 1e-12)
	assert.InDelta(t, 282.56, plan.SampleSize, 0.01)

	_, err = svc.Compute(PlanRequest{
		ParameterInput: ParameterInput{MeanDifference: power.Some(0.05)},
		Design:         "one-sample",
		Outcome:        "dichotomous",
		Pilot:          []float64{3, 4},
	})
	assert.True(t, stderrors.Is(err, core.ErrNotBinary))
}

func TestPlanServiceGetValidatesID(t *testing.T) {
	repo := new(MockPlanRepository)
	svc := NewPlanService(repo, testDefaults, quietLogger())

	_, err := svc.Get(context.Background(), "nope")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	id := core.NewPlanID()
	repo.On("GetPlan", mock.Anything, id).Return(nil, core.ErrPlanNotFound)
	_, err = svc.Get(context.Background(), id.String())
	assert.True(t, core.IsNotFoundError(err))
}
