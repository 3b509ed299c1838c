package postgres

import (
	"context"
	"testing"
	"time"

	"gopower/domain/core"
	"gopower/domain/power"
	"gopower/internal/migration"
	"gopower/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		t.Skipf("sqlite3 unavailable (cgo disabled?): %v", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migration.NewRunnerFor("sqlite3").Run(context.Background(), db))
	return db
}

func newPlan(t *testing.T, name string, design power.Design, created time.Time) *power.Plan {
	t.Helper()
	p := power.NewParameters()
	p.BaselineMean = power.Some(0.2)
	p.MeanDifference = power.Some(0.05)
	p.StandardDeviation = power.Some(1)

	e, err := power.NewEngine(p)
	require.NoError(t, err)
	outcome := power.OutcomeDichotomous
	if design == power.DesignMatched {
		outcome = power.OutcomeContinuous
	}
	plan, err := e.Plan(name, design, outcome)
	require.NoError(t, err)
	plan.CreatedAt = created
	return plan
}

func TestPlanRepositorySQL(t *testing.T) {
	ctx := context.Background()
	repo := NewPlanRepository(openSQLite(t))

	base := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	first := newPlan(t, "checkout", power.DesignTwoSample, base)
	second := newPlan(t, "pairs", power.DesignMatched, base.Add(time.Hour))

	require.NoError(t, repo.SavePlan(ctx, first))
	require.NoError(t, repo.SavePlan(ctx, second))

	got, err := repo.GetPlan(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Name, got.Name)
	assert.Equal(t, first.Parameters, got.Parameters)
	assert.Equal(t, first.PerGroup, got.PerGroup)
	assert.Equal(t, first.Fingerprint, got.Fingerprint)
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt))

	all, err := repo.ListPlans(ctx, ports.PlanFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	matched, err := repo.ListPlans(ctx, ports.PlanFilter{Design: power.DesignMatched, Limit: 10})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "pairs", matched[0].Name)

	first.Name = "checkout v2"
	require.NoError(t, repo.SavePlan(ctx, first))
	got, err = repo.GetPlan(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "checkout v2", got.Name)

	require.NoError(t, repo.DeletePlan(ctx, first.ID))
	_, err = repo.GetPlan(ctx, first.ID)
	assert.True(t, core.IsNotFoundError(err))
	assert.True(t, core.IsNotFoundError(repo.DeletePlan(ctx, first.ID)))
}
