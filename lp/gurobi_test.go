//go:build gurobi

package lp

import (
	"context"
	"testing"

	"git.solver4all.com/azaryc2s/gorobi/gurobi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gurobiOrSkip(t *testing.T) *GurobiSolver {
	t.Helper()
	env, err := gurobi.LoadEnv("")
	if err != nil {
		t.Skipf("no gurobi environment: %v", err)
	}
	env.Free()
	return NewGurobiSolver("")
}

func TestGurobiStatuses(t *testing.T) {
	s := gurobiOrSkip(t)
	ctx := context.Background()

	res, err := s.Solve(ctx, twoVarLP(t))
	require.NoError(t, err)
	assert.Equal(t, Optimal, res.Status)
	assert.InDelta(t, -2.8, res.Objective, 1e-6)

	inf := NewProgram("infeasible")
	x := inf.AddVar(0, 0, Inf, false, "x")
	_, err = inf.AddConstr([]int{x}, []float64{1}, LessEqual, 1, "low")
	require.NoError(t, err)
	_, err = inf.AddConstr([]int{x}, []float64{1}, GreaterEqual, 2, "high")
	require.NoError(t, err)
	res, err = s.Solve(ctx, inf)
	require.NoError(t, err)
	assert.Equal(t, Infeasible, res.Status)

	unb := NewProgram("unbounded")
	x = unb.AddVar(-1, 0, Inf, false, "x")
	y := unb.AddVar(0, 0, Inf, false, "y")
	_, err = unb.AddConstr([]int{x, y}, []float64{1, -1}, LessEqual, 1, "ray")
	require.NoError(t, err)
	res, err = s.Solve(ctx, unb)
	require.NoError(t, err)
	assert.Equal(t, Unbounded, res.Status)
}
