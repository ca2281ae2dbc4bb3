package vrpspd

import (
	"context"
	"testing"

	"git.solver4all.com/azaryc2s/vrpspd/lp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// optimum of sixCustomers over all feasible routes
const sixOptimum = 324.7279699593944

func newMaster(t *testing.T, p *Problem, opts MasterOptions) *MasterProblem {
	t.Helper()
	seed, err := BuildInitialRoutes(p)
	require.NoError(t, err)
	opts.Logger = zerolog.Nop()
	return NewMasterProblem(p, lp.NewSimplexSolver(lp.DefaultOptions()), seed.Routes, opts)
}

func TestMasterAddColumnIsIdempotent(t *testing.T) {
	p := newProblem(t, sixCustomers())
	m := newMaster(t, p, MasterOptions{})
	ctx := context.Background()

	r, err := p.NewRoute([]int{0, 5, 0})
	require.NoError(t, err)
	require.False(t, m.Contains(r.Path))
	assert.True(t, m.AddColumn(r))
	assert.True(t, m.Contains(r.Path))
	size := m.Len()

	before, err := m.Solve(ctx)
	require.NoError(t, err)
	assert.False(t, m.AddColumn(r))
	assert.Equal(t, size, m.Len())
	assert.Equal(t, 1, m.Duplicates())
	after, err := m.Solve(ctx)
	require.NoError(t, err)
	assert.InDelta(t, before.Objective, after.Objective, 1e-9)

	forward, err := p.NewRoute([]int{0, 2, 3, 0})
	require.NoError(t, err)
	assert.True(t, m.AddColumn(forward))
	flipped, err := p.NewRoute([]int{0, 3, 2, 0})
	require.NoError(t, err)
	assert.True(t, m.AddColumn(flipped), "a different order is a different column")
}

func TestMasterDualsOverFullPool(t *testing.T) {
	p := newProblem(t, sixCustomers())
	m := newMaster(t, p, MasterOptions{})
	enumerate(p, func(path []int) {
		r, err := p.NewRoute(path)
		require.NoError(t, err)
		m.AddColumn(r)
	})

	sol, err := m.Solve(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sol.Uncovered)
	assert.LessOrEqual(t, sol.Objective, sixOptimum+1e-6)
	assert.GreaterOrEqual(t, sol.Duals.Theta, -1e-9)
	assert.Less(t, sol.DualGap, 1e-6)
	require.Len(t, sol.Lambda, m.Len())

	for k, r := range m.Routes() {
		if r.SoftInfeasible {
			continue
		}
		rc := ReducedCost(p, r.Path, sol.Duals)
		assert.GreaterOrEqual(t, rc, -1e-6, r.String())
		if sol.Lambda[k] > 1e-6 {
			assert.InDelta(t, 0, rc, 1e-6, r.String())
		}
	}

	isol, err := m.SolveInteger(context.Background())
	require.NoError(t, err)
	require.True(t, isol.Proven)
	assert.InDelta(t, sixOptimum, isol.Cost, 1e-6)
	assert.GreaterOrEqual(t, isol.Cost, sol.Objective-1e-6)
	valid, comment := CheckSolutionValidity(p, RoutePaths(isol.Routes), isol.Cost)
	assert.True(t, valid, comment)
}

func TestMasterReportsUncoveredCustomers(t *testing.T) {
	p := newProblem(t, line(3))
	m := NewMasterProblem(p, lp.NewSimplexSolver(lp.DefaultOptions()), nil, MasterOptions{ArtificialCost: 1000, Logger: zerolog.Nop()})
	assert.Equal(t, 1000.0, m.ArtificialCost())

	sol, err := m.Solve(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 3000, sol.Objective, 1e-9)
	assert.Equal(t, []int{1, 2, 3}, sol.Uncovered)
	assert.InDelta(t, 1000, sol.Duals.Pi[2], 1e-9)

	_, err = m.SolveInteger(context.Background())
	assert.ErrorIs(t, err, ErrIntegerRestrictionInfeasible)
}

func TestMasterDefaultArtificialCost(t *testing.T) {
	p := newProblem(t, line(3))
	seed, err := BuildInitialRoutes(p)
	require.NoError(t, err)
	m := NewMasterProblem(p, lp.NewSimplexSolver(lp.DefaultOptions()), seed.Routes, MasterOptions{Logger: zerolog.Nop()})
	// one seed route of length 60 plus round trips of 20, 40 and 60
	assert.InDelta(t, 1+60+120, m.ArtificialCost(), 1e-9)
}

func TestMasterIntegerSkipsFlaggedRoutes(t *testing.T) {
	p := newProblem(t, heavy(3, 2))
	m := newMaster(t, p, MasterOptions{})
	require.Equal(t, 2, m.Len())

	lpSol, err := m.Solve(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lpSol.Uncovered)
	assert.Greater(t, lpSol.Objective, m.ArtificialCost())

	_, err = m.SolveInteger(context.Background())
	assert.ErrorIs(t, err, ErrIntegerRestrictionInfeasible)

	p = newProblem(t, heavy(3, 3))
	m = newMaster(t, p, MasterOptions{})
	m.AddColumn(Route{Path: []int{0, 1, 2, 3, 0}, Cost: 1, SoftInfeasible: true})
	isol, err := m.SolveInteger(context.Background())
	require.NoError(t, err)
	assert.Len(t, isol.Routes, 3)
	assert.InDelta(t, 120, isol.Cost, 1e-9)
	for _, r := range isol.Routes {
		assert.False(t, r.SoftInfeasible)
	}
}

func TestMasterPathsAreCopies(t *testing.T) {
	p := newProblem(t, line(3))
	m := newMaster(t, p, MasterOptions{})
	paths := m.Paths()
	paths[0][1] = 99
	assert.NotEqual(t, 99, m.Routes()[0].Path[1])
}

func TestMasterProgramLayout(t *testing.T) {
	p := newProblem(t, sixCustomers())
	m := newMaster(t, p, MasterOptions{})
	prog, err := m.program(false, m.ArtificialCost())
	require.NoError(t, err)
	assert.Equal(t, m.Len()+p.N(), prog.NumVars())
	assert.Equal(t, p.N()+1, prog.NumRows())
	assert.Equal(t, lp.LessEqual, prog.Rows[p.N()].Sense)
	assert.False(t, prog.IsMIP())

	prog, err = m.program(true, 1)
	require.NoError(t, err)
	assert.True(t, prog.IsMIP())
	for k, r := range m.Routes() {
		if r.SoftInfeasible {
			assert.Zero(t, prog.Upper[k])
		}
	}
}

func TestMasterPricesOptimalSeedEvenly(t *testing.T) {
	for _, k := range []int{1, 3} {
		inst := line(3)
		inst.VehicleCount = k
		p := newProblem(t, inst)
		m := newMaster(t, p, MasterOptions{})
		require.Equal(t, 1, m.Len())

		sol, err := m.Solve(context.Background())
		require.NoError(t, err)
		assert.InDelta(t, 60, sol.Objective, 1e-9)
		assert.Empty(t, sol.Uncovered)
		assert.InDelta(t, 0, sol.Duals.Theta, 1e-9, "K=%d", k)
		for i := 1; i <= 3; i++ {
			assert.InDelta(t, 20, sol.Duals.Pi[i], 1e-9, "K=%d customer %d", k, i)
		}
		assert.Less(t, sol.DualGap, 1e-9)

		res, err := NewPricer(p, PricingOptions{Epsilon: 1e-6}).Price(context.Background(), sol.Duals)
		require.NoError(t, err)
		assert.Empty(t, res.Columns, "K=%d", k)
	}
}
