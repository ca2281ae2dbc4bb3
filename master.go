package vrpspd

import (
	"context"
	"errors"
	"fmt"
	"math"

	"git.solver4all.com/azaryc2s/vrpspd/lp"
	"github.com/rs/zerolog"
)

// Duals is the price snapshot of one master solve.
type Duals struct {
	// Pi holds the price of covering each customer, indexed by node id.
	Pi []float64
	// Theta is the price of using one more vehicle.
	Theta float64
}

type MasterOptions struct {
	// ArtificialCost is the price of covering a customer without a route.
	// 0 derives it from the instance.
	ArtificialCost float64
	Logger         zerolog.Logger
}

type MasterSolution struct {
	Objective float64
	Lambda    []float64
	Duals     Duals
	// Uncovered lists customers still served by their artificial column.
	Uncovered []int
	DualGap   float64
}

type IntegerSolution struct {
	Routes []Route
	Cost   float64
	// Proven is false when the branch-and-bound stopped on its node limit.
	Proven bool
	Nodes  int
}

// MasterProblem is the restricted set partitioning problem over the column
// pool: every customer covered exactly once, at most K routes.
type MasterProblem struct {
	problem *Problem
	solver  lp.Solver
	log     zerolog.Logger

	routes     []Route
	index      map[string]int
	cover      [][]int
	bigM       float64
	duplicates int
}

func NewMasterProblem(p *Problem, solver lp.Solver, seeds []Route, opts MasterOptions) *MasterProblem {
	m := &MasterProblem{
		problem: p,
		solver:  solver,
		log:     opts.Logger,
		index:   make(map[string]int),
		cover:   make([][]int, len(p.Customers)),
		bigM:    opts.ArtificialCost,
	}
	if m.bigM <= 0 {
		m.bigM = 1
		for _, r := range seeds {
			m.bigM += r.Cost
		}
		for i := 1; i <= p.N(); i++ {
			m.bigM += 2 * p.Dist(0, i)
		}
	}
	for _, r := range seeds {
		m.AddColumn(r)
	}
	return m
}

// AddColumn adds r to the pool unless a route with the same ordered path is
// already there.
func (m *MasterProblem) AddColumn(r Route) bool {
	key := r.Key()
	if _, ok := m.index[key]; ok {
		m.duplicates++
		m.log.Debug().Str("route", key).Msg("DuplicateColumnIgnored")
		return false
	}
	col := len(m.routes)
	m.routes = append(m.routes, r)
	m.index[key] = col
	for _, v := range r.Customers() {
		m.cover[v] = append(m.cover[v], col)
	}
	return true
}

func (m *MasterProblem) Contains(path []int) bool {
	_, ok := m.index[RouteKey(path)]
	return ok
}

func (m *MasterProblem) Len() int { return len(m.routes) }

func (m *MasterProblem) Duplicates() int { return m.duplicates }

func (m *MasterProblem) ArtificialCost() float64 { return m.bigM }

func (m *MasterProblem) Routes() []Route {
	return append([]Route(nil), m.routes...)
}

// Paths returns the pool as plain node sequences.
func (m *MasterProblem) Paths() [][]int {
	res := make([][]int, len(m.routes))
	for i, r := range m.routes {
		res[i] = append([]int(nil), r.Path...)
	}
	return res
}

// program builds the LP, or the integer restriction, from scratch. Variables
// are one lambda per route followed by one artificial per customer. Rows are
// one cover row per customer followed by the vehicle limit.
func (m *MasterProblem) program(integer bool, artCost float64) (*lp.Program, error) {
	p := m.problem
	name := "rmp"
	if integer {
		name = "rmp_int"
	}
	prog := lp.NewProgram(name)
	fleet := make([]int, 0, len(m.routes))
	for k, r := range m.routes {
		obj, ub := m.columnCost(r), lp.Inf
		if r.SoftInfeasible && integer {
			obj, ub = r.Cost, 0
		}
		// lambda <= 1 follows from the cover rows
		fleet = append(fleet, prog.AddVar(obj, 0, ub, integer, fmt.Sprintf("lambda_%d", k)))
	}
	art := make([]int, p.N()+1)
	for i := 1; i <= p.N(); i++ {
		art[i] = prog.AddVar(artCost, 0, lp.Inf, false, fmt.Sprintf("art_%d", i))
	}
	for i := 1; i <= p.N(); i++ {
		ind := append(append([]int(nil), m.cover[i]...), art[i])
		if _, err := prog.AddConstr(ind, ones(len(ind)), lp.Equal, 1, fmt.Sprintf("cover_%d", i)); err != nil {
			return nil, err
		}
	}
	if _, err := prog.AddConstr(fleet, ones(len(fleet)), lp.LessEqual, float64(p.Fleet.Count), "vehicle_limit"); err != nil {
		return nil, err
	}
	return prog, nil
}

// columnCost is the LP objective coefficient of r.
func (m *MasterProblem) columnCost(r Route) float64 {
	if r.SoftInfeasible {
		return r.Cost + m.bigM
	}
	return r.Cost
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for k := range v {
		v[k] = 1
	}
	return v
}

// Solve re-optimizes the LP relaxation over the current pool.
func (m *MasterProblem) Solve(ctx context.Context) (*MasterSolution, error) {
	p := m.problem
	prog, err := m.program(false, m.bigM)
	if err != nil {
		return nil, fmt.Errorf("master: %w", err)
	}
	res, err := lp.SolveWithDuals(ctx, m.solver, prog)
	if err != nil {
		return nil, fmt.Errorf("master: %w", err)
	}
	switch res.Status {
	case lp.Infeasible:
		return nil, ErrMasterInfeasible
	case lp.Unbounded:
		return nil, ErrMasterUnbounded
	}
	if len(res.Duals) != prog.NumRows() {
		return nil, fmt.Errorf("master: solver returned %d duals for %d rows", len(res.Duals), prog.NumRows())
	}

	sol := &MasterSolution{
		Objective: res.Objective,
		Lambda:    res.X[:len(m.routes)],
		Duals:     Duals{Pi: make([]float64, p.N()+1), Theta: -res.Duals[p.N()]},
	}
	covered := true
	for i := 1; i <= p.N(); i++ {
		sol.Duals.Pi[i] = res.Duals[i-1]
		a := res.X[len(m.routes)+i-1]
		if a > 1e-6 {
			sol.Uncovered = append(sol.Uncovered, i)
		}
		if a > 1e-9 {
			covered = false
		}
	}
	if covered {
		duals, err := m.balancedDuals(ctx, sol.Lambda, res.Objective)
		switch {
		case ctx.Err() != nil:
			return nil, fmt.Errorf("master: %w", ctx.Err())
		case err != nil:
			m.log.Debug().Err(err).Msg("keeping basis prices")
		default:
			sol.Duals = duals
		}
	}
	sol.DualGap = math.Abs(res.Objective - m.dualObjective(sol.Duals))
	if sol.DualGap > 1e-6*(1+math.Abs(res.Objective)) {
		m.log.Warn().Float64("primal", res.Objective).Float64("gap", sol.DualGap).Msg("master duals do not close the gap")
	}
	return sol, nil
}

func (m *MasterProblem) dualObjective(d Duals) float64 {
	v := -float64(m.problem.Fleet.Count) * d.Theta
	for _, pi := range d.Pi {
		v += pi
	}
	return v
}

// balancedDuals picks, among the optimal prices of the covered master, the
// ones with the smallest largest customer price. Optimality is kept through
// complementary slackness with lambda: every used route prices to exactly
// zero, and a fleet row with room left has no price.
func (m *MasterProblem) balancedDuals(ctx context.Context, lambda []float64, obj float64) (Duals, error) {
	p := m.problem
	d := lp.NewProgram("rmp_prices")
	pi := make([]int, p.N()+1)
	for i := 1; i <= p.N(); i++ {
		// pi <= bigM holds at the optimum since the basis prices respect it
		pi[i] = d.AddVar(0, math.Inf(-1), lp.Inf, false, fmt.Sprintf("pi_%d", i))
	}
	used := 0.0
	for _, l := range lambda {
		used += l
	}
	yLower := math.Inf(-1)
	if used < float64(p.Fleet.Count)-1e-9 {
		yLower = 0
	}
	y := d.AddVar(0, yLower, 0, false, "y_vehicle_limit")
	top := d.AddVar(1, math.Inf(-1), lp.Inf, false, "max_pi")

	for k, r := range m.routes {
		ind := append([]int{y}, r.Customers()...)
		for t := 1; t < len(ind); t++ {
			ind[t] = pi[ind[t]]
		}
		sense := lp.LessEqual
		if lambda[k] > 1e-9 {
			sense = lp.Equal
		}
		if _, err := d.AddConstr(ind, ones(len(ind)), sense, m.columnCost(r), fmt.Sprintf("route_%d", k)); err != nil {
			return Duals{}, err
		}
	}
	for i := 1; i <= p.N(); i++ {
		if _, err := d.AddConstr([]int{pi[i], top}, []float64{1, -1}, lp.LessEqual, 0, fmt.Sprintf("top_%d", i)); err != nil {
			return Duals{}, err
		}
	}

	res, err := m.solver.Solve(ctx, d)
	if err != nil {
		return Duals{}, err
	}
	if res.Status != lp.Optimal {
		return Duals{}, fmt.Errorf("price program is %s", res.Status)
	}
	out := Duals{Pi: make([]float64, p.N()+1), Theta: -res.X[y]}
	for i := 1; i <= p.N(); i++ {
		out.Pi[i] = res.X[pi[i]]
	}
	if gap := math.Abs(obj - m.dualObjective(out)); gap > 1e-6*(1+math.Abs(obj)) {
		return Duals{}, fmt.Errorf("balanced prices miss the objective by %g", gap)
	}
	return out, nil
}

// SolveInteger restricts lambda to binary values over the final pool.
// Flagged seed routes cannot be selected.
func (m *MasterProblem) SolveInteger(ctx context.Context) (*IntegerSolution, error) {
	p := m.problem
	artCost := 1.0
	for _, r := range m.routes {
		artCost += r.Cost
	}
	prog, err := m.program(true, artCost)
	if err != nil {
		return nil, fmt.Errorf("integer master: %w", err)
	}
	res, err := m.solver.Solve(ctx, prog)
	if errors.Is(err, lp.ErrNodeLimit) {
		return nil, fmt.Errorf("%w: %v", ErrIntegerRestrictionInfeasible, err)
	}
	if err != nil {
		return nil, fmt.Errorf("integer master: %w", err)
	}
	switch res.Status {
	case lp.Infeasible:
		return nil, ErrIntegerRestrictionInfeasible
	case lp.Unbounded:
		return nil, ErrMasterUnbounded
	}
	for i := 1; i <= p.N(); i++ {
		if res.X[len(m.routes)+i-1] > 0.5 {
			return nil, fmt.Errorf("%w: customer %d is not covered by any selected route", ErrIntegerRestrictionInfeasible, i)
		}
	}

	sol := &IntegerSolution{Proven: res.Status == lp.Optimal, Nodes: res.Nodes}
	for k, r := range m.routes {
		if res.X[k] > 0.5 {
			sol.Routes = append(sol.Routes, r)
			sol.Cost += r.Cost
		}
	}
	return sol, nil
}
