package lp

import (
	"context"
	"errors"
	"fmt"
	"math"
)

const (
	BackendSimplex = "simplex"

	intTol   = 1e-6
	pruneEps = 1e-9
)

func init() {
	Register(BackendSimplex, func(opts Options) (Solver, error) {
		return NewSimplexSolver(opts), nil
	})
}

// SimplexSolver runs a bounded dense two-phase simplex on the standard form
// of a program. Integer programs are solved by depth-first LP
// branch-and-bound.
type SimplexSolver struct {
	Tol       float64
	NodeLimit int
	// PivotLimit caps the pivots of one LP, 0 derives it from the size.
	PivotLimit int
}

func NewSimplexSolver(opts Options) *SimplexSolver {
	s := &SimplexSolver{Tol: opts.Tolerance, NodeLimit: opts.NodeLimit, PivotLimit: opts.PivotLimit}
	if s.Tol <= 0 {
		s.Tol = DefaultOptions().Tolerance
	}
	if s.NodeLimit <= 0 {
		s.NodeLimit = DefaultOptions().NodeLimit
	}
	return s
}

func (s *SimplexSolver) Solve(ctx context.Context, p *Program) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.IsMIP() {
		return s.branchAndBound(ctx, p)
	}
	return s.solveRelaxation(ctx, p)
}

// solveRelaxation ignores integrality and reports the row prices of the
// optimal basis.
func (s *SimplexSolver) solveRelaxation(ctx context.Context, p *Program) (*Result, error) {
	sf, err := toStandardForm(p)
	if err != nil {
		return nil, fmt.Errorf("lp: %s: %w", p.Name, err)
	}
	switch {
	case sf.infeasible:
		return &Result{Status: Infeasible, Objective: math.Inf(1)}, nil
	case sf.unbounded:
		return &Result{Status: Unbounded, Objective: math.Inf(-1)}, nil
	}
	if sf.A == nil {
		y, dobj := sf.programDuals(nil, len(p.Rows))
		return &Result{Status: Optimal, Objective: sf.objOffset, X: sf.recover(make([]float64, len(sf.c))), Duals: y, DualObjective: dobj}, nil
	}

	tb := newTableau(sf, s.Tol, s.PivotLimit)
	status, xs, ys, err := tb.solve(ctx, sf.c)
	switch {
	case errors.Is(err, ErrPivotLimit):
		return nil, fmt.Errorf("%w: %s after %d pivots", err, p.Name, tb.pivots)
	case err != nil:
		return nil, err
	case status == Infeasible:
		return &Result{Status: Infeasible, Objective: math.Inf(1)}, nil
	case status == Unbounded:
		return &Result{Status: Unbounded, Objective: math.Inf(-1)}, nil
	}
	obj := sf.objOffset
	for j, v := range xs {
		obj += sf.c[j] * v
	}
	res := &Result{Status: Optimal, Objective: obj, X: sf.recover(xs)}
	res.Duals, res.DualObjective = sf.programDuals(ys, len(p.Rows))
	return res, nil
}

type bbNode struct {
	lower, upper []float64
	depth        int
}

func (s *SimplexSolver) branchAndBound(ctx context.Context, p *Program) (*Result, error) {
	best := &Result{Status: Infeasible, Objective: math.Inf(1)}
	stack := []bbNode{{lower: p.Lower, upper: p.Upper}}
	nodes := 0
	limited := false

	for len(stack) > 0 {
		if nodes >= s.NodeLimit {
			limited = true
			break
		}
		if err := ctx.Err(); err != nil {
			if best.X == nil {
				return nil, err
			}
			limited = true
			break
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		res, err := s.solveRelaxation(ctx, p.withBounds(nd.lower, nd.upper))
		if err != nil {
			if ctx.Err() != nil && best.X != nil {
				limited = true
				break
			}
			return nil, err
		}
		if res.Status == Unbounded {
			if nodes == 1 {
				return &Result{Status: Unbounded, Objective: math.Inf(-1), Nodes: nodes}, nil
			}
			continue
		}
		if res.Status != Optimal || res.Objective >= best.Objective-pruneEps {
			continue
		}

		branch, worst := -1, 0.0
		for j, isInt := range p.Integer {
			if !isInt {
				continue
			}
			frac := res.X[j] - math.Floor(res.X[j])
			dist := math.Min(frac, 1-frac)
			if dist > intTol && dist > worst {
				branch, worst = j, dist
			}
		}
		if branch < 0 {
			for j, isInt := range p.Integer {
				if isInt {
					res.X[j] = math.Round(res.X[j])
				}
			}
			best = &Result{Status: Optimal, Objective: p.Value(res.X), X: res.X}
			continue
		}

		v := res.X[branch]
		down := bbNode{lower: nd.lower, upper: append([]float64(nil), nd.upper...), depth: nd.depth + 1}
		down.upper[branch] = math.Floor(v)
		up := bbNode{lower: append([]float64(nil), nd.lower...), upper: nd.upper, depth: nd.depth + 1}
		up.lower[branch] = math.Ceil(v)
		// up branch is explored first
		stack = append(stack, down, up)
	}

	best.Nodes = nodes
	if best.X == nil {
		if limited {
			return nil, ErrNodeLimit
		}
		return best, nil
	}
	if limited {
		best.Status = Feasible
	}
	return best, nil
}
