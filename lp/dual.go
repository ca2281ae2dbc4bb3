package lp

import (
	"context"
	"fmt"
	"math"
)

// Dual builds the LP dual of the continuous relaxation of p as a
// minimization program. Its first len(p.Rows) variables are the row prices,
// followed by one price per finite upper bound. The optimal dual value is the
// negated objective of the returned program.
//
// Variables of p must have lower bound 0 or be free.
func Dual(p *Program) (*Program, error) {
	type upperRow struct {
		j     int
		bound float64
	}
	var ups []upperRow
	for j := range p.Obj {
		if p.Lower[j] != 0 && !math.IsInf(p.Lower[j], -1) {
			return nil, fmt.Errorf("%w: %s has lower bound %g", ErrBadBounds, p.Names[j], p.Lower[j])
		}
		if !math.IsInf(p.Upper[j], 1) {
			if math.IsInf(p.Lower[j], -1) {
				return nil, fmt.Errorf("%w: %s is free below but bounded above", ErrBadBounds, p.Names[j])
			}
			ups = append(ups, upperRow{j: j, bound: p.Upper[j]})
		}
	}

	d := NewProgram(p.Name + "_dual")
	cols := make([][]int, len(p.Obj))
	vals := make([][]float64, len(p.Obj))
	for i, r := range p.Rows {
		lb, ub := math.Inf(-1), Inf
		switch r.Sense {
		case LessEqual:
			ub = 0
		case GreaterEqual:
			lb = 0
		}
		y := d.AddVar(-r.RHS, lb, ub, false, "y_"+rowName(r, i))
		for k, j := range r.Ind {
			cols[j] = append(cols[j], y)
			vals[j] = append(vals[j], r.Val[k])
		}
	}
	for _, u := range ups {
		y := d.AddVar(-u.bound, math.Inf(-1), 0, false, "y_ub_"+p.Names[u.j])
		cols[u.j] = append(cols[u.j], y)
		vals[u.j] = append(vals[u.j], 1)
	}
	for j := range p.Obj {
		sense := LessEqual
		if math.IsInf(p.Lower[j], -1) {
			sense = Equal
		}
		if _, err := d.AddConstr(cols[j], vals[j], sense, p.Obj[j], "dual_"+p.Names[j]); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func rowName(r Row, i int) string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("r%d", i)
}

// SolveWithDuals solves the relaxation of p and makes sure the result
// carries row prices, solving the dual program when the backend did not
// report them.
func SolveWithDuals(ctx context.Context, s Solver, p *Program) (*Result, error) {
	if p.IsMIP() {
		p = p.Relaxation()
	}
	res, err := s.Solve(ctx, p)
	if err != nil || res.Status != Optimal || res.Duals != nil {
		return res, err
	}
	d, err := Dual(p)
	if err != nil {
		return nil, err
	}
	dres, err := s.Solve(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("lp: dual of %s: %w", p.Name, err)
	}
	if dres.Status != Optimal {
		return nil, fmt.Errorf("lp: dual of %s is %s although the primal is optimal", p.Name, dres.Status)
	}
	res.Duals = dres.X[:len(p.Rows)]
	res.DualObjective = -dres.Objective
	return res, nil
}
