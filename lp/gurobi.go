//go:build gurobi

package lp

import (
	"context"
	"fmt"
	"math"

	"git.solver4all.com/azaryc2s/gorobi/gurobi"
)

const (
	BackendGurobi = "gurobi"

	gurobiInf = 1e100
)

func init() {
	Register(BackendGurobi, func(opts Options) (Solver, error) {
		return NewGurobiSolver(opts.LogFile), nil
	})
}

// GurobiSolver builds a fresh Gurobi model per call. Row prices are left to
// SolveWithDuals.
type GurobiSolver struct {
	LogFile string
}

func NewGurobiSolver(logFile string) *GurobiSolver {
	return &GurobiSolver{LogFile: logFile}
}

func clampInf(v float64) float64 {
	if math.IsInf(v, 1) {
		return gurobiInf
	}
	if math.IsInf(v, -1) {
		return -gurobiInf
	}
	return v
}

func (s *GurobiSolver) Solve(ctx context.Context, p *Program) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	env, err := gurobi.LoadEnv(s.LogFile)
	if err != nil {
		return nil, fmt.Errorf("gurobi: load env: %w", err)
	}
	defer env.Free()
	env.SetIntParam("LogToConsole", int32(0))
	// tell infeasible and unbounded models apart
	env.SetIntParam("DualReductions", int32(0))

	model, err := env.NewModel(p.Name, 0, nil, nil, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("gurobi: new model %s: %w", p.Name, err)
	}
	defer model.Free()

	for j := range p.Obj {
		var vtype int8 = gurobi.CONTINUOUS
		if p.Integer[j] {
			vtype = gurobi.INTEGER
			if p.Lower[j] == 0 && p.Upper[j] == 1 {
				vtype = gurobi.BINARY
			}
		}
		err = model.AddVar(nil, nil, p.Obj[j], clampInf(p.Lower[j]), clampInf(p.Upper[j]), vtype, p.Names[j])
		if err != nil {
			return nil, fmt.Errorf("gurobi: add var %s: %w", p.Names[j], err)
		}
	}
	err = model.SetIntAttr(gurobi.INT_ATTR_MODELSENSE, gurobi.MINIMIZE)
	if err != nil {
		return nil, fmt.Errorf("gurobi: model sense: %w", err)
	}

	for i, r := range p.Rows {
		ind := gurobi.Int32Slice(r.Ind)
		switch r.Sense {
		case LessEqual:
			err = model.AddConstr(ind, r.Val, gurobi.LESS_EQUAL, r.RHS, rowName(r, i))
		case GreaterEqual:
			err = model.AddConstr(ind, r.Val, gurobi.GREATER_EQUAL, r.RHS, rowName(r, i))
		default:
			err = model.AddConstr(ind, r.Val, gurobi.EQUAL, r.RHS, rowName(r, i))
		}
		if err != nil {
			return nil, fmt.Errorf("gurobi: add row %s: %w", rowName(r, i), err)
		}
	}

	if err = model.Optimize(); err != nil {
		return nil, fmt.Errorf("gurobi: optimize %s: %w", p.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	optimstatus, err := model.GetIntAttr(gurobi.INT_ATTR_STATUS)
	if err != nil {
		return nil, fmt.Errorf("gurobi: status: %w", err)
	}
	res := &Result{}
	switch optimstatus {
	case gurobi.OPTIMAL:
		res.Status = Optimal
	case gurobi.INFEASIBLE, gurobi.INF_OR_UNBD:
		res.Status = Infeasible
		res.Objective = math.Inf(1)
		return res, nil
	case gurobi.UNBOUNDED:
		res.Status = Unbounded
		res.Objective = math.Inf(-1)
		return res, nil
	case gurobi.TIME_LIMIT:
		solcount, err := model.GetIntAttr(gurobi.INT_ATTR_SOLCOUNT)
		if err != nil || solcount == 0 {
			return nil, ErrNodeLimit
		}
		res.Status = Feasible
	default:
		return nil, fmt.Errorf("gurobi: %s stopped with status %d", p.Name, optimstatus)
	}

	res.Objective, err = model.GetDblAttr(gurobi.DBL_ATTR_OBJVAL)
	if err != nil {
		return nil, fmt.Errorf("gurobi: objective: %w", err)
	}
	x, err := model.GetDblAttrArray(gurobi.DBL_ATTR_X, 0, int32(len(p.Obj)))
	if err != nil {
		return nil, fmt.Errorf("gurobi: solution: %w", err)
	}
	res.X = x
	return res, nil
}
