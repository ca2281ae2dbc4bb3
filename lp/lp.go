// Package lp holds a small solver-independent model of linear and mixed
// integer programs, built variable by variable and row by row, and the
// backends able to optimize it.
package lp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

type Sense int8

const (
	LessEqual Sense = iota
	Equal
	GreaterEqual
)

func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case Equal:
		return "="
	case GreaterEqual:
		return ">="
	}
	return fmt.Sprintf("Sense(%d)", int8(s))
}

type Status int

const (
	Optimal Status = iota
	// Feasible means a limit stopped the search with an incumbent available.
	Feasible
	Infeasible
	Unbounded
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "OPTIMAL"
	case Feasible:
		return "FEASIBLE"
	case Infeasible:
		return "INFEASIBLE"
	case Unbounded:
		return "UNBOUNDED"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

var (
	ErrNodeLimit      = errors.New("lp: node limit reached without an integer solution")
	ErrPivotLimit     = errors.New("lp: pivot limit reached")
	ErrUnknownBackend = errors.New("lp: unknown backend")
	ErrBadBounds      = errors.New("lp: lower bound must be 0 to build the dual")
)

// Inf is used for absent bounds.
var Inf = math.Inf(1)

// Row is a sparse constraint sum(Val[k] * x[Ind[k]]) Sense RHS.
type Row struct {
	Ind   []int
	Val   []float64
	Sense Sense
	RHS   float64
	Name  string
}

// Program is a minimization problem over bounded variables.
type Program struct {
	Name    string
	Obj     []float64
	Lower   []float64
	Upper   []float64
	Integer []bool
	Names   []string
	Rows    []Row
}

func NewProgram(name string) *Program {
	return &Program{Name: name}
}

// AddVar appends a variable and returns its index.
func (p *Program) AddVar(obj, lb, ub float64, integer bool, name string) int {
	p.Obj = append(p.Obj, obj)
	p.Lower = append(p.Lower, lb)
	p.Upper = append(p.Upper, ub)
	p.Integer = append(p.Integer, integer)
	p.Names = append(p.Names, name)
	return len(p.Obj) - 1
}

// AddConstr appends a row and returns its index.
func (p *Program) AddConstr(ind []int, val []float64, sense Sense, rhs float64, name string) (int, error) {
	if len(ind) != len(val) {
		return -1, fmt.Errorf("lp: row %s: %d indices but %d values", name, len(ind), len(val))
	}
	for _, j := range ind {
		if j < 0 || j >= len(p.Obj) {
			return -1, fmt.Errorf("lp: row %s: variable index %d out of range", name, j)
		}
	}
	p.Rows = append(p.Rows, Row{Ind: append([]int(nil), ind...), Val: append([]float64(nil), val...), Sense: sense, RHS: rhs, Name: name})
	return len(p.Rows) - 1, nil
}

func (p *Program) NumVars() int { return len(p.Obj) }

func (p *Program) NumRows() int { return len(p.Rows) }

// IsMIP reports whether any variable is integer constrained.
func (p *Program) IsMIP() bool {
	for _, b := range p.Integer {
		if b {
			return true
		}
	}
	return false
}

// Relaxation returns a copy without integer restrictions. Rows are shared.
func (p *Program) Relaxation() *Program {
	r := p.withBounds(p.Lower, p.Upper)
	r.Integer = make([]bool, len(p.Obj))
	return r
}

func (p *Program) withBounds(lower, upper []float64) *Program {
	return &Program{
		Name:    p.Name,
		Obj:     p.Obj,
		Lower:   append([]float64(nil), lower...),
		Upper:   append([]float64(nil), upper...),
		Integer: p.Integer,
		Names:   p.Names,
		Rows:    p.Rows,
	}
}

// Value evaluates the objective at x.
func (p *Program) Value(x []float64) float64 {
	v := 0.0
	for j, c := range p.Obj {
		v += c * x[j]
	}
	return v
}

// Violation returns the largest bound or row violation of x.
func (p *Program) Violation(x []float64) float64 {
	worst := 0.0
	for j := range p.Obj {
		worst = math.Max(worst, p.Lower[j]-x[j])
		worst = math.Max(worst, x[j]-p.Upper[j])
	}
	for _, r := range p.Rows {
		lhs := 0.0
		for k, j := range r.Ind {
			lhs += r.Val[k] * x[j]
		}
		switch r.Sense {
		case LessEqual:
			worst = math.Max(worst, lhs-r.RHS)
		case GreaterEqual:
			worst = math.Max(worst, r.RHS-lhs)
		case Equal:
			worst = math.Max(worst, math.Abs(lhs-r.RHS))
		}
	}
	return worst
}

type Result struct {
	Status    Status
	Objective float64
	X         []float64
	// Duals holds one value per row for continuous programs, nil otherwise.
	Duals         []float64
	DualObjective float64
	// Nodes is the number of branch-and-bound nodes solved.
	Nodes int
}

// Solver optimizes a Program. Infeasible and unbounded programs are reported
// through Result.Status, errors are reserved for backend failures.
type Solver interface {
	Solve(ctx context.Context, p *Program) (*Result, error)
}

// Options configure the registered backends.
type Options struct {
	// Tolerance is the reduced cost below -Tolerance that still improves.
	Tolerance float64
	NodeLimit int
	// PivotLimit bounds a single LP of the simplex backend, 0 scales it
	// with the program size.
	PivotLimit int
	LogFile    string
}

func DefaultOptions() Options {
	return Options{Tolerance: 1e-9, NodeLimit: 20000, LogFile: "vrpspd_gurobi.log"}
}

type Factory func(opts Options) (Solver, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a backend available under name.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

func New(name string, opts Options) (Solver, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownBackend, name, Backends())
	}
	return f(opts)
}

func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
