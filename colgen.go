package vrpspd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"git.solver4all.com/azaryc2s/vrpspd/lp"
	"github.com/rs/zerolog"
)

type Stage int

const (
	StageInit Stage = iota
	StageSolveMaster
	StagePrice
	StageIntegerSolve
	StageDone
	StageInitInfeasible
	StageMasterInfeasible
	StageIntegerInfeasible
)

var stageNames = [...]string{"INIT", "SOLVE_MASTER", "PRICE", "INTEGER_SOLVE", "DONE", "INIT_INFEASIBLE", "MASTER_INFEASIBLE", "INTEGER_INFEASIBLE"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

type Options struct {
	Epsilon float64
	// MaxIterations stops pricing early, 0 runs until no column prices out.
	MaxIterations          int
	MaxColumnsPerIteration int
	ArtificialCost         float64
	RecordSnapshots        bool
	Logger                 zerolog.Logger
	Observer               Observer
}

func DefaultOptions() Options {
	return Options{Epsilon: 1e-6, RecordSnapshots: true, Logger: zerolog.Nop()}
}

// Observer is told about every finished iteration and the end of a run.
type Observer interface {
	IterationDone(it IterationStats)
	RunDone(res *Result, err error)
}

type IterationStats struct {
	Iteration      int
	LPObjective    float64
	Candidates     int
	Added          int
	Duplicates     int
	MinReducedCost float64
	Pool           int
	MasterTime     time.Duration
	PricingTime    time.Duration
	Pricing        PricingStats
}

type Diagnostics struct {
	Initial    *InitialResult
	Duplicates int
	Warnings   []string
	// Converged is false when the iteration limit ended pricing.
	Converged            bool
	ColumnGenerationTime time.Duration
	IntegerTime          time.Duration
	BranchNodes          int
}

type Result struct {
	Routes      []Route
	Cost        float64
	LPObjective float64
	// Proven is true when the integer step finished its search.
	Proven      bool
	Iterations  []IterationStats
	Snapshots   [][][]int
	Pool        int
	Stage       Stage
	Diagnostics Diagnostics
	Elapsed     time.Duration
}

// Solve runs column generation on p and finishes with the integer
// restriction over the final pool. Errors are *RunError values.
func Solve(ctx context.Context, p *Problem, solver lp.Solver, opts Options) (*Result, error) {
	start := time.Now()
	log := opts.Logger
	res := &Result{Stage: StageInit}

	warn := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		res.Diagnostics.Warnings = append(res.Diagnostics.Warnings, msg)
		log.Warn().Msg(msg)
	}
	fail := func(stage Stage, err error) (*Result, error) {
		rerr := &RunError{Stage: stage, Elapsed: time.Since(start), Err: err}
		log.Error().Err(err).Str("stage", stage.String()).Dur("elapsed", rerr.Elapsed).Msg("column generation stopped")
		if opts.Observer != nil {
			opts.Observer.RunDone(nil, rerr)
		}
		return nil, rerr
	}
	done := func() (*Result, error) {
		res.Stage = StageDone
		res.Elapsed = time.Since(start)
		if opts.Observer != nil {
			opts.Observer.RunDone(res, nil)
		}
		return res, nil
	}

	if p.N() == 0 {
		res.Diagnostics.Converged = true
		res.Proven = true
		return done()
	}

	seed, err := BuildInitialRoutes(p)
	if err != nil {
		return fail(StageInitInfeasible, err)
	}
	res.Diagnostics.Initial = seed
	log.Info().Int("routes", len(seed.Routes)).Int("groups", seed.Groups).Int("merged", seed.Merged).Int("flagged", seed.SoftInfeasible).Msg("initial routes built")
	if seed.SoftInfeasible > 0 {
		warn("%d initial routes violate capacity or duration and are only used as penalized seeds", seed.SoftInfeasible)
	}

	master := NewMasterProblem(p, solver, seed.Routes, MasterOptions{ArtificialCost: opts.ArtificialCost, Logger: log})
	pricer := NewPricer(p, PricingOptions{Epsilon: opts.Epsilon, MaxColumns: opts.MaxColumnsPerIteration, Logger: log})
	if opts.RecordSnapshots {
		res.Snapshots = append(res.Snapshots, master.Paths())
	}

	var uncovered []int
	prevObj := math.Inf(1)
	for it := 1; ; it++ {
		res.Stage = StageSolveMaster
		t0 := time.Now()
		msol, err := master.Solve(ctx)
		if err != nil {
			if errors.Is(err, ErrMasterInfeasible) || errors.Is(err, ErrMasterUnbounded) {
				return fail(StageMasterInfeasible, err)
			}
			return fail(StageSolveMaster, err)
		}
		masterTime := time.Since(t0)
		if msol.Objective > prevObj+1e-6*(1+math.Abs(prevObj)) {
			warn("LP objective rose from %.6f to %.6f in iteration %d", prevObj, msol.Objective, it)
		}
		prevObj = msol.Objective
		res.LPObjective = msol.Objective
		uncovered = msol.Uncovered

		res.Stage = StagePrice
		pres, err := pricer.Price(ctx, msol.Duals)
		if err != nil {
			return fail(StagePrice, err)
		}

		stats := IterationStats{
			Iteration:   it,
			LPObjective: msol.Objective,
			Candidates:  pres.Stats.Candidates,
			MasterTime:  masterTime,
			PricingTime: pres.Stats.Elapsed,
			Pricing:     pres.Stats,
		}
		if len(pres.Columns) > 0 {
			stats.MinReducedCost = pres.Columns[0].ReducedCost
		}
		for _, c := range pres.Columns {
			if master.AddColumn(c.Route) {
				stats.Added++
			} else {
				stats.Duplicates++
			}
		}
		stats.Pool = master.Len()
		res.Iterations = append(res.Iterations, stats)
		if opts.Observer != nil {
			opts.Observer.IterationDone(stats)
		}
		log.Info().
			Int("iteration", it).
			Float64("lp_obj", msol.Objective).
			Int("candidates", stats.Candidates).
			Int("added", stats.Added).
			Float64("min_rc", stats.MinReducedCost).
			Int("pool", stats.Pool).
			Msg("column generation iteration")
		if stats.Added > 0 && opts.RecordSnapshots {
			res.Snapshots = append(res.Snapshots, master.Paths())
		}

		if len(pres.Columns) == 0 {
			res.Diagnostics.Converged = true
			break
		}
		if stats.Added == 0 {
			warn("pricing returned only routes already in the pool in iteration %d, treating the LP as optimal", it)
			res.Diagnostics.Converged = true
			break
		}
		if opts.MaxIterations > 0 && it >= opts.MaxIterations {
			warn("stopped after %d iterations with columns still pricing out", it)
			break
		}
	}
	res.Diagnostics.ColumnGenerationTime = time.Since(start)
	res.Diagnostics.Duplicates = master.Duplicates()
	res.Pool = master.Len()
	if res.Diagnostics.Converged && len(uncovered) > 0 {
		return fail(StageMasterInfeasible, fmt.Errorf("%w: customers %v are only covered by artificial columns", ErrMasterInfeasible, uncovered))
	}

	res.Stage = StageIntegerSolve
	t0 := time.Now()
	isol, err := master.SolveInteger(ctx)
	if err != nil {
		if errors.Is(err, ErrIntegerRestrictionInfeasible) {
			return fail(StageIntegerInfeasible, err)
		}
		return fail(StageIntegerSolve, err)
	}
	res.Diagnostics.IntegerTime = time.Since(t0)
	res.Diagnostics.BranchNodes = isol.Nodes
	res.Routes = isol.Routes
	res.Cost = isol.Cost
	res.Proven = isol.Proven
	if !isol.Proven {
		warn("integer step stopped at its node limit, the selection may not be the best over the pool")
	}
	if valid, comment := CheckSolutionValidity(p, RoutePaths(res.Routes), res.Cost); !valid {
		warn("final routes fail validation: %s", comment)
	}
	log.Info().Float64("cost", res.Cost).Float64("lp_bound", res.LPObjective).Int("routes", len(res.Routes)).Int("pool", res.Pool).Msg("integer solution found")
	return done()
}

// RoutePaths strips routes down to their node sequences.
func RoutePaths(routes []Route) [][]int {
	res := make([][]int, len(routes))
	for i, r := range routes {
		res[i] = r.Path
	}
	return res
}
