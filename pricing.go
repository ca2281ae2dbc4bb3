package vrpspd

import (
	"container/heap"
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

type PricingOptions struct {
	// Epsilon is the reduced cost a route must undercut to be returned.
	Epsilon float64
	// MaxColumns keeps only the most negative routes, 0 keeps all.
	MaxColumns int
	Logger     zerolog.Logger
}

type PricedRoute struct {
	Route       Route
	ReducedCost float64
}

type PricingStats struct {
	LabelsCreated        int
	LabelsExpanded       int
	DominatedAtPop       int
	DominatedAtPush      int
	InfeasibleExtensions int
	ClosedRoutes         int
	Candidates           int
	Elapsed              time.Duration
}

type PricingResult struct {
	Columns []PricedRoute
	Stats   PricingStats
}

// Pricer searches elementary routes of negative reduced cost by label
// setting with dominance.
type Pricer struct {
	problem *Problem
	opts    PricingOptions
}

func NewPricer(p *Problem, opts PricingOptions) *Pricer {
	return &Pricer{problem: p, opts: opts}
}

func (pr *Pricer) Price(ctx context.Context, duals Duals) (*PricingResult, error) {
	start := time.Now()
	p := pr.problem
	res := &PricingResult{}
	st := &res.Stats

	// labels popped so far, per node
	settled := make([][]*Label, len(p.Customers))
	queue := &labelQueue{}
	seq := 0
	push := func(l *Label) {
		l.seq = seq
		seq++
		heap.Push(queue, l)
	}
	push(rootLabel())
	st.LabelsCreated++

	for queue.Len() > 0 {
		if st.LabelsExpanded&255 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		l := heap.Pop(queue).(*Label)
		if dominatedBy(l, settled[l.Node]) {
			st.DominatedAtPop++
			continue
		}
		settled[l.Node] = append(settled[l.Node], l)
		st.LabelsExpanded++

		for v := range p.Customers {
			if v == l.Node || (v != 0 && l.visits(v)) || (v == 0 && l.Node == 0) {
				continue
			}
			next, ok := pr.extend(l, v, duals)
			if !ok {
				st.InfeasibleExtensions++
				continue
			}
			st.LabelsCreated++
			if v == 0 {
				st.ClosedRoutes++
				rc := next.ReducedCost + duals.Theta
				if rc < -pr.opts.Epsilon {
					res.Columns = append(res.Columns, PricedRoute{
						Route:       Route{Path: next.Path(), Cost: next.Cost},
						ReducedCost: rc,
					})
				}
				continue
			}
			if dominatedBy(next, settled[v]) {
				st.DominatedAtPush++
				continue
			}
			push(next)
		}
	}

	sort.SliceStable(res.Columns, func(a, b int) bool {
		if res.Columns[a].ReducedCost != res.Columns[b].ReducedCost {
			return res.Columns[a].ReducedCost < res.Columns[b].ReducedCost
		}
		return res.Columns[a].Route.Key() < res.Columns[b].Route.Key()
	})
	st.Candidates = len(res.Columns)
	if pr.opts.MaxColumns > 0 && len(res.Columns) > pr.opts.MaxColumns {
		res.Columns = res.Columns[:pr.opts.MaxColumns]
	}
	st.Elapsed = time.Since(start)

	pr.opts.Logger.Debug().
		Int("expanded", st.LabelsExpanded).
		Int("dominated", st.DominatedAtPop+st.DominatedAtPush).
		Int("infeasible", st.InfeasibleExtensions).
		Int("candidates", st.Candidates).
		Dur("elapsed", st.Elapsed).
		Msg("pricing done")
	return res, nil
}

func dominatedBy(l *Label, set []*Label) bool {
	for _, other := range set {
		if other.Dominates(l) {
			return true
		}
	}
	return false
}
