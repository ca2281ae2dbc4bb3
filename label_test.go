package vrpspd

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourbasic/bit"
)

func label(node int, visited []int, cost float64, peak, pickup int) *Label {
	return &Label{
		Node:        node,
		Visited:     bit.New(visited...),
		Cost:        cost,
		ReducedCost: cost - 10,
		Time:        cost,
		Delivery:    2,
		Pickup:      pickup,
		InitialLoad: 2,
		PeakLoad:    peak,
	}
}

func TestLabelDominance(t *testing.T) {
	base := label(1, []int{1}, 5, 3, 1)

	assert.True(t, base.Dominates(label(1, []int{1, 2}, 6, 3, 1)))
	assert.True(t, base.Dominates(label(1, []int{1}, 5, 3, 1)))
	assert.False(t, label(1, []int{1, 2}, 6, 3, 1).Dominates(base))

	assert.False(t, base.Dominates(label(2, []int{1, 2}, 6, 3, 1)), "other node")
	assert.False(t, label(1, []int{1, 3}, 5, 3, 1).Dominates(label(1, []int{1, 2}, 6, 3, 1)), "visited not a subset")
	assert.False(t, base.Dominates(label(1, []int{1, 2}, 6, 2, 1)), "higher peak load")
	assert.False(t, base.Dominates(label(1, []int{1, 2}, 6, 3, 0)), "more load left on board")
	assert.False(t, base.Dominates(label(1, []int{1, 2}, 4, 3, 1)), "higher cost")

	cheaper := label(1, []int{1, 2}, 6, 3, 1)
	cheaper.ReducedCost = base.ReducedCost - 1
	assert.False(t, base.Dominates(cheaper), "higher reduced cost")
}

func TestLabelExtend(t *testing.T) {
	p := newProblem(t, twoStops())
	pr := NewPricer(p, PricingOptions{})
	duals := Duals{Pi: []float64{0, 12, 9}, Theta: 1}

	l1, ok := pr.extend(rootLabel(), 1, duals)
	require.True(t, ok)
	assert.Equal(t, 5, l1.InitialLoad)
	assert.Equal(t, 5, l1.PeakLoad)
	assert.Equal(t, 2, l1.Remaining())
	assert.InDelta(t, 5, l1.Cost, 1e-12)
	assert.InDelta(t, 5-12, l1.ReducedCost, 1e-12)
	assert.True(t, l1.visits(1))
	assert.False(t, l1.visits(2))

	l2, ok := pr.extend(l1, 2, duals)
	require.True(t, ok)
	assert.Equal(t, 8, l2.InitialLoad)
	assert.Equal(t, 8, l2.PeakLoad)
	assert.Equal(t, 8, l2.Remaining())
	assert.False(t, l1.visits(2), "parent keeps its own visited set")

	end, ok := pr.extend(l2, 0, duals)
	require.True(t, ok)
	assert.Equal(t, []int{0, 1, 2, 0}, end.Path())
	assert.InDelta(t, ReducedCost(p, end.Path(), duals), end.ReducedCost+duals.Theta, 1e-12)

	// serving 2 first carries 11 units after it
	l2, ok = pr.extend(rootLabel(), 2, duals)
	require.True(t, ok)
	assert.Equal(t, 6, l2.PeakLoad)
	_, ok = pr.extend(l2, 1, duals)
	assert.False(t, ok)
}

func TestLabelExtendDuration(t *testing.T) {
	inst := twoStops()
	inst.MaxTravelTime = 15
	p := newProblem(t, inst)
	pr := NewPricer(p, PricingOptions{})
	duals := Duals{Pi: make([]float64, 3)}

	l1, ok := pr.extend(rootLabel(), 1, duals)
	require.True(t, ok)
	l2, ok := pr.extend(l1, 2, duals)
	require.True(t, ok)
	_, ok = pr.extend(l2, 0, duals)
	assert.False(t, ok)
}

func TestLabelQueueOrder(t *testing.T) {
	q := labelQueue{}
	for i, c := range []float64{3, 1, 2, 1} {
		l := &Label{Cost: c, seq: i}
		q.Push(l)
	}
	require.Equal(t, 4, q.Len())
	assert.True(t, q.Less(1, 0))
	assert.True(t, q.Less(1, 3))
	assert.False(t, q.Less(3, 1))
}

// completions calls fn with the closed label of every feasible way to finish l.
func completions(pr *Pricer, l *Label, duals Duals, suffix []int, fn func(suffix []int, end *Label)) {
	for v := range pr.problem.Customers {
		if v == l.Node || (v != 0 && l.visits(v)) || (v == 0 && l.Node == 0) {
			continue
		}
		next, ok := pr.extend(l, v, duals)
		if !ok {
			continue
		}
		if v == 0 {
			fn(suffix, next)
			continue
		}
		completions(pr, next, duals, append(suffix, v), fn)
	}
}

func TestDominanceKeepsEveryCompletion(t *testing.T) {
	p := newProblem(t, sixCustomers())
	pr := NewPricer(p, PricingOptions{})
	rng := rand.New(rand.NewSource(19))
	pairs := 0

	for round := 0; round < 5; round++ {
		duals := randomDuals(p, rng)
		byNode := make([][]*Label, len(p.Customers))
		var grow func(l *Label)
		grow = func(l *Label) {
			for v := 1; v <= p.N(); v++ {
				if l.visits(v) {
					continue
				}
				if next, ok := pr.extend(l, v, duals); ok {
					byNode[v] = append(byNode[v], next)
					grow(next)
				}
			}
		}
		grow(rootLabel())

		for _, labels := range byNode {
			for _, a := range labels {
				for _, b := range labels {
					if a == b || !a.Dominates(b) {
						continue
					}
					pairs++
					completions(pr, b, duals, nil, func(suffix []int, end *Label) {
						cur := a
						for _, v := range append(suffix, 0) {
							next, ok := pr.extend(cur, v, duals)
							require.True(t, ok, "%v cannot follow %v although %v can", suffix, a.Path(), b.Path())
							cur = next
						}
						assert.LessOrEqual(t, cur.ReducedCost, end.ReducedCost+1e-9, "%v after %v", suffix, a.Path())
						assert.LessOrEqual(t, cur.Cost, end.Cost+1e-9)
					})
				}
			}
		}
	}
	assert.Positive(t, pairs)
}
