package vrpspd

import (
	"container/heap"

	"github.com/yourbasic/bit"
)

const domTol = 1e-9

// Label is a partial route from the depot to Node.
//
// InitialLoad is the load the vehicle must leave the depot with to serve the
// deliveries so far. PeakLoad is the highest load on board along the prefix
// when leaving with that load. Remaining is the load after Node.
type Label struct {
	Node    int
	Parent  *Label
	Visited *bit.Set

	Cost float64
	// ReducedCost is Cost minus the prices of the visited customers. The
	// vehicle price is added when the route is closed.
	ReducedCost float64
	Time        float64

	Delivery    int
	Pickup      int
	InitialLoad int
	PeakLoad    int

	seq int
}

func rootLabel() *Label {
	return &Label{Node: 0, Visited: new(bit.Set)}
}

func (l *Label) Remaining() int {
	return l.InitialLoad - l.Delivery + l.Pickup
}

// Path walks the parents back to the depot.
func (l *Label) Path() []int {
	depth := 0
	for cur := l; cur != nil; cur = cur.Parent {
		depth++
	}
	path := make([]int, depth)
	for cur := l; cur != nil; cur = cur.Parent {
		depth--
		path[depth] = cur.Node
	}
	return path
}

func (l *Label) visits(v int) bool {
	return l.Visited.Contains(v)
}

func subset(a, b *bit.Set) bool {
	return new(bit.Set).SetAndNot(a, b).Empty()
}

// Dominates reports whether every feasible completion of b is feasible from a
// with no more reduced cost.
func (a *Label) Dominates(b *Label) bool {
	return a.Node == b.Node &&
		a.Time <= b.Time+domTol &&
		a.InitialLoad <= b.InitialLoad &&
		a.PeakLoad <= b.PeakLoad &&
		a.Remaining() <= b.Remaining() &&
		a.Cost <= b.Cost+domTol &&
		a.ReducedCost <= b.ReducedCost+domTol &&
		subset(a.Visited, b.Visited)
}

// extend appends v to l. ok is false when a resource limit is broken.
func (pr *Pricer) extend(l *Label, v int, duals Duals) (*Label, bool) {
	p := pr.problem
	c := p.Customers[v]
	next := &Label{
		Node:        v,
		Parent:      l,
		Cost:        l.Cost + p.dist[l.Node][v],
		ReducedCost: l.ReducedCost + p.dist[l.Node][v],
		Time:        l.Time + p.travel[l.Node][v] + c.ServiceTime,
		Delivery:    l.Delivery,
		Pickup:      l.Pickup,
		InitialLoad: l.InitialLoad,
		PeakLoad:    l.PeakLoad,
	}
	if p.hasDurationCap() && next.Time > p.Fleet.MaxDuration+feasTol {
		return nil, false
	}
	if v == 0 {
		next.Visited = l.Visited
		return next, next.InitialLoad >= next.Delivery
	}

	Q := p.Fleet.Capacity
	if l.InitialLoad+(l.Pickup+c.Pickup)-(l.Delivery+c.Delivery) > Q {
		return nil, false
	}
	next.Delivery += c.Delivery
	next.Pickup += c.Pickup
	if next.Delivery > next.InitialLoad {
		next.InitialLoad = next.Delivery
	}
	// all earlier loads grow by the new delivery
	next.PeakLoad = l.PeakLoad + c.Delivery
	if rem := next.Remaining(); rem > next.PeakLoad {
		next.PeakLoad = rem
	}
	if next.PeakLoad > Q || next.Remaining() > Q || next.Remaining() < 0 {
		return nil, false
	}
	next.ReducedCost -= duals.Pi[v]

	next.Visited = new(bit.Set).Set(l.Visited).Add(v)
	return next, true
}

// labelQueue orders labels by cost, then by creation.
type labelQueue []*Label

func (q labelQueue) Len() int { return len(q) }

func (q labelQueue) Less(i, j int) bool {
	if q[i].Cost != q[j].Cost {
		return q[i].Cost < q[j].Cost
	}
	return q[i].seq < q[j].seq
}

func (q labelQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *labelQueue) Push(x interface{}) { *q = append(*q, x.(*Label)) }

func (q *labelQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

var _ heap.Interface = (*labelQueue)(nil)
