package vrpspd

import (
	"fmt"
	"strconv"
	"strings"
)

const feasTol = 1e-9

// Route is a column of the master problem: depot, distinct customers, depot.
type Route struct {
	Path []int
	Cost float64
	// SoftInfeasible marks seed routes violating capacity or duration. They
	// stay in the pool at a penalty and are never part of an integer solution.
	SoftInfeasible bool
}

// Key identifies a route by its exact ordered path.
func (r Route) Key() string {
	return RouteKey(r.Path)
}

func RouteKey(path []int) string {
	var sb strings.Builder
	for i, v := range path {
		if i > 0 {
			sb.WriteByte('-')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return sb.String()
}

// Customers returns the interior of the path.
func (r Route) Customers() []int {
	if len(r.Path) < 2 {
		return nil
	}
	return r.Path[1 : len(r.Path)-1]
}

func (r Route) String() string {
	return fmt.Sprintf("%s (%.2f)", FormatRoute(r.Path), r.Cost)
}

// RouteReport is the resource profile of a path.
type RouteReport struct {
	Cost          float64
	Duration      float64
	Delivery      int
	Pickup        int
	DepartureLoad int
	PeakLoad      int
	Feasible      bool
	Violations    []string
}

// PathCost sums the consecutive arc distances of path.
func (p *Problem) PathCost(path []int) float64 {
	cost := 0.0
	for k := 0; k+1 < len(path); k++ {
		cost += p.dist[path[k]][path[k+1]]
	}
	return cost
}

// NewRoute validates the shape of path and computes its cost.
func (p *Problem) NewRoute(path []int) (Route, error) {
	if err := p.checkShape(path); err != nil {
		return Route{}, err
	}
	return Route{Path: append([]int(nil), path...), Cost: p.PathCost(path)}, nil
}

func (p *Problem) checkShape(path []int) error {
	if len(path) < 3 || path[0] != 0 || path[len(path)-1] != 0 {
		return fmt.Errorf("route %s must start and end at the depot and visit a customer", FormatRoute(path))
	}
	seen := make(map[int]bool, len(path))
	for _, v := range path[1 : len(path)-1] {
		if v <= 0 || v > p.N() {
			return fmt.Errorf("route %s visits unknown customer %d", FormatRoute(path), v)
		}
		if seen[v] {
			return fmt.Errorf("route %s visits customer %d twice", FormatRoute(path), v)
		}
		seen[v] = true
	}
	return nil
}

// CheckRoute simulates path leaving the depot with all its deliveries on
// board. The load after each stop is departure load minus delivered plus
// picked up so far and must stay within [0, capacity].
func (p *Problem) CheckRoute(path []int) RouteReport {
	rep := RouteReport{Cost: p.PathCost(path)}
	if err := p.checkShape(path); err != nil {
		rep.Violations = append(rep.Violations, err.Error())
		return rep
	}
	for _, v := range path[1 : len(path)-1] {
		rep.Delivery += p.Customers[v].Delivery
	}
	rep.DepartureLoad = rep.Delivery
	rep.PeakLoad = rep.DepartureLoad
	load := rep.DepartureLoad
	for k := 1; k < len(path); k++ {
		v := path[k]
		rep.Duration += p.travel[path[k-1]][v] + p.Customers[v].ServiceTime
		if v == 0 {
			continue
		}
		load += p.Customers[v].Pickup - p.Customers[v].Delivery
		rep.Pickup += p.Customers[v].Pickup
		if load > rep.PeakLoad {
			rep.PeakLoad = load
		}
		if load < 0 {
			rep.Violations = append(rep.Violations, fmt.Sprintf("negative load %d after customer %d", load, v))
		}
	}
	if rep.PeakLoad > p.Fleet.Capacity {
		rep.Violations = append(rep.Violations, fmt.Sprintf("peak load %d exceeds capacity %d", rep.PeakLoad, p.Fleet.Capacity))
	}
	if p.hasDurationCap() && rep.Duration > p.Fleet.MaxDuration+feasTol {
		rep.Violations = append(rep.Violations, fmt.Sprintf("duration %.2f exceeds %.2f", rep.Duration, p.Fleet.MaxDuration))
	}
	rep.Feasible = len(rep.Violations) == 0
	return rep
}

// ReducedCost prices path against a dual snapshot: cost minus the prices of
// its customers plus the price of one vehicle. Paths without both depot ends
// price at 0.
func ReducedCost(p *Problem, path []int, duals Duals) float64 {
	if len(path) < 2 {
		return 0
	}
	rc := p.PathCost(path) + duals.Theta
	for _, v := range path[1 : len(path)-1] {
		rc -= duals.Pi[v]
	}
	return rc
}
