package vrpspd

import (
	"fmt"
	"sort"
)

type InitialResult struct {
	Routes []Route
	// Groups is the number of bins before merging down to the fleet size.
	Groups int
	Merged int
	// SoftInfeasible counts routes flagged as violating capacity or duration.
	SoftInfeasible int
}

// BuildInitialRoutes packs customers by descending delivery plus pickup into
// the first group with room left, merges trailing groups until the fleet
// suffices and turns every group into a route. Routes broken by the merge are
// kept and flagged SoftInfeasible.
func BuildInitialRoutes(p *Problem) (*InitialResult, error) {
	Q := p.Fleet.Capacity
	for _, c := range p.Customers[1:] {
		if c.Demand() > Q {
			return nil, fmt.Errorf("%w: customer %d needs %d units of a vehicle with capacity %d", ErrInfeasibleInitialSolution, c.ID, c.Demand(), Q)
		}
		if p.hasDurationCap() {
			roundTrip := p.travel[0][c.ID] + c.ServiceTime + p.travel[c.ID][0]
			if roundTrip > p.Fleet.MaxDuration+feasTol {
				return nil, fmt.Errorf("%w: round trip to customer %d takes %.2f, limit is %.2f", ErrInfeasibleInitialSolution, c.ID, roundTrip, p.Fleet.MaxDuration)
			}
		}
	}

	order := make([]Customer, p.N())
	copy(order, p.Customers[1:])
	sort.SliceStable(order, func(a, b int) bool {
		if order[a].Demand() != order[b].Demand() {
			return order[a].Demand() > order[b].Demand()
		}
		return order[a].ID < order[b].ID
	})

	var groups [][]int
	var loads []int
	for _, c := range order {
		placed := false
		for g := range groups {
			if loads[g]+c.Demand() <= Q {
				groups[g] = append(groups[g], c.ID)
				loads[g] += c.Demand()
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []int{c.ID})
			loads = append(loads, c.Demand())
		}
	}

	res := &InitialResult{Groups: len(groups)}
	for len(groups) > p.Fleet.Count && len(groups) > 1 {
		last := groups[len(groups)-1]
		groups = groups[:len(groups)-1]
		groups[len(groups)-1] = append(groups[len(groups)-1], last...)
		res.Merged++
	}
	if len(groups) > p.Fleet.Count {
		return nil, fmt.Errorf("%w: %d routes for %d vehicles", ErrInfeasibleInitialSolution, len(groups), p.Fleet.Count)
	}

	for _, g := range groups {
		path := make([]int, 0, len(g)+2)
		path = append(path, 0)
		path = append(path, g...)
		path = append(path, 0)
		r := Route{Path: path, Cost: p.PathCost(path)}
		if !p.CheckRoute(path).Feasible {
			r.SoftInfeasible = true
			res.SoftInfeasible++
		}
		res.Routes = append(res.Routes, r)
	}
	return res, nil
}
