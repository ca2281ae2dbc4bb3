package vrpspd

import (
	"fmt"
	"math"
	"strings"
)

// CheckSolutionValidity verifies that routes serve every customer exactly
// once with at most the available vehicles, that each route respects capacity
// and duration, and that obj is the summed route length.
func CheckSolutionValidity(p *Problem, routes [][]int, obj float64) (bool, string) {
	var problems []string
	if len(routes) > p.Fleet.Count {
		problems = append(problems, fmt.Sprintf("%d routes but only %d vehicles", len(routes), p.Fleet.Count))
	}
	served := make([]int, len(p.Customers))
	total := 0.0
	for i, path := range routes {
		rep := p.CheckRoute(path)
		total += rep.Cost
		if !rep.Feasible {
			problems = append(problems, fmt.Sprintf("route %d (%s): %s", i, FormatRoute(path), strings.Join(rep.Violations, ", ")))
		}
		for k := 1; k+1 < len(path); k++ {
			if path[k] > 0 && path[k] < len(served) {
				served[path[k]]++
			}
		}
	}
	for v := 1; v < len(served); v++ {
		if served[v] != 1 {
			problems = append(problems, fmt.Sprintf("customer %d is served %d times", v, served[v]))
		}
	}
	if math.Abs(total-obj) > 1e-6*(1+math.Abs(obj)) {
		problems = append(problems, fmt.Sprintf("routes add up to %.4f but the objective is %.4f", total, obj))
	}
	if len(problems) > 0 {
		return false, "The computed solution is invalid: " + strings.Join(problems, "; ")
	}
	return true, ""
}
