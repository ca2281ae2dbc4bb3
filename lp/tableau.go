package lp

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	pivotTol = 1e-9
	// consecutive degenerate pivots before switching to Bland's rule
	blandAfter = 25
)

// tableau is a dense two-phase simplex for min c'x, Ax = b, x >= 0 with
// b >= 0. Column n+i is the artificial of row i. Artificials never enter the
// basis, so the ones left basic after phase one mark redundant rows.
type tableau struct {
	m, n  int
	t     *mat.Dense
	rhs   []float64
	d     []float64
	basis []int

	tol    float64
	pivots int
	limit  int
}

func newTableau(sf *standardForm, tol float64, limit int) *tableau {
	m, n := sf.A.Dims()
	tb := &tableau{
		m:     m,
		n:     n,
		t:     mat.NewDense(m, n+m, nil),
		rhs:   append([]float64(nil), sf.b...),
		d:     make([]float64, n+m),
		basis: make([]int, m),
		tol:   tol,
		limit: limit,
	}
	if tb.limit <= 0 {
		tb.limit = 50*(m+n) + 1000
	}
	for i := 0; i < m; i++ {
		row := tb.t.RawRowView(i)
		copy(row[:n], sf.A.RawRowView(i))
		row[n+i] = 1
		tb.basis[i] = n + i
	}
	for i, j := range sf.basis {
		if j < 0 {
			continue
		}
		row := tb.t.RawRowView(i)
		v := row[j]
		for k := range row {
			row[k] /= v
		}
		row[j] = 1
		tb.rhs[i] /= v
		tb.basis[i] = j
	}
	return tb
}

// price sets the reduced costs of cost vector c for the current basis.
func (tb *tableau) price(c []float64) {
	copy(tb.d, c)
	for i, j := range tb.basis {
		cb := c[j]
		if cb == 0 {
			continue
		}
		for k, v := range tb.t.RawRowView(i) {
			tb.d[k] -= cb * v
		}
	}
}

func (tb *tableau) pivot(r, q int) {
	prow := tb.t.RawRowView(r)
	pv := prow[q]
	for k := range prow {
		prow[k] /= pv
	}
	prow[q] = 1
	tb.rhs[r] /= pv
	for i := 0; i < tb.m; i++ {
		if i == r {
			continue
		}
		row := tb.t.RawRowView(i)
		f := row[q]
		if f == 0 {
			continue
		}
		for k, v := range prow {
			row[k] -= f * v
		}
		row[q] = 0
		tb.rhs[i] -= f * tb.rhs[r]
		if tb.rhs[i] < 0 && tb.rhs[i] > -pivotTol {
			tb.rhs[i] = 0
		}
	}
	if f := tb.d[q]; f != 0 {
		for k, v := range prow {
			tb.d[k] -= f * v
		}
		tb.d[q] = 0
	}
	tb.basis[r] = q
	tb.pivots++
}

// run pivots structural columns into the basis until no reduced cost is
// below -tol. Entering columns follow Dantzig's rule until the search stalls
// on degenerate pivots, then Bland's rule.
func (tb *tableau) run(ctx context.Context) (Status, error) {
	degenerate := 0
	for {
		if tb.pivots&31 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		if tb.pivots >= tb.limit {
			return 0, ErrPivotLimit
		}

		q := -1
		best := -tb.tol
		for j := 0; j < tb.n; j++ {
			if tb.d[j] < best {
				q, best = j, tb.d[j]
				if degenerate > blandAfter {
					break
				}
			}
		}
		if q < 0 {
			return Optimal, nil
		}

		r := -1
		ratio := math.Inf(1)
		for i := 0; i < tb.m; i++ {
			a := tb.t.At(i, q)
			if a <= pivotTol {
				continue
			}
			v := tb.rhs[i] / a
			if v < ratio-zeroTol || (v <= ratio+zeroTol && r >= 0 && tb.basis[i] < tb.basis[r]) {
				r, ratio = i, v
			}
		}
		if r < 0 {
			return Unbounded, nil
		}
		if ratio <= zeroTol {
			degenerate++
		} else {
			degenerate = 0
		}
		tb.pivot(r, q)
	}
}

// phaseOne drives the artificials out of the basis. It reports false when
// the rows cannot be satisfied.
func (tb *tableau) phaseOne(ctx context.Context) (bool, error) {
	c := make([]float64, tb.n+tb.m)
	scale := 1.0
	artificial := false
	for i, j := range tb.basis {
		if j >= tb.n {
			c[j] = 1
			artificial = true
		}
		scale = math.Max(scale, math.Abs(tb.rhs[i]))
	}
	if !artificial {
		return true, nil
	}
	tb.price(c)
	if _, err := tb.run(ctx); err != nil {
		return false, err
	}
	left := 0.0
	for i, j := range tb.basis {
		if j >= tb.n {
			left += tb.rhs[i]
		}
	}
	if left > 1e-9*scale {
		return false, nil
	}

	for i, j := range tb.basis {
		if j < tb.n {
			continue
		}
		row := tb.t.RawRowView(i)
		q, big := -1, pivotTol
		for k := 0; k < tb.n; k++ {
			if a := math.Abs(row[k]); a > big {
				q, big = k, a
			}
		}
		// a row without structural entries is redundant and keeps its artificial at 0
		tb.rhs[i] = 0
		if q >= 0 {
			tb.pivot(i, q)
		}
	}
	return true, nil
}

// solve returns the optimal standard form point and the row prices y with
// B'y = c_B of the final basis.
func (tb *tableau) solve(ctx context.Context, c []float64) (Status, []float64, []float64, error) {
	ok, err := tb.phaseOne(ctx)
	if err != nil {
		return 0, nil, nil, err
	}
	if !ok {
		return Infeasible, nil, nil, nil
	}
	cost := make([]float64, tb.n+tb.m)
	copy(cost, c)
	tb.price(cost)
	status, err := tb.run(ctx)
	if err != nil || status != Optimal {
		return status, nil, nil, err
	}

	xs := make([]float64, tb.n)
	for i, j := range tb.basis {
		if j < tb.n {
			xs[j] = math.Max(tb.rhs[i], 0)
		}
	}
	// artificial columns are unit columns of zero cost
	y := make([]float64, tb.m)
	for i := range y {
		y[i] = -tb.d[tb.n+i]
	}
	return Optimal, xs, y, nil
}
