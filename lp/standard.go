package lp

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const zeroTol = 1e-12

// column term of a substituted variable: x = offset + sum(coef[k] * col[k])
type substitution struct {
	offset float64
	cols   []int
	coefs  []float64
}

// standardForm is min c'x s.t. Ax = b, x >= 0 derived from a Program.
// Structural columns come first, slack columns after them.
type standardForm struct {
	c         []float64
	A         *mat.Dense
	b         []float64
	objOffset float64

	subs    []substitution
	rowOf   []int     // program row -> standard row, -1 when dropped
	rowSign []float64 // -1 when the standard row was negated
	nStruct int
	basis   []int

	infeasible bool
	unbounded  bool
}

type pendingUpper struct {
	col   int
	bound float64
}

func toStandardForm(p *Program) (*standardForm, error) {
	n := len(p.Obj)
	sf := &standardForm{subs: make([]substitution, n), rowOf: make([]int, len(p.Rows))}

	var cols int
	var uppers []pendingUpper
	var cost []float64
	for j := 0; j < n; j++ {
		l, u := p.Lower[j], p.Upper[j]
		if l > u+zeroTol {
			sf.infeasible = true
			return sf, nil
		}
		s := &sf.subs[j]
		switch {
		case !math.IsInf(l, -1) && !math.IsInf(u, 1) && u-l <= zeroTol:
			s.offset = l
		case !math.IsInf(l, -1):
			s.offset = l
			s.cols, s.coefs = []int{cols}, []float64{1}
			cost = append(cost, p.Obj[j])
			if !math.IsInf(u, 1) {
				uppers = append(uppers, pendingUpper{col: cols, bound: u - l})
			}
			cols++
		case !math.IsInf(u, 1):
			s.offset = u
			s.cols, s.coefs = []int{cols}, []float64{-1}
			cost = append(cost, -p.Obj[j])
			cols++
		default:
			s.cols, s.coefs = []int{cols, cols + 1}, []float64{1, -1}
			cost = append(cost, p.Obj[j], -p.Obj[j])
			cols += 2
		}
		sf.objOffset += p.Obj[j] * s.offset
	}

	type denseRow struct {
		coef  []float64
		rhs   float64
		slack float64
	}
	var rows []denseRow
	for i, r := range p.Rows {
		coef := make([]float64, cols)
		rhs := r.RHS
		for k, j := range r.Ind {
			s := sf.subs[j]
			rhs -= r.Val[k] * s.offset
			for t, col := range s.cols {
				coef[col] += r.Val[k] * s.coefs[t]
			}
		}
		empty := true
		for _, v := range coef {
			if math.Abs(v) > zeroTol {
				empty = false
				break
			}
		}
		if empty {
			sf.rowOf[i] = -1
			tol := 1e-9 * (1 + math.Abs(r.RHS))
			if (r.Sense == LessEqual && rhs < -tol) || (r.Sense == GreaterEqual && rhs > tol) || (r.Sense == Equal && math.Abs(rhs) > tol) {
				sf.infeasible = true
				return sf, nil
			}
			continue
		}
		dr := denseRow{coef: coef, rhs: rhs}
		switch r.Sense {
		case LessEqual:
			dr.slack = 1
		case GreaterEqual:
			dr.slack = -1
		}
		sf.rowOf[i] = len(rows)
		rows = append(rows, dr)
	}
	for _, up := range uppers {
		coef := make([]float64, cols)
		coef[up.col] = 1
		rows = append(rows, denseRow{coef: coef, rhs: up.bound, slack: 1})
	}

	// drop structural columns no row touches
	keep := make([]int, cols)
	nStruct := 0
	for col := 0; col < cols; col++ {
		used := false
		for _, r := range rows {
			if math.Abs(r.coef[col]) > zeroTol {
				used = true
				break
			}
		}
		if !used {
			if cost[col] < 0 {
				sf.unbounded = true
				return sf, nil
			}
			keep[col] = -1
			continue
		}
		keep[col] = nStruct
		nStruct++
	}
	for j := range sf.subs {
		s := &sf.subs[j]
		var kc []int
		var kv []float64
		for t, col := range s.cols {
			if keep[col] >= 0 {
				kc = append(kc, keep[col])
				kv = append(kv, s.coefs[t])
			}
		}
		s.cols, s.coefs = kc, kv
	}

	slacks := 0
	for _, r := range rows {
		if r.slack != 0 {
			slacks++
		}
	}
	m, total := len(rows), nStruct+slacks
	sf.nStruct = nStruct
	sf.rowSign = make([]float64, m)
	sf.c = make([]float64, total)
	for col := 0; col < cols; col++ {
		if keep[col] >= 0 {
			sf.c[keep[col]] = cost[col]
		}
	}
	if m == 0 {
		return sf, nil
	}

	sf.A = mat.NewDense(m, total, nil)
	sf.b = make([]float64, m)
	next := nStruct
	for i, r := range rows {
		sign := 1.0
		if r.rhs < 0 {
			sign = -1
		}
		sf.rowSign[i] = sign
		sf.b[i] = sign * r.rhs
		for col := 0; col < cols; col++ {
			if keep[col] >= 0 && r.coef[col] != 0 {
				sf.A.Set(i, keep[col], sign*r.coef[col])
			}
		}
		if r.slack != 0 {
			sf.A.Set(i, next, sign*r.slack)
			next++
		}
	}
	sf.basis = sf.unitBasis()
	return sf, nil
}

// unitBasis picks one positive unit column per row, -1 where a row has none.
// Together they start a feasible basis because b >= 0.
func (sf *standardForm) unitBasis() []int {
	m, n := sf.A.Dims()
	rowOfUnit := make([]int, n)
	for j := 0; j < n; j++ {
		rowOfUnit[j] = -1
		hit := -1
		for i := 0; i < m; i++ {
			v := sf.A.At(i, j)
			if v == 0 {
				continue
			}
			if hit >= 0 || v < 0 {
				hit = -2
				break
			}
			hit = i
		}
		if hit >= 0 {
			rowOfUnit[j] = hit
		}
	}
	basis := make([]int, m)
	for i := range basis {
		basis[i] = -1
	}
	// prefer the last unit column of a row, slacks sit at the end
	for j := n - 1; j >= 0; j-- {
		if i := rowOfUnit[j]; i >= 0 && basis[i] < 0 {
			basis[i] = j
		}
	}
	return basis
}

// recover maps a standard-form point back to program variables.
func (sf *standardForm) recover(xs []float64) []float64 {
	x := make([]float64, len(sf.subs))
	for j, s := range sf.subs {
		v := s.offset
		for t, col := range s.cols {
			v += s.coefs[t] * xs[col]
		}
		x[j] = v
	}
	return x
}

// programDuals maps standard row prices back to the rows of the program.
func (sf *standardForm) programDuals(ys []float64, nRows int) ([]float64, float64) {
	y := make([]float64, nRows)
	for i, si := range sf.rowOf {
		if si >= 0 {
			y[i] = sf.rowSign[si] * ys[si]
		}
	}
	dualObj := sf.objOffset
	for i, v := range ys {
		dualObj += sf.b[i] * v
	}
	return y, dualObj
}
