package vrpspd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckSolutionValidity(t *testing.T) {
	p := newProblem(t, line(3))

	valid, comment := CheckSolutionValidity(p, [][]int{{0, 1, 0}, {0, 3, 2, 0}}, 80)
	assert.True(t, valid, comment)
	assert.Empty(t, comment)

	tests := map[string]struct {
		routes [][]int
		obj    float64
		want   string
	}{
		"missing customer": {[][]int{{0, 1, 0}, {0, 2, 0}}, 60, "customer 3 is served 0 times"},
		"served twice":     {[][]int{{0, 1, 2, 0}, {0, 2, 3, 0}}, 100, "customer 2 is served 2 times"},
		"wrong objective":  {[][]int{{0, 1, 2, 3, 0}}, 61, "add up to 60.0000"},
		"too many routes":  {[][]int{{0, 1, 0}, {0, 2, 0}, {0, 3, 0}, {0, 3, 0}}, 180, "4 routes but only 3 vehicles"},
		"broken route":     {[][]int{{0, 1, 2, 3}}, 30, "must start and end at the depot"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			valid, comment := CheckSolutionValidity(p, tt.routes, tt.obj)
			assert.False(t, valid)
			assert.Contains(t, comment, tt.want)
		})
	}
}

func TestCheckSolutionValidityCapacity(t *testing.T) {
	p := newProblem(t, heavy(2, 1))
	valid, comment := CheckSolutionValidity(p, [][]int{{0, 1, 2, 0}}, 40)
	assert.False(t, valid)
	assert.Contains(t, comment, "peak load 12 exceeds capacity 10")
}

func TestCalcEdgeDist(t *testing.T) {
	coords := [][]float64{{0, 0}, {1, 1}, {3, 4}}
	exact := CalcEdgeDist(coords, EDGE_EXACT_2D)
	assert.InDelta(t, math.Sqrt2, exact[0][1], 1e-12)
	assert.InDelta(t, 5, exact[2][0], 1e-12)
	assert.Zero(t, exact[1][1])

	euc := CalcEdgeDist(coords, EDGE_EUC_2D)
	assert.Equal(t, 1.0, euc[0][1])
	assert.Equal(t, euc[0][1], euc[1][0])

	ceil := CalcEdgeDist(coords, EDGE_CEIL_2D)
	assert.Equal(t, 2.0, ceil[0][1])
	assert.Equal(t, 4.0, ceil[1][2])
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "0-4-2-0", FormatRoute([]int{0, 4, 2, 0}))
	assert.Equal(t, "0-1-0\n0-2-0\n", Print2DArray([][]int{{0, 1, 0}, {0, 2, 0}}))
	assert.Equal(t, "{\n\t\"a\": [1,2.5,-3],\n\t\"b\": [7]\n}",
		SanitizeJsonArrayLineBreaks("{\n\t\"a\": [\n\t\t1,\n\t\t2.5,\n\t\t-3\n\t],\n\t\"b\": [\n\t\t7\n\t]\n}"))
}
