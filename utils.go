package vrpspd

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// CalcEdgeDist returns the symmetric distance matrix of the coordinates.
// EUC_2D rounds to the nearest integer, CEIL_2D rounds up, anything else
// keeps the exact euclidean distance.
func CalcEdgeDist(coordinates [][]float64, distType string) [][]float64 {
	n := len(coordinates)
	result := make([][]float64, n)
	for node := 0; node < n; node++ {
		result[node] = make([]float64, n)
	}
	for node := 0; node < n; node++ {
		for node2 := 0; node2 < node; node2++ {
			xDist := coordinates[node][0] - coordinates[node2][0]
			yDist := coordinates[node][1] - coordinates[node2][1]
			distance := math.Sqrt(xDist*xDist + yDist*yDist)
			switch distType {
			case EDGE_EUC_2D:
				distance = math.Floor(distance + 0.5)
			case EDGE_CEIL_2D:
				distance = math.Ceil(distance)
			}
			result[node][node2] = distance
			result[node2][node] = distance
		}
	}
	return result
}

func FormatRoute(path []int) string {
	parts := make([]string, len(path))
	for i, v := range path {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, "-")
}

func Print2DArray(a [][]int) string {
	var sb strings.Builder
	for _, x := range a {
		sb.WriteString(FormatRoute(x))
		sb.WriteString("\n")
	}
	return sb.String()
}

var (
	jsonNumbers  = regexp.MustCompile(`\s*([-]?[0-9]+(\.[0-9]+)?(e[-+]?[0-9]+)?),\s+([-]?[0-9]+(\.[0-9]+)?(e[-+]?[0-9]+)?)(,)?`)
	jsonBrackets = regexp.MustCompile(`\[(([-]?[0-9]+(\.[0-9]+)?(e[-+]?[0-9]+)?,)+[-]?[0-9]+(\.[0-9]+)?(e[-+]?[0-9]+)?)\s+\](,?)(\s+)`)
	jsonSingle   = regexp.MustCompile(`\[\s+([-]?[0-9]+(\.[0-9]+)?(e[-+]?[0-9]+)?)\s+\]`)
)

// SanitizeJsonArrayLineBreaks puts number arrays of an indented JSON document
// on a single line.
func SanitizeJsonArrayLineBreaks(json string) string {
	res := json
	for jsonNumbers.MatchString(res) {
		res = jsonNumbers.ReplaceAllString(res, "$1,$4$7")
	}
	for jsonBrackets.MatchString(res) {
		res = jsonBrackets.ReplaceAllString(res, "[$1]$7$8")
	}
	res = jsonSingle.ReplaceAllString(res, "[$1]")
	return res
}
