package presence

import (
	"fmt"
	"math"
	"math/bits"
	"strings"
)

// MetersPerUnit converts one fixed-point coordinate unit to meters:
// 111,000 m per degree over the 1e6 scale.
const MetersPerUnit = 0.111

// DistanceFunc approximates the distance in meters between two points given
// the absolute fixed-point deltas of their latitude and longitude.
type DistanceFunc func(dlat, dlng uint64) float64

// LegacyDistance is the approximation deployed with the first version of the
// protocol: sqrt(dlat*dlng + dlng*dlng) * 0.111 in uint64 arithmetic. It is
// not symmetric in lat/lng; a pure latitude offset (dlng == 0) always
// measures 0. If the uint64 sum overflows the result is +Inf, so the claim
// can never be in range.
func LegacyDistance(dlat, dlng uint64) float64 {
	hi1, cross := bits.Mul64(dlat, dlng)
	hi2, square := bits.Mul64(dlng, dlng)
	raw, carry := bits.Add64(cross, square, 0)
	if hi1|hi2|carry != 0 {
		return math.Inf(1)
	}
	return math.Sqrt(float64(raw)) * MetersPerUnit
}

// EuclideanDistance is the planar approximation sqrt(dlat² + dlng²) * 0.111.
// Squares are taken in float64 so large deltas do not wrap.
func EuclideanDistance(dlat, dlng uint64) float64 {
	return math.Hypot(float64(dlat), float64(dlng)) * MetersPerUnit
}

// Formula names accepted by ParseFormula.
const (
	FormulaLegacy    = "legacy"
	FormulaEuclidean = "euclidean"
)

// ParseFormula resolves a configured formula name.
func ParseFormula(name string) (DistanceFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FormulaLegacy:
		return LegacyDistance, nil
	case FormulaEuclidean:
		return EuclideanDistance, nil
	default:
		return nil, fmt.Errorf("unknown distance formula %q", name)
	}
}

// delta returns |a - b| as an unsigned magnitude. The uint64 difference is
// exact for any pair of int64 inputs.
func delta(a, b int64) uint64 {
	if a >= b {
		return uint64(a) - uint64(b)
	}
	return uint64(b) - uint64(a)
}
