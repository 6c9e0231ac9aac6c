package projection

import (
	"errors"
	"fmt"
	"math"
)

// ChartRange derives the Y-axis display range for a set of projected
// values.
//
// Equal values are padded by 10% of their magnitude, or ±1 around zero.
// Otherwise the bounds snap outwards to multiples of the rounding unit
// one order of magnitude below the maximum, widening by one unit each
// way if rounding collapses them. A non-positive maximum leaves the
// log10 step undefined, so the raw bounds are padded by 10% of their
// span instead.
func ChartRange(values []float64) (yMin, yMax float64, err error) {
	if len(values) == 0 {
		return 0, 0, errors.New("no values")
	}

	minVal, maxVal := values[0], values[0]
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, fmt.Errorf("non-finite value %v", v)
		}
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	if minVal == maxVal {
		padding := math.Abs(minVal * 0.1)
		if padding == 0 {
			padding = 1
		}
		return minVal - padding, maxVal + padding, nil
	}

	if maxVal <= 0 {
		pad := (maxVal - minVal) * 0.1
		return minVal - pad, maxVal + pad, nil
	}

	unit := math.Pow(10, math.Floor(math.Log10(maxVal))-1)
	yMin = math.Floor(minVal/unit) * unit
	yMax = math.Ceil(maxVal/unit) * unit

	if yMin == yMax {
		yMin -= unit
		yMax += unit
	}
	return yMin, yMax, nil
}
