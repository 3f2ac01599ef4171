package gainmap

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/hdrspan/gainmap/internal/gainmaperr"
)

const (
	histBucketSize       = 0.01
	histMaxOutliersRatio = 0.001
	histMaxNumBuckets    = 10000
)

// FindRangeWithoutOutliers is component B from spec.md §4.B: an
// outlier-robust min/max estimator over a buffer of per-pixel log-ratio
// samples. It bins the exact [min,max] range into fixed-width buckets, then
// walks inward from both ends, trimming only buckets that are themselves
// empty and whose cumulative count from that end is still within the 0.1%
// outlier budget.
//
// gonum.org/v1/gonum/floats supplies the initial linear min/max scan
// (ausocean-av depends on gonum for numeric reductions of this kind).
func FindRangeWithoutOutliers(buf []float32) (rangeMin, rangeMax float32, err error) {
	if len(buf) == 0 {
		return 0, 0, gainmaperr.New(gainmaperr.InvalidArgument, "findRangeWithoutOutliers: empty buffer")
	}

	f64 := make([]float64, len(buf))
	for i, v := range buf {
		f64[i] = float64(v)
	}
	lo := floats.Min(f64)
	hi := floats.Max(f64)

	maxOutliers := int(math.Round(float64(len(buf)) * histMaxOutliersRatio / 2))
	if hi-lo <= 2*histBucketSize || maxOutliers == 0 {
		return float32(lo), float32(hi), nil
	}

	numBuckets := int(math.Ceil((hi - lo) / histBucketSize))
	if numBuckets > histMaxNumBuckets {
		numBuckets = histMaxNumBuckets
	}
	if numBuckets < 1 {
		numBuckets = 1
	}
	span := hi - lo
	step := span / float64(numBuckets)

	counts := make([]int, numBuckets)
	for _, v := range f64 {
		idx := int(math.Round((v - lo) / span * float64(numBuckets)))
		if idx >= numBuckets {
			idx = numBuckets - 1
		}
		if idx < 0 {
			idx = 0
		}
		counts[idx]++
	}

	rangeMin = float32(lo)
	accLow := 0
	for i := 0; i < numBuckets; i++ {
		accLow += counts[i]
		if accLow > maxOutliers {
			break
		}
		if counts[i] == 0 {
			rangeMin = float32(float64(i+1)*step + lo)
		}
	}

	rangeMax = float32(hi)
	accHigh := 0
	for i := numBuckets - 1; i >= 0; i-- {
		accHigh += counts[i]
		if accHigh > maxOutliers {
			break
		}
		if counts[i] == 0 {
			rangeMax = float32(float64(i)*step + lo)
		}
	}

	if rangeMax < rangeMin {
		rangeMax = rangeMin
	}
	return rangeMin, rangeMax, nil
}
