package gainmap

import (
	"github.com/hdrspan/gainmap/internal/gainmaperr"
	"github.com/hdrspan/gainmap/internal/primaries"
)

// ChooseColorSpaceForGainMapMath is component C from spec.md §4.C: it picks
// the "larger" of two RGB primaries, so that converting the other into it
// produces the fewest negative channel values, avoiding a lossy offset
// before the log2 domain used by Apply/Compute.
func ChooseColorSpaceForGainMapMath(base, alt primaries.Gamut) (primaries.Gamut, error) {
	if base == alt {
		return base, nil
	}

	baseToAlt, ok := primaries.ComputeRGBToRGBMatrix(base, alt)
	if !ok {
		return 0, gainmaperr.New(gainmaperr.NotImplemented, "no RGB->RGB matrix from %v to %v", base, alt)
	}
	altToBase, ok := primaries.ComputeRGBToRGBMatrix(alt, base)
	if !ok {
		return 0, gainmaperr.New(gainmaperr.NotImplemented, "no RGB->RGB matrix from %v to %v", alt, base)
	}

	minInAlt := minChannelOverUnits(baseToAlt)
	minInBase := minChannelOverUnits(altToBase)

	// Larger primaries produce the less-negative minimum; ties favor base.
	if minInAlt > minInBase {
		return alt, nil
	}
	return base, nil
}

func minChannelOverUnits(m primaries.Matrix3x3) float32 {
	units := [3][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	min := float32(0)
	first := true
	for _, u := range units {
		r, g, b := m.Apply(u[0], u[1], u[2])
		for _, v := range [3]float32{r, g, b} {
			if first || v < min {
				min = v
				first = false
			}
		}
	}
	return min
}
