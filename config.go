package gainmap

import (
	"math"
	"sync/atomic"
)

// ComputeConfig carries the two headroom values Compute needs to label the
// metadata it writes. spec.md §5/§9 models the source's two process-wide
// mutable doubles (manualBaseHdrHeadroom, manualAlternateHdrHeadroom) as
// explicit parameters instead; SetManualHeadrooms below exists only as a
// compatibility shim for embedders that still want the global form. Passing
// the zero-value ComputeConfig{} to ComputeRGB/ComputeImage falls back to
// whatever SetManualHeadrooms last stored.
type ComputeConfig struct {
	BaseHdrHeadroom      float64
	AlternateHdrHeadroom float64
}

var (
	manualBaseHdrHeadroom      atomic.Uint64
	manualAlternateHdrHeadroom atomic.Uint64
)

func init() {
	// alternateHdrHeadroom defaults to 1 per spec.md §3's default seeding.
	manualAlternateHdrHeadroom.Store(math.Float64bits(1))
}

// SetManualHeadrooms is the compatibility shim spec.md §9 allows: it mirrors
// the source's two process-wide doubles. A caller that passes the zero-value
// ComputeConfig{} to ComputeRGB/ComputeImage gets these values substituted in
// place of it, so the shim is exercised only when the caller hasn't supplied
// explicit headrooms. Safe for concurrent writers; readers see whichever
// value was last stored (spec.md §5: "writers must synchronize externally"
// describes the source's lack of any ordering guarantee beyond atomicity,
// which this preserves).
func SetManualHeadrooms(base, alternate float64) {
	manualBaseHdrHeadroom.Store(math.Float64bits(base))
	manualAlternateHdrHeadroom.Store(math.Float64bits(alternate))
}

// manualConfig reads the process-wide shim values into a ComputeConfig. Used
// by computeRGB in place of a zero-value ComputeConfig{} argument.
func manualConfig() ComputeConfig {
	return ComputeConfig{
		BaseHdrHeadroom:      math.Float64frombits(manualBaseHdrHeadroom.Load()),
		AlternateHdrHeadroom: math.Float64frombits(manualAlternateHdrHeadroom.Load()),
	}
}
