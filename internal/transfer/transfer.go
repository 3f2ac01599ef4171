// Package transfer implements the transfer-characteristic function table
// collaborator from spec.md §6: given a transfer-characteristic identifier,
// a pair of pure functions (gammaToLinear, linearToGamma). sRGB's inverse
// OETF is ported from vearutop-ultrahdr's srgbInvOetf in util.go; PQ and HLG
// follow the curve shapes used in allenk-hdr's icam06 tone-mapping operator.
// There is no third-party library in the pack implementing ST 2084/HLG
// transfer curves, so this package stays on math by necessity.
package transfer

import "math"

// Characteristic identifies a supported transfer function.
type Characteristic int

const (
	Unspecified Characteristic = iota
	SRGB
	Linear
	PQ
	HLG
)

// Pair holds one transfer characteristic's forward (gamma->linear) and
// inverse (linear->gamma) functions, operating on float32 as spec.md §4.D
// requires.
type Pair struct {
	GammaToLinear func(float32) float32
	LinearToGamma func(float32) float32
}

// For returns the function pair for a characteristic, or false if
// unsupported (the caller should then raise NotImplemented per spec.md §4.D).
func For(c Characteristic) (Pair, bool) {
	switch c {
	case SRGB:
		return Pair{GammaToLinear: srgbToLinear, LinearToGamma: linearToSRGB}, true
	case Linear:
		return Pair{GammaToLinear: identity, LinearToGamma: identity}, true
	case PQ:
		return Pair{GammaToLinear: pqToLinear, LinearToGamma: linearToPQ}, true
	case HLG:
		return Pair{GammaToLinear: hlgToLinear, LinearToGamma: linearToHLG}, true
	default:
		return Pair{}, false
	}
}

func identity(v float32) float32 { return v }

func srgbToLinear(v float32) float32 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return float32(math.Pow(float64((v+0.055)/1.055), 2.4))
}

func linearToSRGB(v float32) float32 {
	if v < 0 {
		v = 0
	}
	if v <= 0.0031308 {
		return v * 12.92
	}
	return float32(1.055*math.Pow(float64(v), 1.0/2.4) - 0.055)
}

// PQ (ST 2084) constants, relative to a 10000 nit peak.
const (
	pqM1 = 2610.0 / 16384.0
	pqM2 = 2523.0 / 4096.0 * 128.0
	pqC1 = 3424.0 / 4096.0
	pqC2 = 2413.0 / 4096.0 * 32.0
	pqC3 = 2392.0 / 4096.0 * 32.0
)

func pqToLinear(v float32) float32 {
	if v <= 0 {
		return 0
	}
	vp := math.Pow(float64(v), 1.0/pqM2)
	num := vp - pqC1
	if num < 0 {
		num = 0
	}
	den := pqC2 - pqC3*vp
	if den <= 0 {
		return 0
	}
	return float32(math.Pow(num/den, 1.0/pqM1))
}

func linearToPQ(v float32) float32 {
	if v < 0 {
		v = 0
	}
	vp := math.Pow(float64(v), pqM1)
	num := pqC1 + pqC2*vp
	den := 1 + pqC3*vp
	return float32(math.Pow(num/den, pqM2))
}

// HLG (ARIB STD-B67) constants.
const (
	hlgA = 0.17883277
	hlgB = 1 - 4*hlgA
	hlgC = 0.55991073 // 0.5 - hlgA*ln(4*hlgA)
)

func hlgToLinear(v float32) float32 {
	if v < 0 {
		v = 0
	}
	if v <= 0.5 {
		return float32(float64(v) * float64(v) / 3.0)
	}
	return float32((math.Exp((float64(v)-hlgC)/hlgA) + hlgB) / 12.0)
}

func linearToHLG(v float32) float32 {
	if v < 0 {
		v = 0
	}
	fv := float64(v)
	if fv <= 1.0/12.0 {
		return float32(math.Sqrt(3.0 * fv))
	}
	return float32(hlgA*math.Log(12.0*fv-hlgB) + hlgC)
}
