// Package primaries implements the color-primaries and RGB<->RGB matrix
// collaborator from spec.md §6: computeRGBToRGBMatrix and computeYCoeffs.
// The sRGB (BT.709) leg of the RGB<->XYZ conversion is delegated to
// github.com/lucasb-eyer/go-colorful's LinearRgbToXyz/XyzToLinearRgb (as used
// by allenk-hdr/hdrcolor for its own RGB<->XYZ conversions); go-colorful only
// knows the sRGB gamut, so the wide-gamut legs (Display P3, BT.2100, Adobe
// RGB) keep hand-derived D65 matrices in the style of vearutop-ultrahdr's
// color_space.go, since no library in the pack carries those chromaticities.
package primaries

import colorful "github.com/lucasb-eyer/go-colorful"

// Gamut identifies a supported RGB color-primaries set.
type Gamut int

const (
	Unspecified Gamut = iota
	BT709
	DisplayP3
	BT2100
	AdobeRGB
)

// Matrix3x3 is a row-major 3x3 matrix, double precision per spec.md §5
// ("the 3x3 primary matrices, which are double precision").
type Matrix3x3 [9]float64

// Apply multiplies (r,g,b) by m, returning the transformed triplet.
func (m Matrix3x3) Apply(r, g, b float32) (float32, float32, float32) {
	rf, gf, bf := float64(r), float64(g), float64(b)
	return float32(m[0]*rf + m[1]*gf + m[2]*bf),
		float32(m[3]*rf + m[4]*gf + m[5]*bf),
		float32(m[6]*rf + m[7]*gf + m[8]*bf)
}

// rgbToXYZ returns the forward D65 RGB->XYZ matrix for a wide-gamut space
// not covered by go-colorful, or ok=false for an unsupported gamut.
func rgbToXYZ(g Gamut) (Matrix3x3, bool) {
	switch g {
	case DisplayP3:
		return Matrix3x3{
			0.48657095, 0.2656677, 0.19821729,
			0.22897457, 0.69173855, 0.07928691,
			0, 0.04511338, 1.0439444,
		}, true
	case AdobeRGB:
		return Matrix3x3{
			0.5767309, 0.185554, 0.1881852,
			0.2973769, 0.6273491, 0.0752741,
			0.0270343, 0.0706872, 0.9911085,
		}, true
	case BT2100:
		// Rec.2020/BT.2100 D65 primaries (R 0.708/0.292, G 0.170/0.797,
		// B 0.131/0.046) are far wider than BT.709's; this is not the
		// BT.709 leg under another name.
		return Matrix3x3{
			0.6369580, 0.1446169, 0.1688810,
			0.2627002, 0.6779981, 0.0593017,
			0, 0.0280727, 1.0609851,
		}, true
	default:
		return Matrix3x3{}, false
	}
}

func xyzToRGB(g Gamut) (Matrix3x3, bool) {
	switch g {
	case DisplayP3:
		return Matrix3x3{
			2.493497, -0.9313836, -0.4027108,
			-0.829489, 1.7626641, 0.023624685,
			0.03584583, -0.07617239, 0.9568845,
		}, true
	case AdobeRGB:
		return Matrix3x3{
			2.041369, -0.5649464, -0.3446944,
			-0.969266, 1.8760108, 0.041556,
			0.0134474, -0.1183897, 1.0154096,
		}, true
	case BT2100:
		return Matrix3x3{
			1.7166512, -0.3556708, -0.2533663,
			-0.6666844, 1.6164812, 0.0157685,
			0.0176399, -0.0427706, 0.9421031,
		}, true
	default:
		return Matrix3x3{}, false
	}
}

// toXYZ converts linear (r,g,b) in gamut g to CIE XYZ. BT.709 goes through
// go-colorful's sRGB-gamut LinearRgbToXyz; every other gamut, including
// BT.2100's real wide-gamut Rec.2020 primaries, uses the hand-derived
// matrices above (go-colorful only knows the one sRGB/BT.709 gamut).
func toXYZ(g Gamut, r, g2, b float32) (x, y, z float64, ok bool) {
	if g == BT709 {
		x, y, z = colorful.LinearRgbToXyz(float64(r), float64(g2), float64(b))
		return x, y, z, true
	}
	m, ok := rgbToXYZ(g)
	if !ok {
		return 0, 0, 0, false
	}
	x64, y64, z64 := m.Apply(r, g2, b)
	return float64(x64), float64(y64), float64(z64), true
}

func fromXYZ(g Gamut, x, y, z float64) (r, g2, b float32, ok bool) {
	if g == BT709 {
		rr, gg, bb := colorful.XyzToLinearRgb(x, y, z)
		return float32(rr), float32(gg), float32(bb), true
	}
	m, ok := xyzToRGB(g)
	if !ok {
		return 0, 0, 0, false
	}
	r, g2, b = m.Apply(float32(x), float32(y), float32(z))
	return r, g2, b, true
}

// ComputeRGBToRGBMatrix builds the 3x3 linear RGB->RGB matrix converting src
// primaries into dst primaries, per spec.md §6's computeRGBToRGBMatrix
// contract: ok=false on an unsupported gamut (the caller raises
// NotImplemented, spec.md §4.C/§4.D).
func ComputeRGBToRGBMatrix(src, dst Gamut) (Matrix3x3, bool) {
	if src == dst {
		return Matrix3x3{1, 0, 0, 0, 1, 0, 0, 0, 1}, true
	}
	// Probe both legs against unit vectors and solve a literal 3x3 by
	// composing the two known legs (src->XYZ, XYZ->dst) column by column.
	var out Matrix3x3
	units := [3][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for col, u := range units {
		x, y, z, ok := toXYZ(src, u[0], u[1], u[2])
		if !ok {
			return Matrix3x3{}, false
		}
		r, g, b, ok := fromXYZ(dst, x, y, z)
		if !ok {
			return Matrix3x3{}, false
		}
		out[col] = float64(r)
		out[3+col] = float64(g)
		out[6+col] = float64(b)
	}
	return out, true
}

// ComputeYCoeffs returns the Y-row of a gamut's RGB->XYZ matrix: the luma
// weights used by single-channel gain-map mode (spec.md §4.E step 4).
func ComputeYCoeffs(g Gamut) ([3]float32, bool) {
	_, yr, _, ok := toXYZ(g, 1, 0, 0)
	if !ok {
		return [3]float32{}, false
	}
	_, yg, _, _ := toXYZ(g, 0, 1, 0)
	_, yb, _, _ := toXYZ(g, 0, 0, 1)
	return [3]float32{float32(yr), float32(yg), float32(yb)}, true
}
