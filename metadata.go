package gainmap

import (
	"github.com/hdrspan/gainmap/internal/gainmaperr"
	"github.com/hdrspan/gainmap/internal/primaries"
	"github.com/hdrspan/gainmap/internal/rational"
	"github.com/hdrspan/gainmap/internal/transfer"
	"github.com/hdrspan/gainmap/internal/yuvrgb"
)

// CLLI is content light-level information: (maxCLL, maxPALL) in nits,
// reported alongside a tone-mapped Apply output (spec.md §4.D).
type CLLI struct {
	MaxCLL  uint16
	MaxPALL uint16
}

// GainMapMetadata is the per-image metadata model from spec.md §3. All
// per-channel fields are indexed [R, G, B].
type GainMapMetadata struct {
	GainMapMin   [3]rational.Signed
	GainMapMax   [3]rational.Signed
	GainMapGamma [3]rational.Unsigned
	BaseOffset   [3]rational.Signed
	AltOffset    [3]rational.Signed

	BaseHdrHeadroom rational.Unsigned
	AltHdrHeadroom  rational.Unsigned

	// UseBaseColorSpace selects base primaries for gain-map math; false
	// selects AltColorPrimaries. A strict bool at rest, per spec.md §9's
	// open-question resolution (the C storage permitted arbitrary byte
	// values; this type cannot).
	UseBaseColorSpace bool

	AltColorPrimaries          primaries.Gamut
	AltTransferCharacteristics transfer.Characteristic
	AltMatrixCoefficients      yuvrgb.MatrixCoefficients
	AltYUVRange                yuvrgb.Range
	AltDepth                   int
	AltPlaneCount              int
	AltCLLI                    CLLI
	AltICC                     []byte

	Image *yuvrgb.YUVImage
}

// DefaultMetadata returns metadata seeded with the defaults spec.md §3
// assigns before encoding: min=max=1/1, offsets=1/64, gamma=1/1,
// baseHeadroom=0, alternateHeadroom=1, useBaseColorSpace=true.
func DefaultMetadata() *GainMapMetadata {
	m := &GainMapMetadata{UseBaseColorSpace: true}
	for c := 0; c < 3; c++ {
		m.GainMapMin[c] = rational.Signed{N: 1, D: 1}
		m.GainMapMax[c] = rational.Signed{N: 1, D: 1}
		m.GainMapGamma[c] = rational.Unsigned{N: 1, D: 1}
		m.BaseOffset[c] = rational.Signed{N: 1, D: 64}
		m.AltOffset[c] = rational.Signed{N: 1, D: 64}
	}
	m.BaseHdrHeadroom = rational.Unsigned{N: 0, D: 1}
	m.AltHdrHeadroom = rational.Unsigned{N: 1, D: 1}
	return m
}

// ValidateMetadata checks the invariants of spec.md §3 and returns
// InvalidArgument naming the first violation found. It never mutates m.
func ValidateMetadata(m *GainMapMetadata) error {
	if m == nil {
		return gainmaperr.New(gainmaperr.InvalidArgument, "metadata is nil")
	}
	for c := 0; c < 3; c++ {
		if !m.GainMapMin[c].Valid() {
			return gainmaperr.New(gainmaperr.InvalidArgument, "gainMapMin[%d] has zero denominator", c)
		}
		if !m.GainMapMax[c].Valid() {
			return gainmaperr.New(gainmaperr.InvalidArgument, "gainMapMax[%d] has zero denominator", c)
		}
		if !m.GainMapGamma[c].Valid() {
			return gainmaperr.New(gainmaperr.InvalidArgument, "gainMapGamma[%d] has zero denominator", c)
		}
		if !m.BaseOffset[c].Valid() {
			return gainmaperr.New(gainmaperr.InvalidArgument, "baseOffset[%d] has zero denominator", c)
		}
		if !m.AltOffset[c].Valid() {
			return gainmaperr.New(gainmaperr.InvalidArgument, "alternateOffset[%d] has zero denominator", c)
		}
		if rational.CompareCross(m.GainMapMax[c], m.GainMapMin[c]) < 0 {
			return gainmaperr.New(gainmaperr.InvalidArgument, "gainMapMax[%d] < gainMapMin[%d]", c, c)
		}
		if m.GainMapGamma[c].N == 0 {
			return gainmaperr.New(gainmaperr.InvalidArgument, "gainMapGamma[%d] numerator is zero", c)
		}
	}
	if !m.BaseHdrHeadroom.Valid() {
		return gainmaperr.New(gainmaperr.InvalidArgument, "baseHdrHeadroom has zero denominator")
	}
	if !m.AltHdrHeadroom.Valid() {
		return gainmaperr.New(gainmaperr.InvalidArgument, "alternateHdrHeadroom has zero denominator")
	}
	// UseBaseColorSpace is a Go bool, which the type system already
	// restricts to {false, true}; spec.md §3 invariant 4 guards against a
	// decoder handing back an out-of-range byte, which cannot occur here.
	return nil
}

// EqualMetadata is the structural equality from spec.md §4.A: headrooms and
// the per-channel min/max/gamma/offset arrays, numerators and denominators
// compared raw (no reduction).
func EqualMetadata(a, b *GainMapMetadata) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !a.BaseHdrHeadroom.Equal(b.BaseHdrHeadroom) || !a.AltHdrHeadroom.Equal(b.AltHdrHeadroom) {
		return false
	}
	for c := 0; c < 3; c++ {
		if !a.GainMapMin[c].Equal(b.GainMapMin[c]) ||
			!a.GainMapMax[c].Equal(b.GainMapMax[c]) ||
			!a.GainMapGamma[c].Equal(b.GainMapGamma[c]) ||
			!a.BaseOffset[c].Equal(b.BaseOffset[c]) ||
			!a.AltOffset[c].Equal(b.AltOffset[c]) {
			return false
		}
	}
	return true
}

// EqualAltMetadata is the structural equality over the alternate descriptors
// from spec.md §4.A.
func EqualAltMetadata(a, b *GainMapMetadata) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.AltColorPrimaries != b.AltColorPrimaries ||
		a.AltTransferCharacteristics != b.AltTransferCharacteristics ||
		a.AltMatrixCoefficients != b.AltMatrixCoefficients ||
		a.AltYUVRange != b.AltYUVRange ||
		a.AltDepth != b.AltDepth ||
		a.AltPlaneCount != b.AltPlaneCount ||
		a.AltCLLI != b.AltCLLI {
		return false
	}
	if len(a.AltICC) != len(b.AltICC) {
		return false
	}
	for i := range a.AltICC {
		if a.AltICC[i] != b.AltICC[i] {
			return false
		}
	}
	return true
}
