package gainmap

import (
	"testing"

	"github.com/hdrspan/gainmap/internal/primaries"
	"github.com/hdrspan/gainmap/internal/rational"
	"github.com/hdrspan/gainmap/internal/transfer"
	"github.com/hdrspan/gainmap/internal/yuvrgb"
)

func solidRGB(t *testing.T, w, h int, r, g, b, a float32) *yuvrgb.RGBImage {
	t.Helper()
	img, err := yuvrgb.AllocateRGB(w, h)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, r, g, b, a)
		}
	}
	return img
}

func TestApplyRGBWeightZeroFastPathByteIdentical(t *testing.T) {
	base := solidRGB(t, 2, 2, 0.2, 0.4, 0.6, 1)
	gain := solidRGB(t, 2, 2, 0.5, 0.5, 0.5, 1)
	out, _ := yuvrgb.AllocateRGB(2, 2)

	meta := DefaultMetadata()
	meta.BaseHdrHeadroom = rational.Unsigned{N: 1, D: 1}
	meta.AltHdrHeadroom = rational.Unsigned{N: 1, D: 1}

	err := ApplyRGB(base, primaries.BT709, transfer.SRGB, gain, meta, 0,
		primaries.BT709, transfer.SRGB, out, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := range base.Pix {
		if base.Pix[i] != out.Pix[i] {
			t.Fatalf("pixel %d: got %v, want %v (byte-identical base)", i, out.Pix[i], base.Pix[i])
		}
	}
}

func TestApplyRGBZeroHeadroomsReturnsBase(t *testing.T) {
	base := solidRGB(t, 2, 2, 0.3, 0.3, 0.3, 1)
	gain := solidRGB(t, 2, 2, 0.5, 0.5, 0.5, 1)
	out, _ := yuvrgb.AllocateRGB(2, 2)

	meta := DefaultMetadata()
	meta.BaseHdrHeadroom = rational.Unsigned{N: 0, D: 1}
	meta.AltHdrHeadroom = rational.Unsigned{N: 1, D: 1}

	if err := ApplyRGB(base, primaries.BT709, transfer.Linear, gain, meta, 0,
		primaries.BT709, transfer.Linear, out, nil); err != nil {
		t.Fatal(err)
	}
	r, g, b, _ := out.At(0, 0)
	const eps = 1e-4
	if absf32(r-0.3) > eps || absf32(g-0.3) > eps || absf32(b-0.3) > eps {
		t.Errorf("got (%v,%v,%v), want ~(0.3,0.3,0.3)", r, g, b)
	}
}

func TestApplyRGBNegativeHeadroomInvalid(t *testing.T) {
	base := solidRGB(t, 1, 1, 0, 0, 0, 1)
	gain := solidRGB(t, 1, 1, 0, 0, 0, 1)
	out, _ := yuvrgb.AllocateRGB(1, 1)
	meta := DefaultMetadata()
	if err := ApplyRGB(base, primaries.BT709, transfer.Linear, gain, meta, -1,
		primaries.BT709, transfer.Linear, out, nil); err == nil {
		t.Fatal("expected InvalidArgument for negative headroom")
	}
}

func TestApplyRGBNilArgumentsInvalid(t *testing.T) {
	if err := ApplyRGB(nil, primaries.BT709, transfer.Linear, nil, nil, 0, primaries.BT709, transfer.Linear, nil, nil); err == nil {
		t.Fatal("expected InvalidArgument for nil arguments")
	}
}

func TestApplyRGBInvalidMetadataRejected(t *testing.T) {
	base := solidRGB(t, 1, 1, 0, 0, 0, 1)
	gain := solidRGB(t, 1, 1, 0, 0, 0, 1)
	out, _ := yuvrgb.AllocateRGB(1, 1)
	meta := DefaultMetadata()
	meta.GainMapMax[0] = rational.Signed{N: -5, D: 1}
	if err := ApplyRGB(base, primaries.BT709, transfer.Linear, gain, meta, 0,
		primaries.BT709, transfer.Linear, out, nil); err == nil {
		t.Fatal("expected InvalidArgument for gainMapMax < gainMapMin")
	}
}

func TestApplyRGBHeadroomInterpolation(t *testing.T) {
	base := solidRGB(t, 1, 1, 0.25, 0.25, 0.25, 1)
	gain := solidRGB(t, 1, 1, 1, 1, 1, 1) // gainMapValue = 1 for every channel
	out, _ := yuvrgb.AllocateRGB(1, 1)

	meta := DefaultMetadata()
	meta.BaseHdrHeadroom = rational.Unsigned{N: 0, D: 1}
	meta.AltHdrHeadroom = rational.Unsigned{N: 4, D: 1}
	for c := 0; c < 3; c++ {
		meta.GainMapMin[c] = rational.Signed{N: 0, D: 1}
		meta.GainMapMax[c] = rational.Signed{N: 1, D: 1} // gLog2 == 1 regardless of gamma
		meta.BaseOffset[c] = rational.Signed{N: 0, D: 1}
		meta.AltOffset[c] = rational.Signed{N: 0, D: 1}
	}

	if err := ApplyRGB(base, primaries.BT709, transfer.Linear, gain, meta, 2,
		primaries.BT709, transfer.Linear, out, nil); err != nil {
		t.Fatal(err)
	}
	// weight = (2-0)/(4-0) = 0.5; tm = base * exp2(1*0.5) = 0.25 * sqrt(2)
	want := float32(0.25 * 1.4142135623730951)
	r, _, _, _ := out.At(0, 0)
	if absf32(r-want) > 1e-3 {
		t.Errorf("got %v, want %v", r, want)
	}
}

func TestApplyRGBCLLIAtUnitLinear(t *testing.T) {
	base := solidRGB(t, 1, 1, 1, 1, 1, 1)
	gain := solidRGB(t, 1, 1, 0, 0, 0, 1)
	out, _ := yuvrgb.AllocateRGB(1, 1)

	meta := DefaultMetadata()
	meta.BaseHdrHeadroom = rational.Unsigned{N: 0, D: 1}
	meta.AltHdrHeadroom = rational.Unsigned{N: 1, D: 1}
	for c := 0; c < 3; c++ {
		meta.GainMapMin[c] = rational.Signed{N: 0, D: 1}
		meta.GainMapMax[c] = rational.Signed{N: 0, D: 1}
		meta.BaseOffset[c] = rational.Signed{N: 0, D: 1}
		meta.AltOffset[c] = rational.Signed{N: 0, D: 1}
	}

	var clli CLLI
	if err := ApplyRGB(base, primaries.BT709, transfer.Linear, gain, meta, 1,
		primaries.BT709, transfer.Linear, out, &clli); err != nil {
		t.Fatal(err)
	}
	if clli.MaxCLL != 203 {
		t.Errorf("got maxCLL=%d, want 203", clli.MaxCLL)
	}
}

func TestApplyRGBICCRejected(t *testing.T) {
	baseImg := &yuvrgb.YUVImage{Width: 1, Height: 1, Depth: 8, Format: yuvrgb.YUV400, ICC: []byte{1}}
	baseImg.Y = []uint16{0}
	baseImg.YStride = 1
	meta := DefaultMetadata()
	meta.Image = &yuvrgb.YUVImage{Width: 1, Height: 1, Depth: 8, Format: yuvrgb.YUV400}
	meta.Image.Y = []uint16{0}
	meta.Image.YStride = 1
	out := &yuvrgb.YUVImage{Width: 1, Height: 1, Depth: 8, Format: yuvrgb.YUV400}
	out.Y = []uint16{0}
	out.YStride = 1

	if err := ApplyImage(baseImg, primaries.BT709, transfer.Linear, meta, 0, primaries.BT709, transfer.Linear, out, nil); err == nil {
		t.Fatal("expected NotImplemented for ICC profile")
	}
}

func absf32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
