package imagescale

import (
	"testing"

	"github.com/hdrspan/gainmap/internal/yuvrgb"
)

func TestScaleUpsamplesSolidColor(t *testing.T) {
	src, err := yuvrgb.AllocateRGB(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, 0.25, 0.5, 0.75, 1)
		}
	}
	dst, err := yuvrgb.AllocateRGB(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if err := Scale(src, Rect{0, 0, 4, 4}, dst, Bilinear); err != nil {
		t.Fatal(err)
	}
	r, g, b, a := dst.At(4, 4)
	const eps = 0.02
	if absf(r-0.25) > eps || absf(g-0.5) > eps || absf(b-0.75) > eps || a != 1 {
		t.Errorf("got (%v,%v,%v,%v), want ~(0.25,0.5,0.75,1)", r, g, b, a)
	}
}

func TestScaleRejectsBadCrop(t *testing.T) {
	src, _ := yuvrgb.AllocateRGB(4, 4)
	dst, _ := yuvrgb.AllocateRGB(2, 2)
	if err := Scale(src, Rect{0, 0, 5, 5}, dst, Nearest); err == nil {
		t.Fatal("expected error for out-of-bounds crop")
	}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
