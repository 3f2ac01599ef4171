// Package imagescale implements the image scaler collaborator from
// spec.md §6: rescale a source image's view (given by a crop rect) into a
// destination image of target dimensions. It is grounded on
// vearutop-ultrahdr/resize.go, which performs the same "decode -> resize ->
// re-encode" shape, wired to the teacher's own github.com/nfnt/resize
// dependency for the resampling kernel rather than reimplementing one.
package imagescale

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"

	"github.com/hdrspan/gainmap/internal/gainmaperr"
	"github.com/hdrspan/gainmap/internal/yuvrgb"
)

// Rect is the source crop rectangle, in source pixel coordinates.
type Rect struct {
	X0, Y0, X1, Y1 int
}

// Interpolation selects nfnt/resize's resampling kernel.
type Interpolation int

const (
	Nearest Interpolation = iota
	Bilinear
	Bicubic
	Lanczos3
)

func kernel(i Interpolation) resize.InterpolationFunction {
	switch i {
	case Bilinear:
		return resize.Bilinear
	case Bicubic:
		return resize.Bicubic
	case Lanczos3:
		return resize.Lanczos3
	default:
		return resize.NearestNeighbor
	}
}

// rgbaView adapts a crop of an RGBImage to image.Image so it can be fed
// through github.com/nfnt/resize.
type rgbaView struct {
	src  *yuvrgb.RGBImage
	crop Rect
}

func (v *rgbaView) ColorModel() color.Model { return color.NRGBA64Model }

func (v *rgbaView) Bounds() image.Rectangle {
	return image.Rect(0, 0, v.crop.X1-v.crop.X0, v.crop.Y1-v.crop.Y0)
}

func (v *rgbaView) At(x, y int) color.Color {
	r, g, b, a := v.src.At(v.crop.X0+x, v.crop.Y0+y)
	return color.NRGBA64{
		R: to16(r), G: to16(g), B: to16(b), A: to16(a),
	}
}

func to16(v float32) uint16 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint16(v*65535 + 0.5)
}

func from16(v uint32) float32 { return float32(v) / 65535 }

// Scale rescales the crop rect of src into dst, which must already be
// allocated at the target width/height (spec.md §6's scaler contract: the
// caller owns the destination image).
func Scale(src *yuvrgb.RGBImage, crop Rect, dst *yuvrgb.RGBImage, interp Interpolation) error {
	if src == nil || dst == nil {
		return gainmaperr.New(gainmaperr.InvalidArgument, "scale: nil image")
	}
	if crop.X0 < 0 || crop.Y0 < 0 || crop.X1 > src.Width || crop.Y1 > src.Height || crop.X1 <= crop.X0 || crop.Y1 <= crop.Y0 {
		return gainmaperr.New(gainmaperr.InvalidArgument, "scale: invalid crop rect %+v for %dx%d source", crop, src.Width, src.Height)
	}
	view := &rgbaView{src: src, crop: crop}
	resized := resize.Resize(uint(dst.Width), uint(dst.Height), view, kernel(interp))
	b := resized.Bounds()
	if b.Dx() != dst.Width || b.Dy() != dst.Height {
		return gainmaperr.New(gainmaperr.Other, "scale: resize produced %dx%d, want %dx%d", b.Dx(), b.Dy(), dst.Width, dst.Height)
	}
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			r, g, bl, a := resized.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// RGBA() returns alpha-premultiplied 16-bit channels; undo the
			// premultiplication since RGBImage stores straight alpha.
			af := from16(a)
			if af == 0 {
				dst.Set(x, y, 0, 0, 0, 0)
				continue
			}
			dst.Set(x, y, from16(r)/af, from16(g)/af, from16(bl)/af, af)
		}
	}
	return nil
}
