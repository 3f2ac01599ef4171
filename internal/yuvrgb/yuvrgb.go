// Package yuvrgb implements the YUV<->RGB and RGB-allocation collaborators
// from spec.md §6: encode/decode an image to/from a matching RGB buffer,
// allocation of RGB pixels, and default setup of an RGB buffer from an image.
//
// Plane access is grounded on vearutop-ultrahdr's encode_decode.go
// (sampleSDR, rgbAt, grayAt, isGrayImage), generalized from an image.Image
// source to the explicit plane/stride model spec.md's "image" assumes, so
// arbitrary depth and all four subsampling formats (including YUV400,
// single-channel) are representable. The YCbCr<->RGB coefficient matrices
// are grounded on mrjoshuak-go-jpeg2000/colorspace.go's
// convertYCbCr601ToRGB/convertSYCCToRGB.
package yuvrgb

import "github.com/hdrspan/gainmap/internal/gainmaperr"

// Format identifies a YUV subsampling layout. YUV400 carries only a luma
// plane and is used for single-channel gain maps (spec.md §3, §4.E step 4).
type Format int

const (
	YUV444 Format = iota
	YUV422
	YUV420
	YUV400
)

// MatrixCoefficients selects the luma/chroma matrix used to decode/encode a
// YUVImage's planes.
type MatrixCoefficients int

const (
	MatrixBT601 MatrixCoefficients = iota
	MatrixBT709
)

// Range selects full-range or studio (limited) range sample scaling.
type Range int

const (
	RangeLimited Range = iota
	RangeFull
)

// YUVImage is a planar YUV image with explicit strides, matching the "image"
// referenced throughout spec.md §3/§4.
type YUVImage struct {
	Width, Height int
	Depth         int // bits per sample, 8 or 10
	Format        Format
	Matrix        MatrixCoefficients
	YUVRange      Range
	Y, U, V       []uint16
	YStride       int
	UVStride      int
	ICC           []byte // non-empty => NotImplemented per spec.md §4.D/§4.E
}

// ChromaSize returns the chroma-plane dimensions for the image's format.
func (img *YUVImage) ChromaSize() (w, h int) {
	switch img.Format {
	case YUV444:
		return img.Width, img.Height
	case YUV422:
		return (img.Width + 1) / 2, img.Height
	case YUV420:
		return (img.Width + 1) / 2, (img.Height + 1) / 2
	default: // YUV400
		return 0, 0
	}
}

// RGBImage is the RGBA scratch buffer spec.md's Apply/Compute pipelines
// operate on, allocated by this package's AllocateRGB.
type RGBImage struct {
	Width, Height int
	Stride        int // pixels per row
	Pix           []float32 // interleaved R,G,B,A in [0,1]
}

// AllocateRGB implements the RGB-allocation collaborator: a width*height*4
// float32 scratch buffer. Non-positive dimensions give InvalidArgument; a
// size that overflows gives OutOfMemory.
func AllocateRGB(width, height int) (*RGBImage, error) {
	if width <= 0 || height <= 0 {
		return nil, gainmaperr.New(gainmaperr.InvalidArgument, "allocate RGB: non-positive dimensions %dx%d", width, height)
	}
	n := width * height * 4
	if n/4/height != width { // overflow guard
		return nil, gainmaperr.New(gainmaperr.OutOfMemory, "allocate RGB: dimensions overflow")
	}
	return &RGBImage{Width: width, Height: height, Stride: width * 4, Pix: make([]float32, n)}, nil
}

// NewRGBForYUV is the "default setup from an image" collaborator: an RGB
// scratch buffer matching a YUVImage's dimensions.
func NewRGBForYUV(img *YUVImage) (*RGBImage, error) {
	if img == nil {
		return nil, gainmaperr.New(gainmaperr.InvalidArgument, "new RGB for YUV: nil image")
	}
	return AllocateRGB(img.Width, img.Height)
}

// At returns the RGBA floats at (x,y).
func (img *RGBImage) At(x, y int) (r, g, b, a float32) {
	i := y*img.Stride + x*4
	return img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]
}

// Set writes the RGBA floats at (x,y).
func (img *RGBImage) Set(x, y int, r, g, b, a float32) {
	i := y*img.Stride + x*4
	img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, a
}

// matrixFor returns the (kr, kb) luma coefficients, grounded on
// mrjoshuak-go-jpeg2000/colorspace.go's BT.601/BT.709 matrices.
func matrixFor(m MatrixCoefficients) (kr, kb float32) {
	if m == MatrixBT709 {
		return 0.2126, 0.0722
	}
	return 0.299, 0.114 // BT.601
}

func sampleMax(depth int) float32 {
	if depth <= 8 {
		return 255
	}
	return float32((1 << depth) - 1)
}

// Decode converts a YUVImage into dst, an RGB buffer of matching dimensions,
// per spec.md §6's YUV->RGB decode contract.
func Decode(img *YUVImage, dst *RGBImage) error {
	if img == nil || dst == nil {
		return gainmaperr.New(gainmaperr.InvalidArgument, "decode: nil image")
	}
	if len(img.ICC) > 0 {
		return gainmaperr.New(gainmaperr.NotImplemented, "decode: ICC profiles are not supported")
	}
	if dst.Width != img.Width || dst.Height != img.Height {
		return gainmaperr.New(gainmaperr.InvalidArgument, "decode: dimension mismatch %dx%d vs %dx%d", dst.Width, dst.Height, img.Width, img.Height)
	}
	kr, kb := matrixFor(img.Matrix)
	kg := 1 - kr - kb
	maxV := sampleMax(img.Depth)
	full := img.YUVRange == RangeFull
	lumaLo, lumaScale := lumaParams(full, maxV)
	chromaMid, chromaScale := chromaParams(full, maxV)

	cw, ch := img.ChromaSize()
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			yv := float32(img.Y[y*img.YStride+x])
			yNorm := (yv - lumaLo) / lumaScale

			var cb, cr float32
			if img.Format != YUV400 {
				cx, cy := chromaCoord(x, y, img.Format, cw, ch)
				cb = (float32(img.U[cy*img.UVStride+cx]) - chromaMid) / chromaScale
				cr = (float32(img.V[cy*img.UVStride+cx]) - chromaMid) / chromaScale
			}

			r := yNorm + 2*(1-kr)*cr
			b := yNorm + 2*(1-kb)*cb
			g := (yNorm - kr*r - kb*b) / kg
			dst.Set(x, y, clamp01(r), clamp01(g), clamp01(b), 1)
		}
	}
	return nil
}

// Encode converts src (an RGB buffer) into a YUVImage of matching
// dimensions, per spec.md §6's RGB->YUV encode contract. dst's planes must
// already be allocated at the target width/height/format.
func Encode(src *RGBImage, dst *YUVImage) error {
	if src == nil || dst == nil {
		return gainmaperr.New(gainmaperr.InvalidArgument, "encode: nil image")
	}
	if src.Width != dst.Width || src.Height != dst.Height {
		return gainmaperr.New(gainmaperr.InvalidArgument, "encode: dimension mismatch %dx%d vs %dx%d", src.Width, src.Height, dst.Width, dst.Height)
	}
	kr, kb := matrixFor(dst.Matrix)
	kg := 1 - kr - kb
	maxV := sampleMax(dst.Depth)
	full := dst.YUVRange == RangeFull
	lumaLo, lumaScale := lumaParams(full, maxV)
	chromaMid, chromaScale := chromaParams(full, maxV)

	cw, ch := dst.ChromaSize()
	if dst.Format != YUV400 {
		accumU := make([]float32, cw*ch)
		accumV := make([]float32, cw*ch)
		counts := make([]int, cw*ch)
		for y := 0; y < src.Height; y++ {
			for x := 0; x < src.Width; x++ {
				r, g, b, _ := src.At(x, y)
				cbv := (b - (kr*r + kg*g + kb*b)) / (2 * (1 - kb))
				crv := (r - (kr*r + kg*g + kb*b)) / (2 * (1 - kr))
				cx, cy := chromaCoord(x, y, dst.Format, cw, ch)
				idx := cy*cw + cx
				accumU[idx] += cbv
				accumV[idx] += crv
				counts[idx]++
			}
		}
		for i := range accumU {
			n := float32(counts[i])
			if n == 0 {
				n = 1
			}
			u := chromaMid + (accumU[i]/n)*chromaScale
			v := chromaMid + (accumV[i]/n)*chromaScale
			dst.U[i/cw*dst.UVStride+i%cw] = clampSample(u, maxV)
			dst.V[i/cw*dst.UVStride+i%cw] = clampSample(v, maxV)
		}
	}

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			r, g, b, _ := src.At(x, y)
			yv := kr*r + kg*g + kb*b
			dst.Y[y*dst.YStride+x] = clampSample(lumaLo+yv*lumaScale, maxV)
		}
	}
	return nil
}

func chromaCoord(x, y int, f Format, cw, ch int) (int, int) {
	switch f {
	case YUV420:
		cx, cy := x/2, y/2
		if cx >= cw {
			cx = cw - 1
		}
		if cy >= ch {
			cy = ch - 1
		}
		return cx, cy
	case YUV422:
		cx := x / 2
		if cx >= cw {
			cx = cw - 1
		}
		return cx, y
	default: // YUV444
		return x, y
	}
}

// lumaParams returns the (black-level, scale) pair for decoding/encoding Y'.
func lumaParams(full bool, maxV float32) (lo, scale float32) {
	if full {
		return 0, maxV
	}
	scaleFactor := maxV / 255
	return 16 * scaleFactor, 219 * scaleFactor
}

// chromaParams returns the (mid-level, scale) pair for decoding/encoding
// Cb/Cr, scaled from the classic 8-bit 128/224 convention to arbitrary depth.
func chromaParams(full bool, maxV float32) (mid, scale float32) {
	if full {
		return maxV/2 + 0.5, maxV
	}
	scaleFactor := maxV / 255
	return 128 * scaleFactor, 224 * scaleFactor
}

func clampSample(v, maxV float32) uint16 {
	if v < 0 {
		v = 0
	}
	if v > maxV {
		v = maxV
	}
	return uint16(v + 0.5)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
