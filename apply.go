package gainmap

import (
	"math"

	"github.com/hdrspan/gainmap/internal/diagsink"
	"github.com/hdrspan/gainmap/internal/gainmaperr"
	"github.com/hdrspan/gainmap/internal/imagescale"
	"github.com/hdrspan/gainmap/internal/primaries"
	"github.com/hdrspan/gainmap/internal/transfer"
	"github.com/hdrspan/gainmap/internal/yuvrgb"
)

// sdrWhiteNits and kEpsilon are the fixed constants from spec.md §5.
const (
	sdrWhiteNits = 203
	kEpsilon     = 1e-10
)

var diag = diagsink.New()

// Diagnostics returns the messages the most recent public call recorded. The
// sink is cleared on entry to every public operation (spec.md §6).
func Diagnostics() []string { return diag.Messages() }

// ApplyRGB is component D's RGB-level entry point (spec.md §4.D): given a
// base image, a decoded gain-map RGB buffer, its metadata, and a target HDR
// headroom, it writes a tone-mapped rendition into out and optionally
// reports CLLI.
func ApplyRGB(
	baseRGB *yuvrgb.RGBImage, basePrimaries primaries.Gamut, baseTransfer transfer.Characteristic,
	gainRGB *yuvrgb.RGBImage, meta *GainMapMetadata, hdrHeadroom float64,
	outPrimaries primaries.Gamut, outTransfer transfer.Characteristic,
	out *yuvrgb.RGBImage, clli *CLLI,
) error {
	diag.Clear()
	return applyRGB(baseRGB, basePrimaries, baseTransfer, gainRGB, meta, hdrHeadroom, outPrimaries, outTransfer, out, clli)
}

// applyRGB is ApplyRGB's body, shared with ApplyImage so the image-level
// wrapper only clears the diagnostics sink once per call.
func applyRGB(
	baseRGB *yuvrgb.RGBImage, basePrimaries primaries.Gamut, baseTransfer transfer.Characteristic,
	gainRGB *yuvrgb.RGBImage, meta *GainMapMetadata, hdrHeadroom float64,
	outPrimaries primaries.Gamut, outTransfer transfer.Characteristic,
	out *yuvrgb.RGBImage, clli *CLLI,
) error {
	if baseRGB == nil || gainRGB == nil || meta == nil || out == nil {
		return fail(gainmaperr.InvalidArgument, "applyRGB: nil argument")
	}
	if hdrHeadroom < 0 {
		return fail(gainmaperr.InvalidArgument, "applyRGB: hdrHeadroom %v < 0", hdrHeadroom)
	}
	if err := ValidateMetadata(meta); err != nil {
		diag.Errorf("applyRGB: invalid metadata: %v", err)
		return err
	}
	if out.Width != baseRGB.Width || out.Height != baseRGB.Height {
		return fail(gainmaperr.InvalidArgument, "applyRGB: output dimensions %dx%d != base %dx%d", out.Width, out.Height, baseRGB.Width, baseRGB.Height)
	}

	baseXfer, ok := transfer.For(baseTransfer)
	if !ok {
		return fail(gainmaperr.NotImplemented, "applyRGB: unsupported base transfer %v", baseTransfer)
	}
	outXfer, ok := transfer.For(outTransfer)
	if !ok {
		return fail(gainmaperr.NotImplemented, "applyRGB: unsupported output transfer %v", outTransfer)
	}

	mathPrimaries := basePrimaries
	if !meta.UseBaseColorSpace && meta.AltColorPrimaries != primaries.Unspecified {
		mathPrimaries = meta.AltColorPrimaries
	}

	weight, flat := applyWeight(meta.BaseHdrHeadroom.ToFloat(), meta.AltHdrHeadroom.ToFloat(), float32(hdrHeadroom))

	if flat && weight == 0 && formatsMatch(basePrimaries, baseTransfer, outPrimaries, outTransfer) {
		diag.Infof("applyRGB: weight 0 fast path, byte copy")
		copy(out.Pix, baseRGB.Pix)
		setCLLIIfUnweighted(clli, baseRGB)
		return nil
	}

	baseToMath, mathToOut, err := applyMatrices(basePrimaries, mathPrimaries, outPrimaries)
	if err != nil {
		diag.Errorf("applyRGB: %v", err)
		return err
	}

	if weight == 0 {
		diag.Infof("applyRGB: weight 0, format conversion path")
		applyFormatConversionOnly(baseRGB, baseXfer, baseToMath, mathToOut, outXfer, out)
		setCLLIIfUnweighted(clli, out)
		return nil
	}

	gammaInv, gainMin, gainMax, baseOff, altOff := precomputeApplyChannels(meta)

	var rgbMaxLinear, rgbSumLinear float32
	w, h := baseRGB.Width, baseRGB.Height
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			br, bg, bb, ba := baseRGB.At(x, y)
			gr, gg, gb, _ := gainRGB.At(x, y)

			lr, lg, lb := baseXfer.GammaToLinear(br), baseXfer.GammaToLinear(bg), baseXfer.GammaToLinear(bb)
			if basePrimaries != mathPrimaries {
				lr, lg, lb = baseToMath.Apply(lr, lg, lb)
			}

			gainVals := [3]float32{gr, gg, gb}
			linVals := [3]float32{lr, lg, lb}
			var pixelMax float32
			first := true
			for c := 0; c < 3; c++ {
				gLog2 := lerp(gainMin[c], gainMax[c], powClamped(gainVals[c], gammaInv[c]))
				tm := (linVals[c]+baseOff[c])*exp2f(gLog2*weight) - altOff[c]
				linVals[c] = tm
				if first || tm > pixelMax {
					pixelMax = tm
					first = false
				}
			}
			if pixelMax > rgbMaxLinear {
				rgbMaxLinear = pixelMax
			}
			rgbSumLinear += pixelMax

			if mathPrimaries != outPrimaries {
				linVals[0], linVals[1], linVals[2] = mathToOut.Apply(linVals[0], linVals[1], linVals[2])
			}
			or := clamp01(outXfer.LinearToGamma(linVals[0]))
			og := clamp01(outXfer.LinearToGamma(linVals[1]))
			ob := clamp01(outXfer.LinearToGamma(linVals[2]))
			out.Set(x, y, or, og, ob, ba)
		}
	}

	if clli != nil {
		area := float32(w * h)
		clli.MaxCLL = clampCLLI(rgbMaxLinear * sdrWhiteNits)
		if area > 0 {
			clli.MaxPALL = clampCLLI((rgbSumLinear / area) * sdrWhiteNits)
		}
	}
	return nil
}

// ApplyImage is the image-level wrapper: YUV->RGB decode both base and
// gain-map images (rescaling the decoded gain map to the base's size if they
// differ), then delegate to applyRGB.
func ApplyImage(
	baseImage *yuvrgb.YUVImage, basePrimaries primaries.Gamut, baseTransfer transfer.Characteristic,
	meta *GainMapMetadata, hdrHeadroom float64,
	outPrimaries primaries.Gamut, outTransfer transfer.Characteristic,
	out *yuvrgb.YUVImage, clli *CLLI,
) error {
	diag.Clear()
	if baseImage == nil || meta == nil || meta.Image == nil || out == nil {
		return fail(gainmaperr.InvalidArgument, "applyImage: nil argument")
	}
	if len(baseImage.ICC) > 0 || len(meta.Image.ICC) > 0 {
		return fail(gainmaperr.NotImplemented, "applyImage: ICC profiles are not supported")
	}

	baseRGB, err := yuvrgb.NewRGBForYUV(baseImage)
	if err != nil {
		return gainmaperr.Wrap(gainmaperr.OutOfMemory, err, "applyImage: allocate base RGB")
	}
	if err := yuvrgb.Decode(baseImage, baseRGB); err != nil {
		return gainmaperr.Wrap(gainmaperr.Other, err, "applyImage: decode base")
	}

	gainSrc := meta.Image
	if gainSrc.Width != baseImage.Width || gainSrc.Height != baseImage.Height {
		gainRGBNative, err := yuvrgb.NewRGBForYUV(gainSrc)
		if err != nil {
			return gainmaperr.Wrap(gainmaperr.OutOfMemory, err, "applyImage: allocate gain-map scratch")
		}
		if err := yuvrgb.Decode(gainSrc, gainRGBNative); err != nil {
			return gainmaperr.Wrap(gainmaperr.Other, err, "applyImage: decode gain map")
		}
		rescaled, err := yuvrgb.AllocateRGB(baseImage.Width, baseImage.Height)
		if err != nil {
			return gainmaperr.Wrap(gainmaperr.OutOfMemory, err, "applyImage: allocate rescaled gain map")
		}
		crop := imagescale.Rect{X0: 0, Y0: 0, X1: gainSrc.Width, Y1: gainSrc.Height}
		if err := imagescale.Scale(gainRGBNative, crop, rescaled, imagescale.Bilinear); err != nil {
			return gainmaperr.Wrap(gainmaperr.Other, err, "applyImage: rescale gain map")
		}
		return applyWithGainRGB(baseRGB, basePrimaries, baseTransfer, rescaled, meta, hdrHeadroom, outPrimaries, outTransfer, out, clli)
	}

	gainRGB, err := yuvrgb.NewRGBForYUV(gainSrc)
	if err != nil {
		return gainmaperr.Wrap(gainmaperr.OutOfMemory, err, "applyImage: allocate gain-map RGB")
	}
	if err := yuvrgb.Decode(gainSrc, gainRGB); err != nil {
		return gainmaperr.Wrap(gainmaperr.Other, err, "applyImage: decode gain map")
	}
	return applyWithGainRGB(baseRGB, basePrimaries, baseTransfer, gainRGB, meta, hdrHeadroom, outPrimaries, outTransfer, out, clli)
}

func applyWithGainRGB(
	baseRGB *yuvrgb.RGBImage, basePrimaries primaries.Gamut, baseTransfer transfer.Characteristic,
	gainRGB *yuvrgb.RGBImage, meta *GainMapMetadata, hdrHeadroom float64,
	outPrimaries primaries.Gamut, outTransfer transfer.Characteristic,
	out *yuvrgb.YUVImage, clli *CLLI,
) error {
	outRGB, err := yuvrgb.NewRGBForYUV(out)
	if err != nil {
		return gainmaperr.Wrap(gainmaperr.OutOfMemory, err, "applyImage: allocate output RGB")
	}
	if err := applyRGB(baseRGB, basePrimaries, baseTransfer, gainRGB, meta, hdrHeadroom, outPrimaries, outTransfer, outRGB, clli); err != nil {
		return err
	}
	if err := yuvrgb.Encode(outRGB, out); err != nil {
		return gainmaperr.Wrap(gainmaperr.Other, err, "applyImage: encode output")
	}
	return nil
}

func fail(kind gainmaperr.Kind, format string, args ...any) error {
	e := gainmaperr.New(kind, format, args...)
	diag.Errorf("%v", e)
	return e
}

// applyWeight computes the blend weight from spec.md §4.D. flat reports
// whether bH == aH, the open-question case where weight is forced to 0.
func applyWeight(bH, aH, hdrHeadroom float32) (weight float32, flat bool) {
	if bH == aH {
		return 0, true
	}
	w := (hdrHeadroom - bH) / (aH - bH)
	if w < 0 {
		w = 0
	}
	if w > 1 {
		w = 1
	}
	if aH < bH {
		w = -w
	}
	return w, false
}

func formatsMatch(baseP primaries.Gamut, baseT transfer.Characteristic, outP primaries.Gamut, outT transfer.Characteristic) bool {
	return baseP == outP && baseT == outT
}

func setCLLIIfUnweighted(clli *CLLI, img *yuvrgb.RGBImage) {
	if clli == nil || img == nil {
		return
	}
	var maxLinear, sumLinear float32
	first := true
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, g, b, _ := img.At(x, y)
			m := r
			if g > m {
				m = g
			}
			if b > m {
				m = b
			}
			if first || m > maxLinear {
				maxLinear = m
				first = false
			}
			sumLinear += m
		}
	}
	clli.MaxCLL = clampCLLI(maxLinear * sdrWhiteNits)
	area := float32(img.Width * img.Height)
	if area > 0 {
		clli.MaxPALL = clampCLLI((sumLinear / area) * sdrWhiteNits)
	}
}

// applyFormatConversionOnly is the weight-0, format-mismatch fast path from
// spec.md §4.D: gamma->linear, an optional primary matrix, linear->gamma.
func applyFormatConversionOnly(base *yuvrgb.RGBImage, baseXfer transfer.Pair, baseToMath, mathToOut primaries.Matrix3x3, outXfer transfer.Pair, out *yuvrgb.RGBImage) {
	for y := 0; y < base.Height; y++ {
		for x := 0; x < base.Width; x++ {
			r, g, b, a := base.At(x, y)
			lr, lg, lb := baseXfer.GammaToLinear(r), baseXfer.GammaToLinear(g), baseXfer.GammaToLinear(b)
			lr, lg, lb = baseToMath.Apply(lr, lg, lb)
			lr, lg, lb = mathToOut.Apply(lr, lg, lb)
			out.Set(x, y, clamp01(outXfer.LinearToGamma(lr)), clamp01(outXfer.LinearToGamma(lg)), clamp01(outXfer.LinearToGamma(lb)), a)
		}
	}
}

// applyMatrices resolves the base->math and math->out primary matrices,
// collapsing to identity when the spaces already match.
func applyMatrices(basePrimaries, mathPrimaries, outPrimaries primaries.Gamut) (baseToMath, mathToOut primaries.Matrix3x3, err error) {
	identity := primaries.Matrix3x3{1, 0, 0, 0, 1, 0, 0, 0, 1}
	baseToMath = identity
	if basePrimaries != mathPrimaries {
		m, ok := primaries.ComputeRGBToRGBMatrix(basePrimaries, mathPrimaries)
		if !ok {
			return identity, identity, gainmaperr.New(gainmaperr.NotImplemented, "no RGB->RGB matrix from %v to %v", basePrimaries, mathPrimaries)
		}
		baseToMath = m
	}
	mathToOut = identity
	if mathPrimaries != outPrimaries {
		m, ok := primaries.ComputeRGBToRGBMatrix(mathPrimaries, outPrimaries)
		if !ok {
			return identity, identity, gainmaperr.New(gainmaperr.NotImplemented, "no RGB->RGB matrix from %v to %v", mathPrimaries, outPrimaries)
		}
		mathToOut = m
	}
	return baseToMath, mathToOut, nil
}

func precomputeApplyChannels(meta *GainMapMetadata) (gammaInv, gainMin, gainMax, baseOff, altOff [3]float32) {
	for c := 0; c < 3; c++ {
		g := meta.GainMapGamma[c].ToFloat()
		if g == 0 {
			gammaInv[c] = 0
		} else {
			gammaInv[c] = 1 / g
		}
		gainMin[c] = meta.GainMapMin[c].ToFloat()
		gainMax[c] = meta.GainMapMax[c].ToFloat()
		baseOff[c] = meta.BaseOffset[c].ToFloat()
		altOff[c] = meta.AltOffset[c].ToFloat()
	}
	return
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

func powClamped(base, exp float32) float32 {
	if base < 0 {
		base = 0
	}
	return float32(math.Pow(float64(base), float64(exp)))
}

func exp2f(v float32) float32 { return float32(math.Exp2(float64(v))) }

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampCLLI(v float32) uint16 {
	r := math.Round(float64(v))
	if r < 0 {
		return 0
	}
	if r > 65535 {
		return 65535
	}
	return uint16(r)
}
