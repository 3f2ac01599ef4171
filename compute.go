package gainmap

import (
	"math"

	"github.com/hdrspan/gainmap/internal/gainmaperr"
	"github.com/hdrspan/gainmap/internal/imagescale"
	"github.com/hdrspan/gainmap/internal/primaries"
	"github.com/hdrspan/gainmap/internal/rational"
	"github.com/hdrspan/gainmap/internal/transfer"
	"github.com/hdrspan/gainmap/internal/yuvrgb"
)

const maxOffset = 0.1

func log2f(v float32) float32 { return float32(math.Log2(float64(v))) }

// ComputeRGB is component E's RGB-level entry point (spec.md §4.E): given
// co-registered base and alternate RGB renditions, it derives a gain-map
// image and metadata such that Apply on base recovers alt within encoding
// tolerance. meta.Image must already be allocated with the caller's target
// width/height/depth/format; Compute may resize it internally and rescale
// back to that target size (spec.md §3 Lifecycle).
func ComputeRGB(
	baseRGB *yuvrgb.RGBImage, basePrimaries primaries.Gamut, baseTransfer transfer.Characteristic,
	altRGB *yuvrgb.RGBImage, altPrimaries primaries.Gamut, altTransfer transfer.Characteristic,
	meta *GainMapMetadata, cfg ComputeConfig,
) error {
	diag.Clear()
	return computeRGB(baseRGB, basePrimaries, baseTransfer, altRGB, altPrimaries, altTransfer, meta, cfg)
}

func computeRGB(
	baseRGB *yuvrgb.RGBImage, basePrimaries primaries.Gamut, baseTransfer transfer.Characteristic,
	altRGB *yuvrgb.RGBImage, altPrimaries primaries.Gamut, altTransfer transfer.Characteristic,
	meta *GainMapMetadata, cfg ComputeConfig,
) error {
	if baseRGB == nil || altRGB == nil || meta == nil || meta.Image == nil {
		return fail(gainmaperr.InvalidArgument, "computeRGB: nil argument")
	}
	if baseRGB.Width != altRGB.Width || baseRGB.Height != altRGB.Height {
		return fail(gainmaperr.InvalidArgument, "computeRGB: dimension mismatch %dx%d vs %dx%d", baseRGB.Width, baseRGB.Height, altRGB.Width, altRGB.Height)
	}
	if meta.Image.Width <= 0 || meta.Image.Height <= 0 || meta.Image.Depth <= 0 {
		return fail(gainmaperr.InvalidArgument, "computeRGB: meta.image must have positive width/height/depth")
	}

	if cfg == (ComputeConfig{}) {
		cfg = manualConfig()
	}

	baseXfer, ok := transfer.For(baseTransfer)
	if !ok {
		return fail(gainmaperr.NotImplemented, "computeRGB: unsupported base transfer %v", baseTransfer)
	}
	altXfer, ok := transfer.For(altTransfer)
	if !ok {
		return fail(gainmaperr.NotImplemented, "computeRGB: unsupported alt transfer %v", altTransfer)
	}

	// Step 1: seed the rational fields spec.md §3 defaults before encoding,
	// leaving meta.Image and the alt descriptors (set by the image wrapper
	// or the caller) untouched.
	seedMetadataDefaults(meta)
	mathPrimaries, err := ChooseColorSpaceForGainMapMath(basePrimaries, altPrimaries)
	if err != nil {
		diag.Errorf("computeRGB: %v", err)
		return err
	}
	meta.UseBaseColorSpace = mathPrimaries == basePrimaries

	w, h := baseRGB.Width, baseRGB.Height
	singleChannel := meta.Image.Format == yuvrgb.YUV400
	numGainChannels := 3
	if singleChannel {
		numGainChannels = 1
	}

	// Step 2: scratch log2-ratio buffers, one per gain channel.
	gainF := make([][]float32, numGainChannels)
	for c := range gainF {
		gainF[c] = make([]float32, w*h)
	}

	baseOffF := [3]float32{meta.BaseOffset[0].ToFloat(), meta.BaseOffset[1].ToFloat(), meta.BaseOffset[2].ToFloat()}
	altOffF := [3]float32{meta.AltOffset[0].ToFloat(), meta.AltOffset[1].ToFloat(), meta.AltOffset[2].ToFloat()}

	mathIsBase := mathPrimaries == basePrimaries
	otherPrimaries := altPrimaries
	if !mathIsBase {
		otherPrimaries = basePrimaries
	}

	var otherToMath primaries.Matrix3x3
	haveOtherMatrix := false
	if otherPrimaries != mathPrimaries {
		m, ok := primaries.ComputeRGBToRGBMatrix(otherPrimaries, mathPrimaries)
		if !ok {
			return fail(gainmaperr.NotImplemented, "computeRGB: no RGB->RGB matrix from %v to %v", otherPrimaries, mathPrimaries)
		}
		otherToMath = m
		haveOtherMatrix = true

		// Step 3: pre-pass the "other" rendition to find per-channel minima
		// after gamma->linear + matrix, widening the corresponding offset so
		// log-domain values stay non-negative (clamped to maxOffset to avoid
		// artifacts from an overlarge offset during partial application).
		otherRGB := altRGB
		otherXfer := altXfer
		if !mathIsBase {
			otherRGB = baseRGB
			otherXfer = baseXfer
		}
		var channelMin [3]float32
		first := true
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, b, _ := otherRGB.At(x, y)
				lr, lg, lb := otherXfer.GammaToLinear(r), otherXfer.GammaToLinear(g), otherXfer.GammaToLinear(b)
				lr, lg, lb = otherToMath.Apply(lr, lg, lb)
				vals := [3]float32{lr, lg, lb}
				for c, v := range vals {
					if first || v < channelMin[c] {
						channelMin[c] = v
					}
				}
				first = false
			}
		}
		for c := 0; c < 3; c++ {
			if channelMin[c] < -1e-10 {
				widened := -channelMin[c]
				if mathIsBase {
					altOffF[c] += widened
					if altOffF[c] > maxOffset {
						altOffF[c] = maxOffset
					}
				} else {
					baseOffF[c] += widened
					if baseOffF[c] > maxOffset {
						baseOffF[c] = maxOffset
					}
				}
			}
		}
	}

	yCoeffs, haveY := primaries.ComputeYCoeffs(mathPrimaries)

	// Step 4: main pass, per pixel per gain channel.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			br, bg, bb, _ := baseRGB.At(x, y)
			ar, ag, ab, _ := altRGB.At(x, y)

			blr, blg, blb := baseXfer.GammaToLinear(br), baseXfer.GammaToLinear(bg), baseXfer.GammaToLinear(bb)
			alr, alg, alb := altXfer.GammaToLinear(ar), altXfer.GammaToLinear(ag), altXfer.GammaToLinear(ab)
			if haveOtherMatrix {
				if mathIsBase {
					alr, alg, alb = otherToMath.Apply(alr, alg, alb)
				} else {
					blr, blg, blb = otherToMath.Apply(blr, blg, blb)
				}
			}

			baseVals := [3]float32{blr, blg, blb}
			altVals := [3]float32{alr, alg, alb}
			if singleChannel && haveY {
				luma := yCoeffs[0]*blr + yCoeffs[1]*blg + yCoeffs[2]*blb
				lumaAlt := yCoeffs[0]*alr + yCoeffs[1]*alg + yCoeffs[2]*alb
				baseVals = [3]float32{luma, luma, luma}
				altVals = [3]float32{lumaAlt, lumaAlt, lumaAlt}
			}

			idx := y*w + x
			for c := 0; c < numGainChannels; c++ {
				ratio := (altVals[c] + altOffF[c]) / (baseVals[c] + baseOffF[c])
				if ratio < kEpsilon {
					ratio = kEpsilon
				}
				gainF[c][idx] = log2f(ratio)
			}
		}
	}

	// Step 5: write the headrooms via the external double->UnsignedFraction
	// converter (cfg stands in for the source's process-wide globals).
	baseHeadroom, ok := rational.DoubleToUnsigned(cfg.BaseHdrHeadroom)
	if !ok {
		return fail(gainmaperr.InvalidArgument, "computeRGB: baseHdrHeadroom %v not representable", cfg.BaseHdrHeadroom)
	}
	altHeadroom, ok := rational.DoubleToUnsigned(cfg.AlternateHdrHeadroom)
	if !ok {
		return fail(gainmaperr.InvalidArgument, "computeRGB: alternateHdrHeadroom %v not representable", cfg.AlternateHdrHeadroom)
	}
	meta.BaseHdrHeadroom = baseHeadroom
	meta.AltHdrHeadroom = altHeadroom

	// Step 6: the gain map stores the HDR-to-SDR log-ratio by convention.
	if cfg.AlternateHdrHeadroom < cfg.BaseHdrHeadroom {
		for c := range gainF {
			for i, v := range gainF[c] {
				gainF[c][i] = -v
			}
		}
	}

	// Step 7: robust range per channel.
	var minLog2, maxLog2 [3]float32
	for c := 0; c < numGainChannels; c++ {
		lo, hi, err := FindRangeWithoutOutliers(gainF[c])
		if err != nil {
			diag.Errorf("computeRGB: %v", err)
			return err
		}
		minLog2[c], maxLog2[c] = lo, hi
	}
	if singleChannel {
		minLog2[1], minLog2[2] = minLog2[0], minLog2[0]
		maxLog2[1], maxLog2[2] = maxLog2[0], maxLog2[0]
	}

	// Step 8: serialize gainMapMin/Max and the two offset arrays.
	for c := 0; c < 3; c++ {
		minF, ok := rational.DoubleToSigned(float64(minLog2[c]))
		if !ok {
			return fail(gainmaperr.InvalidArgument, "computeRGB: gainMapMin[%d] not representable", c)
		}
		maxF, ok := rational.DoubleToSigned(float64(maxLog2[c]))
		if !ok {
			return fail(gainmaperr.InvalidArgument, "computeRGB: gainMapMax[%d] not representable", c)
		}
		altOff, ok := rational.DoubleToSigned(float64(altOffF[c]))
		if !ok {
			return fail(gainmaperr.InvalidArgument, "computeRGB: alternateOffset[%d] not representable", c)
		}
		baseOff, ok := rational.DoubleToSigned(float64(baseOffF[c]))
		if !ok {
			return fail(gainmaperr.InvalidArgument, "computeRGB: baseOffset[%d] not representable", c)
		}
		meta.GainMapMin[c] = minF
		meta.GainMapMax[c] = maxF
		meta.AltOffset[c] = altOff
		meta.BaseOffset[c] = baseOff
	}

	// Step 9: normalize gainF into [0,1] per channel.
	for c := 0; c < numGainChannels; c++ {
		gamma := meta.GainMapGamma[c].ToFloat()
		rng := maxLog2[c] - minLog2[c]
		if rng < 0 {
			rng = 0
		}
		if rng == 0 {
			for i := range gainF[c] {
				gainF[c][i] = 0
			}
			continue
		}
		for i, v := range gainF[c] {
			if v < minLog2[c] {
				v = minLog2[c]
			}
			if v > maxLog2[c] {
				v = maxLog2[c]
			}
			gainF[c][i] = clamp01(powClamped((v-minLog2[c])/rng, gamma))
		}
	}

	return writeGainMapImage(meta, gainF, singleChannel, w, h)
}

// seedMetadataDefaults assigns the per-channel rational fields and headrooms
// spec.md §3 specifies as defaults, without touching meta.Image or the alt
// descriptors (those belong to the caller / the image-level wrapper).
func seedMetadataDefaults(meta *GainMapMetadata) {
	for c := 0; c < 3; c++ {
		meta.GainMapMin[c] = rational.Signed{N: 1, D: 1}
		meta.GainMapMax[c] = rational.Signed{N: 1, D: 1}
		meta.GainMapGamma[c] = rational.Unsigned{N: 1, D: 1}
		meta.BaseOffset[c] = rational.Signed{N: 1, D: 64}
		meta.AltOffset[c] = rational.Signed{N: 1, D: 64}
	}
	meta.BaseHdrHeadroom = rational.Unsigned{N: 0, D: 1}
	meta.AltHdrHeadroom = rational.Unsigned{N: 1, D: 1}
	meta.UseBaseColorSpace = true
}

// writeGainMapImage is compute steps 10-11: rewrite meta.Image to the
// computed (w,h), populate it from the normalized gainF buffers, then
// downscale to the caller's originally requested dimensions if they differ.
func writeGainMapImage(meta *GainMapMetadata, gainF [][]float32, singleChannel bool, w, h int) error {
	reqW, reqH := meta.Image.Width, meta.Image.Height
	depth, format, matrixC, yuvRange := meta.Image.Depth, meta.Image.Format, meta.Image.Matrix, meta.Image.YUVRange

	scratch, err := yuvrgb.AllocateRGB(w, h)
	if err != nil {
		return gainmaperr.Wrap(gainmaperr.OutOfMemory, err, "computeRGB: allocate gain-map scratch RGB")
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			v0 := gainF[0][idx]
			if singleChannel {
				scratch.Set(x, y, v0, v0, v0, 1)
				continue
			}
			scratch.Set(x, y, v0, gainF[1][idx], gainF[2][idx], 1)
		}
	}

	meta.Image = allocateYUVImage(w, h, depth, format, matrixC, yuvRange)
	if err := yuvrgb.Encode(scratch, meta.Image); err != nil {
		return gainmaperr.Wrap(gainmaperr.Other, err, "computeRGB: encode gain-map image")
	}

	if reqW != w || reqH != h {
		dst, err := yuvrgb.AllocateRGB(reqW, reqH)
		if err != nil {
			return gainmaperr.Wrap(gainmaperr.OutOfMemory, err, "computeRGB: allocate downscaled gain-map RGB")
		}
		if err := imagescale.Scale(scratch, imagescale.Rect{X0: 0, Y0: 0, X1: w, Y1: h}, dst, imagescale.Bilinear); err != nil {
			return gainmaperr.Wrap(gainmaperr.Other, err, "computeRGB: downscale gain-map image")
		}
		meta.Image = allocateYUVImage(reqW, reqH, depth, format, matrixC, yuvRange)
		if err := yuvrgb.Encode(dst, meta.Image); err != nil {
			return gainmaperr.Wrap(gainmaperr.Other, err, "computeRGB: encode downscaled gain-map image")
		}
	}
	return nil
}

func allocateYUVImage(w, h, depth int, format yuvrgb.Format, matrixC yuvrgb.MatrixCoefficients, yuvRange yuvrgb.Range) *yuvrgb.YUVImage {
	img := &yuvrgb.YUVImage{Width: w, Height: h, Depth: depth, Format: format, Matrix: matrixC, YUVRange: yuvRange}
	img.YStride = w
	img.Y = make([]uint16, w*h)
	if format != yuvrgb.YUV400 {
		cw, ch := img.ChromaSize()
		img.UVStride = cw
		img.U = make([]uint16, cw*ch)
		img.V = make([]uint16, cw*ch)
	}
	return img
}

// ComputeImage is the image-level wrapper: YUV->RGB decode both inputs, call
// ComputeRGB, then copy the alternate rendition's descriptors onto meta.
func ComputeImage(
	baseImage *yuvrgb.YUVImage, basePrimaries primaries.Gamut, baseTransfer transfer.Characteristic,
	altImage *yuvrgb.YUVImage, altPrimaries primaries.Gamut, altTransfer transfer.Characteristic,
	meta *GainMapMetadata, cfg ComputeConfig,
) error {
	diag.Clear()
	if baseImage == nil || altImage == nil || meta == nil || meta.Image == nil {
		return fail(gainmaperr.InvalidArgument, "computeImage: nil argument")
	}
	if len(baseImage.ICC) > 0 || len(altImage.ICC) > 0 {
		return fail(gainmaperr.NotImplemented, "computeImage: ICC profiles are not supported")
	}

	baseRGB, err := yuvrgb.NewRGBForYUV(baseImage)
	if err != nil {
		return gainmaperr.Wrap(gainmaperr.OutOfMemory, err, "computeImage: allocate base RGB")
	}
	if err := yuvrgb.Decode(baseImage, baseRGB); err != nil {
		return gainmaperr.Wrap(gainmaperr.Other, err, "computeImage: decode base")
	}

	altRGB, err := yuvrgb.NewRGBForYUV(altImage)
	if err != nil {
		return gainmaperr.Wrap(gainmaperr.OutOfMemory, err, "computeImage: allocate alt RGB")
	}
	if err := yuvrgb.Decode(altImage, altRGB); err != nil {
		return gainmaperr.Wrap(gainmaperr.Other, err, "computeImage: decode alt")
	}

	if err := computeRGB(baseRGB, basePrimaries, baseTransfer, altRGB, altPrimaries, altTransfer, meta, cfg); err != nil {
		return err
	}

	meta.AltColorPrimaries = altPrimaries
	meta.AltTransferCharacteristics = altTransfer
	meta.AltMatrixCoefficients = altImage.Matrix
	meta.AltYUVRange = altImage.YUVRange
	meta.AltDepth = altImage.Depth
	meta.AltPlaneCount = 3
	if altImage.Format == yuvrgb.YUV400 {
		meta.AltPlaneCount = 1
	}
	meta.AltICC = altImage.ICC
	return nil
}
