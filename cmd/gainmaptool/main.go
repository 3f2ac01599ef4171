// Command gainmaptool exercises the gainmap package end to end over plain
// PNG files, standing in for the container format (MPF/ISO gain-map box)
// that a real embedder would parse before reaching this core.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/hdrspan/gainmap"
	"github.com/hdrspan/gainmap/internal/primaries"
	"github.com/hdrspan/gainmap/internal/transfer"
	"github.com/hdrspan/gainmap/internal/yuvrgb"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "apply":
		err = runApply(os.Args[2:])
	case "compute":
		err = runCompute(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: gainmaptool <command> [args]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  apply   -base base.png -gain gain.png -headroom 2.0 -out out.png")
	fmt.Fprintln(os.Stderr, "  compute -base base.png -alt alt.png -base-headroom 0 -alt-headroom 4 -gain-out gain.png -meta-out meta.json")
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "gainmaptool:", err)
	for _, msg := range gainmap.Diagnostics() {
		fmt.Fprintln(os.Stderr, "  ", msg)
	}
	os.Exit(1)
}

func runApply(args []string) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	basePath := fs.String("base", "", "base rendition PNG")
	gainPath := fs.String("gain", "", "gain-map PNG")
	headroom := fs.Float64("headroom", 0, "target HDR headroom")
	outPath := fs.String("out", "", "output PNG")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *basePath == "" || *gainPath == "" || *outPath == "" {
		return errors.New("apply: -base, -gain, and -out are required")
	}

	base, err := readPNG(*basePath)
	if err != nil {
		return err
	}
	gain, err := readPNG(*gainPath)
	if err != nil {
		return err
	}

	meta := gainmap.DefaultMetadata()
	out, err := yuvrgb.AllocateRGB(base.Width, base.Height)
	if err != nil {
		return err
	}
	var clli gainmap.CLLI
	if err := gainmap.ApplyRGB(base, primaries.BT709, transfer.SRGB, gain, meta, *headroom,
		primaries.BT709, transfer.SRGB, out, &clli); err != nil {
		return err
	}
	fmt.Printf("maxCLL=%d maxPALL=%d\n", clli.MaxCLL, clli.MaxPALL)
	return writePNG(*outPath, out)
}

func runCompute(args []string) error {
	fs := flag.NewFlagSet("compute", flag.ContinueOnError)
	basePath := fs.String("base", "", "base rendition PNG")
	altPath := fs.String("alt", "", "alternate rendition PNG")
	baseHeadroom := fs.Float64("base-headroom", 0, "base rendition HDR headroom")
	altHeadroom := fs.Float64("alt-headroom", 1, "alternate rendition HDR headroom")
	gainOut := fs.String("gain-out", "", "output gain-map PNG")
	metaOut := fs.String("meta-out", "", "output metadata JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *basePath == "" || *altPath == "" || *gainOut == "" {
		return errors.New("compute: -base, -alt, and -gain-out are required")
	}

	base, err := readPNG(*basePath)
	if err != nil {
		return err
	}
	alt, err := readPNG(*altPath)
	if err != nil {
		return err
	}

	meta := gainmap.DefaultMetadata()
	meta.Image = &yuvrgb.YUVImage{
		Width: base.Width, Height: base.Height, Depth: 8,
		Format: yuvrgb.YUV444, Matrix: yuvrgb.MatrixBT709, YUVRange: yuvrgb.RangeFull,
	}
	meta.Image.YStride = base.Width
	meta.Image.Y = make([]uint16, base.Width*base.Height)
	meta.Image.UVStride = base.Width
	meta.Image.U = make([]uint16, base.Width*base.Height)
	meta.Image.V = make([]uint16, base.Width*base.Height)

	cfg := gainmap.ComputeConfig{BaseHdrHeadroom: *baseHeadroom, AlternateHdrHeadroom: *altHeadroom}
	if err := gainmap.ComputeRGB(base, primaries.BT709, transfer.SRGB, alt, primaries.BT709, transfer.SRGB, meta, cfg); err != nil {
		return err
	}

	gainRGB, err := yuvrgb.NewRGBForYUV(meta.Image)
	if err != nil {
		return err
	}
	if err := yuvrgb.Decode(meta.Image, gainRGB); err != nil {
		return err
	}
	if err := writePNG(*gainOut, gainRGB); err != nil {
		return err
	}

	if *metaOut != "" {
		return writeMetaJSON(*metaOut, meta)
	}
	return nil
}

func readPNG(path string) (*yuvrgb.RGBImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	out, err := yuvrgb.AllocateRGB(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			out.Set(x-b.Min.X, y-b.Min.Y, from16(r), from16(g), from16(bl), from16(a))
		}
	}
	return out, nil
}

func writePNG(path string, img *yuvrgb.RGBImage) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dst := image.NewNRGBA64(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, g, b, a := img.At(x, y)
			dst.SetNRGBA64(x, y, color.NRGBA64{R: to16(r), G: to16(g), B: to16(b), A: to16(a)})
		}
	}
	return png.Encode(f, dst)
}

func writeMetaJSON(path string, meta *gainmap.GainMapMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func from16(v uint32) float32 { return float32(v) / 65535 }

func to16(v float32) uint16 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint16(v*65535 + 0.5)
}
