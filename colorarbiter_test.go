package gainmap

import (
	"testing"

	"github.com/hdrspan/gainmap/internal/primaries"
)

func TestChooseColorSpaceForGainMapMathEqualPrimaries(t *testing.T) {
	g, err := ChooseColorSpaceForGainMapMath(primaries.BT709, primaries.BT709)
	if err != nil {
		t.Fatal(err)
	}
	if g != primaries.BT709 {
		t.Errorf("got %v, want BT709", g)
	}
}

func TestChooseColorSpaceForGainMapMathPicksWider(t *testing.T) {
	// DisplayP3 is a wider gamut than BT709; converting BT709 into it should
	// never produce negative channels, while the reverse can.
	g, err := ChooseColorSpaceForGainMapMath(primaries.BT709, primaries.DisplayP3)
	if err != nil {
		t.Fatal(err)
	}
	if g != primaries.DisplayP3 {
		t.Errorf("got %v, want DisplayP3 (the wider gamut)", g)
	}
}

func TestChooseColorSpaceForGainMapMathUnsupported(t *testing.T) {
	if _, err := ChooseColorSpaceForGainMapMath(primaries.Unspecified, primaries.BT709); err == nil {
		t.Fatal("expected NotImplemented for unsupported gamut")
	}
}
