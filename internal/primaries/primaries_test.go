package primaries

import "testing"

func TestComputeRGBToRGBMatrixIdentity(t *testing.T) {
	m, ok := ComputeRGBToRGBMatrix(BT709, BT709)
	if !ok {
		t.Fatal("expected ok for identical gamuts")
	}
	r, g, b := m.Apply(0.2, 0.5, 0.8)
	if r != 0.2 || g != 0.5 || b != 0.8 {
		t.Fatalf("identity matrix changed values: %v %v %v", r, g, b)
	}
}

func TestComputeRGBToRGBMatrixUnsupported(t *testing.T) {
	if _, ok := ComputeRGBToRGBMatrix(Unspecified, DisplayP3); ok {
		t.Fatal("expected ok=false for unspecified source gamut")
	}
}

func TestComputeYCoeffsSumsNearOne(t *testing.T) {
	for _, g := range []Gamut{BT709, DisplayP3, AdobeRGB, BT2100} {
		y, ok := ComputeYCoeffs(g)
		if !ok {
			t.Fatalf("gamut %v: expected ok", g)
		}
		sum := y[0] + y[1] + y[2]
		if sum < 0.95 || sum > 1.05 {
			t.Fatalf("gamut %v: Y coefficients sum %v, want ~1", g, sum)
		}
	}
}

func TestRoundTripThroughXYZ(t *testing.T) {
	m1, ok := ComputeRGBToRGBMatrix(BT709, DisplayP3)
	if !ok {
		t.Fatal("expected ok")
	}
	m2, ok := ComputeRGBToRGBMatrix(DisplayP3, BT709)
	if !ok {
		t.Fatal("expected ok")
	}
	r, g, b := m1.Apply(0.3, 0.6, 0.1)
	r2, g2, b2 := m2.Apply(r, g, b)
	const eps = 1e-4
	if abs32(r2-0.3) > eps || abs32(g2-0.6) > eps || abs32(b2-0.1) > eps {
		t.Fatalf("round trip mismatch: got %v %v %v", r2, g2, b2)
	}
}

func TestRoundTripThroughXYZBT2100(t *testing.T) {
	m1, ok := ComputeRGBToRGBMatrix(BT709, BT2100)
	if !ok {
		t.Fatal("expected ok")
	}
	m2, ok := ComputeRGBToRGBMatrix(BT2100, BT709)
	if !ok {
		t.Fatal("expected ok")
	}
	r, g, b := m1.Apply(0.3, 0.6, 0.1)
	r2, g2, b2 := m2.Apply(r, g, b)
	const eps = 1e-4
	if abs32(r2-0.3) > eps || abs32(g2-0.6) > eps || abs32(b2-0.1) > eps {
		t.Fatalf("round trip mismatch: got %v %v %v", r2, g2, b2)
	}
}

// BT.2100's Rec.2020 primaries are much wider than BT.709's; converting a
// saturated BT.709 red into BT.2100 should change its coordinates, not leave
// them untouched the way an identity-like (mistakenly BT.709-routed) matrix
// would.
func TestComputeRGBToRGBMatrixBT2100IsNotIdentity(t *testing.T) {
	m, ok := ComputeRGBToRGBMatrix(BT709, BT2100)
	if !ok {
		t.Fatal("expected ok")
	}
	r, g, b := m.Apply(1, 0, 0)
	if abs32(r-1) < 1e-3 && abs32(g) < 1e-3 && abs32(b) < 1e-3 {
		t.Fatal("BT709->BT2100 matrix looks like identity; BT2100 must use its own wide-gamut primaries")
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
