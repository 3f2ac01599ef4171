package gainmap

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hdrspan/gainmap/internal/rational"
)

func TestDefaultMetadataValidates(t *testing.T) {
	m := DefaultMetadata()
	if err := ValidateMetadata(m); err != nil {
		t.Fatalf("default metadata should validate: %v", err)
	}
}

func TestValidateMetadataRejectsNil(t *testing.T) {
	if err := ValidateMetadata(nil); err == nil {
		t.Fatal("expected error for nil metadata")
	}
}

func TestValidateMetadataRejectsMaxLessThanMin(t *testing.T) {
	m := DefaultMetadata()
	m.GainMapMin[0] = rational.Signed{N: 2, D: 1}
	m.GainMapMax[0] = rational.Signed{N: 1, D: 1}
	if err := ValidateMetadata(m); err == nil {
		t.Fatal("expected error when gainMapMax < gainMapMin")
	}
}

func TestValidateMetadataRejectsZeroGammaNumerator(t *testing.T) {
	m := DefaultMetadata()
	m.GainMapGamma[1] = rational.Unsigned{N: 0, D: 1}
	if err := ValidateMetadata(m); err == nil {
		t.Fatal("expected error for zero gamma numerator")
	}
}

func TestValidateMetadataRejectsZeroDenominator(t *testing.T) {
	m := DefaultMetadata()
	m.BaseHdrHeadroom = rational.Unsigned{N: 1, D: 0}
	if err := ValidateMetadata(m); err == nil {
		t.Fatal("expected error for zero denominator")
	}
}

func TestEqualMetadataRawComparison(t *testing.T) {
	a := DefaultMetadata()
	b := DefaultMetadata()
	if !EqualMetadata(a, b) {
		t.Fatal("two default metadata values should be equal")
	}
	// 2/2 is numerically equal to 1/1 but not raw-equal.
	b.GainMapMin[0] = rational.Signed{N: 2, D: 2}
	if EqualMetadata(a, b) {
		t.Fatal("equality must be raw, not reduced")
	}
}

func TestEqualAltMetadata(t *testing.T) {
	a := &GainMapMetadata{AltDepth: 8, AltPlaneCount: 3, AltICC: []byte{1, 2, 3}}
	b := &GainMapMetadata{AltDepth: 8, AltPlaneCount: 3, AltICC: []byte{1, 2, 3}}
	if !EqualAltMetadata(a, b) {
		t.Fatal("expected equal alt metadata")
	}
	b.AltICC = []byte{1, 2, 4}
	if EqualAltMetadata(a, b) {
		t.Fatal("expected unequal alt metadata after ICC change")
	}
}

func TestDefaultMetadataDiffIsEmptyAgainstItself(t *testing.T) {
	a := DefaultMetadata()
	b := DefaultMetadata()
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("fresh default metadata should diff empty, got:\n%s", diff)
	}

	b.GainMapGamma[2] = rational.Unsigned{N: 2, D: 1}
	if diff := cmp.Diff(a, b); diff == "" {
		t.Fatal("expected a non-empty diff after mutating gainMapGamma[2]")
	}
}

func TestEqualMetadataNilHandling(t *testing.T) {
	if !EqualMetadata(nil, nil) {
		t.Fatal("two nils should be equal")
	}
	if EqualMetadata(DefaultMetadata(), nil) {
		t.Fatal("nil vs non-nil should be unequal")
	}
}
