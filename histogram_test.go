package gainmap

import "testing"

func TestFindRangeWithoutOutliersConstantBuffer(t *testing.T) {
	buf := make([]float32, 100)
	for i := range buf {
		buf[i] = 2.5
	}
	lo, hi, err := FindRangeWithoutOutliers(buf)
	if err != nil {
		t.Fatal(err)
	}
	if lo != 2.5 || hi != 2.5 {
		t.Errorf("got (%v,%v), want (2.5,2.5)", lo, hi)
	}
}

func TestFindRangeWithoutOutliersRejectsEmpty(t *testing.T) {
	if _, _, err := FindRangeWithoutOutliers(nil); err == nil {
		t.Fatal("expected error for empty buffer")
	}
}

func TestFindRangeWithoutOutliersNarrowRangeReturnsRaw(t *testing.T) {
	// max - min <= 2*bucketSize: per spec.md §4.B step 2, return raw range
	// untouched regardless of outlier count.
	buf := []float32{0, 0.01, 0.02}
	lo, hi, err := FindRangeWithoutOutliers(buf)
	if err != nil {
		t.Fatal(err)
	}
	if lo != 0 || hi != 0.02 {
		t.Errorf("got (%v,%v), want (0,0.02)", lo, hi)
	}
}

func TestFindRangeWithoutOutliersTrimsEmptyOuterBuckets(t *testing.T) {
	// A wide gap of empty buckets at the low end, with enough mass to leave
	// non-trivial maxOutliers budget, should pull rangeMin up to the first
	// non-empty region.
	buf := make([]float32, 100000)
	for i := range buf {
		buf[i] = 1.0
	}
	buf[0] = -5.0
	lo, hi, err := FindRangeWithoutOutliers(buf)
	if err != nil {
		t.Fatal(err)
	}
	if lo <= -4 {
		t.Errorf("expected empty low buckets trimmed, got lo=%v", lo)
	}
	if hi != 1.0 {
		t.Errorf("expected hi unchanged at 1.0, got %v", hi)
	}
}

func TestFindRangeWithoutOutliersNeverWidensRange(t *testing.T) {
	buf := make([]float32, 1000)
	for i := range buf {
		buf[i] = float32(i) * 0.001
	}
	lo, hi, err := FindRangeWithoutOutliers(buf)
	if err != nil {
		t.Fatal(err)
	}
	maxV := buf[len(buf)-1]
	if lo < 0 || hi > maxV {
		t.Errorf("range must stay within [0,%v], got (%v,%v)", maxV, lo, hi)
	}
	if hi < lo {
		t.Errorf("expected hi >= lo, got lo=%v hi=%v", lo, hi)
	}
}
