/*
NAME
  quant_test.go

DESCRIPTION
  quant_test.go tests the QPc chroma-QP derivation table and the zig-zag
  scan order's round trip.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264transform

import "testing"

func TestQPcBelow30IsIdentity(t *testing.T) {
	for _, qp := range []int{0, 10, 29} {
		if got := QPc(qp); got != qp {
			t.Errorf("QPc(%d) = %d, want %d", qp, got, qp)
		}
	}
}

func TestQPcSaturatesAbove51(t *testing.T) {
	at51 := QPc(51)
	for _, qp := range []int{52, 60, 86} {
		if got := QPc(qp); got != at51 {
			t.Errorf("QPc(%d) = %d, want %d (saturate at QPc(51))", qp, got, at51)
		}
	}
}

func TestQPcTableValues(t *testing.T) {
	tests := []struct{ qpY, want int }{
		{30, 29},
		{31, 30},
		{40, 36},
		{51, 39},
	}
	for _, test := range tests {
		if got := QPc(test.qpY); got != test.want {
			t.Errorf("QPc(%d) = %d, want %d", test.qpY, got, test.want)
		}
	}
}

func TestZigZagRoundTrip(t *testing.T) {
	raster := make([]int32, 16)
	for i := range raster {
		raster[i] = int32(i)
	}
	zz := ToZigZag(raster)
	back := FromZigZag(zz)
	for i := range raster {
		if back[i] != raster[i] {
			t.Errorf("index %d: got %d, want %d", i, back[i], raster[i])
		}
	}
}

func TestToZigZagOrder(t *testing.T) {
	raster := make([]int32, 16)
	for i := range raster {
		raster[i] = int32(i)
	}
	want := []int32{0, 1, 4, 8, 5, 2, 3, 6, 9, 12, 13, 10, 7, 11, 14, 15}
	got := ToZigZag(raster)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("zig-zag position %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

// TestQuantiseDC2x2CoarsensWithRisingQP checks that, for a fixed input,
// a higher QP never produces a larger-magnitude quantised level than a
// lower one.
func TestQuantiseDC2x2CoarsensWithRisingQP(t *testing.T) {
	prev := int32(1 << 30)
	for _, qp := range []int{0, 10, 20, 30} {
		block := []int32{200000, 0, 0, 0}
		QuantiseDC2x2(block, qp, true)
		if block[0] > prev {
			t.Errorf("QP %d produced quantised level %d, larger than QP before it (%d)", qp, block[0], prev)
		}
		prev = block[0]
	}
}

// TestQuantiseDC2x2ZeroStaysZero checks the trivial case: a zero block
// quantises and dequantises to zero at any QP.
func TestQuantiseDC2x2ZeroStaysZero(t *testing.T) {
	block := make([]int32, 4)
	QuantiseDC2x2(block, 25, false)
	DequantiseDC2x2(block, 25)
	for i, v := range block {
		if v != 0 {
			t.Errorf("index %d: got %d, want 0", i, v)
		}
	}
}
