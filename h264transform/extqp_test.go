/*
NAME
  extqp_test.go

DESCRIPTION
  extqp_test.go tests ZeroExtra's staged coefficient-zeroing behaviour
  across the extended QP ladder.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264transform

import "testing"

func ones(n int) []int32 {
	zz := make([]int32, n)
	for i := range zz {
		zz[i] = 1
	}
	return zz
}

func countZero(zz []int32) int {
	n := 0
	for _, v := range zz {
		if v == 0 {
			n++
		}
	}
	return n
}

func TestZeroExtraNoOpAtStandardQP(t *testing.T) {
	zz := ones(16)
	ZeroExtra(zz, 51, false, false)
	if got := countZero(zz); got != 0 {
		t.Errorf("ZeroExtra at QP 51 zeroed %d coefficients, want 0", got)
	}
}

func TestZeroExtraZeroesTrailingACCoefficients(t *testing.T) {
	zz := ones(16)
	ZeroExtra(zz, 55, false, false) // acZero = 55-51 = 4.
	if got := countZero(zz); got != 4 {
		t.Errorf("got %d zeroed coefficients, want 4", got)
	}
	for i := 15; i >= 12; i-- {
		if zz[i] != 0 {
			t.Errorf("coefficient %d should be zeroed (trailing in zig-zag order)", i)
		}
	}
	if zz[0] != 1 {
		t.Error("DC term must never be zeroed by the AC-zeroing stage")
	}
}

func TestZeroExtraChromaDCSpecialCase(t *testing.T) {
	zz := ones(4)
	ZeroExtra(zz, 85, false, true)
	if got := countZero(zz); got != 4 {
		t.Errorf("QP 85 must zero the entire chroma-DC block, got %d/4 zeroed", got)
	}
}

func TestZeroExtraLumaDCSpecialCase(t *testing.T) {
	zz := ones(16)
	ZeroExtra(zz, 86, true, false)
	if got := countZero(zz); got != 16 {
		t.Errorf("QP 86 must zero the entire luma-DC block, got %d/16 zeroed", got)
	}
}
