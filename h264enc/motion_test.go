/*
NAME
  motion_test.go

DESCRIPTION
  motion_test.go tests the quarter-pel search range selection and the
  auto-intra SAD-ratio decision, both pure functions of motion.go.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264enc

import "testing"

func TestRangeForDimensions(t *testing.T) {
	tests := []struct {
		width, height int
		want          int
	}{
		{176, 144, 512},  // QCIF, well under CIF.
		{352, 288, 512},  // Exactly CIF.
		{352, 289, 1024}, // One row over CIF.
		{720, 576, 1024},
	}
	for _, test := range tests {
		if got := RangeForDimensions(test.width, test.height); got != test.want {
			t.Errorf("RangeForDimensions(%d,%d) = %d, want %d", test.width, test.height, got, test.want)
		}
	}
}

func TestShouldForceIntraFirstFrame(t *testing.T) {
	if !ShouldForceIntra(0, 0, 0, false) {
		t.Error("frame 0 must always force an I picture")
	}
}

func TestShouldForceIntraNoPreviousSAD(t *testing.T) {
	if ShouldForceIntra(5, 1000, 0, false) {
		t.Error("a zero previous SAD (no prior P picture) must not force intra")
	}
}

func TestShouldForceIntraAbsDiffThreshold(t *testing.T) {
	if ShouldForceIntra(5, 199, 100, false) {
		t.Error("SAD under 2x the previous total must not force intra (abs-diff metric)")
	}
	if !ShouldForceIntra(5, 201, 100, false) {
		t.Error("SAD over 2x the previous total must force intra (abs-diff metric)")
	}
}

func TestShouldForceIntraSquaredErrorThreshold(t *testing.T) {
	if ShouldForceIntra(5, 399, 100, true) {
		t.Error("SAD under 4x the previous total must not force intra (squared-error metric)")
	}
	if !ShouldForceIntra(5, 401, 100, true) {
		t.Error("SAD over 4x the previous total must force intra (squared-error metric)")
	}
}
