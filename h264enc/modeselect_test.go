/*
NAME
  modeselect_test.go

DESCRIPTION
  modeselect_test.go tests that SelectIntra16x16Mode and
  SelectIntraChromaMode pick the mode whose prediction exactly matches
  the original samples when one is available.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264enc

import (
	"testing"

	"github.com/ausocean/h264codec/h264pic"
)

func constRow(v int16, n int) []int16 {
	row := make([]int16, n)
	for i := range row {
		row[i] = v
	}
	return row
}

// TestSelectIntra16x16ModePrefersExactMatch checks that, when the block
// above the macroblock perfectly predicts its content (a flat region
// matching Vertical prediction) while the left column does not, Vertical
// is chosen over DC/Horizontal/Plane.
func TestSelectIntra16x16ModePrefersExactMatch(t *testing.T) {
	orig := h264pic.NewPlane(32, 32)
	origView := orig.View(8, 8, 16, 16)
	origView.Fill(16, 16, 10)

	n := Neighbours{
		HaveAbove: true,
		HaveLeft:  true,
		Above:     constRow(10, 16),
		Left:      constRow(200, 16),
		Corner:    10,
	}

	got := SelectIntra16x16Mode(orig, 8, 8, n, true, true)
	if got != h264pic.Intra16x16Vertical {
		t.Errorf("SelectIntra16x16Mode = %v, want Vertical", got)
	}
}

// TestSelectIntra16x16ModeHorizontalMatch is the Horizontal-prediction
// analogue: the left column exactly matches, the row above does not.
func TestSelectIntra16x16ModeHorizontalMatch(t *testing.T) {
	orig := h264pic.NewPlane(32, 32)
	origView := orig.View(8, 8, 16, 16)
	origView.Fill(16, 16, 200)

	n := Neighbours{
		HaveAbove: true,
		HaveLeft:  true,
		Above:     constRow(10, 16),
		Left:      constRow(200, 16),
		Corner:    10,
	}

	got := SelectIntra16x16Mode(orig, 8, 8, n, true, true)
	if got != h264pic.Intra16x16Horizontal {
		t.Errorf("SelectIntra16x16Mode = %v, want Horizontal", got)
	}
}

// TestSelectIntra16x16ModeNoNeighboursIsDC checks that, with neither
// neighbour available, DC is the only legal mode.
func TestSelectIntra16x16ModeNoNeighboursIsDC(t *testing.T) {
	orig := h264pic.NewPlane(16, 16)
	origView := orig.View(0, 0, 16, 16)
	origView.Fill(16, 16, 77)

	got := SelectIntra16x16Mode(orig, 0, 0, Neighbours{}, false, false)
	if got != h264pic.Intra16x16DC {
		t.Errorf("SelectIntra16x16Mode = %v, want DC", got)
	}
}

// TestSelectIntraChromaModePrefersExactMatch mirrors
// TestSelectIntra16x16ModePrefersExactMatch for the 8x8 chroma case,
// across both the Cb and Cr planes.
func TestSelectIntraChromaModePrefersExactMatch(t *testing.T) {
	cb := h264pic.NewPlane(16, 16)
	cr := h264pic.NewPlane(16, 16)
	cb.View(4, 4, 8, 8).Fill(8, 8, 50)
	cr.View(4, 4, 8, 8).Fill(8, 8, 50)

	n := Neighbours{
		HaveAbove: true,
		HaveLeft:  true,
		Above:     constRow(50, 8),
		Left:      constRow(150, 8),
		Corner:    50,
	}

	got := SelectIntraChromaMode(cb, cr, 4, 4, n, n, true, true)
	if got != h264pic.IntraChromaVertical {
		t.Errorf("SelectIntraChromaMode = %v, want Vertical", got)
	}
}
