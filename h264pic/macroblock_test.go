/*
NAME
  macroblock_test.go

DESCRIPTION
  macroblock_test.go tests MacroBlockArray's neighbour-index wiring and
  MacroBlock.Reset's clearing of per-picture state.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264pic

import "testing"

func TestMacroBlockArrayNeighbours(t *testing.T) {
	arr := NewMacroBlockArray(3, 2)

	topLeft := arr.At(0, 0)
	if n := arr.Neighbour(topLeft, NeighbourLeft, 0, 5); n != nil {
		t.Error("top-left MB should have no left neighbour")
	}
	if n := arr.Neighbour(topLeft, NeighbourAbove, 0, 5); n != nil {
		t.Error("top-left MB should have no above neighbour")
	}

	mid := arr.At(1, 1)
	if n := arr.Neighbour(mid, NeighbourLeft, 0, 5); n != arr.At(1, 0) {
		t.Error("left neighbour of (1,1) should be (1,0)")
	}
	if n := arr.Neighbour(mid, NeighbourAbove, 0, 5); n != arr.At(0, 1) {
		t.Error("above neighbour of (1,1) should be (0,1)")
	}
	if n := arr.Neighbour(mid, NeighbourAboveLeft, 0, 5); n != arr.At(0, 0) {
		t.Error("above-left neighbour of (1,1) should be (0,0)")
	}
	if n := arr.Neighbour(mid, NeighbourAboveRight, 0, 5); n != arr.At(0, 2) {
		t.Error("above-right neighbour of (1,1) should be (0,2)")
	}

	topRight := arr.At(0, 2)
	if n := arr.Neighbour(topRight, NeighbourAboveRight, 0, 5); n != nil {
		t.Error("rightmost column MB should have no above-right neighbour")
	}
}

func TestMacroBlockArrayNeighbourOutsideSlice(t *testing.T) {
	arr := NewMacroBlockArray(3, 2)
	mid := arr.At(1, 1)
	// (1,1) is index 4; restricting the slice to [4,5] excludes its left
	// neighbour at index 3.
	if n := arr.Neighbour(mid, NeighbourLeft, 4, 5); n != nil {
		t.Error("neighbour outside [sliceFirst,sliceLast] must be unavailable")
	}
}

func TestMacroBlockResetClearsState(t *testing.T) {
	arr := NewMacroBlockArray(2, 2)
	mb := arr.At(0, 0)
	mb.IntraFlag = true
	mb.Skip = true
	mb.CodedBlkPatten = 47
	mb.MvX[0] = 12
	mb.Luma[0].NumCoeffs = 3
	mb.Luma[0].Coeffs[0] = 9

	mb.Reset()

	if mb.IntraFlag || mb.Skip || mb.CodedBlkPatten != 0 || mb.MvX[0] != 0 {
		t.Error("Reset did not clear macroblock-level fields")
	}
	if mb.Luma[0].NumCoeffs != -1 || mb.Luma[0].Coeffs[0] != 0 {
		t.Error("Reset did not clear luma block state")
	}
}

func TestCodedBlockPatternSplit(t *testing.T) {
	mb := NewMacroBlock(0, 0, 0, 1)
	mb.CodedBlkPatten = 2*16 + 11
	if got := mb.CodedBlockPatternLuma(); got != 11 {
		t.Errorf("CodedBlockPatternLuma() = %d, want 11", got)
	}
	if got := mb.CodedBlockPatternChroma(); got != 2 {
		t.Errorf("CodedBlockPatternChroma() = %d, want 2", got)
	}
}
