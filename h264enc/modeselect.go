/*
DESCRIPTION
  modeselect.go chooses the Intra_16x16 luma mode and Intra_Chroma mode
  for a macroblock by SAD cost against the original samples, trying
  every mode the neighbour availability allows, per spec section 4.4's
  mode decision step.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package h264enc

import "github.com/ausocean/h264codec/h264pic"

// availableIntra16x16Modes returns the Intra_16x16 modes legal given
// which neighbours are available: Vertical needs the row above,
// Horizontal needs the column to the left, DC and Plane need whichever
// neighbours exist (DC falls back to 128, Plane needs both).
func availableIntra16x16Modes(haveAbove, haveLeft bool) []h264pic.Intra16x16Mode {
	modes := []h264pic.Intra16x16Mode{h264pic.Intra16x16DC}
	if haveAbove {
		modes = append(modes, h264pic.Intra16x16Vertical)
	}
	if haveLeft {
		modes = append(modes, h264pic.Intra16x16Horizontal)
	}
	if haveAbove && haveLeft {
		modes = append(modes, h264pic.Intra16x16Plane)
	}
	return modes
}

func availableIntraChromaModes(haveAbove, haveLeft bool) []h264pic.IntraChromaMode {
	modes := []h264pic.IntraChromaMode{h264pic.IntraChromaDC}
	if haveAbove {
		modes = append(modes, h264pic.IntraChromaVertical)
	}
	if haveLeft {
		modes = append(modes, h264pic.IntraChromaHorizontal)
	}
	if haveAbove && haveLeft {
		modes = append(modes, h264pic.IntraChromaPlane)
	}
	return modes
}

// sadView sums the absolute difference between two size x size PlaneViews.
func sadView(a, b *h264pic.PlaneView, size int) int {
	sum := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := int(a.Read(x, y)) - int(b.Read(x, y))
			if d < 0 {
				d = -d
			}
			sum += d
		}
	}
	return sum
}

// SelectIntra16x16Mode tries every Intra_16x16 mode haveAbove/haveLeft
// allow, predicting into a scratch plane and costing the result by SAD
// against orig's current samples, returning the cheapest mode.
func SelectIntra16x16Mode(orig *h264pic.Plane, offX, offY int, n Neighbours, haveAbove, haveLeft bool) h264pic.Intra16x16Mode {
	origView := orig.View(offX, offY, 16, 16)
	scratch := h264pic.NewPlane(16, 16)
	scratchView := scratch.View(0, 0, 16, 16)

	best := h264pic.Intra16x16DC
	bestCost := -1
	for _, mode := range availableIntra16x16Modes(haveAbove, haveLeft) {
		PredictIntra16x16(scratchView, mode, n)
		cost := sadView(origView, scratchView, 16)
		if bestCost < 0 || cost < bestCost {
			bestCost = cost
			best = mode
		}
	}
	return best
}

// SelectIntraChromaMode is SelectIntra16x16Mode's 8x8 chroma counterpart.
// A macroblock's Cb and Cr planes share one chroma mode (section 8.3.4),
// so the cost of each candidate mode is the sum of its SAD against both
// planes.
func SelectIntraChromaMode(cb, cr *h264pic.Plane, offX, offY int, cbN, crN Neighbours, haveAbove, haveLeft bool) h264pic.IntraChromaMode {
	cbView := cb.View(offX, offY, 8, 8)
	crView := cr.View(offX, offY, 8, 8)
	scratch := h264pic.NewPlane(8, 8)
	scratchView := scratch.View(0, 0, 8, 8)

	best := h264pic.IntraChromaDC
	bestCost := -1
	for _, mode := range availableIntraChromaModes(haveAbove, haveLeft) {
		PredictIntraChroma(scratchView, mode, cbN)
		cost := sadView(cbView, scratchView, 8)
		PredictIntraChroma(scratchView, mode, crN)
		cost += sadView(crView, scratchView, 8)
		if bestCost < 0 || cost < bestCost {
			bestCost = cost
			best = mode
		}
	}
	return best
}
