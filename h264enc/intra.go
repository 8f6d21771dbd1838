/*
DESCRIPTION
  intra.go implements the H.264 Baseline intra prediction modes used on
  the encode and decode reconstruction paths: Intra_16x16 (Vertical,
  Horizontal, DC, Plane) and Intra_Chroma (DC, Horizontal, Vertical,
  Plane), per spec section 4.4.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package h264enc provides the Baseline-profile encoder building blocks:
// intra prediction, motion estimation and compensation, and the
// per-macroblock encode pipeline, per spec section 4.
package h264enc

import "github.com/ausocean/h264codec/h264pic"

// Neighbours bundles the available-flags and sample sources an intra
// predictor needs: the row above, the column to the left, and the
// corner sample, each already resolved against slice/constrained-intra
// availability by the caller.
type Neighbours struct {
	HaveAbove, HaveLeft, HaveCorner bool
	Above                           []int16 // len 16 (luma) or 8 (chroma), left-to-right.
	Left                            []int16 // len 16 (luma) or 8 (chroma), top-to-bottom.
	Corner                          int16
}

func clip255i(v int) int16 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return int16(v)
}

// PredictIntra16x16 fills a 16x16 block in view with the prediction for
// mode, using n.
func PredictIntra16x16(view *h264pic.PlaneView, mode h264pic.Intra16x16Mode, n Neighbours) {
	switch mode {
	case h264pic.Intra16x16Vertical:
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				view.Write(x, y, n.Above[x])
			}
		}
	case h264pic.Intra16x16Horizontal:
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				view.Write(x, y, n.Left[y])
			}
		}
	case h264pic.Intra16x16DC:
		dc := dcValue(n, 16, 128)
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				view.Write(x, y, dc)
			}
		}
	case h264pic.Intra16x16Plane:
		planePredict(view, 16, n)
	}
}

// PredictIntraChroma fills an 8x8 chroma block (Cb or Cr) with the
// prediction for mode.
func PredictIntraChroma(view *h264pic.PlaneView, mode h264pic.IntraChromaMode, n Neighbours) {
	switch mode {
	case h264pic.IntraChromaDC:
		predictChromaDC(view, n)
	case h264pic.IntraChromaHorizontal:
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				view.Write(x, y, n.Left[y])
			}
		}
	case h264pic.IntraChromaVertical:
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				view.Write(x, y, n.Above[x])
			}
		}
	case h264pic.IntraChromaPlane:
		planePredict(view, 8, n)
	}
}

func dcValue(n Neighbours, size int, fallback int16) int16 {
	sum, count := 0, 0
	if n.HaveAbove {
		for _, v := range n.Above[:size] {
			sum += int(v)
		}
		count += size
	}
	if n.HaveLeft {
		for _, v := range n.Left[:size] {
			sum += int(v)
		}
		count += size
	}
	if count == 0 {
		return fallback
	}
	return int16((sum + count/2) / count)
}

// predictChromaDC predicts each 4x4 quadrant of the 8x8 chroma block
// with its own DC, per section 8.3.4.1's quadrant rule: the top-left and
// bottom-right quadrants prefer both neighbours or fall back to
// whichever is available; top-right uses Above only, bottom-left uses
// Left only when both are available (falling back symmetrically
// otherwise).
func predictChromaDC(view *h264pic.PlaneView, n Neighbours) {
	quad := func(ox, oy int, above, left []int16) {
		sum, count := 0, 0
		if n.HaveAbove {
			for _, v := range above {
				sum += int(v)
			}
			count += len(above)
		}
		if n.HaveLeft {
			for _, v := range left {
				sum += int(v)
			}
			count += len(left)
		}
		var dc int16 = 128
		if count > 0 {
			dc = int16((sum + count/2) / count)
		}
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				view.Write(ox+x, oy+y, dc)
			}
		}
	}
	var above, left []int16
	if n.HaveAbove {
		above = n.Above
	}
	if n.HaveLeft {
		left = n.Left
	}
	emptyOrSlice := func(avail bool, s []int16) []int16 {
		if avail {
			return s
		}
		return nil
	}
	quad(0, 0, emptyOrSlice(n.HaveAbove, safeSlice(above, 0, 4)), emptyOrSlice(n.HaveLeft, safeSlice(left, 0, 4)))
	if n.HaveAbove {
		quad(4, 0, safeSlice(above, 4, 8), nil)
	} else {
		quad(4, 0, nil, emptyOrSlice(n.HaveLeft, safeSlice(left, 0, 4)))
	}
	if n.HaveLeft {
		quad(0, 4, nil, safeSlice(left, 4, 8))
	} else {
		quad(0, 4, emptyOrSlice(n.HaveAbove, safeSlice(above, 0, 4)), nil)
	}
	quad(4, 4, emptyOrSlice(n.HaveAbove, safeSlice(above, 4, 8)), emptyOrSlice(n.HaveLeft, safeSlice(left, 4, 8)))
}

func safeSlice(s []int16, lo, hi int) []int16 {
	if s == nil {
		return nil
	}
	return s[lo:hi]
}

// planePredict implements the Plane prediction mode for both the 16x16
// luma and 8x8 chroma block sizes, per section 8.3.3.4/8.3.4.4.
func planePredict(view *h264pic.PlaneView, size int, n Neighbours) {
	half := size / 2
	h, v := 0, 0
	for i := 1; i <= half; i++ {
		weight := i
		var ar, al, br, bl int16
		if half+i-1 < len(n.Above) {
			ar = n.Above[half+i-1]
		}
		if half-i >= 0 {
			al = n.Above[half-i]
		}
		if half+i-1 < len(n.Left) {
			br = n.Left[half+i-1]
		}
		if half-i >= 0 {
			bl = n.Left[half-i]
		}
		h += weight * (int(ar) - int(al))
		v += weight * (int(br) - int(bl))
	}
	var aMul, bMul int
	if size == 16 {
		aMul, bMul = 5, 5
	} else {
		aMul, bMul = 17, 17
	}
	var topRight, leftBottom int16
	if len(n.Above) > size-1 {
		topRight = n.Above[size-1]
	}
	if len(n.Left) > size-1 {
		leftBottom = n.Left[size-1]
	}
	a := 16 * (int(topRight) + int(leftBottom))
	var shift uint
	if size == 16 {
		shift = 6
	} else {
		shift = 5
	}
	b := (aMul*h + (1 << (shift - 1))) >> shift
	c := (bMul*v + (1 << (shift - 1))) >> shift
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			val := (a + b*(x-half+1) + c*(y-half+1) + 16) >> 5
			view.Write(x, y, clip255i(val))
		}
	}
}
