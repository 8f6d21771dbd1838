/*
DESCRIPTION
  filter.go implements the H.264 in-loop deblocking filter (spec section
  4.9): boundary strength derivation, the alpha/beta/tC0 threshold
  tables, and the vertical-then-horizontal edge filtering pass over a
  reconstructed picture.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package h264dblk provides the in-loop deblocking filter applied to
// reconstructed macroblocks before they are used as motion-compensation
// reference, per spec section 4.9.
package h264dblk

import (
	"github.com/ausocean/h264codec/h264pic"
)

// alphaTable and betaTable are indexed by the filter's indexA/indexB,
// clipped to [0,51], per tables 8-16/8-17's alpha(indexA) and
// beta(indexB) columns.
var alphaTable = [52]int{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	4, 4, 5, 6, 7, 8, 9, 10, 12, 13, 15, 17, 20, 22, 25, 28,
	32, 36, 40, 45, 50, 56, 63, 71, 80, 90, 101, 113, 127, 144, 162, 182,
	203, 226, 255, 255,
}

var betaTable = [52]int{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 6, 6, 7, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 13, 13, 14, 14, 15, 15, 16, 16,
	17, 17, 18, 18,
}

// tC0Table gives tC0 for bS 1-3 (bS 4 uses the strong-filter path
// instead), indexed by indexA.
var tC0Table = [3][52]int{
	{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 4, 4, 4,
		5, 6, 6, 7},
	{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2,
		2, 2, 2, 3, 3, 3, 4, 4, 4, 5, 6, 6, 7, 8, 8, 10,
		11, 12, 13, 17},
	{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 1, 1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3,
		4, 4, 5, 6, 6, 7, 8, 9, 10, 11, 13, 14, 16, 18, 20, 23,
		25, 27, 28, 29},
}

// clip255, clip to the active sample range.
func clip255(v int32) int32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func clip3(lo, hi, v int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// BoundaryStrength derives bS for an edge between macroblock p and q
// (p is to the left of, or above, q), per section 8.7.2.1. mbEdge
// indicates the edge is a macroblock boundary rather than an internal
// 4x4-block edge; Baseline profile has no field/MBAFF cases to consider.
func BoundaryStrength(p, q *h264pic.MacroBlock, mbEdge bool) int {
	if p == nil || q == nil {
		return 0
	}
	if (p.IntraFlag || q.IntraFlag) && mbEdge {
		return 4
	}
	if p.IntraFlag || q.IntraFlag {
		return 3
	}
	pNZ := p.CodedBlkPatten != 0 && !p.Skip
	qNZ := q.CodedBlkPatten != 0 && !q.Skip
	if pNZ || qNZ {
		return 2
	}
	if p.RefIdx != q.RefIdx || p.MvX[0] != q.MvX[0] || p.MvY[0] != q.MvY[0] {
		return 1
	}
	return 0
}

// filterLuma applies the normal or strong luma filter to the four
// samples either side of an edge (p3 p2 p1 p0 | q0 q1 q2 q3), in place,
// per section 8.7.2.3/8.7.2.4.
func filterLuma(p3, p2, p1, p0, q0, q1, q2, q3 *int32, bS, indexA, indexB int) {
	alpha := int32(alphaTable[clampIdx(indexA)])
	beta := int32(betaTable[clampIdx(indexB)])
	if abs32(*p0-*q0) >= alpha || abs32(*p1-*p0) >= beta || abs32(*q1-*q0) >= beta {
		return
	}
	if bS == 4 {
		apStrong := abs32(*p2-*p0) < beta && abs32(*p0-*q0) < (alpha/4+2)
		aqStrong := abs32(*q2-*q0) < beta && abs32(*p0-*q0) < (alpha/4+2)
		if apStrong {
			p0n := (*p2 + 2**p1 + 2**p0 + 2**q0 + *q1 + 4) >> 3
			p1n := (*p2 + *p1 + *p0 + *q0 + 2) >> 2
			p2n := (2**p3 + 3**p2 + *p1 + *p0 + *q0 + 4) >> 3
			*p0, *p1, *p2 = p0n, p1n, p2n
		} else {
			*p0 = (2**p1 + *p0 + *q1 + 2) >> 2
		}
		if aqStrong {
			q0n := (*q2 + 2**q1 + 2**q0 + 2**p0 + *p1 + 4) >> 3
			q1n := (*q2 + *q1 + *q0 + *p0 + 2) >> 2
			q2n := (2**q3 + 3**q2 + *q1 + *q0 + *p0 + 4) >> 3
			*q0, *q1, *q2 = q0n, q1n, q2n
		} else {
			*q0 = (2**q1 + *q0 + *p1 + 2) >> 2
		}
		return
	}

	tC0 := int32(tC0Table[bS-1][clampIdx(indexA)])
	ap := abs32(*p2-*p0) < beta
	aq := abs32(*q2-*q0) < beta
	tC := tC0
	if ap {
		tC++
	}
	if aq {
		tC++
	}
	delta := clip3(-tC, tC, ((*q0-*p0)*4+(*p1-*q1)+4)>>3)
	*p0 = clip255(*p0 + delta)
	*q0 = clip255(*q0 - delta)
	if ap {
		*p1 += clip3(-tC0, tC0, (*p2+((*p0+*q0+1)>>1)-2**p1)>>1)
	}
	if aq {
		*q1 += clip3(-tC0, tC0, (*q2+((*p0+*q0+1)>>1)-2**q1)>>1)
	}
}

// filterChroma applies the chroma edge filter (only p0/q0 change), per
// section 8.7.2.4's chroma variant.
func filterChroma(p1, p0, q0, q1 *int32, bS, indexA int) {
	if bS == 4 {
		*p0 = (2**p1 + *p0 + *q1 + 2) >> 2
		*q0 = (2**q1 + *q0 + *p1 + 2) >> 2
		return
	}
	tC0 := int32(tC0Table[bS-1][clampIdx(indexA)])
	tC := tC0 + 1
	delta := clip3(-tC, tC, ((*q0-*p0)*4+(*p1-*q1)+4)>>3)
	*p0 = clip255(*p0 + delta)
	*q0 = clip255(*q0 - delta)
}

func clampIdx(i int) int {
	if i < 0 {
		return 0
	}
	if i > 51 {
		return 51
	}
	return i
}

// FilterPicture deblocks every macroblock edge of a reconstructed
// picture in place: all vertical edges left-to-right, then all
// horizontal edges top-to-bottom, per section 8.7's ordering rule.
// indexOffsetA/B fold in slice_alpha_c0_offset_div2 /
// slice_beta_offset_div2 (each already multiplied by 2).
func FilterPicture(arr *h264pic.MacroBlockArray, y, cb, cr *h264pic.Plane, sliceFirst, sliceLast, indexOffsetA, indexOffsetB int) {
	for row := 0; row < arr.HeightMbs; row++ {
		for col := 0; col < arr.WidthMbs; col++ {
			mb := arr.At(row, col)
			filterMbVertical(arr, mb, y, cb, cr, sliceFirst, sliceLast, indexOffsetA, indexOffsetB)
		}
	}
	for row := 0; row < arr.HeightMbs; row++ {
		for col := 0; col < arr.WidthMbs; col++ {
			mb := arr.At(row, col)
			filterMbHorizontal(arr, mb, y, cb, cr, sliceFirst, sliceLast, indexOffsetA, indexOffsetB)
		}
	}
}

func filterMbVertical(arr *h264pic.MacroBlockArray, mb *h264pic.MacroBlock, y, cb, cr *h264pic.Plane, sliceFirst, sliceLast, offA, offB int) {
	left := arr.Neighbour(mb, h264pic.NeighbourLeft, sliceFirst, sliceLast)
	for edge := 0; edge < 4; edge++ {
		x := mb.OffLumX + edge*4
		var bS int
		if edge == 0 {
			if left == nil {
				continue
			}
			bS = BoundaryStrength(left, mb, true)
		} else {
			bS = BoundaryStrength(mb, mb, false)
		}
		if bS == 0 {
			continue
		}
		qp := mb.MbQP
		pQP := qp
		if edge == 0 && left != nil {
			pQP = left.MbQP
		}
		indexA := (qp+pQP+1)/2 + offA
		indexB := (qp+pQP+1)/2 + offB
		for row := 0; row < 16; row++ {
			p3 := int32(y.Get(x-4, mb.OffLumY+row))
			p2 := int32(y.Get(x-3, mb.OffLumY+row))
			p1 := int32(y.Get(x-2, mb.OffLumY+row))
			p0 := int32(y.Get(x-1, mb.OffLumY+row))
			q0 := int32(y.Get(x, mb.OffLumY+row))
			q1 := int32(y.Get(x+1, mb.OffLumY+row))
			q2 := int32(y.Get(x+2, mb.OffLumY+row))
			q3 := int32(y.Get(x+3, mb.OffLumY+row))
			filterLuma(&p3, &p2, &p1, &p0, &q0, &q1, &q2, &q3, bS, indexA, indexB)
			y.Set(x-3, mb.OffLumY+row, int16(p2))
			y.Set(x-2, mb.OffLumY+row, int16(p1))
			y.Set(x-1, mb.OffLumY+row, int16(p0))
			y.Set(x, mb.OffLumY+row, int16(q0))
			y.Set(x+1, mb.OffLumY+row, int16(q1))
			y.Set(x+2, mb.OffLumY+row, int16(q2))
		}
		if edge%2 == 0 {
			cx := mb.OffChrX + (edge/2)*4
			for row := 0; row < 8; row++ {
				filterChromaPlaneVert(cb, cx, mb.OffChrY+row, bS, indexA)
				filterChromaPlaneVert(cr, cx, mb.OffChrY+row, bS, indexA)
			}
		}
	}
}

func filterChromaPlaneVert(plane *h264pic.Plane, x, yy, bS, indexA int) {
	p1 := int32(plane.Get(x-2, yy))
	p0 := int32(plane.Get(x-1, yy))
	q0 := int32(plane.Get(x, yy))
	q1 := int32(plane.Get(x+1, yy))
	filterChroma(&p1, &p0, &q0, &q1, bS, indexA)
	plane.Set(x-1, yy, int16(p0))
	plane.Set(x, yy, int16(q0))
}

func filterMbHorizontal(arr *h264pic.MacroBlockArray, mb *h264pic.MacroBlock, y, cb, cr *h264pic.Plane, sliceFirst, sliceLast, offA, offB int) {
	above := arr.Neighbour(mb, h264pic.NeighbourAbove, sliceFirst, sliceLast)
	for edge := 0; edge < 4; edge++ {
		yy := mb.OffLumY + edge*4
		var bS int
		if edge == 0 {
			if above == nil {
				continue
			}
			bS = BoundaryStrength(above, mb, true)
		} else {
			bS = BoundaryStrength(mb, mb, false)
		}
		if bS == 0 {
			continue
		}
		qp := mb.MbQP
		pQP := qp
		if edge == 0 && above != nil {
			pQP = above.MbQP
		}
		indexA := (qp+pQP+1)/2 + offA
		indexB := (qp+pQP+1)/2 + offB
		for col := 0; col < 16; col++ {
			p3 := int32(y.Get(mb.OffLumX+col, yy-4))
			p2 := int32(y.Get(mb.OffLumX+col, yy-3))
			p1 := int32(y.Get(mb.OffLumX+col, yy-2))
			p0 := int32(y.Get(mb.OffLumX+col, yy-1))
			q0 := int32(y.Get(mb.OffLumX+col, yy))
			q1 := int32(y.Get(mb.OffLumX+col, yy+1))
			q2 := int32(y.Get(mb.OffLumX+col, yy+2))
			q3 := int32(y.Get(mb.OffLumX+col, yy+3))
			filterLuma(&p3, &p2, &p1, &p0, &q0, &q1, &q2, &q3, bS, indexA, indexB)
			y.Set(mb.OffLumX+col, yy-3, int16(p2))
			y.Set(mb.OffLumX+col, yy-2, int16(p1))
			y.Set(mb.OffLumX+col, yy-1, int16(p0))
			y.Set(mb.OffLumX+col, yy, int16(q0))
			y.Set(mb.OffLumX+col, yy+1, int16(q1))
			y.Set(mb.OffLumX+col, yy+2, int16(q2))
		}
		if edge%2 == 0 {
			cy := mb.OffChrY + (edge/2)*4
			for col := 0; col < 8; col++ {
				filterChromaPlaneHoriz(cb, mb.OffChrX+col, cy, bS, indexA)
				filterChromaPlaneHoriz(cr, mb.OffChrX+col, cy, bS, indexA)
			}
		}
	}
}

func filterChromaPlaneHoriz(plane *h264pic.Plane, x, y, bS, indexA int) {
	p1 := int32(plane.Get(x, y-2))
	p0 := int32(plane.Get(x, y-1))
	q0 := int32(plane.Get(x, y))
	q1 := int32(plane.Get(x, y+1))
	filterChroma(&p1, &p0, &q0, &q1, bS, indexA)
	plane.Set(x, y-1, int16(p0))
	plane.Set(x, y, int16(q0))
}
