/*
DESCRIPTION
  pipeline.go drives one macroblock through the encoder: intra or inter
  prediction, residual transform/quantisation, and reconstruction for
  later macroblocks' prediction, per spec section 4.3's three MB paths
  (processIntraMB, processInterMB, processInterMBMin).

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

import (
	"github.com/ausocean/h264codec/h264pic"
	"github.com/ausocean/h264codec/h264transform"
)

// Picture bundles the reconstructed sample planes and the macroblock
// array an encode pass mutates.
type Picture struct {
	Img *h264pic.Image
	MBs *h264pic.MacroBlockArray
}

// GatherNeighbours is gatherNeighbours exported for callers outside this
// package that need to run mode selection (SelectIntra16x16Mode,
// SelectIntraChromaMode) themselves, ahead of calling ProcessIntraMB.
func GatherNeighbours(plane *h264pic.Plane, offX, offY, size int, haveAbove, haveLeft, haveCorner bool) Neighbours {
	return gatherNeighbours(plane, offX, offY, size, haveAbove, haveLeft, haveCorner)
}

// gatherNeighbours builds the Neighbours record for mb's luma (16
// samples) or chroma (8 samples) intra prediction from the already
// reconstructed picture planes, honouring slice/availability bounds.
func gatherNeighbours(plane *h264pic.Plane, offX, offY, size int, haveAbove, haveLeft, haveCorner bool) Neighbours {
	n := Neighbours{HaveAbove: haveAbove, HaveLeft: haveLeft, HaveCorner: haveCorner}
	if haveAbove {
		n.Above = make([]int16, size+1)
		for i := 0; i <= size; i++ {
			n.Above[i] = plane.Get(offX+i-1, offY-1)
		}
		n.Above = n.Above[1:]
	}
	if haveLeft {
		n.Left = make([]int16, size)
		for i := 0; i < size; i++ {
			n.Left[i] = plane.Get(offX-1, offY+i)
		}
	}
	if haveCorner {
		n.Corner = plane.Get(offX-1, offY-1)
	}
	return n
}

// ResidualTransform runs the forward transform+quantise+inverse-
// quantise+inverse-transform round trip on a 4x4 block in place,
// returning the reconstructed spatial-domain residual (overwriting
// block, which the caller passes in spatial domain and receives back in
// spatial domain) and the quantised zig-zag coefficients it coded.
func ResidualTransform(block []int32, qp int, intra bool) []int32 {
	h264transform.Forward4x4(block)
	h264transform.Quantise4x4(block, qp, intra)
	zz := h264transform.ToZigZag(block)
	coded := make([]int32, len(zz))
	copy(coded, zz)
	raster := h264transform.FromZigZag(zz)
	h264transform.Dequantise4x4(raster, qp)
	h264transform.Inverse4x4(raster)
	copy(block, raster)
	return coded
}

// ProcessIntraMB predicts, transforms, quantises and reconstructs an
// Intra_16x16 macroblock in place against pic's planes, using mode for
// luma and chromaMode for chroma.
func ProcessIntraMB(pic *Picture, mb *h264pic.MacroBlock, mode h264pic.Intra16x16Mode, chromaMode h264pic.IntraChromaMode, qp int) {
	mb.IntraFlag = true
	mb.MbPartPredMode = h264pic.PredIntra16x16
	mb.Intra16x16PredMode = mode
	mb.IntraChromaMode = chromaMode
	mb.MbQP = qp
	mb.MbEncQP = qp

	haveAbove := mb.Row > 0
	haveLeft := mb.Col > 0
	haveCorner := haveAbove && haveLeft

	lumaN := gatherNeighbours(pic.Img.Y, mb.OffLumX, mb.OffLumY, 16, haveAbove, haveLeft, haveCorner)
	pred := pic.Img.Y.View(mb.OffLumX, mb.OffLumY, 16, 16)
	PredictIntra16x16(pred, mode, lumaN)

	// Residual = original - prediction, coded per 4x4 sub-block with the
	// luma DC coefficients collected through a 4x4 Hadamard transform.
	var dcRaster [16]int32
	for by := 0; by < 4; by++ {
		for bx := 0; bx < 4; bx++ {
			blk := extractResidual(pic.Img.Y, mb.OffLumX+bx*4, mb.OffLumY+by*4)
			h264transform.Forward4x4(blk[:])
			dcRaster[by*4+bx] = blk[0]
			coded := quantiseACKeepDC(blk[:], qp, true)
			mb.Luma[by*4+bx].Coeffs = coded
			mb.Luma[by*4+bx].NumCoeffs = countNonZero(coded)
			writeBackResidual(pic.Img.Y, mb.OffLumX+bx*4, mb.OffLumY+by*4, blk[:])
		}
	}
	h264transform.HadamardForward4x4(dcRaster[:])
	h264transform.QuantiseDC4x4(dcRaster[:], qp, true)
	mb.LumaDC.Coeffs = h264transform.ToZigZag(dcRaster[:])
	mb.LumaDC.NumCoeffs = countNonZero(mb.LumaDC.Coeffs)

	processChromaIntra(pic, mb, chromaMode, qp, haveAbove, haveLeft, haveCorner)
}

// ProcessInterMB predicts an Inter_16x16 macroblock via motion
// compensation against refPlanes, then codes and reconstructs its
// residual exactly as the intra path does (without the luma-DC Hadamard
// step, which is Intra_16x16-only). refPlanes must already have been
// prepared (RefPicture.PrepareForSingleVectorMode) against the
// reference picture this mv was searched against.
func ProcessInterMB(pic *Picture, refPlanes *RefPicture, mb *h264pic.MacroBlock, mv MotionVector, refIdx int, qp int) {
	mb.IntraFlag = false
	mb.Skip = false
	mb.MbPartPredMode = h264pic.PredInter16x16
	mb.MvX[0], mb.MvY[0] = mv.X, mv.Y
	mb.RefIdx = refIdx
	mb.MbQP = qp
	mb.MbEncQP = qp

	pred := pic.Img.Y.View(mb.OffLumX, mb.OffLumY, 16, 16)
	refPlanes.Y.CompensateLuma(pred, mb.OffLumX/4, mb.OffLumY/4, mv)

	for by := 0; by < 4; by++ {
		for bx := 0; bx < 4; bx++ {
			blk := extractResidual(pic.Img.Y, mb.OffLumX+bx*4, mb.OffLumY+by*4)
			coded := ResidualTransform(blk[:], qp, false)
			mb.Luma[by*4+bx].Coeffs = coded
			mb.Luma[by*4+bx].NumCoeffs = countNonZero(coded)
			writeBackResidual(pic.Img.Y, mb.OffLumX+bx*4, mb.OffLumY+by*4, blk[:])
		}
	}

	predCb := pic.Img.Cb.View(mb.OffChrX, mb.OffChrY, 8, 8)
	refPlanes.Cb.CompensateChroma(predCb, mb.OffChrX/4, mb.OffChrY/4, mv)
	predCr := pic.Img.Cr.View(mb.OffChrX, mb.OffChrY, 8, 8)
	refPlanes.Cr.CompensateChroma(predCr, mb.OffChrX/4, mb.OffChrY/4, mv)

	codeChromaResidual(pic, mb, qp, false)
	mb.CodedBlkPatten = computeCBP(mb)
}

// ProcessInterMBMin handles the P-skip path: no residual, no motion
// vector difference, the predicted motion vector is used unmodified and
// copied straight from refPlanes with no coding cost at all beyond the
// skip-run signalling done at the slice-data layer.
func ProcessInterMBMin(pic *Picture, refPlanes *RefPicture, mb *h264pic.MacroBlock, mv MotionVector, refIdx int) {
	mb.IntraFlag = false
	mb.Skip = true
	mb.MbPartPredMode = h264pic.PredInter16x16
	mb.MvX[0], mb.MvY[0] = mv.X, mv.Y
	mb.MvdX[0], mb.MvdY[0] = 0, 0
	mb.RefIdx = refIdx
	mb.CodedBlkPatten = 0

	pred := pic.Img.Y.View(mb.OffLumX, mb.OffLumY, 16, 16)
	refPlanes.Y.CompensateLuma(pred, mb.OffLumX/4, mb.OffLumY/4, mv)
	predCb := pic.Img.Cb.View(mb.OffChrX, mb.OffChrY, 8, 8)
	refPlanes.Cb.CompensateChroma(predCb, mb.OffChrX/4, mb.OffChrY/4, mv)
	predCr := pic.Img.Cr.View(mb.OffChrX, mb.OffChrY, 8, 8)
	refPlanes.Cr.CompensateChroma(predCr, mb.OffChrX/4, mb.OffChrY/4, mv)
	for i := range mb.Luma {
		mb.Luma[i].NumCoeffs = 0
	}
	for i := range mb.Cb {
		mb.Cb[i].NumCoeffs = 0
		mb.Cr[i].NumCoeffs = 0
	}
}

func processChromaIntra(pic *Picture, mb *h264pic.MacroBlock, mode h264pic.IntraChromaMode, qp int, haveAbove, haveLeft, haveCorner bool) {
	for _, c := range []struct {
		plane  *h264pic.Plane
		blocks *[4]h264pic.Block
		dc     *h264pic.Block
	}{
		{pic.Img.Cb, &mb.Cb, &mb.CbDC},
		{pic.Img.Cr, &mb.Cr, &mb.CrDC},
	} {
		n := gatherNeighbours(c.plane, mb.OffChrX, mb.OffChrY, 8, haveAbove, haveLeft, haveCorner)
		pred := c.plane.View(mb.OffChrX, mb.OffChrY, 8, 8)
		PredictIntraChroma(pred, mode, n)
		codeChromaBlockSet(c.plane, mb.OffChrX, mb.OffChrY, c.blocks, c.dc, qp, true)
	}
	mb.CodedBlkPatten = computeCBP(mb)
}

func codeChromaResidual(pic *Picture, mb *h264pic.MacroBlock, qp int, intra bool) {
	codeChromaBlockSet(pic.Img.Cb, mb.OffChrX, mb.OffChrY, &mb.Cb, &mb.CbDC, qp, intra)
	codeChromaBlockSet(pic.Img.Cr, mb.OffChrX, mb.OffChrY, &mb.Cr, &mb.CrDC, qp, intra)
}

func codeChromaBlockSet(plane *h264pic.Plane, offX, offY int, blocks *[4]h264pic.Block, dc *h264pic.Block, qp int, intra bool) {
	qpc := h264transform.QPc(qp)
	var dcRaster [4]int32
	for by := 0; by < 2; by++ {
		for bx := 0; bx < 2; bx++ {
			blk := extractResidual(plane, offX+bx*4, offY+by*4)
			h264transform.Forward4x4(blk[:])
			dcRaster[by*2+bx] = blk[0]
			coded := quantiseACKeepDC(blk[:], qpc, intra)
			blocks[by*2+bx].Coeffs = coded
			blocks[by*2+bx].NumCoeffs = countNonZero(coded)
			writeBackResidual(plane, offX+bx*4, offY+by*4, blk[:])
		}
	}
	h264transform.HadamardForward2x2(dcRaster[:])
	h264transform.QuantiseDC2x2(dcRaster[:], qpc, intra)
	dc.Coeffs = append([]int32(nil), dcRaster[:]...)
	dc.NumCoeffs = countNonZero(dc.Coeffs)
}

// quantiseACKeepDC quantises a forward-transformed 4x4 block, zeroing
// the DC term (already accounted for separately by the Hadamard DC
// transform for Intra_16x16 luma and all chroma blocks), returning the
// zig-zag coded AC coefficients and reconstructing block in place.
func quantiseACKeepDC(block []int32, qp int, intra bool) []int32 {
	dc := block[0]
	h264transform.Quantise4x4(block, qp, intra)
	block[0] = 0
	zz := h264transform.ToZigZag(block)
	coded := make([]int32, len(zz))
	copy(coded, zz)
	raster := h264transform.FromZigZag(zz)
	h264transform.Dequantise4x4(raster, qp)
	raster[0] = dc
	h264transform.Inverse4x4(raster)
	copy(block, raster)
	return coded
}

func extractResidual(plane *h264pic.Plane, x, y int) [16]int32 {
	var blk [16]int32
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			blk[row*4+col] = int32(plane.Get(x+col, y+row))
		}
	}
	return blk
}

func writeBackResidual(plane *h264pic.Plane, x, y int, blk []int32) {
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			plane.Set(x+col, y+row, clip255i(int(blk[row*4+col])))
		}
	}
}

func countNonZero(zz []int32) int {
	n := 0
	for _, v := range zz {
		if v != 0 {
			n++
		}
	}
	return n
}

// computeCBP derives the 6-bit coded block pattern from which blocks
// hold nonzero coefficients, per the split CodedBlockPatternLuma/Chroma
// accessors' bit layout.
func computeCBP(mb *h264pic.MacroBlock) int {
	lumaBits := 0
	quadBlocks := [4][4]int{{0, 1, 4, 5}, {2, 3, 6, 7}, {8, 9, 12, 13}, {10, 11, 14, 15}}
	for q, idxs := range quadBlocks {
		for _, idx := range idxs {
			if mb.Luma[idx].NumCoeffs > 0 {
				lumaBits |= 1 << uint(q)
				break
			}
		}
	}
	chromaAC := false
	chromaDC := mb.CbDC.NumCoeffs > 0 || mb.CrDC.NumCoeffs > 0
	for i := 0; i < 4; i++ {
		if mb.Cb[i].NumCoeffs > 0 || mb.Cr[i].NumCoeffs > 0 {
			chromaAC = true
		}
	}
	chromaBits := 0
	switch {
	case chromaAC:
		chromaBits = 2
	case chromaDC:
		chromaBits = 1
	}
	return lumaBits | (chromaBits << 4)
}
