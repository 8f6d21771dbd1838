/*
DESCRIPTION
  slicedata.go decodes slice_data() (section 7.3.4): the macroblock loop
  following a slice header, producing reconstructed macroblock state and
  samples for Baseline's two supported macroblock paths, Intra_16x16 and
  Inter_16x16 (P_L0_16x16), plus P_Skip.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package h264dec

import (
	"fmt"

	"github.com/ausocean/h264codec/codec/h264/h264dec/bits"
	"github.com/ausocean/h264codec/h264cavlc"
	"github.com/ausocean/h264codec/h264enc"
	"github.com/ausocean/h264codec/h264pic"
	"github.com/ausocean/h264codec/h264transform"
	"github.com/pkg/errors"
)

// errUnsupportedMbType is returned for any mb_type this package does not
// reconstruct: I_NxN (Intra_4x4), P/B partitions other than 16x16, and
// I_PCM. A conformant Baseline encoder that only ever emits what this
// package itself produces never generates these, but a bitstream from
// another encoder may.
var errUnsupportedMbType = errors.New("h264dec: unsupported mb_type")

// DecodePicture reconstructs every macroblock of one slice's data
// section into pic, using ref as the motion-compensated prediction
// source for P macroblocks (nil for an IDR/I slice).
//
// pic.MBs is the macroblock array owned by the picture; DecodePicture
// only populates the range [FirstMbInSlice, ...] it walks.
func DecodePicture(ctx *SliceContext, pic *h264enc.Picture, ref *h264enc.Picture) error {
	sps := ctx.SPS
	header := ctx.SliceHeader
	widthMbs := PicWidthInMbs(sps)
	heightMbs := PicHeightInMbs(sps, header)
	sliceFirst := header.FirstMbInSlice
	sliceLast := widthMbs*heightMbs - 1

	sliceType := sliceTypeMap[header.SliceType]
	isP := sliceType == "P"
	if !isP && sliceType != "I" {
		return fmt.Errorf("h264dec: slice type %s not supported", sliceType)
	}

	var refPlanes *h264enc.RefPicture
	if isP {
		refPlanes = h264enc.NewRefPicture(ref.Img.Y, ref.Img.Cb, ref.Img.Cr)
		refPlanes.PrepareForSingleVectorMode()
	}

	br := ctx.BitReader
	r := newFieldReader(br)

	qp := 26 + ctx.PPS.PicInitQpMinus26 + header.SliceQpDelta
	currMbAddr := sliceFirst

	for currMbAddr <= sliceLast {
		skipRun := 0
		if isP {
			skipRun = int(r.readUe())
			if r.err() != nil {
				return errors.Wrap(r.err(), "mb_skip_run")
			}
		}
		for i := 0; i < skipRun && currMbAddr <= sliceLast; i++ {
			mb := pic.MBs.At(currMbAddr/widthMbs, currMbAddr%widthMbs)
			mb.Reset()
			decodeSkipMB(pic, refPlanes, mb, sliceFirst, sliceLast)
			currMbAddr++
		}
		if currMbAddr > sliceLast {
			break
		}
		if isP && !moreRBSPData(br) {
			break
		}

		mb := pic.MBs.At(currMbAddr/widthMbs, currMbAddr%widthMbs)
		mb.Reset()

		mbType := int(r.readUe())
		if r.err() != nil {
			return errors.Wrap(r.err(), "mb_type")
		}
		mb.MbType = mbType

		switch {
		case sliceType == "I" && mbType >= 1 && mbType <= 24:
			if err := decodeIntra16x16(ctx, r, pic, mb, mbType, qp, sliceFirst, sliceLast); err != nil {
				return err
			}
		case isP && mbType == 0:
			if err := decodeInter16x16(ctx, r, pic, refPlanes, mb, qp, sliceFirst, sliceLast); err != nil {
				return err
			}
		default:
			return errors.Wrapf(errUnsupportedMbType, "mb_type %d in %s slice", mbType, sliceType)
		}

		currMbAddr++
		if !moreRBSPData(br) {
			break
		}
	}
	return nil
}

// mbTypeIntra16x16 decodes the packed (predMode, cbpChroma, cbpLuma)
// triple table 7-11 folds into mb_type values 1-24 for I slices.
func mbTypeIntra16x16(mbType int) (mode h264pic.Intra16x16Mode, cbpChroma, cbpLuma int) {
	t := mbType - 1
	mode = h264pic.Intra16x16Mode(t % 4)
	cbpChroma = (t / 4) % 3
	if t >= 12 {
		cbpLuma = 15
	}
	return
}

func decodeIntra16x16(ctx *SliceContext, r fieldReader, pic *h264enc.Picture, mb *h264pic.MacroBlock, mbType, qp int, sliceFirst, sliceLast int) error {
	mode, cbpChroma, cbpLuma := mbTypeIntra16x16(mbType)
	mb.IntraFlag = true
	mb.MbPartPredMode = h264pic.PredIntra16x16
	mb.Intra16x16PredMode = mode
	mb.CodedBlkPatten = cbpLuma | (cbpChroma << 4)

	chromaMode := int(r.readUe())
	if r.err() != nil {
		return errors.Wrap(r.err(), "intra_chroma_pred_mode")
	}
	mb.IntraChromaMode = h264pic.IntraChromaMode(chromaMode)

	mbQPDelta := r.readSe()
	if r.err() != nil {
		return errors.Wrap(r.err(), "mb_qp_delta")
	}
	mb.MbQPDelta = mbQPDelta
	qp = wrapQP(qp + mbQPDelta)
	mb.MbQP = qp
	mb.MbEncQP = qp

	haveAbove := mb.Row > 0
	haveLeft := mb.Col > 0
	haveCorner := haveAbove && haveLeft

	lumaN := gatherReconNeighbours(pic.Img.Y, mb.OffLumX, mb.OffLumY, 16, haveAbove, haveLeft, haveCorner)
	pred := pic.Img.Y.View(mb.OffLumX, mb.OffLumY, 16, 16)
	h264enc.PredictIntra16x16(pred, mode, lumaN)

	if err := decodeLumaDC(ctx.BitReader, pic.MBs, mb, qp, true, sliceFirst, sliceLast); err != nil {
		return err
	}
	if err := decodeLumaAC(ctx.BitReader, pic.MBs, mb, qp, true, cbpLuma, sliceFirst, sliceLast); err != nil {
		return err
	}
	reconstructLuma16x16(pic.Img.Y, mb, qp)

	if err := decodeChroma(ctx, pic.Img.Cb, pic.Img.Cr, pic.MBs, mb, qp, true, cbpChroma, haveAbove, haveLeft, haveCorner, sliceFirst, sliceLast); err != nil {
		return err
	}
	return nil
}

func decodeInter16x16(ctx *SliceContext, r fieldReader, pic *h264enc.Picture, refPlanes *h264enc.RefPicture, mb *h264pic.MacroBlock, qp int, sliceFirst, sliceLast int) error {
	mb.IntraFlag = false
	mb.MbPartPredMode = h264pic.PredInter16x16

	pred := predictedMV(pic.MBs, mb, sliceFirst, sliceLast)
	mvdX := r.readSe()
	mvdY := r.readSe()
	if r.err() != nil {
		return errors.Wrap(r.err(), "mvd_l0")
	}
	mb.MvdX[0], mb.MvdY[0] = int16(mvdX), int16(mvdY)
	mb.MvX[0] = pred.X + int16(mvdX)
	mb.MvY[0] = pred.Y + int16(mvdY)
	mv := h264enc.MotionVector{X: mb.MvX[0], Y: mb.MvY[0]}

	cbp, err := r.cbp(ctx.chromaArrayType, inter)
	if err != nil {
		return err
	}
	cbpLuma, cbpChroma := cbp%16, cbp/16
	mb.CodedBlkPatten = cbp

	qpDelta := 0
	if cbp != 0 {
		qpDelta = r.readSe()
		if r.err() != nil {
			return errors.Wrap(r.err(), "mb_qp_delta")
		}
	}
	mb.MbQPDelta = qpDelta
	qp = wrapQP(qp + qpDelta)
	mb.MbQP = qp
	mb.MbEncQP = qp

	predView := pic.Img.Y.View(mb.OffLumX, mb.OffLumY, 16, 16)
	refPlanes.Y.CompensateLuma(predView, mb.OffLumX/4, mb.OffLumY/4, mv)
	predCb := pic.Img.Cb.View(mb.OffChrX, mb.OffChrY, 8, 8)
	refPlanes.Cb.CompensateChroma(predCb, mb.OffChrX/4, mb.OffChrY/4, mv)
	predCr := pic.Img.Cr.View(mb.OffChrX, mb.OffChrY, 8, 8)
	refPlanes.Cr.CompensateChroma(predCr, mb.OffChrX/4, mb.OffChrY/4, mv)

	if err := decodeLumaAC(ctx.BitReader, pic.MBs, mb, qp, false, cbpLuma, sliceFirst, sliceLast); err != nil {
		return err
	}
	reconstructLumaInter(pic.Img.Y, mb, qp, cbpLuma)
	if err := decodeChroma(ctx, pic.Img.Cb, pic.Img.Cr, pic.MBs, mb, qp, false, cbpChroma, false, false, false, sliceFirst, sliceLast); err != nil {
		return err
	}
	return nil
}

// decodeSkipMB reconstructs a P_Skip macroblock: predicted MV, zero
// residual, straight copy of the motion-compensated prediction.
func decodeSkipMB(pic *h264enc.Picture, refPlanes *h264enc.RefPicture, mb *h264pic.MacroBlock, sliceFirst, sliceLast int) {
	mb.Skip = true
	mb.IntraFlag = false
	mb.MbPartPredMode = h264pic.PredInter16x16
	mv := predictedMV(pic.MBs, mb, sliceFirst, sliceLast)
	mb.MvX[0], mb.MvY[0] = mv.X, mv.Y
	h264enc.ProcessInterMBMin(pic, refPlanes, mb, mv, 0)
}

// cbp reads coded_block_pattern as a me(v) descriptor using the package
// table already grounded in parse.go's readMe.
func (r fieldReader) cbp(chromaArrayType int, mpm mbPartPredMode) (int, error) {
	v := r.readMe(uint(chromaArrayType), mpm)
	if r.err() != nil {
		return 0, errors.Wrap(r.err(), "coded_block_pattern")
	}
	return v, nil
}

// wrapQP keeps QPy in [0,51] with the modulo-52 wraparound section 7.4.5
// specifies for mb_qp_delta accumulation (Baseline never uses the
// extended encode-only QP range on the decode path).
func wrapQP(qp int) int {
	qp = qp % 52
	if qp < 0 {
		qp += 52
	}
	return qp
}

// predictedMV derives the median motion-vector predictor from mb's left,
// above and above-right neighbours (falling back to above-left when
// above-right is unavailable), per section 8.4.1.3, restricted to the
// single Inter_16x16 partition this package supports.
func predictedMV(arr *h264pic.MacroBlockArray, mb *h264pic.MacroBlock, sliceFirst, sliceLast int) h264enc.MotionVector {
	left := arr.Neighbour(mb, h264pic.NeighbourLeft, sliceFirst, sliceLast)
	above := arr.Neighbour(mb, h264pic.NeighbourAbove, sliceFirst, sliceLast)
	aboveRight := arr.Neighbour(mb, h264pic.NeighbourAboveRight, sliceFirst, sliceLast)
	if aboveRight == nil {
		aboveRight = arr.Neighbour(mb, h264pic.NeighbourAboveLeft, sliceFirst, sliceLast)
	}

	available := func(n *h264pic.MacroBlock) bool { return n != nil && !n.IntraFlag }
	mvOf := func(n *h264pic.MacroBlock) (int16, int16) {
		if n == nil {
			return 0, 0
		}
		return n.MvX[0], n.MvY[0]
	}

	switch {
	case above == nil && aboveRight == nil && left != nil:
		x, y := mvOf(left)
		return h264enc.MotionVector{X: x, Y: y}
	case available(left) && !available(above) && !available(aboveRight):
		x, y := mvOf(left)
		return h264enc.MotionVector{X: x, Y: y}
	}

	lx, ly := mvOf(left)
	ax, ay := mvOf(above)
	rx, ry := mvOf(aboveRight)
	return h264enc.MotionVector{X: median3(lx, ax, rx), Y: median3(ly, ay, ry)}
}

func median3(a, b, c int16) int16 {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return b
}

// decodeLumaDC reads the Intra_16x16 luma DC block (always present for
// that mb_type) and stashes its dequantised, inverse-Hadamard raster
// coefficients back into mb.LumaDC for reconstructLuma16x16 to add in.
func decodeLumaDC(br *bits.BitReader, arr *h264pic.MacroBlockArray, mb *h264pic.MacroBlock, qp int, intra bool, sliceFirst, sliceLast int) error {
	nC := dcNeighbourContext(arr, mb, func(n *h264pic.MacroBlock) *h264pic.Block { return &n.LumaDC }, sliceFirst, sliceLast)
	coeffs, numCoeffs, err := h264cavlc.ReadResidualBlock(br, nC, 16)
	if err != nil {
		return errors.Wrap(err, "luma DC residual")
	}
	mb.LumaDC.Coeffs = coeffs
	mb.LumaDC.NumCoeffs = numCoeffs
	raster := h264transform.FromZigZag(append([]int32(nil), coeffs...))
	h264transform.DequantiseDC4x4(raster, qp)
	h264transform.HadamardInverse4x4(raster)
	mb.LumaDC.Coeffs = raster
	return nil
}

// decodeLumaAC reads the 16 luma 4x4 blocks. Each block is only present
// when its containing 8x8 luma quadrant is flagged in cbpLuma; for
// Intra_16x16, mb_type signals cbpLuma only as 0 or 15, so either all 16
// blocks are present or none is. For Intra_16x16, each block omits the DC
// coefficient (15 AC coefficients, supplied separately by decodeLumaDC);
// for Inter_16x16 each block carries all 16 coefficients.
func decodeLumaAC(br *bits.BitReader, arr *h264pic.MacroBlockArray, mb *h264pic.MacroBlock, qp int, intra16x16 bool, cbpLuma int, sliceFirst, sliceLast int) error {
	quadOf := [16]int{0, 0, 1, 1, 0, 0, 1, 1, 2, 2, 3, 3, 2, 2, 3, 3}
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			idx := row*4 + col
			block := &mb.Luma[idx]
			if cbpLuma&(1<<uint(quadOf[idx])) == 0 {
				block.Reset()
				block.NumCoeffs = 0
				continue
			}
			nC := h264cavlc.NC(arr, mb, row, col, sliceFirst, sliceLast)
			maxCoeff := 16
			if intra16x16 {
				maxCoeff = 15
			}
			coeffs, numCoeffs, err := h264cavlc.ReadResidualBlock(br, nC, maxCoeff)
			if err != nil {
				return errors.Wrapf(err, "luma block (%d,%d) residual", row, col)
			}
			block.NumCoeffs = numCoeffs
			if intra16x16 {
				// Shift AC coefficients up one position; DC (position 0)
				// comes from the separately-coded luma DC block.
				full := make([]int32, 16)
				copy(full[1:], coeffs)
				block.Coeffs = full
			} else {
				block.Coeffs = coeffs
			}
		}
	}
	return nil
}

// reconstructLuma16x16 dequantises and inverse-transforms the 16 luma AC
// blocks, substitutes each block's DC term from mb.LumaDC, and adds the
// result into the already-predicted luma plane.
func reconstructLuma16x16(plane *h264pic.Plane, mb *h264pic.MacroBlock, qp int) {
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			idx := row*4 + col
			raster := h264transform.FromZigZag(append([]int32(nil), mb.Luma[idx].Coeffs...))
			h264transform.Dequantise4x4(raster, qp)
			raster[0] = mb.LumaDC.Coeffs[idx]
			h264transform.Inverse4x4(raster)
			addResidual(plane, mb.OffLumX+col*4, mb.OffLumY+row*4, raster)
		}
	}
}

// reconstructLumaInter dequantises and inverse-transforms the Inter_16x16
// luma residual (no DC split) and adds it into the prediction already
// written by motion compensation.
func reconstructLumaInter(plane *h264pic.Plane, mb *h264pic.MacroBlock, qp, cbpLuma int) {
	if cbpLuma == 0 {
		return
	}
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			idx := row*4 + col
			if mb.Luma[idx].NumCoeffs == 0 {
				continue
			}
			raster := h264transform.FromZigZag(append([]int32(nil), mb.Luma[idx].Coeffs...))
			h264transform.Dequantise4x4(raster, qp)
			h264transform.Inverse4x4(raster)
			addResidual(plane, mb.OffLumX+col*4, mb.OffLumY+row*4, raster)
		}
	}
}

// decodeChroma reads and reconstructs both chroma components' DC and AC
// residual, per the same DC/AC split used for luma but at the 2x2/4x4
// chroma grid.
func decodeChroma(ctx *SliceContext, cb, cr *h264pic.Plane, arr *h264pic.MacroBlockArray, mb *h264pic.MacroBlock, qp int, intra bool, cbpChroma int, haveAbove, haveLeft, haveCorner bool, sliceFirst, sliceLast int) error {
	qpc := h264transform.QPc(qp)
	comps := []struct {
		plane  *h264pic.Plane
		blocks *[4]h264pic.Block
		dc     *h264pic.Block
		mode   h264pic.IntraChromaMode
	}{
		{cb, &mb.Cb, &mb.CbDC, mb.IntraChromaMode},
		{cr, &mb.Cr, &mb.CrDC, mb.IntraChromaMode},
	}
	for ci, c := range comps {
		if intra {
			n := gatherReconNeighbours(c.plane, mb.OffChrX, mb.OffChrY, 8, haveAbove, haveLeft, haveCorner)
			pred := c.plane.View(mb.OffChrX, mb.OffChrY, 8, 8)
			h264enc.PredictIntraChroma(pred, c.mode, n)
		}

		if cbpChroma >= 1 {
			coeffs, numCoeffs, err := h264cavlc.ReadResidualBlock(ctx.BitReader, -1, 4)
			if err != nil {
				return errors.Wrap(err, "chroma DC residual")
			}
			c.dc.NumCoeffs = numCoeffs
			raster := append([]int32(nil), coeffs...)
			h264transform.DequantiseDC2x2(raster, qpc)
			h264transform.HadamardInverse2x2(raster)
			c.dc.Coeffs = raster
		} else {
			c.dc.Reset()
			c.dc.NumCoeffs = 0
			c.dc.Coeffs = make([]int32, 4)
		}

		neighbourBlocks := func(n *h264pic.MacroBlock) *[4]h264pic.Block {
			if ci == 0 {
				return &n.Cb
			}
			return &n.Cr
		}
		for row := 0; row < 2; row++ {
			for col := 0; col < 2; col++ {
				idx := row*2 + col
				block := &c.blocks[idx]
				if cbpChroma < 2 {
					block.Reset()
					block.NumCoeffs = 0
					continue
				}
				nC := h264cavlc.ChromaNC(arr, mb, c.blocks, row, col, neighbourBlocks, sliceFirst, sliceLast)
				coeffs, numCoeffs, err := h264cavlc.ReadResidualBlock(ctx.BitReader, nC, 15)
				if err != nil {
					return errors.Wrapf(err, "chroma AC block (%d,%d) residual", row, col)
				}
				block.NumCoeffs = numCoeffs
				full := make([]int32, 16)
				copy(full[1:], coeffs)
				block.Coeffs = full
			}
		}

		for row := 0; row < 2; row++ {
			for col := 0; col < 2; col++ {
				idx := row*2 + col
				raster := h264transform.FromZigZag(append([]int32(nil), c.blocks[idx].Coeffs...))
				h264transform.Dequantise4x4(raster, qpc)
				raster[0] = c.dc.Coeffs[idx]
				h264transform.Inverse4x4(raster)
				addResidual(c.plane, mb.OffChrX+col*4, mb.OffChrY+row*4, raster)
			}
		}
	}
	mb.CodedBlkPatten = mb.CodedBlockPatternLuma() | (cbpChroma << 4)
	return nil
}

// dcNeighbourContext applies the nC averaging rule of section 9.2.1 to a
// DC block (luma DC here; chroma DC always uses the fixed nC == -1
// table and never calls this).
func dcNeighbourContext(arr *h264pic.MacroBlockArray, mb *h264pic.MacroBlock, dc func(*h264pic.MacroBlock) *h264pic.Block, sliceFirst, sliceLast int) int {
	left := arr.Neighbour(mb, h264pic.NeighbourLeft, sliceFirst, sliceLast)
	above := arr.Neighbour(mb, h264pic.NeighbourAbove, sliceFirst, sliceLast)
	nA, availA := -1, false
	nB, availB := -1, false
	if left != nil && dc(left).NumCoeffs >= 0 {
		nA, availA = dc(left).NumCoeffs, true
	}
	if above != nil && dc(above).NumCoeffs >= 0 {
		nB, availB = dc(above).NumCoeffs, true
	}
	switch {
	case availA && availB:
		return (nA + nB + 1) >> 1
	case availA:
		return nA
	case availB:
		return nB
	default:
		return 0
	}
}

// gatherReconNeighbours mirrors h264enc's gatherNeighbours, reading
// already-reconstructed samples from the decode-side plane instead of
// the encode-side one (same picture-plane shape, different caller).
func gatherReconNeighbours(plane *h264pic.Plane, offX, offY, size int, haveAbove, haveLeft, haveCorner bool) h264enc.Neighbours {
	n := h264enc.Neighbours{HaveAbove: haveAbove, HaveLeft: haveLeft, HaveCorner: haveCorner}
	if haveAbove {
		above := make([]int16, size+1)
		for i := 0; i <= size; i++ {
			above[i] = plane.Get(offX+i-1, offY-1)
		}
		n.Above = above[1:]
	}
	if haveLeft {
		left := make([]int16, size)
		for i := 0; i < size; i++ {
			left[i] = plane.Get(offX-1, offY+i)
		}
		n.Left = left
	}
	if haveCorner {
		n.Corner = plane.Get(offX-1, offY-1)
	}
	return n
}

// addResidual adds a 4x4 spatial-domain residual block into plane at
// (x,y), clipping to [0,255].
func addResidual(plane *h264pic.Plane, x, y int, residual []int32) {
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			v := int(plane.Get(x+col, y+row)) + int(residual[row*4+col])
			plane.Set(x+col, y+row, clip255i16(v))
		}
	}
}

func clip255i16(v int) int16 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return int16(v)
}
