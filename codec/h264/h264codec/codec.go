/*
DESCRIPTION
  codec.go implements Codec, the Open/Code/Decode/Close lifecycle that
  drives h264pic/h264enc/h264cavlc/h264dblk/h264dec/ratecontrol into a
  single-reference, CAVLC-only Baseline-profile encoder and decoder, per
  section 4's picture-coding loop and section 6's bitstream layer.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package h264codec

import (
	"bytes"
	"fmt"

	"github.com/ausocean/h264codec/codec/h264/h264dec"
	"github.com/ausocean/h264codec/codec/h264/h264dec/bits"
	"github.com/ausocean/h264codec/h264cavlc"
	"github.com/ausocean/h264codec/h264dblk"
	"github.com/ausocean/h264codec/h264enc"
	"github.com/ausocean/h264codec/h264enc/ratecontrol"
	"github.com/ausocean/h264codec/h264pic"
)

// Log describes the logging hook a Codec is driven with, matching the
// signature ausocean/utils/logging.Logger's methods are adapted to (the
// same idiom codec/h264/h264dec uses for its own package logger).
type Log func(lvl int8, msg string, args ...interface{})

func noopLog(lvl int8, msg string, args ...interface{}) {}

// Codec is a single open encode/decode session: one current picture, one
// reference picture, and the motion/rate-control state carried between
// Code calls. Not safe for concurrent use.
type Codec struct {
	params Params
	log    Log

	widthMbs, heightMbs int

	cur       *h264enc.Picture
	ref       *h264enc.Picture
	refPlanes *h264enc.RefPicture
	haveRef   bool

	estimator *h264enc.Estimator
	rc        *ratecontrol.Controller

	// vid carries the SPS/PPS a Decode call has parsed so far; Code never
	// reads it back, since this package's own Params is its encode-side
	// parameter-set source of truth.
	vid *h264dec.VideoStream

	out        bytes.Buffer
	bitsCoded  int
	bytesCoded int
}

// NewCodec returns an unopened Codec. log may be nil, in which case
// logging is a no-op.
func NewCodec(log Log) *Codec {
	if log == nil {
		log = noopLog
	}
	return &Codec{log: log}
}

// Open allocates the current/reference picture buffers and motion/rate
// control state for p's dimensions and configuration. Calling Open again
// on an already-open Codec reinitialises it, discarding any reference
// picture.
func (c *Codec) Open(p Params) error {
	if p.Width == 0 || p.Width%16 != 0 || p.Height == 0 || p.Height%16 != 0 {
		return fmt.Errorf("h264codec: width %d and height %d must be nonzero multiples of 16", p.Width, p.Height)
	}
	c.params = p
	c.widthMbs = int(p.Width) / 16
	c.heightMbs = int(p.Height) / 16

	curImg, err := h264pic.NewImage(int(p.Width), int(p.Height))
	if err != nil {
		return fmt.Errorf("h264codec: %w", err)
	}
	refImg, err := h264pic.NewImage(int(p.Width), int(p.Height))
	if err != nil {
		return fmt.Errorf("h264codec: %w", err)
	}
	c.cur = &h264enc.Picture{Img: curImg, MBs: h264pic.NewMacroBlockArray(c.widthMbs, c.heightMbs)}
	c.ref = &h264enc.Picture{Img: refImg, MBs: h264pic.NewMacroBlockArray(c.widthMbs, c.heightMbs)}
	c.refPlanes = h264enc.NewRefPicture(c.ref.Img.Y, c.ref.Img.Cb, c.ref.Img.Cr)
	c.haveRef = false

	c.estimator = h264enc.NewEstimator(h264enc.RangeForDimensions(int(p.Width), int(p.Height)))

	// TargetBits per picture is a coarse bits-per-pixel estimate scaled
	// by Quality; ModeMinMaxAdaptive is the only mode that actually
	// bisects against it (see Code), ModeOpen always codes at p.Quality
	// directly.
	targetBits := int(p.Width) * int(p.Height) * (52 - p.Quality) / 64
	if targetBits < 1 {
		targetBits = 1
	}
	c.rc = ratecontrol.NewController(targetBits, 1, 51)

	c.vid = nil
	c.out.Reset()
	c.bitsCoded, c.bytesCoded = 0, 0
	c.log(0, "h264codec: opened", "width", p.Width, "height", p.Height)
	return nil
}

// Close releases a Codec's picture buffers, leaving it unopened.
func (c *Codec) Close() {
	c.cur, c.ref, c.refPlanes = nil, nil, nil
	c.estimator, c.rc, c.vid = nil, nil, nil
	c.out.Reset()
}

// GetCompressedBitLength reports the length in bits of the slice RBSP
// (slice header, slice data and trailing bits, before emulation
// prevention) produced by the most recent Code call.
// GetCompressedByteLength reports the length in bytes of that call's
// whole Annex-B byte stream, including start codes, NAL headers and any
// SPS/PPS.
func (c *Codec) GetCompressedBitLength() int  { return c.bitsCoded }
func (c *Codec) GetCompressedByteLength() int { return c.bytesCoded }

// Bytes returns the Annex-B byte stream produced by the most recent Code
// call.
func (c *Codec) Bytes() []byte {
	return append([]byte(nil), c.out.Bytes()...)
}

// RateTrace returns the (QP, bits) sample recorded for every picture
// coded so far under ModeMinMaxAdaptive. It is nil until Open and empty
// under ModeOpen, which codes at a fixed QP and records no samples.
func (c *Codec) RateTrace() []ratecontrol.Sample {
	if c.rc == nil {
		return nil
	}
	return c.rc.Trace()
}

// Code encodes one picture of raw 4:2:0 planar YUV samples (as produced
// by h264pic.Image.ToYUV420) according to p.PictureCodingType, returning
// 1 on success and 0 on error, matching the external Code()/1-or-0
// convention. The encoded Annex-B bytes are retrieved afterward via
// Bytes.
func (c *Codec) Code(yuv []byte) int {
	if err := c.code(yuv); err != nil {
		c.log(3, "h264codec: Code failed", "error", err)
		return 0
	}
	return 1
}

func (c *Codec) code(yuv []byte) error {
	if c.cur == nil {
		return fmt.Errorf("h264codec: Code called before Open")
	}
	img, err := h264pic.FromYUV420(int(c.params.Width), int(c.params.Height), yuv)
	if err != nil {
		return fmt.Errorf("h264codec: %w", err)
	}
	c.cur.Img = img
	c.cur.MBs.Reset()

	idrPic := c.params.PictureCodingType == PictureI || !c.haveRef
	qp := c.chooseQP()

	c.out.Reset()
	if c.params.GenParamSetOnOpen || (c.params.PrependParamSetsToIPictures && idrPic) {
		writeNAL(&c.out, 1, nalTypeSPS, writeSPS(&c.params), c.params.StartCodeEmulationPrevention)
		writeNAL(&c.out, 1, nalTypePPS, writePPS(&c.params), c.params.StartCodeEmulationPrevention)
	}

	sliceBits := bits.NewBitWriter()
	frameNum := c.params.IDRFrameNumber
	if !idrPic {
		frameNum = c.params.PFrameNumber
	}
	writeSliceHeader(sliceBits, &c.params, sliceHeaderParams{
		idrPic:   idrPic,
		frameNum: frameNum,
		idrPicID: 0,
		qp:       qp,
	})

	sliceFirst, sliceLast := 0, len(c.cur.MBs.MBs)-1
	if idrPic {
		if err := c.codeIPicture(sliceBits, qp, sliceFirst, sliceLast); err != nil {
			return err
		}
	} else {
		c.estimator.SetReference(c.ref.Img.Y)
		c.refPlanes.PrepareForSingleVectorMode()
		if err := c.codePPicture(sliceBits, qp, sliceFirst, sliceLast); err != nil {
			return err
		}
	}
	sliceBits.WriteTrailingBits()

	nalType := byte(nalTypeSliceNonIDR)
	if idrPic {
		nalType = nalTypeSliceIDR
	}
	rbsp := sliceBits.Bytes()
	writeNAL(&c.out, 1, nalType, rbsp, c.params.StartCodeEmulationPrevention)

	c.bitsCoded = sliceBits.BitLength()
	c.bytesCoded = c.out.Len()
	if c.params.ModeOfOperation == ModeMinMaxAdaptive {
		c.rc.Record(qp, c.bitsCoded)
	}

	h264dblk.FilterPicture(c.cur.MBs, c.cur.Img.Y, c.cur.Img.Cb, c.cur.Img.Cr, sliceFirst, sliceLast, 0, 0)

	c.cur, c.ref = c.ref, c.cur
	c.refPlanes = h264enc.NewRefPicture(c.ref.Img.Y, c.ref.Img.Cb, c.ref.Img.Cr)
	c.haveRef = true
	if idrPic {
		c.params.IDRFrameNumber++
		c.params.PFrameNumber = c.params.IDRFrameNumber
	} else {
		c.params.PFrameNumber++
	}
	return nil
}

// chooseQP returns the QP to code the next picture at: ModeOpen always
// codes at Params.Quality, ModeMinMaxAdaptive bisects the rate
// controller's R(D) fit against its bits-per-picture budget, falling
// back to DamageControl if the standard QP range cannot meet it.
func (c *Codec) chooseQP() int {
	if c.params.ModeOfOperation != ModeMinMaxAdaptive {
		return c.params.Quality
	}
	qp, _ := c.rc.ChooseQP()
	if qp > 51 {
		if qp2, _, err := c.rc.DamageControl(); err == nil {
			qp = qp2
		}
	}
	return qp
}

// codeIPicture codes every macroblock of the current picture as
// Intra_16x16, in raster order, writing mb_type/intra_chroma_pred_mode/
// mb_qp_delta/coded_block_pattern and every residual block as it goes,
// mirroring codec/h264/h264dec/slicedata.go's decodeIntra16x16 read
// order exactly so the bitstream decodes back correctly.
func (c *Codec) codeIPicture(bw *bits.BitWriter, qp int, sliceFirst, sliceLast int) error {
	for _, mb := range c.cur.MBs.MBs {
		haveAbove := mb.Row > 0
		haveLeft := mb.Col > 0
		haveCorner := haveAbove && haveLeft

		lumaN := h264enc.GatherNeighbours(c.cur.Img.Y, mb.OffLumX, mb.OffLumY, 16, haveAbove, haveLeft, haveCorner)
		mode := h264enc.SelectIntra16x16Mode(c.cur.Img.Y, mb.OffLumX, mb.OffLumY, lumaN, haveAbove, haveLeft)

		cbN := h264enc.GatherNeighbours(c.cur.Img.Cb, mb.OffChrX, mb.OffChrY, 8, haveAbove, haveLeft, haveCorner)
		crN := h264enc.GatherNeighbours(c.cur.Img.Cr, mb.OffChrX, mb.OffChrY, 8, haveAbove, haveLeft, haveCorner)
		chromaMode := h264enc.SelectIntraChromaMode(c.cur.Img.Cb, c.cur.Img.Cr, mb.OffChrX, mb.OffChrY, cbN, crN, haveAbove, haveLeft)

		h264enc.ProcessIntraMB(c.cur, mb, mode, chromaMode, qp)

		cbpLuma := mb.CodedBlockPatternLuma()
		cbpChroma := mb.CodedBlockPatternChroma()
		h264cavlc.WriteMbTypeIntra16x16(bw, mode, cbpChroma, cbpLuma)
		h264cavlc.WriteIntraChromaPredMode(bw, chromaMode)
		h264cavlc.WriteMbQPDelta(bw, mb.MbQP-qp)

		dcNC := dcNeighbourContext(c.cur.MBs, mb, func(n *h264pic.MacroBlock) *h264pic.Block { return &n.LumaDC }, sliceFirst, sliceLast)
		if err := h264cavlc.WriteResidualBlock(bw, mb.LumaDC.Coeffs, dcNC, 16); err != nil {
			return fmt.Errorf("h264codec: luma DC residual: %w", err)
		}
		// Intra_16x16's mb_type signals cbpLuma only as 0 or 15, so either
		// all 16 AC blocks are coded or none is.
		for i := 0; i < 16; i++ {
			if cbpLuma == 0 {
				continue
			}
			row, col := i/4, i%4
			nC := h264cavlc.NC(c.cur.MBs, mb, row, col, sliceFirst, sliceLast)
			if err := h264cavlc.WriteResidualBlock(bw, mb.Luma[i].Coeffs, nC, 15); err != nil {
				return fmt.Errorf("h264codec: luma AC residual %d: %w", i, err)
			}
		}
		if err := c.codeChroma(bw, mb, cbpChroma, sliceFirst, sliceLast); err != nil {
			return err
		}
	}
	return nil
}

// codePPicture codes every macroblock as either P_Skip or Inter_16x16: a
// macroblock is skipped when the motion search's best vector equals the
// predicted vector at zero SAD, and coded as Inter_16x16 otherwise,
// mirroring decodeInter16x16/decodeSkipMB's read order.
func (c *Codec) codePPicture(bw *bits.BitWriter, qp int, sliceFirst, sliceLast int) error {
	skipRun := 0
	for _, mb := range c.cur.MBs.MBs {
		predictor := predictedMV(c.cur.MBs, mb, sliceFirst, sliceLast)
		mv, cost := c.estimator.Search(c.cur.Img.Y, mb.OffLumX, mb.OffLumY, predictor)

		if cost == 0 && mv == predictor {
			h264enc.ProcessInterMBMin(c.cur, c.refPlanes, mb, mv, 0)
			skipRun++
			continue
		}

		h264cavlc.WriteMbSkipRun(bw, skipRun)
		skipRun = 0
		h264cavlc.WriteMbTypeInter16x16(bw)

		h264enc.ProcessInterMB(c.cur, c.refPlanes, mb, mv, 0, qp)
		mb.MvdX[0] = mv.X - predictor.X
		mb.MvdY[0] = mv.Y - predictor.Y
		h264cavlc.WriteMVD(bw, int(mb.MvdX[0]), int(mb.MvdY[0]))

		cbpLuma := mb.CodedBlockPatternLuma()
		cbpChroma := mb.CodedBlockPatternChroma()
		if err := h264cavlc.WriteCBP(bw, mb.CodedBlkPatten, c.chromaArrayType(), false); err != nil {
			return fmt.Errorf("h264codec: coded_block_pattern: %w", err)
		}
		if mb.CodedBlkPatten != 0 {
			h264cavlc.WriteMbQPDelta(bw, mb.MbQP-qp)
		}

		quadOf := [16]int{0, 0, 1, 1, 0, 0, 1, 1, 2, 2, 3, 3, 2, 2, 3, 3}
		for i := 0; i < 16; i++ {
			if cbpLuma&(1<<uint(quadOf[i])) == 0 {
				continue
			}
			row, col := i/4, i%4
			nC := h264cavlc.NC(c.cur.MBs, mb, row, col, sliceFirst, sliceLast)
			if err := h264cavlc.WriteResidualBlock(bw, mb.Luma[i].Coeffs, nC, 16); err != nil {
				return fmt.Errorf("h264codec: luma residual %d: %w", i, err)
			}
		}
		if err := c.codeChroma(bw, mb, cbpChroma, sliceFirst, sliceLast); err != nil {
			return err
		}
	}
	if skipRun > 0 {
		h264cavlc.WriteMbSkipRun(bw, skipRun)
	}
	return nil
}

// codeChroma writes the Cb then Cr DC and (when cbpChroma signals AC
// coefficients) AC residual blocks for mb, shared by the I and P coding
// paths since chroma residual coding does not depend on the luma
// prediction mode.
func (c *Codec) codeChroma(bw *bits.BitWriter, mb *h264pic.MacroBlock, cbpChroma int, sliceFirst, sliceLast int) error {
	for _, ch := range []struct {
		blocks *[4]h264pic.Block
		dc     *h264pic.Block
		field  func(*h264pic.MacroBlock) *[4]h264pic.Block
	}{
		{&mb.Cb, &mb.CbDC, func(n *h264pic.MacroBlock) *[4]h264pic.Block { return &n.Cb }},
		{&mb.Cr, &mb.CrDC, func(n *h264pic.MacroBlock) *[4]h264pic.Block { return &n.Cr }},
	} {
		if cbpChroma >= 1 {
			if err := h264cavlc.WriteResidualBlock(bw, ch.dc.Coeffs, -1, 4); err != nil {
				return fmt.Errorf("h264codec: chroma DC residual: %w", err)
			}
		}
		if cbpChroma >= 2 {
			for i := 0; i < 4; i++ {
				row, col := i/2, i%2
				nC := h264cavlc.ChromaNC(c.cur.MBs, mb, ch.blocks, row, col, ch.field, sliceFirst, sliceLast)
				if err := h264cavlc.WriteResidualBlock(bw, ch.blocks[i].Coeffs, nC, 15); err != nil {
					return fmt.Errorf("h264codec: chroma AC residual %d: %w", i, err)
				}
			}
		}
	}
	return nil
}

func (c *Codec) chromaArrayType() int { return 1 } // 4:2:0, the only format this package codes.

// dcNeighbourContext mirrors codec/h264/h264dec/slicedata.go's
// unexported function of the same name: the nC averaging rule (section
// 9.2.1) applied to a DC block's causal left/above neighbour, rather
// than a 4x4 AC block's.
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

// predictedMV mirrors codec/h264/h264dec/slicedata.go's unexported
// function of the same name: the median motion-vector predictor of
// section 8.4.1.3, restricted to this package's single Inter_16x16
// partition and single reference index.
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

// Decode parses one Annex-B access unit (one or more NAL units,
// typically SPS+PPS+slice for the first IDR picture, slice alone
// thereafter), updating the Codec's SPS/PPS/reference state and
// returning the decoded picture as planar 4:2:0 YUV. It bypasses
// codec/h264/h264dec's picture-order-count bookkeeping entirely: this
// package always codes pic_order_cnt_type 2, so frame_num alone orders
// pictures and no POC state needs tracking between calls.
func (c *Codec) Decode(annexB []byte) ([]byte, error) {
	if c.cur == nil {
		return nil, fmt.Errorf("h264codec: Decode called before Open")
	}
	nals, err := splitNALs(annexB)
	if err != nil {
		return nil, fmt.Errorf("h264codec: %w", err)
	}

	var decoded []byte
	for _, nal := range nals {
		br := bits.NewBitReader(bytes.NewReader(nal))
		nalUnit, err := h264dec.NewNALUnit(br)
		if err != nil {
			return nil, fmt.Errorf("h264codec: NAL unit: %w", err)
		}
		switch nalUnit.Type {
		case nalTypeSPS:
			sps, err := h264dec.NewSPS(nalUnit.RBSP, false)
			if err != nil {
				return nil, fmt.Errorf("h264codec: SPS: %w", err)
			}
			if c.vid == nil {
				c.vid = &h264dec.VideoStream{}
			}
			c.vid.SPS = sps
		case nalTypePPS:
			if c.vid == nil || c.vid.SPS == nil {
				return nil, fmt.Errorf("h264codec: PPS before SPS")
			}
			pps, err := h264dec.NewPPS(bits.NewBitReader(bytes.NewReader(nalUnit.RBSP)), int(c.vid.SPS.ChromaFormatIDC))
			if err != nil {
				return nil, fmt.Errorf("h264codec: PPS: %w", err)
			}
			c.vid.PPS = pps
		case nalTypeSliceIDR, nalTypeSliceNonIDR:
			if c.vid == nil || c.vid.SPS == nil || c.vid.PPS == nil {
				return nil, fmt.Errorf("h264codec: slice before SPS/PPS")
			}
			ctx, err := h264dec.NewSliceContext(c.vid, nalUnit, nalUnit.RBSP, false)
			if err != nil {
				return nil, fmt.Errorf("h264codec: slice header: %w", err)
			}
			c.cur.MBs.Reset()
			var ref *h264enc.Picture
			if nalUnit.Type == nalTypeSliceNonIDR {
				ref = c.ref
			}
			if err := h264dec.DecodePicture(ctx, c.cur, ref); err != nil {
				return nil, fmt.Errorf("h264codec: slice data: %w", err)
			}
			sliceFirst, sliceLast := 0, len(c.cur.MBs.MBs)-1
			h264dblk.FilterPicture(c.cur.MBs, c.cur.Img.Y, c.cur.Img.Cb, c.cur.Img.Cr, sliceFirst, sliceLast, 0, 0)
			decoded = c.cur.Img.ToYUV420()
			c.cur, c.ref = c.ref, c.cur
			c.haveRef = true
		}
	}
	if decoded == nil {
		return nil, fmt.Errorf("h264codec: no slice NAL in access unit")
	}
	return decoded, nil
}
