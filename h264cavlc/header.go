/*
DESCRIPTION
  header.go encodes the macroblock-layer syntax elements that sit around
  a macroblock's residual blocks: mb_skip_run, mb_type, intra_chroma_pred_mode,
  mvd_l0 and mb_qp_delta, the inverse of the reads slicedata.go performs
  in DecodePicture.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package h264cavlc

import (
	"github.com/ausocean/h264codec/codec/h264/h264dec/bits"
	"github.com/ausocean/h264codec/h264pic"
)

// WriteMbSkipRun writes mb_skip_run as ue(v), the count of consecutive
// skipped macroblocks preceding a coded one in a P slice.
func WriteMbSkipRun(bw *bits.BitWriter, n int) {
	bw.WriteUE(uint(n))
}

// mbTypeInter16x16 is the mb_type codeword for P_L0_16x16, the only
// inter macroblock partition this package supports.
const mbTypeInter16x16 = 0

// WriteMbTypeInter16x16 writes mb_type for a P_L0_16x16 macroblock.
func WriteMbTypeInter16x16(bw *bits.BitWriter) {
	bw.WriteUE(mbTypeInter16x16)
}

// WriteMbTypeIntra16x16 writes mb_type for an Intra_16x16 macroblock,
// folding (mode, cbpChroma, cbpLuma) into the single codeword table 7-11
// uses, the inverse of slicedata.go's mbTypeIntra16x16. cbpLuma must be
// 0 or 15, the only two values Intra_16x16 ever carries.
func WriteMbTypeIntra16x16(bw *bits.BitWriter, mode h264pic.Intra16x16Mode, cbpChroma, cbpLuma int) {
	t := int(mode) + 4*cbpChroma
	if cbpLuma != 0 {
		t += 12
	}
	bw.WriteUE(uint(t + 1))
}

// WriteIntraChromaPredMode writes intra_chroma_pred_mode as ue(v).
func WriteIntraChromaPredMode(bw *bits.BitWriter, mode h264pic.IntraChromaMode) {
	bw.WriteUE(uint(mode))
}

// WriteMbQPDelta writes mb_qp_delta as se(v).
func WriteMbQPDelta(bw *bits.BitWriter, delta int) {
	bw.WriteSE(delta)
}

// WriteMVD writes mvd_l0 (x then y) for the single Inter_16x16 partition,
// each component a dedicated signed Exp-Golomb code per section 7.3.5.1.
func WriteMVD(bw *bits.BitWriter, mvdX, mvdY int) {
	bw.WriteSE(mvdX)
	bw.WriteSE(mvdY)
}
