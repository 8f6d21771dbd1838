/*
DESCRIPTION
  nal.go assembles and splits Annex-B NAL units: start-code emission,
  start-code emulation prevention insertion/removal, and the fixed
  Baseline-profile SPS/PPS/slice-header bitstream this package emits and
  expects (profile_idc 66, pic_order_cnt_type 2, single reference frame,
  CAVLC entropy coding), per section 6's wire format and section 4.7's
  emulation prevention rule.

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

	"github.com/ausocean/h264codec/codec/h264/h264dec/bits"
)

// NAL unit types used on the wire, per table 7-1.
const (
	nalTypeSliceNonIDR = 1
	nalTypeSliceIDR    = 5
	nalTypeSPS         = 7
	nalTypePPS         = 8
)

// Slice types transmitted on the wire: every macroblock in the slice
// uses the same coding type, so only the "_All" variants are ever sent.
const (
	sliceTypeISliceAll = 7
	sliceTypePSliceAll = 5
)

// profileIDC and levelIDC are fixed at Baseline profile, level 2.0, the
// only combination this package's SPS writer produces.
const (
	profileIDC = 66
	levelIDC   = 20
)

// startCode is the Annex-B NAL start code this package always emits in
// its 4-byte form, never the 3-byte short form.
var startCode = []byte{0x00, 0x00, 0x00, 0x01}

// insertEmulationPrevention scans rbsp and inserts an
// emulation_prevention_three_byte (0x03) whenever two consecutive zero
// bytes would otherwise be followed by a byte of 0x00, 0x01, 0x02 or
// 0x03, the inverse of nalunit.go's removal loop, per section 7.4.1.1.
func insertEmulationPrevention(rbsp []byte) []byte {
	out := make([]byte, 0, len(rbsp)+len(rbsp)/3+1)
	zeros := 0
	for _, b := range rbsp {
		if zeros >= 2 && b <= 0x03 {
			out = append(out, 0x03)
			zeros = 0
		}
		out = append(out, b)
		if b == 0x00 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return out
}

// writeNAL appends one Annex-B NAL unit (start code, header byte, and
// emulation-prevented RBSP) to dst.
func writeNAL(dst *bytes.Buffer, refIdc, nalType byte, rbsp []byte, preventEmulation bool) {
	dst.Write(startCode)
	dst.WriteByte(refIdc<<5 | nalType)
	if preventEmulation {
		dst.Write(insertEmulationPrevention(rbsp))
	} else {
		dst.Write(rbsp)
	}
}

// nalSplitter walks an Annex-B byte stream looking for start codes,
// grounded on codec/h264/parse.go's frameScanner (the same byte-slice
// scanning approach, generalised to return every NAL rather than just
// locate one).
type nalSplitter struct {
	off int
	buf []byte
}

func (s *nalSplitter) readByte() (b byte, ok bool) {
	if s.off >= len(s.buf) {
		return 0, false
	}
	b = s.buf[s.off]
	s.off++
	return b, true
}

// splitNALs returns the header+RBSP bytes (start code stripped) of every
// NAL unit in an Annex-B byte stream, in order. Emulation-prevention
// bytes are left in place; NewNALUnit strips them while reading.
func splitNALs(data []byte) ([][]byte, error) {
	var starts []int
	s := nalSplitter{buf: data}
	for {
		b, ok := s.readByte()
		if !ok {
			break
		}
		if b != 0x00 {
			continue
		}
		for i := 1; b == 0x00 && i != 4; i++ {
			b, ok = s.readByte()
			if !ok {
				break
			}
			if b == 0x01 && (i == 2 || i == 3) {
				starts = append(starts, s.off)
				break
			}
		}
	}
	if len(starts) == 0 {
		return nil, fmt.Errorf("h264codec: no start code found")
	}
	nals := make([][]byte, 0, len(starts))
	for i, start := range starts {
		end := len(data)
		if i+1 < len(starts) {
			end = nextStartCodeBegin(data, starts[i+1])
		}
		nals = append(nals, data[start:end])
	}
	return nals, nil
}

// nextStartCodeBegin walks back from the 3/4-byte start code ending at
// afterStart to find where its leading zero bytes began, so the
// preceding NAL's slice excludes them.
func nextStartCodeBegin(data []byte, afterStart int) int {
	i := afterStart - 2 // Back over the 0x01 and one zero byte.
	for i > 0 && data[i-1] == 0x00 {
		i--
	}
	return i
}

// writeSPS builds seq_parameter_set_rbsp() for the fixed Baseline
// profile this package targets: chroma_format_idc 1, frame_mbs_only_flag
// 1, pic_order_cnt_type 2 (no explicit POC tracking, frame_num alone
// orders pictures), a single reference frame, no cropping and no VUI.
func writeSPS(p *Params) []byte {
	bw := bits.NewBitWriter()
	bw.WriteBits(profileIDC, 8)
	bw.WriteBits(0, 8) // constraint_set flags + reserved_zero_2bits.
	bw.WriteBits(levelIDC, 8)
	bw.WriteUE(uint(p.SeqParamSet))
	bw.WriteUE(1) // chroma_format_idc: 4:2:0.
	bw.WriteUE(0) // bit_depth_luma_minus8.
	bw.WriteUE(0) // bit_depth_chroma_minus8.
	bw.WriteBit(0) // qpprime_y_zero_transform_bypass_flag.
	bw.WriteBit(0) // seq_scaling_matrix_present_flag.
	bw.WriteUE(uint(p.SeqParamLog2MaxFrameNumMinus4))
	bw.WriteUE(2) // pic_order_cnt_type.
	bw.WriteUE(1) // max_num_ref_frames.
	bw.WriteBit(0) // gaps_in_frame_num_value_allowed_flag.
	bw.WriteUE(uint(p.Width/16 - 1))
	bw.WriteUE(uint(p.Height/16 - 1))
	bw.WriteBit(1) // frame_mbs_only_flag.
	bw.WriteBit(1) // direct_8x8_inference_flag.
	bw.WriteBit(0) // frame_cropping_flag.
	bw.WriteBit(0) // vui_parameters_present_flag.
	bw.WriteTrailingBits()
	return bw.Bytes()
}

// writePPS builds pic_parameter_set_rbsp(): single slice group, CAVLC
// entropy coding, constrained intra prediction (so an I macroblock never
// predicts from an inter neighbour), and no PPS-level deblocking filter
// override.
func writePPS(p *Params) []byte {
	bw := bits.NewBitWriter()
	bw.WriteUE(uint(p.PicParamSet))
	bw.WriteUE(uint(p.SeqParamSet))
	bw.WriteBit(0) // entropy_coding_mode_flag: CAVLC.
	bw.WriteBit(0) // bottom_field_pic_order_in_frame_present_flag.
	bw.WriteUE(0) // num_slice_groups_minus1.
	bw.WriteUE(0) // num_ref_idx_l0_default_active_minus1.
	bw.WriteUE(0) // num_ref_idx_l1_default_active_minus1.
	bw.WriteBit(0) // weighted_pred_flag.
	bw.WriteBits(0, 2) // weighted_bipred_idc.
	bw.WriteSE(p.Quality - 26) // pic_init_qp_minus26.
	bw.WriteSE(0) // pic_init_qs_minus26.
	bw.WriteSE(0) // chroma_qp_index_offset.
	bw.WriteBit(0) // deblocking_filter_control_present_flag.
	bw.WriteBit(1) // constrained_intra_pred_flag.
	bw.WriteBit(0) // redundant_pic_cnt_present_flag.
	bw.WriteTrailingBits()
	return bw.Bytes()
}

// sliceHeaderParams carries the per-picture values writeSliceHeader
// needs beyond the fixed Params configuration.
type sliceHeaderParams struct {
	idrPic   bool
	frameNum int
	idrPicID int
	qp       int // The slice's actual QPy; slice_qp_delta is derived from p.Quality.
}

// writeSliceHeader writes slice_header() up to and including
// slice_qp_delta; the caller appends slice_data() and rbsp_trailing_bits
// to the same RBSP. Mirrors codec/h264/h264dec/slice.go's NewSliceContext
// field for field: num_ref_idx_active_override_flag is not written for a
// P slice, and NewSliceContext does not read it for one either.
func writeSliceHeader(bw *bits.BitWriter, p *Params, hp sliceHeaderParams) {
	bw.WriteUE(0) // first_mb_in_slice.
	sliceType := sliceTypeISliceAll
	if !hp.idrPic {
		sliceType = sliceTypePSliceAll
	}
	bw.WriteUE(uint(sliceType))
	bw.WriteUE(uint(p.PicParamSet))
	bw.WriteBits(uint64(hp.frameNum), p.SeqParamLog2MaxFrameNumMinus4+4)
	if hp.idrPic {
		bw.WriteUE(uint(hp.idrPicID))
	}
	if sliceType == sliceTypePSliceAll {
		bw.WriteBit(0) // ref_pic_list_modification_flag_l0: single reference, never modified.
	}
	// dec_ref_pic_marking(): both I and P pictures here are reference
	// pictures (nal_ref_idc != 0).
	if hp.idrPic {
		bw.WriteBit(0) // no_output_of_prior_pics_flag.
		bw.WriteBit(0) // long_term_reference_flag.
	} else {
		bw.WriteBit(0) // adaptive_ref_pic_marking_mode_flag.
	}
	bw.WriteSE(hp.qp - p.Quality) // slice_qp_delta.
}
