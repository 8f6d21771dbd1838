/*
DESCRIPTION
  bitwriter.go provides a bit writer implementation, the mirror of BitReader,
  used by the CAVLC encoder and NAL/header assembly to accumulate a
  byte-aligned bitstream from individually sized bit fields.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package bits

// BitWriter accumulates bits into a byte slice, most-significant-bit first,
// the inverse of BitReader.
type BitWriter struct {
	buf  []byte
	cur  byte
	nBit int // Number of bits already placed in cur (0-7).
	nAll int // Total bits written, including cur's partial byte.
}

// NewBitWriter returns a new, empty BitWriter.
func NewBitWriter() *BitWriter {
	return &BitWriter{buf: make([]byte, 0, 256)}
}

// WriteBits writes the n least-significant bits of v, most-significant-bit
// first.
func (bw *BitWriter) WriteBits(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		bit := byte((v >> uint(i)) & 1)
		bw.cur = bw.cur<<1 | bit
		bw.nBit++
		bw.nAll++
		if bw.nBit == 8 {
			bw.buf = append(bw.buf, bw.cur)
			bw.cur = 0
			bw.nBit = 0
		}
	}
}

// WriteBit writes a single bit.
func (bw *BitWriter) WriteBit(b int) { bw.WriteBits(uint64(b&1), 1) }

// WriteUE writes v using unsigned Exp-Golomb coding (ue(v), section 9.1).
func (bw *BitWriter) WriteUE(v uint) {
	codeNum := v + 1
	nBits := bitLen(uint64(codeNum))
	bw.WriteBits(0, nBits-1)
	bw.WriteBits(uint64(codeNum), nBits)
}

// WriteSE writes v using signed Exp-Golomb coding (se(v), section 9.1.1).
func (bw *BitWriter) WriteSE(v int) {
	var codeNum uint
	if v <= 0 {
		codeNum = uint(-2 * v)
	} else {
		codeNum = uint(2*v - 1)
	}
	bw.WriteUE(codeNum)
}

// WriteTe writes v using truncated Exp-Golomb coding (te(v), section 9.1),
// where x is the range maximum as defined for the syntax element.
func (bw *BitWriter) WriteTe(v int, x uint) {
	if x > 1 {
		bw.WriteUE(uint(v))
		return
	}
	// x == 1: a single inverted bit.
	if v == 0 {
		bw.WriteBit(1)
	} else {
		bw.WriteBit(0)
	}
}

// ByteAligned returns true if the writer is currently at a byte boundary.
func (bw *BitWriter) ByteAligned() bool { return bw.nBit == 0 }

// BitLength returns the total number of bits written so far.
func (bw *BitWriter) BitLength() int { return bw.nAll }

// WriteTrailingBits appends the RBSP trailing bits: a stop bit of 1 followed
// by zero-padding to the next byte boundary. If already byte aligned, a full
// 0x80 byte is appended, since a trailing bit must always be present and the
// byte must never be all zero (section 7.3.2.11, rbsp_trailing_bits).
func (bw *BitWriter) WriteTrailingBits() {
	bw.WriteBit(1)
	for !bw.ByteAligned() {
		bw.WriteBit(0)
	}
}

// Bytes returns the accumulated byte-aligned bytes, padding any partial
// trailing byte with zero bits (without counting them as part of BitLength).
// Callers that need RBSP-conformant trailing bits should call
// WriteTrailingBits first.
func (bw *BitWriter) Bytes() []byte {
	out := make([]byte, len(bw.buf), len(bw.buf)+1)
	copy(out, bw.buf)
	if bw.nBit != 0 {
		out = append(out, bw.cur<<uint(8-bw.nBit))
	}
	return out
}

// Reset clears the writer so it may be reused.
func (bw *BitWriter) Reset() {
	bw.buf = bw.buf[:0]
	bw.cur = 0
	bw.nBit = 0
	bw.nAll = 0
}

func bitLen(v uint64) int {
	n := 0
	for v > 0 {
		n++
		v >>= 1
	}
	if n == 0 {
		n = 1
	}
	return n
}
