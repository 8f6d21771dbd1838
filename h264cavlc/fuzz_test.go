/*
NAME
  fuzz_test.go

DESCRIPTION
  fuzz_test.go fuzzes ReadResidualBlock and WriteResidualBlock against
  arbitrary bit patterns and coefficient slices, checking that the CAVLC
  reader never panics on malformed input and that the writer's output
  always reads back through the reader without error.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264cavlc

import (
	"bytes"
	"testing"

	"github.com/ausocean/h264codec/codec/h264/h264dec/bits"
)

// FuzzReadResidualBlock ensures that no byte sequence can panic the CAVLC
// residual-block reader, across the nC classes the coeff_token table
// switches on and the 4x4/2x2/luma-DC maxCoeff values the package reads.
func FuzzReadResidualBlock(f *testing.F) {
	f.Add([]byte{0x80}, 0, 16)
	f.Add([]byte{0x00, 0x00}, 2, 16)
	f.Add([]byte{0xff, 0xff, 0xff, 0xff}, 4, 16)
	f.Add([]byte{0x2a, 0x7c, 0x13}, -1, 4)

	f.Fuzz(func(t *testing.T, data []byte, nC, maxCoeff int) {
		if maxCoeff != 4 && maxCoeff != 15 && maxCoeff != 16 {
			return
		}
		br := bits.NewBitReader(bytes.NewReader(data))
		ReadResidualBlock(br, nC, maxCoeff) //nolint:errcheck
	})
}

// FuzzWriteResidualBlockRoundTrips feeds WriteResidualBlock arbitrary
// coefficient values and checks that, whenever it accepts them, the
// bitstream it produces reads back through ReadResidualBlock without
// error (the levels read back are not compared with the input; a level
// WriteResidualBlock cannot code makes it return an error, and that
// input is skipped).
func FuzzWriteResidualBlockRoundTrips(f *testing.F) {
	f.Add(int32(0), int32(1), int32(-1), int32(0), 0)
	f.Add(int32(3), int32(-2), int32(0), int32(0), 2)

	f.Fuzz(func(t *testing.T, a, b, c, d int32, nC int) {
		coeffs := []int32{a, b, c, d}
		bw := bits.NewBitWriter()
		if err := WriteResidualBlock(bw, coeffs, nC, 16); err != nil {
			return
		}
		br := bits.NewBitReader(bytes.NewReader(bw.Bytes()))
		if _, _, err := ReadResidualBlock(br, nC, 16); err != nil {
			t.Fatalf("ReadResidualBlock could not parse WriteResidualBlock's own output: %v", err)
		}
	})
}
