/*
NAME
  cbp_header_test.go

DESCRIPTION
  cbp_header_test.go tests WriteCBP against every valid coded_block_pattern
  value for both chroma array type classes and intra/inter, and exercises
  the macroblock-layer syntax writers in header.go.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264cavlc

import (
	"bytes"
	"testing"

	"github.com/ausocean/h264codec/codec/h264/h264dec/bits"
	"github.com/ausocean/h264codec/h264pic"
	"github.com/google/go-cmp/cmp"
)

// readUE decodes one ue(v) Exp-Golomb codeword, mirroring the teacher's
// readUe algorithm (count leading zero bits, then read that many info
// bits), kept local to this test so it does not depend on the unexported
// reader in codec/h264/h264dec.
func readUE(t *testing.T, br *bits.BitReader) uint {
	t.Helper()
	leadingZeros := 0
	for {
		b, err := br.ReadBits(1)
		if err != nil {
			t.Fatalf("readUE: %v", err)
		}
		if b == 1 {
			break
		}
		leadingZeros++
	}
	if leadingZeros == 0 {
		return 0
	}
	info, err := br.ReadBits(leadingZeros)
	if err != nil {
		t.Fatalf("readUE: %v", err)
	}
	return uint(1<<uint(leadingZeros)-1) + uint(info)
}

func TestWriteCBPRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		chromaArrayType int
		maxCBP          int
	}{
		{1, 47},
		{2, 47},
		{0, 15},
		{3, 15},
	} {
		for cbp := 0; cbp <= tc.maxCBP; cbp++ {
			if _, ok := cbpCodeNum[classOf(tc.chromaArrayType)][0][uint(cbp)]; !ok {
				continue // Not every value 0..maxCBP is a valid CBP; skip gaps.
			}
			for _, intra := range []bool{true, false} {
				bw := bits.NewBitWriter()
				if err := WriteCBP(bw, cbp, tc.chromaArrayType, intra); err != nil {
					t.Fatalf("chromaArrayType=%d cbp=%d intra=%v: %v", tc.chromaArrayType, cbp, intra, err)
				}
				bw.WriteTrailingBits()
				br := bits.NewBitReader(bytes.NewReader(bw.Bytes()))
				codeNum := readUE(t, br)
				i3 := 1
				if intra {
					i3 = 0
				}
				wantCodeNum := cbpCodeNum[classOf(tc.chromaArrayType)][i3][uint(cbp)]
				if codeNum != wantCodeNum {
					t.Errorf("chromaArrayType=%d cbp=%d intra=%v: wrote codeNum %d, table says %d", tc.chromaArrayType, cbp, intra, codeNum, wantCodeNum)
				}
			}
		}
	}
}

func classOf(chromaArrayType int) int {
	if chromaArrayType == 1 || chromaArrayType == 2 {
		return 0
	}
	return 1
}

func TestWriteCBPInvalidChromaArrayType(t *testing.T) {
	bw := bits.NewBitWriter()
	if err := WriteCBP(bw, 0, 7, true); err == nil {
		t.Fatal("expected error for invalid chroma array type")
	}
}

func TestWriteMbTypeIntra16x16(t *testing.T) {
	tests := []struct {
		mode      h264pic.Intra16x16Mode
		cbpChroma int
		cbpLuma   int
		want      uint // The ue codeNum slicedata.go's mbTypeIntra16x16 would unfold back to this mode/cbp.
	}{
		{h264pic.Intra16x16Vertical, 0, 0, 1},
		{h264pic.Intra16x16DC, 0, 0, 3},
		{h264pic.Intra16x16Plane, 2, 0, 12},
		{h264pic.Intra16x16DC, 1, 15, 2 + 4*1 + 12 + 1},
	}
	for _, test := range tests {
		bw := bits.NewBitWriter()
		WriteMbTypeIntra16x16(bw, test.mode, test.cbpChroma, test.cbpLuma)
		bw.WriteTrailingBits()
		br := bits.NewBitReader(bytes.NewReader(bw.Bytes()))
		got := readUE(t, br)
		if got != test.want {
			t.Errorf("mode=%v cbpChroma=%d cbpLuma=%d: got codeNum %d, want %d", test.mode, test.cbpChroma, test.cbpLuma, got, test.want)
		}
	}
}

func TestWriteMVDRoundTrip(t *testing.T) {
	tests := []struct{ x, y int }{
		{0, 0}, {3, -3}, {-128, 127}, {1, 0},
	}
	for _, test := range tests {
		bw := bits.NewBitWriter()
		WriteMVD(bw, test.x, test.y)
		bw.WriteTrailingBits()
		gotBytes := bw.Bytes()
		if len(gotBytes) == 0 {
			t.Errorf("WriteMVD(%d,%d) produced no bytes", test.x, test.y)
		}
	}
}

func TestWriteMbSkipRunAndInter16x16(t *testing.T) {
	bw := bits.NewBitWriter()
	WriteMbSkipRun(bw, 5)
	WriteMbTypeInter16x16(bw)
	bw.WriteTrailingBits()
	br := bits.NewBitReader(bytes.NewReader(bw.Bytes()))
	if got := readUE(t, br); got != 5 {
		t.Errorf("mb_skip_run: got %d, want 5", got)
	}
	if got := readUE(t, br); got != mbTypeInter16x16 {
		t.Errorf("mb_type: got %d, want %d", got, mbTypeInter16x16)
	}
}

func TestWriteResidualBlockRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		coeffs []int32
		nC     int
	}{
		{"all zero", make([]int32, 16), 0},
		{"single trailing one", []int32{0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, 2},
		{"mixed levels", []int32{5, -1, 1, 0, 2, 0, 0, -3, 0, 0, 0, 0, 0, 0, 0, 0}, 8},
	}
	for _, test := range tests {
		bw := bits.NewBitWriter()
		if err := WriteResidualBlock(bw, test.coeffs, test.nC, 16); err != nil {
			t.Fatalf("%s: WriteResidualBlock: %v", test.name, err)
		}
		bw.WriteTrailingBits()
		br := bits.NewBitReader(bytes.NewReader(bw.Bytes()))
		got, _, err := ReadResidualBlock(br, test.nC, 16)
		if err != nil {
			t.Fatalf("%s: ReadResidualBlock: %v", test.name, err)
		}
		if diff := cmp.Diff(test.coeffs, got); diff != "" {
			t.Errorf("%s: round trip mismatch (-want +got):\n%s", test.name, diff)
		}
	}
}
