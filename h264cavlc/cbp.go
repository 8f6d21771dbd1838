/*
DESCRIPTION
  cbp.go encodes coded_block_pattern, the inverse of
  codec/h264/h264dec/parse.go's readMe: given a 6-bit coded block pattern
  value, chroma array type and macroblock prediction mode, find the
  codeNum whose Table 9-4 entry matches it and write that codeNum as
  ue(v).

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
	"fmt"

	"github.com/ausocean/h264codec/codec/h264/h264dec/bits"
)

// codedBlockPattern mirrors codec/h264/h264dec/parse.go's table of the
// same name (ITU-T H.264 table 9-4): codedBlockPattern[i1][codeNum] gives
// {cbpIntra, cbpInter} for chromaArrayType class i1 (0 for 1/2, 1 for
// 0/3).
var codedBlockPattern = [][][2]uint{
	// Table 9-4 (a) for ChromaArrayType = 1 or 2
	{
		{47, 0}, {31, 16}, {15, 1}, {0, 2}, {23, 4}, {27, 8}, {29, 32}, {30, 3},
		{7, 5}, {11, 10}, {13, 12}, {14, 15}, {39, 47}, {43, 7}, {45, 11}, {46, 13},
		{16, 14}, {3, 6}, {31, 9}, {10, 31}, {12, 35}, {19, 37}, {21, 42}, {26, 44},
		{28, 33}, {35, 34}, {37, 36}, {42, 40}, {44, 39}, {1, 43}, {2, 45}, {4, 46},
		{8, 17}, {17, 18}, {18, 20}, {20, 24}, {24, 19}, {6, 21}, {9, 26}, {22, 28},
		{25, 23}, {32, 27}, {33, 29}, {34, 30}, {36, 22}, {40, 25}, {38, 38}, {41, 41},
	},
	// Table 9-4 (b) for ChromaArrayType = 0 or 3
	{
		{15, 0}, {0, 1}, {7, 2}, {11, 4}, {13, 8}, {14, 3}, {3, 5}, {5, 10}, {10, 12},
		{12, 15}, {1, 7}, {2, 11}, {4, 13}, {8, 14}, {6, 6}, {9, 9},
	},
}

// cbpCodeNum[i1][i3] maps a coded_block_pattern value to its codeNum,
// the reverse of codedBlockPattern, built once at init time.
var cbpCodeNum [2][2]map[uint]uint

func init() {
	for i1, rows := range codedBlockPattern {
		for i3 := 0; i3 < 2; i3++ {
			cbpCodeNum[i1][i3] = make(map[uint]uint, len(rows))
		}
		for codeNum, pair := range rows {
			cbpCodeNum[i1][0][pair[0]] = uint(codeNum)
			cbpCodeNum[i1][1][pair[1]] = uint(codeNum)
		}
	}
}

// WriteCBP writes coded_block_pattern as ue(v), selecting the Table 9-4
// mapping by chromaArrayType and intra (true for Intra_4x4/Intra_8x8
// macroblocks, false for inter).
func WriteCBP(bw *bits.BitWriter, cbp int, chromaArrayType int, intra bool) error {
	var i1 int
	switch chromaArrayType {
	case 1, 2:
		i1 = 0
	case 0, 3:
		i1 = 1
	default:
		return fmt.Errorf("h264cavlc: invalid chroma array type %d", chromaArrayType)
	}
	i3 := 1
	if intra {
		i3 = 0
	}
	codeNum, ok := cbpCodeNum[i1][i3][uint(cbp)]
	if !ok {
		return fmt.Errorf("h264cavlc: no coded_block_pattern codeNum for cbp=%d chromaArrayType=%d intra=%v", cbp, chromaArrayType, intra)
	}
	bw.WriteUE(codeNum)
	return nil
}
