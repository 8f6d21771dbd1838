/*
DESCRIPTION
  zeros.go provides the total_zeros (tables 9-7/9-8) and run_before
  (table 9-10) VLC tables, built the same canonical-Huffman way as the
  coeff_token tables in tables.go.

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

import "sort"

// totalZerosLengths holds, for each TotalCoeff 1-15 (table index), a map
// from total_zeros value to code length, per table 9-7 (4x4 luma/luma-DC
// blocks). Row lengths shrink as TotalCoeff approaches the block size,
// since fewer total_zeros values remain possible.
var totalZerosLengths = [16]map[int]int{
	1:  {0: 1, 1: 3, 2: 3, 3: 4, 4: 4, 5: 5, 6: 5, 7: 6, 8: 6, 9: 7, 10: 7, 11: 8, 12: 8, 13: 9, 14: 9, 15: 9},
	2:  {0: 3, 1: 3, 2: 3, 3: 3, 4: 3, 5: 4, 6: 4, 7: 4, 8: 4, 9: 5, 10: 5, 11: 6, 12: 6, 13: 6, 14: 6},
	3:  {0: 4, 1: 3, 2: 3, 3: 3, 4: 4, 5: 4, 6: 3, 7: 3, 8: 4, 9: 5, 10: 5, 11: 6, 12: 5, 13: 6},
	4:  {0: 5, 1: 3, 2: 4, 3: 4, 4: 3, 5: 3, 6: 3, 7: 3, 8: 4, 9: 5, 10: 5, 11: 5, 12: 5},
	5:  {0: 4, 1: 4, 2: 4, 3: 3, 4: 3, 5: 3, 6: 3, 7: 3, 8: 4, 9: 5, 10: 5, 11: 5},
	6:  {0: 6, 1: 5, 2: 3, 3: 3, 4: 3, 5: 3, 6: 3, 7: 3, 8: 4, 9: 3, 10: 6},
	7:  {0: 6, 1: 5, 2: 3, 3: 3, 4: 3, 5: 2, 6: 3, 7: 4, 8: 3, 9: 6},
	8:  {0: 6, 1: 4, 2: 4, 3: 3, 4: 3, 5: 2, 6: 3, 7: 3, 8: 6},
	9:  {0: 6, 1: 6, 2: 4, 3: 2, 4: 2, 5: 3, 6: 2, 7: 5},
	10: {0: 5, 1: 5, 2: 3, 3: 2, 4: 2, 5: 2, 6: 4},
	11: {0: 4, 1: 4, 2: 3, 3: 3, 4: 1, 5: 3},
	12: {0: 4, 1: 4, 2: 2, 3: 1, 4: 3},
	13: {0: 3, 1: 3, 2: 1, 3: 2},
	14: {0: 2, 1: 2, 2: 1},
	15: {0: 1, 1: 1},
}

// totalZerosChromaDCLengths covers the small ChromaArrayType 1 (2x2, up
// to 3 zeros) total_zeros table 9-9(a).
var totalZerosChromaDCLengths = [4]map[int]int{
	1: {0: 1, 1: 2, 2: 3, 3: 3},
	2: {0: 1, 1: 2, 2: 2},
	3: {0: 1, 1: 1},
}

// runBeforeLengths holds, for each zerosLeft 1-6+ (6 representing "6 or
// more"), a map from run_before value to code length, per table 9-10.
// The "6 or more" row only has entries for run_before values 0-6; there
// is no entry for a run of 7 or more.
var runBeforeLengths = [7]map[int]int{
	1: {0: 1, 1: 1},
	2: {0: 1, 1: 2, 2: 2},
	3: {0: 2, 1: 2, 2: 2, 3: 2},
	4: {0: 2, 1: 2, 2: 2, 3: 3, 4: 3},
	5: {0: 2, 1: 2, 2: 3, 3: 3, 4: 3, 5: 3},
	6: {0: 2, 1: 3, 2: 3, 3: 3, 4: 3, 5: 3, 6: 3},
}

var totalZerosTable [16]map[int]vlcCode
var totalZerosDecode [16]map[int]map[uint32]int

var totalZerosChromaDCTable [4]map[int]vlcCode
var totalZerosChromaDCDecode [4]map[int]map[uint32]int

var runBeforeTable [7]map[int]vlcCode
var runBeforeDecode [7]map[int]map[uint32]int

func buildVLC(lengths map[int]int) (map[int]vlcCode, map[int]map[uint32]int) {
	type row struct {
		val, len int
	}
	rows := make([]row, 0, len(lengths))
	for v, l := range lengths {
		rows = append(rows, row{v, l})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].len != rows[j].len {
			return rows[i].len < rows[j].len
		}
		return rows[i].val < rows[j].val
	})
	enc := make(map[int]vlcCode, len(rows))
	dec := make(map[int]map[uint32]int)
	code := uint32(0)
	prevLen := 0
	for _, r := range rows {
		if prevLen != 0 {
			code <<= uint(r.len - prevLen)
		}
		enc[r.val] = vlcCode{length: r.len, code: code}
		if dec[r.len] == nil {
			dec[r.len] = make(map[uint32]int)
		}
		dec[r.len][code] = r.val
		code++
		prevLen = r.len
	}
	return enc, dec
}

func init() {
	for i, lengths := range totalZerosLengths {
		if lengths == nil {
			continue
		}
		totalZerosTable[i], totalZerosDecode[i] = buildVLC(lengths)
	}
	for i, lengths := range totalZerosChromaDCLengths {
		if lengths == nil {
			continue
		}
		totalZerosChromaDCTable[i], totalZerosChromaDCDecode[i] = buildVLC(lengths)
	}
	for i, lengths := range runBeforeLengths {
		if lengths == nil {
			continue
		}
		runBeforeTable[i], runBeforeDecode[i] = buildVLC(lengths)
	}
}
