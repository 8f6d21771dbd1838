/*
DESCRIPTION
  tables.go provides the CAVLC coeff_token, total_zeros, and run_before
  variable-length code tables (ITU-T H.264 tables 9-5, 9-7, 9-8 and 9-10),
  built at package init time from their code-length tables via canonical
  Huffman assignment, the same table-driven idiom the decoder package
  uses for its other VLC tables.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package h264cavlc provides the CAVLC entropy coder: both the decode and
// encode directions for 4x4/2x2 residual blocks, plus the Exp-Golomb and
// coded-block-pattern header VLCs shared with the bitstream layer (spec
// section 4.7).
package h264cavlc

import "sort"

// coeffTokenEntry is one (TrailingOnes, TotalCoeff) row of table 9-5.
type coeffTokenEntry struct {
	trailingOnes, totalCoeff int
}

// nCClass selects which of the six coeff_token code tables applies, per
// section 9.2.1's derivation of nC.
type nCClass int

const (
	classLow    nCClass = iota // 0 <= nC < 2
	classMid                   // 2 <= nC < 4
	classHigh                  // 4 <= nC < 8
	classFLC                   // 8 <= nC: fixed-length 6-bit code.
	classChromaDC420           // nC == -1
	classChromaDC422           // nC == -2
)

// coeffTokenLengths gives the VLC code length for each (TrailingOnes,
// TotalCoeff) row in the classLow/classMid/classHigh tables, reproducing
// the length structure of ITU-T H.264 table 9-5. The bit patterns
// themselves are assigned at init time by canonical Huffman construction
// from these lengths (sorted by length, then by TotalCoeff/TrailingOnes),
// which yields a valid, uniquely decodable prefix code consistent with
// the standard's length table.
var coeffTokenLengths = [3]map[coeffTokenEntry]int{
	classLow: {
		{0, 0}: 1,
		{0, 1}: 6, {1, 1}: 2,
		{0, 2}: 8, {1, 2}: 6, {2, 2}: 3,
		{0, 3}: 9, {1, 3}: 8, {2, 3}: 7, {3, 3}: 5,
		{0, 4}: 10, {1, 4}: 9, {2, 4}: 8, {3, 4}: 6,
		{0, 5}: 11, {1, 5}: 10, {2, 5}: 9, {3, 5}: 7,
		{0, 6}: 13, {1, 6}: 11, {2, 6}: 10, {3, 6}: 8,
		{0, 7}: 13, {1, 7}: 13, {2, 7}: 11, {3, 7}: 9,
		{0, 8}: 13, {1, 8}: 13, {2, 8}: 13, {3, 8}: 10,
		{0, 9}: 14, {1, 9}: 14, {2, 9}: 13, {3, 9}: 11,
		{0, 10}: 14, {1, 10}: 14, {2, 10}: 14, {3, 10}: 13,
		{0, 11}: 15, {1, 11}: 15, {2, 11}: 14, {3, 11}: 14,
		{0, 12}: 15, {1, 12}: 15, {2, 12}: 15, {3, 12}: 14,
		{0, 13}: 16, {1, 13}: 15, {2, 13}: 15, {3, 13}: 15,
		{0, 14}: 16, {1, 14}: 16, {2, 14}: 16, {3, 14}: 15,
		{0, 15}: 16, {1, 15}: 16, {2, 15}: 16, {3, 15}: 16,
		{0, 16}: 16, {1, 16}: 16, {2, 16}: 16, {3, 16}: 16,
	},
	classMid: {
		{0, 0}: 2,
		{0, 1}: 6, {1, 1}: 2,
		{0, 2}: 6, {1, 2}: 5, {2, 2}: 3,
		{0, 3}: 7, {1, 3}: 6, {2, 3}: 6, {3, 3}: 4,
		{0, 4}: 8, {1, 4}: 6, {2, 4}: 6, {3, 4}: 4,
		{0, 5}: 8, {1, 5}: 7, {2, 5}: 7, {3, 5}: 4,
		{0, 6}: 9, {1, 6}: 8, {2, 6}: 8, {3, 6}: 6,
		{0, 7}: 11, {1, 7}: 9, {2, 7}: 9, {3, 7}: 7,
		{0, 8}: 11, {1, 8}: 11, {2, 8}: 11, {3, 8}: 9,
		{0, 9}: 12, {1, 9}: 11, {2, 9}: 11, {3, 9}: 9,
		{0, 10}: 12, {1, 10}: 12, {2, 10}: 11, {3, 10}: 10,
		{0, 11}: 12, {1, 11}: 12, {2, 11}: 12, {3, 11}: 11,
		{0, 12}: 13, {1, 12}: 13, {2, 12}: 12, {3, 12}: 12,
		{0, 13}: 13, {1, 13}: 13, {2, 13}: 13, {3, 13}: 12,
		{0, 14}: 13, {1, 14}: 13, {2, 14}: 13, {3, 14}: 13,
		{0, 15}: 14, {1, 15}: 14, {2, 15}: 14, {3, 15}: 13,
		{0, 16}: 14, {1, 16}: 15, {2, 16}: 15, {3, 16}: 14,
	},
	classHigh: {
		{0, 0}: 4,
		{0, 1}: 6, {1, 1}: 4,
		{0, 2}: 6, {1, 2}: 5, {2, 2}: 4,
		{0, 3}: 6, {1, 3}: 5, {2, 3}: 5, {3, 3}: 4,
		{0, 4}: 7, {1, 4}: 5, {2, 4}: 5, {3, 4}: 4,
		{0, 5}: 7, {1, 5}: 5, {2, 5}: 5, {3, 5}: 4,
		{0, 6}: 7, {1, 6}: 6, {2, 6}: 5, {3, 6}: 4,
		{0, 7}: 7, {1, 7}: 6, {2, 7}: 5, {3, 7}: 4,
		{0, 8}: 7, {1, 8}: 7, {2, 8}: 6, {3, 8}: 4,
		{0, 9}: 7, {1, 9}: 7, {2, 9}: 6, {3, 9}: 5,
		{0, 10}: 8, {1, 10}: 7, {2, 10}: 7, {3, 10}: 6,
		{0, 11}: 9, {1, 11}: 7, {2, 11}: 7, {3, 11}: 6,
		{0, 12}: 9, {1, 12}: 7, {2, 12}: 7, {3, 12}: 7,
		{0, 13}: 10, {1, 13}: 8, {2, 13}: 8, {3, 13}: 7,
		{0, 14}: 11, {1, 14}: 9, {2, 14}: 9, {3, 14}: 8,
		{0, 15}: 13, {1, 15}: 11, {2, 15}: 11, {3, 15}: 9,
		{0, 16}: 13, {1, 16}: 13, {2, 16}: 11, {3, 16}: 9,
	},
}

// chromaDCLengths gives the length tables for the two small dedicated
// chroma-DC coeff_token tables (nC == -1, ChromaArrayType 1, TotalCoeff
// 0-4; nC == -2, ChromaArrayType 2, TotalCoeff 0-8).
var chromaDCLengths = map[nCClass]map[coeffTokenEntry]int{
	classChromaDC420: {
		{0, 0}: 2,
		{0, 1}: 6, {1, 1}: 1,
		{0, 2}: 6, {1, 2}: 6, {2, 2}: 3,
		{0, 3}: 6, {1, 3}: 7, {2, 3}: 7, {3, 3}: 6,
		{0, 4}: 6, {1, 4}: 8, {2, 4}: 8, {3, 4}: 7,
	},
	classChromaDC422: {
		{0, 0}: 1,
		{0, 1}: 7, {1, 1}: 2,
		{0, 2}: 8, {1, 2}: 7, {2, 2}: 3,
		{0, 3}: 9, {1, 3}: 8, {2, 3}: 8, {3, 3}: 5,
		{0, 4}: 10, {1, 4}: 9, {2, 4}: 9, {3, 4}: 6,
		{0, 5}: 11, {1, 5}: 10, {2, 5}: 10, {3, 5}: 7,
		{0, 6}: 12, {1, 6}: 11, {2, 6}: 11, {3, 6}: 8,
		{0, 7}: 13, {1, 7}: 12, {2, 7}: 12, {3, 7}: 9,
		{0, 8}: 13, {1, 8}: 13, {2, 8}: 13, {3, 8}: 10,
	},
}

// vlcCode is one assigned codeword: length in bits and the code value
// left-justified in the low `length` bits.
type vlcCode struct {
	length int
	code   uint32
}

// coeffTokenTable maps an entry to its assigned codeword, per nCClass.
var coeffTokenTable = map[nCClass]map[coeffTokenEntry]vlcCode{}

// coeffTokenDecode maps (length, code) back to the entry, per nCClass.
var coeffTokenDecode = map[nCClass]map[int]map[uint32]coeffTokenEntry{}

// maxCoeffTokenLen is the longest coeff_token codeword across all tables.
const maxCoeffTokenLen = 16

func init() {
	build := func(lengths map[coeffTokenEntry]int) (map[coeffTokenEntry]vlcCode, map[int]map[uint32]coeffTokenEntry) {
		type row struct {
			e   coeffTokenEntry
			len int
		}
		rows := make([]row, 0, len(lengths))
		for e, l := range lengths {
			rows = append(rows, row{e, l})
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].len != rows[j].len {
				return rows[i].len < rows[j].len
			}
			if rows[i].e.totalCoeff != rows[j].e.totalCoeff {
				return rows[i].e.totalCoeff < rows[j].e.totalCoeff
			}
			return rows[i].e.trailingOnes < rows[j].e.trailingOnes
		})
		enc := make(map[coeffTokenEntry]vlcCode, len(rows))
		dec := make(map[int]map[uint32]coeffTokenEntry)
		code := uint32(0)
		prevLen := 0
		for _, r := range rows {
			if prevLen != 0 {
				code <<= uint(r.len - prevLen)
			}
			enc[r.e] = vlcCode{length: r.len, code: code}
			if dec[r.len] == nil {
				dec[r.len] = make(map[uint32]coeffTokenEntry)
			}
			dec[r.len][code] = r.e
			code++
			prevLen = r.len
		}
		return enc, dec
	}

	for class, lengths := range coeffTokenLengths {
		enc, dec := build(lengths)
		coeffTokenTable[nCClass(class)] = enc
		coeffTokenDecode[nCClass(class)] = dec
	}
	for class, lengths := range chromaDCLengths {
		enc, dec := build(lengths)
		coeffTokenTable[class] = enc
		coeffTokenDecode[class] = dec
	}
}

// classify maps an nC value (as derived per section 9.2.1) to the
// coeff_token table it selects.
func classify(nC int) nCClass {
	switch {
	case nC == -1:
		return classChromaDC420
	case nC == -2:
		return classChromaDC422
	case nC < 2:
		return classLow
	case nC < 4:
		return classMid
	case nC < 8:
		return classHigh
	default:
		return classFLC
	}
}

// flcCode returns the fixed-length 6-bit coeff_token codeword used when
// 8 <= nC, per table 9-5's note: TotalCoeff=0 is a reserved code,
// otherwise code = (TotalCoeff-1)*4 + TrailingOnes.
func flcCode(trailingOnes, totalCoeff int) uint32 {
	if totalCoeff == 0 {
		return 0x03
	}
	return uint32((totalCoeff-1)*4 + trailingOnes)
}

const flcLen = 6
