/*
DESCRIPTION
  decode.go implements CAVLC residual block decoding (ITU-T H.264 section
  9.2): coeff_token, level, total_zeros and run_before parsing, producing
  a zig-zag-order coefficient block and the TotalCoeff count a neighbour
  block's nC derivation needs.

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

// maxLevelPrefix bounds the unary level_prefix search so a corrupt
// bitstream cannot spin the reader forever.
const maxLevelPrefix = 32

// ReadResidualBlock reads one CAVLC-coded residual block of up to
// maxCoeff coefficients, returning its coefficients in zig-zag order and
// the TotalCoeff value the caller must record on the owning Block so
// later neighbour nC lookups see it.
func ReadResidualBlock(br *bits.BitReader, nC int, maxCoeff int) ([]int32, int, error) {
	trailingOnes, totalCoeff, err := readCoeffToken(br, nC)
	if err != nil {
		return nil, 0, fmt.Errorf("h264cavlc: coeff_token: %w", err)
	}
	coeffs := make([]int32, maxCoeff)
	if totalCoeff == 0 {
		return coeffs, 0, nil
	}

	levels := make([]int32, totalCoeff)
	suffixLength := 0
	if totalCoeff > 10 && trailingOnes < 3 {
		suffixLength = 1
	}
	for i := 0; i < totalCoeff; i++ {
		if i < trailingOnes {
			sign, err := br.ReadBits(1)
			if err != nil {
				return nil, 0, fmt.Errorf("h264cavlc: trailing_ones_sign: %w", err)
			}
			if sign == 1 {
				levels[i] = -1
			} else {
				levels[i] = 1
			}
			continue
		}
		level, err := readLevel(br, suffixLength, i, trailingOnes)
		if err != nil {
			return nil, 0, fmt.Errorf("h264cavlc: level: %w", err)
		}
		levels[i] = level
		if suffixLength == 0 {
			suffixLength = 1
		}
		abs := level
		if abs < 0 {
			abs = -abs
		}
		if abs > (3 << uint(suffixLength-1)) && suffixLength < 6 {
			suffixLength++
		}
	}

	totalZeros := 0
	if totalCoeff < maxCoeff {
		tz, err := readTotalZeros(br, totalCoeff, maxCoeff)
		if err != nil {
			return nil, 0, fmt.Errorf("h264cavlc: total_zeros: %w", err)
		}
		totalZeros = tz
	}

	runs := make([]int, totalCoeff)
	zerosLeft := totalZeros
	for i := 0; i < totalCoeff-1; i++ {
		if zerosLeft <= 0 {
			runs[i] = 0
			continue
		}
		rb, err := readRunBefore(br, zerosLeft)
		if err != nil {
			return nil, 0, fmt.Errorf("h264cavlc: run_before: %w", err)
		}
		runs[i] = rb
		zerosLeft -= rb
	}
	runs[totalCoeff-1] = zerosLeft

	pos := -1
	for i := totalCoeff - 1; i >= 0; i-- {
		pos += runs[i] + 1
		if pos >= maxCoeff {
			return nil, 0, fmt.Errorf("h264cavlc: coefficient position %d exceeds block size %d", pos, maxCoeff)
		}
		coeffs[pos] = levels[i]
	}
	return coeffs, totalCoeff, nil
}

// readCoeffToken reads the coeff_token VLC selected by nC (see
// classify), returning (TrailingOnes, TotalCoeff).
func readCoeffToken(br *bits.BitReader, nC int) (int, int, error) {
	class := classify(nC)
	if class == classFLC {
		v, err := br.ReadBits(flcLen)
		if err != nil {
			return 0, 0, err
		}
		code := uint32(v)
		if code == 0x03 {
			return 0, 0, nil
		}
		totalCoeff := int(code/4) + 1
		trailingOnes := int(code % 4)
		return trailingOnes, totalCoeff, nil
	}
	dec := coeffTokenDecode[class]
	return readFromLengthTable(br, dec, func(e coeffTokenEntry) (int, int) {
		return e.trailingOnes, e.totalCoeff
	})
}

// readFromLengthTable performs an incremental-prefix VLC decode: read one
// bit at a time, checking the accumulated code against dec[length] until
// a match is found.
func readFromLengthTable(br *bits.BitReader, dec map[int]map[uint32]coeffTokenEntry, project func(coeffTokenEntry) (int, int)) (int, int, error) {
	code := uint32(0)
	for length := 1; length <= maxCoeffTokenLen; length++ {
		bit, err := br.ReadBits(1)
		if err != nil {
			return 0, 0, err
		}
		code = (code << 1) | uint32(bit)
		if m, ok := dec[length]; ok {
			if e, ok := m[code]; ok {
				a, b := project(e)
				return a, b, nil
			}
		}
	}
	return 0, 0, fmt.Errorf("no matching coeff_token code")
}

// readLevel reads one level_prefix/level_suffix pair and returns the
// signed coefficient level, per section 9.2.2.1.
func readLevel(br *bits.BitReader, suffixLength, coeffIdx, trailingOnes int) (int32, error) {
	prefix, err := readLevelPrefix(br)
	if err != nil {
		return 0, err
	}

	levelSuffixSize := suffixLength
	if prefix == 14 && suffixLength == 0 {
		levelSuffixSize = 4
	} else if prefix >= 15 {
		levelSuffixSize = prefix - 3
	}

	var suffix uint64
	if levelSuffixSize > 0 {
		suffix, err = br.ReadBits(levelSuffixSize)
		if err != nil {
			return 0, err
		}
	}

	levelCode := (minInt(15, prefix) << uint(suffixLength)) + int(suffix)
	if prefix >= 15 && suffixLength == 0 {
		levelCode += 15
	}
	if prefix >= 16 {
		levelCode += (1 << uint(prefix-3)) - 4096
	}
	if coeffIdx == trailingOnes && trailingOnes < 3 {
		levelCode += 2
	}

	var level int32
	if levelCode%2 == 0 {
		level = int32(levelCode+2) / 2
	} else {
		level = int32(-levelCode-1) / 2
	}
	return level, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// readLevelPrefix reads the unary-coded level_prefix: a run of 1 bits
// terminated by a 0, whose length is the prefix value.
func readLevelPrefix(br *bits.BitReader) (int, error) {
	n := 0
	for n < maxLevelPrefix {
		b, err := br.ReadBits(1)
		if err != nil {
			return 0, err
		}
		if b == 0 {
			return n, nil
		}
		n++
	}
	return 0, fmt.Errorf("level_prefix exceeds %d", maxLevelPrefix)
}

// readTotalZeros reads total_zeros for a block with the given TotalCoeff
// and maxCoeff (16 for luma/luma-DC, 4 for Cb/Cr chroma-DC 4:2:0, 8 for
// 4:2:2 chroma-DC).
func readTotalZeros(br *bits.BitReader, totalCoeff, maxCoeff int) (int, error) {
	var dec map[int]map[uint32]int
	switch maxCoeff {
	case 4:
		dec = totalZerosChromaDCDecode[totalCoeff]
	default:
		dec = totalZerosDecode[totalCoeff]
	}
	if dec == nil {
		return 0, fmt.Errorf("no total_zeros table for TotalCoeff=%d maxCoeff=%d", totalCoeff, maxCoeff)
	}
	code := uint32(0)
	for length := 1; length <= 9; length++ {
		bit, err := br.ReadBits(1)
		if err != nil {
			return 0, err
		}
		code = (code << 1) | uint32(bit)
		if m, ok := dec[length]; ok {
			if v, ok := m[code]; ok {
				return v, nil
			}
		}
	}
	return 0, fmt.Errorf("no matching total_zeros code")
}

// readRunBefore reads run_before given the number of zeros left to
// place, per table 9-10; zerosLeft values of 7 or more share row 6.
func readRunBefore(br *bits.BitReader, zerosLeft int) (int, error) {
	row := zerosLeft
	if row > 6 {
		row = 6
	}
	dec := runBeforeDecode[row]
	code := uint32(0)
	for length := 1; length <= 11; length++ {
		bit, err := br.ReadBits(1)
		if err != nil {
			return 0, err
		}
		code = (code << 1) | uint32(bit)
		if m, ok := dec[length]; ok {
			if v, ok := m[code]; ok {
				return v, nil
			}
		}
	}
	return 0, fmt.Errorf("no matching run_before code")
}
