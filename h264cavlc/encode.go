/*
DESCRIPTION
  encode.go implements CAVLC residual block encoding, the inverse of
  decode.go: given a zig-zag-order coefficient block, it writes
  coeff_token, trailing-ones signs, levels, total_zeros and run_before.
  header.go builds on the same BitWriter to encode the macroblock-layer
  syntax elements (mb_type, mb_qp_delta, mvd, coded_block_pattern) that
  sit around a macroblock's residual blocks.

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

// WriteResidualBlock writes a zig-zag-order coefficient block (length
// maxCoeff) using CAVLC, selecting the coeff_token/total_zeros tables by
// nC and maxCoeff exactly as ReadResidualBlock's decode path does.
func WriteResidualBlock(bw *bits.BitWriter, coeffs []int32, nC, maxCoeff int) error {
	var nonZero []int
	for i, c := range coeffs {
		if c != 0 {
			nonZero = append(nonZero, i)
		}
	}
	totalCoeff := len(nonZero)
	trailingOnes := 0
	for i := len(nonZero) - 1; i >= 0 && trailingOnes < 3; i-- {
		v := coeffs[nonZero[i]]
		if v == 1 || v == -1 {
			trailingOnes++
		} else {
			break
		}
	}

	if err := writeCoeffToken(bw, nC, trailingOnes, totalCoeff); err != nil {
		return fmt.Errorf("h264cavlc: coeff_token: %w", err)
	}
	if totalCoeff == 0 {
		return nil
	}

	suffixLength := 0
	if totalCoeff > 10 && trailingOnes < 3 {
		suffixLength = 1
	}
	for i := totalCoeff - 1; i >= 0; i-- {
		v := coeffs[nonZero[i]]
		idx := totalCoeff - 1 - i
		if idx < trailingOnes {
			sign := uint64(0)
			if v < 0 {
				sign = 1
			}
			bw.WriteBits(sign, 1)
			continue
		}
		if err := writeLevel(bw, v, suffixLength, idx, trailingOnes); err != nil {
			return fmt.Errorf("h264cavlc: level: %w", err)
		}
		if suffixLength == 0 {
			suffixLength = 1
		}
		abs := v
		if abs < 0 {
			abs = -abs
		}
		if int(abs) > (3<<uint(suffixLength-1)) && suffixLength < 6 {
			suffixLength++
		}
	}

	if totalCoeff < maxCoeff {
		totalZeros := 0
		if totalCoeff > 0 {
			totalZeros = nonZero[totalCoeff-1] - totalCoeff + 1
		}
		if err := writeTotalZeros(bw, totalZeros, totalCoeff, maxCoeff); err != nil {
			return fmt.Errorf("h264cavlc: total_zeros: %w", err)
		}
		// run_before is coded from the highest-frequency coefficient
		// down, the order ReadResidualBlock reads it back in.
		zerosLeft := totalZeros
		for i := totalCoeff - 1; i > 0 && zerosLeft > 0; i-- {
			run := nonZero[i] - nonZero[i-1] - 1
			if err := writeRunBefore(bw, run, zerosLeft); err != nil {
				return fmt.Errorf("h264cavlc: run_before: %w", err)
			}
			zerosLeft -= run
		}
	}
	return nil
}

func writeCoeffToken(bw *bits.BitWriter, nC, trailingOnes, totalCoeff int) error {
	class := classify(nC)
	if class == classFLC {
		bw.WriteBits(uint64(flcCode(trailingOnes, totalCoeff)), flcLen)
		return nil
	}
	enc := coeffTokenTable[class]
	c, ok := enc[coeffTokenEntry{trailingOnes, totalCoeff}]
	if !ok {
		return fmt.Errorf("no coeff_token entry for TrailingOnes=%d TotalCoeff=%d", trailingOnes, totalCoeff)
	}
	bw.WriteBits(uint64(c.code), c.length)
	return nil
}

// writeLevel is the inverse of readLevel: derive level_prefix and
// level_suffix from a signed coefficient level. It mirrors readLevel's
// regimes exactly so the two stay reciprocal: the plain case (prefix
// below the escape threshold, levelSuffixSize==suffixLength), the
// suffixLength==0 special case at prefix==14 (4-bit suffix), and the
// prefix>=15 escape (growing suffix width) that both share.
func writeLevel(bw *bits.BitWriter, level int32, suffixLength, coeffIdx, trailingOnes int) error {
	var levelCode int
	if level > 0 {
		levelCode = int(2*level - 2)
	} else {
		levelCode = int(-2*level - 1)
	}
	if coeffIdx == trailingOnes && trailingOnes < 3 {
		levelCode -= 2
	}

	if suffixLength == 0 {
		switch {
		case levelCode < 14:
			writeLevelPrefix(bw, levelCode)
			return nil
		case levelCode < 30:
			writeLevelPrefix(bw, 14)
			bw.WriteBits(uint64(levelCode-14), 4)
			return nil
		default:
			prefix, suffix, width, err := splitEscape(levelCode - 30)
			if err != nil {
				return err
			}
			writeLevelPrefix(bw, prefix)
			bw.WriteBits(uint64(suffix), width)
			return nil
		}
	}

	threshold := 15 << uint(suffixLength)
	if levelCode < threshold {
		prefix := levelCode >> uint(suffixLength)
		suffix := levelCode - (prefix << uint(suffixLength))
		writeLevelPrefix(bw, prefix)
		bw.WriteBits(uint64(suffix), suffixLength)
		return nil
	}
	prefix, suffix, width, err := splitEscape(levelCode - threshold)
	if err != nil {
		return err
	}
	writeLevelPrefix(bw, prefix)
	bw.WriteBits(uint64(suffix), width)
	return nil
}

// splitEscape finds the prefix>=15/suffix pair for an escape-coded
// levelCode remainder (levelCode minus its regime's base offset),
// mirroring readLevel's levelCode += (1<<(prefix-3))-4096 ramp: prefix 15
// carries a 12-bit suffix and each further prefix doubles the suffix
// range, so the cumulative ranges partition rem without overlap.
func splitEscape(rem int) (prefix, suffix, width int, err error) {
	prefix = 15
	size := 1 << 12
	cum := 0
	for rem >= cum+size {
		cum += size
		prefix++
		size <<= 1
		if prefix > 27 {
			return 0, 0, 0, fmt.Errorf("level magnitude out of range")
		}
	}
	return prefix, rem - cum, prefix - 3, nil
}

func writeLevelPrefix(bw *bits.BitWriter, n int) {
	for i := 0; i < n; i++ {
		bw.WriteBits(1, 1)
	}
	bw.WriteBits(0, 1)
}

func writeTotalZeros(bw *bits.BitWriter, totalZeros, totalCoeff, maxCoeff int) error {
	var enc map[int]vlcCode
	switch maxCoeff {
	case 4:
		enc = totalZerosChromaDCTable[totalCoeff]
	default:
		enc = totalZerosTable[totalCoeff]
	}
	c, ok := enc[totalZeros]
	if !ok {
		return fmt.Errorf("no total_zeros entry for value=%d TotalCoeff=%d maxCoeff=%d", totalZeros, totalCoeff, maxCoeff)
	}
	bw.WriteBits(uint64(c.code), c.length)
	return nil
}

func writeRunBefore(bw *bits.BitWriter, run, zerosLeft int) error {
	row := zerosLeft
	if row > 6 {
		row = 6
	}
	enc := runBeforeTable[row]
	c, ok := enc[run]
	if !ok {
		return fmt.Errorf("no run_before entry for run=%d zerosLeft=%d", run, zerosLeft)
	}
	bw.WriteBits(uint64(c.code), c.length)
	return nil
}
