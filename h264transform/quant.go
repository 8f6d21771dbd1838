/*
DESCRIPTION
  quant.go provides the H.264 quantisation/dequantisation scale tables,
  the QPc chroma-QP derivation table, and the zig-zag scan orders.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package h264transform

// quantCoeffA/B/C are the three categories of the V matrix (table 8-15 in
// ITU-T H.264) that combine with QP%6 to give a per-position scale.
var quantCoeffA = [6]int32{10, 11, 13, 14, 16, 18}
var quantCoeffB = [6]int32{16, 18, 20, 23, 25, 29}
var quantCoeffC = [6]int32{13, 14, 16, 18, 20, 23}

// posCat classifies the 16 zig-zag-independent 4x4 positions into the
// A/B/C categories: position (0,0),(0,2),(2,0),(2,2) use A; (1,1),(1,3),
// (3,1),(3,3) use B; the rest use C.
func posCat(row, col int) int {
	switch {
	case row%2 == 0 && col%2 == 0:
		return 0
	case row%2 == 1 && col%2 == 1:
		return 1
	default:
		return 2
	}
}

// quantScale returns the forward quantisation scale for raster position
// (row,col) of a 4x4 block at the given QP.
func quantScale(qp int, row, col int) int32 {
	m := qp % 6
	switch posCat(row, col) {
	case 0:
		return quantCoeffA[m]
	case 1:
		return quantCoeffB[m]
	default:
		return quantCoeffC[m]
	}
}

// dequantCoeffA/B/C are the inverse-scale table (table 8-14), indexed the
// same way as the forward table.
var dequantCoeffA = [6]int32{10, 11, 13, 14, 16, 18}
var dequantCoeffB = [6]int32{16, 18, 20, 23, 25, 29}
var dequantCoeffC = [6]int32{13, 14, 16, 18, 20, 23}

func dequantScale(qp int, row, col int) int32 {
	m := qp % 6
	switch posCat(row, col) {
	case 0:
		return dequantCoeffA[m]
	case 1:
		return dequantCoeffB[m]
	default:
		return dequantCoeffC[m]
	}
}

// Quantise4x4 quantises a forward-transformed 4x4 block in place at the
// given QP. intra controls the rounding offset (intra MBs round toward
// 1/3, inter toward 1/6, per the reference rounding behaviour).
func Quantise4x4(block []int32, qp int, intra bool) {
	shift := uint(15 + qp/6)
	var f int32
	if intra {
		f = 1 << uint(15+qp/6) / 3
	} else {
		f = 1 << uint(15+qp/6) / 6
	}
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			idx := row*4 + col
			c := block[idx]
			scale := quantScale(qp, row, col)
			var q int32
			if c >= 0 {
				q = (c*scale + f) >> shift
			} else {
				q = -((-c*scale + f) >> shift)
			}
			block[idx] = q
		}
	}
}

// Dequantise4x4 dequantises a quantised 4x4 residual block in place at
// the given QP (the inverse of Quantise4x4's scaling, not its rounding).
func Dequantise4x4(block []int32, qp int) {
	shift := qp / 6
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			idx := row*4 + col
			scale := dequantScale(qp, row, col)
			if shift >= 4 {
				block[idx] = block[idx] * scale << uint(shift-4)
			} else {
				block[idx] = (block[idx]*scale + (1 << uint(3-shift))) >> uint(4-shift)
			}
		}
	}
}

// QuantiseDC4x4 quantises the 4x4 luma DC block (post-Hadamard) at the
// given QP, per the DC-specific scaling of section 8.5.6.
func QuantiseDC4x4(block []int32, qp int, intra bool) {
	shift := uint(16 + qp/6)
	var f int32
	if intra {
		f = 1 << uint(16+qp/6) / 3
	} else {
		f = 1 << uint(16+qp/6) / 6
	}
	scale := dequantCoeffA[qp%6] // Category-A scale reused per the standard's LevelScale4x4(0,0,0).
	for i, c := range block {
		var q int32
		if c >= 0 {
			q = (c*scale + f) >> shift
		} else {
			q = -((-c*scale + f) >> shift)
		}
		block[i] = q
	}
}

// DequantiseDC4x4 dequantises the luma DC block.
func DequantiseDC4x4(block []int32, qp int) {
	scale := dequantCoeffA[qp%6]
	shift := qp / 6
	for i, c := range block {
		if shift >= 6 {
			block[i] = c * scale << uint(shift-6)
		} else {
			block[i] = (c * scale) >> uint(6-shift)
		}
	}
}

// QuantiseDC2x2 quantises a 2x2 chroma DC block (post-Hadamard).
func QuantiseDC2x2(block []int32, qpc int, intra bool) {
	shift := uint(15 + qpc/6)
	var f int32
	if intra {
		f = 1 << uint(15+qpc/6) / 3
	} else {
		f = 1 << uint(15+qpc/6) / 6
	}
	scale := dequantCoeffA[qpc%6]
	for i, c := range block {
		var q int32
		if c >= 0 {
			q = (c*scale + f) >> shift
		} else {
			q = -((-c*scale + f) >> shift)
		}
		block[i] = q
	}
}

// DequantiseDC2x2 dequantises a 2x2 chroma DC block.
func DequantiseDC2x2(block []int32, qpc int) {
	scale := dequantCoeffA[qpc%6]
	shift := uint(qpc / 6)
	for i, c := range block {
		block[i] = (c * scale) << shift >> 5
	}
}

// qpcTable is the H.264 QPc(QPy) mapping, table 8-15, for QPy in
// [30,51]; below 30, QPc == QPy.
var qpcTable = [...]int{29, 30, 31, 32, 32, 33, 34, 34, 35, 35, 36, 36, 37, 37,
	37, 38, 38, 38, 39, 39, 39, 39}

// QPc derives the chroma quantisation parameter from the luma QP per the
// H.264 table that saturates above 51.
func QPc(qpY int) int {
	y := qpY
	if y > 51 {
		y = 51
	}
	if y < 30 {
		return y
	}
	return qpcTable[y-30]
}

// ZigZag4x4 is the zig-zag scan order for a 4x4 block (table 8-12 raster
// indices in scan order).
var ZigZag4x4 = [16]int{0, 1, 4, 8, 5, 2, 3, 6, 9, 12, 13, 10, 7, 11, 14, 15}

// ZigZag2x2 is the (trivial) scan order for a 2x2 chroma DC block.
var ZigZag2x2 = [4]int{0, 1, 2, 3}

// ToZigZag reorders a raster-order 4x4 block into zig-zag order.
func ToZigZag(raster []int32) []int32 {
	out := make([]int32, len(raster))
	for i, pos := range ZigZag4x4 {
		out[i] = raster[pos]
	}
	return out
}

// FromZigZag reorders a zig-zag-order 4x4 block back into raster order.
func FromZigZag(zz []int32) []int32 {
	out := make([]int32, len(zz))
	for i, pos := range ZigZag4x4 {
		out[pos] = zz[i]
	}
	return out
}
