/*
DESCRIPTION
  transform.go provides the H.264 Baseline integer 4x4 transform, the
  4x4 and 2x2 Hadamard DC transforms, and the quantiser/dequantiser that
  drive them.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package h264transform provides the integer 4x4 transform, the Hadamard
// DC transforms, and the quantisation tables used by the macroblock
// pipeline (spec section 4.2).
package h264transform

// Mode selects what a transform call does: transform only, quantise
// only, or both combined, per spec section 4.2.
type Mode int8

const (
	TransformOnly Mode = iota
	QuantiseOnly
	Combined
)

// Forward4x4 applies the H.264 integer 4x4 forward transform to block in
// place (row-major, 16 elements).
func Forward4x4(block []int32) {
	var tmp [16]int32
	// Horizontal pass (per row).
	for i := 0; i < 4; i++ {
		r := block[i*4 : i*4+4]
		a0 := r[0] + r[3]
		a1 := r[1] + r[2]
		a2 := r[1] - r[2]
		a3 := r[0] - r[3]
		tmp[i*4+0] = a0 + a1
		tmp[i*4+1] = 2*a3 + a2
		tmp[i*4+2] = a0 - a1
		tmp[i*4+3] = a3 - 2*a2
	}
	// Vertical pass (per column).
	for i := 0; i < 4; i++ {
		a0 := tmp[0*4+i] + tmp[3*4+i]
		a1 := tmp[1*4+i] + tmp[2*4+i]
		a2 := tmp[1*4+i] - tmp[2*4+i]
		a3 := tmp[0*4+i] - tmp[3*4+i]
		block[0*4+i] = a0 + a1
		block[1*4+i] = 2*a3 + a2
		block[2*4+i] = a0 - a1
		block[3*4+i] = a3 - 2*a2
	}
}

// Inverse4x4 applies the H.264 integer 4x4 inverse transform to block in
// place.
func Inverse4x4(block []int32) {
	var tmp [16]int32
	for i := 0; i < 4; i++ {
		e0 := block[0*4+i] + block[2*4+i]
		e1 := block[0*4+i] - block[2*4+i]
		e2 := (block[1*4+i] >> 1) - block[3*4+i]
		e3 := block[1*4+i] + (block[3*4+i] >> 1)
		tmp[0*4+i] = e0 + e3
		tmp[1*4+i] = e1 + e2
		tmp[2*4+i] = e1 - e2
		tmp[3*4+i] = e0 - e3
	}
	for i := 0; i < 4; i++ {
		r := tmp[i*4 : i*4+4]
		e0 := r[0] + r[2]
		e1 := r[0] - r[2]
		e2 := (r[1] >> 1) - r[3]
		e3 := r[1] + (r[3] >> 1)
		block[i*4+0] = (e0 + e3 + 32) >> 6
		block[i*4+1] = (e1 + e2 + 32) >> 6
		block[i*4+2] = (e1 - e2 + 32) >> 6
		block[i*4+3] = (e0 - e3 + 32) >> 6
	}
}

// HadamardForward4x4 applies the 4x4 Hadamard transform used to collect
// the DC coefficients of the 16 luma blocks of an Intra_16x16 MB.
func HadamardForward4x4(block []int32) {
	var tmp [16]int32
	for i := 0; i < 4; i++ {
		r := block[i*4 : i*4+4]
		a0 := r[0] + r[2]
		a1 := r[0] - r[2]
		a2 := r[1] - r[3]
		a3 := r[1] + r[3]
		tmp[i*4+0] = a0 + a3
		tmp[i*4+1] = a1 + a2
		tmp[i*4+2] = a1 - a2
		tmp[i*4+3] = a0 - a3
	}
	for i := 0; i < 4; i++ {
		a0 := tmp[0*4+i] + tmp[2*4+i]
		a1 := tmp[0*4+i] - tmp[2*4+i]
		a2 := tmp[1*4+i] - tmp[3*4+i]
		a3 := tmp[1*4+i] + tmp[3*4+i]
		block[0*4+i] = a0 + a3
		block[1*4+i] = a1 + a2
		block[2*4+i] = a1 - a2
		block[3*4+i] = a0 - a3
	}
}

// HadamardInverse4x4 is the inverse of HadamardForward4x4.
func HadamardInverse4x4(block []int32) { HadamardForward4x4(block) } // Self-inverse up to the scaling folded into dequantisation.

// HadamardForward2x2 applies the 2x2 Hadamard transform used for the Cb
// (and Cr) DC coefficients.
func HadamardForward2x2(block []int32) {
	a, b, c, d := block[0], block[1], block[2], block[3]
	block[0] = a + b + c + d
	block[1] = a - b + c - d
	block[2] = a + b - c - d
	block[3] = a - b - c + d
}

// HadamardInverse2x2 is the inverse of HadamardForward2x2 (also
// self-inverse up to scaling).
func HadamardInverse2x2(block []int32) { HadamardForward2x2(block) }
