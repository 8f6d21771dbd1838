/*
DESCRIPTION
  extqp.go provides the extended-QP coefficient-zeroing helper used by the
  rate controller's damage-control path (spec section 4.3 step 6, section
  4.8).

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

// ExtendedQPSteps lists the damage-control QP ladder used by the
// steepest-ascent path of section 4.8, beyond the standard 0-51 range.
var ExtendedQPSteps = []int{51, 59, 63, 66, 67, 68, 69, 77, 81, 84, 85, 86}

// ZeroExtra forces additional coefficients to zero in reverse zig-zag
// order according to the extended QP value mbEncQP, per section 4.3 step
// 6:
//
//	52-66: zero 1-15 AC coefficients of every residual block.
//	67-69: additionally zero 1-3 chroma-DC AC coefficients.
//	70-84: additionally zero 1-15 luma-DC AC coefficients.
//	85:    zero the chroma DC term entirely.
//	86:    zero the luma DC term entirely.
//
// zz is a residual block already in zig-zag order (16 elements for AC/DC
// luma blocks, 4 for chroma DC blocks); isLumaDC and isChromaDC say
// whether it is the luma-DC block or a chroma-DC block, which are left
// alone until their own stages above.
func ZeroExtra(zz []int32, mbEncQP int, isLumaDC, isChromaDC bool) {
	if mbEncQP <= 51 {
		return
	}
	acZero := 0
	switch {
	case mbEncQP <= 66:
		acZero = mbEncQP - 51
		if isLumaDC || isChromaDC {
			acZero = 0
		}
	case mbEncQP <= 69:
		acZero = 15
		if isChromaDC {
			acZero = mbEncQP - 66 // 1..3 beyond the 15 AC already zeroed for non-DC blocks.
		} else if isLumaDC {
			acZero = 0
		}
	case mbEncQP <= 84:
		acZero = 15
		if isLumaDC {
			acZero = mbEncQP - 69 // 1..15
		} else if isChromaDC {
			acZero = 3
		}
	case mbEncQP == 85:
		acZero = 15
		if isChromaDC {
			for i := range zz {
				zz[i] = 0
			}
			return
		}
	case mbEncQP >= 86:
		if isLumaDC {
			for i := range zz {
				zz[i] = 0
			}
			return
		}
		acZero = 15
		if isChromaDC {
			for i := range zz {
				zz[i] = 0
			}
			return
		}
	}
	if acZero > len(zz)-1 {
		acZero = len(zz) - 1
	}
	for i := 0; i < acZero; i++ {
		zz[len(zz)-1-i] = 0
	}
}
