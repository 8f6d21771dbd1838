/*
NAME
  transform_test.go

DESCRIPTION
  transform_test.go tests the integer 4x4 transform's DC-only special
  case and the Hadamard transforms' self-inverse-up-to-scaling property.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264transform

import "testing"

// TestForward4x4FlatBlockIsDCOnly checks that transforming a constant
// block leaves every AC coefficient at zero and the DC term at 16 times
// the constant value.
func TestForward4x4FlatBlockIsDCOnly(t *testing.T) {
	block := make([]int32, 16)
	for i := range block {
		block[i] = 7
	}
	Forward4x4(block)
	if block[0] != 16*7 {
		t.Errorf("DC term = %d, want %d", block[0], 16*7)
	}
	for i := 1; i < 16; i++ {
		if block[i] != 0 {
			t.Errorf("AC coefficient %d = %d, want 0 for a flat block", i, block[i])
		}
	}
}

// TestHadamardForward4x4AppliedTwiceScalesBy16 checks the Hadamard
// transform's self-inverse-up-to-scaling property: applying the 2-D 4x4
// transform twice returns 16x the original block (4x per dimension),
// independent of quantisation.
func TestHadamardForward4x4AppliedTwiceScalesBy16(t *testing.T) {
	orig := []int32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	block := append([]int32(nil), orig...)
	HadamardForward4x4(block)
	HadamardForward4x4(block)
	for i, v := range orig {
		if block[i] != 16*v {
			t.Errorf("index %d: got %d, want %d (16x original)", i, block[i], 16*v)
		}
	}
}

// TestHadamardForward2x2AppliedTwiceScalesBy4 is the 2x2 chroma-DC
// analogue of TestHadamardForward4x4AppliedTwiceScalesBy16 (2x per
// dimension).
func TestHadamardForward2x2AppliedTwiceScalesBy4(t *testing.T) {
	orig := []int32{1, 2, 3, 4}
	block := append([]int32(nil), orig...)
	HadamardForward2x2(block)
	HadamardForward2x2(block)
	for i, v := range orig {
		if block[i] != 4*v {
			t.Errorf("index %d: got %d, want %d (4x original)", i, block[i], 4*v)
		}
	}
}

// TestInverse4x4OfZeroIsZero checks the trivial base case: no residual
// transforms and inverts to no residual.
func TestInverse4x4OfZeroIsZero(t *testing.T) {
	block := make([]int32, 16)
	Inverse4x4(block)
	for i, v := range block {
		if v != 0 {
			t.Errorf("index %d: got %d, want 0", i, v)
		}
	}
}
