/*
NAME
  compensate_test.go

DESCRIPTION
  compensate_test.go tests motion compensation at the zero vector (a
  direct copy, independent of the sub-pel interpolation filter) and the
  stale/refresh snapshot discipline RefPlane enforces.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264enc

import (
	"testing"

	"github.com/ausocean/h264codec/h264pic"
)

// TestCompensateLumaZeroVectorIsCopy checks that compensating at the
// zero motion vector reproduces the reference samples exactly, since
// fx==fy==0 bypasses the sub-pel filter entirely.
func TestCompensateLumaZeroVectorIsCopy(t *testing.T) {
	ref := h264pic.NewPlane(32, 32)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			ref.Set(x, y, int16(x+y))
		}
	}
	rp := NewRefPicture(ref, ref, ref)

	dstPlane := h264pic.NewPlane(16, 16)
	dst := dstPlane.View(0, 0, 16, 16)
	rp.Y.CompensateLuma(dst, 8, 8, MotionVector{0, 0})

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			want := ref.Get(8+x, 8+y)
			if got := dst.Read(x, y); got != want {
				t.Fatalf("(%d,%d): got %d, want %d", x, y, got, want)
			}
		}
	}
}

// TestRefPlaneInvalidateForcesRefresh checks that a write to the live
// plane is picked up by the next Compensate call only after Invalidate,
// matching the two-buffer discipline compensate.go documents.
func TestRefPlaneInvalidateForcesRefresh(t *testing.T) {
	live := h264pic.NewPlane(32, 32)
	live.View(0, 0, 32, 32).Fill(32, 32, 10)
	rp := NewRefPlane(live, motionBoundary, motionBoundary)
	rp.PrepareForSingleVectorMode()

	live.View(0, 0, 32, 32).Fill(32, 32, 200)

	dstPlane := h264pic.NewPlane(16, 16)
	dst := dstPlane.View(0, 0, 16, 16)
	rp.CompensateLuma(dst, 4, 4, MotionVector{0, 0})
	if got := dst.Read(0, 0); got != 10 {
		t.Errorf("before Invalidate: got %d, want 10 (stale snapshot)", got)
	}

	rp.Invalidate()
	rp.CompensateLuma(dst, 4, 4, MotionVector{0, 0})
	if got := dst.Read(0, 0); got != 200 {
		t.Errorf("after Invalidate: got %d, want 200 (refreshed snapshot)", got)
	}
}
