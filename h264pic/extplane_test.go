/*
NAME
  extplane_test.go

DESCRIPTION
  extplane_test.go tests ExtendedPlane's mirror-extended border and its
  Refresh-on-demand discipline.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264pic

import "testing"

func TestExtendedPlaneMirrorsEdges(t *testing.T) {
	inner := NewPlane(4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			inner.Set(x, y, int16(10*y+x))
		}
	}
	e := NewExtendedPlane(inner, 2, 2)

	if got, want := e.Get(-1, 0), inner.Get(0, 0); got != want {
		t.Errorf("Get(-1,0) = %d, want %d (mirror of left edge)", got, want)
	}
	if got, want := e.Get(4, 0), inner.Get(3, 0); got != want {
		t.Errorf("Get(4,0) = %d, want %d (mirror of right edge)", got, want)
	}
	if got, want := e.Get(0, -1), inner.Get(0, 0); got != want {
		t.Errorf("Get(0,-1) = %d, want %d (mirror of top edge)", got, want)
	}
	if got, want := e.Get(-1, -1), inner.Get(0, 0); got != want {
		t.Errorf("Get(-1,-1) = %d, want %d (mirror of top-left corner)", got, want)
	}
	if got, want := e.Get(1, 1), inner.Get(1, 1); got != want {
		t.Errorf("Get(1,1) = %d, want %d (interior sample unaffected)", got, want)
	}
}

func TestExtendedPlaneRefreshPicksUpChanges(t *testing.T) {
	inner := NewPlane(4, 4)
	e := NewExtendedPlane(inner, 1, 1)
	if got := e.Get(-1, 0); got != 0 {
		t.Fatalf("initial border sample = %d, want 0", got)
	}
	inner.Set(0, 0, 99)
	if got := e.Get(-1, 0); got != 0 {
		t.Error("border should still read stale data before Refresh")
	}
	e.Refresh()
	if got := e.Get(-1, 0); got != 99 {
		t.Errorf("after Refresh: border = %d, want 99", got)
	}
}

func TestExtendedPlaneBoundaryDimensions(t *testing.T) {
	e := NewExtendedPlane(NewPlane(8, 4), 3, 5)
	if e.BoundaryWidth() != 3 || e.BoundaryHeight() != 5 {
		t.Errorf("BoundaryWidth/Height = %d/%d, want 3/5", e.BoundaryWidth(), e.BoundaryHeight())
	}
}
