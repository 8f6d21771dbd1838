/*
NAME
  plane_test.go

DESCRIPTION
  plane_test.go tests Plane's edge clipping and PlaneView's block-wise
  read/write, difference, and arithmetic operations.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264pic

import "testing"

func TestPlaneGetClipsToBounds(t *testing.T) {
	p := NewPlane(4, 4)
	p.Set(0, 0, 10)
	p.Set(3, 3, 20)
	if got := p.Get(-1, -1); got != 10 {
		t.Errorf("Get(-1,-1) = %d, want 10 (clip to (0,0))", got)
	}
	if got := p.Get(99, 99); got != 20 {
		t.Errorf("Get(99,99) = %d, want 20 (clip to (3,3))", got)
	}
}

func TestPlaneSetOutOfBoundsIsNoop(t *testing.T) {
	p := NewPlane(4, 4)
	p.Set(-1, 0, 5)
	p.Set(4, 0, 5)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := p.Get(x, y); got != 0 {
				t.Fatalf("Set out of bounds mutated (%d,%d) = %d", x, y, got)
			}
		}
	}
}

func TestPlaneViewReadWrite(t *testing.T) {
	p := NewPlane(16, 16)
	v := p.View(4, 4, 4, 4)
	v.Fill(4, 4, 7)
	if got := p.Get(4, 4); got != 7 {
		t.Errorf("Fill did not reach backing plane at (4,4): got %d", got)
	}
	if got := p.Get(8, 8); got != 0 {
		t.Errorf("Fill wrote outside its window: (8,8) = %d", got)
	}
	v.Write(1, 1, 42)
	if got := v.Read(1, 1); got != 42 {
		t.Errorf("Read(1,1) = %d, want 42", got)
	}
	if got := p.Get(5, 5); got != 42 {
		t.Errorf("Write did not land at plane coordinate (5,5): got %d", got)
	}
}

func TestPlaneViewSadSsd(t *testing.T) {
	p1 := NewPlane(4, 4)
	p2 := NewPlane(4, 4)
	v1, v2 := p1.View(0, 0, 4, 4), p2.View(0, 0, 4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			v1.Write(x, y, int16(10))
			v2.Write(x, y, int16(12))
		}
	}
	if got := v1.Sad(v2, 4, 4); got != 32 {
		t.Errorf("Sad() = %d, want 32 (16 samples x diff 2)", got)
	}
	if got := v1.Ssd(v2, 4, 4); got != 64 {
		t.Errorf("Ssd() = %d, want 64 (16 samples x diff^2 4)", got)
	}
}

func TestPlaneViewSadBoundEarlyExit(t *testing.T) {
	p1 := NewPlane(4, 4)
	p2 := NewPlane(4, 4)
	v1, v2 := p1.View(0, 0, 4, 4), p2.View(0, 0, 4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			v2.Write(x, y, 100)
		}
	}
	if _, ok := v1.SadBound(v2, 4, 4, 50); ok {
		t.Error("SadBound should report false once bound is exceeded")
	}
	if _, ok := v1.SadBound(v2, 4, 4, 1<<20); !ok {
		t.Error("SadBound should report true when bound is never reached")
	}
}

func TestPlaneViewAddClipSaturates(t *testing.T) {
	p1 := NewPlane(2, 2)
	p2 := NewPlane(2, 2)
	v1, v2 := p1.View(0, 0, 2, 2), p2.View(0, 0, 2, 2)
	v1.Fill(2, 2, 200)
	v2.Fill(2, 2, 200)
	v1.AddClip(v2, 2, 2)
	if got := v1.Read(0, 0); got != 255 {
		t.Errorf("AddClip did not saturate: got %d, want 255", got)
	}
}

func TestPlaneViewSubAndEquals(t *testing.T) {
	p1 := NewPlane(2, 2)
	p2 := NewPlane(2, 2)
	v1, v2 := p1.View(0, 0, 2, 2), p2.View(0, 0, 2, 2)
	v1.Fill(2, 2, 10)
	v2.Fill(2, 2, 3)
	v1.Sub(v2, 2, 2)
	if got := v1.Read(0, 0); got != 7 {
		t.Errorf("Sub() left %d, want 7", got)
	}
	if v1.Equals(v2, 2, 2) {
		t.Error("Equals reported true for differing views")
	}
	v2.Fill(2, 2, 7)
	if !v1.Equals(v2, 2, 2) {
		t.Error("Equals reported false for identical views")
	}
}
