/*
NAME
  filter_test.go

DESCRIPTION
  filter_test.go tests boundary strength derivation (section 8.7.2.1) and
  a full FilterPicture pass over a flat picture.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264dblk

import (
	"testing"

	"github.com/ausocean/h264codec/h264pic"
)

func TestBoundaryStrength(t *testing.T) {
	intra := &h264pic.MacroBlock{IntraFlag: true}
	inter := &h264pic.MacroBlock{IntraFlag: false}

	tests := []struct {
		name   string
		p, q   *h264pic.MacroBlock
		mbEdge bool
		want   int
	}{
		{"nil neighbour", nil, inter, true, 0},
		{"intra mb edge", intra, inter, true, 4},
		{"intra internal edge", intra, inter, false, 3},
		{"coded inter", &h264pic.MacroBlock{CodedBlkPatten: 1}, inter, false, 2},
		{"skip ignored despite cbp", &h264pic.MacroBlock{CodedBlkPatten: 1, Skip: true}, inter, false, 0},
		{"differing mv", &h264pic.MacroBlock{MvX: [1]int16{4}}, inter, false, 1},
		{"identical inter", inter, inter, false, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := BoundaryStrength(test.p, test.q, test.mbEdge); got != test.want {
				t.Errorf("BoundaryStrength() = %d, want %d", got, test.want)
			}
		})
	}
}

// TestFilterPictureFlatNoOp checks that filtering a perfectly flat
// picture (every sample the same value) leaves it unchanged: boundary
// strength may be nonzero, but there is no gradient for the filter to
// act on.
func TestFilterPictureFlatNoOp(t *testing.T) {
	const widthMbs, heightMbs = 2, 2
	y := h264pic.NewPlane(widthMbs*16, heightMbs*16)
	cb := h264pic.NewPlane(widthMbs*8, heightMbs*8)
	cr := h264pic.NewPlane(widthMbs*8, heightMbs*8)
	for yy := 0; yy < y.Height; yy++ {
		for xx := 0; xx < y.Width; xx++ {
			y.Set(xx, yy, 128)
		}
	}
	for _, p := range []*h264pic.Plane{cb, cr} {
		for yy := 0; yy < p.Height; yy++ {
			for xx := 0; xx < p.Width; xx++ {
				p.Set(xx, yy, 128)
			}
		}
	}
	arr := h264pic.NewMacroBlockArray(widthMbs, heightMbs)
	for _, mb := range arr.MBs {
		mb.IntraFlag = true
		mb.CodedBlkPatten = 47
	}

	FilterPicture(arr, y, cb, cr, 0, len(arr.MBs)-1, 0, 0)

	for yy := 0; yy < y.Height; yy++ {
		for xx := 0; xx < y.Width; xx++ {
			if got := y.Get(xx, yy); got != 128 {
				t.Fatalf("luma sample (%d,%d) = %d, want 128 (flat picture must be unchanged)", xx, yy, got)
			}
		}
	}
}
