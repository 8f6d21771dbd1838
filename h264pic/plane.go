/*
DESCRIPTION
  plane.go provides a strided 2-D sample plane and windowed views onto it,
  with the pixel-wise and block reduction operations the macroblock
  pipeline and motion search need.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package h264pic provides the planar image buffer, plane views, and the
// macroblock record that the encoder and decoder pipelines operate on.
package h264pic

// Plane is a single contiguous strided sample plane, e.g. the Y, Cb, or Cr
// component of a picture. Samples are kept as int16 since intermediate
// transform and prediction values may run outside [0,255].
type Plane struct {
	Width, Height int
	Stride        int
	Samples       []int16
}

// NewPlane allocates a zeroed plane of the given dimensions.
func NewPlane(width, height int) *Plane {
	return &Plane{
		Width:   width,
		Height:  height,
		Stride:  width,
		Samples: make([]int16, width*height),
	}
}

func (p *Plane) at(x, y int) int { return y*p.Stride + x }

// Get returns the sample at (x,y), clipping the coordinate into the plane.
func (p *Plane) Get(x, y int) int16 {
	if x < 0 {
		x = 0
	} else if x >= p.Width {
		x = p.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= p.Height {
		y = p.Height - 1
	}
	return p.Samples[p.at(x, y)]
}

// Set writes the sample at (x,y) if it lies within the plane bounds.
func (p *Plane) Set(x, y int, v int16) {
	if x < 0 || x >= p.Width || y < 0 || y >= p.Height {
		return
	}
	p.Samples[p.at(x, y)] = v
}

// View returns a PlaneView windowed at (x,y) of the given block size.
func (p *Plane) View(x, y, w, h int) *PlaneView {
	return &PlaneView{plane: p, originX: x, originY: y, w: w, h: h}
}

// PlaneView is a (x,y,width,height) window onto a Plane. Reads and writes
// clip the origin into [0,width)x[0,height) of the backing plane; the
// window itself is assumed to fit.
type PlaneView struct {
	plane          *Plane
	originX        int
	originY        int
	w, h           int
}

// SetOrigin repositions the view's top-left corner.
func (v *PlaneView) SetOrigin(x, y int) { v.originX, v.originY = x, y }

// Width and Height of the view's block.
func (v *PlaneView) Width() int  { return v.w }
func (v *PlaneView) Height() int { return v.h }

// Read returns the sample at block-local coordinates (bx,by).
func (v *PlaneView) Read(bx, by int) int16 {
	return v.plane.Get(v.originX+bx, v.originY+by)
}

// Write sets the sample at block-local coordinates (bx,by).
func (v *PlaneView) Write(bx, by int, val int16) {
	v.plane.Set(v.originX+bx, v.originY+by, val)
}

// CopyBlockFrom copies a w x h block from src (with its own origin) into
// this view's origin. Used to move reconstructed/compensated blocks
// between scratch buffers and the reference plane.
func (v *PlaneView) CopyBlockFrom(src *PlaneView, w, h int) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v.Write(x, y, src.Read(x, y))
		}
	}
}

// Fill sets every sample in the w x h block to val.
func (v *PlaneView) Fill(w, h int, val int16) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v.Write(x, y, val)
		}
	}
}

// Sad returns the sum of absolute differences between this view and o over
// a w x h block.
func (v *PlaneView) Sad(o *PlaneView, w, h int) int {
	sum := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := int(v.Read(x, y)) - int(o.Read(x, y))
			if d < 0 {
				d = -d
			}
			sum += d
		}
	}
	return sum
}

// SadBound is Sad but returns early once the accumulator reaches or
// exceeds bound, returning the partial sum and false. Used by the motion
// estimator to prune candidates cheaply.
func (v *PlaneView) SadBound(o *PlaneView, w, h, bound int) (int, bool) {
	sum := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := int(v.Read(x, y)) - int(o.Read(x, y))
			if d < 0 {
				d = -d
			}
			sum += d
			if sum >= bound {
				return sum, false
			}
		}
	}
	return sum, true
}

// Ssd returns the sum of squared differences between this view and o over
// a w x h block.
func (v *PlaneView) Ssd(o *PlaneView, w, h int) int {
	sum := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := int(v.Read(x, y)) - int(o.Read(x, y))
			sum += d * d
		}
	}
	return sum
}

// SsdBound is Ssd with early exit once the accumulator reaches or exceeds
// bound.
func (v *PlaneView) SsdBound(o *PlaneView, w, h, bound int) (int, bool) {
	sum := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := int(v.Read(x, y)) - int(o.Read(x, y))
			sum += d * d
			if sum >= bound {
				return sum, false
			}
		}
	}
	return sum, true
}

// Sum returns the sum of samples in a w x h block.
func (v *PlaneView) Sum(w, h int) int {
	sum := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum += int(v.Read(x, y))
		}
	}
	return sum
}

// AddClip adds o's samples to this view's, saturating the result to
// [0,255] and writing it back into this view. Used to add a prediction
// block back into the residual during reconstruction.
func (v *PlaneView) AddClip(o *PlaneView, w, h int) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := int(v.Read(x, y)) + int(o.Read(x, y))
			v.Write(x, y, int16(clip255(s)))
		}
	}
}

// Sub writes (this - o) into this view, sample-wise, with no clipping.
// Used to form a prediction residual.
func (v *PlaneView) Sub(o *PlaneView, w, h int) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v.Write(x, y, v.Read(x, y)-o.Read(x, y))
		}
	}
}

// Equals reports whether this view and o hold identical samples over a
// w x h block.
func (v *PlaneView) Equals(o *PlaneView, w, h int) bool {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if v.Read(x, y) != o.Read(x, y) {
				return false
			}
		}
	}
	return true
}

func clip255(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
