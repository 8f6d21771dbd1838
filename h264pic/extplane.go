/*
DESCRIPTION
  extplane.go provides an extended-boundary plane view, a PlaneView whose
  addressable area is padded by a mirror-extended boundary so that motion
  compensation and sub-pel interpolation can read past the picture edge.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package h264pic

// ExtendedPlane is a Plane with an additional border of bWidth/bHeight
// pixels on every side, filled by mirror-extending the nearest edge pixel
// of the inner picture. Coordinates passed to its views may legally be
// negative or beyond the inner picture, up to the boundary width.
type ExtendedPlane struct {
	inner          *Plane
	bWidth, bHeight int
	full           *Plane // Width/Height include the border on both sides.
}

// NewExtendedPlane wraps inner with a border of bWidth columns and
// bHeight rows on every side.
func NewExtendedPlane(inner *Plane, bWidth, bHeight int) *ExtendedPlane {
	e := &ExtendedPlane{
		inner:   inner,
		bWidth:  bWidth,
		bHeight: bHeight,
		full:    NewPlane(inner.Width+2*bWidth, inner.Height+2*bHeight),
	}
	e.Refresh()
	return e
}

// Refresh copies the inner plane's current contents into the padded
// buffer and mirror-extends the border. Call after the inner plane's
// contents change and before reading through the extended view.
func (e *ExtendedPlane) Refresh() {
	for y := 0; y < e.inner.Height; y++ {
		for x := 0; x < e.inner.Width; x++ {
			e.full.Set(x+e.bWidth, y+e.bHeight, e.inner.Get(x, y))
		}
	}
	w, h, b := e.inner.Width, e.inner.Height, e.bWidth
	bh := e.bHeight
	// Left/right borders.
	for y := 0; y < h; y++ {
		left := e.full.Get(b, y+bh)
		right := e.full.Get(w+b-1, y+bh)
		for x := 0; x < b; x++ {
			e.full.Set(x, y+bh, left)
			e.full.Set(w+b+x, y+bh, right)
		}
	}
	// Top/bottom borders, including corners, read from the now-extended
	// left/right columns.
	for y := 0; y < bh; y++ {
		for x := 0; x < e.full.Width; x++ {
			e.full.Set(x, y, e.full.Get(x, bh))
			e.full.Set(x, bh+h+y, e.full.Get(x, bh+h-1))
		}
	}
}

// View returns a PlaneView over the extended plane addressed in the
// inner picture's coordinate system: (0,0) is still the inner picture's
// top-left, but coordinates down to -bWidth/-bHeight and up to
// Width+bWidth/Height+bHeight are valid.
func (e *ExtendedPlane) View(x, y, w, h int) *PlaneView {
	return e.full.View(x+e.bWidth, y+e.bHeight, w, h)
}

// Get returns the sample at inner-picture coordinates (x,y). Coordinates
// within the mirror-extended border (down to -bWidth/-bHeight and up to
// Width+bWidth/Height+bHeight) return the mirrored sample; coordinates
// further out clip to the border's edge, as Plane.Get does.
func (e *ExtendedPlane) Get(x, y int) int16 {
	return e.full.Get(x+e.bWidth, y+e.bHeight)
}

// BoundaryWidth and BoundaryHeight report the configured border size.
func (e *ExtendedPlane) BoundaryWidth() int  { return e.bWidth }
func (e *ExtendedPlane) BoundaryHeight() int { return e.bHeight }

// Inner returns the wrapped, unpadded plane.
func (e *ExtendedPlane) Inner() *Plane { return e.inner }
