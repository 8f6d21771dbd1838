/*
DESCRIPTION
  compensate.go implements motion compensation: writing a predicted
  16x16 luma block (and its 8x8 chroma companions, at half-resolution
  motion vectors) into a macroblock's prediction buffer, per spec
  section 4.6. It follows a two-buffer discipline: prediction always
  reads from a settled, mirror-extended snapshot of the reference plane
  (PrepareForSingleVectorMode), never the live reference directly, so a
  reference plane being progressively recompensated (the rate
  controller's damage-control pass, or repeated P-skip recompensation)
  never has one macroblock's write bleed into another's read. Invalidate
  marks that snapshot stale so the next Compensate call rebuilds it.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package h264enc

import "github.com/ausocean/h264codec/h264pic"

// chromaBoundary is the mirror-extension border, in chroma pixels, kept
// around a reference chroma plane.
const chromaBoundary = 12

// RefPlane holds the two-buffer compensation state for one reference
// sample plane: a settled, mirror-extended snapshot (the sampling
// source) and a staleness flag forcing the snapshot to be rebuilt before
// the next read following an Invalidate.
type RefPlane struct {
	live    *h264pic.Plane
	ext     *h264pic.ExtendedPlane
	stale   bool
	bWidth  int
	bHeight int
}

// NewRefPlane wraps a live reference sample plane with the given
// mirror-extension border and prepares its initial snapshot.
func NewRefPlane(live *h264pic.Plane, bWidth, bHeight int) *RefPlane {
	r := &RefPlane{live: live, bWidth: bWidth, bHeight: bHeight}
	r.ext = h264pic.NewExtendedPlane(live, bWidth, bHeight)
	return r
}

// PrepareForSingleVectorMode refreshes the settled snapshot from the
// live plane ahead of a picture's single-motion-vector (Inter_16x16
// only) compensation pass, per section 4.6.
func (r *RefPlane) PrepareForSingleVectorMode() {
	r.ext.Refresh()
	r.stale = false
}

// Invalidate marks the snapshot stale: the next Compensate call will
// refresh it from the live plane before sampling, rather than risk
// reading samples a previous compensation pass already overwrote. Used
// between the rate controller's successive recompensation attempts at
// different QPs and between pictures sharing the same RefPlane.
func (r *RefPlane) Invalidate() { r.stale = true }

func (r *RefPlane) ensureFresh() {
	if r.stale {
		r.PrepareForSingleVectorMode()
	}
}

// RefPicture bundles the three RefPlanes (luma, Cb, Cr) of one reference
// picture, so callers can prepare/compensate/invalidate a whole
// reference at once.
type RefPicture struct {
	Y, Cb, Cr *RefPlane
}

// NewRefPicture wraps the Y/Cb/Cr planes of a reference picture and
// prepares their initial snapshots.
func NewRefPicture(y, cb, cr *h264pic.Plane) *RefPicture {
	return &RefPicture{
		Y:  NewRefPlane(y, motionBoundary, motionBoundary),
		Cb: NewRefPlane(cb, chromaBoundary, chromaBoundary),
		Cr: NewRefPlane(cr, chromaBoundary, chromaBoundary),
	}
}

// PrepareForSingleVectorMode refreshes all three planes' snapshots.
func (rp *RefPicture) PrepareForSingleVectorMode() {
	rp.Y.PrepareForSingleVectorMode()
	rp.Cb.PrepareForSingleVectorMode()
	rp.Cr.PrepareForSingleVectorMode()
}

// Invalidate marks all three planes' snapshots stale.
func (rp *RefPicture) Invalidate() {
	rp.Y.Invalidate()
	rp.Cb.Invalidate()
	rp.Cr.Invalidate()
}

// CompensateLuma writes the motion-compensated 16x16 luma prediction for
// mv into dst (a scratch PlaneView), sampling from ref's settled
// snapshot.
func (ref *RefPlane) CompensateLuma(dst *h264pic.PlaneView, mbX, mbY int, mv MotionVector) {
	ref.ensureFresh()
	block := InterpolateBlock(ref.ext, mbX*4+int(mv.X), mbY*4+int(mv.Y), 16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			dst.Write(x, y, block[y][x])
		}
	}
}

// CompensateChroma writes the motion-compensated 8x8 chroma prediction
// (Cb or Cr) for mv into dst, using the half-resolution motion vector
// implied by the shared luma vector (quarter-luma-pel == eighth-chroma-
// pel at 4:2:0, so the chroma vector is mv/2 in quarter-chroma-pel units
// when expressed against the half-resolution plane).
func (ref *RefPlane) CompensateChroma(dst *h264pic.PlaneView, mbCX, mbCY int, mv MotionVector) {
	ref.ensureFresh()
	block := InterpolateBlock(ref.ext, mbCX*4+int(mv.X)/2, mbCY*4+int(mv.Y)/2, 8, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			dst.Write(x, y, block[y][x])
		}
	}
}
