/*
DESCRIPTION
  motion.go implements Inter_16x16 motion estimation: a three-level
  multi-resolution search (quarter-res, half-res, full-res) followed by
  quarter-pel refinement, per spec section 4.5, grounded on the original
  multi-res cross motion estimator.

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

// cifPixels is the pixel count of a CIF (352x288) picture, the threshold
// section 4.5 uses to pick the quarter-pel search range.
const cifPixels = 352 * 288

// motionBoundary is the mirror-extension border, in full-resolution
// pixels, kept around the reference luma plane so quarter-pel
// interpolation at the picture edge never needs separate edge-of-picture
// logic.
const motionBoundary = 24

// MotionVector is a quarter-pel motion vector.
type MotionVector struct {
	X, Y int16
}

// RangeForDimensions returns the quarter-pel search range section 4.5
// specifies: 512 for pictures at or below CIF resolution, 1024 for
// larger ones.
func RangeForDimensions(width, height int) int {
	if width*height <= cifPixels {
		return 512
	}
	return 1024
}

// Estimator searches a reference picture for the best-matching 16x16
// luma block for each macroblock of a current picture, via a
// three-level (quarter-res, half-res, full-res) search refined to
// quarter-pel precision, per section 4.5. A single Estimator is reused
// across a picture's macroblocks and across pictures; SetReference
// rebuilds the sub-sampled reference pyramid every time it is called.
type Estimator struct {
	// RangeQuarterPel is the total search range in quarter-pel units,
	// normally set via RangeForDimensions.
	RangeQuarterPel int

	refFull    *h264pic.ExtendedPlane
	refHalf    *h264pic.Plane
	refQuarter *h264pic.Plane

	pictureSAD int // Running total SAD of every Search call since the last ResetPictureSAD.
}

// NewEstimator returns an Estimator with the given quarter-pel search
// range (see RangeForDimensions).
func NewEstimator(rangeQuarterPel int) *Estimator {
	return &Estimator{RangeQuarterPel: rangeQuarterPel}
}

// SetReference rebuilds the half- and quarter-resolution reference
// planes and the mirror-extended full-resolution plane the search reads
// from. Call once per reference picture, before searching any of its
// macroblocks.
func (e *Estimator) SetReference(ref *h264pic.Plane) {
	e.refFull = h264pic.NewExtendedPlane(ref, motionBoundary, motionBoundary)
	e.refHalf = downsample2x(ref)
	e.refQuarter = downsample2x(e.refHalf)
}

// ResetPictureSAD zeroes the running total SAD accumulated by Search,
// ahead of estimating a new picture's macroblocks.
func (e *Estimator) ResetPictureSAD() { e.pictureSAD = 0 }

// PictureSAD returns the total SAD, after quarter-pel refinement, accumulated by Search
// calls since the last ResetPictureSAD, used by the auto-intra decision
// (ShouldForceIntra).
func (e *Estimator) PictureSAD() int { return e.pictureSAD }

// ShouldForceIntra reports whether a P picture's total motion-search SAD
// has grown enough relative to the previous picture's to justify forcing
// an I picture instead, per section 4.5: the current total must exceed
// either twice the previous total (abs-difference metric) or four times
// it (squared-error metric). frameNum 0 always forces an I picture.
func ShouldForceIntra(frameNum int, curSAD, prevSAD int, squaredError bool) bool {
	if frameNum == 0 {
		return true
	}
	if prevSAD <= 0 {
		return false
	}
	if squaredError {
		return curSAD > 4*prevSAD
	}
	return curSAD > 2*prevSAD
}

// Search finds the best MotionVector for the 16x16 luma block whose
// top-left full-resolution luma sample is (lumaX,lumaY) in cur, against
// the reference set by SetReference, biasing the coarse search toward
// (0,0) and predictor (both the zero vector and the neighbour-median
// predictor are plausible real motion, per section 4.5 step 2).
func (e *Estimator) Search(cur *h264pic.Plane, lumaX, lumaY int, predictor MotionVector) (MotionVector, int) {
	rangeFullPel := e.RangeQuarterPel / 4
	if rangeFullPel < 1 {
		rangeFullPel = 1
	}
	l2Range := rangeFullPel / 4
	if l2Range < 1 {
		l2Range = 1
	}

	predFullX, predFullY := int(predictor.X)/4, int(predictor.Y)/4

	curHalf := downsample2xView(cur, lumaX, lumaY, 16, 16)
	curQuarter := downsample2xPlane(curHalf)

	// L2: quarter-resolution, 4x4 block, exhaustive search around (0,0)
	// and the predictor, both scaled into quarter-res integer-pel units.
	l2X, l2Y := lumaX/4, lumaY/4
	l2Best, l2Cost := searchPlane(curQuarter, e.refQuarter, 0, 0, l2X, l2Y, 4, 4, l2Range)
	if predFullX != 0 || predFullY != 0 {
		cx, cy := predFullX/4, predFullY/4
		cand, cost := searchPlane(curQuarter, e.refQuarter, cx, cy, l2X, l2Y, 4, 4, l2Range)
		if cost < l2Cost {
			l2Best, l2Cost = cand, cost
		}
	}

	// L1: half-resolution, 8x8 block, refine +/-2 around 2*L2 best.
	l1X, l1Y := lumaX/2, lumaY/2
	l1Best, l1Cost := searchPlane(curHalf, e.refHalf, l2Best[0]*2, l2Best[1]*2, l1X, l1Y, 8, 8, 2)
	_ = l1Cost

	// L0: full resolution, 16x16 block, refine +/-2 around 2*L1 best.
	curView := cur.View(lumaX, lumaY, 16, 16)
	l0Best, l0Cost := searchExtended(curView, e.refFull, l1Best[0]*2, l1Best[1]*2, lumaX, lumaY, 16, 16, 2)

	mv := MotionVector{X: int16(l0Best[0] * 4), Y: int16(l0Best[1] * 4)}
	mv, cost := e.refineQuarterPel(curView, lumaX, lumaY, mv, l0Cost)
	e.pictureSAD += cost
	return mv, cost
}

// searchPlane exhaustively evaluates SAD over [-radius,radius] in each
// direction around (biasX,biasY), against cur's reference window at
// (refX,refY) of size w x h in ref (a plain, edge-clamped Plane: used
// for the coarse quarter-/half-res levels, where exact mirror-extension
// at the boundary matters less than it does for the final full-res
// compensation).
func searchPlane(cur, ref *h264pic.Plane, biasX, biasY, refX, refY, w, h, radius int) ([2]int, int) {
	curView := cur.View(0, 0, w, h)
	best := [2]int{biasX, biasY}
	bestCost := sadPlane(curView, ref, refX+biasX, refY+biasY, w, h)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			x, y := biasX+dx, biasY+dy
			cost := sadPlane(curView, ref, refX+x, refY+y, w, h)
			if cost < bestCost {
				bestCost = cost
				best = [2]int{x, y}
			}
		}
	}
	return best, bestCost
}

// searchExtended is searchPlane's full-resolution counterpart, reading
// the reference through the mirror-extended plane so vectors that point
// past the picture edge are still well-defined.
func searchExtended(curView *h264pic.PlaneView, ref *h264pic.ExtendedPlane, biasX, biasY, refX, refY, w, h, radius int) ([2]int, int) {
	best := [2]int{biasX, biasY}
	bestCost := sadExtended(curView, ref, refX+biasX, refY+biasY, w, h)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			x, y := biasX+dx, biasY+dy
			cost := sadExtended(curView, ref, refX+x, refY+y, w, h)
			if cost < bestCost {
				bestCost = cost
				best = [2]int{x, y}
			}
		}
	}
	return best, bestCost
}

func sadPlane(curView *h264pic.PlaneView, ref *h264pic.Plane, refX, refY, w, h int) int {
	sum := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := int(curView.Read(x, y)) - int(ref.Get(refX+x, refY+y))
			if d < 0 {
				d = -d
			}
			sum += d
		}
	}
	return sum
}

func sadExtended(curView *h264pic.PlaneView, ref *h264pic.ExtendedPlane, refX, refY, w, h int) int {
	sum := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := int(curView.Read(x, y)) - int(ref.Get(refX+x, refY+y))
			if d < 0 {
				d = -d
			}
			sum += d
		}
	}
	return sum
}

// refineQuarterPel searches the eight positions one quarter-pel step
// (horizontal, vertical or diagonal) around the integer-pel vector found
// by the coarse search, using the 6-tap
// H.264 interpolation filter for the fractional samples.
func (e *Estimator) refineQuarterPel(curView *h264pic.PlaneView, lumaX, lumaY int, mv MotionVector, bestCost int) (MotionVector, int) {
	candidates := []MotionVector{mv}
	for _, d := range []MotionVector{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}} {
		candidates = append(candidates, MotionVector{mv.X + d.X, mv.Y + d.Y})
	}
	best := mv
	for _, c := range candidates {
		block := InterpolateBlock(e.refFull, lumaX*4+int(c.X), lumaY*4+int(c.Y), 16, 16)
		cost := sadAgainstView(curView, block, 16, 16)
		if cost < bestCost {
			bestCost = cost
			best = c
		}
	}
	return best, bestCost
}

func sadAgainstView(view *h264pic.PlaneView, block [][]int16, w, h int) int {
	sum := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := int(view.Read(x, y)) - int(block[y][x])
			if d < 0 {
				d = -d
			}
			sum += d
		}
	}
	return sum
}

// downsample2x box-averages a plane down to half resolution in each
// dimension, the pyramid level the three-level search's L1 stage reads.
func downsample2x(p *h264pic.Plane) *h264pic.Plane {
	w, h := p.Width/2, p.Height/2
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	out := h264pic.NewPlane(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := int(p.Get(2*x, 2*y)) + int(p.Get(2*x+1, 2*y)) + int(p.Get(2*x, 2*y+1)) + int(p.Get(2*x+1, 2*y+1))
			out.Set(x, y, int16((sum+2)/4))
		}
	}
	return out
}

func downsample2xPlane(p *h264pic.Plane) *h264pic.Plane { return downsample2x(p) }

// downsample2xView box-averages a w x h window of src at (x,y) down to a
// half-resolution plane, used to build the current macroblock's half-res
// samples without downsampling the whole current picture up front.
func downsample2xView(src *h264pic.Plane, x, y, w, h int) *h264pic.Plane {
	ow, oh := w/2, h/2
	out := h264pic.NewPlane(ow, oh)
	for oy := 0; oy < oh; oy++ {
		for ox := 0; ox < ow; ox++ {
			sx, sy := x+2*ox, y+2*oy
			sum := int(src.Get(sx, sy)) + int(src.Get(sx+1, sy)) + int(src.Get(sx, sy+1)) + int(src.Get(sx+1, sy+1))
			out.Set(ox, oy, int16((sum+2)/4))
		}
	}
	return out
}

// InterpolateBlock samples a w x h block from ref at quarter-pel
// position (qx,qy) (in quarter-sample units), applying the H.264 6-tap
// half-pel filter (1,-5,20,20,-5,1)/32 and bilinear quarter-pel
// averaging, per section 8.4.2.2. ref is mirror-extended so positions
// near or past the picture boundary are still well-defined.
func InterpolateBlock(ref *h264pic.ExtendedPlane, qx, qy, w, h int) [][]int16 {
	ix, fx := qx>>2, qx&3
	iy, fy := qy>>2, qy&3
	out := make([][]int16, h)
	for y := 0; y < h; y++ {
		out[y] = make([]int16, w)
		for x := 0; x < w; x++ {
			out[y][x] = sampleSubPel(ref, ix+x, iy+y, fx, fy)
		}
	}
	return out
}

func tap6(s0, s1, s2, s3, s4, s5 int) int {
	return s0 - 5*s1 + 20*s2 + 20*s3 - 5*s4 + s5
}

// sampleSubPel evaluates one output sample of the 6-tap/bilinear
// interpolation at integer base position (ix,iy) and fractional offset
// (fx,fy) in quarter-pel units (0-3 each).
func sampleSubPel(ref *h264pic.ExtendedPlane, ix, iy, fx, fy int) int16 {
	get := func(dx, dy int) int { return int(ref.Get(ix+dx, iy+dy)) }

	if fx == 0 && fy == 0 {
		return int16(get(0, 0))
	}

	halfH := func(dy int) int {
		v := tap6(get(-2, dy), get(-1, dy), get(0, dy), get(1, dy), get(2, dy), get(3, dy))
		return clampPel((v + 16) >> 5)
	}
	halfV := func(dx int) int {
		v := tap6(get(dx, -2), get(dx, -1), get(dx, 0), get(dx, 1), get(dx, 2), get(dx, 3))
		return clampPel((v + 16) >> 5)
	}

	switch {
	case fy == 0:
		if fx == 2 {
			return int16(halfH(0))
		}
		nb := 0
		if fx == 3 {
			nb = 1
		}
		return int16(avg(get(nb, 0), halfH(0)))
	case fx == 0:
		if fy == 2 {
			return int16(halfV(0))
		}
		nb := 0
		if fy == 3 {
			nb = 1
		}
		return int16(avg(get(0, nb), halfV(0)))
	case fx == 2 && fy == 2:
		// Centre sample: average of the horizontal and vertical half-pel
		// intermediate values, per the standard's "j" sample derivation.
		return int16(avg(halfH(0), halfV(0)))
	default:
		hx, hy := 0, 0
		if fx >= 2 {
			hx = 1
		}
		if fy >= 2 {
			hy = 1
		}
		return int16(avg(halfH(hy-0), halfV(hx-0)))
	}
}

func avg(a, b int) int { return (a + b + 1) >> 1 }

func clampPel(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
