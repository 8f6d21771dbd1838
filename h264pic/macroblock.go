/*
DESCRIPTION
  macroblock.go provides the per-macroblock record and the flat macroblock
  array that owns it, following the picture's row-major macroblock grid.

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

// MaxQP is the highest extended QP value the rate controller's damage
// control path may reach (section 4.8/4.3 step 6).
const MaxQP = 86

// Block holds one residual block's quantised coefficients in zig-zag
// order, plus the running coefficient count CAVLC neighbours need.
type Block struct {
	Coeffs    []int32 // Length 16 for 4x4 blocks, 4 for 2x2 chroma DC blocks.
	NumCoeffs int     // -1 signals "not yet decoded/available" to a neighbour.
}

// NewBlock returns a zeroed Block of the given coefficient count.
func NewBlock(n int) Block {
	return Block{Coeffs: make([]int32, n), NumCoeffs: -1}
}

// Reset clears a block's coefficients and coefficient count in place.
func (b *Block) Reset() {
	for i := range b.Coeffs {
		b.Coeffs[i] = 0
	}
	b.NumCoeffs = -1
}

// MacroBlock holds all per-MB state described in spec section 3: type,
// prediction modes, motion vectors, QP, coded-block pattern, residual
// blocks, neighbour indices, and per-QP rate/distortion caches.
//
// Neighbours are stored as indices into the owning MacroBlockArray rather
// than pointers, per the flat neighbour-graph design note: a systems
// implementation should use array indices plus a bounds/slice-id check,
// not owning references, since the array outlives every individual MB
// reference across a picture's lifetime.
type MacroBlock struct {
	Index            int
	Row, Col         int
	OffLumX, OffLumY int
	OffChrX, OffChrY int

	// Neighbour indices; -1 when the neighbour is outside the slice or
	// picture.
	Left, Above, AboveLeft, AboveRight int

	IntraFlag bool
	Skip      bool

	MbType         int
	MbPartPredMode MbPartPredMode

	Intra16x16PredMode Intra16x16Mode
	IntraChromaMode    IntraChromaMode
	Intra4x4PredMode   [16]int8 // Per 4x4 luma block, when MbPartPredMode == PredIntra4x4.

	// Motion vectors and their differences, quarter-pel units. Only
	// partition 0 is used for Inter_16x16 (spec.md excludes smaller
	// inter partitions).
	MvX, MvY   [1]int16
	MvdX, MvdY [1]int16
	RefIdx     int

	MbQP           int // QP this MB is nominally assigned.
	MbEncQP        int // QP actually used to encode (may exceed 51, extended range).
	MbQPDelta      int // Signed, range [-26,25].
	CodedBlkPatten int // 6-bit CBP: 4 bits luma 8x8 presence, 2 bits chroma presence.

	Luma      [16]Block // 4x4 luma AC (or full) blocks in raster 4x4-grid order.
	LumaDC    Block      // 4x4 DC block, Intra_16x16 only.
	Cb        [4]Block
	Cr        [4]Block
	CbDC      Block // 2x2 DC block.
	CrDC      Block // 2x2 DC block.

	// Parallel reconstruction-time copies: the teacher's CAVLC context
	// still needs to see the quantised NumCoeffs after the inverse path
	// has overwritten the main blocks' Coeffs during reconstruction.
	LumaTmp [16]Block
	CbTmp   [4]Block
	CrTmp   [4]Block

	Rate        [MaxQP + 1]int // Populated lazily by the rate controller.
	Distortion  [MaxQP + 1]int
	RateValid   [MaxQP + 1]bool
	DistValid   [MaxQP + 1]bool
}

// NewMacroBlock returns a MacroBlock with its blocks allocated and all
// neighbour indices set to -1 (no neighbour).
func NewMacroBlock(index, row, col, picWidthMbs int) *MacroBlock {
	mb := &MacroBlock{
		Index:     index,
		Row:       row,
		Col:       col,
		OffLumX:   col * 16,
		OffLumY:   row * 16,
		OffChrX:   col * 8,
		OffChrY:   row * 8,
		Left:      -1,
		Above:     -1,
		AboveLeft: -1,
		AboveRight: -1,
	}
	for i := range mb.Luma {
		mb.Luma[i] = NewBlock(16)
		mb.LumaTmp[i] = NewBlock(16)
	}
	for i := range mb.Cb {
		mb.Cb[i] = NewBlock(16)
		mb.CbTmp[i] = NewBlock(16)
	}
	for i := range mb.Cr {
		mb.Cr[i] = NewBlock(16)
		mb.CrTmp[i] = NewBlock(16)
	}
	mb.LumaDC = NewBlock(16)
	mb.CbDC = NewBlock(4)
	mb.CrDC = NewBlock(4)
	if col > 0 {
		mb.Left = index - 1
	}
	if row > 0 {
		mb.Above = index - picWidthMbs
		if col > 0 {
			mb.AboveLeft = index - picWidthMbs - 1
		}
		if col < picWidthMbs-1 {
			mb.AboveRight = index - picWidthMbs + 1
		}
	}
	return mb
}

// Reset clears all per-picture mutable state on a MacroBlock so the
// record can be reused for the next picture in place.
func (mb *MacroBlock) Reset() {
	mb.IntraFlag = false
	mb.Skip = false
	mb.MbType = 0
	mb.MbPartPredMode = PredIntra16x16
	mb.Intra16x16PredMode = Intra16x16DC
	mb.IntraChromaMode = IntraChromaDC
	mb.MvX[0], mb.MvY[0] = 0, 0
	mb.MvdX[0], mb.MvdY[0] = 0, 0
	mb.RefIdx = 0
	mb.MbQP = 0
	mb.MbEncQP = 0
	mb.MbQPDelta = 0
	mb.CodedBlkPatten = 0
	for i := range mb.Luma {
		mb.Luma[i].Reset()
		mb.LumaTmp[i].Reset()
	}
	for i := range mb.Cb {
		mb.Cb[i].Reset()
		mb.CbTmp[i].Reset()
	}
	for i := range mb.Cr {
		mb.Cr[i].Reset()
		mb.CrTmp[i].Reset()
	}
	mb.LumaDC.Reset()
	mb.CbDC.Reset()
	mb.CrDC.Reset()
	for i := range mb.RateValid {
		mb.RateValid[i] = false
		mb.DistValid[i] = false
	}
}

// CodedBlockPatternLuma and CodedBlockPatternChroma split the 6-bit CBP
// field per section 7-36.
func (mb *MacroBlock) CodedBlockPatternLuma() int   { return mb.CodedBlkPatten % 16 }
func (mb *MacroBlock) CodedBlockPatternChroma() int { return mb.CodedBlkPatten / 16 }

// MacroBlockArray is the flat, row-major array of MacroBlocks for one
// picture, created once per Open and outliving every individual slice
// decode/encode pass (per the design note in spec section 9).
type MacroBlockArray struct {
	WidthMbs, HeightMbs int
	MBs                 []*MacroBlock
}

// NewMacroBlockArray allocates a macroblock grid for a widthMbs x
// heightMbs picture.
func NewMacroBlockArray(widthMbs, heightMbs int) *MacroBlockArray {
	a := &MacroBlockArray{WidthMbs: widthMbs, HeightMbs: heightMbs}
	a.MBs = make([]*MacroBlock, widthMbs*heightMbs)
	for row := 0; row < heightMbs; row++ {
		for col := 0; col < widthMbs; col++ {
			idx := row*widthMbs + col
			a.MBs[idx] = NewMacroBlock(idx, row, col, widthMbs)
		}
	}
	return a
}

// Reset clears every macroblock's per-picture state for reuse.
func (a *MacroBlockArray) Reset() {
	for _, mb := range a.MBs {
		mb.Reset()
	}
}

// At returns the macroblock at (row,col), or nil if out of range.
func (a *MacroBlockArray) At(row, col int) *MacroBlock {
	if row < 0 || row >= a.HeightMbs || col < 0 || col >= a.WidthMbs {
		return nil
	}
	return a.MBs[row*a.WidthMbs+col]
}

// Neighbour returns the requested neighbour of mb, or nil if it does not
// exist (outside the picture) or lies outside the given slice's MB range
// [sliceFirst, sliceLast] — constrained_intra_pred and CAVLC neighbour
// context must both treat an out-of-slice MB as unavailable.
func (a *MacroBlockArray) Neighbour(mb *MacroBlock, which NeighbourIndex, sliceFirst, sliceLast int) *MacroBlock {
	var idx int
	switch which {
	case NeighbourLeft:
		idx = mb.Left
	case NeighbourAbove:
		idx = mb.Above
	case NeighbourAboveLeft:
		idx = mb.AboveLeft
	case NeighbourAboveRight:
		idx = mb.AboveRight
	}
	if idx < 0 || idx < sliceFirst || idx > sliceLast {
		return nil
	}
	return a.MBs[idx]
}
