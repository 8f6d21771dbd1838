/*
DESCRIPTION
  context.go derives the CAVLC neighbour context nC used to select a
  coeff_token table, per section 9.2.1, from the flat macroblock/block
  neighbour graph in h264pic.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package h264cavlc

import "github.com/ausocean/h264codec/h264pic"

// BlockPos identifies one 4x4 (or 2x2) block within a macroblock, by the
// raster index into the relevant array (Luma[0..15], Cb[0..3], Cr[0..3]).
type BlockPos struct {
	Kind h264pic.BlockKind
	Row, Col int // Raster position within the macroblock's 4x4 (luma) or 2x2 (chroma) grid.
}

// blockAt returns a pointer to mb's luma 4x4 block at (row,col) for
// BlockLuma, and nil for any other kind.
func blockAt(mb *h264pic.MacroBlock, kind h264pic.BlockKind, row, col int) *h264pic.Block {
	switch kind {
	case h264pic.BlockLuma:
		return &mb.Luma[row*4+col]
	case h264pic.BlockChromaAC:
		return nil // Caller passes the Cb/Cr array directly; see NC below.
	}
	return nil
}

// NC computes the nC context value for a luma 4x4 block at (row,col)
// within mb, given its MacroBlockArray and slice MB-address bounds, per
// section 9.2.1's averaging rule: nC = (nA + nB + 1) >> 1 when both
// neighbours are available, nA or nB alone when only one is, and 0 when
// neither is.
func NC(arr *h264pic.MacroBlockArray, mb *h264pic.MacroBlock, row, col, sliceFirst, sliceLast int) int {
	nA, availA := lumaNeighbourCoeffs(arr, mb, row, col, h264pic.NeighbourLeft, sliceFirst, sliceLast)
	nB, availB := lumaNeighbourCoeffs(arr, mb, row, col, h264pic.NeighbourAbove, sliceFirst, sliceLast)
	switch {
	case availA && availB:
		return (nA + nB + 1) >> 1
	case availA:
		return nA
	case availB:
		return nB
	default:
		return 0
	}
}

// lumaNeighbourCoeffs returns the NumCoeffs of the 4x4 luma block
// adjacent to (row,col) in direction dir, resolving across a macroblock
// boundary via arr when needed.
func lumaNeighbourCoeffs(arr *h264pic.MacroBlockArray, mb *h264pic.MacroBlock, row, col int, dir h264pic.NeighbourIndex, sliceFirst, sliceLast int) (int, bool) {
	nr, nc := row, col
	owner := mb
	switch dir {
	case h264pic.NeighbourLeft:
		if col == 0 {
			owner = arr.Neighbour(mb, h264pic.NeighbourLeft, sliceFirst, sliceLast)
			nc = 3
		} else {
			nc = col - 1
		}
	case h264pic.NeighbourAbove:
		if row == 0 {
			owner = arr.Neighbour(mb, h264pic.NeighbourAbove, sliceFirst, sliceLast)
			nr = 3
		} else {
			nr = row - 1
		}
	}
	if owner == nil {
		return 0, false
	}
	b := owner.Luma[nr*4+nc]
	if b.NumCoeffs < 0 {
		return 0, false
	}
	return b.NumCoeffs, true
}

// ChromaNC computes nC for a chroma AC block (Cb or Cr, 4x4, 8 of them
// per MB at the shared chroma sampling used by Baseline 4:2:0) using the
// same averaging rule over the chroma block grid (2x2 of 4x4 blocks).
func ChromaNC(arr *h264pic.MacroBlockArray, mb *h264pic.MacroBlock, blocks *[4]h264pic.Block, row, col int, neighbourBlocks func(*h264pic.MacroBlock) *[4]h264pic.Block, sliceFirst, sliceLast int) int {
	nA, availA := chromaNeighbourCoeffs(arr, mb, blocks, row, col, h264pic.NeighbourLeft, neighbourBlocks, sliceFirst, sliceLast)
	nB, availB := chromaNeighbourCoeffs(arr, mb, blocks, row, col, h264pic.NeighbourAbove, neighbourBlocks, sliceFirst, sliceLast)
	switch {
	case availA && availB:
		return (nA + nB + 1) >> 1
	case availA:
		return nA
	case availB:
		return nB
	default:
		return 0
	}
}

func chromaNeighbourCoeffs(arr *h264pic.MacroBlockArray, mb *h264pic.MacroBlock, blocks *[4]h264pic.Block, row, col int, dir h264pic.NeighbourIndex, neighbourBlocks func(*h264pic.MacroBlock) *[4]h264pic.Block, sliceFirst, sliceLast int) (int, bool) {
	nr, nc := row, col
	var ownerBlocks *[4]h264pic.Block
	switch dir {
	case h264pic.NeighbourLeft:
		if col == 0 {
			n := arr.Neighbour(mb, h264pic.NeighbourLeft, sliceFirst, sliceLast)
			if n == nil {
				return 0, false
			}
			ownerBlocks = neighbourBlocks(n)
			nc = 1
		} else {
			ownerBlocks = blocks
			nc = 0
		}
	case h264pic.NeighbourAbove:
		if row == 0 {
			n := arr.Neighbour(mb, h264pic.NeighbourAbove, sliceFirst, sliceLast)
			if n == nil {
				return 0, false
			}
			ownerBlocks = neighbourBlocks(n)
			nr = 1
		} else {
			ownerBlocks = blocks
			nr = 0
		}
	}
	b := ownerBlocks[nr*2+nc]
	if b.NumCoeffs < 0 {
		return 0, false
	}
	return b.NumCoeffs, true
}
