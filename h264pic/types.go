/*
DESCRIPTION
  types.go provides the shared enumerations for macroblock and prediction
  modes used across the encoder and decoder pipelines.

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

// MbPartPredMode is the macroblock partition prediction mode, section
// 7.4.5 of the specification.
type MbPartPredMode int8

const (
	PredIntra16x16 MbPartPredMode = iota
	PredIntra4x4
	PredInter16x16
)

// Intra16x16Mode is a luma Intra_16x16 prediction mode.
type Intra16x16Mode int8

const (
	Intra16x16Vertical Intra16x16Mode = iota
	Intra16x16Horizontal
	Intra16x16DC
	Intra16x16Plane
)

// IntraChromaMode is an Intra_Chroma prediction mode.
type IntraChromaMode int8

const (
	IntraChromaDC IntraChromaMode = iota
	IntraChromaHorizontal
	IntraChromaVertical
	IntraChromaPlane
)

// BlockKind distinguishes the seven residual block categories a
// macroblock may hold, used to select the CAVLC neighbour-context rule
// and the nC lookup column (table 9-5).
type BlockKind int8

const (
	BlockLuma BlockKind = iota
	BlockLumaDC
	BlockChromaAC
	BlockChromaDC
	BlockChromaDCNC // ChromaArrayType 2, nC fixed column (-1/-2 in spec table).
)

// NeighbourIndex identifies one of a macroblock's four causal neighbours.
type NeighbourIndex int8

const (
	NeighbourLeft NeighbourIndex = iota
	NeighbourAbove
	NeighbourAboveLeft
	NeighbourAboveRight
)
