/*
DESCRIPTION
  nal_tables.go provides the NAL unit type constants and name table from
  table 7-1 of ITU-T H.264, plus the package debug logger, both referenced
  throughout this package's parsing code.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package h264dec

// Log describes the logging hook required by this package's debug
// tracing, matching the signature ausocean/utils/logging.Logger's methods
// are adapted to.
type Log func(lvl int8, msg string, args ...interface{})

// logger is the package-wide debug logging hook used by the slice/SPS/
// PPS/NAL parsing code below. It defaults to a no-op so the package is
// usable without a caller supplying one; SetLogger installs a real one.
var logger Log = func(lvl int8, msg string, args ...interface{}) {}

// SetLogger installs the hook used for debug logging throughout this
// package's NAL/SPS/PPS/slice parsing code, e.g. logging.New's Logger.Log
// method.
func SetLogger(l Log) {
	if l == nil {
		l = func(lvl int8, msg string, args ...interface{}) {}
	}
	logger = l
}

// NAL unit types from table 7-1 that are referenced by name elsewhere in
// this package but have no other natural home.
const (
	naluTypeSliceNonIDR        = 1
	naluTypeSliceIDR           = 5
	naluTypeSEI                = 6
	naluTypeSPS                = 7
	naluTypePPS                = 8
	NALTypeAccessUnitDelimiter = 9
	naluTypePrefixNALU         = 14
	naluTypeSliceLayerExtRBSP  = 20
	naluTypeSliceLayerExtRBSP2 = 21
)

// NALUnitType maps a NAL unit type (table 7-1) to its short name, used for
// debug logging.
var NALUnitType = map[int]string{
	0:  "Unspecified",
	1:  "Coded slice of a non-IDR picture",
	2:  "Coded slice data partition A",
	3:  "Coded slice data partition B",
	4:  "Coded slice data partition C",
	5:  "Coded slice of an IDR picture",
	6:  "Supplemental enhancement information (SEI)",
	7:  "Sequence parameter set",
	8:  "Picture parameter set",
	9:  "Access unit delimiter",
	10: "End of sequence",
	11: "End of stream",
	12: "Filler data",
	13: "Sequence parameter set extension",
	14: "Prefix NAL unit",
	15: "Subset sequence parameter set",
	19: "Coded slice of an auxiliary coded picture",
	20: "Coded slice extension",
	21: "Coded slice extension for depth view components",
}
