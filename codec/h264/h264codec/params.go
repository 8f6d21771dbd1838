/*
DESCRIPTION
  params.go defines Params, the string-keyed configuration surface a
  Codec is opened with, mirrored from H264v2Codec's GetParameter/
  SetParameter: typed fields for normal Go use, plus Get/Set string
  accessors for callers (such as cmd/h264tool's fsnotify-driven reload)
  that only have a key/value pair.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package h264codec

import (
	"fmt"
	"strconv"
)

// Colour space identifiers for Params.InColour/OutColour.
const (
	ColourRGB24 = iota
	ColourRGB32
	ColourRGB16
	ColourYUV420P8
	ColourYUV420P16
)

// Picture coding types for Params.PictureCodingType, selecting what Code
// produces.
const (
	PictureI = iota
	PictureP
	PictureSPS
	PicturePPS
)

// Modes of operation for Params.ModeOfOperation.
const (
	ModeOpen = iota
	ModeMinMaxAdaptive
)

// Params configuration map keys, for callers using the string-keyed
// Get/Set accessors.
const (
	KeyWidth                        = "width"
	KeyHeight                       = "height"
	KeyInColour                     = "incolour"
	KeyOutColour                    = "outcolour"
	KeyFlip                         = "flip"
	KeyPictureCodingType            = "picture coding type"
	KeyQuality                      = "quality"
	KeyAutoIPicture                 = "autoipicture"
	KeyIPictureMultiplier           = "ipicturemultiplier"
	KeyIPictureFraction             = "ipicturefraction"
	KeyModeOfOperation              = "mode of operation"
	KeyIntraIterationLimit          = "intra iteration limit"
	KeyInterIterationLimit          = "inter iteration limit"
	KeyTimeLimitMsec                = "time limit msec"
	KeySeqParamSet                  = "seq param set"
	KeyPicParamSet                  = "pic param set"
	KeyGenParamSetOnOpen            = "gen param set on open"
	KeyPrependParamSetsToIPictures  = "prepend param sets to i-pictures"
	KeyStartCodeEmulationPrevention = "start code emulation prevention"
	KeyIDRFrameNumber               = "idr frame number"
	KeyPFrameNumber                 = "p frame number"
	KeySeqParamLog2MaxFrameNumMin4  = "seq param log2 max frame num minus 4"
)

// Params is the configuration a Codec is Open'd with. Open keeps its own
// copy, so a change made afterwards via Set, to any field, takes effect
// only when the changed Params is passed to the next Open.
type Params struct {
	Width, Height uint // Picture dimensions, multiples of 16.

	InColour, OutColour int // One of the Colour* constants.
	Flip                bool

	PictureCodingType int // One of the Picture* constants.
	Quality           int // Slice QP, 1..51.

	AutoIPicture       bool
	IPictureMultiplier int
	IPictureFraction   int

	ModeOfOperation int // One of the Mode* constants.

	IntraIterationLimit int
	InterIterationLimit int
	TimeLimitMsec       int // 0 disables the rate controller's wall-clock cap.

	SeqParamSet int // 0..31
	PicParamSet int // 0..255

	GenParamSetOnOpen           bool
	PrependParamSetsToIPictures bool

	StartCodeEmulationPrevention bool

	IDRFrameNumber int
	PFrameNumber   int

	SeqParamLog2MaxFrameNumMinus4 int // 0..12
}

// DefaultParams returns a Params with the Baseline-profile defaults
// used throughout spec section 6: CAVLC, no constrained-intra override
// beyond what PPS requires, start-code emulation prevention on, and
// parameter sets generated and prepended automatically.
func DefaultParams() Params {
	return Params{
		InColour:                      ColourYUV420P8,
		OutColour:                     ColourYUV420P8,
		PictureCodingType:             PictureI,
		Quality:                       26,
		ModeOfOperation:               ModeOpen,
		GenParamSetOnOpen:             true,
		PrependParamSetsToIPictures:   true,
		StartCodeEmulationPrevention:  true,
	}
}

// Get returns the string value of the parameter named by key.
func (p *Params) Get(key string) (string, error) {
	switch key {
	case KeyWidth:
		return strconv.FormatUint(uint64(p.Width), 10), nil
	case KeyHeight:
		return strconv.FormatUint(uint64(p.Height), 10), nil
	case KeyInColour:
		return strconv.Itoa(p.InColour), nil
	case KeyOutColour:
		return strconv.Itoa(p.OutColour), nil
	case KeyFlip:
		return strconv.FormatBool(p.Flip), nil
	case KeyPictureCodingType:
		return strconv.Itoa(p.PictureCodingType), nil
	case KeyQuality:
		return strconv.Itoa(p.Quality), nil
	case KeyAutoIPicture:
		return strconv.FormatBool(p.AutoIPicture), nil
	case KeyIPictureMultiplier:
		return strconv.Itoa(p.IPictureMultiplier), nil
	case KeyIPictureFraction:
		return strconv.Itoa(p.IPictureFraction), nil
	case KeyModeOfOperation:
		return strconv.Itoa(p.ModeOfOperation), nil
	case KeyIntraIterationLimit:
		return strconv.Itoa(p.IntraIterationLimit), nil
	case KeyInterIterationLimit:
		return strconv.Itoa(p.InterIterationLimit), nil
	case KeyTimeLimitMsec:
		return strconv.Itoa(p.TimeLimitMsec), nil
	case KeySeqParamSet:
		return strconv.Itoa(p.SeqParamSet), nil
	case KeyPicParamSet:
		return strconv.Itoa(p.PicParamSet), nil
	case KeyGenParamSetOnOpen:
		return strconv.FormatBool(p.GenParamSetOnOpen), nil
	case KeyPrependParamSetsToIPictures:
		return strconv.FormatBool(p.PrependParamSetsToIPictures), nil
	case KeyStartCodeEmulationPrevention:
		return strconv.FormatBool(p.StartCodeEmulationPrevention), nil
	case KeyIDRFrameNumber:
		return strconv.Itoa(p.IDRFrameNumber), nil
	case KeyPFrameNumber:
		return strconv.Itoa(p.PFrameNumber), nil
	case KeySeqParamLog2MaxFrameNumMin4:
		return strconv.Itoa(p.SeqParamLog2MaxFrameNumMinus4), nil
	default:
		return "", fmt.Errorf("h264codec: unknown parameter %q", key)
	}
}

// Set parses value and assigns it to the parameter named by key.
func (p *Params) Set(key, value string) error {
	switch key {
	case KeyWidth:
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		p.Width = uint(v)
	case KeyHeight:
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		p.Height = uint(v)
	case KeyInColour:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		p.InColour = v
	case KeyOutColour:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		p.OutColour = v
	case KeyFlip:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		p.Flip = v
	case KeyPictureCodingType:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		p.PictureCodingType = v
	case KeyQuality:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		if v < 1 || v > 51 {
			return fmt.Errorf("h264codec: %s: %d out of range [1,51]", key, v)
		}
		p.Quality = v
	case KeyAutoIPicture:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		p.AutoIPicture = v
	case KeyIPictureMultiplier:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		p.IPictureMultiplier = v
	case KeyIPictureFraction:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		p.IPictureFraction = v
	case KeyModeOfOperation:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		p.ModeOfOperation = v
	case KeyIntraIterationLimit:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		p.IntraIterationLimit = v
	case KeyInterIterationLimit:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		p.InterIterationLimit = v
	case KeyTimeLimitMsec:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		p.TimeLimitMsec = v
	case KeySeqParamSet:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		if v < 0 || v > 31 {
			return fmt.Errorf("h264codec: %s: %d out of range [0,31]", key, v)
		}
		p.SeqParamSet = v
	case KeyPicParamSet:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		if v < 0 || v > 255 {
			return fmt.Errorf("h264codec: %s: %d out of range [0,255]", key, v)
		}
		p.PicParamSet = v
	case KeyGenParamSetOnOpen:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		p.GenParamSetOnOpen = v
	case KeyPrependParamSetsToIPictures:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		p.PrependParamSetsToIPictures = v
	case KeyStartCodeEmulationPrevention:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		p.StartCodeEmulationPrevention = v
	case KeyIDRFrameNumber:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		p.IDRFrameNumber = v
	case KeyPFrameNumber:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		p.PFrameNumber = v
	case KeySeqParamLog2MaxFrameNumMin4:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("h264codec: %s: %w", key, err)
		}
		if v < 0 || v > 12 {
			return fmt.Errorf("h264codec: %s: %d out of range [0,12]", key, v)
		}
		p.SeqParamLog2MaxFrameNumMinus4 = v
	default:
		return fmt.Errorf("h264codec: unknown parameter %q", key)
	}
	return nil
}
