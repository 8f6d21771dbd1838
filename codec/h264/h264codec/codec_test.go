/*
NAME
  codec_test.go

DESCRIPTION
  codec_test.go tests Codec's Open validation, its before-Open error
  paths, and that encoding a minimal picture produces a well-formed
  Annex-B byte stream.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264codec

import (
	"bytes"
	"testing"
)

func TestOpenRejectsNonMultipleOf16(t *testing.T) {
	c := NewCodec(nil)
	if err := c.Open(Params{Width: 17, Height: 32}); err == nil {
		t.Error("expected error for width not a multiple of 16")
	}
	if err := c.Open(Params{Width: 32, Height: 15}); err == nil {
		t.Error("expected error for height not a multiple of 16")
	}
}

func TestCodeBeforeOpenFails(t *testing.T) {
	c := NewCodec(nil)
	if ok := c.Code(make([]byte, 16*16+2*8*8)); ok != 0 {
		t.Error("Code before Open must return 0")
	}
}

func TestDecodeBeforeOpenFails(t *testing.T) {
	c := NewCodec(nil)
	if _, err := c.Decode([]byte{0, 0, 0, 1, 0x67}); err == nil {
		t.Error("Decode before Open must return an error")
	}
}

// TestCodeIPictureProducesAnnexBStream checks that encoding a single
// 16x16 (one macroblock) I picture yields an Annex-B byte stream
// beginning with a start code and carrying an IDR slice NAL unit, with
// GetCompressedByteLength matching the returned Bytes.
func TestCodeIPictureProducesAnnexBStream(t *testing.T) {
	c := NewCodec(nil)
	p := DefaultParams()
	p.Width, p.Height = 16, 16
	p.PictureCodingType = PictureI
	if err := c.Open(p); err != nil {
		t.Fatalf("Open: %v", err)
	}

	yuv := make([]byte, 16*16+2*8*8)
	for i := range yuv {
		yuv[i] = 128
	}
	if ok := c.Code(yuv); ok != 1 {
		t.Fatalf("Code returned %d, want 1", ok)
	}

	out := c.Bytes()
	if len(out) == 0 {
		t.Fatal("Code produced no output bytes")
	}
	if !bytes.HasPrefix(out, startCode) {
		t.Errorf("output does not begin with an Annex-B start code: %x", out[:4])
	}
	if got := c.GetCompressedByteLength(); got != len(out) {
		t.Errorf("GetCompressedByteLength() = %d, want %d", got, len(out))
	}

	nals, err := splitNALs(out)
	if err != nil {
		t.Fatalf("splitNALs: %v", err)
	}
	var sawSPS, sawPPS, sawIDR bool
	for _, n := range nals {
		switch n[0] & 0x1f {
		case nalTypeSPS:
			sawSPS = true
		case nalTypePPS:
			sawPPS = true
		case nalTypeSliceIDR:
			sawIDR = true
		}
	}
	if !sawSPS || !sawPPS || !sawIDR {
		t.Errorf("expected SPS+PPS+IDR slice NALs (GenParamSetOnOpen/PrependParamSetsToIPictures default true), got SPS=%v PPS=%v IDR=%v", sawSPS, sawPPS, sawIDR)
	}
}

func TestCloseResetsState(t *testing.T) {
	c := NewCodec(nil)
	p := DefaultParams()
	p.Width, p.Height = 16, 16
	if err := c.Open(p); err != nil {
		t.Fatalf("Open: %v", err)
	}
	c.Close()
	if ok := c.Code(make([]byte, 16*16+2*8*8)); ok != 0 {
		t.Error("Code after Close must return 0, same as before Open")
	}
}
