/*
NAME
  image_test.go

DESCRIPTION
  image_test.go tests the planar YUV 4:2:0 packing/unpacking round trip
  and the macroblock-grid dimension helpers in image.go.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package h264pic

import "testing"

func TestNewImageRejectsNonMultipleOf16(t *testing.T) {
	if _, err := NewImage(17, 32); err == nil {
		t.Error("expected error for width not a multiple of 16")
	}
	if _, err := NewImage(32, 15); err == nil {
		t.Error("expected error for height not a multiple of 16")
	}
}

func TestFromYUV420ToYUV420RoundTrip(t *testing.T) {
	const w, h = 32, 16
	ySize := w * h
	cSize := (w / 2) * (h / 2)
	buf := make([]byte, ySize+2*cSize)
	for i := range buf {
		buf[i] = byte(i % 251)
	}

	img, err := FromYUV420(w, h, buf)
	if err != nil {
		t.Fatalf("FromYUV420: %v", err)
	}
	got := img.ToYUV420()
	if len(got) != len(buf) {
		t.Fatalf("ToYUV420 length = %d, want %d", len(got), len(buf))
	}
	for i := range buf {
		if got[i] != buf[i] {
			t.Fatalf("byte %d: got %d, want %d", i, got[i], buf[i])
		}
	}
}

func TestFromYUV420ShortBuffer(t *testing.T) {
	if _, err := FromYUV420(32, 16, make([]byte, 10)); err == nil {
		t.Error("expected error for short YUV buffer")
	}
}

func TestPicDimensionsInMbs(t *testing.T) {
	img, err := NewImage(64, 32)
	if err != nil {
		t.Fatalf("NewImage: %v", err)
	}
	if got := img.PicWidthInMbs(); got != 4 {
		t.Errorf("PicWidthInMbs() = %d, want 4", got)
	}
	if got := img.PicHeightInMbs(); got != 2 {
		t.Errorf("PicHeightInMbs() = %d, want 2", got)
	}
}
