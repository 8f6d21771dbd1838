/*
DESCRIPTION
  image.go provides the three-plane YUV 4:2:0 picture buffer.

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

import "fmt"

// Image holds the Y, Cb, and Cr planes of a YUV 4:2:0 picture. Width and
// Height must be multiples of 16; there is no cropping.
type Image struct {
	Width, Height int
	Y, Cb, Cr     *Plane
}

// NewImage allocates a zeroed Image of the given luma dimensions, with
// chroma planes at half resolution in each axis.
func NewImage(width, height int) (*Image, error) {
	if width%16 != 0 || height%16 != 0 {
		return nil, fmt.Errorf("h264pic: width and height must be multiples of 16, got %dx%d", width, height)
	}
	return &Image{
		Width:  width,
		Height: height,
		Y:      NewPlane(width, height),
		Cb:     NewPlane(width/2, height/2),
		Cr:     NewPlane(width/2, height/2),
	}, nil
}

// FromYUV420 fills an Image from a packed planar YUV 4:2:0 byte buffer
// (Y plane, then Cb, then Cr, each row-major with no padding).
func FromYUV420(width, height int, buf []byte) (*Image, error) {
	img, err := NewImage(width, height)
	if err != nil {
		return nil, err
	}
	ySize := width * height
	cSize := (width / 2) * (height / 2)
	if len(buf) < ySize+2*cSize {
		return nil, fmt.Errorf("h264pic: short YUV buffer: got %d bytes, want %d", len(buf), ySize+2*cSize)
	}
	for i := 0; i < ySize; i++ {
		img.Y.Samples[i] = int16(buf[i])
	}
	for i := 0; i < cSize; i++ {
		img.Cb.Samples[i] = int16(buf[ySize+i])
		img.Cr.Samples[i] = int16(buf[ySize+cSize+i])
	}
	return img, nil
}

// ToYUV420 packs the Image back into a planar YUV 4:2:0 byte buffer,
// clipping samples to [0,255].
func (img *Image) ToYUV420() []byte {
	ySize := img.Width * img.Height
	cSize := (img.Width / 2) * (img.Height / 2)
	out := make([]byte, ySize+2*cSize)
	for i, s := range img.Y.Samples {
		out[i] = byte(clip255(int(s)))
	}
	for i, s := range img.Cb.Samples {
		out[ySize+i] = byte(clip255(int(s)))
	}
	for i, s := range img.Cr.Samples {
		out[ySize+cSize+i] = byte(clip255(int(s)))
	}
	return out
}

// PicWidthInMbs and PicHeightInMbs report the macroblock grid dimensions.
func (img *Image) PicWidthInMbs() int  { return img.Width / 16 }
func (img *Image) PicHeightInMbs() int { return img.Height / 16 }
