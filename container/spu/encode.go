/*
DESCRIPTION
  encode.go builds complete sub-picture units from 4 colour images.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package spu

import (
	"image"

	"github.com/pkg/errors"

	"github.com/ausocean/subtitle/caption"
	"github.com/ausocean/subtitle/codec/palette"
	"github.com/ausocean/subtitle/codec/rle"
)

// maxCoord is the largest coordinate the 12 bit area fields can hold.
const maxCoord = 0xfff

// Picture describes the content of one SPU to be built.
type Picture struct {
	Pix      []byte          // Pixel values 0 to 3, row major over Area.
	Area     image.Rectangle // Display area on screen.
	Index    [4]uint8        // Palette index of each pixel value.
	Alpha    [4]uint8        // Alpha of each pixel value, 0 to 15.
	Duration int64           // Display time in ticks.
	Forced   bool
}

// NewPicture quantises bm to four colours matched against the 16 entry
// stream palette clut and places it at the position of c. Pixels with an
// alpha below threshold become background.
func NewPicture(c *caption.Caption, bm *caption.Bitmap, clut *palette.Palette, threshold int) *Picture {
	q := palette.Quantize(bm.Pix, bm.Palette, clut, threshold)
	return &Picture{
		Pix:      q.Pix,
		Area:     image.Rect(c.X, c.Y, c.X+bm.Width, c.Y+bm.Height),
		Index:    q.Index,
		Alpha:    q.Alpha,
		Duration: c.Duration(),
		Forced:   c.Forced,
	}
}

// Encode builds an SPU for pic. The layout is the size and control offset
// words, the even then odd field, a start sequence carrying all display
// commands and a stop sequence that points to itself.
func Encode(pic *Picture) ([]byte, error) {
	w, h := pic.Area.Dx(), pic.Area.Dy()
	if w <= 0 || h <= 0 {
		return nil, errors.New("empty display area")
	}
	if pic.Area.Min.X < 0 || pic.Area.Min.Y < 0 || pic.Area.Max.X-1 > maxCoord || pic.Area.Max.Y-1 > maxCoord {
		return nil, errors.Errorf("display area %v out of range", pic.Area)
	}
	if len(pic.Pix) != w*h {
		return nil, errors.Errorf("have %d pixels for %dx%d area", len(pic.Pix), w, h)
	}

	data, odd := rle.EncodeInterlaced(pic.Pix, w, h)
	ctrl := HeaderLen + len(data)

	var cmds []byte
	if pic.Forced {
		cmds = append(cmds, cmdForced)
	}
	pal := packNibbles(pic.Index)
	alpha := packNibbles(pic.Alpha)
	x1, x2 := pic.Area.Min.X, pic.Area.Max.X-1
	y1, y2 := pic.Area.Min.Y, pic.Area.Max.Y-1
	even := HeaderLen
	oddOff := HeaderLen + odd
	cmds = append(cmds,
		cmdStart,
		cmdPalette, pal[0], pal[1],
		cmdAlpha, alpha[0], alpha[1],
		cmdArea,
		byte(x1>>4), byte(x1<<4)|byte(x2>>8), byte(x2),
		byte(y1>>4), byte(y1<<4)|byte(y2>>8), byte(y2),
		cmdOffsets, byte(even>>8), byte(even), byte(oddOff>>8), byte(oddOff),
		cmdEnd,
	)
	stop := ctrl + 4 + len(cmds)
	size := stop + 6
	if size > MaxSize {
		return nil, errors.Wrapf(ErrTooLarge, "%d bytes", size)
	}

	date := (pic.Duration + DateTicks/2) / DateTicks
	if date > 0xffff {
		date = 0xffff
	}

	buf := make([]byte, 0, size)
	buf = append(buf, byte(size>>8), byte(size), byte(ctrl>>8), byte(ctrl))
	buf = append(buf, data...)
	buf = append(buf, 0, 0, byte(stop>>8), byte(stop))
	buf = append(buf, cmds...)
	buf = append(buf, byte(date>>8), byte(date), byte(stop>>8), byte(stop), cmdStop, cmdEnd)
	return buf, nil
}
