/*
DESCRIPTION
  caption.go defines the caption record shared by every subtitle container,
  the capability interface used by format independent code and the bitmap
  type produced by caption decoding.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package caption provides the data model for bitmap subtitle captions:
// caption records, decoded bitmaps, conversion parameters and the ordered
// warning log that accompanies every demux, decode or encode operation.
package caption

import (
	"image"

	"github.com/ausocean/subtitle/codec/codecutil"
	"github.com/ausocean/subtitle/codec/palette"
)

// PTSFrequency is the presentation timestamp frequency in Hz.
const PTSFrequency = 90000

// Fragment is an (offset, length) pair into the backing source of a stream.
type Fragment = codecutil.Fragment

// Timed is implemented by anything carrying caption timing and geometry.
type Timed interface {
	Timing() (start, end int64)
	IsForced() bool
	Bounds() image.Rectangle
}

// Caption is one visible subtitle event.
type Caption struct {
	Start int64 // Start time in 90kHz ticks.
	End   int64 // End time in 90kHz ticks, 0 while unresolved.

	ScreenWidth  int
	ScreenHeight int

	X, Y          int // Image origin on screen.
	Width, Height int // Image size.

	Forced  bool
	CompNum int // Composition number, monotonic within a stream.

	// Fragments locate the compressed pixel payload in the source.
	Fragments []Fragment

	// Info holds the format specific part of the caption, one of
	// *pgs.Info, *spu.Control or *hddvd.Control.
	Info interface{}
}

// Timing implements Timed.
func (c *Caption) Timing() (start, end int64) { return c.Start, c.End }

// IsForced implements Timed.
func (c *Caption) IsForced() bool { return c.Forced }

// Bounds implements Timed.
func (c *Caption) Bounds() image.Rectangle {
	return image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height)
}

// BufferSize returns the total length of the caption's RLE fragments.
func (c *Caption) BufferSize() int {
	n := 0
	for _, f := range c.Fragments {
		n += f.Len
	}
	return n
}

// Duration returns the display time in ticks, or 0 while the end is unresolved.
func (c *Caption) Duration() int64 {
	if c.End < c.Start {
		return 0
	}
	return c.End - c.Start
}

// Bitmap is a decoded caption image: palette indexed pixels plus the
// resolved palette.
type Bitmap struct {
	Width, Height int
	Pix           []byte // Palette indices, row major.
	Palette       *palette.Palette
}

// NewBitmap returns a transparent bitmap of the given size.
func NewBitmap(w, h int, p *palette.Palette) *Bitmap {
	return &Bitmap{Width: w, Height: h, Pix: make([]byte, w*h), Palette: p}
}

// Image renders the bitmap as an image.Paletted using BT.601 or BT.709
// coefficients.
func (b *Bitmap) Image(bt709 bool) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, b.Width, b.Height), b.Palette.Colors(bt709))
	copy(img.Pix, b.Pix)
	return img
}

// Cropped returns the sub-bitmap bounded by r, sharing the palette.
func (b *Bitmap) Cropped(r image.Rectangle) *Bitmap {
	r = r.Intersect(image.Rect(0, 0, b.Width, b.Height))
	out := NewBitmap(r.Dx(), r.Dy(), b.Palette)
	for y := 0; y < r.Dy(); y++ {
		copy(out.Pix[y*out.Width:(y+1)*out.Width], b.Pix[(r.Min.Y+y)*b.Width+r.Min.X:])
	}
	return out
}

// Visible returns the smallest rectangle holding every pixel whose palette
// alpha is at least threshold. An empty rectangle means nothing is visible.
func (b *Bitmap) Visible(threshold int) image.Rectangle {
	var r image.Rectangle
	first := true
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if int(b.Palette.Entries[b.Pix[y*b.Width+x]].Alpha) < threshold {
				continue
			}
			p := image.Rect(x, y, x+1, y+1)
			if first {
				r = p
				first = false
				continue
			}
			r = r.Union(p)
		}
	}
	return r
}

// DefaultDuration is the display time given to a caption whose end is
// never signalled and which has no successor.
const DefaultDuration = 2 * PTSFrequency

// ResolveEnds gives every open caption of caps an end time: the start of
// the next caption, or DefaultDuration after its own start for the last one.
// An end before the start is clamped to the start.
func ResolveEnds(caps []*Caption) []Warning {
	var warns []Warning
	for i, c := range caps {
		switch {
		case c.End == 0:
			c.End = c.Start + DefaultDuration
			if i+1 < len(caps) && caps[i+1].Start > c.Start {
				c.End = caps[i+1].Start
			}
			warns = append(warns, WarnCaption(Policy, i, "missing end time, set to %d", c.End))
		case c.End < c.Start:
			warns = append(warns, WarnCaption(MalformedStream, i, "end %d before start %d", c.End, c.Start))
			c.End = c.Start
		}
	}
	return warns
}
