/*
DESCRIPTION
  palette.go provides YCbCr palettes with alpha and their conversion to and
  from RGB using BT.601 or BT.709 coefficients.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package palette provides the palette and alpha model of bitmap subtitles.
package palette

import (
	"image/color"
	"math"
)

// Transparent black in limited range YCbCr.
const (
	BlackY  = 16
	BlackCb = 128
	BlackCr = 128
)

// Entry is one palette entry.
type Entry struct {
	Y, Cb, Cr uint8
	Alpha     uint8
}

// Palette is an ordered set of entries, 256 for PGS and HD-DVD, 16 for a
// DVD stream palette and 4 for a decoded DVD caption.
type Palette struct {
	Entries []Entry
}

// New returns a palette of n fully transparent black entries.
func New(n int) *Palette {
	p := &Palette{Entries: make([]Entry, n)}
	for i := range p.Entries {
		p.Entries[i] = Entry{Y: BlackY, Cb: BlackCb, Cr: BlackCr}
	}
	return p
}

// FromRGB returns an opaque palette built from RGB colours.
func FromRGB(rgb []color.RGBA, bt709 bool) *Palette {
	p := New(len(rgb))
	for i, c := range rgb {
		p.SetRGB(i, c.R, c.G, c.B, bt709)
		p.Entries[i].Alpha = c.A
	}
	return p
}

// Len returns the number of entries.
func (p *Palette) Len() int { return len(p.Entries) }

// Clone returns a deep copy of p.
func (p *Palette) Clone() *Palette {
	c := &Palette{Entries: make([]Entry, len(p.Entries))}
	copy(c.Entries, p.Entries)
	return c
}

// SetRGB sets the colour of entry i from RGB, leaving alpha untouched.
func (p *Palette) SetRGB(i int, r, g, b uint8, bt709 bool) {
	y, cb, cr := RGBToYCbCr(r, g, b, bt709)
	e := &p.Entries[i]
	e.Y, e.Cb, e.Cr = y, cb, cr
}

// RGB returns the colour of entry i as RGB.
func (p *Palette) RGB(i int, bt709 bool) (r, g, b uint8) {
	e := p.Entries[i]
	return YCbCrToRGB(e.Y, e.Cb, e.Cr, bt709)
}

// Colors returns the palette as non-premultiplied colours.
func (p *Palette) Colors(bt709 bool) color.Palette {
	cp := make(color.Palette, len(p.Entries))
	for i, e := range p.Entries {
		r, g, b := YCbCrToRGB(e.Y, e.Cb, e.Cr, bt709)
		cp[i] = color.NRGBA{R: r, G: g, B: b, A: e.Alpha}
	}
	return cp
}

// AlphaSum returns the sum of all alpha values.
func (p *Palette) AlphaSum() int {
	n := 0
	for _, e := range p.Entries {
		n += int(e.Alpha)
	}
	return n
}

// Alphas returns a copy of the alpha values.
func (p *Palette) Alphas() []uint8 {
	a := make([]uint8, len(p.Entries))
	for i, e := range p.Entries {
		a[i] = e.Alpha
	}
	return a
}

// YCbCrToRGB converts limited range YCbCr to RGB.
func YCbCrToRGB(y, cb, cr uint8, bt709 bool) (r, g, b uint8) {
	fy := 1.164 * (float64(y) - 16)
	fcb := float64(cb) - 128
	fcr := float64(cr) - 128
	if bt709 {
		return clamp(fy + 1.793*fcr), clamp(fy - 0.534*fcr - 0.213*fcb), clamp(fy + 2.115*fcb)
	}
	return clamp(fy + 1.596*fcr), clamp(fy - 0.813*fcr - 0.391*fcb), clamp(fy + 2.018*fcb)
}

// RGBToYCbCr converts RGB to limited range YCbCr.
func RGBToYCbCr(r, g, b uint8, bt709 bool) (y, cb, cr uint8) {
	fr, fg, fb := float64(r), float64(g), float64(b)
	if bt709 {
		y = clamp(16 + 0.183*fr + 0.614*fg + 0.062*fb)
		cb = clamp(128 - 0.101*fr - 0.339*fg + 0.439*fb)
		cr = clamp(128 + 0.439*fr - 0.399*fg - 0.040*fb)
		return
	}
	y = clamp(16 + 0.257*fr + 0.504*fg + 0.098*fb)
	cb = clamp(128 - 0.148*fr - 0.291*fg + 0.439*fb)
	cr = clamp(128 + 0.439*fr - 0.368*fg - 0.071*fb)
	return
}

func clamp(v float64) uint8 {
	v = math.Round(v)
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}

// DefaultDVD is the stream palette used when exporting to DVD formats
// without an explicit palette.
var DefaultDVD = []color.RGBA{
	{0x00, 0x00, 0x00, 0xff}, {0xf0, 0xf0, 0xf0, 0xff}, {0xcc, 0xcc, 0xcc, 0xff}, {0x99, 0x99, 0x99, 0xff},
	{0x33, 0x33, 0xfa, 0xff}, {0x11, 0x11, 0xbb, 0xff}, {0xfa, 0x33, 0x33, 0xff}, {0xbb, 0x11, 0x11, 0xff},
	{0x33, 0xfa, 0x33, 0xff}, {0x11, 0xbb, 0x11, 0xff}, {0xfa, 0xfa, 0x33, 0xff}, {0xbb, 0xbb, 0x11, 0xff},
	{0xfa, 0x33, 0xfa, 0xff}, {0xbb, 0x11, 0xbb, 0xff}, {0x33, 0xfa, 0xfa, 0xff}, {0x11, 0xbb, 0xbb, 0xff},
}
