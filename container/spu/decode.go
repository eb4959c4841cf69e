/*
DESCRIPTION
  decode.go decodes the 4 colour bitmap of a sub-picture unit.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package spu

import (
	"github.com/ausocean/subtitle/caption"
	"github.com/ausocean/subtitle/codec/codecutil"
	"github.com/ausocean/subtitle/codec/palette"
	"github.com/ausocean/subtitle/codec/rle"
)

// Decode decodes the bitmap of spu as described by ctl. The four colours are
// taken from clut, the 16 entry stream palette, with the alpha of ctl scaled
// to 8 bits, and the alpha crop of d is applied.
func Decode(spu []byte, ctl *Control, clut *palette.Palette, d palette.Decoder) (*caption.Bitmap, []caption.Warning) {
	var warns []caption.Warning
	p := palette.New(4)
	for i := range p.Entries {
		idx := int(ctl.Index[i])
		if idx >= clut.Len() {
			warns = append(warns, caption.Warn(caption.OutOfRange, -1, "palette index %d beyond %d entries", idx, clut.Len()))
			continue
		}
		e := clut.Entries[idx]
		e.Alpha = ctl.Alpha[i] * 17
		p.Entries[i] = e
	}
	d.Crop(p)

	w, h := ctl.Area.Dx(), ctl.Area.Dy()
	bm := caption.NewBitmap(w, h, p)
	pix, n := rle.DecodeInterlaced(spu, ctl.EvenOff, ctl.OddOff, w, h)
	bm.Pix = pix
	if n != 0 {
		warns = append(warns, caption.Warn(caption.OutOfRange, -1, "%d runs clipped decoding %dx%d bitmap", n, w, h))
	}
	return bm, warns
}

// DecodeCaption gathers the SPU of c from src and decodes it. c.Info must
// hold the *Control set by Apply.
func DecodeCaption(src *codecutil.Source, c *caption.Caption, clut *palette.Palette, d palette.Decoder) (*caption.Bitmap, []caption.Warning) {
	ctl, ok := c.Info.(*Control)
	if !ok {
		return nil, []caption.Warning{caption.Warn(caption.MalformedStream, -1, "caption carries no sub-picture control header")}
	}
	buf, missing := src.Gather(c.Fragments)
	var warns []caption.Warning
	if missing != 0 {
		warns = append(warns, caption.Warn(caption.InconsistentBuffer, -1, "%d sub-picture bytes outside source", missing))
	}
	bm, w := Decode(buf, ctl, clut, d)
	return bm, append(warns, w...)
}
