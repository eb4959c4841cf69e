/*
DESCRIPTION
  decode.go decodes the bitmap and palette of a PGS caption and provides the
  demultiplexer that drives the epoch state machine over a source.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pgs

import (
	"context"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/subtitle/caption"
	"github.com/ausocean/subtitle/codec/codecutil"
	"github.com/ausocean/subtitle/codec/palette"
	"github.com/ausocean/subtitle/codec/rle"
)

// Demux reads every segment of src through an epoch state machine. Reading
// stops at the first malformed segment; the captions found before it are
// kept and the error is returned in the result. progress, if not nil, is
// called with the offset of each segment.
func Demux(ctx context.Context, src *codecutil.Source, p caption.Params, log logging.Logger, progress caption.Progress) caption.Result {
	var res caption.Result
	m := NewMachine(p.MergeDiff)
	total := int64(src.Len())
	for off := 0; off < src.Len(); {
		if err := ctx.Err(); err != nil {
			res.Err = err
			break
		}
		if progress != nil {
			progress(int64(off), total)
		}
		seg, next, err := ReadSegment(src, off)
		if err != nil {
			log.Warning("stopped reading segments", "offset", off, "error", err)
			res.Err = err
			break
		}
		res.Log.Add(m.Handle(seg)...)
		off = next
	}
	res.Log.Add(m.Finish()...)
	res.Captions = m.Captions()
	if progress != nil && res.Err == nil {
		progress(total, total)
	}
	log.Debug("demultiplexed presentation graphic stream", "captions", len(res.Captions), "warnings", res.Log.String())
	return res
}

// Decode decodes the bitmap of c from src. Palette definitions are applied
// in arrival order through d.
func Decode(src *codecutil.Source, c *caption.Caption, d palette.Decoder) (*caption.Bitmap, []caption.Warning) {
	info, ok := c.Info.(*Info)
	if !ok {
		return nil, []caption.Warning{caption.Warn(caption.MalformedStream, -1, "caption carries no composition info")}
	}
	var warns []caption.Warning
	buf, missing := src.Gather(c.Fragments)
	switch {
	case missing != 0:
		warns = append(warns, caption.Warn(caption.InconsistentBuffer, -1, "%d object bytes outside source", missing))
	case len(buf) != info.DataLen:
		warns = append(warns, caption.Warn(caption.InconsistentBuffer, -1, "object declares %d bytes, fragments hold %d", info.DataLen, len(buf)))
	}

	p := palette.New(256)
	for _, defs := range info.Palettes {
		if d.Apply(p, defs) {
			warns = append(warns, caption.Warn(caption.Policy, -1, "palette fade-out suppressed"))
		}
	}

	bm := caption.NewBitmap(c.Width, c.Height, p)
	pix, n := rle.DecodePGS(buf, c.Width, c.Height)
	bm.Pix = pix
	if n != 0 {
		warns = append(warns, caption.Warn(caption.OutOfRange, -1, "%d runs clipped decoding %dx%d bitmap", n, c.Width, c.Height))
	}
	return bm, warns
}
